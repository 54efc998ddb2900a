package serving

import (
	"inferd/internal/engine"
	"inferd/pkg/types"
)

// CompleteFn receives the outcome of one asynchronous inference. It is
// invoked exactly once per successfully scheduled call, on an engine worker
// goroutine, strictly after InferAsync has returned. The callback owns resp.
type CompleteFn func(s *Server, resp *Response, userp any)

// InferAsync validates and schedules one inference call. The returned error
// reports scheduling failures only: when it is non-nil the callback will
// never fire, and when it is nil the eventual outcome — success or failure —
// is reported through resp.Status() inside the callback.
//
// The request's input buffers are read by the engine during asynchronous
// execution; the caller must keep them valid until the callback fires. No
// ordering is guaranteed between callbacks of concurrently scheduled calls,
// and a scheduled call cannot be cancelled.
func (s *Server) InferAsync(req *Request, complete CompleteFn, userp any) *Error {
	// The stats context starts marked failed; the mark is cleared only by the
	// completion continuation, so every early return below is accounted as a
	// failed request.
	stats := engine.NewInferStats(req.modelName, req.modelVersion)

	backend, st := s.core.Backend(req.modelName, req.modelVersion)
	if !st.OK() {
		stats.Report()
		return newError(st)
	}
	stats.SetMetricReporter(backend.MetricReporter())
	stats.SetBatchSize(req.header.BatchSize)

	if st := engine.NormalizeHeader(backend, &req.header); !st.OK() {
		stats.Report()
		return newError(st)
	}

	reqProvider, st := engine.NewRequestProvider(req.modelName, backend.Version(), &req.header, req.inputs)
	if !st.OK() {
		stats.Report()
		return newError(st)
	}

	respProvider, st := engine.NewResponseProvider(&req.header, backend.Labels())
	if !st.OK() {
		stats.Report()
		return newError(st)
	}

	s.log.Debug().
		Str("request_id", stats.RequestID()).
		Str("model", req.modelName).
		Int64("version", backend.Version()).
		Uint32("batch_size", req.header.BatchSize).
		Msg("inference scheduled")

	// The continuation shares ownership of the stats context and response
	// provider with this frame; the engine invokes it exactly once, on a
	// worker goroutine, after producing the terminal result.
	st = s.core.HandleInfer(backend, reqProvider, respProvider, stats,
		func(result types.RequestStatus) {
			stats.SetFailed(false)
			stats.Report()
			complete(s, &Response{status: result, provider: respProvider}, userp)
		})
	if !st.OK() {
		stats.Report()
		return newError(st)
	}
	return nil
}
