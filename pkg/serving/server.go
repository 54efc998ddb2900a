package serving

import (
	"github.com/rs/zerolog"

	"inferd/internal/engine"
	"inferd/pkg/types"
)

// Server owns one engine instance for its whole lifetime. Multiple servers
// may coexist in one process; no global state is shared between them beyond
// process-wide metrics registration.
type Server struct {
	core *engine.Core
	log  zerolog.Logger
}

// New constructs a server from options: it builds the engine with the
// configured model repository and initializes it. On initialization failure
// the partially built engine is torn down and an INVALID_ARG class error is
// returned.
func New(opts *Options) (*Server, *Error) {
	core := engine.New(engine.Config{
		ModelRepository: opts.modelRepository,
		QueueDepth:      opts.queueDepth,
		Logger:          opts.logger,
	})
	if err := core.Init(); err != nil {
		core.Stop()
		return nil, newError(types.Status(types.StatusInvalidArg,
			"failed to initialize inference server: "+err.Error()))
	}
	return &Server{core: core, log: opts.logger}, nil
}

// Close requests a graceful engine stop and waits for in-flight work to
// complete before releasing it. Safe on a nil receiver and safe to call
// more than once.
func (s *Server) Close() *Error {
	if s == nil {
		return nil
	}
	s.core.Stop()
	return nil
}

// IsLive reports whether the server process is healthy enough to serve.
func (s *Server) IsLive() (bool, *Error) {
	st, live := s.core.HandleHealth("live")
	return live, newError(st)
}

// IsReady reports whether the server is ready to run inference.
func (s *Server) IsReady() (bool, *Error) {
	st, ready := s.core.HandleHealth("ready")
	return ready, newError(st)
}

// Status returns the serialized status of the server and every model.
func (s *Server) Status() (*Payload, *Error) {
	return s.statusPayload("")
}

// ModelStatus returns the serialized status restricted to one model. An
// empty name is equivalent to Status.
func (s *Server) ModelStatus(modelName string) (*Payload, *Error) {
	return s.statusPayload(modelName)
}

func (s *Server) statusPayload(modelName string) (*Payload, *Error) {
	st, status := s.core.HandleStatus(modelName)
	if !st.OK() {
		return nil, newError(st)
	}
	return newPayload(status)
}
