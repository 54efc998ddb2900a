package engine

import (
	"fmt"
	"sync"
	"sync/atomic"

	"inferd/pkg/types"
)

// job is one accepted inference: providers, stats context, and the
// completion continuation to invoke with the terminal result.
type job struct {
	req   *RequestProvider
	resp  *ResponseProvider
	stats *InferStats
	done  func(types.RequestStatus)
}

// Backend is one loaded model version. Each backend owns a bounded queue and
// a single worker goroutine that executes requests in FIFO order; its
// completion continuations therefore run on the worker, never on the
// caller's goroutine.
type Backend struct {
	config   types.ModelConfig
	version  int64
	dir      string
	exec     Executor
	labels   *LabelProvider
	reporter *MetricReporter

	queue      chan job
	workerDone chan struct{}

	mu     sync.Mutex
	closed bool

	inferCount   atomic.Uint64
	failureCount atomic.Uint64
}

// newBackend loads one model version: resolves the platform executor, reads
// label files, and starts the worker.
func newBackend(cfg types.ModelConfig, version int64, dir string, queueDepth int) (*Backend, error) {
	exec, err := resolveExecutor(cfg.Platform)
	if err != nil {
		return nil, err
	}
	if err := validatePlatform(cfg); err != nil {
		return nil, err
	}
	labels, err := loadLabels(dir, cfg)
	if err != nil {
		return nil, fmt.Errorf("labels: %w", err)
	}
	if queueDepth <= 0 {
		queueDepth = defaultQueueDepth
	}
	b := &Backend{
		config:     cfg,
		version:    version,
		dir:        dir,
		exec:       exec,
		labels:     labels,
		reporter:   newMetricReporter(cfg.Name, version),
		queue:      make(chan job, queueDepth),
		workerDone: make(chan struct{}),
	}
	go b.run()
	return b, nil
}

// Name returns the model name.
func (b *Backend) Name() string { return b.config.Name }

// Version returns the loaded version number.
func (b *Backend) Version() int64 { return b.version }

// Config returns the model config.
func (b *Backend) Config() types.ModelConfig { return b.config }

// Labels returns the backend's label metadata.
func (b *Backend) Labels() *LabelProvider { return b.labels }

// MetricReporter returns the backend's metric sink.
func (b *Backend) MetricReporter() *MetricReporter { return b.reporter }

// versionStatus snapshots the per-version counters for status reporting.
func (b *Backend) versionStatus(state types.ReadyState) types.VersionStatus {
	return types.VersionStatus{
		State:        state,
		InferCount:   b.inferCount.Load(),
		FailureCount: b.failureCount.Load(),
	}
}

// dispatch enqueues one job without blocking. A full queue or a stopped
// backend is a scheduling failure: the job is rejected and its continuation
// is never invoked.
func (b *Backend) dispatch(j job) types.RequestStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return types.Status(types.StatusUnavailable,
			fmt.Sprintf("model %q version %d is stopping", b.config.Name, b.version))
	}
	select {
	case b.queue <- j:
		return types.StatusOK()
	default:
		return types.Status(types.StatusUnavailable,
			fmt.Sprintf("inference queue full for model %q version %d", b.config.Name, b.version))
	}
}

// stop rejects further dispatches, drains queued jobs, and waits for the
// worker to exit.
func (b *Backend) stop() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		<-b.workerDone
		return
	}
	b.closed = true
	close(b.queue)
	b.mu.Unlock()
	<-b.workerDone
}

func (b *Backend) run() {
	defer close(b.workerDone)
	for j := range b.queue {
		st := b.exec(b, j.req, j.resp)
		if st.OK() {
			j.resp.finalize(b.config.Name, b.version)
		} else {
			b.failureCount.Add(1)
		}
		b.inferCount.Add(1)
		j.done(st)
	}
}
