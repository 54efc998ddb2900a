package serving

import (
	"github.com/rs/zerolog"
)

// Options configures server construction. It is mutable until passed to New,
// which copies it; mutating an Options after that has no effect on the
// constructed server (usage contract, not enforced).
type Options struct {
	modelRepository string
	queueDepth      int
	logger          zerolog.Logger
}

// NewOptions returns an Options with a disabled logger and default queueing.
func NewOptions() *Options {
	return &Options{logger: zerolog.Nop()}
}

// SetModelRepository sets the model repository path. No validation happens
// here; an invalid path surfaces when the server is constructed.
func (o *Options) SetModelRepository(path string) { o.modelRepository = path }

// ModelRepository returns the configured repository path.
func (o *Options) ModelRepository() string { return o.modelRepository }

// SetQueueDepth bounds each model's pending-request queue. Zero or negative
// keeps the engine default.
func (o *Options) SetQueueDepth(n int) { o.queueDepth = n }

// SetLogger installs a structured logger used by the server and engine.
func (o *Options) SetLogger(l zerolog.Logger) { o.logger = l }
