package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"inferd/internal/registry"
	"inferd/pkg/types"
)

// defaultQueueDepth bounds each backend's pending-request queue.
const defaultQueueDepth = 32

// ResolveLatest requests the highest available version of a model.
const ResolveLatest int64 = -1

// Config holds the tunables for Core construction.
type Config struct {
	ModelRepository string
	QueueDepth      int
	ID              string
	Version         string
	Logger          zerolog.Logger
}

// Core is the inference engine: it owns the model repository scan, the
// loaded backends, and the per-backend workers that complete asynchronous
// inference calls.
type Core struct {
	cfg Config
	log zerolog.Logger

	mu       sync.RWMutex
	state    types.ReadyState
	backends map[string]map[int64]*Backend
	latest   map[string]int64

	watcher   *registry.Watcher
	startTime time.Time
	inflight  sync.WaitGroup
	stopCh    chan struct{}
	stopOnce  sync.Once
}

// New constructs an engine around a model repository path. Init must be
// called before any query or inference.
func New(cfg Config) *Core {
	if cfg.ID == "" {
		cfg.ID = "inferd"
	}
	if cfg.QueueDepth <= 0 {
		cfg.QueueDepth = defaultQueueDepth
	}
	return &Core{
		cfg:      cfg,
		log:      cfg.Logger,
		state:    types.ReadyStateInitializing,
		backends: make(map[string]map[int64]*Backend),
		latest:   make(map[string]int64),
		stopCh:   make(chan struct{}),
	}
}

// Init scans the repository, loads a backend per model version, and starts
// the repository watcher. On failure everything already loaded is torn down
// and the engine is left unusable.
func (c *Core) Init() error {
	entries, err := registry.Load(c.cfg.ModelRepository, func(model string, err error) {
		c.log.Warn().Str("model", model).Err(err).Msg("skipping model with bad config")
	})
	if err != nil {
		return err
	}
	c.mu.Lock()
	for _, e := range entries {
		if err := c.loadEntryLocked(e); err != nil {
			c.teardownLocked()
			c.mu.Unlock()
			return err
		}
	}
	c.state = types.ReadyStateReady
	c.startTime = time.Now()
	c.mu.Unlock()

	w, err := registry.NewWatcher(c.cfg.ModelRepository, c.log)
	if err != nil {
		c.mu.Lock()
		c.teardownLocked()
		c.mu.Unlock()
		return fmt.Errorf("repository watcher: %w", err)
	}
	c.watcher = w
	go c.reloadLoop()
	c.log.Info().Str("repository", c.cfg.ModelRepository).Int("models", len(entries)).Msg("engine initialized")
	return nil
}

// loadEntryLocked creates backends for every version of one entry.
func (c *Core) loadEntryLocked(e registry.Entry) error {
	versions := make(map[int64]*Backend, len(e.Versions))
	for _, v := range e.Versions {
		b, err := newBackend(e.Config, v, e.Dir, c.cfg.QueueDepth)
		if err != nil {
			for _, loaded := range versions {
				loaded.stop()
			}
			return fmt.Errorf("model %q version %d: %w", e.Config.Name, v, err)
		}
		versions[v] = b
	}
	c.backends[e.Config.Name] = versions
	c.latest[e.Config.Name] = e.LatestVersion()
	return nil
}

func (c *Core) teardownLocked() {
	for _, versions := range c.backends {
		for _, b := range versions {
			b.stop()
		}
	}
	c.backends = make(map[string]map[int64]*Backend)
	c.latest = make(map[string]int64)
	c.state = types.ReadyStateUnavailable
}

// reloadLoop rescans the repository whenever the watcher reports changes.
func (c *Core) reloadLoop() {
	for {
		select {
		case <-c.stopCh:
			return
		case _, ok := <-c.watcher.Changes():
			if !ok {
				return
			}
			c.rescan()
		}
	}
}

// rescan reconciles loaded backends with the repository contents: new models
// and versions are loaded, removed ones are stopped and dropped. Models whose
// reload fails keep serving their previously loaded backends.
func (c *Core) rescan() {
	entries, err := registry.Load(c.cfg.ModelRepository, func(model string, err error) {
		c.log.Warn().Str("model", model).Err(err).Msg("skipping model with bad config")
	})
	if err != nil {
		c.log.Warn().Err(err).Msg("repository rescan failed")
		return
	}
	seen := make(map[string]map[int64]bool, len(entries))
	c.mu.Lock()
	if c.state != types.ReadyStateReady {
		c.mu.Unlock()
		return
	}
	for _, e := range entries {
		name := e.Config.Name
		seen[name] = make(map[int64]bool, len(e.Versions))
		versions := c.backends[name]
		if versions == nil {
			if err := c.loadEntryLocked(e); err != nil {
				c.log.Warn().Str("model", name).Err(err).Msg("failed to load new model")
				delete(c.backends, name)
				delete(c.latest, name)
				continue
			}
			for _, v := range e.Versions {
				seen[name][v] = true
			}
			c.log.Info().Str("model", name).Msg("loaded new model")
			continue
		}
		for _, v := range e.Versions {
			seen[name][v] = true
			if _, ok := versions[v]; ok {
				continue
			}
			b, err := newBackend(e.Config, v, e.Dir, c.cfg.QueueDepth)
			if err != nil {
				c.log.Warn().Str("model", name).Int64("version", v).Err(err).Msg("failed to load version")
				continue
			}
			versions[v] = b
			c.log.Info().Str("model", name).Int64("version", v).Msg("loaded new version")
		}
		c.latest[name] = e.LatestVersion()
	}
	var stopped []*Backend
	for name, versions := range c.backends {
		for v, b := range versions {
			if seen[name] == nil || !seen[name][v] {
				stopped = append(stopped, b)
				delete(versions, v)
			}
		}
		if len(versions) == 0 {
			delete(c.backends, name)
			delete(c.latest, name)
		}
	}
	c.mu.Unlock()
	// Stop outside the lock: draining queued jobs invokes continuations.
	for _, b := range stopped {
		c.log.Info().Str("model", b.Name()).Int64("version", b.Version()).Msg("unloading removed version")
		b.stop()
	}
}

// Stop gracefully shuts the engine down: no new work is accepted, in-flight
// and queued requests complete, then backends and the watcher are released.
// Safe to call more than once.
func (c *Core) Stop() {
	c.stopOnce.Do(func() {
		c.mu.Lock()
		c.state = types.ReadyStateStopped
		backends := c.backends
		c.backends = make(map[string]map[int64]*Backend)
		c.latest = make(map[string]int64)
		c.mu.Unlock()
		close(c.stopCh)
		if c.watcher != nil {
			c.watcher.Close()
		}
		for _, versions := range backends {
			for _, b := range versions {
				b.stop()
			}
		}
		c.inflight.Wait()
		c.log.Info().Msg("engine stopped")
	})
}

// HandleHealth answers a health probe keyed by mode ("live" or "ready").
func (c *Core) HandleHealth(mode string) (types.RequestStatus, bool) {
	c.mu.RLock()
	state := c.state
	c.mu.RUnlock()
	switch mode {
	case "live":
		return types.StatusOK(), state != types.ReadyStateStopped
	case "ready":
		return types.StatusOK(), state == types.ReadyStateReady
	default:
		return types.Status(types.StatusInvalidArg, fmt.Sprintf("unknown health mode %q", mode)), false
	}
}

// HandleStatus builds the status payload for one model, or for every model
// when modelName is empty.
func (c *Core) HandleStatus(modelName string) (types.RequestStatus, *types.ServerStatus) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	status := &types.ServerStatus{
		ID:            c.cfg.ID,
		Version:       c.cfg.Version,
		State:         c.state,
		UptimeSeconds: int64(time.Since(c.startTime).Seconds()),
		Models:        make(map[string]types.ModelStatus),
	}
	if modelName != "" {
		versions, ok := c.backends[modelName]
		if !ok {
			return types.Status(types.StatusNotFound, fmt.Sprintf("unknown model %q", modelName)), nil
		}
		status.Models[modelName] = modelStatusLocked(versions)
		return types.StatusOK(), status
	}
	for name, versions := range c.backends {
		status.Models[name] = modelStatusLocked(versions)
	}
	return types.StatusOK(), status
}

func modelStatusLocked(versions map[int64]*Backend) types.ModelStatus {
	ms := types.ModelStatus{Versions: make(map[int64]types.VersionStatus, len(versions))}
	for v, b := range versions {
		ms.Config = b.Config()
		ms.Versions[v] = b.versionStatus(types.ReadyStateReady)
	}
	return ms
}

// Backend resolves a loaded backend by model name and version. Version
// ResolveLatest (-1) maps to the highest available version.
func (c *Core) Backend(modelName string, modelVersion int64) (*Backend, types.RequestStatus) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	versions, ok := c.backends[modelName]
	if !ok {
		return nil, types.Status(types.StatusNotFound, fmt.Sprintf("unknown model %q", modelName))
	}
	v := modelVersion
	if v == ResolveLatest {
		v = c.latest[modelName]
	}
	b, ok := versions[v]
	if !ok {
		return nil, types.Status(types.StatusNotFound,
			fmt.Sprintf("model %q has no version %d", modelName, modelVersion))
	}
	return b, types.StatusOK()
}

// HandleInfer schedules one inference on the backend's worker. The returned
// status reports scheduling only: when it is a failure the continuation will
// never run; when it is success the continuation runs exactly once, on the
// worker, with the terminal result.
func (c *Core) HandleInfer(b *Backend, req *RequestProvider, resp *ResponseProvider,
	stats *InferStats, done func(types.RequestStatus)) types.RequestStatus {
	c.mu.RLock()
	state := c.state
	c.mu.RUnlock()
	if state != types.ReadyStateReady {
		return types.Status(types.StatusUnavailable, "server is not ready")
	}
	c.inflight.Add(1)
	st := b.dispatch(job{
		req:   req,
		resp:  resp,
		stats: stats,
		done: func(result types.RequestStatus) {
			defer c.inflight.Done()
			done(result)
		},
	})
	if !st.OK() {
		c.inflight.Done()
	}
	return st
}
