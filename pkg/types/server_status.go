package types

// ReadyState describes the lifecycle state of the server or a model version.
type ReadyState string

const (
	ReadyStateInitializing ReadyState = "initializing"
	ReadyStateReady        ReadyState = "ready"
	ReadyStateUnavailable  ReadyState = "unavailable"
	ReadyStateStopped      ReadyState = "stopped"
)

// VersionStatus reports the state and counters of one model version.
type VersionStatus struct {
	// Lifecycle state of this version.
	// example: ready
	State ReadyState `json:"state" example:"ready"`
	// Total inference requests executed against this version.
	// example: 42
	InferCount uint64 `json:"infer_count" example:"42"`
	// Total failed inference requests.
	// example: 1
	FailureCount uint64 `json:"failure_count" example:"1"`
}

// ModelStatus reports the configuration and per-version state of one model.
type ModelStatus struct {
	Config ModelConfig `json:"config"`
	// Per-version status keyed by version number.
	Versions map[int64]VersionStatus `json:"version_status"`
}

// ServerStatus is the structured payload returned by status queries.
type ServerStatus struct {
	// Server identifier.
	// example: inferd
	ID string `json:"id" example:"inferd"`
	// Server version string.
	// example: 0.1.0
	Version string `json:"version" example:"0.1.0"`
	// Overall server state.
	// example: ready
	State ReadyState `json:"ready_state" example:"ready"`
	// Uptime in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Status per model; restricted to one entry for model-status queries.
	Models map[string]ModelStatus `json:"model_status"`
}
