// Package engine implements the inference engine behind the serving facade.
// It is structured into small files by concern:
//
//   - core.go: Core type, repository init/reload, health/status queries,
//     backend resolution, and async inference dispatch.
//   - backend.go: one loaded model version with its worker and queue.
//   - platform.go: platform executors (identity, addsub).
//   - providers.go: engine-facing request and response providers.
//   - normalize.go: request-header validation and default filling.
//   - memory.go: referenced (not copied) multi-fragment input buffers.
//   - labels.go: per-output class label loading.
//   - stats.go: per-request stats/timer contexts and prometheus reporters.
//
// External packages should treat Core as the engine boundary and use its
// public methods only; the facade in pkg/serving is the supported surface
// for embedding callers.
package engine
