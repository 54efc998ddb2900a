// Package serving is the embedding surface of the inference server. Callers
// build an Options value, construct a Server from it, describe an inference
// call with a Request, and drive it through InferAsync, which schedules the
// work and later invokes a completion callback exactly once with a Response.
//
// Every fallible operation returns *Error; a nil *Error is the sole success
// signal and a non-nil one carries a status code and message. No operation
// panics across this boundary.
//
// Input buffers attached with Request.SetInputData are referenced, never
// copied: the caller owns them and must keep them valid and unmodified until
// the completion callback fires.
package serving
