package serving

import (
	"inferd/internal/engine"
	"inferd/pkg/types"
)

// Response is the bundle delivered to the completion callback: the terminal
// status of one inference plus access to the engine-produced outputs. It is
// created once, at completion time, and never mutated afterwards. After
// delivery it is exclusively owned by the caller.
type Response struct {
	status   types.RequestStatus
	provider *engine.ResponseProvider
}

// Status translates the terminal result. Constructed fresh on each call;
// nil means the inference succeeded.
func (r *Response) Status() *Error {
	return newError(r.status)
}

// Header wraps the structured response header into a Payload. If the
// inference failed, the failure is propagated and no payload is produced.
func (r *Response) Header() (*Payload, *Error) {
	if err := r.Status(); err != nil {
		return nil, err
	}
	return newPayload(r.provider.ResponseHeader())
}

// OutputData returns a view into the engine-owned contents of one named
// output, valid for the response's lifetime. An unknown name fails with a
// NOT_FOUND class error and leaves the response usable for further queries.
func (r *Response) OutputData(name string) ([]byte, *Error) {
	data, st := r.provider.OutputData(name)
	if !st.OK() {
		return nil, newError(st)
	}
	return data, nil
}
