package serving

import (
	"encoding/json"

	"inferd/pkg/types"
)

// Payload wraps a structured message flattened to bytes at wrap time.
// Immutable after construction; Bytes never re-serializes.
type Payload struct {
	buf []byte
}

// newPayload flattens msg eagerly.
func newPayload(msg any) (*Payload, *Error) {
	b, err := json.Marshal(msg)
	if err != nil {
		return nil, newError(types.Status(types.StatusInternal, "serialize payload: "+err.Error()))
	}
	return &Payload{buf: b}, nil
}

// Bytes returns a view of the flattened message. Callers must not modify it.
func (p *Payload) Bytes() []byte { return p.buf }
