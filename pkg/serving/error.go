package serving

import (
	"inferd/pkg/types"
)

// Error reports a failed facade operation. It is constructed only for
// failures: a nil *Error always means success, and no Error ever carries
// StatusSuccess.
type Error struct {
	code types.StatusCode
	msg  string
}

// newError translates an engine status into a facade error. A success status
// yields nil regardless of its message.
func newError(st types.RequestStatus) *Error {
	if st.Code == types.StatusSuccess {
		return nil
	}
	return &Error{code: st.Code, msg: st.Msg}
}

// Code returns the failure class.
func (e *Error) Code() types.StatusCode { return e.code }

// Message returns the failure detail.
func (e *Error) Message() string { return e.msg }

// Error implements the error interface. Only call on a non-nil *Error.
func (e *Error) Error() string {
	if e.msg == "" {
		return e.code.String()
	}
	return e.code.String() + ": " + e.msg
}
