package types

// StatusCode classifies the outcome of an engine operation. Success is the
// zero value; every other code indicates a failure class.
type StatusCode int32

const (
	StatusSuccess StatusCode = iota
	StatusUnknown
	StatusInternal
	StatusNotFound
	StatusInvalidArg
	StatusUnavailable
	StatusUnsupported
	StatusAlreadyExists
)

var statusNames = map[StatusCode]string{
	StatusSuccess:       "SUCCESS",
	StatusUnknown:       "UNKNOWN",
	StatusInternal:      "INTERNAL",
	StatusNotFound:      "NOT_FOUND",
	StatusInvalidArg:    "INVALID_ARG",
	StatusUnavailable:   "UNAVAILABLE",
	StatusUnsupported:   "UNSUPPORTED",
	StatusAlreadyExists: "ALREADY_EXISTS",
}

func (c StatusCode) String() string {
	if s, ok := statusNames[c]; ok {
		return s
	}
	return "UNKNOWN"
}

// RequestStatus is the terminal result of one engine operation.
type RequestStatus struct {
	// Result code; StatusSuccess means the operation succeeded.
	Code StatusCode `json:"code"`
	// Human-readable detail for failures. Empty on success.
	Msg string `json:"msg,omitempty"`
}

// OK reports whether the status carries a success code.
func (s RequestStatus) OK() bool { return s.Code == StatusSuccess }

// Status builds a RequestStatus from a code and message.
func Status(code StatusCode, msg string) RequestStatus {
	return RequestStatus{Code: code, Msg: msg}
}

// StatusOK is the canonical success status.
func StatusOK() RequestStatus { return RequestStatus{} }
