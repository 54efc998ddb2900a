package serving

import (
	"encoding/json"

	"inferd/internal/engine"
	"inferd/pkg/types"
)

// VersionLatest selects the highest available version of a model.
const VersionLatest int64 = -1

// Request describes one inference call: model identity, a parsed request
// header, and referenced input buffers. A Request is not safe for concurrent
// use and must not be mutated between InferAsync and its completion.
type Request struct {
	modelName    string
	modelVersion int64
	header       types.InferRequestHeader
	inputs       map[string]*engine.BufferRef
}

// NewRequest parses headerBytes as a JSON InferRequestHeader and builds a
// descriptor for the named model and version (VersionLatest resolves to the
// highest available version at call time). Malformed header bytes fail with
// an INVALID_ARG class error before any engine interaction.
func NewRequest(modelName string, modelVersion int64, headerBytes []byte) (*Request, *Error) {
	var header types.InferRequestHeader
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return nil, newError(types.Status(types.StatusInvalidArg,
			"failed to parse inference request header: "+err.Error()))
	}
	return &Request{
		modelName:    modelName,
		modelVersion: modelVersion,
		header:       header,
		inputs:       make(map[string]*engine.BufferRef),
	}, nil
}

// ModelName returns the target model name.
func (r *Request) ModelName() string { return r.modelName }

// ModelVersion returns the requested model version (VersionLatest = latest).
func (r *Request) ModelVersion() int64 { return r.modelVersion }

// SetInputData appends a buffer fragment for the named input. The data is
// referenced, not copied, and fragments for one input are concatenated in
// call order when the engine consumes them. The caller must keep data valid
// and unmodified until the asynchronous call completes.
func (r *Request) SetInputData(name string, data []byte) {
	ref, ok := r.inputs[name]
	if !ok {
		ref = &engine.BufferRef{}
		r.inputs[name] = ref
	}
	ref.AddBuffer(data)
}
