package engine

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"inferd/pkg/types"
)

// RequestProvider is the engine-facing view of one inference request: the
// normalized header plus the referenced input memory, validated against each
// other at construction time.
type RequestProvider struct {
	modelName    string
	modelVersion int64
	header       *types.InferRequestHeader
	inputs       map[string]*BufferRef
}

// NewRequestProvider validates that every input named by the (normalized)
// header has a buffer of exactly the expected byte size, and that no unknown
// buffers were supplied.
func NewRequestProvider(modelName string, modelVersion int64, header *types.InferRequestHeader,
	inputs map[string]*BufferRef) (*RequestProvider, types.RequestStatus) {
	for _, in := range header.Inputs {
		ref, ok := inputs[in.Name]
		if !ok {
			return nil, types.Status(types.StatusInvalidArg,
				fmt.Sprintf("no data supplied for input %q", in.Name))
		}
		if in.BatchByteSize != 0 && ref.TotalByteSize() != in.BatchByteSize {
			return nil, types.Status(types.StatusInvalidArg,
				fmt.Sprintf("input %q expects %d bytes, got %d", in.Name, in.BatchByteSize, ref.TotalByteSize()))
		}
	}
	for name := range inputs {
		if !headerHasInput(header, name) {
			return nil, types.Status(types.StatusInvalidArg,
				fmt.Sprintf("data supplied for unknown input %q", name))
		}
	}
	return &RequestProvider{
		modelName:    modelName,
		modelVersion: modelVersion,
		header:       header,
		inputs:       inputs,
	}, types.StatusOK()
}

func headerHasInput(h *types.InferRequestHeader, name string) bool {
	for _, in := range h.Inputs {
		if in.Name == name {
			return true
		}
	}
	return false
}

// ModelName returns the target model name.
func (p *RequestProvider) ModelName() string { return p.modelName }

// ModelVersion returns the resolved model version.
func (p *RequestProvider) ModelVersion() int64 { return p.modelVersion }

// Header returns the normalized request header.
func (p *RequestProvider) Header() *types.InferRequestHeader { return p.header }

// InputContents returns the logical contents of the named input.
func (p *RequestProvider) InputContents(name string) ([]byte, bool) {
	ref, ok := p.inputs[name]
	if !ok {
		return nil, false
	}
	return ref.Contents(), true
}

// InputDims returns the normalized dims of the named input, or nil.
func (p *RequestProvider) InputDims(name string) []int64 {
	for _, in := range p.header.Inputs {
		if in.Name == name {
			return in.Dims
		}
	}
	return nil
}

// ResponseProvider accumulates outputs produced by a backend and exposes the
// structured response header once the request completes. Output memory is
// engine-owned and remains valid for the provider's lifetime.
type ResponseProvider struct {
	header    types.InferResponseHeader
	labels    *LabelProvider
	requested map[string]uint32
	order     []string
	outputs   map[string]*types.InferResponseOutput
	data      map[string][]byte
}

// NewResponseProvider builds a provider from a normalized request header and
// the backend's label metadata. The header must already name every requested
// output (normalization fills in "all outputs" before this point).
func NewResponseProvider(reqHeader *types.InferRequestHeader, labels *LabelProvider) (*ResponseProvider, types.RequestStatus) {
	if len(reqHeader.Outputs) == 0 {
		return nil, types.Status(types.StatusInvalidArg, "request header names no outputs")
	}
	p := &ResponseProvider{
		header: types.InferResponseHeader{
			ID:        reqHeader.ID,
			BatchSize: reqHeader.BatchSize,
		},
		labels:    labels,
		requested: make(map[string]uint32, len(reqHeader.Outputs)),
		outputs:   make(map[string]*types.InferResponseOutput, len(reqHeader.Outputs)),
		data:      make(map[string][]byte, len(reqHeader.Outputs)),
	}
	for _, out := range reqHeader.Outputs {
		if _, dup := p.requested[out.Name]; dup {
			return nil, types.Status(types.StatusInvalidArg,
				fmt.Sprintf("output %q requested more than once", out.Name))
		}
		p.requested[out.Name] = out.ClassCount
		p.order = append(p.order, out.Name)
	}
	return p, types.StatusOK()
}

// Requested reports whether the named output was asked for.
func (p *ResponseProvider) Requested(name string) bool {
	_, ok := p.requested[name]
	return ok
}

// SetOutput records the produced data for one requested output. When the
// request asked for a classification, the raw values are converted to ranked
// class results using the label provider.
func (p *ResponseProvider) SetOutput(name string, dims []int64, dtype types.DataType, data []byte) types.RequestStatus {
	cls, ok := p.requested[name]
	if !ok {
		return types.Status(types.StatusInternal,
			fmt.Sprintf("output %q was not requested", name))
	}
	out := &types.InferResponseOutput{
		Name:          name,
		Dims:          dims,
		BatchByteSize: uint64(len(data)),
	}
	if cls > 0 {
		classes, st := topClasses(name, data, dtype, int(cls), p.labels)
		if !st.OK() {
			return st
		}
		out.Classes = classes
	}
	p.outputs[name] = out
	p.data[name] = data
	return types.StatusOK()
}

// finalize stamps model identity and assembles header outputs in request
// order. Called by the backend after a successful execution.
func (p *ResponseProvider) finalize(modelName string, modelVersion int64) {
	p.header.ModelName = modelName
	p.header.ModelVersion = modelVersion
	p.header.Outputs = p.header.Outputs[:0]
	for _, name := range p.order {
		if out := p.outputs[name]; out != nil {
			p.header.Outputs = append(p.header.Outputs, *out)
		}
	}
}

// ResponseHeader returns the structured response header.
func (p *ResponseProvider) ResponseHeader() types.InferResponseHeader { return p.header }

// OutputData returns a view of the named output's contents, valid for the
// provider's lifetime.
func (p *ResponseProvider) OutputData(name string) ([]byte, types.RequestStatus) {
	data, ok := p.data[name]
	if !ok {
		return nil, types.Status(types.StatusNotFound,
			fmt.Sprintf("response has no output %q", name))
	}
	return data, types.StatusOK()
}

// topClasses ranks the tensor's elements and returns the top k with labels.
func topClasses(output string, data []byte, dtype types.DataType, k int, labels *LabelProvider) ([]types.ClassResult, types.RequestStatus) {
	values, st := decodeElements(data, dtype)
	if !st.OK() {
		return nil, st
	}
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return values[idx[a]] > values[idx[b]] })
	if k > len(idx) {
		k = len(idx)
	}
	classes := make([]types.ClassResult, 0, k)
	for _, i := range idx[:k] {
		classes = append(classes, types.ClassResult{
			Index: int32(i),
			Value: float32(values[i]),
			Label: labels.Label(output, i),
		})
	}
	return classes, types.StatusOK()
}

func decodeElements(data []byte, dtype types.DataType) ([]float64, types.RequestStatus) {
	size := dtype.ElementSize()
	if size == 0 || uint64(len(data))%size != 0 {
		return nil, types.Status(types.StatusUnsupported,
			fmt.Sprintf("cannot classify %s output of %d bytes", dtype, len(data)))
	}
	n := uint64(len(data)) / size
	values := make([]float64, n)
	for i := uint64(0); i < n; i++ {
		chunk := data[i*size:]
		switch dtype {
		case types.DataTypeInt32:
			values[i] = float64(int32(binary.LittleEndian.Uint32(chunk)))
		case types.DataTypeInt64:
			values[i] = float64(int64(binary.LittleEndian.Uint64(chunk)))
		case types.DataTypeFloat32:
			values[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(chunk)))
		}
	}
	return values, types.StatusOK()
}
