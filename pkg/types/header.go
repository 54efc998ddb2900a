package types

// InferRequestInput describes one input tensor of an inference request.
type InferRequestInput struct {
	// Name of the input tensor as declared by the model config.
	// example: INPUT0
	Name string `json:"name" example:"INPUT0"`
	// Shape of one batch element. May be omitted when the model config fully
	// determines it; normalization fills it in.
	Dims []int64 `json:"dims,omitempty"`
	// Total byte size of this input across the whole batch. Zero means
	// "derive from dims and data type" during normalization.
	BatchByteSize uint64 `json:"batch_byte_size,omitempty"`
}

// InferRequestOutput names one requested output tensor.
type InferRequestOutput struct {
	// Name of the output tensor as declared by the model config.
	// example: OUTPUT0
	Name string `json:"name" example:"OUTPUT0"`
	// When non-zero, request a classification result with this many
	// top entries instead of the raw tensor.
	ClassCount uint32 `json:"cls_count,omitempty"`
}

// InferRequestHeader is the structured description of one inference call.
type InferRequestHeader struct {
	// Caller-assigned correlation id, echoed back in logs.
	ID uint64 `json:"id,omitempty"`
	// Number of batch elements. Zero is normalized to one.
	BatchSize uint32 `json:"batch_size,omitempty"`
	// Input tensors supplied by the caller.
	Inputs []InferRequestInput `json:"inputs"`
	// Output tensors the caller wants back. Empty means all model outputs.
	Outputs []InferRequestOutput `json:"outputs,omitempty"`
}

// InferResponseOutput describes one produced output tensor.
type InferResponseOutput struct {
	Name string `json:"name"`
	// Shape of one batch element.
	Dims []int64 `json:"dims,omitempty"`
	// Total byte size of the raw output across the batch.
	BatchByteSize uint64 `json:"batch_byte_size,omitempty"`
	// Classification results, when the request asked for them.
	Classes []ClassResult `json:"classes,omitempty"`
}

// ClassResult is one classification entry for an output.
type ClassResult struct {
	Index int32   `json:"idx"`
	Value float32 `json:"value"`
	Label string  `json:"label,omitempty"`
}

// InferResponseHeader is the structured description of inference results.
type InferResponseHeader struct {
	// Correlation id copied from the request header.
	ID           uint64                `json:"id,omitempty"`
	ModelName    string                `json:"model_name"`
	ModelVersion int64                 `json:"model_version"`
	BatchSize    uint32                `json:"batch_size"`
	Outputs      []InferResponseOutput `json:"outputs"`
}
