package types

// DataType enumerates tensor element types understood by the engine.
type DataType string

const (
	DataTypeInt32   DataType = "int32"
	DataTypeInt64   DataType = "int64"
	DataTypeFloat32 DataType = "float32"
	DataTypeBytes   DataType = "bytes"
)

// ElementSize returns the byte size of one element, or 0 for variable-size
// types (bytes).
func (d DataType) ElementSize() uint64 {
	switch d {
	case DataTypeInt32, DataTypeFloat32:
		return 4
	case DataTypeInt64:
		return 8
	default:
		return 0
	}
}

// TensorConfig declares one input or output tensor of a model.
type TensorConfig struct {
	// Tensor name, unique within the model.
	// example: INPUT0
	Name string `json:"name" yaml:"name" toml:"name" example:"INPUT0"`
	// Element data type.
	// example: int32
	DataType DataType `json:"data_type" yaml:"data_type" toml:"data_type" example:"int32"`
	// Shape of one batch element.
	Dims []int64 `json:"dims" yaml:"dims" toml:"dims"`
	// Optional label file (relative to the model directory) mapping class
	// indices to names, used for classification outputs.
	LabelFilename string `json:"label_filename,omitempty" yaml:"label_filename,omitempty" toml:"label_filename,omitempty"`
}

// ElementCount returns the number of elements in one batch element, or -1 if
// any dimension is variable (negative).
func (t TensorConfig) ElementCount() int64 {
	count := int64(1)
	for _, d := range t.Dims {
		if d < 0 {
			return -1
		}
		count *= d
	}
	return count
}

// ModelConfig describes one servable model in the repository.
type ModelConfig struct {
	// Model name; must match the repository directory name.
	// example: simple
	Name string `json:"name" yaml:"name" toml:"name" example:"simple"`
	// Execution platform. Supported: identity, addsub.
	// example: addsub
	Platform string `json:"platform" yaml:"platform" toml:"platform" example:"addsub"`
	// Largest batch size the model accepts. Zero means batching is not
	// supported and batch size must be one.
	MaxBatchSize uint32 `json:"max_batch_size,omitempty" yaml:"max_batch_size,omitempty" toml:"max_batch_size,omitempty"`
	// Declared input tensors.
	Inputs []TensorConfig `json:"inputs" yaml:"inputs" toml:"inputs"`
	// Declared output tensors.
	Outputs []TensorConfig `json:"outputs" yaml:"outputs" toml:"outputs"`
}

// Input returns the input tensor config with the given name.
func (c ModelConfig) Input(name string) (TensorConfig, bool) {
	for _, t := range c.Inputs {
		if t.Name == name {
			return t, true
		}
	}
	return TensorConfig{}, false
}

// Output returns the output tensor config with the given name.
func (c ModelConfig) Output(name string) (TensorConfig, bool) {
	for _, t := range c.Outputs {
		if t.Name == name {
			return t, true
		}
	}
	return TensorConfig{}, false
}
