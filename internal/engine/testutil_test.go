package engine

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"inferd/pkg/types"
)

// addSubConfig returns the config of the canonical two-input test model.
func addSubConfig() types.ModelConfig {
	return types.ModelConfig{
		Name:         "simple",
		Platform:     PlatformAddSub,
		MaxBatchSize: 8,
		Inputs: []types.TensorConfig{
			{Name: "INPUT0", DataType: types.DataTypeInt32, Dims: []int64{16}},
			{Name: "INPUT1", DataType: types.DataTypeInt32, Dims: []int64{16}},
		},
		Outputs: []types.TensorConfig{
			{Name: "OUTPUT0", DataType: types.DataTypeInt32, Dims: []int64{16}},
			{Name: "OUTPUT1", DataType: types.DataTypeInt32, Dims: []int64{16}},
		},
	}
}

// helper: write a model directory with a yaml config and version dirs
func writeModelDir(t *testing.T, repo, name, cfgYAML string, versions ...string) string {
	t.Helper()
	dir := filepath.Join(repo, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(cfgYAML), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	for _, v := range versions {
		if err := os.MkdirAll(filepath.Join(dir, v), 0o755); err != nil {
			t.Fatalf("mkdir version: %v", err)
		}
	}
	return dir
}

const addSubYAML = `
name: simple
platform: addsub
max_batch_size: 8
inputs:
  - {name: INPUT0, data_type: int32, dims: [16]}
  - {name: INPUT1, data_type: int32, dims: [16]}
outputs:
  - {name: OUTPUT0, data_type: int32, dims: [16]}
  - {name: OUTPUT1, data_type: int32, dims: [16]}
`

// newTestCore builds and initializes a Core over a repo containing the
// addsub model; the core is stopped at test cleanup.
func newTestCore(t *testing.T) *Core {
	t.Helper()
	repo := t.TempDir()
	writeModelDir(t, repo, "simple", addSubYAML, "1", "2")
	c := New(Config{ModelRepository: repo, Logger: zerolog.Nop()})
	if err := c.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(c.Stop)
	return c
}

// int32Bytes encodes values as little-endian int32s.
func int32Bytes(values ...int32) []byte {
	out := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(out[i*4:], uint32(v))
	}
	return out
}

// int32sOf decodes little-endian int32s.
func int32sOf(t *testing.T, data []byte) []int32 {
	t.Helper()
	if len(data)%4 != 0 {
		t.Fatalf("data length %d not multiple of 4", len(data))
	}
	out := make([]int32, len(data)/4)
	for i := range out {
		out[i] = int32(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return out
}

// seq16 returns 0..15 as int32s.
func seq16() []int32 {
	out := make([]int32, 16)
	for i := range out {
		out[i] = int32(i)
	}
	return out
}

// normalizedHeader builds a header for the addsub model and normalizes it
// against the given backend.
func normalizedHeader(t *testing.T, b *Backend) *types.InferRequestHeader {
	t.Helper()
	hdr := &types.InferRequestHeader{
		BatchSize: 1,
		Inputs: []types.InferRequestInput{
			{Name: "INPUT0"},
			{Name: "INPUT1"},
		},
	}
	if st := NormalizeHeader(b, hdr); !st.OK() {
		t.Fatalf("NormalizeHeader: %v %s", st.Code, st.Msg)
	}
	return hdr
}

// addSubInputs builds the buffer map for one addsub request.
func addSubInputs(in0, in1 []byte) map[string]*BufferRef {
	r0, r1 := &BufferRef{}, &BufferRef{}
	r0.AddBuffer(in0)
	r1.AddBuffer(in1)
	return map[string]*BufferRef{"INPUT0": r0, "INPUT1": r1}
}
