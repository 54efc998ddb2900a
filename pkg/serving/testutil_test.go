package serving

import (
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"inferd/pkg/types"
)

const addSubYAML = `name: simple
platform: addsub
max_batch_size: 8
inputs:
  - name: INPUT0
    data_type: int32
    dims: [16]
  - name: INPUT1
    data_type: int32
    dims: [16]
outputs:
  - name: OUTPUT0
    data_type: int32
    dims: [16]
  - name: OUTPUT1
    data_type: int32
    dims: [16]
`

// newTestRepo lays out a model repository with the addsub model at versions
// 1 and 2.
func newTestRepo(t *testing.T) string {
	t.Helper()
	repo := t.TempDir()
	dir := filepath.Join(repo, "simple")
	for _, v := range []string{"1", "2"} {
		if err := os.MkdirAll(filepath.Join(dir, v), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(addSubYAML), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return repo
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	opts := NewOptions()
	opts.SetModelRepository(newTestRepo(t))
	srv, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { srv.Close() })
	return srv
}

func int32Bytes(values ...int32) []byte {
	buf := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[4*i:], uint32(v))
	}
	return buf
}

func int32sOf(t *testing.T, data []byte) []int32 {
	t.Helper()
	if len(data)%4 != 0 {
		t.Fatalf("data length %d not a multiple of 4", len(data))
	}
	out := make([]int32, len(data)/4)
	for i := range out {
		out[i] = int32(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return out
}

func addSubHeader(t *testing.T) []byte {
	t.Helper()
	hdr := types.InferRequestHeader{
		ID:        1,
		BatchSize: 1,
		Inputs: []types.InferRequestInput{
			{Name: "INPUT0"},
			{Name: "INPUT1"},
		},
		Outputs: []types.InferRequestOutput{
			{Name: "OUTPUT0"},
			{Name: "OUTPUT1"},
		},
	}
	buf, err := json.Marshal(hdr)
	if err != nil {
		t.Fatalf("marshal header: %v", err)
	}
	return buf
}

func decodeStatus(t *testing.T, p *Payload) types.ServerStatus {
	t.Helper()
	var status types.ServerStatus
	if err := json.Unmarshal(p.Bytes(), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	return status
}
