package httpapi

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"inferd/pkg/serving"
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

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	repo := t.TempDir()
	dir := filepath.Join(repo, "simple", "1")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(repo, "simple", "config.yaml"), []byte(addSubYAML), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	opts := serving.NewOptions()
	opts.SetModelRepository(repo)
	srv, err := serving.New(opts)
	if err != nil {
		t.Fatalf("serving.New: %v", err)
	}
	t.Cleanup(func() { srv.Close() })
	return NewMux(srv)
}

func int32Bytes(values ...int32) []byte {
	buf := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[4*i:], uint32(v))
	}
	return buf
}

func inferBody(t *testing.T, in0, in1 []byte) []byte {
	t.Helper()
	body := types.InferRequest{
		Header: types.InferRequestHeader{
			BatchSize: 1,
			Inputs: []types.InferRequestInput{
				{Name: "INPUT0"},
				{Name: "INPUT1"},
			},
			Outputs: []types.InferRequestOutput{
				{Name: "OUTPUT0"},
				{Name: "OUTPUT1"},
			},
		},
		Inputs: []types.InferInputBlob{
			{Name: "INPUT0", Data: in0},
			{Name: "INPUT1", Data: in1},
		},
	}
	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return buf
}

func doRequest(h http.Handler, method, path, contentType string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	h := newTestHandler(t)
	for _, path := range []string{"/api/health/live", "/api/health/ready"} {
		rec := doRequest(h, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status %d", path, rec.Code)
		}
		var hr types.HealthResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &hr); err != nil {
			t.Fatalf("%s: decode: %v", path, err)
		}
		if !hr.Healthy {
			t.Fatalf("%s: expected healthy", path)
		}
	}
}

func TestStatusEndpoint(t *testing.T) {
	h := newTestHandler(t)
	rec := doRequest(h, http.MethodGet, "/api/status", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var status types.ServerStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := status.Models["simple"]; !ok {
		t.Fatalf("model missing from status: %s", rec.Body.String())
	}
}

func TestModelStatusNotFound(t *testing.T) {
	h := newTestHandler(t)
	rec := doRequest(h, http.MethodGet, "/api/status/ghost", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", rec.Code)
	}
	var er types.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &er); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if er.Error == "" {
		t.Fatalf("empty error message")
	}
}

func TestInferEndpoint(t *testing.T) {
	h := newTestHandler(t)
	in0 := make([]int32, 16)
	in1 := make([]int32, 16)
	for i := range in0 {
		in0[i] = int32(i)
		in1[i] = 2
	}
	body := inferBody(t, int32Bytes(in0...), int32Bytes(in1...))
	rec := doRequest(h, http.MethodPost, "/api/infer/simple", "application/json", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var out types.InferResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Header.ModelName != "simple" || out.Header.ModelVersion != 1 {
		t.Fatalf("header identity = %s/%d", out.Header.ModelName, out.Header.ModelVersion)
	}
	if len(out.Outputs) != 2 {
		t.Fatalf("outputs = %d, want 2", len(out.Outputs))
	}
	sum := out.Outputs[0].Data
	for i := 0; i < 16; i++ {
		got := int32(binary.LittleEndian.Uint32(sum[4*i:]))
		if want := in0[i] + in1[i]; got != want {
			t.Fatalf("sum[%d] = %d, want %d", i, got, want)
		}
	}
}

func TestInferUnknownModel(t *testing.T) {
	h := newTestHandler(t)
	body := inferBody(t, int32Bytes(make([]int32, 16)...), int32Bytes(make([]int32, 16)...))
	rec := doRequest(h, http.MethodPost, "/api/infer/ghost", "application/json", body)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404: %s", rec.Code, rec.Body.String())
	}
}

func TestInferExplicitVersionQuery(t *testing.T) {
	h := newTestHandler(t)
	body := inferBody(t, int32Bytes(make([]int32, 16)...), int32Bytes(make([]int32, 16)...))
	rec := doRequest(h, http.MethodPost, "/api/infer/simple?version=9", "application/json", body)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404 for unknown version", rec.Code)
	}
	rec = doRequest(h, http.MethodPost, "/api/infer/simple?version=abc", "application/json", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400 for malformed version", rec.Code)
	}
}

func TestInferRejectsWrongContentType(t *testing.T) {
	h := newTestHandler(t)
	rec := doRequest(h, http.MethodPost, "/api/infer/simple", "text/plain", []byte("{}"))
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status %d, want 415", rec.Code)
	}
}

func TestInferRejectsInvalidJSON(t *testing.T) {
	h := newTestHandler(t)
	rec := doRequest(h, http.MethodPost, "/api/infer/simple", "application/json", []byte("{nope"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}

func TestInferValidationError(t *testing.T) {
	h := newTestHandler(t)
	// INPUT1 blob missing.
	body := types.InferRequest{
		Header: types.InferRequestHeader{
			BatchSize: 1,
			Inputs: []types.InferRequestInput{
				{Name: "INPUT0"},
				{Name: "INPUT1"},
			},
			Outputs: []types.InferRequestOutput{{Name: "OUTPUT0"}},
		},
		Inputs: []types.InferInputBlob{
			{Name: "INPUT0", Data: int32Bytes(make([]int32, 16)...)},
		},
	}
	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	rec := doRequest(h, http.MethodPost, "/api/infer/simple", "application/json", buf)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400: %s", rec.Code, rec.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestHandler(t)
	rec := doRequest(h, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("inferd_http_requests_total")) &&
		!bytes.Contains(rec.Body.Bytes(), []byte("go_goroutines")) {
		t.Fatalf("metrics exposition looks empty")
	}
}

func TestSecurityHeaders(t *testing.T) {
	h := newTestHandler(t)
	rec := doRequest(h, http.MethodGet, "/api/health/live", "", nil)
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("X-Content-Type-Options = %q", got)
	}
}
