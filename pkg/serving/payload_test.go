package serving

import (
	"bytes"
	"encoding/json"
	"testing"

	"inferd/pkg/types"
)

func TestPayloadRoundTrip(t *testing.T) {
	hdr := types.InferResponseHeader{
		ID:           7,
		ModelName:    "simple",
		ModelVersion: 2,
		BatchSize:    1,
		Outputs: []types.InferResponseOutput{
			{Name: "OUTPUT0", Dims: []int64{16}, BatchByteSize: 64},
		},
	}
	p, err := newPayload(hdr)
	if err != nil {
		t.Fatalf("newPayload: %v", err)
	}

	var decoded types.InferResponseHeader
	if uerr := json.Unmarshal(p.Bytes(), &decoded); uerr != nil {
		t.Fatalf("unmarshal: %v", uerr)
	}
	again, err := newPayload(decoded)
	if err != nil {
		t.Fatalf("newPayload(decoded): %v", err)
	}
	if !bytes.Equal(p.Bytes(), again.Bytes()) {
		t.Fatalf("re-serialized payload differs:\n%s\n%s", p.Bytes(), again.Bytes())
	}
}

func TestPayloadRejectsUnencodable(t *testing.T) {
	if _, err := newPayload(make(chan int)); err == nil {
		t.Fatalf("expected error for unencodable value")
	} else if err.Code() != types.StatusInternal {
		t.Fatalf("Code() = %v, want INTERNAL", err.Code())
	}
}
