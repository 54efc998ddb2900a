package engine

import (
	"bytes"
	"testing"

	"inferd/pkg/types"
)

func TestRequestProviderValidatesInputSizes(t *testing.T) {
	b := addSubBackend(t)
	hdr := normalizedHeader(t, b)
	inputs := addSubInputs(int32Bytes(seq16()...), int32Bytes(seq16()...))
	if _, st := NewRequestProvider("simple", 1, hdr, inputs); !st.OK() {
		t.Fatalf("expected valid provider: %s", st.Msg)
	}
	short := addSubInputs(int32Bytes(1, 2, 3), int32Bytes(seq16()...))
	if _, st := NewRequestProvider("simple", 1, hdr, short); st.Code != types.StatusInvalidArg {
		t.Fatalf("expected INVALID_ARG for short input, got %v", st.Code)
	}
}

func TestRequestProviderRejectsMissingInput(t *testing.T) {
	b := addSubBackend(t)
	hdr := normalizedHeader(t, b)
	r0 := &BufferRef{}
	r0.AddBuffer(int32Bytes(seq16()...))
	_, st := NewRequestProvider("simple", 1, hdr, map[string]*BufferRef{"INPUT0": r0})
	if st.Code != types.StatusInvalidArg {
		t.Fatalf("expected INVALID_ARG got %v", st.Code)
	}
}

func TestRequestProviderRejectsUnknownInput(t *testing.T) {
	b := addSubBackend(t)
	hdr := normalizedHeader(t, b)
	inputs := addSubInputs(int32Bytes(seq16()...), int32Bytes(seq16()...))
	extra := &BufferRef{}
	extra.AddBuffer([]byte{1})
	inputs["SURPRISE"] = extra
	if _, st := NewRequestProvider("simple", 1, hdr, inputs); st.Code != types.StatusInvalidArg {
		t.Fatalf("expected INVALID_ARG got %v", st.Code)
	}
}

func TestRequestProviderConcatenatesFragments(t *testing.T) {
	b := addSubBackend(t)
	hdr := normalizedHeader(t, b)
	half := seq16()[:8]
	r0 := &BufferRef{}
	r0.AddBuffer(int32Bytes(half...))
	r0.AddBuffer(int32Bytes(half...))
	r1 := &BufferRef{}
	r1.AddBuffer(int32Bytes(seq16()...))
	p, st := NewRequestProvider("simple", 1, hdr, map[string]*BufferRef{"INPUT0": r0, "INPUT1": r1})
	if !st.OK() {
		t.Fatalf("provider: %s", st.Msg)
	}
	got, ok := p.InputContents("INPUT0")
	if !ok {
		t.Fatalf("missing INPUT0")
	}
	want := append(int32Bytes(half...), int32Bytes(half...)...)
	if !bytes.Equal(got, want) {
		t.Fatalf("fragments not concatenated in call order")
	}
}

func TestResponseProviderOutputs(t *testing.T) {
	b := addSubBackend(t)
	hdr := normalizedHeader(t, b)
	p, st := NewResponseProvider(hdr, b.Labels())
	if !st.OK() {
		t.Fatalf("response provider: %s", st.Msg)
	}
	if !p.Requested("OUTPUT0") || !p.Requested("OUTPUT1") || p.Requested("OTHER") {
		t.Fatalf("requested set wrong")
	}
	data := int32Bytes(seq16()...)
	if st := p.SetOutput("OUTPUT0", []int64{16}, types.DataTypeInt32, data); !st.OK() {
		t.Fatalf("SetOutput: %s", st.Msg)
	}
	got, st := p.OutputData("OUTPUT0")
	if !st.OK() || !bytes.Equal(got, data) {
		t.Fatalf("OutputData mismatch: %v", st)
	}
	if _, st := p.OutputData("MISSING"); st.Code != types.StatusNotFound {
		t.Fatalf("expected NOT_FOUND got %v", st.Code)
	}
}

func TestResponseProviderRejectsUnrequestedOutput(t *testing.T) {
	b := addSubBackend(t)
	hdr := normalizedHeader(t, b)
	hdr.Outputs = hdr.Outputs[:1] // only OUTPUT0
	p, st := NewResponseProvider(hdr, b.Labels())
	if !st.OK() {
		t.Fatalf("response provider: %s", st.Msg)
	}
	if st := p.SetOutput("OUTPUT1", []int64{16}, types.DataTypeInt32, int32Bytes(1)); st.OK() {
		t.Fatalf("expected rejection for unrequested output")
	}
}

func TestResponseProviderRejectsEmptyOutputs(t *testing.T) {
	hdr := &types.InferRequestHeader{BatchSize: 1}
	if _, st := NewResponseProvider(hdr, nil); st.Code != types.StatusInvalidArg {
		t.Fatalf("expected INVALID_ARG got %v", st.Code)
	}
}

func TestResponseProviderFinalizeOrdersHeaderOutputs(t *testing.T) {
	b := addSubBackend(t)
	hdr := normalizedHeader(t, b)
	p, st := NewResponseProvider(hdr, b.Labels())
	if !st.OK() {
		t.Fatalf("response provider: %s", st.Msg)
	}
	// set out of request order
	_ = p.SetOutput("OUTPUT1", []int64{16}, types.DataTypeInt32, int32Bytes(2))
	_ = p.SetOutput("OUTPUT0", []int64{16}, types.DataTypeInt32, int32Bytes(1))
	p.finalize("simple", 2)
	rh := p.ResponseHeader()
	if rh.ModelName != "simple" || rh.ModelVersion != 2 {
		t.Fatalf("identity not stamped: %+v", rh)
	}
	if len(rh.Outputs) != 2 || rh.Outputs[0].Name != "OUTPUT0" || rh.Outputs[1].Name != "OUTPUT1" {
		t.Fatalf("outputs not in request order: %+v", rh.Outputs)
	}
}

func TestTopClassesRanksAndLabels(t *testing.T) {
	lp := &LabelProvider{labels: map[string][]string{"OUT": {"zero", "one", "two", "three"}}}
	data := int32Bytes(5, 9, 1, 7)
	classes, st := topClasses("OUT", data, types.DataTypeInt32, 2, lp)
	if !st.OK() {
		t.Fatalf("topClasses: %s", st.Msg)
	}
	if len(classes) != 2 || classes[0].Index != 1 || classes[0].Label != "one" || classes[1].Index != 3 {
		t.Fatalf("unexpected ranking: %+v", classes)
	}
}

func TestTopClassesRejectsBytes(t *testing.T) {
	if _, st := topClasses("OUT", []byte("raw"), types.DataTypeBytes, 1, nil); st.Code != types.StatusUnsupported {
		t.Fatalf("expected UNSUPPORTED got %v", st.Code)
	}
}
