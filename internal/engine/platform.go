package engine

import (
	"encoding/binary"
	"fmt"

	"inferd/pkg/types"
)

// Platform names accepted in model configs.
const (
	PlatformIdentity = "identity"
	PlatformAddSub   = "addsub"
)

// Executor runs one inference for a backend, reading inputs from the request
// provider and writing every requested output to the response provider.
type Executor func(b *Backend, req *RequestProvider, resp *ResponseProvider) types.RequestStatus

// resolveExecutor maps a platform name to its executor.
func resolveExecutor(platform string) (Executor, error) {
	switch platform {
	case PlatformIdentity:
		return execIdentity, nil
	case PlatformAddSub:
		return execAddSub, nil
	default:
		return nil, fmt.Errorf("unsupported platform %q", platform)
	}
}

// validatePlatform checks platform-specific config constraints at load time.
func validatePlatform(cfg types.ModelConfig) error {
	switch cfg.Platform {
	case PlatformIdentity:
		if len(cfg.Inputs) != len(cfg.Outputs) {
			return fmt.Errorf("identity platform needs matching input/output counts, got %d/%d",
				len(cfg.Inputs), len(cfg.Outputs))
		}
	case PlatformAddSub:
		if len(cfg.Inputs) != 2 || len(cfg.Outputs) != 2 {
			return fmt.Errorf("addsub platform needs exactly 2 inputs and 2 outputs")
		}
	}
	return nil
}

// execIdentity mirrors input i into output i.
func execIdentity(b *Backend, req *RequestProvider, resp *ResponseProvider) types.RequestStatus {
	cfg := b.Config()
	for i, out := range cfg.Outputs {
		if !resp.Requested(out.Name) {
			continue
		}
		in := cfg.Inputs[i]
		data, ok := req.InputContents(in.Name)
		if !ok {
			return types.Status(types.StatusInternal, "missing input "+in.Name)
		}
		dims := req.InputDims(in.Name)
		if st := resp.SetOutput(out.Name, dims, out.DataType, data); !st.OK() {
			return st
		}
	}
	return types.StatusOK()
}

// execAddSub computes elementwise sum and difference of two int32 inputs,
// writing them to the first and second configured outputs.
func execAddSub(b *Backend, req *RequestProvider, resp *ResponseProvider) types.RequestStatus {
	cfg := b.Config()
	in0, ok0 := req.InputContents(cfg.Inputs[0].Name)
	in1, ok1 := req.InputContents(cfg.Inputs[1].Name)
	if !ok0 || !ok1 {
		return types.Status(types.StatusInternal, "missing addsub inputs")
	}
	if len(in0) != len(in1) || len(in0)%4 != 0 {
		return types.Status(types.StatusInvalidArg,
			fmt.Sprintf("addsub inputs must be equal int32 buffers, got %d and %d bytes", len(in0), len(in1)))
	}
	n := len(in0) / 4
	sum := make([]byte, len(in0))
	diff := make([]byte, len(in0))
	for i := 0; i < n; i++ {
		a := int32(binary.LittleEndian.Uint32(in0[i*4:]))
		c := int32(binary.LittleEndian.Uint32(in1[i*4:]))
		binary.LittleEndian.PutUint32(sum[i*4:], uint32(a+c))
		binary.LittleEndian.PutUint32(diff[i*4:], uint32(a-c))
	}
	dims := req.InputDims(cfg.Inputs[0].Name)
	for i, data := range [][]byte{sum, diff} {
		out := cfg.Outputs[i]
		if !resp.Requested(out.Name) {
			continue
		}
		if st := resp.SetOutput(out.Name, dims, out.DataType, data); !st.OK() {
			return st
		}
	}
	return types.StatusOK()
}
