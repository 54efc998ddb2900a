package engine

import (
	"fmt"

	"inferd/pkg/types"
)

// NormalizeHeader validates hdr against the backend's model config and fills
// in defaults: zero batch size becomes one, missing dims are copied from the
// config, zero batch byte sizes are derived from dims and data type, and an
// empty output list expands to every configured output. The header is
// modified in place.
func NormalizeHeader(b *Backend, hdr *types.InferRequestHeader) types.RequestStatus {
	cfg := b.Config()

	if hdr.BatchSize == 0 {
		hdr.BatchSize = 1
	}
	if cfg.MaxBatchSize == 0 {
		if hdr.BatchSize != 1 {
			return types.Status(types.StatusInvalidArg,
				fmt.Sprintf("model %q does not support batching, batch size %d rejected", cfg.Name, hdr.BatchSize))
		}
	} else if hdr.BatchSize > cfg.MaxBatchSize {
		return types.Status(types.StatusInvalidArg,
			fmt.Sprintf("batch size %d exceeds maximum %d for model %q", hdr.BatchSize, cfg.MaxBatchSize, cfg.Name))
	}

	if len(hdr.Inputs) != len(cfg.Inputs) {
		return types.Status(types.StatusInvalidArg,
			fmt.Sprintf("model %q expects %d inputs, got %d", cfg.Name, len(cfg.Inputs), len(hdr.Inputs)))
	}
	seen := make(map[string]bool, len(hdr.Inputs))
	for i := range hdr.Inputs {
		in := &hdr.Inputs[i]
		tc, ok := cfg.Input(in.Name)
		if !ok {
			return types.Status(types.StatusInvalidArg,
				fmt.Sprintf("unknown input %q for model %q", in.Name, cfg.Name))
		}
		if seen[in.Name] {
			return types.Status(types.StatusInvalidArg,
				fmt.Sprintf("input %q supplied more than once", in.Name))
		}
		seen[in.Name] = true
		if len(in.Dims) == 0 {
			in.Dims = append([]int64(nil), tc.Dims...)
		} else if !dimsCompatible(tc.Dims, in.Dims) {
			return types.Status(types.StatusInvalidArg,
				fmt.Sprintf("input %q dims %v incompatible with config dims %v", in.Name, in.Dims, tc.Dims))
		}
		if in.BatchByteSize == 0 {
			count := elementCount(in.Dims)
			if count < 0 {
				return types.Status(types.StatusInvalidArg,
					fmt.Sprintf("input %q has unresolved variable dims %v", in.Name, in.Dims))
			}
			in.BatchByteSize = uint64(hdr.BatchSize) * uint64(count) * tc.DataType.ElementSize()
		}
	}

	if len(hdr.Outputs) == 0 {
		for _, out := range cfg.Outputs {
			hdr.Outputs = append(hdr.Outputs, types.InferRequestOutput{Name: out.Name})
		}
		return types.StatusOK()
	}
	for _, out := range hdr.Outputs {
		if _, ok := cfg.Output(out.Name); !ok {
			return types.Status(types.StatusInvalidArg,
				fmt.Sprintf("unknown output %q for model %q", out.Name, cfg.Name))
		}
	}
	return types.StatusOK()
}

// dimsCompatible checks the request dims against config dims, where a
// negative config dim matches any positive value.
func dimsCompatible(config, got []int64) bool {
	if len(config) != len(got) {
		return false
	}
	for i := range config {
		if config[i] < 0 {
			if got[i] <= 0 {
				return false
			}
			continue
		}
		if config[i] != got[i] {
			return false
		}
	}
	return true
}

func elementCount(dims []int64) int64 {
	count := int64(1)
	for _, d := range dims {
		if d < 0 {
			return -1
		}
		count *= d
	}
	return count
}
