package engine

import (
	"bufio"
	"os"
	"path/filepath"

	"inferd/pkg/types"
)

// LabelProvider maps class indices to human-readable labels per output. A
// provider with no label files resolves every lookup to the empty string.
type LabelProvider struct {
	labels map[string][]string
}

// loadLabels reads the label files declared by the model config. Outputs
// without a label_filename are simply absent from the provider.
func loadLabels(modelDir string, cfg types.ModelConfig) (*LabelProvider, error) {
	lp := &LabelProvider{labels: make(map[string][]string)}
	for _, out := range cfg.Outputs {
		if out.LabelFilename == "" {
			continue
		}
		f, err := os.Open(filepath.Join(modelDir, out.LabelFilename))
		if err != nil {
			return nil, err
		}
		var lines []string
		sc := bufio.NewScanner(f)
		for sc.Scan() {
			lines = append(lines, sc.Text())
		}
		cerr := f.Close()
		if err := sc.Err(); err != nil {
			return nil, err
		}
		if cerr != nil {
			return nil, cerr
		}
		lp.labels[out.Name] = lines
	}
	return lp, nil
}

// Label returns the label for class index idx of the named output, or ""
// when no label is known.
func (lp *LabelProvider) Label(output string, idx int) string {
	if lp == nil {
		return ""
	}
	lines := lp.labels[output]
	if idx < 0 || idx >= len(lines) {
		return ""
	}
	return lines[idx]
}
