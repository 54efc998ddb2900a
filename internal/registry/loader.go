package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"inferd/internal/common/fsutil"
	"inferd/pkg/types"
)

// Entry is one servable model found in the repository: its parsed config,
// its directory, and the version numbers present on disk.
type Entry struct {
	Config   types.ModelConfig
	Dir      string
	Versions []int64
}

// LatestVersion returns the highest version number of the entry.
func (e Entry) LatestVersion() int64 {
	if len(e.Versions) == 0 {
		return 0
	}
	return e.Versions[len(e.Versions)-1]
}

// configNames are probed in order inside each model directory.
var configNames = []string{"config.yaml", "config.yml", "config.json", "config.toml"}

// Load scans a model repository directory. Each subdirectory holding a
// config.{yaml,yml,json,toml} file becomes an Entry; numeric subdirectories
// are its versions (a model with no version directories serves version 1).
// Directories with a malformed or unreadable config are reported via the skip
// callback (may be nil) and left out rather than failing the whole scan.
func Load(dir string, skip func(model string, err error)) ([]Entry, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	dirents, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read repository: %w", err)
	}
	var entries []Entry
	for _, de := range dirents {
		if !de.IsDir() {
			continue
		}
		modelDir := filepath.Join(abs, de.Name())
		cfg, err := loadConfig(modelDir)
		if err != nil {
			if skip != nil {
				skip(de.Name(), err)
			}
			continue
		}
		if cfg.Name == "" {
			cfg.Name = de.Name()
		}
		if cfg.Name != de.Name() {
			if skip != nil {
				skip(de.Name(), fmt.Errorf("config name %q does not match directory", cfg.Name))
			}
			continue
		}
		entries = append(entries, Entry{
			Config:   cfg,
			Dir:      modelDir,
			Versions: scanVersions(modelDir),
		})
	}
	return entries, nil
}

// loadConfig reads the first config file present in modelDir, decoding by
// extension the same way the daemon config loader does.
func loadConfig(modelDir string) (types.ModelConfig, error) {
	var cfg types.ModelConfig
	for _, name := range configNames {
		p := filepath.Join(modelDir, name)
		b, err := os.ReadFile(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return cfg, err
		}
		switch ext := strings.ToLower(filepath.Ext(name)); ext {
		case ".yaml", ".yml":
			err = yaml.Unmarshal(b, &cfg)
		case ".json":
			err = json.Unmarshal(b, &cfg)
		case ".toml":
			err = toml.Unmarshal(b, &cfg)
		}
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", name, err)
		}
		return cfg, nil
	}
	return cfg, fmt.Errorf("no model config found in %s", modelDir)
}

// scanVersions lists numeric subdirectories in ascending order.
func scanVersions(modelDir string) []int64 {
	dirents, err := os.ReadDir(modelDir)
	if err != nil {
		return nil
	}
	var versions []int64
	for _, de := range dirents {
		if !de.IsDir() {
			continue
		}
		v, err := strconv.ParseInt(de.Name(), 10, 64)
		if err != nil || v <= 0 {
			continue
		}
		versions = append(versions, v)
	}
	if len(versions) == 0 {
		return []int64{1}
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })
	return versions
}
