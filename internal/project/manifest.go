// Package project locates and loads kone.toml, the per-project manifest
// naming the program to run and its pre-seeded device input.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// ManifestName is the file looked up from the working directory upward.
const ManifestName = "kone.toml"

// Manifest is a located and parsed kone.toml.
type Manifest struct {
	Path   string // absolute path of the manifest file
	Root   string // directory holding it
	Config Config
}

// Config mirrors the TOML document.
type Config struct {
	Program ProgramConfig `toml:"program"`
	Run     RunConfig     `toml:"run"`
}

// ProgramConfig names the program.
type ProgramConfig struct {
	Name string `toml:"name"`
	Main string `toml:"main"` // source path relative to the manifest root
}

// RunConfig configures a batch run or debugging session.
type RunConfig struct {
	Input []int32 `toml:"input"` // pre-seeded input device words
	Trace bool    `toml:"trace"` // per-step trace lines on stderr
}

// Find walks up from startDir to locate the manifest file.
func Find(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ManifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load walks up from startDir and parses the first manifest found. The
// second return is false when no manifest exists, which is not an error.
func Load(startDir string) (*Manifest, bool, error) {
	path, ok, err := Find(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := parseConfig(path)
	if err != nil {
		return nil, true, err
	}
	return &Manifest{
		Path:   path,
		Root:   filepath.Dir(path),
		Config: cfg,
	}, true, nil
}

// LoadFile parses the manifest at an explicit path, bypassing discovery.
func LoadFile(path string) (*Manifest, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %q: %w", path, err)
	}
	cfg, err := parseConfig(abs)
	if err != nil {
		return nil, err
	}
	return &Manifest{
		Path:   abs,
		Root:   filepath.Dir(abs),
		Config: cfg,
	}, nil
}

func parseConfig(path string) (Config, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("program") {
		return Config{}, fmt.Errorf("%s: missing [program]", path)
	}
	if !meta.IsDefined("program", "main") || strings.TrimSpace(cfg.Program.Main) == "" {
		return Config{}, fmt.Errorf("%s: missing [program].main", path)
	}
	return cfg, nil
}

// MainPath resolves the program source path against the manifest root.
func (m *Manifest) MainPath() string {
	return filepath.Join(m.Root, filepath.FromSlash(strings.TrimSpace(m.Config.Program.Main)))
}
