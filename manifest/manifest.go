// Package manifest handles losp.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Manifest represents a losp.toml project configuration.
type Manifest struct {
	Project Project    `toml:"project"`
	REPL    REPLConfig `toml:"repl"`
	VM      VMConfig   `toml:"vm"`

	// Dir is the directory containing the losp.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// REPLConfig configures the interactive prompt.
type REPLConfig struct {
	Prompt       string `toml:"prompt"`
	Continuation string `toml:"continuation"`
}

// VMConfig configures execution limits.
type VMConfig struct {
	StackSize int `toml:"stack-size"`
	MaxFrames int `toml:"max-frames"`
}

// Default returns a manifest carrying the built-in defaults, used when no
// losp.toml is found.
func Default() *Manifest {
	return &Manifest{
		REPL: REPLConfig{Prompt: "losp> ", Continuation: "....> "},
	}
}

// Load parses a losp.toml file from the given directory. Absent fields keep
// the same defaults Default returns.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, "losp.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	m := Default()
	if err := toml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	if m.REPL.Prompt == "" {
		m.REPL.Prompt = "losp> "
	}
	if m.REPL.Continuation == "" {
		m.REPL.Continuation = "....> "
	}

	return m, nil
}

// FindAndLoad walks up from startDir to find a losp.toml file, then loads
// and returns the manifest. Returns the defaults if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, "losp.toml")
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return Default(), nil
		}
		dir = parent
	}
}
