// Package vmconfig loads and saves the generator's own configuration:
// TOML on disk via BurntSushi/toml, a platform-specific default path, and
// a struct of plain defaults when no file is present.
package vmconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"

	"github.com/Spivoxity/thunder/codebuf"
)

// ProtectionMode mirrors codebuf.Mode in a form that round-trips through
// TOML as a plain string rather than an int, so a hand-edited config file
// stays readable.
type ProtectionMode string

const (
	AlwaysRWX       ProtectionMode = "rwx"
	WriteXorExecute ProtectionMode = "wx"
)

// Mode converts the config value to the codebuf.Mode the assembler wants;
// anything unrecognized defaults to WriteXorExecute, the safer choice.
func (m ProtectionMode) Mode() codebuf.Mode {
	if m == AlwaysRWX {
		return codebuf.AlwaysRWX
	}
	return codebuf.WriteXorExecute
}

// Config holds the generator's tunables: protection discipline and debug
// verbosity, grouped into codegen- and debug-facing sections.
type Config struct {
	Codegen struct {
		Protection ProtectionMode `toml:"protection"`
		MaxLiterals int           `toml:"max_literals"`
	} `toml:"codegen"`

	Debug struct {
		Level      int    `toml:"level"`
		DumpDir    string `toml:"dump_dir"`
	} `toml:"debug"`
}

// DefaultConfig returns the generator's built-in defaults.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Codegen.Protection = WriteXorExecute
	cfg.Codegen.MaxLiterals = 256
	cfg.Debug.Level = 0
	cfg.Debug.DumpDir = "."
	return cfg
}

// GetConfigPath returns the platform-specific config file path, following
// the usual XDG-ish convention for each OS.
func GetConfigPath() string {
	var dir string
	switch runtime.GOOS {
	case "windows":
		dir = os.Getenv("APPDATA")
		if dir == "" {
			dir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		dir = filepath.Join(dir, "thunder")
	case "darwin", "linux":
		home, err := os.UserHomeDir()
		if err != nil {
			return "thunder.toml"
		}
		dir = filepath.Join(home, ".config", "thunder")
	default:
		return "thunder.toml"
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "thunder.toml"
	}
	return filepath.Join(dir, "thunder.toml")
}

// Load reads configuration from the default path, returning defaults if no
// file is present.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom reads configuration from path, returning defaults if it does
// not exist.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("vmconfig: parse %s: %w", path, err)
	}
	return cfg, nil
}

// SaveTo writes configuration to path, creating its directory if needed.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("vmconfig: create directory for %s: %w", path, err)
	}
	f, err := os.Create(path) // #nosec G304 -- user-supplied config path
	if err != nil {
		return fmt.Errorf("vmconfig: create %s: %w", path, err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("vmconfig: encode %s: %w", path, err)
	}
	return nil
}
