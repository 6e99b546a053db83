package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/m4xw311/todoloop/errors"
	"github.com/m4xw311/todoloop/log"
)

// Front ends selectable with the frontend key.
const (
	FrontendTerminal = "terminal"
	FrontendRPC      = "rpc"
	FrontendMCP      = "mcp"
)

// Dir is the directory, under the home and working directories, holding config.yaml.
const Dir = ".todoloop"

// ErrInvalid marks a configuration that failed validation.
var ErrInvalid = errors.Sentinel("invalid configuration")

type Log struct {
	File  string `yaml:"file"`
	Level string `yaml:"level"`
}

type MCP struct {
	Tools []string `yaml:"tools"`
}

type Config struct {
	Frontend     string        `yaml:"frontend"`
	ReplyTimeout time.Duration `yaml:"reply_timeout"`
	Log          Log           `yaml:"log"`
	MCP          MCP           `yaml:"mcp"`
}

// Default returns the configuration used when no file sets a value.
func Default() *Config {
	return &Config{
		Frontend:     FrontendTerminal,
		ReplyTimeout: time.Second,
		Log:          Log{Level: "info"},
		MCP:          MCP{Tools: []string{"*"}},
	}
}

// LoadConfig loads configuration from the user's home directory and the current
// working directory, with the latter taking precedence.
func LoadConfig() (*Config, error) {
	cfg := Default()

	// Load user-level config first
	home, err := os.UserHomeDir()
	if err == nil {
		if err := loadIfExists(filepath.Join(home, Dir, "config.yaml"), cfg); err != nil {
			return nil, errors.Wrapf(err, "error loading user config")
		}
	}

	// Load project-level config, overriding user-level
	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrapf(err, "could not get working directory")
	}
	if err := loadIfExists(filepath.Join(wd, Dir, "config.yaml"), cfg); err != nil {
		return nil, errors.Wrapf(err, "error loading project config")
	}

	return cfg, nil
}

func loadIfExists(path string, cfg *Config) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	log.Debug().Str("path", path).Msg("config: loading")
	return loadFromFile(path, cfg)
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	// Unmarshal only overwrites keys present in the file, so a project file
	// replaces just the values it names.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return errors.Wrapf(err, "parse %s", path)
	}
	return nil
}

// Validate checks values that the loader cannot.
func (c *Config) Validate() error {
	switch c.Frontend {
	case FrontendTerminal, FrontendRPC, FrontendMCP:
	default:
		return errors.Wrapf(ErrInvalid, "unknown frontend '%s' (want terminal, rpc or mcp)", c.Frontend)
	}
	if c.ReplyTimeout <= 0 {
		return errors.Wrapf(ErrInvalid, "reply_timeout must be positive, got %s", c.ReplyTimeout)
	}
	if !log.ValidLevel(c.Log.Level) {
		return errors.Wrapf(ErrInvalid, "unknown log level '%s'", c.Log.Level)
	}
	return nil
}
