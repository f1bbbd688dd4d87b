// Package config loads layered CLI configuration: hardcoded defaults,
// a user config at ~/.config/hybridsearch/config.yaml, a project config
// at .hybridsearch.yaml, then HYBRIDSEARCH_* environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/hybridsearch/internal/store"
)

// Config is the complete CLI configuration.
type Config struct {
	Index  IndexConfig  `yaml:"index" json:"index"`
	Search SearchConfig `yaml:"search" json:"search"`
	Server ServerConfig `yaml:"server" json:"server"`
}

// IndexConfig configures where and how an index is built.
type IndexConfig struct {
	Dir       string `yaml:"dir" json:"dir"`
	Dimension int    `yaml:"dimension" json:"dimension"`
	Distance  string `yaml:"distance" json:"distance"`
	M         int    `yaml:"m" json:"m"`
	EfSearch  int    `yaml:"ef_search" json:"ef_search"`
}

// SearchConfig holds search settings. RRFK is the default `create`
// stores in a new index; Limit, TextW and VectorW are loaded and shown
// by `config show` but not read by the search commands.
type SearchConfig struct {
	Limit   int     `yaml:"limit" json:"limit"`
	TextW   float64 `yaml:"text_weight" json:"text_weight"`
	VectorW float64 `yaml:"vector_weight" json:"vector_weight"`
	RRFK    int     `yaml:"rrf_k" json:"rrf_k"`
}

// ServerConfig holds logging settings. LogLevel is loaded and shown by
// `config show`; CLI logging itself is switched on by --debug.
type ServerConfig struct {
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// FileName is the project-level config file name.
const FileName = ".hybridsearch.yaml"

// NewConfig returns sensible defaults.
func NewConfig() *Config {
	return &Config{
		Index: IndexConfig{
			Dir:       ".hybridsearch",
			Dimension: 0, // unset; `hybridsearch create` then falls back to 32
			Distance:  string(store.DistanceCosine),
			M:         16,
			EfSearch:  64,
		},
		Search: SearchConfig{
			Limit:   10,
			TextW:   1.0,
			VectorW: 1.0,
			RRFK:    60,
		},
		Server: ServerConfig{
			LogLevel: "info",
		},
	}
}

// Load builds a Config from defaults, the user config file, the project
// config file (found by walking up from dir), then environment overrides.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := loadFile(GetUserConfigPath()); err != nil {
		return nil, fmt.Errorf("config: load user config: %w", err)
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	root, err := FindProjectRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("config: find project root: %w", err)
	}
	if projCfg, err := loadFile(filepath.Join(root, FileName)); err != nil {
		return nil, fmt.Errorf("config: load project config: %w", err)
	} else if projCfg != nil {
		cfg.mergeWith(projCfg)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// loadFile loads and parses a YAML config file. Returns (nil, nil) if the
// file does not exist.
func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &parsed, nil
}

// mergeWith overlays non-zero fields from other onto c.
func (c *Config) mergeWith(other *Config) {
	if other.Index.Dir != "" {
		c.Index.Dir = other.Index.Dir
	}
	if other.Index.Dimension != 0 {
		c.Index.Dimension = other.Index.Dimension
	}
	if other.Index.Distance != "" {
		c.Index.Distance = other.Index.Distance
	}
	if other.Index.M != 0 {
		c.Index.M = other.Index.M
	}
	if other.Index.EfSearch != 0 {
		c.Index.EfSearch = other.Index.EfSearch
	}
	if other.Search.Limit != 0 {
		c.Search.Limit = other.Search.Limit
	}
	if other.Search.TextW != 0 {
		c.Search.TextW = other.Search.TextW
	}
	if other.Search.VectorW != 0 {
		c.Search.VectorW = other.Search.VectorW
	}
	if other.Search.RRFK != 0 {
		c.Search.RRFK = other.Search.RRFK
	}
	if other.Server.LogLevel != "" {
		c.Server.LogLevel = other.Server.LogLevel
	}
}

// applyEnvOverrides applies HYBRIDSEARCH_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("HYBRIDSEARCH_INDEX_DIR"); v != "" {
		c.Index.Dir = v
	}
	if v := os.Getenv("HYBRIDSEARCH_DIMENSION"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Index.Dimension = n
		}
	}
	if v := os.Getenv("HYBRIDSEARCH_DISTANCE"); v != "" {
		c.Index.Distance = v
	}
	if v := os.Getenv("HYBRIDSEARCH_RRF_K"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Search.RRFK = n
		}
	}
	if v := os.Getenv("HYBRIDSEARCH_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
}

// GetUserConfigPath returns the user/global config path, honoring
// $XDG_CONFIG_HOME.
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "hybridsearch", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "hybridsearch", "config.yaml")
	}
	return filepath.Join(home, ".config", "hybridsearch", "config.yaml")
}

// FindProjectRoot walks up from startDir looking for a .hybridsearch.yaml
// or .git directory, falling back to startDir itself.
func FindProjectRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("absolute path: %w", err)
	}

	dir := absDir
	for {
		if fileExists(filepath.Join(dir, FileName)) || dirExists(filepath.Join(dir, ".git")) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return absDir, nil
		}
		dir = parent
	}
}

// WriteYAML writes c to path as YAML.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// ParseLogLevel normalizes a free-form level string for slog setup.
func ParseLogLevel(level string) string {
	return strings.ToLower(strings.TrimSpace(level))
}
