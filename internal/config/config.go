// Package config loads the layered JSONC configuration of the urlaccess CLI.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tailscale/hujson"

	"github.com/calvinalkan/urlaccess/pkg/urlaccess"
)

// Error variables for configuration loading.
var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrConfigFileRead     = errors.New("cannot read config file")
	ErrConfigInvalid      = errors.New("invalid config file")
	ErrBaseDirEmpty       = errors.New("base_dir cannot be empty")
	ErrWriteModeInvalid   = errors.New("write_mode must be \"truncate\" or \"atomic\"")
	ErrLogLevelInvalid    = errors.New("log_level must be one of debug, info, warn, error")
	ErrLogFormatInvalid   = errors.New("log_format must be \"text\" or \"json\"")
	ErrParallelismRange   = errors.New("parallelism must be between 1 and 64")
)

// Parallelism bounds.
const (
	DefaultParallelism = 4
	MaxParallelism     = 64
)

// FileName is the project config file name.
const FileName = ".urlaccess.json"

// Config holds all configuration options.
type Config struct {
	// From config files (serialized)
	BaseDir     string `json:"base_dir"`
	WriteMode   string `json:"write_mode"`
	SyncWrites  bool   `json:"sync_writes"`
	LogLevel    string `json:"log_level"`
	LogFormat   string `json:"log_format"`
	Parallelism int    `json:"parallelism"`

	// Resolved values (computed, not serialized)
	EffectiveCwd string `json:"-"` // Absolute working directory (from -C flag or os.Getwd)
	BaseDirAbs   string `json:"-"` // Absolute directory relative CLI paths resolve against

	// Sources tracks which config files were loaded (for diagnostics)
	Sources Sources `json:"-"`
}

// Sources tracks which config files were loaded.
type Sources struct {
	Global  string // Path to global config if loaded, empty otherwise
	Project string // Path to project or explicit config if loaded, empty otherwise
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		BaseDir:     ".",
		WriteMode:   urlaccess.WriteModeTruncate.String(),
		LogLevel:    "warn",
		LogFormat:   "text",
		Parallelism: DefaultParallelism,
	}
}

// WriteModeValue returns the parsed write mode. Only valid after [Load].
func (c Config) WriteModeValue() urlaccess.WriteMode {
	m, _ := urlaccess.ParseWriteMode(c.WriteMode)

	return m
}

// SlogLevel returns the parsed log level. Only valid after [Load].
func (c Config) SlogLevel() slog.Level {
	lvl, _ := parseLevel(c.LogLevel)

	return lvl
}

// globalPath returns the path to the global config file.
// Uses $XDG_CONFIG_HOME/urlaccess/config.json if set, otherwise
// ~/.config/urlaccess/config.json. Returns empty string if the home
// directory cannot be determined.
func globalPath(env map[string]string) string {
	if xdg := env["XDG_CONFIG_HOME"]; xdg != "" {
		return filepath.Join(xdg, "urlaccess", "config.json")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "urlaccess", "config.json")
	}

	return ""
}

// Overrides holds CLI flag values; zero values mean "not set".
type Overrides struct {
	BaseDir  string
	LogLevel string
}

// LoadInput holds the inputs for [Load].
type LoadInput struct {
	WorkDirOverride string            // -C/--cwd flag value; if empty, os.Getwd() is used
	ConfigPath      string            // -c/--config flag value
	Overrides       Overrides         // CLI overrides
	Env             map[string]string // environment variables
}

// Load loads configuration with the following precedence (highest wins):
// 1. Defaults
// 2. Global user config
// 3. Project config file (.urlaccess.json, if it exists)
// 4. Explicit config file via ConfigPath (replaces 3; must exist)
// 5. CLI overrides.
func Load(input LoadInput) (Config, error) {
	workDir := input.WorkDirOverride
	if workDir == "" {
		var err error

		workDir, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("cannot get working directory: %w", err)
		}
	} else if abs, err := filepath.Abs(workDir); err == nil {
		workDir = abs
	}

	cfg := Default()

	if path := globalPath(input.Env); path != "" {
		layer, loaded, err := loadFile(path, false)
		if err != nil {
			return Config{}, err
		}

		if loaded {
			cfg = layer.apply(cfg)
			cfg.Sources.Global = path
		}
	}

	path, mustExist := filepath.Join(workDir, FileName), false

	if input.ConfigPath != "" {
		path, mustExist = input.ConfigPath, true
		if !filepath.IsAbs(path) {
			path = filepath.Join(workDir, path)
		}

		if _, err := os.Stat(path); err != nil {
			return Config{}, fmt.Errorf("%w: %s", ErrConfigFileNotFound, input.ConfigPath)
		}
	}

	layer, loaded, err := loadFile(path, mustExist)
	if err != nil {
		return Config{}, err
	}

	if loaded {
		cfg = layer.apply(cfg)
		cfg.Sources.Project = path
	}

	if input.Overrides.BaseDir != "" {
		cfg.BaseDir = input.Overrides.BaseDir
	}

	if input.Overrides.LogLevel != "" {
		cfg.LogLevel = input.Overrides.LogLevel
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}

	cfg.EffectiveCwd = workDir

	if filepath.IsAbs(cfg.BaseDir) {
		cfg.BaseDirAbs = filepath.Clean(cfg.BaseDir)
	} else {
		cfg.BaseDirAbs = filepath.Join(workDir, cfg.BaseDir)
	}

	return cfg, nil
}

// layer is one config file. Pointer fields distinguish "absent" from an
// explicit zero value.
type layer struct {
	BaseDir     *string `json:"base_dir"`
	WriteMode   *string `json:"write_mode"`
	SyncWrites  *bool   `json:"sync_writes"`
	LogLevel    *string `json:"log_level"`
	LogFormat   *string `json:"log_format"`
	Parallelism *int    `json:"parallelism"`
}

func (l layer) apply(base Config) Config {
	if l.BaseDir != nil {
		base.BaseDir = *l.BaseDir
	}

	if l.WriteMode != nil {
		base.WriteMode = *l.WriteMode
	}

	if l.SyncWrites != nil {
		base.SyncWrites = *l.SyncWrites
	}

	if l.LogLevel != nil {
		base.LogLevel = *l.LogLevel
	}

	if l.LogFormat != nil {
		base.LogFormat = *l.LogFormat
	}

	if l.Parallelism != nil {
		base.Parallelism = *l.Parallelism
	}

	return base
}

// loadFile loads a config file. If mustExist is false, a missing file is
// not an error. Fields explicitly set to invalid values are rejected here so
// the error names the file.
func loadFile(path string, mustExist bool) (layer, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if mustExist {
			return layer{}, false, fmt.Errorf("%w: %s", ErrConfigFileRead, path)
		}

		return layer{}, false, nil
	}

	l, err := parse(data)
	if err != nil {
		return layer{}, false, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, err)
	}

	if l.BaseDir != nil && *l.BaseDir == "" {
		return layer{}, false, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, ErrBaseDirEmpty)
	}

	return l, true, nil
}

func parse(data []byte) (layer, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return layer{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var l layer

	if err := json.Unmarshal(standardized, &l); err != nil {
		return layer{}, fmt.Errorf("invalid JSON: %w", err)
	}

	return l, nil
}

func validate(cfg Config) error {
	if cfg.BaseDir == "" {
		return ErrBaseDirEmpty
	}

	if _, err := urlaccess.ParseWriteMode(cfg.WriteMode); err != nil {
		return fmt.Errorf("%w: got %q", ErrWriteModeInvalid, cfg.WriteMode)
	}

	if _, err := parseLevel(cfg.LogLevel); err != nil {
		return err
	}

	switch cfg.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: got %q", ErrLogFormatInvalid, cfg.LogFormat)
	}

	if cfg.Parallelism < 1 || cfg.Parallelism > MaxParallelism {
		return fmt.Errorf("%w: got %d", ErrParallelismRange, cfg.Parallelism)
	}

	return nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("%w: got %q", ErrLogLevelInvalid, s)
	}
}

// Format renders the effective configuration as key=value lines followed by
// the files it was loaded from.
func Format(cfg Config) string {
	var b strings.Builder

	b.WriteString("effective_cwd=" + cfg.EffectiveCwd + "\n")
	b.WriteString("base_dir=" + cfg.BaseDirAbs + "\n")
	b.WriteString("write_mode=" + cfg.WriteMode + "\n")
	b.WriteString("sync_writes=" + strconv.FormatBool(cfg.SyncWrites) + "\n")
	b.WriteString("log_level=" + cfg.LogLevel + "\n")
	b.WriteString("log_format=" + cfg.LogFormat + "\n")
	b.WriteString("parallelism=" + strconv.Itoa(cfg.Parallelism) + "\n")
	b.WriteString("\n# sources\n")

	if cfg.Sources.Global == "" && cfg.Sources.Project == "" {
		b.WriteString("(defaults only)\n")

		return b.String()
	}

	if cfg.Sources.Global != "" {
		b.WriteString("global_config=" + cfg.Sources.Global + "\n")
	}

	if cfg.Sources.Project != "" {
		b.WriteString("project_config=" + cfg.Sources.Project + "\n")
	}

	return b.String()
}
