package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"ocrprep/internal/normalize"
	"ocrprep/internal/resolver"
)

// Keys used in viper and their environment variable names.
const (
	KeyWorkingDir = "working_dir"
	KeyManifest   = "manifest"
	KeyDirs       = "dir"
	KeyFormat     = "format"
	KeyDPI        = "dpi"
	KeyOutputDir  = "output"
	KeyDryRun     = "dry_run"
	KeyVerbose    = "verbose"
	KeyProgress   = "progress"
	KeyLogLevel   = "log_level"
	KeyLogFormat  = "log_format"
)

var envNames = map[string]string{
	KeyWorkingDir: "WORKING_DIR",
	KeyManifest:   "DIRS_CSV",
	KeyFormat:     "OCR_FORMAT",
	KeyDPI:        "OCR_DPI",
	KeyOutputDir:  "OUTPUT_DIR",
	KeyLogLevel:   "LOG_LEVEL",
	KeyLogFormat:  "LOG_FORMAT",
}

// Settings are the raw, unvalidated values of a run.
type Settings struct {
	Dirs       []string
	Manifest   string
	WorkingDir string
	Format     string
	DPI        int
	OutputDir  string
	DryRun     bool
	Verbose    bool
	Progress   bool
	LogLevel   string
	LogFormat  string
}

// Config is a validated run configuration, minus the root directories,
// which ResolveRoots produces.
type Config struct {
	Format    resolver.Format
	DPI       int
	OutputDir string
	DryRun    bool
	Verbose   bool
	Progress  bool
	LogLevel  string
	LogFormat string
}

// Error is a fatal configuration problem. The run stops before scanning.
type Error struct {
	Msg string
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func configErrorf(err error, format string, args ...any) error {
	return &Error{Msg: fmt.Sprintf(format, args...), Err: err}
}

// NewViper returns a viper instance with defaults and environment bindings.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyFormat, string(resolver.FormatPNG))
	v.SetDefault(KeyDPI, normalize.DefaultDPI)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
	for key, env := range envNames {
		_ = v.BindEnv(key, env)
	}
	return v
}

// ReadEnvFile merges a dotenv file into v. A missing file is not an error;
// process environment variables still take precedence over it.
func ReadEnvFile(v *viper.Viper, path string) (bool, error) {
	if strings.TrimSpace(path) == "" {
		return false, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, configErrorf(err, "read env file %s", path)
	}
	if info.IsDir() {
		return false, configErrorf(nil, "env file %s is a directory", path)
	}
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return false, configErrorf(err, "parse env file %s", path)
	}
	// dotenv keys are lower-cased variable names; map them onto their keys.
	for key, env := range envNames {
		name := strings.ToLower(env)
		if name != key && v.InConfig(name) {
			v.SetDefault(key, v.Get(name))
		}
	}
	return true, nil
}

// Load reads the settings held by v. Positional arguments are appended to
// any --dir values.
func Load(v *viper.Viper, args []string) Settings {
	dirs := append([]string{}, v.GetStringSlice(KeyDirs)...)
	dirs = append(dirs, args...)
	return Settings{
		Dirs:       dirs,
		Manifest:   strings.TrimSpace(v.GetString(KeyManifest)),
		WorkingDir: strings.TrimSpace(v.GetString(KeyWorkingDir)),
		Format:     v.GetString(KeyFormat),
		DPI:        v.GetInt(KeyDPI),
		OutputDir:  strings.TrimSpace(v.GetString(KeyOutputDir)),
		DryRun:     v.GetBool(KeyDryRun),
		Verbose:    v.GetBool(KeyVerbose),
		Progress:   v.GetBool(KeyProgress),
		LogLevel:   v.GetString(KeyLogLevel),
		LogFormat:  v.GetString(KeyLogFormat),
	}
}

// Validate checks the run options and normalises paths.
func (s Settings) Validate() (Config, error) {
	format, err := resolver.ParseFormat(s.Format)
	if err != nil {
		return Config{}, configErrorf(err, "format")
	}
	if s.DPI <= 0 {
		return Config{}, configErrorf(nil, "dpi must be a positive integer, got %d", s.DPI)
	}
	output, err := ExpandPath(s.OutputDir)
	if err != nil {
		return Config{}, configErrorf(err, "output")
	}
	if output != "" {
		if info, err := os.Stat(output); err == nil && !info.IsDir() {
			return Config{}, configErrorf(nil, "output %s exists and is not a directory", output)
		}
	}
	return Config{
		Format:    format,
		DPI:       s.DPI,
		OutputDir: output,
		DryRun:    s.DryRun,
		Verbose:   s.Verbose,
		Progress:  s.Progress,
		LogLevel:  s.LogLevel,
		LogFormat: s.LogFormat,
	}, nil
}

// Source returns where root directories come from.
func (s Settings) Source() Source {
	return Source{Dirs: s.Dirs, Manifest: s.Manifest, WorkingDir: s.WorkingDir}
}

// ExpandPath expands a leading "~" and makes the path absolute. Empty stays
// empty.
func ExpandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
