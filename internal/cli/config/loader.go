package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes every environment variable read by the loader.
// A double underscore separates nested keys: SQLBATCH_CONNECTION__DRIVER.
const EnvPrefix = "SQLBATCH_"

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// loggerKey is used to store logger in context.
type loggerKey struct{}

// flagKeys maps command-line flag names to config keys. Flags not listed
// here are command-local and never reach the config.
var flagKeys = map[string]string{
	"driver":          "connection.driver",
	"dsn":             "connection.connection_string",
	"db-type":         "connection.db_type",
	"db-path":         "connection.path",
	"history":         "history_path",
	"output":          "output",
	"verbose":         "verbose",
	"restrict-update": "restrict_update",
	"trim":            "trim_result",
	"preview-limit":   "preview_limit",
	"listen":          "server.listen",
	"token":           "server.token",
}

// Result is a loaded configuration plus where it came from.
type Result struct {
	Config *Config

	// File is the config file that was read, or "".
	File string
}

// configExistsIn returns the config file in dir, or "".
func configExistsIn(dir string) string {
	for _, name := range ConfigFileNames {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// findConfigUpward searches upward from startDir for a sqlbatch config file.
// Returns empty string if not found within maxUpwardSearchLevels.
func findConfigUpward(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if found := configExistsIn(dir); found != "" {
			return found
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
// Empty, absolute and in-memory paths are returned unchanged.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// Load loads configuration from defaults, the config file, environment
// variables and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func Load(cfgFile string, flags *pflag.FlagSet) (*Result, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file: explicit path, else search upward from the working directory
	cwd, _ := os.Getwd()
	if cwd == "" {
		cwd = "."
	}
	projectRoot := cwd
	if cfgFile == "" {
		cfgFile = findConfigUpward(cwd)
	}
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
		if abs, err := filepath.Abs(cfgFile); err == nil {
			projectRoot = filepath.Dir(abs)
		}
	}

	// 3. Environment: SQLBATCH_CONNECTION__DRIVER -> connection.driver
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags that were explicitly set
	var flagPaths map[string]bool
	if flags != nil {
		flagPaths = map[string]bool{}
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			flagPaths[key] = true
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ProjectRoot = projectRoot

	// Paths given on the command line are relative to the working directory,
	// everything else to the project root.
	cfg.HistoryPath = resolvePath(cfg.HistoryPath, flagPaths["history_path"], projectRoot)
	cfg.Connection.Path = resolvePath(cfg.Connection.Path, flagPaths["connection.path"], projectRoot)

	expandConnectionEnvVars(&cfg.Connection)
	cfg.Connection.Driver = strings.ToLower(strings.TrimSpace(cfg.Connection.Driver))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Result{Config: &cfg, File: cfgFile}, nil
}

func resolvePath(path string, fromFlag bool, projectRoot string) string {
	if fromFlag {
		if path == "" || path == ":memory:" {
			return path
		}
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		}
		return path
	}
	return resolvePathRelativeTo(path, projectRoot)
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
// Unknown variables are left as written.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})
}

// expandConnectionEnvVars expands environment variables in connection fields
// that commonly carry secrets or host names.
func expandConnectionEnvVars(c *ConnectionConfig) {
	c.ConnectionString = expandEnvVars(c.ConnectionString)
	c.Host = expandEnvVars(c.Host)
	c.Database = expandEnvVars(c.Database)
	c.User = expandEnvVars(c.User)
	c.Password = expandEnvVars(c.Password)
	c.Path = expandEnvVars(c.Path)
	for k, v := range c.Options {
		c.Options[k] = expandEnvVars(v)
	}
}

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}
