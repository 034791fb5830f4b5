package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidVerbosity = errors.New("invalid verbosity: must be 'verbose', 'quiet' or 'default'")
	ErrInvalidTimeout   = errors.New("invalid aur.timeout")
	ErrHomeNotFound     = errors.New("cannot resolve home directory")
)

// Default values written to a fresh config file.
const (
	DefaultCachePath   = ".cache/aurkit/packages"
	DefaultDBPath      = ".cache/aurkit"
	DefaultAURURL      = "https://aur.archlinux.org"
	DefaultBranch      = "master"
	DefaultTimeout     = "30s"
	DefaultParallelism = 8
	DefaultRateLimit   = 10.0
	DefaultSearchLimit = 10
)

// Config represents the application configuration
type Config struct {
	Cache CacheConfig `yaml:"cache"`
	Build BuildConfig `yaml:"build"`
	AUR   AURConfig   `yaml:"aur"`
}

// CacheConfig controls where package sources and build state live.
// Relative paths are resolved against the user's home directory.
type CacheConfig struct {
	Path   string `yaml:"path"`
	DBPath string `yaml:"db_path"`
	Keep   bool   `yaml:"keep"`
}

// BuildConfig holds makepkg and confirmation settings
type BuildConfig struct {
	NoConfirm bool   `yaml:"no_confirm"`
	Verbosity string `yaml:"verbosity"`
	Branch    string `yaml:"branch"`
}

// AURConfig holds remote repository settings
type AURConfig struct {
	URL         string  `yaml:"url"`
	Timeout     string  `yaml:"timeout"`
	Retries     int     `yaml:"retries"`
	Parallelism int     `yaml:"parallelism"`
	RateLimit   float64 `yaml:"rate_limit"`
	SearchLimit int     `yaml:"search_limit"`
}

// Default returns the configuration used when no file exists yet.
func Default() *Config {
	return &Config{
		Cache: CacheConfig{
			Path:   DefaultCachePath,
			DBPath: DefaultDBPath,
			Keep:   true,
		},
		Build: BuildConfig{
			Verbosity: string(VerbosityDefault),
			Branch:    DefaultBranch,
		},
		AUR: AURConfig{
			URL:         DefaultAURURL,
			Timeout:     DefaultTimeout,
			Parallelism: DefaultParallelism,
			RateLimit:   DefaultRateLimit,
			SearchLimit: DefaultSearchLimit,
		},
	}
}

// configDir returns $XDG_CONFIG_HOME/aurkit, falling back to ~/.config/aurkit.
func configDir() (string, error) {
	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		xdgConfig = filepath.Join(home, ".config")
	}
	return filepath.Join(xdgConfig, "aurkit"), nil
}

// ConfigPaths returns all possible config file paths in priority order
// 1. ~/.config/aurkit/config.yaml (XDG standard - priority)
// 2. ~/.aurkit/config.yaml (legacy fallback)
func ConfigPaths() ([]string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	dir, err := configDir()
	if err != nil {
		return nil, err
	}

	return []string{
		filepath.Join(dir, "config.yaml"),
		filepath.Join(home, ".aurkit", "config.yaml"),
	}, nil
}

// FindConfigPath returns the first existing config file path
// Returns the default path if no config file exists yet
func FindConfigPath() (string, error) {
	paths, err := ConfigPaths()
	if err != nil {
		return "", err
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return paths[0], nil
}

// OverridesPath returns the location of packages.toml
func OverridesPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "packages.toml"), nil
}

// Load reads configuration from the first available config file
func Load() (*Config, error) {
	configPath, err := FindConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(configPath)
}

// LoadFrom reads configuration from a specific file path.
// A missing file is created with defaults. A file that no longer parses is
// moved aside to <path>.old and replaced with defaults; Replaced reports it.
func LoadFrom(path string) (*Config, error) {
	cfg, _, err := loadFrom(path)
	return cfg, err
}

// LoadResult is returned by LoadWithStatus.
type LoadResult struct {
	Config   *Config
	Created  bool
	Replaced bool
}

// LoadWithStatus behaves like LoadFrom and also reports whether the file was
// created or replaced, so callers can tell the user.
func LoadWithStatus(path string) (*LoadResult, error) {
	cfg, res, err := loadFrom(path)
	if err != nil {
		return nil, err
	}
	res.Config = cfg
	return res, nil
}

func loadFrom(path string) (*Config, *LoadResult, error) {
	res := &LoadResult{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := Default()
			if saveErr := cfg.SaveTo(path); saveErr != nil {
				return nil, nil, saveErr
			}
			res.Created = true
			return cfg, res, nil
		}
		return nil, nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if renameErr := os.Rename(path, path+".old"); renameErr != nil {
			return nil, nil, fmt.Errorf("config %s is invalid (%v) and could not be moved aside: %w", path, err, renameErr)
		}
		cfg = Default()
		if saveErr := cfg.SaveTo(path); saveErr != nil {
			return nil, nil, saveErr
		}
		res.Replaced = true
		return cfg, res, nil
	}

	return cfg, res, nil
}

// SaveTo writes configuration to a specific file path
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Verbosity selects how build subprocess output reaches the terminal.
type Verbosity string

const (
	// VerbosityVerbose inherits stdout and stderr.
	VerbosityVerbose Verbosity = "verbose"
	// VerbosityQuiet captures and suppresses both streams.
	VerbosityQuiet Verbosity = "quiet"
	// VerbosityDefault captures stdout and inherits stderr.
	VerbosityDefault Verbosity = "default"
)

// ParseVerbosity maps a config string to a Verbosity. The empty string
// selects VerbosityDefault.
func ParseVerbosity(s string) (Verbosity, error) {
	switch v := Verbosity(strings.ToLower(strings.TrimSpace(s))); v {
	case VerbosityVerbose, VerbosityQuiet, VerbosityDefault:
		return v, nil
	case "":
		return VerbosityDefault, nil
	default:
		return "", fmt.Errorf("%w: got %q", ErrInvalidVerbosity, s)
	}
}

// Settings is the resolved, process-wide view of Config. It is computed once
// at startup and handed to every component that builds a path or a request,
// so all of them agree on the cache root.
type Settings struct {
	CacheRoot   string
	DBDir       string
	KeepCache   bool
	NoConfirm   bool
	Verbosity   Verbosity
	Branch      string
	AURURL      string
	Timeout     time.Duration
	Retries     int
	Parallelism int
	RateLimit   float64
	SearchLimit int
}

// Resolve validates the configuration and resolves relative paths against
// the user's home directory.
func (c *Config) Resolve() (*Settings, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHomeNotFound, err)
	}
	return c.ResolveWithHome(home)
}

// ResolveWithHome is Resolve with an explicit home directory.
func (c *Config) ResolveWithHome(home string) (*Settings, error) {
	verbosity, err := ParseVerbosity(c.Build.Verbosity)
	if err != nil {
		return nil, err
	}

	timeout := 30 * time.Second
	if c.AUR.Timeout != "" {
		timeout, err = time.ParseDuration(c.AUR.Timeout)
		if err != nil || timeout < 0 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidTimeout, c.AUR.Timeout)
		}
	}

	s := &Settings{
		CacheRoot:   expandPath(home, orDefault(c.Cache.Path, DefaultCachePath)),
		DBDir:       expandPath(home, orDefault(c.Cache.DBPath, DefaultDBPath)),
		KeepCache:   c.Cache.Keep,
		NoConfirm:   c.Build.NoConfirm,
		Verbosity:   verbosity,
		Branch:      orDefault(c.Build.Branch, DefaultBranch),
		AURURL:      strings.TrimRight(orDefault(c.AUR.URL, DefaultAURURL), "/"),
		Timeout:     timeout,
		Retries:     max(c.AUR.Retries, 0),
		Parallelism: c.AUR.Parallelism,
		RateLimit:   c.AUR.RateLimit,
		SearchLimit: c.AUR.SearchLimit,
	}
	if s.Parallelism <= 0 {
		s.Parallelism = DefaultParallelism
	}
	if s.SearchLimit <= 0 {
		s.SearchLimit = DefaultSearchLimit
	}

	return s, nil
}

// expandPath expands a leading ~ and anchors relative paths at home.
func expandPath(home, path string) string {
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		path = path[2:]
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(home, path)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
