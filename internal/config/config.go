package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/apex/log"
	"gopkg.in/yaml.v3"
)

// FileName is the name looked for in the standard config locations.
const FileName = "pagecache.yaml"

// EnvPath points straight at a config file and wins over the search.
const EnvPath = "PAGECACHE_CONFIG"

// ErrNotFound is returned by Find when no config file exists.
var ErrNotFound = errors.New("no config file found in standard locations")

// Type is the decoded pagecache.yaml.
type Type struct {
	Source string `yaml:"-"`

	// Expiration is the freshness window in seconds.
	Expiration int    `yaml:"expiration"`
	Shards     int    `yaml:"shards"`
	UserAgent  string `yaml:"user_agent"`
	// Timeout is the HTTP client timeout in seconds. 0 means none.
	Timeout  int    `yaml:"timeout"`
	Strict   bool   `yaml:"strict"`
	Token    string `yaml:"token"`
	LogLevel string `yaml:"log_level"`
}

// Default returns the settings used when no file is found.
func Default() Type {
	return Type{
		Expiration: 10,
		Shards:     4,
		UserAgent:  "pagecache",
	}
}

// ExpirationDuration returns Expiration as a time.Duration.
func (c Type) ExpirationDuration() time.Duration {
	return time.Duration(c.Expiration) * time.Second
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c Type) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// Load reads path on top of Default. Keys missing from the file keep their
// default value.
func Load(path string) (Type, error) {
	cfg := Default()

	bytes, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(bytes, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	cfg.Source = path

	if cfg.Shards < 1 {
		return cfg, fmt.Errorf("%s: shards must be at least 1, got %d", path, cfg.Shards)
	}
	if cfg.Expiration < 0 {
		return cfg, fmt.Errorf("%s: expiration must not be negative, got %d", path, cfg.Expiration)
	}
	return cfg, nil
}

// LoadDefault loads the file Find locates, or returns Default when there is
// none.
func LoadDefault() (Type, error) {
	path, err := Find()
	if errors.Is(err, ErrNotFound) {
		return Default(), nil
	}
	if err != nil {
		return Default(), err
	}
	return Load(path)
}

// Find returns the config file path. PAGECACHE_CONFIG wins, then
// pagecache.yaml in XDG_CONFIG_HOME, APPDATA and HOME.
func Find() (string, error) {
	if p := os.Getenv(EnvPath); p != "" {
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("%s=%s: %w", EnvPath, p, err)
		}
		return p, nil
	}

	candidates := []string{
		os.Getenv("XDG_CONFIG_HOME"),
		os.Getenv("APPDATA"),
		os.Getenv("HOME"),
	}

	for _, c := range candidates {
		if c == "" {
			continue
		}
		file := filepath.Join(c, FileName)
		if fileInfo, err := os.Stat(file); err == nil && !fileInfo.IsDir() {
			log.Debugf("using config file: %s", file)
			return file, nil
		}
	}
	return "", ErrNotFound
}
