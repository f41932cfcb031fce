// Package config loads the webserver configuration from YAML
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const AppName = "threadpool"

// ConfigFileName is looked up under the XDG config directories when no path is given
var ConfigFileName = filepath.Join(AppName, "webserver.yaml")

// LogConfig holds logging options
type LogConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn or error
	Format string `koanf:"format"` // text or json
}

// Config holds the webserver configuration
type Config struct {
	Address         string        `koanf:"address"`           // Listen address.
	Workers         int           `koanf:"workers"`           // Number of pool workers.
	StaticDir       string        `koanf:"static_dir"`        // Directory holding hello.html and 404.html; empty uses the built-in pages.
	SleepDelay      time.Duration `koanf:"sleep_delay"`       // Delay applied to GET /sleep.
	ReadBufferSize  int           `koanf:"read_buffer_size"`  // Bytes read from each request.
	MaxRequests     int           `koanf:"max_requests"`      // Stop accepting after this many connections; 0 means unlimited.
	Compress        bool          `koanf:"compress"`          // Gzip bodies for clients sending Accept-Encoding: gzip.
	ContinueOnPanic bool          `koanf:"continue_on_panic"` // Keep workers alive after a handler panics.
	MetricsAddress  string        `koanf:"metrics_address"`   // Prometheus listen address; empty disables metrics.
	Log             LogConfig     `koanf:"log"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Address:        "127.0.0.1:7878",
		Workers:        4,
		SleepDelay:     5 * time.Second,
		ReadBufferSize: 1024,
		Compress:       true,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads the configuration from path. An empty path searches the XDG
// config directories and falls back to defaults when nothing is found.
func Load(path string) (*Config, error) {
	cfg := Default()

	cfgPath := path
	if cfgPath == "" {
		found, err := xdg.SearchConfigFile(ConfigFileName)
		if err != nil {
			return cfg, nil
		}
		cfgPath = found
	}

	if _, err := os.Stat(cfgPath); err != nil {
		return nil, errors.Wrapf(err, "config file %s", cfgPath)
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(cfgPath), yaml.Parser()); err != nil {
		return nil, errors.Wrap(err, "failed to load config file")
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the server cannot run with
func (c *Config) Validate() error {
	if c.Workers <= 0 {
		return errors.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.ReadBufferSize <= 0 {
		return errors.Errorf("read_buffer_size must be positive, got %d", c.ReadBufferSize)
	}
	if c.SleepDelay < 0 {
		return errors.Errorf("sleep_delay must not be negative, got %s", c.SleepDelay)
	}
	if c.MaxRequests < 0 {
		return errors.Errorf("max_requests must not be negative, got %d", c.MaxRequests)
	}
	if strings.TrimSpace(c.Address) == "" {
		return errors.New("address must not be empty")
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return errors.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// DefaultPath returns where a user config file would be written
func DefaultPath() (string, error) {
	p, err := xdg.ConfigFile(ConfigFileName)
	if err != nil {
		return "", errors.Wrap(err, "failed to get default config path")
	}
	return p, nil
}

// WriteDefault writes a commented default configuration file to path
func WriteDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	d := Default()
	content := `# threadpool webserver configuration file.
# Address the server listens on.
address: "` + d.Address + `"
# Number of worker goroutines serving connections.
workers: ` + itoa(d.Workers) + `
# Directory containing hello.html and 404.html. Leave empty for the built-in pages.
static_dir: ""
# Delay applied to GET /sleep.
sleep_delay: "` + d.SleepDelay.String() + `"
# Number of request bytes read from each connection.
read_buffer_size: ` + itoa(d.ReadBufferSize) + `
# Stop accepting after this many connections (0 = unlimited).
max_requests: 0
# Gzip response bodies when the client accepts it.
compress: true
# Keep a worker alive after a handler panics instead of letting it exit.
continue_on_panic: false
# Prometheus metrics listen address, e.g. "127.0.0.1:9090". Empty disables metrics.
metrics_address: ""
log:
  # debug, info, warn or error
  level: "` + d.Log.Level + `"
  # text or json
  format: "` + d.Log.Format + `"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}
	return nil
}
