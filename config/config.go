// Package config loads the single user-level configuration document Flame
// needs: frontend endpoint, cache endpoint, package storage base URL, and
// the excludes glob list used when packaging a Runner's working directory.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultFrontendAddr is used when neither the config file nor the
	// environment specify a frontend endpoint.
	DefaultFrontendAddr = "127.0.0.1:9918"
	// DefaultCacheAddr is used when neither the config file nor the
	// environment specify an object-cache endpoint.
	DefaultCacheAddr = "http://127.0.0.1:9919"
	// DefaultWorkerSockEnv is the well-known environment variable the
	// frontend uses to advertise the instance harness's local RPC socket
	// path (§6 "Worker endpoint").
	DefaultWorkerSockEnv = "FLAME_INSTANCE_SOCK"
	// DefaultDebugPort is the HTTP debug listener's documented default
	// port when FLAME_INSTANCE_SOCK is unset (§4.4 debug mode).
	DefaultDebugPort = 9920
)

// Config is Flame's single configuration document (§6 "Configuration").
type Config struct {
	FrontendAddr string   `yaml:"frontend_addr"`
	CacheAddr    string   `yaml:"cache_addr"`
	StorageBase  string   `yaml:"storage_base"`
	Excludes     []string `yaml:"excludes"`
	DebugPort    int      `yaml:"debug_port"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	PoolSize     int      `yaml:"pool_size"`
}

// Default returns a Config populated with documented defaults.
func Default() *Config {
	return &Config{
		FrontendAddr: DefaultFrontendAddr,
		CacheAddr:    DefaultCacheAddr,
		Excludes:     []string{".git/**", "**/__pycache__/**", "**/*.pyc", "**/node_modules/**"},
		DebugPort:    DefaultDebugPort,
		DialTimeout:  5 * time.Second,
		PoolSize:     8,
	}
}

// Load reads an optional YAML config file at path (skipped if empty or
// missing) then applies environment variable overrides, mirroring
// streamspace's AgentConfig.Validate default-filling pattern.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// no config file, defaults + env only
		default:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	applyEnv(cfg)
	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("FLAME_FRONTEND_ADDR"); v != "" {
		cfg.FrontendAddr = v
	}
	if v := os.Getenv("FLAME_CACHE_ADDR"); v != "" {
		cfg.CacheAddr = v
	}
	if v := os.Getenv("FLAME_STORAGE_BASE"); v != "" {
		cfg.StorageBase = v
	}
	if v := os.Getenv("FLAME_DEBUG_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.DebugPort = n
		}
	}
	if v := os.Getenv("FLAME_DIAL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.DialTimeout = d
		}
	}
}

// Validate enforces the required fields are present, filling remaining
// zero-valued optional fields with defaults.
func (c *Config) Validate() error {
	if c.FrontendAddr == "" {
		return fmt.Errorf("config: frontend_addr is required")
	}
	if c.CacheAddr == "" {
		return fmt.Errorf("config: cache_addr is required")
	}
	if c.DebugPort <= 0 {
		c.DebugPort = DefaultDebugPort
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = 5 * time.Second
	}
	if c.PoolSize <= 0 {
		c.PoolSize = 8
	}
	return nil
}
