// Package config loads the server's TOML configuration file, matching the
// shape of the original DeArrow Browser's config.toml: a mirror directory
// path, a static content path, a shared admin secret, listen addresses, and
// the optional Postgres boundary.
package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Listen describes the addresses the HTTP server binds to. At least one of
// TCP or Unix must be set.
type Listen struct {
	TCPHost  string `mapstructure:"tcp_host"`
	TCPPort  int    `mapstructure:"tcp_port"`
	Unix     string `mapstructure:"unix"`
	UnixMode int    `mapstructure:"unix_mode"`
}

// HasTCP reports whether a TCP listener was configured.
func (l Listen) HasTCP() bool { return l.TCPPort != 0 }

// Database holds the optional Postgres-boundary connection parameters. It is
// only consulted when Enabled is true; otherwise the CSV mirror directory is
// the sole source of truth (spec.md's Non-goals exclude multi-source
// consistency, so the two loaders are mutually exclusive, never blended).
type Database struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
}

// Config is the top-level application configuration.
type Config struct {
	MirrorPath         string   `mapstructure:"mirror_path" validate:"required"`
	StaticContentPath  string   `mapstructure:"static_content_path"`
	AuthSecret         string   `mapstructure:"auth_secret" validate:"required"`
	Listen             Listen   `mapstructure:"listen"`
	Database           Database `mapstructure:"database"`
}

const defaultConfigPath = "config.toml"

func setDefaults() {
	viper.SetDefault("mirror_path", "./mirror")
	viper.SetDefault("static_content_path", "./static")
	viper.SetDefault("listen.tcp_host", "0.0.0.0")
	viper.SetDefault("listen.tcp_port", 9292)
	viper.SetDefault("database.enabled", false)
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.user", "sponsortimes")
	viper.SetDefault("database.name", "sponsortimes")
}

// Load reads the TOML configuration file at path. If the file does not
// exist, a new one is created with generated defaults (including a random
// auth_secret), matching the original server's first-run behavior.
func Load(path string) (*Config, error) {
	if path == "" {
		path = defaultConfigPath
	}

	viper.SetConfigFile(path)
	viper.SetConfigType("toml")
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		secret, err := generateAuthSecret()
		if err != nil {
			return nil, fmt.Errorf("generate auth secret: %w", err)
		}
		viper.Set("auth_secret", secret)
		if err := viper.SafeWriteConfigAs(path); err != nil {
			return nil, fmt.Errorf("write default config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.AuthSecret == "" {
		secret, err := generateAuthSecret()
		if err != nil {
			return nil, fmt.Errorf("generate auth secret: %w", err)
		}
		cfg.AuthSecret = secret
		viper.Set("auth_secret", secret)
		if err := viper.WriteConfigAs(path); err != nil {
			return nil, fmt.Errorf("persist generated auth secret to %s: %w", path, err)
		}
	}

	if !cfg.Listen.HasTCP() && cfg.Listen.Unix == "" {
		return nil, fmt.Errorf("invalid configuration: no tcp port or unix socket path specified")
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func generateAuthSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
