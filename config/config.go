// Package config loads server settings from defaults, an optional file,
// JPOKER_ environment variables and command line flags, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lazharichir/jpoker/protocol"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds every server setting
type Config struct {
	Port       int    `mapstructure:"port"`
	AuthMode   string `mapstructure:"auth_mode"`
	MaxClients int    `mapstructure:"max_clients"`
	Tables     int    `mapstructure:"tables"`
	SplitPots  bool   `mapstructure:"split_pots"`
	// SingleLogin refuses a second session for a user already logged in
	SingleLogin bool              `mapstructure:"single_login"`
	WSAddr      string            `mapstructure:"ws_addr"`
	LogLevel    string            `mapstructure:"log_level"`
	Users       map[string]string `mapstructure:"users"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Postgres    PostgresConfig    `mapstructure:"postgres"`
}

// RedisConfig enables the table event publisher when Addr is set
type RedisConfig struct {
	Addr    string `mapstructure:"addr"`
	Channel string `mapstructure:"channel"`
}

// PostgresConfig enables the database password verifier when DSN is set
type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

const envPrefix = "JPOKER"

// SetDefaults registers the default value of every key
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", protocol.DefaultPort)
	v.SetDefault("auth_mode", "none")
	v.SetDefault("max_clients", 100)
	v.SetDefault("tables", 10)
	v.SetDefault("split_pots", false)
	v.SetDefault("single_login", false)
	v.SetDefault("ws_addr", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.channel", "jpoker:events")
	v.SetDefault("postgres.dsn", "")
}

// Load reads the configuration. path may be empty; flags may be nil.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	if flags != nil {
		var bindErr error
		// --auth-mode sets auth_mode
		flags.VisitAll(func(f *pflag.Flag) {
			if err := v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f); err != nil && bindErr == nil {
				bindErr = err
			}
		})
		if bindErr != nil {
			return Config{}, fmt.Errorf("binding flags: %w", bindErr)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later at startup
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if _, err := protocol.ParseAuthMode(c.AuthMode); err != nil {
		return err
	}
	if c.MaxClients <= 0 {
		return errors.New("max_clients must be positive")
	}
	if c.Tables < 0 {
		return errors.New("tables must not be negative")
	}
	return nil
}

// Mode returns the parsed authentication mode
func (c Config) Mode() protocol.AuthMode {
	mode, _ := protocol.ParseAuthMode(c.AuthMode)
	return mode
}
