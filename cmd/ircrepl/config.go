package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/gissleh/irctrack"
)

const (
	envConfigDefaultPath = "IRCREPL_CONFIG_DEFAULT_PATH"
	defaultConfigName    = "ircrepl.yaml"
)

// replConfig is what the REPL reads from its config file.
type replConfig struct {
	Server string     `mapstructure:"server" yaml:"server"`
	SSL    bool       `mapstructure:"ssl" yaml:"ssl"`
	Debug  bool       `mapstructure:"debug" yaml:"debug"`
	Join   []string   `mapstructure:"join" yaml:"join"`
	Client irc.Config `mapstructure:"client" yaml:"client"`
}

func defaultConfig() replConfig {
	return replConfig{
		Server: "localhost:6667",
		Client: irc.Config{
			Nick:         "Test",
			Alternatives: []string{"Test2", "Test3", "Test4", "Test5"},
			User:         "test",
			RealName:     "irctrack REPL",
		},
	}
}

// loadConfig builds the configuration from defaults, the config file and
// IRCREPL_ env vars, in that order. A default file is written if none exists.
func loadConfig(logger *zerolog.Logger, explicitPath string) (replConfig, string, error) {
	cfg := defaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetDefault("server", cfg.Server)
	v.SetDefault("ssl", cfg.SSL)
	v.SetDefault("debug", cfg.Debug)
	v.SetDefault("client.nick", cfg.Client.Nick)
	v.SetDefault("client.alternatives", cfg.Client.Alternatives)
	v.SetDefault("client.user", cfg.Client.User)
	v.SetDefault("client.realName", cfg.Client.RealName)
	v.SetDefault("client.password", "")
	v.SetDefault("client.skipSslVerification", false)

	v.SetEnvPrefix("IRCREPL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath := resolveConfigPath(explicitPath)
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return cfg, configPath, fmt.Errorf("read config: %w", err)
		}

		if err := writeDefaultConfig(configPath, cfg); err != nil {
			logger.Warn().Err(err).Str("path", configPath).Msg("Failed to write default config")
		} else {
			logger.Info().Str("path", configPath).Msg("Created default config")
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, configPath, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, configPath, nil
}

func resolveConfigPath(explicitPath string) string {
	if explicitPath != "" {
		return explicitPath
	}

	if base := os.Getenv(envConfigDefaultPath); base != "" {
		if err := os.MkdirAll(base, 0o755); err == nil {
			return filepath.Join(base, defaultConfigName)
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return defaultConfigName
	}

	return filepath.Join(cwd, defaultConfigName)
}

func writeDefaultConfig(path string, cfg replConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}
