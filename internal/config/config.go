// Package config loads tool configuration from a config file or
// environment variables.
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config stores plugkit settings. Values are read by viper from an
// optional plugkit.env file or PLUGKIT_-prefixed environment variables.
type Config struct {
	// PluginsDir is scanned for plugin.toml / package.toml files.
	PluginsDir string `mapstructure:"PLUGINS_DIR"`

	// TrustedKeysFile holds hex-encoded ed25519 public keys, one per line.
	TrustedKeysFile string `mapstructure:"TRUSTED_KEYS_FILE"`

	// OutputDir is the default destination for generated manifests and
	// built archives.
	OutputDir string `mapstructure:"OUTPUT_DIR"`
}

// Load reads configuration from path (a directory holding plugkit.env) or
// the environment. A missing config file is fine; defaults apply.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("PLUGINS_DIR", "plugins")
	v.SetDefault("TRUSTED_KEYS_FILE", "")
	v.SetDefault("OUTPUT_DIR", ".")

	v.SetEnvPrefix("PLUGKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.AddConfigPath(path)
		v.SetConfigName("plugkit")
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
