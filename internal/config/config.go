// Package config layers CLI configuration the same way cmd/bd does:
// explicit flags take precedence, then SECMASTER_* environment
// variables, then a .secmaster.yaml file in the working directory (or,
// if there is none, in $HOME), then built-in defaults. Parent directories
// of the working directory are not searched.
package config

import (
	"strings"

	"github.com/spf13/viper"
)

var v = viper.New()

// Initialize sets up viper's env and config-file layers. Flags are
// layered on top of it by the caller (cmd/secmaster's run, via
// resolveFlag/resolveBoolFlag), matching cmd/bd's flags-over-viper pattern:
// viper never learns about a flag directly, callers consult
// cmd.Flags().Changed first and only fall back to config.Get* when the
// flag wasn't explicitly set.
func Initialize() error {
	v.SetEnvPrefix("SECMASTER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName(".secmaster")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME")

	setDefaults()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}
	return nil
}

func setDefaults() {
	v.SetDefault("state", "./secmaster.parquet")
	v.SetDefault("filter", "")
	v.SetDefault("sql", false)
	v.SetDefault("watch", false)
	v.SetDefault("log-file", "")
	v.SetDefault("log-level", "info")
}

// GetString returns key's layered string value (env over file over
// default).
func GetString(key string) string { return v.GetString(key) }

// GetBool returns key's layered bool value.
func GetBool(key string) bool { return v.GetBool(key) }

// GetInt returns key's layered int value.
func GetInt(key string) int { return v.GetInt(key) }
