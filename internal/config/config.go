// Package config manages application settings through viper: factory
// defaults, XGRAB_* environment bindings, and an optional config file under
// the user config directory.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/lvcoi/xgrab/internal/fsx"
)

const appName = "xgrab"

// EnvKeyReplacer normalizes dotted keys into environment variable form.
var EnvKeyReplacer = strings.NewReplacer(".", "_")

// Dir returns the tool's configuration directory. XGRAB_CONFIG_DIR overrides
// the platform default.
func Dir() string {
	if dir := os.Getenv("XGRAB_CONFIG_DIR"); dir != "" {
		return dir
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return appName
	}
	return filepath.Join(base, appName)
}

// Setup initializes viper: defaults, env bindings, and the config file if one
// exists. A missing config file is not an error.
func Setup() error {
	viper.SetConfigName(appName)
	viper.SetConfigType("toml")
	viper.SetFs(fsx.API())
	viper.AddConfigPath(Dir())

	viper.SetEnvPrefix(appName)
	viper.SetEnvKeyReplacer(EnvKeyReplacer)
	for _, env := range EnvExposed {
		viper.MustBindEnv(env)
	}

	viper.SetTypeByDefaultValue(true)
	for name, field := range Default {
		viper.SetDefault(name, field.Value)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return err
	}
	return nil
}

// Seconds reads a key registered as whole seconds.
func Seconds(key string) time.Duration {
	return time.Duration(viper.GetInt(key)) * time.Second
}

// Millis reads a key registered as whole milliseconds.
func Millis(key string) time.Duration {
	return time.Duration(viper.GetInt(key)) * time.Millisecond
}
