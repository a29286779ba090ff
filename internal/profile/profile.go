// Package profile manages the persistent browser profile directory that
// carries authenticated sessions between runs.
package profile

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/lvcoi/xgrab/internal/config"
	"github.com/lvcoi/xgrab/internal/fsx"
)

// Resolve returns the profile directory to use: the flag value when given,
// otherwise the configured default.
func Resolve(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return viper.GetString(config.ProfileDir)
}

// Exists reports whether dir is present and is a directory.
func Exists(dir string) bool {
	info, err := fsx.API().Stat(dir)
	return err == nil && info.IsDir()
}

// Ensure creates dir if missing. Only the login flow creates profiles; an
// extraction run never materializes one as a side effect.
func Ensure(dir string) error {
	if dir == "" {
		return fmt.Errorf("empty profile directory")
	}
	if err := fsx.API().MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating profile directory: %w", err)
	}
	return nil
}
