// Package settings provides the runtime settings store backing operational
// knobs like the suspension profile and grace period. Values come from a
// viper-managed YAML file plus environment overrides, so operators can change
// behavior without a deploy.
package settings

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// ViperStore implements ports.SettingsStore over a viper instance
type ViperStore struct {
	v      *viper.Viper
	logger *zap.Logger
}

// NewViperStore loads settings from the given file path. A missing file is
// not an error; every lookup then falls back to caller defaults or
// NETBILLING_ environment overrides.
func NewViperStore(path string, logger *zap.Logger) (*ViperStore, error) {
	v := viper.New()
	v.SetEnvPrefix("NETBILLING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
			logger.Info("settings file absent, using defaults", zap.String("path", path))
		} else {
			logger.Info("settings loaded", zap.String("path", path))
		}
	}

	return &ViperStore{v: v, logger: logger}, nil
}

// GetString returns the string value for key, or def when unset
func (s *ViperStore) GetString(key, def string) string {
	if !s.v.IsSet(key) {
		return def
	}
	return s.v.GetString(key)
}

// GetInt returns the int value for key, or def when unset
func (s *ViperStore) GetInt(key string, def int) int {
	if !s.v.IsSet(key) {
		return def
	}
	return s.v.GetInt(key)
}

// GetBool returns the bool value for key, or def when unset
func (s *ViperStore) GetBool(key string, def bool) bool {
	if !s.v.IsSet(key) {
		return def
	}
	return s.v.GetBool(key)
}

// GetFloat returns the float value for key, or def when unset
func (s *ViperStore) GetFloat(key string, def float64) float64 {
	if !s.v.IsSet(key) {
		return def
	}
	return s.v.GetFloat64(key)
}
