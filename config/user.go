package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

const (
	userConfigRelPath = "codesnap/config.json"

	keyExtensions  = "file_extensions"
	keyExcludeDirs = "exclude_dirs"
)

// UserDefaults are the persisted per-user overrides of the built-in lists.
type UserDefaults struct {
	Extensions  []string `json:"file_extensions"`
	ExcludeDirs []string `json:"exclude_dirs"`
}

// UserConfigPath returns the location of the user defaults file under the
// XDG config home, creating the parent directory if needed.
func UserConfigPath() (string, error) {
	p, err := xdg.ConfigFile(userConfigRelPath)
	if err != nil {
		return "", fmt.Errorf("locating user config: %w", err)
	}
	return p, nil
}

// LoadUserDefaults reads the user defaults file. A missing file yields the
// built-in defaults.
func LoadUserDefaults(path string) (UserDefaults, error) {
	v := newViper(path)
	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return UserDefaults{}, fmt.Errorf("reading user config %s: %w", path, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return UserDefaults{}, fmt.Errorf("reading user config %s: %w", path, err)
	}

	return UserDefaults{
		Extensions:  v.GetStringSlice(keyExtensions),
		ExcludeDirs: v.GetStringSlice(keyExcludeDirs),
	}, nil
}

// SaveUserDefaults writes d to path, replacing any previous content.
func SaveUserDefaults(path string, d UserDefaults) error {
	v := newViper(path)
	v.Set(keyExtensions, d.Extensions)
	v.Set(keyExcludeDirs, d.ExcludeDirs)
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing user config %s: %w", path, err)
	}
	return nil
}

// Apply overlays the user defaults on c.
func (d UserDefaults) Apply(c *Config) {
	if len(d.Extensions) > 0 {
		c.Extensions = append([]string(nil), d.Extensions...)
	}
	if len(d.ExcludeDirs) > 0 {
		c.ExcludeDirs = append([]string(nil), d.ExcludeDirs...)
	}
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetDefault(keyExtensions, DefaultExtensions)
	v.SetDefault(keyExcludeDirs, DefaultExcludeDirs)
	return v
}
