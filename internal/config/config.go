package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"github.com/xiaoquanidea/fast-clean-x/internal/domain"
)

const (
	configDirName  = "fast-clean-x"
	configFileName = "config.yaml"
	envPrefix      = "FASTCLEAN"
)

// Settings are the engine and front-end knobs. They live under the
// "settings" key of the config file and can be overridden by FASTCLEAN_*
// environment variables and command line flags.
type Settings struct {
	Workers         int    `mapstructure:"workers"`
	LogLevel        string `mapstructure:"log_level"`
	IncludeHidden   bool   `mapstructure:"include_hidden"`
	SkipSystemDirs  bool   `mapstructure:"skip_system_dirs"`
	SafeMode        bool   `mapstructure:"safe_mode"`
	CleanMode       string `mapstructure:"clean_mode"`
	TrashDir        string `mapstructure:"trash_dir"`
	SortMode        string `mapstructure:"sort_mode"`
	Theme           string `mapstructure:"theme"`
	ReportFormat    string `mapstructure:"report_format"`
	MarkerCacheSize int    `mapstructure:"marker_cache_size"`
}

func DefaultSettings() Settings {
	trashDir := ""
	if base, err := os.UserCacheDir(); err == nil {
		trashDir = filepath.Join(base, configDirName, "trash")
	}
	return Settings{
		Workers:         runtime.NumCPU() * 2,
		LogLevel:        "error",
		IncludeHidden:   false,
		SkipSystemDirs:  true,
		SafeMode:        true,
		CleanMode:       string(domain.CleanDelete),
		TrashDir:        trashDir,
		SortMode:        string(domain.SortBySize),
		Theme:           "dark",
		ReportFormat:    "text",
		MarkerCacheSize: 4096,
	}
}

// NewViper returns a viper instance with defaults and environment binding applied.
func NewViper() *viper.Viper {
	v := viper.New()
	applyDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func applyDefaults(v *viper.Viper) {
	defaults := DefaultSettings()
	v.SetDefault("settings.workers", defaults.Workers)
	v.SetDefault("settings.log_level", defaults.LogLevel)
	v.SetDefault("settings.include_hidden", defaults.IncludeHidden)
	v.SetDefault("settings.skip_system_dirs", defaults.SkipSystemDirs)
	v.SetDefault("settings.safe_mode", defaults.SafeMode)
	v.SetDefault("settings.clean_mode", defaults.CleanMode)
	v.SetDefault("settings.trash_dir", defaults.TrashDir)
	v.SetDefault("settings.sort_mode", defaults.SortMode)
	v.SetDefault("settings.theme", defaults.Theme)
	v.SetDefault("settings.report_format", defaults.ReportFormat)
	v.SetDefault("settings.marker_cache_size", defaults.MarkerCacheSize)
}

// Validate checks the settings values that have a closed set of options.
func (settings Settings) Validate() error {
	if settings.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", settings.Workers)
	}
	if _, ok := domain.ParseCleanMode(settings.CleanMode); !ok {
		return fmt.Errorf("invalid clean mode: %s (must be delete or trash)", settings.CleanMode)
	}
	if settings.CleanMode == string(domain.CleanTrash) && settings.TrashDir == "" {
		return fmt.Errorf("trash dir is required for clean mode trash")
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(settings.LogLevel)] {
		return fmt.Errorf("invalid log level: %s", settings.LogLevel)
	}
	return nil
}

// DefaultPath is $XDG_CONFIG_HOME/fast-clean-x/config.yaml or its platform equivalent.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, configDirName, configFileName), nil
}
