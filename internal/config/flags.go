package config

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var flagKeys = map[string]string{
	"workers":          "settings.workers",
	"log-level":        "settings.log_level",
	"include-hidden":   "settings.include_hidden",
	"skip-system-dirs": "settings.skip_system_dirs",
	"safe-mode":        "settings.safe_mode",
	"clean-mode":       "settings.clean_mode",
	"trash-dir":        "settings.trash_dir",
	"sort":             "settings.sort_mode",
	"theme":            "settings.theme",
}

// RegisterFlags adds the settings flags to flags. Defaults come from DefaultSettings.
func RegisterFlags(flags *pflag.FlagSet) {
	base := DefaultSettings()
	flags.Int("workers", base.Workers, "Number of measurement workers")
	flags.String("log-level", base.LogLevel, "Log level (debug, info, warn, error)")
	flags.Bool("include-hidden", base.IncludeHidden, "Descend into hidden directories")
	flags.Bool("skip-system-dirs", base.SkipSystemDirs, "Skip well-known system directories")
	flags.Bool("safe-mode", base.SafeMode, "Refuse to clean critical paths")
	flags.String("clean-mode", base.CleanMode, "Clean mode (delete or trash)")
	flags.String("trash-dir", base.TrashDir, "Destination directory for clean mode trash")
	flags.String("sort", base.SortMode, "Sort mode (size, name, mod)")
	flags.String("theme", base.Theme, "UI theme (dark or light)")
}

// BindFlags binds every registered settings flag found in flags to v.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return err
		}
	}
	return nil
}
