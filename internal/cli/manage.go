package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func rulesCmd(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List, enable or disable scan rules",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List scan rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(writer, "NAME\tENABLED\tPRIORITY\tTARGETS\tMARKERS")
			for _, rule := range env.app.GetConfig().ScanRules {
				fmt.Fprintf(writer, "%s\t%t\t%d\t%s\t%s\n",
					rule.Name, rule.Enabled, rule.Priority,
					strings.Join(rule.TargetDirs, ","), strings.Join(rule.ProjectMarkers, ","))
			}
			return writer.Flush()
		},
	})
	for _, enabled := range []bool{true, false} {
		enabled := enabled
		use, short := "enable <rule>", "Enable a scan rule"
		if !enabled {
			use, short = "disable <rule>", "Disable a scan rule"
		}
		cmd.AddCommand(&cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := env.app.UpdateScanRule(args[0], enabled); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Rule %q enabled=%t\n", args[0], enabled)
				return nil
			},
		})
	}
	return cmd
}

// listCmd builds the list/add/remove trio shared by paths and ignore.
func listCmd(use, short string, list func() []string, add, remove func(string) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Show entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			values := list()
			if len(values) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "(none)")
				return nil
			}
			for _, value := range values {
				fmt.Fprintln(cmd.OutOrStdout(), value)
			}
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "add <value>...",
		Short: "Add entries",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, value := range args {
				if err := add(value); err != nil {
					return err
				}
			}
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "remove <value>...",
		Short: "Remove entries",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, value := range args {
				if err := remove(value); err != nil {
					return err
				}
			}
			return nil
		},
	})
	return cmd
}

func pathsCmd(env *environment) *cobra.Command {
	return listCmd("paths", "Manage scan paths",
		func() []string { return env.app.GetConfig().ScanPaths },
		func(value string) error { return env.app.AddScanPath(value) },
		func(value string) error { return env.app.RemoveScanPath(value) },
	)
}

func ignoreCmd(env *environment) *cobra.Command {
	return listCmd("ignore", "Manage ignore patterns",
		func() []string { return env.app.GetConfig().IgnorePatterns },
		func(value string) error { return env.app.AddIgnorePattern(value) },
		func(value string) error { return env.app.RemoveIgnorePattern(value) },
	)
}

func configCmd(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print config and settings as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := env.manager.Settings()
			document := struct {
				Config   interface{}       `yaml:"config"`
				Settings map[string]string `yaml:"settings"`
			}{
				Config: env.app.GetConfig(),
				Settings: map[string]string{
					"workers":           fmt.Sprint(settings.Workers),
					"log_level":         settings.LogLevel,
					"include_hidden":    fmt.Sprint(settings.IncludeHidden),
					"skip_system_dirs":  fmt.Sprint(settings.SkipSystemDirs),
					"safe_mode":         fmt.Sprint(settings.SafeMode),
					"clean_mode":        settings.CleanMode,
					"trash_dir":         settings.TrashDir,
					"sort_mode":         settings.SortMode,
					"theme":             settings.Theme,
					"report_format":     settings.ReportFormat,
					"marker_cache_size": fmt.Sprint(settings.MarkerCacheSize),
				},
			}
			encoder := yaml.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent(2)
			if err := encoder.Encode(document); err != nil {
				return err
			}
			return encoder.Close()
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), env.manager.Path())
			return nil
		},
	})
	return cmd
}

func uiCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Start the interactive terminal UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.app.RunTUI()
		},
	}
}
