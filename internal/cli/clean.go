package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xiaoquanidea/fast-clean-x/internal/bridge"
	"github.com/xiaoquanidea/fast-clean-x/internal/domain"
	"github.com/xiaoquanidea/fast-clean-x/internal/report"
	"github.com/xiaoquanidea/fast-clean-x/internal/services"
)

func cleanCmd(env *environment) *cobra.Command {
	var (
		from   string
		types  []string
		paths  []string
		all    bool
		yes    bool
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Clean artifacts from the last scan or a saved JSON report",
		Long: `Select items from the last scan (or --from a JSON report) by type, path
or --all, show a preview and delete or trash them after confirmation.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(types) == 0 && len(paths) == 0 {
				return errors.New("nothing selected: use --all, --type or --path")
			}

			result, err := loadResult(env, from)
			if err != nil {
				return err
			}
			items, err := selectItems(result.Items, all, types, paths)
			if err != nil {
				return err
			}

			mode, ok := domain.ParseCleanMode(env.manager.Settings().CleanMode)
			if !ok {
				return fmt.Errorf("invalid clean mode: %s", env.manager.Settings().CleanMode)
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			preview, err := env.app.PreviewClean(ctx, items, mode)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printPreview(out, preview)
			if dryRun {
				return nil
			}
			if preview.Items == 0 {
				fmt.Fprintln(out, "Nothing to clean.")
				return nil
			}

			confirmed := yes
			if !confirmed {
				confirmed, err = promptConfirm(cmd.InOrStdin(), out)
				if err != nil {
					return err
				}
			}
			if !confirmed {
				fmt.Fprintln(out, "Aborted.")
				return nil
			}

			cleaned, cleanErr := env.app.StartClean(ctx, items, mode, true)
			printCleanResult(out, cleaned)
			return cleanErr
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "JSON report produced by \"scan --format json\"")
	cmd.Flags().StringSliceVarP(&types, "type", "t", nil, "Select items of these rule names")
	cmd.Flags().StringSliceVar(&paths, "path", nil, "Select items by path")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Select every item")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Only show what would be cleaned")
	return cmd
}

func loadResult(env *environment, from string) (*domain.ScanResult, error) {
	if from == "" {
		result, err := env.app.LastResult()
		if errors.Is(err, services.ErrNoCachedResult) {
			return nil, errors.New("no cached scan: run \"fastclean scan\" first or pass --from")
		}
		return result, err
	}
	file, err := os.Open(from)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return bridge.ReadScanResultJSON(file)
}

// selectItems marks matching items selected and returns all items, so the
// cleaner can report unselected ones as skipped.
func selectItems(items []domain.ScanItem, all bool, types, paths []string) ([]domain.ScanItem, error) {
	typeSet := map[string]bool{}
	for _, name := range types {
		typeSet[strings.ToLower(name)] = true
	}
	pathSet := map[string]bool{}
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, err
		}
		pathSet[filepath.Clean(abs)] = true
	}

	selected := make([]domain.ScanItem, 0, len(items))
	count := 0
	for _, item := range items {
		item.Selected = all || typeSet[strings.ToLower(item.Type)] || pathSet[filepath.Clean(item.Path)]
		if item.Selected {
			count++
		}
		selected = append(selected, item)
	}
	if count == 0 {
		return nil, errors.New("no items match the selection")
	}
	return selected, nil
}

func promptConfirm(in io.Reader, out io.Writer) (bool, error) {
	fmt.Fprintf(out, "Type '%s' to continue: ", services.ConfirmToken)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	return strings.TrimSpace(line) == services.ConfirmToken, nil
}

func printPreview(out io.Writer, preview services.CleanPreview) {
	fmt.Fprintf(out, "\n  Mode:   %s\n", preview.Mode)
	fmt.Fprintf(out, "  Items:  %d (%d files)\n", preview.Items, preview.TotalFiles)
	fmt.Fprintf(out, "  Size:   %s\n", domain.FormatSize(preview.TotalBytes))
	for _, sample := range preview.Samples {
		fmt.Fprintf(out, "    %s\n", sample)
	}
	if preview.Items > len(preview.Samples) {
		fmt.Fprintf(out, "    ... and %d more\n", preview.Items-len(preview.Samples))
	}
	for _, warning := range preview.Warnings {
		fmt.Fprintf(out, "  ! %s\n", warning)
	}
	fmt.Fprintln(out)
}

func printCleanResult(out io.Writer, result services.CleanResult) {
	fmt.Fprintf(out, "\n  Cleaned: %d items, %s freed in %s\n",
		result.CleanedCount, domain.FormatSize(result.CleanedSize), report.FormatDuration(result.Duration))
	if result.FailedCount > 0 {
		fmt.Fprintf(out, "  Failed:  %d\n", result.FailedCount)
		for _, message := range result.Errors {
			fmt.Fprintf(out, "    %s\n", message)
		}
	}
	if result.Canceled {
		fmt.Fprintln(out, "  Canceled before all items were processed")
	}
}
