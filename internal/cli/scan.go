package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/xiaoquanidea/fast-clean-x/internal/domain"
	"github.com/xiaoquanidea/fast-clean-x/internal/report"
	"github.com/xiaoquanidea/fast-clean-x/internal/services"
)

func scanCmd(env *environment) *cobra.Command {
	var (
		format     string
		outputFile string
		quiet      bool
	)

	cmd := &cobra.Command{
		Use:   "scan [paths...]",
		Short: "Scan for build artifacts",
		Long: `Scan the configured paths, or the paths given as arguments, and report
every artifact directory with its size. The result is cached for "fastclean clean".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format == "" {
				format = env.manager.Settings().ReportFormat
			}
			reportFormat, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			if len(args) == 0 && len(env.app.GetConfig().ScanPaths) == 0 {
				return fmt.Errorf("no scan paths: pass paths or run \"fastclean paths add <dir>\"")
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			done := make(chan struct{})
			printed := make(chan struct{})
			go func() {
				defer close(printed)
				if !quiet {
					printScanProgress(cmd.ErrOrStderr(), env.app.ScanProgress(), done)
				}
			}()
			result, scanErr := env.app.StartScan(ctx, args)
			close(done)
			<-printed
			if !quiet {
				fmt.Fprint(cmd.ErrOrStderr(), "\r\033[K")
			}

			if result == nil {
				return scanErr
			}
			if scanErr != nil && !errors.Is(scanErr, services.ErrScanCanceled) && !errors.Is(scanErr, services.ErrNoReadableRoots) {
				return scanErr
			}

			generator := report.NewGenerator(env.logger)
			if outputFile != "" {
				path, err := generator.Generate(result, reportFormat, outputFile)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Report saved to %s\n", path)
			} else if err := generator.Write(cmd.OutOrStdout(), result, reportFormat); err != nil {
				return err
			}
			return scanErr
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "Report format: text, json, yaml, markdown")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write the report to a file")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not print progress")
	return cmd
}

func printScanProgress(w io.Writer, progress <-chan domain.ScanProgress, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case update := <-progress:
			if !update.IsScanning {
				continue
			}
			fmt.Fprintf(w, "\r\033[K  Scanning: %d dirs, %d items, %s",
				update.ScannedCount, update.ItemsFound, domain.FormatSize(update.TotalSize))
		}
	}
}

// signalContext is shared by long running commands.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
