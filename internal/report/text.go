package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/xiaoquanidea/fast-clean-x/internal/domain"
)

func (g *Generator) writeText(w io.Writer, result *domain.ScanResult) error {
	renderer := lipgloss.NewRenderer(w)
	title := renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("208"))
	label := renderer.NewStyle().Foreground(lipgloss.Color("245"))
	good := renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	warn := renderer.NewStyle().Foreground(lipgloss.Color("214"))
	rule := label.Render(strings.Repeat("─", 63))

	var sb strings.Builder
	sb.WriteString("\n")
	heading := "SCAN COMPLETE"
	if result.Canceled {
		heading = "SCAN CANCELED (partial result)"
	}
	sb.WriteString(title.Render(heading) + "\n\n")

	sb.WriteString(fmt.Sprintf("  %s     %s\n", label.Render("Paths:"), strings.Join(result.ScanPaths, ", ")))
	sb.WriteString(fmt.Sprintf("  %s   %s\n", label.Render("Started:"), result.ScanTime.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("  %s  %s\n", label.Render("Duration:"), FormatDuration(result.Duration)))
	sb.WriteString(fmt.Sprintf("  %s     %d (%d files)\n", label.Render("Items:"), len(result.Items), result.TotalCount))
	sb.WriteString(fmt.Sprintf("  %s     %s\n", label.Render("Total:"), domain.FormatSize(result.TotalSize)))
	if result.SkippedCount > 0 {
		sb.WriteString(fmt.Sprintf("  %s   %s\n", label.Render("Skipped:"), warn.Render(fmt.Sprintf("%d", result.SkippedCount))))
	}
	sb.WriteString("\n")

	if len(result.Items) == 0 {
		sb.WriteString("  " + good.Render("✓ Nothing to clean") + "\n\n")
		_, err := io.WriteString(w, sb.String())
		return err
	}

	sb.WriteString(rule + "\n")
	for _, summary := range summarizeByType(result.Items) {
		sb.WriteString(fmt.Sprintf("  %-16s %4d items  %12s\n", summary.Type, summary.Count, domain.FormatSize(summary.Size)))
	}
	sb.WriteString(rule + "\n\n")

	for index, item := range result.Items {
		marker := " "
		if item.Selected {
			marker = "x"
		}
		sb.WriteString(fmt.Sprintf("  [%s] %3d. %-10s %12s  %s\n", marker, index+1, item.Type, item.SizeReadable, item.Path))
		sb.WriteString(fmt.Sprintf("             %s %s  %s %d  %s %s\n",
			label.Render("project"), item.ProjectName,
			label.Render("files"), item.FileCount,
			label.Render("modified"), domain.FormatAge(item.LastModified)))
	}

	if len(result.Skipped) > 0 {
		sb.WriteString("\n" + warn.Render("SKIPPED") + "\n")
		for _, skipped := range result.Skipped {
			sb.WriteString(fmt.Sprintf("  %-22s %s\n", skipped.Reason, skipped.Path))
		}
	}
	sb.WriteString("\n")

	_, err := io.WriteString(w, sb.String())
	return err
}
