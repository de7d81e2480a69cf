package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/xiaoquanidea/fast-clean-x/internal/domain"
)

func (g *Generator) writeMarkdown(w io.Writer, result *domain.ScanResult) error {
	var sb strings.Builder

	sb.WriteString("# Fast Clean X Scan Report\n\n")

	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Parameter | Value |\n")
	sb.WriteString("|-----------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Scan Paths | `%s` |\n", strings.Join(result.ScanPaths, "`, `")))
	sb.WriteString(fmt.Sprintf("| Scan Time | %s |\n", result.ScanTime.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("| Duration | %s |\n", FormatDuration(result.Duration)))
	sb.WriteString(fmt.Sprintf("| Items | %d |\n", len(result.Items)))
	sb.WriteString(fmt.Sprintf("| Files | %d |\n", result.TotalCount))
	sb.WriteString(fmt.Sprintf("| **Reclaimable** | **%s** |\n", domain.FormatSize(result.TotalSize)))
	sb.WriteString(fmt.Sprintf("| Skipped Paths | %d |\n", result.SkippedCount))
	if result.Canceled {
		sb.WriteString("| Canceled | yes |\n")
	}
	sb.WriteString("\n")

	if len(result.Items) == 0 {
		sb.WriteString("> ✅ **Nothing to clean**\n")
		_, err := io.WriteString(w, sb.String())
		return err
	}

	sb.WriteString("## By Type\n\n")
	sb.WriteString("| Type | Items | Size |\n")
	sb.WriteString("|------|-------|------|\n")
	for _, summary := range summarizeByType(result.Items) {
		sb.WriteString(fmt.Sprintf("| %s | %d | %s |\n", summary.Type, summary.Count, domain.FormatSize(summary.Size)))
	}
	sb.WriteString("\n")

	sb.WriteString("## Items\n\n")
	sb.WriteString("| # | Type | Size | Files | Project | Path |\n")
	sb.WriteString("|---|------|------|-------|---------|------|\n")
	for index, item := range result.Items {
		sb.WriteString(fmt.Sprintf("| %d | %s | %s | %d | %s | `%s` |\n",
			index+1, item.Type, item.SizeReadable, item.FileCount, item.ProjectName, item.Path))
	}

	if len(result.Skipped) > 0 {
		sb.WriteString("\n## Skipped\n\n")
		for _, skipped := range result.Skipped {
			sb.WriteString(fmt.Sprintf("- `%s` (%s)\n", skipped.Path, skipped.Reason))
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
