package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/xiaoquanidea/fast-clean-x/internal/domain"
)

type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
)

// ParseFormat accepts the usual short aliases.
func ParseFormat(value string) (Format, error) {
	switch value {
	case "", "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unknown report format: %s", value)
	}
}

func (format Format) extension() string {
	switch format {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	case FormatMarkdown:
		return "md"
	default:
		return "txt"
	}
}

// FormatDuration formats duration to a human-readable string with max 2 decimal places
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.2fms", float64(d.Nanoseconds())/1e6)
	} else if d < time.Minute {
		return fmt.Sprintf("%.2fs", d.Seconds())
	} else if d < time.Hour {
		mins := int(d.Minutes())
		secs := d.Seconds() - float64(mins*60)
		return fmt.Sprintf("%dm%.2fs", mins, secs)
	}
	hours := int(d.Hours())
	mins := int(d.Minutes()) - hours*60
	secs := d.Seconds() - float64(hours*3600) - float64(mins*60)
	return fmt.Sprintf("%dh%dm%.2fs", hours, mins, secs)
}

// Generator renders scan results in various formats
type Generator struct {
	logger *zap.Logger
}

func NewGenerator(logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{logger: logger}
}

func (g *Generator) Write(w io.Writer, result *domain.ScanResult, format Format) error {
	if result == nil {
		return fmt.Errorf("no scan result to report")
	}
	switch format {
	case FormatText, "":
		return g.writeText(w, result)
	case FormatJSON:
		return g.writeJSON(w, result)
	case FormatYAML:
		return g.writeYAML(w, result)
	case FormatMarkdown:
		return g.writeMarkdown(w, result)
	default:
		return fmt.Errorf("unknown report format: %s", format)
	}
}

// Generate writes the report to outputFile, or to a timestamped file in the
// working directory when outputFile is empty, and returns its absolute path.
func (g *Generator) Generate(result *domain.ScanResult, format Format, outputFile string) (string, error) {
	if outputFile == "" {
		timestamp := time.Now().Format("20060102-150405")
		outputFile = fmt.Sprintf("FASTCLEAN-REPORT-%s.%s", timestamp, format.extension())
	}

	g.logger.Info("Generating report",
		zap.String("format", string(format)),
		zap.String("output", outputFile))

	file, err := os.Create(outputFile)
	if err != nil {
		return "", err
	}
	if err := g.Write(file, result, format); err != nil {
		_ = file.Close()
		return "", fmt.Errorf("failed to generate %s report: %w", format, err)
	}
	if err := file.Close(); err != nil {
		return "", err
	}

	absPath, _ := filepath.Abs(outputFile)
	return absPath, nil
}

type typeSummary struct {
	Type  string
	Count int
	Size  int64
}

// summarizeByType groups items by rule, largest first.
func summarizeByType(items []domain.ScanItem) []typeSummary {
	byType := map[string]*typeSummary{}
	order := []string{}
	for _, item := range items {
		summary, ok := byType[item.Type]
		if !ok {
			summary = &typeSummary{Type: item.Type}
			byType[item.Type] = summary
			order = append(order, item.Type)
		}
		summary.Count++
		summary.Size += item.Size
	}
	out := make([]typeSummary, 0, len(order))
	for _, name := range order {
		out = append(out, *byType[name])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Size > out[j].Size
	})
	return out
}
