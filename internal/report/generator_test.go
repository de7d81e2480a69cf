package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/xiaoquanidea/fast-clean-x/internal/domain"
)

func sampleResult() *domain.ScanResult {
	return &domain.ScanResult{
		ID:        "abc",
		ScanPaths: []string{"/proj"},
		Items: []domain.ScanItem{
			{Path: "/proj/a/node_modules", ProjectName: "a", Type: "Node.js", Size: 100, SizeReadable: "100 B", FileCount: 2},
			{Path: "/proj/b/target", ProjectName: "b", Type: "Rust", Size: 4096, SizeReadable: "4.0 KiB", FileCount: 1},
			{Path: "/proj/c/node_modules", ProjectName: "c", Type: "Node.js", Size: 50, SizeReadable: "50 B", FileCount: 1},
		},
		TotalSize:    4246,
		TotalCount:   4,
		ScanTime:     time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		Duration:     1500 * time.Millisecond,
		SkippedCount: 1,
		Skipped:      []domain.SkippedPath{{Path: "/proj/locked", Reason: domain.SkipSubtreeInaccessible}},
	}
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "250.00ms", FormatDuration(250*time.Millisecond))
	assert.Equal(t, "1.50s", FormatDuration(1500*time.Millisecond))
	assert.Equal(t, "2m5.00s", FormatDuration(2*time.Minute+5*time.Second))
	assert.Equal(t, "1h1m1.00s", FormatDuration(time.Hour+time.Minute+time.Second))
}

func TestParseFormat(t *testing.T) {
	for input, expected := range map[string]Format{
		"":     FormatText,
		"txt":  FormatText,
		"json": FormatJSON,
		"yml":  FormatYAML,
		"md":   FormatMarkdown,
	} {
		format, err := ParseFormat(input)
		require.NoError(t, err)
		assert.Equal(t, expected, format)
	}
	_, err := ParseFormat("pdf")
	assert.Error(t, err)
}

func TestSummarizeByTypeLargestFirst(t *testing.T) {
	summaries := summarizeByType(sampleResult().Items)
	require.Len(t, summaries, 2)
	assert.Equal(t, "Rust", summaries[0].Type)
	assert.Equal(t, typeSummary{Type: "Node.js", Count: 2, Size: 150}, summaries[1])
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewGenerator(nil).Write(&buf, sampleResult(), FormatText))
	out := buf.String()
	assert.Contains(t, out, "SCAN COMPLETE")
	assert.Contains(t, out, "/proj/b/target")
	assert.Contains(t, out, "subtree-inaccessible")
	assert.Contains(t, out, "1.50s")
}

func TestWriteTextEmpty(t *testing.T) {
	var buf bytes.Buffer
	result := &domain.ScanResult{ScanPaths: []string{"/empty"}, Canceled: true}
	require.NoError(t, NewGenerator(nil).Write(&buf, result, FormatText))
	assert.Contains(t, buf.String(), "SCAN CANCELED")
	assert.Contains(t, buf.String(), "Nothing to clean")
}

func TestWriteJSONRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewGenerator(nil).Write(&buf, sampleResult(), FormatJSON))

	var decoded domain.ScanResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Len(t, decoded.Items, 3)
	assert.True(t, decoded.Consistent())
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewGenerator(nil).Write(&buf, sampleResult(), FormatYAML))

	var decoded map[string]interface{}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "abc", decoded["id"])
	assert.Len(t, decoded["items"], 3)
}

func TestWriteMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewGenerator(nil).Write(&buf, sampleResult(), FormatMarkdown))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "# Fast Clean X Scan Report"))
	assert.Contains(t, out, "| Node.js | 2 | 150 B |")
	assert.Contains(t, out, "`/proj/locked` (subtree-inaccessible)")
}

func TestWriteRejectsUnknownFormat(t *testing.T) {
	assert.Error(t, NewGenerator(nil).Write(&bytes.Buffer{}, sampleResult(), Format("pdf")))
	assert.Error(t, NewGenerator(nil).Write(&bytes.Buffer{}, nil, FormatText))
}

func TestGenerateToFile(t *testing.T) {
	output := filepath.Join(t.TempDir(), "report.md")
	path, err := NewGenerator(nil).Generate(sampleResult(), FormatMarkdown, output)
	require.NoError(t, err)
	assert.Equal(t, output, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "## Items")
}
