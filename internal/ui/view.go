package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/xiaoquanidea/fast-clean-x/internal/domain"
)

type uiStyles struct {
	headerStyle   lipgloss.Style
	mutedStyle    lipgloss.Style
	statusStyle   lipgloss.Style
	warnStyle     lipgloss.Style
	selectedStyle lipgloss.Style
	panelBorder   lipgloss.Style
}

func stylesFor(theme string) uiStyles {
	if strings.ToLower(theme) == "light" {
		return uiStyles{
			headerStyle:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("235")),
			mutedStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("242")),
			statusStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("25")).Bold(true),
			warnStyle:     lipgloss.NewStyle().Foreground(lipgloss.Color("124")).Bold(true),
			selectedStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("28")).Bold(true),
			panelBorder:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
		}
	}
	return uiStyles{
		headerStyle:   lipgloss.NewStyle().Bold(true),
		mutedStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		statusStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("69")).Bold(true),
		warnStyle:     lipgloss.NewStyle().Foreground(lipgloss.Color("204")).Bold(true),
		selectedStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		panelBorder:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
	}
}

const (
	markWidth     = 3
	typeWidth     = 12
	sizeWidth     = 10
	filesWidth    = 8
	modifiedWidth = 14
	projectWidth  = 16
)

func newTable() table.Model {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	return table.New(
		table.WithColumns(tableColumns(100)),
		table.WithFocused(true),
		table.WithStyles(styles),
	)
}

func tableColumns(width int) []table.Column {
	fixed := markWidth + typeWidth + sizeWidth + filesWidth + modifiedWidth + projectWidth + 14
	return []table.Column{
		{Title: "", Width: markWidth},
		{Title: "Type", Width: typeWidth},
		{Title: "Size", Width: sizeWidth},
		{Title: "Files", Width: filesWidth},
		{Title: "Modified", Width: modifiedWidth},
		{Title: "Project", Width: projectWidth},
		{Title: "Path", Width: maxInt(width-fixed, 20)},
	}
}

// refreshTable rebuilds rows from state and syncs the table cursor.
func (model *Model) refreshTable() {
	visible := model.state.VisibleItems()
	rows := make([]table.Row, 0, len(visible))
	for _, item := range visible {
		mark := "[ ]"
		if item.Selected {
			mark = "[x]"
		}
		rows = append(rows, table.Row{
			mark,
			item.Type,
			domain.FormatSize(item.Size),
			fmt.Sprintf("%d", item.FileCount),
			domain.FormatAge(item.LastModified),
			item.ProjectName,
			item.Path,
		})
	}
	model.table.SetColumns(tableColumns(model.width))
	model.table.SetRows(rows)
	model.table.SetWidth(maxInt(model.width-4, 40))
	model.table.SetHeight(maxInt(model.height-9, 3))
	if len(rows) > 0 {
		model.table.SetCursor(model.state.Cursor)
	}
}

func (model Model) View() string {
	styles := stylesFor(model.state.Prefs.Theme)
	if model.showHelp {
		return renderHelpView(model, styles)
	}
	sections := []string{
		renderHeader(model, styles),
		renderBody(model, styles),
		renderFooter(model, styles),
	}
	return strings.Join(sections, "\n")
}

func renderHeader(model Model, styles uiStyles) string {
	status := "IDLE"
	switch {
	case model.scanning:
		status = model.spinner.View() + " SCANNING"
	case model.cleaning:
		status = fmt.Sprintf("%s CLEANING %d%%", model.spinner.View(), model.cleanPercent)
	}
	paths := strings.Join(model.state.ScanPaths, ", ")
	if paths == "" {
		paths = "no scan yet"
	}
	size, files := model.state.Totals()
	summary := fmt.Sprintf("%d items  %s  %d files", len(model.state.Items), domain.FormatSize(size), files)
	if len(model.state.Skipped) > 0 {
		summary += styles.warnStyle.Render(fmt.Sprintf("  %d skipped", len(model.state.Skipped)))
	}
	if model.state.Canceled {
		summary += styles.warnStyle.Render("  partial")
	}
	left := styles.headerStyle.Render("Fast Clean X") + "  " + styles.mutedStyle.Render(paths)
	return padLine(left, styles.statusStyle.Render(status), model.width) + "\n" + styles.mutedStyle.Render(summary)
}

func renderBody(model Model, styles uiStyles) string {
	if model.confirming {
		return renderPreviewPanel(model, styles)
	}
	if len(model.state.Items) == 0 {
		message := "Nothing found - press s to scan"
		if model.scanning {
			message = fmt.Sprintf("Scanning... %d dirs visited, %d items found",
				model.lastProgress.ScannedCount, model.lastProgress.ItemsFound)
		} else if model.state.HasResult() {
			message = "✓ Nothing to clean"
		}
		return styles.panelBorder.Width(maxInt(model.width-4, 20)).Render(message)
	}
	return styles.panelBorder.Render(model.table.View())
}

func renderPreviewPanel(model Model, styles uiStyles) string {
	preview := model.pending
	lines := []string{
		styles.headerStyle.Render("Clean Preview"),
		fmt.Sprintf("Mode : %s", strings.ToUpper(string(preview.Mode))),
		fmt.Sprintf("Items: %d", preview.Items),
		fmt.Sprintf("Files: %d", preview.TotalFiles),
		fmt.Sprintf("Size : %s", domain.FormatSize(preview.TotalBytes)),
	}
	if model.state.Prefs.SafeMode {
		lines = append(lines, "Safe mode: on")
	}
	if len(preview.Samples) > 0 {
		lines = append(lines, "", styles.headerStyle.Render("Samples"))
		lines = append(lines, preview.Samples...)
	}
	if len(preview.Warnings) > 0 {
		lines = append(lines, "", styles.warnStyle.Render("Warnings"))
		lines = append(lines, preview.Warnings...)
	}
	lines = append(lines, "", styles.statusStyle.Render("Press y to confirm, n to cancel"))
	return styles.panelBorder.Width(maxInt(model.width-4, 20)).Render(strings.Join(lines, "\n"))
}

func renderFooter(model Model, styles uiStyles) string {
	statusStyle := styles.mutedStyle
	lower := strings.ToLower(model.status)
	if strings.Contains(lower, "error") || strings.Contains(lower, "warning") {
		statusStyle = styles.warnStyle
	}
	statusLine := statusStyle.Render(trimStatus(model.status, model.width))

	selectedCount, selectedSize := model.state.SelectionSummary()
	selectionInfo := styles.selectedStyle.Render(fmt.Sprintf("Selected: %d (%s)", selectedCount, domain.FormatSize(selectedSize)))
	info := fmt.Sprintf("%s  Sort: %s  Mode: %s", selectionInfo,
		strings.ToUpper(string(model.state.Prefs.SortMode)), model.state.Prefs.CleanMode)
	if model.state.FilterType != "" {
		info += fmt.Sprintf("  Type: %s", model.state.FilterType)
	}
	if !model.state.Prefs.SafeMode {
		info += styles.warnStyle.Render("  SAFE MODE OFF")
	}
	keys := "space select  a all  t type  d clean  o sort  f filter  s scan  c cancel  ? help  q quit"
	if model.confirming {
		keys = "y confirm  n cancel"
	}
	return strings.Join([]string{statusLine, padLine(info, styles.mutedStyle.Render(keys), model.width)}, "\n")
}

func renderHelpView(model Model, styles uiStyles) string {
	lines := []string{styles.headerStyle.Render("Fast Clean X Help"), ""}
	lines = append(lines, styles.headerStyle.Render("Selection"))
	lines = append(lines, "space toggle item", "a select all visible", "t select all of current type", "x clear selection")
	lines = append(lines, "", styles.headerStyle.Render("Actions"))
	lines = append(lines, "s scan configured paths", "c cancel running scan or clean", "d clean selection", "m switch delete/trash", "S toggle safe mode")
	lines = append(lines, "", styles.headerStyle.Render("Safety"))
	lines = append(lines, "confirm with y", "cancel with n or esc", "safe mode blocks /, $HOME, system dirs and scan roots")
	lines = append(lines, "", styles.headerStyle.Render("Keys"))
	for _, binding := range model.keys.bindings() {
		keysLabel := strings.Join(binding.Keys(), ", ")
		lines = append(lines, fmt.Sprintf("%-18s %s", keysLabel, binding.Help().Desc))
	}
	lines = append(lines, "", "Press ? to close help")
	width := model.width
	if width <= 0 {
		width = 80
	}
	return styles.panelBorder.Width(maxInt(width-2, 10)).Render(strings.Join(lines, "\n"))
}

func padLine(left, right string, width int) string {
	if width <= 0 {
		return left
	}
	space := width - lipgloss.Width(left) - lipgloss.Width(right)
	if space < 1 {
		return left + " " + right
	}
	return left + strings.Repeat(" ", space) + right
}

func trimStatus(message string, width int) string {
	if width <= 0 {
		return message
	}
	max := width - 4
	if max <= 0 || len(message) <= max {
		return message
	}
	return message[:max] + "..."
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
