package ui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/xiaoquanidea/fast-clean-x/internal/domain"
	"github.com/xiaoquanidea/fast-clean-x/internal/report"
	"github.com/xiaoquanidea/fast-clean-x/internal/services"
	"github.com/xiaoquanidea/fast-clean-x/internal/state"
)

// Backend supplies request snapshots and receives finished scans.
type Backend interface {
	ScanRequest() services.ScanRequest
	CleanRequest(items []domain.ScanItem, mode domain.CleanMode, safeMode bool) services.CleanRequest
	ScanFinished(result *domain.ScanResult)
}

type Model struct {
	state         *state.State
	backend       Backend
	scanner       services.Scanner
	cleaner       services.Cleaner
	progress      services.ProgressProvider
	previewer     services.CleanPreviewer
	cleanProgress services.CleanProgressProvider
	keys          KeyMap
	table         table.Model
	spinner       spinner.Model
	showHelp      bool
	status        string
	scanning      bool
	cleaning      bool
	cancel        context.CancelFunc
	width         int
	height        int
	lastProgress  domain.ScanProgress
	confirming    bool
	pending       services.CleanPreview
	cleanPercent  int
}

func NewModel(appState *state.State, backend Backend, scanner services.Scanner, cleaner services.Cleaner) Model {
	model := Model{
		state:         appState,
		backend:       backend,
		scanner:       scanner,
		cleaner:       cleaner,
		progress:      progressProvider(scanner),
		previewer:     cleanPreviewer(cleaner),
		cleanProgress: cleanProgressProvider(cleaner),
		keys:          DefaultKeyMap(),
		table:         newTable(),
		spinner:       spinner.New(spinner.WithSpinner(spinner.Dot)),
		status:        "Ready - press s to scan",
		width:         100,
		height:        30,
	}
	model.refreshTable()
	return model
}

func (model Model) WithStatus(message string) Model {
	if message != "" {
		model.status = message
	}
	return model
}

// Scanning reports whether a scan is in flight.
func (model Model) Scanning() bool {
	return model.scanning
}

func (model Model) Init() tea.Cmd {
	return nil
}

func (model Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		return model.handleKey(typed)
	case tea.WindowSizeMsg:
		model.width = typed.Width
		model.height = typed.Height
		model.refreshTable()
		return model, nil
	case spinner.TickMsg:
		if !model.scanning && !model.cleaning {
			return model, nil
		}
		var cmd tea.Cmd
		model.spinner, cmd = model.spinner.Update(typed)
		return model, cmd
	case scanResultMsg:
		return model.finishScan(typed)
	case scanProgressMsg:
		if !model.scanning {
			return model, nil
		}
		model.lastProgress = typed.progress
		if typed.progress.ErrMessage != "" {
			model.status = fmt.Sprintf("Scan warning: %s", typed.progress.ErrMessage)
		} else if typed.progress.IsScanning {
			model.status = fmt.Sprintf("Scanning... %d dirs, %d items (%s)",
				typed.progress.ScannedCount, typed.progress.ItemsFound, domain.FormatSize(typed.progress.TotalSize))
		}
		if !typed.progress.IsScanning {
			return model, nil
		}
		return model, model.progressCmd()
	case cleanPreviewMsg:
		if typed.err != nil {
			model.status = fmt.Sprintf("Preview error: %v", typed.err)
			model.confirming = false
			return model, nil
		}
		model.pending = typed.preview
		model.confirming = true
		model.status = previewPrompt(typed.preview)
		return model, nil
	case cleanProgressMsg:
		if !model.cleaning {
			return model, nil
		}
		model.cleanPercent = typed.progress.Progress
		if typed.progress.CurrentPath != "" {
			model.status = fmt.Sprintf("Cleaning %d/%d %s", typed.progress.CleanedCount, typed.progress.TotalCount, typed.progress.CurrentPath)
		}
		if !typed.progress.IsCleaning {
			return model, nil
		}
		return model, model.cleanProgressCmd()
	case cleanResultMsg:
		return model.finishClean(typed)
	default:
		return model, nil
	}
}

func (model Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, model.keys.Quit):
		model = model.cancelRunning("")
		return model, tea.Quit
	case key.Matches(msg, model.keys.Help):
		model.showHelp = !model.showHelp
		return model, nil
	case model.confirming && key.Matches(msg, model.keys.Confirm):
		return model.confirmClean()
	case model.confirming && key.Matches(msg, model.keys.Cancel):
		model.confirming = false
		model.status = "Clean cancelled"
		return model, nil
	case model.confirming:
		return model, nil
	case key.Matches(msg, model.keys.Up):
		model.state.MoveCursor(-1)
		model.refreshTable()
		return model, nil
	case key.Matches(msg, model.keys.Down):
		model.state.MoveCursor(1)
		model.refreshTable()
		return model, nil
	case key.Matches(msg, model.keys.Select):
		model.state.ToggleCurrent()
		model.refreshTable()
		return model, nil
	case key.Matches(msg, model.keys.SelectAll):
		model.state.SelectAll()
		model.refreshTable()
		return model, nil
	case key.Matches(msg, model.keys.SelectType):
		if item := model.state.CurrentItem(); item != nil {
			count := model.state.SelectType(item.Type)
			model.status = fmt.Sprintf("Selected %d %s items", count, item.Type)
		}
		model.refreshTable()
		return model, nil
	case key.Matches(msg, model.keys.ClearSelect):
		model.state.ClearSelection()
		model.status = "Selection cleared"
		model.refreshTable()
		return model, nil
	case key.Matches(msg, model.keys.Sort):
		model.state.ToggleSortMode()
		model.refreshTable()
		return model, nil
	case key.Matches(msg, model.keys.TypeFilter):
		filter := model.state.CycleTypeFilter()
		if filter == "" {
			model.status = "Showing all types"
		} else {
			model.status = fmt.Sprintf("Showing %s", filter)
		}
		model.refreshTable()
		return model, nil
	case key.Matches(msg, model.keys.CleanMode):
		mode := model.state.ToggleCleanMode()
		model.status = fmt.Sprintf("Clean mode: %s", mode)
		return model, nil
	case key.Matches(msg, model.keys.SafeMode):
		if model.state.ToggleSafeMode() {
			model.status = "Safe mode on"
		} else {
			model.status = "Safe mode off"
		}
		return model, nil
	case key.Matches(msg, model.keys.Stop):
		if !model.scanning && !model.cleaning {
			return model, nil
		}
		model = model.cancelRunning("Cancelling...")
		return model, nil
	case key.Matches(msg, model.keys.Scan):
		return model.beginScan()
	case key.Matches(msg, model.keys.Clean):
		return model.beginClean()
	default:
		return model, nil
	}
}

func (model Model) beginScan() (Model, tea.Cmd) {
	if model.scanning {
		model.status = "Scan already running"
		return model, nil
	}
	if model.cleaning {
		model.status = "Clean in progress"
		return model, nil
	}
	request := model.backend.ScanRequest()
	if len(request.Config.ScanPaths) == 0 {
		model.status = "No scan paths configured - add one with `fastclean paths add`"
		return model, nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	model.cancel = cancel
	model.scanning = true
	model.lastProgress = domain.ScanProgress{IsScanning: true}
	model.status = "Scanning..."
	return model, tea.Batch(model.scanCmd(ctx, request), model.progressCmd(), model.spinner.Tick)
}

func (model Model) scanCmd(ctx context.Context, request services.ScanRequest) tea.Cmd {
	return func() tea.Msg {
		result, err := model.scanner.Scan(ctx, request)
		return scanResultMsg{result: result, err: err}
	}
}

func (model Model) finishScan(msg scanResultMsg) (tea.Model, tea.Cmd) {
	model.scanning = false
	if model.cancel != nil {
		model.cancel()
		model.cancel = nil
	}
	if msg.result != nil && (msg.err == nil || msg.result.Canceled || errors.Is(msg.err, services.ErrNoReadableRoots)) {
		model.state.SetResult(msg.result)
		model.backend.ScanFinished(msg.result)
	}
	switch {
	case errors.Is(msg.err, services.ErrScanCanceled) || errors.Is(msg.err, context.Canceled):
		count := 0
		if msg.result != nil {
			count = len(msg.result.Items)
		}
		model.status = fmt.Sprintf("Scan cancelled (partial: %d items)", count)
	case msg.err != nil:
		model.status = fmt.Sprintf("Scan error: %v", msg.err)
	case msg.result == nil:
		model.status = "Scan returned no result"
	default:
		model.status = fmt.Sprintf("Scan complete: %d items, %s in %s",
			len(msg.result.Items), domain.FormatSize(msg.result.TotalSize), report.FormatDuration(msg.result.Duration))
	}
	model.refreshTable()
	return model, nil
}

func (model Model) beginClean() (Model, tea.Cmd) {
	if model.scanning || model.cleaning {
		model.status = "Busy - wait or press c"
		return model, nil
	}
	items := model.state.SelectedItems()
	if len(items) == 0 {
		model.status = "Nothing selected"
		return model, nil
	}
	request := model.backend.CleanRequest(items, model.state.Prefs.CleanMode, model.state.Prefs.SafeMode)
	if model.previewer == nil {
		count, size := model.state.SelectionSummary()
		model.pending = services.CleanPreview{Mode: request.Mode, Items: count, TotalBytes: size}
		model.confirming = true
		model.status = previewPrompt(model.pending)
		return model, nil
	}
	previewer := model.previewer
	return model, func() tea.Msg {
		preview, err := previewer.Preview(context.Background(), request)
		return cleanPreviewMsg{preview: preview, err: err}
	}
}

func (model Model) confirmClean() (Model, tea.Cmd) {
	model.confirming = false
	items := model.state.SelectedItems()
	if len(items) == 0 {
		model.status = "Nothing selected"
		return model, nil
	}
	request := model.backend.CleanRequest(items, model.state.Prefs.CleanMode, model.state.Prefs.SafeMode)
	request.ConfirmToken = services.ConfirmToken

	ctx, cancel := context.WithCancel(context.Background())
	model.cancel = cancel
	model.cleaning = true
	model.cleanPercent = 0
	model.status = fmt.Sprintf("Cleaning %d items (%s)", len(items), request.Mode)

	paths := make([]string, 0, len(items))
	for _, item := range items {
		paths = append(paths, item.Path)
	}
	cleaner := model.cleaner
	execute := func() tea.Msg {
		result, err := cleaner.Clean(ctx, request)
		return cleanResultMsg{result: result, paths: paths, err: err}
	}
	return model, tea.Batch(execute, model.cleanProgressCmd(), model.spinner.Tick)
}

func (model Model) finishClean(msg cleanResultMsg) (tea.Model, tea.Cmd) {
	model.cleaning = false
	if model.cancel != nil {
		model.cancel()
		model.cancel = nil
	}
	if msg.err != nil && !msg.result.Canceled {
		model.status = fmt.Sprintf("Clean error: %v", msg.err)
		return model, nil
	}
	if msg.result.Canceled {
		model.status = fmt.Sprintf("Clean cancelled after %d items - rescan to refresh", msg.result.CleanedCount)
		return model, nil
	}

	kept := make(map[string]bool, len(msg.result.FailedItems)+len(msg.result.Blocked))
	for _, path := range msg.result.FailedItems {
		kept[path] = true
	}
	for _, path := range msg.result.Blocked {
		kept[path] = true
	}
	cleaned := make([]string, 0, len(msg.paths))
	for _, path := range msg.paths {
		if !kept[path] {
			cleaned = append(cleaned, path)
		}
	}
	model.state.RemoveItems(cleaned)
	model.refreshTable()
	model.status = fmt.Sprintf("Cleaned %d items, freed %s (%d failed)",
		msg.result.CleanedCount, domain.FormatSize(msg.result.CleanedSize), msg.result.FailedCount)
	return model, nil
}

func (model Model) progressCmd() tea.Cmd {
	if model.progress == nil {
		return nil
	}
	channel := model.progress.Progress()
	if channel == nil {
		return nil
	}
	return func() tea.Msg {
		return scanProgressMsg{progress: <-channel}
	}
}

func (model Model) cleanProgressCmd() tea.Cmd {
	if model.cleanProgress == nil {
		return nil
	}
	channel := model.cleanProgress.CleanProgress()
	if channel == nil {
		return nil
	}
	return func() tea.Msg {
		return cleanProgressMsg{progress: <-channel}
	}
}

func (model Model) cancelRunning(message string) Model {
	if model.cancel != nil {
		model.cancel()
		model.cancel = nil
	}
	if message != "" {
		model.status = message
	}
	return model
}

func progressProvider(scanner services.Scanner) services.ProgressProvider {
	provider, _ := scanner.(services.ProgressProvider)
	return provider
}

func cleanPreviewer(cleaner services.Cleaner) services.CleanPreviewer {
	previewer, _ := cleaner.(services.CleanPreviewer)
	return previewer
}

func cleanProgressProvider(cleaner services.Cleaner) services.CleanProgressProvider {
	provider, _ := cleaner.(services.CleanProgressProvider)
	return provider
}

func previewPrompt(preview services.CleanPreview) string {
	summary := fmt.Sprintf("%s %d items, %s", preview.Mode, preview.Items, domain.FormatSize(preview.TotalBytes))
	if preview.TotalFiles > 0 {
		summary = fmt.Sprintf("%s, %d files", summary, preview.TotalFiles)
	}
	if len(preview.Blocked) > 0 {
		summary = fmt.Sprintf("%s (%d blocked)", summary, len(preview.Blocked))
	}
	return summary + " - confirm (y/n)"
}
