package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/xiaoquanidea/fast-clean-x/internal/config"
	"github.com/xiaoquanidea/fast-clean-x/internal/domain"
	"github.com/xiaoquanidea/fast-clean-x/internal/services"
	"github.com/xiaoquanidea/fast-clean-x/internal/state"
	"github.com/xiaoquanidea/fast-clean-x/internal/ui"
)

var (
	ErrScanInProgress  = errors.New("scan already in progress")
	ErrCleanInProgress = errors.New("clean already in progress")
)

// App ties the config store, scan engine, cleaner and result cache together
// for the command line and the terminal UI.
type App struct {
	mu          sync.Mutex
	manager     *config.Manager
	scanner     *services.FSScanner
	cleaner     *services.FSCleaner
	store       *services.ResultStore
	logger      *zap.Logger
	scanCancel  context.CancelFunc
	cleanCancel context.CancelFunc
}

func New(manager *config.Manager, store *services.ResultStore, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{
		manager: manager,
		scanner: services.NewFSScanner(logger),
		cleaner: services.NewFSCleaner(logger),
		store:   store,
		logger:  logger,
	}
}

func (application *App) GetConfig() domain.Config {
	return application.manager.Snapshot()
}

func (application *App) Settings() config.Settings {
	return application.manager.Settings()
}

func (application *App) UpdateConfig(cfg domain.Config) error {
	return application.manager.Update(cfg)
}

func (application *App) AddScanPath(path string) error {
	return application.manager.AddScanPath(path)
}

func (application *App) RemoveScanPath(path string) error {
	return application.manager.RemoveScanPath(path)
}

func (application *App) AddIgnorePattern(pattern string) error {
	return application.manager.AddIgnorePattern(pattern)
}

func (application *App) RemoveIgnorePattern(pattern string) error {
	return application.manager.RemoveIgnorePattern(pattern)
}

func (application *App) UpdateScanRule(ruleName string, enabled bool) error {
	return application.manager.UpdateScanRule(ruleName, enabled)
}

// ScanRequest snapshots the current config and settings.
func (application *App) ScanRequest() services.ScanRequest {
	settings := application.manager.Settings()
	return services.ScanRequest{
		Config:          application.manager.Snapshot(),
		Workers:         settings.Workers,
		IncludeHidden:   settings.IncludeHidden,
		SkipSystemDirs:  settings.SkipSystemDirs,
		MarkerCacheSize: settings.MarkerCacheSize,
	}
}

// CleanRequest protects the configured scan roots in addition to the
// built-in critical paths.
func (application *App) CleanRequest(items []domain.ScanItem, mode domain.CleanMode, safeMode bool) services.CleanRequest {
	settings := application.manager.Settings()
	if mode == "" {
		mode, _ = domain.ParseCleanMode(settings.CleanMode)
	}
	return services.CleanRequest{
		Items:          items,
		Mode:           mode,
		TrashDir:       settings.TrashDir,
		SafeMode:       safeMode,
		ProtectedRoots: application.manager.Snapshot().ScanPaths,
	}
}

// ScanFinished caches the result and records the scan time. Canceled
// partial results are not cached.
func (application *App) ScanFinished(result *domain.ScanResult) {
	if result == nil || result.Canceled {
		return
	}
	if application.store != nil {
		if err := application.store.Save(result); err != nil {
			application.logger.Warn("Failed to cache scan result", zap.Error(err))
		}
	}
	if err := application.manager.SetLastScanTime(result.ScanTime); err != nil {
		application.logger.Warn("Failed to record scan time", zap.Error(err))
	}
}

// StartScan runs a scan over the configured paths, or over paths when given.
// It blocks until the scan finishes or CancelScan is called.
func (application *App) StartScan(ctx context.Context, paths []string) (*domain.ScanResult, error) {
	application.mu.Lock()
	if application.scanCancel != nil {
		application.mu.Unlock()
		return nil, ErrScanInProgress
	}
	scanCtx, cancel := context.WithCancel(ctx)
	application.scanCancel = cancel
	application.mu.Unlock()

	defer func() {
		application.mu.Lock()
		application.scanCancel = nil
		application.mu.Unlock()
		cancel()
	}()

	request := application.ScanRequest()
	if len(paths) > 0 {
		request.Config.ScanPaths = append([]string{}, paths...)
	}
	result, err := application.scanner.Scan(scanCtx, request)
	if err == nil {
		application.ScanFinished(result)
	}
	return result, err
}

func (application *App) CancelScan() {
	application.mu.Lock()
	defer application.mu.Unlock()
	if application.scanCancel != nil {
		application.scanCancel()
	}
}

func (application *App) ScanProgress() <-chan domain.ScanProgress {
	return application.scanner.Progress()
}

func (application *App) PreviewClean(ctx context.Context, items []domain.ScanItem, mode domain.CleanMode) (services.CleanPreview, error) {
	request := application.CleanRequest(items, mode, application.manager.Settings().SafeMode)
	return application.cleaner.Preview(ctx, request)
}

// StartClean cleans the selected items. confirmed stands in for the
// interactive confirmation; without it nothing is touched.
func (application *App) StartClean(ctx context.Context, items []domain.ScanItem, mode domain.CleanMode, confirmed bool) (services.CleanResult, error) {
	application.mu.Lock()
	if application.cleanCancel != nil {
		application.mu.Unlock()
		return services.CleanResult{}, ErrCleanInProgress
	}
	cleanCtx, cancel := context.WithCancel(ctx)
	application.cleanCancel = cancel
	application.mu.Unlock()

	defer func() {
		application.mu.Lock()
		application.cleanCancel = nil
		application.mu.Unlock()
		cancel()
	}()

	request := application.CleanRequest(items, mode, application.manager.Settings().SafeMode)
	if confirmed {
		request.ConfirmToken = services.ConfirmToken
	}
	return application.cleaner.Clean(cleanCtx, request)
}

func (application *App) CancelClean() {
	application.mu.Lock()
	defer application.mu.Unlock()
	if application.cleanCancel != nil {
		application.cleanCancel()
	}
}

func (application *App) CleanProgress() <-chan domain.CleanProgress {
	return application.cleaner.CleanProgress()
}

// LastResult returns the cached result of the last completed scan.
func (application *App) LastResult() (*domain.ScanResult, error) {
	if application.store == nil {
		return nil, services.ErrNoCachedResult
	}
	return application.store.Load()
}

// RunTUI starts the interactive front end, seeded with the cached result.
func (application *App) RunTUI() error {
	appState := state.NewState(application.manager.Settings())
	model := ui.NewModel(appState, application, application.scanner, application.cleaner)
	if cached, err := application.LastResult(); err == nil {
		appState.SetResult(cached)
		model = ui.NewModel(appState, application, application.scanner, application.cleaner).
			WithStatus(fmt.Sprintf("Loaded last scan from %s - press s to rescan", cached.ScanTime.Format("2006-01-02 15:04")))
	}

	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("terminal ui: %w", err)
	}
	return nil
}
