package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xiaoquanidea/fast-clean-x/internal/config"
	"github.com/xiaoquanidea/fast-clean-x/internal/domain"
	"github.com/xiaoquanidea/fast-clean-x/internal/services"
)

type fixture struct {
	app        *App
	root       string
	configPath string
	store      *services.ResultStore
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "web", "package.json"), 10)
	writeFile(t, filepath.Join(root, "web", "node_modules", "left-pad", "index.js"), 2048)
	writeFile(t, filepath.Join(root, "web", "src", "index.js"), 100)

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	manager := config.NewManager(nil, configPath, zap.NewNop())
	require.NoError(t, manager.Load())
	require.NoError(t, manager.AddScanPath(root))

	store := services.NewResultStore(filepath.Join(t.TempDir(), "last-scan.json"))
	return fixture{
		app:        New(manager, store, zap.NewNop()),
		root:       root,
		configPath: configPath,
		store:      store,
	}
}

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
}

func TestStartScanCachesResultAndRecordsTime(t *testing.T) {
	f := newFixture(t)

	result, err := f.app.StartScan(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, filepath.Join(f.root, "web", "node_modules"), result.Items[0].Path)
	assert.Equal(t, "Node.js", result.Items[0].Type)

	cached, err := f.app.LastResult()
	require.NoError(t, err)
	assert.Equal(t, result.ID, cached.ID)
	assert.False(t, f.app.GetConfig().LastScanTime.IsZero())
}

func TestStartScanWithExplicitPathsDoesNotPersistThem(t *testing.T) {
	f := newFixture(t)
	other := t.TempDir()

	result, err := f.app.StartScan(context.Background(), []string{other})
	require.NoError(t, err)
	assert.Empty(t, result.Items)
	assert.Equal(t, []string{f.root}, f.app.GetConfig().ScanPaths)
}

func TestStartScanCanceled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := f.app.StartScan(ctx, nil)
	require.ErrorIs(t, err, services.ErrScanCanceled)
	require.NotNil(t, result)
	assert.True(t, result.Canceled)

	_, err = f.app.LastResult()
	assert.ErrorIs(t, err, services.ErrNoCachedResult)
}

func TestCleanRequiresConfirmation(t *testing.T) {
	f := newFixture(t)
	result, err := f.app.StartScan(context.Background(), nil)
	require.NoError(t, err)

	items := result.Items
	items[0].Selected = true
	_, err = f.app.StartClean(context.Background(), items, domain.CleanDelete, false)
	require.ErrorIs(t, err, services.ErrConfirmationRequired)
	assert.DirExists(t, items[0].Path)

	cleaned, err := f.app.StartClean(context.Background(), items, domain.CleanDelete, true)
	require.NoError(t, err)
	assert.Equal(t, 1, cleaned.CleanedCount)
	assert.NoDirExists(t, items[0].Path)
	assert.FileExists(t, filepath.Join(f.root, "web", "src", "index.js"))
}

func TestPreviewCleanBlocksScanRoot(t *testing.T) {
	f := newFixture(t)
	items := []domain.ScanItem{
		{Path: f.root, Selected: true, Size: 1},
		{Path: filepath.Join(f.root, "web", "node_modules"), Selected: true, Size: 2048, FileCount: 1},
	}
	preview, err := f.app.PreviewClean(context.Background(), items, domain.CleanDelete)
	require.NoError(t, err)
	assert.Equal(t, 1, preview.Items)
	assert.Equal(t, []string{f.root}, preview.Blocked)
}

func TestCleanRequestUsesSettings(t *testing.T) {
	f := newFixture(t)
	request := f.app.CleanRequest(nil, "", true)
	assert.Equal(t, domain.CleanDelete, request.Mode)
	assert.Equal(t, []string{f.root}, request.ProtectedRoots)
	assert.Equal(t, f.app.Settings().TrashDir, request.TrashDir)
	assert.Empty(t, request.ConfirmToken)
}

func TestScanRequestSnapshot(t *testing.T) {
	f := newFixture(t)
	request := f.app.ScanRequest()
	request.Config.ScanPaths[0] = "/mutated"
	assert.Equal(t, []string{f.root}, f.app.GetConfig().ScanPaths)
	assert.Equal(t, f.app.Settings().Workers, request.Workers)
}

func TestConfigMutatorsPassThrough(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.app.AddIgnorePattern("*.tmp"))
	require.NoError(t, f.app.UpdateScanRule("Python", false))
	assert.Contains(t, f.app.GetConfig().IgnorePatterns, "*.tmp")

	reloaded := config.NewManager(nil, f.configPath, zap.NewNop())
	require.NoError(t, reloaded.Load())
	for _, rule := range reloaded.Snapshot().ScanRules {
		if rule.Name == "Python" {
			assert.False(t, rule.Enabled)
		}
	}

	require.NoError(t, f.app.RemoveIgnorePattern("*.tmp"))
	require.NoError(t, f.app.RemoveScanPath(f.root))
	assert.Empty(t, f.app.GetConfig().ScanPaths)
}

func TestCancelWithoutRunningIsNoop(t *testing.T) {
	f := newFixture(t)
	f.app.CancelScan()
	f.app.CancelClean()
}
