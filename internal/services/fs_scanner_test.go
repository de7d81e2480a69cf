package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xiaoquanidea/fast-clean-x/internal/domain"
)

func nodeModulesRule(enabled bool) domain.ScanRule {
	return domain.ScanRule{Name: "node_modules", TargetDirs: []string{"node_modules"}, Enabled: enabled}
}

func scanConfig(roots []string, rules ...domain.ScanRule) domain.Config {
	return domain.Config{ScanPaths: roots, ScanRules: rules}
}

func TestScanFindsNodeModules(t *testing.T) {
	root := t.TempDir()
	for index := 0; index < 100; index++ {
		writeFile(t, root, fmt.Sprintf("app/node_modules/pkg%02d/index.js", index), 50000)
	}
	writeFile(t, root, "app/src/main.js", 999)

	scanner := NewFSScanner(zap.NewNop())
	result, err := scanner.Scan(context.Background(), ScanRequest{
		Config:         scanConfig([]string{root}, nodeModulesRule(true)),
		Workers:        4,
		SkipSystemDirs: true,
	})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)

	item := result.Items[0]
	assert.Equal(t, filepath.Join(root, "app", "node_modules"), item.Path)
	assert.Equal(t, "node_modules", item.Type)
	assert.Equal(t, int64(5000000), item.Size)
	assert.Equal(t, 100, item.FileCount)
	assert.Equal(t, "4.8 MiB", item.SizeReadable)
	assert.Equal(t, filepath.Join(root, "app"), item.ProjectPath)
	assert.Equal(t, "app", item.ProjectName)
	assert.False(t, item.Selected)

	assert.Equal(t, int64(5000000), result.TotalSize)
	assert.Equal(t, 100, result.TotalCount)
	assert.True(t, result.Consistent())
	assert.NotEmpty(t, result.ID)
	assert.Equal(t, []string{root}, result.ScanPaths)
	assert.False(t, result.Canceled)
}

func TestScanDisabledRuleFindsNothing(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app/node_modules/a.js", 10)

	result, err := NewFSScanner(nil).Scan(context.Background(), ScanRequest{
		Config: scanConfig([]string{root}, nodeModulesRule(false)),
	})
	require.NoError(t, err)
	assert.Empty(t, result.Items)
	assert.Zero(t, result.TotalSize)
}

func TestScanIgnorePatternPrunesBeforeClassification(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".git/node_modules/a.js", 10)

	config := scanConfig([]string{root}, nodeModulesRule(true))
	config.IgnorePatterns = []string{".git"}
	result, err := NewFSScanner(nil).Scan(context.Background(), ScanRequest{Config: config, IncludeHidden: true})
	require.NoError(t, err)
	assert.Empty(t, result.Items)

	config.IgnorePatterns = nil
	result, err = NewFSScanner(nil).Scan(context.Background(), ScanRequest{Config: config, IncludeHidden: true})
	require.NoError(t, err)
	assert.Len(t, result.Items, 1)
}

func TestScanPermissionDeniedRootIsSkipped(t *testing.T) {
	skipIfRoot(t)
	locked := t.TempDir()
	writeFile(t, locked, "node_modules/a.js", 10)
	lockDir(t, locked)

	open := t.TempDir()
	writeFile(t, open, "web/node_modules/b.js", 20)

	result, err := NewFSScanner(nil).Scan(context.Background(), ScanRequest{
		Config: scanConfig([]string{locked, open}, nodeModulesRule(true)),
	})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, filepath.Join(open, "web", "node_modules"), result.Items[0].Path)
	assert.Greater(t, result.SkippedCount, 0)
	assert.Equal(t, domain.SkipRootInaccessible, result.Skipped[0].Reason)
}

func TestScanNoReadableRoots(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")
	result, err := NewFSScanner(nil).Scan(context.Background(), ScanRequest{
		Config: scanConfig([]string{missing}, nodeModulesRule(true)),
	})
	assert.ErrorIs(t, err, ErrNoReadableRoots)
	require.NotNil(t, result)
	assert.Equal(t, 1, result.SkippedCount)
	assert.Equal(t, domain.SkipRootNotFound, result.Skipped[0].Reason)
}

func TestScanNoPaths(t *testing.T) {
	_, err := NewFSScanner(nil).Scan(context.Background(), ScanRequest{Config: scanConfig(nil, nodeModulesRule(true))})
	assert.ErrorIs(t, err, ErrNoScanPaths)
}

func TestScanDoesNotDoubleCountNestedArtifacts(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app/node_modules/a.js", 100)
	writeFile(t, root, "app/node_modules/dep/node_modules/b.js", 200)

	result, err := NewFSScanner(nil).Scan(context.Background(), ScanRequest{
		Config: scanConfig([]string{root, filepath.Join(root, "app")}, nodeModulesRule(true)),
	})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, int64(300), result.Items[0].Size)
	assert.Equal(t, 2, result.Items[0].FileCount)
	assert.Equal(t, []string{root}, result.ScanPaths)
	assert.True(t, result.Consistent())
}

func TestScanOrderIsDeterministic(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	for _, name := range []string{"c", "a", "b"} {
		writeFile(t, first, name+"/node_modules/x.js", 10)
		writeFile(t, second, name+"/node_modules/y.js", 20)
	}

	var expected []string
	for _, root := range []string{first, second} {
		for _, name := range []string{"a", "b", "c"} {
			expected = append(expected, filepath.Join(root, name, "node_modules"))
		}
	}

	for _, workers := range []int{1, 8} {
		result, err := NewFSScanner(nil).Scan(context.Background(), ScanRequest{
			Config:  scanConfig([]string{first, second}, nodeModulesRule(true)),
			Workers: workers,
		})
		require.NoError(t, err)
		var paths []string
		for _, item := range result.Items {
			paths = append(paths, item.Path)
		}
		assert.Equal(t, expected, paths, "workers=%d", workers)
		assert.Equal(t, int64(90), result.TotalSize)
	}
}

func TestScanCanceledReturnsPartialResult(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app/node_modules/a.js", 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := NewFSScanner(nil).Scan(ctx, ScanRequest{Config: scanConfig([]string{root}, nodeModulesRule(true))})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrScanCanceled))
	assert.True(t, errors.Is(err, context.Canceled))
	require.NotNil(t, result)
	assert.True(t, result.Canceled)
	assert.True(t, result.Consistent())
}

func TestScanLeavesRequestConfigUntouched(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app/node_modules/a.js", 10)

	config := scanConfig([]string{root, root + string(filepath.Separator)}, nodeModulesRule(true))
	request := ScanRequest{Config: config}

	result, err := NewFSScanner(nil).Scan(context.Background(), request)
	require.NoError(t, err)
	assert.Len(t, result.Items, 1)
	assert.Equal(t, []string{root}, result.ScanPaths)
	assert.Len(t, request.Config.ScanPaths, 2)
	assert.Equal(t, root+string(filepath.Separator), request.Config.ScanPaths[1])
	assert.False(t, result.Items[0].Selected)
}

func TestScanPublishesProgress(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app/node_modules/a.js", 10)

	scanner := NewFSScanner(nil)
	_, err := scanner.Scan(context.Background(), ScanRequest{Config: scanConfig([]string{root}, nodeModulesRule(true))})
	require.NoError(t, err)

	var last domain.ScanProgress
	received := 0
	for {
		select {
		case progress := <-scanner.Progress():
			last = progress
			received++
			continue
		default:
		}
		break
	}
	require.Greater(t, received, 0)
	assert.False(t, last.IsScanning)
	assert.Equal(t, 100, last.Progress)
	assert.Equal(t, 1, last.ItemsFound)
}
