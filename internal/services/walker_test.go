package services

import (
	"context"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xiaoquanidea/fast-clean-x/internal/domain"
)

func collectVisits(t *testing.T, walker *Walker, root string, prune map[string]bool) ([]string, RootStats) {
	t.Helper()
	var visited []string
	stats, err := walker.Walk(context.Background(), root, func(path string, entry fs.DirEntry) VisitAction {
		rel, err := filepath.Rel(root, path)
		require.NoError(t, err)
		rel = filepath.ToSlash(rel)
		visited = append(visited, rel)
		if prune[rel] {
			return Prune
		}
		return Descend
	})
	require.NoError(t, err)
	return visited, stats
}

func TestWalkLexicalOrderAndPrune(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "b/inner", "a/deep/er", "c")
	writeFile(t, root, "a/file.txt", 10)

	walker := NewWalker(nil, false, true, zap.NewNop())
	visited, stats := collectVisits(t, walker, root, map[string]bool{"a/deep": true})

	assert.Equal(t, []string{"a", "a/deep", "b", "b/inner", "c"}, visited)
	assert.Empty(t, stats.Skipped)
	assert.False(t, stats.RootSkipped)
	assert.Equal(t, 6, stats.DirsVisited)
}

func TestWalkIgnorePatterns(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, ".git/node_modules", "src/fixtures/node_modules", "lib/fixtures")

	walker := NewWalker([]string{".git", "src/fixtures"}, true, true, zap.NewNop())
	visited, _ := collectVisits(t, walker, root, nil)

	assert.Equal(t, []string{"lib", "lib/fixtures", "src"}, visited)
}

func TestWalkHiddenDirsVisitedButNotEntered(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, ".venv/lib", "app")

	hidden := NewWalker(nil, false, true, zap.NewNop())
	visited, _ := collectVisits(t, hidden, root, nil)
	assert.Equal(t, []string{".venv", "app"}, visited)

	included := NewWalker(nil, true, true, zap.NewNop())
	visited, _ = collectVisits(t, included, root, nil)
	assert.Equal(t, []string{".venv", ".venv/lib", "app"}, visited)
}

func TestWalkSystemDirs(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "Library/Caches", "work")

	walker := NewWalker(nil, false, true, zap.NewNop())
	visited, _ := collectVisits(t, walker, root, nil)
	assert.Equal(t, []string{"Library", "work"}, visited)

	walker = NewWalker(nil, false, false, zap.NewNop())
	visited, _ = collectVisits(t, walker, root, nil)
	assert.Equal(t, []string{"Library", "Library/Caches", "work"}, visited)
}

func TestWalkMissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "missing")
	walker := NewWalker(nil, false, true, zap.NewNop())
	_, stats := collectVisits(t, walker, root, nil)

	require.True(t, stats.RootSkipped)
	require.Len(t, stats.Skipped, 1)
	assert.Equal(t, domain.SkipRootNotFound, stats.Skipped[0].Reason)
}

func TestWalkFileRootIsInaccessible(t *testing.T) {
	root := writeFile(t, t.TempDir(), "plain.txt", 1)
	walker := NewWalker(nil, false, true, zap.NewNop())
	_, stats := collectVisits(t, walker, root, nil)

	require.True(t, stats.RootSkipped)
	assert.Equal(t, domain.SkipRootInaccessible, stats.Skipped[0].Reason)
}

func TestWalkUnreadableSubtreeIsSkipped(t *testing.T) {
	skipIfRoot(t)
	root := t.TempDir()
	mkdirs(t, root, "a/locked/inner", "b")
	lockDir(t, filepath.Join(root, "a", "locked"))

	walker := NewWalker(nil, false, true, zap.NewNop())
	visited, stats := collectVisits(t, walker, root, nil)

	assert.Equal(t, []string{"a", "a/locked", "b"}, visited)
	require.Len(t, stats.Skipped, 1)
	assert.Equal(t, domain.SkipSubtreeInaccessible, stats.Skipped[0].Reason)
	assert.Equal(t, filepath.Join(root, "a", "locked"), stats.Skipped[0].Path)
	assert.False(t, stats.RootSkipped)
}

func TestWalkCanceled(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "a", "b")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	walker := NewWalker(nil, false, true, zap.NewNop())
	_, err := walker.Walk(ctx, root, func(string, fs.DirEntry) VisitAction { return Descend })
	assert.ErrorIs(t, err, context.Canceled)
}
