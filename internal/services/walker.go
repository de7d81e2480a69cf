package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar"
	"go.uber.org/zap"

	"github.com/xiaoquanidea/fast-clean-x/internal/domain"
)

type VisitAction int

const (
	Descend VisitAction = iota
	Prune
)

// VisitFunc is called once per directory below the root that survived the ignore patterns.
type VisitFunc func(path string, entry fs.DirEntry) VisitAction

type RootStats struct {
	Root        string
	DirsVisited int
	Skipped     []domain.SkippedPath
	RootSkipped bool
}

var systemDirs = []string{
	"System Volume Information",
	"$RECYCLE.BIN",
	"Windows",
	"Program Files",
	"Program Files (x86)",
	"ProgramData",
	"Library",
	"System",
	"Applications",
}

type Walker struct {
	ignorePatterns []string
	includeHidden  bool
	skipSystemDirs bool
	logger         *zap.Logger
}

func NewWalker(ignorePatterns []string, includeHidden, skipSystemDirs bool, logger *zap.Logger) *Walker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Walker{
		ignorePatterns: append([]string{}, ignorePatterns...),
		includeHidden:  includeHidden,
		skipSystemDirs: skipSystemDirs,
		logger:         logger,
	}
}

// Walk visits directories under root depth-first in lexical order. Unreadable
// subtrees are recorded in the returned stats and skipped. The only error
// returned is the context error on cancellation.
func (walker *Walker) Walk(ctx context.Context, root string, visit VisitFunc) (RootStats, error) {
	root = cleanPath(root)
	stats := RootStats{Root: root}

	walkRoot, err := walker.openRoot(root)
	if err != nil {
		reason := domain.SkipRootInaccessible
		if errors.Is(err, fs.ErrNotExist) {
			reason = domain.SkipRootNotFound
		}
		walker.logger.Warn("Skipping scan root", zap.String("path", root), zap.String("reason", string(reason)), zap.Error(err))
		stats.Skipped = append(stats.Skipped, domain.SkippedPath{Path: root, Reason: reason, Error: err.Error()})
		stats.RootSkipped = true
		return stats, nil
	}

	walkErr := filepath.WalkDir(walkRoot, func(walked string, entry fs.DirEntry, err error) error {
		path := walked
		if walkRoot != root {
			path = filepath.Join(root, relativeSlash(walkRoot, walked))
		}
		if err != nil {
			if walked == walkRoot {
				stats.Skipped = append(stats.Skipped, domain.SkippedPath{Path: root, Reason: domain.SkipRootInaccessible, Error: err.Error()})
				stats.RootSkipped = true
				return filepath.SkipDir
			}
			walker.logger.Warn("Skipping inaccessible subtree",
				zap.String("path", path),
				zap.Bool("permission", isPermissionErr(err)),
				zap.Error(err))
			stats.Skipped = append(stats.Skipped, domain.SkippedPath{Path: path, Reason: domain.SkipSubtreeInaccessible, Error: err.Error()})
			if entry != nil && entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if !entry.IsDir() {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if walked == walkRoot {
			stats.DirsVisited++
			return nil
		}

		name := entry.Name()
		if walker.ignored(name, relativeSlash(walkRoot, walked)) {
			return filepath.SkipDir
		}

		stats.DirsVisited++
		if visit(path, entry) == Prune {
			return filepath.SkipDir
		}
		if !walker.includeHidden && isHidden(name) {
			return filepath.SkipDir
		}
		if walker.skipSystemDirs && isSystemDir(name) {
			return filepath.SkipDir
		}
		return nil
	})

	if walkErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(walkErr, ctxErr) {
			return stats, walkErr
		}
		walker.logger.Warn("Walk aborted", zap.String("path", root), zap.Error(walkErr))
		stats.Skipped = append(stats.Skipped, domain.SkippedPath{Path: root, Reason: domain.SkipSubtreeInaccessible, Error: walkErr.Error()})
	}
	return stats, nil
}

// openRoot returns the directory to walk. A symlinked root is followed once.
func (walker *Walker) openRoot(root string) (string, error) {
	info, err := os.Lstat(root)
	if err != nil {
		return "", err
	}
	walkRoot := root
	if info.Mode()&os.ModeSymlink != 0 {
		resolved, err := filepath.EvalSymlinks(root)
		if err != nil {
			return "", err
		}
		walkRoot = resolved
		info, err = os.Stat(resolved)
		if err != nil {
			return "", err
		}
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", root)
	}
	entries, err := os.Open(walkRoot)
	if err != nil {
		return "", err
	}
	_, err = entries.Readdirnames(1)
	_ = entries.Close()
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return walkRoot, nil
}

func (walker *Walker) ignored(name, rel string) bool {
	for _, pattern := range walker.ignorePatterns {
		if ok, err := doublestar.Match(pattern, name); err == nil && ok {
			return true
		}
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}

func isSystemDir(name string) bool {
	for _, systemDir := range systemDirs {
		if strings.EqualFold(name, systemDir) {
			return true
		}
	}
	return false
}

func relativeSlash(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
