package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/xiaoquanidea/fast-clean-x/internal/domain"
)

var (
	ErrConfirmationRequired = errors.New("clean confirmation required")
	ErrNothingSelected      = errors.New("no items selected")
	ErrCleanCanceled        = errors.New("clean canceled")
)

var criticalPrefixes = []string{
	"/etc",
	"/usr",
	"/bin",
	"/sbin",
	"/lib",
	"/lib64",
	"/boot",
	"/proc",
	"/sys",
	"/dev",
	"/System",
}

type FSCleaner struct {
	mu       sync.Mutex
	progress chan domain.CleanProgress
	logger   *zap.Logger
	now      func() time.Time
}

func NewFSCleaner(logger *zap.Logger) *FSCleaner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FSCleaner{
		progress: make(chan domain.CleanProgress, 64),
		logger:   logger,
		now:      time.Now,
	}
}

func (cleaner *FSCleaner) CleanProgress() <-chan domain.CleanProgress {
	return cleaner.progress
}

func (cleaner *FSCleaner) Preview(ctx context.Context, req CleanRequest) (CleanPreview, error) {
	mode, err := validateClean(req)
	if err != nil {
		return CleanPreview{}, err
	}
	plan := planClean(req)
	preview := CleanPreview{Mode: mode, Samples: []string{}}
	for _, blocked := range plan.blocked {
		preview.Blocked = append(preview.Blocked, blocked.path)
		preview.Warnings = append(preview.Warnings, fmt.Sprintf("%s: %s", blocked.path, blocked.reason))
	}
	for _, item := range plan.items {
		if ctx.Err() != nil {
			return CleanPreview{}, ctx.Err()
		}
		if _, err := os.Lstat(item.Path); err != nil {
			preview.Warnings = append(preview.Warnings, err.Error())
			continue
		}
		preview.Items++
		preview.TotalBytes += item.Size
		preview.TotalFiles += item.FileCount
		if len(preview.Samples) < 5 {
			preview.Samples = append(preview.Samples, item.Path)
		}
	}
	return preview, nil
}

// Clean removes or trashes the selected items. Unselected items are never
// touched. Per-item failures are reported in the result, not as an error.
func (cleaner *FSCleaner) Clean(ctx context.Context, req CleanRequest) (CleanResult, error) {
	cleaner.mu.Lock()
	defer cleaner.mu.Unlock()

	start := cleaner.now()
	mode, err := validateClean(req)
	if err != nil {
		return CleanResult{Mode: req.Mode}, err
	}
	if req.ConfirmToken != ConfirmToken {
		return CleanResult{Mode: mode}, ErrConfirmationRequired
	}
	plan := planClean(req)
	if len(plan.items) == 0 && len(plan.blocked) == 0 {
		return CleanResult{Mode: mode, Skipped: plan.unselected}, ErrNothingSelected
	}
	items := plan.items

	trashRoot := ""
	if mode == domain.CleanTrash {
		trashRoot = filepath.Join(cleanPath(req.TrashDir), start.Format("20060102-150405"))
	}

	drain(cleaner.progress)
	result := CleanResult{Mode: mode, Skipped: plan.unselected}
	progress := domain.CleanProgress{TotalCount: len(items), IsCleaning: true, FailedItems: []string{}}
	for _, blocked := range plan.blocked {
		cleaner.logger.Warn("Blocked critical path", zap.String("path", blocked.path), zap.String("reason", blocked.reason))
		result.Blocked = append(result.Blocked, blocked.path)
		result.FailedItems = append(result.FailedItems, blocked.path)
		result.Errors = append(result.Errors, fmt.Sprintf("blocked critical path: %s (%s)", blocked.path, blocked.reason))
		result.FailedCount++
		progress.FailedItems = append(progress.FailedItems, blocked.path)
	}
	progressNonBlocking(cleaner.progress, progress)

	cleaner.logger.Info("Clean started",
		zap.String("mode", string(mode)),
		zap.Int("items", len(items)),
		zap.Bool("safe_mode", req.SafeMode))

	for _, item := range items {
		if ctx.Err() != nil {
			break
		}
		progress.CurrentPath = item.Path
		progressNonBlocking(cleaner.progress, progress)

		var itemErr error
		switch mode {
		case domain.CleanTrash:
			itemErr = cleaner.trashItem(ctx, item.Path, trashRoot)
		default:
			itemErr = cleaner.deleteItem(ctx, item.Path)
		}
		if itemErr != nil {
			if errors.Is(itemErr, context.Canceled) || errors.Is(itemErr, context.DeadlineExceeded) {
				result.FailedItems = append(result.FailedItems, item.Path)
				result.FailedCount++
				break
			}
			cleaner.logger.Warn("Clean failed", zap.String("path", item.Path), zap.Error(itemErr))
			result.FailedItems = append(result.FailedItems, item.Path)
			result.Errors = append(result.Errors, itemErr.Error())
			result.FailedCount++
			progress.FailedItems = append(progress.FailedItems, item.Path)
			continue
		}

		result.CleanedCount++
		result.CleanedSize += item.Size
		progress.CleanedCount = result.CleanedCount
		progress.CleanedSize = result.CleanedSize
		progress.Progress = percent(result.CleanedCount, len(items))
		progressNonBlocking(cleaner.progress, progress)
	}

	result.Duration = cleaner.now().Sub(start)
	progress.IsCleaning = false
	progress.CurrentPath = ""
	progress.Progress = percent(result.CleanedCount, len(items))

	if ctxErr := ctx.Err(); ctxErr != nil {
		result.Canceled = true
		result.Message = fmt.Sprintf("clean canceled after %d items", result.CleanedCount)
		progressNonBlocking(cleaner.progress, progress)
		return result, fmt.Errorf("%w: %w", ErrCleanCanceled, ctxErr)
	}

	progress.Progress = 100
	progressNonBlocking(cleaner.progress, progress)
	result.Message = fmt.Sprintf("%s complete: %d cleaned, %d failed, %s freed",
		mode, result.CleanedCount, result.FailedCount, domain.FormatSize(result.CleanedSize))
	cleaner.logger.Info("Clean finished",
		zap.Int("cleaned", result.CleanedCount),
		zap.Int("failed", result.FailedCount),
		zap.Int64("cleaned_size", result.CleanedSize),
		zap.Duration("duration", result.Duration))
	return result, nil
}

func validateClean(req CleanRequest) (domain.CleanMode, error) {
	mode := req.Mode
	if mode == "" {
		mode = domain.CleanDelete
	}
	if _, ok := domain.ParseCleanMode(string(mode)); !ok {
		return "", fmt.Errorf("unsupported clean mode: %s", mode)
	}
	if mode == domain.CleanTrash && strings.TrimSpace(req.TrashDir) == "" {
		return "", fmt.Errorf("trash dir required for clean mode trash")
	}
	return mode, nil
}

type blockedItem struct {
	path   string
	reason string
}

type cleanPlan struct {
	items      []domain.ScanItem
	blocked    []blockedItem
	unselected int
}

// planClean keeps selected items with unique paths. Safe mode blocks are
// applied first, then items nested inside another kept item are dropped.
func planClean(req CleanRequest) cleanPlan {
	var plan cleanPlan
	byPath := make(map[string]domain.ScanItem)
	for _, item := range req.Items {
		if !item.Selected || item.Path == "" {
			plan.unselected++
			continue
		}
		item.Path = cleanPath(item.Path)
		byPath[item.Path] = item
	}
	paths := make([]string, 0, len(byPath))
	for path := range byPath {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		if req.SafeMode {
			if reason := criticalReason(path, req.ProtectedRoots); reason != "" {
				plan.blocked = append(plan.blocked, blockedItem{path: path, reason: reason})
				continue
			}
		}
		nested := false
		for _, kept := range plan.items {
			if isWithin(kept.Path, path) {
				nested = true
				break
			}
		}
		if !nested {
			plan.items = append(plan.items, byPath[path])
		}
	}
	return plan
}

// criticalReason returns why path may not be cleaned in safe mode, or "".
func criticalReason(path string, protectedRoots []string) string {
	path = cleanPath(path)
	if filepath.Dir(path) == path {
		return "filesystem root"
	}
	if runtime.GOOS != "windows" {
		for _, prefix := range criticalPrefixes {
			if isWithin(prefix, path) {
				return "system directory"
			}
		}
	}
	if home, err := os.UserHomeDir(); err == nil && cleanPath(home) == path {
		return "home directory"
	}
	for _, root := range protectedRoots {
		if root != "" && cleanPath(root) == path {
			return "scan root"
		}
	}
	return ""
}

func (cleaner *FSCleaner) deleteItem(ctx context.Context, path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return os.Remove(path)
	}
	return cleaner.deleteDirectory(ctx, path)
}

// deleteDirectory removes files first, then directories deepest first.
func (cleaner *FSCleaner) deleteDirectory(ctx context.Context, path string) error {
	dirs := []string{}
	var failures []string
	walkErr := filepath.WalkDir(path, func(child string, entry fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			failures = append(failures, err.Error())
			if entry != nil && entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if entry.IsDir() {
			dirs = append(dirs, child)
			return nil
		}
		if err := os.Remove(child); err != nil && !errors.Is(err, fs.ErrNotExist) {
			failures = append(failures, err.Error())
		}
		return nil
	})
	if walkErr != nil {
		return walkErr
	}
	for index := len(dirs) - 1; index >= 0; index-- {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := os.Remove(dirs[index]); err != nil && !errors.Is(err, fs.ErrNotExist) {
			failures = append(failures, err.Error())
		}
	}
	if len(failures) > 0 {
		return fmt.Errorf("failed to remove %s: %s", path, failures[0])
	}
	return nil
}

func (cleaner *FSCleaner) trashItem(ctx context.Context, path, trashRoot string) error {
	if err := os.MkdirAll(trashRoot, 0o755); err != nil {
		return err
	}
	target := uniqueTarget(filepath.Join(trashRoot, filepath.Base(path)))
	if err := os.Rename(path, target); err != nil {
		if !errors.Is(err, syscall.EXDEV) {
			return err
		}
		cleaner.logger.Debug("Cross-device trash, copying", zap.String("path", path), zap.String("target", target))
		if err := copyPath(ctx, path, target); err != nil {
			return err
		}
		return cleaner.deleteItem(ctx, path)
	}
	return nil
}

func uniqueTarget(target string) string {
	if !exists(target) {
		return target
	}
	for index := 1; ; index++ {
		candidate := fmt.Sprintf("%s-%d", target, index)
		if !exists(candidate) {
			return candidate
		}
	}
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

func copyPath(ctx context.Context, source, target string) error {
	info, err := os.Lstat(source)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return copyDirectory(ctx, source, target, info.Mode())
	}
	return copyFile(ctx, source, target, info)
}

func copyDirectory(ctx context.Context, source, target string, mode os.FileMode) error {
	if err := os.MkdirAll(target, mode.Perm()); err != nil {
		return err
	}
	return filepath.WalkDir(source, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		rel, err := filepath.Rel(source, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		outPath := filepath.Join(target, rel)
		info, err := entry.Info()
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return os.MkdirAll(outPath, info.Mode().Perm())
		}
		if info.Mode()&os.ModeSymlink != 0 {
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(link, outPath)
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		return copyFile(ctx, path, outPath, info)
	})
}

func copyFile(ctx context.Context, source, target string, info os.FileInfo) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	input, err := os.Open(source)
	if err != nil {
		return err
	}
	defer input.Close()

	output, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(output, input); err != nil {
		_ = output.Close()
		return err
	}
	if err := output.Close(); err != nil {
		return err
	}
	_ = os.Chtimes(target, time.Now(), info.ModTime())
	return nil
}
