package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xiaoquanidea/fast-clean-x/internal/domain"
	"github.com/xiaoquanidea/fast-clean-x/internal/rules"
)

var (
	ErrNoScanPaths     = errors.New("no scan paths configured")
	ErrNoReadableRoots = errors.New("no scan root could be read")
	ErrScanCanceled    = errors.New("scan canceled")
)

type FSScanner struct {
	mu       sync.Mutex
	progress chan domain.ScanProgress
	logger   *zap.Logger
}

func NewFSScanner(logger *zap.Logger) *FSScanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FSScanner{
		progress: make(chan domain.ScanProgress, 64),
		logger:   logger,
	}
}

// Progress is shared by all scans of this scanner and is never closed.
func (scanner *FSScanner) Progress() <-chan domain.ScanProgress {
	return scanner.progress
}

// Scan walks every configured root and returns the classified items. Skipped
// roots and subtrees do not fail the scan unless no root could be read.
// On cancellation the partial result is returned with Canceled set.
func (scanner *FSScanner) Scan(ctx context.Context, req ScanRequest) (*domain.ScanResult, error) {
	scanner.mu.Lock()
	defer scanner.mu.Unlock()

	start := time.Now()
	config := req.Config.Clone()
	roots := scanRoots(config.ScanPaths)
	if len(roots) == 0 {
		return nil, ErrNoScanPaths
	}

	ruleSet, err := rules.New(config.ScanRules, config.GlobalPathExcludes)
	if err != nil {
		return nil, err
	}
	classifier, err := NewClassifier(ruleSet, req.MarkerCacheSize, scanner.logger)
	if err != nil {
		return nil, err
	}
	walker := NewWalker(config.IgnorePatterns, req.IncludeHidden, req.SkipSystemDirs, scanner.logger)
	collector := NewCollector(start)

	drain(scanner.progress)
	progressNonBlocking(scanner.progress, domain.ScanProgress{IsScanning: true})

	workerCount := req.Workers
	if workerCount <= 0 {
		workerCount = maxInt(2, runtime.NumCPU()*2)
	}
	scanner.logger.Info("Scan started",
		zap.Strings("roots", roots),
		zap.Int("rules", ruleSet.Len()),
		zap.Int("workers", workerCount))

	jobs := make(chan Draft, workerCount*8)
	results := make(chan measuredItem, workerCount*8)
	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go measureWorker(ctx, jobs, results, &wg)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var scannedCount int64
	var rootsDone int64
	resultsDone := make(chan struct{})
	go func() {
		defer close(resultsDone)
		for result := range results {
			if result.err != nil {
				if ctx.Err() != nil {
					continue
				}
				reason := domain.SkipMeasureFailed
				if errors.Is(result.err, ErrItemVanished) {
					reason = domain.SkipItemVanished
				}
				scanner.logger.Warn("Skipping item", zap.String("path", result.draft.Path), zap.Error(result.err))
				collector.Skip(domain.SkippedPath{Path: result.draft.Path, Reason: reason, Error: result.err.Error()})
				continue
			}
			collector.Add(result.draft, result.measurement)
			found, size := collector.Totals()
			progressNonBlocking(scanner.progress, domain.ScanProgress{
				CurrentPath:  result.draft.Path,
				ScannedCount: int(atomic.LoadInt64(&scannedCount)),
				ItemsFound:   found,
				TotalSize:    size,
				IsScanning:   true,
				Progress:     percent(int(atomic.LoadInt64(&rootsDone)), len(roots)),
			})
		}
	}()

	rootStats := make([]RootStats, len(roots))
	group, groupCtx := errgroup.WithContext(ctx)
	for index, root := range roots {
		index, root := index, root
		group.Go(func() error {
			defer atomic.AddInt64(&rootsDone, 1)
			seq := 0
			stats, err := walker.Walk(groupCtx, root, func(path string, entry fs.DirEntry) VisitAction {
				count := atomic.AddInt64(&scannedCount, 1)
				draft, ok := classifier.Classify(root, path)
				if !ok {
					if count%50 == 0 {
						found, size := collector.Totals()
						progressNonBlocking(scanner.progress, domain.ScanProgress{
							CurrentPath:  path,
							ScannedCount: int(count),
							ItemsFound:   found,
							TotalSize:    size,
							IsScanning:   true,
							Progress:     percent(int(atomic.LoadInt64(&rootsDone)), len(roots)),
						})
					}
					return Descend
				}
				draft.RootIndex = index
				draft.Seq = seq
				seq++
				select {
				case jobs <- draft:
				case <-groupCtx.Done():
				}
				return Prune
			})
			rootStats[index] = stats
			return err
		})
	}
	walkErr := group.Wait()
	close(jobs)
	<-resultsDone

	readable := 0
	for _, stats := range rootStats {
		collector.Skip(stats.Skipped...)
		if !stats.RootSkipped {
			readable++
		}
	}
	result := collector.Result(uuid.NewString(), roots, time.Since(start))
	final := domain.ScanProgress{
		ScannedCount: int(atomic.LoadInt64(&scannedCount)),
		ItemsFound:   len(result.Items),
		TotalSize:    result.TotalSize,
		Progress:     100,
	}

	if ctxErr := ctx.Err(); ctxErr != nil || walkErr != nil {
		if ctxErr == nil {
			ctxErr = walkErr
		}
		result.Canceled = true
		final.ErrMessage = ErrScanCanceled.Error()
		progressNonBlocking(scanner.progress, final)
		scanner.logger.Info("Scan canceled",
			zap.Int("items", len(result.Items)),
			zap.Duration("duration", result.Duration))
		return result, fmt.Errorf("%w: %w", ErrScanCanceled, ctxErr)
	}
	if readable == 0 {
		final.ErrMessage = ErrNoReadableRoots.Error()
		progressNonBlocking(scanner.progress, final)
		return result, ErrNoReadableRoots
	}

	progressNonBlocking(scanner.progress, final)
	scanner.logger.Info("Scan finished",
		zap.Int("items", len(result.Items)),
		zap.Int64("total_size", result.TotalSize),
		zap.Int("skipped", result.SkippedCount),
		zap.Duration("duration", result.Duration))
	return result, nil
}

func scanRoots(paths []string) []string {
	roots := make([]string, 0, len(paths))
	seen := make(map[string]struct{}, len(paths))
	for _, path := range paths {
		if path == "" {
			continue
		}
		root := cleanPath(path)
		if _, ok := seen[root]; ok {
			continue
		}
		seen[root] = struct{}{}
		roots = append(roots, root)
	}

	// nested roots would measure the same items twice
	out := roots[:0:0]
	for _, root := range roots {
		nested := false
		for _, other := range roots {
			if other != root && isWithin(other, root) {
				nested = true
				break
			}
		}
		if !nested {
			out = append(out, root)
		}
	}
	return out
}
