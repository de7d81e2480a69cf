package services

import (
	"sort"
	"sync"
	"time"

	"github.com/xiaoquanidea/fast-clean-x/internal/domain"
)

type slotKey struct {
	root int
	seq  int
}

// Collector owns the result slots of one scan. Items come out in discovery
// order no matter which worker finished first.
type Collector struct {
	mu         sync.Mutex
	scanTime   time.Time
	slots      map[slotKey]domain.ScanItem
	skipped    []domain.SkippedPath
	warnings   int
	totalSize  int64
	totalCount int
}

func NewCollector(scanTime time.Time) *Collector {
	return &Collector{
		scanTime: scanTime,
		slots:    make(map[slotKey]domain.ScanItem),
	}
}

func (collector *Collector) Add(draft Draft, measurement Measurement) {
	collector.mu.Lock()
	defer collector.mu.Unlock()

	key := slotKey{root: draft.RootIndex, seq: draft.Seq}
	if previous, ok := collector.slots[key]; ok {
		collector.totalSize -= previous.Size
		collector.totalCount -= previous.FileCount
	}
	collector.slots[key] = domain.ScanItem{
		Path:         draft.Path,
		ProjectPath:  draft.ProjectPath,
		ProjectName:  draft.ProjectName,
		Type:         draft.Type,
		Size:         measurement.Size,
		SizeReadable: domain.FormatSize(measurement.Size),
		FileCount:    measurement.FileCount,
		LastModified: measurement.LastModified,
	}
	collector.totalSize += measurement.Size
	collector.totalCount += measurement.FileCount
	if len(measurement.Warnings) > 0 {
		collector.warnings += len(measurement.Warnings)
		collector.skipped = append(collector.skipped, measurement.Warnings...)
	}
}

func (collector *Collector) Skip(paths ...domain.SkippedPath) {
	if len(paths) == 0 {
		return
	}
	collector.mu.Lock()
	defer collector.mu.Unlock()
	collector.skipped = append(collector.skipped, paths...)
}

// Totals returns the running item count and byte total.
func (collector *Collector) Totals() (int, int64) {
	collector.mu.Lock()
	defer collector.mu.Unlock()
	return len(collector.slots), collector.totalSize
}

func (collector *Collector) Result(id string, scanPaths []string, duration time.Duration) *domain.ScanResult {
	collector.mu.Lock()
	defer collector.mu.Unlock()

	keys := make([]slotKey, 0, len(collector.slots))
	for key := range collector.slots {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].root != keys[j].root {
			return keys[i].root < keys[j].root
		}
		return keys[i].seq < keys[j].seq
	})

	items := make([]domain.ScanItem, 0, len(keys))
	for _, key := range keys {
		items = append(items, collector.slots[key])
	}
	skipped := append([]domain.SkippedPath{}, collector.skipped...)
	sort.SliceStable(skipped, func(i, j int) bool {
		return skipped[i].Path < skipped[j].Path
	})

	return &domain.ScanResult{
		ID:           id,
		ScanPaths:    append([]string{}, scanPaths...),
		Items:        items,
		TotalSize:    collector.totalSize,
		TotalCount:   collector.totalCount,
		ScanTime:     collector.scanTime,
		Duration:     duration,
		SkippedCount: len(skipped),
		Skipped:      skipped,
		Warnings:     collector.warnings,
	}
}
