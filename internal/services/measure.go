package services

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/xiaoquanidea/fast-clean-x/internal/domain"
)

var ErrItemVanished = errors.New("item vanished before it could be measured")

type Measurement struct {
	Size         int64
	FileCount    int
	LastModified time.Time
	Warnings     []domain.SkippedPath
}

type measuredItem struct {
	draft       Draft
	measurement Measurement
	err         error
}

// Measure sums regular files under path without following symlinks. Files
// that disappear while walking count as zero.
func Measure(ctx context.Context, path string) (Measurement, error) {
	info, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Measurement{}, ErrItemVanished
		}
		return Measurement{}, err
	}
	if !info.IsDir() {
		return Measurement{}, ErrItemVanished
	}

	var measurement Measurement
	walkErr := filepath.WalkDir(path, func(current string, entry fs.DirEntry, err error) error {
		if err != nil {
			if current == path {
				return err
			}
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			measurement.Warnings = append(measurement.Warnings, domain.SkippedPath{
				Path:   current,
				Reason: domain.SkipSubtreeInaccessible,
				Error:  err.Error(),
			})
			if entry != nil && entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			return ctx.Err()
		}
		if !entry.Type().IsRegular() {
			return nil
		}
		fileInfo, err := entry.Info()
		if err != nil {
			return nil
		}
		measurement.Size += fileInfo.Size()
		measurement.FileCount++
		if fileInfo.ModTime().After(measurement.LastModified) {
			measurement.LastModified = fileInfo.ModTime()
		}
		return nil
	})
	if walkErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Measurement{}, ctxErr
		}
		if errors.Is(walkErr, fs.ErrNotExist) {
			return Measurement{}, ErrItemVanished
		}
		return Measurement{}, walkErr
	}
	if measurement.FileCount == 0 {
		measurement.LastModified = info.ModTime()
	}
	return measurement, nil
}

func measureWorker(ctx context.Context, jobs <-chan Draft, results chan<- measuredItem, wg *sync.WaitGroup) {
	defer wg.Done()
	for job := range jobs {
		if ctx.Err() != nil {
			return
		}
		measurement, err := Measure(ctx, job.Path)
		results <- measuredItem{draft: job, measurement: measurement, err: err}
	}
}
