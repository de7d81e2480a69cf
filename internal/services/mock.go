package services

import (
	"context"
	"fmt"
	"time"

	"github.com/xiaoquanidea/fast-clean-x/internal/domain"
)

// MockScanner returns a fixed result after a short delay.
type MockScanner struct {
	Result *domain.ScanResult
	Err    error
	Delay  time.Duration
}

func NewMockScanner(result *domain.ScanResult) *MockScanner {
	return &MockScanner{Result: result, Delay: 350 * time.Millisecond}
}

func (scanner *MockScanner) Scan(ctx context.Context, req ScanRequest) (*domain.ScanResult, error) {
	start := time.Now()
	select {
	case <-ctx.Done():
		return &domain.ScanResult{Canceled: true}, fmt.Errorf("%w: %w", ErrScanCanceled, ctx.Err())
	case <-time.After(scanner.Delay):
	}
	if scanner.Err != nil {
		return nil, scanner.Err
	}

	result := &domain.ScanResult{}
	if scanner.Result != nil {
		copied := *scanner.Result
		copied.Items = append([]domain.ScanItem{}, scanner.Result.Items...)
		result = &copied
	}
	result.ScanPaths = append([]string{}, req.Config.ScanPaths...)
	result.Duration = time.Since(start)
	return result, nil
}

// MockCleaner records the last request and reports every selected item as cleaned.
type MockCleaner struct {
	Delay       time.Duration
	LastRequest CleanRequest
}

func NewMockCleaner() *MockCleaner {
	return &MockCleaner{Delay: 450 * time.Millisecond}
}

func (cleaner *MockCleaner) Clean(ctx context.Context, req CleanRequest) (CleanResult, error) {
	start := time.Now()
	cleaner.LastRequest = req
	select {
	case <-ctx.Done():
		return CleanResult{Mode: req.Mode, Canceled: true}, fmt.Errorf("%w: %w", ErrCleanCanceled, ctx.Err())
	case <-time.After(cleaner.Delay):
	}
	if req.ConfirmToken != ConfirmToken {
		return CleanResult{Mode: req.Mode}, ErrConfirmationRequired
	}

	result := CleanResult{Mode: req.Mode}
	for _, item := range req.Items {
		if !item.Selected {
			result.Skipped++
			continue
		}
		result.CleanedCount++
		result.CleanedSize += item.Size
	}
	result.Duration = time.Since(start)
	result.Message = fmt.Sprintf("%s completed", req.Mode)
	return result, nil
}
