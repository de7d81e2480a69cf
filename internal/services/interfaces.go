package services

import (
	"context"

	"github.com/xiaoquanidea/fast-clean-x/internal/domain"
)

type Scanner interface {
	Scan(ctx context.Context, req ScanRequest) (*domain.ScanResult, error)
}

type Cleaner interface {
	Clean(ctx context.Context, req CleanRequest) (CleanResult, error)
}

type ProgressProvider interface {
	Progress() <-chan domain.ScanProgress
}

type CleanPreviewer interface {
	Preview(ctx context.Context, req CleanRequest) (CleanPreview, error)
}

type CleanProgressProvider interface {
	CleanProgress() <-chan domain.CleanProgress
}
