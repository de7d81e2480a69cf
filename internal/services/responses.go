package services

import (
	"time"

	"github.com/xiaoquanidea/fast-clean-x/internal/domain"
)

type CleanResult struct {
	Mode         domain.CleanMode
	CleanedCount int
	FailedCount  int
	CleanedSize  int64
	Skipped      int
	Blocked      []string
	FailedItems  []string
	Errors       []string
	Duration     time.Duration
	Canceled     bool
	Message      string
}

type CleanPreview struct {
	Mode       domain.CleanMode
	Items      int
	TotalBytes int64
	TotalFiles int
	Blocked    []string
	Samples    []string
	Warnings   []string
}
