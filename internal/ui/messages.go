package ui

import (
	"github.com/xiaoquanidea/fast-clean-x/internal/domain"
	"github.com/xiaoquanidea/fast-clean-x/internal/services"
)

type scanResultMsg struct {
	result *domain.ScanResult
	err    error
}

type scanProgressMsg struct {
	progress domain.ScanProgress
}

type cleanResultMsg struct {
	result services.CleanResult
	paths  []string
	err    error
}

type cleanPreviewMsg struct {
	preview services.CleanPreview
	err     error
}

type cleanProgressMsg struct {
	progress domain.CleanProgress
}
