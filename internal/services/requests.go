package services

import "github.com/xiaoquanidea/fast-clean-x/internal/domain"

// ScanRequest carries the config snapshot for one scan. Scan clones it again on entry.
type ScanRequest struct {
	Config          domain.Config
	Workers         int
	IncludeHidden   bool
	SkipSystemDirs  bool
	MarkerCacheSize int
}

const ConfirmToken = "confirm"

type CleanRequest struct {
	Items          []domain.ScanItem
	Mode           domain.CleanMode
	TrashDir       string
	SafeMode       bool
	ProtectedRoots []string
	ConfirmToken   string
}
