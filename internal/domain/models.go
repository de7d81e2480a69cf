package domain

import "time"

// ScanRule maps directory names to a classification tag.
type ScanRule struct {
	Name              string   `json:"name" yaml:"name" mapstructure:"name"`
	Description       string   `json:"description" yaml:"description" mapstructure:"description"`
	TargetDirs        []string `json:"targetDirs" yaml:"targetDirs" mapstructure:"targetDirs"`
	Enabled           bool     `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Priority          int      `json:"priority" yaml:"priority" mapstructure:"priority"`
	ProjectMarkers    []string `json:"projectMarkers" yaml:"projectMarkers" mapstructure:"projectMarkers"`
	RequireMarkers    bool     `json:"requireMarkers" yaml:"requireMarkers" mapstructure:"requireMarkers"`
	ExcludeFromGlobal bool     `json:"excludeFromGlobal" yaml:"excludeFromGlobal" mapstructure:"excludeFromGlobal"`
}

// Config is the scan configuration. The engine only ever sees a Clone of it.
type Config struct {
	ScanPaths          []string   `json:"scanPaths" yaml:"scanPaths" mapstructure:"scanPaths"`
	IgnorePatterns     []string   `json:"ignorePatterns" yaml:"ignorePatterns" mapstructure:"ignorePatterns"`
	GlobalPathExcludes []string   `json:"globalPathExcludes" yaml:"globalPathExcludes" mapstructure:"globalPathExcludes"`
	ScanRules          []ScanRule `json:"scanRules" yaml:"scanRules" mapstructure:"scanRules"`
	LastScanTime       time.Time  `json:"lastScanTime" yaml:"lastScanTime" mapstructure:"lastScanTime"`
}

// Clone returns a deep copy so later edits cannot leak into a running scan.
func (config Config) Clone() Config {
	clone := config
	clone.ScanPaths = cloneStrings(config.ScanPaths)
	clone.IgnorePatterns = cloneStrings(config.IgnorePatterns)
	clone.GlobalPathExcludes = cloneStrings(config.GlobalPathExcludes)
	if config.ScanRules != nil {
		clone.ScanRules = make([]ScanRule, len(config.ScanRules))
		for index, rule := range config.ScanRules {
			clone.ScanRules[index] = rule.Clone()
		}
	}
	return clone
}

func (rule ScanRule) Clone() ScanRule {
	clone := rule
	clone.TargetDirs = cloneStrings(rule.TargetDirs)
	clone.ProjectMarkers = cloneStrings(rule.ProjectMarkers)
	return clone
}

// EnabledRules keeps configured order.
func (config Config) EnabledRules() []ScanRule {
	rules := make([]ScanRule, 0, len(config.ScanRules))
	for _, rule := range config.ScanRules {
		if rule.Enabled {
			rules = append(rules, rule.Clone())
		}
	}
	return rules
}

// ScanItem is one classified artifact directory.
type ScanItem struct {
	Path         string    `json:"path" yaml:"path" mapstructure:"path"`
	ProjectPath  string    `json:"projectPath" yaml:"projectPath" mapstructure:"projectPath"`
	ProjectName  string    `json:"projectName" yaml:"projectName" mapstructure:"projectName"`
	Type         string    `json:"type" yaml:"type" mapstructure:"type"`
	Size         int64     `json:"size" yaml:"size" mapstructure:"size"`
	SizeReadable string    `json:"sizeReadable" yaml:"sizeReadable" mapstructure:"sizeReadable"`
	FileCount    int       `json:"fileCount" yaml:"fileCount" mapstructure:"fileCount"`
	LastModified time.Time `json:"lastModified" yaml:"lastModified" mapstructure:"lastModified"`
	Selected     bool      `json:"selected" yaml:"selected" mapstructure:"selected"`
}

type SkipReason string

const (
	SkipRootNotFound        SkipReason = "root-not-found"
	SkipRootInaccessible    SkipReason = "root-inaccessible"
	SkipSubtreeInaccessible SkipReason = "subtree-inaccessible"
	SkipItemVanished        SkipReason = "item-vanished"
	SkipMeasureFailed       SkipReason = "measure-failed"
)

type SkippedPath struct {
	Path   string     `json:"path" yaml:"path" mapstructure:"path"`
	Reason SkipReason `json:"reason" yaml:"reason" mapstructure:"reason"`
	Error  string     `json:"error,omitempty" yaml:"error,omitempty" mapstructure:"error"`
}

// ScanResult is produced once per scan and never mutated by the engine afterwards.
type ScanResult struct {
	ID           string        `json:"id" yaml:"id" mapstructure:"id"`
	ScanPaths    []string      `json:"scanPaths" yaml:"scanPaths" mapstructure:"scanPaths"`
	Items        []ScanItem    `json:"items" yaml:"items" mapstructure:"items"`
	TotalSize    int64         `json:"totalSize" yaml:"totalSize" mapstructure:"totalSize"`
	TotalCount   int           `json:"totalCount" yaml:"totalCount" mapstructure:"totalCount"`
	ScanTime     time.Time     `json:"scanTime" yaml:"scanTime" mapstructure:"scanTime"`
	Duration     time.Duration `json:"duration" yaml:"duration" mapstructure:"duration"`
	SkippedCount int           `json:"skippedCount" yaml:"skippedCount" mapstructure:"skippedCount"`
	Skipped      []SkippedPath `json:"skipped" yaml:"skipped" mapstructure:"skipped"`
	Warnings     int           `json:"warnings" yaml:"warnings" mapstructure:"warnings"`
	Canceled     bool          `json:"canceled" yaml:"canceled" mapstructure:"canceled"`
}

// Consistent reports whether the totals match the items.
func (result *ScanResult) Consistent() bool {
	var size int64
	var count int
	for _, item := range result.Items {
		size += item.Size
		count += item.FileCount
	}
	return size == result.TotalSize && count == result.TotalCount
}

// ItemsOfType returns copies of the items tagged with ruleName.
func (result *ScanResult) ItemsOfType(ruleName string) []ScanItem {
	items := make([]ScanItem, 0)
	for _, item := range result.Items {
		if item.Type == ruleName {
			items = append(items, item)
		}
	}
	return items
}

type ScanProgress struct {
	CurrentPath  string `json:"currentPath"`
	ScannedCount int    `json:"scannedCount"`
	ItemsFound   int    `json:"itemsFound"`
	TotalSize    int64  `json:"totalSize"`
	IsScanning   bool   `json:"isScanning"`
	Progress     int    `json:"progress"`
	ErrMessage   string `json:"errMessage,omitempty"`
}

type CleanProgress struct {
	CurrentPath  string   `json:"currentPath"`
	CleanedCount int      `json:"cleanedCount"`
	TotalCount   int      `json:"totalCount"`
	CleanedSize  int64    `json:"cleanedSize"`
	IsCleaning   bool     `json:"isCleaning"`
	Progress     int      `json:"progress"`
	FailedItems  []string `json:"failedItems"`
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	return append([]string{}, values...)
}
