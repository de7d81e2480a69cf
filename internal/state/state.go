package state

import (
	"sort"
	"strings"

	"github.com/xiaoquanidea/fast-clean-x/internal/config"
	"github.com/xiaoquanidea/fast-clean-x/internal/domain"
)

type Preferences struct {
	SafeMode  bool
	SortMode  domain.SortMode
	CleanMode domain.CleanMode
	Theme     string
}

// State is the interactive view over the last scan result: cursor,
// selection, sort order and filters. It owns its copy of the items.
type State struct {
	ScanID      string
	ScanPaths   []string
	Items       []domain.ScanItem
	Skipped     []domain.SkippedPath
	Canceled    bool
	Cursor      int
	Selected    map[string]bool
	Prefs       Preferences
	FilterType  string
	SearchQuery string
}

func NewState(settings config.Settings) *State {
	cleanMode, ok := domain.ParseCleanMode(settings.CleanMode)
	if !ok {
		cleanMode = domain.CleanDelete
	}
	return &State{
		Selected: make(map[string]bool),
		Prefs: Preferences{
			SafeMode:  settings.SafeMode,
			SortMode:  domain.ParseSortMode(settings.SortMode, domain.SortBySize),
			CleanMode: cleanMode,
			Theme:     settings.Theme,
		},
	}
}

// SetResult replaces the listing. Selections survive for paths that are
// still present; items flagged Selected in the result are added.
func (appState *State) SetResult(result *domain.ScanResult) {
	if result == nil {
		appState.ScanID = ""
		appState.ScanPaths = nil
		appState.Items = nil
		appState.Skipped = nil
		appState.Canceled = false
		appState.Selected = make(map[string]bool)
		appState.Cursor = 0
		return
	}

	appState.ScanID = result.ID
	appState.ScanPaths = append([]string{}, result.ScanPaths...)
	appState.Items = append([]domain.ScanItem{}, result.Items...)
	appState.Skipped = append([]domain.SkippedPath{}, result.Skipped...)
	appState.Canceled = result.Canceled

	filteredSelected := make(map[string]bool, len(appState.Selected))
	for _, item := range appState.Items {
		if appState.Selected[item.Path] || item.Selected {
			filteredSelected[item.Path] = true
		}
	}
	appState.Selected = filteredSelected
	appState.clampCursor()
}

func (appState *State) HasResult() bool {
	return appState.ScanID != ""
}

// VisibleItems applies the type filter and search query, then sorts.
func (appState *State) VisibleItems() []domain.ScanItem {
	visible := make([]domain.ScanItem, 0, len(appState.Items))
	for _, item := range appState.Items {
		if !appState.itemMatches(item) {
			continue
		}
		item.Selected = appState.Selected[item.Path]
		visible = append(visible, item)
	}
	if len(visible) < 2 {
		return visible
	}
	less := func(i, j int) bool {
		switch appState.Prefs.SortMode {
		case domain.SortByName:
			if visible[i].ProjectName != visible[j].ProjectName {
				return visible[i].ProjectName < visible[j].ProjectName
			}
			return visible[i].Path < visible[j].Path
		case domain.SortByMod:
			return visible[i].LastModified.After(visible[j].LastModified)
		default:
			return visible[i].Size > visible[j].Size
		}
	}
	sort.SliceStable(visible, less)
	return visible
}

func (appState *State) CurrentItem() *domain.ScanItem {
	visible := appState.VisibleItems()
	if len(visible) == 0 || appState.Cursor < 0 || appState.Cursor >= len(visible) {
		return nil
	}
	return &visible[appState.Cursor]
}

func (appState *State) MoveCursor(delta int) {
	appState.Cursor += delta
	appState.clampCursor()
}

func (appState *State) clampCursor() {
	count := len(appState.VisibleItems())
	if appState.Cursor >= count {
		appState.Cursor = count - 1
	}
	if appState.Cursor < 0 {
		appState.Cursor = 0
	}
}

func (appState *State) ToggleSelection(path string) {
	if path == "" || !appState.hasItem(path) {
		return
	}
	appState.Selected[path] = !appState.Selected[path]
	if !appState.Selected[path] {
		delete(appState.Selected, path)
	}
}

func (appState *State) ToggleCurrent() {
	if item := appState.CurrentItem(); item != nil {
		appState.ToggleSelection(item.Path)
	}
}

// SelectAll selects every visible item, or clears them when all are
// already selected.
func (appState *State) SelectAll() {
	visible := appState.VisibleItems()
	allSelected := len(visible) > 0
	for _, item := range visible {
		if !appState.Selected[item.Path] {
			allSelected = false
			break
		}
	}
	for _, item := range visible {
		if allSelected {
			delete(appState.Selected, item.Path)
		} else {
			appState.Selected[item.Path] = true
		}
	}
}

// SelectType selects all items of one rule and returns how many matched.
func (appState *State) SelectType(ruleName string) int {
	matched := 0
	for _, item := range appState.Items {
		if item.Type == ruleName {
			appState.Selected[item.Path] = true
			matched++
		}
	}
	return matched
}

func (appState *State) ClearSelection() {
	appState.Selected = make(map[string]bool)
}

func (appState *State) SelectionSummary() (int, int64) {
	var total int64
	count := 0
	for _, item := range appState.Items {
		if appState.Selected[item.Path] {
			count++
			total += item.Size
		}
	}
	return count, total
}

// SelectedItems returns the selection in scan order with Selected set.
func (appState *State) SelectedItems() []domain.ScanItem {
	items := make([]domain.ScanItem, 0, len(appState.Selected))
	for _, item := range appState.Items {
		if appState.Selected[item.Path] {
			item.Selected = true
			items = append(items, item)
		}
	}
	return items
}

// RemoveItems drops cleaned paths from the listing.
func (appState *State) RemoveItems(paths []string) {
	if len(paths) == 0 {
		return
	}
	removed := make(map[string]bool, len(paths))
	for _, path := range paths {
		removed[path] = true
		delete(appState.Selected, path)
	}
	kept := appState.Items[:0]
	for _, item := range appState.Items {
		if !removed[item.Path] {
			kept = append(kept, item)
		}
	}
	appState.Items = kept
	appState.clampCursor()
}

// Totals over the current listing, not the original scan.
func (appState *State) Totals() (int64, int) {
	var size int64
	var files int
	for _, item := range appState.Items {
		size += item.Size
		files += item.FileCount
	}
	return size, files
}

// Types lists rule names present in the listing, in first-seen order.
func (appState *State) Types() []string {
	seen := map[string]bool{}
	types := []string{}
	for _, item := range appState.Items {
		if !seen[item.Type] {
			seen[item.Type] = true
			types = append(types, item.Type)
		}
	}
	return types
}

func (appState *State) ToggleSortMode() domain.SortMode {
	appState.Prefs.SortMode = domain.NextSortMode(appState.Prefs.SortMode)
	return appState.Prefs.SortMode
}

func (appState *State) ToggleSafeMode() bool {
	appState.Prefs.SafeMode = !appState.Prefs.SafeMode
	return appState.Prefs.SafeMode
}

func (appState *State) ToggleCleanMode() domain.CleanMode {
	if appState.Prefs.CleanMode == domain.CleanTrash {
		appState.Prefs.CleanMode = domain.CleanDelete
	} else {
		appState.Prefs.CleanMode = domain.CleanTrash
	}
	return appState.Prefs.CleanMode
}

// CycleTypeFilter steps through "" and each present type.
func (appState *State) CycleTypeFilter() string {
	types := appState.Types()
	next := ""
	if appState.FilterType == "" && len(types) > 0 {
		next = types[0]
	} else {
		for index, name := range types {
			if name == appState.FilterType && index+1 < len(types) {
				next = types[index+1]
				break
			}
		}
	}
	appState.FilterType = next
	appState.Cursor = 0
	return next
}

func (appState *State) ClearFilters() {
	appState.FilterType = ""
	appState.SearchQuery = ""
	appState.clampCursor()
}

func (appState *State) itemMatches(item domain.ScanItem) bool {
	if appState.FilterType != "" && item.Type != appState.FilterType {
		return false
	}
	if appState.SearchQuery != "" {
		query := strings.ToLower(appState.SearchQuery)
		if !strings.Contains(strings.ToLower(item.Path), query) &&
			!strings.Contains(strings.ToLower(item.ProjectName), query) {
			return false
		}
	}
	return true
}

func (appState *State) hasItem(path string) bool {
	for _, item := range appState.Items {
		if item.Path == path {
			return true
		}
	}
	return false
}
