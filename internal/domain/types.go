package domain

type SortMode string

const (
	SortBySize SortMode = "size"
	SortByName SortMode = "name"
	SortByMod  SortMode = "mod"
)

// NextSortMode cycles size -> name -> mod -> size.
func NextSortMode(mode SortMode) SortMode {
	switch mode {
	case SortBySize:
		return SortByName
	case SortByName:
		return SortByMod
	default:
		return SortBySize
	}
}

// ParseSortMode returns fallback for unknown values.
func ParseSortMode(value string, fallback SortMode) SortMode {
	switch SortMode(value) {
	case SortBySize, SortByName, SortByMod:
		return SortMode(value)
	default:
		return fallback
	}
}

type CleanMode string

const (
	CleanDelete CleanMode = "delete"
	CleanTrash  CleanMode = "trash"
)

func ParseCleanMode(value string) (CleanMode, bool) {
	switch CleanMode(value) {
	case CleanDelete, CleanTrash:
		return CleanMode(value), true
	default:
		return "", false
	}
}
