package domain

import (
	"time"

	"github.com/dustin/go-humanize"
)

// FormatSize renders a byte count with binary units, e.g. "4.8 MiB".
func FormatSize(size int64) string {
	if size < 0 {
		return "-" + humanize.IBytes(uint64(-size))
	}
	return humanize.IBytes(uint64(size))
}

// ParseSize accepts values like "500MB" or "1.5GiB".
func ParseSize(value string) (int64, error) {
	bytes, err := humanize.ParseBytes(value)
	if err != nil {
		return 0, err
	}
	return int64(bytes), nil
}

func FormatAge(modified time.Time) string {
	if modified.IsZero() {
		return "-"
	}
	return humanize.Time(modified)
}
