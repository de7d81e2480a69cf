package services

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

func progressNonBlocking[T any](ch chan T, msg T) {
	if ch == nil {
		return
	}
	select {
	case ch <- msg:
	default:
	}
}

func drain[T any](ch chan T) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func isWithin(root, path string) bool {
	if root == path {
		return true
	}
	rootWithSep := root
	if !strings.HasSuffix(root, string(filepath.Separator)) {
		rootWithSep += string(filepath.Separator)
	}
	return strings.HasPrefix(path, rootWithSep)
}

func cleanPath(path string) string {
	if path == "" {
		return path
	}
	clean := filepath.Clean(path)
	abs, err := filepath.Abs(clean)
	if err != nil {
		return clean
	}
	return abs
}

func isPermissionErr(err error) bool {
	return errors.Is(err, os.ErrPermission)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func percent(done, total int) int {
	if total <= 0 {
		return 0
	}
	value := done * 100 / total
	if value > 100 {
		return 100
	}
	return value
}
