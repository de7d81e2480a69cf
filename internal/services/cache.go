package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/xiaoquanidea/fast-clean-x/internal/domain"
)

const cacheVersion = 1
const maxCacheBytes = 50 * 1024 * 1024

var ErrNoCachedResult = errors.New("no cached scan result")

type cacheFile struct {
	Version int                `json:"version"`
	Result  *domain.ScanResult `json:"result"`
}

// ResultStore keeps the last scan result on disk so a later clean can use it.
type ResultStore struct {
	mu   sync.Mutex
	path string
}

func NewResultStore(path string) *ResultStore {
	return &ResultStore{path: path}
}

// DefaultResultStore stores under the user cache dir. The store is disabled when that dir is unknown.
func DefaultResultStore() *ResultStore {
	path, err := cacheFilePath()
	if err != nil {
		path = ""
	}
	return NewResultStore(path)
}

func cacheFilePath() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "fast-clean-x", "last-scan.json"), nil
}

func (store *ResultStore) Path() string {
	return store.path
}

func (store *ResultStore) Save(result *domain.ScanResult) error {
	if store.path == "" || result == nil {
		return nil
	}
	store.mu.Lock()
	defer store.mu.Unlock()

	data, err := json.Marshal(cacheFile{Version: cacheVersion, Result: result})
	if err != nil {
		return err
	}
	if len(data) > maxCacheBytes {
		return fmt.Errorf("scan result too large to cache (%s)", domain.FormatSize(int64(len(data))))
	}
	if err := os.MkdirAll(filepath.Dir(store.path), 0o755); err != nil {
		return err
	}
	tmp := store.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, store.path)
}

func (store *ResultStore) Load() (*domain.ScanResult, error) {
	if store.path == "" {
		return nil, ErrNoCachedResult
	}
	store.mu.Lock()
	defer store.mu.Unlock()

	info, err := os.Stat(store.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoCachedResult
		}
		return nil, err
	}
	if info.Size() > maxCacheBytes {
		return nil, fmt.Errorf("cache too large")
	}
	data, err := os.ReadFile(store.path)
	if err != nil {
		return nil, err
	}
	var cached cacheFile
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}
	if cached.Version != cacheVersion || cached.Result == nil {
		return nil, ErrNoCachedResult
	}
	return cached.Result, nil
}
