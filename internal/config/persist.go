package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/xiaoquanidea/fast-clean-x/internal/domain"
	"github.com/xiaoquanidea/fast-clean-x/internal/rules"
)

var ErrRuleNotFound = errors.New("scan rule not found")

// Manager owns the persisted Config. Readers get deep copies.
type Manager struct {
	mu       sync.RWMutex
	viper    *viper.Viper
	path     string
	config   domain.Config
	settings Settings
	logger   *zap.Logger
}

type fileConfig struct {
	ScanPaths          *[]string         `mapstructure:"scanPaths"`
	IgnorePatterns     *[]string         `mapstructure:"ignorePatterns"`
	GlobalPathExcludes *[]string         `mapstructure:"globalPathExcludes"`
	ScanRules          []domain.ScanRule `mapstructure:"scanRules"`
	LastScanTime       *time.Time        `mapstructure:"lastScanTime"`
	Settings           Settings          `mapstructure:"settings"`
}

type fileDocument struct {
	domain.Config `yaml:",inline"`
	Settings      map[string]interface{} `yaml:"settings,omitempty"`
}

// NewManager uses v for settings so that bound flags and env apply. A nil v gets NewViper().
func NewManager(v *viper.Viper, path string, logger *zap.Logger) *Manager {
	if v == nil {
		v = NewViper()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		viper:    v,
		path:     path,
		config:   domain.DefaultConfig(),
		settings: DefaultSettings(),
		logger:   logger,
	}
}

// SetLogger swaps the logger once the log level is known.
func (manager *Manager) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	manager.mu.Lock()
	manager.logger = logger
	manager.mu.Unlock()
}

func (manager *Manager) Path() string {
	return manager.path
}

// Load reads the config file if present and merges it over the defaults.
// A missing file is not an error.
func (manager *Manager) Load() error {
	manager.mu.Lock()
	defer manager.mu.Unlock()

	v := manager.viper
	if manager.path != "" {
		v.SetConfigFile(manager.path)
		if err := v.ReadInConfig(); err != nil {
			if !errors.Is(err, os.ErrNotExist) && !isConfigNotFound(err) {
				return fmt.Errorf("failed to read config %s: %w", manager.path, err)
			}
			manager.logger.Debug("Config file not found, using defaults", zap.String("path", manager.path))
		}
	}

	var stored fileConfig
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeHookFunc(time.RFC3339),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&stored, hook); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	merged := mergeConfig(domain.DefaultConfig(), stored)
	normalized, err := normalizeConfig(merged)
	if err != nil {
		return err
	}
	if err := validateConfig(normalized); err != nil {
		return err
	}
	if err := stored.Settings.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	manager.config = normalized
	manager.settings = stored.Settings
	manager.logger.Debug("Loaded config",
		zap.String("path", manager.path),
		zap.Int("scan_paths", len(normalized.ScanPaths)),
		zap.Int("rules", len(normalized.ScanRules)))
	return nil
}

func isConfigNotFound(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound)
}

// mergeConfig keeps the user's paths, patterns, timestamps and rule switches
// while default rules keep their shipped definitions. User-defined rules are appended.
func mergeConfig(base domain.Config, stored fileConfig) domain.Config {
	merged := base
	if stored.ScanPaths != nil {
		merged.ScanPaths = append([]string{}, (*stored.ScanPaths)...)
	}
	if stored.IgnorePatterns != nil {
		merged.IgnorePatterns = append([]string{}, (*stored.IgnorePatterns)...)
	}
	if stored.GlobalPathExcludes != nil && len(*stored.GlobalPathExcludes) > 0 {
		merged.GlobalPathExcludes = append([]string{}, (*stored.GlobalPathExcludes)...)
	}
	if stored.LastScanTime != nil {
		merged.LastScanTime = *stored.LastScanTime
	}

	known := make(map[string]int, len(merged.ScanRules))
	for index, rule := range merged.ScanRules {
		known[rule.Name] = index
	}
	for _, rule := range stored.ScanRules {
		if index, ok := known[rule.Name]; ok {
			merged.ScanRules[index].Enabled = rule.Enabled
			continue
		}
		merged.ScanRules = append(merged.ScanRules, rule.Clone())
		known[rule.Name] = len(merged.ScanRules) - 1
	}
	return merged
}

func normalizeConfig(config domain.Config) (domain.Config, error) {
	paths := make([]string, 0, len(config.ScanPaths))
	seen := make(map[string]struct{}, len(config.ScanPaths))
	for _, path := range config.ScanPaths {
		if strings.TrimSpace(path) == "" {
			continue
		}
		clean, err := cleanPath(path)
		if err != nil {
			return config, fmt.Errorf("invalid scan path %q: %w", path, err)
		}
		if _, ok := seen[clean]; ok {
			continue
		}
		seen[clean] = struct{}{}
		paths = append(paths, clean)
	}
	config.ScanPaths = paths
	config.IgnorePatterns = dedupe(config.IgnorePatterns)
	config.GlobalPathExcludes = dedupe(config.GlobalPathExcludes)
	return config, nil
}

// validateConfig rejects invariant violations before they can reach a scan.
func validateConfig(config domain.Config) error {
	if err := rules.Validate(config.ScanRules); err != nil {
		return err
	}
	for _, pattern := range config.IgnorePatterns {
		if _, err := doublestar.Match(pattern, "probe"); err != nil {
			return fmt.Errorf("invalid ignore pattern %q: %w", pattern, err)
		}
	}
	return nil
}

func (manager *Manager) Save() error {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	return manager.saveLocked()
}

func (manager *Manager) saveLocked() error {
	if manager.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(manager.path), 0o755); err != nil {
		return err
	}

	var existing struct {
		Settings map[string]interface{} `yaml:"settings"`
	}
	if data, err := os.ReadFile(manager.path); err == nil {
		_ = yaml.Unmarshal(data, &existing)
	}

	data, err := yaml.Marshal(fileDocument{Config: manager.config, Settings: existing.Settings})
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(manager.path), ".config-*.yaml")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, manager.path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	manager.logger.Debug("Saved config", zap.String("path", manager.path))
	return nil
}

// Snapshot returns an immutable copy for one scan.
func (manager *Manager) Snapshot() domain.Config {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	return manager.config.Clone()
}

func (manager *Manager) Settings() Settings {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	return manager.settings
}

func (manager *Manager) Update(config domain.Config) error {
	normalized, err := normalizeConfig(config.Clone())
	if err != nil {
		return err
	}
	if err := validateConfig(normalized); err != nil {
		return err
	}
	manager.mu.Lock()
	defer manager.mu.Unlock()
	manager.config = normalized
	return manager.saveLocked()
}

func (manager *Manager) AddScanPath(path string) error {
	clean, err := cleanPath(path)
	if err != nil {
		return err
	}
	manager.mu.Lock()
	defer manager.mu.Unlock()
	for _, existing := range manager.config.ScanPaths {
		if existing == clean {
			return nil
		}
	}
	manager.config.ScanPaths = append(manager.config.ScanPaths, clean)
	return manager.saveLocked()
}

func (manager *Manager) RemoveScanPath(path string) error {
	clean, err := cleanPath(path)
	if err != nil {
		return err
	}
	manager.mu.Lock()
	defer manager.mu.Unlock()
	manager.config.ScanPaths = without(manager.config.ScanPaths, clean)
	return manager.saveLocked()
}

func (manager *Manager) AddIgnorePattern(pattern string) error {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return fmt.Errorf("ignore pattern is empty")
	}
	if _, err := doublestar.Match(pattern, "probe"); err != nil {
		return fmt.Errorf("invalid ignore pattern %q: %w", pattern, err)
	}
	manager.mu.Lock()
	defer manager.mu.Unlock()
	for _, existing := range manager.config.IgnorePatterns {
		if existing == pattern {
			return nil
		}
	}
	manager.config.IgnorePatterns = append(manager.config.IgnorePatterns, pattern)
	return manager.saveLocked()
}

func (manager *Manager) RemoveIgnorePattern(pattern string) error {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	manager.config.IgnorePatterns = without(manager.config.IgnorePatterns, strings.TrimSpace(pattern))
	return manager.saveLocked()
}

func (manager *Manager) UpdateScanRule(ruleName string, enabled bool) error {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	for index := range manager.config.ScanRules {
		if manager.config.ScanRules[index].Name == ruleName {
			manager.config.ScanRules[index].Enabled = enabled
			return manager.saveLocked()
		}
	}
	return fmt.Errorf("%w: %s", ErrRuleNotFound, ruleName)
}

func (manager *Manager) EnabledRules() []domain.ScanRule {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	return manager.config.EnabledRules()
}

func (manager *Manager) SetLastScanTime(scanTime time.Time) error {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	manager.config.LastScanTime = scanTime
	return manager.saveLocked()
}

func cleanPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(path, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.Clean(abs), nil
}

func without(values []string, target string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if value != target {
			out = append(out, value)
		}
	}
	return out
}

func dedupe(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
