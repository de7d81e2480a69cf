package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/xiaoquanidea/fast-clean-x/internal/domain"
	"github.com/xiaoquanidea/fast-clean-x/internal/rules"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	manager := NewManager(nil, filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.NoError(t, manager.Load())

	config := manager.Snapshot()
	assert.Empty(t, config.ScanPaths)
	assert.Equal(t, len(domain.DefaultScanRules()), len(config.ScanRules))
	assert.Equal(t, domain.DefaultGlobalPathExcludes(), config.GlobalPathExcludes)
	assert.True(t, manager.Settings().SafeMode)
	assert.Equal(t, "delete", manager.Settings().CleanMode)
}

func TestLoadMergesWithDefaults(t *testing.T) {
	scanDir := t.TempDir()
	path := writeConfig(t, `
scanPaths:
  - `+scanDir+`
  - `+scanDir+`
ignorePatterns: [".git", "**/fixtures"]
lastScanTime: 2024-03-01T10:00:00Z
scanRules:
  - name: Node.js
    enabled: false
  - name: Terraform
    description: provider caches
    targetDirs: [".terraform"]
    enabled: true
settings:
  workers: 3
  clean_mode: trash
  trash_dir: /tmp/fastclean-trash
`)
	manager := NewManager(nil, path, nil)
	require.NoError(t, manager.Load())

	config := manager.Snapshot()
	assert.Equal(t, []string{scanDir}, config.ScanPaths)
	assert.Equal(t, []string{".git", "**/fixtures"}, config.IgnorePatterns)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), config.LastScanTime.UTC())

	byName := map[string]domain.ScanRule{}
	for _, rule := range config.ScanRules {
		byName[rule.Name] = rule
	}
	require.Contains(t, byName, "Node.js")
	assert.False(t, byName["Node.js"].Enabled)
	assert.Contains(t, byName["Node.js"].TargetDirs, "node_modules")
	require.Contains(t, byName, "Terraform")
	assert.Equal(t, []string{".terraform"}, byName["Terraform"].TargetDirs)

	settings := manager.Settings()
	assert.Equal(t, 3, settings.Workers)
	assert.Equal(t, "trash", settings.CleanMode)
	assert.Equal(t, "/tmp/fastclean-trash", settings.TrashDir)
}

func TestLoadRejectsInvalidRules(t *testing.T) {
	path := writeConfig(t, `
scanRules:
  - name: broken
    targetDirs: ["a/b"]
    enabled: true
`)
	manager := NewManager(nil, path, nil)
	err := manager.Load()
	assert.ErrorIs(t, err, rules.ErrInvalidRule)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	path := writeConfig(t, "settings:\n  clean_mode: shred\n")
	manager := NewManager(nil, path, nil)
	assert.Error(t, manager.Load())
}

func TestEnvironmentOverridesSettings(t *testing.T) {
	t.Setenv("FASTCLEAN_SETTINGS_WORKERS", "7")
	manager := NewManager(nil, filepath.Join(t.TempDir(), "config.yaml"), nil)
	require.NoError(t, manager.Load())
	assert.Equal(t, 7, manager.Settings().Workers)
}

func TestFlagsOverrideSettings(t *testing.T) {
	v := NewViper()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(flags)
	require.NoError(t, BindFlags(v, flags))
	require.NoError(t, flags.Parse([]string{"--workers", "2", "--safe-mode=false"}))

	manager := NewManager(v, filepath.Join(t.TempDir(), "config.yaml"), nil)
	require.NoError(t, manager.Load())
	assert.Equal(t, 2, manager.Settings().Workers)
	assert.False(t, manager.Settings().SafeMode)
}

func TestMutatorsPersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	manager := NewManager(nil, path, nil)
	require.NoError(t, manager.Load())

	scanDir := t.TempDir()
	require.NoError(t, manager.AddScanPath(scanDir))
	require.NoError(t, manager.AddScanPath(scanDir))
	require.NoError(t, manager.AddIgnorePattern("**/testdata"))
	require.NoError(t, manager.UpdateScanRule("Go", true))
	require.NoError(t, manager.SetLastScanTime(time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)))

	reloaded := NewManager(nil, path, nil)
	require.NoError(t, reloaded.Load())
	config := reloaded.Snapshot()
	assert.Equal(t, []string{scanDir}, config.ScanPaths)
	assert.Contains(t, config.IgnorePatterns, "**/testdata")
	assert.Equal(t, time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC), config.LastScanTime.UTC())
	for _, rule := range config.ScanRules {
		if rule.Name == "Go" {
			assert.True(t, rule.Enabled)
		}
	}

	require.NoError(t, reloaded.RemoveScanPath(scanDir))
	require.NoError(t, reloaded.RemoveIgnorePattern("**/testdata"))
	assert.Empty(t, reloaded.Snapshot().ScanPaths)
	assert.NotContains(t, reloaded.Snapshot().IgnorePatterns, "**/testdata")
}

func TestSavePreservesSettingsBlock(t *testing.T) {
	path := writeConfig(t, "settings:\n  workers: 5\n  theme: light\n")
	manager := NewManager(nil, path, nil)
	require.NoError(t, manager.Load())
	require.NoError(t, manager.AddIgnorePattern("tmp"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var document map[string]interface{}
	require.NoError(t, yaml.Unmarshal(data, &document))
	settings, ok := document["settings"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 5, settings["workers"])
	assert.Equal(t, "light", settings["theme"])
}

func TestUpdateScanRuleUnknown(t *testing.T) {
	manager := NewManager(nil, "", nil)
	require.NoError(t, manager.Load())
	assert.ErrorIs(t, manager.UpdateScanRule("nope", true), ErrRuleNotFound)
}

func TestSnapshotIsIsolated(t *testing.T) {
	manager := NewManager(nil, "", nil)
	require.NoError(t, manager.Load())

	snapshot := manager.Snapshot()
	snapshot.ScanRules[0].TargetDirs[0] = "mutated"
	snapshot.ScanRules[0].Enabled = !snapshot.ScanRules[0].Enabled

	fresh := manager.Snapshot()
	assert.NotEqual(t, "mutated", fresh.ScanRules[0].TargetDirs[0])
}

func TestUpdateValidates(t *testing.T) {
	manager := NewManager(nil, "", nil)
	require.NoError(t, manager.Load())

	config := manager.Snapshot()
	config.ScanRules = append(config.ScanRules, config.ScanRules[0])
	assert.ErrorIs(t, manager.Update(config), rules.ErrInvalidRule)

	config = manager.Snapshot()
	config.IgnorePatterns = []string{"[unclosed"}
	assert.Error(t, manager.Update(config))
}
