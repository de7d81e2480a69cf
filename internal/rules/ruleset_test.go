package rules

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaoquanidea/fast-clean-x/internal/domain"
)

func matchedName(t *testing.T, match Match) string {
	t.Helper()
	switch typed := match.(type) {
	case Matched:
		return typed.Rule.Name
	case NoMatch:
		return ""
	default:
		t.Fatalf("unexpected match variant %T", match)
		return ""
	}
}

func TestResolveFirstEnabledRuleWins(t *testing.T) {
	set, err := New([]domain.ScanRule{
		{Name: "first", TargetDirs: []string{"build"}, Enabled: true},
		{Name: "second", TargetDirs: []string{"build", "dist"}, Enabled: true},
	}, nil)
	require.NoError(t, err)

	root := filepath.FromSlash("/proj")
	assert.Equal(t, "first", matchedName(t, set.Resolve(root, filepath.Join(root, "app", "build"))))
	assert.Equal(t, "second", matchedName(t, set.Resolve(root, filepath.Join(root, "app", "dist"))))
	assert.Equal(t, "", matchedName(t, set.Resolve(root, filepath.Join(root, "app", "src"))))
}

func TestResolveSkipsDisabledRules(t *testing.T) {
	set, err := New([]domain.ScanRule{
		{Name: "off", TargetDirs: []string{"build"}, Enabled: false},
		{Name: "on", TargetDirs: []string{"build"}, Enabled: true},
	}, nil)
	require.NoError(t, err)

	root := filepath.FromSlash("/proj")
	assert.Equal(t, "on", matchedName(t, set.Resolve(root, filepath.Join(root, "build"))))
	assert.Equal(t, 1, set.Len())
}

func TestResolveAllDisabledIsNoMatch(t *testing.T) {
	set, err := New([]domain.ScanRule{
		{Name: "node_modules", TargetDirs: []string{"node_modules"}, Enabled: false},
	}, nil)
	require.NoError(t, err)

	root := filepath.FromSlash("/proj")
	_, ok := set.Resolve(root, filepath.Join(root, "app", "node_modules")).(NoMatch)
	assert.True(t, ok)
}

func TestPriorityOrdersStably(t *testing.T) {
	set, err := New([]domain.ScanRule{
		{Name: "low", TargetDirs: []string{"out"}, Enabled: true, Priority: 10},
		{Name: "high-a", TargetDirs: []string{"out"}, Enabled: true, Priority: 50},
		{Name: "high-b", TargetDirs: []string{"out"}, Enabled: true, Priority: 50},
	}, nil)
	require.NoError(t, err)

	root := filepath.FromSlash("/proj")
	candidates := set.Candidates(root, filepath.Join(root, "out"))
	require.Len(t, candidates, 3)
	assert.Equal(t, "high-a", candidates[0].Name)
	assert.Equal(t, "high-b", candidates[1].Name)
	assert.Equal(t, "low", candidates[2].Name)
}

func TestGlobalExcludes(t *testing.T) {
	set, err := New([]domain.ScanRule{
		{Name: "Node.js", TargetDirs: []string{"node_modules", "build"}, Enabled: true, ExcludeFromGlobal: true},
		{Name: "Gradle", TargetDirs: []string{"build"}, Enabled: true},
	}, []string{"node_modules", "vendor"})
	require.NoError(t, err)

	root := filepath.FromSlash("/proj")

	tests := []struct {
		name     string
		path     string
		expected []string
	}{
		{"plain build", filepath.Join(root, "app", "build"), []string{"Node.js", "Gradle"}},
		{"own target exempt", filepath.Join(root, "app", "node_modules"), []string{"Node.js"}},
		{"inside node_modules", filepath.Join(root, "node_modules", "pkg", "build"), []string{"Node.js"}},
		{"inside vendor", filepath.Join(root, "vendor", "lib", "build"), nil},
		{"exclude above root ignored", filepath.Join(root, "build"), []string{"Node.js", "Gradle"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var names []string
			for _, rule := range set.Candidates(root, tt.path) {
				names = append(names, rule.Name)
			}
			assert.Equal(t, tt.expected, names)
		})
	}
}

func TestGlobPatternTargets(t *testing.T) {
	set, err := New([]domain.ScanRule{
		{Name: "logs", TargetDirs: []string{"*.log.d", "logs-?"}, Enabled: true},
	}, nil)
	require.NoError(t, err)

	root := filepath.FromSlash("/srv")
	assert.Equal(t, "logs", matchedName(t, set.Resolve(root, filepath.Join(root, "app.log.d"))))
	assert.Equal(t, "logs", matchedName(t, set.Resolve(root, filepath.Join(root, "logs-1"))))
	assert.True(t, set.IsTarget("logs-2"))
	assert.False(t, set.IsTarget("logs"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		rules []domain.ScanRule
		valid bool
	}{
		{"defaults", domain.DefaultScanRules(), true},
		{"empty name", []domain.ScanRule{{Name: " ", TargetDirs: []string{"x"}}}, false},
		{"duplicate", []domain.ScanRule{{Name: "a"}, {Name: "a"}}, false},
		{"empty target", []domain.ScanRule{{Name: "a", TargetDirs: []string{""}}}, false},
		{"nested target", []domain.ScanRule{{Name: "a", TargetDirs: []string{"a/b"}}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.rules)
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, ErrInvalidRule), "got %v", err)
		})
	}
}

func TestNewRejectsInvalidRules(t *testing.T) {
	_, err := New([]domain.ScanRule{{Name: ""}}, nil)
	assert.ErrorIs(t, err, ErrInvalidRule)
}
