// Package rules resolves directory names to scan rules.
//
// A RuleSet is built once per scan from a Config snapshot and is read-only
// afterwards, so it can be shared by every walker goroutine.
package rules

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar"

	"github.com/xiaoquanidea/fast-clean-x/internal/domain"
)

var ErrInvalidRule = errors.New("invalid scan rule")

// Match is either Matched or NoMatch.
type Match interface {
	isMatch()
}

type Matched struct {
	Rule domain.ScanRule
}

type NoMatch struct{}

func (Matched) isMatch() {}
func (NoMatch) isMatch() {}

type RuleSet struct {
	rules    []domain.ScanRule
	exact    map[string][]int
	patterns []targetPattern
	excludes map[string]struct{}
}

type targetPattern struct {
	pattern string
	index   int
}

// Validate checks the invariants a rule list must hold before it is saved or scanned.
func Validate(rules []domain.ScanRule) error {
	seen := make(map[string]struct{}, len(rules))
	for index, rule := range rules {
		name := strings.TrimSpace(rule.Name)
		if name == "" {
			return fmt.Errorf("%w: rule #%d has an empty name", ErrInvalidRule, index+1)
		}
		if _, ok := seen[name]; ok {
			return fmt.Errorf("%w: duplicate rule name %q", ErrInvalidRule, name)
		}
		seen[name] = struct{}{}
		for _, target := range rule.TargetDirs {
			if strings.TrimSpace(target) == "" {
				return fmt.Errorf("%w: rule %q has an empty target dir", ErrInvalidRule, name)
			}
			if strings.ContainsAny(target, `/\`) {
				return fmt.Errorf("%w: rule %q target %q must be a single directory name", ErrInvalidRule, name, target)
			}
			if _, err := doublestar.Match(target, "probe"); err != nil {
				return fmt.Errorf("%w: rule %q target %q: %v", ErrInvalidRule, name, target, err)
			}
		}
	}
	return nil
}

// New validates rules, drops disabled ones and orders the rest by priority.
// Equal priorities keep their configured order.
func New(rules []domain.ScanRule, globalExcludes []string) (*RuleSet, error) {
	if err := Validate(rules); err != nil {
		return nil, err
	}
	enabled := make([]domain.ScanRule, 0, len(rules))
	for _, rule := range rules {
		if rule.Enabled {
			enabled = append(enabled, rule.Clone())
		}
	}
	sort.SliceStable(enabled, func(i, j int) bool {
		return enabled[i].Priority > enabled[j].Priority
	})

	set := &RuleSet{
		rules:    enabled,
		exact:    make(map[string][]int),
		excludes: make(map[string]struct{}, len(globalExcludes)),
	}
	for index, rule := range enabled {
		for _, target := range rule.TargetDirs {
			if hasMeta(target) {
				set.patterns = append(set.patterns, targetPattern{pattern: target, index: index})
				continue
			}
			set.exact[target] = appendUnique(set.exact[target], index)
		}
	}
	for _, exclude := range globalExcludes {
		exclude = strings.TrimSpace(exclude)
		if exclude != "" {
			set.excludes[exclude] = struct{}{}
		}
	}
	return set, nil
}

func (set *RuleSet) Len() int {
	return len(set.rules)
}

// Rules returns the enabled rules in resolution order.
func (set *RuleSet) Rules() []domain.ScanRule {
	out := make([]domain.ScanRule, len(set.rules))
	for index, rule := range set.rules {
		out[index] = rule.Clone()
	}
	return out
}

// Resolve returns the first rule matching the terminal segment of path.
func (set *RuleSet) Resolve(root, path string) Match {
	candidates := set.candidateIndexes(root, path)
	if len(candidates) == 0 {
		return NoMatch{}
	}
	return Matched{Rule: set.rules[candidates[0]].Clone()}
}

// Candidates returns every matching rule in resolution order.
func (set *RuleSet) Candidates(root, path string) []domain.ScanRule {
	indexes := set.candidateIndexes(root, path)
	if len(indexes) == 0 {
		return nil
	}
	out := make([]domain.ScanRule, 0, len(indexes))
	for _, index := range indexes {
		out = append(out, set.rules[index].Clone())
	}
	return out
}

// IsTarget reports whether name is a target dir of any enabled rule.
func (set *RuleSet) IsTarget(name string) bool {
	return len(set.targetIndexes(name)) > 0
}

func (set *RuleSet) candidateIndexes(root, path string) []int {
	name := filepath.Base(path)
	indexes := set.targetIndexes(name)
	if len(indexes) == 0 {
		return nil
	}
	segments := relativeSegments(root, path)
	out := indexes[:0:0]
	for _, index := range indexes {
		if set.excludedByGlobal(set.rules[index], segments) {
			continue
		}
		out = append(out, index)
	}
	return out
}

func (set *RuleSet) targetIndexes(name string) []int {
	var indexes []int
	for _, index := range set.exact[name] {
		indexes = appendUnique(indexes, index)
	}
	for _, pattern := range set.patterns {
		if ok, err := doublestar.Match(pattern.pattern, name); err == nil && ok {
			indexes = appendUnique(indexes, pattern.index)
		}
	}
	sort.Ints(indexes)
	return indexes
}

// excludedByGlobal discards matches whose path below the root crosses a global
// exclude. Exempt rules ignore only excludes equal to one of their own targets.
func (set *RuleSet) excludedByGlobal(rule domain.ScanRule, segments []string) bool {
	if len(set.excludes) == 0 {
		return false
	}
	for _, segment := range segments {
		if _, ok := set.excludes[segment]; !ok {
			continue
		}
		if rule.ExcludeFromGlobal && isOwnTarget(rule, segment) {
			continue
		}
		return true
	}
	return false
}

func isOwnTarget(rule domain.ScanRule, name string) bool {
	for _, target := range rule.TargetDirs {
		if target == name {
			return true
		}
	}
	return false
}

func relativeSegments(root, path string) []string {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return []string{filepath.Base(path)}
	}
	return strings.Split(rel, string(filepath.Separator))
}

func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, `*?[{`)
}

func appendUnique(values []int, value int) []int {
	for _, existing := range values {
		if existing == value {
			return values
		}
	}
	return append(values, value)
}
