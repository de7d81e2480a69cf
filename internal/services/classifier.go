package services

import (
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/xiaoquanidea/fast-clean-x/internal/domain"
	"github.com/xiaoquanidea/fast-clean-x/internal/rules"
)

const defaultMarkerCacheSize = 4096

// Draft is a classified directory waiting to be measured.
type Draft struct {
	RootIndex   int
	Seq         int
	Path        string
	ProjectPath string
	ProjectName string
	Type        string
}

type Classifier struct {
	rules   *rules.RuleSet
	markers *lru.Cache[string, bool]
	logger  *zap.Logger
}

func NewClassifier(set *rules.RuleSet, cacheSize int, logger *zap.Logger) (*Classifier, error) {
	if cacheSize <= 0 {
		cacheSize = defaultMarkerCacheSize
	}
	markers, err := lru.New[string, bool](cacheSize)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{rules: set, markers: markers, logger: logger}, nil
}

// Classify reports whether dir is an artifact directory under root. Rules
// requiring markers only match when a marker exists between dir and root.
func (classifier *Classifier) Classify(root, dir string) (Draft, bool) {
	for _, rule := range classifier.rules.Candidates(root, dir) {
		if rule.RequireMarkers && len(rule.ProjectMarkers) > 0 {
			if classifier.nearestWith(root, dir, rule.ProjectMarkers) == "" {
				classifier.logger.Debug("Rule markers not found",
					zap.String("path", dir),
					zap.String("rule", rule.Name))
				continue
			}
		}
		projectPath := classifier.projectRoot(root, dir, rule)
		return Draft{
			Path:        dir,
			ProjectPath: projectPath,
			ProjectName: filepath.Base(projectPath),
			Type:        rule.Name,
		}, true
	}
	return Draft{}, false
}

func (classifier *Classifier) projectRoot(root, dir string, rule domain.ScanRule) string {
	if project := classifier.nearestWith(root, dir, rule.ProjectMarkers); project != "" {
		return project
	}
	if project := classifier.nearestWith(root, dir, domain.GenericProjectMarkers); project != "" {
		return project
	}
	return filepath.Dir(dir)
}

// nearestWith walks from the parent of dir up to root inclusive and returns
// the first directory holding one of markers.
func (classifier *Classifier) nearestWith(root, dir string, markers []string) string {
	if len(markers) == 0 {
		return ""
	}
	current := filepath.Dir(dir)
	for isWithin(root, current) {
		for _, marker := range markers {
			if classifier.hasMarker(current, marker) {
				return current
			}
		}
		if current == root {
			break
		}
		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}
	return ""
}

func (classifier *Classifier) hasMarker(dir, marker string) bool {
	key := dir + "\x00" + marker
	if found, ok := classifier.markers.Get(key); ok {
		return found
	}
	_, err := os.Lstat(filepath.Join(dir, marker))
	found := err == nil
	classifier.markers.Add(key, found)
	return found
}
