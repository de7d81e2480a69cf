package domain

func DefaultScanRules() []ScanRule {
	return []ScanRule{
		{
			Name:              "Node.js",
			Description:       "Node.js dependencies and build output",
			TargetDirs:        []string{"node_modules", "dist", "build", ".next", ".nuxt", "out", ".output", ".vite", ".turbo", ".cache", ".parcel-cache", "coverage", ".nyc_output"},
			Enabled:           true,
			Priority:          100,
			ProjectMarkers:    []string{"package.json"},
			RequireMarkers:    true,
			ExcludeFromGlobal: true,
		},
		{
			Name:              "Python",
			Description:       "Python caches and virtual environments",
			TargetDirs:        []string{"__pycache__", ".venv", "venv", ".pytest_cache", ".mypy_cache"},
			Enabled:           true,
			Priority:          90,
			ProjectMarkers:    []string{"requirements.txt", "setup.py", "pyproject.toml", "Pipfile"},
			RequireMarkers:    false,
			ExcludeFromGlobal: true,
		},
		{
			Name:           "Maven",
			Description:    "Java Maven build output",
			TargetDirs:     []string{"target"},
			Enabled:        true,
			Priority:       80,
			ProjectMarkers: []string{"pom.xml"},
			RequireMarkers: true,
		},
		{
			Name:           "Gradle",
			Description:    "Java Gradle build output",
			TargetDirs:     []string{"build", ".gradle"},
			Enabled:        true,
			Priority:       80,
			ProjectMarkers: []string{"build.gradle", "build.gradle.kts", "settings.gradle", "settings.gradle.kts"},
			RequireMarkers: true,
		},
		{
			Name:           "Rust",
			Description:    "Rust build output",
			TargetDirs:     []string{"target"},
			Enabled:        true,
			Priority:       80,
			ProjectMarkers: []string{"Cargo.toml"},
			RequireMarkers: true,
		},
		{
			Name:              "Go",
			Description:       "Go vendor directories",
			TargetDirs:        []string{"vendor"},
			Enabled:           false,
			Priority:          70,
			ProjectMarkers:    []string{"go.mod"},
			RequireMarkers:    true,
			ExcludeFromGlobal: true,
		},
		{
			Name:           "Java IDE",
			Description:    "Java IDE output directories",
			TargetDirs:     []string{"out"},
			Enabled:        true,
			Priority:       60,
			ProjectMarkers: []string{".idea", "pom.xml", "build.gradle", "build.gradle.kts"},
			RequireMarkers: false,
		},
	}
}

// DefaultGlobalPathExcludes are dependency trees whose nested build dirs belong to third parties.
func DefaultGlobalPathExcludes() []string {
	return []string{"node_modules", "vendor", ".venv", "venv"}
}

func DefaultConfig() Config {
	return Config{
		ScanPaths:          []string{},
		IgnorePatterns:     []string{},
		GlobalPathExcludes: DefaultGlobalPathExcludes(),
		ScanRules:          DefaultScanRules(),
	}
}

// GenericProjectMarkers identify a project root regardless of rule.
var GenericProjectMarkers = []string{
	".git",
	".svn",
	"go.mod",
	"package.json",
	"pom.xml",
	"build.gradle",
	"build.gradle.kts",
	"settings.gradle",
	"settings.gradle.kts",
	"Cargo.toml",
	"pyproject.toml",
	"setup.py",
}
