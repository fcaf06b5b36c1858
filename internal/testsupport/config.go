package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"roster/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config rooted at a unique temp dataset tree with
// the input and log directories already created. It defaults common
// fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	root := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DatasetRoot = root
	cfg.Paths.LogDir = filepath.Join(root, "scratch", "logs")

	for _, opt := range opts {
		opt(&cfg)
	}

	for _, dir := range []string{cfg.StudyDataDir(), cfg.OtherDataDir(), cfg.DICOMDir(), cfg.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	return &cfg
}

// WithSessions overrides the session codes on the test config.
func WithSessions(codes ...string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Study.Sessions = codes
	}
}

// WithGroupsKeep overrides the cohort keep list on the test config.
func WithGroupsKeep(groups ...string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Study.GroupsKeep = groups
	}
}

// WithTabularFilenames overrides the study-data file list on the test
// config.
func WithTabularFilenames(names ...string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Inputs.TabularFilenames = names
	}
}
