package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"roster/internal/fileutil"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the dataset location and log directory.
type Paths struct {
	DatasetRoot string `toml:"dataset_root"`
	LogDir      string `toml:"log_dir"`
}

// Study contains the session and cohort selection for the dataset.
type Study struct {
	Sessions   []string `toml:"sessions"`
	GroupsKeep []string `toml:"groups_keep"`
}

// Inputs names the study-data files consumed by the pipelines. All
// filenames are resolved relative to the dataset tree.
type Inputs struct {
	ImagingInfoFilename string   `toml:"imaging_info_filename"`
	ImagingFilename     string   `toml:"imaging_filename"`
	TabularFilenames    []string `toml:"tabular_filenames"`
	GroupFilename       string   `toml:"group_filename"`
}

// Outputs names the artifacts written under <dataset_root>/tabular.
type Outputs struct {
	DescriptionsFilename string `toml:"descriptions_filename"`
	IgnoredFilename      string `toml:"ignored_filename"`
	ManifestFilename     string `toml:"manifest_filename"`
}

// Classify contains the classifier rule source.
type Classify struct {
	RulesPath string `toml:"rules_path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for roster.
//
// Configuration sections by subsystem:
//   - Paths: dataset root and log directory
//   - Study: imaging sessions and cohorts to retain
//   - Inputs: filenames of the imaging and clinical exports
//   - Outputs: filenames of the generated artifacts
//   - Classify: description filter rule overrides
//   - Logging: log format, level, and retention
type Config struct {
	Paths    Paths    `toml:"paths"`
	Study    Study    `toml:"study"`
	Inputs   Inputs   `toml:"inputs"`
	Outputs  Outputs  `toml:"outputs"`
	Classify Classify `toml:"classify"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return fileutil.ExpandPath("~/.config/roster/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := fileutil.ExpandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("roster.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a run writes into: the log
// directory and the tabular output directory.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LogDir, c.TabularDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// TabularDir returns the directory holding generated tabular artifacts.
func (c *Config) TabularDir() string {
	return filepath.Join(c.Paths.DatasetRoot, "tabular")
}

// StudyDataDir returns the directory holding downloaded study-data files.
func (c *Config) StudyDataDir() string {
	return filepath.Join(c.TabularDir(), "study_data")
}

// OtherDataDir returns the directory holding auxiliary downloads such as
// the full imaging availability export.
func (c *Config) OtherDataDir() string {
	return filepath.Join(c.TabularDir(), "other")
}

// DICOMDir returns the directory the raw DICOM downloads live under.
func (c *Config) DICOMDir() string {
	return filepath.Join(c.Paths.DatasetRoot, "dicom")
}

// ImagingInfoPath returns the classifier's imaging availability input.
func (c *Config) ImagingInfoPath() string {
	return filepath.Join(c.OtherDataDir(), c.Inputs.ImagingInfoFilename)
}

// ImagingPath returns the manifest builder's imaging availability input.
func (c *Config) ImagingPath(filename string) string {
	if filename == "" {
		filename = c.Inputs.ImagingFilename
	}
	return filepath.Join(c.StudyDataDir(), filename)
}

// TabularPaths returns the clinical study-data inputs. When overrides is
// non-empty it replaces the configured filename list.
func (c *Config) TabularPaths(overrides []string) []string {
	names := c.Inputs.TabularFilenames
	if len(overrides) > 0 {
		names = overrides
	}
	paths := make([]string, 0, len(names))
	for _, name := range names {
		paths = append(paths, filepath.Join(c.StudyDataDir(), name))
	}
	return paths
}

// GroupPath returns the participant status input. When filename is
// non-empty it replaces the configured name.
func (c *Config) GroupPath(filename string) string {
	if filename == "" {
		filename = c.Inputs.GroupFilename
	}
	return filepath.Join(c.StudyDataDir(), filename)
}

// DescriptionsPath returns the datatype-descriptions JSON artifact path.
func (c *Config) DescriptionsPath() string {
	return filepath.Join(c.TabularDir(), c.Outputs.DescriptionsFilename)
}

// IgnoredPath returns the ignored-descriptions CSV artifact path.
func (c *Config) IgnoredPath() string {
	return filepath.Join(c.TabularDir(), c.Outputs.IgnoredFilename)
}

// ManifestPath returns the manifest CSV artifact path.
func (c *Config) ManifestPath() string {
	return filepath.Join(c.TabularDir(), c.Outputs.ManifestFilename)
}

// LockPath returns the lock file guarding concurrent runs against the
// same dataset.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.LogDir, "roster.lock")
}

// LogFilePath returns the log file for the named command.
func (c *Config) LogFilePath(command string) string {
	return filepath.Join(c.Paths.LogDir, command+".log")
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
