package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"roster/internal/fileutil"
	"roster/internal/ppmi"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeStudy()
	c.normalizeInputs()
	c.normalizeOutputs()
	if err := c.normalizeClassify(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DatasetRoot, err = fileutil.ExpandPath(c.Paths.DatasetRoot); err != nil {
		return fmt.Errorf("paths.dataset_root: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.DatasetRoot, "scratch", "logs")
	}
	if c.Paths.LogDir, err = fileutil.ExpandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeStudy() {
	sessions := cleanList(c.Study.Sessions)
	for i, session := range sessions {
		if code, ok := ppmi.CanonicalSession(session); ok {
			sessions[i] = code
		}
	}
	c.Study.Sessions = cleanList(sessions)
	if len(c.Study.Sessions) == 0 {
		c.Study.Sessions = defaultSessions()
	}

	groups := cleanList(c.Study.GroupsKeep)
	for i, group := range groups {
		if canonical, ok := ppmi.GroupName(group); ok {
			groups[i] = canonical
		}
	}
	c.Study.GroupsKeep = cleanList(groups)
	if len(c.Study.GroupsKeep) == 0 {
		c.Study.GroupsKeep = ppmi.DefaultGroupsKeep()
	}
}

func (c *Config) normalizeInputs() {
	c.Inputs.ImagingInfoFilename = strings.TrimSpace(c.Inputs.ImagingInfoFilename)
	if c.Inputs.ImagingInfoFilename == "" {
		c.Inputs.ImagingInfoFilename = defaultImagingInfoFilename
	}
	c.Inputs.ImagingFilename = strings.TrimSpace(c.Inputs.ImagingFilename)
	if c.Inputs.ImagingFilename == "" {
		c.Inputs.ImagingFilename = defaultImagingFilename
	}
	c.Inputs.TabularFilenames = cleanList(c.Inputs.TabularFilenames)
	if len(c.Inputs.TabularFilenames) == 0 {
		c.Inputs.TabularFilenames = defaultTabularFilenames()
	}
	c.Inputs.GroupFilename = strings.TrimSpace(c.Inputs.GroupFilename)
	if c.Inputs.GroupFilename == "" {
		c.Inputs.GroupFilename = defaultGroupFilename
	}
}

func (c *Config) normalizeOutputs() {
	c.Outputs.DescriptionsFilename = strings.TrimSpace(c.Outputs.DescriptionsFilename)
	if c.Outputs.DescriptionsFilename == "" {
		c.Outputs.DescriptionsFilename = defaultDescriptionsFilename
	}
	c.Outputs.IgnoredFilename = strings.TrimSpace(c.Outputs.IgnoredFilename)
	if c.Outputs.IgnoredFilename == "" {
		c.Outputs.IgnoredFilename = defaultIgnoredFilename
	}
	c.Outputs.ManifestFilename = strings.TrimSpace(c.Outputs.ManifestFilename)
	if c.Outputs.ManifestFilename == "" {
		c.Outputs.ManifestFilename = defaultManifestFilename
	}
}

func (c *Config) normalizeClassify() error {
	c.Classify.RulesPath = strings.TrimSpace(c.Classify.RulesPath)
	if c.Classify.RulesPath == "" {
		return nil
	}
	var err error
	if c.Classify.RulesPath, err = fileutil.ExpandPath(c.Classify.RulesPath); err != nil {
		return fmt.Errorf("classify.rules_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

// cleanList trims entries, drops blanks, and removes duplicates while
// preserving order.
func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
