package config

import (
	"fmt"
	"path/filepath"
)

// Validate ensures the configuration is usable. Checks that depend on a
// specific command's inputs, such as the session selection, are deferred
// to the pipeline that consumes them.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateInputs(); err != nil {
		return err
	}
	if err := c.validateOutputs(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.DatasetRoot == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/roster/config.toml"
		}
		return fmt.Errorf("paths.dataset_root is required. Edit %s (create with 'roster config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateInputs() error {
	names := map[string]string{
		"inputs.imaging_info_filename": c.Inputs.ImagingInfoFilename,
		"inputs.imaging_filename":      c.Inputs.ImagingFilename,
		"inputs.group_filename":        c.Inputs.GroupFilename,
	}
	for i, name := range c.Inputs.TabularFilenames {
		names[fmt.Sprintf("inputs.tabular_filenames[%d]", i)] = name
	}
	return ensureBareFilenames(names)
}

func (c *Config) validateOutputs() error {
	return ensureBareFilenames(map[string]string{
		"outputs.descriptions_filename": c.Outputs.DescriptionsFilename,
		"outputs.ignored_filename":      c.Outputs.IgnoredFilename,
		"outputs.manifest_filename":     c.Outputs.ManifestFilename,
	})
}

func ensureBareFilenames(values map[string]string) error {
	for key, value := range values {
		if value != filepath.Base(value) {
			return fmt.Errorf("%s must be a bare filename", key)
		}
	}
	return nil
}
