package descriptions

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"roster/internal/ppmi"
	"roster/internal/services"
)

//go:embed default_rules.json
var defaultRulesJSON []byte

// Rule configures description matching for one classification target.
// Substring lists match case-insensitively with any-of semantics; Exclude
// and ExcludeOut hold exact description strings. A description listed in
// Exclude never appears in the target's result, not even via cross-modality
// recovery.
type Rule struct {
	Modality         string   `json:"modality"`
	Common           []string `json:"common_substrings"`
	Reject           []string `json:"reject_substrings,omitempty"`
	RejectExceptions []string `json:"reject_substrings_exceptions,omitempty"`
	Exclude          []string `json:"exclude,omitempty"`
	ExcludeOut       []string `json:"exclude_out,omitempty"`
	ProtocolInclude  []string `json:"protocol_include,omitempty"`
	ProtocolExclude  []string `json:"protocol_exclude,omitempty"`
}

// AnatRules holds the ordered anatomical subtype rules. Exclude is the
// baseline exclusion list applied to every subtype after T1w; the T1w rule
// carries its own exclusions.
type AnatRules struct {
	Exclude []string `json:"exclude,omitempty"`
	T1w     Rule     `json:"T1w"`
	T2w     Rule     `json:"T2w"`
	T2starw Rule     `json:"T2starw"`
	FLAIR   Rule     `json:"FLAIR"`
}

// RuleSet is the complete classifier configuration.
type RuleSet struct {
	Dwi  Rule      `json:"dwi"`
	Func Rule      `json:"func"`
	Anat AnatRules `json:"anat"`
}

// DefaultRules returns the embedded rule set.
func DefaultRules() (*RuleSet, error) {
	return parseRules(defaultRulesJSON)
}

// LoadRules reads and validates a rule set from path. An empty path selects
// the embedded defaults.
func LoadRules(path string) (*RuleSet, error) {
	if path == "" {
		return DefaultRules()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "classifier", "load rules", "", err)
	}
	rs, err := parseRules(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rs, nil
}

func parseRules(data []byte) (*RuleSet, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	var rs RuleSet
	if err := decoder.Decode(&rs); err != nil {
		return nil, services.Wrap(services.ErrValidation, "classifier", "parse rules", "", err)
	}
	rs.normalize()
	if err := rs.Validate(); err != nil {
		return nil, err
	}
	return &rs, nil
}

func (rs *RuleSet) normalize() {
	rs.Dwi.normalize()
	rs.Func.normalize()
	rs.Anat.Exclude = cleanStrings(rs.Anat.Exclude)
	rs.Anat.T1w.normalize()
	rs.Anat.T2w.normalize()
	rs.Anat.T2starw.normalize()
	rs.Anat.FLAIR.normalize()
}

func (r *Rule) normalize() {
	r.Modality = strings.TrimSpace(r.Modality)
	r.Common = cleanStrings(r.Common)
	r.Reject = cleanStrings(r.Reject)
	r.RejectExceptions = cleanStrings(r.RejectExceptions)
	r.Exclude = cleanStrings(r.Exclude)
	r.ExcludeOut = cleanStrings(r.ExcludeOut)
	r.ProtocolInclude = cleanStrings(r.ProtocolInclude)
	r.ProtocolExclude = cleanStrings(r.ProtocolExclude)
}

// Validate reports the first structural problem in the rule set.
func (rs *RuleSet) Validate() error {
	targets := []struct {
		name string
		rule Rule
	}{
		{TargetDwi, rs.Dwi},
		{TargetFunc, rs.Func},
		{TargetT1w, rs.Anat.T1w},
		{TargetT2w, rs.Anat.T2w},
		{TargetT2starw, rs.Anat.T2starw},
		{TargetFLAIR, rs.Anat.FLAIR},
	}
	for _, target := range targets {
		if err := target.rule.validate(); err != nil {
			return services.Wrap(services.ErrValidation, "classifier", "validate rules", target.name, err)
		}
	}
	return nil
}

func (r Rule) validate() error {
	if !ppmi.KnownModality(r.Modality) {
		return fmt.Errorf("modality %q is not recognized (known: %s)", r.Modality, strings.Join(ppmi.Modalities(), ", "))
	}
	if len(r.Common) == 0 {
		return errors.New("common_substrings must not be empty")
	}
	return nil
}

// cleanStrings trims entries and drops blanks while preserving order.
func cleanStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
