package descriptions

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"roster/internal/bids"
	"roster/internal/logging"
	"roster/internal/ppmi"
)

// Classification targets in execution order.
const (
	TargetDwi     = bids.DatatypeDwi
	TargetFunc    = bids.DatatypeFunc
	TargetT1w     = bids.DatatypeAnat + "/" + bids.SuffixT1
	TargetT2w     = bids.DatatypeAnat + "/" + bids.SuffixT2
	TargetT2starw = bids.DatatypeAnat + "/" + bids.SuffixT2Star
	TargetFLAIR   = bids.DatatypeAnat + "/" + bids.SuffixFLAIR
)

// AnatClassification groups the anatomical subtype assignments in chain
// order.
type AnatClassification struct {
	T1w     []string `json:"T1w"`
	T2w     []string `json:"T2w"`
	T2starw []string `json:"T2starw"`
	FLAIR   []string `json:"FLAIR"`
}

// Classification is the persisted datatype-to-descriptions mapping, the
// interchange artifact between the classifier and the manifest builder.
// Struct encoding fixes the key order across runs.
type Classification struct {
	Dwi  []string           `json:"dwi"`
	Func []string           `json:"func"`
	Anat AnatClassification `json:"anat"`
}

// BuildClassification runs every target against the imaging records. The
// anatomical subtypes run as a chain: each call excludes the shared anat
// baseline plus every description already assigned to an earlier subtype,
// so the four lists are pairwise disjoint.
func BuildClassification(records []ppmi.ImagingRecord, rules *RuleSet) (Classification, []Result) {
	results := make([]Result, 0, 6)
	run := func(target string, rule Rule, exclude []string) []string {
		res := Classify(records, target, rule, exclude)
		results = append(results, res)
		return res.Selected
	}

	var cls Classification
	cls.Dwi = run(TargetDwi, rules.Dwi, nil)
	cls.Func = run(TargetFunc, rules.Func, nil)

	exclude := append([]string(nil), rules.Anat.Exclude...)
	cls.Anat.T1w = run(TargetT1w, rules.Anat.T1w, nil)
	exclude = append(exclude, cls.Anat.T1w...)
	cls.Anat.T2w = run(TargetT2w, rules.Anat.T2w, exclude)
	exclude = append(exclude, cls.Anat.T2w...)
	cls.Anat.T2starw = run(TargetT2starw, rules.Anat.T2starw, exclude)
	exclude = append(exclude, cls.Anat.T2starw...)
	cls.Anat.FLAIR = run(TargetFLAIR, rules.Anat.FLAIR, exclude)

	return cls, results
}

// All returns every classified description, sorted and deduplicated.
func (c Classification) All() []string {
	seen := make(map[string]struct{})
	for _, list := range c.lists() {
		for _, desc := range list {
			seen[desc] = struct{}{}
		}
	}
	all := make([]string, 0, len(seen))
	for desc := range seen {
		all = append(all, desc)
	}
	sort.Strings(all)
	return all
}

func (c Classification) lists() [][]string {
	return [][]string{c.Dwi, c.Func, c.Anat.T1w, c.Anat.T2w, c.Anat.T2starw, c.Anat.FLAIR}
}

// Ignored returns the distinct description strings present in records that
// no target classified, sorted. Blank descriptions are skipped.
func Ignored(records []ppmi.ImagingRecord, c Classification) []string {
	classified := make(map[string]struct{})
	for _, desc := range c.All() {
		classified[desc] = struct{}{}
	}
	seen := make(map[string]struct{})
	for _, rec := range records {
		if rec.Description == "" {
			continue
		}
		if _, ok := classified[rec.Description]; ok {
			continue
		}
		seen[rec.Description] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for desc := range seen {
		out = append(out, desc)
	}
	sort.Strings(out)
	return out
}

// Reverse flattens the mapping into description to datatype for manifest
// aggregation. The anatomical subtypes all map to the anat datatype. A
// description claimed by more than one datatype logs a warning and keeps
// the last assignment in datatype order (dwi, func, anat).
func (c Classification) Reverse(logger *slog.Logger) map[string]string {
	reversed := make(map[string]string)
	assign := func(datatype string, descs []string) {
		for _, desc := range descs {
			if prev, ok := reversed[desc]; ok && prev != datatype {
				logging.WarnWithContext(logger, "duplicate description across datatypes", "duplicate_description",
					logging.String("description", desc),
					logging.String("kept", datatype),
					logging.String("dropped", prev),
					logging.String(logging.FieldErrorHint, "tighten the filter rules so only one datatype matches"),
					logging.String(logging.FieldImpact, "rows with this description count toward "+datatype+" only"),
				)
			}
			reversed[desc] = datatype
		}
	}
	assign(bids.DatatypeDwi, c.Dwi)
	assign(bids.DatatypeFunc, c.Func)
	assign(bids.DatatypeAnat, c.Anat.T1w)
	assign(bids.DatatypeAnat, c.Anat.T2w)
	assign(bids.DatatypeAnat, c.Anat.T2starw)
	assign(bids.DatatypeAnat, c.Anat.FLAIR)
	return reversed
}

// LoadClassification reads the persisted mapping from path.
func LoadClassification(path string) (Classification, error) {
	var c Classification
	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("read classification: %w", err)
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("parse classification %s: %w", path, err)
	}
	return c, nil
}
