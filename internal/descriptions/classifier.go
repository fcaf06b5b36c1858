package descriptions

import (
	"sort"
	"strings"

	"roster/internal/ppmi"
)

// Finding pairs a description string with the number of rows carrying it.
type Finding struct {
	Description string
	Count       int
}

// Result captures the outcome of classifying one target, including the
// review findings a curator uses to grow the exclusion lists.
type Result struct {
	Target   string
	Selected []string

	// Suspicious lists selected descriptions without any common substring,
	// SharedOut lists selected descriptions that also occur under other
	// modalities, and Recovered lists the cross-modality additions.
	Suspicious []Finding
	SharedOut  []Finding
	Recovered  []Finding

	// Funnel counts over distinct in-modality descriptions.
	InModality   int
	AfterExclude int
	AfterReject  int
}

// Classify applies rule to the imaging records for one target. The extra
// exclusion list joins the rule's own Exclude; both bar a description from
// the in-modality selection and from cross-modality recovery. The result
// is deterministic: selected descriptions are sorted and deduplicated, and
// findings are ordered by descending count, then description.
func Classify(records []ppmi.ImagingRecord, target string, rule Rule, exclude []string) Result {
	res := Result{Target: target}

	pool := filterByProtocol(records, rule)

	inCounts := make(map[string]int)
	var others []ppmi.ImagingRecord
	for _, rec := range pool {
		if rec.Modality == rule.Modality {
			inCounts[rec.Description]++
		} else {
			others = append(others, rec)
		}
	}
	res.InModality = len(inCounts)

	excluded := make(map[string]struct{}, len(rule.Exclude)+len(exclude))
	for _, desc := range rule.Exclude {
		excluded[desc] = struct{}{}
	}
	for _, desc := range exclude {
		excluded[desc] = struct{}{}
	}

	selected := make(map[string]int, len(inCounts))
	for desc, n := range inCounts {
		if _, drop := excluded[desc]; drop {
			continue
		}
		selected[desc] = n
	}
	res.AfterExclude = len(selected)

	if len(rule.Reject) > 0 {
		for desc := range selected {
			if containsAny(desc, rule.Reject) && !containsAny(desc, rule.RejectExceptions) {
				delete(selected, desc)
			}
		}
	}
	res.AfterReject = len(selected)

	for desc, n := range selected {
		if !containsAny(desc, rule.Common) {
			res.Suspicious = append(res.Suspicious, Finding{Description: desc, Count: n})
		}
	}
	sortFindings(res.Suspicious)

	excludedOut := make(map[string]struct{}, len(rule.ExcludeOut))
	for _, desc := range rule.ExcludeOut {
		excludedOut[desc] = struct{}{}
	}
	shared := make(map[string]int)
	recovered := make(map[string]int)
	for _, rec := range others {
		if _, drop := excludedOut[rec.Description]; drop {
			continue
		}
		if _, ok := selected[rec.Description]; ok {
			shared[rec.Description]++
			continue
		}
		if _, drop := excluded[rec.Description]; drop {
			continue
		}
		if containsAny(rec.Description, rule.Common) {
			recovered[rec.Description]++
		}
	}
	res.SharedOut = sortedFindings(shared)
	res.Recovered = sortedFindings(recovered)

	final := make([]string, 0, len(selected)+len(recovered))
	for desc := range selected {
		final = append(final, desc)
	}
	for desc := range recovered {
		final = append(final, desc)
	}
	sort.Strings(final)
	res.Selected = final

	return res
}

// filterByProtocol drops rows failing the protocol include/exclude
// prefilter. Dropped rows are gone for the whole target, including the
// cross-modality recovery pool. A row with an empty protocol never matches
// an include substring and never triggers an exclude.
func filterByProtocol(records []ppmi.ImagingRecord, rule Rule) []ppmi.ImagingRecord {
	if len(rule.ProtocolInclude) == 0 && len(rule.ProtocolExclude) == 0 {
		return records
	}
	out := make([]ppmi.ImagingRecord, 0, len(records))
	for _, rec := range records {
		if len(rule.ProtocolInclude) > 0 && !containsAny(rec.Protocol, rule.ProtocolInclude) {
			continue
		}
		if containsAny(rec.Protocol, rule.ProtocolExclude) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// containsAny reports whether value contains at least one of the
// substrings, case-insensitively. Substrings are literal, not patterns.
func containsAny(value string, substrings []string) bool {
	if len(substrings) == 0 {
		return false
	}
	lowered := strings.ToLower(value)
	for _, sub := range substrings {
		if strings.Contains(lowered, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}

func sortedFindings(counts map[string]int) []Finding {
	if len(counts) == 0 {
		return nil
	}
	findings := make([]Finding, 0, len(counts))
	for desc, n := range counts {
		findings = append(findings, Finding{Description: desc, Count: n})
	}
	sortFindings(findings)
	return findings
}

func sortFindings(findings []Finding) {
	sort.Slice(findings, func(i, j int) bool {
		if findings[i].Count != findings[j].Count {
			return findings[i].Count > findings[j].Count
		}
		return findings[i].Description < findings[j].Description
	})
}
