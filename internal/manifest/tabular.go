package manifest

import (
	"strings"

	"roster/internal/logging"
	"roster/internal/ppmi"
	"roster/internal/services"
	"roster/internal/tabfile"
)

// loadTabular reads every configured study-data file and unions their
// rows, keeping the first occurrence per (participant, visit).
func (b *Builder) loadTabular() ([]ppmi.TabularRecord, error) {
	var records []ppmi.TabularRecord
	seen := make(map[joinKey]struct{})
	for _, path := range b.cfg.TabularPaths(b.opts.TabularFilenames) {
		table, err := tabfile.ReadCSV(path)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "manifest", "load tabular data", "", err)
		}
		rows, err := ppmi.TabularRecords(table)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "manifest", "load tabular data", path, err)
		}
		for _, rec := range rows {
			key := joinKey{rec.Subject, rec.Visit}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			records = append(records, rec)
		}
	}
	b.logger.Info("loaded tabular availability",
		logging.Int("rows", len(records)))
	return records, nil
}

// fillGroups assigns each tabular row its cohort from the participant
// status file and falls back to imaging data for participants missing
// there, provided imaging names exactly one cohort for them.
func (b *Builder) fillGroups(tabular []ppmi.TabularRecord, groups map[string]string, imaging []imagingRow) {
	for i := range tabular {
		if group, ok := groups[tabular[i].Subject]; ok && group != "" {
			tabular[i].Group = group
		}
	}

	missing := make(map[string]struct{})
	for i := range tabular {
		if tabular[i].Group == "" {
			missing[tabular[i].Subject] = struct{}{}
		}
	}
	if len(missing) == 0 {
		return
	}
	logging.WarnWithContext(b.logger, "tabular participants without a cohort", "missing_cohort",
		logging.String("participants", strings.Join(sortedKeys(missing), ", ")),
		logging.String(logging.FieldErrorHint, "check the participant status file for these IDs"),
		logging.String(logging.FieldImpact, "rows without a cohort drop out during cohort filtering"))

	imagingGroups := make(map[string]map[string]struct{})
	for _, row := range imaging {
		set, ok := imagingGroups[row.subject]
		if !ok {
			set = make(map[string]struct{})
			imagingGroups[row.subject] = set
		}
		set[row.group] = struct{}{}
	}

	unfilled := 0
	for i := range tabular {
		if tabular[i].Group != "" {
			continue
		}
		set := imagingGroups[tabular[i].Subject]
		if len(set) != 1 {
			unfilled++
			continue
		}
		for group := range set {
			tabular[i].Group = group
		}
	}
	if unfilled > 0 {
		logging.WarnWithContext(b.logger, "cohorts left unresolved after imaging fallback", "missing_cohort",
			logging.Int("rows", unfilled),
			logging.String(logging.FieldErrorHint, "assign these participants a cohort upstream"),
			logging.String(logging.FieldImpact, "their rows drop out during cohort filtering"))
		return
	}
	b.logger.Info("filled missing cohorts from imaging data",
		logging.Int("participants", len(missing)))
}

// filterTabularGroups keeps tabular rows of the configured cohorts.
func (b *Builder) filterTabularGroups(records []ppmi.TabularRecord) []ppmi.TabularRecord {
	keep := make(map[string]struct{}, len(b.cfg.Study.GroupsKeep))
	for _, group := range b.cfg.Study.GroupsKeep {
		keep[group] = struct{}{}
	}
	kept := make([]ppmi.TabularRecord, 0, len(records))
	for _, rec := range records {
		if _, ok := keep[rec.Group]; ok {
			kept = append(kept, rec)
		}
	}
	b.logger.Info("filtered tabular rows to configured cohorts",
		logging.Int("kept", len(kept)),
		logging.Int("dropped", len(records)-len(kept)))
	return kept
}
