package manifest

import (
	"fmt"
	"sort"
	"strings"

	"roster/internal/bids"
	"roster/internal/logging"
	"roster/internal/ppmi"
	"roster/internal/services"
)

// imagingRow is one imaging availability row after visit, session, and
// cohort mapping. session is empty when the visit has no session code.
type imagingRow struct {
	subject     string
	visit       string
	session     string
	group       string
	description string
}

// mapImaging translates imaging visit labels and cohort labels to their
// canonical codes. Unknown visits and cohorts are fatal; visits without
// a session code are kept with an empty session and warned about once.
func (b *Builder) mapImaging(records []ppmi.ImagingRecord) ([]imagingRow, error) {
	rows := make([]imagingRow, 0, len(records))
	missingSessions := make(map[string]struct{})
	for _, rec := range records {
		visit, ok := ppmi.VisitCode(rec.Visit)
		if !ok {
			return nil, services.Wrap(services.ErrConfiguration, "manifest", "map visits",
				fmt.Sprintf("no event code for visit %q", rec.Visit), nil)
		}
		group, ok := ppmi.GroupName(rec.Group)
		if !ok {
			return nil, services.Wrap(services.ErrConfiguration, "manifest", "map cohorts",
				fmt.Sprintf("no cohort name for research group %q", rec.Group), nil)
		}
		session, ok := ppmi.SessionCode(visit)
		if !ok {
			missingSessions[visit] = struct{}{}
		}
		rows = append(rows, imagingRow{
			subject:     rec.Subject,
			visit:       visit,
			session:     session,
			group:       group,
			description: rec.Description,
		})
	}
	if len(missingSessions) > 0 {
		logging.WarnWithContext(b.logger, "visits without a session code", "missing_session_code",
			logging.String("visits", strings.Join(sortedKeys(missingSessions), ", ")),
			logging.String(logging.FieldErrorHint, "extend the visit-to-session map if these visits matter"),
			logging.String(logging.FieldImpact, "their rows keep an empty session and drop out of the manifest"))
	}
	return rows, nil
}

// filterSessions keeps imaging rows of the configured sessions.
func (b *Builder) filterSessions(rows []imagingRow) []imagingRow {
	keep := make(map[string]struct{}, len(b.cfg.Study.Sessions))
	for _, code := range b.cfg.Study.Sessions {
		keep[code] = struct{}{}
	}
	present := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		present[row.session] = struct{}{}
	}
	var absent []string
	for _, code := range b.cfg.Study.Sessions {
		if _, ok := present[code]; !ok {
			absent = append(absent, code)
		}
	}
	if len(absent) > 0 {
		logging.WarnWithContext(b.logger, "configured sessions absent from imaging data", "missing_session",
			logging.String("sessions", strings.Join(absent, ", ")),
			logging.String(logging.FieldErrorHint, "confirm the imaging export covers every configured session"),
			logging.String(logging.FieldImpact, "those sessions produce no manifest rows"))
	}

	kept := make([]imagingRow, 0, len(rows))
	for _, row := range rows {
		if _, ok := keep[row.session]; ok {
			kept = append(kept, row)
		}
	}
	b.logger.Info("filtered imaging rows to configured sessions",
		logging.Int("kept", len(kept)),
		logging.Int("dropped", len(rows)-len(kept)))
	return kept
}

// filterImagingGroups keeps imaging rows of the configured cohorts.
func (b *Builder) filterImagingGroups(rows []imagingRow) []imagingRow {
	keep := make(map[string]struct{}, len(b.cfg.Study.GroupsKeep))
	for _, group := range b.cfg.Study.GroupsKeep {
		keep[group] = struct{}{}
	}
	present := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		present[row.group] = struct{}{}
	}
	var absent []string
	for _, group := range b.cfg.Study.GroupsKeep {
		if _, ok := present[group]; !ok {
			absent = append(absent, group)
		}
	}
	if len(absent) > 0 {
		logging.WarnWithContext(b.logger, "configured cohorts absent from imaging data", "missing_cohort",
			logging.String("cohorts", strings.Join(absent, ", ")),
			logging.String(logging.FieldErrorHint, "confirm the cohort keep list matches the study"),
			logging.String(logging.FieldImpact, "those cohorts produce no manifest rows"))
	}

	kept := make([]imagingRow, 0, len(rows))
	for _, row := range rows {
		if _, ok := keep[row.group]; ok {
			kept = append(kept, row)
		}
	}
	b.logger.Info("filtered imaging rows to configured cohorts",
		logging.Int("kept", len(kept)),
		logging.Int("dropped", len(rows)-len(kept)))
	return kept
}

// imagingCell is the aggregated imaging side of one (participant,
// visit) pair.
type imagingCell struct {
	session   string
	datatypes []string
}

type joinKey struct {
	subject string
	visit   string
}

// aggregate reduces imaging rows to the sorted set of datatypes seen
// per (participant, visit). Descriptions without a classified datatype
// contribute nothing; a pair whose descriptions all miss still yields a
// cell with an empty datatype list.
func (b *Builder) aggregate(rows []imagingRow, lookup map[string]string) map[joinKey]imagingCell {
	sets := make(map[joinKey]map[string]struct{})
	sessions := make(map[joinKey]string)
	seen := make(map[string]struct{})
	for _, row := range rows {
		key := joinKey{row.subject, row.visit}
		if _, ok := sets[key]; !ok {
			sets[key] = make(map[string]struct{})
			sessions[key] = row.session
		}
		datatype, ok := lookup[row.description]
		if !ok {
			continue
		}
		sets[key][datatype] = struct{}{}
		seen[datatype] = struct{}{}
	}

	var absent []string
	for _, datatype := range bids.Datatypes() {
		if _, ok := seen[datatype]; !ok {
			absent = append(absent, datatype)
		}
	}
	if len(absent) > 0 {
		logging.WarnWithContext(b.logger, "datatypes never matched any imaging row", "missing_datatype",
			logging.String("datatypes", strings.Join(absent, ", ")),
			logging.String(logging.FieldErrorHint, "re-run the description classification if this is unexpected"),
			logging.String(logging.FieldImpact, "no manifest row lists these datatypes"))
	}

	cells := make(map[joinKey]imagingCell, len(sets))
	for key, set := range sets {
		cells[key] = imagingCell{session: sessions[key], datatypes: sortedKeys(set)}
	}
	b.logger.Info("aggregated imaging availability",
		logging.Int("pairs", len(cells)))
	return cells
}

// countBy tallies rows per key, ordered by count descending then key.
func countBy(rows []imagingRow, key func(imagingRow) string) []Count {
	tally := make(map[string]int)
	for _, row := range rows {
		tally[key(row)]++
	}
	counts := make([]Count, 0, len(tally))
	for k, n := range tally {
		counts = append(counts, Count{Key: k, N: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].N != counts[j].N {
			return counts[i].N > counts[j].N
		}
		return counts[i].Key < counts[j].Key
	})
	return counts
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
