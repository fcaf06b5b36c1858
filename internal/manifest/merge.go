package manifest

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"roster/internal/bids"
	"roster/internal/logging"
	"roster/internal/ppmi"
	"roster/internal/services"
	"roster/internal/services/catalog"
	"roster/internal/tabfile"
)

// manifestRow is one output row before formatting. session holds the
// raw code; the ses- prefix is applied at encode time.
type manifestRow struct {
	subject   string
	visit     string
	session   string
	datatypes []string
	bidsID    string
}

// merge outer-joins tabular availability against aggregated imaging on
// (participant, visit). Imaging-only rows are kept with a warning;
// tabular-only rows keep an empty session and datatype list.
func (b *Builder) merge(tabular []ppmi.TabularRecord, imaging map[joinKey]imagingCell) []manifestRow {
	rows := make([]manifestRow, 0, len(tabular)+len(imaging))
	matched := make(map[joinKey]struct{}, len(tabular))
	for _, rec := range tabular {
		key := joinKey{rec.Subject, rec.Visit}
		row := manifestRow{subject: rec.Subject, visit: rec.Visit, datatypes: []string{}}
		if cell, ok := imaging[key]; ok {
			row.session = cell.session
			row.datatypes = cell.datatypes
			matched[key] = struct{}{}
		}
		rows = append(rows, row)
	}

	var orphaned []string
	for key, cell := range imaging {
		if _, ok := matched[key]; ok {
			continue
		}
		orphaned = append(orphaned, key.subject+"/"+key.visit)
		rows = append(rows, manifestRow{
			subject:   key.subject,
			visit:     key.visit,
			session:   cell.session,
			datatypes: cell.datatypes,
		})
	}
	if len(orphaned) > 0 {
		sort.Strings(orphaned)
		logging.WarnWithContext(b.logger, "imaging rows without tabular data", "missing_tabular",
			logging.Int("rows", len(orphaned)),
			logging.String("pairs", strings.Join(orphaned, ", ")),
			logging.String(logging.FieldErrorHint, "check whether the study-data download is complete"),
			logging.String(logging.FieldImpact, "these rows appear in the manifest without clinical data"))
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].subject != rows[j].subject {
			return rows[i].subject < rows[j].subject
		}
		return rows[i].visit < rows[j].visit
	})
	return rows
}

// resolveBIDSIDs fills the bids_id column session by session. The
// resolver reads a temporary snapshot of the manifest so it can operate
// on the same file format downstream pipelines consume.
func (b *Builder) resolveBIDSIDs(ctx context.Context, rows []manifestRow) error {
	codes := make(map[string]struct{})
	for _, row := range rows {
		if row.session != "" {
			codes[row.session] = struct{}{}
		}
	}
	if len(codes) == 0 {
		return nil
	}

	snapshot, err := b.writeSnapshot(rows)
	if err != nil {
		return err
	}
	defer os.Remove(snapshot)

	index := make(map[joinKey]int, len(rows))
	for i, row := range rows {
		index[joinKey{row.subject, row.visit}] = i
	}

	for _, code := range sortedKeys(codes) {
		entries, err := b.resolver.Resolve(ctx, snapshot, code)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return services.Wrap(services.ErrCatalog, "manifest", "resolve bids ids",
				fmt.Sprintf("catalog returned no rows for session %s", code), nil)
		}
		for _, entry := range entries {
			if i, ok := index[joinKey{entry.Participant, entry.Visit}]; ok {
				rows[i].bidsID = entry.BIDSID
			}
		}
	}
	return nil
}

func (b *Builder) writeSnapshot(rows []manifestRow) (string, error) {
	data, err := encodeRows(rows)
	if err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp("", "roster-manifest-*.csv")
	if err != nil {
		return "", fmt.Errorf("create manifest snapshot: %w", err)
	}
	path := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(path)
		return "", fmt.Errorf("write manifest snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close manifest snapshot: %w", err)
	}
	return path, nil
}

// encodeRows renders rows as manifest CSV, deterministically, so byte
// comparison against an existing file detects unchanged content.
func encodeRows(rows []manifestRow) ([]byte, error) {
	t := tabfile.NewTable(catalog.Columns()...)
	for _, row := range rows {
		t.Append(
			row.subject,
			"",
			row.visit,
			bids.FormatSession(row.session),
			tabfile.EncodeList(row.datatypes),
			row.bidsID,
		)
	}
	return tabfile.EncodeCSV(t)
}
