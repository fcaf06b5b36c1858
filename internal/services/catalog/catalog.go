package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"roster/internal/bids"
	"roster/internal/logging"
	"roster/internal/services"
	"roster/internal/tabfile"
)

// Manifest columns, in the order the builder writes them. Resolvers
// read snapshots through these names, so downstream pipelines and this
// package stay in agreement about the file format.
const (
	ColParticipant = "participant_id"
	ColDICOMDir    = "participant_dicom_dir"
	ColVisit       = "visit"
	ColSession     = "session"
	ColDatatype    = "datatype"
	ColBIDSID      = "bids_id"
)

// Columns returns the manifest header in canonical order.
func Columns() []string {
	return []string{ColParticipant, ColDICOMDir, ColVisit, ColSession, ColDatatype, ColBIDSID}
}

// Entry is one manifest row of a single session, carrying the resolved
// BIDS identifier.
type Entry struct {
	Participant string
	Visit       string
	Session     string
	BIDSID      string
}

// Resolver assigns BIDS identifiers to the manifest rows of one
// session, read from an on-disk snapshot. Implementations return zero
// entries only when resolution itself failed, never as a valid empty
// result; callers treat an empty slice as a catalog error.
type Resolver interface {
	Resolve(ctx context.Context, snapshotPath, sessionCode string) ([]Entry, error)
}

// DirResolver derives BIDS identifiers from participant IDs and checks
// the dataset's DICOM tree for each participant's source directory.
type DirResolver struct {
	DICOMDir string
	Logger   *slog.Logger
}

// NewDirResolver constructs a resolver rooted at the dataset's DICOM
// directory.
func NewDirResolver(dicomDir string, logger *slog.Logger) *DirResolver {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &DirResolver{DICOMDir: dicomDir, Logger: logging.NewComponentLogger(logger, "catalog")}
}

// Resolve reads the snapshot and returns the rows of sessionCode with
// bids_id filled in. The session column may carry the raw code or the
// "ses-" form; both match.
func (r *DirResolver) Resolve(ctx context.Context, snapshotPath, sessionCode string) ([]Entry, error) {
	t, err := tabfile.ReadCSV(snapshotPath)
	if err != nil {
		return nil, services.Wrap(services.ErrCatalog, "catalog", "read snapshot", "", err)
	}
	if missing := t.MissingColumns(ColParticipant, ColVisit, ColSession); len(missing) > 0 {
		return nil, services.Wrap(services.ErrCatalog, "catalog", "read snapshot",
			fmt.Sprintf("%s missing columns %s", snapshotPath, strings.Join(missing, ", ")), nil)
	}

	var entries []Entry
	participants := make(map[string]struct{})
	for i := range t.Rows {
		session := t.Value(i, ColSession)
		if bids.SessionCode(session) != sessionCode {
			continue
		}
		participant := t.Value(i, ColParticipant)
		entries = append(entries, Entry{
			Participant: participant,
			Visit:       t.Value(i, ColVisit),
			Session:     session,
			BIDSID:      bids.ParticipantLabel(participant),
		})
		participants[participant] = struct{}{}
	}

	r.reportDICOMAvailability(sessionCode, participants)
	return entries, nil
}

// reportDICOMAvailability counts participants whose DICOM directory is
// not on disk yet. Informational only; rows resolve either way.
func (r *DirResolver) reportDICOMAvailability(sessionCode string, participants map[string]struct{}) {
	if r.DICOMDir == "" || len(participants) == 0 {
		return
	}
	missing := 0
	for participant := range participants {
		info, err := os.Stat(filepath.Join(r.DICOMDir, participant))
		if err != nil || !info.IsDir() {
			missing++
		}
	}
	r.Logger.Info("checked DICOM availability",
		logging.String(logging.FieldSession, sessionCode),
		logging.Int("participants", len(participants)),
		logging.Int("without_dicom_dir", missing))
}

var _ Resolver = (*DirResolver)(nil)
