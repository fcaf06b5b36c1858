package manifest_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"roster/internal/config"
	"roster/internal/manifest"
	"roster/internal/services"
	"roster/internal/services/catalog"
	"roster/internal/testsupport"
)

type stubResolver struct {
	entries map[string][]catalog.Entry
	err     error
}

func (s *stubResolver) Resolve(_ context.Context, _ string, code string) ([]catalog.Entry, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.entries[code], nil
}

const classifiedDescriptions = `{
    "dwi": ["DTI 64dir"],
    "func": ["rsfMRI BOLD"],
    "anat": {
        "T1w": ["SAG T1 MPRAGE"],
        "T2w": [],
        "T2starw": [],
        "FLAIR": ["AX FLAIR"]
    }
}
`

func writeDataset(t *testing.T) *config.Config {
	t.Helper()

	cfg := testsupport.NewConfig(t,
		testsupport.WithSessions("1", "5"),
		testsupport.WithTabularFilenames("Visits.csv"),
	)

	testsupport.WriteCSV(t, cfg.ImagingPath(""),
		"Subject ID,Visit,Research Group,Description,Modality,Imaging Protocol",
		"3000,Baseline,PD,SAG T1 MPRAGE,MRI,",
		"3000,Baseline,PD,DTI 64dir,DTI,",
		"3000,Month 12,PD,SAG T1 MPRAGE,MRI,",
		"3001,Baseline,Control,AX FLAIR,MRI,",
		"3001,Month 24,Control,SAG T1 MPRAGE,MRI,",
		"3002,Baseline,Phantom,localizer,MRI,",
		"3003,Baseline,PD,rsfMRI BOLD,fMRI,",
	)
	testsupport.WriteCSV(t, cfg.GroupPath(""),
		"PATNO,COHORT_DEFINITION",
		"3000,Parkinson's Disease",
		"3001,Healthy Control",
		"3004,SWEDD",
	)
	testsupport.WriteCSV(t, filepath.Join(cfg.StudyDataDir(), "Visits.csv"),
		"PATNO,EVENT_ID",
		"3000,BL",
		"3000,V04",
		"3001,BL",
		"3004,BL",
	)
	testsupport.WriteFile(t, cfg.DescriptionsPath(), classifiedDescriptions)
	return cfg
}

func TestBuilderWritesManifest(t *testing.T) {
	cfg := writeDataset(t)

	builder := manifest.New(cfg, nil, manifest.Options{})
	result, err := builder.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !result.Written {
		t.Fatal("expected first run to write the manifest")
	}
	if result.Rows != 5 {
		t.Fatalf("rows = %d, want 5", result.Rows)
	}
	if result.Path != cfg.ManifestPath() {
		t.Fatalf("path = %q, want %q", result.Path, cfg.ManifestPath())
	}

	data, err := os.ReadFile(cfg.ManifestPath())
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	want := strings.Join([]string{
		"participant_id,participant_dicom_dir,visit,session,datatype,bids_id",
		"3000,,BL,ses-1,\"['anat', 'dwi']\",sub-3000",
		"3000,,V04,ses-5,['anat'],sub-3000",
		"3001,,BL,ses-1,['anat'],sub-3001",
		"3003,,BL,ses-1,['func'],sub-3003",
		"3004,,BL,,[],",
	}, "\n") + "\n"
	if string(data) != want {
		t.Fatalf("manifest content:\n%s\nwant:\n%s", data, want)
	}

	// Unchanged inputs leave the existing file alone.
	again, err := manifest.New(cfg, nil, manifest.Options{}).Run(context.Background())
	if err != nil {
		t.Fatalf("second run returned error: %v", err)
	}
	if again.Written {
		t.Fatal("expected identical content to skip the write")
	}
}

func TestBuilderSummaryCounts(t *testing.T) {
	cfg := writeDataset(t)

	result, err := manifest.New(cfg, nil, manifest.Options{}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	wantSessions := []manifest.Count{{Key: "1", N: 5}, {Key: "5", N: 1}, {Key: "7", N: 1}}
	if !reflect.DeepEqual(result.SessionCounts, wantSessions) {
		t.Errorf("session counts = %v, want %v", result.SessionCounts, wantSessions)
	}
	wantCohorts := []manifest.Count{
		{Key: "Parkinson's Disease", N: 4},
		{Key: "Healthy Control", N: 1},
		{Key: "Phantom", N: 1},
	}
	if !reflect.DeepEqual(result.CohortCounts, wantCohorts) {
		t.Errorf("cohort counts = %v, want %v", result.CohortCounts, wantCohorts)
	}
}

func TestBuilderConflictWithoutOverwrite(t *testing.T) {
	cfg := writeDataset(t)

	if _, err := manifest.New(cfg, nil, manifest.Options{}).Run(context.Background()); err != nil {
		t.Fatalf("first run returned error: %v", err)
	}

	// A new tabular row changes the produced content.
	testsupport.WriteCSV(t, filepath.Join(cfg.StudyDataDir(), "Visits.csv"),
		"PATNO,EVENT_ID",
		"3000,BL",
		"3000,V04",
		"3001,BL",
		"3004,BL",
		"3004,V04",
	)

	_, err := manifest.New(cfg, nil, manifest.Options{}).Run(context.Background())
	if !errors.Is(err, services.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	result, err := manifest.New(cfg, nil, manifest.Options{Overwrite: true}).Run(context.Background())
	if err != nil {
		t.Fatalf("overwrite run returned error: %v", err)
	}
	if !result.Written || result.Rows != 6 {
		t.Fatalf("result = %+v, want written with 6 rows", result)
	}
}

func TestBuilderCatalogFailures(t *testing.T) {
	cfg := writeDataset(t)

	empty := &stubResolver{}
	_, err := manifest.NewWithResolver(cfg, nil, empty, manifest.Options{}).Run(context.Background())
	if !errors.Is(err, services.ErrCatalog) {
		t.Fatalf("expected catalog error for empty resolution, got %v", err)
	}

	boom := errors.New("catalog exploded")
	failing := &stubResolver{err: boom}
	_, err = manifest.NewWithResolver(cfg, nil, failing, manifest.Options{}).Run(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected resolver error to pass through, got %v", err)
	}
}

func TestBuilderRejectsUnknownSessionCode(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithSessions("1", "42"))

	_, err := manifest.New(cfg, nil, manifest.Options{}).Run(context.Background())
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if !strings.Contains(err.Error(), "42") {
		t.Errorf("error %q should name the unknown code", err)
	}
}

func TestBuilderRequiresTabularColumns(t *testing.T) {
	cfg := writeDataset(t)
	testsupport.WriteCSV(t, filepath.Join(cfg.StudyDataDir(), "Visits.csv"),
		"PATNO",
		"3000",
	)

	_, err := manifest.New(cfg, nil, manifest.Options{}).Run(context.Background())
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if !strings.Contains(err.Error(), "Visits.csv") {
		t.Errorf("error %q should name the offending file", err)
	}
}

func TestBuilderRejectsUnmappedLabels(t *testing.T) {
	cfg := writeDataset(t)
	testsupport.WriteCSV(t, cfg.ImagingPath(""),
		"Subject ID,Visit,Research Group,Description,Modality,Imaging Protocol",
		"3000,Week 99,PD,SAG T1 MPRAGE,MRI,",
	)
	_, err := manifest.New(cfg, nil, manifest.Options{}).Run(context.Background())
	if !errors.Is(err, services.ErrConfiguration) || !strings.Contains(err.Error(), "Week 99") {
		t.Fatalf("expected configuration error naming the visit, got %v", err)
	}

	testsupport.WriteCSV(t, cfg.ImagingPath(""),
		"Subject ID,Visit,Research Group,Description,Modality,Imaging Protocol",
		"3000,Baseline,Martian,SAG T1 MPRAGE,MRI,",
	)
	_, err = manifest.New(cfg, nil, manifest.Options{}).Run(context.Background())
	if !errors.Is(err, services.ErrConfiguration) || !strings.Contains(err.Error(), "Martian") {
		t.Fatalf("expected configuration error naming the group, got %v", err)
	}
}

func TestBuilderFillsCohortFromImaging(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithSessions("1"),
		testsupport.WithTabularFilenames("Visits.csv"),
	)
	testsupport.WriteCSV(t, cfg.ImagingPath(""),
		"Subject ID,Visit,Research Group,Description,Modality,Imaging Protocol",
		"3000,Baseline,PD,SAG T1 MPRAGE,MRI,",
	)
	testsupport.WriteCSV(t, cfg.GroupPath(""),
		"PATNO,COHORT_DEFINITION",
	)
	testsupport.WriteCSV(t, filepath.Join(cfg.StudyDataDir(), "Visits.csv"),
		"PATNO,EVENT_ID",
		"3000,BL",
	)
	testsupport.WriteFile(t, cfg.DescriptionsPath(), classifiedDescriptions)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	result, err := manifest.New(cfg, logger, manifest.Options{}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Rows != 1 {
		t.Fatalf("rows = %d, want 1", result.Rows)
	}

	logged := buf.String()
	if !strings.Contains(logged, "filled missing cohorts from imaging data") {
		t.Errorf("expected the imaging fallback to fill the cohort: %s", logged)
	}
	if strings.Contains(logged, "imaging rows without tabular data") {
		t.Errorf("tabular row should have joined its imaging row: %s", logged)
	}
}

func TestBuilderAmbiguousCohortStaysUnresolved(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithSessions("1", "5"),
		testsupport.WithTabularFilenames("Visits.csv"),
	)
	testsupport.WriteCSV(t, cfg.ImagingPath(""),
		"Subject ID,Visit,Research Group,Description,Modality,Imaging Protocol",
		"3000,Baseline,PD,SAG T1 MPRAGE,MRI,",
		"3000,Month 12,SWEDD,SAG T1 MPRAGE,MRI,",
	)
	testsupport.WriteCSV(t, cfg.GroupPath(""),
		"PATNO,COHORT_DEFINITION",
	)
	testsupport.WriteCSV(t, filepath.Join(cfg.StudyDataDir(), "Visits.csv"),
		"PATNO,EVENT_ID",
		"3000,BL",
	)
	testsupport.WriteFile(t, cfg.DescriptionsPath(), classifiedDescriptions)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	result, err := manifest.New(cfg, logger, manifest.Options{}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	// The tabular row drops out; both imaging rows survive on their own.
	if result.Rows != 2 {
		t.Fatalf("rows = %d, want 2", result.Rows)
	}

	logged := buf.String()
	if !strings.Contains(logged, "cohorts left unresolved after imaging fallback") {
		t.Errorf("expected the ambiguous fallback to warn: %s", logged)
	}
	if !strings.Contains(logged, "imaging rows without tabular data") {
		t.Errorf("expected orphaned imaging rows to warn: %s", logged)
	}
}
