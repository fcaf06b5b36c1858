package manifest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"roster/internal/config"
	"roster/internal/descriptions"
	"roster/internal/fileutil"
	"roster/internal/logging"
	"roster/internal/ppmi"
	"roster/internal/services"
	"roster/internal/services/catalog"
	"roster/internal/tabfile"
)

// Options selects the input files for one run. Empty fields keep the
// configured defaults.
type Options struct {
	ImagingFilename  string
	TabularFilenames []string
	GroupFilename    string
	Overwrite        bool
}

// Count pairs a label with its number of occurrences.
type Count struct {
	Key string
	N   int
}

// Result summarizes a completed run. Written is false when an existing
// manifest already held exactly the produced content.
type Result struct {
	Path          string
	Rows          int
	Written       bool
	SessionCounts []Count
	CohortCounts  []Count
}

// Builder produces the availability manifest.
type Builder struct {
	cfg      *config.Config
	logger   *slog.Logger
	resolver catalog.Resolver
	opts     Options
}

// New constructs a builder using the directory-backed catalog resolver.
func New(cfg *config.Config, logger *slog.Logger, opts Options) *Builder {
	return NewWithResolver(cfg, logger, catalog.NewDirResolver(cfg.DICOMDir(), logger), opts)
}

// NewWithResolver constructs a builder with an injected catalog
// resolver.
func NewWithResolver(cfg *config.Config, logger *slog.Logger, resolver catalog.Resolver, opts Options) *Builder {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Builder{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "manifest"),
		resolver: resolver,
		opts:     opts,
	}
}

// Run executes one manifest build end to end.
func (b *Builder) Run(ctx context.Context) (*Result, error) {
	if err := b.checkSessionCodes(); err != nil {
		return nil, err
	}

	in, err := b.loadInputs()
	if err != nil {
		return nil, err
	}

	rows, err := b.mapImaging(in.imaging)
	if err != nil {
		return nil, err
	}

	b.fillGroups(in.tabular, in.groups, rows)

	sessionCounts := countBy(rows, func(r imagingRow) string { return r.session })
	rows = b.filterSessions(rows)
	cohortCounts := countBy(rows, func(r imagingRow) string { return r.group })
	rows = b.filterImagingGroups(rows)
	tabular := b.filterTabularGroups(in.tabular)

	cells := b.aggregate(rows, in.lookup)
	merged := b.merge(tabular, cells)

	if err := b.resolveBIDSIDs(ctx, merged); err != nil {
		return nil, err
	}

	result, err := b.write(merged)
	if err != nil {
		return nil, err
	}
	result.SessionCounts = sessionCounts
	result.CohortCounts = cohortCounts
	return result, nil
}

// checkSessionCodes rejects configured sessions no visit maps to, which
// would silently filter out every imaging row.
func (b *Builder) checkSessionCodes() error {
	var unknown []string
	for _, code := range b.cfg.Study.Sessions {
		if !ppmi.KnownSession(code) {
			unknown = append(unknown, code)
		}
	}
	if len(unknown) > 0 {
		return services.Wrap(services.ErrConfiguration, "manifest", "check sessions",
			fmt.Sprintf("no visit maps to session code %s", strings.Join(unknown, ", ")), nil)
	}
	return nil
}

type inputs struct {
	imaging []ppmi.ImagingRecord
	groups  map[string]string
	tabular []ppmi.TabularRecord
	lookup  map[string]string
}

func (b *Builder) loadInputs() (*inputs, error) {
	imagingPath := b.cfg.ImagingPath(b.opts.ImagingFilename)
	imagingTable, err := tabfile.ReadCSV(imagingPath)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "manifest", "load imaging data", "", err)
	}
	imaging, err := ppmi.ImagingRecords(imagingTable)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "manifest", "load imaging data", imagingPath, err)
	}

	groupPath := b.cfg.GroupPath(b.opts.GroupFilename)
	groupTable, err := tabfile.ReadCSV(groupPath)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "manifest", "load participant groups", "", err)
	}
	groups, conflicts, err := ppmi.GroupAssignments(groupTable)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "manifest", "load participant groups", groupPath, err)
	}
	if len(conflicts) > 0 {
		logging.WarnWithContext(b.logger, "participants with conflicting cohort rows", "cohort_conflict",
			logging.String("participants", strings.Join(conflicts, ", ")),
			logging.String(logging.FieldErrorHint, "clean up the participant status file"),
			logging.String(logging.FieldImpact, "the first cohort row per participant is used"))
	}

	tabular, err := b.loadTabular()
	if err != nil {
		return nil, err
	}

	classification, err := descriptions.LoadClassification(b.cfg.DescriptionsPath())
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "manifest", "load classified descriptions", "", err)
	}

	return &inputs{
		imaging: imaging,
		groups:  groups,
		tabular: tabular,
		lookup:  classification.Reverse(b.logger),
	}, nil
}

// write finalizes the manifest, leaving an identical existing file
// untouched and refusing to replace a differing one without Overwrite.
func (b *Builder) write(rows []manifestRow) (*Result, error) {
	path := b.cfg.ManifestPath()
	data, err := encodeRows(rows)
	if err != nil {
		return nil, err
	}

	exists, err := fileutil.FileExists(path)
	if err != nil {
		return nil, fmt.Errorf("stat manifest: %w", err)
	}
	if exists {
		same, err := fileutil.EqualContents(path, data)
		if err != nil {
			return nil, fmt.Errorf("compare manifest: %w", err)
		}
		if same {
			b.logger.Info("existing manifest already up to date",
				logging.String(logging.FieldPath, path))
			return &Result{Path: path, Rows: len(rows), Written: false}, nil
		}
		if !b.opts.Overwrite {
			return nil, services.Wrap(services.ErrConflict, "manifest", "write manifest",
				fmt.Sprintf("%s exists; pass --overwrite to replace it", path), nil)
		}
	}

	if err := fileutil.WriteFileAtomic(path, data, 0o664); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}
	b.logger.Info("manifest written",
		logging.String(logging.FieldPath, path),
		logging.Int("rows", len(rows)))
	return &Result{Path: path, Rows: len(rows), Written: true}, nil
}
