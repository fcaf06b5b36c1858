package descriptions

import (
	"fmt"
	"log/slog"
	"strings"

	"roster/internal/config"
	"roster/internal/fileutil"
	"roster/internal/logging"
	"roster/internal/ppmi"
	"roster/internal/services"
	"roster/internal/tabfile"
)

// Options configures one classifier run.
type Options struct {
	Overwrite bool
}

// Output summarizes a completed classifier run.
type Output struct {
	Classification   Classification
	Results          []Result
	Ignored          []string
	Records          int
	DescriptionsPath string
	IgnoredPath      string
}

// Pipeline runs the classifier end to end: load the imaging availability
// export, apply the filter rules per target, and persist the
// datatype-descriptions mapping plus the ignored-descriptions list.
type Pipeline struct {
	cfg    *config.Config
	logger *slog.Logger
	opts   Options
}

// NewPipeline constructs a classifier pipeline.
func NewPipeline(cfg *config.Config, logger *slog.Logger, opts Options) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "classifier"),
		opts:   opts,
	}
}

// Run executes one classification end to end.
func (p *Pipeline) Run() (*Output, error) {
	rules, err := LoadRules(p.cfg.Classify.RulesPath)
	if err != nil {
		return nil, err
	}

	if err := p.checkOutputs(); err != nil {
		return nil, err
	}

	path := p.cfg.ImagingInfoPath()
	table, err := tabfile.ReadCSV(path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "classifier", "load imaging info", "", err)
	}
	records, err := ppmi.ImagingRecords(table)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "classifier", "load imaging info", path, err)
	}
	p.logger.Info("loaded imaging availability",
		logging.String(logging.FieldPath, path),
		logging.Int("rows", len(records)))

	cls, results := BuildClassification(records, rules)
	for _, res := range results {
		p.logResult(res)
	}

	ignored := Ignored(records, cls)
	p.logger.Info("classification complete",
		logging.Int("classified", len(cls.All())),
		logging.Int("ignored", len(ignored)))

	out := &Output{
		Classification:   cls,
		Results:          results,
		Ignored:          ignored,
		Records:          len(records),
		DescriptionsPath: p.cfg.DescriptionsPath(),
		IgnoredPath:      p.cfg.IgnoredPath(),
	}
	if err := p.writeOutputs(out); err != nil {
		return nil, err
	}
	return out, nil
}

// checkOutputs refuses to clobber either artifact. Both paths are checked
// up front so a run never leaves one updated and the other stale.
func (p *Pipeline) checkOutputs() error {
	if p.opts.Overwrite {
		return nil
	}
	for _, path := range []string{p.cfg.DescriptionsPath(), p.cfg.IgnoredPath()} {
		exists, err := fileutil.FileExists(path)
		if err != nil {
			return err
		}
		if exists {
			return services.Wrap(services.ErrConflict, "classifier", "write outputs",
				fmt.Sprintf("%s exists; pass --overwrite to replace it", path), nil)
		}
	}
	return nil
}

func (p *Pipeline) writeOutputs(out *Output) error {
	if err := tabfile.WriteJSON(out.DescriptionsPath, out.Classification, 0o664); err != nil {
		return fmt.Errorf("write descriptions: %w", err)
	}
	p.logger.Info("descriptions written",
		logging.String(logging.FieldPath, out.DescriptionsPath))

	ignoredTable := tabfile.NewTable(ppmi.ColDescription)
	for _, desc := range out.Ignored {
		ignoredTable.Append(desc)
	}
	if err := tabfile.WriteCSV(out.IgnoredPath, ignoredTable, 0o664); err != nil {
		return fmt.Errorf("write ignored descriptions: %w", err)
	}
	p.logger.Info("ignored descriptions written",
		logging.String(logging.FieldPath, out.IgnoredPath),
		logging.Int("rows", len(out.Ignored)))
	return nil
}

// logResult emits the per-target funnel counts plus the review findings a
// curator acts on when tuning the rules.
func (p *Pipeline) logResult(res Result) {
	p.logger.Info("classified target",
		logging.String(logging.FieldTarget, res.Target),
		logging.Int("in_modality", res.InModality),
		logging.Int("after_exclude", res.AfterExclude),
		logging.Int("after_reject", res.AfterReject),
		logging.Int("recovered", len(res.Recovered)),
		logging.Int("selected", len(res.Selected)))

	if len(res.Suspicious) > 0 {
		logging.WarnWithContext(p.logger, "selected descriptions without a common substring", "suspicious_description",
			logging.String(logging.FieldTarget, res.Target),
			logging.String("descriptions", joinFindings(res.Suspicious)),
			logging.String(logging.FieldErrorHint, "verify each is really "+res.Target+"; otherwise add it to the exclude list"),
			logging.String(logging.FieldImpact, "unverified descriptions stay classified as "+res.Target))
	}
	if len(res.SharedOut) > 0 {
		logging.WarnWithContext(p.logger, "selected descriptions also occur in other modalities", "shared_description",
			logging.String(logging.FieldTarget, res.Target),
			logging.String("descriptions", joinFindings(res.SharedOut)),
			logging.String(logging.FieldErrorHint, "verify each is really "+res.Target+"; otherwise add it to the exclude_out list"),
			logging.String(logging.FieldImpact, "the descriptions stay selected for "+res.Target))
	}
	if len(res.Recovered) > 0 {
		logging.WarnWithContext(p.logger, "descriptions recovered from other modalities", "recovered_description",
			logging.String(logging.FieldTarget, res.Target),
			logging.String("descriptions", joinFindings(res.Recovered)),
			logging.String(logging.FieldErrorHint, "verify each is really "+res.Target+"; otherwise add it to the exclude_out list"),
			logging.String(logging.FieldImpact, "the descriptions were added to "+res.Target))
	}
}

func joinFindings(findings []Finding) string {
	parts := make([]string, 0, len(findings))
	for _, f := range findings {
		parts = append(parts, fmt.Sprintf("%s (%d)", f.Description, f.Count))
	}
	return strings.Join(parts, ", ")
}
