package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"roster/internal/manifest"
)

func newManifestCommand(cctx *commandContext) *cobra.Command {
	var imagingFilename string
	var tabularFilenames []string
	var groupFilename string
	var overwrite bool
	var logFile string

	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Build the participant availability manifest",
		Long: `Manifest joins the imaging availability export with the clinical study-data
files, fills and filters cohorts, aggregates the classified datatypes per
participant and visit, resolves BIDS identifiers, and writes the manifest CSV.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, done, err := beginRun(cmd, cctx, logFile)
			if err != nil {
				return err
			}
			defer done()

			builder := manifest.New(r.cfg, r.logger, manifest.Options{
				ImagingFilename:  imagingFilename,
				TabularFilenames: tabularFilenames,
				GroupFilename:    groupFilename,
				Overwrite:        overwrite,
			})
			result, err := builder.Run(r.ctx)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			renderCounts(w, "Session", result.SessionCounts)
			renderCounts(w, "Cohort", result.CohortCounts)
			if result.Written {
				fmt.Fprintf(w, "Manifest with %d rows written to %s\n", result.Rows, result.Path)
			} else {
				fmt.Fprintf(w, "Manifest at %s is already up to date (%d rows)\n", result.Path, result.Rows)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&imagingFilename, "imaging-filename", "", "Imaging availability file under tabular/study_data")
	cmd.Flags().StringArrayVar(&tabularFilenames, "tabular-filename", nil, "Clinical study-data file under tabular/study_data; repeatable, replaces the configured list")
	cmd.Flags().StringVar(&groupFilename, "group-filename", "", "Participant status file under tabular/study_data")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace a differing existing manifest")
	cmd.Flags().StringVar(&logFile, "log-file", "", "Write run logs to this file instead of the per-command default")
	return cmd
}

func renderCounts(w io.Writer, label string, counts []manifest.Count) {
	if len(counts) == 0 {
		return
	}
	rows := make([][]string, 0, len(counts))
	for _, count := range counts {
		key := count.Key
		if key == "" {
			key = "(none)"
		}
		rows = append(rows, []string{key, strconv.Itoa(count.N)})
	}
	fmt.Fprintln(w, renderTable([]string{label, "Rows"}, rows, []columnAlignment{alignLeft, alignRight}, shouldColorize(w)))
}
