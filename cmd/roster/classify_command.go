package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"roster/internal/descriptions"
)

func newClassifyCommand(cctx *commandContext) *cobra.Command {
	var overwrite bool
	var logFile string

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify imaging descriptions into datatypes",
		Long: `Classify groups the free-text scan descriptions from the imaging availability
export into BIDS datatypes using the configured filter rules, then writes the
datatype-descriptions mapping and the list of descriptions no rule matched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, done, err := beginRun(cmd, cctx, logFile)
			if err != nil {
				return err
			}
			defer done()

			pipeline := descriptions.NewPipeline(r.cfg, r.logger, descriptions.Options{Overwrite: overwrite})
			out, err := pipeline.Run()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			renderReview(w, out.Results)
			fmt.Fprintf(w, "Classified %d descriptions from %d imaging rows (%d ignored)\n",
				len(out.Classification.All()), out.Records, len(out.Ignored))
			fmt.Fprintf(w, "Descriptions written to %s\n", out.DescriptionsPath)
			fmt.Fprintf(w, "Ignored descriptions written to %s\n", out.IgnoredPath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace existing output files")
	cmd.Flags().StringVar(&logFile, "log-file", "", "Write run logs to this file instead of the per-command default")
	return cmd
}

// renderReview prints the per-target curation tables. Each finding list
// names the rule list a misclassified description belongs in.
func renderReview(w io.Writer, results []descriptions.Result) {
	colorize := shouldColorize(w)
	for _, res := range results {
		renderFindings(w, colorize, res.Target,
			"descriptions without a common substring; add misfits to the exclude list", res.Suspicious)
		renderFindings(w, colorize, res.Target,
			"descriptions shared with other modalities; add misfits to the exclude_out list", res.SharedOut)
		renderFindings(w, colorize, res.Target,
			"descriptions recovered from other modalities; add misfits to the exclude_out list", res.Recovered)
	}
}

func renderFindings(w io.Writer, colorize bool, target, caption string, findings []descriptions.Finding) {
	if len(findings) == 0 {
		return
	}
	rows := make([][]string, 0, len(findings))
	for _, f := range findings {
		rows = append(rows, []string{f.Description, strconv.Itoa(f.Count)})
	}
	fmt.Fprintf(w, "%s: %s\n", target, caption)
	fmt.Fprintln(w, renderTable([]string{"Description", "Rows"}, rows, []columnAlignment{alignLeft, alignRight}, colorize))
}
