package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/shopledger/backend/internal/application/ledger"
	"github.com/spf13/cobra"
)

// errDriftFound is returned by drift --fail-on-drift
var errDriftFound = errors.New("balance drift detected")

func newDriftCmd(opts *rootOptions) *cobra.Command {
	var failOnDrift bool

	cmd := &cobra.Command{
		Use:   "drift",
		Short: "Reconcile every active party and list the ones that drifted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := openLedger(cmd, opts)
			if err != nil {
				return err
			}
			defer app.close()

			summary, err := app.reconciliation.CheckAll(cmd.Context())
			if err != nil {
				return err
			}
			if opts.output == "json" {
				err = writeJSON(cmd.OutOrStdout(), summary)
			} else {
				err = printDriftSummary(cmd.OutOrStdout(), summary)
			}
			if err != nil {
				return err
			}
			if failOnDrift && len(summary.Drifted) > 0 {
				return errDriftFound
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&failOnDrift, "fail-on-drift", false, "Exit with an error when any party drifted")
	return cmd
}

func printDriftSummary(out io.Writer, s *ledger.DriftSummary) error {
	fmt.Fprintf(out, "Checked %d parties in %s: %d drifted, %d failed\n",
		s.Checked, s.Duration.Round(time.Millisecond), len(s.Drifted), s.Failed)
	if len(s.Drifted) == 0 {
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PARTY\tTYPE\tEXPECTED\tACTUAL\tDRIFT")
	for _, r := range s.Drifted {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.PartyCode, r.PartyType,
			r.Expected.StringFixed(2), r.Actual.StringFixed(2), r.Drift.StringFixed(2))
	}
	return w.Flush()
}
