package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/application/ledger"
	"github.com/spf13/cobra"
)

func newReconcileCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile <party-id>",
		Short: "Compare a party's stored balance with its invoices and payments",
		Example: `  ledgerctl reconcile 8f0b7c9e-2f1a-4a52-9a53-1d6c1f1c2a11
  ledgerctl reconcile 8f0b7c9e-2f1a-4a52-9a53-1d6c1f1c2a11 -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			partyID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid party id %q: %w", args[0], err)
			}

			app, err := openLedger(cmd, opts)
			if err != nil {
				return err
			}
			defer app.close()

			report, err := app.reconciliation.ReconcileParty(cmd.Context(), partyID)
			if err != nil {
				return err
			}
			if opts.output == "json" {
				return writeJSON(cmd.OutOrStdout(), report)
			}
			return printReport(cmd.OutOrStdout(), report)
		},
	}
}

func printReport(out io.Writer, r *ledger.ReconciliationReport) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Party\t%s (%s)\n", r.PartyCode, r.PartyType)
	fmt.Fprintf(w, "Opening balance\t%s\n", r.OpeningBalance.StringFixed(2))
	fmt.Fprintf(w, "Invoiced\t%s\n", r.InvoicedTotal.StringFixed(2))
	fmt.Fprintf(w, "Payments\t%s\n", r.PaymentsDelta.StringFixed(2))
	fmt.Fprintf(w, "Expected\t%s\n", r.Expected.StringFixed(2))
	fmt.Fprintf(w, "Actual\t%s\n", r.Actual.StringFixed(2))
	fmt.Fprintf(w, "Drift\t%s\n", r.Drift.StringFixed(2))
	fmt.Fprintf(w, "Outstanding due\t%s (%d open invoices)\n", r.OutstandingDue.StringFixed(2), r.OpenInvoices)
	fmt.Fprintf(w, "Advance\t%s\n", r.StandingAdvance.StringFixed(2))
	return w.Flush()
}
