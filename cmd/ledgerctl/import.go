package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/shopledger/backend/internal/application/payment"
	"github.com/spf13/cobra"
)

// errImportRejected is returned when any row of the file was not recorded
var errImportRejected = errors.New("payment import had rejected rows")

func newImportPaymentsCmd(opts *rootOptions) *cobra.Command {
	var (
		dryRun    bool
		keyPrefix string
		actor     string
	)

	cmd := &cobra.Command{
		Use:   "import-payments <file.csv>",
		Short: "Record the payments listed in a CSV file",
		Long: `Records one payment per row of a CSV file. Required columns are
party_code, direction and amount; mode, invoice_id, bank_account_id,
reference, payment_date and notes are optional.

The whole file is validated first and nothing is recorded if any row is
invalid. The reference column becomes the idempotency key, so running
the same file again replays the payments instead of duplicating them.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open payment file: %w", err)
			}
			defer file.Close()

			app, err := openLedger(cmd, opts)
			if err != nil {
				return err
			}
			defer app.close()

			report, err := app.importer.Import(cmd.Context(), file, payment.ImportOptions{
				Actor:     actor,
				DryRun:    dryRun,
				KeyPrefix: keyPrefix,
			})
			if err != nil {
				return err
			}
			if opts.output == "json" {
				err = writeJSON(cmd.OutOrStdout(), report)
			} else {
				err = printImportReport(cmd.OutOrStdout(), report)
			}
			if err != nil {
				return err
			}
			if report.Rejected > 0 {
				return errImportRejected
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate the file without recording anything")
	cmd.Flags().StringVar(&keyPrefix, "key-prefix", "import:", "Prefix added to the reference column to form idempotency keys")
	cmd.Flags().StringVar(&actor, "actor", "ledgerctl", "Actor recorded on the payments and audit entries")
	return cmd
}

func printImportReport(out io.Writer, r *payment.ImportReport) error {
	if r.DryRun {
		fmt.Fprintf(out, "Dry run: %d rows, %d rejected\n", r.TotalRows, r.Rejected)
	} else {
		fmt.Fprintf(out, "%d rows: %d recorded, %d replayed, %d rejected\n",
			r.TotalRows, r.Recorded, r.Replayed, r.Rejected)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if len(r.Payments) > 0 {
		fmt.Fprintln(w, "ROW\tPAYMENT\tSTATE\tREPLAYED")
		for _, p := range r.Payments {
			fmt.Fprintf(w, "%d\t%s\t%s\t%t\n", p.Row, p.Number, p.State, p.Replayed)
		}
	}
	if len(r.Errors) > 0 {
		if len(r.Payments) > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, "ROW\tCOLUMN\tCODE\tMESSAGE")
		for _, e := range r.Errors {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", e.Row, e.Column, e.Code, e.Message)
		}
		if r.Truncated {
			fmt.Fprintln(w, "...\t\t\tmore errors omitted")
		}
	}
	return w.Flush()
}
