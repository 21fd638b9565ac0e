package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/application/ledger"
	"github.com/shopledger/backend/internal/application/payment"
	"github.com/shopledger/backend/internal/domain/finance"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

type recordPaymentOptions struct {
	direction      string
	amount         string
	mode           string
	allocations    []string
	bankAccount    string
	actor          string
	idempotencyKey string
	notes          string
}

func newRecordPaymentCmd(opts *rootOptions) *cobra.Command {
	o := &recordPaymentOptions{}

	cmd := &cobra.Command{
		Use:   "record-payment <party-id>",
		Short: "Record a payment received from or made to a party",
		Example: `  # Customer pays 1500, oldest invoices first
  ledgerctl record-payment 8f0b7c9e-2f1a-4a52-9a53-1d6c1f1c2a11 --amount 1500

  # Pay two supplier invoices from a bank account
  ledgerctl record-payment <party-id> --direction out --amount 700 \
    --allocate <invoice-id>=500 --allocate <invoice-id>=200 --bank-account <account-id>

  # Advance without touching invoices
  ledgerctl record-payment <party-id> --amount 250 --mode advance`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			command, err := o.command(args[0])
			if err != nil {
				return err
			}

			app, err := openLedger(cmd, opts)
			if err != nil {
				return err
			}
			defer app.close()

			result, err := app.orchestrator.RecordPayment(cmd.Context(), command)
			if err != nil {
				return err
			}
			if opts.output == "json" {
				return writeJSON(cmd.OutOrStdout(), toPaymentOutput(result))
			}
			printPaymentResult(cmd.OutOrStdout(), result)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&o.direction, "direction", string(finance.DirectionIn), "in (from a customer) or out (to a supplier)")
	flags.StringVar(&o.amount, "amount", "", "Payment amount")
	flags.StringVar(&o.mode, "mode", string(finance.PaymentModeAgainstInvoice), "advance or against_invoice")
	flags.StringArrayVar(&o.allocations, "allocate", nil, "Invoice allocation as <invoice-id>=<amount>, repeatable; a single bare <invoice-id> takes the whole amount")
	flags.StringVar(&o.bankAccount, "bank-account", "", "Bank account to post the movement to")
	flags.StringVar(&o.actor, "actor", "ledgerctl", "Operator recorded in the audit trail")
	flags.StringVar(&o.idempotencyKey, "idempotency-key", "", "Key that makes retries safe")
	flags.StringVar(&o.notes, "notes", "", "Free-form notes")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func (o *recordPaymentOptions) command(partyArg string) (payment.RecordPaymentCommand, error) {
	var cmd payment.RecordPaymentCommand

	partyID, err := uuid.Parse(partyArg)
	if err != nil {
		return cmd, fmt.Errorf("invalid party id %q: %w", partyArg, err)
	}
	amount, err := decimal.NewFromString(o.amount)
	if err != nil {
		return cmd, fmt.Errorf("invalid amount %q: %w", o.amount, err)
	}

	cmd = payment.RecordPaymentCommand{
		PartyID:   partyID,
		Direction: finance.Direction(o.direction),
		Amount:    amount,
		Mode:      finance.PaymentMode(o.mode),
		Metadata: payment.Metadata{
			Actor:          o.actor,
			Source:         finance.PaymentSourceManual,
			IdempotencyKey: o.idempotencyKey,
			Notes:          o.notes,
		},
	}

	for _, raw := range o.allocations {
		alloc, err := parseAllocation(raw)
		if err != nil {
			return cmd, err
		}
		cmd.Allocations = append(cmd.Allocations, alloc)
	}

	if o.bankAccount != "" {
		accountID, err := uuid.Parse(o.bankAccount)
		if err != nil {
			return cmd, fmt.Errorf("invalid bank account id %q: %w", o.bankAccount, err)
		}
		cmd.BankAccountID = &accountID
	}
	return cmd, nil
}

func parseAllocation(raw string) (finance.AllocationRequest, error) {
	idPart, amountPart, hasAmount := strings.Cut(raw, "=")
	invoiceID, err := uuid.Parse(strings.TrimSpace(idPart))
	if err != nil {
		return finance.AllocationRequest{}, fmt.Errorf("invalid invoice id in allocation %q: %w", raw, err)
	}
	alloc := finance.AllocationRequest{InvoiceID: invoiceID}
	if hasAmount {
		alloc.Amount, err = decimal.NewFromString(strings.TrimSpace(amountPart))
		if err != nil {
			return finance.AllocationRequest{}, fmt.Errorf("invalid amount in allocation %q: %w", raw, err)
		}
	}
	return alloc, nil
}

type paymentOutput struct {
	Payment         ledger.PaymentResponse          `json:"payment"`
	PartyBalance    decimal.Decimal                 `json:"party_balance"`
	BankTransaction *ledger.BankTransactionResponse `json:"bank_transaction,omitempty"`
	State           payment.State                   `json:"state"`
	Replayed        bool                            `json:"replayed"`
	Warnings        []payment.Warning               `json:"warnings,omitempty"`
}

func toPaymentOutput(r *payment.PaymentResult) paymentOutput {
	out := paymentOutput{
		Payment:      ledger.ToPaymentResponse(r.Payment),
		PartyBalance: r.PartyBalance,
		State:        r.State,
		Replayed:     r.Replayed,
		Warnings:     r.Warnings,
	}
	if r.BankTransaction != nil {
		txn := ledger.ToBankTransactionResponse(r.BankTransaction)
		out.BankTransaction = &txn
	}
	return out
}

func printPaymentResult(out io.Writer, r *payment.PaymentResult) {
	verb := "Recorded"
	if r.Replayed {
		verb = "Replayed"
	}
	fmt.Fprintf(out, "%s payment %s (%s): %s %s\n", verb, r.Payment.Number, r.State,
		r.Payment.Direction, r.Payment.Amount.StringFixed(2))
	for _, a := range r.Payment.Allocations {
		fmt.Fprintf(out, "  invoice %s  %s\n", a.InvoiceID, a.Amount.StringFixed(2))
	}
	if r.Payment.AdvanceRemainder.IsPositive() {
		fmt.Fprintf(out, "  advance  %s\n", r.Payment.AdvanceRemainder.StringFixed(2))
	}
	fmt.Fprintf(out, "Party balance: %s\n", r.PartyBalance.StringFixed(2))
	if r.BankTransaction != nil {
		fmt.Fprintf(out, "Bank transaction %s, balance after %s\n",
			r.BankTransaction.ID, r.BankTransaction.BalanceAfter.StringFixed(2))
	}
	for _, w := range r.Warnings {
		fmt.Fprintf(out, "Warning [%s]: %s\n", w.Kind, w.Message)
	}
}
