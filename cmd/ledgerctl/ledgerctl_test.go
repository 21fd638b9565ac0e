package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/application/ledger"
	"github.com/shopledger/backend/internal/application/payment"
	"github.com/shopledger/backend/internal/domain/finance"
	"github.com/shopledger/backend/internal/infrastructure/csvimport"
	"github.com/shopledger/backend/internal/infrastructure/notification"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAllocation(t *testing.T) {
	invoiceID := uuid.New()

	t.Run("with amount", func(t *testing.T) {
		alloc, err := parseAllocation(invoiceID.String() + "=125.50")
		require.NoError(t, err)
		assert.Equal(t, invoiceID, alloc.InvoiceID)
		assert.True(t, decimal.RequireFromString("125.5").Equal(alloc.Amount))
	})

	t.Run("bare invoice id", func(t *testing.T) {
		alloc, err := parseAllocation(invoiceID.String())
		require.NoError(t, err)
		assert.Equal(t, invoiceID, alloc.InvoiceID)
		assert.True(t, alloc.Amount.IsZero())
	})

	t.Run("bad id", func(t *testing.T) {
		_, err := parseAllocation("INV-1=10")
		assert.ErrorContains(t, err, "invalid invoice id")
	})

	t.Run("bad amount", func(t *testing.T) {
		_, err := parseAllocation(invoiceID.String() + "=ten")
		assert.ErrorContains(t, err, "invalid amount")
	})
}

func TestRecordPaymentOptions_Command(t *testing.T) {
	partyID := uuid.New()
	invoiceID := uuid.New()
	accountID := uuid.New()

	o := &recordPaymentOptions{
		direction:      "out",
		amount:         "700",
		mode:           "against_invoice",
		allocations:    []string{invoiceID.String() + "=700"},
		bankAccount:    accountID.String(),
		actor:          "ops",
		idempotencyKey: "batch-7",
	}
	cmd, err := o.command(partyID.String())
	require.NoError(t, err)

	assert.Equal(t, partyID, cmd.PartyID)
	assert.Equal(t, finance.DirectionOut, cmd.Direction)
	assert.Equal(t, finance.PaymentModeAgainstInvoice, cmd.Mode)
	assert.True(t, decimal.NewFromInt(700).Equal(cmd.Amount))
	require.Len(t, cmd.Allocations, 1)
	assert.Equal(t, invoiceID, cmd.Allocations[0].InvoiceID)
	require.NotNil(t, cmd.BankAccountID)
	assert.Equal(t, accountID, *cmd.BankAccountID)
	assert.Equal(t, "ops", cmd.Metadata.Actor)
	assert.Equal(t, finance.PaymentSourceManual, cmd.Metadata.Source)
	assert.Equal(t, "batch-7", cmd.Metadata.IdempotencyKey)

	t.Run("rejects malformed input before touching the database", func(t *testing.T) {
		_, err := (&recordPaymentOptions{amount: "1"}).command("nope")
		assert.ErrorContains(t, err, "invalid party id")

		_, err = (&recordPaymentOptions{amount: "lots"}).command(partyID.String())
		assert.ErrorContains(t, err, "invalid amount")

		_, err = (&recordPaymentOptions{amount: "1", bankAccount: "cash"}).command(partyID.String())
		assert.ErrorContains(t, err, "invalid bank account id")
	})
}

func TestPrintDriftSummary(t *testing.T) {
	var out bytes.Buffer
	err := printDriftSummary(&out, &ledger.DriftSummary{
		Checked: 3,
		Drifted: []ledger.ReconciliationReport{{
			PartyCode: "C-001",
			PartyType: "customer",
			Expected:  decimal.NewFromInt(300),
			Actual:    decimal.NewFromInt(250),
			Drift:     decimal.NewFromInt(-50),
		}},
		Duration: 1500 * time.Millisecond,
	})
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "Checked 3 parties in 1.5s: 1 drifted, 0 failed")
	assert.Contains(t, text, "C-001")
	assert.Contains(t, text, "-50.00")
}

func TestRootCommand(t *testing.T) {
	root := newRootCmd()

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["reconcile"])
	assert.True(t, names["drift"])
	assert.True(t, names["record-payment"])
	assert.True(t, names["import-payments"])
	assert.True(t, names["watch"])

	root.SetArgs([]string{"reconcile"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	assert.Error(t, root.Execute())
}

func TestPrintImportReport(t *testing.T) {
	t.Run("recorded and rejected rows", func(t *testing.T) {
		var out bytes.Buffer
		err := printImportReport(&out, &payment.ImportReport{
			TotalRows: 2,
			Recorded:  1,
			Rejected:  1,
			Payments: []payment.ImportedPayment{
				{Row: 2, Number: "PAY-IN-000042", State: payment.StateCompleted},
			},
			Errors: []csvimport.RowError{
				{Row: 3, Code: csvimport.ErrCodeRejected, Message: "INVOICE_NOT_FOUND: invoice not found"},
			},
		})
		require.NoError(t, err)

		text := out.String()
		assert.Contains(t, text, "2 rows: 1 recorded, 0 replayed, 1 rejected")
		assert.Contains(t, text, "PAY-IN-000042")
		assert.Contains(t, text, "INVOICE_NOT_FOUND")
	})

	t.Run("dry run", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, printImportReport(&out, &payment.ImportReport{TotalRows: 4, DryRun: true}))
		assert.Equal(t, "Dry run: 4 rows, 0 rejected\n", out.String())
	})
}

func TestPrintReceived(t *testing.T) {
	partyID := uuid.New()
	drift := finance.NewLedgerDriftDetectedEvent(partyID, decimal.NewFromInt(600), decimal.NewFromInt(1000))

	t.Run("decoded event adds details", func(t *testing.T) {
		var out bytes.Buffer
		err := printReceived(&out, &notification.Received{
			Notification: notification.Notification{
				EventType:  finance.EventTypeLedgerDriftDetected,
				Subject:    "Ledger drift",
				OccurredAt: time.Date(2026, 3, 1, 9, 30, 0, 0, time.Local),
			},
			Event: drift,
		})
		require.NoError(t, err)

		text := out.String()
		assert.Contains(t, text, "2026-03-01 09:30:00")
		assert.Contains(t, text, "ledger.drift_detected")
		assert.Contains(t, text, "Ledger drift")
		assert.Contains(t, text, "[party "+partyID.String()+" drift 400.00]")
	})

	t.Run("notification without payload", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, printReceived(&out, &notification.Received{
			Notification: notification.Notification{EventType: finance.EventTypePaymentRecorded, Subject: "Payment"},
		}))
		assert.NotContains(t, out.String(), "[")
	})
}
