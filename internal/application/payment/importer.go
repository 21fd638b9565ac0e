package payment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/finance"
	"github.com/shopledger/backend/internal/domain/partner"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopledger/backend/internal/infrastructure/csvimport"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Columns of a payment import file
const (
	ColumnPartyCode     = "party_code"
	ColumnDirection     = "direction"
	ColumnAmount        = "amount"
	ColumnMode          = "mode"
	ColumnInvoiceID     = "invoice_id"
	ColumnBankAccountID = "bank_account_id"
	ColumnReference     = "reference"
	ColumnPaymentDate   = "payment_date"
	ColumnNotes         = "notes"
)

var requiredImportColumns = []string{ColumnPartyCode, ColumnDirection, ColumnAmount}

func importRules() []csvimport.FieldRule {
	return []csvimport.FieldRule{
		csvimport.Field(ColumnPartyCode).Required().MaxLength(50).Build(),
		csvimport.Field(ColumnDirection).Required().OneOf(string(finance.DirectionIn), string(finance.DirectionOut)).Build(),
		csvimport.Field(ColumnAmount).Required().Positive().Build(),
		csvimport.Field(ColumnMode).OneOf(string(finance.PaymentModeAdvance), string(finance.PaymentModeAgainstInvoice)).Build(),
		csvimport.Field(ColumnInvoiceID).UUID().Build(),
		csvimport.Field(ColumnBankAccountID).UUID().Build(),
		csvimport.Field(ColumnReference).MaxLength(100).Unique().Build(),
		csvimport.Field(ColumnPaymentDate).Date("2006-01-02").Build(),
		csvimport.Field(ColumnNotes).MaxLength(500).Build(),
	}
}

// paymentRecorder is the part of the Orchestrator the importer drives
type paymentRecorder interface {
	RecordPayment(ctx context.Context, cmd RecordPaymentCommand) (*PaymentResult, error)
}

// Importer records the payments listed in a CSV file. Every row goes
// through RecordPayment on its own; the file is validated as a whole first
// and nothing is recorded when any row is invalid.
type Importer struct {
	recorder  paymentRecorder
	parties   partner.PartyRepository
	maxErrors int
	logger    *zap.Logger
}

// NewImporter creates an Importer
func NewImporter(recorder paymentRecorder, parties partner.PartyRepository, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{
		recorder:  recorder,
		parties:   parties,
		maxErrors: 100,
		logger:    logger,
	}
}

// ImportOptions controls one import run
type ImportOptions struct {
	Actor string
	// DryRun validates the file and resolves parties without recording
	DryRun bool
	// KeyPrefix namespaces the reference column when it becomes the
	// idempotency key, so re-running a file replays instead of duplicating
	KeyPrefix string
}

// ImportedPayment is the outcome of one recorded row
type ImportedPayment struct {
	Row       int       `json:"row"`
	PaymentID uuid.UUID `json:"payment_id"`
	Number    string    `json:"number"`
	State     State     `json:"state"`
	Replayed  bool      `json:"replayed"`
	Warnings  []Warning `json:"warnings,omitempty"`
}

// ImportReport summarizes an import run
type ImportReport struct {
	TotalRows int                  `json:"total_rows"`
	Recorded  int                  `json:"recorded"`
	Replayed  int                  `json:"replayed"`
	Rejected  int                  `json:"rejected"`
	DryRun    bool                 `json:"dry_run"`
	Payments  []ImportedPayment    `json:"payments"`
	Errors    []csvimport.RowError `json:"errors,omitempty"`
	Truncated bool                 `json:"truncated,omitempty"`
}

type importRow struct {
	line int
	cmd  RecordPaymentCommand
}

// Import reads the file and records its payments. A file-level problem
// (encoding, header, malformed line) is returned as an error; row problems
// are reported in the ImportReport.
func (i *Importer) Import(ctx context.Context, r io.Reader, opts ImportOptions) (*ImportReport, error) {
	parser, err := csvimport.NewParser(r)
	if err != nil {
		return nil, finance.NewPaymentError(finance.KindInvalidInput, "unreadable payment file").Wrap(err)
	}
	if missing := parser.MissingHeaders(requiredImportColumns); len(missing) > 0 {
		return nil, finance.NewPaymentError(finance.KindInvalidInput,
			fmt.Sprintf("payment file is missing columns: %s", strings.Join(missing, ", ")))
	}
	rows, err := parser.ReadAll()
	if err != nil {
		return nil, finance.NewPaymentError(finance.KindInvalidInput, "malformed payment file").Wrap(err)
	}

	report := &ImportReport{TotalRows: len(rows), DryRun: opts.DryRun, Payments: []ImportedPayment{}}
	errs := csvimport.NewErrorCollection(i.maxErrors)

	validator := csvimport.NewFieldValidator(importRules(), i.maxErrors)
	var valid []*csvimport.Row
	for _, row := range rows {
		if validator.ValidateRow(row) {
			valid = append(valid, row)
		}
	}
	for _, e := range validator.Errors().Errors() {
		errs.Add(e)
	}

	commands := i.resolve(ctx, valid, opts, errs)
	if errs.HasErrors() {
		report.Rejected = report.TotalRows - len(commands)
		i.finish(report, errs)
		i.logger.Warn("Payment import rejected",
			zap.Int("rows", report.TotalRows),
			zap.Int("errors", errs.TotalCount()),
		)
		return report, nil
	}
	if opts.DryRun {
		return report, nil
	}

	for _, row := range commands {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		result, err := i.recorder.RecordPayment(ctx, row.cmd)
		if err != nil {
			report.Rejected++
			errs.Add(csvimport.RowError{
				Row:     row.line,
				Code:    csvimport.ErrCodeRejected,
				Message: rejectionMessage(err),
			})
			continue
		}
		if result.Replayed {
			report.Replayed++
		} else {
			report.Recorded++
		}
		report.Payments = append(report.Payments, ImportedPayment{
			Row:       row.line,
			PaymentID: result.Payment.ID,
			Number:    result.Payment.Number,
			State:     result.State,
			Replayed:  result.Replayed,
			Warnings:  result.Warnings,
		})
	}
	i.finish(report, errs)

	i.logger.Info("Payment import finished",
		zap.String("actor", opts.Actor),
		zap.Int("rows", report.TotalRows),
		zap.Int("recorded", report.Recorded),
		zap.Int("replayed", report.Replayed),
		zap.Int("rejected", report.Rejected),
	)
	return report, nil
}

// resolve looks up party codes and turns rows into commands. Unknown or
// inactive parties are reported against the row.
func (i *Importer) resolve(ctx context.Context, rows []*csvimport.Row, opts ImportOptions, errs *csvimport.ErrorCollection) []importRow {
	parties := make(map[string]*partner.Party)
	out := make([]importRow, 0, len(rows))

	for _, row := range rows {
		code := row.Get(ColumnPartyCode)
		party, ok := parties[code]
		if !ok {
			found, err := i.parties.FindByCode(ctx, code)
			switch {
			case errors.Is(err, shared.ErrNotFound):
				found = nil
			case err != nil:
				errs.Add(csvimport.RowError{Row: row.LineNumber, Column: ColumnPartyCode,
					Code: csvimport.ErrCodeReferenceMissing, Message: "party lookup failed", Value: code})
				continue
			}
			parties[code] = found
			party = found
		}
		if party == nil {
			errs.Add(csvimport.RowError{Row: row.LineNumber, Column: ColumnPartyCode,
				Code: csvimport.ErrCodeReferenceMissing, Message: fmt.Sprintf("party '%s' not found", code), Value: code})
			continue
		}
		if !party.IsActive {
			errs.Add(csvimport.RowError{Row: row.LineNumber, Column: ColumnPartyCode,
				Code: csvimport.ErrCodeReferenceMissing, Message: fmt.Sprintf("party '%s' is inactive", code), Value: code})
			continue
		}
		out = append(out, importRow{line: row.LineNumber, cmd: rowCommand(row, party.ID, opts)})
	}
	return out
}

// rowCommand builds the command of a validated row
func rowCommand(row *csvimport.Row, partyID uuid.UUID, opts ImportOptions) RecordPaymentCommand {
	amount, _ := decimal.NewFromString(row.Get(ColumnAmount))
	cmd := RecordPaymentCommand{
		PartyID:   partyID,
		Direction: finance.Direction(strings.ToLower(row.Get(ColumnDirection))),
		Amount:    amount,
		Mode:      finance.PaymentMode(strings.ToLower(row.GetOrDefault(ColumnMode, string(finance.PaymentModeAgainstInvoice)))),
		Metadata: Metadata{
			Actor:  opts.Actor,
			Source: finance.PaymentSourceImported,
			Notes:  row.Get(ColumnNotes),
		},
	}
	if ref := row.Get(ColumnReference); ref != "" {
		cmd.Metadata.IdempotencyKey = opts.KeyPrefix + ref
	}
	if v := row.Get(ColumnInvoiceID); v != "" {
		cmd.Allocations = []finance.AllocationRequest{{InvoiceID: uuid.MustParse(v)}}
	}
	if v := row.Get(ColumnBankAccountID); v != "" {
		id := uuid.MustParse(v)
		cmd.BankAccountID = &id
	}
	if v := row.Get(ColumnPaymentDate); v != "" {
		cmd.Metadata.PaymentDate, _ = time.Parse("2006-01-02", v)
	}
	return cmd
}

func rejectionMessage(err error) string {
	if perr, ok := finance.AsPaymentError(err); ok {
		return fmt.Sprintf("%s: %s", perr.Kind, perr.Message)
	}
	return err.Error()
}

func (i *Importer) finish(report *ImportReport, errs *csvimport.ErrorCollection) {
	report.Errors = errs.Errors()
	report.Truncated = errs.IsTruncated()
}
