package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/shopledger/backend/internal/application/ledger"
	"github.com/shopledger/backend/internal/application/payment"
	"github.com/shopledger/backend/internal/domain/finance"
	"github.com/shopledger/backend/internal/infrastructure/cache"
	"github.com/shopledger/backend/internal/infrastructure/config"
	"github.com/shopledger/backend/internal/infrastructure/logger"
	"github.com/shopledger/backend/internal/infrastructure/persistence"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "dev"

type rootOptions struct {
	logLevel string
	output   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Operate the shop ledger from the command line",
		Long: `ledgerctl records payments and checks party balances against their
invoices and payments, using the same configuration as the server
(config.toml, .env and SHOP_* environment variables).`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "text", "Output format (text, json)")

	cmd.AddCommand(
		newReconcileCmd(opts),
		newDriftCmd(opts),
		newRecordPaymentCmd(opts),
		newImportPaymentsCmd(opts),
		newWatchCmd(opts),
	)
	return cmd
}

// ledgerApp holds the services a command needs and releases them on close
type ledgerApp struct {
	log            *zap.Logger
	orchestrator   *payment.Orchestrator
	importer       *payment.Importer
	reconciliation *ledger.ReconciliationService
	closers        []func() error
}

func openLedger(cmd *cobra.Command, opts *rootOptions) (*ledgerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	log, err := logger.New(&logger.Config{
		Level:      opts.logLevel,
		Format:     "console",
		Output:     "stderr",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	db, err := persistence.NewDatabase(&cfg.Database,
		persistence.WithLogger(logger.NewGormLogger(log, logger.MapGormLogLevel(opts.logLevel))))
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	app := &ledgerApp{log: log, closers: []func() error{db.Close}}

	store, _, err := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log)).CreateStore(cmd.Context())
	if err != nil {
		app.close()
		return nil, fmt.Errorf("create idempotency store: %w", err)
	}
	app.closers = append(app.closers, store.Close)

	partyRepo := persistence.NewGormPartyRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	auditRepo := persistence.NewGormAuditRepository(db.DB)

	orchestratorOpts := []payment.Option{
		payment.WithOverpaymentPolicy(finance.OverpaymentPolicy(cfg.Ledger.OverpaymentPolicy)),
		payment.WithBankLedger(persistence.NewGormBankLedger(db.DB), persistence.NewGormBankTransactionRepository(db.DB)),
		payment.WithAuditRepository(auditRepo),
		payment.WithLogger(log),
	}
	if cfg.Ledger.IdempotencyEnabled {
		orchestratorOpts = append(orchestratorOpts, payment.WithIdempotencyStore(store, cfg.Ledger.IdempotencyTTL))
	}
	uow := persistence.NewGormLedgerUnitOfWork(db.DB)
	app.orchestrator = payment.NewOrchestrator(uow, partyRepo, invoiceRepo, paymentRepo, orchestratorOpts...)
	app.importer = payment.NewImporter(app.orchestrator, partyRepo, log)
	app.reconciliation = ledger.NewReconciliationService(partyRepo, invoiceRepo, paymentRepo,
		ledger.WithLedgerSnapshot(uow),
		ledger.WithDriftAudit(auditRepo),
		ledger.WithReconciliationLogger(log),
	)
	return app, nil
}

func (a *ledgerApp) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("Close failed", zap.Error(err))
		}
	}
	_ = a.log.Sync()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
