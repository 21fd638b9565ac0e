package router

import (
	"github.com/gin-gonic/gin"
	"github.com/shopledger/backend/internal/interfaces/http/handler"
)

// LedgerHandlers groups the handlers served under /api/v1
type LedgerHandlers struct {
	Payments       *handler.PaymentHandler
	PaymentImport  *handler.PaymentImportHandler
	Parties        *handler.PartyHandler
	Invoices       *handler.InvoiceHandler
	BankAccounts   *handler.BankAccountHandler
	Reconciliation *handler.ReconciliationHandler
	System         *handler.SystemHandler
}

// LedgerRoutes returns the route groups of the ledger API. paymentLimit runs
// in front of the payment-recording routes only.
func LedgerRoutes(h LedgerHandlers, paymentLimit ...gin.HandlerFunc) []RouteRegistrar {
	payments := NewDomainGroup("payments", "/payments")
	record := append(append([]gin.HandlerFunc{}, paymentLimit...), h.Payments.Record)
	payments.POST("", record...)
	payments.GET("/:id", h.Payments.GetByID)
	if h.PaymentImport != nil {
		upload := append(append([]gin.HandlerFunc{}, paymentLimit...), h.PaymentImport.Import)
		payments.POST("/import", upload...)
	}

	parties := NewDomainGroup("parties", "/parties")
	parties.POST("", h.Parties.Create).
		GET("", h.Parties.List).
		GET("/:id", h.Parties.GetByID).
		POST("/:id/deactivate", h.Parties.Deactivate).
		GET("/:id/invoices", h.Invoices.ListByParty).
		GET("/:id/payments", h.Payments.ListByParty).
		GET("/:id/reconciliation", h.Reconciliation.ReconcileParty)

	invoices := NewDomainGroup("invoices", "/invoices")
	invoices.POST("", h.Invoices.Issue).
		GET("/:id", h.Invoices.GetByID)

	accounts := NewDomainGroup("bank-accounts", "/bank-accounts")
	accounts.POST("", h.BankAccounts.Open).
		GET("", h.BankAccounts.List).
		GET("/:id", h.BankAccounts.GetByID).
		POST("/:id/deactivate", h.BankAccounts.Deactivate).
		GET("/:id/transactions", h.BankAccounts.Transactions)

	reconciliation := NewDomainGroup("reconciliation", "/reconciliation")
	reconciliation.POST("/drift-check", h.Reconciliation.CheckAll)

	registrars := []RouteRegistrar{payments, parties, invoices, accounts, reconciliation}
	if h.System != nil {
		system := NewDomainGroup("system", "/system")
		system.GET("/info", h.System.GetSystemInfo)
		registrars = append(registrars, system)
	}
	return registrars
}

// SetupLedger registers the ledger API and /health on engine
func SetupLedger(engine *gin.Engine, h LedgerHandlers, paymentLimit ...gin.HandlerFunc) {
	if h.System != nil {
		engine.GET("/health", h.System.Health)
	}
	r := NewRouter(engine, WithAPIVersion("v1"))
	for _, registrar := range LedgerRoutes(h, paymentLimit...) {
		r.Register(registrar)
	}
	r.Setup()
}
