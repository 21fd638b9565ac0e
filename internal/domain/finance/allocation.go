package finance

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OverpaymentPolicy decides what happens to the part of an against-invoice
// payment that no invoice can absorb.
type OverpaymentPolicy string

const (
	// OverpaymentPolicyAdvance keeps the excess as an advance on the party balance
	OverpaymentPolicyAdvance OverpaymentPolicy = "advance"
	// OverpaymentPolicyReject refuses payments that would leave a remainder
	OverpaymentPolicyReject OverpaymentPolicy = "reject"
)

// IsValid returns true if the policy is known
func (p OverpaymentPolicy) IsValid() bool {
	return p == OverpaymentPolicyAdvance || p == OverpaymentPolicyReject
}

// AllocationStrategyType names the rule used to produce a plan
type AllocationStrategyType string

const (
	AllocationStrategyAdvance  AllocationStrategyType = "advance"
	AllocationStrategySingle   AllocationStrategyType = "single"
	AllocationStrategyFIFO     AllocationStrategyType = "fifo"
	AllocationStrategyExplicit AllocationStrategyType = "explicit"
)

// AllocationRequest targets one invoice. In the single-invoice form a zero
// Amount means "the whole payment amount".
type AllocationRequest struct {
	InvoiceID uuid.UUID       `json:"invoice_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// AllocationInput is everything the resolver needs. Candidates holds the
// referenced invoices for explicit requests, or the party's open invoices in
// bulk mode.
type AllocationInput struct {
	PartyID    uuid.UUID
	Direction  Direction
	Amount     decimal.Decimal
	Mode       PaymentMode
	Requests   []AllocationRequest
	Candidates []Invoice
}

// AllocationLine is one (invoice, amount) pair plus the snapshot the
// invoice updater re-verifies at commit time.
type AllocationLine struct {
	InvoiceID       uuid.UUID
	InvoiceNumber   string
	Amount          decimal.Decimal
	DueBefore       decimal.Decimal
	PaidBefore      decimal.Decimal
	ExpectedVersion int
}

// SettlesInvoice returns true if the line pays off the invoice
func (l AllocationLine) SettlesInvoice() bool {
	return l.Amount.GreaterThanOrEqual(l.DueBefore)
}

// AllocationPlan is the resolver output
type AllocationPlan struct {
	Strategy         AllocationStrategyType
	Lines            []AllocationLine
	TotalAllocated   decimal.Decimal
	AdvanceRemainder decimal.Decimal
}

// InvoiceIDs returns the ids of all targeted invoices in plan order
func (p *AllocationPlan) InvoiceIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(p.Lines))
	for i, l := range p.Lines {
		ids[i] = l.InvoiceID
	}
	return ids
}

// AllocationResolver turns a payment request into an allocation plan.
// It is pure: it reads the supplied invoice snapshots and writes nothing.
type AllocationResolver struct {
	policy OverpaymentPolicy
}

// NewAllocationResolver creates a resolver with the given overpayment policy
func NewAllocationResolver(policy OverpaymentPolicy) *AllocationResolver {
	if !policy.IsValid() {
		policy = OverpaymentPolicyAdvance
	}
	return &AllocationResolver{policy: policy}
}

// Policy returns the configured overpayment policy
func (r *AllocationResolver) Policy() OverpaymentPolicy {
	return r.policy
}

// Resolve produces the allocation plan for a payment
func (r *AllocationResolver) Resolve(in AllocationInput) (*AllocationPlan, error) {
	if !in.Amount.IsPositive() {
		return nil, NewPaymentError(KindInvalidInput, "payment amount must be positive").
			WithParty(in.PartyID).WithAmount(in.Amount)
	}

	var (
		plan *AllocationPlan
		err  error
	)
	switch in.Mode {
	case PaymentModeAdvance:
		if len(in.Requests) > 0 {
			return nil, NewPaymentError(KindInvalidInput, "advance payments cannot target invoices").WithParty(in.PartyID)
		}
		return &AllocationPlan{
			Strategy:         AllocationStrategyAdvance,
			Lines:            []AllocationLine{},
			TotalAllocated:   decimal.Zero,
			AdvanceRemainder: in.Amount,
		}, nil
	case PaymentModeAgainstInvoice:
		if len(in.Requests) == 0 {
			plan = r.resolveFIFO(in)
		} else {
			plan, err = r.resolveExplicit(in)
		}
	default:
		return nil, NewPaymentError(KindInvalidInput, "unknown payment mode").WithParty(in.PartyID)
	}
	if err != nil {
		return nil, err
	}

	if plan.AdvanceRemainder.IsPositive() && r.policy == OverpaymentPolicyReject {
		return nil, NewPaymentError(KindInvalidAllocation, "payment exceeds the amount due on the targeted invoices").
			WithParty(in.PartyID).WithAmount(in.Amount)
	}

	return plan, nil
}

// resolveFIFO allocates oldest-due-first across the party's open invoices
func (r *AllocationResolver) resolveFIFO(in AllocationInput) *AllocationPlan {
	open := make([]Invoice, 0, len(in.Candidates))
	for _, inv := range in.Candidates {
		if inv.PartyID != in.PartyID || inv.Kind.SettlementDirection() != in.Direction {
			continue
		}
		if !inv.DueAmount().IsPositive() {
			continue
		}
		open = append(open, inv)
	}
	SortOldestDueFirst(open)

	plan := &AllocationPlan{
		Strategy:       AllocationStrategyFIFO,
		Lines:          make([]AllocationLine, 0),
		TotalAllocated: decimal.Zero,
	}
	remaining := in.Amount
	for _, inv := range open {
		if remaining.IsZero() {
			break
		}
		due := inv.DueAmount()
		amount := decimal.Min(remaining, due)
		plan.Lines = append(plan.Lines, newAllocationLine(inv, amount))
		plan.TotalAllocated = plan.TotalAllocated.Add(amount)
		remaining = remaining.Sub(amount)
	}
	plan.AdvanceRemainder = remaining
	return plan
}

// resolveExplicit honours caller-selected invoices in request order,
// capping each at the invoice's due amount.
func (r *AllocationResolver) resolveExplicit(in AllocationInput) (*AllocationPlan, error) {
	byID := make(map[uuid.UUID]Invoice, len(in.Candidates))
	for _, inv := range in.Candidates {
		byID[inv.ID] = inv
	}

	single := len(in.Requests) == 1
	requested := make([]decimal.Decimal, len(in.Requests))
	totalRequested := decimal.Zero
	seen := make(map[uuid.UUID]bool, len(in.Requests))

	for i, req := range in.Requests {
		amount := req.Amount
		if single && amount.IsZero() {
			amount = in.Amount
		}
		if amount.IsNegative() || (amount.IsZero() && !single) {
			return nil, NewPaymentError(KindInvalidAllocation, "requested allocation must be positive").
				WithParty(in.PartyID).WithInvoice(req.InvoiceID).WithAmount(amount)
		}
		if seen[req.InvoiceID] {
			return nil, NewPaymentError(KindInvalidAllocation, "invoice is targeted more than once").
				WithParty(in.PartyID).WithInvoice(req.InvoiceID)
		}
		seen[req.InvoiceID] = true

		inv, ok := byID[req.InvoiceID]
		if !ok {
			return nil, NewPaymentError(KindInvoiceNotFound, "invoice not found").
				WithParty(in.PartyID).WithInvoice(req.InvoiceID)
		}
		if inv.PartyID != in.PartyID {
			return nil, NewPaymentError(KindInvoiceNotOwnedByParty, "invoice does not belong to the paying party").
				WithParty(in.PartyID).WithInvoice(inv.ID)
		}
		if inv.Kind.SettlementDirection() != in.Direction {
			return nil, NewPaymentError(KindInvalidAllocation, "payment direction does not settle this invoice kind").
				WithParty(in.PartyID).WithInvoice(inv.ID)
		}
		if inv.IsSettled() {
			return nil, NewPaymentError(KindInvalidAllocation, "invoice is already paid").
				WithParty(in.PartyID).WithInvoice(inv.ID).WithAmount(amount)
		}

		requested[i] = amount
		totalRequested = totalRequested.Add(amount)
	}

	if !totalRequested.IsPositive() {
		return nil, NewPaymentError(KindInvalidAllocation, "total requested allocation must be positive").
			WithParty(in.PartyID).WithAmount(totalRequested)
	}
	if totalRequested.GreaterThan(in.Amount) {
		return nil, NewPaymentError(KindInvalidAllocation, "requested allocations exceed the payment amount").
			WithParty(in.PartyID).WithAmount(totalRequested)
	}

	strategy := AllocationStrategyExplicit
	if single {
		strategy = AllocationStrategySingle
	}
	plan := &AllocationPlan{
		Strategy:       strategy,
		Lines:          make([]AllocationLine, 0, len(in.Requests)),
		TotalAllocated: decimal.Zero,
	}
	for i, req := range in.Requests {
		inv := byID[req.InvoiceID]
		amount := decimal.Min(requested[i], inv.DueAmount())
		plan.Lines = append(plan.Lines, newAllocationLine(inv, amount))
		plan.TotalAllocated = plan.TotalAllocated.Add(amount)
	}
	plan.AdvanceRemainder = in.Amount.Sub(plan.TotalAllocated)

	return plan, nil
}

func newAllocationLine(inv Invoice, amount decimal.Decimal) AllocationLine {
	return AllocationLine{
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.Number,
		Amount:          amount,
		DueBefore:       inv.DueAmount(),
		PaidBefore:      inv.PaidAmount,
		ExpectedVersion: inv.Version,
	}
}

// SortOldestDueFirst orders invoices by due date ascending. Invoices without
// a due date go last; ties fall back to creation time, then id.
func SortOldestDueFirst(invoices []Invoice) {
	sort.SliceStable(invoices, func(i, j int) bool {
		a, b := invoices[i], invoices[j]
		if cmp := compareDueDates(a.DueDate, b.DueDate); cmp != 0 {
			return cmp < 0
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})
}

func compareDueDates(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case a.Before(*b):
		return -1
	case b.Before(*a):
		return 1
	}
	return 0
}
