package billing

import (
	"context"
	"errors"
	"log"

	"github.com/gapjyk-pos/waiter/internal/api"
	"github.com/gapjyk-pos/waiter/internal/cache"
	"github.com/gapjyk-pos/waiter/internal/enum"
	"github.com/gapjyk-pos/waiter/internal/money"
	"github.com/shopspring/decimal"
)

var (
	ErrNonPositiveAmount     = errors.New("payment amount must be positive")
	ErrInvalidPaymentMethod  = errors.New("unknown payment method")
	ErrTransactionIDRequired = errors.New("transaction id required for this method")
)

// BillingAPI is the slice of the backend client the engine needs.
type BillingAPI interface {
	CalculateBill(ctx context.Context, orderID string) (*api.BillCalculation, error)
	CreateBill(ctx context.Context, req api.CreateBillRequest) (*api.Bill, error)
	GetBill(ctx context.Context, billID string) (*api.Bill, error)
	UpdateBillDiscounts(ctx context.Context, billID string, req api.UpdateBillDiscountsRequest) (*api.Bill, error)
	CreatePayment(ctx context.Context, billID string, req api.CreatePaymentRequest) (*api.Payment, error)
}

// Preview pairs the server's non-committing calculation with the snapshot it
// was computed from, so the commit uses the exact same item set.
type Preview struct {
	Snapshot Snapshot
	Calc     *api.BillCalculation
}

// Engine drives bill creation, discount edits and payment recording. Bills it
// touches land in the bill cache so screens read one source of truth.
type Engine struct {
	api   BillingAPI
	bills *cache.Cache
}

// NewEngine creates an engine backed by the given client and bill cache.
func NewEngine(billingAPI BillingAPI, bills *cache.Cache) *Engine {
	return &Engine{api: billingAPI, bills: bills}
}

// PreviewBill snapshots the order's billable items and asks the server for
// the calculation. Nothing is persisted.
func (e *Engine) PreviewBill(ctx context.Context, ord *api.Order) (*Preview, error) {
	snap, err := TakeSnapshot(ord)
	if err != nil {
		return nil, err
	}
	calc, err := e.api.CalculateBill(ctx, snap.OrderID)
	if err != nil {
		return nil, err
	}
	return &Preview{Snapshot: snap, Calc: calc}, nil
}

// CreateBill commits the previewed snapshot. The returned bill is the
// server's record; it lands in the cache keyed by bill id. When the record
// fails the arithmetic check the bill is still returned and cached, with the
// verification error alongside so the caller can warn without losing it.
func (e *Engine) CreateBill(ctx context.Context, p *Preview, customerID string) (*api.Bill, error) {
	bill, err := e.api.CreateBill(ctx, api.CreateBillRequest{
		OrderID:    p.Snapshot.OrderID,
		ItemIDs:    p.Snapshot.ItemIDs,
		CustomerID: customerID,
	})
	if err != nil {
		return nil, err
	}
	e.bills.Put(bill.ID, bill)
	if err := Verify(bill); err != nil {
		log.Printf("ERROR: bill %s failed verification: %v", bill.ID, err)
		return bill, err
	}
	return bill, nil
}

// ReplaceDiscounts swaps the bill's discount set for the given one in a
// single call. The list is the new authoritative set; passing an empty list
// clears all discounts. The server recomputes every derived amount.
func (e *Engine) ReplaceDiscounts(ctx context.Context, billID string, discountIDs []string, customAmount decimal.Decimal) (*api.Bill, error) {
	req := api.UpdateBillDiscountsRequest{DiscountIDs: discountIDs}
	if customAmount.IsPositive() {
		req.CustomDiscountAmount = money.FormatAmount(customAmount)
	}
	bill, err := e.api.UpdateBillDiscounts(ctx, billID, req)
	if err != nil {
		return nil, err
	}
	e.bills.Put(bill.ID, bill)
	return bill, nil
}

// PaymentResult is what the waiter sees right after a payment is accepted.
// Position is provisional (local paid + this amount) until Bill arrives from
// the refetch; when the refetch fails the provisional numbers stand and the
// next bill load reconciles.
type PaymentResult struct {
	Payment  *api.Payment
	Bill     *api.Bill
	Position Reconciliation
}

// SubmitPayment records one payment against the bill. Client-side guards
// reject non-positive amounts, unknown methods and missing transaction ids
// before any network call; a server rejection changes nothing locally and is
// never auto-retried.
func (e *Engine) SubmitPayment(ctx context.Context, bill *api.Bill, amount decimal.Decimal, method enum.PaymentMethod, transactionID, notes string) (*PaymentResult, error) {
	if !amount.IsPositive() {
		return nil, ErrNonPositiveAmount
	}
	if !method.IsValid() {
		return nil, ErrInvalidPaymentMethod
	}
	if method.RequiresTransactionID() && transactionID == "" {
		return nil, ErrTransactionIDRequired
	}

	payment, err := e.api.CreatePayment(ctx, bill.ID, api.CreatePaymentRequest{
		Amount:        money.FormatAmount(amount),
		Method:        method,
		TransactionID: transactionID,
		Notes:         notes,
	})
	if err != nil {
		return nil, err
	}

	// Provisional position while the authoritative refetch runs.
	result := &PaymentResult{
		Payment:  payment,
		Position: Reconcile(bill.Total(), bill.Paid().Add(amount)),
	}

	fresh, err := e.api.GetBill(ctx, bill.ID)
	if err != nil {
		log.Printf("ERROR: refetch bill %s after payment: %v", bill.ID, err)
		return result, nil
	}
	result.Bill = fresh
	result.Position = Reconcile(fresh.Total(), fresh.Paid())
	e.bills.Put(fresh.ID, fresh)
	return result, nil
}
