// Package billing derives bills from an order's billable items, applies
// discount sets, and reconciles payments down to a zero balance. Amount
// authority is strictly server-side once a bill exists: the client computes
// subtotals for preview and provisional feedback only.
package billing

import (
	"errors"
	"fmt"

	"github.com/gapjyk-pos/waiter/internal/api"
	"github.com/gapjyk-pos/waiter/internal/order"
	"github.com/shopspring/decimal"
)

var (
	ErrNotBillable       = errors.New("order has no items past pending")
	ErrInconsistentBill  = errors.New("bill amounts are inconsistent")
	ErrNegativeBillField = errors.New("bill amount is negative")
)

// Subtotal sums the subtotals of the given billable items. This is the
// preview-side figure; the committed bill carries the server's numbers.
func Subtotal(items []api.OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.SubtotalAmount())
	}
	return total
}

// Snapshot captures the billable item set a bill will be created from. The
// same snapshot backs both the preview and the commit; item changes on the
// order after this point do not alter the bill.
type Snapshot struct {
	OrderID string
	ItemIDs []string
}

// TakeSnapshot filters the order's items down to the billable set. Returns
// ErrNotBillable when nothing has progressed into the kitchen pipeline yet.
func TakeSnapshot(ord *api.Order) (Snapshot, error) {
	if !order.CanBillItems(ord.Items) {
		return Snapshot{}, ErrNotBillable
	}
	billable := order.BillableItems(ord.Items)
	snap := Snapshot{OrderID: ord.ID, ItemIDs: make([]string, len(billable))}
	for i, it := range billable {
		snap.ItemIDs[i] = it.ID
	}
	return snap, nil
}

// Verify checks the bill's arithmetic invariant:
// total = subtotal − discount + serviceFee, all fields non-negative.
// A violation is a caller/server error to report, never to silently fix.
func Verify(b *api.Bill) error {
	subtotal, discount := b.SubtotalAmount(), b.Discount()
	fee, total := b.ServiceFee(), b.Total()
	for name, v := range map[string]decimal.Decimal{
		"subtotal":           subtotal,
		"discount_amount":    discount,
		"service_fee_amount": fee,
		"total_amount":       total,
	} {
		if v.IsNegative() {
			return fmt.Errorf("%w: %s is %s", ErrNegativeBillField, name, v)
		}
	}
	if want := subtotal.Sub(discount).Add(fee); !total.Equal(want) {
		return fmt.Errorf("%w: total %s != subtotal %s - discount %s + fee %s",
			ErrInconsistentBill, total, subtotal, discount, fee)
	}
	return nil
}

// Reconciliation is the payment position of a bill. Remaining is floored at
// zero for display; Overpaid flags the server-approved over-payment case so
// callers can surface it instead of hiding it behind the clamp.
type Reconciliation struct {
	Remaining decimal.Decimal
	FullyPaid bool
	Overpaid  bool
}

// Reconcile computes the position from a total and the amount paid so far.
func Reconcile(total, paid decimal.Decimal) Reconciliation {
	remaining := total.Sub(paid)
	r := Reconciliation{
		FullyPaid: remaining.LessThanOrEqual(decimal.Zero),
		Overpaid:  remaining.IsNegative(),
		Remaining: remaining,
	}
	if r.Remaining.IsNegative() {
		r.Remaining = decimal.Zero
	}
	return r
}

// RemainingBalance is max(0, total − paid) for the bill.
func RemainingBalance(b *api.Bill) decimal.Decimal {
	return Reconcile(b.Total(), b.Paid()).Remaining
}

// IsFullyPaid reports whether the bill's balance has reached zero.
func IsFullyPaid(b *api.Bill) bool {
	return Reconcile(b.Total(), b.Paid()).FullyPaid
}
