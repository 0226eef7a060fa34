// Package order governs submitted order items: which preparation-state
// transitions are legal, which items are billable, and the serve/cancel
// flows that drive the transitions through the API.
package order

import (
	"github.com/gapjyk-pos/waiter/internal/api"
	"github.com/gapjyk-pos/waiter/internal/enum"
)

// allowedTransitions defines valid item status transitions. Key is current
// status, value is the set of statuses it can move to. Terminal states have
// no entry: transitions are monotonic and nothing leaves SERVED, CANCELED,
// or DECLINED.
var allowedTransitions = map[enum.OrderItemStatus][]enum.OrderItemStatus{
	enum.ItemPending:       {enum.ItemSentToPrepare, enum.ItemCanceled, enum.ItemDeclined},
	enum.ItemSentToPrepare: {enum.ItemPreparing, enum.ItemCanceled, enum.ItemDeclined},
	enum.ItemPreparing:     {enum.ItemReady, enum.ItemCanceled, enum.ItemDeclined},
	enum.ItemReady:         {enum.ItemServed, enum.ItemDeclined},
}

// CanTransition reports whether an item may move from current to next.
func CanTransition(current, next enum.OrderItemStatus) bool {
	for _, s := range allowedTransitions[current] {
		if s == next {
			return true
		}
	}
	return false
}

// CanMarkServed reports whether an item may be marked served. Only READY
// items qualify; everything earlier is still in the kitchen and everything
// later is already settled.
func CanMarkServed(status enum.OrderItemStatus) bool {
	return status == enum.ItemReady
}

// CanCancelItem reports whether waitstaff may cancel an item. READY and
// SERVED items are past the point of withdrawal through this flow.
func CanCancelItem(status enum.OrderItemStatus) bool {
	switch status {
	case enum.ItemPending, enum.ItemSentToPrepare, enum.ItemPreparing:
		return true
	}
	return false
}

// IsTerminal reports whether no further status change applies to an item.
func IsTerminal(status enum.OrderItemStatus) bool {
	switch status {
	case enum.ItemServed, enum.ItemCanceled, enum.ItemDeclined:
		return true
	}
	return false
}

// BillableItems filters out CANCELED and DECLINED items. PENDING items stay
// billable; a bill can be opened before preparation finishes.
func BillableItems(items []api.OrderItem) []api.OrderItem {
	out := make([]api.OrderItem, 0, len(items))
	for _, it := range items {
		switch it.Status {
		case enum.ItemCanceled, enum.ItemDeclined:
			continue
		}
		out = append(out, it)
	}
	return out
}

// CanBillItems reports whether the order has progressed far enough to bill:
// at least one item must be past PENDING and not canceled or declined. An
// order holding only unprocessed pending items is not billable yet.
func CanBillItems(items []api.OrderItem) bool {
	for _, it := range items {
		switch it.Status {
		case enum.ItemPending, enum.ItemCanceled, enum.ItemDeclined:
			continue
		}
		return true
	}
	return false
}
