package order

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/gapjyk-pos/waiter/internal/api"
	"github.com/gapjyk-pos/waiter/internal/cache"
	"github.com/gapjyk-pos/waiter/internal/enum"
)

// Errors surfaced by the item flows before any network call.
var (
	ErrNoItemsSelected = errors.New("no items selected")
	ErrItemNotFound    = errors.New("item not found on order")
	ErrNotCancellable  = errors.New("item can no longer be cancelled")
	ErrReasonRequired  = errors.New("cancellation reason is required")
	ErrOrderFrozen     = errors.New("order is completed or cancelled")
	ErrRequestInFlight = errors.New("another status change is in flight")
)

// StatusAPI is the slice of the backend client the item flow needs.
type StatusAPI interface {
	BatchUpdateItemStatus(ctx context.Context, orderID string, req api.BatchItemStatusRequest) error
}

// ItemFlow performs batch serve/cancel mutations for one waiter screen.
// Mutations against the same order are never pipelined: an in-flight call
// blocks new ones until its response lands.
type ItemFlow struct {
	api      StatusAPI
	orders   *cache.Cache
	inFlight bool
}

// NewItemFlow wires the flow to the API client and the order cache it must
// invalidate after confirmed mutations.
func NewItemFlow(statusAPI StatusAPI, orders *cache.Cache) *ItemFlow {
	return &ItemFlow{api: statusAPI, orders: orders}
}

// MarkServed moves READY items to SERVED in one batch. Items that are not
// READY are rejected by the UI via CanMarkServed; when a caller bypasses
// that guard the request still goes to the server and its rejection comes
// back to the caller unchanged.
func (f *ItemFlow) MarkServed(ctx context.Context, orderID string, itemIDs []string) error {
	return f.mutate(ctx, orderID, api.BatchItemStatusRequest{
		ItemIDs: itemIDs,
		Status:  enum.ItemServed,
	})
}

// CancelItems cancels items in one batch. Unlike serving, cancellation is
// hard-guarded client-side: a missing reason or a non-cancellable item stops
// the flow before any network call is made.
func (f *ItemFlow) CancelItems(ctx context.Context, ord *api.Order, itemIDs []string, reason, reasonID string) error {
	if reason == "" && reasonID == "" {
		return ErrReasonRequired
	}
	if !ord.IsActive() {
		return ErrOrderFrozen
	}
	for _, id := range itemIDs {
		item, ok := findItem(ord, id)
		if !ok {
			return fmt.Errorf("%w: %s", ErrItemNotFound, id)
		}
		if !CanCancelItem(item.Status) {
			return fmt.Errorf("%w: %s is %s", ErrNotCancellable, id, item.Status)
		}
	}
	return f.mutate(ctx, ord.ID, api.BatchItemStatusRequest{
		ItemIDs:        itemIDs,
		Status:         enum.ItemCanceled,
		CancelReason:   reason,
		CancelReasonID: reasonID,
	})
}

// mutate issues the batch call and, on success, invalidates and refetches
// the order so totals and status counts stay consistent. On failure nothing
// local changes.
func (f *ItemFlow) mutate(ctx context.Context, orderID string, req api.BatchItemStatusRequest) error {
	if len(req.ItemIDs) == 0 {
		return ErrNoItemsSelected
	}
	if f.inFlight {
		return ErrRequestInFlight
	}
	f.inFlight = true
	defer func() { f.inFlight = false }()

	if err := f.api.BatchUpdateItemStatus(ctx, orderID, req); err != nil {
		return err
	}

	f.orders.Invalidate(orderID)
	if _, err := f.orders.Refetch(ctx, orderID); err != nil {
		// The mutation is committed server-side; a failed refetch only
		// delays the redraw. The entry stays stale and the next read retries.
		log.Printf("ERROR: refetch order %s after status change: %v", orderID, err)
	}
	return nil
}

func findItem(ord *api.Order, itemID string) (api.OrderItem, bool) {
	for _, it := range ord.Items {
		if it.ID == itemID {
			return it, true
		}
	}
	return api.OrderItem{}, false
}
