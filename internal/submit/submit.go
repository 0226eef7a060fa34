// Package submit is the send-to-kitchen flow: it turns a local draft into
// one order-creation request, tracks the confirm→sending→success|error
// state machine, and arms a short lockout after success so a double-tap on
// the confirm button cannot submit the same order twice.
package submit

import (
	"context"
	"errors"
	"time"

	"github.com/gapjyk-pos/waiter/internal/api"
	"github.com/gapjyk-pos/waiter/internal/draft"
	"github.com/gapjyk-pos/waiter/internal/enum"
	"github.com/go-playground/validator/v10"
)

// DefaultCooldown is how long the submit action stays disabled after a
// successful send, absorbing double-taps while the success modal shows.
const DefaultCooldown = 3 * time.Second

// State is where the flow currently is. Success is terminal for a given
// draft; error allows a retry with the identical payload.
type State string

const (
	StateConfirm State = "CONFIRM"
	StateSending State = "SENDING"
	StateSuccess State = "SUCCESS"
	StateError   State = "ERROR"
)

var (
	ErrEmptyDraft     = errors.New("draft has no items")
	ErrInFlight       = errors.New("submission already in flight")
	ErrLockedOut      = errors.New("submission cooling down")
	ErrNothingToRetry = errors.New("no failed submission to retry")
)

// Target identifies where the order goes. DINE_IN orders address a table;
// DELIVERY and TO_GO orders address a customer, never both.
type Target struct {
	OrderType  enum.OrderType `validate:"required,oneof=DINE_IN DELIVERY TO_GO"`
	TableID    string         `validate:"required_if=OrderType DINE_IN,excluded_unless=OrderType DINE_IN"`
	CustomerID string         `validate:"required_unless=OrderType DINE_IN,excluded_if=OrderType DINE_IN"`
	Notes      string
}

// OrderAPI is the slice of the backend client the flow needs.
type OrderAPI interface {
	CreateOrder(ctx context.Context, req api.CreateOrderRequest) (*api.Order, error)
}

// lockout is the timed re-enable gate: locked until the clock passes
// unlockAt. Independent of any UI timer.
type lockout struct {
	locked   bool
	unlockAt time.Time
}

func (l *lockout) active(now time.Time) bool {
	if l.locked && !now.Before(l.unlockAt) {
		l.locked = false
	}
	return l.locked
}

func (l *lockout) arm(now time.Time, d time.Duration) {
	l.locked = true
	l.unlockAt = now.Add(d)
}

// Flow drives one draft through submission.
type Flow struct {
	api      OrderAPI
	draft    *draft.Draft
	validate *validator.Validate

	state    State
	lastErr  error
	payload  *api.CreateOrderRequest
	gate     lockout
	cooldown time.Duration
	now      func() time.Time
}

// New creates a flow over the given draft.
func New(orderAPI OrderAPI, d *draft.Draft) *Flow {
	return &Flow{
		api:      orderAPI,
		draft:    d,
		validate: validator.New(),
		state:    StateConfirm,
		cooldown: DefaultCooldown,
		now:      time.Now,
	}
}

// State returns the flow's current state.
func (f *Flow) State() State { return f.state }

// Err returns the error from the last failed submission, if any.
func (f *Flow) Err() error { return f.lastErr }

// CanSubmit reports whether a new submission may start right now. False
// while a call is in flight or the post-success lockout is still armed.
func (f *Flow) CanSubmit() bool {
	return f.state != StateSending && !f.gate.active(f.now())
}

// Submit validates the draft and target, freezes the submission payload,
// and sends the whole batch in one request. On failure the draft is kept
// unchanged and Retry re-issues the identical payload; on success the draft
// is cleared and the lockout armed.
func (f *Flow) Submit(ctx context.Context, target Target) (*api.Order, error) {
	if f.state == StateSending {
		return nil, ErrInFlight
	}
	if f.gate.active(f.now()) {
		return nil, ErrLockedOut
	}
	if f.draft.ItemCount() == 0 {
		return nil, ErrEmptyDraft
	}
	if err := f.validate.Struct(target); err != nil {
		return nil, err
	}

	req := buildRequest(f.draft, target)
	f.payload = &req
	return f.send(ctx)
}

// Retry re-issues the identical payload of the last failed submission.
func (f *Flow) Retry(ctx context.Context) (*api.Order, error) {
	if f.state != StateError || f.payload == nil {
		return nil, ErrNothingToRetry
	}
	return f.send(ctx)
}

func (f *Flow) send(ctx context.Context) (*api.Order, error) {
	f.state = StateSending
	ord, err := f.api.CreateOrder(ctx, *f.payload)
	if err != nil {
		// Draft and payload stay intact for retry.
		f.state = StateError
		f.lastErr = err
		return nil, err
	}

	f.state = StateSuccess
	f.lastErr = nil
	f.payload = nil
	f.draft.Clear()
	f.gate.arm(f.now(), f.cooldown)
	return ord, nil
}

// Reset returns a success/error flow to confirm so the waiter can start a
// new order on the same screen. The cooldown gate stays armed.
func (f *Flow) Reset() {
	f.state = StateConfirm
	f.lastErr = nil
	f.payload = nil
}

// buildRequest converts every draft line into a submission record. The
// whole draft goes in one batch; partial submission is not a thing.
func buildRequest(d *draft.Draft, target Target) api.CreateOrderRequest {
	items := d.Items()
	req := api.CreateOrderRequest{
		OrderType:  target.OrderType,
		TableID:    target.TableID,
		CustomerID: target.CustomerID,
		Notes:      target.Notes,
		Items:      make([]api.CreateOrderItemInput, 0, len(items)),
	}
	for _, it := range items {
		input := api.CreateOrderItemInput{
			MenuItemID: it.MenuItem.ID,
			Quantity:   it.Quantity,
			Notes:      it.Notes,
		}
		for _, ex := range it.Extras {
			input.Extras = append(input.Extras, api.ExtraInput{
				ExtraID:  ex.ExtraID,
				Quantity: ex.Quantity,
			})
		}
		req.Items = append(req.Items, input)
	}
	return req
}
