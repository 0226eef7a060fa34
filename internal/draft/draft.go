// Package draft holds the client-only order draft: line items a waiter has
// picked but not yet sent to the kitchen. The draft is the only state the
// client mutates optimistically, because it has no server counterpart until
// submission. A Draft is created per table/ticket and torn down when the
// screen closes; it is never a package-level singleton.
package draft

import (
	"errors"

	"github.com/gapjyk-pos/waiter/internal/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	MinQuantity = 1
	MaxQuantity = 99
)

var ErrItemNotFound = errors.New("draft item not found")

// MenuItemRef is the snapshot of a menu item taken at add-time. The unit
// price is frozen here: later menu price changes do not touch lines already
// in the draft.
type MenuItemRef struct {
	ID        string
	Title     string
	UnitPrice decimal.Decimal
}

// ExtraSelection is one selected extra with its own quantity and price
// snapshot. Extra subtotals multiply by the parent line quantity.
type ExtraSelection struct {
	ExtraID   string
	Title     string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Item is one draft line. Adding the same menu item twice creates two
// independent lines so each can carry its own notes and extras.
type Item struct {
	ID       string
	MenuItem MenuItemRef
	Quantity int
	Extras   []ExtraSelection
	Notes    string
}

// Subtotal is unitPrice*quantity + extrasUnitTotal*quantity, where
// extrasUnitTotal is the per-unit price of all selected extras.
func (it Item) Subtotal() decimal.Decimal {
	qty := decimal.NewFromInt(int64(it.Quantity))
	sub := it.MenuItem.UnitPrice.Mul(qty)
	extras := decimal.Zero
	for _, ex := range it.Extras {
		extras = extras.Add(ex.UnitPrice.Mul(decimal.NewFromInt(int64(ex.Quantity))))
	}
	return sub.Add(extras.Mul(qty))
}

// Draft is an unsent order under construction.
type Draft struct {
	items []Item
}

// New creates an empty draft.
func New() *Draft {
	return &Draft{}
}

// AddItem appends a new line for the given menu item. Quantity defaults to 1
// when unset and is clamped into [MinQuantity, MaxQuantity]. Each call makes
// a distinct line even for a menu item already present.
func (d *Draft) AddItem(menuItem MenuItemRef, quantity int, notes string, extras []ExtraSelection) Item {
	item := Item{
		ID:       uuid.NewString(),
		MenuItem: menuItem,
		Quantity: clampQuantity(money.QuantityOrDefault(quantity)),
		Notes:    notes,
		Extras:   normalizeExtras(extras),
	}
	d.items = append(d.items, item)
	return item
}

// UpdateQuantity sets the quantity of a line, clamped into
// [MinQuantity, MaxQuantity].
func (d *Draft) UpdateQuantity(itemID string, quantity int) error {
	item, err := d.find(itemID)
	if err != nil {
		return err
	}
	item.Quantity = clampQuantity(quantity)
	return nil
}

// UpdateNotes replaces the free-text notes on a line.
func (d *Draft) UpdateNotes(itemID, notes string) error {
	item, err := d.find(itemID)
	if err != nil {
		return err
	}
	item.Notes = notes
	return nil
}

// SetExtras replaces the extras on a line.
func (d *Draft) SetExtras(itemID string, extras []ExtraSelection) error {
	item, err := d.find(itemID)
	if err != nil {
		return err
	}
	item.Extras = normalizeExtras(extras)
	return nil
}

// RemoveItem deletes a line. Other lines are untouched.
func (d *Draft) RemoveItem(itemID string) error {
	for i := range d.items {
		if d.items[i].ID == itemID {
			d.items = append(d.items[:i], d.items[i+1:]...)
			return nil
		}
	}
	return ErrItemNotFound
}

// DuplicateItem clones a line, including quantity, extras, and notes, into a
// new line with a fresh id.
func (d *Draft) DuplicateItem(itemID string) (Item, error) {
	src, err := d.find(itemID)
	if err != nil {
		return Item{}, err
	}
	clone := *src
	clone.ID = uuid.NewString()
	clone.Extras = append([]ExtraSelection(nil), src.Extras...)
	d.items = append(d.items, clone)
	return clone, nil
}

// Clear empties the draft. Called after a confirmed submission or an
// explicit discard.
func (d *Draft) Clear() {
	d.items = nil
}

// Items returns a copy of the draft lines in insertion order.
func (d *Draft) Items() []Item {
	out := make([]Item, len(d.items))
	copy(out, d.items)
	return out
}

// Item returns a single line by id.
func (d *Draft) Item(itemID string) (Item, error) {
	item, err := d.find(itemID)
	if err != nil {
		return Item{}, err
	}
	return *item, nil
}

// Total is the sum of all line subtotals.
func (d *Draft) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range d.items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// ItemCount is the number of distinct lines.
func (d *Draft) ItemCount() int {
	return len(d.items)
}

// TotalQuantity is the sum of quantities across all lines.
func (d *Draft) TotalQuantity() int {
	total := 0
	for _, it := range d.items {
		total += it.Quantity
	}
	return total
}

func (d *Draft) find(itemID string) (*Item, error) {
	for i := range d.items {
		if d.items[i].ID == itemID {
			return &d.items[i], nil
		}
	}
	return nil, ErrItemNotFound
}

func clampQuantity(q int) int {
	if q < MinQuantity {
		return MinQuantity
	}
	if q > MaxQuantity {
		return MaxQuantity
	}
	return q
}

func normalizeExtras(extras []ExtraSelection) []ExtraSelection {
	if len(extras) == 0 {
		return nil
	}
	out := make([]ExtraSelection, 0, len(extras))
	for _, ex := range extras {
		ex.Quantity = clampQuantity(money.QuantityOrDefault(ex.Quantity))
		out = append(out, ex)
	}
	return out
}
