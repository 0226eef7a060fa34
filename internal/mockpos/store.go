// Package mockpos is an in-memory POS backend for development and tests. It
// speaks the same REST contract as the production server and enforces the
// same business rules, so client flows can be exercised end to end without a
// database.
package mockpos

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gapjyk-pos/waiter/internal/api"
	"github.com/gapjyk-pos/waiter/internal/enum"
	"github.com/gapjyk-pos/waiter/internal/money"
	"github.com/gapjyk-pos/waiter/internal/order"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	errNotFound      = errors.New("not found")
	errValidation    = errors.New("validation failed")
	errConflict      = errors.New("conflict")
	errUnprocessable = errors.New("unprocessable")
)

// MenuItem is a catalog entry orders are priced from.
type MenuItem struct {
	ID        string
	Title     string
	UnitPrice decimal.Decimal
	Extras    map[string]Extra
}

// Extra is an optional addition to a menu item.
type Extra struct {
	ID        string
	Title     string
	UnitPrice decimal.Decimal
}

// Discount is a catalog discount selectable onto a bill.
type Discount struct {
	ID      string
	Title   string
	Percent decimal.Decimal
}

// Store holds all server state behind one mutex. Fine for a dev backend.
type Store struct {
	mu        sync.Mutex
	menu      map[string]MenuItem
	discounts map[string]Discount
	orders    map[string]*api.Order
	bills     map[string]*api.Bill
	orderSeq  int

	serviceFeePercent decimal.Decimal
}

// NewStore creates a store with the given catalog. Service fee applies to
// dine-in orders only.
func NewStore(menu []MenuItem, discounts []Discount, serviceFeePercent decimal.Decimal) *Store {
	s := &Store{
		menu:              make(map[string]MenuItem),
		discounts:         make(map[string]Discount),
		orders:            make(map[string]*api.Order),
		bills:             make(map[string]*api.Bill),
		serviceFeePercent: serviceFeePercent,
	}
	for _, m := range menu {
		s.menu[m.ID] = m
	}
	for _, d := range discounts {
		s.discounts[d.ID] = d
	}
	return s
}

// SeedStore returns a store with a small fixed catalog, enough for the dev
// server and the client tests.
func SeedStore() *Store {
	bread := Extra{ID: "extra-bread", Title: "Flatbread", UnitPrice: decimal.RequireFromString("2.00")}
	sauce := Extra{ID: "extra-sauce", Title: "Garlic Sauce", UnitPrice: decimal.RequireFromString("1.50")}
	menu := []MenuItem{
		{ID: "menu-kebab", Title: "Lamb Kebab", UnitPrice: decimal.RequireFromString("42.00"),
			Extras: map[string]Extra{bread.ID: bread, sauce.ID: sauce}},
		{ID: "menu-soup", Title: "Lentil Soup", UnitPrice: decimal.RequireFromString("18.50"),
			Extras: map[string]Extra{bread.ID: bread}},
		{ID: "menu-tea", Title: "Black Tea", UnitPrice: decimal.RequireFromString("10.00")},
	}
	discounts := []Discount{
		{ID: "disc-staff", Title: "Staff", Percent: decimal.RequireFromString("20")},
		{ID: "disc-happy", Title: "Happy Hour", Percent: decimal.RequireFromString("10")},
	}
	return NewStore(menu, discounts, decimal.RequireFromString("10"))
}

func (s *Store) CreateOrder(req api.CreateOrderRequest) (*api.Order, error) {
	if !req.OrderType.IsValid() {
		return nil, fmt.Errorf("%w: invalid order_type", errValidation)
	}
	if req.OrderType.RequiresTable() {
		if req.TableID == "" {
			return nil, fmt.Errorf("%w: table_id is required for dine-in", errValidation)
		}
	} else if req.CustomerID == "" {
		return nil, fmt.Errorf("%w: customer_id is required for %s", errValidation, req.OrderType)
	}
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: order needs at least one item", errValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	s.orderSeq++
	ord := &api.Order{
		ID:                uuid.NewString(),
		OrderCode:         fmt.Sprintf("GP-%04d", s.orderSeq),
		OrderNumber:       s.orderSeq,
		OrderType:         req.OrderType,
		OrderStatus:       enum.OrderPending,
		TableID:           req.TableID,
		CustomerID:        req.CustomerID,
		Notes:             req.Notes,
		ServiceFeePercent: s.serviceFeePercent.String(),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	total := decimal.Zero
	for _, in := range req.Items {
		m, ok := s.menu[in.MenuItemID]
		if !ok {
			return nil, fmt.Errorf("%w: unknown menu item %s", errValidation, in.MenuItemID)
		}
		if in.Quantity < 1 || in.Quantity > 99 {
			return nil, fmt.Errorf("%w: quantity out of range", errValidation)
		}
		qty := decimal.NewFromInt(int64(in.Quantity))
		perUnit := m.UnitPrice
		item := api.OrderItem{
			ID:         uuid.NewString(),
			OrderID:    ord.ID,
			MenuItemID: m.ID,
			Title:      m.Title,
			Quantity:   fmt.Sprintf("%d", in.Quantity),
			Status:     enum.ItemPending,
			UnitPrice:  money.FormatAmount(m.UnitPrice),
			Notes:      in.Notes,
		}
		for _, ex := range in.Extras {
			e, ok := m.Extras[ex.ExtraID]
			if !ok {
				return nil, fmt.Errorf("%w: extra %s not available for %s", errValidation, ex.ExtraID, m.ID)
			}
			item.Extras = append(item.Extras, api.OrderItemExtra{
				ExtraID:   e.ID,
				Title:     e.Title,
				Quantity:  fmt.Sprintf("%d", ex.Quantity),
				UnitPrice: money.FormatAmount(e.UnitPrice),
			})
			perUnit = perUnit.Add(e.UnitPrice.Mul(decimal.NewFromInt(int64(ex.Quantity))))
		}
		subtotal := perUnit.Mul(qty)
		item.Subtotal = money.FormatAmount(subtotal)
		total = total.Add(subtotal)
		ord.Items = append(ord.Items, item)
	}
	ord.TotalAmount = money.FormatAmount(total)
	ord.ServiceFeeAmount = money.FormatAmount(s.serviceFee(ord.OrderType, total))

	s.orders[ord.ID] = ord
	return ord, nil
}

func (s *Store) GetOrder(id string) (*api.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ord, ok := s.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: order %s", errNotFound, id)
	}
	return ord, nil
}

func (s *Store) UpdateOrder(id string, req api.UpdateOrderRequest) (*api.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ord, ok := s.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: order %s", errNotFound, id)
	}
	if !ord.IsActive() {
		return nil, fmt.Errorf("%w: order is %s", errConflict, ord.OrderStatus)
	}
	if req.TableID != nil {
		if !ord.OrderType.RequiresTable() {
			return nil, fmt.Errorf("%w: %s orders have no table", errValidation, ord.OrderType)
		}
		ord.TableID = *req.TableID
	}
	if req.Notes != nil {
		ord.Notes = *req.Notes
	}
	if req.OrderStatus != nil {
		if !req.OrderStatus.IsValid() {
			return nil, fmt.Errorf("%w: invalid order_status", errValidation)
		}
		if *req.OrderStatus == enum.OrderCancelled {
			if req.CancelReason == nil || *req.CancelReason == "" {
				return nil, fmt.Errorf("%w: cancel_reason is required", errValidation)
			}
			ord.CancelReason = *req.CancelReason
		}
		ord.OrderStatus = *req.OrderStatus
	}
	ord.UpdatedAt = time.Now().UTC()
	return ord, nil
}

// BatchUpdateItemStatus applies one target status to all named items, or to
// none of them.
func (s *Store) BatchUpdateItemStatus(orderID string, req api.BatchItemStatusRequest) (*api.Order, error) {
	if !req.Status.IsValid() {
		return nil, fmt.Errorf("%w: invalid status", errValidation)
	}
	if len(req.ItemIDs) == 0 {
		return nil, fmt.Errorf("%w: item_ids is empty", errValidation)
	}
	if req.Status == enum.ItemCanceled && req.CancelReason == "" {
		return nil, fmt.Errorf("%w: cancel_reason is required", errValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ord, ok := s.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("%w: order %s", errNotFound, orderID)
	}
	if !ord.IsActive() {
		return nil, fmt.Errorf("%w: order is %s", errConflict, ord.OrderStatus)
	}

	// Validate the whole batch before touching anything.
	idx := make(map[string]int, len(ord.Items))
	for i, it := range ord.Items {
		idx[it.ID] = i
	}
	for _, id := range req.ItemIDs {
		i, ok := idx[id]
		if !ok {
			return nil, fmt.Errorf("%w: item %s", errNotFound, id)
		}
		if !order.CanTransition(ord.Items[i].Status, req.Status) {
			return nil, fmt.Errorf("%w: item %s cannot move %s -> %s",
				errConflict, id, ord.Items[i].Status, req.Status)
		}
	}
	for _, id := range req.ItemIDs {
		it := &ord.Items[idx[id]]
		it.Status = req.Status
		if req.Status == enum.ItemCanceled {
			it.CancelReason = req.CancelReason
		}
	}
	ord.OrderStatus = rollupStatus(ord)
	ord.UpdatedAt = time.Now().UTC()
	return ord, nil
}

// rollupStatus derives the order status from its items: in progress once
// anything moves, completed once every item is terminal, cancelled when all
// items were cancelled or declined.
func rollupStatus(ord *api.Order) enum.OrderStatus {
	if !ord.IsActive() {
		return ord.OrderStatus
	}
	allTerminal, allDead, anyMoved := true, true, false
	for _, it := range ord.Items {
		if !order.IsTerminal(it.Status) {
			allTerminal, allDead = false, false
		} else if it.Status == enum.ItemServed {
			allDead = false
		}
		if it.Status != enum.ItemPending {
			anyMoved = true
		}
	}
	switch {
	case allDead:
		return enum.OrderCancelled
	case allTerminal:
		return enum.OrderCompleted
	case anyMoved:
		return enum.OrderInProgress
	default:
		return enum.OrderPending
	}
}

func (s *Store) serviceFee(t enum.OrderType, subtotal decimal.Decimal) decimal.Decimal {
	if !t.RequiresTable() {
		return decimal.Zero
	}
	return subtotal.Mul(s.serviceFeePercent).Div(decimal.NewFromInt(100)).Round(2)
}

// CalculateBill previews a bill over the order's billable items without
// persisting anything.
func (s *Store) CalculateBill(orderID string) (*api.BillCalculation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ord, ok := s.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("%w: order %s", errNotFound, orderID)
	}
	subtotal := decimal.Zero
	for _, it := range order.BillableItems(ord.Items) {
		subtotal = subtotal.Add(it.SubtotalAmount())
	}
	fee := s.serviceFee(ord.OrderType, subtotal)
	return &api.BillCalculation{
		Subtotal:         money.FormatAmount(subtotal),
		DiscountAmount:   money.FormatAmount(decimal.Zero),
		ServiceFeeAmount: money.FormatAmount(fee),
		TotalAmount:      money.FormatAmount(subtotal.Add(fee)),
	}, nil
}

func (s *Store) CreateBill(req api.CreateBillRequest) (*api.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ord, ok := s.orders[req.OrderID]
	if !ok {
		return nil, fmt.Errorf("%w: order %s", errNotFound, req.OrderID)
	}
	if !order.CanBillItems(ord.Items) {
		return nil, fmt.Errorf("%w: order has no billable progress", errUnprocessable)
	}
	if len(req.ItemIDs) == 0 {
		return nil, fmt.Errorf("%w: item_ids is empty", errValidation)
	}

	byID := make(map[string]api.OrderItem, len(ord.Items))
	for _, it := range ord.Items {
		byID[it.ID] = it
	}
	subtotal := decimal.Zero
	for _, id := range req.ItemIDs {
		it, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: item %s", errNotFound, id)
		}
		if it.Status == enum.ItemCanceled || it.Status == enum.ItemDeclined {
			return nil, fmt.Errorf("%w: item %s is %s", errUnprocessable, id, it.Status)
		}
		subtotal = subtotal.Add(it.SubtotalAmount())
	}

	fee := s.serviceFee(ord.OrderType, subtotal)
	bill := &api.Bill{
		ID:               uuid.NewString(),
		OrderID:          ord.ID,
		Status:           enum.BillFinalized,
		Subtotal:         money.FormatAmount(subtotal),
		DiscountAmount:   money.FormatAmount(decimal.Zero),
		ServiceFeeAmount: money.FormatAmount(fee),
		TotalAmount:      money.FormatAmount(subtotal.Add(fee)),
		PaidAmount:       money.FormatAmount(decimal.Zero),
		CreatedAt:        time.Now().UTC(),
	}
	s.bills[bill.ID] = bill
	return bill, nil
}

func (s *Store) GetBill(id string) (*api.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bill, ok := s.bills[id]
	if !ok {
		return nil, fmt.Errorf("%w: bill %s", errNotFound, id)
	}
	return bill, nil
}

// UpdateBillDiscounts replaces the bill's discount set and recomputes every
// derived amount.
func (s *Store) UpdateBillDiscounts(id string, req api.UpdateBillDiscountsRequest) (*api.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bill, ok := s.bills[id]
	if !ok {
		return nil, fmt.Errorf("%w: bill %s", errNotFound, id)
	}
	if bill.Status == enum.BillPaid || bill.Status == enum.BillCancelled {
		return nil, fmt.Errorf("%w: bill is %s", errConflict, bill.Status)
	}

	subtotal := bill.SubtotalAmount()
	discount := decimal.Zero
	applied := make([]api.AppliedDiscount, 0, len(req.DiscountIDs))
	for _, did := range req.DiscountIDs {
		d, ok := s.discounts[did]
		if !ok {
			return nil, fmt.Errorf("%w: discount %s", errNotFound, did)
		}
		amount := subtotal.Mul(d.Percent).Div(decimal.NewFromInt(100)).Round(2)
		discount = discount.Add(amount)
		applied = append(applied, api.AppliedDiscount{DiscountID: d.ID, Amount: money.FormatAmount(amount)})
	}
	if req.CustomDiscountAmount != "" {
		custom := money.ParseAmount(req.CustomDiscountAmount)
		if !custom.IsPositive() {
			return nil, fmt.Errorf("%w: custom discount must be positive", errValidation)
		}
		discount = discount.Add(custom)
	}
	if discount.GreaterThan(subtotal) {
		return nil, fmt.Errorf("%w: discount exceeds subtotal", errUnprocessable)
	}

	fee := bill.ServiceFee()
	bill.Discounts = applied
	bill.DiscountAmount = money.FormatAmount(discount)
	bill.TotalAmount = money.FormatAmount(subtotal.Sub(discount).Add(fee))
	return bill, nil
}

func (s *Store) CreatePayment(billID string, req api.CreatePaymentRequest) (*api.Payment, error) {
	amount := money.ParseAmount(req.Amount)
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", errValidation)
	}
	if !req.Method.IsValid() {
		return nil, fmt.Errorf("%w: invalid payment method", errValidation)
	}
	if req.Method.RequiresTransactionID() && req.TransactionID == "" {
		return nil, fmt.Errorf("%w: transaction_id is required for %s", errValidation, req.Method)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	bill, ok := s.bills[billID]
	if !ok {
		return nil, fmt.Errorf("%w: bill %s", errNotFound, billID)
	}
	if bill.Status == enum.BillPaid {
		return nil, fmt.Errorf("%w: bill is already fully paid", errConflict)
	}
	if bill.Status == enum.BillCancelled {
		return nil, fmt.Errorf("%w: bill is cancelled", errConflict)
	}
	remaining := bill.Total().Sub(bill.Paid())
	if amount.GreaterThan(remaining) {
		return nil, fmt.Errorf("%w: payment exceeds remaining balance", errConflict)
	}

	payment := api.Payment{
		ID:            uuid.NewString(),
		BillID:        billID,
		Amount:        money.FormatAmount(amount),
		Method:        req.Method,
		TransactionID: req.TransactionID,
		Notes:         req.Notes,
		CreatedAt:     time.Now().UTC(),
	}
	bill.Payments = append(bill.Payments, payment)
	paid := bill.Paid().Add(amount)
	bill.PaidAmount = money.FormatAmount(paid)
	if paid.GreaterThanOrEqual(bill.Total()) {
		bill.Status = enum.BillPaid
	}
	return &payment, nil
}

func (s *Store) ListPayments(billID string) ([]api.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bill, ok := s.bills[billID]
	if !ok {
		return nil, fmt.Errorf("%w: bill %s", errNotFound, billID)
	}
	return append([]api.Payment(nil), bill.Payments...), nil
}
