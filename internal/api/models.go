package api

import (
	"time"

	"github.com/gapjyk-pos/waiter/internal/enum"
	"github.com/gapjyk-pos/waiter/internal/money"
	"github.com/shopspring/decimal"
)

// Wire models for the backend contract. All amounts travel as decimal
// strings; the typed accessors parse them with the zero-on-garbage policy so
// a malformed field never breaks a display path. Quantities on order items
// are string-encoded integers on the wire.

// Order is a server-persisted order.
type Order struct {
	ID                string           `json:"id"`
	OrderCode         string           `json:"order_code"`
	OrderNumber       int              `json:"order_number"`
	OrderType         enum.OrderType   `json:"order_type"`
	OrderStatus       enum.OrderStatus `json:"order_status"`
	TableID           string           `json:"table_id,omitempty"`
	CustomerID        string           `json:"customer_id,omitempty"`
	Notes             string           `json:"notes,omitempty"`
	TotalAmount       string           `json:"total_amount"`
	ServiceFeeAmount  string           `json:"service_fee_amount"`
	ServiceFeePercent string           `json:"service_fee_percent"`
	Items             []OrderItem      `json:"items"`
	CancelReason      string           `json:"cancel_reason,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

func (o Order) Total() decimal.Decimal { return money.ParseAmount(o.TotalAmount) }

// IsActive reports whether the order still accepts item mutations.
func (o Order) IsActive() bool { return o.OrderStatus.IsActive() }

// OrderItem is a server-persisted order line.
type OrderItem struct {
	ID            string               `json:"id"`
	OrderID       string               `json:"order_id"`
	MenuItemID    string               `json:"menu_item_id"`
	Title         string               `json:"title"`
	Quantity      string               `json:"quantity"`
	Status        enum.OrderItemStatus `json:"status"`
	UnitPrice     string               `json:"unit_price"`
	Subtotal      string               `json:"subtotal"`
	Notes         string               `json:"notes,omitempty"`
	Extras        []OrderItemExtra     `json:"extras,omitempty"`
	CancelReason  string               `json:"cancel_reason,omitempty"`
	DeclineReason string               `json:"decline_reason,omitempty"`
}

func (it OrderItem) QuantityInt() int { return money.ParseQuantity(it.Quantity) }

func (it OrderItem) SubtotalAmount() decimal.Decimal { return money.ParseAmount(it.Subtotal) }

// OrderItemExtra is a selected extra on a persisted line.
type OrderItemExtra struct {
	ExtraID   string `json:"extra_id"`
	Title     string `json:"title"`
	Quantity  string `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

// Bill is a snapshot of billable items with its discount and fee breakdown.
// Later item changes on the order do not alter an existing bill.
type Bill struct {
	ID               string            `json:"id"`
	OrderID          string            `json:"order_id"`
	Status           enum.BillStatus   `json:"status"`
	Subtotal         string            `json:"subtotal"`
	DiscountAmount   string            `json:"discount_amount"`
	ServiceFeeAmount string            `json:"service_fee_amount"`
	TotalAmount      string            `json:"total_amount"`
	PaidAmount       string            `json:"paid_amount"`
	Discounts        []AppliedDiscount `json:"discounts,omitempty"`
	Payments         []Payment         `json:"payments,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
}

func (b Bill) SubtotalAmount() decimal.Decimal { return money.ParseAmount(b.Subtotal) }

func (b Bill) Discount() decimal.Decimal { return money.ParseAmount(b.DiscountAmount) }

func (b Bill) ServiceFee() decimal.Decimal { return money.ParseAmount(b.ServiceFeeAmount) }

func (b Bill) Total() decimal.Decimal { return money.ParseAmount(b.TotalAmount) }

func (b Bill) Paid() decimal.Decimal { return money.ParseAmount(b.PaidAmount) }

// AppliedDiscount is one discount applied to a bill, amount computed
// server-side.
type AppliedDiscount struct {
	DiscountID string `json:"discount_id"`
	Amount     string `json:"amount"`
}

// Payment is one entry in a bill's append-only payment ledger.
type Payment struct {
	ID            string             `json:"id"`
	BillID        string             `json:"bill_id"`
	Amount        string             `json:"amount"`
	Method        enum.PaymentMethod `json:"method"`
	TransactionID string             `json:"transaction_id,omitempty"`
	Notes         string             `json:"notes,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
}

func (p Payment) AmountValue() decimal.Decimal { return money.ParseAmount(p.Amount) }

// BillCalculation is the server-side bill preview. It never commits anything.
type BillCalculation struct {
	Subtotal         string `json:"subtotal"`
	DiscountAmount   string `json:"discount_amount"`
	ServiceFeeAmount string `json:"service_fee_amount"`
	TotalAmount      string `json:"total_amount"`
}

func (c BillCalculation) SubtotalAmount() decimal.Decimal { return money.ParseAmount(c.Subtotal) }

func (c BillCalculation) Discount() decimal.Decimal { return money.ParseAmount(c.DiscountAmount) }

func (c BillCalculation) ServiceFee() decimal.Decimal { return money.ParseAmount(c.ServiceFeeAmount) }

func (c BillCalculation) Total() decimal.Decimal { return money.ParseAmount(c.TotalAmount) }

// --- Request payloads ---

// CreateOrderRequest submits a whole draft in one batch. Partial submission
// of a draft is not a supported state.
type CreateOrderRequest struct {
	OrderType  enum.OrderType         `json:"order_type"`
	TableID    string                 `json:"table_id,omitempty"`
	CustomerID string                 `json:"customer_id,omitempty"`
	Notes      string                 `json:"notes,omitempty"`
	Items      []CreateOrderItemInput `json:"items"`
}

// CreateOrderItemInput is one draft line converted for submission.
type CreateOrderItemInput struct {
	MenuItemID string       `json:"menu_item_id"`
	Quantity   int          `json:"quantity"`
	Notes      string       `json:"notes,omitempty"`
	Extras     []ExtraInput `json:"extras,omitempty"`
}

// ExtraInput is one extra selection on a submitted line.
type ExtraInput struct {
	ExtraID  string `json:"extra_id"`
	Quantity int    `json:"quantity"`
}

// UpdateOrderRequest patches order-level fields. Nil pointers are omitted so
// the server only touches what the client sent.
type UpdateOrderRequest struct {
	TableID      *string           `json:"table_id,omitempty"`
	Notes        *string           `json:"notes,omitempty"`
	OrderStatus  *enum.OrderStatus `json:"order_status,omitempty"`
	CancelReason *string           `json:"cancel_reason,omitempty"`
}

// BatchItemStatusRequest moves one or more items to a target status in a
// single all-or-nothing call.
type BatchItemStatusRequest struct {
	ItemIDs        []string             `json:"item_ids"`
	Status         enum.OrderItemStatus `json:"status"`
	CancelReason   string               `json:"cancel_reason,omitempty"`
	CancelReasonID string               `json:"cancel_reason_id,omitempty"`
}

// CreateBillRequest persists a bill from an explicit item snapshot, the
// same snapshot the preview was computed from.
type CreateBillRequest struct {
	OrderID    string   `json:"order_id"`
	ItemIDs    []string `json:"item_ids"`
	CustomerID string   `json:"customer_id,omitempty"`
}

// UpdateBillDiscountsRequest replaces the bill's discount set atomically.
// This is the new authoritative list, not an addition.
type UpdateBillDiscountsRequest struct {
	DiscountIDs          []string `json:"discount_ids"`
	CustomDiscountAmount string   `json:"custom_discount_amount,omitempty"`
}

// CreatePaymentRequest records one payment against a bill.
type CreatePaymentRequest struct {
	Amount        string             `json:"amount"`
	Method        enum.PaymentMethod `json:"method"`
	TransactionID string             `json:"transaction_id,omitempty"`
	Notes         string             `json:"notes,omitempty"`
}
