// Package enum defines the status and classification domains shared by the
// order, billing, and payment flows. Every domain is a distinct string type
// so a bill status can never be handed to an order item transition check.
package enum

// OrderItemStatus is the preparation state of a single submitted order item.
type OrderItemStatus string

const (
	ItemPending       OrderItemStatus = "PENDING"
	ItemSentToPrepare OrderItemStatus = "SENT_TO_PREPARE"
	ItemPreparing     OrderItemStatus = "PREPARING"
	ItemReady         OrderItemStatus = "READY"
	ItemServed        OrderItemStatus = "SERVED"
	ItemCanceled      OrderItemStatus = "CANCELED"
	ItemDeclined      OrderItemStatus = "DECLINED"
)

// IsValid reports whether s is one of the defined item statuses.
func (s OrderItemStatus) IsValid() bool {
	switch s {
	case ItemPending, ItemSentToPrepare, ItemPreparing,
		ItemReady, ItemServed, ItemCanceled, ItemDeclined:
		return true
	}
	return false
}

// OrderStatus is the lifecycle state of a whole order.
type OrderStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderInProgress OrderStatus = "IN_PROGRESS"
	OrderCompleted  OrderStatus = "COMPLETED"
	OrderCancelled  OrderStatus = "CANCELLED"
)

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderPending, OrderInProgress, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

// IsActive reports whether an order in this status still accepts item-level
// mutations. COMPLETED and CANCELLED orders are frozen.
func (s OrderStatus) IsActive() bool {
	return s == OrderPending || s == OrderInProgress
}

// OrderType distinguishes how an order is fulfilled. DINE_IN orders target a
// table; DELIVERY and TO_GO orders target a customer.
type OrderType string

const (
	TypeDineIn   OrderType = "DINE_IN"
	TypeDelivery OrderType = "DELIVERY"
	TypeToGo     OrderType = "TO_GO"
)

func (t OrderType) IsValid() bool {
	switch t {
	case TypeDineIn, TypeDelivery, TypeToGo:
		return true
	}
	return false
}

// RequiresTable reports whether orders of this type are addressed to a table
// rather than a customer account.
func (t OrderType) RequiresTable() bool {
	return t == TypeDineIn
}

// BillStatus is the lifecycle state of a bill.
type BillStatus string

const (
	BillDraft     BillStatus = "DRAFT"
	BillFinalized BillStatus = "FINALIZED"
	BillPaid      BillStatus = "PAID"
	BillCancelled BillStatus = "CANCELLED"
)

func (s BillStatus) IsValid() bool {
	switch s {
	case BillDraft, BillFinalized, BillPaid, BillCancelled:
		return true
	}
	return false
}

// PaymentMethod is how a payment was collected.
type PaymentMethod string

const (
	MethodCash            PaymentMethod = "CASH"
	MethodBankCard        PaymentMethod = "BANK_CARD"
	MethodGapjykPay       PaymentMethod = "GAPJYK_PAY"
	MethodCustomerAccount PaymentMethod = "CUSTOMER_ACCOUNT"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case MethodCash, MethodBankCard, MethodGapjykPay, MethodCustomerAccount:
		return true
	}
	return false
}

// RequiresTransactionID reports whether payments made with this method must
// carry an external transaction reference for reconciliation.
func (m PaymentMethod) RequiresTransactionID() bool {
	return m != MethodCash
}
