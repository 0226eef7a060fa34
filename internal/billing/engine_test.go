package billing

import (
	"context"
	"errors"
	"testing"

	"github.com/gapjyk-pos/waiter/internal/api"
	"github.com/gapjyk-pos/waiter/internal/cache"
	"github.com/gapjyk-pos/waiter/internal/enum"
	"github.com/shopspring/decimal"
)

// mockBillingAPI implements BillingAPI with configurable function fields.
type mockBillingAPI struct {
	calculateFn func(ctx context.Context, orderID string) (*api.BillCalculation, error)
	createFn    func(ctx context.Context, req api.CreateBillRequest) (*api.Bill, error)
	getFn       func(ctx context.Context, billID string) (*api.Bill, error)
	discountsFn func(ctx context.Context, billID string, req api.UpdateBillDiscountsRequest) (*api.Bill, error)
	paymentFn   func(ctx context.Context, billID string, req api.CreatePaymentRequest) (*api.Payment, error)

	paymentCalls int
}

func (m *mockBillingAPI) CalculateBill(ctx context.Context, orderID string) (*api.BillCalculation, error) {
	if m.calculateFn != nil {
		return m.calculateFn(ctx, orderID)
	}
	return &api.BillCalculation{Subtotal: "100.00", DiscountAmount: "10.00", ServiceFeeAmount: "5.00", TotalAmount: "95.00"}, nil
}

func (m *mockBillingAPI) CreateBill(ctx context.Context, req api.CreateBillRequest) (*api.Bill, error) {
	if m.createFn != nil {
		return m.createFn(ctx, req)
	}
	return bill("100.00", "10.00", "5.00", "95.00", "0.00"), nil
}

func (m *mockBillingAPI) GetBill(ctx context.Context, billID string) (*api.Bill, error) {
	if m.getFn != nil {
		return m.getFn(ctx, billID)
	}
	return bill("100.00", "10.00", "5.00", "95.00", "0.00"), nil
}

func (m *mockBillingAPI) UpdateBillDiscounts(ctx context.Context, billID string, req api.UpdateBillDiscountsRequest) (*api.Bill, error) {
	if m.discountsFn != nil {
		return m.discountsFn(ctx, billID, req)
	}
	return bill("100.00", "0.00", "5.00", "105.00", "0.00"), nil
}

func (m *mockBillingAPI) CreatePayment(ctx context.Context, billID string, req api.CreatePaymentRequest) (*api.Payment, error) {
	m.paymentCalls++
	if m.paymentFn != nil {
		return m.paymentFn(ctx, billID, req)
	}
	return &api.Payment{ID: "pay-1", BillID: billID, Amount: req.Amount, Method: req.Method}, nil
}

func newEngine(mock *mockBillingAPI) (*Engine, *cache.Cache) {
	bills := cache.New(func(ctx context.Context, key string) (any, error) {
		return nil, errors.New("no fetcher in test")
	})
	return NewEngine(mock, bills), bills
}

func billableOrder() *api.Order {
	return &api.Order{
		ID:          "order-1",
		OrderStatus: enum.OrderInProgress,
		Items: []api.OrderItem{
			{ID: "a", Status: enum.ItemServed, Subtotal: "60.00"},
			{ID: "b", Status: enum.ItemReady, Subtotal: "40.00"},
		},
	}
}

func TestPreviewThenCreateUsesSameSnapshot(t *testing.T) {
	var created api.CreateBillRequest
	mock := &mockBillingAPI{
		createFn: func(ctx context.Context, req api.CreateBillRequest) (*api.Bill, error) {
			created = req
			return bill("100.00", "10.00", "5.00", "95.00", "0.00"), nil
		},
	}
	eng, bills := newEngine(mock)

	preview, err := eng.PreviewBill(context.Background(), billableOrder())
	if err != nil {
		t.Fatal(err)
	}
	if !preview.Calc.Total().Equal(decimal.RequireFromString("95.00")) {
		t.Errorf("preview total: got %s", preview.Calc.Total())
	}

	// Items move on while the waiter reviews; the commit still uses the
	// previewed snapshot, not the order's current state.
	b, err := eng.CreateBill(context.Background(), preview, "")
	if err != nil {
		t.Fatal(err)
	}
	if created.OrderID != "order-1" || len(created.ItemIDs) != 2 {
		t.Errorf("create request: %+v", created)
	}
	if created.ItemIDs[0] != "a" || created.ItemIDs[1] != "b" {
		t.Errorf("snapshot ids: %v", created.ItemIDs)
	}
	if v, status := bills.Peek(b.ID); status != cache.StatusFresh || v == nil {
		t.Errorf("created bill not cached fresh: %s", status)
	}
}

func TestCreateBillSurfacesInconsistentAmounts(t *testing.T) {
	mock := &mockBillingAPI{
		createFn: func(ctx context.Context, req api.CreateBillRequest) (*api.Bill, error) {
			return bill("100.00", "10.00", "5.00", "100.00", "0.00"), nil
		},
	}
	eng, bills := newEngine(mock)

	preview, err := eng.PreviewBill(context.Background(), billableOrder())
	if err != nil {
		t.Fatal(err)
	}
	b, err := eng.CreateBill(context.Background(), preview, "")
	if !errors.Is(err, ErrInconsistentBill) {
		t.Fatalf("got %v, want ErrInconsistentBill", err)
	}
	// The server's record is still handed back and cached alongside the
	// error, so the caller can warn without losing the bill.
	if b == nil || b.ID != "bill-1" {
		t.Fatalf("bill not returned with the error: %+v", b)
	}
	if _, status := bills.Peek("bill-1"); status != cache.StatusFresh {
		t.Errorf("bill not cached: %s", status)
	}
}

func TestPreviewRejectsFullyPendingOrder(t *testing.T) {
	eng, _ := newEngine(&mockBillingAPI{})
	ord := &api.Order{
		ID:    "order-1",
		Items: []api.OrderItem{{ID: "a", Status: enum.ItemPending}},
	}
	if _, err := eng.PreviewBill(context.Background(), ord); !errors.Is(err, ErrNotBillable) {
		t.Fatalf("got %v, want ErrNotBillable", err)
	}
}

func TestReplaceDiscountsIsFullReplacement(t *testing.T) {
	var captured api.UpdateBillDiscountsRequest
	mock := &mockBillingAPI{
		discountsFn: func(ctx context.Context, billID string, req api.UpdateBillDiscountsRequest) (*api.Bill, error) {
			captured = req
			return bill("100.00", "20.00", "5.00", "85.00", "0.00"), nil
		},
	}
	eng, bills := newEngine(mock)

	b, err := eng.ReplaceDiscounts(context.Background(), "bill-1", []string{"disc-1", "disc-2"}, decimal.Zero)
	if err != nil {
		t.Fatal(err)
	}
	if len(captured.DiscountIDs) != 2 || captured.CustomDiscountAmount != "" {
		t.Errorf("request: %+v", captured)
	}
	if !b.Discount().Equal(decimal.RequireFromString("20.00")) {
		t.Errorf("discount: got %s", b.Discount())
	}
	if _, status := bills.Peek("bill-1"); status != cache.StatusFresh {
		t.Errorf("updated bill not cached: %s", status)
	}

	// An empty list clears every discount.
	if _, err := eng.ReplaceDiscounts(context.Background(), "bill-1", nil, decimal.Zero); err != nil {
		t.Fatal(err)
	}
	if len(captured.DiscountIDs) != 0 {
		t.Errorf("clear request still carries ids: %v", captured.DiscountIDs)
	}
}

func TestReplaceDiscountsCustomAmount(t *testing.T) {
	var captured api.UpdateBillDiscountsRequest
	mock := &mockBillingAPI{
		discountsFn: func(ctx context.Context, billID string, req api.UpdateBillDiscountsRequest) (*api.Bill, error) {
			captured = req
			return bill("100.00", "15.00", "5.00", "90.00", "0.00"), nil
		},
	}
	eng, _ := newEngine(mock)

	if _, err := eng.ReplaceDiscounts(context.Background(), "bill-1", nil, decimal.RequireFromString("15.5")); err != nil {
		t.Fatal(err)
	}
	if captured.CustomDiscountAmount != "15.50" {
		t.Errorf("custom amount: got %q, want 15.50", captured.CustomDiscountAmount)
	}
}

func TestSubmitPaymentGuards(t *testing.T) {
	mock := &mockBillingAPI{}
	eng, _ := newEngine(mock)
	b := bill("100.00", "10.00", "5.00", "95.00", "0.00")

	cases := []struct {
		name    string
		amount  string
		method  enum.PaymentMethod
		txID    string
		wantErr error
	}{
		{"zero amount", "0", enum.MethodCash, "", ErrNonPositiveAmount},
		{"negative amount", "-5", enum.MethodCash, "", ErrNonPositiveAmount},
		{"unknown method", "10", "CHEQUE", "", ErrInvalidPaymentMethod},
		{"card without transaction", "10", enum.MethodBankCard, "", ErrTransactionIDRequired},
		{"wallet without transaction", "10", enum.MethodGapjykPay, "", ErrTransactionIDRequired},
	}
	for _, c := range cases {
		_, err := eng.SubmitPayment(context.Background(), b, decimal.RequireFromString(c.amount), c.method, c.txID, "")
		if !errors.Is(err, c.wantErr) {
			t.Errorf("%s: got %v, want %v", c.name, err, c.wantErr)
		}
	}
	if mock.paymentCalls != 0 {
		t.Errorf("guards leaked %d calls to the API", mock.paymentCalls)
	}

	// Cash needs no transaction id.
	if _, err := eng.SubmitPayment(context.Background(), b, decimal.RequireFromString("10"), enum.MethodCash, "", ""); err != nil {
		t.Fatalf("cash payment: %v", err)
	}
}

func TestSubmitPaymentReconcilesFromRefetch(t *testing.T) {
	mock := &mockBillingAPI{
		getFn: func(ctx context.Context, billID string) (*api.Bill, error) {
			return bill("100.00", "10.00", "5.00", "95.00", "50.00"), nil
		},
	}
	eng, bills := newEngine(mock)
	b := bill("100.00", "10.00", "5.00", "95.00", "0.00")

	res, err := eng.SubmitPayment(context.Background(), b, decimal.RequireFromString("50"), enum.MethodCash, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if res.Bill == nil {
		t.Fatal("authoritative bill missing from result")
	}
	if !res.Position.Remaining.Equal(decimal.RequireFromString("45.00")) {
		t.Errorf("remaining: got %s, want 45.00", res.Position.Remaining)
	}
	if res.Position.FullyPaid || res.Position.Overpaid {
		t.Errorf("position flags: %+v", res.Position)
	}
	if _, status := bills.Peek("bill-1"); status != cache.StatusFresh {
		t.Errorf("refetched bill not cached: %s", status)
	}
}

func TestSubmitPaymentProvisionalWhenRefetchFails(t *testing.T) {
	mock := &mockBillingAPI{
		getFn: func(ctx context.Context, billID string) (*api.Bill, error) {
			return nil, &api.APIError{StatusCode: 502, Message: "gateway"}
		},
	}
	eng, _ := newEngine(mock)
	b := bill("100.00", "10.00", "5.00", "95.00", "45.00")

	res, err := eng.SubmitPayment(context.Background(), b, decimal.RequireFromString("50"), enum.MethodCash, "", "")
	if err != nil {
		t.Fatal(err)
	}
	// Payment went through; the position is the local estimate.
	if res.Bill != nil {
		t.Error("no authoritative bill should be present")
	}
	if !res.Position.FullyPaid || !res.Position.Remaining.IsZero() {
		t.Errorf("provisional position: %+v", res.Position)
	}
}

func TestSubmitPaymentFailureChangesNothing(t *testing.T) {
	serverErr := &api.APIError{StatusCode: 422, Message: "payment exceeds remaining balance"}
	mock := &mockBillingAPI{
		paymentFn: func(ctx context.Context, billID string, req api.CreatePaymentRequest) (*api.Payment, error) {
			return nil, serverErr
		},
	}
	eng, bills := newEngine(mock)
	b := bill("100.00", "10.00", "5.00", "95.00", "90.00")

	_, err := eng.SubmitPayment(context.Background(), b, decimal.RequireFromString("10"), enum.MethodCash, "", "")
	if !errors.Is(err, serverErr) {
		t.Fatalf("got %v, want server error", err)
	}
	if mock.paymentCalls != 1 {
		t.Errorf("failed payment must not be retried, calls=%d", mock.paymentCalls)
	}
	if _, status := bills.Peek("bill-1"); status != cache.StatusMissing {
		t.Errorf("cache touched by failed payment: %s", status)
	}
}

func TestOverpaidSignal(t *testing.T) {
	mock := &mockBillingAPI{
		getFn: func(ctx context.Context, billID string) (*api.Bill, error) {
			return bill("100.00", "10.00", "5.00", "95.00", "100.00"), nil
		},
	}
	eng, _ := newEngine(mock)
	b := bill("100.00", "10.00", "5.00", "95.00", "90.00")

	res, err := eng.SubmitPayment(context.Background(), b, decimal.RequireFromString("10"), enum.MethodCash, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Position.Overpaid || !res.Position.FullyPaid {
		t.Errorf("overpaid bill position: %+v", res.Position)
	}
	if !res.Position.Remaining.IsZero() {
		t.Errorf("remaining clamps to zero, got %s", res.Position.Remaining)
	}
}
