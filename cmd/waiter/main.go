// Command waiter walks one order through the full service flow against a
// running backend: draft, submit, kitchen pipeline, bill, payment. Useful as
// a smoke check against the mock backend.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gapjyk-pos/waiter/internal/api"
	"github.com/gapjyk-pos/waiter/internal/billing"
	"github.com/gapjyk-pos/waiter/internal/cache"
	"github.com/gapjyk-pos/waiter/internal/config"
	"github.com/gapjyk-pos/waiter/internal/draft"
	"github.com/gapjyk-pos/waiter/internal/enum"
	"github.com/gapjyk-pos/waiter/internal/order"
	"github.com/gapjyk-pos/waiter/internal/realtime"
	"github.com/gapjyk-pos/waiter/internal/session"
	"github.com/gapjyk-pos/waiter/internal/submit"
	"github.com/shopspring/decimal"
)

func main() {
	cfg := config.Load()

	var sess *session.Session
	if cfg.Token != "" {
		var err error
		sess, err = session.New(cfg.Token)
		if err != nil {
			log.Fatalf("session: %v", err)
		}
	}
	client := api.New(cfg.APIBaseURL, sess, cfg.HTTPTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	orders := cache.New(func(ctx context.Context, key string) (any, error) {
		return client.GetOrder(ctx, key)
	})
	bills := cache.New(func(ctx context.Context, key string) (any, error) {
		return client.GetBill(ctx, key)
	})

	listener := realtime.New(cfg.WSURL, cfg.Token, orders, bills)
	go listener.Run(ctx)

	// Draft two lines and send them to the kitchen.
	d := draft.New()
	d.AddItem(draft.MenuItemRef{ID: "menu-kebab", Title: "Lamb Kebab",
		UnitPrice: decimal.RequireFromString("42.00")}, 2, "no onions",
		[]draft.ExtraSelection{{ExtraID: "extra-bread", Quantity: 1,
			UnitPrice: decimal.RequireFromString("2.00")}})
	d.AddItem(draft.MenuItemRef{ID: "menu-tea", Title: "Black Tea",
		UnitPrice: decimal.RequireFromString("10.00")}, 1, "", nil)
	fmt.Printf("draft: %d lines, total %s\n", d.ItemCount(), d.Total())

	flow := submit.New(client, d)
	ord, err := flow.Submit(ctx, submit.Target{OrderType: enum.TypeDineIn, TableID: "table-5"})
	if err != nil {
		log.Fatalf("submit: %v", err)
	}
	fmt.Printf("order %s created, total %s\n", ord.OrderCode, ord.TotalAmount)

	// Stand in for the kitchen: walk every item to READY.
	itemIDs := make([]string, len(ord.Items))
	for i, it := range ord.Items {
		itemIDs[i] = it.ID
	}
	for _, status := range []enum.OrderItemStatus{
		enum.ItemSentToPrepare, enum.ItemPreparing, enum.ItemReady,
	} {
		if err := client.BatchUpdateItemStatus(ctx, ord.ID, api.BatchItemStatusRequest{
			ItemIDs: itemIDs, Status: status,
		}); err != nil {
			log.Fatalf("advance to %s: %v", status, err)
		}
	}

	items := order.NewItemFlow(client, orders)
	if err := items.MarkServed(ctx, ord.ID, itemIDs); err != nil {
		log.Fatalf("serve: %v", err)
	}
	fmt.Println("all items served")

	fresh, err := client.GetOrder(ctx, ord.ID)
	if err != nil {
		log.Fatalf("refetch order: %v", err)
	}

	// Bill and settle.
	engine := billing.NewEngine(client, bills)
	preview, err := engine.PreviewBill(ctx, fresh)
	if err != nil {
		log.Fatalf("preview: %v", err)
	}
	fmt.Printf("preview total %s\n", preview.Calc.TotalAmount)

	bill, err := engine.CreateBill(ctx, preview, "")
	if err != nil {
		log.Fatalf("create bill: %v", err)
	}

	result, err := engine.SubmitPayment(ctx, bill, bill.Total(), enum.MethodCash, "", "")
	if err != nil {
		log.Fatalf("payment: %v", err)
	}
	fmt.Printf("paid, remaining %s, fully paid: %v\n",
		result.Position.Remaining, result.Position.FullyPaid)
}
