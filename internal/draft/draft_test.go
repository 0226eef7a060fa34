package draft

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func tea() MenuItemRef {
	return MenuItemRef{ID: "menu-tea", Title: "Green Tea", UnitPrice: dec("10.00")}
}

func TestAddItemDefaults(t *testing.T) {
	d := New()
	item := d.AddItem(tea(), 0, "", nil)

	if item.Quantity != 1 {
		t.Errorf("unset quantity should default to 1, got %d", item.Quantity)
	}
	if item.ID == "" {
		t.Error("item should get a generated id")
	}
	if d.ItemCount() != 1 {
		t.Errorf("ItemCount: got %d, want 1", d.ItemCount())
	}
}

func TestAddItemNeverMerges(t *testing.T) {
	d := New()
	d.AddItem(tea(), 1, "", nil)
	d.AddItem(tea(), 1, "no sugar", nil)

	// Same menu item twice stays two lines so each keeps its own notes.
	if d.ItemCount() != 2 {
		t.Fatalf("ItemCount: got %d, want 2 distinct lines", d.ItemCount())
	}
	if d.TotalQuantity() != 2 {
		t.Errorf("TotalQuantity: got %d, want 2", d.TotalQuantity())
	}
}

func TestItemSubtotalWithExtras(t *testing.T) {
	d := New()
	item := d.AddItem(tea(), 2, "", []ExtraSelection{
		{ExtraID: "extra-lemon", Quantity: 1, UnitPrice: dec("1.50")},
	})

	// 10.00*2 + 1.50*1*2 = 23.00
	if got := item.Subtotal(); !got.Equal(dec("23.00")) {
		t.Errorf("subtotal: got %s, want 23.00", got)
	}
	if got := d.Total(); !got.Equal(dec("23.00")) {
		t.Errorf("draft total: got %s, want 23.00", got)
	}
}

func TestTotalIsSumOfSubtotals(t *testing.T) {
	d := New()
	d.AddItem(tea(), 3, "", nil)
	d.AddItem(MenuItemRef{ID: "menu-soup", UnitPrice: dec("18.50")}, 1, "", nil)
	d.AddItem(MenuItemRef{ID: "menu-kebab", UnitPrice: dec("42.00")}, 2, "", []ExtraSelection{
		{ExtraID: "extra-cheese", Quantity: 2, UnitPrice: dec("3.00")},
	})

	want := decimal.Zero
	for _, it := range d.Items() {
		want = want.Add(it.Subtotal())
	}
	if got := d.Total(); !got.Equal(want) {
		t.Errorf("total: got %s, want %s", got, want)
	}
	// 30.00 + 18.50 + (84.00 + 6.00*2) = 144.50
	if !want.Equal(dec("144.50")) {
		t.Errorf("scenario total: got %s, want 144.50", want)
	}
}

func TestUpdateQuantityClamps(t *testing.T) {
	d := New()
	item := d.AddItem(tea(), 5, "", nil)

	cases := []struct {
		req  int
		want int
	}{
		{0, 1},
		{-3, 1},
		{100, 99},
		{99, 99},
		{1, 1},
		{42, 42},
	}
	for _, c := range cases {
		if err := d.UpdateQuantity(item.ID, c.req); err != nil {
			t.Fatalf("UpdateQuantity(%d): %v", c.req, err)
		}
		got, _ := d.Item(item.ID)
		if got.Quantity != c.want {
			t.Errorf("UpdateQuantity(%d): got %d, want %d", c.req, got.Quantity, c.want)
		}
	}
}

func TestUpdateQuantityRecomputesSubtotal(t *testing.T) {
	d := New()
	item := d.AddItem(tea(), 1, "", nil)

	if err := d.UpdateQuantity(item.ID, 4); err != nil {
		t.Fatal(err)
	}
	got, _ := d.Item(item.ID)
	if !got.Subtotal().Equal(dec("40.00")) {
		t.Errorf("subtotal after quantity change: got %s, want 40.00", got.Subtotal())
	}
}

func TestRemoveItem(t *testing.T) {
	d := New()
	a := d.AddItem(tea(), 1, "", nil)
	b := d.AddItem(tea(), 2, "", nil)

	if err := d.RemoveItem(a.ID); err != nil {
		t.Fatal(err)
	}
	if d.ItemCount() != 1 {
		t.Fatalf("ItemCount after remove: got %d, want 1", d.ItemCount())
	}
	remaining, err := d.Item(b.ID)
	if err != nil {
		t.Fatalf("surviving line should be readable: %v", err)
	}
	if remaining.Quantity != 2 {
		t.Errorf("surviving line changed: quantity %d, want 2", remaining.Quantity)
	}

	if err := d.RemoveItem("nope"); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("removing unknown id: got %v, want ErrItemNotFound", err)
	}
}

func TestDuplicateItem(t *testing.T) {
	d := New()
	src := d.AddItem(tea(), 3, "extra hot", []ExtraSelection{
		{ExtraID: "extra-lemon", Quantity: 1, UnitPrice: dec("1.50")},
	})

	clone, err := d.DuplicateItem(src.ID)
	if err != nil {
		t.Fatal(err)
	}
	if clone.ID == src.ID {
		t.Error("clone must get a new id")
	}
	if clone.Quantity != src.Quantity || clone.Notes != src.Notes {
		t.Error("clone should copy quantity and notes")
	}
	if len(clone.Extras) != 1 || clone.Extras[0].ExtraID != "extra-lemon" {
		t.Error("clone should copy extras")
	}
	if d.ItemCount() != 2 {
		t.Errorf("ItemCount after duplicate: got %d, want 2", d.ItemCount())
	}

	// Mutating the clone's extras must not leak into the source line.
	if err := d.SetExtras(clone.ID, nil); err != nil {
		t.Fatal(err)
	}
	orig, _ := d.Item(src.ID)
	if len(orig.Extras) != 1 {
		t.Error("source extras changed when clone's extras were replaced")
	}
}

func TestClear(t *testing.T) {
	d := New()
	d.AddItem(tea(), 1, "", nil)
	d.AddItem(tea(), 2, "", nil)
	d.Clear()

	if d.ItemCount() != 0 {
		t.Errorf("ItemCount after Clear: got %d, want 0", d.ItemCount())
	}
	if !d.Total().Equal(decimal.Zero) {
		t.Errorf("Total after Clear: got %s, want 0", d.Total())
	}
}

func TestExtraQuantityClamped(t *testing.T) {
	d := New()
	item := d.AddItem(tea(), 1, "", []ExtraSelection{
		{ExtraID: "a", Quantity: 0, UnitPrice: dec("1.00")},
		{ExtraID: "b", Quantity: 150, UnitPrice: dec("1.00")},
	})
	if item.Extras[0].Quantity != 1 {
		t.Errorf("extra quantity 0 should default to 1, got %d", item.Extras[0].Quantity)
	}
	if item.Extras[1].Quantity != 99 {
		t.Errorf("extra quantity 150 should clamp to 99, got %d", item.Extras[1].Quantity)
	}
}
