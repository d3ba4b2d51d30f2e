package cartfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jwoody02/shoppy-go/pkg/logger"
	"github.com/jwoody02/shoppy-go/pkg/types"
	"github.com/shopspring/decimal"
)

func newTestStore(t *testing.T, debounce time.Duration) *Store {
	t.Helper()

	store, err := New(Params{
		Dir:        t.TempDir(),
		ShopDomain: "demo.myshopify.com",
		Debounce:   debounce,
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
	})
	if err != nil {
		t.Fatalf("failed to build store: %v", err)
	}
	t.Cleanup(func() {
		store.Close(context.Background())
	})
	return store
}

func sampleSnapshot(qty int) types.CartSnapshot {
	item := types.LineItem{
		Variant: types.VariantSummary{
			ID:    "gid://shop/ProductVariant/1",
			Title: "Small",
			Price: decimal.RequireFromString("19.99"),
		},
		Product: types.ProductSummary{
			ID:    "gid://shop/Product/1",
			Title: "Shirt",
		},
		Quantity: qty,
	}
	return types.CartSnapshot{
		Items:         []types.LineItem{item},
		PreviousItems: []types.LineItem{item},
		CheckoutID:    "gid://shop/Cart/abc",
		CheckoutURL:   "https://demo.myshopify.com/checkout/abc",
	}
}

func TestLoadCreatesPlaceholder(t *testing.T) {
	store := newTestStore(t, 10*time.Millisecond)

	snap := store.Load(context.Background())
	if len(snap.Items) != 0 || snap.HasCheckout() {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}

	if _, err := os.Stat(store.Path()); err != nil {
		t.Fatalf("expected placeholder file after first load: %v", err)
	}
}

func TestLoadCorruptFileDegradesToEmpty(t *testing.T) {
	store := newTestStore(t, 10*time.Millisecond)

	if err := os.WriteFile(store.Path(), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seeding corrupt file: %v", err)
	}

	snap := store.Load(context.Background())
	if len(snap.Items) != 0 {
		t.Fatalf("corrupt file should degrade to empty snapshot, got %+v", snap)
	}
}

func TestFlushRoundTrip(t *testing.T) {
	store := newTestStore(t, 5*time.Millisecond)

	want := sampleSnapshot(3)
	store.Flush(want)

	waitForWrites(t, store, 1)

	got := store.Load(context.Background())
	if len(got.Items) != 1 || got.Items[0].Quantity != 3 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.Items[0].Variant.ID != want.Items[0].Variant.ID {
		t.Fatalf("variant id lost in round trip: %+v", got)
	}
	if !got.Items[0].Variant.Price.Equal(want.Items[0].Variant.Price) {
		t.Fatalf("price lost in round trip: %s", got.Items[0].Variant.Price)
	}
	if got.CheckoutID != want.CheckoutID || got.CheckoutURL != want.CheckoutURL {
		t.Fatalf("checkout identifiers lost: %+v", got)
	}
	if len(got.PreviousItems) != 1 {
		t.Fatalf("previous items lost: %+v", got)
	}
}

func TestFlushCoalescesRapidMutations(t *testing.T) {
	store := newTestStore(t, 50*time.Millisecond)

	for i := 1; i <= 10; i++ {
		store.Flush(sampleSnapshot(i))
	}

	waitForWrites(t, store, 1)
	time.Sleep(100 * time.Millisecond)

	if got := store.WriteCount(); got != 1 {
		t.Fatalf("expected exactly 1 coalesced write, got %d", got)
	}

	snap := store.Load(context.Background())
	if snap.Items[0].Quantity != 10 {
		t.Fatalf("expected latest state to win, got quantity %d", snap.Items[0].Quantity)
	}
}

func TestCloseDrainsPendingWrite(t *testing.T) {
	store, err := New(Params{
		Dir:        t.TempDir(),
		ShopDomain: "demo.myshopify.com",
		Debounce:   time.Hour, // writer should not fire on its own
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
	})
	if err != nil {
		t.Fatalf("failed to build store: %v", err)
	}

	store.Flush(sampleSnapshot(7))
	if err := store.Close(context.Background()); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	data, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatalf("reading snapshot after close: %v", err)
	}
	var snap types.CartSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("decoding snapshot after close: %v", err)
	}
	if snap.Items[0].Quantity != 7 {
		t.Fatalf("pending write not drained on close: %+v", snap)
	}
}

func TestWriteFileAtomicLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cart.json")

	for i := 0; i < 5; i++ {
		payload := []byte(fmt.Sprintf(`{"n":%d}`, i))
		if err := WriteFileAtomic(path, payload); err != nil {
			t.Fatalf("atomic write %d failed: %v", i, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the target file, found %d entries", len(entries))
	}
}

func waitForWrites(t *testing.T, store *Store, want int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if store.WriteCount() >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d writes, have %d", want, store.WriteCount())
}
