package cart

import (
	"testing"

	"github.com/jwoody02/shoppy-go/pkg/types"
)

func diffByVariant(t *testing.T, diff []types.LineItem) map[string]int {
	t.Helper()

	out := make(map[string]int, len(diff))
	for _, item := range diff {
		if _, dup := out[item.Variant.ID]; dup {
			t.Fatalf("variant %s emitted more than once", item.Variant.ID)
		}
		out[item.Variant.ID] = item.Quantity
	}
	return out
}

func TestDiffEmptyLists(t *testing.T) {
	if diff := Diff(nil, nil); len(diff) != 0 {
		t.Fatalf("expected empty diff, got %+v", diff)
	}
}

func TestDiffAdditions(t *testing.T) {
	current := []types.LineItem{testItem("v1", 1), testItem("v2", 3)}

	got := diffByVariant(t, Diff(current, nil))
	if len(got) != 2 || got["v1"] != 1 || got["v2"] != 3 {
		t.Fatalf("unexpected diff: %+v", got)
	}
}

func TestDiffQuantityChange(t *testing.T) {
	previous := []types.LineItem{testItem("v1", 1), testItem("v2", 2)}
	current := []types.LineItem{testItem("v1", 5), testItem("v2", 2)}

	got := diffByVariant(t, Diff(current, previous))
	if len(got) != 1 {
		t.Fatalf("unchanged lines must not be emitted: %+v", got)
	}
	if got["v1"] != 5 {
		t.Fatalf("expected current quantity 5 for v1, got %d", got["v1"])
	}
}

func TestDiffRemovalsCarryZeroQuantity(t *testing.T) {
	previous := []types.LineItem{testItem("v1", 2), testItem("v2", 1)}
	current := []types.LineItem{testItem("v2", 1)}

	got := diffByVariant(t, Diff(current, previous))
	if len(got) != 1 {
		t.Fatalf("unexpected diff size: %+v", got)
	}
	if qty, ok := got["v1"]; !ok || qty != 0 {
		t.Fatalf("removed line must be emitted with quantity 0, got %+v", got)
	}
}

func TestDiffCompleteness(t *testing.T) {
	previous := []types.LineItem{testItem("v1", 1), testItem("v2", 2), testItem("v3", 3)}
	current := []types.LineItem{testItem("v2", 2), testItem("v3", 9), testItem("v4", 1)}

	got := diffByVariant(t, Diff(current, previous))
	want := map[string]int{"v1": 0, "v3": 9, "v4": 1}
	if len(got) != len(want) {
		t.Fatalf("diff size mismatch: got %+v want %+v", got, want)
	}
	for id, qty := range want {
		if got[id] != qty {
			t.Fatalf("variant %s: got %d want %d", id, got[id], qty)
		}
	}
}

func TestDiffAddThenRemoveAgainstEmptyBaseline(t *testing.T) {
	// an item that was added and removed before ever reaching the
	// baseline must not resurface as an addition
	got := Diff(nil, nil)
	if len(got) != 0 {
		t.Fatalf("expected no net change, got %+v", got)
	}
}
