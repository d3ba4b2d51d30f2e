package cart

import "github.com/jwoody02/shoppy-go/pkg/types"

// Diff computes the line modifications needed to bring a remote cart
// from the previous item list to the current one. Additions and
// quantity changes are emitted with their current quantity; lines that
// disappeared are emitted with quantity 0, which the gateway treats as
// a removal. Unchanged lines are never emitted, and each variant id
// appears at most once.
func Diff(current, previous []types.LineItem) []types.LineItem {
	prevByVariant := make(map[string]types.LineItem, len(previous))
	for _, item := range previous {
		prevByVariant[item.Variant.ID] = item
	}

	currentIDs := make(map[string]struct{}, len(current))
	var out []types.LineItem
	for _, item := range current {
		currentIDs[item.Variant.ID] = struct{}{}
		prev, existed := prevByVariant[item.Variant.ID]
		if !existed || prev.Quantity != item.Quantity {
			out = append(out, item)
		}
	}

	for _, item := range previous {
		if _, stillHere := currentIDs[item.Variant.ID]; !stillHere {
			removed := item
			removed.Quantity = 0
			out = append(out, removed)
		}
	}
	return out
}
