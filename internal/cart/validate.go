package cart

import (
	"context"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/jwoody02/shoppy-go/pkg/types"
)

// ValidateCart cross-checks every line against live variant
// availability, one concurrent request per line. Lines that report
// unavailable are pruned; a network error counts as unavailable (fail
// closed). At most one flush runs for the whole prune. The return
// value is the verdict before pruning: true only when every line was
// still purchasable.
func (c *Controller) ValidateCart(ctx context.Context) bool {
	c.mu.Lock()
	items := types.CloneLineItems(c.items)
	gen := c.generation
	c.mu.Unlock()

	if len(items) == 0 {
		return true
	}

	valid := make([]bool, len(items))
	checkErrs := make([]error, len(items))

	var group errgroup.Group
	for i, item := range items {
		i, item := i, item
		group.Go(func() error {
			availability, err := c.avail.VariantAvailability(ctx, item.Variant.ID)
			if err != nil {
				checkErrs[i] = err
				return nil
			}
			valid[i] = availability.Purchasable()
			return nil
		})
	}
	// goroutines never return errors; Wait is the fan-in barrier
	_ = group.Wait()

	if combined := multierr.Combine(checkErrs...); combined != nil {
		c.logg.Error(ctx, "cart validation checks failed, pruning affected items", combined)
	}

	allValid := true
	invalidVariants := make(map[string]struct{})
	for i, ok := range valid {
		if !ok {
			allValid = false
			invalidVariants[items[i].Variant.ID] = struct{}{}
		}
	}
	if allValid {
		return true
	}

	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		return allValid
	}
	kept := c.items[:0]
	for _, item := range c.items {
		if _, invalid := invalidVariants[item.Variant.ID]; !invalid {
			kept = append(kept, item)
		}
	}
	pruned := len(kept) != len(c.items)
	c.items = kept
	var snapshot types.CartSnapshot
	var itemsCopy []types.LineItem
	if pruned {
		snapshot = c.snapshotLocked()
		itemsCopy = types.CloneLineItems(c.items)
	}
	c.mu.Unlock()

	if pruned {
		c.store.Flush(snapshot)
		c.events.emitItems(itemsCopy)
	}
	return allValid
}
