package cart

import (
	"sync"

	"github.com/jwoody02/shoppy-go/pkg/enums"
	"github.com/jwoody02/shoppy-go/pkg/types"
)

// hub is the in-process replacement for the platform notification
// center: subscribers register callbacks and are invoked synchronously
// on the goroutine that performed the mutation, never under the
// controller mutex.
type hub struct {
	mu        sync.Mutex
	nextID    int
	itemsSubs map[int]func([]types.LineItem)
	stateSubs map[int]func(enums.CartState)
}

func newHub() *hub {
	return &hub{
		itemsSubs: make(map[int]func([]types.LineItem)),
		stateSubs: make(map[int]func(enums.CartState)),
	}
}

func (h *hub) subscribeItems(fn func([]types.LineItem)) func() {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.itemsSubs[id] = fn
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.itemsSubs, id)
		h.mu.Unlock()
	}
}

func (h *hub) subscribeState(fn func(enums.CartState)) func() {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.stateSubs[id] = fn
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.stateSubs, id)
		h.mu.Unlock()
	}
}

func (h *hub) emitItems(items []types.LineItem) {
	for _, fn := range h.itemsSnapshot() {
		fn(types.CloneLineItems(items))
	}
}

func (h *hub) emitState(state enums.CartState) {
	for _, fn := range h.stateSnapshot() {
		fn(state)
	}
}

func (h *hub) itemsSnapshot() []func([]types.LineItem) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]func([]types.LineItem), 0, len(h.itemsSubs))
	for _, fn := range h.itemsSubs {
		out = append(out, fn)
	}
	return out
}

func (h *hub) stateSnapshot() []func(enums.CartState) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]func(enums.CartState), 0, len(h.stateSubs))
	for _, fn := range h.stateSubs {
		out = append(out, fn)
	}
	return out
}
