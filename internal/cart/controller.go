package cart

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jwoody02/shoppy-go/pkg/enums"
	pkgerrors "github.com/jwoody02/shoppy-go/pkg/errors"
	"github.com/jwoody02/shoppy-go/pkg/logger"
	"github.com/jwoody02/shoppy-go/pkg/metrics"
	"github.com/jwoody02/shoppy-go/pkg/storefront"
	"github.com/jwoody02/shoppy-go/pkg/types"
)

const defaultSyncTimeout = 30 * time.Second

// Gateway is the remote cart surface the controller reconciles against.
type Gateway interface {
	CartCreate(ctx context.Context, items []types.LineItem, identity *types.BuyerIdentity) (*storefront.RemoteCart, error)
	CartLinesUpdate(ctx context.Context, cartID string, modifications []types.LineItem) (*storefront.RemoteCart, error)
}

// AvailabilityChecker answers whether a variant is still purchasable.
type AvailabilityChecker interface {
	VariantAvailability(ctx context.Context, variantID string) (storefront.Availability, error)
}

// SnapshotStore persists the whole cart snapshot durably.
type SnapshotStore interface {
	Load(ctx context.Context) types.CartSnapshot
	Flush(snapshot types.CartSnapshot)
	Close(ctx context.Context) error
}

// TokenSource supplies the buyer's session token, empty when anonymous.
type TokenSource interface {
	CurrentToken() string
}

// Params configure the cart controller.
type Params struct {
	Store        SnapshotStore
	Gateway      Gateway
	Availability AvailabilityChecker
	Tokens       TokenSource
	Logger       *logger.Logger
	Metrics      *metrics.CartSyncMetrics
	Policy       enums.SyncBaselinePolicy
	SyncTimeout  time.Duration
}

// Controller is the single authoritative owner of cart contents. Every
// mutation funnels through one path so persistence, reconciliation and
// notification stay consistent. In-memory mutation is synchronous under
// the controller mutex; disk and network effects run afterward.
type Controller struct {
	store       SnapshotStore
	gateway     Gateway
	avail       AvailabilityChecker
	tokens      TokenSource
	logg        *logger.Logger
	metrics     *metrics.CartSyncMetrics
	policy      enums.SyncBaselinePolicy
	syncTimeout time.Duration
	events      *hub

	mu            sync.Mutex
	items         []types.LineItem
	previousItems []types.LineItem
	checkoutID    string
	checkoutURL   string
	state         enums.CartState
	// generation guards stale sync completions: Reset bumps it, and a
	// completion whose generation no longer matches drops its effects.
	generation uint64

	inflight sync.WaitGroup
}

// New builds a controller and loads the persisted snapshot.
func New(ctx context.Context, params Params) (*Controller, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("snapshot store required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("gateway required")
	}
	if params.Availability == nil {
		return nil, fmt.Errorf("availability checker required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	policy := params.Policy
	if !policy.IsValid() {
		policy = enums.BaselineAdvanceImmediate
	}
	syncTimeout := params.SyncTimeout
	if syncTimeout <= 0 {
		syncTimeout = defaultSyncTimeout
	}

	c := &Controller{
		store:       params.Store,
		gateway:     params.Gateway,
		avail:       params.Availability,
		tokens:      params.Tokens,
		logg:        params.Logger,
		metrics:     params.Metrics,
		policy:      policy,
		syncTimeout: syncTimeout,
		events:      newHub(),
		state:       enums.CartStateIdle,
	}

	snap := c.store.Load(ctx)
	c.items = types.CloneLineItems(snap.Items)
	c.previousItems = types.CloneLineItems(snap.PreviousItems)
	if snap.HasCheckout() {
		c.checkoutID = snap.CheckoutID
		c.checkoutURL = snap.CheckoutURL
	}
	return c, nil
}

// OnItemsChanged registers a subscriber for item list changes. The
// returned function cancels the subscription.
func (c *Controller) OnItemsChanged(fn func(items []types.LineItem)) func() {
	return c.events.subscribeItems(fn)
}

// OnStateChanged registers a subscriber for controller state transitions.
func (c *Controller) OnStateChanged(fn func(state enums.CartState)) func() {
	return c.events.subscribeState(fn)
}

// Items returns a copy of the current line items.
func (c *Controller) Items() []types.LineItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return types.CloneLineItems(c.items)
}

// CheckoutID returns the remote cart id, empty until a create succeeds.
func (c *Controller) CheckoutID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.checkoutID
}

// CheckoutURL returns the hosted checkout URL, empty until a create succeeds.
func (c *Controller) CheckoutURL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.checkoutURL
}

// State returns the controller's current sync state.
func (c *Controller) State() enums.CartState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subtotal sums price times quantity across all lines.
func (c *Controller) Subtotal() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := decimal.Zero
	for _, item := range c.items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// ItemCount sums the quantities across all lines.
func (c *Controller) ItemCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := 0
	for _, item := range c.items {
		count += item.Quantity
	}
	return count
}

// AddItem increments an existing line for the same variant or appends
// a new line with quantity 1.
func (c *Controller) AddItem(item types.LineItem) {
	c.mu.Lock()
	found := false
	for i := range c.items {
		if c.items[i].SameLine(item) {
			c.items[i].Quantity++
			found = true
			break
		}
	}
	if !found {
		item.Quantity = 1
		c.items = append(c.items, item)
	}
	post := c.itemsChangedLocked()
	c.mu.Unlock()
	post()
}

// UpdateQuantity sets the quantity of the line at index. Out-of-range
// indexes and negative quantities are silent no-ops. Setting quantity
// to 0 marks the line as a pending removal for reconciliation but does
// not delete it; only RemoveItem deletes.
func (c *Controller) UpdateQuantity(index, quantity int) {
	c.mu.Lock()
	if index < 0 || index >= len(c.items) || quantity < 0 {
		c.mu.Unlock()
		return
	}
	if c.items[index].Quantity == quantity {
		c.mu.Unlock()
		return
	}
	c.items[index].Quantity = quantity
	post := c.itemsChangedLocked()
	c.mu.Unlock()
	post()
}

// RemoveItem deletes the line at index. Out-of-range is a silent no-op.
func (c *Controller) RemoveItem(index int) {
	c.mu.Lock()
	if index < 0 || index >= len(c.items) {
		c.mu.Unlock()
		return
	}
	c.items = append(c.items[:index], c.items[index+1:]...)
	post := c.itemsChangedLocked()
	c.mu.Unlock()
	post()
}

// Reset clears items, the reconciliation baseline and the remote
// identifiers, persists the empty state and notifies subscribers.
// In-flight sync completions from before the reset are discarded.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.generation++
	c.items = nil
	c.previousItems = nil
	c.checkoutID = ""
	c.checkoutURL = ""
	stateChanged := c.state != enums.CartStateIdle
	c.state = enums.CartStateIdle
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.store.Flush(snapshot)
	c.events.emitItems(nil)
	if stateChanged {
		c.events.emitState(enums.CartStateIdle)
	}
}

// CreateCheckout creates a remote cart for the given items outside the
// implicit sync flow, for buy-now style paths. When identity is nil the
// buyer identity is resolved from the token source. The controller's
// own cart state is untouched.
func (c *Controller) CreateCheckout(ctx context.Context, items []types.LineItem, identity *types.BuyerIdentity) (string, error) {
	if len(items) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "checkout requires at least one item")
	}
	if identity == nil {
		identity = c.resolveIdentity()
	}
	cart, err := c.gateway.CartCreate(ctx, types.CloneLineItems(items), identity)
	if err != nil {
		c.metrics.IncSyncFailure("create")
		return "", err
	}
	c.metrics.IncSyncSuccess("create")
	return cart.CheckoutURL, nil
}

// Close waits for in-flight remote syncs and drains pending writes.
func (c *Controller) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return c.store.Close(ctx)
}

// itemsChangedLocked runs the core pipeline for a completed in-memory
// mutation: diff against the baseline, advance the baseline per policy,
// schedule the debounced flush, notify subscribers, and kick off the
// remote reconciliation. Caller holds c.mu; the returned closure must
// run after unlocking.
func (c *Controller) itemsChangedLocked() func() {
	sync := c.startSyncLocked()
	snapshot := c.snapshotLocked()
	itemsCopy := types.CloneLineItems(c.items)

	return func() {
		c.store.Flush(snapshot)
		c.events.emitItems(itemsCopy)
		sync()
	}
}

// startSyncLocked prepares one remote reconciliation round without
// emitting an items-changed event, so follow-up rounds after a sync
// completion do not look like mutations. Caller holds c.mu.
func (c *Controller) startSyncLocked() func() {
	diff := Diff(c.items, c.previousItems)
	sent := types.CloneLineItems(c.items)
	if c.policy == enums.BaselineAdvanceImmediate {
		// baseline moves before the remote call resolves so overlapping
		// mutations never double-count; a failed sync is not re-diffed
		c.previousItems = types.CloneLineItems(sent)
	}
	gen := c.generation
	checkoutID := c.checkoutID

	target := enums.CartStateCreatingCheckout
	if checkoutID != "" {
		target = enums.CartStateUpdating
	}
	previous := c.state
	c.state = target
	c.inflight.Add(1)

	return func() {
		if previous != target {
			c.events.emitState(target)
		}
		go c.runSync(gen, checkoutID, diff, sent)
	}
}

func (c *Controller) runSync(gen uint64, checkoutID string, diff, sent []types.LineItem) {
	defer c.inflight.Done()

	ctx, cancel := context.WithTimeout(context.Background(), c.syncTimeout)
	defer cancel()

	var (
		cart *storefront.RemoteCart
		err  error
		op   string
	)
	skipped := false
	start := time.Now()

	switch {
	case checkoutID != "" && len(diff) == 0:
		// nothing to reconcile remotely
		skipped = true
	case checkoutID != "":
		op = "update"
		cart, err = c.gateway.CartLinesUpdate(ctx, checkoutID, diff)
	case len(sent) == 0:
		// no remote cart and nothing to put in one
		skipped = true
	default:
		op = "create"
		cart, err = c.gateway.CartCreate(ctx, sent, c.resolveIdentity())
	}

	if !skipped {
		c.metrics.ObserveSyncDuration(op, time.Since(start))
	}

	c.mu.Lock()
	if c.generation != gen {
		// cart was reset while this call was in flight
		c.mu.Unlock()
		c.logg.Debug(ctx, "dropping stale cart sync completion")
		return
	}

	var resync func()
	var flushSnapshot *types.CartSnapshot

	switch {
	case skipped:
	case err != nil || cart == nil:
		c.metrics.IncSyncFailure(op)
		c.logg.Error(c.logg.WithField(ctx, "error_chain", pkgerrors.Dump(err).Chain), "could not sync cart", err)
	default:
		c.checkoutID = cart.ID
		c.checkoutURL = cart.CheckoutURL
		if c.policy == enums.BaselineAdvanceOnSync {
			c.previousItems = types.CloneLineItems(sent)
			// mutations that landed mid-flight still differ from the new
			// baseline; reconcile them in a follow-up round
			if pending := Diff(c.items, c.previousItems); len(pending) > 0 {
				resync = c.startSyncLocked()
			}
		}
		snap := c.snapshotLocked()
		flushSnapshot = &snap
		c.metrics.IncSyncSuccess(op)
		c.logg.Info(c.logg.WithCheckoutID(ctx, cart.ID), "cart synced")
	}

	stateChanged := c.state != enums.CartStateIdle
	if resync == nil {
		c.state = enums.CartStateIdle
	}
	c.mu.Unlock()

	if flushSnapshot != nil {
		// identifiers must survive a restart
		c.store.Flush(*flushSnapshot)
	}
	if resync != nil {
		resync()
		return
	}
	if stateChanged {
		c.events.emitState(enums.CartStateIdle)
	}
}

func (c *Controller) resolveIdentity() *types.BuyerIdentity {
	if c.tokens == nil {
		return nil
	}
	token := strings.TrimSpace(c.tokens.CurrentToken())
	if token == "" {
		return nil
	}
	return &types.BuyerIdentity{CustomerAccessToken: token}
}

// snapshotLocked builds the persisted unit from current state. Caller
// holds c.mu.
func (c *Controller) snapshotLocked() types.CartSnapshot {
	return types.CartSnapshot{
		Items:         types.CloneLineItems(c.items),
		PreviousItems: types.CloneLineItems(c.previousItems),
		CheckoutID:    c.checkoutID,
		CheckoutURL:   c.checkoutURL,
	}
}
