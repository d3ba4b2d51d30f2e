package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jwoody02/shoppy-go/internal/account"
	"github.com/jwoody02/shoppy-go/internal/cart"
	"github.com/jwoody02/shoppy-go/internal/catalog"
	"github.com/jwoody02/shoppy-go/pkg/config"
	"github.com/jwoody02/shoppy-go/pkg/enums"
	"github.com/jwoody02/shoppy-go/pkg/logger"
	"github.com/jwoody02/shoppy-go/pkg/metrics"
	"github.com/jwoody02/shoppy-go/pkg/storage/cartfile"
	"github.com/jwoody02/shoppy-go/pkg/storefront"
	"github.com/jwoody02/shoppy-go/pkg/types"
)

// shoppy is a smoke harness for the client stack: it wires every
// component against the configured shop, restores the persisted cart,
// revalidates it against live availability and reports what it found.
func main() {
	logg := logger.New(logger.Options{ServiceName: "shoppy"})
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "shoppy",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithShopDomain(ctx, cfg.Shop.Domain)

	client, err := storefront.NewClient(cfg.Shop, cfg.Gateway, logg)
	if err != nil {
		logg.Error(ctx, "failed to build storefront client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	cartMetrics := metrics.NewCartSyncMetrics(registry)

	store, err := cartfile.New(cartfile.Params{
		Dir:        cfg.Storage.Dir,
		ShopDomain: cfg.Shop.Domain,
		Debounce:   cfg.Cart.FlushDebounce,
		Logger:     logg,
		Metrics:    cartMetrics,
	})
	if err != nil {
		logg.Error(ctx, "failed to open cart store", err)
		os.Exit(1)
	}

	accounts, err := account.NewManager(account.Params{
		Dir:        cfg.Storage.Dir,
		ShopDomain: cfg.Shop.Domain,
		Gateway:    client,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to build account manager", err)
		os.Exit(1)
	}

	controller, err := cart.New(ctx, cart.Params{
		Store:        store,
		Gateway:      client,
		Availability: client,
		Tokens:       accounts,
		Logger:       logg,
		Metrics:      cartMetrics,
		Policy:       cfg.Cart.Policy(),
	})
	if err != nil {
		logg.Error(ctx, "failed to build cart controller", err)
		os.Exit(1)
	}

	cancelItems := controller.OnItemsChanged(func(items []types.LineItem) {
		logg.Info(logg.WithField(ctx, "lines", len(items)), "cart items changed")
	})
	defer cancelItems()
	cancelState := controller.OnStateChanged(func(state enums.CartState) {
		logg.Info(logg.WithField(ctx, "state", state.String()), "cart state changed")
	})
	defer cancelState()

	logg.Info(logg.WithFields(ctx, map[string]any{
		"lines":     len(controller.Items()),
		"subtotal":  controller.Subtotal().String(),
		"logged_in": accounts.LoggedIn(),
	}), "cart restored")

	if controller.ValidateCart(ctx) {
		logg.Info(ctx, "every line is still purchasable")
	} else {
		logg.Warn(ctx, "stale lines were pruned from the cart")
	}

	browse, err := catalog.NewService(catalog.Params{Gateway: client, Logger: logg})
	if err != nil {
		logg.Error(ctx, "failed to build catalog service", err)
		os.Exit(1)
	}
	feed := browse.Collections()
	if added, err := feed.LoadNext(ctx); err != nil {
		logg.Error(ctx, "failed to browse collections", err)
	} else {
		logg.Info(logg.WithField(ctx, "collections", added), "storefront reachable")
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := controller.Close(closeCtx); err != nil {
		logg.Error(closeCtx, "error closing cart controller", err)
		os.Exit(1)
	}
}
