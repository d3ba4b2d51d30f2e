package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jwoody02/shoppy-go/pkg/logger"
	"github.com/jwoody02/shoppy-go/pkg/storefront"
)

// Gateway is the remote browse surface feeds page through.
type Gateway interface {
	Collections(ctx context.Context, page storefront.PageArgs) (*storefront.CollectionPage, error)
	Products(ctx context.Context, collectionID string, page storefront.PageArgs) (*storefront.ProductPage, error)
}

// Params configure the catalog service.
type Params struct {
	Gateway  Gateway
	Logger   *logger.Logger
	PageSize int
}

const defaultPageSize = 25

// Service builds incremental feeds over the shop's collections and
// products. Feeds accumulate pages and track the cursor so callers
// only ever ask for "more".
type Service struct {
	gateway  Gateway
	logg     *logger.Logger
	pageSize int
}

func NewService(params Params) (*Service, error) {
	if params.Gateway == nil {
		return nil, fmt.Errorf("gateway required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	pageSize := params.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Service{gateway: params.Gateway, logg: params.Logger, pageSize: pageSize}, nil
}

// Collections returns a fresh feed over the shop's collections.
func (s *Service) Collections() *CollectionFeed {
	return &CollectionFeed{service: s, hasMore: true}
}

// Products returns a fresh feed over one collection's products.
func (s *Service) Products(collectionID string) (*ProductFeed, error) {
	if strings.TrimSpace(collectionID) == "" {
		return nil, fmt.Errorf("collection id required")
	}
	return &ProductFeed{service: s, collectionID: collectionID, hasMore: true}, nil
}

// CollectionFeed accumulates collection pages.
type CollectionFeed struct {
	service *Service

	mu      sync.Mutex
	items   []storefront.CollectionSummary
	cursor  string
	hasMore bool
}

// Items returns a copy of everything fetched so far.
func (f *CollectionFeed) Items() []storefront.CollectionSummary {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]storefront.CollectionSummary, len(f.items))
	copy(out, f.items)
	return out
}

// HasMore reports whether another page is available.
func (f *CollectionFeed) HasMore() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hasMore
}

// LoadNext fetches the next page and returns how many items it added.
// Calling past the last page is a no-op.
func (f *CollectionFeed) LoadNext(ctx context.Context) (int, error) {
	f.mu.Lock()
	if !f.hasMore {
		f.mu.Unlock()
		return 0, nil
	}
	args := storefront.PageArgs{First: f.service.pageSize, After: f.cursor}
	f.mu.Unlock()

	page, err := f.service.gateway.Collections(ctx, args)
	if err != nil {
		return 0, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, page.Collections...)
	f.cursor = page.PageInfo.EndCursor
	f.hasMore = page.PageInfo.HasNextPage
	return len(page.Collections), nil
}

// Reset drops accumulated items so the next LoadNext starts over.
func (f *CollectionFeed) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = nil
	f.cursor = ""
	f.hasMore = true
}

// ProductFeed accumulates product pages for one collection.
type ProductFeed struct {
	service      *Service
	collectionID string

	mu      sync.Mutex
	items   []storefront.ProductNode
	cursor  string
	hasMore bool
}

// Items returns a copy of everything fetched so far.
func (f *ProductFeed) Items() []storefront.ProductNode {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]storefront.ProductNode, len(f.items))
	copy(out, f.items)
	return out
}

// HasMore reports whether another page is available.
func (f *ProductFeed) HasMore() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hasMore
}

// LoadNext fetches the next page and returns how many items it added.
// Calling past the last page is a no-op.
func (f *ProductFeed) LoadNext(ctx context.Context) (int, error) {
	f.mu.Lock()
	if !f.hasMore {
		f.mu.Unlock()
		return 0, nil
	}
	args := storefront.PageArgs{First: f.service.pageSize, After: f.cursor}
	f.mu.Unlock()

	page, err := f.service.gateway.Products(ctx, f.collectionID, args)
	if err != nil {
		return 0, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, page.Products...)
	f.cursor = page.PageInfo.EndCursor
	f.hasMore = page.PageInfo.HasNextPage
	return len(page.Products), nil
}

// Reset drops accumulated items so the next LoadNext starts over.
func (f *ProductFeed) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = nil
	f.cursor = ""
	f.hasMore = true
}
