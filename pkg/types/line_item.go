package types

import "github.com/shopspring/decimal"

// VariantSummary is the immutable projection of a purchasable variant
// that the cart needs: identity, display title, and price.
type VariantSummary struct {
	ID                  string          `json:"id"`
	Title               string          `json:"title"`
	Price               decimal.Decimal `json:"price"`
	AvailableForSale    bool            `json:"available_for_sale"`
	CurrentlyNotInStock bool            `json:"currently_not_in_stock"`
}

// ProductSummary carries the display attributes of the product a cart
// line belongs to.
type ProductSummary struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Vendor        string `json:"vendor,omitempty"`
	FeaturedImage string `json:"featured_image,omitempty"`
}

// LineItem is a (variant, quantity) pair. Quantity 0 is the removal
// signal during reconciliation and is never a steady-state entry.
type LineItem struct {
	Variant  VariantSummary `json:"variant"`
	Product  ProductSummary `json:"product"`
	Quantity int            `json:"quantity"`
}

// SameLine reports whether two line items refer to the same cart line.
// Identity is the variant id; titles and prices are display-only.
func (l LineItem) SameLine(other LineItem) bool {
	return l.Variant.ID == other.Variant.ID
}

// LineTotal returns price multiplied by quantity.
func (l LineItem) LineTotal() decimal.Decimal {
	return l.Variant.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// CloneLineItems returns an independent copy of the given slice.
func CloneLineItems(items []LineItem) []LineItem {
	if items == nil {
		return nil
	}
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}
