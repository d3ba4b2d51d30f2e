package storefront

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/jwoody02/shoppy-go/pkg/errors"
	"github.com/jwoody02/shoppy-go/pkg/types"
)

// RemoteCart identifies a server-side cart resource and its hosted
// checkout URL.
type RemoteCart struct {
	ID          string
	CheckoutURL string
}

// Availability is the purchasability verdict for a single variant.
type Availability struct {
	AvailableForSale    bool
	CurrentlyNotInStock bool
}

// Purchasable collapses the two availability flags into one verdict.
func (a Availability) Purchasable() bool {
	return a.AvailableForSale && !a.CurrentlyNotInStock
}

// PageArgs are cursor pagination inputs for catalog queries.
type PageArgs struct {
	First int
	After string
}

const defaultPageSize = 25

func (p PageArgs) variables() map[string]any {
	first := p.First
	if first <= 0 {
		first = defaultPageSize
	}
	vars := map[string]any{"first": first}
	if p.After != "" {
		vars["after"] = p.After
	}
	return vars
}

// PageInfo mirrors the connection page info returned by the storefront.
type PageInfo struct {
	EndCursor   string `json:"endCursor"`
	HasNextPage bool   `json:"hasNextPage"`
}

// CollectionSummary is the display projection of a collection node.
type CollectionSummary struct {
	ID          string
	Title       string
	Description string
	ImageURL    string
}

// CollectionPage is one cursor page of collections.
type CollectionPage struct {
	Collections []CollectionSummary
	PageInfo    PageInfo
}

// ProductNode pairs a product summary with its purchasable variants.
type ProductNode struct {
	Product  types.ProductSummary
	Variants []types.VariantSummary
}

// ProductPage is one cursor page of products.
type ProductPage struct {
	Products []ProductNode
	PageInfo PageInfo
}

// --- outbound wire shapes ---

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type cartLineInput struct {
	MerchandiseID string `json:"merchandiseId" validate:"required"`
	Quantity      int    `json:"quantity" validate:"gte=0"`
}

type wireBuyerIdentity struct {
	CustomerAccessToken string `json:"customerAccessToken" validate:"required"`
}

type cartCreateInput struct {
	Lines         []cartLineInput    `json:"lines" validate:"dive"`
	BuyerIdentity *wireBuyerIdentity `json:"buyerIdentity,omitempty" validate:"omitempty"`
}

type cartLinesUpdateInput struct {
	CartID string          `json:"cartId" validate:"required"`
	Lines  []cartLineInput `json:"lines" validate:"min=1,dive"`
}

type customerTokenCreateInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// --- inbound wire shapes ---

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type userError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

type wireCart struct {
	ID          string `json:"id"`
	CheckoutURL string `json:"checkoutUrl"`
}

type cartPayload struct {
	Cart       *wireCart   `json:"cart"`
	UserErrors []userError `json:"userErrors"`
}

// result maps the vendor's payload-level failure modes into coded errors.
func (p cartPayload) result(operation string) (*RemoteCart, error) {
	if len(p.UserErrors) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeRemote, operation+" rejected").WithDetails(p.UserErrors)
	}
	if p.Cart == nil || p.Cart.ID == "" || p.Cart.CheckoutURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeRemote, operation+" returned no cart")
	}
	return &RemoteCart{ID: p.Cart.ID, CheckoutURL: p.Cart.CheckoutURL}, nil
}

type cartCreateResponse struct {
	CartCreate cartPayload `json:"cartCreate"`
}

type cartLinesUpdateResponse struct {
	CartLinesUpdate cartPayload `json:"cartLinesUpdate"`
}

type variantNode struct {
	AvailableForSale    bool `json:"availableForSale"`
	CurrentlyNotInStock bool `json:"currentlyNotInStock"`
}

type variantNodeResponse struct {
	Node *variantNode `json:"node"`
}

type wireAccessToken struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type customerTokenCreateResponse struct {
	CustomerAccessTokenCreate struct {
		CustomerAccessToken *wireAccessToken `json:"customerAccessToken"`
		UserErrors          []userError      `json:"customerUserErrors"`
	} `json:"customerAccessTokenCreate"`
}

type customerTokenDeleteResponse struct {
	CustomerAccessTokenDelete struct {
		DeletedAccessToken string `json:"deletedAccessToken"`
	} `json:"customerAccessTokenDelete"`
}

type wireImage struct {
	URL string `json:"url"`
}

type wireCollection struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Image       *wireImage `json:"image"`
}

func (w wireCollection) summary() CollectionSummary {
	out := CollectionSummary{ID: w.ID, Title: w.Title, Description: w.Description}
	if w.Image != nil {
		out.ImageURL = w.Image.URL
	}
	return out
}

type collectionsResponse struct {
	Collections struct {
		Edges []struct {
			Node wireCollection `json:"node"`
		} `json:"edges"`
		PageInfo PageInfo `json:"pageInfo"`
	} `json:"collections"`
}

type wirePrice struct {
	Amount string `json:"amount"`
}

type wireVariant struct {
	ID                  string    `json:"id"`
	Title               string    `json:"title"`
	Price               wirePrice `json:"price"`
	AvailableForSale    bool      `json:"availableForSale"`
	CurrentlyNotInStock bool      `json:"currentlyNotInStock"`
}

type wireProduct struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Vendor        string     `json:"vendor"`
	FeaturedImage *wireImage `json:"featuredImage"`
	Variants      struct {
		Edges []struct {
			Node wireVariant `json:"node"`
		} `json:"edges"`
	} `json:"variants"`
}

func (w wireProduct) projection() ProductNode {
	node := ProductNode{
		Product: types.ProductSummary{
			ID:     w.ID,
			Title:  w.Title,
			Vendor: w.Vendor,
		},
	}
	if w.FeaturedImage != nil {
		node.Product.FeaturedImage = w.FeaturedImage.URL
	}
	for _, edge := range w.Variants.Edges {
		price, err := decimal.NewFromString(edge.Node.Price.Amount)
		if err != nil {
			price = decimal.Zero
		}
		node.Variants = append(node.Variants, types.VariantSummary{
			ID:                  edge.Node.ID,
			Title:               edge.Node.Title,
			Price:               price,
			AvailableForSale:    edge.Node.AvailableForSale,
			CurrentlyNotInStock: edge.Node.CurrentlyNotInStock,
		})
	}
	return node
}

type productsResponse struct {
	Node *struct {
		Products struct {
			Edges []struct {
				Node wireProduct `json:"node"`
			} `json:"edges"`
			PageInfo PageInfo `json:"pageInfo"`
		} `json:"products"`
	} `json:"node"`
}
