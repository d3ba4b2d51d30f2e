package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/jwoody02/shoppy-go/pkg/config"
	pkgerrors "github.com/jwoody02/shoppy-go/pkg/errors"
	"github.com/jwoody02/shoppy-go/pkg/logger"
	"github.com/jwoody02/shoppy-go/pkg/types"
)

const (
	accessTokenHeader = "X-Shopify-Storefront-Access-Token"
	requestIDHeader   = "X-Request-ID"
)

var (
	errTokenRequired  = errors.New("storefront access token is required")
	errDomainRequired = errors.New("shop domain is required")
	errLoggerRequired = errors.New("storefront logger is required")
)

// Client wraps the vendor storefront GraphQL endpoint with centralized
// auth, logging, bounded transient retry, and error mapping.
type Client struct {
	httpClient *http.Client
	endpoint   string
	token      string
	attempts   uint64
	retryBase  time.Duration
	logg       *logger.Logger
	validate   *validator.Validate
}

// NewClient initializes the storefront wrapper and validates the credentials.
func NewClient(cfg config.ShopConfig, gw config.GatewayConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	if strings.TrimSpace(cfg.Domain) == "" {
		return nil, errDomainRequired
	}
	token := strings.TrimSpace(cfg.StorefrontToken)
	if token == "" {
		return nil, errTokenRequired
	}

	timeout := gw.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	attempts := gw.RetryAttempts
	if attempts <= 0 {
		attempts = 1
	}
	retryBase := gw.RetryBase
	if retryBase <= 0 {
		retryBase = 250 * time.Millisecond
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   cfg.Endpoint(),
		token:      token,
		attempts:   uint64(attempts),
		retryBase:  retryBase,
		logg:       logg,
		validate:   validator.New(),
	}, nil
}

// CartCreate creates a remote cart for the given items. Buyer identity
// is attached only when it carries a non-empty token.
func (c *Client) CartCreate(ctx context.Context, items []types.LineItem, identity *types.BuyerIdentity) (*RemoteCart, error) {
	input := cartCreateInput{Lines: wireLines(items)}
	if identity != nil && !identity.IsZero() {
		input.BuyerIdentity = &wireBuyerIdentity{CustomerAccessToken: identity.CustomerAccessToken}
	}
	if err := c.validate.Struct(input); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cart create input")
	}

	var payload cartCreateResponse
	if err := c.execute(ctx, "cartCreate", cartCreateMutation, map[string]any{"input": input}, &payload); err != nil {
		return nil, err
	}
	return payload.CartCreate.result("cart create")
}

// CartLinesUpdate sends only the changed lines for an existing cart.
// A modification with quantity 0 removes that line remotely.
func (c *Client) CartLinesUpdate(ctx context.Context, cartID string, modifications []types.LineItem) (*RemoteCart, error) {
	if strings.TrimSpace(cartID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart id is required")
	}
	input := cartLinesUpdateInput{CartID: cartID, Lines: wireLines(modifications)}
	if err := c.validate.Struct(input); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cart lines input")
	}

	variables := map[string]any{"cartId": cartID, "lines": input.Lines}
	var payload cartLinesUpdateResponse
	if err := c.execute(ctx, "cartLinesUpdate", cartLinesUpdateMutation, variables, &payload); err != nil {
		return nil, err
	}
	return payload.CartLinesUpdate.result("cart lines update")
}

// VariantAvailability asks whether the variant is still purchasable.
func (c *Client) VariantAvailability(ctx context.Context, variantID string) (Availability, error) {
	if strings.TrimSpace(variantID) == "" {
		return Availability{}, pkgerrors.New(pkgerrors.CodeValidation, "variant id is required")
	}

	ctx = c.logg.WithVariantID(ctx, variantID)
	var payload variantNodeResponse
	if err := c.execute(ctx, "variantAvailability", variantAvailabilityQuery, map[string]any{"id": variantID}, &payload); err != nil {
		return Availability{}, err
	}
	if payload.Node == nil {
		return Availability{}, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
	}
	return Availability{
		AvailableForSale:    payload.Node.AvailableForSale,
		CurrentlyNotInStock: payload.Node.CurrentlyNotInStock,
	}, nil
}

// CustomerAccessTokenCreate exchanges credentials for a customer session token.
func (c *Client) CustomerAccessTokenCreate(ctx context.Context, email, password string) (string, time.Time, error) {
	input := customerTokenCreateInput{Email: email, Password: password}
	if err := c.validate.Struct(input); err != nil {
		return "", time.Time{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid login input")
	}

	var payload customerTokenCreateResponse
	if err := c.execute(ctx, "customerAccessTokenCreate", customerTokenCreateMutation, map[string]any{"input": input}, &payload); err != nil {
		return "", time.Time{}, err
	}
	result := payload.CustomerAccessTokenCreate
	if len(result.UserErrors) > 0 {
		return "", time.Time{}, pkgerrors.New(pkgerrors.CodeRemote, "login rejected").WithDetails(result.UserErrors)
	}
	if result.CustomerAccessToken == nil {
		return "", time.Time{}, pkgerrors.New(pkgerrors.CodeRemote, "login returned no token")
	}
	return result.CustomerAccessToken.AccessToken, result.CustomerAccessToken.ExpiresAt, nil
}

// CustomerAccessTokenDelete invalidates a customer session token.
func (c *Client) CustomerAccessTokenDelete(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "token is required")
	}
	var payload customerTokenDeleteResponse
	return c.execute(ctx, "customerAccessTokenDelete", customerTokenDeleteMutation, map[string]any{"customerAccessToken": token}, &payload)
}

// Collections fetches one cursor page of collections.
func (c *Client) Collections(ctx context.Context, page PageArgs) (*CollectionPage, error) {
	variables := page.variables()
	var payload collectionsResponse
	if err := c.execute(ctx, "collections", collectionsQuery, variables, &payload); err != nil {
		return nil, err
	}
	out := &CollectionPage{PageInfo: payload.Collections.PageInfo}
	for _, edge := range payload.Collections.Edges {
		out.Collections = append(out.Collections, edge.Node.summary())
	}
	return out, nil
}

// Products fetches one cursor page of products for a collection,
// including their purchasable variants.
func (c *Client) Products(ctx context.Context, collectionID string, page PageArgs) (*ProductPage, error) {
	if strings.TrimSpace(collectionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "collection id is required")
	}
	variables := page.variables()
	variables["collectionId"] = collectionID

	var payload productsResponse
	if err := c.execute(ctx, "products", productsQuery, variables, &payload); err != nil {
		return nil, err
	}
	if payload.Node == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "collection not found")
	}
	out := &ProductPage{PageInfo: payload.Node.Products.PageInfo}
	for _, edge := range payload.Node.Products.Edges {
		out.Products = append(out.Products, edge.Node.projection())
	}
	return out, nil
}

// execute posts one GraphQL document and decodes data into out.
// Transport failures and 5xx/429 responses are retried with fibonacci
// backoff; GraphQL-level errors are terminal.
func (c *Client) execute(ctx context.Context, operation, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding request")
	}

	requestID := uuid.NewString()
	ctx = c.logg.WithRequestID(ctx, requestID)
	ctx = c.logg.WithField(ctx, "operation", operation)

	backoff := retry.WithMaxRetries(c.attempts-1, retry.NewFibonacci(c.retryBase))
	var envelope graphqlResponse
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if reqErr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, reqErr, "building request")
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(accessTokenHeader, c.token)
		req.Header.Set(requestIDHeader, requestID)

		resp, doErr := c.httpClient.Do(req)
		if doErr != nil {
			return retry.RetryableError(pkgerrors.Wrap(pkgerrors.CodeUnavailable, doErr, "storefront request failed"))
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			io.Copy(io.Discard, resp.Body)
			return retry.RetryableError(pkgerrors.New(pkgerrors.CodeUnavailable, fmt.Sprintf("storefront returned %d", resp.StatusCode)))
		}
		if resp.StatusCode != http.StatusOK {
			return pkgerrors.New(pkgerrors.CodeRemote, fmt.Sprintf("storefront returned %d", resp.StatusCode))
		}

		envelope = graphqlResponse{}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&envelope); decodeErr != nil {
			return retry.RetryableError(pkgerrors.Wrap(pkgerrors.CodeUnavailable, decodeErr, "decoding response"))
		}
		return nil
	})
	if err != nil {
		c.logg.Error(ctx, "storefront call failed", err)
		return err
	}

	if len(envelope.Errors) > 0 {
		err := pkgerrors.New(pkgerrors.CodeRemote, envelope.Errors[0].Message).WithDetails(envelope.Errors)
		c.logg.Error(ctx, "storefront query rejected", err)
		return err
	}
	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decoding payload")
		}
	}
	return nil
}

func wireLines(items []types.LineItem) []cartLineInput {
	lines := make([]cartLineInput, 0, len(items))
	for _, item := range items {
		lines = append(lines, cartLineInput{
			MerchandiseID: item.Variant.ID,
			Quantity:      item.Quantity,
		})
	}
	return lines
}
