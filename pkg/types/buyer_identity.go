package types

import "strings"

// BuyerIdentity associates a remote cart with an authenticated customer
// session. An empty token means no identity and must never be sent.
type BuyerIdentity struct {
	CustomerAccessToken string `json:"customer_access_token"`
}

// IsZero reports whether the identity carries no usable token.
func (b BuyerIdentity) IsZero() bool {
	return strings.TrimSpace(b.CustomerAccessToken) == ""
}
