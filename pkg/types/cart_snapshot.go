package types

// CartSnapshot is the persisted unit of cart state. The whole snapshot
// is replaced on every flush; there is no incremental persistence.
type CartSnapshot struct {
	Items []LineItem `json:"items"`
	// PreviousItems is the last item sequence handed to reconciliation,
	// not the last remote-confirmed state.
	PreviousItems []LineItem `json:"previous_items"`
	CheckoutID    string     `json:"checkout_id,omitempty"`
	CheckoutURL   string     `json:"checkout_url,omitempty"`
}

// Clone deep-copies the snapshot's slices.
func (s CartSnapshot) Clone() CartSnapshot {
	return CartSnapshot{
		Items:         CloneLineItems(s.Items),
		PreviousItems: CloneLineItems(s.PreviousItems),
		CheckoutID:    s.CheckoutID,
		CheckoutURL:   s.CheckoutURL,
	}
}

// HasCheckout reports whether a remote cart resource exists for this
// snapshot. The id and url are set together and cleared together.
func (s CartSnapshot) HasCheckout() bool {
	return s.CheckoutID != "" && s.CheckoutURL != ""
}
