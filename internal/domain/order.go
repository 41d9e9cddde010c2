package domain

// Recipient is the decomposed shipping destination for a fulfillment order.
type Recipient struct {
	Name     string `json:"name"`
	Address1 string `json:"address1"`
	Address2 string `json:"address2,omitempty"`
	City     string `json:"city"`
	State    string `json:"state_code,omitempty"`
	Country  string `json:"country_code"`
	Zip      string `json:"zip"`
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
}

// OrderItem references a fulfillment provider variant and a quantity.
type OrderItem struct {
	VariantID int64 `json:"variant_id"`
	Quantity  int   `json:"quantity"`
}

// OrderCosts is the charged cost breakdown reported to the fulfillment
// provider. Each field is a two-decimal string derived from the payment
// processor's authoritative totals, never recomputed from the cart.
type OrderCosts struct {
	Subtotal string `json:"subtotal"`
	Shipping string `json:"shipping"`
	Tax      string `json:"tax"`
	Total    string `json:"total"`
}

// FulfillmentOrder is the record submitted to the print-on-demand provider
// after a payment completes. Created exactly once per completed session.
type FulfillmentOrder struct {
	ExternalID string      `json:"external_id"`
	Recipient  Recipient   `json:"recipient"`
	Items      []OrderItem `json:"items"`
	Costs      OrderCosts  `json:"retail_costs"`
}
