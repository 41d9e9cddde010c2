package fulfillment

import "encoding/json"

// SyncProduct is a product entry from the provider's store catalog listing.
type SyncProduct struct {
	ID           int64  `json:"id"`
	ExternalID   string `json:"external_id"`
	Name         string `json:"name"`
	Variants     int    `json:"variants"`
	Synced       int    `json:"synced"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// SyncVariant is a sellable variant of a catalog product. The provider reports
// retail prices as decimal strings.
type SyncVariant struct {
	ID           int64          `json:"id"`
	ExternalID   string         `json:"external_id"`
	Name         string         `json:"name"`
	RetailPrice  string         `json:"retail_price"`
	Currency     string         `json:"currency"`
	Availability string         `json:"availability_status"`
	Files        []VariantFile  `json:"files"`
	Product      VariantProduct `json:"product"`
}

// VariantFile is an asset attached to a variant, such as a preview mockup.
type VariantFile struct {
	Type       string `json:"type"`
	PreviewURL string `json:"preview_url"`
}

// VariantProduct carries the base product imagery for a variant.
type VariantProduct struct {
	Image string `json:"image"`
}

// ProductDetail bundles a catalog product with its variants.
type ProductDetail struct {
	Product  SyncProduct   `json:"sync_product"`
	Variants []SyncVariant `json:"sync_variants"`
}

// ShippingRateRecipient is the destination used to quote shipping.
type ShippingRateRecipient struct {
	Address1    string `json:"address1,omitempty"`
	City        string `json:"city,omitempty"`
	CountryCode string `json:"country_code"`
	StateCode   string `json:"state_code,omitempty"`
	Zip         string `json:"zip,omitempty"`
}

// ShippingRateItem identifies a variant and quantity for a shipping quote.
type ShippingRateItem struct {
	VariantID int64 `json:"variant_id"`
	Quantity  int   `json:"quantity"`
}

// ShippingRateRequest is the payload for quoting shipping options.
type ShippingRateRequest struct {
	Recipient ShippingRateRecipient `json:"recipient"`
	Items     []ShippingRateItem    `json:"items"`
}

// ShippingRate is a single quoted shipping option. Rate is a decimal string.
type ShippingRate struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Rate            string `json:"rate"`
	Currency        string `json:"currency"`
	MinDeliveryDays int    `json:"minDeliveryDays"`
	MaxDeliveryDays int    `json:"maxDeliveryDays"`
}

// OrderConfirmation is the provider's acknowledgement of a submitted order.
type OrderConfirmation struct {
	ID         int64  `json:"id"`
	ExternalID string `json:"external_id"`
	Status     string `json:"status"`
}

type apiEnvelope struct {
	Code   int             `json:"code"`
	Result json.RawMessage `json:"result"`
	Error  *apiError       `json:"error"`
}

type apiError struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}
