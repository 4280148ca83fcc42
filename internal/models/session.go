// internal/models/session.go
package models

// ImageRecord is the per-session image state. It is created when image
// acquisition succeeds and overwritten on every new generation or
// product/size selection. Submitting a new prompt clears it.
type ImageRecord struct {
	URL         string      `json:"url"`
	TokenURI    string      `json:"token_uri,omitempty"`
	ProductType ProductType `json:"product_type,omitempty"`
	Size        string      `json:"size,omitempty"`
}

// OrderRecord is created when a size is selected. PurchaseCompleted flips
// to true only through mint verification, card payment confirmation, or
// the development bypass; the shipping step is unreachable without it.
type OrderRecord struct {
	ProductType       ProductType     `json:"product_type"`
	Size              string          `json:"size"`
	Price             int             `json:"price"` // integer cents
	Shipping          ShippingAddress `json:"shipping"`
	PurchaseCompleted bool            `json:"purchase_completed"`
	TransactionHash   string          `json:"transaction_hash,omitempty"`
}

// ShippingAddress mirrors the print provider's address_to contract. All
// fields except Address2 are required before submission.
type ShippingAddress struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"required"`
	Address1  string `json:"address1" validate:"required"`
	Address2  string `json:"address2,omitempty"`
	City      string `json:"city" validate:"required"`
	Zip       string `json:"zip" validate:"required"`
	Country   string `json:"country" validate:"required"`
	Region    string `json:"region" validate:"required"`
}
