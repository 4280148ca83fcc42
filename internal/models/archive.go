// internal/models/archive.go
package models

// OrderArchive is a durable record of every fulfillment submission,
// successful or not. The live flow never reads it back; it exists for
// support and reconciliation.
type OrderArchive struct {
	BaseModel
	SessionID       string            `json:"session_id" gorm:"index;not null"`
	ProductType     ProductType       `json:"product_type" gorm:"not null"`
	Size            string            `json:"size" gorm:"not null"`
	Price           int               `json:"price" gorm:"not null"` // cents
	ImageURL        string            `json:"image_url"`
	TransactionHash string            `json:"transaction_hash"`
	PaymentMethod   PaymentMethod     `json:"payment_method"`
	Status          FulfillmentStatus `json:"status" gorm:"index;not null"`
	ProviderOrderID string            `json:"provider_order_id"`
	FailedStage     string            `json:"failed_stage"`
	ProviderPayload JSONB             `json:"provider_payload" gorm:"type:jsonb"`
	Shipping        JSONB             `json:"shipping" gorm:"type:jsonb"`
}

func (OrderArchive) TableName() string {
	return "order_archives"
}
