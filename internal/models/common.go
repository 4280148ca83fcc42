// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Enums
type ProductType string

const (
	ProductTypeTshirt ProductType = "tshirt"
	ProductTypeHoodie ProductType = "hoodie"
	ProductTypeMug    ProductType = "mug"
)

func (p ProductType) Valid() bool {
	switch p {
	case ProductTypeTshirt, ProductTypeHoodie, ProductTypeMug:
		return true
	}
	return false
}

// Mugs ship in a single variant; shirts and hoodies need an explicit size.
const SizeOneSize = "one-size"

var ApparelSizes = []string{"S", "M", "L", "XL"}

func ValidApparelSize(size string) bool {
	for _, s := range ApparelSizes {
		if s == size {
			return true
		}
	}
	return false
}

type FulfillmentStatus string

const (
	FulfillmentStatusSubmitted FulfillmentStatus = "submitted"
	FulfillmentStatusFailed    FulfillmentStatus = "failed"
	FulfillmentStatusBypassed  FulfillmentStatus = "bypassed"
)

type PaymentMethod string

const (
	PaymentMethodCrypto PaymentMethod = "crypto"
	PaymentMethodCard   PaymentMethod = "card"
)
