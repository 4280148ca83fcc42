// internal/utils/checkout_token.go
package utils

import (
	"fmt"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/mintnprint/backend/internal/config"
	"github.com/mintnprint/backend/internal/models"
)

// CheckoutClaims bind the order identity to the externally hosted
// shipping form. Signing them keeps product, price and transaction hash
// from being tampered with between the frame and the form post-back.
type CheckoutClaims struct {
	SessionID   string `json:"sid"`
	ImageURL    string `json:"image_url"`
	ProductType string `json:"product_type"`
	Size        string `json:"size"`
	TxHash      string `json:"tx_hash"`
	jwt.RegisteredClaims
}

type CheckoutTokenMaker struct {
	secret  []byte
	ttl     time.Duration
	baseURL string
}

func NewCheckoutTokenMaker(cfg *config.Config) *CheckoutTokenMaker {
	return &CheckoutTokenMaker{
		secret:  []byte(cfg.Checkout.TokenSecret),
		ttl:     time.Duration(cfg.Checkout.TokenTTL) * time.Minute,
		baseURL: cfg.Frontend.BaseURL,
	}
}

// Link builds the external shipping-collection URL for a paid order.
func (t *CheckoutTokenMaker) Link(sessionID string, image *models.ImageRecord, order *models.OrderRecord) (string, error) {
	if image == nil || order == nil {
		return "", models.NewValidationError("missing image or order for checkout link")
	}

	signed, err := t.Sign(CheckoutClaims{
		SessionID:   sessionID,
		ImageURL:    image.URL,
		ProductType: string(order.ProductType),
		Size:        order.Size,
		TxHash:      order.TransactionHash,
	})
	if err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("token", signed)
	// Display-only copies; the signed token is authoritative.
	params.Set("image_url", image.URL)
	params.Set("product_type", string(order.ProductType))
	params.Set("size", order.Size)
	params.Set("tx_hash", order.TransactionHash)

	return fmt.Sprintf("%s/shipping?%s", t.baseURL, params.Encode()), nil
}

func (t *CheckoutTokenMaker) Sign(claims CheckoutClaims) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign checkout token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a checkout token from the shipping form.
func (t *CheckoutTokenMaker) Verify(tokenString string) (*CheckoutClaims, error) {
	claims := &CheckoutClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return nil, models.NewValidationError("invalid checkout token: %v", err)
	}
	if !token.Valid {
		return nil, models.NewValidationError("invalid checkout token")
	}
	return claims, nil
}
