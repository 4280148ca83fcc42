// internal/services/payment_service.go
package services

import (
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"

	"github.com/mintnprint/backend/internal/config"
	"github.com/mintnprint/backend/internal/models"
)

// PaymentService handles the card-payment fallback for merch orders:
// users who skipped minting pay the product price with a Stripe
// PaymentIntent instead of an on-chain transaction.
type PaymentService struct {
	config *config.Config
}

type PaymentIntentResponse struct {
	ClientSecret string `json:"client_secret"`
	PaymentID    string `json:"payment_id"`
	Status       string `json:"status"`
}

func NewPaymentService(cfg *config.Config) *PaymentService {
	// Initialize Stripe
	stripe.Key = cfg.Payment.StripeSecretKey

	return &PaymentService{config: cfg}
}

func (s *PaymentService) Configured() bool {
	return s.config.Payment.StripeSecretKey != ""
}

// CreateMerchPaymentIntent opens a PaymentIntent for the order's total
// price. The session id travels in metadata so confirmations can be tied
// back to the order.
func (s *PaymentService) CreateMerchPaymentIntent(sessionID string, order *models.OrderRecord) (*PaymentIntentResponse, error) {
	if !s.Configured() {
		return nil, models.NewConfigurationError("stripe not configured")
	}
	if order == nil {
		return nil, models.NewValidationError("no order found for this session")
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(int64(order.Price)),
		Currency: stripe.String("usd"),
	}
	params.AddMetadata("session_id", sessionID)
	params.AddMetadata("product_type", string(order.ProductType))
	params.AddMetadata("size", order.Size)

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, models.NewUpstreamError("failed to create payment intent", err)
	}

	return &PaymentIntentResponse{
		ClientSecret: pi.ClientSecret,
		PaymentID:    pi.ID,
		Status:       string(pi.Status),
	}, nil
}

// ConfirmPayment checks the intent's status with Stripe and returns the
// intent id to record as the order's payment transaction id. Anything
// other than a succeeded intent is an error; payment is never assumed.
func (s *PaymentService) ConfirmPayment(paymentIntentID string) (string, error) {
	if !s.Configured() {
		return "", models.NewConfigurationError("stripe not configured")
	}

	pi, err := paymentintent.Get(paymentIntentID, nil)
	if err != nil {
		return "", models.NewUpstreamError("failed to fetch payment intent", err)
	}

	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return "", models.NewValidationError("payment not completed (status %s)", pi.Status)
	}

	return pi.ID, nil
}
