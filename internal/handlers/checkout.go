// internal/handlers/checkout.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mintnprint/backend/internal/flow"
	"github.com/mintnprint/backend/internal/models"
	"github.com/mintnprint/backend/internal/services"
	"github.com/mintnprint/backend/internal/session"
	"github.com/mintnprint/backend/internal/utils"
)

// CheckoutHandler serves the out-of-frame half of the flow: the shipping
// form posted from the web page the signed link points at, plus the card
// payment endpoints.
type CheckoutHandler struct {
	machine  *flow.Machine
	payments *services.PaymentService
	tokens   *utils.CheckoutTokenMaker
	store    *session.Store
}

func NewCheckoutHandler(machine *flow.Machine, payments *services.PaymentService, tokens *utils.CheckoutTokenMaker, store *session.Store) *CheckoutHandler {
	return &CheckoutHandler{machine: machine, payments: payments, tokens: tokens, store: store}
}

// CompleteOrderRequest is the shipping form submission. The token binds
// the order fields server-side; the address fields come from the form.
type CompleteOrderRequest struct {
	Token    string                 `json:"token" validate:"required"`
	Shipping models.ShippingAddress `json:"shipping" validate:"required"`
}

// POST /api/complete-order
func (h *CheckoutHandler) CompleteOrder(c *gin.Context) {
	var req CompleteOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ValidationErrorResponse(c, utils.GetValidationErrors(err))
		return
	}

	claims, err := h.tokens.Verify(req.Token)
	if err != nil {
		utils.UnauthorizedResponse(c, "Invalid or expired checkout token")
		return
	}

	payload := flow.CheckoutPayload{
		ImageURL:    claims.ImageURL,
		ProductType: models.ProductType(claims.ProductType),
		Size:        claims.Size,
		TxHash:      claims.TxHash,
		Shipping:    req.Shipping,
	}
	result := h.machine.CompleteOrder(c.Request.Context(), claims.SessionID, payload)

	switch result.State {
	case flow.StateFulfillmentSubmitted:
		utils.SuccessResponse(c, result)
	case flow.StateFulfillmentFailed:
		utils.ErrorResponse(c, http.StatusBadGateway, "FULFILLMENT_FAILED", result.Message, result.Data)
	default:
		utils.BadRequestResponse(c, result.Message, result.Data)
	}
}

// GET /order-confirmation
func (h *CheckoutHandler) OrderConfirmation(c *gin.Context) {
	orderID := c.Query("order_id")
	if orderID == "" {
		utils.BadRequestResponse(c, "order_id is required", nil)
		return
	}
	utils.SuccessResponse(c, gin.H{
		"order_id": orderID,
		"message":  "Your order has been placed. You will receive a confirmation email once it ships.",
	})
}

// PaymentIntentRequest identifies the session whose pending order gets a
// card payment intent.
type PaymentIntentRequest struct {
	SessionID string `json:"session_id"`
}

// POST /api/payment/intent
func (h *CheckoutHandler) CreatePaymentIntent(c *gin.Context) {
	if !h.payments.Configured() {
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "PAYMENTS_NOT_CONFIGURED", "Card payments are not configured", nil)
		return
	}

	var req PaymentIntentRequest
	_ = c.ShouldBindJSON(&req)
	sid := req.SessionID
	if sid == "" {
		sid = c.GetHeader("X-Session-Id")
	}
	if sid == "" {
		utils.BadRequestResponse(c, "session_id is required", nil)
		return
	}

	_, order := h.store.Get(sid)
	if order == nil {
		utils.NotFoundResponse(c, "No pending order for session")
		return
	}
	if order.PurchaseCompleted {
		utils.BadRequestResponse(c, "Order is already paid", nil)
		return
	}

	intent, err := h.payments.CreateMerchPaymentIntent(sid, order)
	if err != nil {
		logrus.WithError(err).Error("Failed to create payment intent")
		utils.AppErrorResponse(c, err)
		return
	}
	utils.CreatedResponse(c, intent)
}

// ConfirmPaymentRequest carries the payment intent the client completed.
type ConfirmPaymentRequest struct {
	SessionID       string `json:"session_id"`
	PaymentIntentID string `json:"payment_intent_id" validate:"required"`
}

// POST /api/payment/confirm
func (h *CheckoutHandler) ConfirmPayment(c *gin.Context) {
	var req ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ValidationErrorResponse(c, utils.GetValidationErrors(err))
		return
	}
	sid := req.SessionID
	if sid == "" {
		sid = c.GetHeader("X-Session-Id")
	}
	if sid == "" {
		utils.BadRequestResponse(c, "session_id is required", nil)
		return
	}

	paymentID, err := h.payments.ConfirmPayment(req.PaymentIntentID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, h.machine.ConfirmPayment(sid, paymentID))
}
