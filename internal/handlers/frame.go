// internal/handlers/frame.go
package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/mintnprint/backend/internal/flow"
	"github.com/mintnprint/backend/internal/models"
	"github.com/mintnprint/backend/internal/utils"
)

// FrameHandler exposes each state-machine step as a frame endpoint. The
// presentation layer (frame rendering, buttons) lives client-side; these
// endpoints speak StepResult JSON.
type FrameHandler struct {
	machine *flow.Machine
}

func NewFrameHandler(machine *flow.Machine) *FrameHandler {
	return &FrameHandler{machine: machine}
}

// FrameRequest is the payload frame clients post on every interaction.
type FrameRequest struct {
	FID           int64  `json:"fid"`
	WalletAddress string `json:"wallet_address"`
	InputText     string `json:"input_text"`
	TransactionID string `json:"transaction_id"`
}

// sessionID derives the per-requester session key: an explicit header
// wins, then the frame's fid, then the client IP as a last resort.
func sessionID(c *gin.Context, req *FrameRequest) string {
	if sid := c.GetHeader("X-Session-Id"); sid != "" {
		return sid
	}
	if req != nil && req.FID != 0 {
		return fmt.Sprintf("fid:%d", req.FID)
	}
	return "ip:" + c.ClientIP()
}

func bindFrameRequest(c *gin.Context) *FrameRequest {
	var req FrameRequest
	// An empty body is fine; every field is optional on most steps.
	_ = c.ShouldBindJSON(&req)
	return &req
}

// POST /frame
func (h *FrameHandler) Start(c *gin.Context) {
	req := bindFrameRequest(c)
	utils.SuccessResponse(c, h.machine.Start(sessionID(c, req)))
}

// POST /frame/generate
func (h *FrameHandler) Generate(c *gin.Context) {
	req := bindFrameRequest(c)
	result := h.machine.Generate(c.Request.Context(), sessionID(c, req), req.InputText, req.WalletAddress)
	utils.SuccessResponse(c, result)
}

// POST /frame/mint
func (h *FrameHandler) OfferMint(c *gin.Context) {
	req := bindFrameRequest(c)
	utils.SuccessResponse(c, h.machine.OfferMint(sessionID(c, req), req.WalletAddress))
}

// POST /frame/mint-tx
func (h *FrameHandler) MintTransaction(c *gin.Context) {
	req := bindFrameRequest(c)

	tx, err := h.machine.BuildMintTransaction(sessionID(c, req), req.WalletAddress)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, tx)
}

// POST /frame/mint-complete
func (h *FrameHandler) MintComplete(c *gin.Context) {
	req := bindFrameRequest(c)
	result := h.machine.CompleteMint(c.Request.Context(), sessionID(c, req), req.TransactionID)
	utils.SuccessResponse(c, result)
}

// POST /frame/print
func (h *FrameHandler) ShowProducts(c *gin.Context) {
	req := bindFrameRequest(c)
	utils.SuccessResponse(c, h.machine.ShowProducts(sessionID(c, req)))
}

// POST /frame/print/:product
func (h *FrameHandler) ChooseProduct(c *gin.Context) {
	req := bindFrameRequest(c)
	productType := models.ProductType(c.Param("product"))
	utils.SuccessResponse(c, h.machine.ChooseProduct(sessionID(c, req), productType))
}

// POST /frame/print/size/:size
func (h *FrameHandler) ChooseSize(c *gin.Context) {
	req := bindFrameRequest(c)
	utils.SuccessResponse(c, h.machine.ChooseSize(sessionID(c, req), c.Param("size")))
}

// POST /frame/print/dev-bypass
func (h *FrameHandler) DevBypass(c *gin.Context) {
	req := bindFrameRequest(c)
	utils.SuccessResponse(c, h.machine.DevBypass(sessionID(c, req)))
}

// POST /frame/print/shipping-address
func (h *FrameHandler) RequestShipping(c *gin.Context) {
	req := bindFrameRequest(c)
	utils.SuccessResponse(c, h.machine.RequestShipping(sessionID(c, req)))
}
