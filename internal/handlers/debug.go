// internal/handlers/debug.go
package handlers

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mintnprint/backend/internal/config"
	"github.com/mintnprint/backend/internal/services"
	"github.com/mintnprint/backend/internal/utils"
)

// DebugHandler exposes read-only Printify diagnostics for operators
// setting up a shop. The router only mounts it outside production.
type DebugHandler struct {
	config   *config.Config
	printify *services.PrintifyService
}

func NewDebugHandler(cfg *config.Config, printify *services.PrintifyService) *DebugHandler {
	return &DebugHandler{config: cfg, printify: printify}
}

// GET /debug/printify/shops
func (h *DebugHandler) ListShops(c *gin.Context) {
	shops, err := h.printify.ListShops(c.Request.Context())
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"shops": shops, "configured_shop_id": h.config.Printify.ShopID})
}

// GET /debug/printify/blueprints
func (h *DebugHandler) ListBlueprints(c *gin.Context) {
	blueprints, err := h.printify.ListBlueprints(c.Request.Context())
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"count": len(blueprints), "blueprints": blueprints})
}

// GET /debug/printify/blueprints/:id
func (h *DebugHandler) GetBlueprint(c *gin.Context) {
	blueprint, err := h.printify.GetBlueprint(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, blueprint)
}

// GET /debug/printify/verify-shop
func (h *DebugHandler) VerifyShop(c *gin.Context) {
	shopID := c.Query("shop_id")
	if shopID == "" {
		shopID = h.config.Printify.ShopID
	}
	if shopID == "" {
		utils.BadRequestResponse(c, "shop_id is required", nil)
		return
	}
	shop, err := h.printify.VerifyShop(c.Request.Context(), shopID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, shop)
}

// POST /debug/printify/test-upload
func (h *DebugHandler) TestUpload(c *gin.Context) {
	var req struct {
		ImageURL string `json:"image_url"`
	}
	_ = c.ShouldBindJSON(&req)
	if req.ImageURL == "" {
		req.ImageURL = h.config.Printify.PlaceholderImage
	}

	imageID, stageErr := h.printify.UploadImage(c.Request.Context(), req.ImageURL)
	if stageErr != nil {
		utils.AppErrorResponse(c, stageErr)
		return
	}
	utils.SuccessResponse(c, gin.H{
		"image_id":  imageID,
		"image_url": req.ImageURL,
		"tested_at": fmt.Sprintf("%d", time.Now().UnixMilli()),
	})
}
