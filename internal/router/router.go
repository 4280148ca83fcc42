// internal/router/router.go
package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mintnprint/backend/internal/config"
	"github.com/mintnprint/backend/internal/flow"
	"github.com/mintnprint/backend/internal/handlers"
	"github.com/mintnprint/backend/internal/middleware"
	"github.com/mintnprint/backend/internal/services"
	"github.com/mintnprint/backend/internal/session"
	"github.com/mintnprint/backend/internal/utils"
)

// Initialize wires services, the flow machine and handlers into a gin
// engine. db may be nil; the order archive then runs log-only.
func Initialize(db *gorm.DB, cfg *config.Config) (*gin.Engine, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	storage, err := services.NewStorageService(cfg)
	if err != nil {
		return nil, err
	}
	images := services.NewImageService(cfg, storage)
	mint := services.NewMintService(cfg)
	printify := services.NewPrintifyService(cfg)
	payments := services.NewPaymentService(cfg)
	archive := services.NewArchiveService(db)

	store := session.NewStore(time.Duration(cfg.Session.TTL) * time.Minute)
	tokens := utils.NewCheckoutTokenMaker(cfg)

	machine := flow.NewMachine(cfg, store, images, mint, printify, archive, tokens)

	frameHandler := handlers.NewFrameHandler(machine)
	checkoutHandler := handlers.NewCheckoutHandler(machine, payments, tokens, store)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS())
	r.Use(middleware.GeneralRateLimit())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":      "ok",
			"environment": cfg.Environment,
		})
	})

	// Frame flow steps.
	frame := r.Group("/frame")
	{
		frame.POST("", frameHandler.Start)
		frame.POST("/generate", middleware.GenerateRateLimit(), frameHandler.Generate)
		frame.POST("/mint", frameHandler.OfferMint)
		frame.POST("/mint-tx", frameHandler.MintTransaction)
		frame.POST("/mint-complete", frameHandler.MintComplete)
		frame.POST("/print", frameHandler.ShowProducts)
		frame.POST("/print/dev-bypass", frameHandler.DevBypass)
		frame.POST("/print/shipping-address", frameHandler.RequestShipping)
		frame.POST("/print/size/:size", frameHandler.ChooseSize)
		frame.POST("/print/:product", frameHandler.ChooseProduct)
	}

	// Checkout endpoints used by the external shipping/payment page.
	api := r.Group("/api")
	{
		api.POST("/complete-order", middleware.OrderRateLimit(), checkoutHandler.CompleteOrder)
		api.POST("/payment/intent", checkoutHandler.CreatePaymentIntent)
		api.POST("/payment/confirm", checkoutHandler.ConfirmPayment)
	}
	r.GET("/order-confirmation", checkoutHandler.OrderConfirmation)

	// Operator diagnostics, never mounted in production.
	if !cfg.IsProduction() {
		debugHandler := handlers.NewDebugHandler(cfg, printify)
		debug := r.Group("/debug/printify")
		{
			debug.GET("/shops", debugHandler.ListShops)
			debug.GET("/blueprints", debugHandler.ListBlueprints)
			debug.GET("/blueprints/:id", debugHandler.GetBlueprint)
			debug.GET("/verify-shop", debugHandler.VerifyShop)
			debug.POST("/test-upload", debugHandler.TestUpload)
		}
	}

	// Static assets: welcome/error/placeholder images and locally stored
	// generations.
	r.Static("/static", cfg.Frontend.PublicDir)
	r.StaticFile("/welcome.png", cfg.Frontend.PublicDir+"/welcome.png")
	r.StaticFile("/error-image.svg", cfg.Frontend.PublicDir+"/error-image.svg")
	r.StaticFile("/test-image.svg", cfg.Frontend.PublicDir+"/test-image.svg")

	return r, nil
}
