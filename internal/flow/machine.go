// internal/flow/machine.go
package flow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mintnprint/backend/internal/config"
	"github.com/mintnprint/backend/internal/models"
	"github.com/mintnprint/backend/internal/services"
	"github.com/mintnprint/backend/internal/session"
)

// Flow step routes as the presentation layer mounts them. Actions point
// at these.
const (
	RoutePrompt       = "/frame"
	RouteGenerate     = "/frame/generate"
	RouteMint         = "/frame/mint"
	RouteMintTx       = "/frame/mint-tx"
	RouteMintComplete = "/frame/mint-complete"
	RoutePrint        = "/frame/print"
	RouteSizePrefix   = "/frame/print/size/"
	RouteShipping     = "/frame/print/shipping-address"
	RouteDevBypass    = "/frame/print/dev-bypass"
)

const createCollectionURL = "https://wallet.coinbase.com/nft/create"

// Machine is the order state machine: it receives each user-triggered
// step, reads and writes the session store, invokes the image, mint and
// fulfillment services, and decides the next externally visible state.
type Machine struct {
	config   *config.Config
	store    *session.Store
	images   ImageAcquirer
	mint     MintProvider
	printify Fulfiller
	archive  Archiver
	checkout CheckoutLinker
}

func NewMachine(
	cfg *config.Config,
	store *session.Store,
	images ImageAcquirer,
	mint MintProvider,
	printify Fulfiller,
	archive Archiver,
	checkout CheckoutLinker,
) *Machine {
	return &Machine{
		config:   cfg,
		store:    store,
		images:   images,
		mint:     mint,
		printify: printify,
		archive:  archive,
		checkout: checkout,
	}
}

// Start is the initial prompt step. Any prior session state is dropped:
// a new prompt always begins from a clean slate.
func (m *Machine) Start(sessionID string) StepResult {
	m.store.Clear(sessionID)

	return StepResult{
		State:   StatePrompt,
		Image:   m.config.WelcomeImageURL(),
		Message: "Describe the image you want to create",
		Actions: []Action{
			StepAction("Generate", RouteGenerate),
		},
	}
}

// Generate acquires an image for the prompt. This transition always
// succeeds: acquisition degrades to a placeholder rather than failing.
func (m *Machine) Generate(ctx context.Context, sessionID, prompt, walletAddress string) StepResult {
	if prompt == "" {
		prompt = "A default image prompt"
	}

	// Reset semantics: a new generation clears the prior record
	m.store.Clear(sessionID)

	imageURL, warn := m.images.Generate(ctx, prompt)
	m.store.SetImage(sessionID, &models.ImageRecord{URL: imageURL})

	result := StepResult{
		State:   StateGenerated,
		Image:   imageURL,
		Message: "Your image is ready",
	}
	if warn != nil {
		result.Data = map[string]interface{}{"warning": warn.Error()}
	}

	// Mint path needs both a configured contract and a connected wallet;
	// with a wallet but no contract we point at collection creation, and
	// with neither the print path is all that's offered.
	if m.mint.ContractConfigured() && walletAddress != "" {
		result.Actions = append(result.Actions, StepAction("Mint NFT", RouteMint))
	} else if walletAddress != "" {
		result.Actions = append(result.Actions, LinkAction("Create Collection", createCollectionURL))
	}
	result.Actions = append(result.Actions,
		StepAction("Print Merch", RoutePrint),
		ResetAction("Reset"),
	)

	return result
}

// OfferMint presents the mint transaction for signing.
func (m *Machine) OfferMint(sessionID, walletAddress string) StepResult {
	image, _ := m.store.Get(sessionID)
	if image == nil || image.URL == "" {
		return m.errorResult(models.ErrorKindValidation, "No image found to mint")
	}
	if walletAddress == "" {
		return m.errorResult(models.ErrorKindValidation, "Please connect your wallet")
	}
	if !m.mint.ContractConfigured() {
		return m.errorResult(models.ErrorKindConfiguration, "NFT contract address not configured")
	}

	price := m.mint.MintPriceETH()
	return StepResult{
		State:   StateMintOffered,
		Image:   image.URL,
		Message: fmt.Sprintf("Mint price: %s ETH. Sign the transaction in your wallet to mint.", price),
		Actions: []Action{
			TxAction(fmt.Sprintf("Sign & Mint (%s ETH)", price), RouteMintTx),
			StepAction("Skip & Print", RoutePrint),
			ResetAction("Cancel"),
		},
	}
}

// BuildMintTransaction returns the signable descriptor for the session's
// image. The wallet signs and submits it out of band.
func (m *Machine) BuildMintTransaction(sessionID, walletAddress string) (*services.MintTransaction, error) {
	image, _ := m.store.Get(sessionID)
	return m.mint.BuildMintTransaction(image, walletAddress)
}

// CompleteMint verifies the submitted transaction and records the hash
// as the image's token URI on success.
func (m *Machine) CompleteMint(ctx context.Context, sessionID, txHash string) StepResult {
	image, _ := m.store.Get(sessionID)

	if txHash == "" {
		return m.mintFailed(image, "Transaction not found")
	}

	if !m.mint.VerifyTransaction(ctx, txHash) {
		return m.mintFailed(image, "Transaction failed on-chain")
	}

	if image == nil {
		image = &models.ImageRecord{}
	}
	image.TokenURI = txHash
	m.store.SetImage(sessionID, image)

	logrus.WithFields(logrus.Fields{
		"session_id": sessionID,
		"tx_hash":    txHash,
	}).Info("mint verified")

	return StepResult{
		State:   StateMintVerified,
		Image:   image.URL,
		Message: fmt.Sprintf("NFT minted. Transaction %s confirmed.", shortHash(txHash)),
		Actions: []Action{
			StepAction("Order Merch", RoutePrint),
			LinkAction("View Transaction", m.mint.ExplorerTxURL(txHash)),
			ResetAction("Start Over"),
		},
		Data: map[string]interface{}{"tx_hash": txHash},
	}
}

func (m *Machine) mintFailed(image *models.ImageRecord, reason string) StepResult {
	result := StepResult{
		State:   StateMintFailed,
		Image:   m.errorImage(),
		Message: reason + ". Would you like to try again?",
		Actions: []Action{
			StepAction("Try Again", RouteMint),
			StepAction("Skip to Print", RoutePrint),
			ResetAction("Cancel"),
		},
	}
	if image != nil {
		result.Image = image.URL
	}
	return result
}

// ShowProducts lists the product types available for printing.
func (m *Machine) ShowProducts(sessionID string) StepResult {
	image, _ := m.store.Get(sessionID)
	if image == nil || image.URL == "" {
		return m.errorResult(models.ErrorKindValidation, "No image generated or found to print")
	}

	return StepResult{
		State:   StateGenerated,
		Image:   image.URL,
		Message: "Select a product type",
		Actions: []Action{
			StepAction("T-Shirt", RoutePrint+"/tshirt"),
			StepAction("Hoodie", RoutePrint+"/hoodie"),
			StepAction("Mug", RoutePrint+"/mug"),
			ResetAction("Back"),
		},
	}
}

// ChooseProduct records the product type. Mugs have a single variant, so
// size selection is skipped entirely and the order is created right away.
func (m *Machine) ChooseProduct(sessionID string, productType models.ProductType) StepResult {
	image, _ := m.store.Get(sessionID)
	if image == nil || image.URL == "" {
		return m.errorResult(models.ErrorKindValidation, "No image found to print")
	}
	if !productType.Valid() {
		return m.errorResult(models.ErrorKindValidation, fmt.Sprintf("Unknown product type %q", productType))
	}

	image.ProductType = productType
	image.Size = ""

	if productType == models.ProductTypeMug {
		image.Size = models.SizeOneSize
		m.store.SetImage(sessionID, image)
		order := m.createOrder(sessionID, image, productType, models.SizeOneSize)
		return m.sizeChosen(image, order, "Mug selected, continuing to shipping")
	}

	m.store.SetImage(sessionID, image)

	actions := make([]Action, 0, len(models.ApparelSizes)+1)
	for _, size := range models.ApparelSizes {
		actions = append(actions, StepAction(size, RouteSizePrefix+size))
	}
	actions = append(actions, StepAction("Back", RoutePrint))

	return StepResult{
		State:   StateProductTypeChosen,
		Image:   image.URL,
		Message: "Select your size",
		Actions: actions,
	}
}

// ChooseSize records the size and creates the order with the price from
// the configured table. The order starts unpaid unless a verified mint
// already covers it.
func (m *Machine) ChooseSize(sessionID, size string) StepResult {
	image, _ := m.store.Get(sessionID)
	if image == nil || image.URL == "" || image.ProductType == "" {
		return m.errorResult(models.ErrorKindValidation, "Session data missing. Please start over.")
	}
	if !models.ValidApparelSize(size) {
		return m.errorResult(models.ErrorKindValidation, fmt.Sprintf("Invalid size %q", size))
	}

	image.Size = size
	m.store.SetImage(sessionID, image)

	order := m.createOrder(sessionID, image, image.ProductType, size)
	return m.sizeChosen(image, order, fmt.Sprintf("Size selected: %s", size))
}

func (m *Machine) createOrder(sessionID string, image *models.ImageRecord, productType models.ProductType, size string) *models.OrderRecord {
	order := &models.OrderRecord{
		ProductType: productType,
		Size:        size,
		Price:       m.config.Prices.TotalFor(productType),
	}

	// A mint verified earlier in the session counts as payment.
	if image.TokenURI != "" {
		order.PurchaseCompleted = true
		order.TransactionHash = image.TokenURI
	}

	m.store.SetOrder(sessionID, order)
	return order
}

func (m *Machine) sizeChosen(image *models.ImageRecord, order *models.OrderRecord, message string) StepResult {
	actions := []Action{
		StepAction("Continue to Shipping", RouteShipping),
	}
	if !order.PurchaseCompleted && !m.config.IsProduction() {
		actions = append(actions, StepAction("Dev: Skip Payment", RouteDevBypass))
	}
	actions = append(actions, StepAction("Back", RoutePrint))

	return StepResult{
		State:   StateSizeChosen,
		Image:   image.URL,
		Message: fmt.Sprintf("%s — $%.2f", message, float64(order.Price)/100),
		Actions: actions,
		Data: map[string]interface{}{
			"price_cents": order.Price,
			"paid":        order.PurchaseCompleted,
		},
	}
}

// DevBypass marks the order paid with a test transaction hash. Available
// only outside production.
func (m *Machine) DevBypass(sessionID string) StepResult {
	if m.config.IsProduction() {
		return m.errorResult(models.ErrorKindConfiguration, "This step is only available in development mode")
	}

	image, order := m.store.Get(sessionID)
	if image == nil || order == nil {
		return m.errorResult(models.ErrorKindValidation, "Order information missing. Please start over.")
	}

	return m.markPaid(sessionID, image, order,
		fmt.Sprintf("dev-test-%d", time.Now().UnixMilli()),
		"DEV TEST MODE: payment bypassed for testing")
}

// ConfirmPayment records a completed card payment against the order.
func (m *Machine) ConfirmPayment(sessionID, paymentTxID string) StepResult {
	image, order := m.store.Get(sessionID)
	if image == nil || order == nil {
		return m.errorResult(models.ErrorKindValidation, "Order information missing. Please start over.")
	}

	return m.markPaid(sessionID, image, order, paymentTxID, "Payment confirmed")
}

func (m *Machine) markPaid(sessionID string, image *models.ImageRecord, order *models.OrderRecord, txID, message string) StepResult {
	order.PurchaseCompleted = true
	order.TransactionHash = txID
	m.store.SetOrder(sessionID, order)

	return StepResult{
		State:   StatePaymentVerified,
		Image:   image.URL,
		Message: message,
		Actions: []Action{
			StepAction("Continue to Shipping", RouteShipping),
			ResetAction("Reset"),
		},
	}
}

// RequestShipping gates the shipping-collection step: it refuses unless
// the order's payment completed, then hands out the external checkout
// link carrying the signed order token.
func (m *Machine) RequestShipping(sessionID string) StepResult {
	image, order := m.store.Get(sessionID)
	if image == nil || order == nil {
		return m.errorResult(models.ErrorKindValidation, "Order information missing. Please start over.")
	}
	if !order.PurchaseCompleted {
		return m.errorResult(models.ErrorKindValidation, "payment required")
	}

	checkoutURL, err := m.checkout.Link(sessionID, image, order)
	if err != nil {
		return m.errorResult(models.KindOf(err), "Could not prepare the checkout link")
	}

	return StepResult{
		State:   StatePaymentVerified,
		Image:   image.URL,
		Message: "Final step: enter shipping details",
		Actions: []Action{
			LinkAction("Enter Shipping Details", checkoutURL),
			ResetAction("Start Over"),
		},
	}
}

// CompleteOrder receives the shipping payload from the external form and
// drives the fulfillment pipeline end to end. Both outcomes are terminal;
// failure surfaces the provider's raw error and offers a restart.
func (m *Machine) CompleteOrder(ctx context.Context, sessionID string, payload CheckoutPayload) StepResult {
	image, order := m.store.Get(sessionID)
	if image == nil || order == nil {
		return m.errorResult(models.ErrorKindValidation, "Order information missing. Please start over.")
	}
	if !order.PurchaseCompleted {
		return m.errorResult(models.ErrorKindValidation, "payment required")
	}

	order.Shipping = payload.Shipping
	m.store.SetOrder(sessionID, order)

	payment := services.PaymentDetails{
		Method:        paymentMethodFor(order.TransactionHash),
		TransactionID: order.TransactionHash,
	}
	if payment.TransactionID == "" {
		// No payment transaction on record; generate a surrogate id so
		// the provider order still carries a payment reference.
		payment.TransactionID = fmt.Sprintf("crypto-%d", time.Now().UnixMilli())
	}

	result, stageErr := m.printify.Submit(ctx, services.SubmitRequest{
		ImageURL:    image.URL,
		ProductType: order.ProductType,
		Size:        order.Size,
		PriceCents:  order.Price,
		Shipping:    order.Shipping,
		Payment:     payment,
	})

	if stageErr != nil {
		m.archive.Record(&models.OrderArchive{
			SessionID:       sessionID,
			ProductType:     order.ProductType,
			Size:            order.Size,
			Price:           order.Price,
			ImageURL:        image.URL,
			TransactionHash: order.TransactionHash,
			PaymentMethod:   payment.Method,
			Status:          models.FulfillmentStatusFailed,
			FailedStage:     stageErr.Stage.String(),
			ProviderPayload: models.JSONB{"raw": stageErr.Payload},
			Shipping:        shippingJSON(order.Shipping),
		})

		return StepResult{
			State:   StateFulfillmentFailed,
			Image:   m.errorImage(),
			Message: stageErr.Error(),
			Actions: []Action{ResetAction("Start Over")},
			Data: map[string]interface{}{
				"failed_stage":     stageErr.Stage.String(),
				"provider_payload": stageErr.Payload,
			},
		}
	}

	status := models.FulfillmentStatusSubmitted
	if result.Bypassed {
		status = models.FulfillmentStatusBypassed
	}
	m.archive.Record(&models.OrderArchive{
		SessionID:       sessionID,
		ProductType:     order.ProductType,
		Size:            order.Size,
		Price:           order.Price,
		ImageURL:        image.URL,
		TransactionHash: order.TransactionHash,
		PaymentMethod:   payment.Method,
		Status:          status,
		ProviderOrderID: result.OrderID,
		Shipping:        shippingJSON(order.Shipping),
	})

	logrus.WithFields(logrus.Fields{
		"session_id": sessionID,
		"order_id":   result.OrderID,
		"bypassed":   result.Bypassed,
	}).Info("fulfillment submitted")

	return StepResult{
		State:   StateFulfillmentSubmitted,
		Image:   image.URL,
		Message: fmt.Sprintf("Order placed. Order ID: %s", result.OrderID),
		Actions: []Action{ResetAction("Start Over")},
		Data: map[string]interface{}{
			"order_id": result.OrderID,
			"bypassed": result.Bypassed,
		},
	}
}

func (m *Machine) errorResult(kind models.ErrorKind, message string) StepResult {
	return StepResult{
		State:   StateError,
		Image:   m.errorImage(),
		Message: message,
		Actions: []Action{ResetAction("Reset")},
		Data:    map[string]interface{}{"error_kind": string(kind)},
	}
}

func (m *Machine) errorImage() string {
	return m.config.Frontend.BaseURL + m.config.Frontend.ErrorImagePath
}

func paymentMethodFor(txID string) models.PaymentMethod {
	if strings.HasPrefix(txID, "pi_") {
		return models.PaymentMethodCard
	}
	return models.PaymentMethodCrypto
}

func shortHash(hash string) string {
	if len(hash) <= 10 {
		return hash
	}
	return hash[:10] + "..."
}

func shippingJSON(addr models.ShippingAddress) models.JSONB {
	return models.JSONB{
		"first_name": addr.FirstName,
		"last_name":  addr.LastName,
		"email":      addr.Email,
		"phone":      addr.Phone,
		"address1":   addr.Address1,
		"address2":   addr.Address2,
		"city":       addr.City,
		"zip":        addr.Zip,
		"country":    addr.Country,
		"region":     addr.Region,
	}
}
