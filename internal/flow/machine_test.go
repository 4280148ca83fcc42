// internal/flow/machine_test.go
package flow

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/mintnprint/backend/internal/config"
	"github.com/mintnprint/backend/internal/models"
	"github.com/mintnprint/backend/internal/services"
	"github.com/mintnprint/backend/internal/session"
)

type fakeImages struct {
	url  string
	warn error
}

func (f *fakeImages) Generate(ctx context.Context, prompt string) (string, error) {
	return f.url, f.warn
}

type fakeMint struct {
	configured bool
	verified   bool
	tx         *services.MintTransaction
	txErr      error
}

func (f *fakeMint) ContractConfigured() bool { return f.configured }

func (f *fakeMint) BuildMintTransaction(image *models.ImageRecord, walletAddress string) (*services.MintTransaction, error) {
	return f.tx, f.txErr
}

func (f *fakeMint) VerifyTransaction(ctx context.Context, txHash string) bool { return f.verified }

func (f *fakeMint) MintPriceETH() string { return "0.0100" }

func (f *fakeMint) ExplorerTxURL(txHash string) string {
	return "https://basescan.org/tx/" + txHash
}

type fakeFulfiller struct {
	result   *services.PipelineResult
	stageErr *services.StageError
	lastReq  services.SubmitRequest
	calls    int
}

func (f *fakeFulfiller) Submit(ctx context.Context, req services.SubmitRequest) (*services.PipelineResult, *services.StageError) {
	f.calls++
	f.lastReq = req
	return f.result, f.stageErr
}

type fakeArchiver struct {
	records []*models.OrderArchive
}

func (f *fakeArchiver) Record(archive *models.OrderArchive) {
	f.records = append(f.records, archive)
}

type fakeLinker struct {
	url string
	err error
}

func (f *fakeLinker) Link(sessionID string, image *models.ImageRecord, order *models.OrderRecord) (string, error) {
	return f.url, f.err
}

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		Frontend: config.FrontendConfig{
			BaseURL:          "http://localhost:8080",
			WelcomeImagePath: "/welcome.png",
			ErrorImagePath:   "/error-image.svg",
			TestImagePath:    "/test-image.svg",
		},
		Prices: models.DefaultPriceTable(),
	}
}

type MachineTestSuite struct {
	suite.Suite
	cfg      *config.Config
	store    *session.Store
	images   *fakeImages
	mint     *fakeMint
	printify *fakeFulfiller
	archive  *fakeArchiver
	linker   *fakeLinker
	machine  *Machine
}

func (s *MachineTestSuite) SetupTest() {
	s.cfg = testConfig()
	s.store = session.NewStore(time.Minute)
	s.images = &fakeImages{url: "http://localhost:8080/static/generated-1.png"}
	s.mint = &fakeMint{}
	s.printify = &fakeFulfiller{result: &services.PipelineResult{OrderID: "po-1"}}
	s.archive = &fakeArchiver{}
	s.linker = &fakeLinker{url: "http://localhost:8080/shipping?token=t"}
	s.machine = NewMachine(s.cfg, s.store, s.images, s.mint, s.printify, s.archive, s.linker)
}

func (s *MachineTestSuite) TearDownTest() {
	s.store.Stop()
}

func TestMachineTestSuite(t *testing.T) {
	suite.Run(t, new(MachineTestSuite))
}

func (s *MachineTestSuite) TestStartClearsSession() {
	s.store.SetImage("sid", &models.ImageRecord{URL: "old"})

	result := s.machine.Start("sid")

	s.Equal(StatePrompt, result.State)
	s.Equal("http://localhost:8080/welcome.png", result.Image)
	s.True(result.HasAction("Generate"))

	image, order := s.store.Get("sid")
	s.Nil(image)
	s.Nil(order)
}

func (s *MachineTestSuite) TestGenerateWithoutWalletOffersPrintOnly() {
	result := s.machine.Generate(context.Background(), "sid", "a cat", "")

	s.Equal(StateGenerated, result.State)
	s.True(result.HasAction("Print Merch"))
	s.True(result.HasAction("Reset"))
	s.False(result.HasAction("Mint NFT"))
	s.False(result.HasAction("Create Collection"))
}

func (s *MachineTestSuite) TestGenerateWithWalletAndContractOffersMint() {
	s.mint.configured = true

	result := s.machine.Generate(context.Background(), "sid", "a cat", "0xwallet")

	s.True(result.HasAction("Mint NFT"))
	s.True(result.HasAction("Print Merch"))
	s.False(result.HasAction("Create Collection"))
}

func (s *MachineTestSuite) TestGenerateWithWalletNoContractOffersCollectionLink() {
	result := s.machine.Generate(context.Background(), "sid", "a cat", "0xwallet")

	s.True(result.HasAction("Create Collection"))
	s.False(result.HasAction("Mint NFT"))
}

func (s *MachineTestSuite) TestGenerateDegradedCarriesWarning() {
	s.images.url = s.cfg.PlaceholderImageURL()
	s.images.warn = models.NewUpstreamError("image generation failed", nil)

	result := s.machine.Generate(context.Background(), "sid", "a cat", "")

	s.Equal(StateGenerated, result.State)
	s.Equal(s.cfg.PlaceholderImageURL(), result.Image)
	s.Contains(result.Data, "warning")
	s.True(result.HasAction("Print Merch"))
}

func (s *MachineTestSuite) TestOfferMintWithoutImage() {
	result := s.machine.OfferMint("sid", "0xwallet")

	s.Equal(StateError, result.State)
	s.Len(result.Actions, 1)
	s.Equal(ActionReset, result.Actions[0].Kind)
}

func (s *MachineTestSuite) TestOfferMintHappyPath() {
	s.mint.configured = true
	s.store.SetImage("sid", &models.ImageRecord{URL: "http://img"})

	result := s.machine.OfferMint("sid", "0xwallet")

	s.Equal(StateMintOffered, result.State)
	s.True(result.HasAction("Sign & Mint (0.0100 ETH)"))
	s.True(result.HasAction("Skip & Print"))
	s.True(result.HasAction("Cancel"))
}

func (s *MachineTestSuite) TestCompleteMintEmptyHash() {
	s.store.SetImage("sid", &models.ImageRecord{URL: "http://img"})

	result := s.machine.CompleteMint(context.Background(), "sid", "")

	s.Equal(StateMintFailed, result.State)
	s.Contains(result.Message, "Transaction not found")
	s.True(result.HasAction("Try Again"))
	s.True(result.HasAction("Skip to Print"))
}

func (s *MachineTestSuite) TestCompleteMintUnverified() {
	s.mint.verified = false
	s.store.SetImage("sid", &models.ImageRecord{URL: "http://img"})

	result := s.machine.CompleteMint(context.Background(), "sid", "0xdead")

	s.Equal(StateMintFailed, result.State)
	s.Contains(result.Message, "Transaction failed on-chain")

	image, _ := s.store.Get("sid")
	s.Empty(image.TokenURI)
}

func (s *MachineTestSuite) TestCompleteMintVerified() {
	s.mint.verified = true
	s.store.SetImage("sid", &models.ImageRecord{URL: "http://img"})

	result := s.machine.CompleteMint(context.Background(), "sid", "0xabc")

	s.Equal(StateMintVerified, result.State)
	s.True(result.HasAction("Order Merch"))
	s.True(result.HasAction("View Transaction"))
	s.Equal("0xabc", result.Data["tx_hash"])

	image, _ := s.store.Get("sid")
	s.Equal("0xabc", image.TokenURI)
}

func (s *MachineTestSuite) TestMugSkipsSizeSelection() {
	s.store.SetImage("sid", &models.ImageRecord{URL: "http://img"})

	result := s.machine.ChooseProduct("sid", models.ProductTypeMug)

	s.Equal(StateSizeChosen, result.State)
	s.Equal(1499, result.Data["price_cents"])

	image, order := s.store.Get("sid")
	s.Equal(models.SizeOneSize, image.Size)
	s.Equal(models.SizeOneSize, order.Size)
	s.Equal(1499, order.Price)
}

func (s *MachineTestSuite) TestApparelPromptsForSize() {
	s.store.SetImage("sid", &models.ImageRecord{URL: "http://img"})

	result := s.machine.ChooseProduct("sid", models.ProductTypeTshirt)

	s.Equal(StateProductTypeChosen, result.State)
	for _, size := range models.ApparelSizes {
		s.True(result.HasAction(size))
	}

	_, order := s.store.Get("sid")
	s.Nil(order)
}

func (s *MachineTestSuite) TestChooseSizeCreatesUnpaidOrder() {
	s.store.SetImage("sid", &models.ImageRecord{URL: "http://img"})
	s.machine.ChooseProduct("sid", models.ProductTypeHoodie)

	result := s.machine.ChooseSize("sid", "M")

	s.Equal(StateSizeChosen, result.State)
	s.Equal(3999, result.Data["price_cents"])
	s.Equal(false, result.Data["paid"])
	s.Contains(result.Message, "$39.99")
	s.True(result.HasAction("Dev: Skip Payment"))

	_, order := s.store.Get("sid")
	s.False(order.PurchaseCompleted)
}

func (s *MachineTestSuite) TestChooseSizeRejectsInvalidSize() {
	s.store.SetImage("sid", &models.ImageRecord{URL: "http://img", ProductType: models.ProductTypeTshirt})

	result := s.machine.ChooseSize("sid", "XXXL")

	s.Equal(StateError, result.State)
	s.Equal(string(models.ErrorKindValidation), result.Data["error_kind"])
}

func (s *MachineTestSuite) TestVerifiedMintCountsAsPayment() {
	s.mint.verified = true
	s.store.SetImage("sid", &models.ImageRecord{URL: "http://img"})
	s.machine.CompleteMint(context.Background(), "sid", "0xabc")
	s.machine.ChooseProduct("sid", models.ProductTypeTshirt)

	result := s.machine.ChooseSize("sid", "L")

	s.Equal(true, result.Data["paid"])
	s.False(result.HasAction("Dev: Skip Payment"))

	_, order := s.store.Get("sid")
	s.True(order.PurchaseCompleted)
	s.Equal("0xabc", order.TransactionHash)
}

func (s *MachineTestSuite) TestShippingBlockedUntilPaid() {
	s.store.SetImage("sid", &models.ImageRecord{URL: "http://img"})
	s.machine.ChooseProduct("sid", models.ProductTypeTshirt)
	s.machine.ChooseSize("sid", "M")

	result := s.machine.RequestShipping("sid")

	s.Equal(StateError, result.State)
	s.Contains(result.Message, "payment required")
	s.Equal(string(models.ErrorKindValidation), result.Data["error_kind"])
	s.Len(result.Actions, 1)
	s.Equal(ActionReset, result.Actions[0].Kind)
}

func (s *MachineTestSuite) TestShippingLinkAfterPayment() {
	s.store.SetImage("sid", &models.ImageRecord{URL: "http://img"})
	s.machine.ChooseProduct("sid", models.ProductTypeTshirt)
	s.machine.ChooseSize("sid", "M")
	s.machine.DevBypass("sid")

	result := s.machine.RequestShipping("sid")

	s.Equal(StatePaymentVerified, result.State)
	s.True(result.HasAction("Enter Shipping Details"))
}

func (s *MachineTestSuite) TestDevBypassMarksOrderPaid() {
	s.store.SetImage("sid", &models.ImageRecord{URL: "http://img"})
	s.machine.ChooseProduct("sid", models.ProductTypeMug)

	result := s.machine.DevBypass("sid")

	s.Equal(StatePaymentVerified, result.State)

	_, order := s.store.Get("sid")
	s.True(order.PurchaseCompleted)
	s.True(strings.HasPrefix(order.TransactionHash, "dev-test-"))
}

func (s *MachineTestSuite) TestDevBypassRejectedInProduction() {
	s.cfg.Environment = "production"
	s.store.SetImage("sid", &models.ImageRecord{URL: "http://img"})
	s.machine.ChooseProduct("sid", models.ProductTypeMug)

	result := s.machine.DevBypass("sid")

	s.Equal(StateError, result.State)
	s.Equal(string(models.ErrorKindConfiguration), result.Data["error_kind"])
}

func shippingFixture() models.ShippingAddress {
	return models.ShippingAddress{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Phone:     "+1 555 0100",
		Address1:  "1 Analytical Way",
		City:      "London",
		Zip:       "E1 6AN",
		Country:   "GB",
		Region:    "London",
	}
}

func (s *MachineTestSuite) TestCompleteOrderSubmitsPipeline() {
	s.store.SetImage("sid", &models.ImageRecord{URL: "http://img"})
	s.machine.ChooseProduct("sid", models.ProductTypeMug)
	s.machine.DevBypass("sid")

	result := s.machine.CompleteOrder(context.Background(), "sid", CheckoutPayload{
		Shipping: shippingFixture(),
	})

	s.Equal(StateFulfillmentSubmitted, result.State)
	s.Equal("po-1", result.Data["order_id"])
	s.Equal(1, s.printify.calls)
	s.Equal(models.ProductTypeMug, s.printify.lastReq.ProductType)
	s.Equal(1499, s.printify.lastReq.PriceCents)
	s.Equal("London", s.printify.lastReq.Shipping.City)

	s.Require().Len(s.archive.records, 1)
	s.Equal(models.FulfillmentStatusSubmitted, s.archive.records[0].Status)
	s.Equal("po-1", s.archive.records[0].ProviderOrderID)
}

func (s *MachineTestSuite) TestCompleteOrderRejectedWhenUnpaid() {
	s.store.SetImage("sid", &models.ImageRecord{URL: "http://img"})
	s.machine.ChooseProduct("sid", models.ProductTypeTshirt)
	s.machine.ChooseSize("sid", "M")

	result := s.machine.CompleteOrder(context.Background(), "sid", CheckoutPayload{
		Shipping: shippingFixture(),
	})

	s.Equal(StateError, result.State)
	s.Contains(result.Message, "payment required")
	s.Zero(s.printify.calls)
}

func (s *MachineTestSuite) TestCompleteOrderFailureIsTerminal() {
	s.printify.result = nil
	s.printify.stageErr = &services.StageError{
		Stage:   services.StagePublishProduct,
		Payload: `{"error":"publish rejected"}`,
		Err:     models.NewUpstreamError("printify returned status 400", nil),
	}

	s.store.SetImage("sid", &models.ImageRecord{URL: "http://img"})
	s.machine.ChooseProduct("sid", models.ProductTypeMug)
	s.machine.DevBypass("sid")

	result := s.machine.CompleteOrder(context.Background(), "sid", CheckoutPayload{
		Shipping: shippingFixture(),
	})

	s.Equal(StateFulfillmentFailed, result.State)
	s.Equal("publish_product", result.Data["failed_stage"])
	s.Contains(result.Data["provider_payload"], "publish rejected")
	s.Len(result.Actions, 1)
	s.Equal(ActionReset, result.Actions[0].Kind)

	s.Require().Len(s.archive.records, 1)
	s.Equal(models.FulfillmentStatusFailed, s.archive.records[0].Status)
	s.Equal("publish_product", s.archive.records[0].FailedStage)
}

func (s *MachineTestSuite) TestCompleteOrderGeneratesSurrogatePaymentID() {
	s.store.SetImage("sid", &models.ImageRecord{URL: "http://img"})
	s.store.SetOrder("sid", &models.OrderRecord{
		ProductType:       models.ProductTypeTshirt,
		Size:              "M",
		Price:             2499,
		PurchaseCompleted: true,
	})

	s.machine.CompleteOrder(context.Background(), "sid", CheckoutPayload{
		Shipping: shippingFixture(),
	})

	s.True(strings.HasPrefix(s.printify.lastReq.Payment.TransactionID, "crypto-"))
	s.Equal(models.PaymentMethodCrypto, s.printify.lastReq.Payment.Method)
}

func (s *MachineTestSuite) TestCardPaymentMethodDetected() {
	s.store.SetImage("sid", &models.ImageRecord{URL: "http://img"})
	s.machine.ChooseProduct("sid", models.ProductTypeMug)
	s.machine.ConfirmPayment("sid", "pi_12345")

	s.machine.CompleteOrder(context.Background(), "sid", CheckoutPayload{
		Shipping: shippingFixture(),
	})

	s.Equal(models.PaymentMethodCard, s.printify.lastReq.Payment.Method)
	s.Equal("pi_12345", s.printify.lastReq.Payment.TransactionID)
}

func TestPaymentMethodFor(t *testing.T) {
	assert.Equal(t, models.PaymentMethodCard, paymentMethodFor("pi_abc"))
	assert.Equal(t, models.PaymentMethodCrypto, paymentMethodFor("0xabc"))
	assert.Equal(t, models.PaymentMethodCrypto, paymentMethodFor("dev-test-1"))
}

func TestShortHash(t *testing.T) {
	assert.Equal(t, "0xabc", shortHash("0xabc"))
	assert.Equal(t, "0x12345678...", shortHash("0x1234567890abcdef"))
}
