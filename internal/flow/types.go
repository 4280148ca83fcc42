// internal/flow/types.go
package flow

import (
	"context"

	"github.com/mintnprint/backend/internal/models"
	"github.com/mintnprint/backend/internal/services"
)

// State is one externally observable step of the order flow.
type State string

const (
	StatePrompt               State = "prompt"
	StateGenerated            State = "generated"
	StateMintOffered          State = "mint_offered"
	StateMintPending          State = "mint_pending"
	StateMintVerified         State = "mint_verified"
	StateMintFailed           State = "mint_failed"
	StateProductTypeChosen    State = "product_type_chosen"
	StateSizeChosen           State = "size_chosen"
	StatePaymentVerified      State = "payment_verified"
	StateFulfillmentSubmitted State = "fulfillment_submitted"
	StateFulfillmentFailed    State = "fulfillment_failed"
	StateError                State = "error"
)

// ActionKind tells the presentation layer how to render an action.
type ActionKind string

const (
	// ActionStep posts back to another flow step.
	ActionStep ActionKind = "step"
	// ActionTransaction requests a wallet signature for the target route.
	ActionTransaction ActionKind = "transaction"
	// ActionLink opens an external URL.
	ActionLink ActionKind = "link"
	// ActionReset restarts the flow from the prompt.
	ActionReset ActionKind = "reset"
)

type Action struct {
	Label  string     `json:"label"`
	Kind   ActionKind `json:"kind"`
	Target string     `json:"target,omitempty"`
}

func StepAction(label, target string) Action {
	return Action{Label: label, Kind: ActionStep, Target: target}
}

func LinkAction(label, target string) Action {
	return Action{Label: label, Kind: ActionLink, Target: target}
}

func TxAction(label, target string) Action {
	return Action{Label: label, Kind: ActionTransaction, Target: target}
}

func ResetAction(label string) Action {
	return Action{Label: label, Kind: ActionReset}
}

// StepResult is what every flow step returns: the state the session
// landed in, the image to show, a human-readable message and the set of
// actions available next. Error states always offer Reset.
type StepResult struct {
	State   State                  `json:"state"`
	Image   string                 `json:"image,omitempty"`
	Message string                 `json:"message,omitempty"`
	Actions []Action               `json:"actions"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

// HasAction reports whether an action with the given label is offered.
// Used by tests asserting the visible button set.
func (r StepResult) HasAction(label string) bool {
	for _, a := range r.Actions {
		if a.Label == label {
			return true
		}
	}
	return false
}

// Collaborator seams. The concrete services satisfy these; tests inject
// fakes.

type ImageAcquirer interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type MintProvider interface {
	ContractConfigured() bool
	BuildMintTransaction(image *models.ImageRecord, walletAddress string) (*services.MintTransaction, error)
	VerifyTransaction(ctx context.Context, txHash string) bool
	MintPriceETH() string
	ExplorerTxURL(txHash string) string
}

type Fulfiller interface {
	Submit(ctx context.Context, req services.SubmitRequest) (*services.PipelineResult, *services.StageError)
}

type Archiver interface {
	Record(archive *models.OrderArchive)
}

// CheckoutLinker produces the external shipping-collection URL for a
// paid order; the link carries a signed token binding the order fields.
type CheckoutLinker interface {
	Link(sessionID string, image *models.ImageRecord, order *models.OrderRecord) (string, error)
}

// CheckoutPayload is what the external shipping form posts back: the
// order identity fields plus the collected address. This doubles as the
// wire contract with the shipping-collection step.
type CheckoutPayload struct {
	ImageURL    string                 `json:"image_url"`
	ProductType models.ProductType     `json:"product_type"`
	Size        string                 `json:"size"`
	TxHash      string                 `json:"tx_hash"`
	Shipping    models.ShippingAddress `json:"shipping"`
}
