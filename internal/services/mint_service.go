// internal/services/mint_service.go
package services

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/sirupsen/logrus"

	"github.com/mintnprint/backend/internal/config"
	"github.com/mintnprint/backend/internal/models"
)

// mintFunctionSelector is the 4-byte selector the NFT contract exposes
// for public minting.
const mintFunctionSelector = "0x6a627842"

// MintTransaction is the descriptor handed to the external wallet for
// signing. All values are hex/decimal strings ready for the wire.
type MintTransaction struct {
	ChainID string `json:"chain_id"`
	To      string `json:"to"`
	Data    string `json:"data"`
	Value   string `json:"value"` // wei
}

type rpcCaller interface {
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
}

// MintService builds mint transaction descriptors and independently
// verifies transaction finality against a blockchain node.
type MintService struct {
	config *config.Config
	rpc    rpcCaller
}

func NewMintService(cfg *config.Config) *MintService {
	svc := &MintService{config: cfg}

	if cfg.Blockchain.RPCURL != "" {
		client, err := rpc.Dial(cfg.Blockchain.RPCURL)
		if err != nil {
			// Verification fails closed without a client; minting UI
			// still works, confirmations just read as unverified.
			logrus.WithError(err).Error("could not dial blockchain RPC")
		} else {
			svc.rpc = client
		}
	}

	return svc
}

// ContractConfigured reports whether a mint contract address is set.
func (s *MintService) ContractConfigured() bool {
	return s.config.Blockchain.ContractAddress != ""
}

// BuildMintTransaction constructs the transaction descriptor for the
// configured contract. Pure construction, no I/O.
func (s *MintService) BuildMintTransaction(image *models.ImageRecord, walletAddress string) (*MintTransaction, error) {
	if !s.ContractConfigured() {
		return nil, models.NewConfigurationError("NFT contract address not configured")
	}
	if image == nil || image.URL == "" {
		return nil, models.NewValidationError("no image found to mint")
	}
	if walletAddress == "" {
		return nil, models.NewValidationError("wallet address required for minting")
	}

	return &MintTransaction{
		ChainID: s.config.Blockchain.ChainID,
		To:      s.config.Blockchain.ContractAddress,
		Data:    mintFunctionSelector,
		Value:   s.config.Blockchain.MintPriceWei,
	}, nil
}

// receipt is the slice of eth_getTransactionReceipt we care about.
type receipt struct {
	Status string `json:"status"`
}

// VerifyTransaction returns true only when a receipt exists and reports
// on-chain success. RPC errors, timeouts and missing receipts all read as
// "not yet confirmed" — ambiguous chain state is never treated as
// confirmed.
func (s *MintService) VerifyTransaction(ctx context.Context, txHash string) bool {
	log := logrus.WithField("tx_hash", txHash)

	if s.rpc == nil {
		log.Warn("no RPC client, treating transaction as unconfirmed")
		return false
	}

	callCtx, cancel := context.WithTimeout(ctx, time.Duration(s.config.Blockchain.VerifyTimeout)*time.Second)
	defer cancel()

	var r *receipt
	if err := s.rpc.CallContext(callCtx, &r, "eth_getTransactionReceipt", txHash); err != nil {
		log.WithError(err).Warn("receipt lookup failed, treating transaction as unconfirmed")
		return false
	}
	if r == nil {
		log.Info("no receipt yet")
		return false
	}

	confirmed := r.Status == "0x1"
	log.WithField("status", r.Status).Info("transaction receipt checked")
	return confirmed
}

// MintPriceETH renders the configured wei price as a decimal ETH string
// for display.
func (s *MintService) MintPriceETH() string {
	wei, ok := new(big.Int).SetString(s.config.Blockchain.MintPriceWei, 10)
	if !ok {
		return "0"
	}
	eth := new(big.Rat).SetFrac(wei, big.NewInt(1e18))
	return eth.FloatString(4)
}

// ExplorerTxURL links a transaction hash to the configured block explorer.
func (s *MintService) ExplorerTxURL(txHash string) string {
	return fmt.Sprintf("%s/tx/%s", s.config.Blockchain.ExplorerBaseURL, txHash)
}
