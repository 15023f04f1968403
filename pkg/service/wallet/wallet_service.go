// Package wallet exposes balance queries and signed transfers.
package wallet

import (
	"context"

	"github.com/sunshine-protocol/sunshine-go/pkg/model"
	"github.com/sunshine-protocol/sunshine-go/pkg/service/chain"
)

type WalletService interface {
	Balance(ctx context.Context, addr string) (uint64, error)
	Transfer(ctx context.Context, signer chain.Signer, to string, amount uint64) (*model.TransferEvent, error)
}

type walletService struct {
	chain chain.ChainService
}

func NewWalletServiceClient(chainSvc chain.ChainService) *walletService {
	return &walletService{chain: chainSvc}
}

func (w *walletService) Balance(ctx context.Context, addr string) (uint64, error) {
	account, err := w.chain.Account(ctx, addr)
	if err != nil {
		return 0, err
	}
	return account.Free, nil
}

// Transfer moves amount from the signer to the recipient and returns the
// transfer event from the block it landed in.
func (w *walletService) Transfer(ctx context.Context, signer chain.Signer, to string, amount uint64) (*model.TransferEvent, error) {
	call, err := model.NewCall(model.ModuleBalances, "transfer", model.TransferArgs{To: to, Amount: amount})
	if err != nil {
		return nil, err
	}
	result, err := w.chain.SignAndSubmit(ctx, signer, call)
	if err != nil {
		return nil, err
	}
	return result.Transfer()
}
