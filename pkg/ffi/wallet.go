package ffi

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Wallet exposes balances and transfers over the bridge. Amounts cross as
// decimal strings in both directions.
type Wallet struct {
	ffi *FFI
}

// Balance returns the free balance of account, or of the device key when
// account is "".
func (w *Wallet) Balance(ctx context.Context, account string) (string, error) {
	cl, release, err := w.ffi.acquire()
	if err != nil {
		return "", err
	}
	defer release()
	if account == "" {
		account, err = cl.Keystore.AccountID()
		if err != nil {
			return "", err
		}
	}
	free, err := cl.Wallet.Balance(ctx, account)
	if err != nil {
		return "", err
	}
	return decimal.NewFromUint64(free).String(), nil
}

// Transfer sends amount to the recipient and returns the sender's balance
// after the transfer landed.
func (w *Wallet) Transfer(ctx context.Context, to, amount string) (string, error) {
	value, err := parseAmount(amount)
	if err != nil {
		return "", err
	}
	cl, release, err := w.ffi.acquire()
	if err != nil {
		return "", err
	}
	defer release()
	signer, err := cl.Signer()
	if err != nil {
		return "", err
	}

	ev, err := cl.Wallet.Transfer(ctx, signer, to, value)
	if err != nil {
		return "", err
	}
	log.Info().Msgf("transferred %d from %s to %s", ev.Amount, ev.From, ev.To)

	free, err := cl.Wallet.Balance(ctx, signer.AccountID())
	if err != nil {
		return "", err
	}
	return decimal.NewFromUint64(free).String(), nil
}
