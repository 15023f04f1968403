// Package chain wraps the node's chain, system and author RPC namespaces:
// headers, accounts, runtime identity and extrinsic submission.
package chain

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/sunshine-protocol/sunshine-go/pkg/model"
	"github.com/sunshine-protocol/sunshine-go/pkg/rpc"
)

// Signer produces extrinsic signatures for one account. The keystore's device
// key satisfies this.
type Signer interface {
	AccountID() string
	Sign(payload []byte) ([]byte, error)
}

type ChainService interface {
	Header(ctx context.Context) (*model.Header, error)
	Account(ctx context.Context, addr string) (*model.AccountInfo, error)
	RuntimeVersion(ctx context.Context) (*model.RuntimeVersion, error)
	SubmitAndWait(ctx context.Context, ext *model.Extrinsic) (*model.ExtrinsicResult, error)
	SignAndSubmit(ctx context.Context, signer Signer, call model.Call) (*model.ExtrinsicResult, error)
	SubscribeHeads(ctx context.Context) (*HeadSubscription, error)
}

type chainService struct {
	conn *rpc.Conn
}

func NewChainServiceClient(conn *rpc.Conn) *chainService {
	return &chainService{conn: conn}
}

func (c *chainService) Header(ctx context.Context) (*model.Header, error) {
	var header model.Header
	if err := c.conn.Call(ctx, "chain_getHeader", &header); err != nil {
		return nil, err
	}
	return &header, nil
}

func (c *chainService) Account(ctx context.Context, addr string) (*model.AccountInfo, error) {
	var info model.AccountInfo
	if err := c.conn.Call(ctx, "system_account", &info, addr); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *chainService) RuntimeVersion(ctx context.Context) (*model.RuntimeVersion, error) {
	var version model.RuntimeVersion
	if err := c.conn.Call(ctx, "state_runtimeVersion", &version); err != nil {
		return nil, err
	}
	return &version, nil
}

func (c *chainService) SubmitAndWait(ctx context.Context, ext *model.Extrinsic) (*model.ExtrinsicResult, error) {
	var result model.ExtrinsicResult
	if err := c.conn.Call(ctx, "author_submitAndWaitExtrinsic", &result, ext); err != nil {
		return nil, err
	}
	return &result, nil
}

// SignAndSubmit fetches the signer's next nonce, signs the call and waits for
// it to land in a block.
func (c *chainService) SignAndSubmit(ctx context.Context, signer Signer, call model.Call) (*model.ExtrinsicResult, error) {
	account, err := c.Account(ctx, signer.AccountID())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch nonce for %s: %w", signer.AccountID(), err)
	}

	ext := &model.Extrinsic{Signer: signer.AccountID(), Nonce: account.Nonce, Call: call}
	payload, err := ext.SigningBytes()
	if err != nil {
		return nil, err
	}
	sig, err := signer.Sign(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to sign %s.%s: %w", call.Module, call.Method, err)
	}
	ext.Signature = hex.EncodeToString(sig)

	log.Debug().Msgf("submitting %s.%s with nonce %d", call.Module, call.Method, ext.Nonce)
	return c.SubmitAndWait(ctx, ext)
}

// HeadSubscription streams finalized headers.
type HeadSubscription struct {
	// C delivers headers until Unsubscribe or disconnect.
	C <-chan model.Header

	sub  *rpc.Subscription
	ch   chan model.Header
	done chan struct{}
	once sync.Once
}

// Unsubscribe tells the node to stop the stream. The relay stops even when
// the consumer never drains C.
func (h *HeadSubscription) Unsubscribe(ctx context.Context) error {
	h.once.Do(func() { close(h.done) })
	return h.sub.Unsubscribe(ctx)
}

func (c *chainService) SubscribeHeads(ctx context.Context) (*HeadSubscription, error) {
	sub, err := c.conn.Subscribe(ctx, "chain_subscribeNewHeads", "chain_unsubscribeNewHeads")
	if err != nil {
		return nil, err
	}

	ch := make(chan model.Header)
	done := make(chan struct{})
	go func() {
		defer close(ch)
		for raw := range sub.C {
			var header model.Header
			if err := json.Unmarshal(raw, &header); err != nil {
				log.Warn().Err(err).Msg("dropping malformed head notification")
				continue
			}
			select {
			case ch <- header:
			case <-done:
				return
			}
		}
	}()
	return &HeadSubscription{C: ch, sub: sub, ch: ch, done: done}, nil
}
