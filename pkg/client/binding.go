package client

import (
	"context"

	"github.com/sunshine-protocol/sunshine-go/pkg/keystore"
	"github.com/sunshine-protocol/sunshine-go/pkg/model"
	"github.com/sunshine-protocol/sunshine-go/pkg/offchain"
	"github.com/sunshine-protocol/sunshine-go/pkg/rpc"
	"github.com/sunshine-protocol/sunshine-go/pkg/service/bounty"
	"github.com/sunshine-protocol/sunshine-go/pkg/service/chain"
	"github.com/sunshine-protocol/sunshine-go/pkg/service/wallet"
)

// SunshineBindingClient bundles the node connection with the local keystore
// and offchain store and exposes one client per service area.
type SunshineBindingClient struct {
	client *SunshineClient
	conn   *rpc.Conn

	Keystore *keystore.Keystore
	Offchain *offchain.Store

	Chain  chain.ChainService
	Wallet wallet.WalletService
	Bounty bounty.BountyService
}

func NewSunshineBindingClient(client *SunshineClient, conn *Connection) (*SunshineBindingClient, error) {
	rpcConn := conn.RPCConn()

	ks := keystore.New(client.config.KeystoreDir())

	var store *offchain.Store
	var err error
	if dir := client.config.OffchainDir(); dir != "" {
		store, err = offchain.Open(dir)
	} else {
		store, err = offchain.OpenInMemory()
	}
	if err != nil {
		rpcConn.Close()
		return nil, err
	}

	chainSvc := chain.NewChainServiceClient(rpcConn)
	return &SunshineBindingClient{
		client:   client,
		conn:     rpcConn,
		Keystore: ks,
		Offchain: store,
		Chain:    chainSvc,
		Wallet:   wallet.NewWalletServiceClient(chainSvc),
		Bounty:   bounty.NewBountyServiceClient(rpcConn, chainSvc, store),
	}, nil
}

func (c *SunshineBindingClient) Close() {
	c.conn.Close()
	c.Offchain.Close()
}

// Signer returns the unlocked device key for signing extrinsics.
func (c *SunshineBindingClient) Signer() (chain.Signer, error) {
	key, err := c.Keystore.Signer()
	if err != nil {
		return nil, err
	}
	return key, nil
}

func (c *SunshineBindingClient) Ping(ctx context.Context) error {
	_, err := c.Chain.RuntimeVersion(ctx)
	return err
}

// ValidateRuntime checks that the node runs the runtime the caller expects.
// An empty expectation always passes.
func (c *SunshineBindingClient) ValidateRuntime(ctx context.Context, expectedSpec string) error {
	if expectedSpec == "" {
		return nil
	}

	version, err := c.Chain.RuntimeVersion(ctx)
	if err != nil {
		return err
	}

	if version.SpecName != expectedSpec {
		return &model.RuntimeMismatchError{
			NodeSpec:     version.SpecName,
			ExpectedSpec: expectedSpec,
		}
	}

	return nil
}
