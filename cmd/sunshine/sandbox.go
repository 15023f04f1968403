package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sunshine-protocol/sunshine-go/internal/sandbox"
	"github.com/sunshine-protocol/sunshine-go/pkg/keystore"
)

var sandboxAddr string

// devBalance is the genesis balance of the //Alice, //Bob and //Charlie dev
// accounts.
const devBalance = 1_000_000

func sandboxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sandbox",
		Short: "Run a local dev node",
		Long: `Runs an in-process dev node with instant finality and the //Alice, //Bob
and //Charlie accounts funded. Useful for trying the wallet without a real
chain.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			genesis := make(map[string]uint64)
			for _, name := range []string{"Alice", "Bob", "Charlie"} {
				key, err := keystore.DeviceKeyFromSURI("//" + name)
				if err != nil {
					return err
				}
				genesis[key.AccountID()] = devBalance
				log.Info().Msgf("funded //%s as %s", name, key.AccountID())
			}

			node, err := sandbox.StartAddr(sandbox.NewLedger(genesis), sandboxAddr)
			if err != nil {
				return err
			}
			defer node.Close()
			fmt.Printf("dev node listening on %s\n", node.URL())

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			<-stop
			log.Info().Msg("shutting down")
			return nil
		},
	}
	cmd.Flags().StringVar(&sandboxAddr, "addr", "127.0.0.1:9944", "listen address")
	return cmd
}
