package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sunshine-protocol/sunshine-go/pkg/client"
)

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Follow finalized heads until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cl, err := client.NewSunshineClient(nodeURL).
				WithConfigDir(configDir).
				Build(ctx)
			if err != nil {
				return err
			}
			defer cl.Close()

			sub, err := cl.Chain.SubscribeHeads(ctx)
			if err != nil {
				return err
			}
			defer sub.Unsubscribe(ctx)

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

			for {
				select {
				case header, ok := <-sub.C:
					if !ok {
						log.Warn().Msg("node closed the connection")
						return nil
					}
					log.Info().Msgf("finalized block %d %s", header.Number, header.Hash)
				case <-stop:
					log.Info().Msg("shutting down")
					return nil
				}
			}
		},
	}
}
