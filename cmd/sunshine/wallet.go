package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func walletCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Check balances and send transfers",
	}

	balanceCmd := &cobra.Command{
		Use:   "balance [account]",
		Short: "Print an account's free balance (defaults to the device key)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bridge, err := newBridge(cmd.Context())
			if err != nil {
				return err
			}
			defer bridge.Close()

			account := ""
			if len(args) == 1 {
				account = args[0]
			}
			balance, err := bridge.Wallet.Balance(cmd.Context(), account)
			if err != nil {
				return err
			}
			fmt.Println(balance)
			return nil
		},
	}

	transferCmd := &cobra.Command{
		Use:   "transfer <to> <amount>",
		Short: "Transfer funds from the device key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bridge, err := newBridge(cmd.Context())
			if err != nil {
				return err
			}
			defer bridge.Close()

			if err := unlock(bridge); err != nil {
				return err
			}
			balance, err := bridge.Wallet.Transfer(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("transferred %s, your balance is now %s\n", args[1], balance)
			return nil
		},
	}

	cmd.AddCommand(balanceCmd, transferCmd)
	return cmd
}
