package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	keySuri     string
	keyPaperkey bool
	keyForce    bool
)

func keyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the device key",
	}

	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Initialize the device key",
		Long: `Initializes the device key and encrypts it under a password.

With --paperkey the key is restored from a mnemonic entered interactively.
With --suri the key is derived from a secret uri (0x-prefixed hex seed or a
dev junction like //Alice). With neither, a fresh key is generated and its
paperkey mnemonic printed once: write it down, it is the only backup.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			bridge, err := newBridge(cmd.Context())
			if err != nil {
				return err
			}
			defer bridge.Close()

			var paperkey string
			if keyPaperkey {
				paperkey, err = promptLine("paperkey mnemonic: ")
				if err != nil {
					return err
				}
			}

			password, err := promptNewPassword()
			if err != nil {
				return err
			}

			var mnemonic string
			if paperkey == "" && keySuri == "" {
				mnemonic, err = bridge.Key.Generate()
				if err != nil {
					return err
				}
				paperkey = mnemonic
			}

			uid, err := bridge.Key.Set(password, keySuri, paperkey, keyForce)
			if err != nil {
				return err
			}

			if mnemonic != "" {
				fmt.Println("your paperkey, write it down and keep it safe:")
				fmt.Println()
				fmt.Println("  " + mnemonic)
				fmt.Println()
			}
			fmt.Printf("your device id is %s\n", uid)
			return nil
		},
	}
	setCmd.Flags().StringVar(&keySuri, "suri", "", "derive the key from a secret uri")
	setCmd.Flags().BoolVar(&keyPaperkey, "paperkey", false, "restore the key from a mnemonic")
	setCmd.Flags().BoolVar(&keyForce, "force", false, "replace an existing device key")

	uidCmd := &cobra.Command{
		Use:   "uid",
		Short: "Print the device key's account id",
		RunE: func(cmd *cobra.Command, args []string) error {
			bridge, err := newBridge(cmd.Context())
			if err != nil {
				return err
			}
			defer bridge.Close()

			uid, err := bridge.Key.UID()
			if err != nil {
				return err
			}
			fmt.Println(uid)
			return nil
		},
	}

	cmd.AddCommand(setCmd, uidCmd)
	return cmd
}
