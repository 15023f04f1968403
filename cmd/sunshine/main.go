package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sunshine-protocol/sunshine-go/pkg/ffi"
)

var (
	nodeURL   string
	configDir string
	verbose   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sunshine",
		Short: "Sunshine bounty wallet",
		Long: `A command-line wallet for the sunshine bounty chain.

Manages the local device key, sends transfers, and posts, funds and reviews
bounties on github issues.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}
			if configDir == "" {
				base, err := os.UserConfigDir()
				if err != nil {
					return fmt.Errorf("failed to resolve config directory: %w", err)
				}
				configDir = filepath.Join(base, "sunshine")
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&nodeURL, "url", "ws://127.0.0.1:9944", "websocket endpoint of the node")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "directory for the keystore and offchain db (default: OS config dir)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(keyCmd(), walletCmd(), bountyCmd(), runCmd(), sandboxCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func newBridge(ctx context.Context) (*ffi.FFI, error) {
	return ffi.New(ctx, nodeURL, configDir)
}

// unlock prompts for the keystore password and unlocks the device key for
// the lifetime of this invocation.
func unlock(bridge *ffi.FFI) error {
	password, err := promptPassword("password: ")
	if err != nil {
		return err
	}
	return bridge.Key.Unlock(password)
}

func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(password), nil
}

func promptNewPassword() (string, error) {
	password, err := promptPassword("password (8+ characters): ")
	if err != nil {
		return "", err
	}
	confirm, err := promptPassword("confirm password: ")
	if err != nil {
		return "", err
	}
	if password != confirm {
		return "", fmt.Errorf("passwords do not match")
	}
	return password, nil
}

func promptLine(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
