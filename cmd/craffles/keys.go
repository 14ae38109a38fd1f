package main

import (
	"crypto/ed25519"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// loadKeypair reads a solana-keygen JSON file
func loadKeypair(path string) (ed25519.PrivateKey, error) {
	path, err := expandHome(path)
	if err != nil {
		return nil, err
	}

	key, err := solanago.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error loading keypair from %s", path)
	}
	if len(key) != ed25519.PrivateKeySize {
		return nil, errors.Errorf("invalid keypair length %d in %s", len(key), path)
	}

	return ed25519.PrivateKey(key), nil
}

// writeKeypair stores key in the solana-keygen format, a JSON array of the
// 64 private key bytes
func writeKeypair(path string, key ed25519.PrivateKey) error {
	path, err := expandHome(path)
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil {
		return errors.Errorf("%s already exists", path)
	}

	raw := make([]int, len(key))
	for i, b := range key {
		raw[i] = int(b)
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return errors.Wrap(err, "error creating keypair directory")
	}
	return os.WriteFile(path, encoded, 0o600)
}

func parsePublicKey(value string) (ed25519.PublicKey, error) {
	key, err := solanago.PublicKeyFromBase58(value)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid public key %q", value)
	}
	return ed25519.PublicKey(key.Bytes()), nil
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "error resolving home directory")
	}
	return filepath.Join(home, path[2:]), nil
}

func newKeygenCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "keygen <outfile>",
		Short: "Generate a new keypair file, for trees or test wallets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := solanago.NewRandomPrivateKey()
			if err != nil {
				return err
			}

			if err := writeKeypair(args[0], ed25519.PrivateKey(key)); err != nil {
				return err
			}

			return a.print(cmd, map[string]string{
				"path":       args[0],
				"public_key": base58.Encode(ed25519.PrivateKey(key).Public().(ed25519.PublicKey)),
			})
		},
	}
}
