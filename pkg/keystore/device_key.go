package keystore

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/mr-tron/base58"
	"github.com/tyler-smith/go-bip39"

	"github.com/sunshine-protocol/sunshine-go/pkg/model"
)

// addressVersion prefixes every encoded account id.
const addressVersion = 0x2a

// DeviceKey is the secp256k1 key a device signs extrinsics with.
type DeviceKey struct {
	priv *secp256k1.PrivateKey
}

// GenerateDeviceKey creates a fresh random device key.
func GenerateDeviceKey() (*DeviceKey, error) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate device key: %w", err)
	}
	return &DeviceKey{priv: priv}, nil
}

// DeviceKeyFromSeed builds a device key from a 32-byte seed.
func DeviceKeyFromSeed(seed []byte) (*DeviceKey, error) {
	if len(seed) != 32 {
		return nil, fmt.Errorf("seed must be 32 bytes, got %d", len(seed))
	}
	return &DeviceKey{priv: secp256k1.PrivKeyFromBytes(seed)}, nil
}

// DeviceKeyFromMnemonic recovers a device key from a BIP-39 paper key.
func DeviceKeyFromMnemonic(phrase string) (*DeviceKey, error) {
	phrase = strings.Join(strings.Fields(phrase), " ")
	if !bip39.IsMnemonicValid(phrase) {
		return nil, model.ErrInvalidMnemonic
	}
	seed := bip39.NewSeed(phrase, "")
	return DeviceKeyFromSeed(seed[:32])
}

// DeviceKeyFromSURI builds a device key from a secret URI: either a
// 0x-prefixed 32-byte hex seed, or a "//Name" dev junction that derives a
// deterministic throwaway key.
func DeviceKeyFromSURI(suri string) (*DeviceKey, error) {
	if name, ok := strings.CutPrefix(suri, "//"); ok {
		seed := sha256.Sum256([]byte("sunshine/dev/" + name))
		return DeviceKeyFromSeed(seed[:])
	}
	raw, err := hex.DecodeString(strings.TrimPrefix(suri, "0x"))
	if err != nil {
		return nil, fmt.Errorf("suri is neither a dev junction nor a hex seed: %w", err)
	}
	return DeviceKeyFromSeed(raw)
}

// NewMnemonic generates a 24-word BIP-39 paper key.
func NewMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", fmt.Errorf("failed to generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("failed to generate mnemonic: %w", err)
	}
	return mnemonic, nil
}

// AccountID returns the key's on-chain account id.
func (k *DeviceKey) AccountID() string {
	return EncodeAddress(k.priv.PubKey())
}

// Sign signs sha256(payload) and returns a DER-encoded signature.
func (k *DeviceKey) Sign(payload []byte) ([]byte, error) {
	hash := sha256.Sum256(payload)
	sig := secpecdsa.Sign(k.priv, hash[:])
	return sig.Serialize(), nil
}

// Seed exposes the raw private scalar for backup flows.
func (k *DeviceKey) Seed() []byte {
	return k.priv.Serialize()
}

// Zero wipes the private key material.
func (k *DeviceKey) Zero() {
	k.priv.Zero()
}

// EncodeAddress renders a public key as a base58check account id: a version
// byte, the 33-byte compressed key, and a 4-byte double-sha256 checksum. The
// full key is kept in the address so nodes can verify signatures against the
// account id alone.
func EncodeAddress(pub *secp256k1.PublicKey) string {
	payload := append([]byte{addressVersion}, pub.SerializeCompressed()...)
	check := checksum(payload)
	return base58.Encode(append(payload, check...))
}

// DecodeAddress parses an account id back into its public key.
func DecodeAddress(addr string) (*secp256k1.PublicKey, error) {
	raw, err := base58.Decode(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid account id %q: %w", addr, err)
	}
	if len(raw) != 1+33+4 {
		return nil, fmt.Errorf("invalid account id %q: wrong length %d", addr, len(raw))
	}
	if raw[0] != addressVersion {
		return nil, fmt.Errorf("invalid account id %q: unknown version %#x", addr, raw[0])
	}
	payload, check := raw[:34], raw[34:]
	want := checksum(payload)
	for i := range want {
		if check[i] != want[i] {
			return nil, fmt.Errorf("invalid account id %q: bad checksum", addr)
		}
	}
	pub, err := secp256k1.ParsePubKey(payload[1:])
	if err != nil {
		return nil, fmt.Errorf("invalid account id %q: %w", addr, err)
	}
	return pub, nil
}

// VerifySignature checks a DER signature over sha256(payload) against an
// account id.
func VerifySignature(addr string, payload, sig []byte) error {
	pub, err := DecodeAddress(addr)
	if err != nil {
		return err
	}
	parsed, err := secpecdsa.ParseDERSignature(sig)
	if err != nil {
		return fmt.Errorf("malformed signature: %w", err)
	}
	hash := sha256.Sum256(payload)
	if !parsed.Verify(hash[:], pub) {
		return fmt.Errorf("signature verification failed for %s", addr)
	}
	return nil
}

func checksum(payload []byte) []byte {
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	return second[:4]
}
