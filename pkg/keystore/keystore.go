// Package keystore manages the encrypted device key a client signs with.
// The key lives in a single JSON file, AES-256-GCM encrypted under a
// PBKDF2-derived key, and is only held in memory while unlocked.
package keystore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/pbkdf2"

	"github.com/sunshine-protocol/sunshine-go/pkg/model"
)

const (
	// MinPasswordLen is the floor enforced before any key material is
	// touched.
	MinPasswordLen = 8

	keyFileName = "device-key.json"

	kdfIterations = 262144
	kdfKeyLen     = 32
)

type keyFile struct {
	Version   string     `json:"version"`
	ID        string     `json:"id"`
	Address   string     `json:"address"`
	Crypto    cryptoBody `json:"crypto"`
	CreatedAt string     `json:"created_at"`
}

type cryptoBody struct {
	Cipher       string    `json:"cipher"`
	Ciphertext   string    `json:"ciphertext"`
	CipherParams params    `json:"cipherparams"`
	KDF          string    `json:"kdf"`
	KDFParams    kdfParams `json:"kdfparams"`
}

type params struct {
	IV string `json:"iv"`
}

type kdfParams struct {
	DKLen int    `json:"dklen"`
	Salt  string `json:"salt"`
	C     int    `json:"c"`
	PRF   string `json:"prf"`
}

// Keystore guards the device key for one client.
type Keystore struct {
	dir string

	mu  sync.RWMutex
	key *DeviceKey
}

// New returns a keystore rooted at dir. The directory is created on first
// Set. An empty dir yields a keystore that holds no key and refuses Set, so
// a misconfigured client can never drop key material into the working
// directory.
func New(dir string) *Keystore {
	return &Keystore{dir: dir}
}

func (ks *Keystore) path() string {
	return filepath.Join(ks.dir, keyFileName)
}

// IsInitialized reports whether a device key file exists.
func (ks *Keystore) IsInitialized() (bool, error) {
	if ks.dir == "" {
		return false, nil
	}
	_, err := os.Stat(ks.path())
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat keystore: %w", err)
}

// Set encrypts and persists the device key, leaving the keystore unlocked.
// An existing key is only replaced when force is true.
func (ks *Keystore) Set(key *DeviceKey, password string, force bool) error {
	if ks.dir == "" {
		return model.ErrNoKeystoreDir
	}
	if len(password) < MinPasswordLen {
		return model.ErrPasswordTooShort
	}
	exists, err := ks.IsInitialized()
	if err != nil {
		return err
	}
	if exists && !force {
		return model.ErrKeystoreExists
	}

	salt := make([]byte, 32)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}
	derived := pbkdf2.Key([]byte(password), salt, kdfIterations, kdfKeyLen, sha256.New)

	block, err := aes.NewCipher(derived)
	if err != nil {
		return fmt.Errorf("failed to init cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return fmt.Errorf("failed to init gcm: %w", err)
	}
	iv := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return fmt.Errorf("failed to generate iv: %w", err)
	}
	ciphertext := gcm.Seal(nil, iv, key.Seed(), nil)

	file := keyFile{
		Version: "1",
		ID:      uuid.NewString(),
		Address: key.AccountID(),
		Crypto: cryptoBody{
			Cipher:       "aes-256-gcm",
			Ciphertext:   hex.EncodeToString(ciphertext),
			CipherParams: params{IV: hex.EncodeToString(iv)},
			KDF:          "pbkdf2",
			KDFParams: kdfParams{
				DKLen: kdfKeyLen,
				Salt:  hex.EncodeToString(salt),
				C:     kdfIterations,
				PRF:   "hmac-sha256",
			},
		},
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode keystore file: %w", err)
	}

	if err := os.MkdirAll(ks.dir, 0o700); err != nil {
		return fmt.Errorf("failed to create keystore dir: %w", err)
	}
	if err := os.WriteFile(ks.path(), data, 0o600); err != nil {
		return fmt.Errorf("failed to write keystore file: %w", err)
	}

	ks.mu.Lock()
	if ks.key != nil {
		ks.key.Zero()
	}
	ks.key = key
	ks.mu.Unlock()
	return nil
}

// Unlock decrypts the device key into memory.
func (ks *Keystore) Unlock(password string) error {
	if ks.dir == "" {
		return model.ErrKeystoreUninitialized
	}
	data, err := os.ReadFile(ks.path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.ErrKeystoreUninitialized
		}
		return fmt.Errorf("failed to read keystore file: %w", err)
	}
	var file keyFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse keystore file: %w", err)
	}
	if file.Crypto.Cipher != "aes-256-gcm" || file.Crypto.KDF != "pbkdf2" {
		return fmt.Errorf("unsupported keystore format %s/%s", file.Crypto.Cipher, file.Crypto.KDF)
	}

	salt, err := hex.DecodeString(file.Crypto.KDFParams.Salt)
	if err != nil {
		return fmt.Errorf("failed to decode salt: %w", err)
	}
	iv, err := hex.DecodeString(file.Crypto.CipherParams.IV)
	if err != nil {
		return fmt.Errorf("failed to decode iv: %w", err)
	}
	ciphertext, err := hex.DecodeString(file.Crypto.Ciphertext)
	if err != nil {
		return fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	derived := pbkdf2.Key([]byte(password), salt, file.Crypto.KDFParams.C, file.Crypto.KDFParams.DKLen, sha256.New)
	block, err := aes.NewCipher(derived)
	if err != nil {
		return fmt.Errorf("failed to init cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return fmt.Errorf("failed to init gcm: %w", err)
	}
	seed, err := gcm.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return model.ErrWrongPassword
	}

	key, err := DeviceKeyFromSeed(seed)
	if err != nil {
		return fmt.Errorf("keystore file holds a bad seed: %w", err)
	}

	ks.mu.Lock()
	if ks.key != nil {
		ks.key.Zero()
	}
	ks.key = key
	ks.mu.Unlock()
	return nil
}

// Lock wipes the in-memory key. Signing fails until the next Unlock.
func (ks *Keystore) Lock() {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	if ks.key != nil {
		ks.key.Zero()
		ks.key = nil
	}
}

// Locked reports whether signing is currently possible.
func (ks *Keystore) Locked() bool {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	return ks.key == nil
}

// Signer returns the unlocked device key.
func (ks *Keystore) Signer() (*DeviceKey, error) {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	if ks.key == nil {
		exists, err := ks.IsInitialized()
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, model.ErrKeystoreUninitialized
		}
		return nil, model.ErrKeystoreLocked
	}
	return ks.key, nil
}

// AccountID returns the stored key's account id without requiring an unlock.
func (ks *Keystore) AccountID() (string, error) {
	ks.mu.RLock()
	if ks.key != nil {
		addr := ks.key.AccountID()
		ks.mu.RUnlock()
		return addr, nil
	}
	ks.mu.RUnlock()

	if ks.dir == "" {
		return "", model.ErrKeystoreUninitialized
	}
	data, err := os.ReadFile(ks.path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", model.ErrKeystoreUninitialized
		}
		return "", fmt.Errorf("failed to read keystore file: %w", err)
	}
	var file keyFile
	if err := json.Unmarshal(data, &file); err != nil {
		return "", fmt.Errorf("failed to parse keystore file: %w", err)
	}
	return file.Address, nil
}
