package ffi

import (
	"github.com/rs/zerolog/log"

	"github.com/sunshine-protocol/sunshine-go/pkg/keystore"
)

// Key manages the device key behind the bridge.
type Key struct {
	ffi *FFI
}

// Exists reports whether a device key has been set.
func (k *Key) Exists() (bool, error) {
	cl, release, err := k.ffi.acquire()
	if err != nil {
		return false, err
	}
	defer release()
	return cl.Keystore.IsInitialized()
}

// UID returns the device key's account id. Works while locked.
func (k *Key) UID() (string, error) {
	cl, release, err := k.ffi.acquire()
	if err != nil {
		return "", err
	}
	defer release()
	return cl.Keystore.AccountID()
}

// Generate returns a fresh paperkey mnemonic. Nothing is persisted until Set
// is called with it.
func (k *Key) Generate() (string, error) {
	_, release, err := k.ffi.acquire()
	if err != nil {
		return "", err
	}
	defer release()
	return keystore.NewMnemonic()
}

// Set initializes the device key and returns its account id. A paperkey
// mnemonic wins over a suri; with neither a fresh key is generated. An
// existing key is only replaced when force is true. The keystore is left
// unlocked.
func (k *Key) Set(password, suri, paperkey string, force bool) (string, error) {
	cl, release, err := k.ffi.acquire()
	if err != nil {
		return "", err
	}
	defer release()

	var key *keystore.DeviceKey
	switch {
	case paperkey != "":
		key, err = keystore.DeviceKeyFromMnemonic(paperkey)
	case suri != "":
		key, err = keystore.DeviceKeyFromSURI(suri)
	default:
		key, err = keystore.GenerateDeviceKey()
	}
	if err != nil {
		return "", err
	}

	if err := cl.Keystore.Set(key, password, force); err != nil {
		return "", err
	}
	log.Info().Msgf("device key set for account %s", key.AccountID())
	return key.AccountID(), nil
}

// Lock wipes the key from memory.
func (k *Key) Lock() error {
	cl, release, err := k.ffi.acquire()
	if err != nil {
		return err
	}
	defer release()
	cl.Keystore.Lock()
	return nil
}

// Unlock decrypts the key with the password.
func (k *Key) Unlock(password string) error {
	cl, release, err := k.ffi.acquire()
	if err != nil {
		return err
	}
	defer release()
	return cl.Keystore.Unlock(password)
}
