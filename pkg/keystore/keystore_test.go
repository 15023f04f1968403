package keystore

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sunshine-protocol/sunshine-go/pkg/model"
)

func TestSetUnlockLock(t *testing.T) {
	ks := New(t.TempDir())

	exists, err := ks.IsInitialized()
	require.NoError(t, err)
	require.False(t, exists)

	_, err = ks.Signer()
	require.ErrorIs(t, err, model.ErrKeystoreUninitialized)

	key, err := GenerateDeviceKey()
	require.NoError(t, err)
	addr := key.AccountID()

	require.ErrorIs(t, ks.Set(key, "short", false), model.ErrPasswordTooShort)
	require.NoError(t, ks.Set(key, "correct horse battery", false))

	exists, err = ks.IsInitialized()
	require.NoError(t, err)
	require.True(t, exists)
	require.False(t, ks.Locked())

	other, err := GenerateDeviceKey()
	require.NoError(t, err)
	require.ErrorIs(t, ks.Set(other, "correct horse battery", false), model.ErrKeystoreExists)

	ks.Lock()
	require.True(t, ks.Locked())
	_, err = ks.Signer()
	require.ErrorIs(t, err, model.ErrKeystoreLocked)

	// Address stays readable while locked.
	got, err := ks.AccountID()
	require.NoError(t, err)
	require.Equal(t, addr, got)

	require.ErrorIs(t, ks.Unlock("wrong password!"), model.ErrWrongPassword)
	require.NoError(t, ks.Unlock("correct horse battery"))

	signer, err := ks.Signer()
	require.NoError(t, err)
	require.Equal(t, addr, signer.AccountID())
}

// A keystore without a directory must refuse to persist anything, not fall
// back to writing key files relative to the working directory.
func TestDirlessKeystore(t *testing.T) {
	ks := New("")

	exists, err := ks.IsInitialized()
	require.NoError(t, err)
	require.False(t, exists)

	key, err := GenerateDeviceKey()
	require.NoError(t, err)
	require.ErrorIs(t, ks.Set(key, "correct horse battery", false), model.ErrNoKeystoreDir)
	require.ErrorIs(t, ks.Set(key, "correct horse battery", true), model.ErrNoKeystoreDir)

	require.ErrorIs(t, ks.Unlock("correct horse battery"), model.ErrKeystoreUninitialized)
	_, err = ks.AccountID()
	require.ErrorIs(t, err, model.ErrKeystoreUninitialized)

	_, err = os.Stat("device-key.json")
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestDeviceKeyFromMnemonic(t *testing.T) {
	phrase, err := NewMnemonic()
	require.NoError(t, err)

	k1, err := DeviceKeyFromMnemonic(phrase)
	require.NoError(t, err)
	k2, err := DeviceKeyFromMnemonic("  " + phrase + " ")
	require.NoError(t, err)
	require.Equal(t, k1.AccountID(), k2.AccountID(), "whitespace must not change the derived key")

	_, err = DeviceKeyFromMnemonic("definitely not a valid phrase")
	require.ErrorIs(t, err, model.ErrInvalidMnemonic)
}

func TestDeviceKeyFromSURI(t *testing.T) {
	alice1, err := DeviceKeyFromSURI("//Alice")
	require.NoError(t, err)
	alice2, err := DeviceKeyFromSURI("//Alice")
	require.NoError(t, err)
	require.Equal(t, alice1.AccountID(), alice2.AccountID())

	bob, err := DeviceKeyFromSURI("//Bob")
	require.NoError(t, err)
	require.NotEqual(t, alice1.AccountID(), bob.AccountID())

	hexKey, err := DeviceKeyFromSURI("0x" + "11" + "22334455667788990011223344556677889900112233445566778899001122")
	require.NoError(t, err)
	require.NotEmpty(t, hexKey.AccountID())

	_, err = DeviceKeyFromSURI("zzzz")
	require.Error(t, err)
}

func TestAddressRoundTrip(t *testing.T) {
	key, err := GenerateDeviceKey()
	require.NoError(t, err)
	addr := key.AccountID()

	payload := []byte("sign me")
	sig, err := key.Sign(payload)
	require.NoError(t, err)

	require.NoError(t, VerifySignature(addr, payload, sig))
	require.Error(t, VerifySignature(addr, []byte("different payload"), sig))

	_, err = DecodeAddress(addr)
	require.NoError(t, err)
	_, err = DecodeAddress(addr[:len(addr)-2])
	require.Error(t, err)
}
