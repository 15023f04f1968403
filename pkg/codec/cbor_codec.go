// Package codec provides the canonical CBOR encoding and content
// identifiers used for off-chain bounty bodies. Encoding is deterministic so
// the same value always hashes to the same Cid.
package codec

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/mr-tron/base58"
	"github.com/multiformats/go-multihash"
)

var encMode cbor.EncMode

func init() {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	encMode = em
}

// Cid is a base58btc-encoded sha2-256 multihash of a canonical CBOR value.
type Cid string

// Marshal encodes v as deterministic CBOR.
func Marshal(v interface{}) ([]byte, error) {
	data, err := encMode.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cbor: %w", err)
	}
	return data, nil
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v interface{}) error {
	if err := cbor.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode cbor: %w", err)
	}
	return nil
}

// Sum returns the Cid of raw encoded bytes.
func Sum(data []byte) (Cid, error) {
	mh, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return "", fmt.Errorf("failed to hash content: %w", err)
	}
	return Cid(base58.Encode(mh)), nil
}

// Encode marshals v and returns both its Cid and the encoded bytes.
func Encode(v interface{}) (Cid, []byte, error) {
	data, err := Marshal(v)
	if err != nil {
		return "", nil, err
	}
	cid, err := Sum(data)
	if err != nil {
		return "", nil, err
	}
	return cid, data, nil
}

// Bytes returns the raw multihash behind the Cid.
func (c Cid) Bytes() ([]byte, error) {
	raw, err := base58.Decode(string(c))
	if err != nil {
		return nil, fmt.Errorf("invalid cid %q: %w", string(c), err)
	}
	if _, err := multihash.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid cid %q: %w", string(c), err)
	}
	return raw, nil
}

// Validate checks that the Cid parses as a multihash.
func (c Cid) Validate() error {
	_, err := c.Bytes()
	return err
}

func (c Cid) String() string { return string(c) }
