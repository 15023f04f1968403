// Package offchain stores bounty and submission bodies outside the chain,
// addressed by the Cid the chain records. Content is canonical CBOR in a
// badger database with an in-memory read-through cache.
package offchain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/dgraph-io/badger/v3"

	"github.com/sunshine-protocol/sunshine-go/pkg/codec"
)

// ErrNotFound is returned when no content exists for a Cid.
var ErrNotFound = errors.New("content not found")

const cacheTTL = 10 * time.Minute

// Store is a content-addressed blob store.
type Store struct {
	db    *badger.DB
	cache *bigcache.BigCache
}

// Open opens (or creates) a persistent store at path.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	return open(opts)
}

// OpenInMemory opens a store that lives only for the process. Used by tests
// and the sandbox node.
func OpenInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	return open(opts)
}

func open(opts badger.Options) (*Store, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open offchain db: %w", err)
	}
	cache, err := bigcache.New(context.Background(), bigcache.DefaultConfig(cacheTTL))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init offchain cache: %w", err)
	}
	return &Store{db: db, cache: cache}, nil
}

// Put encodes v and stores it under its content id. Storing the same value
// twice is a no-op and yields the same Cid.
func (s *Store) Put(ctx context.Context, v interface{}) (codec.Cid, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	cid, data, err := codec.Encode(v)
	if err != nil {
		return "", err
	}
	key, err := cid.Bytes()
	if err != nil {
		return "", err
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
	if err != nil {
		return "", fmt.Errorf("failed to store content %s: %w", cid, err)
	}
	if err := s.cache.Set(cid.String(), data); err != nil {
		// The cache is best effort; the db write already succeeded.
		return cid, nil
	}
	return cid, nil
}

// Get decodes the content behind cid into out.
func (s *Store) Get(ctx context.Context, cid codec.Cid, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if data, err := s.cache.Get(cid.String()); err == nil {
		return codec.Unmarshal(data, out)
	}

	key, err := cid.Bytes()
	if err != nil {
		return err
	}
	var data []byte
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, cid)
	}
	if err != nil {
		return fmt.Errorf("failed to load content %s: %w", cid, err)
	}

	_ = s.cache.Set(cid.String(), data)
	return codec.Unmarshal(data, out)
}

// Close releases the underlying database.
func (s *Store) Close() error {
	if err := s.cache.Close(); err != nil {
		s.db.Close()
		return err
	}
	return s.db.Close()
}
