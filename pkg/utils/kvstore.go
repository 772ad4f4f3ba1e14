package utils

import (
	"errors"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

// KVStore is a small badger-backed byte store with a read-through memory
// cache. It holds downloaded assets such as flag images between runs.
type KVStore struct {
	db    *badger.DB
	cache sync.Map
}

func OpenKVStore(path string) (*KVStore, error) {
	opts := badger.DefaultOptions(path)
	// Decrease logging verbosity
	opts.Logger = nil
	return openKV(opts)
}

// OpenMemoryKVStore returns a store that is discarded on Close.
func OpenMemoryKVStore() (*KVStore, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return openKV(opts)
}

func openKV(opts badger.Options) (*KVStore, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &KVStore{db: db}, nil
}

func (s *KVStore) Close() error {
	return s.db.Close()
}

func (s *KVStore) Set(key string, value []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err == nil {
		s.cache.Store(key, append([]byte(nil), value...))
	}
	return err
}

func (s *KVStore) BatchSet(entries map[string][]byte) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for k, v := range entries {
		if err := wb.Set([]byte(k), v); err != nil {
			return err
		}
	}
	if err := wb.Flush(); err != nil {
		return err
	}
	for k, v := range entries {
		s.cache.Store(k, append([]byte(nil), v...))
	}
	return nil
}

// Get returns nil, nil when the key is absent.
func (s *KVStore) Get(key string) ([]byte, error) {
	if v, ok := s.cache.Load(key); ok {
		return v.([]byte), nil
	}
	var val []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err == nil {
		s.cache.Store(key, val)
	}
	return val, err
}

// ForEach visits every key with the given prefix in key order.
func (s *KVStore) ForEach(prefix string, fn func(k string, v []byte) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()
		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			item := it.Item()
			k := string(item.Key())
			err := item.Value(func(v []byte) error {
				return fn(k, v)
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}
