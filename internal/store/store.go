package store

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketSlots = []byte("slots")

// SlotStore implements domain.SlotStore using BoltDB.
type SlotStore struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache

	// In-memory cache for hot-path reads (promoted on access)
	cache map[string][]byte
}

// NewSlotStore opens the slot database under baseCacheDir. Each listing
// service gets its own subdirectory so marks from different backends never
// mix. An empty baseCacheDir gives a memory-only store.
func NewSlotStore(baseCacheDir, serverURL string) (*SlotStore, error) {
	if baseCacheDir == "" {
		// Memory-only mode (no persistence)
		return &SlotStore{cache: make(map[string][]byte)}, nil
	}

	dir := baseCacheDir
	if serverURL != "" {
		dir = filepath.Join(baseCacheDir, hashServerURL(serverURL))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "imo.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSlots)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &SlotStore{db: db, cache: make(map[string][]byte)}, nil
}

func hashServerURL(serverURL string) string {
	normalized := strings.TrimRight(strings.ToLower(serverURL), "/")
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:6])
}

// Persistent reports whether the store is backed by a file.
func (s *SlotStore) Persistent() bool { return s.db != nil }

func (s *SlotStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Load returns a copy of the slot contents.
func (s *SlotStore) Load(slot string) ([]byte, bool) {
	s.mu.RLock()
	if data, ok := s.cache[slot]; ok {
		s.mu.RUnlock()
		return slices.Clone(data), true
	}
	s.mu.RUnlock()

	if s.db == nil {
		return nil, false
	}

	var data []byte
	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSlots)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(slot)); v != nil {
			// bbolt values are only valid inside the transaction
			data = slices.Clone(v)
		}
		return nil
	})

	if data == nil {
		return nil, false
	}

	s.mu.Lock()
	s.cache[slot] = data
	s.mu.Unlock()

	return slices.Clone(data), true
}

// Save replaces the slot contents. Memory is updated even when the disk
// write fails, so the running process keeps the newest value.
func (s *SlotStore) Save(slot string, data []byte) error {
	data = slices.Clone(data)

	s.mu.Lock()
	s.cache[slot] = data
	s.mu.Unlock()

	if s.db == nil {
		return nil // Memory-only mode
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSlots)
		return b.Put([]byte(slot), data)
	})
}

// Delete removes a slot.
func (s *SlotStore) Delete(slot string) error {
	s.mu.Lock()
	delete(s.cache, slot)
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSlots)
		if b == nil {
			return nil
		}
		return b.Delete([]byte(slot))
	})
}

// Slots lists the stored slot names in key order.
func (s *SlotStore) Slots() []string {
	if s.db == nil {
		s.mu.RLock()
		defer s.mu.RUnlock()
		names := make([]string, 0, len(s.cache))
		for k := range s.cache {
			names = append(names, k)
		}
		slices.Sort(names)
		return names
	}

	var names []string
	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSlots)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	return names
}
