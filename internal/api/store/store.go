package store

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"time"

	"inverter-simulator/internal/analysis"
	"inverter-simulator/internal/simulator"

	"github.com/oklog/ulid/v2"
)

// DefaultTTL is how long a run's trace stays retrievable.
const DefaultTTL = time.Hour

// Entry is one completed simulation kept for trace retrieval.
type Entry struct {
	ID        string
	Summary   analysis.Summary
	Records   []simulator.AnnotatedRecord
	CreatedAt time.Time
	ExpiresAt time.Time
}

// ResultStore keeps simulation results in memory, keyed by ULID.
// Expired entries are dropped on the next Put; there is no background sweeper.
type ResultStore struct {
	mu         sync.RWMutex
	entries    map[string]*Entry
	ttl        time.Duration
	maxEntries int

	now     func() time.Time
	entropy io.Reader
}

// New creates a store. ttl <= 0 selects DefaultTTL; maxEntries <= 0 means unbounded.
func New(ttl time.Duration, maxEntries int) *ResultStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	// Seed from crypto/rand; monotonic entropy keeps IDs minted in the same
	// millisecond sortable.
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &ResultStore{
		entries:    make(map[string]*Entry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
		entropy:    ulid.Monotonic(rand.New(rand.NewSource(seed)), 0),
	}
}

// Put stores a result and returns its ID.
func (s *ResultStore) Put(summary analysis.Summary, records []simulator.AnnotatedRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.pruneLocked(now)

	id, err := ulid.New(ulid.Timestamp(now.UTC()), s.entropy)
	if err != nil {
		return "", err
	}
	e := &Entry{
		ID:        id.String(),
		Summary:   summary,
		Records:   records,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	s.entries[e.ID] = e
	return e.ID, nil
}

// Get returns a stored entry if present and not expired.
func (s *ResultStore) Get(id string) (*Entry, bool) {
	if s == nil {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok || s.now().After(e.ExpiresAt) {
		return nil, false
	}
	return e, true
}

// Len counts entries, expired ones included until the next prune.
func (s *ResultStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// pruneLocked drops expired entries, then the oldest ones while over capacity.
func (s *ResultStore) pruneLocked(now time.Time) {
	for id, e := range s.entries {
		if now.After(e.ExpiresAt) {
			delete(s.entries, id)
		}
	}
	if s.maxEntries <= 0 {
		return
	}
	for len(s.entries) >= s.maxEntries {
		// ULIDs sort by creation time, so the smallest key is the oldest.
		oldest := ""
		for id := range s.entries {
			if oldest == "" || id < oldest {
				oldest = id
			}
		}
		delete(s.entries, oldest)
	}
}
