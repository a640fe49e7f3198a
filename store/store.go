package store

import (
	"fmt"
	"sync"

	"github.com/bitfsorg/vesting-go/schedule"
)

// StateStore persists the vesting ledger state and the beneficiary registry.
type StateStore interface {
	// Load returns copies of the committed ledger and registry.
	// Returns ErrNotInitialized if nothing was committed yet.
	Load() (*schedule.LedgerState, *schedule.Registry, error)

	// Commit atomically replaces the ledger and registry.
	Commit(ledger *schedule.LedgerState, reg *schedule.Registry) error
}

// MemStore is an in-memory implementation of StateStore for testing.
// It keeps the encoded records, so a load always yields fresh copies.
type MemStore struct {
	mu       sync.RWMutex
	ledger   []byte
	registry []byte
}

// Compile-time interface check.
var _ StateStore = (*MemStore)(nil)

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{}
}

// Load decodes the committed records.
func (s *MemStore) Load() (*schedule.LedgerState, *schedule.Registry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.ledger == nil {
		return nil, nil, ErrNotInitialized
	}
	return decodeState(s.ledger, s.registry)
}

// Commit encodes and stores both records.
func (s *MemStore) Commit(ledger *schedule.LedgerState, reg *schedule.Registry) error {
	if ledger == nil || reg == nil {
		return fmt.Errorf("%w: ledger and registry", ErrNilParam)
	}
	l, r := schedule.SerializeLedger(ledger), schedule.SerializeRegistry(reg)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger, s.registry = l, r
	return nil
}

func decodeState(ledgerData, registryData []byte) (*schedule.LedgerState, *schedule.Registry, error) {
	ledger, err := schedule.DeserializeLedger(ledgerData)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: ledger: %w", ErrCorruptState, err)
	}
	reg, err := schedule.DeserializeRegistry(registryData)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: registry: %w", ErrCorruptState, err)
	}
	return ledger, reg, nil
}
