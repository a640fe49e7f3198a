package store

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"

	"github.com/bitfsorg/vesting-go/schedule"
)

var (
	bucketState   = []byte("state")
	bucketHistory = []byte("commits")

	keyLedger   = []byte("ledger")
	keyRegistry = []byte("registry")
)

// BoltStore persists the vesting state in a bbolt database as the
// fixed-width ledger and registry records.
type BoltStore struct {
	db *bbolt.DB
}

// Compile-time interface check.
var _ StateStore = (*BoltStore)(nil)

// OpenBoltStore opens or creates the bbolt database at dbPath.
// The parent directory is created if it does not exist.
func OpenBoltStore(dbPath string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("store: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("store: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketState, bucketHistory} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("store: create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: create buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error { return s.db.Close() }

// Load reads and decodes the committed ledger and registry.
func (s *BoltStore) Load() (*schedule.LedgerState, *schedule.Registry, error) {
	var ledgerData, registryData []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketState)
		l := b.Get(keyLedger)
		if l == nil {
			return ErrNotInitialized
		}
		r := b.Get(keyRegistry)
		if r == nil {
			return fmt.Errorf("%w: registry record missing", ErrCorruptState)
		}
		// Values are only valid inside the transaction.
		ledgerData = append([]byte(nil), l...)
		registryData = append([]byte(nil), r...)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return decodeState(ledgerData, registryData)
}

// Commit writes both records in one transaction and appends the ledger
// record to the commit log keyed by a sequence number.
func (s *BoltStore) Commit(ledger *schedule.LedgerState, reg *schedule.Registry) error {
	if ledger == nil || reg == nil {
		return fmt.Errorf("%w: ledger and registry", ErrNilParam)
	}
	ledgerData := schedule.SerializeLedger(ledger)
	registryData := schedule.SerializeRegistry(reg)

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketState)
		if err := b.Put(keyLedger, ledgerData); err != nil {
			return fmt.Errorf("store: put ledger: %w", err)
		}
		if err := b.Put(keyRegistry, registryData); err != nil {
			return fmt.Errorf("store: put registry: %w", err)
		}

		hb := tx.Bucket(bucketHistory)
		seq, err := hb.NextSequence()
		if err != nil {
			return fmt.Errorf("store: next commit sequence: %w", err)
		}
		if err := hb.Put(seqKey(seq), ledgerData); err != nil {
			return fmt.Errorf("store: put commit log: %w", err)
		}
		return nil
	})
}

// CommitCount returns the number of commits recorded.
func (s *BoltStore) CommitCount() (uint64, error) {
	var count uint64
	err := s.db.View(func(tx *bbolt.Tx) error {
		count = uint64(tx.Bucket(bucketHistory).Stats().KeyN)
		return nil
	})
	return count, err
}

// LedgerHistory returns every committed ledger record in commit order.
// TotalReleased is non-decreasing across the result.
func (s *BoltStore) LedgerHistory() ([]*schedule.LedgerState, error) {
	var out []*schedule.LedgerState
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketHistory).ForEach(func(k, v []byte) error {
			ledger, err := schedule.DeserializeLedger(v)
			if err != nil {
				return fmt.Errorf("%w: commit %d: %w", ErrCorruptState, binary.BigEndian.Uint64(k), err)
			}
			out = append(out, ledger)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("store: ledger history: %w", err)
	}
	return out, nil
}

// seqKey encodes a commit sequence as an 8-byte big-endian key for sorted storage.
func seqKey(seq uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, seq)
	return k
}
