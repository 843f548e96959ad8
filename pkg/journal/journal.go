// Package journal persists an append-only audit trail of state transitions
// (logins, seatings, payments, cancellations, admin mutations) in a local
// Badger store. Entries expire via TTL; keys are time-ordered so listing
// newest-first is a reverse scan.
package journal

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/bistrokit/bistro/internal/logger"
)

// DefaultRetention keeps audit entries for 90 days.
const DefaultRetention = 90 * 24 * time.Hour

// Entry is one audit record.
type Entry struct {
	ID      string    `json:"id"`
	At      time.Time `json:"at"`
	Actor   string    `json:"actor"` // username, or "system" for scheduler sweeps
	Action  string    `json:"action"`
	OrderID uint      `json:"order_id,omitempty"`
	TableID int       `json:"table_id,omitempty"`
	Detail  string    `json:"detail,omitempty"`
}

// Config controls where and how long the journal keeps entries.
type Config struct {
	// Path is the Badger directory. Ignored when InMemory is set.
	Path string `mapstructure:"path" yaml:"path"`
	// Retention is the entry TTL; zero means DefaultRetention.
	Retention time.Duration `mapstructure:"retention" yaml:"retention"`
	// InMemory backs the journal with RAM only. Tests use this.
	InMemory bool `mapstructure:"in_memory" yaml:"in_memory,omitempty"`
}

// Journal is a handle to the audit store. Safe for concurrent use.
type Journal struct {
	db        *badger.DB
	retention time.Duration
}

// Open opens or creates the journal.
func Open(cfg Config) (*Journal, error) {
	opts := badger.DefaultOptions(cfg.Path).WithLogger(nil)
	if cfg.InMemory {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open audit journal: %w", err)
	}
	retention := cfg.Retention
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Journal{db: db, retention: retention}, nil
}

// Record appends one entry. Failures are returned but callers typically log
// and continue; the journal is observability, not source of truth.
func (j *Journal) Record(entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.At.IsZero() {
		entry.At = time.Now()
	}

	value, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}

	key := entryKey(entry.At, entry.ID)
	return j.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(key, value).WithTTL(j.retention)
		return txn.SetEntry(e)
	})
}

// List returns up to limit entries, newest first.
func (j *Journal) List(limit int) ([]Entry, error) {
	var entries []Entry
	err := j.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration starts past the last key.
		seek := []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
		for it.Seek(seek); it.Valid() && len(entries) < limit; it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var entry Entry
				if err := json.Unmarshal(val, &entry); err != nil {
					return err
				}
				entries = append(entries, entry)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Close flushes and closes the underlying store.
func (j *Journal) Close() {
	if err := j.db.Close(); err != nil {
		logger.Warn("failed to close audit journal", logger.Err(err))
	}
}

// entryKey builds a lexicographically time-ordered key: big-endian unix
// nanos followed by the entry id for uniqueness.
func entryKey(at time.Time, id string) []byte {
	key := make([]byte, 8, 8+len(id))
	binary.BigEndian.PutUint64(key, uint64(at.UnixNano()))
	return append(key, id...)
}
