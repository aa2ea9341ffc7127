package store

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"
)

// Forever stores an entry without expiry.
const Forever = time.Duration(1<<63 - 1)

var ErrClosed = errors.New("store is closed")

// Tx is the store view inside a transaction. Methods are only valid until
// the transaction body returns.
type Tx interface {
	Get(key string) (value []byte, ok bool, err error)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
}

// Store is a key/value space with per-entry expiry. RunTransaction grants
// exclusive access to the instance: no other transaction on the same store
// observes an intermediate state. Serialization is per store instance, not
// per key.
type Store interface {
	Get(key string) (value []byte, ok bool, err error)
	// Set writes value at ttl. A ttl <= 0 deletes the key.
	Set(key string, value []byte, ttl time.Duration) error
	RunTransaction(fn func(tx Tx) error) error
	// SweepExpired removes up to limit expired entries and reports how many.
	SweepExpired(limit int) (removed int64, err error)
	Metrics() (gets, hits, sets, deletes int64)
	io.Closer
}

// TransactionError wraps a failure inside a transaction body. Writes that
// happened before the failure are not rolled back; that is a documented
// limitation, not a guarantee.
type TransactionError struct {
	Err error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("cache transaction: %v", e.Err)
}

func (e *TransactionError) Unwrap() error { return e.Err }

// Entries are encoded as an 8-byte big-endian expiry (unix nanos, 0 = never)
// followed by the raw value.
const headerSize = 8

func encodeEntry(value []byte, expiresAt int64) []byte {
	buf := make([]byte, headerSize+len(value))
	binary.BigEndian.PutUint64(buf[:headerSize], uint64(expiresAt))
	copy(buf[headerSize:], value)
	return buf
}

func decodeEntry(raw []byte) (value []byte, expiresAt int64, err error) {
	if len(raw) < headerSize {
		return nil, 0, fmt.Errorf("corrupt entry: %d bytes", len(raw))
	}
	return raw[headerSize:], int64(binary.BigEndian.Uint64(raw[:headerSize])), nil
}

func expiryFor(now time.Time, ttl time.Duration) int64 {
	if ttl == Forever {
		return 0
	}
	return now.Add(ttl).UnixNano()
}

func expired(now time.Time, expiresAt int64) bool {
	return expiresAt != 0 && now.UnixNano() > expiresAt
}
