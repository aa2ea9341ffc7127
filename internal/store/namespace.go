package store

import (
	"fmt"
	"time"
)

// Namespace scopes a Store to one owner and version by key prefix. Bumping
// the version moves the whole key space, which invalidates every prior entry
// for that owner without enumerating them; stale entries age out via TTL.
type Namespace struct {
	inner  Store
	prefix string
}

func NewNamespace(inner Store, owner string, version int) *Namespace {
	return &Namespace{
		inner:  inner,
		prefix: fmt.Sprintf("%s/v%d/", owner, version),
	}
}

func (n *Namespace) Key(key string) string { return n.prefix + key }

func (n *Namespace) Get(key string) ([]byte, bool, error) {
	return n.inner.Get(n.prefix + key)
}

func (n *Namespace) Set(key string, value []byte, ttl time.Duration) error {
	return n.inner.Set(n.prefix+key, value, ttl)
}

func (n *Namespace) RunTransaction(fn func(tx Tx) error) error {
	return n.inner.RunTransaction(func(tx Tx) error {
		return fn(&nsTx{tx: tx, prefix: n.prefix})
	})
}

func (n *Namespace) SweepExpired(limit int) (int64, error) {
	return n.inner.SweepExpired(limit)
}

func (n *Namespace) Metrics() (gets, hits, sets, deletes int64) {
	return n.inner.Metrics()
}

// Close is a no-op: the underlying store is shared and owned elsewhere.
func (n *Namespace) Close() error { return nil }

type nsTx struct {
	tx     Tx
	prefix string
}

func (t *nsTx) Get(key string) ([]byte, bool, error) { return t.tx.Get(t.prefix + key) }

func (t *nsTx) Set(key string, value []byte, ttl time.Duration) error {
	return t.tx.Set(t.prefix+key, value, ttl)
}

func (t *nsTx) Delete(key string) error { return t.tx.Delete(t.prefix + key) }
