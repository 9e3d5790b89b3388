// Package boltstate is the persistent StateAccess backend: an embedded,
// ordered-bytes key/value store over go.etcd.io/bbolt (spec.md section
// 4.7). Unlike state.MemoryStore it survives process restarts and keeps
// keys in lexical order inside a single bucket, which prefix iteration
// (ListKeys, Snapshot) relies on directly rather than scanning a map.
package boltstate

import (
	"time"

	"go.etcd.io/bbolt"

	"github.com/orinrun/orin/internal/orierr"
	"github.com/orinrun/orin/pkg/state"
)

var bucketName = []byte("orin_state")

// Store is a state.Snapshotter backed by a single bbolt database file.
type Store struct {
	db      *bbolt.DB
	breaker *state.Breaker
}

// Open opens (creating if absent) the bbolt database at path and ensures
// the state bucket exists. breakerCfg may be the zero value to disable
// the circuit breaker.
func Open(path string, breakerCfg state.BreakerConfig) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, orierr.Wrap(orierr.KindState, "boltstate", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, orierr.Wrap(orierr.KindState, "boltstate", err)
	}
	return &Store{db: db, breaker: state.NewBreaker(breakerCfg)}, nil
}

// Close releases the underlying database file.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Read(key string) (any, bool, error) {
	var raw []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketName).Get([]byte(key))
		if v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, orierr.Wrap(orierr.KindState, "boltstate", err)
	}
	if raw == nil {
		return nil, false, nil
	}
	v, err := decode(raw)
	if err != nil {
		return nil, false, orierr.Wrap(orierr.KindState, "boltstate", err)
	}
	return v, true, nil
}

func (s *Store) Write(key string, value any) error {
	if err := s.breaker.Allow(); err != nil {
		return err
	}
	raw, err := encode(value)
	if err != nil {
		return orierr.Wrap(orierr.KindState, "boltstate", err)
	}
	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(key), raw)
	})
	if err != nil {
		s.breaker.RecordFailure()
		return orierr.Wrap(orierr.KindState, "boltstate", err)
	}
	return nil
}

func (s *Store) Delete(key string) (bool, error) {
	existed := false
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b.Get([]byte(key)) != nil {
			existed = true
		}
		return b.Delete([]byte(key))
	})
	if err != nil {
		return false, orierr.Wrap(orierr.KindState, "boltstate", err)
	}
	return existed, nil
}

// ListKeys returns every key with the given prefix, in lexical order —
// bbolt's cursor already walks the bucket that way, so this is a direct
// Seek/Next scan rather than a full-bucket filter.
func (s *Store) ListKeys(prefix string) ([]string, error) {
	var out []string
	p := []byte(prefix)
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketName).Cursor()
		for k, _ := c.Seek(p); k != nil && hasPrefix(k, p); k, _ = c.Next() {
			out = append(out, string(k))
		}
		return nil
	})
	if err != nil {
		return nil, orierr.Wrap(orierr.KindState, "boltstate", err)
	}
	return out, nil
}

func hasPrefix(k, prefix []byte) bool {
	if len(prefix) == 0 {
		return true
	}
	if len(k) < len(prefix) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}

// Snapshot enumerates every key in the bucket with no hard-coded scope
// list (spec.md invariant 6), mirroring state.MemoryStore.Snapshot.
func (s *Store) Snapshot() (state.Backup, error) {
	b := state.Backup{TimestampUnix: time.Now().Unix()}
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).ForEach(func(k, v []byte) error {
			value, err := decode(v)
			if err != nil {
				return err
			}
			b.Entries = append(b.Entries, state.BackupEntry{Key: string(k), Value: value})
			return nil
		})
	})
	if err != nil {
		return state.Backup{}, orierr.Wrap(orierr.KindState, "boltstate", err)
	}
	return b, nil
}

// Restore clears every scope discovered in the backup, then applies
// entries in order, matching state.MemoryStore.Restore's semantics.
func (s *Store) Restore(backup state.Backup) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		scopes := map[string]bool{}
		for _, e := range backup.Entries {
			if sc, _, ok := state.ParseStorageKey(e.Key); ok {
				scopes[scopePrefix(sc)] = true
			}
		}
		c := b.Cursor()
		var toDelete [][]byte
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			if sc, _, ok := state.ParseStorageKey(string(k)); ok && scopes[scopePrefix(sc)] {
				toDelete = append(toDelete, append([]byte(nil), k...))
			}
		}
		for _, k := range toDelete {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		for _, e := range backup.Entries {
			raw, err := encode(e.Value)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(e.Key), raw); err != nil {
				return err
			}
		}
		return nil
	})
}

func scopePrefix(sc state.Scope) string {
	key := state.FormatStorageKey(sc, "x")
	return key[:len(key)-1]
}
