package state

// StateAccess is the capability exposing read/write/delete/list_keys
// against a backing store (spec.md section 4.6). It is intentionally the
// same shape as component.StateAccess — every backend here satisfies
// both, so an ExecutionContext can hold one directly.
type StateAccess interface {
	Read(key string) (any, bool, error)
	Write(key string, value any) error
	Delete(key string) (bool, error)
	ListKeys(prefix string) ([]string, error)
}

// Backup is the serializable snapshot record described in spec.md section
// 6.5: a flat list of every live key discovered by prefix iteration, no
// hard-coded scope list.
type Backup struct {
	TimestampUnix int64
	Entries       []BackupEntry
}

// BackupEntry is one key/value pair captured by Snapshot.
type BackupEntry struct {
	Key   string
	Value any
}

// Snapshotter is implemented by backends that can enumerate every live key
// (both in-memory and embedded-KV backends do).
type Snapshotter interface {
	StateAccess
	Snapshot() (Backup, error)
	Restore(Backup) error
}
