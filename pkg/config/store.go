package config

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/orinrun/orin/internal/orierr"
)

// Store wraps a loaded Config and implements bridge.ConfigStore: the
// Config global can read any dotted key but may only ever write under
// "debug.", the one section a running script is trusted to mutate.
// Everything else is set once at boot, by the file the Loader read.
type Store struct {
	mu  sync.RWMutex
	cfg *Config
}

// NewStore wraps cfg for script-facing get/set/snapshot/restore access.
func NewStore(cfg *Config) *Store {
	return &Store{cfg: cfg}
}

// Config returns the live, mutex-free pointer for host-side use (e.g.
// handing RuntimeConfig/ToolsConfig to the components that read them
// once at startup).
func (s *Store) Config() *Config {
	return s.cfg
}

// GetValue resolves a dotted key ("providers.default",
// "tools.file_operations.max_file_size") against the full configuration
// tree.
func (s *Store) GetValue(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tree, err := s.toMap()
	if err != nil {
		return nil, false
	}
	return lookupPath(tree, strings.Split(key, "."))
}

// SetValue mutates key, which must fall under "debug." — any other
// prefix is rejected with a boot-locked error, since those sections are
// wired into components at startup and have no safe way to change
// underneath them.
func (s *Store) SetValue(key string, value any) error {
	field, err := debugField(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := decodeDebugPatch(map[string]any{field: value}, &s.cfg.Debug); err != nil {
		return orierr.Wrap(orierr.KindValidation, "config", err)
	}
	if err := s.cfg.Debug.Validate(); err != nil {
		return orierr.Wrap(orierr.KindValidation, "config", err)
	}
	return nil
}

// Snapshot returns a deep copy of the full configuration tree as a
// generic map, suitable for a script to stash and later Restore.
func (s *Store) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tree, err := s.toMap()
	if err != nil {
		return map[string]any{}
	}
	return tree
}

// Restore replaces the debug section with the one carried in snapshot
// and rejects the call outright if any non-debug key in snapshot
// differs from the current configuration — restoring a snapshot can
// never be used to smuggle a change into a boot-locked section.
func (s *Store) Restore(snapshot map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.toMap()
	if err != nil {
		return orierr.Wrap(orierr.KindValidation, "config", err)
	}

	for key, want := range snapshot {
		if key == "debug" {
			continue
		}
		if !reflect.DeepEqual(current[key], want) {
			return orierr.New(orierr.KindSecurity, "config",
				fmt.Sprintf("snapshot changes boot-locked section %q", key))
		}
	}

	debugRaw, ok := snapshot["debug"]
	if !ok {
		return nil
	}
	if err := decodeDebugPatch(debugRaw, &s.cfg.Debug); err != nil {
		return orierr.Wrap(orierr.KindValidation, "config", err)
	}
	return s.cfg.Debug.Validate()
}

// toMap renders the current config through its YAML marshaler (so
// ProvidersConfig/RateLimitSpec's custom MarshalYAML run) and back into
// a plain map, the one representation dotted-key lookups and
// snapshot/restore comparisons both want.
func (s *Store) toMap() (map[string]any, error) {
	data, err := yaml.Marshal(s.cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("unmarshal config tree: %w", err)
	}
	return tree, nil
}

// debugField validates that key addresses a field under debug.* and
// returns the remainder (e.g. "debug.level" -> "level").
func debugField(key string) (string, error) {
	const prefix = "debug."
	if !strings.HasPrefix(key, prefix) || len(key) == len(prefix) {
		return "", orierr.New(orierr.KindSecurity, "config",
			fmt.Sprintf("key %q is boot-locked; only debug.* is mutable at runtime", key))
	}
	return strings.TrimPrefix(key, prefix), nil
}

// decodeDebugPatch merges patch (a partial map of DebugConfig fields)
// into out, loosely typed since it usually originates from a script
// value rather than a YAML document.
func decodeDebugPatch(patch any, out *DebugConfig) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "yaml",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(patch)
}

// lookupPath walks tree by successive map keys, returning (nil, false)
// as soon as a segment doesn't resolve to a nested map or the final key
// is absent.
func lookupPath(tree map[string]any, path []string) (any, bool) {
	cur := any(tree)
	for i, seg := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		v, ok := m[seg]
		if !ok {
			return nil, false
		}
		if i == len(path)-1 {
			return v, true
		}
		cur = v
	}
	return nil, false
}
