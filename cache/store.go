package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/mandelsoft/vfs/pkg/vfs"
)

// Store holds cache entries in memory and, if configured with a file system, persists
// them as one JSON document per key so that later sessions can reuse them.
// Persistence failures are logged and otherwise ignored, the in-memory entry stays valid.
type Store[V any] struct {
	name string

	mu      sync.RWMutex
	entries map[string]V

	// fsMu serializes access to the persistent directory.
	fsMu sync.Mutex
	fs   vfs.VFS
	dir  string
}

// NewStore creates a store. If fs is nil, entries are only kept in memory.
func NewStore[V any](name string, fs vfs.FileSystem, dir string) *Store[V] {
	s := &Store[V]{name: name, entries: map[string]V{}}
	if fs != nil {
		s.fs = vfs.New(fs)
		s.dir = s.fs.Join(dir, name)
	}
	return s
}

// Get returns the entry stored for key.
func (s *Store[V]) Get(key string) (V, bool) {
	s.mu.RLock()
	v, ok := s.entries[key]
	s.mu.RUnlock()
	if ok || s.fs == nil {
		return v, ok
	}

	v, ok = s.load(key)
	if !ok {
		return v, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	// a concurrent Put wins over the persisted state
	if existing, ok := s.entries[key]; ok {
		return existing, true
	}
	s.entries[key] = v
	return v, true
}

// Put stores the entry for key.
func (s *Store[V]) Put(key string, v V) {
	s.mu.Lock()
	s.entries[key] = v
	s.mu.Unlock()
	if s.fs != nil {
		s.persist(key, v)
	}
}

func (s *Store[V]) file(key string) string {
	sum := sha256.Sum256([]byte(key))
	return s.fs.Join(s.dir, hex.EncodeToString(sum[:])+".json")
}

type persistedEntry[V any] struct {
	Key   string `json:"key"`
	Value V      `json:"value"`
}

func (s *Store[V]) load(key string) (V, bool) {
	var zero V
	s.fsMu.Lock()
	data, err := s.fs.ReadFile(s.file(key))
	s.fsMu.Unlock()
	if err != nil {
		if !vfs.IsErrNotExist(err) {
			logger.Warn("failed to read cache entry", slog.String("cache", s.name), slog.String("key", key), slog.String("error", err.Error()))
		}
		return zero, false
	}
	var entry persistedEntry[V]
	if err := json.Unmarshal(data, &entry); err != nil || entry.Key != key {
		logger.Warn("ignoring corrupt cache entry", slog.String("cache", s.name), slog.String("key", key))
		return zero, false
	}
	return entry.Value, true
}

func (s *Store[V]) persist(key string, v V) {
	data, err := json.Marshal(persistedEntry[V]{Key: key, Value: v})
	if err != nil {
		logger.Warn("failed to encode cache entry", slog.String("cache", s.name), slog.String("key", key), slog.String("error", err.Error()))
		return
	}
	s.fsMu.Lock()
	defer s.fsMu.Unlock()
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		logger.Warn("failed to create cache directory", slog.String("cache", s.name), slog.String("error", err.Error()))
		return
	}
	if err := s.fs.WriteFile(s.file(key), data, 0o644); err != nil {
		logger.Warn("failed to write cache entry", slog.String("cache", s.name), slog.String("key", key), slog.String("error", err.Error()))
	}
}
