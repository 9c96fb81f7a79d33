package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"identivibe/pkg/logger"
)

// Store is a content-addressed result cache: one JSON file per key under a
// flat directory. Entries are never mutated, only read or replaced
// wholesale, and there is no eviction — operators clear the directory
// out-of-band. A hit is observationally equivalent to a fresh fetch with
// identical parameters, so only idempotent jobs may be cached.
type Store struct {
	dir     string
	enabled bool
	logger  logger.Logger
}

// New creates a cache store rooted at dir. A disabled store misses on
// every Get and drops every Put.
func New(dir string, enabled bool, log logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	if enabled {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	return &Store{dir: dir, enabled: enabled, logger: log}, nil
}

// Enabled reports whether the store persists entries.
func (s *Store) Enabled() bool {
	return s.enabled
}

// Key derives the deterministic cache key for a job: a truncated hex
// digest of the canonical JSON encoding of the job type and its input.
// encoding/json sorts map keys, which makes the encoding order-independent.
func Key(jobType string, input map[string]interface{}) string {
	canonical, err := json.Marshal(map[string]interface{}{
		"actor": jobType,
		"input": input,
	})
	if err != nil {
		// Inputs are built from plain strings and numbers; marshaling them
		// cannot fail in practice.
		canonical = []byte(jobType)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])[:16]
}

// Get loads the entry for key into v. A missing or unreadable entry is a
// miss, not an error: corrupt files are logged and skipped.
func (s *Store) Get(key string, v interface{}) bool {
	if !s.enabled {
		return false
	}

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return false
	}

	if err := json.Unmarshal(data, v); err != nil {
		s.logger.WarnWithFields("failed to read cache entry", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return false
	}

	s.logger.DebugWithFields("cache hit", map[string]interface{}{"key": key})
	return true
}

// Put persists v under key, replacing any previous entry. Write failures
// are logged but not fatal: the cache is an optimization, not a store of
// record.
func (s *Store) Put(key string, v interface{}) {
	if !s.enabled {
		return
	}

	data, err := json.Marshal(v)
	if err != nil {
		s.logger.WarnWithFields("failed to encode cache entry", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return
	}

	// Temp file plus rename keeps readers from ever seeing a partial entry.
	path := s.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		s.logger.WarnWithFields("failed to write cache entry", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		s.logger.WarnWithFields("failed to commit cache entry", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return
	}

	s.logger.DebugWithFields("cached result", map[string]interface{}{"key": key})
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}
