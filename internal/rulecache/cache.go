// Package rulecache is a disk-backed cache of compile metadata keyed by
// the source content hash, so the CLI and shell can skip recompiling (and
// re-diagnosing) an unchanged rule file. Only metadata is cached, never
// evaluation results.
package rulecache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Current schema version - increment when Payload format changes.
const schemaVersion uint16 = 1

// Digest keys a cache entry: the SHA-256 of the rule source.
type Digest [32]byte

// HashSource computes the cache key for a rule's source bytes.
func HashSource(content []byte) Digest {
	return sha256.Sum256(content)
}

// Payload is the cached outcome of one compile.
type Payload struct {
	Schema uint16

	Path       string
	Success    bool
	ErrorCount int
	// Descriptor is the rule-input descriptor string of a successful
	// compile, so `--describe` can answer without re-analyzing.
	Descriptor string

	CompiledAt time.Time
	DurationMS int64
}

// Cache stores payloads on disk, one msgpack file per digest.
// Thread-safe for concurrent access.
type Cache struct {
	mu  sync.RWMutex
	dir string
}

// Open initializes the cache at the standard user cache location.
func Open(app string) (*Cache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, app)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir}, nil
}

// OpenAt initializes the cache at an explicit directory (tests).
func OpenAt(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir}, nil
}

func (c *Cache) pathFor(key Digest) string {
	hexKey := hex.EncodeToString(key[:])
	return filepath.Join(c.dir, "rules", hexKey+".mp")
}

// Put serializes and writes a payload, replacing atomically via a temp
// file rename.
func (c *Cache) Put(key Digest, payload *Payload) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	payload.Schema = schemaVersion
	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		_ = os.Remove(tmp)
	}()

	data, err := msgpack.Marshal(payload)
	if err != nil {
		_ = f.Close()
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}

// Get loads a payload; ok is false when the entry is absent or from an
// older schema.
func (c *Cache) Get(key Digest) (*Payload, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, err := os.ReadFile(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var payload Payload
	if err := msgpack.Unmarshal(data, &payload); err != nil {
		return nil, false, nil // corrupt entry: treat as a miss
	}
	if payload.Schema != schemaVersion {
		return nil, false, nil
	}
	return &payload, true, nil
}
