// Package cache provides a bounded disk cache for completion exchanges.
//
// Each entry maps a request fingerprint to the ordered sequence of
// content fragments that streamed in for that request. A hit replays
// the stored fragments verbatim without touching the network. The
// store is capped at a fixed number of entries; the least recently
// used entry is evicted when the cap is exceeded.
//
// Cache I/O never fails a completion. Unreadable entries count as
// misses, and a failure to persist a fresh entry is logged and
// swallowed so the user still gets the computed text.
package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/quocvuong92/sgpt/internal/logging"
)

// Cache is a fingerprint-keyed store of fragment sequences, one JSON
// file per entry under a single directory.
type Cache struct {
	dir      string
	capacity int
}

// New creates a cache rooted at dir holding at most capacity entries.
// The directory is created if missing; if that fails the cache still
// works as a pass-through that never hits.
func New(dir string, capacity int) *Cache {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logging.Warn("failed to create cache directory", logging.Fields{
			"dir":   dir,
			"error": err.Error(),
		})
	}
	return &Cache{dir: dir, capacity: capacity}
}

// GetOrCompute replays the fragments stored under key through emit if
// the entry exists. Otherwise it calls produce, forwarding every
// fragment produce sends to emit, and stores the full sequence under
// key once produce returns successfully. A produce error is returned
// as-is and nothing is stored, so interrupted exchanges are never
// served from cache later.
func (c *Cache) GetOrCompute(key string, emit func(string), produce func(send func(string)) error) error {
	if fragments, ok := c.read(key); ok {
		for _, fragment := range fragments {
			emit(fragment)
		}
		return nil
	}

	var fragments []string
	err := produce(func(fragment string) {
		fragments = append(fragments, fragment)
		emit(fragment)
	})
	if err != nil {
		return err
	}

	c.write(key, fragments)
	return nil
}

// read loads the fragment sequence stored under key. A missing or
// undecodable entry is a miss; corrupt files are removed so they stop
// occupying a slot.
func (c *Cache) read(key string) ([]string, bool) {
	path := filepath.Join(c.dir, key)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var fragments []string
	if err := json.Unmarshal(data, &fragments); err != nil {
		logging.Debug("removing corrupt cache entry", logging.Fields{
			"key":   key,
			"error": err.Error(),
		})
		_ = os.Remove(path)
		return nil, false
	}

	// Touch the entry so eviction treats it as recently used.
	now := time.Now()
	_ = os.Chtimes(path, now, now)

	return fragments, true
}

// write persists the fragment sequence under key and trims the store
// back to capacity. Failures are logged, never propagated.
func (c *Cache) write(key string, fragments []string) {
	data, err := json.Marshal(fragments)
	if err != nil {
		logging.Warn("failed to encode cache entry", logging.Fields{
			"key":   key,
			"error": err.Error(),
		})
		return
	}

	if err := writeFileAtomic(filepath.Join(c.dir, key), data); err != nil {
		logging.Warn("failed to persist cache entry", logging.Fields{
			"key":   key,
			"error": err.Error(),
		})
		return
	}

	c.evict()
}

// evict removes least recently used entries until at most capacity
// remain.
func (c *Cache) evict() {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		logging.Warn("failed to scan cache directory", logging.Fields{
			"dir":   c.dir,
			"error": err.Error(),
		})
		return
	}

	type cacheFile struct {
		name    string
		modTime time.Time
	}

	var files []cacheFile
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, cacheFile{name: entry.Name(), modTime: info.ModTime()})
	}

	if len(files) <= c.capacity {
		return
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].modTime.Before(files[j].modTime)
	})

	for _, file := range files[:len(files)-c.capacity] {
		if err := os.Remove(filepath.Join(c.dir, file.name)); err != nil {
			logging.Warn("failed to evict cache entry", logging.Fields{
				"key":   file.name,
				"error": err.Error(),
			})
		}
	}
}

// writeFileAtomic writes data through a temp file in the same
// directory and renames it into place, so readers never observe a
// partially written entry.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)

	f, err := os.CreateTemp(dir, ".tmp-")
	if err != nil {
		return err
	}
	tempPath := f.Name()

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tempPath)
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tempPath)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tempPath)
		return err
	}

	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return err
	}

	return nil
}
