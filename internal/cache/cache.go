// Package cache keeps short-lived JSON copies of listings used to resolve
// names to IDs, so repeated lookups skip a round trip.
//
// Entries are scoped per listing and portal. Default TTL is 5 minutes.
// Disable with BYNDER_NO_CACHE=1; relocate with BYNDER_CACHE_DIR.
package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const DefaultTTL = 5 * time.Minute

type entry struct {
	Portal   string          `json:"portal"`
	CachedAt time.Time       `json:"cached_at"`
	Items    json.RawMessage `json:"items"`
}

// Store reads and writes one listing for one portal. A nil *Store is a
// cache that always misses.
type Store struct {
	path   string
	portal string
	ttl    time.Duration
	now    func() time.Time
}

// NewStore creates a Store with DefaultTTL. key names the listing (for
// example "metaproperties") and baseURL the portal it came from.
func NewStore(dir, key, baseURL string) *Store {
	return NewStoreWithTTL(dir, key, baseURL, DefaultTTL)
}

// NewStoreWithTTL creates a Store with a custom TTL.
func NewStoreWithTTL(dir, key, baseURL string, ttl time.Duration) *Store {
	portal := strings.TrimRight(strings.ToLower(strings.TrimSpace(baseURL)), "/")
	sum := sha1.Sum([]byte(portal))
	name := sanitizeKey(key) + "_" + hex.EncodeToString(sum[:6]) + ".json"
	return &Store{
		path:   filepath.Join(dir, name),
		portal: portal,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Path returns the cache file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Get loads cached items into dst. It returns false on a miss: no file,
// expired entry, another portal's entry, or caching disabled.
func (s *Store) Get(dst any) bool {
	if s == nil || disabled() {
		return false
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return false
	}
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return false
	}
	if e.Portal != s.portal || s.now().Sub(e.CachedAt) > s.ttl {
		return false
	}
	return json.Unmarshal(e.Items, dst) == nil
}

// Put writes items to the cache. Failures are ignored.
func (s *Store) Put(items any) {
	if s == nil || disabled() {
		return
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return
	}
	data, err := json.Marshal(entry{Portal: s.portal, CachedAt: s.now(), Items: raw})
	if err != nil {
		return
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return
	}
	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		_ = os.Remove(tmp.Name())
		return
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		_ = os.Remove(tmp.Name())
	}
}

// Clear removes this store's file.
func (s *Store) Clear() {
	if s == nil {
		return
	}
	_ = os.Remove(s.path)
}

// ClearAll removes every cache file in dir and returns how many were
// removed. Files not named like cache entries are left alone.
func ClearAll(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !isCacheFilename(e.Name()) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}

// DefaultDir returns $BYNDER_CACHE_DIR, or bynder-cli under the user cache
// directory.
func DefaultDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv("BYNDER_CACHE_DIR")); dir != "" {
		return dir, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "bynder-cli"), nil
}

func disabled() bool {
	return os.Getenv("BYNDER_NO_CACHE") != ""
}

func sanitizeKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return "cache"
	}
	return strings.NewReplacer("/", "-", "\\", "-", "_", "-").Replace(key)
}

// isCacheFilename matches "<key>_<12 hex>.json".
func isCacheFilename(name string) bool {
	base, ok := strings.CutSuffix(name, ".json")
	if !ok {
		return false
	}
	key, hash, ok := strings.Cut(base, "_")
	if !ok || key == "" || len(hash) != 12 {
		return false
	}
	_, err := hex.DecodeString(hash)
	return err == nil
}
