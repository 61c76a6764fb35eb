package timedcache

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// timedEntry provides a wrapper to store an entry in an LRU cache, with a
// specified expiration time
type timedEntry[V any] struct {
	expiresAt time.Time
	value     V
}

// expired returns whether or not the given entry has expired
func (te *timedEntry[V]) expired(now time.Time) bool {
	return now.After(te.expiresAt)
}

// TimedCache defines a new cache, where entries are removed after exceeding
// their ttl. The entry is not guaranteed to live this long (i.e. if it gets
// evicted when the cache fills up). Conversely, the entry also isn't guaranteed
// to expire at exactly the ttl time. The expiration mechanism is 'lazy', and
// will only remove expired objects at next access.
type TimedCache[K comparable, V any] struct {
	ttl   time.Duration                // Time to live of every entry
	cache *lru.Cache[K, timedEntry[V]] // Underlying size-limited LRU cache
	lock  sync.Mutex

	now func() time.Time
}

// New creates a new cache with a given size and ttl. A non-positive ttl keeps
// entries until they are pushed out by newer ones.
func New[K comparable, V any](size int, ttl time.Duration) (*TimedCache[K, V], error) {
	cache, err := lru.New[K, timedEntry[V]](size)
	if err != nil {
		return nil, err
	}
	return &TimedCache[K, V]{
		ttl:   ttl,
		cache: cache,
		now:   time.Now,
	}, nil
}

// calcExpireTime calculates the expiration time given a TTL relative to now.
func (tc *TimedCache[K, V]) calcExpireTime() time.Time {
	if tc.ttl <= 0 {
		return time.Unix(1<<62, 0)
	}
	return tc.now().Add(tc.ttl)
}

// removeExpired removes any expired entries from the cache
func (tc *TimedCache[K, V]) removeExpired() {
	now := tc.now()
	for _, k := range tc.cache.Keys() {
		if v, ok := tc.cache.Peek(k); ok && v.expired(now) {
			tc.cache.Remove(k)
		}
	}
}

// Purge is used to completely clear the cache.
func (tc *TimedCache[K, V]) Purge() {
	tc.lock.Lock()
	defer tc.lock.Unlock()
	tc.cache.Purge()
}

// Add adds a value to the cache. Returns true if an eviction occurred.
func (tc *TimedCache[K, V]) Add(key K, value V) (evicted bool) {
	tc.lock.Lock()
	defer tc.lock.Unlock()
	// First remove expired entries, so that LRU cache doesn't evict more than
	// necessary, if there is not enough room to add this entry.
	tc.removeExpired()
	return tc.cache.Add(key, timedEntry[V]{expiresAt: tc.calcExpireTime(), value: value})
}

// Get looks up a key's value from the cache, removing it if it has expired.
func (tc *TimedCache[K, V]) Get(key K) (value V, ok bool) {
	tc.lock.Lock()
	defer tc.lock.Unlock()
	v, ok := tc.cache.Get(key)
	if !ok {
		return value, false
	}
	if v.expired(tc.now()) {
		tc.cache.Remove(key)
		return value, false
	}
	return v.value, true
}

// Contains checks if a key is in the cache, without updating the
// recent-ness or deleting it for being stale.
func (tc *TimedCache[K, V]) Contains(key K) bool {
	tc.lock.Lock()
	defer tc.lock.Unlock()
	v, ok := tc.cache.Peek(key)
	return ok && !v.expired(tc.now())
}

// Remove removes the provided key from the cache.
func (tc *TimedCache[K, V]) Remove(key K) (present bool) {
	tc.lock.Lock()
	defer tc.lock.Unlock()
	return tc.cache.Remove(key)
}

// Values returns the live values, from oldest to newest.
func (tc *TimedCache[K, V]) Values() []V {
	tc.lock.Lock()
	defer tc.lock.Unlock()
	return tc.values()
}

// Drain returns the live values, from oldest to newest, and empties the cache.
func (tc *TimedCache[K, V]) Drain() []V {
	tc.lock.Lock()
	defer tc.lock.Unlock()
	values := tc.values()
	tc.cache.Purge()
	return values
}

func (tc *TimedCache[K, V]) values() []V {
	tc.removeExpired()
	keys := tc.cache.Keys()
	values := make([]V, 0, len(keys))
	for _, k := range keys {
		if v, ok := tc.cache.Peek(k); ok {
			values = append(values, v.value)
		}
	}
	return values
}

// Len returns the number of items in the cache.
func (tc *TimedCache[K, V]) Len() int {
	tc.lock.Lock()
	defer tc.lock.Unlock()
	tc.removeExpired()
	return tc.cache.Len()
}

// Ttl returns the time each item is allowed to live (except if evicted to
// free up space)
func (tc *TimedCache[K, V]) Ttl() time.Duration {
	return tc.ttl
}
