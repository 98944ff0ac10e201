package symbols

import (
	"sort"
	"sync"

	"github.com/ianlancetaylor/demangle"
)

// demangleCache memoizes demangled names; symbol tables of firmware images
// repeat the same C++ prefixes many times.
type demangleCache struct {
	mu    sync.RWMutex
	names map[string]string
	hits  map[string]int
}

var cache = &demangleCache{
	names: make(map[string]string),
	hits:  make(map[string]int),
}

// Demangle returns the demangled form of a C++ symbol name, or name itself
// when it is not mangled.
func Demangle(name string) string {
	cache.mu.RLock()
	if d, ok := cache.names[name]; ok {
		cache.mu.RUnlock()
		cache.mu.Lock()
		cache.hits[name]++
		cache.mu.Unlock()
		return d
	}
	cache.mu.RUnlock()

	d := demangle.Filter(name, demangle.NoClones)

	cache.mu.Lock()
	cache.names[name] = d
	cache.mu.Unlock()
	return d
}

// CacheStats reports how many names were demangled, how many lookups were
// served from the cache and the most requested names.
func CacheStats() (total, hits int, top []string) {
	cache.mu.RLock()
	defer cache.mu.RUnlock()

	for name, n := range cache.hits {
		hits += n
		top = append(top, name)
	}
	sort.Slice(top, func(i, j int) bool {
		if cache.hits[top[i]] != cache.hits[top[j]] {
			return cache.hits[top[i]] > cache.hits[top[j]]
		}
		return top[i] < top[j]
	})
	if len(top) > 5 {
		top = top[:5]
	}
	return len(cache.names), hits, top
}
