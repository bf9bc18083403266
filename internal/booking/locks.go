package booking

import (
	"sort"
	"sync"
)

// keyedMutex serializes critical sections per resource key. Keys are locked
// in sorted order and deduplicated first, so multi-resource operations can't
// deadlock against each other.
type keyedMutex struct {
	mu   sync.Mutex
	held map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{held: map[string]*lockEntry{}}
}

// Lock acquires every key and returns the release function.
func (k *keyedMutex) Lock(keys ...string) func() {
	ks := normalizeKeys(keys)
	for _, key := range ks {
		k.lockOne(key)
	}
	return func() {
		for i := len(ks) - 1; i >= 0; i-- {
			k.unlockOne(ks[i])
		}
	}
}

func (k *keyedMutex) lockOne(key string) {
	k.mu.Lock()
	e := k.held[key]
	if e == nil {
		e = &lockEntry{}
		k.held[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
}

func (k *keyedMutex) unlockOne(key string) {
	k.mu.Lock()
	e := k.held[key]
	e.refs--
	if e.refs == 0 {
		delete(k.held, key)
	}
	k.mu.Unlock()

	e.mu.Unlock()
}

// coveredBy reports whether every wanted key is among the held keys.
func coveredBy(want, held []string) bool {
	set := make(map[string]struct{}, len(held))
	for _, key := range held {
		set[key] = struct{}{}
	}
	for _, key := range want {
		if _, ok := set[key]; !ok {
			return false
		}
	}
	return true
}

func normalizeKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}
