package booking

import (
	"sync"
	"testing"
)

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	t.Parallel()
	km := newKeyedMutex()

	const n = 64
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock("equipment:E3")
			counter++
			unlock()
		}()
	}
	wg.Wait()
	if counter != n {
		t.Fatalf("counter = %d, want %d", counter, n)
	}
	if len(km.held) != 0 {
		t.Fatalf("lock table must drain, %d entries left", len(km.held))
	}
}

func TestKeyedMutexMultiKeyOrdering(t *testing.T) {
	t.Parallel()
	km := newKeyedMutex()

	// Opposite acquisition orders must not deadlock because keys are sorted
	// before locking.
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			unlock := km.Lock("a", "b")
			unlock()
		}()
		go func() {
			defer wg.Done()
			unlock := km.Lock("b", "a")
			unlock()
		}()
	}
	wg.Wait()
}

func TestNormalizeKeys(t *testing.T) {
	t.Parallel()
	got := normalizeKeys([]string{"b", "", "a", "b", "a"})
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("normalizeKeys = %v, want [a b]", got)
	}
}
