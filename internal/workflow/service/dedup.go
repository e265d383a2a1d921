package service

import "sync"

// keyedMutex hands out one mutex per dedup key. Entries are never evicted:
// the key space is bounded by live entities and a stale mutex is harmless,
// whereas eviction would reopen the race the lock exists to close.
type keyedMutex struct {
	locks sync.Map // string -> *sync.Mutex
}

// lock acquires the mutex for the key and returns its unlock function.
func (k *keyedMutex) lock(key string) func() {
	v, _ := k.locks.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
