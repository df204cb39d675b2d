package verification

import (
	"hash/fnv"
	"sync"
)

// KeyedMutex serializes callers that share a key. Keys hash onto a fixed set
// of stripes, so unrelated keys may occasionally wait on each other.
type KeyedMutex struct {
	stripes []sync.Mutex
}

func NewKeyedMutex(stripes int) *KeyedMutex {
	if stripes <= 0 {
		stripes = 64
	}
	return &KeyedMutex{stripes: make([]sync.Mutex, stripes)}
}

// Lock locks key and returns the matching unlock func.
func (k *KeyedMutex) Lock(key string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	m := &k.stripes[h.Sum32()%uint32(len(k.stripes))]
	m.Lock()
	return m.Unlock
}
