package memory

import (
	"context"
	"sync"

	"github.com/fuego/backoffice/store"
)

// KV is a map-backed store.KV.
type KV struct {
	mu   sync.RWMutex
	data map[string][]byte
	err  error
}

var _ store.KV = (*KV)(nil)

func NewKV() *KV {
	return &KV{data: make(map[string][]byte)}
}

// FailWith makes every call fail with err; nil clears it.
func (k *KV) FailWith(err error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.err = err
}

func (k *KV) Get(_ context.Context, key string) ([]byte, bool, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.err != nil {
		return nil, false, k.err
	}
	p, ok := k.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), p...), true, nil
}

func (k *KV) Set(_ context.Context, key string, payload []byte) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.err != nil {
		return k.err
	}
	k.data[key] = append([]byte(nil), payload...)
	return nil
}

func (k *KV) Close() error { return nil }
