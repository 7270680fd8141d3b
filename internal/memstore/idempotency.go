package memstore

import (
	"context"
	"errors"
	"sync"

	"github.com/odyssey-erp/storeledger/internal/shared"
)

type keyOp struct{ key, op string }

// Keys is an in-process Idempotency-Key registry.
type Keys struct {
	mu   sync.Mutex
	seen map[keyOp]struct{}
}

// Idempotency returns the key registry shared by this database.
func (d *DB) Idempotency() *Keys {
	d.keysOnce.Do(func() { d.keys = &Keys{seen: map[keyOp]struct{}{}} })
	return d.keys
}

func (k *Keys) CheckAndInsert(ctx context.Context, key, operation string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" || operation == "" {
		return errors.New("idempotency key and operation required")
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	id := keyOp{key, operation}
	if _, ok := k.seen[id]; ok {
		return shared.ErrIdempotencyConflict
	}
	k.seen[id] = struct{}{}
	return nil
}

func (k *Keys) Delete(_ context.Context, key, operation string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.seen, keyOp{key, operation})
	return nil
}
