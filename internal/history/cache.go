package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/storeledger/internal/parties"
)

const keyPrefix = "storeledger:history"

// Cache stores party projections in Redis under a per-party version. Bumping the version
// makes every older key unreachable, so a write never has to enumerate what it affects.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group

	mu    sync.Mutex
	dirty map[parties.Ref]struct{}
}

// NewCache instantiates the cache helper. A nil client disables caching.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{client: client, ttl: ttl, dirty: make(map[parties.Ref]struct{})}
}

func versionKey(party parties.Ref) string {
	return strings.Join([]string{keyPrefix, "version", string(party.Kind), party.ID}, ":")
}

// Version returns the party's current cache version, initialising when missing.
func (c *Cache) Version(ctx context.Context, party parties.Ref) (int64, error) {
	ver, err := c.client.Get(ctx, versionKey(party)).Int64()
	if errors.Is(err, redis.Nil) {
		if err := c.client.SetNX(ctx, versionKey(party), 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, versionKey(party)).Int64()
	}
	return ver, err
}

// BuildKey composes the data key for a view of the party at its current version.
func (c *Cache) BuildKey(ctx context.Context, party parties.Ref, view string) (string, error) {
	ver, err := c.Version(ctx, party)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%s:%s:%s:v%d", keyPrefix, view, party.Kind, party.ID, ver), nil
}

// FetchJSON loads a cached view or populates it using the loader. Concurrent misses for the
// same key share one load. Redis failures fall through to the loader.
func (c *Cache) FetchJSON(ctx context.Context, party parties.Ref, view string, dest any, loader func(context.Context) (any, error)) error {
	if loader == nil {
		return errors.New("history cache: loader required")
	}
	if !c.enabled() || c.isDirty(party) {
		return loadInto(ctx, dest, loader)
	}
	key, err := c.BuildKey(ctx, party, view)
	if err != nil {
		return loadInto(ctx, dest, loader)
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		return json.Unmarshal(payload, dest)
	}
	if !errors.Is(err, redis.Nil) {
		return loadInto(ctx, dest, loader)
	}

	raw, err, _ := c.group.Do(key, func() (any, error) {
		value, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		_ = c.client.Set(ctx, key, raw, c.ttl).Err()
		return raw, nil
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(raw.([]byte), dest)
}

// Bump invalidates every cached view of the party. When Redis cannot be reached the party
// is served from the database until a later bump succeeds.
func (c *Cache) Bump(ctx context.Context, party parties.Ref) error {
	if !c.enabled() {
		return nil
	}
	if err := c.client.Incr(ctx, versionKey(party)).Err(); err != nil {
		c.markDirty(party, true)
		return err
	}
	c.markDirty(party, false)
	return nil
}

func (c *Cache) enabled() bool {
	return c != nil && c.client != nil
}

func (c *Cache) isDirty(party parties.Ref) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.dirty[party]
	return ok
}

func (c *Cache) markDirty(party parties.Ref, dirty bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if dirty {
		c.dirty[party] = struct{}{}
	} else {
		delete(c.dirty, party)
	}
}

func loadInto(ctx context.Context, dest any, loader func(context.Context) (any, error)) error {
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}
