package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/storeledger/internal/catalog"
	"github.com/odyssey-erp/storeledger/internal/history"
	"github.com/odyssey-erp/storeledger/internal/integrity"
	"github.com/odyssey-erp/storeledger/internal/invoicing"
	jobmetrics "github.com/odyssey-erp/storeledger/internal/jobs"
	"github.com/odyssey-erp/storeledger/internal/ledger"
	"github.com/odyssey-erp/storeledger/internal/memstore"
	"github.com/odyssey-erp/storeledger/internal/observability"
	"github.com/odyssey-erp/storeledger/internal/orders"
	"github.com/odyssey-erp/storeledger/internal/parties"
	"github.com/odyssey-erp/storeledger/internal/platform/cache"
	"github.com/odyssey-erp/storeledger/internal/platform/db"
	"github.com/odyssey-erp/storeledger/internal/schema"
	"github.com/odyssey-erp/storeledger/internal/sequence"
	"github.com/odyssey-erp/storeledger/internal/shared"
)

// Backend is the storage behind every repository, selected by STORAGE_DRIVER.
type Backend struct {
	Driver      string
	Parties     parties.Repository
	Catalog     catalog.Repository
	Ledger      ledger.Repository
	Invoices    invoicing.Repository
	Orders      orders.Repository
	History     history.Store
	Integrity   integrity.Store
	Idempotency IdempotencyKeys
	// Schema is nil for the memory driver, which has no DDL.
	Schema *schema.Manager

	pool *pgxpool.Pool
	mem  *memstore.DB
}

// OpenBackend connects to the configured storage.
func OpenBackend(ctx context.Context, cfg *Config, logger *slog.Logger) (*Backend, error) {
	if cfg.StorageDriver == DriverMemory {
		return MemoryBackend(memstore.New()), nil
	}
	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		return nil, err
	}
	return PostgresBackend(pool, logger), nil
}

// PostgresBackend wraps an open pool.
func PostgresBackend(pool *pgxpool.Pool, logger *slog.Logger) *Backend {
	return &Backend{
		Driver:      DriverPostgres,
		Parties:     parties.NewRepository(pool),
		Catalog:     catalog.NewRepository(pool),
		Ledger:      ledger.NewRepository(pool),
		Invoices:    invoicing.NewRepository(pool),
		Orders:      orders.NewRepository(pool),
		History:     history.NewStore(pool),
		Integrity:   integrity.NewStore(pool),
		Idempotency: shared.NewIdempotencyStore(pool),
		Schema:      schema.NewManager(schema.NewStore(pool), logger),
		pool:        pool,
	}
}

// MemoryBackend wraps an in-process database.
func MemoryBackend(mem *memstore.DB) *Backend {
	return &Backend{
		Driver:      DriverMemory,
		Parties:     mem.Parties(),
		Catalog:     mem.Catalog(),
		Ledger:      mem.Ledger(),
		Invoices:    mem.Invoices(),
		Orders:      mem.Orders(),
		History:     mem.History(),
		Integrity:   mem.Integrity(),
		Idempotency: mem.Idempotency(),
		mem:         mem,
	}
}

// Bootstrap brings the schema up to date. It is a no-op for the memory driver.
func (b *Backend) Bootstrap(ctx context.Context) error {
	if b.Schema == nil {
		return nil
	}
	return b.Schema.Bootstrap(ctx)
}

// Sequences runs fn in a write transaction over the sequence tables.
func (b *Backend) Sequences(ctx context.Context, fn func(context.Context, sequence.Store) error) error {
	if b.mem != nil {
		return b.mem.Sequences(ctx, fn)
	}
	return db.WithWriteTx(ctx, b.pool, func(tx pgx.Tx) error {
		return fn(ctx, sequence.NewStore(tx))
	})
}

// Pool returns the postgres pool, nil for the memory driver.
func (b *Backend) Pool() *pgxpool.Pool { return b.pool }

func (b *Backend) Close() {
	if b.pool != nil {
		b.pool.Close()
	}
}

// Services are the domain services over one backend.
type Services struct {
	Allocator *sequence.Allocator
	Reporter  integrity.Reporter
	Parties   *parties.Service
	Catalog   *catalog.Service
	Ledger    *ledger.Service
	Invoices  *invoicing.Service
	Orders    *orders.Service
	History   *history.Service
	Checker   *integrity.Checker
}

// ServiceDeps carries the optional collaborators of NewServices.
type ServiceDeps struct {
	Logger     *slog.Logger
	Metrics    *observability.Metrics
	JobMetrics *jobmetrics.Metrics
	Redis      *redis.Client
	// Reporter overrides the logging reporter built from Logger and JobMetrics.
	Reporter integrity.Reporter
}

// NewServices wires every service over b.
func NewServices(cfg *Config, b *Backend, deps ServiceDeps) *Services {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	reporter := deps.Reporter
	if reporter == nil {
		reporter = integrity.NewReporter(logger, deps.JobMetrics)
	}
	alloc := &sequence.Allocator{Reporter: reporter}
	if deps.Metrics != nil {
		alloc.Observer = deps.Metrics
	}
	var projections *history.Cache
	if cfg.CacheEnabled && deps.Redis != nil {
		projections = history.NewCache(deps.Redis, cfg.CacheTTL)
	}
	alloc.ReuseFreed = cfg.SequenceReuseFreed
	mirror := &ledger.Mirror{Reporter: reporter}
	hist := history.NewService(b.History, projections, logger)
	return &Services{
		Allocator: alloc,
		Reporter:  reporter,
		Parties:   parties.NewService(b.Parties),
		Catalog:   catalog.NewService(b.Catalog),
		Ledger:    ledger.NewService(b.Ledger, alloc, mirror, hist, logger),
		Invoices:  invoicing.NewService(b.Invoices, alloc, mirror, hist, logger),
		Orders:    orders.NewService(b.Orders, alloc, logger),
		History:   hist,
		Checker:   integrity.NewChecker(b.Integrity, reporter),
	}
}

// PreviewNextID returns the identifier the next document of doc would receive.
func (s *Services) PreviewNextID(ctx context.Context, b *Backend, doc sequence.DocType) (string, error) {
	var id string
	err := b.Sequences(ctx, func(ctx context.Context, store sequence.Store) error {
		var err error
		id, err = s.Allocator.Preview(ctx, store, doc)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("preview %s: %w", doc, err)
	}
	return id, nil
}

// ConnectCache opens the redis client when caching is enabled. A failed ping is
// logged and caching is disabled; projections are then served from storage.
func ConnectCache(ctx context.Context, cfg *Config, logger *slog.Logger) *redis.Client {
	if !cfg.CacheEnabled || cfg.RedisAddr == "" {
		return nil
	}
	client, err := cache.Connect(ctx, cache.Options{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Warn("projection cache disabled", slog.String("addr", cfg.RedisAddr), slog.Any("error", err))
		return nil
	}
	return client
}
