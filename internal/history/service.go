// Package history reconstructs per-party views at read time: invoice-like history,
// payments, balance and a combined statement.
package history

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/storeledger/internal/ledger"
	"github.com/odyssey-erp/storeledger/internal/parties"
	"github.com/odyssey-erp/storeledger/internal/shared"
)

type Service struct {
	store  Store
	cache  *Cache
	logger *slog.Logger
}

// NewService builds the projection service. cache may be nil.
func NewService(store Store, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{store: store, cache: cache, logger: logger}
}

// PartyHistory returns invoices and maal-only entries, newest first.
func (s *Service) PartyHistory(ctx context.Context, party parties.Ref) ([]Row, error) {
	if err := check(party); err != nil {
		return nil, err
	}
	var out []Row
	err := s.cache.FetchJSON(ctx, party, "rows", &out, func(ctx context.Context) (any, error) {
		return s.store.PartyHistory(ctx, party)
	})
	if err != nil {
		return nil, fmt.Errorf("party history: %w", err)
	}
	return out, nil
}

// PartyPayments returns jama rows, newest first.
func (s *Service) PartyPayments(ctx context.Context, party parties.Ref) ([]Payment, error) {
	if err := check(party); err != nil {
		return nil, err
	}
	var out []Payment
	err := s.cache.FetchJSON(ctx, party, "payments", &out, func(ctx context.Context) (any, error) {
		return s.store.PartyPayments(ctx, party)
	})
	if err != nil {
		return nil, fmt.Errorf("party payments: %w", err)
	}
	return out, nil
}

// Balance returns Σmaal − Σjama. It is always read from the database.
func (s *Service) Balance(ctx context.Context, party parties.Ref) (ledger.Balance, error) {
	if err := check(party); err != nil {
		return ledger.Balance{}, err
	}
	maal, jama, err := s.store.PartyTotals(ctx, party)
	if err != nil {
		return ledger.Balance{}, fmt.Errorf("party totals: %w", err)
	}
	return ledger.NewBalance(party, maal, jama), nil
}

// Statement fetches the three views concurrently.
func (s *Service) Statement(ctx context.Context, party parties.Ref) (*Statement, error) {
	if err := check(party); err != nil {
		return nil, err
	}
	st := &Statement{Party: party}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.PartyHistory(gctx, party)
		st.History = rows
		return err
	})
	g.Go(func() error {
		rows, err := s.PartyPayments(gctx, party)
		st.Payments = rows
		return err
	})
	g.Go(func() error {
		b, err := s.Balance(gctx, party)
		st.Balance = b
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return st, nil
}

// Invalidate drops cached views of the party. Writers call it after commit.
func (s *Service) Invalidate(ctx context.Context, party parties.Ref) {
	if err := s.cache.Bump(ctx, party); err != nil {
		s.logger.Warn("history cache invalidation failed",
			slog.String("party", party.String()),
			slog.Any("error", err),
		)
	}
}

func check(party parties.Ref) error {
	if !party.Kind.Valid() {
		return shared.NewValidationError("kind", "unknown party kind")
	}
	if party.ID == "" {
		return shared.NewValidationError("id", "is required")
	}
	return nil
}
