package orders

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/storeledger/internal/catalog"
	"github.com/odyssey-erp/storeledger/internal/parties"
	"github.com/odyssey-erp/storeledger/internal/sequence"
	"github.com/odyssey-erp/storeledger/internal/shared"
)

// Service writes customer and supplier order aggregates.
type Service struct {
	repo     Repository
	alloc    *sequence.Allocator
	logger   *slog.Logger
	validate *validator.Validate
}

func NewService(repo Repository, alloc *sequence.Allocator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, alloc: alloc, logger: logger, validate: shared.NewValidator()}
}

func (s *Service) Create(ctx context.Context, kind parties.Kind, req Request) (*Result, error) {
	o, err := s.prepare(kind, req)
	if err != nil {
		return nil, err
	}
	var created []string
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := requireParty(ctx, tx, o.Party()); err != nil {
			return err
		}
		id, err := s.alloc.Next(ctx, tx, DocType(kind))
		if err != nil {
			return err
		}
		o.ID = id
		if err := tx.InsertOrder(ctx, o); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		created, err = writeLines(ctx, tx, o)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logStubs(o.ID, created)
	return s.result(ctx, kind, o.ID, created)
}

// Update replaces the header and the whole line set.
func (s *Service) Update(ctx context.Context, kind parties.Kind, id string, req Request) (*Result, error) {
	o, err := s.prepare(kind, req)
	if err != nil {
		return nil, err
	}
	o.ID = strings.TrimSpace(id)
	var created []string
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if _, err := tx.LockOrder(ctx, kind, o.ID); err != nil {
			return err
		}
		if err := requireParty(ctx, tx, o.Party()); err != nil {
			return err
		}
		n, err := tx.UpdateOrderHeader(ctx, o)
		if err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("%s order %s: %w", kind, o.ID, shared.ErrNotFound)
		}
		if _, err := tx.DeleteOrderLines(ctx, kind, o.ID); err != nil {
			return fmt.Errorf("delete order lines: %w", err)
		}
		created, err = writeLines(ctx, tx, o)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logStubs(o.ID, created)
	return s.result(ctx, kind, o.ID, created)
}

// SetStatus changes only the status label.
func (s *Service) SetStatus(ctx context.Context, kind parties.Kind, id, status string) (*Order, error) {
	st, err := ParseStatus(kind, status)
	if err != nil {
		return nil, err
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		n, err := tx.SetOrderStatus(ctx, kind, id, st)
		if err != nil {
			return fmt.Errorf("set order status: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("%s order %s: %w", kind, id, shared.ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetOrder(ctx, kind, id)
}

// Delete removes lines first, then the header.
func (s *Service) Delete(ctx context.Context, kind parties.Kind, id string) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if _, err := tx.DeleteOrderLines(ctx, kind, id); err != nil {
			return fmt.Errorf("delete order lines: %w", err)
		}
		n, err := tx.DeleteOrderHeader(ctx, kind, id)
		if err != nil {
			return fmt.Errorf("delete order: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("%s order %s: %w", kind, id, shared.ErrNotFound)
		}
		return s.alloc.Release(ctx, tx, id)
	})
}

func (s *Service) Get(ctx context.Context, kind parties.Kind, id string) (*Order, error) {
	return s.repo.GetOrder(ctx, kind, id)
}

func (s *Service) List(ctx context.Context, kind parties.Kind, req ListRequest) ([]Order, error) {
	return s.repo.ListOrders(ctx, kind, req)
}

func (s *Service) prepare(kind parties.Kind, req Request) (Order, error) {
	if !kind.Valid() {
		return Order{}, shared.NewValidationError("kind", "unknown order kind")
	}
	req.PartyID = strings.TrimSpace(req.PartyID)
	for i := range req.Items {
		req.Items[i].ProductCode = strings.TrimSpace(req.Items[i].ProductCode)
	}
	if err := shared.ValidateStruct(s.validate, req); err != nil {
		return Order{}, err
	}
	status, err := ParseStatus(kind, req.Status)
	if err != nil {
		return Order{}, err
	}
	lines := make([]Line, len(req.Items))
	for i, item := range req.Items {
		lines[i] = Line{LineNo: i + 1, ProductCode: item.ProductCode, Quantity: item.Quantity}
	}
	return Order{
		Kind:    kind,
		PartyID: req.PartyID,
		Date:    req.Date,
		Remark:  req.Remark,
		Status:  status,
		Lines:   lines,
	}, nil
}

func writeLines(ctx context.Context, tx TxRepository, o Order) ([]string, error) {
	var created []string
	for _, line := range o.Lines {
		res, err := catalog.EnsureProduct(ctx, tx, line.ProductCode)
		if err != nil {
			return nil, err
		}
		if res.Created {
			created = append(created, line.ProductCode)
		}
		if err := tx.InsertOrderLine(ctx, o.Kind, o.ID, line); err != nil {
			return nil, fmt.Errorf("insert line %d: %w", line.LineNo, err)
		}
	}
	return created, nil
}

func (s *Service) result(ctx context.Context, kind parties.Kind, id string, created []string) (*Result, error) {
	o, err := s.repo.GetOrder(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	return &Result{OrderID: id, Order: o, CreatedProducts: created}, nil
}

func (s *Service) logStubs(orderID string, codes []string) {
	for _, code := range codes {
		s.logger.Info("product stub created", slog.String("order_id", orderID), slog.String("product_code", code))
	}
}

func requireParty(ctx context.Context, tx TxRepository, party parties.Ref) error {
	ok, err := tx.PartyExists(ctx, party)
	if err != nil {
		return fmt.Errorf("verify %s: %w", party.Kind, err)
	}
	if !ok {
		return fmt.Errorf("%s %s: %w", party.Kind, party.ID, shared.ErrNotFound)
	}
	return nil
}
