package invoicing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/storeledger/internal/catalog"
	"github.com/odyssey-erp/storeledger/internal/ledger"
	"github.com/odyssey-erp/storeledger/internal/parties"
	"github.com/odyssey-erp/storeledger/internal/sequence"
	"github.com/odyssey-erp/storeledger/internal/shared"
)

// Service is the single write API for the invoice aggregate: header, lines, product
// stubs and the maal mirror always change inside one transaction.
type Service struct {
	repo        Repository
	alloc       *sequence.Allocator
	mirror      *ledger.Mirror
	invalidator ledger.Invalidator
	logger      *slog.Logger
	validate    *validator.Validate
}

func NewService(repo Repository, alloc *sequence.Allocator, mirror *ledger.Mirror, invalidator ledger.Invalidator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		repo:        repo,
		alloc:       alloc,
		mirror:      mirror,
		invalidator: invalidator,
		logger:      logger,
		validate:    shared.NewValidator(),
	}
}

// Create allocates an invoice number and writes the aggregate.
func (s *Service) Create(ctx context.Context, req Request) (*Result, error) {
	inv, err := s.prepare(req)
	if err != nil {
		return nil, err
	}
	var created []string
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := requireCustomer(ctx, tx, inv.CustomerID); err != nil {
			return err
		}
		id, err := s.alloc.Next(ctx, tx, sequence.DocInvoice)
		if err != nil {
			return err
		}
		inv.ID = id
		if err := tx.InsertInvoice(ctx, inv); err != nil {
			return fmt.Errorf("insert invoice: %w", err)
		}
		created, err = writeLines(ctx, tx, inv)
		if err != nil {
			return err
		}
		return s.mirror.RecordInvoiceCreated(ctx, tx, inv.Snapshot())
	})
	if err != nil {
		return nil, err
	}
	s.logStubs(inv.ID, created)
	s.invalidate(ctx, inv.CustomerID)
	return s.result(ctx, inv.ID, created)
}

// Update replaces the header fields and the full line set, then propagates to the mirror.
func (s *Service) Update(ctx context.Context, id string, req Request) (*Result, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, shared.NewValidationError("invoice_id", "is required")
	}
	inv, err := s.prepare(req)
	if err != nil {
		return nil, err
	}
	inv.ID = id
	var previousCustomer string
	var created []string
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		existing, err := tx.LockInvoice(ctx, id)
		if err != nil {
			return err
		}
		previousCustomer = existing.CustomerID
		if err := requireCustomer(ctx, tx, inv.CustomerID); err != nil {
			return err
		}
		n, err := tx.UpdateInvoiceHeader(ctx, inv)
		if err != nil {
			return fmt.Errorf("update invoice: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("invoice %s: %w", id, shared.ErrNotFound)
		}
		if _, err := tx.DeleteInvoiceLines(ctx, id); err != nil {
			return fmt.Errorf("delete invoice lines: %w", err)
		}
		created, err = writeLines(ctx, tx, inv)
		if err != nil {
			return err
		}
		return s.mirror.RecordInvoiceUpdated(ctx, tx, inv.Snapshot())
	})
	if err != nil {
		return nil, err
	}
	s.logStubs(id, created)
	s.invalidate(ctx, previousCustomer)
	if previousCustomer != inv.CustomerID {
		s.invalidate(ctx, inv.CustomerID)
	}
	return s.result(ctx, id, created)
}

// Delete removes lines, the maal row and the header. Unknown ids yield shared.ErrNotFound.
func (s *Service) Delete(ctx context.Context, id string) error {
	var customer string
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		existing, err := tx.LockInvoice(ctx, id)
		if err != nil {
			return err
		}
		customer = existing.CustomerID
		if err := s.mirror.RecordInvoiceDeleted(ctx, tx, id); err != nil {
			return err
		}
		return s.alloc.Release(ctx, tx, id)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, customer)
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (*Invoice, error) {
	return s.repo.GetInvoice(ctx, strings.TrimSpace(id))
}

func (s *Service) List(ctx context.Context, req ListRequest) ([]Invoice, error) {
	return s.repo.ListInvoices(ctx, req)
}

// NextID previews the identifier the next Create would claim.
func (s *Service) NextID(ctx context.Context) (string, error) {
	var id string
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		id, err = s.alloc.Preview(ctx, tx, sequence.DocInvoice)
		return err
	})
	return id, err
}

// prepare validates the request and computes the header before any transaction opens.
func (s *Service) prepare(req Request) (Invoice, error) {
	req.CustomerID = strings.TrimSpace(req.CustomerID)
	for i := range req.Items {
		req.Items[i].ProductCode = strings.TrimSpace(req.Items[i].ProductCode)
	}
	if err := shared.ValidateStruct(s.validate, req); err != nil {
		return Invoice{}, err
	}
	lines := make([]Line, len(req.Items))
	for i, item := range req.Items {
		lines[i] = Line{
			LineNo:       i + 1,
			ProductCode:  item.ProductCode,
			Quantity:     item.Quantity,
			SellingPrice: item.SellingPrice,
		}
	}
	return Invoice{
		CustomerID: req.CustomerID,
		Date:       req.Date,
		Remark:     req.Remark,
		Packing:    req.Packing,
		Freight:    req.Freight,
		Riksha:     req.Riksha,
		GrandTotal: GrandTotal(lines, req.Packing, req.Freight, req.Riksha),
		Lines:      lines,
	}, nil
}

// writeLines ensures each product before inserting its line and returns the codes that
// were created as stubs.
func writeLines(ctx context.Context, tx TxRepository, inv Invoice) ([]string, error) {
	var created []string
	for _, line := range inv.Lines {
		res, err := catalog.EnsureProduct(ctx, tx, line.ProductCode)
		if err != nil {
			return nil, err
		}
		if res.Created {
			created = append(created, line.ProductCode)
		}
		if err := tx.InsertInvoiceLine(ctx, inv.ID, line); err != nil {
			return nil, fmt.Errorf("insert line %d: %w", line.LineNo, err)
		}
	}
	return created, nil
}

func (s *Service) result(ctx context.Context, id string, created []string) (*Result, error) {
	inv, err := s.repo.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Result{InvoiceID: id, Invoice: inv, CreatedProducts: created}, nil
}

func (s *Service) logStubs(invoiceID string, codes []string) {
	for _, code := range codes {
		s.logger.Info("product stub created", slog.String("invoice_id", invoiceID), slog.String("product_code", code))
	}
}

func (s *Service) invalidate(ctx context.Context, customerID string) {
	if s.invalidator != nil && customerID != "" {
		s.invalidator.Invalidate(ctx, parties.Ref{Kind: parties.KindCustomer, ID: customerID})
	}
}

func requireCustomer(ctx context.Context, tx TxRepository, id string) error {
	ok, err := tx.PartyExists(ctx, parties.Ref{Kind: parties.KindCustomer, ID: id})
	if err != nil {
		return fmt.Errorf("verify customer: %w", err)
	}
	if !ok {
		return fmt.Errorf("customer %s: %w", id, shared.ErrNotFound)
	}
	return nil
}
