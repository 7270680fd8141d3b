package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/storeledger/internal/parties"
	"github.com/odyssey-erp/storeledger/internal/sequence"
	"github.com/odyssey-erp/storeledger/internal/shared"
)

// Invalidator drops cached projections of a party after a committed write.
type Invalidator interface {
	Invalidate(ctx context.Context, party parties.Ref)
}

// Service implements maal and jama operations.
type Service struct {
	repo        Repository
	alloc       *sequence.Allocator
	mirror      *Mirror
	invalidator Invalidator
	logger      *slog.Logger
	validate    *validator.Validate
}

// NewService wires the ledger service. invalidator may be nil.
func NewService(repo Repository, alloc *sequence.Allocator, mirror *Mirror, invalidator Invalidator, logger *slog.Logger) *Service {
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

// CreateMaal records a maal-only entry, allocating an invoice number when none is given.
func (s *Service) CreateMaal(ctx context.Context, req CreateMaalRequest) (*MaalEntry, error) {
	req.PartyID = strings.TrimSpace(req.PartyID)
	req.InvoiceNo = strings.TrimSpace(req.InvoiceNo)
	if err := shared.ValidateStruct(s.validate, req); err != nil {
		return nil, err
	}
	entry := MaalEntry{
		PartyKind: req.PartyKind,
		PartyID:   req.PartyID,
		InvoiceNo: req.InvoiceNo,
		Date:      req.Date,
		Amount:    req.Amount,
		Remark:    req.Remark,
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := requireParty(ctx, tx, entry.Party()); err != nil {
			return err
		}
		if entry.InvoiceNo == "" {
			id, err := s.alloc.Next(ctx, tx, sequence.DocInvoice)
			if err != nil {
				return err
			}
			entry.InvoiceNo = id
		} else {
			taken, err := tx.MaalNumberTaken(ctx, entry.InvoiceNo)
			if err != nil {
				return fmt.Errorf("check maal number: %w", err)
			}
			if taken {
				return &shared.ConstraintError{Constraint: "maal_invoice_no_key", Message: "invoice number " + entry.InvoiceNo + " already recorded"}
			}
			if err := s.alloc.Reserve(ctx, tx, sequence.DocInvoice, entry.InvoiceNo); err != nil {
				return err
			}
		}
		id, err := tx.InsertMaal(ctx, entry)
		if err != nil {
			return fmt.Errorf("insert maal: %w", err)
		}
		entry.ID = id
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, entry.Party())
	return s.repo.GetMaal(ctx, entry.ID)
}

// UpdateMaal edits a maal-only entry. Entries mirrored from an invoice change only
// through the invoice.
func (s *Service) UpdateMaal(ctx context.Context, id int64, req UpdateMaalRequest) (*MaalEntry, error) {
	if err := shared.ValidateStruct(s.validate, req); err != nil {
		return nil, err
	}
	var party parties.Ref
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		existing, err := tx.GetMaal(ctx, id)
		if err != nil {
			return err
		}
		if existing.Linked {
			return &shared.ConstraintError{Constraint: "maal_mirrors_invoice", Message: "maal entry " + existing.InvoiceNo + " mirrors an invoice; update the invoice instead"}
		}
		party = existing.Party()
		existing.Date, existing.Amount, existing.Remark = req.Date, req.Amount, req.Remark
		n, err := tx.UpdateMaal(ctx, *existing)
		if err != nil {
			return fmt.Errorf("update maal: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("maal %d: %w", id, shared.ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, party)
	return s.repo.GetMaal(ctx, id)
}

// DeleteMaal removes a maal entry. Deleting a mirrored entry deletes its whole invoice.
func (s *Service) DeleteMaal(ctx context.Context, id int64) error {
	var party parties.Ref
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		existing, err := tx.GetMaal(ctx, id)
		if err != nil {
			return err
		}
		party = existing.Party()
		if existing.Linked {
			if err := s.mirror.RecordInvoiceDeleted(ctx, tx, existing.InvoiceNo); err != nil {
				return err
			}
		} else {
			n, err := tx.DeleteMaal(ctx, id)
			if err != nil {
				return fmt.Errorf("delete maal: %w", err)
			}
			if n == 0 {
				return fmt.Errorf("maal %d: %w", id, shared.ErrNotFound)
			}
		}
		return s.alloc.Release(ctx, tx, existing.InvoiceNo)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, party)
	return nil
}

func (s *Service) GetMaal(ctx context.Context, id int64) (*MaalEntry, error) {
	return s.repo.GetMaal(ctx, id)
}

func (s *Service) ListMaal(ctx context.Context, party parties.Ref) ([]MaalEntry, error) {
	return s.repo.ListMaal(ctx, party)
}

// CreateJama records a payment.
func (s *Service) CreateJama(ctx context.Context, req JamaRequest) (*JamaEntry, error) {
	entry, err := s.jamaFromRequest(req)
	if err != nil {
		return nil, err
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := requireParty(ctx, tx, entry.Party()); err != nil {
			return err
		}
		id, err := tx.InsertJama(ctx, entry)
		if err != nil {
			return fmt.Errorf("insert jama: %w", err)
		}
		entry.ID = id
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, entry.Party())
	return s.repo.GetJama(ctx, entry.ID)
}

func (s *Service) UpdateJama(ctx context.Context, id int64, req JamaRequest) (*JamaEntry, error) {
	entry, err := s.jamaFromRequest(req)
	if err != nil {
		return nil, err
	}
	entry.ID = id
	var previous parties.Ref
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		existing, err := tx.GetJama(ctx, id)
		if err != nil {
			return err
		}
		previous = existing.Party()
		if err := requireParty(ctx, tx, entry.Party()); err != nil {
			return err
		}
		n, err := tx.UpdateJama(ctx, entry)
		if err != nil {
			return fmt.Errorf("update jama: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("jama %d: %w", id, shared.ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, previous)
	if previous != entry.Party() {
		s.invalidate(ctx, entry.Party())
	}
	return s.repo.GetJama(ctx, id)
}

func (s *Service) DeleteJama(ctx context.Context, id int64) error {
	var party parties.Ref
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		existing, err := tx.GetJama(ctx, id)
		if err != nil {
			return err
		}
		party = existing.Party()
		n, err := tx.DeleteJama(ctx, id)
		if err != nil {
			return fmt.Errorf("delete jama: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("jama %d: %w", id, shared.ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, party)
	return nil
}

func (s *Service) GetJama(ctx context.Context, id int64) (*JamaEntry, error) {
	return s.repo.GetJama(ctx, id)
}

func (s *Service) ListJama(ctx context.Context, party parties.Ref) ([]JamaEntry, error) {
	return s.repo.ListJama(ctx, party)
}

// Balance returns Σmaal − Σjama for the party.
func (s *Service) Balance(ctx context.Context, party parties.Ref) (Balance, error) {
	maal, jama, err := s.repo.PartyTotals(ctx, party)
	if err != nil {
		return Balance{}, fmt.Errorf("party totals: %w", err)
	}
	return NewBalance(party, maal, jama), nil
}

func (s *Service) jamaFromRequest(req JamaRequest) (JamaEntry, error) {
	req.PartyID = strings.TrimSpace(req.PartyID)
	req.TxnType = TxnType(strings.ToLower(string(req.TxnType)))
	if err := shared.ValidateStruct(s.validate, req); err != nil {
		return JamaEntry{}, err
	}
	return JamaEntry{
		PartyKind: req.PartyKind,
		PartyID:   req.PartyID,
		Date:      req.Date,
		TxnType:   req.TxnType,
		Amount:    req.Amount,
		Remark:    req.Remark,
	}, nil
}

func (s *Service) invalidate(ctx context.Context, party parties.Ref) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, party)
	}
}

type partyChecker interface {
	PartyExists(ctx context.Context, party parties.Ref) (bool, error)
}

func requireParty(ctx context.Context, tx partyChecker, party parties.Ref) error {
	ok, err := tx.PartyExists(ctx, party)
	if err != nil {
		return fmt.Errorf("verify %s: %w", party.Kind, err)
	}
	if !ok {
		return fmt.Errorf("%s %s: %w", party.Kind, party.ID, shared.ErrNotFound)
	}
	return nil
}
