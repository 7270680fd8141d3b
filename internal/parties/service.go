package parties

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/odyssey-erp/storeledger/internal/shared"
)

// Service exposes customer and supplier CRUD.
type Service struct {
	repo     Repository
	validate *validator.Validate
}

// NewService builds a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, validate: shared.NewValidator()}
}

func (s *Service) List(ctx context.Context, kind Kind, req ListRequest) ([]Party, error) {
	if !kind.Valid() {
		return nil, shared.NewValidationError("kind", "unknown party kind")
	}
	return s.repo.List(ctx, kind, req)
}

func (s *Service) Get(ctx context.Context, ref Ref) (*Party, error) {
	if err := checkRef(ref); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, ref)
}

// Create inserts a party, generating an id when the caller leaves it empty.
func (s *Service) Create(ctx context.Context, kind Kind, req CreateRequest) (*Party, error) {
	if !kind.Valid() {
		return nil, shared.NewValidationError("kind", "unknown party kind")
	}
	req.ID = strings.TrimSpace(req.ID)
	req.Name = strings.TrimSpace(req.Name)
	if err := shared.ValidateStruct(s.validate, req); err != nil {
		return nil, err
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	return s.repo.Create(ctx, Party{
		ID:      req.ID,
		Kind:    kind,
		Name:    req.Name,
		Address: strings.TrimSpace(req.Address),
		Mobile:  strings.TrimSpace(req.Mobile),
	})
}

func (s *Service) Update(ctx context.Context, ref Ref, req UpdateRequest) (*Party, error) {
	if err := checkRef(ref); err != nil {
		return nil, err
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := shared.ValidateStruct(s.validate, req); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, Party{
		ID:      ref.ID,
		Kind:    ref.Kind,
		Name:    req.Name,
		Address: strings.TrimSpace(req.Address),
		Mobile:  strings.TrimSpace(req.Mobile),
	})
}

func (s *Service) Delete(ctx context.Context, ref Ref) error {
	if err := checkRef(ref); err != nil {
		return err
	}
	return s.repo.Delete(ctx, ref)
}

func checkRef(ref Ref) error {
	if !ref.Kind.Valid() {
		return shared.NewValidationError("kind", "unknown party kind")
	}
	if strings.TrimSpace(ref.ID) == "" {
		return shared.NewValidationError("id", "is required")
	}
	return nil
}
