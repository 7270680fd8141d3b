package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/storeledger/internal/shared"
)

// EnsureProduct makes code resolvable, inserting a stub named after the code when it is
// unknown. Soft deleted products count as existing.
func EnsureProduct(ctx context.Context, store StubStore, code string) (EnsureResult, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return EnsureResult{}, shared.NewValidationError("product_code", "is required")
	}
	created, err := store.InsertProductStub(ctx, code)
	if err != nil {
		return EnsureResult{}, fmt.Errorf("ensure product %s: %w", code, err)
	}
	p, err := store.GetProduct(ctx, code)
	if err != nil {
		return EnsureResult{}, fmt.Errorf("ensure product %s: %w", code, err)
	}
	return EnsureResult{Product: *p, Created: created}, nil
}

// Service manages the price list.
type Service struct {
	repo     Repository
	validate *validator.Validate
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, validate: shared.NewValidator()}
}

func (s *Service) List(ctx context.Context, req ListRequest) ([]Product, error) {
	return s.repo.ListProducts(ctx, req)
}

// Get resolves a code, including soft deleted products.
func (s *Service) Get(ctx context.Context, code string) (*Product, error) {
	return s.repo.GetProduct(ctx, strings.TrimSpace(code))
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*Product, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Size = strings.TrimSpace(req.Size)
	if err := shared.ValidateStruct(s.validate, req); err != nil {
		return nil, err
	}
	code := strings.TrimSpace(req.Code)
	if code == "" {
		code = Slug(req.Name, req.Size)
	}
	if code == "" {
		return nil, shared.NewValidationError("code", "cannot be derived from name and size")
	}
	return s.repo.InsertProduct(ctx, Product{
		Code:         code,
		Name:         req.Name,
		Size:         req.Size,
		PackingType:  strings.TrimSpace(req.PackingType),
		CostPrice:    req.CostPrice,
		SellingPrice: req.SellingPrice,
	})
}

func (s *Service) Update(ctx context.Context, code string, req UpdateRequest) (*Product, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := shared.ValidateStruct(s.validate, req); err != nil {
		return nil, err
	}
	return s.repo.UpdateProduct(ctx, Product{
		Code:         strings.TrimSpace(code),
		Name:         req.Name,
		Size:         strings.TrimSpace(req.Size),
		PackingType:  strings.TrimSpace(req.PackingType),
		CostPrice:    req.CostPrice,
		SellingPrice: req.SellingPrice,
	})
}

// Delete hides the product from the price list. The row stays so historical lines resolve.
func (s *Service) Delete(ctx context.Context, code string) error {
	return s.repo.SetProductDeleted(ctx, strings.TrimSpace(code), true)
}

func (s *Service) Restore(ctx context.Context, code string) error {
	return s.repo.SetProductDeleted(ctx, strings.TrimSpace(code), false)
}

// Ensure exposes EnsureProduct outside an aggregate write.
func (s *Service) Ensure(ctx context.Context, code string) (EnsureResult, error) {
	return EnsureProduct(ctx, s.repo, code)
}
