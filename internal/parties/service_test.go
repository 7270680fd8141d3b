package parties

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/storeledger/internal/shared"
)

type mockRepository struct {
	rows      map[Ref]Party
	createErr error
}

func newMockRepository() *mockRepository {
	return &mockRepository{rows: make(map[Ref]Party)}
}

func (m *mockRepository) List(_ context.Context, kind Kind, _ ListRequest) ([]Party, error) {
	var out []Party
	for ref, p := range m.rows {
		if ref.Kind == kind {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockRepository) Get(_ context.Context, ref Ref) (*Party, error) {
	p, ok := m.rows[ref]
	if !ok {
		return nil, fmt.Errorf("%s: %w", ref, shared.ErrNotFound)
	}
	return &p, nil
}

func (m *mockRepository) Create(_ context.Context, p Party) (*Party, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	if _, ok := m.rows[p.Ref()]; ok {
		return nil, &shared.ConstraintError{Message: "duplicate id"}
	}
	m.rows[p.Ref()] = p
	return &p, nil
}

func (m *mockRepository) Update(_ context.Context, p Party) (*Party, error) {
	if _, ok := m.rows[p.Ref()]; !ok {
		return nil, shared.ErrNotFound
	}
	m.rows[p.Ref()] = p
	return &p, nil
}

func (m *mockRepository) Delete(_ context.Context, ref Ref) error {
	if _, ok := m.rows[ref]; !ok {
		return shared.ErrNotFound
	}
	delete(m.rows, ref)
	return nil
}

func TestCreateGeneratesIDWhenMissing(t *testing.T) {
	svc := NewService(newMockRepository())

	p, err := svc.Create(context.Background(), KindCustomer, CreateRequest{Name: "  Ramesh Traders "})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Ramesh Traders", p.Name)
	assert.Equal(t, KindCustomer, p.Kind)
}

func TestCreateKeepsCallerID(t *testing.T) {
	svc := NewService(newMockRepository())

	p, err := svc.Create(context.Background(), KindSupplier, CreateRequest{ID: "S1", Name: "Mill"})
	require.NoError(t, err)
	assert.Equal(t, "S1", p.ID)

	_, err = svc.Create(context.Background(), KindSupplier, CreateRequest{ID: "S1", Name: "Mill again"})
	assert.ErrorIs(t, err, shared.ErrConstraint)
}

func TestCreateRejectsMissingName(t *testing.T) {
	svc := NewService(newMockRepository())

	_, err := svc.Create(context.Background(), KindCustomer, CreateRequest{Name: "   "})
	var verr *shared.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "name")
}

func TestUpdateUnknownPartyIsNotFound(t *testing.T) {
	svc := NewService(newMockRepository())

	_, err := svc.Update(context.Background(), Ref{Kind: KindCustomer, ID: "nope"}, UpdateRequest{Name: "x"})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("Suppliers")
	require.NoError(t, err)
	assert.Equal(t, KindSupplier, k)
	assert.Equal(t, "suppliers", k.Table())

	_, err = ParseKind("vendor")
	assert.ErrorIs(t, err, shared.ErrValidation)
}
