// Package schema creates the ledger tables and runs one-time data migrations, each gated
// by a row in schema_migrations.
package schema

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/odyssey-erp/storeledger/internal/sequence"
)

// Action is the body of a guarded migration.
type Action func(ctx context.Context, tx Tx) error

// Migration pairs a stable name with its action. Names must never be reused.
type Migration struct {
	Name   string
	Action Action
}

// Migrations returns the registered one-time migrations in execution order.
func Migrations() []Migration {
	return []Migration{
		{Name: "reconcile_invoice_sequence_v1", Action: ReconcileInvoiceSequence},
	}
}

type Manager struct {
	store  Store
	logger *slog.Logger
}

func NewManager(store Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{store: store, logger: logger}
}

// EnsureSchema creates missing tables, indexes and columns and seeds one sequence row per
// document type. It never drops or rewrites data and is safe on every start.
func (m *Manager) EnsureSchema(ctx context.Context) error {
	if err := m.store.Apply(ctx, statements, sequence.DocTypes()); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// RunGuardedMigration runs action once for name. The ledger row and the action's writes
// commit together; if action fails neither is kept. applied is false when the migration
// had already run.
func (m *Manager) RunGuardedMigration(ctx context.Context, name string, action Action) (applied bool, err error) {
	if name == "" || action == nil {
		return false, fmt.Errorf("migration: name and action required")
	}
	err = m.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		claimed, err := tx.ClaimMigration(ctx, name)
		if err != nil {
			return fmt.Errorf("claim migration %s: %w", name, err)
		}
		if !claimed {
			return nil
		}
		if err := action(ctx, tx); err != nil {
			return fmt.Errorf("migration %s: %w", name, err)
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if applied {
		m.logger.Info("migration applied", slog.String("migration", name))
	}
	return applied, nil
}

// Bootstrap ensures the schema and runs every registered migration.
func (m *Manager) Bootstrap(ctx context.Context) error {
	if err := m.EnsureSchema(ctx); err != nil {
		return err
	}
	for _, mig := range Migrations() {
		if _, err := m.RunGuardedMigration(ctx, mig.Name, mig.Action); err != nil {
			return err
		}
	}
	return nil
}

// Applied lists the migration ledger.
func (m *Manager) Applied(ctx context.Context) ([]Record, error) {
	return m.store.Applied(ctx)
}
