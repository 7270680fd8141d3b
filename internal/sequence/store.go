package sequence

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/odyssey-erp/storeledger/internal/platform/db"
)

// Store is the transaction scoped persistence the allocator claims numbers through.
// Implementations must make IncrementSequence a single atomic statement so that the claim
// holds a row lock until the surrounding transaction ends.
type Store interface {
	IncrementSequence(ctx context.Context, doc DocType) (int64, error)
	CurrentSequence(ctx context.Context, doc DocType) (int64, error)
	PopReusableNumber(ctx context.Context, doc DocType) (int64, bool, error)
	PushReusableNumber(ctx context.Context, doc DocType, n int64) error
	ReusableNumbersAbove(ctx context.Context, doc DocType, n int64) ([]int64, error)
	// RaiseSequence moves last_number up to n and never lowers it.
	RaiseSequence(ctx context.Context, doc DocType, n int64) error
	RemoveReusableNumber(ctx context.Context, doc DocType, n int64) error
}

type pgStore struct {
	q db.DBTX
}

// NewStore returns a Store bound to q, normally a pgx.Tx.
func NewStore(q db.DBTX) Store {
	return &pgStore{q: q}
}

func (s *pgStore) IncrementSequence(ctx context.Context, doc DocType) (int64, error) {
	var n int64
	err := s.q.QueryRow(ctx, `INSERT INTO sequences (doc_type, last_number, updated_at)
VALUES ($1, 1, NOW())
ON CONFLICT (doc_type) DO UPDATE SET last_number = sequences.last_number + 1, updated_at = NOW()
RETURNING last_number`, string(doc)).Scan(&n)
	return n, err
}

func (s *pgStore) CurrentSequence(ctx context.Context, doc DocType) (int64, error) {
	var n int64
	err := s.q.QueryRow(ctx, `SELECT last_number FROM sequences WHERE doc_type = $1`, string(doc)).Scan(&n)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return n, err
}

func (s *pgStore) PopReusableNumber(ctx context.Context, doc DocType) (int64, bool, error) {
	var n int64
	err := s.q.QueryRow(ctx, `DELETE FROM reusable_numbers
WHERE doc_type = $1 AND number = (
	SELECT number FROM reusable_numbers WHERE doc_type = $1 ORDER BY number LIMIT 1 FOR UPDATE SKIP LOCKED
)
RETURNING number`, string(doc)).Scan(&n)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

func (s *pgStore) PushReusableNumber(ctx context.Context, doc DocType, n int64) error {
	_, err := s.q.Exec(ctx, `INSERT INTO reusable_numbers (doc_type, number, freed_at) VALUES ($1, $2, NOW()) ON CONFLICT DO NOTHING`, string(doc), n)
	return err
}

func (s *pgStore) ReusableNumbersAbove(ctx context.Context, doc DocType, n int64) ([]int64, error) {
	rows, err := s.q.Query(ctx, `SELECT number FROM reusable_numbers WHERE doc_type = $1 AND number > $2 ORDER BY number`, string(doc), n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []int64
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *pgStore) RaiseSequence(ctx context.Context, doc DocType, n int64) error {
	_, err := s.q.Exec(ctx, `INSERT INTO sequences (doc_type, last_number, updated_at) VALUES ($1, $2, NOW())
ON CONFLICT (doc_type) DO UPDATE SET last_number = GREATEST(sequences.last_number, EXCLUDED.last_number), updated_at = NOW()`,
		string(doc), n)
	return err
}

func (s *pgStore) RemoveReusableNumber(ctx context.Context, doc DocType, n int64) error {
	_, err := s.q.Exec(ctx, `DELETE FROM reusable_numbers WHERE doc_type = $1 AND number = $2`, string(doc), n)
	return err
}
