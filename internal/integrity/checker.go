package integrity

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/storeledger/internal/platform/db"
)

// Store runs the read-only consistency queries.
type Store interface {
	MissingMirrors(ctx context.Context) ([]string, error)
	MismatchedMirrors(ctx context.Context) ([]Anomaly, error)
	GrandTotalDrift(ctx context.Context) ([]Anomaly, error)
	PoolAboveSequence(ctx context.Context) ([]Anomaly, error)
}

// Report is the outcome of one scan.
type Report struct {
	ScannedAt time.Time `json:"scanned_at"`
	Anomalies []Anomaly `json:"anomalies"`
}

// Clean reports whether the scan found nothing.
func (r Report) Clean() bool { return len(r.Anomalies) == 0 }

// Counts groups the anomalies by kind.
func (r Report) Counts() map[Kind]int {
	out := make(map[Kind]int)
	for _, a := range r.Anomalies {
		out[a.Kind]++
	}
	return out
}

// Checker scans the whole database for anomalies and forwards each to its Reporter.
type Checker struct {
	store    Store
	reporter Reporter
	now      func() time.Time
}

func NewChecker(store Store, reporter Reporter) *Checker {
	return &Checker{store: store, reporter: OrDiscard(reporter), now: time.Now}
}

// Scan runs the probes concurrently and reports the anomalies in probe order.
func (c *Checker) Scan(ctx context.Context) (Report, error) {
	report := Report{ScannedAt: c.now().UTC(), Anomalies: []Anomaly{}}

	steps := []struct {
		name string
		run  func(context.Context) ([]Anomaly, error)
	}{
		{"missing mirrors", c.missingMirrors},
		{"mismatched mirrors", c.store.MismatchedMirrors},
		{"grand totals", c.store.GrandTotalDrift},
		{"reusable pool", c.store.PoolAboveSequence},
	}
	found := make([][]Anomaly, len(steps))
	g, gctx := errgroup.WithContext(ctx)
	for i, step := range steps {
		g.Go(func() error {
			out, err := step.run(gctx)
			if err != nil {
				return fmt.Errorf("scan %s: %w", step.name, err)
			}
			found[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}
	for _, out := range found {
		report.Anomalies = append(report.Anomalies, out...)
	}

	for _, a := range report.Anomalies {
		c.reporter.Report(ctx, a)
	}
	return report, nil
}

func (c *Checker) missingMirrors(ctx context.Context) ([]Anomaly, error) {
	ids, err := c.store.MissingMirrors(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Anomaly, 0, len(ids))
	for _, id := range ids {
		out = append(out, Anomaly{Kind: KindMirrorMissing, Subject: id, Detail: "invoice has no maal row"})
	}
	return out, nil
}

type pgStore struct {
	q db.DBTX
}

// NewStore returns the PostgreSQL Store.
func NewStore(q db.DBTX) Store {
	return &pgStore{q: q}
}

func (s *pgStore) MissingMirrors(ctx context.Context) ([]string, error) {
	rows, err := s.q.Query(ctx, `SELECT i.id FROM invoices i
WHERE NOT EXISTS (SELECT 1 FROM maal m WHERE m.maal_invoice_no = i.id)
ORDER BY i.id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (s *pgStore) MismatchedMirrors(ctx context.Context) ([]Anomaly, error) {
	return s.collect(ctx, KindMirrorMismatch, `SELECT i.id,
	format('invoice %s/%s/%s/%s, maal %s:%s/%s/%s/%s',
		i.customer_id, i.invoice_date, i.grand_total, i.remark,
		m.party_kind, m.party_id, m.entry_date, m.amount, m.remark)
FROM invoices i
JOIN maal m ON m.maal_invoice_no = i.id
WHERE m.party_kind <> 'customer'
	OR m.party_id <> i.customer_id
	OR m.entry_date <> i.invoice_date
	OR m.amount <> i.grand_total
	OR m.remark <> i.remark
ORDER BY i.id`)
}

func (s *pgStore) GrandTotalDrift(ctx context.Context) ([]Anomaly, error) {
	return s.collect(ctx, KindGrandTotal, `SELECT i.id,
	format('stored %s, computed %s', i.grand_total, COALESCE(l.total, 0) + i.packing + i.freight + i.riksha)
FROM invoices i
LEFT JOIN (
	SELECT invoice_id, SUM(quantity * selling_price) AS total
	FROM invoice_lines GROUP BY invoice_id
) l ON l.invoice_id = i.id
WHERE i.grand_total <> COALESCE(l.total, 0) + i.packing + i.freight + i.riksha
ORDER BY i.id`)
}

func (s *pgStore) PoolAboveSequence(ctx context.Context) ([]Anomaly, error) {
	return s.collect(ctx, KindPoolAboveSequence, `SELECT r.doc_type || ':' || r.number,
	format('sequence is at %s', COALESCE(s.last_number, 0))
FROM reusable_numbers r
LEFT JOIN sequences s ON s.doc_type = r.doc_type
WHERE r.number > COALESCE(s.last_number, 0)
ORDER BY r.doc_type, r.number`)
}

func (s *pgStore) collect(ctx context.Context, kind Kind, query string) ([]Anomaly, error) {
	rows, err := s.q.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Anomaly
	for rows.Next() {
		a := Anomaly{Kind: kind}
		if err := rows.Scan(&a.Subject, &a.Detail); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
