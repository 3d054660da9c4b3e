package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/pos-till-service/internal/domain/register"
	"github.com/xenking/pos-till-service/internal/domain/tender"
)

const (
	createSessionSQL = `INSERT INTO register_sessions (id, status, opening_float, opened_at)
		VALUES ($1, $2, $3, $4)`

	createSaleSQL = `INSERT INTO sales (id, session_id, grand_total, tenders, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	closeSessionSQL = `UPDATE register_sessions
		SET status = $2, closed_at = $3, tender_totals = $4,
			transaction_count = $5, expected_cash = $6, counted_cash = $7,
			variance = $8, total_sales = $9
		WHERE id = $1 AND status = 'open'`
)

var _ register.Repository = (*RegisterRepository)(nil)

// RegisterRepository implements register.Repository backed by PostgreSQL.
// It records the facts the session manager emits; the open session's
// running totals live in memory and are only written out at close time.
type RegisterRepository struct {
	pool *pgxpool.Pool
}

// NewRegisterRepository returns a RegisterRepository that uses the given pool.
func NewRegisterRepository(pool *pgxpool.Pool) *RegisterRepository {
	return &RegisterRepository{pool: pool}
}

// CreateSession persists a newly opened session.
func (r *RegisterRepository) CreateSession(ctx context.Context, snap register.Snapshot) error {
	_, err := r.pool.Exec(ctx, createSessionSQL,
		snap.ID, snap.Status.String(), snap.OpeningFloat, snap.OpenedAt,
	)
	if err != nil {
		return fmt.Errorf("creating register session %q: %w", snap.ID, err)
	}
	return nil
}

// RecordSale appends a completed sale. The tender split is serialized to
// JSON for storage in the JSONB column.
func (r *RegisterRepository) RecordSale(ctx context.Context, sale register.Sale) error {
	tendersJSON, err := marshalSplit(sale.Tenders)
	if err != nil {
		return fmt.Errorf("marshaling tender split: %w", err)
	}

	_, err = r.pool.Exec(ctx, createSaleSQL,
		sale.ID, sale.SessionID, sale.GrandTotal, tendersJSON, sale.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("recording sale %q: %w", sale.ID, err)
	}
	return nil
}

// CloseSession writes the close-out report onto the session row. The WHERE
// clause guards against closing a row twice even if two processes race.
func (r *RegisterRepository) CloseSession(ctx context.Context, report register.CloseReport) error {
	totalsJSON, err := marshalSplit(report.TenderTotals)
	if err != nil {
		return fmt.Errorf("marshaling tender totals: %w", err)
	}

	tag, err := r.pool.Exec(ctx, closeSessionSQL,
		report.SessionID, register.StatusClosed.String(), report.ClosedAt,
		totalsJSON, report.TransactionCount, report.ExpectedCash,
		report.CountedCash, report.Variance, report.TotalSales,
	)
	if err != nil {
		return fmt.Errorf("closing register session %q: %w", report.SessionID, err)
	}
	if tag.RowsAffected() == 0 {
		return register.ErrAlreadyClosed
	}
	return nil
}

// marshalSplit serializes a tender split with exact decimal amounts as
// JSON strings so no binary-float rounding enters the ledger.
func marshalSplit(split tender.Split) ([]byte, error) {
	out := make(map[string]string, len(split))
	for method, amount := range split {
		out[string(method)] = amount.String()
	}
	return json.Marshal(out)
}
