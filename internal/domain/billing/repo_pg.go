package billing

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/hms/frontdesk/internal/platform/apperror"
	"github.com/hms/frontdesk/internal/platform/db"
	"github.com/hms/frontdesk/pkg/pagination"
)

type billRepoPG struct {
	pool db.Querier
}

func NewBillRepo(pool db.Querier) BillRepository {
	return &billRepoPG{pool: pool}
}

func (r *billRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

// Totals travel as integer cents; the column is NUMERIC(12,2).
const billCols = `b.id, b.patient_id, p.name, b.items, ROUND(b.total * 100)::BIGINT,
	COALESCE(b.created_by, ''), COALESCE(b.created_at, NOW())`

const billFrom = ` FROM billing b JOIN patients p ON p.id = b.patient_id`

func (r *billRepoPG) Create(ctx context.Context, b *Bill) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO billing (patient_id, items, total, created_by)
		SELECT $1::BIGINT, $2, $3::BIGINT::NUMERIC / 100, NULLIF($4, '')
		WHERE EXISTS (SELECT 1 FROM patients WHERE id = $1::BIGINT)
		RETURNING id, created_at`,
		b.PatientID, b.Items, int64(b.Total), b.CreatedBy,
	).Scan(&b.ID, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.NotFound("patient", b.PatientID)
	}
	if err != nil {
		return apperror.Storage("insert bill", err)
	}
	return nil
}

func (r *billRepoPG) GetByID(ctx context.Context, id int64) (*Bill, error) {
	b, err := scanBill(r.conn(ctx).QueryRow(ctx, `SELECT `+billCols+billFrom+` WHERE b.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("bill", id)
	}
	if err != nil {
		return nil, apperror.Storage("get bill", err)
	}
	return b, nil
}

func (r *billRepoPG) List(ctx context.Context, pg pagination.Params) ([]*Bill, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*)`+billFrom).Scan(&total); err != nil {
		return nil, 0, apperror.Storage("count bills", err)
	}

	rows, err := r.conn(ctx).Query(ctx, `SELECT `+billCols+billFrom+` ORDER BY b.id`+pg.SQL())
	if err != nil {
		return nil, 0, apperror.Storage("list bills", err)
	}
	defer rows.Close()

	var bills []*Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, 0, apperror.Storage("scan bill", err)
		}
		bills = append(bills, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperror.Storage("list bills", err)
	}
	return bills, total, nil
}

func scanBill(row pgx.Row) (*Bill, error) {
	var b Bill
	var cents int64
	if err := row.Scan(&b.ID, &b.PatientID, &b.PatientName, &b.Items, &cents, &b.CreatedBy, &b.CreatedAt); err != nil {
		return nil, err
	}
	b.Total = Cents(cents)
	return &b, nil
}
