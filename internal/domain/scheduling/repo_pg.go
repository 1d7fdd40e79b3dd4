package scheduling

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/hms/frontdesk/internal/platform/apperror"
	"github.com/hms/frontdesk/internal/platform/db"
	"github.com/hms/frontdesk/pkg/pagination"
)

type appointmentRepoPG struct {
	pool db.Querier
}

func NewAppointmentRepo(pool db.Querier) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

func (r *appointmentRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const apptCols = `a.id, a.patient_id, p.name, a.doctor, a.date, a.status,
	COALESCE(a.created_by, ''), COALESCE(a.created_at, NOW())`

const apptFrom = ` FROM appointments a JOIN patients p ON p.id = a.patient_id`

// Create inserts only when the patient exists, so the existence check and
// the write are one statement.
func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointments (patient_id, doctor, date, status, created_by)
		SELECT $1::BIGINT, $2, $3, $4, NULLIF($5, '')
		WHERE EXISTS (SELECT 1 FROM patients WHERE id = $1::BIGINT)
		RETURNING id, created_at`,
		a.PatientID, a.Doctor, a.Date, a.Status, a.CreatedBy,
	).Scan(&a.ID, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.NotFound("patient", a.PatientID)
	}
	if err != nil {
		return apperror.Storage("insert appointment", err)
	}
	return nil
}

func (r *appointmentRepoPG) List(ctx context.Context, f ListFilter, pg pagination.Params) ([]*Appointment, int, error) {
	where := ""
	var args []interface{}
	if f.Doctor != "" {
		where = ` WHERE a.doctor = $1`
		args = append(args, f.Doctor)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*)`+apptFrom+where, args...).Scan(&total); err != nil {
		return nil, 0, apperror.Storage("count appointments", err)
	}

	rows, err := r.conn(ctx).Query(ctx, `SELECT `+apptCols+apptFrom+where+` ORDER BY a.id`+pg.SQL(), args...)
	if err != nil {
		return nil, 0, apperror.Storage("list appointments", err)
	}
	defer rows.Close()

	var appts []*Appointment
	for rows.Next() {
		var a Appointment
		if err := rows.Scan(&a.ID, &a.PatientID, &a.PatientName, &a.Doctor, &a.Date, &a.Status, &a.CreatedBy, &a.CreatedAt); err != nil {
			return nil, 0, apperror.Storage("scan appointment", err)
		}
		appts = append(appts, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperror.Storage("list appointments", err)
	}
	return appts, total, nil
}

func (r *appointmentRepoPG) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM appointments`).Scan(&n); err != nil {
		return 0, apperror.Storage("count appointments", err)
	}
	return n, nil
}

func (r *appointmentRepoPG) CountByDoctorStatus(ctx context.Context) ([]DoctorStatusCount, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT doctor, status, COUNT(*) FROM appointments
		GROUP BY doctor, status ORDER BY doctor, status`)
	if err != nil {
		return nil, apperror.Storage("count appointments by doctor", err)
	}
	defer rows.Close()

	var out []DoctorStatusCount
	for rows.Next() {
		var c DoctorStatusCount
		if err := rows.Scan(&c.Doctor, &c.Status, &c.Count); err != nil {
			return nil, apperror.Storage("scan appointment count", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Storage("count appointments by doctor", err)
	}
	return out, nil
}
