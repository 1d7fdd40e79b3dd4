package identity

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hms/frontdesk/internal/platform/apperror"
	"github.com/hms/frontdesk/internal/platform/auth"
	"github.com/hms/frontdesk/internal/platform/db"
	"github.com/hms/frontdesk/pkg/pagination"
)

const pgUniqueViolation = "23505"

// -- User Repository --

type userRepoPG struct {
	pool db.Querier
}

func NewUserRepo(pool db.Querier) UserRepository {
	return &userRepoPG{pool: pool}
}

func (r *userRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

func (r *userRepoPG) Create(ctx context.Context, u *User) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO users (username, password_hash, role, specialization)
		VALUES ($1, $2, $3, NULLIF($4, ''))
		RETURNING created_at`,
		u.Username, u.PasswordHash, string(u.Role), u.Specialization,
	).Scan(&u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return apperror.ErrDuplicateUser
		}
		return apperror.Storage("insert user", err)
	}
	return nil
}

func (r *userRepoPG) GetByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	var role string
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT username, password_hash, role, COALESCE(specialization, ''), COALESCE(created_at, NOW())
		FROM users WHERE username = $1`, username,
	).Scan(&u.Username, &u.PasswordHash, &role, &u.Specialization, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("user", username)
	}
	if err != nil {
		return nil, apperror.Storage("get user", err)
	}
	u.Role = auth.Role(role)
	return &u, nil
}

// -- Patient Repository --

type patientRepoPG struct {
	pool db.Querier
}

func NewPatientRepo(pool db.Querier) PatientRepository {
	return &patientRepoPG{pool: pool}
}

func (r *patientRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const patientCols = `id, name, age, gender, phone, address, COALESCE(created_by, ''), COALESCE(created_at, NOW())`

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patients (name, age, gender, phone, address, created_by)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
		RETURNING id, created_at`,
		p.Name, p.Age, p.Gender, p.Phone, p.Address, p.CreatedBy,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return apperror.Storage("insert patient", err)
	}
	return nil
}

func (r *patientRepoPG) GetByID(ctx context.Context, id int64) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("patient", id)
	}
	if err != nil {
		return nil, apperror.Storage("get patient", err)
	}
	return p, nil
}

func (r *patientRepoPG) List(ctx context.Context, pg pagination.Params) ([]*Patient, int, error) {
	total, err := r.Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `SELECT `+patientCols+` FROM patients ORDER BY id`+pg.SQL())
	if err != nil {
		return nil, 0, apperror.Storage("list patients", err)
	}
	defer rows.Close()

	var patients []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, apperror.Storage("scan patient", err)
		}
		patients = append(patients, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperror.Storage("list patients", err)
	}
	return patients, total, nil
}

func (r *patientRepoPG) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patients`).Scan(&n); err != nil {
		return 0, apperror.Storage("count patients", err)
	}
	return n, nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.Name, &p.Age, &p.Gender, &p.Phone, &p.Address, &p.CreatedBy, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
