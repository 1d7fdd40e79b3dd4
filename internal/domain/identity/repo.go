package identity

import (
	"context"

	"github.com/hms/frontdesk/pkg/pagination"
)

type UserRepository interface {
	// Create fails with apperror.ErrDuplicateUser when the username is taken.
	Create(ctx context.Context, u *User) error
	// GetByUsername fails with apperror.ErrNotFound for an unknown user.
	GetByUsername(ctx context.Context, username string) (*User, error)
}

type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id int64) (*Patient, error)
	// List returns patients ordered by id ascending, and the total count.
	List(ctx context.Context, pg pagination.Params) ([]*Patient, int, error)
	Count(ctx context.Context) (int, error)
}
