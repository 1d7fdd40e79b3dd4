package billing

import (
	"context"

	"github.com/hms/frontdesk/pkg/pagination"
)

type BillRepository interface {
	// Create fails with apperror.ErrNotFound, writing nothing, when the
	// patient does not exist.
	Create(ctx context.Context, b *Bill) error
	GetByID(ctx context.Context, id int64) (*Bill, error)
	// List returns bills joined to their patient's name, ordered by id
	// ascending, and the total count.
	List(ctx context.Context, pg pagination.Params) ([]*Bill, int, error)
}
