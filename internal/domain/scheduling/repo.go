package scheduling

import (
	"context"

	"github.com/hms/frontdesk/pkg/pagination"
)

type AppointmentRepository interface {
	// Create fails with apperror.ErrNotFound, writing nothing, when the
	// patient does not exist.
	Create(ctx context.Context, a *Appointment) error
	// List returns appointments joined to their patient's name, ordered by
	// id ascending, and the total matching count.
	List(ctx context.Context, f ListFilter, pg pagination.Params) ([]*Appointment, int, error)
	Count(ctx context.Context) (int, error)
	CountByDoctorStatus(ctx context.Context) ([]DoctorStatusCount, error)
}
