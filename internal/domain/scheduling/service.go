package scheduling

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/hms/frontdesk/internal/platform/auth"
	"github.com/hms/frontdesk/pkg/pagination"
)

type Service struct {
	appointments AppointmentRepository
	logger       zerolog.Logger
}

func NewService(appts AppointmentRepository, logger zerolog.Logger) *Service {
	return &Service{appointments: appts, logger: logger}
}

// CreateAppointment books a. The status defaults to StatusScheduled.
func (s *Service) CreateAppointment(ctx context.Context, a *Appointment) error {
	a.Normalize()
	if err := a.Validate(); err != nil {
		return err
	}
	a.CreatedBy = auth.UserIDFromContext(ctx)
	if err := s.appointments.Create(ctx, a); err != nil {
		return err
	}
	s.logger.Debug().Int64("appointment_id", a.ID).Int64("patient_id", a.PatientID).Str("doctor", a.Doctor).Msg("appointment booked")
	return nil
}

func (s *Service) ListAppointments(ctx context.Context, f ListFilter, pg pagination.Params) ([]*Appointment, int, error) {
	return s.appointments.List(ctx, f, pg)
}

// FilterFor returns the listing filter p may use. A doctor only ever sees
// their own appointments whatever they asked for.
func FilterFor(p auth.Principal, requestedDoctor string) ListFilter {
	if p.Role == auth.RoleDoctor {
		return ListFilter{Doctor: p.Username}
	}
	return ListFilter{Doctor: strings.TrimSpace(requestedDoctor)}
}

func (s *Service) CountAppointments(ctx context.Context) (int, error) {
	return s.appointments.Count(ctx)
}

func (s *Service) CountByDoctorStatus(ctx context.Context) ([]DoctorStatusCount, error) {
	return s.appointments.CountByDoctorStatus(ctx)
}
