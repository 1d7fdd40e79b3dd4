// Package dashboard computes the admin overview figures.
package dashboard

import (
	"context"
	"fmt"

	"github.com/hms/frontdesk/internal/domain/scheduling"
)

type PatientCounter interface {
	CountPatients(ctx context.Context) (int, error)
}

type AppointmentCounter interface {
	CountAppointments(ctx context.Context) (int, error)
	CountByDoctorStatus(ctx context.Context) ([]scheduling.DoctorStatusCount, error)
}

type Summary struct {
	TotalPatients     int                            `json:"total_patients"`
	TotalAppointments int                            `json:"total_appointments"`
	ByDoctorStatus    []scheduling.DoctorStatusCount `json:"appointments_by_doctor_status"`
}

type Service struct {
	patients     PatientCounter
	appointments AppointmentCounter
}

func NewService(patients PatientCounter, appointments AppointmentCounter) *Service {
	return &Service{patients: patients, appointments: appointments}
}

func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	patients, err := s.patients.CountPatients(ctx)
	if err != nil {
		return nil, fmt.Errorf("count patients: %w", err)
	}
	appts, err := s.appointments.CountAppointments(ctx)
	if err != nil {
		return nil, fmt.Errorf("count appointments: %w", err)
	}
	breakdown, err := s.appointments.CountByDoctorStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count appointments by doctor: %w", err)
	}
	if breakdown == nil {
		breakdown = []scheduling.DoctorStatusCount{}
	}
	return &Summary{TotalPatients: patients, TotalAppointments: appts, ByDoctorStatus: breakdown}, nil
}
