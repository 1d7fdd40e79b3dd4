package scheduling

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hms/frontdesk/internal/platform/apperror"
)

// StatusScheduled is the status given to an appointment booked without one.
// No transitions are defined.
const StatusScheduled = "Scheduled"

// DateLayout is the calendar-date form appointments are stored in.
const DateLayout = "2006-01-02"

const (
	maxDoctorLen = 64
	maxStatusLen = 32
)

// Appointment books a patient with a doctor on a date. Doctor is the
// doctor's username by convention; it is not a foreign key.
type Appointment struct {
	ID          int64     `json:"id"`
	PatientID   int64     `json:"patient_id"`
	PatientName string    `json:"patient_name,omitempty"`
	Doctor      string    `json:"doctor"`
	Date        string    `json:"date"`
	Status      string    `json:"status"`
	CreatedBy   string    `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (a *Appointment) Normalize() {
	a.Doctor = strings.TrimSpace(a.Doctor)
	a.Date = strings.TrimSpace(a.Date)
	a.Status = strings.TrimSpace(a.Status)
	if a.Status == "" {
		a.Status = StatusScheduled
	}
}

func (a *Appointment) Validate() error {
	if a.PatientID <= 0 {
		return apperror.Invalid("patient_id", "is required")
	}
	if a.Doctor == "" {
		return apperror.Invalid("doctor", "is required")
	}
	if utf8.RuneCountInString(a.Doctor) > maxDoctorLen {
		return apperror.Invalid("doctor", "must be at most %d characters", maxDoctorLen)
	}
	if _, err := time.Parse(DateLayout, a.Date); err != nil {
		return apperror.Invalid("date", "must be a calendar date in YYYY-MM-DD form")
	}
	if utf8.RuneCountInString(a.Status) > maxStatusLen {
		return apperror.Invalid("status", "must be at most %d characters", maxStatusLen)
	}
	return nil
}

// ListFilter narrows an appointment listing. An empty Doctor lists every
// appointment.
type ListFilter struct {
	Doctor string
}

// DoctorStatusCount is one cell of the dashboard breakdown.
type DoctorStatusCount struct {
	Doctor string `json:"doctor"`
	Status string `json:"status"`
	Count  int    `json:"count"`
}
