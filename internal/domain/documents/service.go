package documents

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/hms/frontdesk/internal/domain/billing"
	"github.com/hms/frontdesk/internal/domain/identity"
	"github.com/hms/frontdesk/internal/platform/apperror"
	"github.com/hms/frontdesk/internal/platform/auth"
)

// BillSource is satisfied by *billing.Service.
type BillSource interface {
	GetBill(ctx context.Context, id int64) (*billing.Bill, error)
}

// PatientSource is satisfied by *identity.Service.
type PatientSource interface {
	GetPatient(ctx context.Context, id int64) (*identity.Patient, error)
}

type Service struct {
	renderer  *Renderer
	bills     BillSource
	patients  PatientSource
	invoiceQR bool
	logger    zerolog.Logger
}

func NewService(renderer *Renderer, bills BillSource, patients PatientSource, invoiceQR bool, logger zerolog.Logger) *Service {
	return &Service{renderer: renderer, bills: bills, patients: patients, invoiceQR: invoiceQR, logger: logger}
}

// Invoice renders the stored bill id.
func (s *Service) Invoice(ctx context.Context, id int64) ([]byte, error) {
	b, err := s.bills.GetBill(ctx, id)
	if err != nil {
		return nil, err
	}
	lines, err := ContentLines("items", b.Items)
	if err != nil {
		return nil, err
	}

	doc := Document{
		Title:   s.renderer.Hospital() + " Invoice",
		Fields:  []Field{{Label: "Invoice", Value: fmt.Sprintf("#%d", b.ID)}, {Label: "Patient", Value: b.PatientName}},
		Heading: "Services/Items:",
		Lines:   lines,
		Total:   strings.TrimSpace(s.renderer.Currency() + " " + b.Total.String()),
	}
	if s.invoiceQR {
		payload := fmt.Sprintf("invoice:%d|patient:%s|total:%s", b.ID, b.PatientName, b.Total)
		if doc.QR, err = EncodeQR(payload, DefaultQRSize); err != nil {
			return nil, err
		}
	}

	pdf, err := s.renderer.Render(doc)
	if err != nil {
		return nil, err
	}
	s.logger.Debug().Int64("bill_id", b.ID).Int("bytes", len(pdf)).Msg("invoice rendered")
	return pdf, nil
}

type PrescriptionRequest struct {
	PatientID int64  `json:"patient_id"`
	Medicines string `json:"medicines"`
}

// Prescription renders a prescription signed by the calling doctor. Nothing
// is stored.
func (s *Service) Prescription(ctx context.Context, req PrescriptionRequest) ([]byte, error) {
	doctor, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		return nil, apperror.ErrAuthentication
	}
	if req.PatientID <= 0 {
		return nil, apperror.Invalid("patient_id", "is required")
	}
	lines, err := ContentLines("medicines", req.Medicines)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, apperror.Invalid("medicines", "are required")
	}
	p, err := s.patients.GetPatient(ctx, req.PatientID)
	if err != nil {
		return nil, err
	}

	signer := doctor.Username
	if doctor.Specialization != "" {
		signer += " (" + doctor.Specialization + ")"
	}
	return s.renderer.Render(Document{
		Title:   "Medical Prescription",
		Fields:  []Field{{Label: "Doctor", Value: signer}, {Label: "Patient", Value: p.Name}},
		Heading: "Medicines:",
		Lines:   lines,
	})
}
