package billing

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/hms/frontdesk/internal/platform/apperror"
	"github.com/hms/frontdesk/internal/platform/auth"
	"github.com/hms/frontdesk/pkg/pagination"
)

type Service struct {
	bills  BillRepository
	logger zerolog.Logger
}

func NewService(bills BillRepository, logger zerolog.Logger) *Service {
	return &Service{bills: bills, logger: logger}
}

// Total parses item text without storing anything.
func (s *Service) Total(items string) (*TotalResponse, error) {
	if strings.TrimSpace(items) == "" {
		return nil, apperror.Invalid("items", "are required")
	}
	lines, total, err := ParseLineItems(items)
	if err != nil {
		return nil, err
	}
	if lines == nil {
		lines = []LineItem{}
	}
	return &TotalResponse{Items: lines, Total: total}, nil
}

// CreateBill stores items verbatim with their computed total.
func (s *Service) CreateBill(ctx context.Context, req CreateBillRequest) (*Bill, error) {
	if req.PatientID <= 0 {
		return nil, apperror.Invalid("patient_id", "is required")
	}
	t, err := s.Total(req.Items)
	if err != nil {
		return nil, err
	}

	b := &Bill{
		PatientID: req.PatientID,
		Items:     req.Items,
		Total:     t.Total,
		CreatedBy: auth.UserIDFromContext(ctx),
	}
	if err := s.bills.Create(ctx, b); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("bill_id", b.ID).Int64("patient_id", b.PatientID).Str("total", b.Total.String()).Msg("bill created")
	return b, nil
}

func (s *Service) GetBill(ctx context.Context, id int64) (*Bill, error) {
	return s.bills.GetByID(ctx, id)
}

func (s *Service) ListBills(ctx context.Context, pg pagination.Params) ([]*Bill, int, error) {
	return s.bills.List(ctx, pg)
}
