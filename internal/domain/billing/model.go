package billing

import (
	"time"
)

// Bill stores the item text verbatim together with its parsed total.
type Bill struct {
	ID          int64     `json:"id"`
	PatientID   int64     `json:"patient_id"`
	PatientName string    `json:"patient_name,omitempty"`
	Items       string    `json:"items"`
	Total       Cents     `json:"total"`
	CreatedBy   string    `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Lines re-parses the stored item text.
func (b *Bill) Lines() ([]LineItem, error) {
	items, _, err := ParseLineItems(b.Items)
	return items, err
}

type CreateBillRequest struct {
	PatientID int64  `json:"patient_id"`
	Items     string `json:"items"`
}

type TotalRequest struct {
	Items string `json:"items"`
}

type TotalResponse struct {
	Items []LineItem `json:"items"`
	Total Cents      `json:"total"`
}
