package billing

import (
	"strings"
	"testing"

	"github.com/hms/frontdesk/internal/platform/apperror"
)

func TestParseLineItems_UnseparatedLineCountsZero(t *testing.T) {
	items, total, err := ParseLineItems("Consultation - 500\nXray - 300\nNotes")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 80000 {
		t.Errorf("expected total 800.00, got %s", total)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[2].Priced || items[2].Description != "Notes" || items[2].Amount != 0 {
		t.Errorf("expected unpriced Notes line, got %+v", items[2])
	}
}

func TestParseLineItems_RoundTrip(t *testing.T) {
	text := "Consultation - 500\nXray - 300\nNotes"
	_, first, err := ParseLineItems(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b := &Bill{Items: text, Total: first}
	lines, err := b.Lines()
	if err != nil {
		t.Fatalf("re-parse: %v", err)
	}
	var again Cents
	for _, l := range lines {
		again += l.Amount
	}
	if again != b.Total {
		t.Errorf("expected re-parsed total %s, got %s", b.Total, again)
	}
}

func TestParseLineItems_SplitsOnLastSeparator(t *testing.T) {
	items, total, err := ParseLineItems("X-ray - chest - 1,250.50")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 125050 {
		t.Errorf("expected 1250.50, got %s", total)
	}
	if items[0].Description != "X-ray - chest" {
		t.Errorf("unexpected description %q", items[0].Description)
	}
}

func TestParseLineItems_CurrencyMarkers(t *testing.T) {
	tests := []struct {
		line string
		want Cents
	}{
		{"Consultation - ₹500", 50000},
		{"Consultation - ₹ 500", 50000},
		{"Consultation - Rs. 500", 50000},
		{"Consultation - Rs500", 50000},
		{"Consultation - INR 99.5", 9950},
		{"Consultation - 500 rs", 50000},
		{"Consultation - 500₹", 50000},
		{"Consultation -   42  ", 4200},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			_, total, err := ParseLineItems(tt.line)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if total != tt.want {
				t.Errorf("expected %s, got %s", tt.want, total)
			}
		})
	}
}

func TestParseLineItems_BlankLinesAndCRLF(t *testing.T) {
	items, total, err := ParseLineItems("\r\nBed - 1000\r\n\r\n   \nMeals - 250\r\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 125000 {
		t.Errorf("expected 1250.00, got %s", total)
	}
	if len(items) != 2 {
		t.Errorf("expected blank lines to be skipped, got %d items", len(items))
	}
	if items[1].Line != 5 {
		t.Errorf("expected Meals on line 5, got %d", items[1].Line)
	}
}

func TestParseLineItems_InvalidAmountNamesLine(t *testing.T) {
	for _, text := range []string{
		"Consultation - 500\nFollow-up",
		"Consultation - 500\nXray - abc",
		"Consultation - 500\nXray - 1e3",
		"Consultation - 500\nXray - NaN",
		"Consultation - 500\nXray - 3.333",
		"Consultation - 500\nXray -",
	} {
		_, _, err := ParseLineItems(text)
		if !apperror.IsValidation(err) {
			t.Errorf("%q: expected ValidationError, got %v", text, err)
			continue
		}
		if !strings.Contains(err.Error(), "line 2") {
			t.Errorf("%q: expected line number in %q", text, err.Error())
		}
	}
}

func TestParseLineItems_TotalBound(t *testing.T) {
	_, _, err := ParseLineItems("A - 9999999999.99\nB - 1")
	if !apperror.IsValidation(err) {
		t.Fatalf("expected ValidationError for overflowing total, got %v", err)
	}
}

func TestParseLineItems_ItemBounds(t *testing.T) {
	full := strings.Repeat("Bed - 1\n\n", MaxItemLines)
	items, total, err := ParseLineItems(full)
	if err != nil {
		t.Fatalf("expected %d lines to be accepted: %v", MaxItemLines, err)
	}
	if len(items) != MaxItemLines || total != Cents(MaxItemLines*100) {
		t.Errorf("expected %d items totalling %d, got %d items totalling %d", MaxItemLines, MaxItemLines*100, len(items), total)
	}

	if _, _, err := ParseLineItems(full + "Bed - 1"); !apperror.IsValidation(err) {
		t.Errorf("expected ValidationError for %d lines, got %v", MaxItemLines+1, err)
	}

	longest := strings.Repeat("a", MaxItemLineLength-4) + " - 1"
	if _, _, err := ParseLineItems(longest); err != nil {
		t.Errorf("expected a %d character line to be accepted: %v", MaxItemLineLength, err)
	}
	_, _, err = ParseLineItems("Bed - 1\n" + strings.Repeat("é", MaxItemLineLength+1))
	if !apperror.IsValidation(err) || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("expected ValidationError naming line 2, got %v", err)
	}
}

func TestCents_String(t *testing.T) {
	tests := map[Cents]string{0: "0.00", 5: "0.05", 80000: "800.00", 125050: "1250.50", -150: "-1.50"}
	for c, want := range tests {
		if c.String() != want {
			t.Errorf("expected %s, got %s", want, c.String())
		}
	}
}
