package billing

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/hms/frontdesk/internal/platform/apperror"
)

// Cents is an amount in minor currency units.
type Cents int64

// MaxTotal is the largest amount a NUMERIC(12,2) column holds.
const MaxTotal Cents = 999_999_999_999

// Item text bounds. A bill within them always fits on an invoice.
const (
	MaxItemLines      = 200
	MaxItemLineLength = 500
)

func (c Cents) String() string {
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}

// MarshalJSON writes c as a decimal number with two fractional digits.
func (c Cents) MarshalJSON() ([]byte, error) {
	return []byte(c.String()), nil
}

// currencyMarkers are stripped from either end of an amount. Longer markers
// come first so "Rs." is not read as "Rs" followed by ".".
var currencyMarkers = []string{"₹", "INR", "Rs.", "Rs"}

var amountPattern = regexp.MustCompile(`^(\d{1,10})(?:\.(\d{1,2}))?$`)

// LineItem is one line of a bill's item text.
type LineItem struct {
	Line        int    `json:"line"`
	Description string `json:"description"`
	Amount      Cents  `json:"amount"`
	// Priced is false for a line without a separator, which counts as zero.
	Priced bool `json:"priced"`
}

// ParseLineItems reads "description - amount" lines and sums the amounts.
// Each line is split on its last "-". Lines without one are kept and count
// as zero. Blank lines are skipped and do not count toward MaxItemLines.
func ParseLineItems(text string) ([]LineItem, Cents, error) {
	var items []LineItem
	var total Cents

	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(strings.TrimSuffix(raw, "\r"))
		if line == "" {
			continue
		}
		if utf8.RuneCountInString(line) > MaxItemLineLength {
			return nil, 0, apperror.Invalid("items", "line %d is longer than %d characters", i+1, MaxItemLineLength)
		}
		if len(items) == MaxItemLines {
			return nil, 0, apperror.Invalid("items", "at most %d lines are allowed", MaxItemLines)
		}

		sep := strings.LastIndex(line, "-")
		if sep < 0 {
			items = append(items, LineItem{Line: i + 1, Description: line})
			continue
		}

		amount, err := ParseAmount(line[sep+1:])
		if err != nil {
			return nil, 0, apperror.Invalid("items", "line %d: %v", i+1, err)
		}
		total += amount
		if total > MaxTotal {
			return nil, 0, apperror.Invalid("items", "line %d: total exceeds %s", i+1, MaxTotal)
		}
		items = append(items, LineItem{
			Line:        i + 1,
			Description: strings.TrimSpace(line[:sep]),
			Amount:      amount,
			Priced:      true,
		})
	}
	return items, total, nil
}

// ParseAmount parses a non-negative decimal amount with at most two
// fractional digits. One currency marker at either end and thousands
// separators are accepted.
func ParseAmount(s string) (Cents, error) {
	s = stripCurrency(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, ",", "")

	m := amountPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("%q is not an amount", s)
	}
	whole, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not an amount", s)
	}
	frac := int64(0)
	if m[2] != "" {
		frac, _ = strconv.ParseInt(m[2], 10, 64)
		if len(m[2]) == 1 {
			frac *= 10
		}
	}
	return Cents(whole*100 + frac), nil
}

func stripCurrency(s string) string {
	for _, mk := range currencyMarkers {
		if len(s) >= len(mk) && strings.EqualFold(s[:len(mk)], mk) {
			return strings.TrimSpace(s[len(mk):])
		}
	}
	for _, mk := range currencyMarkers {
		if len(s) >= len(mk) && strings.EqualFold(s[len(s)-len(mk):], mk) {
			return strings.TrimSpace(s[:len(s)-len(mk)])
		}
	}
	return s
}
