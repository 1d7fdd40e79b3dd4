// Package documents renders invoices and prescriptions as single-purpose
// PDF documents.
package documents

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jung-kurt/gofpdf"

	"github.com/hms/frontdesk/internal/domain/billing"
	"github.com/hms/frontdesk/internal/platform/apperror"
)

const (
	MaxLines      = billing.MaxItemLines
	MaxLineLength = billing.MaxItemLineLength

	qrImageName = "qr"
)

// PageSize names a gofpdf page size.
type PageSize string

const (
	PageLetter PageSize = "Letter"
	PageA4     PageSize = "A4"
)

// ParsePageSize accepts "Letter" or "A4" in any case. Empty selects Letter.
func ParsePageSize(s string) (PageSize, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "letter":
		return PageLetter, nil
	case "a4":
		return PageA4, nil
	default:
		return "", fmt.Errorf("unsupported page size %q", s)
	}
}

// Field is one "Label: value" header line.
type Field struct {
	Label string
	Value string
}

// Document is the content of one rendered page.
type Document struct {
	Title   string
	Fields  []Field
	Heading string
	Lines   []string
	// Total is printed after the lines when set.
	Total string
	// QR is an optional PNG placed in the top right corner.
	QR []byte
}

type Renderer struct {
	pageSize PageSize
	currency string
	hospital string
}

func NewRenderer(pageSize PageSize, currency, hospital string) *Renderer {
	if pageSize == "" {
		pageSize = PageLetter
	}
	if hospital == "" {
		hospital = "Hospital"
	}
	return &Renderer{pageSize: pageSize, currency: currency, hospital: hospital}
}

// Currency returns the label printed before amounts.
func (r *Renderer) Currency() string { return r.currency }

// Hospital returns the name printed in invoice titles.
func (r *Renderer) Hospital() string { return r.hospital }

// ContentLines splits text into trimmed non-empty lines and enforces the
// line bounds.
func ContentLines(field, text string) ([]string, error) {
	var lines []string
	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if utf8.RuneCountInString(line) > MaxLineLength {
			return nil, apperror.Invalid(field, "line %d is longer than %d characters", i+1, MaxLineLength)
		}
		lines = append(lines, line)
	}
	if len(lines) > MaxLines {
		return nil, apperror.Invalid(field, "at most %d lines are allowed, got %d", MaxLines, len(lines))
	}
	return lines, nil
}

// Render lays out doc and returns the PDF bytes. Long content continues on
// further pages.
func (r *Renderer) Render(doc Document) ([]byte, error) {
	if len(doc.Lines) > MaxLines {
		return nil, apperror.Invalid("lines", "at most %d lines are allowed, got %d", MaxLines, len(doc.Lines))
	}
	for i, l := range doc.Lines {
		if utf8.RuneCountInString(l) > MaxLineLength {
			return nil, apperror.Invalid("lines", "line %d is longer than %d characters", i+1, MaxLineLength)
		}
	}

	pdf := gofpdf.New("P", "mm", string(r.pageSize), "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.SetTitle(doc.Title, true)
	pdf.SetCreator(r.hospital, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	if len(doc.QR) > 0 {
		opt := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader(qrImageName, opt, bytes.NewReader(doc.QR))
		pageW, _ := pdf.GetPageSize()
		pdf.ImageOptions(qrImageName, pageW-20-30, 12, 30, 30, false, opt, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, tr(doc.Title), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "", 12)
	for _, f := range doc.Fields {
		pdf.CellFormat(0, 7, tr(f.Label+": "+f.Value), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	if doc.Heading != "" {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, tr(doc.Heading), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 12)
	}
	for _, l := range doc.Lines {
		pdf.SetX(28)
		pdf.MultiCell(0, 7, tr("• "+l), "", "L", false)
	}

	if doc.Total != "" {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, tr("Total: "+doc.Total), "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
