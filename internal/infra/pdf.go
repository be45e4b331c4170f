package infra

// pdf.go: quote summary PDF attached to the QUOTED notification and served
// on the admin download route. A4 page with:
//   - Company header and quote number
//   - Client block
//   - Line items (base price, features, complexity bonus)
//   - Bold estimated total and the disclaimer captured at creation

import (
	"bytes"
	"fmt"

	"hexagono/internal/model"
	"hexagono/internal/notify"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// QuotePDF renders quote summaries in memory.
type QuotePDF struct {
	contact notify.Contact
}

func NewQuotePDF(contact notify.Contact) *QuotePDF {
	if contact.Company == "" {
		contact.Company = "Hexagono"
	}
	return &QuotePDF{contact: contact}
}

// QuoteSummaryPDF returns the PDF bytes for q.
func (g *QuotePDF) QuoteSummaryPDF(q *model.Quote) ([]byte, error) {
	if q == nil {
		return nil, fmt.Errorf("pdf: nil quote")
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(18, 18, 18)
	pdf.SetAutoPageBreak(true, 18)
	pdf.AddPage()
	// Core fonts are cp1252; translate UTF-8 so accents render.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	contentW := pageW - left - right

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(contentW, 9, tr(g.contact.Company), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentW, 6, tr("Cotización "+q.QuoteNumber), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 5, q.CreatedAt.Format("02/01/2006"), "", 1, "L", false, 0, "")
	pdf.Ln(4)
	pdf.Line(left, pdf.GetY(), pageW-right, pdf.GetY())
	pdf.Ln(4)

	// ── Client ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(contentW, 6, "Cliente", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentW, 5, tr(q.ClientName), "", 1, "L", false, 0, "")
	if q.ClientCompany != nil && *q.ClientCompany != "" {
		pdf.CellFormat(contentW, 5, tr(*q.ClientCompany), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(contentW, 5, q.ClientEmail, "", 1, "L", false, 0, "")
	pdf.Ln(4)

	// ── Items ────────────────────────────────────────────────────────────────
	col1 := contentW * 0.70
	col2 := contentW * 0.30

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(col1, 7, "Concepto", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 7, "Importe", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	row := func(label string, amount decimal.Decimal) {
		pdf.CellFormat(col1, 6, tr(label), "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 6, tr(notify.FormatMoney(amount)), "", 1, "R", false, 0, "")
	}
	row(q.ServiceType.Label()+" (base)", q.BasePrice)
	for _, f := range q.Features {
		row(f.Name, f.Cost)
	}
	if !q.ComplexityBonus.IsZero() {
		row("Requerimientos personalizados", q.ComplexityBonus)
	}

	pdf.Ln(1)
	pdf.Line(left, pdf.GetY(), pageW-right, pdf.GetY())
	pdf.Ln(2)

	// ── Total ────────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(col1, 8, "Total estimado", "", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 8, tr(notify.FormatMoney(q.EstimatedPrice)+" "+q.Currency), "", 1, "R", false, 0, "")
	pdf.Ln(4)

	if q.Disclaimer != "" {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.MultiCell(contentW, 5, tr(q.Disclaimer), "", "L", false)
		pdf.Ln(3)
	}

	// ── Footer ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "", 9)
	for _, line := range []string{g.contact.Email, g.contact.Phone, g.contact.WhatsApp, g.contact.Website} {
		if line != "" {
			pdf.CellFormat(contentW, 5, tr(line), "", 1, "L", false, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: render %s: %w", q.QuoteNumber, err)
	}
	return buf.Bytes(), nil
}
