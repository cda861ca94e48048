package render

import (
	"bytes"
	"fmt"
	"strconv"

	"hospital_billing/internal/domain/billing"
	"hospital_billing/internal/domain/entities"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

// InvoicePDFRenderer lays an invoice and its payment history out on an A4 page.
type InvoicePDFRenderer struct {
	ClinicName string
}

func NewInvoicePDFRenderer(clinicName string) *InvoicePDFRenderer {
	return &InvoicePDFRenderer{ClinicName: clinicName}
}

var columnWidths = []float64{70, 30, 15, 25, 20, 30}

func (r *InvoicePDFRenderer) Render(inv entities.Invoice, payments []entities.Payment) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Invoice "+inv.ID, true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, r.ClinicName, "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 6, "Invoice: "+inv.ID, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Patient: "+inv.PatientID, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Date: "+inv.CreatedAt.Format("2006-01-02 15:04"), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 10)
	for i, h := range []string{"Description", "Category", "Qty", "Unit price", "Tax", "Amount"} {
		pdf.CellFormat(columnWidths[i], 7, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	for _, it := range inv.Items {
		cells := []string{
			it.Description,
			string(it.Category),
			strconv.FormatInt(it.Quantity, 10),
			money(it.UnitPrice),
			money(it.LineTax),
			money(it.Amount),
		}
		for i, c := range cells {
			align := "R"
			if i < 2 {
				align = "L"
			}
			pdf.CellFormat(columnWidths[i], 6, c, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(4)

	for _, row := range [][2]string{
		{"Subtotal", money(inv.Subtotal)},
		{"Tax", money(inv.TotalTax)},
		{"Discount", "-" + money(inv.Discount)},
		{"Total", money(inv.TotalAmount)},
		{"Paid", money(inv.AmountPaid)},
		{"Balance due", money(inv.BalanceDue)},
	} {
		pdf.CellFormat(160, 6, row[0], "", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, row[1], "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 8, "Status: "+string(inv.PaymentStatus), "", 1, "R", false, 0, "")

	if len(payments) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 7, "Payments", "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		for _, p := range payments {
			line := fmt.Sprintf("%s  %-12s  %s", p.Date.Format("2006-01-02 15:04"), p.Method, money(p.Amount))
			pdf.CellFormat(0, 6, line, "", 1, "L", false, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render invoice pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func money(d decimal.Decimal) string {
	return d.StringFixed(billing.MoneyPlaces)
}
