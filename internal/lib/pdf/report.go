// Package pdf генерирует PDF-отчеты по продажам для почтовых вложений.
package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

var (
	colorHeader  = [3]int{30, 58, 95}
	colorRowAlt  = [3]int{241, 245, 249}
	colorText    = [3]int{44, 62, 80}
	colorMuted   = [3]int{127, 140, 141}
	colorDivider = [3]int{220, 220, 220}
)

// ReportRow строка отчета по одной позиции склада.
type ReportRow struct {
	ItemName string  `json:"item_name" validate:"required"`
	Sold     int     `json:"sold"`
	Revenue  float64 `json:"revenue"`
}

// ReportData данные отчета за период.
type ReportData struct {
	Title       string      `json:"title" validate:"required"`
	Currency    string      `json:"currency"`
	PeriodStart time.Time   `json:"period_start"`
	PeriodEnd   time.Time   `json:"period_end"`
	Rows        []ReportRow `json:"rows" validate:"required,min=1,dive"`
}

// Generator генерирует PDF-документ отчета.
type Generator struct{}

// NewGenerator создает новый генератор отчетов.
func NewGenerator() *Generator {
	return &Generator{}
}

// Generate собирает PDF с таблицей продаж и итоговой выручкой.
func (g *Generator) Generate(data ReportData) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetMargins(20, 20, 20)
	doc.SetAutoPageBreak(true, 25)
	doc.AddPage()

	doc.SetTextColor(colorText[0], colorText[1], colorText[2])
	doc.SetFont("Helvetica", "B", 18)
	doc.CellFormat(0, 10, data.Title, "", 1, "L", false, 0, "")

	doc.SetFont("Helvetica", "", 10)
	doc.SetTextColor(colorMuted[0], colorMuted[1], colorMuted[2])
	period := fmt.Sprintf("%s — %s",
		data.PeriodStart.Format("02 Jan 2006"),
		data.PeriodEnd.Format("02 Jan 2006"))
	doc.CellFormat(0, 6, period, "", 1, "L", false, 0, "")
	doc.Ln(4)

	doc.SetDrawColor(colorDivider[0], colorDivider[1], colorDivider[2])
	doc.Line(20, doc.GetY(), 190, doc.GetY())
	doc.Ln(4)

	doc.SetFillColor(colorHeader[0], colorHeader[1], colorHeader[2])
	doc.SetTextColor(255, 255, 255)
	doc.SetFont("Helvetica", "B", 10)
	doc.CellFormat(90, 8, "Item", "", 0, "L", true, 0, "")
	doc.CellFormat(35, 8, "Sold", "", 0, "R", true, 0, "")
	doc.CellFormat(45, 8, "Revenue", "", 1, "R", true, 0, "")

	doc.SetFont("Helvetica", "", 10)
	doc.SetTextColor(colorText[0], colorText[1], colorText[2])
	var total float64
	for i, row := range data.Rows {
		fill := i%2 == 1
		if fill {
			doc.SetFillColor(colorRowAlt[0], colorRowAlt[1], colorRowAlt[2])
		}
		doc.CellFormat(90, 7, row.ItemName, "", 0, "L", fill, 0, "")
		doc.CellFormat(35, 7, fmt.Sprintf("%d", row.Sold), "", 0, "R", fill, 0, "")
		doc.CellFormat(45, 7, fmt.Sprintf("%.2f %s", row.Revenue, data.Currency), "", 1, "R", fill, 0, "")
		total += row.Revenue
	}

	doc.Ln(2)
	doc.SetFont("Helvetica", "B", 11)
	doc.CellFormat(125, 8, "Total", "", 0, "L", false, 0, "")
	doc.CellFormat(45, 8, fmt.Sprintf("%.2f %s", total, data.Currency), "", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf.Generate: %w", err)
	}
	return buf.Bytes(), nil
}
