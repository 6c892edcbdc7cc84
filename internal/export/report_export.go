// Package export renders reports as spreadsheet and PDF downloads.
package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"github.com/mamadbah2/stockledger/internal/domain/models"
)

const (
	summarySheet = "summary"
	detailSheet  = "detail"
	monthLayout  = "2006-01"
)

// Content types for the rendered documents.
const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypePDF  = "application/pdf"
)

// BuildCashFlowXLSX renders a cash flow report with its per-category summary.
func BuildCashFlowXLSX(report models.CashFlowReport, summary []models.EntrySummary) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(detailSheet); err != nil {
		return nil, err
	}

	_ = f.SetCellValue(summarySheet, "A1", "Cash Flow Report")
	rows := [][2]any{
		{"Department", departmentLabel(report)},
		{"Month", report.PeriodStart.Format(monthLayout)},
		{"Total Income", report.TotalIncome.InexactFloat64()},
		{"Total Expense", report.TotalExpense.InexactFloat64()},
		{"Net Profit", report.NetProfit().InexactFloat64()},
		{"Budget Variance", report.BudgetVariance.InexactFloat64()},
	}
	for i, row := range rows {
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", i+3), row[0])
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", i+3), row[1])
	}

	_ = f.SetCellValue(detailSheet, "A1", "Category")
	_ = f.SetCellValue(detailSheet, "B1", "Direction")
	_ = f.SetCellValue(detailSheet, "C1", "Entries")
	_ = f.SetCellValue(detailSheet, "D1", "Total")
	for i, s := range summary {
		row := i + 2
		_ = f.SetCellValue(detailSheet, fmt.Sprintf("A%d", row), s.Category)
		_ = f.SetCellValue(detailSheet, fmt.Sprintf("B%d", row), string(s.Direction))
		_ = f.SetCellValue(detailSheet, fmt.Sprintf("C%d", row), s.Count)
		_ = f.SetCellValue(detailSheet, fmt.Sprintf("D%d", row), s.TotalAmount.InexactFloat64())
	}

	return writeXLSX(f)
}

// BuildStockValueXLSX renders the inventory valuation with one row per category.
func BuildStockValueXLSX(report models.StockValueReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(detailSheet); err != nil {
		return nil, err
	}

	_ = f.SetCellValue(summarySheet, "A1", "Stock Value Report")
	_ = f.SetCellValue(summarySheet, "A3", "Total Value")
	_ = f.SetCellValue(summarySheet, "B3", report.TotalValue.InexactFloat64())
	_ = f.SetCellValue(summarySheet, "A4", "Items")
	_ = f.SetCellValue(summarySheet, "B4", report.TotalItems)
	_ = f.SetCellValue(summarySheet, "A5", "Units")
	_ = f.SetCellValue(summarySheet, "B5", report.TotalQuantity)

	_ = f.SetCellValue(detailSheet, "A1", "Category")
	_ = f.SetCellValue(detailSheet, "B1", "Items")
	_ = f.SetCellValue(detailSheet, "C1", "Units")
	_ = f.SetCellValue(detailSheet, "D1", "Value")
	for i, c := range report.Categories {
		row := i + 2
		_ = f.SetCellValue(detailSheet, fmt.Sprintf("A%d", row), c.Category)
		_ = f.SetCellValue(detailSheet, fmt.Sprintf("B%d", row), c.ItemCount)
		_ = f.SetCellValue(detailSheet, fmt.Sprintf("C%d", row), c.TotalQuantity)
		_ = f.SetCellValue(detailSheet, fmt.Sprintf("D%d", row), c.TotalValue.InexactFloat64())
	}

	return writeXLSX(f)
}

// BuildCashFlowPDF renders a one page cash flow statement.
func BuildCashFlowPDF(report models.CashFlowReport, summary []models.EntrySummary) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Cash Flow Report", false)
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 8, "Cash Flow Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Department: %s", departmentLabel(report)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Month: %s", report.PeriodStart.Format(monthLayout)))
	pdf.Ln(8)

	for _, line := range [][2]string{
		{"Total Income", report.TotalIncome.StringFixed(2)},
		{"Total Expense", report.TotalExpense.StringFixed(2)},
		{"Net Profit", report.NetProfit().StringFixed(2)},
		{"Budget Variance", report.BudgetVariance.StringFixed(2)},
	} {
		pdf.CellFormat(60, 6, line[0], "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 6, line[1], "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	if len(summary) > 0 {
		pdf.Ln(6)
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(60, 6, "Category", "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, "Direction", "1", 0, "C", false, 0, "")
		pdf.CellFormat(20, 6, "Entries", "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6, "Total", "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 10)
		for _, s := range summary {
			pdf.CellFormat(60, 6, s.Category, "1", 0, "L", false, 0, "")
			pdf.CellFormat(30, 6, string(s.Direction), "1", 0, "C", false, 0, "")
			pdf.CellFormat(20, 6, fmt.Sprintf("%d", s.Count), "1", 0, "R", false, 0, "")
			pdf.CellFormat(40, 6, s.TotalAmount.StringFixed(2), "1", 0, "R", false, 0, "")
			pdf.Ln(-1)
		}
	}

	return writePDF(pdf)
}

// BuildStockValuePDF renders the inventory valuation.
func BuildStockValuePDF(report models.StockValueReport) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Stock Value Report", false)
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 8, "Stock Value Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Total Value: %s", report.TotalValue.StringFixed(2)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Items: %d  Units: %d", report.TotalItems, report.TotalQuantity))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(70, 6, "Category", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Items", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Units", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Value", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, c := range report.Categories {
		pdf.CellFormat(70, 6, c.Category, "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%d", c.ItemCount), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%d", c.TotalQuantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, c.TotalValue.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	return writePDF(pdf)
}

func departmentLabel(report models.CashFlowReport) string {
	switch {
	case report.DepartmentName != "":
		return report.DepartmentName
	case report.DepartmentID != "":
		return report.DepartmentID
	default:
		return "All departments"
	}
}

func writeXLSX(f *excelize.File) ([]byte, error) {
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writePDF(pdf *gofpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
