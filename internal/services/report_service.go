package services

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"erp-service/internal/models"
	"erp-service/internal/rbac"
	"erp-service/internal/repository"
)

const (
	quotesSheet     = "Quotes"
	maxReportQuotes = 10000
)

var quoteReportColumns = []struct {
	header string
	width  float64
}{
	{"Number", 18},
	{"Customer", 30},
	{"Status", 32},
	{"Issue date", 14},
	{"Valid until", 14},
	{"Subtotal HT", 14},
	{"VAT", 12},
	{"Total TTC", 14},
}

// ReportService builds spreadsheet exports.
type ReportService struct {
	quotes *QuoteService
}

// NewReportService creates a new ReportService
func NewReportService(quotes *QuoteService) *ReportService {
	return &ReportService{quotes: quotes}
}

// QuotesWorkbook exports every quote p can see, optionally filtered by status.
func (s *ReportService) QuotesWorkbook(ctx context.Context, p rbac.Principal, status string) ([]byte, int, error) {
	var quotes []models.Quote
	params := QuoteListParams{Status: status, Page: repository.Page{Limit: repository.MaxLimit}}
	for len(quotes) < maxReportQuotes {
		page, err := s.quotes.List(ctx, p, params)
		if err != nil {
			return nil, 0, err
		}
		quotes = append(quotes, page.Items...)
		if len(page.Items) < page.Limit || int64(len(quotes)) >= page.Total {
			break
		}
		params.Offset += page.Limit
	}

	data, err := buildQuotesWorkbook(quotes)
	if err != nil {
		return nil, 0, err
	}
	return data, len(quotes), nil
}

func buildQuotesWorkbook(quotes []models.Quote) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", quotesSheet); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})
	if err != nil {
		return nil, err
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return nil, err
	}

	for i, c := range quoteReportColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(quotesSheet, cell, c.header)
		f.SetCellStyle(quotesSheet, cell, cell, headerStyle)
		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(quotesSheet, colName, colName, c.width)
	}

	for r, q := range quotes {
		row := r + 2
		customer := ""
		if q.Customer != nil {
			customer = q.Customer.Name
		}
		validUntil := ""
		if q.ValidUntil != nil {
			validUntil = q.ValidUntil.Format(dateLayout)
		}
		values := []interface{}{
			q.Number, customer, string(q.Status), q.IssueDate.Format(dateLayout), validUntil,
			q.SubtotalHT, q.TotalVAT, q.TotalTTC,
		}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, row)
			f.SetCellValue(quotesSheet, cell, v)
		}
		first, _ := excelize.CoordinatesToCellName(6, row)
		last, _ := excelize.CoordinatesToCellName(8, row)
		f.SetCellStyle(quotesSheet, first, last, moneyStyle)
	}

	if len(quotes) > 0 {
		totalRow := len(quotes) + 2
		f.SetCellValue(quotesSheet, fmt.Sprintf("A%d", totalRow), "Total")
		for _, colName := range []string{"F", "G", "H"} {
			f.SetCellFormula(quotesSheet, fmt.Sprintf("%s%d", colName, totalRow),
				fmt.Sprintf("SUM(%s2:%s%d)", colName, colName, totalRow-1))
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
