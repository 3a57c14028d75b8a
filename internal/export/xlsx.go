// Package export writes the ledger as an Excel workbook.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"bills/internal/core"
)

const (
	BillsSheet  = "Bills"
	TotalsSheet = "Totals"

	// ContentType is the media type of the workbook written by WriteXLSX.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var (
	billHeader  = []any{"Date", "Place", "Label", "Price", "Note", "ID"}
	totalHeader = []any{"Label", "Total"}
)

// Filename returns the attachment name for an export taken on day.
func Filename(day string) string {
	return fmt.Sprintf("bills_%s.xlsx", day)
}

// WriteXLSX writes bills, one row each in the given order, and the per-label
// totals to w. Prices are written as numbers in currency units.
func WriteXLSX(w io.Writer, bills []core.Bill, totals []core.LabelTotal) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", BillsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(TotalsSheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#36A2EB"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return fmt.Errorf("money style: %w", err)
	}

	if err := writeRow(f, BillsSheet, 1, billHeader); err != nil {
		return err
	}
	for i, b := range bills {
		row := []any{b.Date.Format(core.DateLayout), b.Place, b.Label.String(), b.Price.Float(), b.Note, b.ID}
		if err := writeRow(f, BillsSheet, i+2, row); err != nil {
			return err
		}
	}

	var grand core.Money
	if err := writeRow(f, TotalsSheet, 1, totalHeader); err != nil {
		return err
	}
	for i, t := range totals {
		grand = grand.Add(t.Total)
		if err := writeRow(f, TotalsSheet, i+2, []any{t.Label.String(), t.Total.Float()}); err != nil {
			return err
		}
	}
	if err := writeRow(f, TotalsSheet, len(totals)+2, []any{"Total", grand.Float()}); err != nil {
		return err
	}

	styles := []rangeStyle{
		{BillsSheet, "A1", "F1", header},
		{TotalsSheet, "A1", "B1", header},
		{TotalsSheet, "B2", fmt.Sprintf("B%d", len(totals)+2), money},
	}
	if len(bills) > 0 {
		styles = append(styles, rangeStyle{BillsSheet, "D2", fmt.Sprintf("D%d", len(bills)+1), money})
	}
	for _, s := range styles {
		if err := f.SetCellStyle(s.sheet, s.from, s.to, s.style); err != nil {
			return fmt.Errorf("style %s!%s: %w", s.sheet, s.from, err)
		}
	}

	widths := []struct {
		sheet, col string
		width      float64
	}{
		{BillsSheet, "A", 12},
		{BillsSheet, "B", 24},
		{BillsSheet, "C", 14},
		{BillsSheet, "D", 12},
		{BillsSheet, "E", 30},
		{BillsSheet, "F", 38},
		{TotalsSheet, "A", 14},
		{TotalsSheet, "B", 12},
	}
	for _, c := range widths {
		if err := f.SetColWidth(c.sheet, c.col, c.col, c.width); err != nil {
			return fmt.Errorf("column width: %w", err)
		}
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

type rangeStyle struct {
	sheet    string
	from, to string
	style    int
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s!%s: %w", sheet, cell, err)
	}
	return nil
}
