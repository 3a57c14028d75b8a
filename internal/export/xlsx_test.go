package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"bills/internal/core"
)

func TestWriteXLSX(t *testing.T) {
	bills := []core.Bill{
		{ID: "b1", Place: "market", Date: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), Label: core.Food, Price: core.Money{Cents: 1250}, Note: "veg"},
		{ID: "b2", Place: "bus", Date: time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), Label: core.Transport, Price: core.Money{Cents: 250}},
	}
	totals := []core.LabelTotal{
		{Label: core.Food, Total: core.Money{Cents: 1250}},
		{Label: core.Transport, Total: core.Money{Cents: 250}},
	}

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, bills, totals); err != nil {
		t.Fatalf("write: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(BillsSheet)
	if err != nil {
		t.Fatalf("bills rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d bill rows, want 3", len(rows))
	}
	if rows[0][0] != "Date" || rows[0][5] != "ID" {
		t.Fatalf("header = %v", rows[0])
	}
	if rows[1][0] != "2024-01-10" || rows[1][1] != "market" || rows[1][2] != "food" || rows[1][4] != "veg" || rows[1][5] != "b1" {
		t.Fatalf("first row = %v", rows[1])
	}
	price, err := f.GetCellValue(BillsSheet, "D2", excelize.Options{RawCellValue: true})
	if err != nil || price != "12.5" {
		t.Fatalf("price cell = %q (%v)", price, err)
	}

	totalRows, err := f.GetRows(TotalsSheet)
	if err != nil {
		t.Fatalf("totals rows: %v", err)
	}
	if len(totalRows) != 4 || totalRows[3][0] != "Total" {
		t.Fatalf("totals = %v", totalRows)
	}
	grand, _ := f.GetCellValue(TotalsSheet, "B4", excelize.Options{RawCellValue: true})
	if grand != "15" {
		t.Fatalf("grand total = %q", grand)
	}
}

func TestWriteXLSXEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, nil, nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	rows, _ := f.GetRows(BillsSheet)
	if len(rows) != 1 {
		t.Fatalf("empty export should hold only the header, got %v", rows)
	}
}

func TestFilename(t *testing.T) {
	if got := Filename("2024-01-10"); got != "bills_2024-01-10.xlsx" {
		t.Fatalf("Filename = %q", got)
	}
}
