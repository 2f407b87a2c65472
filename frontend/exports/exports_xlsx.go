package exports

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const xlsxSheetName = "Loading"

var xlsxHeaders = []string{"Sr No", "SKU", "Cases/Plt", "Full Plt", "Loose", "Staged", "Pallets Loaded", "Loose Loaded", "Loaded", "Balance"}

func writeSheetXLSX(w io.Writer, rep Report) error {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", xlsxSheetName); err != nil {
		return err
	}

	boldStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Size: 11},
		Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 1}},
	})
	if err != nil {
		return err
	}
	shortStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Color: "#C00000"}})
	if err != nil {
		return err
	}

	s := rep.Sheet
	meta := [][2]string{
		{"Sheet", s.ID},
		{"Status", string(s.Status)},
		{"Destination", s.Header.Destination},
		{"Dock", s.Header.LoadingDockNo},
		{"Shift", s.Header.Shift},
		{"Date", s.Header.Date},
		{"Vehicle", s.LoadingHeader.VehicleNo},
		{"Seal", s.LoadingHeader.SealNo},
	}
	for i, m := range meta {
		row := i + 1
		_ = f.SetCellValue(xlsxSheetName, fmt.Sprintf("A%d", row), m[0])
		_ = f.SetCellValue(xlsxSheetName, fmt.Sprintf("B%d", row), m[1])
	}
	headerRow := len(meta) + 2
	for i, h := range xlsxHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := fmt.Sprintf("%s%d", col, headerRow)
		_ = f.SetCellValue(xlsxSheetName, cell, h)
		_ = f.SetCellStyle(xlsxSheetName, cell, cell, boldStyle)
	}

	row := headerRow + 1
	for _, l := range rep.Lines {
		values := []any{l.SrNo, l.SkuName, l.CasesPerPlt, l.FullPlt, l.Loose, l.Staged, l.Pallets, l.LooseLoaded, l.Loaded, l.Balance}
		for i, v := range values {
			col, _ := excelize.ColumnNumberToName(i + 1)
			_ = f.SetCellValue(xlsxSheetName, fmt.Sprintf("%s%d", col, row), v)
		}
		if l.Balance != 0 {
			cell := fmt.Sprintf("J%d", row)
			_ = f.SetCellStyle(xlsxSheetName, cell, cell, shortStyle)
		}
		row++
	}
	for _, e := range rep.Extras {
		_ = f.SetCellValue(xlsxSheetName, fmt.Sprintf("B%d", row), e.SkuName)
		_ = f.SetCellValue(xlsxSheetName, fmt.Sprintf("I%d", row), e.Total)
		_ = f.SetCellValue(xlsxSheetName, fmt.Sprintf("J%d", row), "additional")
		row++
	}

	summaryStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	_ = f.SetCellValue(xlsxSheetName, fmt.Sprintf("B%d", row), "TOTAL")
	_ = f.SetCellValue(xlsxSheetName, fmt.Sprintf("F%d", row), rep.Totals.Staged)
	_ = f.SetCellValue(xlsxSheetName, fmt.Sprintf("I%d", row), rep.Totals.Loaded+rep.Totals.Additional)
	_ = f.SetCellValue(xlsxSheetName, fmt.Sprintf("J%d", row), rep.Totals.Balance)
	_ = f.SetCellStyle(xlsxSheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("J%d", row), summaryStyle)

	colWidths := []float64{8, 28, 10, 10, 8, 10, 14, 12, 10, 10}
	for i, width := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(xlsxSheetName, col, col, width)
	}
	return f.Write(w)
}
