package exports

import (
	"go.uber.org/zap"

	"loadsheet/infrastructure/metrics"
	"loadsheet/infrastructure/sheet"
	"loadsheet/infrastructure/sqlite"
)

// Format is a supported download format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

func (f Format) contentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	}
	return ""
}

type Deps struct {
	Sheets  *sheet.Controller
	DB      *sqlite.DB
	Metrics *metrics.Metrics
	Log     *zap.Logger
}

// ReportLine is one staged SKU with its loading progress.
type ReportLine struct {
	SrNo        int
	SkuName     string
	CasesPerPlt int
	FullPlt     int
	Loose       int
	Staged      int
	Pallets     int
	LooseLoaded int
	Loaded      int
	Balance     int
}

// ExtraLine is an ad-hoc item loaded outside the staged plan.
type ExtraLine struct {
	SkuName string
	Total   int
}

// Report is the flattened, export-ready view of one sheet.
type Report struct {
	Sheet  sheet.SheetData
	Lines  []ReportLine
	Extras []ExtraLine
	Totals sheet.Totals
}

// RowCount is what gets logged against the export run.
func (r Report) RowCount() int {
	return len(r.Lines) + len(r.Extras)
}
