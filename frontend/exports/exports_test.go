package exports

import (
	"bytes"
	"context"
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/xuri/excelize/v2"

	sessioncontext "loadsheet/frontend/shared/context"
	"loadsheet/infrastructure/sheet"
	"loadsheet/infrastructure/sqlite"
)

func openTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.OpenDB(filepath.Join(t.TempDir(), "exports-test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime caller unavailable")
	}
	migrationsDir := filepath.Join(filepath.Dir(file), "..", "..", "infrastructure", "sqlite", "migrations")
	if err := sqlite.ApplyMigrations(context.Background(), db, migrationsDir); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return db
}

// loadedSheet stages two SKUs, locks, then loads one pallet plus 5 loose
// cases of the first and 4 cases of an ad-hoc item.
func loadedSheet(t *testing.T) (*sheet.Controller, sheet.SheetData) {
	t.Helper()
	ctx := context.Background()
	stager := sheet.Actor{Name: "sam", Role: sheet.RoleStagingSupervisor}
	loader := sheet.Actor{Name: "lee", Role: sheet.RoleLoadingSupervisor}
	c := sheet.NewController(sheet.NewMemoryRepository())

	s, err := c.Create(ctx, stager, sheet.DraftInput{
		Header: sheet.StagingHeader{Destination: "Muscat", LoadingDockNo: "7", Shift: "B", Date: "2026-03-01"},
		Items: []sheet.StagingItem{
			{SrNo: 1, SkuName: "Water 500ml", CasesPerPlt: sheet.IntPtr(10), FullPlt: sheet.IntPtr(5)},
			{SrNo: 2, SkuName: "Juice 1L", CasesPerPlt: sheet.IntPtr(6), FullPlt: sheet.IntPtr(2), Loose: sheet.IntPtr(3)},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := c.Lock(ctx, stager, s.ID); err != nil {
		t.Fatalf("lock: %v", err)
	}
	if _, err := c.EditCell(ctx, loader, s.ID, sheet.CellEdit{SkuSrNo: 1, Row: 0, Col: 0, Value: "10", Commit: true}); err != nil {
		t.Fatalf("edit cell: %v", err)
	}
	if _, err := c.EditLoose(ctx, loader, s.ID, 1, "5"); err != nil {
		t.Fatalf("edit loose: %v", err)
	}
	name := "Samples"
	slot := 0
	s, err = c.EditAdditional(ctx, loader, s.ID, sheet.AdditionalEdit{ID: 1, SkuName: &name, Slot: &slot, Value: "4"})
	if err != nil {
		t.Fatalf("edit additional: %v", err)
	}
	return c, s
}

func TestBuildReportFlattensLoadingProgress(t *testing.T) {
	_, s := loadedSheet(t)
	rep := BuildReport(s)

	if len(rep.Lines) != 2 {
		t.Fatalf("expected 2 staged lines, got %d", len(rep.Lines))
	}
	first := rep.Lines[0]
	if first.Staged != 50 || first.Pallets != 1 || first.LooseLoaded != 5 || first.Loaded != 15 || first.Balance != 35 {
		t.Fatalf("unexpected first line %+v", first)
	}
	second := rep.Lines[1]
	if second.Staged != 15 || second.Loaded != 0 || second.Balance != 15 {
		t.Fatalf("unexpected second line %+v", second)
	}
	if len(rep.Extras) != 1 || rep.Extras[0].SkuName != "Samples" || rep.Extras[0].Total != 4 {
		t.Fatalf("unexpected extras %+v", rep.Extras)
	}
	if rep.RowCount() != 3 {
		t.Fatalf("expected row count 3, got %d", rep.RowCount())
	}
}

func TestWriteSheetCSV(t *testing.T) {
	_, s := loadedSheet(t)
	var buf bytes.Buffer
	if err := writeSheetCSV(&buf, BuildReport(s)); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 5 {
		t.Fatalf("expected header, 2 lines, 1 extra and total, got %d records", len(records))
	}
	if strings.Join(records[1], ",") != "1,Water 500ml,10,5,0,50,1,5,15,35" {
		t.Fatalf("unexpected first record %v", records[1])
	}
	total := records[4]
	if total[1] != "TOTAL" || total[5] != "65" || total[8] != "19" || total[9] != "50" {
		t.Fatalf("unexpected total record %v", total)
	}
}

func TestWriteSheetXLSX(t *testing.T) {
	_, s := loadedSheet(t)
	var buf bytes.Buffer
	if err := writeSheetXLSX(&buf, BuildReport(s)); err != nil {
		t.Fatalf("write xlsx: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer f.Close()

	id, err := f.GetCellValue(xlsxSheetName, "B1")
	if err != nil || id != s.ID {
		t.Fatalf("expected sheet id %s in B1, got %q (%v)", s.ID, id, err)
	}
	sku, _ := f.GetCellValue(xlsxSheetName, "B11")
	balance, _ := f.GetCellValue(xlsxSheetName, "J11")
	if sku != "Water 500ml" || balance != "35" {
		t.Fatalf("unexpected first data row: sku %q balance %q", sku, balance)
	}
}

func TestRenderSheetPDF(t *testing.T) {
	t.Parallel()
	_, s := loadedSheet(t)
	pdf, err := renderSheetPDF(BuildReport(s), time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("render pdf: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Fatalf("expected pdf header")
	}
}

func TestSheetExportHandlerRecordsRun(t *testing.T) {
	db := openTestDB(t)
	c, s := loadedSheet(t)
	d := Deps{Sheets: c, DB: db}

	r := chi.NewRouter()
	r.Get("/exports/sheets/{id}/{format}", SheetExportHandler(d))
	r.Get("/exports/sheets.csv", SheetsSummaryCSVHandler(d))

	for _, tc := range []struct {
		path   string
		status int
		ctype  string
	}{
		{"/exports/sheets/" + s.ID + "/csv", http.StatusOK, "text/csv"},
		{"/exports/sheets/" + s.ID + "/xlsx", http.StatusOK, FormatXLSX.contentType()},
		{"/exports/sheets/" + s.ID + "/pdf", http.StatusOK, "application/pdf"},
		{"/exports/sheets/" + s.ID + "/docx", http.StatusBadRequest, ""},
		{"/exports/sheets/SHEET-missing/csv", http.StatusNotFound, ""},
		{"/exports/sheets.csv", http.StatusOK, "text/csv"},
	} {
		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		req = req.WithContext(sessioncontext.NewContextWithActor(req.Context(), sheet.Actor{Name: "ana", Role: sheet.RoleAdmin}))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != tc.status {
			t.Fatalf("%s: expected %d, got %d", tc.path, tc.status, rec.Code)
		}
		if tc.ctype != "" && rec.Header().Get("Content-Type") != tc.ctype {
			t.Fatalf("%s: expected content type %s, got %s", tc.path, tc.ctype, rec.Header().Get("Content-Type"))
		}
	}

	runs, err := ExportRuns(context.Background(), db, s.ID)
	if err != nil {
		t.Fatalf("export runs: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 export runs, got %d", len(runs))
	}
	if runs[0].ExportType != "sheet_pdf" || runs[0].Actor != "ana" || runs[0].RowCount != 3 {
		t.Fatalf("unexpected latest run %+v", runs[0])
	}
}
