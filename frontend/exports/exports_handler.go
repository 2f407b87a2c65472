package exports

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	sessioncontext "loadsheet/frontend/shared/context"
	"loadsheet/infrastructure/sheet"
)

// SheetExportHandler streams one sheet as csv, xlsx or pdf.
func SheetExportHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		format := Format(strings.ToLower(chi.URLParam(r, "format")))
		if format.contentType() == "" {
			http.Error(w, "unsupported export format", http.StatusBadRequest)
			return
		}
		id := strings.TrimSpace(chi.URLParam(r, "id"))
		s, err := d.Sheets.Get(r.Context(), id)
		if errors.Is(err, sheet.ErrNotFound) {
			http.Error(w, "sheet not found", http.StatusNotFound)
			return
		}
		if err != nil {
			d.logger().Error("load sheet for export failed", zap.String("sheet_id", id), zap.Error(err))
			http.Error(w, "failed to load sheet", http.StatusInternalServerError)
			return
		}

		rep := BuildReport(s)
		var buf bytes.Buffer
		switch format {
		case FormatCSV:
			err = writeSheetCSV(&buf, rep)
		case FormatXLSX:
			err = writeSheetXLSX(&buf, rep)
		case FormatPDF:
			var pdfBytes []byte
			pdfBytes, err = renderSheetPDF(rep, time.Now())
			buf.Write(pdfBytes)
		}
		if err != nil {
			d.logger().Error("render export failed", zap.String("sheet_id", id), zap.String("format", string(format)), zap.Error(err))
			http.Error(w, "failed to export sheet", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", format.contentType())
		w.Header().Set("Content-Disposition", "attachment; filename="+s.ID+"."+string(format))
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		if _, err := w.Write(buf.Bytes()); err != nil {
			return
		}
		d.Metrics.Exported(string(format))
		exportType := "sheet_" + string(format)
		if err := recordExportRun(r.Context(), d.DB, actorName(r), s.ID, exportType, rep.RowCount()); err != nil {
			d.logger().Error("record export run failed", zap.String("type", exportType), zap.Error(err))
		}
	}
}

// SheetsSummaryCSVHandler exports one line per sheet, optionally by ?status=.
func SheetsSummaryCSVHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := sheet.ListFilter{Status: sheet.Status(strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("status"))))}
		list, err := d.Sheets.List(r.Context(), filter)
		if err != nil {
			d.logger().Error("list sheets for export failed", zap.Error(err))
			http.Error(w, "failed to load sheets", http.StatusInternalServerError)
			return
		}
		reps := make([]Report, 0, len(list))
		for _, s := range list {
			reps = append(reps, BuildReport(s))
		}
		w.Header().Set("Content-Type", FormatCSV.contentType())
		w.Header().Set("Content-Disposition", "attachment; filename=sheets.csv")
		if err := writeSummaryCSV(w, reps); err != nil {
			http.Error(w, "failed to export csv", http.StatusInternalServerError)
			return
		}
		d.Metrics.Exported("summary_csv")
		if err := recordExportRun(r.Context(), d.DB, actorName(r), "", "sheets_summary_csv", len(reps)); err != nil {
			d.logger().Error("record export run failed", zap.String("type", "sheets_summary_csv"), zap.Error(err))
		}
	}
}

func actorName(r *http.Request) string {
	actor, ok := sessioncontext.GetActorFromContext(r.Context())
	if !ok {
		return ""
	}
	return actor.Name
}

func (d Deps) logger() *zap.Logger {
	if d.Log == nil {
		return zap.NewNop()
	}
	return d.Log
}
