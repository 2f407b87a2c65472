package exports

import (
	"encoding/csv"
	"io"
	"strconv"
)

func writeSheetCSV(w io.Writer, rep Report) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(lineHeader); err != nil {
		return err
	}
	for _, l := range rep.Lines {
		if err := writer.Write(l.record()); err != nil {
			return err
		}
	}
	for _, e := range rep.Extras {
		if err := writer.Write([]string{"", e.SkuName, "", "", "", "", "", "", toString(e.Total), "additional"}); err != nil {
			return err
		}
	}
	t := rep.Totals
	if err := writer.Write([]string{"", "TOTAL", "", "", "", toString(t.Staged), "", "", toString(t.Loaded + t.Additional), toString(t.Balance)}); err != nil {
		return err
	}
	return writer.Error()
}

// writeSummaryCSV lists one line per sheet.
func writeSummaryCSV(w io.Writer, reps []Report) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"sheet_id", "status", "destination", "dock", "shift", "date", "staged", "loaded", "balance", "additional", "created_by", "completed_by"}); err != nil {
		return err
	}
	for _, rep := range reps {
		s := rep.Sheet
		t := rep.Totals
		if err := writer.Write([]string{
			s.ID,
			string(s.Status),
			s.Header.Destination,
			s.Header.LoadingDockNo,
			s.Header.Shift,
			s.Header.Date,
			toString(t.Staged),
			toString(t.Loaded),
			toString(t.Balance),
			toString(t.Additional),
			s.CreatedBy,
			s.CompletedBy,
		}); err != nil {
			return err
		}
	}
	return writer.Error()
}

func toString(v int) string {
	return strconv.Itoa(v)
}
