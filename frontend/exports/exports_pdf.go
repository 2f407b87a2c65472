package exports

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"strings"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/jung-kurt/gofpdf"
)

var pdfColumns = []struct {
	title string
	width float64
	align string
}{
	{"Sr", 12, "C"},
	{"SKU", 78, "L"},
	{"Cs/Plt", 20, "R"},
	{"Full Plt", 20, "R"},
	{"Loose", 18, "R"},
	{"Staged", 24, "R"},
	{"Plt Loaded", 24, "R"},
	{"Loose Ld", 22, "R"},
	{"Loaded", 24, "R"},
	{"Balance", 24, "R"},
}

// renderSheetPDF prints a landscape loading sheet with a Code 128 barcode
// of the sheet id for gate scanning.
func renderSheetPDF(rep Report, printedAt time.Time) ([]byte, error) {
	s := rep.Sheet
	barcodePNG, err := renderCode128PNG(s.ID, 1200, 200)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Loading Sheet "+s.ID, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 10, "LOADING SHEET", "", 1, "C", false, 0, "")

	opt := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	pdf.RegisterImageOptionsReader("sheet-barcode", opt, bytes.NewReader(barcodePNG))
	pageW, _ := pdf.GetPageSize()
	imgW, imgH := 110.0, 18.0
	pdf.ImageOptions("sheet-barcode", (pageW-imgW)/2, pdf.GetY()+1, imgW, imgH, false, opt, 0, "")
	pdf.SetY(pdf.GetY() + imgH + 2)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 6, s.ID, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Status: %s   Destination: %s   Dock: %s   Shift: %s   Date: %s",
		s.Status, orNA(s.Header.Destination), orNA(s.Header.LoadingDockNo), orNA(s.Header.Shift), orNA(s.Header.Date)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Transporter: %s   Vehicle: %s   Driver: %s   Seal: %s",
		orNA(s.LoadingHeader.Transporter), orNA(s.LoadingHeader.VehicleNo), orNA(s.LoadingHeader.DriverName), orNA(s.LoadingHeader.SealNo)), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(217, 225, 242)
	for _, c := range pdfColumns {
		pdf.CellFormat(c.width, 7, c.title, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, l := range rep.Lines {
		for i, v := range l.record() {
			c := pdfColumns[i]
			pdf.CellFormat(c.width, 6, v, "1", 0, c.align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	for _, e := range rep.Extras {
		pdf.CellFormat(pdfColumns[0].width, 6, "+", "1", 0, "C", false, 0, "")
		pdf.CellFormat(pdfColumns[1].width, 6, e.SkuName, "1", 0, "L", false, 0, "")
		var rest float64
		for _, c := range pdfColumns[2:8] {
			rest += c.width
		}
		pdf.CellFormat(rest, 6, "additional", "1", 0, "C", false, 0, "")
		pdf.CellFormat(pdfColumns[8].width, 6, toString(e.Total), "1", 0, "R", false, 0, "")
		pdf.CellFormat(pdfColumns[9].width, 6, "", "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(3)
	pdf.SetFont("Helvetica", "B", 11)
	t := rep.Totals
	pdf.CellFormat(0, 7, fmt.Sprintf("Staged %d   Loaded %d   Additional %d   Balance %d", t.Staged, t.Loaded, t.Additional, t.Balance), "", 1, "L", false, 0, "")
	if r := strings.TrimSpace(s.LoadingHeader.Remarks); r != "" {
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5, "Remarks: "+r, "", "L", false)
	}
	pdf.SetFont("Helvetica", "I", 8)
	pdf.CellFormat(0, 6, "Printed "+printedAt.Format("02/01/2006 15:04"), "", 1, "R", false, 0, "")

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func orNA(v string) string {
	if strings.TrimSpace(v) == "" {
		return "N/A"
	}
	return v
}

func renderCode128PNG(value string, width, height int) ([]byte, error) {
	code, err := code128.Encode(value)
	if err != nil {
		return nil, err
	}
	scaled, err := barcode.Scale(code, width, height)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, toNRGBA(scaled)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func toNRGBA(src image.Image) *image.NRGBA {
	bounds := src.Bounds()
	dst := image.NewNRGBA(bounds)
	draw.Draw(dst, bounds, src, bounds.Min, draw.Src)
	return dst
}
