package sheets

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"

	"loadsheet/infrastructure/sheet"
)

const timeLayout = "02/01/2006 15:04"

func esc(v string) string {
	return templ.EscapeString(v)
}

func intCell(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func timeCell(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Format(timeLayout)
}

func layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<!doctype html><html><head><meta charset="utf-8"><title>%s</title></head><body class="p-4">`, esc(title)); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</body></html>`)
		return err
	})
}

// SheetsIndexPage lists sheets with their lifecycle state and totals.
func SheetsIndexPage(list []sheet.SheetData) templ.Component {
	return layout("Loading sheets", templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<h1>Loading sheets</h1><table class="table"><thead><tr><th>ID</th><th>Status</th><th>Destination</th><th>Shift</th><th>Staged</th><th>Loaded</th><th>Balance</th></tr></thead><tbody>`)
		if len(list) == 0 {
			b.WriteString(`<tr><td colspan="7">No sheets yet</td></tr>`)
		}
		for _, s := range list {
			t := sheet.SheetTotals(s)
			fmt.Fprintf(&b, `<tr><td><a href="/sheets/%s">%s</a></td><td>%s</td><td>%s</td><td>%s</td><td>%d</td><td>%d</td><td>%d</td></tr>`,
				esc(s.ID), esc(s.ID), esc(string(s.Status)), esc(s.Header.Destination), esc(s.Header.Shift), t.Staged, t.Loaded, t.Balance)
		}
		b.WriteString(`</tbody></table>`)
		_, err := io.WriteString(w, b.String())
		return err
	}))
}

// SheetPage renders one sheet read-only: staging plan, loading matrix,
// ad-hoc items, history, comments and evidence.
func SheetPage(s sheet.SheetData) templ.Component {
	return layout("Sheet "+s.ID, templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		t := sheet.SheetTotals(s)
		fmt.Fprintf(&b, `<h1>Sheet %s <span class="badge" data-status="%s">%s</span></h1>`, esc(s.ID), esc(string(s.Status)), esc(string(s.Status)))
		fmt.Fprintf(&b, `<dl><dt>Destination</dt><dd>%s</dd><dt>Dock</dt><dd>%s</dd><dt>Shift</dt><dd>%s</dd><dt>Date</dt><dd>%s</dd><dt>Supervisor</dt><dd>%s %s</dd></dl>`,
			esc(s.Header.Destination), esc(s.Header.LoadingDockNo), esc(s.Header.Shift), esc(s.Header.Date), esc(s.Header.SupervisorName), esc(s.Header.SupervisorEmpCode))

		b.WriteString(`<h2>Staging</h2><table class="table"><thead><tr><th>Sr</th><th>SKU</th><th>Cases/Plt</th><th>Full Plt</th><th>Loose</th><th>Total</th></tr></thead><tbody>`)
		for _, it := range s.StagingItems {
			if strings.TrimSpace(it.SkuName) == "" {
				continue
			}
			fmt.Fprintf(&b, `<tr><td>%d</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%d</td></tr>`,
				it.SrNo, esc(it.SkuName), intCell(it.CasesPerPlt), intCell(it.FullPlt), intCell(it.Loose), it.TtlCases)
		}
		b.WriteString(`</tbody></table>`)

		if s.Status != sheet.StatusDraft {
			fmt.Fprintf(&b, `<h2>Loading</h2><p>Vehicle %s, seal %s, start %s, end %s</p>`,
				esc(s.LoadingHeader.VehicleNo), esc(s.LoadingHeader.SealNo), timeCell(s.LoadingHeader.LoadingStartTime), timeCell(s.LoadingHeader.LoadingEndTime))
			b.WriteString(`<table class="table"><thead><tr><th>Sr</th><th>SKU</th><th>Pallets</th><th>Loose</th><th>Total</th><th>Balance</th></tr></thead><tbody>`)
			for _, li := range s.LoadingItems {
				st, _ := s.StagingItemBySrNo(li.SkuSrNo)
				fmt.Fprintf(&b, `<tr><td>%d</td><td>%s</td><td>%d</td><td>%d</td><td>%d</td><td class="%s">%d</td></tr>`,
					li.SkuSrNo, esc(st.SkuName), len(li.Cells), li.LooseInput, li.Total, balanceClass(li.Balance), li.Balance)
			}
			b.WriteString(`</tbody></table>`)
			b.WriteString(`<h3>Additional items</h3><ul>`)
			for _, it := range s.AdditionalItems {
				if strings.TrimSpace(it.SkuName) == "" && it.Total == 0 {
					continue
				}
				fmt.Fprintf(&b, `<li>%s: %d</li>`, esc(it.SkuName), it.Total)
			}
			b.WriteString(`</ul>`)
		}

		fmt.Fprintf(&b, `<p>Staged %d, loaded %d, balance %d, additional %d</p>`, t.Staged, t.Loaded, t.Balance, t.Additional)
		fmt.Fprintf(&b, `<p><a href="/exports/sheets/%s/csv">CSV</a> <a href="/exports/sheets/%s/xlsx">Excel</a> <a href="/exports/sheets/%s/pdf">PDF</a></p>`, esc(s.ID), esc(s.ID), esc(s.ID))

		b.WriteString(`<h2>History</h2><ol>`)
		for _, h := range s.History {
			fmt.Fprintf(&b, `<li>%s %s by %s (%s) %s</li>`, h.Timestamp.Format(timeLayout), esc(h.Action), esc(h.Actor), esc(string(h.Role)), esc(h.Details))
		}
		b.WriteString(`</ol><h2>Comments</h2><ul>`)
		for _, c := range s.Comments {
			fmt.Fprintf(&b, `<li><strong>%s</strong> %s: %s</li>`, esc(c.Author), c.CreatedAt.Format(timeLayout), esc(c.Text))
		}
		b.WriteString(`</ul><h2>Evidence</h2><div class="grid">`)
		for _, img := range s.CapturedImages {
			fmt.Fprintf(&b, `<figure><img src="/api/sheets/%s/images/%s" alt="%s" loading="lazy"><figcaption>%s, %s</figcaption></figure>`,
				esc(s.ID), esc(img.ID), esc(img.FileName), esc(img.CapturedBy), img.CapturedAt.Format(timeLayout))
		}
		b.WriteString(`</div>`)
		_, err := io.WriteString(w, b.String())
		return err
	}))
}

func balanceClass(balance int) string {
	switch {
	case balance > 0:
		return "shortage"
	case balance < 0:
		return "overage"
	default:
		return "balanced"
	}
}
