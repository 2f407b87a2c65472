package exports

import (
	"strings"

	"loadsheet/infrastructure/sheet"
)

var lineHeader = []string{"sr_no", "sku", "cases_per_plt", "full_plt", "loose", "staged_cases", "pallets_loaded", "loose_loaded", "loaded_cases", "balance"}

// BuildReport flattens a sheet. Blank staging rows are dropped; loading
// columns stay zero until the sheet has been locked.
func BuildReport(s sheet.SheetData) Report {
	rep := Report{Sheet: s, Totals: sheet.SheetTotals(s)}
	loading := make(map[int]sheet.LoadingItemData, len(s.LoadingItems))
	for _, li := range s.LoadingItems {
		loading[li.SkuSrNo] = li
	}
	for _, it := range s.StagingItems {
		if strings.TrimSpace(it.SkuName) == "" {
			continue
		}
		line := ReportLine{
			SrNo:        it.SrNo,
			SkuName:     it.SkuName,
			CasesPerPlt: deref(it.CasesPerPlt),
			FullPlt:     deref(it.FullPlt),
			Loose:       deref(it.Loose),
			Staged:      it.TtlCases,
			Balance:     it.TtlCases,
		}
		if li, ok := loading[it.SrNo]; ok {
			for _, c := range li.Cells {
				if sheet.SlotEnabled(c.Row, c.Col, line.FullPlt) && c.Value > 0 {
					line.Pallets++
				}
			}
			line.LooseLoaded = li.LooseInput
			line.Loaded = li.Total
			line.Balance = li.Balance
		}
		rep.Lines = append(rep.Lines, line)
	}
	for _, it := range s.AdditionalItems {
		if strings.TrimSpace(it.SkuName) == "" && it.Total == 0 {
			continue
		}
		rep.Extras = append(rep.Extras, ExtraLine{SkuName: it.SkuName, Total: it.Total})
	}
	return rep
}

func (l ReportLine) record() []string {
	return []string{
		toString(l.SrNo),
		l.SkuName,
		toString(l.CasesPerPlt),
		toString(l.FullPlt),
		toString(l.Loose),
		toString(l.Staged),
		toString(l.Pallets),
		toString(l.LooseLoaded),
		toString(l.Loaded),
		toString(l.Balance),
	}
}

func deref(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
