package sheet

import (
	"strconv"
	"strings"
)

// SlotEnabled reports whether grid slot (row,col) exists for a SKU staged
// with fullPlt full pallets.
func SlotEnabled(row, col, fullPlt int) bool {
	if row < 0 || col < 0 || col >= SlotsPerRow {
		return false
	}
	return row*SlotsPerRow+col < fullPlt
}

// ParseQuantity parses user input. Blank input is reported separately from
// zero so callers can clear a cell.
func ParseQuantity(raw string) (value int, blank bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, true, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, false, ErrInvalidCellValue
	}
	return v, false, nil
}

// Reconcile recomputes total and balance from the item's inputs. Cells in
// disabled slots are ignored.
func Reconcile(item LoadingItemData, contract StagingItem) LoadingItemData {
	fullPlt := contract.fullPlt()
	total := item.LooseInput
	for _, c := range item.Cells {
		if SlotEnabled(c.Row, c.Col, fullPlt) {
			total += c.Value
		}
	}
	item.Total = total
	item.Balance = ComputeTotalCases(contract.CasesPerPlt, contract.FullPlt, contract.Loose) - total
	return item
}

// ApplyCellEdit writes rawValue into (row,col) and returns the updated item.
//
// With commit set the cases-per-pallet contract is enforced: a populated
// cell must equal casesPerPlt, otherwise it is cleared and a
// *CellContractViolation is returned alongside the cleared item. Input that
// cannot be parsed leaves the item untouched.
func ApplyCellEdit(item LoadingItemData, row, col int, rawValue string, contract StagingItem, commit bool) (LoadingItemData, error) {
	if !SlotEnabled(row, col, contract.fullPlt()) {
		return item, ErrSlotDisabled
	}
	value, blank, err := ParseQuantity(rawValue)
	if err != nil {
		return item, err
	}

	if blank {
		item.Cells = withoutCell(item.Cells, row, col)
		return Reconcile(item, contract), nil
	}

	expected := contract.casesPerPlt()
	if commit && expected > 0 && value != expected {
		item.Cells = withoutCell(item.Cells, row, col)
		return Reconcile(item, contract), &CellContractViolation{
			SkuSrNo:  item.SkuSrNo,
			Row:      row,
			Col:      col,
			Expected: expected,
			Got:      value,
		}
	}

	item.Cells = withCell(item.Cells, LoadingCell{Row: row, Col: col, Value: value})
	return Reconcile(item, contract), nil
}

// EnforceContract drops cells that sit in a disabled slot or, when
// casesPerPlt is set, hold anything other than casesPerPlt. It returns the
// reconciled item and the number of cells removed.
func EnforceContract(item LoadingItemData, contract StagingItem) (LoadingItemData, int) {
	expected := contract.casesPerPlt()
	kept := make([]LoadingCell, 0, len(item.Cells))
	for _, cell := range item.Cells {
		if !SlotEnabled(cell.Row, cell.Col, contract.fullPlt()) {
			continue
		}
		if expected > 0 && cell.Value != expected {
			continue
		}
		kept = append(kept, cell)
	}
	dropped := len(item.Cells) - len(kept)
	item.Cells = kept
	return Reconcile(item, contract), dropped
}

// ApplyLooseEdit sets the loose-case count. Blank means zero.
func ApplyLooseEdit(item LoadingItemData, rawValue string, contract StagingItem) (LoadingItemData, error) {
	value, _, err := ParseQuantity(rawValue)
	if err != nil {
		return item, err
	}
	item.Cells = append([]LoadingCell(nil), item.Cells...)
	item.LooseInput = value
	return Reconcile(item, contract), nil
}

// ApplyAdditionalEdit sets one count slot of an ad-hoc item. Any
// non-negative value is accepted.
func ApplyAdditionalEdit(item AdditionalItem, slot int, rawValue string) (AdditionalItem, error) {
	if slot < 0 || slot >= AdditionalCountSlots {
		return item, ErrSlotDisabled
	}
	value, _, err := ParseQuantity(rawValue)
	if err != nil {
		return item, err
	}
	counts := normalizeCounts(item.Counts)
	counts[slot] = value
	item.Counts = counts
	item.Total = sumCounts(counts)
	return item, nil
}

// Totals summarises the whole sheet.
type Totals struct {
	Staged     int `json:"staged"`
	Loaded     int `json:"loaded"`
	Balance    int `json:"balance"`
	Additional int `json:"additional"`
}

// SheetTotals aggregates staged, loaded and ad-hoc quantities.
func SheetTotals(s SheetData) Totals {
	var t Totals
	for _, it := range s.StagingItems {
		if strings.TrimSpace(it.SkuName) == "" {
			continue
		}
		t.Staged += ComputeTotalCases(it.CasesPerPlt, it.FullPlt, it.Loose)
	}
	for _, it := range s.LoadingItems {
		t.Loaded += it.Total
	}
	for _, it := range s.AdditionalItems {
		t.Additional += sumCounts(it.Counts)
	}
	t.Balance = t.Staged - t.Loaded
	return t
}

func withCell(cells []LoadingCell, cell LoadingCell) []LoadingCell {
	out := make([]LoadingCell, 0, len(cells)+1)
	replaced := false
	for _, c := range cells {
		if c.Row == cell.Row && c.Col == cell.Col {
			out = append(out, cell)
			replaced = true
			continue
		}
		out = append(out, c)
	}
	if !replaced {
		out = append(out, cell)
	}
	return out
}

func withoutCell(cells []LoadingCell, row, col int) []LoadingCell {
	out := make([]LoadingCell, 0, len(cells))
	for _, c := range cells {
		if c.Row == row && c.Col == col {
			continue
		}
		out = append(out, c)
	}
	return out
}

func sumCounts(counts []int) int {
	total := 0
	for _, c := range counts {
		total += c
	}
	return total
}
