package sheet

import (
	"errors"
	"testing"
)

func contract50() StagingItem {
	return StagingItem{SrNo: 1, SkuName: "X", CasesPerPlt: IntPtr(10), FullPlt: IntPtr(5), TtlCases: 50}
}

func TestApplyCellEditRejectsPartialPalletOnCommit(t *testing.T) {
	item := LoadingItemData{SkuSrNo: 1, Balance: 50}
	for attempt := 0; attempt < 3; attempt++ {
		var err error
		item, err = ApplyCellEdit(item, 0, 0, "7", contract50(), true)
		var violation *CellContractViolation
		if !errors.As(err, &violation) {
			t.Fatalf("attempt %d: expected CellContractViolation, got %v", attempt, err)
		}
		if violation.Expected != 10 || violation.Got != 7 {
			t.Fatalf("unexpected violation: %+v", violation)
		}
		if len(item.Cells) != 0 || item.Total != 0 || item.Balance != 50 {
			t.Fatalf("cell must be blank after rejection: %+v", item)
		}
	}
}

func TestApplyCellEditClearsPreviouslyValidCellOnBadCommit(t *testing.T) {
	item, err := ApplyCellEdit(LoadingItemData{SkuSrNo: 1}, 0, 0, "10", contract50(), true)
	if err != nil {
		t.Fatalf("valid edit: %v", err)
	}
	item, err = ApplyCellEdit(item, 0, 0, "9", contract50(), true)
	if err == nil {
		t.Fatalf("expected violation")
	}
	if len(item.Cells) != 0 || item.Total != 0 {
		t.Fatalf("expected cleared cell, got %+v", item)
	}
}

func TestApplyCellEditKeystrokeSkipsContract(t *testing.T) {
	item, err := ApplyCellEdit(LoadingItemData{SkuSrNo: 1}, 0, 0, "1", contract50(), false)
	if err != nil {
		t.Fatalf("draft keystroke should be accepted: %v", err)
	}
	if item.Total != 1 || item.Balance != 49 {
		t.Fatalf("unexpected totals: %+v", item)
	}
}

func TestEnforceContractDropsOffContractCells(t *testing.T) {
	item := LoadingItemData{SkuSrNo: 1, LooseInput: 2, Cells: []LoadingCell{
		{Row: 0, Col: 0, Value: 10},
		{Row: 0, Col: 1, Value: 7},
		{Row: 0, Col: 6, Value: 10},
	}}
	item, dropped := EnforceContract(item, contract50())
	if dropped != 2 {
		t.Fatalf("expected 2 cells dropped, got %d", dropped)
	}
	if len(item.Cells) != 1 || item.Cells[0].Col != 0 {
		t.Fatalf("unexpected cells: %+v", item.Cells)
	}
	if item.Total != 12 || item.Balance != 38 {
		t.Fatalf("unexpected totals: %+v", item)
	}
}

func TestApplyCellEditThenLooseScenario(t *testing.T) {
	item, err := ApplyCellEdit(LoadingItemData{SkuSrNo: 1, Balance: 50}, 0, 0, "10", contract50(), true)
	if err != nil {
		t.Fatalf("cell edit: %v", err)
	}
	item, err = ApplyLooseEdit(item, "5", contract50())
	if err != nil {
		t.Fatalf("loose edit: %v", err)
	}
	if item.Total != 15 || item.Balance != 35 {
		t.Fatalf("expected total=15 balance=35, got total=%d balance=%d", item.Total, item.Balance)
	}
}

func TestApplyCellEditRejectsBadInputAndKeepsState(t *testing.T) {
	item, _ := ApplyCellEdit(LoadingItemData{SkuSrNo: 1}, 0, 1, "10", contract50(), true)
	for _, raw := range []string{"abc", "-10", "1.5"} {
		got, err := ApplyCellEdit(item, 0, 1, raw, contract50(), true)
		if !errors.Is(err, ErrInvalidCellValue) {
			t.Fatalf("raw=%q expected ErrInvalidCellValue, got %v", raw, err)
		}
		if got.Total != 10 || len(got.Cells) != 1 {
			t.Fatalf("raw=%q prior state must be retained: %+v", raw, got)
		}
	}
}

func TestApplyCellEditDisabledSlots(t *testing.T) {
	cases := []struct{ row, col int }{{0, 5}, {1, 0}, {0, 10}, {-1, 0}, {0, -1}}
	for _, tc := range cases {
		if _, err := ApplyCellEdit(LoadingItemData{}, tc.row, tc.col, "10", contract50(), true); !errors.Is(err, ErrSlotDisabled) {
			t.Fatalf("(%d,%d) expected ErrSlotDisabled, got %v", tc.row, tc.col, err)
		}
	}
	wide := StagingItem{CasesPerPlt: IntPtr(4), FullPlt: IntPtr(12)}
	if _, err := ApplyCellEdit(LoadingItemData{}, 1, 1, "4", wide, true); err != nil {
		t.Fatalf("slot 11 of 12 should be enabled: %v", err)
	}
	if _, err := ApplyCellEdit(LoadingItemData{}, 1, 2, "4", wide, true); !errors.Is(err, ErrSlotDisabled) {
		t.Fatalf("slot 12 of 12 should be disabled, got %v", err)
	}
}

func TestApplyCellEditBlankClears(t *testing.T) {
	item, _ := ApplyCellEdit(LoadingItemData{SkuSrNo: 1}, 0, 2, "10", contract50(), true)
	item, err := ApplyCellEdit(item, 0, 2, "  ", contract50(), true)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if len(item.Cells) != 0 || item.Total != 0 || item.Balance != 50 {
		t.Fatalf("expected cleared item, got %+v", item)
	}
}

func TestBalanceConservationAcrossEdits(t *testing.T) {
	contract := StagingItem{SrNo: 1, CasesPerPlt: IntPtr(6), FullPlt: IntPtr(13), Loose: IntPtr(5)}
	ttl := ComputeTotalCases(contract.CasesPerPlt, contract.FullPlt, contract.Loose)
	item := LoadingItemData{SkuSrNo: 1}
	edits := []struct {
		row, col int
		raw      string
		loose    bool
		commit   bool
	}{
		{0, 0, "6", false, true},
		{0, 1, "5", false, true},
		{0, 1, "6", false, false},
		{1, 2, "6", false, true},
		{0, 0, "", false, true},
		{0, 0, "99", true, false},
		{0, 3, "x", false, true},
		{1, 5, "6", false, true},
		{0, 0, "0", true, false},
	}
	for i, e := range edits {
		if e.loose {
			item, _ = ApplyLooseEdit(item, e.raw, contract)
		} else {
			item, _ = ApplyCellEdit(item, e.row, e.col, e.raw, contract, e.commit)
		}
		if item.Total+item.Balance != ttl {
			t.Fatalf("edit %d: total+balance=%d, want %d", i, item.Total+item.Balance, ttl)
		}
	}
}

func TestApplyAdditionalEdit(t *testing.T) {
	item := AdditionalItem{ID: 1, Counts: make([]int, AdditionalCountSlots)}
	item, err := ApplyAdditionalEdit(item, 3, "17")
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	item, _ = ApplyAdditionalEdit(item, 9, "4")
	if item.Total != 21 {
		t.Fatalf("expected total 21, got %d", item.Total)
	}
	if _, err := ApplyAdditionalEdit(item, 10, "1"); !errors.Is(err, ErrSlotDisabled) {
		t.Fatalf("expected ErrSlotDisabled, got %v", err)
	}
	if _, err := ApplyAdditionalEdit(item, 0, "-1"); !errors.Is(err, ErrInvalidCellValue) {
		t.Fatalf("expected ErrInvalidCellValue, got %v", err)
	}
}

func TestSheetTotals(t *testing.T) {
	s := SheetData{
		StagingItems: []StagingItem{contract50(), {SrNo: 2}},
		LoadingItems: []LoadingItemData{{SkuSrNo: 1, Total: 60}},
		AdditionalItems: []AdditionalItem{
			{ID: 1, Counts: []int{1, 2}},
		},
	}
	got := SheetTotals(s)
	if got.Staged != 50 || got.Loaded != 60 || got.Balance != -10 || got.Additional != 3 {
		t.Fatalf("unexpected totals: %+v", got)
	}
}
