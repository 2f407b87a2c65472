package sheet

import "strings"

// GenerateLoadingMatrix derives the loading-side structure from a staged
// snapshot. Rows already present for a skuSrNo keep their cells and loose
// input; only the derived totals are recomputed against the staged total.
// The additional pool is initialised only when empty.
func GenerateLoadingMatrix(staging []StagingItem, existing []LoadingItemData, existingAdditional []AdditionalItem) ([]LoadingItemData, []AdditionalItem) {
	bySrNo := make(map[int]LoadingItemData, len(existing))
	for _, it := range existing {
		bySrNo[it.SkuSrNo] = it
	}

	loading := make([]LoadingItemData, 0, len(staging))
	for _, st := range staging {
		ttl := ComputeTotalCases(st.CasesPerPlt, st.FullPlt, st.Loose)
		if strings.TrimSpace(st.SkuName) == "" || ttl <= 0 {
			continue
		}
		st.TtlCases = ttl
		item, ok := bySrNo[st.SrNo]
		if !ok {
			item = LoadingItemData{SkuSrNo: st.SrNo}
		}
		cells := make([]LoadingCell, 0, len(item.Cells))
		cells = append(cells, item.Cells...)
		item.Cells = cells
		loading = append(loading, Reconcile(item, st))
	}

	if len(existingAdditional) > 0 {
		additional := make([]AdditionalItem, len(existingAdditional))
		for i, it := range existingAdditional {
			it.Counts = normalizeCounts(it.Counts)
			it.Total = sumCounts(it.Counts)
			additional[i] = it
		}
		return loading, additional
	}
	return loading, newAdditionalPool()
}

func newAdditionalPool() []AdditionalItem {
	pool := make([]AdditionalItem, AdditionalItemSlots)
	for i := range pool {
		pool[i] = AdditionalItem{ID: i + 1, Counts: make([]int, AdditionalCountSlots)}
	}
	return pool
}

func normalizeCounts(counts []int) []int {
	out := make([]int, AdditionalCountSlots)
	copy(out, counts)
	return out
}
