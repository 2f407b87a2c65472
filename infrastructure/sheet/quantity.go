package sheet

// TotalCases is casesPerPlt*fullPlt + loose.
func TotalCases(casesPerPlt, fullPlt, loose int) int {
	return casesPerPlt*fullPlt + loose
}

// ComputeTotalCases treats nil (blank) factors as zero.
func ComputeTotalCases(casesPerPlt, fullPlt, loose *int) int {
	return TotalCases(valueOrZero(casesPerPlt), valueOrZero(fullPlt), valueOrZero(loose))
}

// RecomputeStaging returns a new slice with every ttlCases derived from its
// factors. Input ttlCases values are ignored.
func RecomputeStaging(items []StagingItem) []StagingItem {
	out := make([]StagingItem, len(items))
	for i, it := range items {
		it.TtlCases = ComputeTotalCases(it.CasesPerPlt, it.FullPlt, it.Loose)
		out[i] = it
	}
	return out
}

// PadStaging numbers rows 1..n and appends blank rows up to MinStagingRows.
// Row order is kept. A caller-supplied srNo is kept unless an earlier row
// already claimed it; missing and duplicated numbers take the lowest free
// ones.
func PadStaging(items []StagingItem) []StagingItem {
	seen := make(map[int]struct{}, len(items))
	keep := make([]bool, len(items))
	for i, it := range items {
		if it.SrNo <= 0 {
			continue
		}
		if _, dup := seen[it.SrNo]; !dup {
			seen[it.SrNo] = struct{}{}
			keep[i] = true
		}
	}

	next := 1
	free := func() int {
		for {
			if _, taken := seen[next]; !taken {
				seen[next] = struct{}{}
				return next
			}
			next++
		}
	}

	out := make([]StagingItem, 0, max(len(items), MinStagingRows))
	for i, it := range items {
		if !keep[i] {
			it.SrNo = free()
		}
		out = append(out, it)
	}
	for len(out) < MinStagingRows {
		out = append(out, StagingItem{SrNo: free()})
	}
	return out
}
