package sheet

import "strings"

const (
	ViolationDestination = "Destination is required"
	ViolationDockNo      = "Loading dock number is required"
	ViolationNoItems     = "At least one item with a SKU name is required"
)

// ValidateForLock reports every lock-readiness rule the sheet breaks.
// An empty result means the sheet may be locked.
func ValidateForLock(header StagingHeader, items []StagingItem) []string {
	violations := make([]string, 0, 3)
	if strings.TrimSpace(header.Destination) == "" {
		violations = append(violations, ViolationDestination)
	}
	if strings.TrimSpace(header.LoadingDockNo) == "" {
		violations = append(violations, ViolationDockNo)
	}
	if !hasNamedItem(items) {
		violations = append(violations, ViolationNoItems)
	}
	return violations
}

// Validate runs ValidateForLock in strict mode; draft saves pass strict=false
// and always succeed.
func Validate(header StagingHeader, items []StagingItem, strict bool) []string {
	if !strict {
		return nil
	}
	return ValidateForLock(header, items)
}

func hasNamedItem(items []StagingItem) bool {
	for _, it := range items {
		if strings.TrimSpace(it.SkuName) != "" {
			return true
		}
	}
	return false
}
