// Package sheet holds the staging/loading sheet lifecycle and the
// reconciliation rules that derive loading progress from a staged plan.
package sheet

import "time"

// Status is the lifecycle state of a sheet.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusLocked    Status = "LOCKED"
	StatusCompleted Status = "COMPLETED"
)

const (
	// MinStagingRows is the number of staging rows a sheet is padded to.
	MinStagingRows = 20
	// SlotsPerRow is the width of the loading matrix grid.
	SlotsPerRow = 10
	// AdditionalItemSlots is the size of the ad-hoc item pool.
	AdditionalItemSlots = 5
	// AdditionalCountSlots is the number of count slots per ad-hoc item.
	AdditionalCountSlots = 10
)

// History actions.
const (
	ActionCreated = "CREATED"
	ActionUpdated = "UPDATED"
	// ActionDeleted only reaches the audit trail; a deleted sheet has no
	// history left to write to.
	ActionDeleted = "SHEET_DELETED"
)

// StatusChangeAction returns the history label for a move into status.
func StatusChangeAction(to Status) string {
	return "STATUS_CHANGE_TO_" + string(to)
}

// Role tags an actor. Permission checks live with the caller.
type Role string

const (
	RoleAdmin             Role = "ADMIN"
	RoleStagingSupervisor Role = "STAGING_SUPERVISOR"
	RoleLoadingSupervisor Role = "LOADING_SUPERVISOR"
)

// Actor identifies who performs an operation.
type Actor struct {
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// StagingItem is one SKU row staged for shipment. Nil factors are blank
// (not yet entered) and compute as zero.
type StagingItem struct {
	SrNo        int    `json:"srNo"`
	SkuName     string `json:"skuName"`
	CasesPerPlt *int   `json:"casesPerPlt"`
	FullPlt     *int   `json:"fullPlt"`
	Loose       *int   `json:"loose"`
	TtlCases    int    `json:"ttlCases"`
}

func (it StagingItem) casesPerPlt() int { return valueOrZero(it.CasesPerPlt) }
func (it StagingItem) fullPlt() int     { return valueOrZero(it.FullPlt) }

// LoadingCell is one slot of the loading matrix.
type LoadingCell struct {
	Row   int `json:"row"`
	Col   int `json:"col"`
	Value int `json:"value"`
}

// LoadingItemData tracks loading progress for one staged SKU.
type LoadingItemData struct {
	SkuSrNo    int           `json:"skuSrNo"`
	Cells      []LoadingCell `json:"cells"`
	LooseInput int           `json:"looseInput"`
	Total      int           `json:"total"`
	Balance    int           `json:"balance"`
}

// AdditionalItem is an ad-hoc SKU loaded outside the staged plan.
type AdditionalItem struct {
	ID      int    `json:"id"`
	SkuName string `json:"skuName"`
	Counts  []int  `json:"counts"`
	Total   int    `json:"total"`
}

// HistoryEntry is one lifecycle audit line on the sheet itself.
type HistoryEntry struct {
	Action    string    `json:"action"`
	Actor     string    `json:"actor"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`
	Details   string    `json:"details,omitempty"`
}

// Comment is a free-text remark.
type Comment struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// CapturedImage is evidence attachment metadata. Bytes are stored by the
// repository's image store, keyed by ID.
type CapturedImage struct {
	ID         string    `json:"id"`
	FileName   string    `json:"fileName"`
	MIMEType   string    `json:"mimeType"`
	Size       int       `json:"size"`
	CapturedBy string    `json:"capturedBy"`
	CapturedAt time.Time `json:"capturedAt"`
}

// StagingHeader holds the fields a staging supervisor fills in.
type StagingHeader struct {
	Shift             string `json:"shift"`
	Date              string `json:"date"`
	Destination       string `json:"destination"`
	LoadingDockNo     string `json:"loadingDockNo"`
	SupervisorName    string `json:"supervisorName"`
	SupervisorEmpCode string `json:"supervisorEmpCode"`
}

// LoadingHeader holds the fields a loading supervisor fills in.
type LoadingHeader struct {
	Transporter      string     `json:"transporter"`
	VehicleNo        string     `json:"vehicleNo"`
	DriverName       string     `json:"driverName"`
	SealNo           string     `json:"sealNo"`
	LoadingStartTime *time.Time `json:"loadingStartTime,omitempty"`
	LoadingEndTime   *time.Time `json:"loadingEndTime,omitempty"`
	Remarks          string     `json:"remarks"`
}

// SheetData is the aggregate document persisted as a whole.
type SheetData struct {
	ID      string `json:"id"`
	Status  Status `json:"status"`
	Version int64  `json:"version"`

	Header        StagingHeader `json:"header"`
	LoadingHeader LoadingHeader `json:"loadingHeader"`

	StagingItems    []StagingItem     `json:"stagingItems"`
	LoadingItems    []LoadingItemData `json:"loadingItems"`
	AdditionalItems []AdditionalItem  `json:"additionalItems"`

	Comments       []Comment       `json:"comments"`
	History        []HistoryEntry  `json:"history"`
	CapturedImages []CapturedImage `json:"capturedImages"`

	CreatedBy   string     `json:"createdBy"`
	CreatedAt   time.Time  `json:"createdAt"`
	LockedBy    string     `json:"lockedBy,omitempty"`
	LockedAt    *time.Time `json:"lockedAt,omitempty"`
	CompletedBy string     `json:"completedBy,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// StagingItemBySrNo re-resolves a staged row by its sequence number.
func (s *SheetData) StagingItemBySrNo(srNo int) (StagingItem, bool) {
	for _, it := range s.StagingItems {
		if it.SrNo == srNo {
			return it, true
		}
	}
	return StagingItem{}, false
}

func (s *SheetData) loadingIndex(skuSrNo int) int {
	for i, it := range s.LoadingItems {
		if it.SkuSrNo == skuSrNo {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy so callers can mutate without touching the
// persisted snapshot.
func (s SheetData) Clone() SheetData {
	out := s
	out.StagingItems = make([]StagingItem, len(s.StagingItems))
	for i, it := range s.StagingItems {
		out.StagingItems[i] = StagingItem{
			SrNo:        it.SrNo,
			SkuName:     it.SkuName,
			CasesPerPlt: copyInt(it.CasesPerPlt),
			FullPlt:     copyInt(it.FullPlt),
			Loose:       copyInt(it.Loose),
			TtlCases:    it.TtlCases,
		}
	}
	out.LoadingItems = make([]LoadingItemData, len(s.LoadingItems))
	for i, it := range s.LoadingItems {
		it.Cells = append([]LoadingCell(nil), it.Cells...)
		out.LoadingItems[i] = it
	}
	out.AdditionalItems = make([]AdditionalItem, len(s.AdditionalItems))
	for i, it := range s.AdditionalItems {
		it.Counts = append([]int(nil), it.Counts...)
		out.AdditionalItems[i] = it
	}
	out.Comments = append([]Comment(nil), s.Comments...)
	out.History = append([]HistoryEntry(nil), s.History...)
	out.CapturedImages = append([]CapturedImage(nil), s.CapturedImages...)
	out.LockedAt = copyTime(s.LockedAt)
	out.CompletedAt = copyTime(s.CompletedAt)
	out.LoadingHeader.LoadingStartTime = copyTime(s.LoadingHeader.LoadingStartTime)
	out.LoadingHeader.LoadingEndTime = copyTime(s.LoadingHeader.LoadingEndTime)
	return out
}

func valueOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}

func copyTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	t := *v
	return &t
}

// IntPtr is a convenience for building staging rows.
func IntPtr(v int) *int {
	return &v
}
