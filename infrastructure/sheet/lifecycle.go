package sheet

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Repository persists whole sheet documents.
//
// Save is a full replace. Implementations must reject the write with a
// *ConflictError unless the stored version equals s.Version-1, and with
// ErrNotFound when no row exists and s.Version is not 1.
type Repository interface {
	Load(ctx context.Context, id string) (SheetData, error)
	Save(ctx context.Context, s SheetData) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]SheetData, error)
}

// ImageStore keeps evidence bytes outside the document.
type ImageStore interface {
	PutImage(ctx context.Context, sheetID string, meta CapturedImage, blob []byte) error
	DeleteImage(ctx context.Context, sheetID, imageID string) error
}

// AuditedDeleter is a Repository that can write the deletion audit entry in
// the same transaction as the delete.
type AuditedDeleter interface {
	DeleteAudited(ctx context.Context, id string, actor Actor, action, details string) error
}

// Notifier receives fire-and-forget lifecycle events.
type Notifier interface {
	Record(ctx context.Context, actor Actor, action, sheetID, details string) error
	Announce(ctx context.Context, actor Actor, message string) error
}

// ListFilter narrows List results. Zero value lists everything.
type ListFilter struct {
	Status Status
}

// DraftInput is what a staging form submits.
type DraftInput struct {
	Header StagingHeader
	Items  []StagingItem
	// ExpectedVersion, when non-zero, must match the stored version.
	ExpectedVersion int64
}

// CellEdit addresses one loading-matrix slot.
type CellEdit struct {
	SkuSrNo int
	Row     int
	Col     int
	Value   string
	// Commit enforces the cases-per-pallet contract (cell blur).
	Commit bool
}

// AdditionalEdit changes an ad-hoc item's name and/or one count slot.
type AdditionalEdit struct {
	ID      int
	SkuName *string
	Slot    *int
	Value   string
}

// Controller is the only writer of sheet status, lifecycle metadata and
// history.
type Controller struct {
	repo     Repository
	images   ImageStore
	notifier Notifier
	locks    *LockManager
	ids      *IDGenerator
	now      func() time.Time
	log      *zap.Logger
}

type Option func(*Controller)

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func WithLogger(log *zap.Logger) Option {
	return func(c *Controller) { c.log = log }
}

func WithNotifier(n Notifier) Option {
	return func(c *Controller) { c.notifier = n }
}

func WithImageStore(s ImageStore) Option {
	return func(c *Controller) { c.images = s }
}

func WithLockManager(m *LockManager) Option {
	return func(c *Controller) { c.locks = m }
}

func WithIDGenerator(g *IDGenerator) Option {
	return func(c *Controller) { c.ids = g }
}

func NewController(repo Repository, opts ...Option) *Controller {
	c := &Controller{
		repo: repo,
		now:  time.Now,
		log:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.locks == nil {
		c.locks = NewLockManager()
	}
	if c.ids == nil {
		c.ids = NewIDGenerator(c.now)
	}
	return c
}

// Locks exposes the guard so callers can report in-flight transitions.
func (c *Controller) Locks() *LockManager {
	return c.locks
}

// Get loads a sheet. A LOCKED sheet without loading rows is returned with
// a regenerated matrix.
func (c *Controller) Get(ctx context.Context, id string) (SheetData, error) {
	s, err := c.load(ctx, id)
	if err != nil {
		return SheetData{}, err
	}
	ensureLoadingMatrix(&s)
	return s, nil
}

func (c *Controller) List(ctx context.Context, filter ListFilter) ([]SheetData, error) {
	sheets, err := c.repo.List(ctx, filter)
	if err != nil {
		return nil, persistenceErr("list sheets", err)
	}
	return sheets, nil
}

// Create opens a new DRAFT sheet.
func (c *Controller) Create(ctx context.Context, actor Actor, in DraftInput) (SheetData, error) {
	now := c.now()
	s := SheetData{
		ID:              c.ids.Next(),
		Status:          StatusDraft,
		Header:          in.Header,
		StagingItems:    PadStaging(RecomputeStaging(in.Items)),
		LoadingItems:    []LoadingItemData{},
		AdditionalItems: []AdditionalItem{},
		Comments:        []Comment{},
		History:         []HistoryEntry{},
		CapturedImages:  []CapturedImage{},
		CreatedBy:       actor.Name,
		CreatedAt:       now,
	}
	created, err := c.commit(ctx, SheetData{}, s, actor, ActionCreated, "")
	if err != nil {
		return SheetData{}, err
	}
	c.record(ctx, actor, ActionCreated, created.ID, "")
	c.announce(ctx, actor, fmt.Sprintf("New staging sheet %s for %s created by %s", created.ID, orDash(created.Header.Destination), actor.Name))
	return created, nil
}

// SaveDraft replaces header and staging rows of a DRAFT sheet.
func (c *Controller) SaveDraft(ctx context.Context, actor Actor, id string, in DraftInput) (SheetData, error) {
	cur, err := c.load(ctx, id)
	if err != nil {
		return SheetData{}, err
	}
	if cur.Status != StatusDraft {
		return cur, &TransitionError{SheetID: id, Op: "save draft", Status: cur.Status}
	}
	if in.ExpectedVersion > 0 && in.ExpectedVersion != cur.Version {
		return cur, &ConflictError{SheetID: id, Reason: fmt.Sprintf("sheet was modified by another user (version %d, submitted %d)", cur.Version, in.ExpectedVersion)}
	}
	if v := Validate(in.Header, in.Items, false); len(v) > 0 {
		return cur, &ValidationError{Violations: v}
	}

	next := cur.Clone()
	next.Header = in.Header
	next.StagingItems = PadStaging(RecomputeStaging(in.Items))
	action := historyAction(cur.Status, next.Status)
	saved, err := c.commit(ctx, cur, next, actor, action, "")
	if err != nil {
		return cur, err
	}
	c.record(ctx, actor, action, id, "")
	return saved, nil
}

// Lock hands a DRAFT sheet to loading. Only one lock transition per sheet
// may run at a time; a competing call gets a *ConflictError.
func (c *Controller) Lock(ctx context.Context, actor Actor, id string) (SheetData, error) {
	cur, err := c.load(ctx, id)
	if err != nil {
		return SheetData{}, err
	}
	if cur.Status != StatusDraft {
		return cur, &TransitionError{SheetID: id, Op: "lock", Status: cur.Status}
	}
	if v := ValidateForLock(cur.Header, cur.StagingItems); len(v) > 0 {
		return cur, &ValidationError{Violations: v}
	}

	if !c.locks.Acquire(id) {
		c.log.Info("lock transition already in progress", zap.String("sheet_id", id), zap.String("actor", actor.Name))
		return cur, &ConflictError{SheetID: id, Reason: "locked by another operation"}
	}
	defer c.locks.Release(id)

	// Re-read under the guard: a transition that finished between the
	// first load and Acquire must not be overwritten.
	cur, err = c.load(ctx, id)
	if err != nil {
		return SheetData{}, err
	}
	if cur.Status != StatusDraft {
		return cur, &TransitionError{SheetID: id, Op: "lock", Status: cur.Status}
	}
	if v := ValidateForLock(cur.Header, cur.StagingItems); len(v) > 0 {
		return cur, &ValidationError{Violations: v}
	}

	now := c.now()
	next := cur.Clone()
	next.StagingItems = RecomputeStaging(next.StagingItems)
	next.LoadingItems, next.AdditionalItems = GenerateLoadingMatrix(next.StagingItems, next.LoadingItems, next.AdditionalItems)
	next.Status = StatusLocked
	next.LockedBy = actor.Name
	next.LockedAt = &now

	action := historyAction(cur.Status, next.Status)
	saved, err := c.commit(ctx, cur, next, actor, action, "")
	if err != nil {
		return cur, err
	}
	c.record(ctx, actor, action, id, fmt.Sprintf("%d items handed to loading", len(saved.LoadingItems)))
	c.announce(ctx, actor, fmt.Sprintf("Sheet %s for %s is ready for loading at dock %s", id, orDash(saved.Header.Destination), orDash(saved.Header.LoadingDockNo)))
	return saved, nil
}

// Complete closes a LOCKED sheet. Outstanding balance never blocks; it is
// noted on the history entry. Cells left off contract by uncommitted edits
// are cleared first.
func (c *Controller) Complete(ctx context.Context, actor Actor, id string) (SheetData, error) {
	cur, err := c.load(ctx, id)
	if err != nil {
		return SheetData{}, err
	}
	if cur.Status != StatusLocked {
		return cur, &TransitionError{SheetID: id, Op: "complete", Status: cur.Status}
	}

	now := c.now()
	next := cur.Clone()
	ensureLoadingMatrix(&next)
	if dropped := enforceLoadingContract(&next); dropped > 0 {
		c.log.Info("cleared off-contract cells on completion",
			zap.String("sheet_id", id),
			zap.String("actor", actor.Name),
			zap.Int("cells", dropped))
	}
	next.Status = StatusCompleted
	next.CompletedBy = actor.Name
	next.CompletedAt = &now
	if next.LoadingHeader.LoadingEndTime == nil {
		end := now
		next.LoadingHeader.LoadingEndTime = &end
	}

	details := balanceRemark(SheetTotals(next))
	action := historyAction(cur.Status, next.Status)
	saved, err := c.commit(ctx, cur, next, actor, action, details)
	if err != nil {
		return cur, err
	}
	c.record(ctx, actor, action, id, details)
	c.announce(ctx, actor, fmt.Sprintf("Sheet %s %s by %s", id, details, actor.Name))
	return saved, nil
}

// EditCell applies one loading-matrix cell edit. A contract violation is
// persisted (the cell is cleared) and returned together with the sheet.
func (c *Controller) EditCell(ctx context.Context, actor Actor, id string, edit CellEdit) (SheetData, error) {
	return c.editLoading(ctx, id, "edit loading matrix", func(s *SheetData) error {
		idx, contract, err := resolveLoadingRow(s, edit.SkuSrNo)
		if err != nil {
			return err
		}
		updated, editErr := ApplyCellEdit(s.LoadingItems[idx], edit.Row, edit.Col, edit.Value, contract, edit.Commit)
		var violation *CellContractViolation
		if editErr != nil && !errors.As(editErr, &violation) {
			return editErr
		}
		s.LoadingItems = replaceLoading(s.LoadingItems, idx, updated)
		if violation != nil {
			c.log.Info("loading cell rejected",
				zap.String("sheet_id", id),
				zap.String("actor", actor.Name),
				zap.Int("sku_sr_no", edit.SkuSrNo),
				zap.Int("expected", violation.Expected),
				zap.Int("got", violation.Got))
			return violation
		}
		return nil
	})
}

// EditLoose sets the loose-case count for one loading row.
func (c *Controller) EditLoose(ctx context.Context, actor Actor, id string, skuSrNo int, raw string) (SheetData, error) {
	return c.editLoading(ctx, id, "edit loading matrix", func(s *SheetData) error {
		idx, contract, err := resolveLoadingRow(s, skuSrNo)
		if err != nil {
			return err
		}
		updated, err := ApplyLooseEdit(s.LoadingItems[idx], raw, contract)
		if err != nil {
			return err
		}
		s.LoadingItems = replaceLoading(s.LoadingItems, idx, updated)
		return nil
	})
}

// EditAdditional renames and/or sets a count slot of an ad-hoc item.
func (c *Controller) EditAdditional(ctx context.Context, actor Actor, id string, edit AdditionalEdit) (SheetData, error) {
	return c.editLoading(ctx, id, "edit additional items", func(s *SheetData) error {
		idx := -1
		for i, it := range s.AdditionalItems {
			if it.ID == edit.ID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return ErrUnknownItem
		}
		item := s.AdditionalItems[idx]
		item.Counts = normalizeCounts(item.Counts)
		if edit.SkuName != nil {
			item.SkuName = strings.TrimSpace(*edit.SkuName)
		}
		if edit.Slot != nil {
			var err error
			if item, err = ApplyAdditionalEdit(item, *edit.Slot, edit.Value); err != nil {
				return err
			}
		}
		out := make([]AdditionalItem, len(s.AdditionalItems))
		copy(out, s.AdditionalItems)
		out[idx] = item
		s.AdditionalItems = out
		return nil
	})
}

// UpdateLoadingHeader replaces the loading-side header of a LOCKED sheet.
// Nil times keep their stored value.
func (c *Controller) UpdateLoadingHeader(ctx context.Context, actor Actor, id string, h LoadingHeader) (SheetData, error) {
	return c.editLoading(ctx, id, "edit loading header", func(s *SheetData) error {
		if h.LoadingStartTime == nil {
			h.LoadingStartTime = s.LoadingHeader.LoadingStartTime
		}
		if h.LoadingEndTime == nil {
			h.LoadingEndTime = s.LoadingHeader.LoadingEndTime
		}
		s.LoadingHeader = h
		return nil
	})
}

// AddComment prepends a remark. Allowed in every state.
func (c *Controller) AddComment(ctx context.Context, actor Actor, id, text string) (SheetData, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return SheetData{}, &ValidationError{Violations: []string{"Comment text is required"}}
	}
	cur, err := c.load(ctx, id)
	if err != nil {
		return SheetData{}, err
	}
	next := cur.Clone()
	next.Comments = append([]Comment{{
		ID:        uuid.NewString(),
		Author:    actor.Name,
		Text:      text,
		CreatedAt: c.now(),
	}}, next.Comments...)
	return c.commit(ctx, cur, next, actor, "", "")
}

// AttachImage stores evidence bytes and records their metadata.
func (c *Controller) AttachImage(ctx context.Context, actor Actor, id, fileName, mimeType string, blob []byte) (SheetData, CapturedImage, error) {
	if c.images == nil {
		return SheetData{}, CapturedImage{}, &PersistenceError{Op: "attach image", Err: errors.New("image store is not configured")}
	}
	if len(blob) == 0 {
		return SheetData{}, CapturedImage{}, &ValidationError{Violations: []string{"Image is empty"}}
	}
	cur, err := c.load(ctx, id)
	if err != nil {
		return SheetData{}, CapturedImage{}, err
	}
	meta := CapturedImage{
		ID:         uuid.NewString(),
		FileName:   strings.TrimSpace(fileName),
		MIMEType:   strings.TrimSpace(mimeType),
		Size:       len(blob),
		CapturedBy: actor.Name,
		CapturedAt: c.now(),
	}
	if err := c.images.PutImage(ctx, id, meta, blob); err != nil {
		return cur, CapturedImage{}, persistenceErr("store image", err)
	}
	next := cur.Clone()
	next.CapturedImages = append([]CapturedImage{meta}, next.CapturedImages...)
	saved, err := c.commit(ctx, cur, next, actor, "", "")
	if err != nil {
		if delErr := c.images.DeleteImage(ctx, id, meta.ID); delErr != nil {
			c.log.Warn("orphaned evidence image", zap.String("sheet_id", id), zap.String("image_id", meta.ID), zap.Error(delErr))
		}
		return cur, CapturedImage{}, err
	}
	return saved, meta, nil
}

// Delete removes a sheet in any state. The audit trail, not the sheet
// history, records it; with an AuditedDeleter repository both happen or
// neither does.
func (c *Controller) Delete(ctx context.Context, actor Actor, id, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return &ValidationError{Violations: []string{"A reason is required to delete a sheet"}}
	}
	if _, err := c.load(ctx, id); err != nil {
		return err
	}
	details := "reason: " + reason
	if d, ok := c.repo.(AuditedDeleter); ok {
		if err := d.DeleteAudited(ctx, id, actor, ActionDeleted, details); err != nil {
			return persistenceErr("delete sheet", err)
		}
		return nil
	}
	if err := c.repo.Delete(ctx, id); err != nil {
		return persistenceErr("delete sheet", err)
	}
	c.record(ctx, actor, ActionDeleted, id, details)
	return nil
}

func (c *Controller) editLoading(ctx context.Context, id, op string, apply func(*SheetData) error) (SheetData, error) {
	cur, err := c.load(ctx, id)
	if err != nil {
		return SheetData{}, err
	}
	if cur.Status != StatusLocked {
		return cur, &TransitionError{SheetID: id, Op: op, Status: cur.Status}
	}
	next := cur.Clone()
	ensureLoadingMatrix(&next)

	applyErr := apply(&next)
	var violation *CellContractViolation
	if applyErr != nil && !errors.As(applyErr, &violation) {
		return cur, applyErr
	}
	saved, err := c.commit(ctx, cur, next, Actor{}, "", "")
	if err != nil {
		return cur, err
	}
	return saved, applyErr
}

// commit bumps the version and persists next. A non-empty action prepends
// a history entry.
func (c *Controller) commit(ctx context.Context, prev, next SheetData, actor Actor, action, details string) (SheetData, error) {
	now := c.now()
	next.Version = prev.Version + 1
	next.UpdatedAt = now
	if action != "" {
		entry := HistoryEntry{
			Action:    action,
			Actor:     actor.Name,
			Role:      actor.Role,
			Timestamp: now,
			Details:   details,
		}
		next.History = append([]HistoryEntry{entry}, next.History...)
	}
	if err := c.repo.Save(ctx, next); err != nil {
		return prev, persistenceErr("save sheet", err)
	}
	return next, nil
}

func (c *Controller) load(ctx context.Context, id string) (SheetData, error) {
	s, err := c.repo.Load(ctx, id)
	if err != nil {
		return SheetData{}, persistenceErr("load sheet", err)
	}
	return s, nil
}

func (c *Controller) record(ctx context.Context, actor Actor, action, sheetID, details string) {
	if c.notifier == nil {
		return
	}
	if err := c.notifier.Record(ctx, actor, action, sheetID, details); err != nil {
		c.log.Warn("audit delivery failed", zap.String("action", action), zap.String("sheet_id", sheetID), zap.Error(err))
	}
}

func (c *Controller) announce(ctx context.Context, actor Actor, message string) {
	if c.notifier == nil {
		return
	}
	if err := c.notifier.Announce(ctx, actor, message); err != nil {
		c.log.Warn("notification delivery failed", zap.String("message", message), zap.Error(err))
	}
}

func historyAction(from, to Status) string {
	if from != to {
		return StatusChangeAction(to)
	}
	return ActionUpdated
}

// ensureLoadingMatrix regenerates loading rows for a LOCKED sheet that has
// none, e.g. after an interrupted lock transition.
func ensureLoadingMatrix(s *SheetData) bool {
	if s.Status == StatusDraft || len(s.LoadingItems) > 0 {
		return false
	}
	s.LoadingItems, s.AdditionalItems = GenerateLoadingMatrix(s.StagingItems, s.LoadingItems, s.AdditionalItems)
	return true
}

// enforceLoadingContract clears uncommitted cells that a completed sheet
// must not carry.
func enforceLoadingContract(s *SheetData) int {
	var dropped int
	out := make([]LoadingItemData, len(s.LoadingItems))
	for i, item := range s.LoadingItems {
		contract, ok := s.StagingItemBySrNo(item.SkuSrNo)
		if !ok {
			out[i] = item
			continue
		}
		var n int
		out[i], n = EnforceContract(item, contract)
		dropped += n
	}
	s.LoadingItems = out
	return dropped
}

func resolveLoadingRow(s *SheetData, skuSrNo int) (int, StagingItem, error) {
	idx := s.loadingIndex(skuSrNo)
	if idx < 0 {
		return -1, StagingItem{}, ErrUnknownItem
	}
	contract, ok := s.StagingItemBySrNo(skuSrNo)
	if !ok {
		return -1, StagingItem{}, ErrUnknownItem
	}
	return idx, contract, nil
}

func replaceLoading(items []LoadingItemData, idx int, item LoadingItemData) []LoadingItemData {
	out := make([]LoadingItemData, len(items))
	copy(out, items)
	out[idx] = item
	return out
}

func balanceRemark(t Totals) string {
	switch {
	case t.Balance > 0:
		return fmt.Sprintf("completed with shortage of %d cases", t.Balance)
	case t.Balance < 0:
		return fmt.Sprintf("completed with overage of %d cases", -t.Balance)
	default:
		return "completed with no balance"
	}
}

func orDash(v string) string {
	if strings.TrimSpace(v) == "" {
		return "-"
	}
	return v
}
