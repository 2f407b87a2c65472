package sheets

import (
	"context"
	"time"

	"go.uber.org/zap"

	"loadsheet/infrastructure/metrics"
	"loadsheet/infrastructure/sheet"
	"loadsheet/models"
)

// ImageReader serves stored evidence bytes.
type ImageReader interface {
	Image(ctx context.Context, sheetID, imageID string) (models.SheetImage, error)
}

// ActivityReader serves the audit trail and the notification feed.
type ActivityReader interface {
	Trail(ctx context.Context, sheetID string) ([]models.AuditLog, error)
	Feed(ctx context.Context, limit int) ([]models.Notification, error)
}

// Deps bundles what the sheet handlers need.
type Deps struct {
	Sheets   *sheet.Controller
	Images   ImageReader
	Activity ActivityReader
	Metrics  *metrics.Metrics
	Log      *zap.Logger
}

func (d Deps) logger() *zap.Logger {
	if d.Log == nil {
		return zap.NewNop()
	}
	return d.Log
}

// MaxImageBytes caps a single evidence upload.
const MaxImageBytes = 8 << 20

type draftRequest struct {
	Header          sheet.StagingHeader `json:"header"`
	Items           []sheet.StagingItem `json:"stagingItems"`
	ExpectedVersion int64               `json:"expectedVersion"`
}

func (r draftRequest) input() sheet.DraftInput {
	return sheet.DraftInput{Header: r.Header, Items: r.Items, ExpectedVersion: r.ExpectedVersion}
}

type cellEditRequest struct {
	SkuSrNo int    `json:"skuSrNo"`
	Row     int    `json:"row"`
	Col     int    `json:"col"`
	Value   string `json:"value"`
	// Commit defaults to true. Only an explicit false (keystroke preview)
	// skips the cases-per-pallet check.
	Commit  *bool  `json:"commit"`
}

func (r cellEditRequest) commit() bool {
	return r.Commit == nil || *r.Commit
}

type looseEditRequest struct {
	SkuSrNo int    `json:"skuSrNo"`
	Value   string `json:"value"`
}

type additionalEditRequest struct {
	ID      int     `json:"id"`
	SkuName *string `json:"skuName"`
	Slot    *int    `json:"slot"`
	Value   string  `json:"value"`
}

type commentRequest struct {
	Text string `json:"text"`
}

type deleteRequest struct {
	Reason string `json:"reason"`
}

type sheetSummary struct {
	ID          string       `json:"id"`
	Status      sheet.Status `json:"status"`
	Version     int64        `json:"version"`
	Destination string       `json:"destination"`
	Shift       string       `json:"shift"`
	Date        string       `json:"date"`
	CreatedBy   string       `json:"createdBy"`
	CreatedAt   time.Time    `json:"createdAt"`
	Totals      sheet.Totals `json:"totals"`
}

func summarize(s sheet.SheetData) sheetSummary {
	return sheetSummary{
		ID:          s.ID,
		Status:      s.Status,
		Version:     s.Version,
		Destination: s.Header.Destination,
		Shift:       s.Header.Shift,
		Date:        s.Header.Date,
		CreatedBy:   s.CreatedBy,
		CreatedAt:   s.CreatedAt,
		Totals:      sheet.SheetTotals(s),
	}
}

type sheetResponse struct {
	Sheet  sheet.SheetData `json:"sheet"`
	Totals sheet.Totals    `json:"totals"`
}

func respond(s sheet.SheetData) sheetResponse {
	return sheetResponse{Sheet: s, Totals: sheet.SheetTotals(s)}
}

type errorResponse struct {
	Error      string           `json:"error"`
	Violations []string         `json:"violations,omitempty"`
	Sheet      *sheet.SheetData `json:"sheet,omitempty"`
}
