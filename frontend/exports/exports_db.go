package exports

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"loadsheet/infrastructure/sqlite"
	"loadsheet/models"
)

func recordExportRun(ctx context.Context, db *sqlite.DB, actor, sheetID, exportType string, rowCount int) error {
	if db == nil {
		return nil
	}
	return db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(&models.ExportRun{
			ExportType: exportType,
			SheetID:    sheetID,
			Actor:      actor,
			RowCount:   rowCount,
			CreatedAt:  time.Now().UTC(),
		}).Exec(ctx)
		return err
	})
}

// ExportRuns lists the most recent downloads of one sheet.
func ExportRuns(ctx context.Context, db *sqlite.DB, sheetID string) ([]models.ExportRun, error) {
	rows := make([]models.ExportRun, 0)
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewSelect().
			Model(&rows).
			Where("er.sheet_id = ?", sheetID).
			OrderExpr("er.id DESC").
			Scan(ctx)
	})
	return rows, err
}
