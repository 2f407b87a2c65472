package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"loadsheet/infrastructure/sheet"
	"loadsheet/infrastructure/sqlite"
	"loadsheet/models"
)

const entitySheet = "sheet"

// Service writes audit records and the activity feed. It satisfies
// sheet.Notifier.
type Service struct {
	db  *sqlite.DB
	log *zap.Logger
}

func NewService(db *sqlite.DB, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{db: db, log: log.Named("audit")}
}

// Write inserts one audit row inside the caller transaction.
func (s *Service) Write(ctx context.Context, tx bun.IDB, actor sheet.Actor, action, entityType, entityID, details string) error {
	row := &models.AuditLog{
		Actor:      actor.Name,
		Role:       string(actor.Role),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		CreatedAt:  time.Now().UTC(),
	}
	if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

func (s *Service) Record(ctx context.Context, actor sheet.Actor, action, sheetID, details string) error {
	return s.db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return s.RecordTx(ctx, tx, actor, action, sheetID, details)
	})
}

// RecordTx writes a sheet event inside the caller transaction.
func (s *Service) RecordTx(ctx context.Context, tx bun.IDB, actor sheet.Actor, action, sheetID, details string) error {
	if err := s.Write(ctx, tx, actor, action, entitySheet, sheetID, details); err != nil {
		return err
	}
	s.log.Info("sheet event",
		zap.String("action", action),
		zap.String("sheet_id", sheetID),
		zap.String("actor", actor.Name),
		zap.String("role", string(actor.Role)),
		zap.String("details", details))
	return nil
}

func (s *Service) Announce(ctx context.Context, actor sheet.Actor, message string) error {
	row := &models.Notification{
		Actor:     actor.Name,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
	return s.db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
			return fmt.Errorf("insert notification: %w", err)
		}
		return nil
	})
}

// Trail returns the audit rows for one sheet, newest first.
func (s *Service) Trail(ctx context.Context, sheetID string) ([]models.AuditLog, error) {
	rows := make([]models.AuditLog, 0)
	err := s.db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewSelect().
			Model(&rows).
			Where("al.entity_type = ?", entitySheet).
			Where("al.entity_id = ?", sheetID).
			OrderExpr("al.id DESC").
			Scan(ctx)
	})
	return rows, err
}

// Feed returns the latest notifications.
func (s *Service) Feed(ctx context.Context, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows := make([]models.Notification, 0, limit)
	err := s.db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewSelect().
			Model(&rows).
			OrderExpr("n.id DESC").
			Limit(limit).
			Scan(ctx)
	})
	return rows, err
}
