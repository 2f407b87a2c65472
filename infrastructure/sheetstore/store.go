// Package sheetstore persists sheet documents and evidence images in SQLite.
package sheetstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"loadsheet/infrastructure/sheet"
	"loadsheet/infrastructure/sqlite"
	"loadsheet/models"
)

// AuditWriter records a sheet event inside an open transaction.
type AuditWriter interface {
	RecordTx(ctx context.Context, tx bun.IDB, actor sheet.Actor, action, sheetID, details string) error
}

// Store implements sheet.Repository, sheet.ImageStore and, once an
// AuditWriter is attached, sheet.AuditedDeleter.
type Store struct {
	db    *sqlite.DB
	audit AuditWriter
}

func New(db *sqlite.DB) *Store {
	return &Store{db: db}
}

// WithAudit makes deletes write their audit row in the same transaction.
func (s *Store) WithAudit(w AuditWriter) *Store {
	s.audit = w
	return s
}

func (s *Store) Load(ctx context.Context, id string) (sheet.SheetData, error) {
	var rec models.SheetRecord
	err := s.db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewSelect().Model(&rec).Where("sh.id = ?", id).Scan(ctx)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return sheet.SheetData{}, sheet.ErrNotFound
	}
	if err != nil {
		return sheet.SheetData{}, fmt.Errorf("load sheet %s: %w", id, err)
	}
	return decode(rec)
}

// Save replaces the stored document when its version is s.Version-1.
func (s *Store) Save(ctx context.Context, doc sheet.SheetData) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode sheet %s: %w", doc.ID, err)
	}
	rec := &models.SheetRecord{
		ID:          doc.ID,
		Status:      string(doc.Status),
		Version:     doc.Version,
		Destination: doc.Header.Destination,
		Shift:       doc.Header.Shift,
		SheetDate:   doc.Header.Date,
		CreatedBy:   doc.CreatedBy,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
		Document:    string(raw),
	}

	return s.db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		var stored int64
		err := tx.NewSelect().
			TableExpr("sheets").
			Column("version").
			Where("id = ?", doc.ID).
			Scan(ctx, &stored)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			if doc.Version != 1 {
				return sheet.ErrNotFound
			}
		case err != nil:
			return fmt.Errorf("read sheet version: %w", err)
		}
		if stored != doc.Version-1 {
			return &sheet.ConflictError{
				SheetID: doc.ID,
				Reason:  fmt.Sprintf("sheet was modified by another user (stored version %d)", stored),
			}
		}

		if stored == 0 {
			_, err = tx.NewInsert().Model(rec).Exec(ctx)
			return err
		}
		res, err := tx.NewUpdate().
			Model(rec).
			Column("status", "version", "destination", "shift", "sheet_date", "updated_at", "document").
			Where("id = ?", doc.ID).
			Where("version = ?", stored).
			Exec(ctx)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n != 1 {
			return &sheet.ConflictError{SheetID: doc.ID, Reason: "sheet was modified by another user"}
		}
		return nil
	})
}

func (s *Store) Delete(ctx context.Context, id string) error {
	return s.db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return deleteSheet(ctx, tx, id)
	})
}

// DeleteAudited removes the sheet and writes the audit row in one
// transaction. Without an AuditWriter it behaves like Delete.
func (s *Store) DeleteAudited(ctx context.Context, id string, actor sheet.Actor, action, details string) error {
	return s.db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := deleteSheet(ctx, tx, id); err != nil {
			return err
		}
		if s.audit == nil {
			return nil
		}
		return s.audit.RecordTx(ctx, tx, actor, action, id, details)
	})
}

func deleteSheet(ctx context.Context, tx bun.Tx, id string) error {
	res, err := tx.NewDelete().Model((*models.SheetRecord)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sheet.ErrNotFound
	}
	return nil
}

// List returns sheets newest first.
func (s *Store) List(ctx context.Context, filter sheet.ListFilter) ([]sheet.SheetData, error) {
	var recs []models.SheetRecord
	err := s.db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		q := tx.NewSelect().Model(&recs).OrderExpr("sh.created_at DESC, sh.id DESC")
		if filter.Status != "" {
			q = q.Where("sh.status = ?", string(filter.Status))
		}
		return q.Scan(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("list sheets: %w", err)
	}
	out := make([]sheet.SheetData, 0, len(recs))
	for _, rec := range recs {
		doc, err := decode(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

func (s *Store) PutImage(ctx context.Context, sheetID string, meta sheet.CapturedImage, blob []byte) error {
	img := &models.SheetImage{
		ID:         meta.ID,
		SheetID:    sheetID,
		FileName:   meta.FileName,
		MIMEType:   meta.MIMEType,
		SizeBytes:  int64(len(blob)),
		Blob:       blob,
		CapturedBy: meta.CapturedBy,
		CreatedAt:  meta.CapturedAt,
	}
	if img.MIMEType == "" {
		img.MIMEType = "application/octet-stream"
	}
	return s.db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(img).Exec(ctx)
		return err
	})
}

func (s *Store) DeleteImage(ctx context.Context, sheetID, imageID string) error {
	return s.db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().
			Model((*models.SheetImage)(nil)).
			Where("sheet_id = ?", sheetID).
			Where("id = ?", imageID).
			Exec(ctx)
		return err
	})
}

// Image returns one evidence image with its bytes.
func (s *Store) Image(ctx context.Context, sheetID, imageID string) (models.SheetImage, error) {
	var img models.SheetImage
	err := s.db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewSelect().
			Model(&img).
			Where("si.sheet_id = ?", sheetID).
			Where("si.id = ?", imageID).
			Scan(ctx)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return img, sheet.ErrNotFound
	}
	return img, err
}

func decode(rec models.SheetRecord) (sheet.SheetData, error) {
	var doc sheet.SheetData
	if err := json.Unmarshal([]byte(rec.Document), &doc); err != nil {
		return sheet.SheetData{}, fmt.Errorf("decode sheet %s: %w", rec.ID, err)
	}
	doc.Version = rec.Version
	doc.Status = sheet.Status(rec.Status)
	return doc, nil
}
