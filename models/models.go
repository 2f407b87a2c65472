package models

import (
	"time"

	"github.com/uptrace/bun"
)

// User is an actor allowed to work sheets.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int64     `bun:"id,pk,autoincrement"`
	Username     string    `bun:"username,unique,notnull"`
	DisplayName  string    `bun:"display_name,notnull"`
	PasswordHash string    `bun:"password_hash,notnull"`
	Role         string    `bun:"role,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt    time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// Name is what gets stamped on sheets and history.
func (u User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

// SheetRecord stores the whole sheet document as JSON. Status and header
// columns are copies kept for listing and filtering.
type SheetRecord struct {
	bun.BaseModel `bun:"table:sheets,alias:sh"`

	ID          string    `bun:"id,pk"`
	Status      string    `bun:"status,notnull"`
	Version     int64     `bun:"version,notnull"`
	Destination string    `bun:"destination,notnull"`
	Shift       string    `bun:"shift,notnull"`
	SheetDate   string    `bun:"sheet_date,notnull"`
	CreatedBy   string    `bun:"created_by,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt   time.Time `bun:"updated_at,notnull,default:current_timestamp"`
	Document    string    `bun:"document,notnull"`
}

// SheetImage holds evidence bytes captured against a sheet.
type SheetImage struct {
	bun.BaseModel `bun:"table:sheet_images,alias:si"`

	ID         string    `bun:"id,pk"`
	SheetID    string    `bun:"sheet_id,notnull"`
	FileName   string    `bun:"file_name,notnull"`
	MIMEType   string    `bun:"mime_type,notnull"`
	SizeBytes  int64     `bun:"size_bytes,notnull"`
	Blob       []byte    `bun:"blob,notnull"`
	CapturedBy string    `bun:"captured_by,notnull"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// AuditLog captures immutable change history for key operations.
type AuditLog struct {
	bun.BaseModel `bun:"table:audit_logs,alias:al"`

	ID         int64     `bun:"id,pk,autoincrement"`
	Actor      string    `bun:"actor,notnull"`
	Role       string    `bun:"role,notnull"`
	Action     string    `bun:"action,notnull"`
	EntityType string    `bun:"entity_type,notnull"`
	EntityID   string    `bun:"entity_id,notnull"`
	Details    string    `bun:"details,notnull"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// Notification is one row of the shared activity feed.
type Notification struct {
	bun.BaseModel `bun:"table:notifications,alias:n"`

	ID        int64     `bun:"id,pk,autoincrement"`
	Actor     string    `bun:"actor,notnull"`
	Message   string    `bun:"message,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// ExportRun records who downloaded which sheet export.
type ExportRun struct {
	bun.BaseModel `bun:"table:export_runs,alias:er"`

	ID         int64     `bun:"id,pk,autoincrement"`
	ExportType string    `bun:"export_type,notnull"`
	SheetID    string    `bun:"sheet_id,notnull"`
	Actor      string    `bun:"actor,notnull"`
	RowCount   int       `bun:"row_count,notnull"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp"`
}
