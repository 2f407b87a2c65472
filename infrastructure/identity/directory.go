// Package identity resolves HTTP credentials into sheet actors.
package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/uptrace/bun"

	"loadsheet/infrastructure/rbac"
	"loadsheet/infrastructure/sheet"
	"loadsheet/infrastructure/sqlite"
	"loadsheet/models"
)

// ErrInvalidCredentials hides whether the username or the password was wrong.
var ErrInvalidCredentials = errors.New("invalid username or password")

// Directory looks users up in SQLite and caches them by username.
type Directory struct {
	db     *sqlite.DB
	params HashParams

	mu    sync.RWMutex
	users map[string]models.User
}

func NewDirectory(db *sqlite.DB) *Directory {
	return &Directory{db: db, params: DefaultHashParams, users: make(map[string]models.User)}
}

// WithHashParams lowers hashing cost, e.g. in tests.
func (d *Directory) WithHashParams(p HashParams) *Directory {
	d.params = p
	return d
}

// AddUser inserts or replaces a user.
func (d *Directory) AddUser(ctx context.Context, username, displayName, role, password string) (models.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return models.User{}, errors.New("username is required")
	}
	r, err := rbac.ParseRole(role)
	if err != nil {
		return models.User{}, err
	}
	if err := ValidatePassword(password); err != nil {
		return models.User{}, err
	}
	hash, err := HashPassword(password, d.params)
	if err != nil {
		return models.User{}, err
	}

	now := time.Now().UTC()
	user := models.User{
		Username:     username,
		DisplayName:  strings.TrimSpace(displayName),
		PasswordHash: hash,
		Role:         string(r),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = d.db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().
			Model(&user).
			On("CONFLICT (username) DO UPDATE").
			Set("display_name = EXCLUDED.display_name").
			Set("password_hash = EXCLUDED.password_hash").
			Set("role = EXCLUDED.role").
			Set("updated_at = EXCLUDED.updated_at").
			Returning("id").
			Exec(ctx)
		return err
	})
	if err != nil {
		return models.User{}, fmt.Errorf("save user %s: %w", username, err)
	}
	d.forget(username)
	return user, nil
}

// Authenticate verifies credentials and returns the actor to stamp on
// sheets.
func (d *Directory) Authenticate(ctx context.Context, username, password string) (sheet.Actor, error) {
	user, err := d.lookup(ctx, username)
	if err != nil {
		return sheet.Actor{}, err
	}
	ok, err := VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return sheet.Actor{}, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return sheet.Actor{}, ErrInvalidCredentials
	}
	return sheet.Actor{Name: user.Name(), Role: sheet.Role(user.Role)}, nil
}

// Users lists every registered user ordered by username.
func (d *Directory) Users(ctx context.Context) ([]models.User, error) {
	users := make([]models.User, 0)
	err := d.db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewSelect().Model(&users).OrderExpr("u.username ASC").Scan(ctx)
	})
	return users, err
}

func (d *Directory) lookup(ctx context.Context, username string) (models.User, error) {
	key := strings.ToLower(strings.TrimSpace(username))
	if key == "" {
		return models.User{}, ErrInvalidCredentials
	}
	d.mu.RLock()
	user, ok := d.users[key]
	d.mu.RUnlock()
	if ok {
		return user, nil
	}

	err := d.db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewSelect().Model(&user).Where("LOWER(u.username) = ?", key).Limit(1).Scan(ctx)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, fmt.Errorf("load user: %w", err)
	}
	d.mu.Lock()
	d.users[key] = user
	d.mu.Unlock()
	return user, nil
}

func (d *Directory) forget(username string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.users, username)
}
