// Package store persists users, contact forms, and CRM lead state. Two
// backends are provided: Postgres for deployments and SQLite for local use.
package store

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/lavka-group/shop-assistant/internal/model"
)

// ErrUserExists is returned when registering a telegram ID that is already
// taken.
var ErrUserExists = eris.New("store: user already exists")

// Store defines the persistence interface for the assistant.
type Store interface {
	// Users
	CreateUser(ctx context.Context, user model.UserCreate) (*model.User, error)
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	TouchUser(ctx context.Context, userID string) error
	SetUserActive(ctx context.Context, userID string, active bool) error

	// Contact forms
	CreateForm(ctx context.Context, userID string, form model.FormCreate) (*model.Form, error)
	GetLastForm(ctx context.Context, userID string) (*model.Form, error)

	// CRM leads
	CreateLead(ctx context.Context, userID string) (*model.Lead, error)
	GetLeadByUserID(ctx context.Context, userID string) (*model.Lead, error)
	ListUnsyncedLeads(ctx context.Context, limit int) ([]model.Lead, error)
	MarkLeadSynced(ctx context.Context, leadID string, bitrixID int64) error

	// Reporting
	Stats(ctx context.Context) (*model.Stats, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// New opens the store matching the DSN: postgres:// URLs get the pooled
// Postgres backend, anything else is treated as a SQLite path.
func New(ctx context.Context, dsn string, poolCfg *PoolConfig) (Store, error) {
	if dsn == "" {
		return nil, eris.New("store: empty DSN")
	}
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return NewPostgres(ctx, dsn, poolCfg)
	}
	return NewSQLite(dsn)
}
