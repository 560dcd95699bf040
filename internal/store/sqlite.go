package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/lavka-group/shop-assistant/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	telegram_id   INTEGER NOT NULL UNIQUE,
	username      TEXT,
	is_active     INTEGER NOT NULL DEFAULT 1,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now')),
	last_activity DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS forms (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	name       TEXT NOT NULL,
	phone      TEXT NOT NULL,
	via_bot    INTEGER NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_forms_user ON forms (user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS leads (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
	bitrix_id  INTEGER UNIQUE,
	synced     INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateUser(ctx context.Context, user model.UserCreate) (*model.User, error) {
	now := time.Now().UTC()
	u := &model.User{
		ID:           uuid.New().String(),
		TelegramID:   user.TelegramID,
		Username:     user.Username,
		IsActive:     true,
		CreatedAt:    now,
		LastActivity: now,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, telegram_id, username, is_active, created_at, last_activity) VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.TelegramID, u.Username, u.IsActive, u.CreatedAt, u.LastActivity)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, eris.Wrapf(ErrUserExists, "telegram_id %d", user.TelegramID)
		}
		return nil, eris.Wrap(err, "sqlite: create user")
	}
	return u, nil
}

func (s *SQLiteStore) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	var u model.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, telegram_id, username, is_active, created_at, last_activity FROM users WHERE telegram_id = ?`,
		telegramID).
		Scan(&u.ID, &u.TelegramID, &u.Username, &u.IsActive, &u.CreatedAt, &u.LastActivity)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get user")
	}
	return &u, nil
}

func (s *SQLiteStore) TouchUser(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET last_activity = ? WHERE id = ?`,
		time.Now().UTC(), userID)
	return eris.Wrap(err, "sqlite: touch user")
}

func (s *SQLiteStore) SetUserActive(ctx context.Context, userID string, active bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET is_active = ?, last_activity = ? WHERE id = ?`,
		active, time.Now().UTC(), userID)
	if err != nil {
		return eris.Wrap(err, "sqlite: set user active")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("sqlite: user %s not found", userID)
	}
	return nil
}

func (s *SQLiteStore) CreateForm(ctx context.Context, userID string, form model.FormCreate) (*model.Form, error) {
	f := &model.Form{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      form.Name,
		Phone:     form.Phone,
		ViaBot:    form.ViaBot,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO forms (id, user_id, name, phone, via_bot, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		f.ID, f.UserID, f.Name, f.Phone, f.ViaBot, f.CreatedAt)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: create form")
	}
	return f, nil
}

func (s *SQLiteStore) GetLastForm(ctx context.Context, userID string) (*model.Form, error) {
	var f model.Form
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, phone, via_bot, created_at FROM forms WHERE user_id = ? ORDER BY created_at DESC LIMIT 1`,
		userID).
		Scan(&f.ID, &f.UserID, &f.Name, &f.Phone, &f.ViaBot, &f.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get last form")
	}
	return &f, nil
}

func (s *SQLiteStore) CreateLead(ctx context.Context, userID string) (*model.Lead, error) {
	now := time.Now().UTC()
	l := &model.Lead{
		ID:        uuid.New().String(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO leads (id, user_id, synced, created_at, updated_at) VALUES (?, ?, 0, ?, ?)`,
		l.ID, l.UserID, l.CreatedAt, l.UpdatedAt)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: create lead")
	}
	return l, nil
}

func (s *SQLiteStore) GetLeadByUserID(ctx context.Context, userID string) (*model.Lead, error) {
	var l model.Lead
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, bitrix_id, synced, created_at, updated_at FROM leads WHERE user_id = ?`,
		userID).
		Scan(&l.ID, &l.UserID, &l.BitrixID, &l.Synced, &l.CreatedAt, &l.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get lead")
	}
	return &l, nil
}

func (s *SQLiteStore) ListUnsyncedLeads(ctx context.Context, limit int) ([]model.Lead, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, bitrix_id, synced, created_at, updated_at FROM leads WHERE synced = 0 ORDER BY created_at LIMIT ?`,
		limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list unsynced leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		var l model.Lead
		if err := rows.Scan(&l.ID, &l.UserID, &l.BitrixID, &l.Synced, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lead")
		}
		leads = append(leads, l)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate leads")
	}
	return leads, nil
}

func (s *SQLiteStore) MarkLeadSynced(ctx context.Context, leadID string, bitrixID int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE leads SET bitrix_id = ?, synced = 1, updated_at = ? WHERE id = ?`,
		bitrixID, time.Now().UTC(), leadID)
	if err != nil {
		return eris.Wrap(err, "sqlite: mark lead synced")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("sqlite: lead %s not found", leadID)
	}
	return nil
}

func (s *SQLiteStore) Stats(ctx context.Context) (*model.Stats, error) {
	var stats model.Stats
	err := s.db.QueryRowContext(ctx,
		`SELECT
			(SELECT count(*) FROM users),
			(SELECT count(*) FROM leads),
			(SELECT count(*) FROM leads WHERE synced = 1)`).
		Scan(&stats.Users, &stats.Leads, &stats.SyncedLeads)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: stats")
	}
	return &stats, nil
}
