package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/lavka-group/shop-assistant/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock implements it
// for tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"insert_user":      `INSERT INTO users (id, telegram_id, username, is_active, created_at, last_activity) VALUES ($1, $2, $3, $4, $5, $6)`,
	"get_user_by_tgid": `SELECT id, telegram_id, username, is_active, created_at, last_activity FROM users WHERE telegram_id = $1`,
	"touch_user":       `UPDATE users SET last_activity = $1 WHERE id = $2`,
	"insert_form":      `INSERT INTO forms (id, user_id, name, phone, via_bot, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
	"insert_lead":      `INSERT INTO leads (id, user_id, synced, created_at, updated_at) VALUES ($1, $2, false, $3, $4)`,
	"mark_lead_synced": `UPDATE leads SET bitrix_id = $1, synced = true, updated_at = $2 WHERE id = $3`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	telegram_id   BIGINT NOT NULL UNIQUE,
	username      TEXT,
	is_active     BOOLEAN NOT NULL DEFAULT TRUE,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	last_activity TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS forms (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	name       TEXT NOT NULL,
	phone      TEXT NOT NULL,
	via_bot    BOOLEAN NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_forms_user ON forms (user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS leads (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
	bitrix_id  BIGINT UNIQUE,
	synced     BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_leads_unsynced ON leads (created_at) WHERE NOT synced;
`

// Migrate applies the embedded schema.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "postgres: migrate")
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, user model.UserCreate) (*model.User, error) {
	now := time.Now().UTC()
	u := &model.User{
		ID:           uuid.New().String(),
		TelegramID:   user.TelegramID,
		Username:     user.Username,
		IsActive:     true,
		CreatedAt:    now,
		LastActivity: now,
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, telegram_id, username, is_active, created_at, last_activity) VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.TelegramID, u.Username, u.IsActive, u.CreatedAt, u.LastActivity)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, eris.Wrapf(ErrUserExists, "telegram_id %d", user.TelegramID)
		}
		return nil, eris.Wrap(err, "postgres: create user")
	}
	return u, nil
}

// GetUserByTelegramID returns nil without error when the user is absent.
func (s *PostgresStore) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	var u model.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, telegram_id, username, is_active, created_at, last_activity FROM users WHERE telegram_id = $1`,
		telegramID).
		Scan(&u.ID, &u.TelegramID, &u.Username, &u.IsActive, &u.CreatedAt, &u.LastActivity)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get user")
	}
	return &u, nil
}

func (s *PostgresStore) TouchUser(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE users SET last_activity = $1 WHERE id = $2`,
		time.Now().UTC(), userID)
	if err != nil {
		return eris.Wrap(err, "postgres: touch user")
	}
	return nil
}

func (s *PostgresStore) SetUserActive(ctx context.Context, userID string, active bool) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET is_active = $1, last_activity = $2 WHERE id = $3`,
		active, time.Now().UTC(), userID)
	if err != nil {
		return eris.Wrap(err, "postgres: set user active")
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: user %s not found", userID)
	}
	return nil
}

func (s *PostgresStore) CreateForm(ctx context.Context, userID string, form model.FormCreate) (*model.Form, error) {
	f := &model.Form{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      form.Name,
		Phone:     form.Phone,
		ViaBot:    form.ViaBot,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO forms (id, user_id, name, phone, via_bot, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		f.ID, f.UserID, f.Name, f.Phone, f.ViaBot, f.CreatedAt)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create form")
	}
	return f, nil
}

// GetLastForm returns the newest form submission, or nil when there is none.
func (s *PostgresStore) GetLastForm(ctx context.Context, userID string) (*model.Form, error) {
	var f model.Form
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, name, phone, via_bot, created_at FROM forms WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1`,
		userID).
		Scan(&f.ID, &f.UserID, &f.Name, &f.Phone, &f.ViaBot, &f.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get last form")
	}
	return &f, nil
}

func (s *PostgresStore) CreateLead(ctx context.Context, userID string) (*model.Lead, error) {
	now := time.Now().UTC()
	l := &model.Lead{
		ID:        uuid.New().String(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO leads (id, user_id, synced, created_at, updated_at) VALUES ($1, $2, false, $3, $4)`,
		l.ID, l.UserID, l.CreatedAt, l.UpdatedAt)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create lead")
	}
	return l, nil
}

// GetLeadByUserID returns nil without error when the user has no lead.
func (s *PostgresStore) GetLeadByUserID(ctx context.Context, userID string) (*model.Lead, error) {
	var l model.Lead
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, bitrix_id, synced, created_at, updated_at FROM leads WHERE user_id = $1`,
		userID).
		Scan(&l.ID, &l.UserID, &l.BitrixID, &l.Synced, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get lead")
	}
	return &l, nil
}

func (s *PostgresStore) ListUnsyncedLeads(ctx context.Context, limit int) ([]model.Lead, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, bitrix_id, synced, created_at, updated_at FROM leads WHERE NOT synced ORDER BY created_at LIMIT $1`,
		limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list unsynced leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		var l model.Lead
		if err := rows.Scan(&l.ID, &l.UserID, &l.BitrixID, &l.Synced, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan lead")
		}
		leads = append(leads, l)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate leads")
	}
	return leads, nil
}

func (s *PostgresStore) MarkLeadSynced(ctx context.Context, leadID string, bitrixID int64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE leads SET bitrix_id = $1, synced = true, updated_at = $2 WHERE id = $3`,
		bitrixID, time.Now().UTC(), leadID)
	if err != nil {
		return eris.Wrap(err, "postgres: mark lead synced")
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: lead %s not found", leadID)
	}
	return nil
}

func (s *PostgresStore) Stats(ctx context.Context) (*model.Stats, error) {
	var stats model.Stats
	err := s.pool.QueryRow(ctx,
		`SELECT
			(SELECT count(*) FROM users),
			(SELECT count(*) FROM leads),
			(SELECT count(*) FROM leads WHERE synced)`).
		Scan(&stats.Users, &stats.Leads, &stats.SyncedLeads)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: stats")
	}
	return &stats, nil
}
