package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lavka-group/shop-assistant/internal/model"
)

func now() time.Time {
	return time.Now().UTC()
}

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_CreateUser(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(pgxmock.AnyArg(), int64(100500), "ivan", true, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	u, err := s.CreateUser(context.Background(), model.UserCreate{TelegramID: 100500, Username: "ivan"})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, int64(100500), u.TelegramID)
	assert.True(t, u.IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetUserByTelegramID_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, telegram_id, username, is_active, created_at, last_activity FROM users`).
		WithArgs(int64(42)).
		WillReturnError(pgx.ErrNoRows)

	u, err := s.GetUserByTelegramID(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, u)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SetUserActive(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE users SET is_active`).
		WithArgs(false, pgxmock.AnyArg(), "user-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, s.SetUserActive(context.Background(), "user-1", false))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SetUserActive_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE users SET is_active`).
		WithArgs(true, pgxmock.AnyArg(), "missing-user").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.SetUserActive(context.Background(), "missing-user", true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetLeadByUserID_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, user_id, bitrix_id, synced, created_at, updated_at FROM leads`).
		WithArgs("user-1").
		WillReturnError(pgx.ErrNoRows)

	l, err := s.GetLeadByUserID(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Nil(t, l)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_MarkLeadSynced_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE leads SET bitrix_id`).
		WithArgs(int64(77), pgxmock.AnyArg(), "missing-lead").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.MarkLeadSynced(context.Background(), "missing-lead", 77)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListUnsyncedLeads(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	rows := pgxmock.NewRows([]string{"id", "user_id", "bitrix_id", "synced", "created_at", "updated_at"}).
		AddRow("lead-1", "user-1", nil, false, now(), now()).
		AddRow("lead-2", "user-2", nil, false, now(), now())
	mock.ExpectQuery(`SELECT id, user_id, bitrix_id, synced, created_at, updated_at FROM leads WHERE NOT synced`).
		WithArgs(10).
		WillReturnRows(rows)

	leads, err := s.ListUnsyncedLeads(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, "lead-1", leads[0].ID)
	assert.Nil(t, leads[0].BitrixID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS users`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Stats(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	rows := pgxmock.NewRows([]string{"users", "leads", "synced"}).AddRow(int64(5), int64(3), int64(2))
	mock.ExpectQuery(`SELECT`).WillReturnRows(rows)

	stats, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), stats.Users)
	assert.Equal(t, int64(3), stats.Leads)
	assert.Equal(t, int64(2), stats.SyncedLeads)
	assert.NoError(t, mock.ExpectationsWereMet())
}
