package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/inventory-tracker/internal/domain"
	"github.com/mkrupp/inventory-tracker/internal/infra/database"
	"github.com/mkrupp/inventory-tracker/internal/infra/database/databasetest"
	"github.com/mkrupp/inventory-tracker/internal/repo/session"
	"github.com/mkrupp/inventory-tracker/internal/repo/user"
)

// fakeClock hands out strictly increasing times one second apart.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(time.Second)

	return c.now
}

func setup(t *testing.T) (*session.SQLiteSessionRepository, *fakeClock, int64) {
	t.Helper()

	db := databasetest.New(t)

	account, err := user.NewSQLiteUserRepository(db).CreateUser(
		context.Background(),
		"alice",
		domain.Credential{Hash: "aGFzaA==", Salt: "c2FsdA=="},
		domain.RoleUser,
	)
	require.NoError(t, err)

	clock := &fakeClock{now: time.UnixMilli(1_700_000_000_000)}

	return session.NewSQLiteSessionRepository(db, clock.Now), clock, account.ID
}

func TestSQLiteSessionRepository_OpenAndClose(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo, _, userID := setup(t)

	open, err := repo.HasOpenSession(ctx, userID)
	require.NoError(t, err)
	assert.False(t, open)

	sessionID, err := repo.Open(ctx, userID)
	require.NoError(t, err)
	assert.NotZero(t, sessionID)

	open, err = repo.HasOpenSession(ctx, userID)
	require.NoError(t, err)
	assert.True(t, open)

	closed, err := repo.CloseOpenSessionsFor(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), closed)

	open, err = repo.HasOpenSession(ctx, userID)
	require.NoError(t, err)
	assert.False(t, open)

	sessions, err := repo.ListByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, sessionID, sessions[0].ID)
	assert.Equal(t, userID, sessions[0].UserID)
	assert.False(t, sessions[0].IsOpen())
	assert.True(t, sessions[0].LogoutTime.After(sessions[0].LoginTime))
}

func TestSQLiteSessionRepository_CloseWithoutOpenSession(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo, _, userID := setup(t)

	closed, err := repo.CloseOpenSessionsFor(ctx, userID)
	require.NoError(t, err)
	assert.Zero(t, closed)

	closed, err = repo.CloseOpenSessionsFor(ctx, userID+1)
	require.NoError(t, err)
	assert.Zero(t, closed)
}

func TestSQLiteSessionRepository_ClosesEveryOpenSession(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo, _, userID := setup(t)

	first, err := repo.Open(ctx, userID)
	require.NoError(t, err)

	_, err = repo.CloseOpenSessionsFor(ctx, userID)
	require.NoError(t, err)

	for range 3 {
		_, err := repo.Open(ctx, userID)
		require.NoError(t, err)
	}

	sessions, err := repo.ListByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, sessions, 4)

	firstLogout := *sessions[0].LogoutTime

	closed, err := repo.CloseOpenSessionsFor(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), closed)

	sessions, err = repo.ListByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, sessions, 4)
	assert.Equal(t, first, sessions[0].ID)
	assert.True(t, firstLogout.Equal(*sessions[0].LogoutTime), "closed sessions are not touched again")

	for _, s := range sessions {
		assert.False(t, s.IsOpen(), "session %d", s.ID)
	}
}

func TestSQLiteSessionRepository_TimesAreMilliseconds(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo, clock, userID := setup(t)

	_, err := repo.Open(ctx, userID)
	require.NoError(t, err)

	loginAt := clock.now

	sessions, err := repo.ListByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, loginAt.UnixMilli(), sessions[0].LoginTime.UnixMilli())
	assert.Nil(t, sessions[0].LogoutTime)
}

func TestSQLiteSessionRepository_UnknownUser(t *testing.T) {
	t.Parallel()

	repo, _, userID := setup(t)

	_, err := repo.Open(context.Background(), userID+42)
	require.ErrorIs(t, err, domain.ErrStorageUnavailable, "foreign key violation")
}

func TestSQLiteSessionRepository_StorageUnavailable(t *testing.T) {
	t.Parallel()

	errDisk := errors.New("disk I/O error")

	tests := []struct {
		name   string
		expect func(sqlmock.Sqlmock)
		call   func(context.Context, *session.SQLiteSessionRepository) error
	}{
		{
			name: "open",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("INSERT INTO sessions").WithArgs(7, sqlmock.AnyArg()).WillReturnError(errDisk)
			},
			call: func(ctx context.Context, repo *session.SQLiteSessionRepository) error {
				_, err := repo.Open(ctx, 7)

				return err
			},
		},
		{
			name: "close",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("UPDATE sessions SET logout_time").WithArgs(sqlmock.AnyArg(), 7).WillReturnError(errDisk)
			},
			call: func(ctx context.Context, repo *session.SQLiteSessionRepository) error {
				_, err := repo.CloseOpenSessionsFor(ctx, 7)

				return err
			},
		},
		{
			name: "has open session",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT EXISTS").WithArgs(7).WillReturnError(errDisk)
			},
			call: func(ctx context.Context, repo *session.SQLiteSessionRepository) error {
				_, err := repo.HasOpenSession(ctx, 7)

				return err
			},
		},
		{
			name: "list",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT id, user_id, login_time, logout_time FROM sessions").WithArgs(7).WillReturnError(errDisk)
			},
			call: func(ctx context.Context, repo *session.SQLiteSessionRepository) error {
				_, err := repo.ListByUser(ctx, 7)

				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			t.Cleanup(func() { _ = db.Close() })

			tt.expect(mock)

			err = tt.call(context.Background(), session.NewSQLiteSessionRepository(database.New(db), nil))
			require.ErrorIs(t, err, domain.ErrStorageUnavailable)
			assert.ErrorIs(t, err, errDisk)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSQLiteSessionRepository_ReportsClosedCount(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	fixed := time.UnixMilli(1_700_000_123_456)

	mock.ExpectExec("UPDATE sessions SET logout_time").
		WithArgs(fixed.UnixMilli(), 3).
		WillReturnResult(sqlmock.NewResult(0, 2))

	repo := session.NewSQLiteSessionRepository(database.New(db), func() time.Time { return fixed })

	closed, err := repo.CloseOpenSessionsFor(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, int64(2), closed)
	assert.NoError(t, mock.ExpectationsWereMet())
}
