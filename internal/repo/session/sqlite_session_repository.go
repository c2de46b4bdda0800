package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mkrupp/inventory-tracker/internal/domain"
	"github.com/mkrupp/inventory-tracker/internal/infra/database"
	"github.com/mkrupp/inventory-tracker/internal/infra/logging"
)

// SQLiteSessionRepository implements Repository on the embedded SQLite database.
type SQLiteSessionRepository struct {
	db        *database.DB
	log       logging.Logger
	now       func() time.Time
	writeLock *sync.Mutex
}

var _ Repository = (*SQLiteSessionRepository)(nil)

// NewSQLiteSessionRepository creates a repository on db. now supplies login
// and logout times; nil means time.Now.
func NewSQLiteSessionRepository(db *database.DB, now func() time.Time) *SQLiteSessionRepository {
	if now == nil {
		now = time.Now
	}

	return &SQLiteSessionRepository{
		db:        db,
		log:       logging.GetLogger("repo.session.sqlite_session_repository"),
		now:       now,
		writeLock: new(sync.Mutex),
	}
}

// Open implements Repository.Open using SQLite.
func (r *SQLiteSessionRepository) Open(ctx context.Context, userID int64) (int64, error) {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	var sessionID int64

	err := r.db.WithConn(ctx, func(ctx context.Context, conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx,
			"INSERT INTO sessions (user_id, login_time) VALUES (?, ?)",
			userID,
			r.now().UnixMilli(),
		)
		if err != nil {
			return errors.Join(domain.ErrStorageUnavailable, fmt.Errorf("insert session: %w", err))
		}

		if sessionID, err = res.LastInsertId(); err != nil {
			return errors.Join(domain.ErrStorageUnavailable, fmt.Errorf("last insert id: %w", err))
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	r.log.DebugContext(ctx, "session opened", logging.Group("session", "id", sessionID, "userId", userID))

	return sessionID, nil
}

// CloseOpenSessionsFor implements Repository.CloseOpenSessionsFor using SQLite.
func (r *SQLiteSessionRepository) CloseOpenSessionsFor(ctx context.Context, userID int64) (int64, error) {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	var closed int64

	err := r.db.WithConn(ctx, func(ctx context.Context, conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx,
			"UPDATE sessions SET logout_time = ? WHERE user_id = ? AND logout_time IS NULL",
			r.now().UnixMilli(),
			userID,
		)
		if err != nil {
			return errors.Join(domain.ErrStorageUnavailable, fmt.Errorf("close sessions: %w", err))
		}

		if closed, err = res.RowsAffected(); err != nil {
			return errors.Join(domain.ErrStorageUnavailable, fmt.Errorf("rows affected: %w", err))
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	// More than one open session per user is tolerated but worth noticing.
	if closed > 1 {
		r.log.WarnContext(ctx, "closed several open sessions", "userId", userID, "count", closed)
	}

	return closed, nil
}

// HasOpenSession implements Repository.HasOpenSession using SQLite.
func (r *SQLiteSessionRepository) HasOpenSession(ctx context.Context, userID int64) (bool, error) {
	var open bool

	err := r.db.WithConn(ctx, func(ctx context.Context, conn *sql.Conn) error {
		err := conn.QueryRowContext(ctx,
			"SELECT EXISTS (SELECT 1 FROM sessions WHERE user_id = ? AND logout_time IS NULL)",
			userID,
		).Scan(&open)
		if err != nil {
			return errors.Join(domain.ErrStorageUnavailable, fmt.Errorf("query open session: %w", err))
		}

		return nil
	})

	return open, err
}

// ListByUser implements Repository.ListByUser using SQLite.
func (r *SQLiteSessionRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Session, error) {
	sessions := make([]domain.Session, 0)

	err := r.db.WithConn(ctx, func(ctx context.Context, conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx,
			"SELECT id, user_id, login_time, logout_time FROM sessions WHERE user_id = ? ORDER BY id",
			userID,
		)
		if err != nil {
			return errors.Join(domain.ErrStorageUnavailable, fmt.Errorf("query sessions: %w", err))
		}
		defer rows.Close()

		for rows.Next() {
			var (
				s        domain.Session
				loginMs  int64
				logoutMs sql.NullInt64
			)

			if err := rows.Scan(&s.ID, &s.UserID, &loginMs, &logoutMs); err != nil {
				return errors.Join(domain.ErrStorageUnavailable, fmt.Errorf("scan session: %w", err))
			}

			s.LoginTime = time.UnixMilli(loginMs)

			if logoutMs.Valid {
				logout := time.UnixMilli(logoutMs.Int64)
				s.LogoutTime = &logout
			}

			sessions = append(sessions, s)
		}

		if err := rows.Err(); err != nil {
			return errors.Join(domain.ErrStorageUnavailable, fmt.Errorf("iterate sessions: %w", err))
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return sessions, nil
}
