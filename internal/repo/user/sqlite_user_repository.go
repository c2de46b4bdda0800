package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mkrupp/inventory-tracker/internal/domain"
	"github.com/mkrupp/inventory-tracker/internal/infra/database"
	"github.com/mkrupp/inventory-tracker/internal/infra/logging"
)

const selectUser = "SELECT id, username, password_hash, salt, role FROM users"

// SQLiteUserRepository implements Repository on the embedded SQLite database.
type SQLiteUserRepository struct {
	db        *database.DB
	log       logging.Logger
	writeLock *sync.Mutex // go-sqlite does not support concurrent writes
}

var _ Repository = (*SQLiteUserRepository)(nil)

// NewSQLiteUserRepository creates a repository on db. The schema is expected
// to be migrated already.
func NewSQLiteUserRepository(db *database.DB) *SQLiteUserRepository {
	return &SQLiteUserRepository{
		db:        db,
		log:       logging.GetLogger("repo.user.sqlite_user_repository"),
		writeLock: new(sync.Mutex),
	}
}

// CreateUser implements Repository.CreateUser using SQLite.
func (r *SQLiteUserRepository) CreateUser(
	ctx context.Context,
	username string,
	cred domain.Credential,
	role domain.Role,
) (*domain.UserAccount, error) {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	account := &domain.UserAccount{
		Username:   username,
		Credential: cred,
		Role:       role,
	}

	err := r.db.WithConn(ctx, func(ctx context.Context, conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx,
			"INSERT INTO users (username, password_hash, salt, role) VALUES (?, ?, ?, ?)",
			username,
			cred.Hash,
			cred.Salt,
			role.String(),
		)
		if err != nil {
			return fmt.Errorf("insert user: %w", classify(err))
		}

		if account.ID, err = res.LastInsertId(); err != nil {
			return errors.Join(domain.ErrStorageUnavailable, fmt.Errorf("last insert id: %w", err))
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	r.log.DebugContext(ctx, "user inserted", logging.Group("user", "id", account.ID, "username", username))

	return account, nil
}

// classify maps a driver error to a domain error. A unique or primary key
// violation means the username is taken; anything else is a storage failure.
func classify(err error) error {
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return errors.Join(domain.ErrDuplicateUsername, err)
		default:
		}
	}

	return errors.Join(domain.ErrStorageUnavailable, err)
}

// GetUserByUsername implements Repository.GetUserByUsername using SQLite.
func (r *SQLiteUserRepository) GetUserByUsername(
	ctx context.Context,
	username string,
) (*domain.UserAccount, bool, error) {
	return r.getUser(ctx, selectUser+" WHERE username = ?", username)
}

// GetUserByID implements Repository.GetUserByID using SQLite.
func (r *SQLiteUserRepository) GetUserByID(ctx context.Context, id int64) (*domain.UserAccount, bool, error) {
	return r.getUser(ctx, selectUser+" WHERE id = ?", id)
}

func (r *SQLiteUserRepository) getUser(ctx context.Context, query string, arg any) (*domain.UserAccount, bool, error) {
	var (
		account domain.UserAccount
		role    string
		found   bool
	)

	err := r.db.WithConn(ctx, func(ctx context.Context, conn *sql.Conn) error {
		err := conn.QueryRowContext(ctx, query, arg).Scan(
			&account.ID,
			&account.Username,
			&account.Credential.Hash,
			&account.Credential.Salt,
			&role,
		)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		} else if err != nil {
			return errors.Join(domain.ErrStorageUnavailable, fmt.Errorf("query user: %w", err))
		}

		found = true

		return nil
	})
	if err != nil || !found {
		return nil, false, err
	}

	if account.Role, err = domain.ParseRole(role); err != nil {
		return nil, false, errors.Join(domain.ErrCorruptCredential, fmt.Errorf("user %d: %w", account.ID, err))
	}

	if account.Credential.IsZero() {
		return nil, false, fmt.Errorf("user %d: %w", account.ID, domain.ErrCorruptCredential)
	}

	return &account, true, nil
}

// UserIDOf implements Repository.UserIDOf using SQLite.
func (r *SQLiteUserRepository) UserIDOf(ctx context.Context, username string) (int64, bool, error) {
	var id int64

	err := r.db.WithConn(ctx, func(ctx context.Context, conn *sql.Conn) error {
		err := conn.QueryRowContext(ctx, "SELECT id FROM users WHERE username = ?", username).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		} else if err != nil {
			return errors.Join(domain.ErrStorageUnavailable, fmt.Errorf("query user id: %w", err))
		}

		return nil
	})
	if err != nil {
		return 0, false, err
	}

	return id, id != 0, nil
}

// ListUsernames implements Repository.ListUsernames using SQLite.
func (r *SQLiteUserRepository) ListUsernames(ctx context.Context) ([]string, error) {
	usernames := make([]string, 0)

	err := r.db.WithConn(ctx, func(ctx context.Context, conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, "SELECT username FROM users ORDER BY id")
		if err != nil {
			return errors.Join(domain.ErrStorageUnavailable, fmt.Errorf("query usernames: %w", err))
		}
		defer rows.Close()

		for rows.Next() {
			var username string
			if err := rows.Scan(&username); err != nil {
				return errors.Join(domain.ErrStorageUnavailable, fmt.Errorf("scan username: %w", err))
			}

			usernames = append(usernames, username)
		}

		if err := rows.Err(); err != nil {
			return errors.Join(domain.ErrStorageUnavailable, fmt.Errorf("iterate usernames: %w", err))
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return usernames, nil
}
