package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"audiencesync/internal/domain"
)

func TestUserRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO admin_users \(email, password_hash, salt, created_at, updated_at\)`).
		WithArgs("admin@example.com", "hash", "salt", now, now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("user-uuid-1"))

	repo := NewUserRepository(db)
	user := &domain.AdminUser{Email: "admin@example.com", PasswordHash: "hash", Salt: "salt", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repo.Create(context.Background(), user))
	assert.Equal(t, "user-uuid-1", user.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create_DuplicateEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO admin_users`).
		WillReturnError(&pq.Error{Code: "23505"})

	repo := NewUserRepository(db)
	err = repo.Create(context.Background(), &domain.AdminUser{Email: "admin@example.com"})
	require.ErrorIs(t, err, domain.ErrDuplicateEmail)
}

func TestUserRepository_GetByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`SELECT id, email, password_hash, salt, created_at, updated_at\s+FROM admin_users\s+WHERE email = \$1`).
		WithArgs("admin@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "salt", "created_at", "updated_at"}).
			AddRow("user-uuid-1", "admin@example.com", "hash", "salt", now, now))

	repo := NewUserRepository(db)
	user, err := repo.GetByEmail(context.Background(), "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, "user-uuid-1", user.ID)
	assert.Equal(t, "hash", user.PasswordHash)
}

func TestUserRepository_GetByEmail_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, email, password_hash, salt, created_at, updated_at`).
		WithArgs("missing@example.com").
		WillReturnError(sql.ErrNoRows)

	repo := NewUserRepository(db)
	_, err = repo.GetByEmail(context.Background(), "missing@example.com")
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}
