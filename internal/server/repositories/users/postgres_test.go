package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sidhlee/task-manager-api/internal/common"
	"github.com/sidhlee/task-manager-api/internal/server/models"
)

var userColumns = []string{"id", "email", "name", "age", "password_hash", "created_at", "updated_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+users\s*\(email,\s*name,\s*age,\s*password_hash\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4\)\s*RETURNING\s+id,\s*created_at,\s*updated_at\s*$`

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("u-1", now, now)
	mock.ExpectQuery(q).
		WithArgs("ann@example.com", "Ann", 30, "hash").
		WillReturnRows(rows)

	got, err := repo.Create(context.Background(), &models.User{Email: "ann@example.com", Name: "Ann", Age: 30, PasswordHash: "hash"})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != "u-1" || !got.CreatedAt.Equal(now) {
		t.Fatalf("unexpected user: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+users`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	_, err := repo.Create(context.Background(), &models.User{Email: "ann@example.com"})
	if !errors.Is(err, common.ErrorAlreadyExists) {
		t.Fatalf("expected ErrorAlreadyExists, got %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+users`).
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{Email: "ann@example.com"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetByID_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*email,\s*name,\s*age,\s*password_hash,\s*created_at,\s*updated_at\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1\s*$`

	now := time.Now()
	mock.ExpectQuery(q).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow("u-1", "ann@example.com", "Ann", 30, "hash", now, now))

	got, err := repo.GetByID(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if got.Email != "ann@example.com" || got.PasswordHash != "hash" || got.Age != 30 {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT\s+id,.*FROM\s+users\s+WHERE\s+id`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

func TestGetByEmail_CaseInsensitive(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+.*FROM\s+users\s+WHERE\s+lower\(email\)\s*=\s*lower\(\$1\)\s*$`

	now := time.Now()
	mock.ExpectQuery(q).
		WithArgs("ANN@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow("u-1", "ann@example.com", "Ann", 0, "hash", now, now))

	got, err := repo.GetByEmail(context.Background(), "ANN@example.com")
	if err != nil {
		t.Fatalf("GetByEmail error: %v", err)
	}
	if got.ID != "u-1" {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestGetByIDAndToken(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+u\.id,.*FROM\s+users\s+u\s+JOIN\s+user_tokens\s+t\s+ON\s+t\.user_id\s*=\s*u\.id\s+WHERE\s+u\.id\s*=\s*\$1\s+AND\s+t\.token\s*=\s*\$2\s*$`

	now := time.Now()
	mock.ExpectQuery(q).
		WithArgs("u-1", "tok").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow("u-1", "ann@example.com", "Ann", 0, "hash", now, now))
	mock.ExpectQuery(q).
		WithArgs("u-1", "revoked").
		WillReturnError(sql.ErrNoRows)

	if _, err := repo.GetByIDAndToken(context.Background(), "u-1", "tok"); err != nil {
		t.Fatalf("GetByIDAndToken error: %v", err)
	}
	if _, err := repo.GetByIDAndToken(context.Background(), "u-1", "revoked"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

func TestUpdate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+users\s+SET\s+email\s*=\s*\$2,\s*name\s*=\s*\$3,\s*age\s*=\s*\$4,\s*password_hash\s*=\s*\$5,\s*updated_at\s*=\s*now\(\)\s+WHERE\s+id\s*=\s*\$1\s+RETURNING\s+updated_at\s*$`

	now := time.Now()
	mock.ExpectQuery(q).
		WithArgs("u-1", "new@example.com", "Ann", 31, "hash").
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(now))
	mock.ExpectQuery(q).
		WithArgs("u-2", "taken@example.com", "Bob", 0, "hash").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})
	mock.ExpectQuery(q).
		WithArgs("gone", "x@example.com", "", 0, "").
		WillReturnError(sql.ErrNoRows)

	got, err := repo.Update(context.Background(), &models.User{ID: "u-1", Email: "new@example.com", Name: "Ann", Age: 31, PasswordHash: "hash"})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if !got.UpdatedAt.Equal(now) {
		t.Fatalf("updated_at not refreshed: %+v", got)
	}

	_, err = repo.Update(context.Background(), &models.User{ID: "u-2", Email: "taken@example.com", Name: "Bob", PasswordHash: "hash"})
	if !errors.Is(err, common.ErrorAlreadyExists) {
		t.Fatalf("expected ErrorAlreadyExists, got %v", err)
	}

	_, err = repo.Update(context.Background(), &models.User{ID: "gone", Email: "x@example.com"})
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^DELETE\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1\s*$`
	mock.ExpectExec(q).WithArgs("u-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("u-1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(q).WithArgs("u-1").WillReturnError(errors.New("db down"))

	if err := repo.Delete(context.Background(), "u-1"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if err := repo.Delete(context.Background(), "u-1"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
	if err := repo.Delete(context.Background(), "u-1"); err == nil || errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected db error, got %v", err)
	}
}

func TestAvatar_SetAndGet(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^UPDATE\s+users\s+SET\s+avatar\s*=\s*\$2`).
		WithArgs("u-1", []byte("png")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`(?s)^SELECT\s+avatar\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1\s*$`).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows([]string{"avatar"}).AddRow([]byte("png")))
	mock.ExpectQuery(`(?s)^SELECT\s+avatar\s+FROM\s+users`).
		WithArgs("u-2").
		WillReturnRows(sqlmock.NewRows([]string{"avatar"}).AddRow(nil))

	if err := repo.SetAvatar(context.Background(), "u-1", []byte("png")); err != nil {
		t.Fatalf("SetAvatar error: %v", err)
	}
	got, err := repo.GetAvatar(context.Background(), "u-1")
	if err != nil || string(got) != "png" {
		t.Fatalf("GetAvatar = %q, %v", got, err)
	}
	if _, err := repo.GetAvatar(context.Background(), "u-2"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound for empty avatar, got %v", err)
	}
}
