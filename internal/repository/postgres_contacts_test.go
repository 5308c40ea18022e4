package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/avoront/rubrica/internal/models"
)

func setupContactMock(t *testing.T) (*PostgresContactRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	repo := NewPostgresContactRepository(db)
	cleanup := func() { db.Close() }
	return repo, mock, cleanup
}

var findQuery = regexp.QuoteMeta(`SELECT name, surname, phone FROM contacts
		 WHERE ($1 = '' OR name = $1)
		   AND ($2 = '' OR surname = $2)
		   AND ($3 = '' OR phone = $3)
		 ORDER BY id
		 OFFSET $4 LIMIT 1`)

func TestPGFindNth_Found(t *testing.T) {
	repo, mock, cleanup := setupContactMock(t)
	defer cleanup()

	mock.ExpectQuery(findQuery).
		WithArgs("", "Rossi", "", 1).
		WillReturnRows(sqlmock.NewRows([]string{"name", "surname", "phone"}).
			AddRow("Luigi", "Rossi", "2222222222"))

	got, err := repo.FindNth(context.Background(), models.Contact{Surname: "Rossi"}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := models.Contact{Name: "Luigi", Surname: "Rossi", Phone: "2222222222"}
	if got != want {
		t.Errorf("FindNth = %v; want %v", got, want)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPGFindNth_NotFound(t *testing.T) {
	repo, mock, cleanup := setupContactMock(t)
	defer cleanup()

	mock.ExpectQuery(findQuery).
		WithArgs("", "", "", 0).
		WillReturnRows(sqlmock.NewRows([]string{"name", "surname", "phone"}))

	_, err := repo.FindNth(context.Background(), models.Contact{}, 1)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("FindNth = %v; want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPGFindNth_ZeroIndex(t *testing.T) {
	repo, _, cleanup := setupContactMock(t)
	defer cleanup()

	// No query is issued for an unset ordinal.
	if _, err := repo.FindNth(context.Background(), models.Contact{}, 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("FindNth(0) = %v; want ErrNotFound", err)
	}
}

func TestPGAdd_Success(t *testing.T) {
	repo, mock, cleanup := setupContactMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO contacts (name, surname, phone) VALUES ($1, $2, $3)`)).
		WithArgs("Mario", "Rossi", "1234567890").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Add(context.Background(), models.Contact{Name: "Mario", Surname: "Rossi", Phone: "1234567890"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPGAdd_Duplicate(t *testing.T) {
	repo, mock, cleanup := setupContactMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO contacts (name, surname, phone) VALUES ($1, $2, $3)`)).
		WithArgs("Mario", "Rossi", "1234567890").
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Add(context.Background(), models.Contact{Name: "Mario", Surname: "Rossi", Phone: "1234567890"})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("Add = %v; want ErrDuplicate", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPGRemove_NotFound(t *testing.T) {
	repo, mock, cleanup := setupContactMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM contacts WHERE name = $1 AND surname = $2 AND phone = $3`)).
		WithArgs("Mario", "Rossi", "1234567890").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Remove(context.Background(), models.Contact{Name: "Mario", Surname: "Rossi", Phone: "1234567890"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Remove = %v; want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPGReplace_Success(t *testing.T) {
	repo, mock, cleanup := setupContactMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE contacts SET name = $4, surname = $5, phone = $6
		 WHERE name = $1 AND surname = $2 AND phone = $3`)).
		WithArgs("Mario", "Rossi", "1234567890", "Maria", "Rossi", "1234567890").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Replace(context.Background(),
		models.Contact{Name: "Mario", Surname: "Rossi", Phone: "1234567890"},
		models.Contact{Name: "Maria", Surname: "Rossi", Phone: "1234567890"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPGReplace_NotFound(t *testing.T) {
	repo, mock, cleanup := setupContactMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE contacts SET name = $4, surname = $5, phone = $6
		 WHERE name = $1 AND surname = $2 AND phone = $3`)).
		WithArgs("Mario", "Rossi", "1234567890", "Maria", "Rossi", "1234567890").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Replace(context.Background(),
		models.Contact{Name: "Mario", Surname: "Rossi", Phone: "1234567890"},
		models.Contact{Name: "Maria", Surname: "Rossi", Phone: "1234567890"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Replace = %v; want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
