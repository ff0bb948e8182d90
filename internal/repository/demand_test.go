package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/chaabi-dev/demandhub/internal/models"
)

func setupDemandMock(t *testing.T) (*PostgresDemandRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	repo := NewPostgresDemandRepository(db)
	cleanup := func() { db.Close() }
	return repo, mock, cleanup
}

func demandColumns() []string {
	return []string{"id", "title", "description", "file_name", "file_url", "status", "created_at", "created_by", "rejection_comment"}
}

func TestCreate_InsertsDemandAndArticles(t *testing.T) {
	repo, mock, cleanup := setupDemandMock(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO demands").
		WithArgs("Toner", "For the printer", "", "", "pending", "agent@chaabi.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(5), now))
	mock.ExpectQuery("INSERT INTO articles").
		WithArgs(int64(5), 0, "Toner cartridge", "", 3, 49.90).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))
	mock.ExpectCommit()

	got, err := repo.Create(context.Background(), models.Demand{
		Title:       "Toner",
		Description: "For the printer",
		CreatedBy:   "agent@chaabi.com",
		Articles:    []models.Article{{Name: "Toner cartridge", Quantity: 3, Price: 49.90}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != 5 {
		t.Errorf("id = %d; want 5", got.ID)
	}
	if got.Status != models.StatusPending {
		t.Errorf("status = %q; want pending", got.Status)
	}
	if got.Articles[0].ID != 11 {
		t.Errorf("article id = %d; want 11", got.Articles[0].ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestCreate_RollsBackOnArticleError(t *testing.T) {
	repo, mock, cleanup := setupDemandMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO demands").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(5), time.Now()))
	mock.ExpectQuery("INSERT INTO articles").
		WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), models.Demand{
		Title:    "Toner",
		Articles: []models.Article{{Name: "Toner cartridge", Quantity: 3, Price: 49.90}},
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestList_FiltersAndArticles(t *testing.T) {
	repo, mock, cleanup := setupDemandMock(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery("SELECT id, title, description, file_name, file_url, status, created_at, created_by, rejection_comment").
		WithArgs("pending", "%toner%").
		WillReturnRows(sqlmock.NewRows(demandColumns()).
			AddRow(int64(1), "Toner", "desc", "", "", "pending", now, "agent@chaabi.com", ""))
	mock.ExpectQuery("SELECT demand_id, id, name, description, quantity, price").
		WillReturnRows(sqlmock.NewRows([]string{"demand_id", "id", "name", "description", "quantity", "price"}).
			AddRow(int64(1), int64(2), "Cartridge", "", 3, 49.90))

	got, err := repo.List(context.Background(), models.DemandFilters{
		Status: models.StatusPending,
		Search: "toner",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d demands; want 1", len(got))
	}
	if len(got[0].Articles) != 1 || got[0].Articles[0].Name != "Cartridge" {
		t.Errorf("articles not attached: %+v", got[0].Articles)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, cleanup := setupDemandMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT id, title, description").
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 99)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("error = %v; want sql.ErrNoRows", err)
	}
}

func TestUpdateStatus_Applied(t *testing.T) {
	repo, mock, cleanup := setupDemandMock(t)
	defer cleanup()

	mock.ExpectExec("UPDATE demands SET status").
		WithArgs(int64(7), "rejected", "Budget constraints prevent approval").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), 7, models.StatusRejected, "Budget constraints prevent approval")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestUpdateStatus_MissingDemand(t *testing.T) {
	repo, mock, cleanup := setupDemandMock(t)
	defer cleanup()

	mock.ExpectExec("UPDATE demands SET status").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), 99, models.StatusApproved, "")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("error = %v; want sql.ErrNoRows", err)
	}
}

func TestSoftDelete_MarksRow(t *testing.T) {
	repo, mock, cleanup := setupDemandMock(t)
	defer cleanup()

	mock.ExpectExec("UPDATE demands SET deleted").
		WithArgs(int64(4), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SoftDelete(context.Background(), 4); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
