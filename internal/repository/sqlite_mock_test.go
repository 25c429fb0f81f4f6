package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mattn/go-sqlite3"

	"github.com/selfire1/gridtip-sub000/internal/models"
)

func newMockRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &Repository{db: db}, mock
}

func TestListGroups_ScanError(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows([]string{"id", "name", "join_code", "cutoff_minutes", "created_at"}).
		AddRow("bad-id", "G", "code", 60, nil)
	mock.ExpectQuery("SELECT (.+) FROM tip_groups").WillReturnRows(rows)

	if _, err := repo.ListGroups(context.Background()); err == nil {
		t.Error("expected error from scan failure, got nil")
	}
}

func TestListMembers_ScanError(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows([]string{"id", "group_id", "name", "token", "is_admin", "joined_at"}).
		AddRow("bad-id", 1, "Ann", "tok", false, nil)
	mock.ExpectQuery("SELECT (.+) FROM members WHERE group_id").WillReturnRows(rows)

	if _, err := repo.ListMembers(context.Background(), 1); err == nil {
		t.Error("expected error from scan failure, got nil")
	}
}

func TestListRaces_ScanError(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows([]string{"id", "season", "round", "name", "circuit", "locality", "country",
		"qualifying_date", "grand_prix_date", "sprint_qualifying_date", "sprint_date"}).
		AddRow("bad-id", 2025, 1, "GP", nil, nil, nil, nil, nil, nil, nil)
	mock.ExpectQuery("SELECT (.+) FROM races WHERE season").WillReturnRows(rows)

	if _, err := repo.ListRaces(context.Background(), 2025); err == nil {
		t.Error("expected error from scan failure, got nil")
	}
}

func TestListDrivers_ScanError(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows([]string{"id", "code", "given_name", "family_name", "number"}).
		AddRow("max", "VER", "Max", "Verstappen", "not-a-number")
	mock.ExpectQuery("SELECT (.+) FROM drivers").WillReturnRows(rows)

	if _, err := repo.ListDrivers(context.Background()); err == nil {
		t.Error("expected error from scan failure, got nil")
	}
}

func TestGetResults_ScanError(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows([]string{"race_id", "session", "position", "driver_id"}).
		AddRow(1, "grand_prix", "first", "max")
	mock.ExpectQuery("SELECT (.+) FROM result_positions").WillReturnRows(rows)

	if _, err := repo.GetResults(context.Background(), 2025); err == nil {
		t.Error("expected error from scan failure, got nil")
	}
}

func TestGetResults_ConstructorPointsQueryError(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows([]string{"race_id", "session", "position", "driver_id"}).
		AddRow(1, "grand_prix", 1, "max")
	mock.ExpectQuery("SELECT (.+) FROM result_positions").WillReturnRows(rows)
	mock.ExpectQuery("SELECT (.+) FROM constructor_points").WillReturnError(errors.New("database locked"))

	if _, err := repo.GetResults(context.Background(), 2025); err == nil {
		t.Error("expected error from constructor points query, got nil")
	}
}

func TestListGroupEntries_ScanError(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows([]string{"id", "member_id", "race_id", "season", "field", "driver_id", "constructor_id", "overwrite_to", "updated_at"}).
		AddRow("bad-id", 1, 1, 2025, "pole", "max", nil, nil, nil)
	mock.ExpectQuery("SELECT (.+) FROM prediction_entries").WillReturnRows(rows)

	if _, err := repo.ListGroupEntries(context.Background(), 1, 2025); err == nil {
		t.Error("expected error from scan failure, got nil")
	}
}

func TestSaveResult_RollsBackOnInsertError(t *testing.T) {
	repo, mock := newMockRepo(t)

	res := models.NewRaceResult(1)
	res.GrandPrix[1] = "max"

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM result_positions").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM constructor_points").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectPrepare("INSERT INTO result_positions").
		ExpectExec().WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	if err := repo.SaveResult(context.Background(), res); err == nil {
		t.Fatal("expected insert error, got nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetStats_QueryError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT COUNT").WillReturnError(errors.New("boom"))

	if _, err := repo.GetStats(context.Background()); err == nil {
		t.Error("expected error, got nil")
	}
}

func TestUpsertRace_LookupError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM races WHERE season").WillReturnError(errors.New("boom"))

	if _, _, err := repo.UpsertRace(context.Background(), models.Race{Season: 2025, Round: 1}); err == nil {
		t.Error("expected error, got nil")
	}
}

func TestTranslate(t *testing.T) {
	unique := sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}
	if translate(unique) != ErrDuplicate {
		t.Error("expected unique violation to map to ErrDuplicate")
	}

	fk := sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintForeignKey}
	if translate(fk) == ErrDuplicate {
		t.Error("foreign key violation is not a duplicate")
	}

	plain := errors.New("other")
	if translate(plain) != plain {
		t.Error("expected other errors to pass through")
	}
}
