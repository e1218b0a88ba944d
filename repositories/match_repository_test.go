package repositories

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Dosada05/faculty-games/models"
	"github.com/lib/pq"
)

var matchColumns = []string{
	"id", "competition_id", "faculty1_id", "faculty2_id", "score1", "score2", "status",
	"match_date", "match_time", "location", "round", "notes", "stream_url",
	"created_at", "updated_at",
	"f1_name", "f1_short", "f1_color",
	"f2_name", "f2_short", "f2_color",
	"c_name", "c_kind", "c_format", "c_category", "c_icon",
}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	return db, mock, func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		db.Close()
	}
}

func TestMatchRepository_GetByID(t *testing.T) {
	db, mock, done := newMock(t)
	defer done()
	repo := NewPostgresMatchRepository(db)

	now := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE m.id = $1")).
		WithArgs("m-1").
		WillReturnRows(sqlmock.NewRows(matchColumns).AddRow(
			"m-1", "football", "f-1", "f-2", 3, 1, "completed",
			"2025-03-12", "14:00", "Main Stadium", "Final", nil, nil,
			now, now,
			"Engineering", "ENG", "#3b82f6",
			nil, nil, nil,
			"Football", "sport", "elimination", "team", "⚽",
		))

	m, err := repo.GetByID(context.Background(), nil, "m-1")
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if m.RoundLabel() != models.RoundFinal {
		t.Errorf("round = %q, want %q", m.RoundLabel(), models.RoundFinal)
	}
	if m.Notes != nil {
		t.Errorf("notes = %v, want nil", *m.Notes)
	}
	if m.Faculty1 == nil || m.Faculty1.ShortName != "ENG" {
		t.Errorf("faculty1 not joined: %+v", m.Faculty1)
	}
	if m.Faculty2 != nil {
		t.Errorf("faculty2 should stay nil when the join misses, got %+v", m.Faculty2)
	}
	if !m.Competition.IsElimination() {
		t.Errorf("competition not joined as elimination: %+v", m.Competition)
	}
}

func TestMatchRepository_GetByID_NotFound(t *testing.T) {
	db, mock, done := newMock(t)
	defer done()
	repo := NewPostgresMatchRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE m.id = $1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(matchColumns))

	_, err := repo.GetByID(context.Background(), nil, "missing")
	if !errors.Is(err, ErrMatchNotFound) {
		t.Fatalf("err = %v, want ErrMatchNotFound", err)
	}
}

func TestMatchRepository_ListBuildsFilter(t *testing.T) {
	db, mock, done := newMock(t)
	defer done()
	repo := NewPostgresMatchRepository(db)

	competition := "football"
	status := models.MatchStatusLive
	mock.ExpectQuery(regexp.QuoteMeta("AND m.competition_id = $1 AND m.status = $2 ORDER BY m.match_date ASC, m.match_time ASC, m.id ASC LIMIT $3")).
		WithArgs("football", "live", 5).
		WillReturnRows(sqlmock.NewRows(matchColumns))

	matches, err := repo.List(context.Background(), MatchFilter{CompetitionID: &competition, Status: &status, Limit: 5})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if matches == nil || len(matches) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", matches)
	}
}

func TestMatchRepository_CreateMapsForeignKeys(t *testing.T) {
	tests := []struct {
		constraint string
		want       error
	}{
		{"matches_competition_id_fkey", ErrMatchCompetitionInvalid},
		{"matches_faculty1_id_fkey", ErrMatchFacultyInvalid},
		{"matches_faculty2_id_fkey", ErrMatchFacultyInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.constraint, func(t *testing.T) {
			db, mock, done := newMock(t)
			defer done()
			repo := NewPostgresMatchRepository(db)

			mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO matches")).
				WillReturnError(&pq.Error{Code: "23503", Constraint: tt.constraint})

			err := repo.Create(context.Background(), nil, &models.Match{ID: "m-1", Status: models.MatchStatusScheduled})
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestMatchRepository_DeleteNotFound(t *testing.T) {
	db, mock, done := newMock(t)
	defer done()
	repo := NewPostgresMatchRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM matches WHERE id = $1")).
		WithArgs("m-404").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), nil, "m-404"); !errors.Is(err, ErrMatchNotFound) {
		t.Fatalf("err = %v, want ErrMatchNotFound", err)
	}
}
