package services

import (
	"context"
	"errors"
	"testing"

	"github.com/Dosada05/faculty-games/models"
)

func newArtsFixture(t *testing.T, matches ...models.Match) (ArtsScoreService, *fakeArtsRepo, *recordingPublisher, *tallyFixture) {
	t.Helper()
	f := newTallyFixture(t, matches...)
	pub := &recordingPublisher{}
	svc := NewArtsScoreService(f.db, f.matches, f.arts, pub, discardLogger())
	return svc, f.arts, pub, f
}

func TestArtsScoreService_SaveReplacesWholeSet(t *testing.T) {
	scheduled := completed("m-art", "singing", models.RoundFinal, "f-1", "f-1", 0, 0)
	scheduled.Status = models.MatchStatusScheduled
	svc, arts, pub, f := newArtsFixture(t, scheduled)
	ctx := context.Background()

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	if _, err := svc.SaveScoresFor(ctx, "m-art", []ArtsScoreEntry{
		{FacultyID: "f-1", Score: 8},
		{FacultyID: "f-2", Score: 9},
		{FacultyID: "f-3", Score: 7},
	}); err != nil {
		t.Fatalf("first save: %v", err)
	}

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	board, err := svc.SaveScoresFor(ctx, "m-art", []ArtsScoreEntry{
		{FacultyID: "f-4", Score: 9.5},
		{FacultyID: "f-2", Score: 9.5},
	})
	if err != nil {
		t.Fatalf("second save: %v", err)
	}

	if n := len(arts.scores["m-art"]); n != 2 {
		t.Fatalf("stored %d rows, want exactly the submitted 2", n)
	}
	if len(board.Scores) != 2 || board.Scores[0].FacultyID != "f-2" || board.Scores[1].FacultyID != "f-4" {
		t.Errorf("ranking = %+v, want f-2 before f-4 on equal scores", board.Scores)
	}
	if board.Scores[0].Rank != 1 || board.Scores[1].Rank != 2 {
		t.Errorf("ranks = %d,%d", board.Scores[0].Rank, board.Scores[1].Rank)
	}
	if len(pub.events) != 0 {
		t.Errorf("scores of an unfinished match published %+v", pub.events)
	}
}

func TestArtsScoreService_SaveOnCompletedFinalPublishes(t *testing.T) {
	svc, _, pub, f := newArtsFixture(t, completed("m-art", "singing", models.RoundFinal, "f-1", "f-1", 0, 0))

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	board, err := svc.SaveScoresFor(context.Background(), "m-art", []ArtsScoreEntry{
		{FacultyID: "f-1", Score: 6}, {FacultyID: "f-2", Score: 7}, {FacultyID: "f-3", Score: 8}, {FacultyID: "f-4", Score: 9},
	})
	if err != nil {
		t.Fatalf("SaveScoresFor: %v", err)
	}
	if len(board.Podium) != 3 || board.Podium[0].FacultyID != "f-4" {
		t.Errorf("podium = %+v", board.Podium)
	}
	if len(pub.events) != 1 || pub.events[0].topic != "completed" {
		t.Errorf("published %+v, want one completed event", pub.events)
	}
}

func TestArtsScoreService_Validation(t *testing.T) {
	tests := []struct {
		name    string
		matchID string
		entries []ArtsScoreEntry
		wantErr error
	}{
		{"sport match", "m-sport", []ArtsScoreEntry{{FacultyID: "f-1", Score: 1}}, ErrNotArtsMatch},
		{"unknown match", "m-404", nil, ErrMatchNotFound},
		{"negative", "m-art", []ArtsScoreEntry{{FacultyID: "f-1", Score: -0.5}}, ErrNegativeScore},
		{"duplicate faculty", "m-art", []ArtsScoreEntry{{FacultyID: "f-1", Score: 1}, {FacultyID: "f-1", Score: 2}}, ErrDuplicateArtsFaculty},
		{"missing faculty", "m-art", []ArtsScoreEntry{{Score: 1}}, ErrValidationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _, _ := newArtsFixture(t,
				completed("m-art", "singing", models.RoundFinal, "f-1", "f-1", 0, 0),
				completed("m-sport", "football", models.RoundFinal, "f-1", "f-2", 1, 0),
			)
			_, err := svc.SaveScoresFor(context.Background(), tt.matchID, tt.entries)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestArtsScoreService_JudgingInProgress(t *testing.T) {
	svc, _, _, _ := newArtsFixture(t, completed("m-art", "singing", models.RoundFinal, "f-1", "f-1", 0, 0))

	board, err := svc.ScoresFor(context.Background(), "m-art")
	if err != nil {
		t.Fatalf("ScoresFor: %v", err)
	}
	if !board.JudgingInProgress {
		t.Error("completed arts match without scores should report judging in progress")
	}
	if board.Scores == nil || len(board.Scores) != 0 {
		t.Errorf("scores = %#v, want empty list", board.Scores)
	}
}
