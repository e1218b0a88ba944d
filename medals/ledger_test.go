package medals

import (
	"reflect"
	"testing"

	"github.com/Dosada05/faculty-games/models"
)

func TestApplyKeepsPointsInvariant(t *testing.T) {
	st := &models.FacultyStanding{FacultyID: "f1", CompetitionID: "futsal"}
	for _, tier := range []models.MedalTier{models.MedalGold, models.MedalBronze, models.MedalSilver, models.MedalGold} {
		Apply(st, tier)
		if st.TotalPoints != Points(st.Gold, st.Silver, st.Bronze) {
			t.Fatalf("points invariant broken: %+v", st)
		}
	}
	if st.Gold != 2 || st.Silver != 1 || st.Bronze != 1 || st.TotalPoints != 9 {
		t.Fatalf("unexpected standing %+v", st)
	}
}

func TestFold(t *testing.T) {
	awards := []models.MedalAward{
		{MatchID: "final", FacultyID: "f1", CompetitionID: "futsal", Tier: models.MedalGold},
		{MatchID: "final", FacultyID: "f2", CompetitionID: "futsal", Tier: models.MedalSilver},
		{MatchID: "bronze", FacultyID: "f3", CompetitionID: "futsal", Tier: models.MedalBronze},
		{MatchID: "dance-final", FacultyID: "f1", CompetitionID: "dance", Tier: models.MedalGold},
		// duplicate (match, tier) must not double count
		{MatchID: "final", FacultyID: "f1", CompetitionID: "futsal", Tier: models.MedalGold},
	}

	got := Fold(awards)
	want := []models.FacultyStanding{
		{FacultyID: "f1", CompetitionID: "dance", Gold: 1, TotalPoints: 3},
		{FacultyID: "f1", CompetitionID: "futsal", Gold: 1, TotalPoints: 3},
		{FacultyID: "f2", CompetitionID: "futsal", Silver: 1, TotalPoints: 2},
		{FacultyID: "f3", CompetitionID: "futsal", Bronze: 1, TotalPoints: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Fold() = %+v\nwant %+v", got, want)
	}

	if again := Fold(awards); !reflect.DeepEqual(again, got) {
		t.Fatalf("Fold is not deterministic")
	}
	if empty := Fold(nil); len(empty) != 0 {
		t.Fatalf("Fold(nil) = %v", empty)
	}
}

func TestRankTally(t *testing.T) {
	tally := []models.MedalTally{
		{FacultyShortName: "SOD", TotalPoints: 3, TotalGold: 1},
		{FacultyShortName: "BBS", TotalPoints: 3, TotalSilver: 1, TotalBronze: 1},
		{FacultyShortName: "SOCS", TotalPoints: 6, TotalGold: 2},
		{FacultyShortName: "FDCHT", TotalPoints: 3, TotalGold: 1},
		{FacultyShortName: "ZERO"},
	}
	RankTally(tally)

	gotOrder := make([]string, len(tally))
	gotRanks := make([]int, len(tally))
	for i, row := range tally {
		gotOrder[i] = row.FacultyShortName
		gotRanks[i] = row.Rank
	}
	if want := []string{"SOCS", "FDCHT", "SOD", "BBS", "ZERO"}; !reflect.DeepEqual(gotOrder, want) {
		t.Fatalf("order = %v, want %v", gotOrder, want)
	}
	if want := []int{1, 2, 2, 4, 5}; !reflect.DeepEqual(gotRanks, want) {
		t.Fatalf("ranks = %v, want %v", gotRanks, want)
	}
}
