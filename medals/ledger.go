package medals

import (
	"cmp"
	"slices"

	"github.com/Dosada05/faculty-games/models"
)

const (
	GoldPoints   = 3
	SilverPoints = 2
	BronzePoints = 1
)

// Points is the weighted medal score stored as total_points.
func Points(gold, silver, bronze int) int {
	return gold*GoldPoints + silver*SilverPoints + bronze*BronzePoints
}

// Apply adds exactly one medal of the given tier to the standing and
// recomputes its total points.
func Apply(standing *models.FacultyStanding, tier models.MedalTier) {
	switch tier {
	case models.MedalGold:
		standing.Gold++
	case models.MedalSilver:
		standing.Silver++
	case models.MedalBronze:
		standing.Bronze++
	}
	standing.TotalPoints = Points(standing.Gold, standing.Silver, standing.Bronze)
}

type standingKey struct {
	facultyID     string
	competitionID string
}

type awardKey struct {
	matchID string
	tier    models.MedalTier
}

// Fold rebuilds standings from ledger entries. Entries repeating an already
// seen (match, tier) pair are ignored. Rows come back ordered by competition
// then faculty.
func Fold(awards []models.MedalAward) []models.FacultyStanding {
	seen := make(map[awardKey]struct{}, len(awards))
	byKey := make(map[standingKey]*models.FacultyStanding)

	for _, a := range awards {
		ak := awardKey{matchID: a.MatchID, tier: a.Tier}
		if _, dup := seen[ak]; dup {
			continue
		}
		seen[ak] = struct{}{}

		sk := standingKey{facultyID: a.FacultyID, competitionID: a.CompetitionID}
		st, ok := byKey[sk]
		if !ok {
			st = &models.FacultyStanding{FacultyID: a.FacultyID, CompetitionID: a.CompetitionID}
			byKey[sk] = st
		}
		Apply(st, a.Tier)
	}

	out := make([]models.FacultyStanding, 0, len(byKey))
	for _, st := range byKey {
		out = append(out, *st)
	}
	slices.SortFunc(out, func(a, b models.FacultyStanding) int {
		if c := cmp.Compare(a.CompetitionID, b.CompetitionID); c != 0 {
			return c
		}
		return cmp.Compare(a.FacultyID, b.FacultyID)
	})
	return out
}

// RankTally sorts the global tally by points, then gold, silver and bronze,
// and assigns ranks. Faculties with an identical medal line share a rank;
// display order among them falls back to short name.
func RankTally(tally []models.MedalTally) {
	slices.SortStableFunc(tally, func(a, b models.MedalTally) int {
		if c := compareMedalLine(a, b); c != 0 {
			return c
		}
		return cmp.Compare(a.FacultyShortName, b.FacultyShortName)
	})
	for i := range tally {
		if i > 0 && compareMedalLine(tally[i-1], tally[i]) == 0 {
			tally[i].Rank = tally[i-1].Rank
			continue
		}
		tally[i].Rank = i + 1
	}
}

func compareMedalLine(a, b models.MedalTally) int {
	if c := cmp.Compare(b.TotalPoints, a.TotalPoints); c != 0 {
		return c
	}
	if c := cmp.Compare(b.TotalGold, a.TotalGold); c != 0 {
		return c
	}
	if c := cmp.Compare(b.TotalSilver, a.TotalSilver); c != 0 {
		return c
	}
	return cmp.Compare(b.TotalBronze, a.TotalBronze)
}
