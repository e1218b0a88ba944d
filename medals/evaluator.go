// Package medals holds the tournament rules that turn finished matches into
// medals. Everything here is pure: callers load data and persist results.
package medals

import (
	"github.com/Dosada05/faculty-games/models"
)

// SkipReason explains why an evaluation produced no medals.
// An empty SkipReason means the outcome carries assignments.
type SkipReason string

const (
	SkipNone                SkipReason = ""
	SkipNotCompleted        SkipReason = "not_completed"
	SkipCompetitionNotFound SkipReason = "competition_not_found"
	SkipNotEligible         SkipReason = "not_eligible"
	SkipRoundWithoutMedal   SkipReason = "round_without_medal"
	SkipTiedResult          SkipReason = "tied_result"
	SkipJudgingInProgress   SkipReason = "judging_in_progress"
)

type Outcome struct {
	Assignments []models.MedalAssignment
	Skip        SkipReason
}

// Skipped reports whether the evaluation was a no-op.
func (o Outcome) Skipped() bool {
	return len(o.Assignments) == 0
}

type side int

const (
	winnerSide side = iota
	loserSide
)

type eliminationRule struct {
	side side
	tier models.MedalTier
}

// Медали в сетке на выбывание выдаются только в этих раундах.
// "Lower Final" - бронза проигравшему в нижней сетке (double elimination).
var eliminationRules = map[string][]eliminationRule{
	models.RoundFinal: {
		{side: winnerSide, tier: models.MedalGold},
		{side: loserSide, tier: models.MedalSilver},
	},
	models.RoundThirdPlace: {
		{side: winnerSide, tier: models.MedalBronze},
	},
	models.RoundLowerFinal: {
		{side: loserSide, tier: models.MedalBronze},
	},
}

var artsPodium = []models.MedalTier{models.MedalGold, models.MedalSilver, models.MedalBronze}

// IsMedalRound reports whether a round label can award medals in an elimination bracket.
func IsMedalRound(round string) bool {
	_, ok := eliminationRules[round]
	return ok
}

// MedalSlot groups medal rounds that share a medal: the Final holds gold and
// silver, "3rd Place" and "Lower Final" compete for the single bronze.
// Returns "" for rounds without medals.
type MedalSlot string

const (
	SlotNone   MedalSlot = ""
	SlotFinal  MedalSlot = "final"
	SlotBronze MedalSlot = "bronze"
)

func SlotOf(round string) MedalSlot {
	switch round {
	case models.RoundFinal:
		return SlotFinal
	case models.RoundThirdPlace, models.RoundLowerFinal:
		return SlotBronze
	default:
		return SlotNone
	}
}

// Evaluate decides which faculties receive which medals for a completed match.
//
// Elimination competitions use the round label (Final, 3rd Place, Lower Final).
// Art competitions award the top three judged scores, and only on the Final.
// Ties in art scores go to the lower faculty id; tied elimination results award nothing.
func Evaluate(match *models.Match, competition *models.Competition, artsScores []models.ArtsPerformanceScore) Outcome {
	if match == nil || !match.IsCompleted() {
		return Outcome{Skip: SkipNotCompleted}
	}
	if competition == nil {
		return Outcome{Skip: SkipCompetitionNotFound}
	}

	round := match.RoundLabel()
	switch {
	case competition.IsElimination():
		return evaluateElimination(match, competition, round)
	case competition.IsArt() && round == models.RoundFinal:
		return evaluateArtsFinal(match, competition, artsScores)
	default:
		return Outcome{Skip: SkipNotEligible}
	}
}

func evaluateElimination(match *models.Match, competition *models.Competition, round string) Outcome {
	rules, ok := eliminationRules[round]
	if !ok {
		return Outcome{Skip: SkipRoundWithoutMedal}
	}
	if match.Score1 == match.Score2 {
		return Outcome{Skip: SkipTiedResult}
	}

	winner, loser := match.Faculty1ID, match.Faculty2ID
	if match.Score2 > match.Score1 {
		winner, loser = loser, winner
	}

	assignments := make([]models.MedalAssignment, 0, len(rules))
	for _, rule := range rules {
		facultyID := winner
		if rule.side == loserSide {
			facultyID = loser
		}
		assignments = append(assignments, models.MedalAssignment{
			FacultyID:     facultyID,
			CompetitionID: competition.ID,
			Tier:          rule.tier,
		})
	}
	return Outcome{Assignments: assignments}
}

func evaluateArtsFinal(match *models.Match, competition *models.Competition, artsScores []models.ArtsPerformanceScore) Outcome {
	ranked := RankArts(match.ID, artsScores)
	if len(ranked) == 0 {
		return Outcome{Skip: SkipJudgingInProgress}
	}

	podium := Podium(ranked)
	assignments := make([]models.MedalAssignment, 0, len(podium))
	for i, rs := range podium {
		assignments = append(assignments, models.MedalAssignment{
			FacultyID:     rs.FacultyID,
			CompetitionID: competition.ID,
			Tier:          artsPodium[i],
		})
	}
	return Outcome{Assignments: assignments}
}
