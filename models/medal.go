package models

import "time"

type MedalTier string

const (
	MedalGold   MedalTier = "gold"
	MedalSilver MedalTier = "silver"
	MedalBronze MedalTier = "bronze"
)

func (t MedalTier) Valid() bool {
	switch t {
	case MedalGold, MedalSilver, MedalBronze:
		return true
	}
	return false
}

// MedalAssignment is a single decision produced by the rule evaluator.
type MedalAssignment struct {
	FacultyID     string    `json:"faculty_id"`
	CompetitionID string    `json:"competition_id"`
	Tier          MedalTier `json:"tier"`
}

// MedalAward is an immutable ledger entry: which match produced which medal.
type MedalAward struct {
	ID            int64     `json:"id" db:"id"`
	MatchID       string    `json:"match_id" db:"match_id"`
	FacultyID     string    `json:"faculty_id" db:"faculty_id"`
	CompetitionID string    `json:"competition_id" db:"competition_id"`
	Tier          MedalTier `json:"tier" db:"tier"`
	AwardedAt     time.Time `json:"awarded_at" db:"awarded_at"`
}
