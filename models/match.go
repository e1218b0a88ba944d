package models

import "time"

type MatchStatus string

const (
	MatchStatusScheduled MatchStatus = "scheduled"
	MatchStatusLive      MatchStatus = "live"
	MatchStatusCompleted MatchStatus = "completed"
)

func (s MatchStatus) Valid() bool {
	switch s {
	case MatchStatusScheduled, MatchStatusLive, MatchStatusCompleted:
		return true
	}
	return false
}

// Round labels that carry medals. Any other label is score tracking only.
const (
	RoundFinal      = "Final"
	RoundThirdPlace = "3rd Place"
	RoundLowerFinal = "Lower Final"
)

type Match struct {
	ID            string      `json:"id" db:"id"`
	CompetitionID string      `json:"competition_id" db:"competition_id"`
	Faculty1ID    string      `json:"faculty1_id" db:"faculty1_id"`
	Faculty2ID    string      `json:"faculty2_id" db:"faculty2_id"`
	Score1        int         `json:"score1" db:"score1"`
	Score2        int         `json:"score2" db:"score2"`
	Status        MatchStatus `json:"status" db:"status"`
	Date          string      `json:"date" db:"date"`
	Time          string      `json:"time" db:"time"`
	Location      string      `json:"location" db:"location"`
	Round         *string     `json:"round,omitempty" db:"round"`
	Notes         *string     `json:"notes,omitempty" db:"notes"`
	StreamURL     *string     `json:"stream_url,omitempty" db:"stream_url"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`

	// Заполняются при выборке с join'ами
	Faculty1    *Faculty     `json:"faculty1,omitempty" db:"-"`
	Faculty2    *Faculty     `json:"faculty2,omitempty" db:"-"`
	Competition *Competition `json:"competition,omitempty" db:"-"`
}

// RoundLabel returns the round or "" when the match has none.
func (m *Match) RoundLabel() string {
	if m == nil || m.Round == nil {
		return ""
	}
	return *m.Round
}

func (m *Match) IsCompleted() bool {
	return m != nil && m.Status == MatchStatusCompleted
}
