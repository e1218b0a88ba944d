package models

// DashboardSnapshot is everything the public board polls for in one call.
type DashboardSnapshot struct {
	MedalTally      []MedalTally  `json:"medal_tally"`
	LiveMatches     []Match       `json:"live_matches"`
	UpcomingMatches []Match       `json:"upcoming_matches"`
	Competitions    []Competition `json:"competitions"`
}
