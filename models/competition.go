package models

type CompetitionKind string

const (
	CompetitionSport CompetitionKind = "sport"
	CompetitionArt   CompetitionKind = "art"
)

type CompetitionFormat string

const (
	FormatElimination CompetitionFormat = "elimination"
	FormatTable       CompetitionFormat = "table"
)

type CompetitionCategory string

const (
	CategoryIndividual CompetitionCategory = "individual"
	CategoryTeam       CompetitionCategory = "team"
	CategoryMixed      CompetitionCategory = "mixed"
)

// Competition - отдельный вид спорта или искусства со своей сеткой или таблицей.
type Competition struct {
	ID       string              `json:"id" db:"id"`
	Name     string              `json:"name" db:"name"`
	Kind     CompetitionKind     `json:"type" db:"kind"`
	Format   CompetitionFormat   `json:"format" db:"format"`
	Category CompetitionCategory `json:"category" db:"category"`
	Icon     string              `json:"icon" db:"icon"`
}

func (c *Competition) IsArt() bool {
	return c != nil && c.Kind == CompetitionArt
}

func (c *Competition) IsElimination() bool {
	return c != nil && c.Format == FormatElimination
}
