package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"regexp"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Dosada05/faculty-games/cache"
	"github.com/Dosada05/faculty-games/models"
	"github.com/Dosada05/faculty-games/repositories"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string { return &s }

var testCompetitions = map[string]models.Competition{
	"football":  {ID: "football", Name: "Football", Kind: models.CompetitionSport, Format: models.FormatElimination, Category: models.CategoryTeam},
	"chess":     {ID: "chess", Name: "Chess", Kind: models.CompetitionSport, Format: models.FormatElimination, Category: models.CategoryIndividual},
	"singing":   {ID: "singing", Name: "Singing", Kind: models.CompetitionArt, Format: models.FormatTable, Category: models.CategoryIndividual},
	"painting":  {ID: "painting", Name: "Painting", Kind: models.CompetitionArt, Format: models.FormatTable, Category: models.CategoryIndividual},
	"athletics": {ID: "athletics", Name: "Athletics", Kind: models.CompetitionSport, Format: models.FormatTable, Category: models.CategoryMixed},
}

var testFaculties = []models.Faculty{
	{ID: "f-1", Name: "Engineering", ShortName: "ENG"},
	{ID: "f-2", Name: "Business", ShortName: "BUS"},
	{ID: "f-3", Name: "Medicine", ShortName: "MED"},
	{ID: "f-4", Name: "Arts", ShortName: "ART"},
}

// --- sqlmock ---

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet sql expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

func expectTallyTx(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock($1)")).
		WithArgs(tallyLockKey).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
}

// --- competitions ---

type fakeCompetitionRepo struct{}

func (fakeCompetitionRepo) GetByID(_ context.Context, id string) (*models.Competition, error) {
	c, ok := testCompetitions[id]
	if !ok {
		return nil, repositories.ErrCompetitionNotFound
	}
	return &c, nil
}

func (fakeCompetitionRepo) List(context.Context) ([]models.Competition, error) {
	out := make([]models.Competition, 0, len(testCompetitions))
	for _, c := range testCompetitions {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b models.Competition) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

// --- matches ---

type fakeMatchRepo struct {
	mu      sync.Mutex
	matches map[string]models.Match
	deleted []string
}

func newFakeMatchRepo(matches ...models.Match) *fakeMatchRepo {
	r := &fakeMatchRepo{matches: make(map[string]models.Match)}
	for _, m := range matches {
		r.matches[m.ID] = m
	}
	return r
}

func (r *fakeMatchRepo) withJoins(m models.Match) models.Match {
	if c, ok := testCompetitions[m.CompetitionID]; ok {
		m.Competition = &c
	} else {
		m.Competition = nil
	}
	return m
}

func (r *fakeMatchRepo) Create(_ context.Context, _ repositories.SQLExecutor, match *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := testCompetitions[match.CompetitionID]; !ok {
		return repositories.ErrMatchCompetitionInvalid
	}
	stored := *match
	stored.Competition = nil
	r.matches[match.ID] = stored
	return nil
}

func (r *fakeMatchRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id string) (*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	m = r.withJoins(m)
	return &m, nil
}

func (r *fakeMatchRepo) List(_ context.Context, filter repositories.MatchFilter) ([]models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Match, 0)
	for _, m := range r.matches {
		if filter.CompetitionID != nil && m.CompetitionID != *filter.CompetitionID {
			continue
		}
		if filter.Status != nil && m.Status != *filter.Status {
			continue
		}
		out = append(out, r.withJoins(m))
	}
	slices.SortFunc(out, func(a, b models.Match) int { return strings.Compare(a.ID, b.ID) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *fakeMatchRepo) ListCompleted(_ context.Context, _ repositories.SQLExecutor) ([]models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Match, 0)
	for _, m := range r.matches {
		if m.Status == models.MatchStatusCompleted && m.Round != nil {
			out = append(out, r.withJoins(m))
		}
	}
	slices.SortFunc(out, func(a, b models.Match) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

func (r *fakeMatchRepo) Update(_ context.Context, _ repositories.SQLExecutor, match *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.matches[match.ID]; !ok {
		return repositories.ErrMatchNotFound
	}
	stored := *match
	stored.Competition = nil
	r.matches[match.ID] = stored
	return nil
}

func (r *fakeMatchRepo) UpdateScore(_ context.Context, _ repositories.SQLExecutor, id string, score1, score2 int, status models.MatchStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.Score1, m.Score2, m.Status = score1, score2, status
	r.matches[id] = m
	return nil
}

func (r *fakeMatchRepo) Delete(_ context.Context, _ repositories.SQLExecutor, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.matches[id]; !ok {
		return repositories.ErrMatchNotFound
	}
	delete(r.matches, id)
	r.deleted = append(r.deleted, id)
	return nil
}

// --- arts scores ---

type fakeArtsRepo struct {
	mu     sync.Mutex
	scores map[string][]models.ArtsPerformanceScore
}

func newFakeArtsRepo() *fakeArtsRepo {
	return &fakeArtsRepo{scores: make(map[string][]models.ArtsPerformanceScore)}
}

func (r *fakeArtsRepo) ListByMatch(_ context.Context, _ repositories.SQLExecutor, matchID string) ([]models.ArtsPerformanceScore, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.scores[matchID]), nil
}

func (r *fakeArtsRepo) DeleteByMatch(_ context.Context, _ repositories.SQLExecutor, matchID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.scores[matchID])
	delete(r.scores, matchID)
	return int64(n), nil
}

func (r *fakeArtsRepo) BatchCreate(_ context.Context, _ repositories.SQLExecutor, scores []models.ArtsPerformanceScore) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range scores {
		r.scores[s.MatchID] = append(r.scores[s.MatchID], s)
	}
	return nil
}

// --- standings ---

type standingKey struct{ faculty, competition string }

type fakeStandingRepo struct {
	mu        sync.Mutex
	rows      map[standingKey]models.FacultyStanding
	upsertErr error
	// afterTallyRead runs once the tally rows are copied, outside the lock.
	afterTallyRead func()
}

func newFakeStandingRepo() *fakeStandingRepo {
	return &fakeStandingRepo{rows: make(map[standingKey]models.FacultyStanding)}
}

func (r *fakeStandingRepo) Get(_ context.Context, _ repositories.SQLExecutor, facultyID, competitionID string) (*models.FacultyStanding, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[standingKey{facultyID, competitionID}]
	if !ok {
		return nil, repositories.ErrFacultyStandingNotFound
	}
	return &s, nil
}

func (r *fakeStandingRepo) Upsert(_ context.Context, _ repositories.SQLExecutor, standing *models.FacultyStanding) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.rows[standingKey{standing.FacultyID, standing.CompetitionID}] = *standing
	return nil
}

func (r *fakeStandingRepo) Delete(_ context.Context, _ repositories.SQLExecutor, facultyID, competitionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := standingKey{facultyID, competitionID}
	if _, ok := r.rows[k]; !ok {
		return repositories.ErrFacultyStandingNotFound
	}
	delete(r.rows, k)
	return nil
}

func (r *fakeStandingRepo) DeleteAll(_ context.Context, _ repositories.SQLExecutor) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.rows)
	r.rows = make(map[standingKey]models.FacultyStanding)
	return int64(n), nil
}

func (r *fakeStandingRepo) ListByCompetition(_ context.Context, _ repositories.SQLExecutor, competitionID string) ([]models.FacultyStanding, error) {
	all := r.sorted()
	out := make([]models.FacultyStanding, 0)
	for _, s := range all {
		if s.CompetitionID == competitionID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeStandingRepo) ListAll(_ context.Context, _ repositories.SQLExecutor) ([]models.FacultyStanding, error) {
	return r.sorted(), nil
}

func (r *fakeStandingRepo) sorted() []models.FacultyStanding {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.FacultyStanding, 0, len(r.rows))
	for _, s := range r.rows {
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b models.FacultyStanding) int {
		if c := strings.Compare(a.CompetitionID, b.CompetitionID); c != 0 {
			return c
		}
		return strings.Compare(a.FacultyID, b.FacultyID)
	})
	return out
}

func (r *fakeStandingRepo) MedalTally(_ context.Context, _ repositories.SQLExecutor) ([]models.MedalTally, error) {
	out := r.tally()
	r.mu.Lock()
	hook := r.afterTallyRead
	r.afterTallyRead = nil
	r.mu.Unlock()
	if hook != nil {
		hook()
	}
	return out, nil
}

func (r *fakeStandingRepo) tally() []models.MedalTally {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.MedalTally, 0, len(testFaculties))
	for _, f := range testFaculties {
		t := models.MedalTally{FacultyID: f.ID, FacultyName: f.Name, FacultyShortName: f.ShortName}
		for k, s := range r.rows {
			if k.faculty != f.ID {
				continue
			}
			t.TotalGold += s.Gold
			t.TotalSilver += s.Silver
			t.TotalBronze += s.Bronze
			t.TotalPoints += s.TotalPoints
		}
		out = append(out, t)
	}
	return out
}

func (r *fakeStandingRepo) row(facultyID, competitionID string) (models.FacultyStanding, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[standingKey{facultyID, competitionID}]
	return s, ok
}

// --- medal ledger ---

type fakeAwardRepo struct {
	mu     sync.Mutex
	nextID int64
	awards []models.MedalAward
}

func (r *fakeAwardRepo) Insert(_ context.Context, _ repositories.SQLExecutor, award *models.MedalAward) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.awards {
		if a.MatchID == award.MatchID && a.Tier == award.Tier {
			return false, nil
		}
	}
	r.nextID++
	award.ID = r.nextID
	r.awards = append(r.awards, *award)
	return true, nil
}

func (r *fakeAwardRepo) TierTakenInCompetition(_ context.Context, _ repositories.SQLExecutor, competitionID string, tier models.MedalTier, excludeMatchID string) (bool, error) {
	taken := r.filter(func(a models.MedalAward) bool {
		return a.CompetitionID == competitionID && a.Tier == tier && a.MatchID != excludeMatchID
	})
	return len(taken) > 0, nil
}

func (r *fakeAwardRepo) ListByMatch(_ context.Context, _ repositories.SQLExecutor, matchID string) ([]models.MedalAward, error) {
	return r.filter(func(a models.MedalAward) bool { return a.MatchID == matchID }), nil
}

func (r *fakeAwardRepo) ListByFacultyCompetition(_ context.Context, _ repositories.SQLExecutor, facultyID, competitionID string) ([]models.MedalAward, error) {
	return r.filter(func(a models.MedalAward) bool {
		return a.FacultyID == facultyID && a.CompetitionID == competitionID
	}), nil
}

func (r *fakeAwardRepo) DeleteByMatch(_ context.Context, _ repositories.SQLExecutor, matchID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	before := len(r.awards)
	r.awards = slices.DeleteFunc(r.awards, func(a models.MedalAward) bool { return a.MatchID == matchID })
	return int64(before - len(r.awards)), nil
}

func (r *fakeAwardRepo) DeleteAll(_ context.Context, _ repositories.SQLExecutor) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.awards)
	r.awards = nil
	return int64(n), nil
}

func (r *fakeAwardRepo) filter(keep func(models.MedalAward) bool) []models.MedalAward {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.MedalAward, 0)
	for _, a := range r.awards {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}

func (r *fakeAwardRepo) all() []models.MedalAward {
	return r.filter(func(models.MedalAward) bool { return true })
}

// --- cache ---

type countingCache struct {
	mu          sync.Mutex
	entry       []models.MedalTally
	hits        int
	sets        int
	invalidates int
}

func (c *countingCache) Get(context.Context) ([]models.MedalTally, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entry == nil {
		return nil, false, nil
	}
	c.hits++
	return slices.Clone(c.entry), true, nil
}

func (c *countingCache) Set(_ context.Context, tally []models.MedalTally) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.entry = slices.Clone(tally)
	return nil
}

func (c *countingCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidates++
	c.entry = nil
	return nil
}

var _ cache.TallyCache = (*countingCache)(nil)

// --- publisher ---

type publishedEvent struct {
	topic   string
	matchID string
	reason  string
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) PublishMatchCompleted(_ context.Context, matchID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{topic: "completed", matchID: matchID})
	return p.err
}

func (p *recordingPublisher) PublishMatchWithdrawn(_ context.Context, matchID, reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{topic: "withdrawn", matchID: matchID, reason: reason})
	return p.err
}

// --- fixture ---

type tallyFixture struct {
	db        *sql.DB
	mock      sqlmock.Sqlmock
	matches   *fakeMatchRepo
	arts      *fakeArtsRepo
	standings *fakeStandingRepo
	awards    *fakeAwardRepo
	cache     *countingCache
	service   TallyService
}

func newTallyFixture(t *testing.T, matches ...models.Match) *tallyFixture {
	t.Helper()
	db, mock := newMockDB(t)
	f := &tallyFixture{
		db:        db,
		mock:      mock,
		matches:   newFakeMatchRepo(matches...),
		arts:      newFakeArtsRepo(),
		standings: newFakeStandingRepo(),
		awards:    &fakeAwardRepo{},
		cache:     &countingCache{},
	}
	f.service = NewTallyService(db, f.matches, f.arts, f.standings, f.awards, f.cache, discardLogger())
	return f
}

func completed(id, competitionID, round, f1, f2 string, score1, score2 int) models.Match {
	m := models.Match{
		ID:            id,
		CompetitionID: competitionID,
		Faculty1ID:    f1,
		Faculty2ID:    f2,
		Score1:        score1,
		Score2:        score2,
		Status:        models.MatchStatusCompleted,
		Date:          "2025-03-12",
		Time:          "14:00",
	}
	if round != "" {
		m.Round = strPtr(round)
	}
	return m
}
