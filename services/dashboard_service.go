package services

import (
	"context"
	"fmt"

	"github.com/Dosada05/faculty-games/models"
	"golang.org/x/sync/errgroup"
)

const dashboardUpcomingLimit = 10

type DashboardService interface {
	Snapshot(ctx context.Context) (*models.DashboardSnapshot, error)
}

type dashboardService struct {
	tallyService       TallyService
	matchService       MatchService
	competitionService CompetitionService
}

func NewDashboardService(
	tallyService TallyService,
	matchService MatchService,
	competitionService CompetitionService,
) DashboardService {
	return &dashboardService{
		tallyService:       tallyService,
		matchService:       matchService,
		competitionService: competitionService,
	}
}

func (s *dashboardService) Snapshot(ctx context.Context) (*models.DashboardSnapshot, error) {
	var snapshot models.DashboardSnapshot
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		tally, err := s.tallyService.MedalTally(gCtx)
		if err != nil {
			return fmt.Errorf("medal tally: %w", err)
		}
		snapshot.MedalTally = tally
		return nil
	})
	g.Go(func() error {
		live, err := s.matchService.ListLiveMatches(gCtx)
		if err != nil {
			return fmt.Errorf("live matches: %w", err)
		}
		snapshot.LiveMatches = live
		return nil
	})
	g.Go(func() error {
		upcoming, err := s.matchService.ListUpcomingMatches(gCtx, dashboardUpcomingLimit)
		if err != nil {
			return fmt.Errorf("upcoming matches: %w", err)
		}
		snapshot.UpcomingMatches = upcoming
		return nil
	})
	g.Go(func() error {
		competitions, err := s.competitionService.ListCompetitions(gCtx)
		if err != nil {
			return fmt.Errorf("competitions: %w", err)
		}
		snapshot.Competitions = competitions
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to build dashboard: %w", err)
	}
	return &snapshot, nil
}
