package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Dosada05/faculty-games/events"
	"github.com/ThreeDotsLabs/watermill/message"
)

// EventPublisher - то, что нужно сервисам от шины событий.
type EventPublisher interface {
	PublishMatchCompleted(ctx context.Context, matchID string) error
	PublishMatchWithdrawn(ctx context.Context, matchID, reason string) error
}

type EventSubscriber interface {
	Subscribe(ctx context.Context, topic string, handler events.HandlerFunc) error
}

// MedalEventHandler keeps the medal ledger in step with match results.
type MedalEventHandler struct {
	tally  TallyService
	logger *slog.Logger
}

func NewMedalEventHandler(tally TallyService, logger *slog.Logger) *MedalEventHandler {
	return &MedalEventHandler{tally: tally, logger: logger}
}

func (h *MedalEventHandler) Register(ctx context.Context, bus EventSubscriber) error {
	if err := bus.Subscribe(ctx, events.TopicMatchCompleted, h.HandleMatchCompleted); err != nil {
		return err
	}
	return bus.Subscribe(ctx, events.TopicMatchWithdrawn, h.HandleMatchWithdrawn)
}

func (h *MedalEventHandler) HandleMatchCompleted(ctx context.Context, msg *message.Message) error {
	event, err := events.Decode[events.MatchCompleted](msg)
	if err != nil {
		return err
	}

	outcome, err := h.tally.AwardMatch(ctx, event.MatchID)
	if err != nil {
		return fmt.Errorf("match.completed %s: %w", event.MatchID, err)
	}

	if !outcome.Skipped() {
		h.logger.InfoContext(ctx, "Medals awarded",
			slog.String("match_id", event.MatchID),
			slog.Int("assignments", len(outcome.Assignments)),
		)
	}
	return nil
}

func (h *MedalEventHandler) HandleMatchWithdrawn(ctx context.Context, msg *message.Message) error {
	event, err := events.Decode[events.MatchWithdrawn](msg)
	if err != nil {
		return err
	}

	if err = h.tally.RetractMatch(ctx, event.MatchID); err != nil {
		return fmt.Errorf("match.withdrawn %s (%s): %w", event.MatchID, event.Reason, err)
	}
	return nil
}
