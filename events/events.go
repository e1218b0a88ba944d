package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
)

const (
	TopicMatchCompleted = "match.completed"
	TopicMatchWithdrawn = "match.withdrawn"
)

// Причины отзыва результата матча.
const (
	ReasonReopened = "reopened"
	ReasonDeleted  = "deleted"
)

// MatchCompleted is published every time a match is (re)saved as completed,
// including score corrections and arts score saves on a completed Final.
type MatchCompleted struct {
	MatchID    string    `json:"match_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// MatchWithdrawn is published when a completed match stops counting.
type MatchWithdrawn struct {
	MatchID    string    `json:"match_id"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Decode unmarshals a message payload into T.
func Decode[T any](msg *message.Message) (T, error) {
	var event T
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return event, fmt.Errorf("failed to decode message %s: %w", msg.UUID, err)
	}
	return event, nil
}
