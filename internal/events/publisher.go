package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"parley/internal/adapters/kafka"
	"parley/pkg/logger"
)

// RoundCompletedEvent summarizes one settled negotiation round for
// downstream consumers (analytics, notifications)
type RoundCompletedEvent struct {
	SessionID       uuid.UUID  `json:"session_id"`
	RoundNo         int        `json:"round_no"`
	CompanyUtility  float64    `json:"company_utility"`
	InvestorUtility float64    `json:"investor_utility"`
	PolicyOK        bool       `json:"policy_ok"`
	Grounding       float64    `json:"grounding"`
	ClauseCount     int        `json:"clause_count"`
	AnchoredBy      *uuid.UUID `json:"anchored_by,omitempty"`
	CompletedAt     time.Time  `json:"completed_at"`
}

// TermEvent records a manual term mutation (pin, unpin, override)
type TermEvent struct {
	SessionID uuid.UUID `json:"session_id"`
	ClauseKey string    `json:"clause_key"`
	Action    string    `json:"action"` // pinned|unpinned|overridden
	Actor     uuid.UUID `json:"actor"`
	At        time.Time `json:"at"`
}

// Publisher publishes negotiation events to Kafka
type Publisher struct {
	producer *kafka.Producer
	log      *logger.Logger
}

// NewPublisher creates a new event publisher
func NewPublisher(producer *kafka.Producer) *Publisher {
	return &Publisher{
		producer: producer,
		log:      logger.Get().With("component", "event_publisher"),
	}
}

// PublishRoundCompleted publishes a round completed event.
// Best effort: a broker failure is logged, never propagated into the
// round pipeline.
func (p *Publisher) PublishRoundCompleted(ctx context.Context, event *RoundCompletedEvent) {
	if p == nil || p.producer == nil {
		return
	}
	if err := p.producer.Publish(ctx, kafka.TopicRoundCompleted, event.SessionID.String(), event); err != nil {
		p.log.Warn("Failed to publish round completed event",
			"session_id", event.SessionID, "round_no", event.RoundNo, "error", err)
	}
}

// PublishTermEvent publishes a term mutation event
func (p *Publisher) PublishTermEvent(ctx context.Context, event *TermEvent) {
	if p == nil || p.producer == nil {
		return
	}
	if err := p.producer.Publish(ctx, kafka.TopicTermEvents, event.SessionID.String(), event); err != nil {
		p.log.Warn("Failed to publish term event",
			"session_id", event.SessionID, "clause", event.ClauseKey, "error", err)
	}
}
