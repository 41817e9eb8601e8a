// Package consumers wires Kafka topics into the negotiation services
package consumers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"parley/internal/adapters/kafka"
	"parley/internal/domain/clause"
	roundservice "parley/internal/services/round"
	"parley/pkg/errors"
	"parley/pkg/logger"
)

// RoundRequest is the wire format of a round execution request
type RoundRequest struct {
	SessionID uuid.UUID                   `json:"session_id"`
	RoundNo   *int                        `json:"round_no,omitempty"`
	Overrides map[clause.Key]clause.Value `json:"overrides,omitempty"`
}

// RoundRequestConsumer executes negotiation rounds requested over Kafka
type RoundRequestConsumer struct {
	consumer *kafka.Consumer
	rounds   *roundservice.Service
	timeout  time.Duration
	log      *logger.Logger
}

// NewRoundRequestConsumer creates a new round request consumer
func NewRoundRequestConsumer(
	consumer *kafka.Consumer,
	rounds *roundservice.Service,
	timeout time.Duration,
) *RoundRequestConsumer {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &RoundRequestConsumer{
		consumer: consumer,
		rounds:   rounds,
		timeout:  timeout,
		log:      logger.Get().With("component", "round_request_consumer"),
	}
}

// Start begins consuming round requests until the context is cancelled
func (rc *RoundRequestConsumer) Start(ctx context.Context) error {
	rc.log.Info("Starting round request consumer...")

	defer func() {
		if err := rc.consumer.Close(); err != nil {
			rc.log.Error("Failed to close round request consumer", "error", err)
		}
	}()

	for {
		msg, err := rc.consumer.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				rc.log.Info("Round request consumer stopping")
				return nil
			}
			rc.log.Debug("Failed to read round request", "error", err)
			continue
		}

		// Bounded processing so shutdown never hangs on a round
		processCtx, cancel := context.WithTimeout(context.Background(), rc.timeout)
		if err := rc.handleMessage(processCtx, msg); err != nil {
			rc.log.Error("Failed to handle round request",
				"topic", msg.Topic,
				"error", err,
			)
		}
		cancel()

		if ctx.Err() != nil {
			rc.log.Info("Round request consumer stopping after current message")
			return nil
		}
	}
}

// handleMessage executes one requested round.
// Malformed payloads and unknown sessions are terminal for the message;
// retrying them cannot succeed.
func (rc *RoundRequestConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	var req RoundRequest
	if err := json.Unmarshal(msg.Value, &req); err != nil {
		rc.log.Warn("Dropping malformed round request", "error", err)
		return nil
	}
	if req.SessionID == uuid.Nil {
		rc.log.Warn("Dropping round request without session_id")
		return nil
	}

	result, err := rc.rounds.ExecuteRound(ctx, roundservice.Request{
		SessionID: req.SessionID,
		RoundNo:   req.RoundNo,
		Overrides: req.Overrides,
	})
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			rc.log.Warn("Dropping round request for unknown session", "session_id", req.SessionID)
			return nil
		}
		if errors.Is(err, errors.ErrSessionLocked) {
			rc.log.Warn("Session busy, round request skipped", "session_id", req.SessionID)
			return nil
		}
		return errors.Wrapf(err, "execute round for session %s", req.SessionID)
	}

	rc.log.Info("Round request completed",
		"session_id", req.SessionID,
		"round_no", result.RoundNo,
		"decided", result.Decided,
	)
	return nil
}
