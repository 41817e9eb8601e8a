package kafka

// Topic definitions for Kafka event streaming
const (
	// Round execution requests consumed by the negotiation engine
	TopicRoundRequests = "parley.rounds.requests"

	// Completed round summaries published for downstream consumers
	TopicRoundCompleted = "parley.rounds.completed"

	// Term changes (pin, unpin, manual override) for audit streams
	TopicTermEvents = "parley.terms.events"
)
