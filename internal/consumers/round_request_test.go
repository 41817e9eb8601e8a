package consumers

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parley/internal/domain/clause"
)

func TestRoundRequestConsumer_HandleMessage(t *testing.T) {
	// A nil service is safe here: terminal payloads are dropped before
	// the service is consulted.
	rc := NewRoundRequestConsumer(nil, nil, 0)

	t.Run("drops malformed payload", func(t *testing.T) {
		msg := kafkago.Message{Value: []byte("{not json")}

		err := rc.handleMessage(context.Background(), msg)
		assert.NoError(t, err)
	})

	t.Run("drops request without session id", func(t *testing.T) {
		msg := kafkago.Message{Value: []byte(`{"round_no": 3}`)}

		err := rc.handleMessage(context.Background(), msg)
		assert.NoError(t, err)
	})
}

func TestRoundRequest_Decode(t *testing.T) {
	id := uuid.New()
	payload := `{
		"session_id": "` + id.String() + `",
		"round_no": 2,
		"overrides": {
			"exclusivity": {"period_days": 45}
		}
	}`

	var req RoundRequest
	require.NoError(t, json.Unmarshal([]byte(payload), &req))

	assert.Equal(t, id, req.SessionID)
	require.NotNil(t, req.RoundNo)
	assert.Equal(t, 2, *req.RoundNo)

	val, ok := req.Overrides[clause.Exclusivity]
	require.True(t, ok)
	field, ok := val["period_days"]
	require.True(t, ok)
	assert.Equal(t, 45.0, field.Num)
}
