package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/euphoricking/malaria-incidence-nigeria/internal/domain"
)

func TestSerializeToMessage(t *testing.T) {
	alloc := &domain.Allocation{
		RunID:             "run-42",
		NationalIncidence: 1000,
		GeneratedAt:       time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
	}
	state := domain.StateRecord{
		State:          "Lagos",
		Population:     100,
		EnvRisk:        0.5,
		StateWeight:    50,
		AllocatedCases: 1000,
	}

	msg, err := serializeToMessage(alloc, state)
	require.NoError(t, err)

	assert.Equal(t, []byte("Lagos"), msg.Key)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(msg.Value, &payload))
	assert.Equal(t, "run-42", payload["run_id"])
	assert.Equal(t, 1000.0, payload["national_incidence"])
	assert.Equal(t, "Lagos", payload["state"])
	assert.Equal(t, 1000.0, payload["allocated_cases"])

	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "run_id", msg.Headers[0].Key)
	assert.Equal(t, []byte("run-42"), msg.Headers[0].Value)
	assert.Equal(t, "generated_at", msg.Headers[1].Key)
	assert.Equal(t, []byte("2026-03-14T09:00:00Z"), msg.Headers[1].Value)
}
