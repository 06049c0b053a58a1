package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestType_IsValid(t *testing.T) {
	tests := []struct {
		name      string
		eventType Type
		want      bool
	}{
		{"tasks loaded", TypeTasksLoaded, true},
		{"status changed", TypeStatusChanged, true},
		{"rule triggered", TypeRuleTriggered, true},
		{"unknown", Type("instance.created"), false},
		{"empty", Type(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.eventType.IsValid())
		})
	}
}

func TestType_String(t *testing.T) {
	assert.Equal(t, "task.status_changed", TypeStatusChanged.String())
}

func TestNewEvent(t *testing.T) {
	before := time.Now()
	evt := NewEvent(TypeStatusChanged, "case-1", map[string]interface{}{KeyToStatus: "RN Visit Needed"})

	require.NotNil(t, evt)
	assert.NotEmpty(t, evt.ID)
	assert.NotEmpty(t, evt.CorrelationID)
	assert.NotEqual(t, evt.ID, evt.CorrelationID)
	assert.Equal(t, "case-1", evt.TaskID)
	assert.False(t, evt.Timestamp.Before(before))
	assert.Equal(t, "RN Visit Needed", evt.GetPayloadString(KeyToStatus))

	other := NewEvent(TypeStatusChanged, "case-1", nil)
	assert.NotEqual(t, evt.ID, other.ID)
	assert.NotNil(t, other.Payload)
}

func TestNewEventWithCorrelation(t *testing.T) {
	evt := NewEventWithCorrelation(TypeRuleTriggered, "case-2", nil, "batch-7")
	assert.Equal(t, "batch-7", evt.CorrelationID)
}

func TestEvent_WithPayload_IsImmutable(t *testing.T) {
	original := NewEvent(TypeTaskUpdated, "case-3", map[string]interface{}{KeyAssignee: "ana@example.org"})
	updated := original.WithPayload(KeyNotify, true)

	assert.False(t, original.GetPayloadBool(KeyNotify))
	assert.True(t, updated.GetPayloadBool(KeyNotify))
	assert.Equal(t, original.ID, updated.ID)
	assert.Equal(t, "ana@example.org", updated.GetPayloadString(KeyAssignee))
}

func TestEvent_PayloadGetters(t *testing.T) {
	due := time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)
	evt := NewEvent(TypeTasksLoaded, "", map[string]interface{}{
		KeyCount:   3,
		"float":    4.0,
		KeyDueDate: due,
		"wrong":    "x",
	})

	assert.Equal(t, int64(3), evt.GetPayloadInt(KeyCount))
	assert.Equal(t, int64(4), evt.GetPayloadInt("float"))
	assert.Equal(t, int64(0), evt.GetPayloadInt("wrong"))
	assert.Equal(t, "", evt.GetPayloadString(KeyCount))

	got, ok := evt.GetPayloadTime(KeyDueDate)
	require.True(t, ok)
	assert.Equal(t, due, got)
	_, ok = evt.GetPayloadTime("missing")
	assert.False(t, ok)
}
