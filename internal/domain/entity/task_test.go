package entity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTask_JSONRoundTripKeepsDetails(t *testing.T) {
	due := time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		task Task
	}{
		{
			name: "kaiser",
			task: Task{
				ID:            "k-1",
				HealthPlan:    HealthPlanKaiser,
				CurrentStatus: "T2038 Requested",
				DueDate:       &due,
				HasDueDate:    true,
				DaysUntilDue:  8,
				Details:       &KaiserDetails{T2038Status: "Received", TierLevel: "2"},
			},
		},
		{
			name: "health net",
			task: Task{
				ID:            "h-1",
				HealthPlan:    HealthPlanHealthNet,
				CurrentStatus: "Scheduling ISP",
				Details:       &HealthNetDetails{AuthorizationStatus: "Approved", AuthorizationNumber: "A-77"},
			},
		},
		{
			name: "no details",
			task: Task{ID: "o-1", HealthPlan: HealthPlanOther, CurrentStatus: "Open"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.task)
			require.NoError(t, err)

			var got Task
			require.NoError(t, json.Unmarshal(data, &got))
			assert.Equal(t, tt.task.ID, got.ID)
			assert.Equal(t, tt.task.CurrentStatus, got.CurrentStatus)
			assert.Equal(t, tt.task.DaysUntilDue, got.DaysUntilDue)
			assert.Equal(t, tt.task.Details, got.Details)
			if tt.task.DueDate != nil {
				require.NotNil(t, got.DueDate)
				assert.True(t, tt.task.DueDate.Equal(*got.DueDate))
			}
		})
	}
}

func TestTask_UnmarshalDetailsVariant(t *testing.T) {
	var task Task
	require.NoError(t, json.Unmarshal([]byte(`{"id":"k-1","health_plan":"Kaiser","details":{"rn_visit_status":"Complete"}}`), &task))

	kaiser, ok := task.Kaiser()
	require.True(t, ok)
	assert.Equal(t, "Complete", kaiser.RNVisitStatus)
	_, ok = task.HealthNet()
	assert.False(t, ok)

	require.NoError(t, json.Unmarshal([]byte(`{"id":"h-1","health_plan":"Health Net","details":null}`), &task))
	assert.Nil(t, task.Details)

	err := json.Unmarshal([]byte(`{"id":"x-1","health_plan":"Other","details":{"isp_status":"Done"}}`), &task)
	assert.Error(t, err)
}
