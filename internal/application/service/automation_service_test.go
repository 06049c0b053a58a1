package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/calaim-taskhub/internal/clock"
	"github.com/garyjia/calaim-taskhub/internal/domain/entity"
	"github.com/garyjia/calaim-taskhub/internal/domain/event"
)

func newAutomation(f *fixture) AutomationService {
	return NewAutomationService(f.service, f.engine, f.publisher, clock.Fixed(testNow), nopLogger{})
}

func TestAutomationService_Run(t *testing.T) {
	f := newFixture(t,
		kaiserRecord("k-1", "T2038 Requested", "2024-06-07"),
		kaiserRecord("k-2", "RN/MSW Scheduled", "2024-06-20"),
		healthNetRecord("h-1", "Authorization Complete", "2024-06-01"),
	)
	f.load(t)
	automation := newAutomation(f)

	report, err := automation.Run(context.Background(), map[string][]string{"k-2": {ConditionRNVisitCompleted}})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Evaluated, "completed tasks are skipped")
	assert.Equal(t, 2, report.Updated)
	assert.Equal(t, 1, report.Notified)

	hits := map[string]RuleHit{}
	for _, h := range report.Hits {
		hits[h.TaskID+"/"+h.RuleID] = h
	}
	require.Contains(t, hits, "k-1/t2038-follow-up")
	assert.True(t, hits["k-1/t2038-follow-up"].Notified)
	require.Contains(t, hits, "k-2/rn-visit-completed")
	assert.Equal(t, "RN Visit Complete", hits["k-2/rn-visit-completed"].NewStatus)

	k1, err := f.service.Task("k-1")
	require.NoError(t, err)
	assert.Equal(t, "[2024-06-12] Follow up with Kaiser on T2038 request", k1.Notes)
	require.NotNil(t, k1.DueDate)
	// 3 business days after Wednesday
	assert.Equal(t, time.Date(2024, 6, 17, 14, 30, 0, 0, time.UTC), *k1.DueDate)

	k2, err := f.service.Task("k-2")
	require.NoError(t, err)
	assert.Equal(t, "RN Visit Complete", k2.CurrentStatus)

	require.Len(t, f.history.records, 1)
	assert.Equal(t, entity.HistorySourceRule, f.history.records[0].Source)

	triggered := f.publisher.ofType(event.TypeRuleTriggered)
	require.Len(t, triggered, 1)
	assert.Equal(t, "k-1", triggered[0].TaskID)
	assert.Equal(t, "t2038-follow-up", triggered[0].GetPayloadString(event.KeyRuleID))
	assert.Equal(t, "maria@example.org", triggered[0].GetPayloadString(event.KeyAssignee))
	assert.True(t, triggered[0].GetPayloadBool(event.KeyNotify))
}

func TestAutomationService_NotesAreNotDuplicated(t *testing.T) {
	f := newFixture(t, kaiserRecord("k-1", "T2038 Requested", "2024-06-07"))
	f.load(t)
	automation := newAutomation(f)

	for i := 0; i < 2; i++ {
		_, err := automation.Run(context.Background(), nil)
		require.NoError(t, err)
	}

	k1, err := f.service.Task("k-1")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(k1.Notes, "Follow up with Kaiser"))
}

func TestAutomationService_Disabled(t *testing.T) {
	f := newFixture(t, kaiserRecord("k-1", "T2038 Requested", "2024-06-07"))
	f.load(t)
	require.NoError(t, f.service.SetAutomation(context.Background(), false, true))

	_, err := newAutomation(f).Run(context.Background(), nil)
	assert.ErrorIs(t, err, ErrAutomationDisabled)
	assert.Empty(t, f.publisher.ofType(event.TypeRuleTriggered))
}

func TestAutomationService_StopsOnCancelledContext(t *testing.T) {
	f := newFixture(t, kaiserRecord("k-1", "T2038 Requested", "2024-06-07"))
	f.load(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := newAutomation(f).Run(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Zero(t, report.Evaluated)
}
