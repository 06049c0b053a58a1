package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/calaim-taskhub/internal/domain/entity"
	"github.com/garyjia/calaim-taskhub/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/calaim-taskhub/pkg/database"
)

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	logger := zap.NewNop()
	db, err := database.New(database.Config{Path: filepath.Join(t.TempDir(), "test.db"), MaxOpenConns: 1}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.NewMigrator(db, logger).Run(context.Background(), database.Migrations()))
	return sqlite.NewDB(db.DB, logger)
}

func strPtr(s string) *string { return &s }

func TestCaseRecordRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewCaseRecordRepository(db, zap.NewNop())
	ctx := context.Background()

	err := repo.Upsert(ctx, []entity.CaseRecord{
		{ID: "b", Source: "kaiser", Payload: entity.RawRecord{"kaiserStatus": "T2038 Requested", "healthPlan": "Kaiser"}},
		{ID: "a", Source: "healthnet", Payload: entity.RawRecord{"id": "a", "healthNetStatus": "Scheduling ISP"}},
	})
	require.NoError(t, err)

	records, err := repo.FetchCaseRecords(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "a", records[0].String("id"))
	assert.Equal(t, "b", records[1].String("id"), "row id fills a missing payload id")
	assert.Equal(t, "T2038 Requested", records[1].String("kaiserStatus"))

	require.NoError(t, repo.Upsert(ctx, []entity.CaseRecord{{ID: "b", Payload: entity.RawRecord{"kaiserStatus": "Complete"}}}))
	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	records, err = repo.FetchCaseRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Complete", records[1].String("kaiserStatus"))

	assert.Error(t, repo.Upsert(ctx, []entity.CaseRecord{{Payload: entity.RawRecord{}}}))
}

func TestCaseRecordRepository_SkipsCorruptPayload(t *testing.T) {
	db := newTestDB(t)
	repo := NewCaseRecordRepository(db, zap.NewNop())
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `INSERT INTO case_records (id, payload) VALUES ('x', '{not json')`)
	require.NoError(t, err)
	require.NoError(t, repo.Upsert(ctx, []entity.CaseRecord{{ID: "y", Payload: entity.RawRecord{"status": "Intake"}}}))

	records, err := repo.FetchCaseRecords(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "y", records[0].String("id"))
}

func TestOverlayRepository_Merge(t *testing.T) {
	db := newTestDB(t)
	repo := NewOverlayRepository(db, zap.NewNop())
	ctx := context.Background()

	due := time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Save(ctx, entity.TaskOverlay{
		TaskID: "k-1",
		Update: entity.TaskUpdate{CurrentStatus: strPtr("RN Visit Needed"), DueDate: &due},
	}))
	require.NoError(t, repo.Save(ctx, entity.TaskOverlay{
		TaskID: "k-1",
		Update: entity.TaskUpdate{Notes: strPtr("left voicemail")},
	}))

	overlays, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, overlays, 1)
	u := overlays[0].Update
	require.NotNil(t, u.CurrentStatus)
	assert.Equal(t, "RN Visit Needed", *u.CurrentStatus)
	assert.Equal(t, "left voicemail", *u.Notes)
	require.NotNil(t, u.DueDate)
	assert.True(t, due.Equal(*u.DueDate))
	assert.Nil(t, u.AssignedTo)
	assert.False(t, u.ClearDueDate)

	require.NoError(t, repo.Save(ctx, entity.TaskOverlay{TaskID: "k-1", Update: entity.TaskUpdate{ClearDueDate: true}}))
	overlays, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Nil(t, overlays[0].Update.DueDate)
	assert.True(t, overlays[0].Update.ClearDueDate)

	require.NoError(t, repo.Save(ctx, entity.TaskOverlay{TaskID: "k-1", Update: entity.TaskUpdate{DueDate: &due}}))
	overlays, err = repo.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, overlays[0].Update.DueDate)
	assert.False(t, overlays[0].Update.ClearDueDate)

	require.NoError(t, repo.Delete(ctx, "k-1"))
	overlays, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, overlays)
}

func TestHistoryRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewHistoryRepository(db, zap.NewNop())
	ctx := context.Background()
	at := time.Date(2024, 6, 12, 9, 0, 0, 0, time.UTC)

	changes := []*entity.StatusHistory{
		{TaskID: "k-1", HealthPlan: entity.HealthPlanKaiser, FromStatus: "T2038 Requested", ToStatus: "T2038 received, Need First Contact", WasOverdue: true, ChangedAt: at},
		{TaskID: "k-2", FromStatus: "T2038 Requested", ToStatus: "T2038 received, Need First Contact", WasOverdue: true, ChangedAt: at},
		{TaskID: "k-1", FromStatus: "T2038 received, Need First Contact", ToStatus: "T2038 received, doc collection", ChangedAt: at.Add(time.Hour), Source: entity.HistorySourceAutoAdvance},
	}
	for _, c := range changes {
		require.NoError(t, repo.Record(ctx, c))
		assert.NotZero(t, c.ID)
	}

	history, err := repo.ListByTask(ctx, "k-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, entity.HistorySourceManual, history[0].Source)
	assert.True(t, history[0].WasOverdue)
	assert.Equal(t, entity.HealthPlanKaiser, history[0].HealthPlan)
	assert.Equal(t, entity.HistorySourceAutoAdvance, history[1].Source)

	counts, err := repo.DelayCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"T2038 Requested": 2}, counts)
}

func TestNotificationRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewNotificationRepository(db, zap.NewNop())
	ctx := context.Background()

	n := &entity.Notification{TaskID: "k-1", EventType: "task.status_changed", Recipient: "maria@example.org", Content: "moved"}
	require.NoError(t, repo.Create(ctx, n))
	assert.Equal(t, entity.NotificationPending, n.Status)

	require.NoError(t, repo.MarkSent(ctx, n.ID))
	list, err := repo.ListByTask(ctx, "k-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, entity.NotificationSent, list[0].Status)
	assert.NotNil(t, list[0].SentAt)

	require.NoError(t, repo.UpdateStatus(ctx, n.ID, entity.NotificationFailed, "timeout"))
	list, err = repo.ListByTask(ctx, "k-1")
	require.NoError(t, err)
	assert.Equal(t, "timeout", list[0].ErrorMessage)
}

func TestTransactionRollsBackRepositories(t *testing.T) {
	db := newTestDB(t)
	history := NewHistoryRepository(db, zap.NewNop())
	overlays := NewOverlayRepository(db, zap.NewNop())
	ctx := context.Background()
	boom := errors.New("boom")

	err := db.WithTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, overlays.Save(ctx, entity.TaskOverlay{TaskID: "k-1", Update: entity.TaskUpdate{Notes: strPtr("x")}}))
		require.NoError(t, history.Record(ctx, &entity.StatusHistory{TaskID: "k-1", FromStatus: "A", ToStatus: "B"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	list, err := overlays.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
	h, err := history.ListByTask(ctx, "k-1")
	require.NoError(t, err)
	assert.Empty(t, h)
}
