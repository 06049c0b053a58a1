package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/calaim-taskhub/internal/application/port"
	"github.com/garyjia/calaim-taskhub/internal/domain/entity"
	"github.com/garyjia/calaim-taskhub/internal/infrastructure/persistence/sqlite"
)

// CaseRecordRepository implements port.CaseRecordRepository
type CaseRecordRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewCaseRecordRepository creates a new case record repository
func NewCaseRecordRepository(db *sqlite.DB, logger *zap.Logger) port.CaseRecordRepository {
	return &CaseRecordRepository{db: db, logger: logger}
}

// FetchCaseRecords returns every stored record payload ordered by id
func (r *CaseRecordRepository) FetchCaseRecords(ctx context.Context) ([]entity.RawRecord, error) {
	rows, err := r.db.Executor(ctx).QueryContext(ctx, `SELECT id, payload FROM case_records ORDER BY id`)
	if err != nil {
		r.logger.Error("Failed to query case records", zap.Error(err))
		return nil, fmt.Errorf("failed to query case records: %w", err)
	}
	defer rows.Close()

	records := make([]entity.RawRecord, 0)
	for rows.Next() {
		var id, payload string
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan case record: %w", err)
		}

		var record entity.RawRecord
		if err := json.Unmarshal([]byte(payload), &record); err != nil {
			// one corrupt row must not hide the rest of the caseload
			r.logger.Error("Skipping unreadable case record", zap.String("id", id), zap.Error(err))
			continue
		}
		if _, ok := record.Lookup("id", "applicationId", "caseId"); !ok {
			record["id"] = id
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate case records: %w", err)
	}
	return records, nil
}

// Upsert inserts or replaces records by id
func (r *CaseRecordRepository) Upsert(ctx context.Context, records []entity.CaseRecord) error {
	return r.db.WithTransaction(ctx, func(ctx context.Context) error {
		exec := r.db.Executor(ctx)
		for _, rec := range records {
			if rec.ID == "" {
				return fmt.Errorf("case record without id from source %q", rec.Source)
			}
			payload, err := json.Marshal(rec.Payload)
			if err != nil {
				return fmt.Errorf("failed to encode case record %s: %w", rec.ID, err)
			}
			fetchedAt := rec.FetchedAt
			if fetchedAt.IsZero() {
				fetchedAt = time.Now()
			}

			_, err = exec.ExecContext(ctx, `
				INSERT INTO case_records (id, source, payload, fetched_at)
				VALUES (?, ?, ?, ?)
				ON CONFLICT(id) DO UPDATE SET
					source = excluded.source,
					payload = excluded.payload,
					fetched_at = excluded.fetched_at
			`, rec.ID, rec.Source, string(payload), fetchedAt)
			if err != nil {
				r.logger.Error("Failed to upsert case record", zap.String("id", rec.ID), zap.Error(err))
				return fmt.Errorf("failed to upsert case record %s: %w", rec.ID, err)
			}
		}
		return nil
	})
}

// Count returns the number of stored records
func (r *CaseRecordRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.Executor(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM case_records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count case records: %w", err)
	}
	return n, nil
}

var _ port.CaseRecordRepository = (*CaseRecordRepository)(nil)
