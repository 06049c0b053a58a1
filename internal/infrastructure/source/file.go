package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"

	"go.uber.org/zap"

	"github.com/garyjia/calaim-taskhub/internal/application/port"
	"github.com/garyjia/calaim-taskhub/internal/domain/entity"
)

// ErrUnsupportedLayout is returned when the file is neither an array nor a known object layout
var ErrUnsupportedLayout = errors.New("unsupported case record file layout")

// FileSource reads case records from a JSON export.
//
// Accepted layouts: a bare array of records, {"records": [...]}, or one array per
// source system such as {"kaiser": [...], "healthNet": [...]}. Records from a
// per-system array get that system as their plan when they do not name one.
type FileSource struct {
	path   string
	logger *zap.Logger
}

// NewFileSource creates a source reading path on every fetch
func NewFileSource(path string, logger *zap.Logger) *FileSource {
	return &FileSource{path: path, logger: logger}
}

// planHints maps per-system keys to the plan name they imply
var planHints = map[string]string{
	"kaiser":    "Kaiser",
	"healthNet": "Health Net",
	"healthnet": "Health Net",
	"records":   "",
}

// FetchCaseRecords implements port.CaseRecordSource
func (s *FileSource) FetchCaseRecords(ctx context.Context) ([]entity.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read case records: %w", err)
	}

	records, err := DecodeRecords(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}

	s.logger.Info("Case records read from file",
		zap.String("path", s.path),
		zap.Int("count", len(records)))
	return records, nil
}

// DecodeRecords parses any accepted layout
func DecodeRecords(data []byte) ([]entity.RawRecord, error) {
	var list []entity.RawRecord
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}

	var grouped map[string]json.RawMessage
	if err := json.Unmarshal(data, &grouped); err != nil {
		return nil, fmt.Errorf("failed to decode case records: %w", err)
	}

	records := make([]entity.RawRecord, 0)
	matched := false
	for _, key := range slices.Sorted(maps.Keys(grouped)) {
		raw := grouped[key]
		plan, known := planHints[key]
		if !known {
			continue
		}
		matched = true

		var part []entity.RawRecord
		if err := json.Unmarshal(raw, &part); err != nil {
			return nil, fmt.Errorf("failed to decode %q records: %w", key, err)
		}
		for _, r := range part {
			if plan != "" {
				if _, ok := r.Lookup("healthPlan", "healthPlanName", "plan"); !ok {
					r["healthPlan"] = plan
				}
			}
			records = append(records, r)
		}
	}
	if !matched {
		return nil, ErrUnsupportedLayout
	}
	return records, nil
}

var _ port.CaseRecordSource = (*FileSource)(nil)
