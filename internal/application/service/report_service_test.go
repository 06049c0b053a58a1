package service

import (
	"bytes"
	"context"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/garyjia/calaim-taskhub/internal/clock"
)

type memStorage struct {
	files map[string][]byte
}

func (m *memStorage) Save(ctx context.Context, path string, content []byte) error {
	if m.files == nil {
		m.files = map[string][]byte{}
	}
	m.files[path] = content
	return nil
}

func (m *memStorage) Read(ctx context.Context, path string) ([]byte, error) {
	return m.files[path], nil
}

func (m *memStorage) Exists(ctx context.Context, path string) bool {
	_, ok := m.files[path]
	return ok
}

func (m *memStorage) List(ctx context.Context, dir string) ([]string, error) {
	var out []string
	for path := range m.files {
		if strings.HasPrefix(path, dir+"/") {
			out = append(out, path)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *memStorage) Delete(ctx context.Context, path string) error {
	delete(m.files, path)
	return nil
}

func (m *memStorage) GetFullPath(relativePath string) string {
	return filepath.Join("/data", relativePath)
}

func TestReportService_WriteWorkbook(t *testing.T) {
	f := newFixture(t,
		receivedKaiser(),
		healthNetRecord("h-1", "Scheduling ISP", "2024-06-20"),
	)
	f.load(t)
	reports := NewReportService(f.service, nil, clock.Fixed(testNow), nopLogger{})

	var buf bytes.Buffer
	require.NoError(t, reports.WriteWorkbook(context.Background(), &buf))

	wb, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer wb.Close()

	assert.Equal(t, []string{sheetTasks, sheetGroups, sheetAnalytics, sheetSuggestions}, wb.GetSheetList())

	rows, err := wb.GetRows(sheetTasks)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "ID", rows[0][0])
	assert.Equal(t, "k-1", rows[1][0], "most urgent first")
	assert.Equal(t, "Ana Lopez", rows[1][2])
	assert.Equal(t, "2024-06-07", rows[1][9])

	groups, err := wb.GetRows(sheetGroups)
	require.NoError(t, err)
	assert.Len(t, groups, 6, "header plus five urgency buckets")

	total, err := wb.GetCellValue(sheetAnalytics, "B2")
	require.NoError(t, err)
	assert.Equal(t, "2", total)

	suggestions, err := wb.GetRows(sheetSuggestions)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(suggestions), 2)
}

func TestReportService_Archive(t *testing.T) {
	f := newFixture(t, receivedKaiser())
	f.load(t)

	storage := &memStorage{}
	path, err := NewReportService(f.service, storage, clock.Fixed(testNow), nopLogger{}).Archive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/data/reports/tasks-20240612-143000.xlsx", path)
	assert.NotEmpty(t, storage.files["reports/tasks-20240612-143000.xlsx"])

	_, err = NewReportService(f.service, nil, clock.Fixed(testNow), nopLogger{}).Archive(context.Background())
	assert.Error(t, err)
}

func TestReportService_ArchiveRetention(t *testing.T) {
	f := newFixture(t, receivedKaiser())
	f.load(t)

	storage := &memStorage{}
	for i := 0; i < 4; i++ {
		at := testNow.Add(time.Duration(i) * time.Hour)
		_, err := NewReportService(f.service, storage, clock.Fixed(at), nopLogger{}, WithRetention(2)).Archive(context.Background())
		require.NoError(t, err)
	}

	files, err := storage.List(context.Background(), "reports")
	require.NoError(t, err)
	assert.Equal(t, []string{"reports/tasks-20240612-163000.xlsx", "reports/tasks-20240612-173000.xlsx"}, files)
}
