package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/garyjia/calaim-taskhub/internal/application/port"
	"github.com/garyjia/calaim-taskhub/internal/clock"
	"github.com/garyjia/calaim-taskhub/internal/domain/entity"
)

const (
	sheetTasks       = "Tasks"
	sheetGroups      = "Groups"
	sheetAnalytics   = "Analytics"
	sheetSuggestions = "Suggestions"

	reportDateLayout = "2006-01-02"
	reportDir        = "reports"
)

var taskColumns = []interface{}{
	"ID", "Client ID", "Member", "Health Plan", "Pathway", "County", "Status", "Next Status",
	"Assigned To", "Due Date", "Due", "Task Status", "Priority", "Score", "Next Action", "Progress %",
}

// ReportService renders the dashboard as a workbook
type ReportService interface {
	// WriteWorkbook writes the current dashboard as an xlsx workbook
	WriteWorkbook(ctx context.Context, w io.Writer) error

	// Archive saves a timestamped workbook to file storage and returns its path
	Archive(ctx context.Context) (string, error)
}

type reportServiceImpl struct {
	tasks   TaskService
	storage port.FileStorage
	keep    int
	clock   clock.Clock
	logger  Logger
}

// ReportOption configures the report service
type ReportOption func(*reportServiceImpl)

// WithRetention keeps only the newest n archived workbooks; zero keeps all
func WithRetention(n int) ReportOption {
	return func(s *reportServiceImpl) {
		s.keep = n
	}
}

// NewReportService creates a new ReportService. storage may be nil when archiving is not used.
func NewReportService(tasks TaskService, storage port.FileStorage, c clock.Clock, logger Logger, opts ...ReportOption) ReportService {
	s := &reportServiceImpl{
		tasks:   tasks,
		storage: storage,
		clock:   clock.OrReal(c),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *reportServiceImpl) WriteWorkbook(ctx context.Context, w io.Writer) error {
	state := s.tasks.State()
	tasks := s.tasks.Tasks()

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Error("Failed to close workbook", "error", err)
		}
	}()

	if err := f.SetSheetName("Sheet1", sheetTasks); err != nil {
		return fmt.Errorf("failed to name tasks sheet: %w", err)
	}
	for _, name := range []string{sheetGroups, sheetAnalytics, sheetSuggestions} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}

	if err := fillTasks(f, tasks); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := fillGroups(f, state.Groups); err != nil {
		return err
	}
	if err := fillAnalytics(f, state.Analytics, s.clock); err != nil {
		return err
	}
	if err := fillSuggestions(f, state.Suggestions); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		s.logger.Error("Failed to write workbook", "error", err)
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	s.logger.Info("Workbook written",
		"tasks", len(tasks),
		"groups", len(state.Groups),
		"suggestions", len(state.Suggestions))
	return nil
}

func (s *reportServiceImpl) Archive(ctx context.Context) (string, error) {
	if s.storage == nil {
		return "", fmt.Errorf("report storage is not configured")
	}

	var buf bytes.Buffer
	if err := s.WriteWorkbook(ctx, &buf); err != nil {
		return "", err
	}

	path := fmt.Sprintf("%s/tasks-%s.xlsx", reportDir, s.clock.Now().Format("20060102-150405"))
	if err := s.storage.Save(ctx, path, buf.Bytes()); err != nil {
		return "", fmt.Errorf("failed to archive workbook: %w", err)
	}

	fullPath := s.storage.GetFullPath(path)
	s.logger.Info("Workbook archived", "path", fullPath, "size", buf.Len())

	if err := s.prune(ctx); err != nil {
		s.logger.Error("Failed to prune archived workbooks", "error", err)
	}
	return fullPath, nil
}

// prune deletes the oldest archives beyond the retention limit. Archive names sort by time.
func (s *reportServiceImpl) prune(ctx context.Context) error {
	if s.keep <= 0 {
		return nil
	}
	files, err := s.storage.List(ctx, reportDir)
	if err != nil {
		return err
	}
	for len(files) > s.keep {
		if err := s.storage.Delete(ctx, files[0]); err != nil {
			return err
		}
		files = files[1:]
	}
	return nil
}

func fillTasks(f *excelize.File, tasks []entity.Task) error {
	if err := setRow(f, sheetTasks, 1, taskColumns); err != nil {
		return err
	}
	for i := range tasks {
		t := &tasks[i]
		due := ""
		if t.DueDate != nil {
			due = t.DueDate.Format(reportDateLayout)
		}
		row := []interface{}{
			t.ID, t.ClientID, t.MemberName(), string(t.HealthPlan), t.Pathway, t.MemberCounty,
			t.CurrentStatus, t.NextStatus, t.AssignedTo, due, t.DueDescription,
			string(t.TaskStatus), string(t.Priority), t.PriorityScore, t.NextAction, t.WorkflowProgress,
		}
		if err := setRow(f, sheetTasks, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func fillGroups(f *excelize.File, groups []entity.TaskGroup) error {
	if err := setRow(f, sheetGroups, 1, []interface{}{"Group", "Priority", "Tasks", "Task IDs"}); err != nil {
		return err
	}
	for i, g := range groups {
		ids := make([]string, 0, len(g.Tasks))
		for _, t := range g.Tasks {
			ids = append(ids, t.ID)
		}
		row := []interface{}{g.Title, string(g.Priority), len(g.Tasks), strings.Join(ids, ", ")}
		if err := setRow(f, sheetGroups, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func fillAnalytics(f *excelize.File, a entity.Analytics, c clock.Clock) error {
	rows := [][]interface{}{
		{"Generated", c.Now().Format("2006-01-02 15:04")},
		{"Total tasks", a.TotalTasks},
		{"Overdue tasks", a.OverdueTasks},
		{"Completed this week", a.CompletedThisWeek},
		{"Average completion days", a.AverageCompletionDays},
		{},
		{"Bottleneck status", "Tasks"},
	}
	for _, b := range a.BottleneckStatuses {
		rows = append(rows, []interface{}{b.Status, b.Count})
	}

	rows = append(rows, []interface{}{}, []interface{}{"Staff", "Open tasks"})
	for _, staff := range sortedKeys(a.WorkloadByStaff) {
		rows = append(rows, []interface{}{staff, a.WorkloadByStaff[staff]})
	}

	rows = append(rows, []interface{}{}, []interface{}{"Priority", "Tasks"})
	for _, p := range entity.Priorities {
		rows = append(rows, []interface{}{string(p), a.PriorityDistribution[p]})
	}

	plans := make(map[string]int, len(a.HealthPlanDistribution))
	for p, n := range a.HealthPlanDistribution {
		plans[string(p)] = n
	}
	rows = append(rows, []interface{}{}, []interface{}{"Health plan", "Tasks"})
	for _, p := range sortedKeys(plans) {
		rows = append(rows, []interface{}{p, plans[p]})
	}

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		if err := setRow(f, sheetAnalytics, i+1, row); err != nil {
			return err
		}
	}
	return nil
}

func fillSuggestions(f *excelize.File, suggestions []entity.Suggestion) error {
	if err := setRow(f, sheetSuggestions, 1, []interface{}{"Type", "Title", "Description", "Action", "Priority", "Task IDs"}); err != nil {
		return err
	}
	for i, sg := range suggestions {
		row := []interface{}{string(sg.Type), sg.Title, sg.Description, sg.Action, string(sg.Priority), strings.Join(sg.TaskIDs, ", ")}
		if err := setRow(f, sheetSuggestions, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("failed to resolve row %d: %w", row, err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to set %s row %d: %w", sheet, row, err)
	}
	return nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
