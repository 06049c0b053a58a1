package http

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/calaim-taskhub/internal/application/processor"
	"github.com/garyjia/calaim-taskhub/internal/application/service"
	"github.com/garyjia/calaim-taskhub/internal/application/taskstate"
	"github.com/garyjia/calaim-taskhub/internal/clock"
	"github.com/garyjia/calaim-taskhub/internal/domain/entity"
	"github.com/garyjia/calaim-taskhub/pkg/utils"
)

const workbookContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handlers contains all HTTP request handlers
type Handlers struct {
	services Services
	clock    clock.Clock
	logger   Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(services Services, c clock.Clock, logger Logger) *Handlers {
	return &Handlers{
		services: services,
		clock:    clock.OrReal(c),
		logger:   logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string      `json:"status"`
	Timestamp  string      `json:"timestamp"`
	Version    string      `json:"version"`
	Tasks      int         `json:"tasks"`
	Loading    bool        `json:"loading"`
	LoadError  string      `json:"load_error,omitempty"`
	Components interface{} `json:"components,omitempty"`
}

// TaskUpdateRequest is the body of PATCH /api/tasks/:id. Dates are YYYY-MM-DD or RFC 3339.
type TaskUpdateRequest struct {
	Status       *string `json:"status" binding:"omitempty,min=1,max=200"`
	DueDate      *string `json:"due_date" binding:"omitempty,min=1"`
	ClearDueDate bool    `json:"clear_due_date"`
	AssignedTo   *string `json:"assigned_to" binding:"omitempty,max=200"`
	Notes        *string `json:"notes" binding:"omitempty,max=10000"`
	WorkflowStep *string `json:"workflow_step" binding:"omitempty,max=200"`

	// Force accepts a status that is not the next workflow step
	Force bool `json:"force"`
}

// BulkUpdateRequest is the body of POST /api/tasks/bulk
type BulkUpdateRequest struct {
	IDs    []string          `json:"ids" binding:"required,min=1,dive,required"`
	Update TaskUpdateRequest `json:"update"`
}

// AdvanceRequest is the optional body of POST /api/tasks/:id/advance
type AdvanceRequest struct {
	Conditions []string `json:"conditions"`
}

// AssignmentRequest is the body of POST /api/tasks/:id/assignment
type AssignmentRequest struct {
	Candidates []string `json:"candidates" binding:"required,min=1,dive,required"`
}

// AutomationSettingsRequest is the body of PUT /api/automation
type AutomationSettingsRequest struct {
	Enabled       *bool `json:"enabled" binding:"required"`
	Notifications *bool `json:"notifications" binding:"required"`
}

// AutomationRunRequest is the optional body of POST /api/automation/run
type AutomationRunRequest struct {
	Satisfied map[string][]string `json:"satisfied"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	state := h.services.Tasks.State()
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: h.clock.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
		Tasks:     len(state.Tasks),
		Loading:   state.Loading,
		LoadError: state.Error,
	}
	if state.Error != "" {
		response.Status = "degraded"
	}
	if h.services.Health != nil {
		response.Components = h.services.Health(c.Request.Context())
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    response,
	})
}

// ListTasks handles GET /api/tasks
func (h *Handlers) ListTasks(c *gin.Context) {
	query, err := parseTaskQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	tasks := h.services.Tasks.Query(query)
	c.JSON(http.StatusOK, Response{Success: true, Data: tasks})
}

// parseTaskQuery reads filters from the query string. Repeated parameters form sets.
func parseTaskQuery(c *gin.Context) (service.TaskQuery, error) {
	var q service.TaskQuery
	f := &q.Filter

	f.Statuses = queryList(c, "status")
	f.Assignees = queryList(c, "assignee")
	f.Counties = queryList(c, "county")
	f.Pathways = queryList(c, "pathway")

	for _, plan := range queryList(c, "plan") {
		f.HealthPlans = append(f.HealthPlans, processor.ClassifyHealthPlan(plan))
	}

	for _, p := range queryList(c, "priority") {
		priority, ok := parsePriority(p)
		if !ok {
			return q, fmt.Errorf("unknown priority %q", p)
		}
		f.Priorities = append(f.Priorities, priority)
	}

	var err error
	if f.DueDaysMin, err = queryInt(c, "min_days"); err != nil {
		return q, err
	}
	if f.DueDaysMax, err = queryInt(c, "max_days"); err != nil {
		return q, err
	}

	q.Term = strings.TrimSpace(c.Query("q"))
	q.UserEmail = strings.TrimSpace(c.Query("user"))
	q.DisplayName = strings.TrimSpace(c.Query("user_name"))
	return q, nil
}

func queryList(c *gin.Context, key string) []string {
	var out []string
	for _, v := range c.QueryArray(key) {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func queryInt(c *gin.Context, key string) (*int, error) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be an integer", key)
	}
	return &n, nil
}

func parsePriority(s string) (entity.Priority, bool) {
	for _, p := range entity.Priorities {
		if strings.EqualFold(string(p), s) {
			return p, true
		}
	}
	return "", false
}

// GetTask handles GET /api/tasks/:id
func (h *Handlers) GetTask(c *gin.Context) {
	task, err := h.services.Tasks.Task(c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: task})
}

// UpdateTask handles PATCH /api/tasks/:id
func (h *Handlers) UpdateTask(c *gin.Context) {
	var req TaskUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body: " + err.Error()})
		return
	}

	update, err := req.toUpdate(h.clock.Now().Location())
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	task, err := h.services.Tasks.UpdateTask(c.Request.Context(), c.Param("id"), update)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: task})
}

// BulkUpdate handles POST /api/tasks/bulk
func (h *Handlers) BulkUpdate(c *gin.Context) {
	var req BulkUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body: " + err.Error()})
		return
	}

	update, err := req.Update.toUpdate(h.clock.Now().Location())
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	n, err := h.services.Tasks.BulkUpdate(c.Request.Context(), req.IDs, update)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"updated": n}})
}

// toUpdate parses due dates in loc, the location ingestion uses
func (r TaskUpdateRequest) toUpdate(loc *time.Location) (entity.TaskUpdate, error) {
	u := entity.TaskUpdate{
		CurrentStatus: trimmed(r.Status),
		ClearDueDate:  r.ClearDueDate,
		AssignedTo:    trimmed(r.AssignedTo),
		Notes:         r.Notes,
		WorkflowStep:  trimmed(r.WorkflowStep),
		OffWorkflow:   r.Force,
	}
	if r.DueDate != nil {
		if r.ClearDueDate {
			return u, errors.New("due_date and clear_due_date are mutually exclusive")
		}
		due, ok := utils.ParseDate(*r.DueDate, loc)
		if !ok {
			return u, fmt.Errorf("invalid due_date %q", *r.DueDate)
		}
		u.DueDate = &due
	}

	if u.CurrentStatus != nil && *u.CurrentStatus == "" {
		return u, errors.New("status must not be blank")
	}
	if u.IsEmpty() {
		return u, errors.New("update changes nothing")
	}
	return u, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(utils.SanitizeString(*s))
	return &v
}

// AdvanceTask handles POST /api/tasks/:id/advance
func (h *Handlers) AdvanceTask(c *gin.Context) {
	var req AdvanceRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body: " + err.Error()})
			return
		}
	}

	result, err := h.services.Tasks.AutoAdvance(c.Request.Context(), c.Param("id"), req.Conditions)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if !result.Success {
		c.JSON(http.StatusConflict, Response{Success: false, Data: result, Error: result.Message})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// TaskRules handles GET /api/tasks/:id/rules
func (h *Handlers) TaskRules(c *gin.Context) {
	rules, err := h.services.Tasks.Rules(c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: rules})
}

// RecommendAssignment handles POST /api/tasks/:id/assignment
func (h *Handlers) RecommendAssignment(c *gin.Context) {
	var req AssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body: " + err.Error()})
		return
	}

	rec, ok, err := h.services.Tasks.RecommendAssignment(c.Param("id"), req.Candidates)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusUnprocessableEntity, Response{Success: false, Error: "no candidate available"})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: rec})
}

// ListGroups handles GET /api/groups. Without "by" it returns the urgency groups.
func (h *Handlers) ListGroups(c *gin.Context) {
	by := c.Query("by")
	if by == "" {
		c.JSON(http.StatusOK, Response{Success: true, Data: h.services.Tasks.State().Groups})
		return
	}

	dimension := processor.Dimension(strings.ToLower(by))
	switch dimension {
	case processor.ByStatus, processor.ByAssignee, processor.ByPlan, processor.ByPriority, processor.ByUrgency:
	default:
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: fmt.Sprintf("unknown grouping %q", by)})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: h.services.Tasks.Group(dimension)})
}

// GetAnalytics handles GET /api/analytics
func (h *Handlers) GetAnalytics(c *gin.Context) {
	c.JSON(http.StatusOK, Response{Success: true, Data: h.services.Tasks.State().Analytics})
}

// ListSuggestions handles GET /api/suggestions
func (h *Handlers) ListSuggestions(c *gin.Context) {
	c.JSON(http.StatusOK, Response{Success: true, Data: h.services.Tasks.State().Suggestions})
}

// GetWorkflow handles GET /api/workflows/:plan
func (h *Handlers) GetWorkflow(c *gin.Context) {
	plan := processor.ClassifyHealthPlan(c.Param("plan"))
	def, ok := h.services.Tasks.Workflow(plan)
	if !ok {
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "no workflow for " + c.Param("plan")})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: def})
}

// Reload handles POST /api/reload
func (h *Handlers) Reload(c *gin.Context) {
	if err := h.services.Tasks.Load(c.Request.Context()); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"tasks": len(h.services.Tasks.State().Tasks)}})
}

// SetAutomation handles PUT /api/automation
func (h *Handlers) SetAutomation(c *gin.Context) {
	var req AutomationSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body: " + err.Error()})
		return
	}

	if err := h.services.Tasks.SetAutomation(c.Request.Context(), *req.Enabled, *req.Notifications); err != nil {
		h.writeError(c, err)
		return
	}
	settings := h.services.Tasks.State().Automation
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{
		"enabled":       settings.Enabled,
		"notifications": settings.Notifications,
	}})
}

// RunAutomation handles POST /api/automation/run
func (h *Handlers) RunAutomation(c *gin.Context) {
	var req AutomationRunRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body: " + err.Error()})
			return
		}
	}

	report, err := h.services.Automation.Run(c.Request.Context(), req.Satisfied)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: report})
}

// ExportWorkbook handles GET /api/reports/tasks.xlsx
func (h *Handlers) ExportWorkbook(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.services.Reports.WriteWorkbook(c.Request.Context(), &buf); err != nil {
		h.writeError(c, err)
		return
	}

	filename := fmt.Sprintf("tasks-%s.xlsx", h.clock.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, workbookContentType, buf.Bytes())
}

// ArchiveWorkbook handles POST /api/reports/archive
func (h *Handlers) ArchiveWorkbook(c *gin.Context) {
	path, err := h.services.Reports.Archive(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"path": path}})
}

// writeError maps service errors to status codes
func (h *Handlers) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, taskstate.ErrTaskNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrSourceUnavailable):
		status = http.StatusBadGateway
	case errors.Is(err, service.ErrAutomationDisabled), errors.Is(err, service.ErrInvalidTransition):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"error", err)
	}
	c.JSON(status, Response{Success: false, Error: err.Error()})
}
