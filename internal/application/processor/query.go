package processor

import (
	"slices"
	"strings"

	"github.com/garyjia/calaim-taskhub/internal/application/prioritizer"
	"github.com/garyjia/calaim-taskhub/internal/domain/entity"
)

func (p *processorImpl) FilterTasks(tasks []entity.Task, filter entity.TaskFilter) []entity.Task {
	out := make([]entity.Task, 0, len(tasks))
	for i := range tasks {
		if matchesFilter(&tasks[i], filter) {
			out = append(out, tasks[i])
		}
	}
	return out
}

func matchesFilter(t *entity.Task, f entity.TaskFilter) bool {
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, t.CurrentStatus) {
		return false
	}
	if len(f.Assignees) > 0 && !slices.Contains(f.Assignees, t.AssignedTo) {
		return false
	}
	if len(f.HealthPlans) > 0 && !slices.Contains(f.HealthPlans, t.HealthPlan) {
		return false
	}
	if len(f.Priorities) > 0 && !slices.Contains(f.Priorities, t.Priority) {
		return false
	}
	if len(f.Counties) > 0 && !slices.Contains(f.Counties, t.MemberCounty) {
		return false
	}
	if len(f.Pathways) > 0 && !slices.Contains(f.Pathways, t.Pathway) {
		return false
	}
	if f.DueDaysMin != nil && (!t.HasDueDate || t.DaysUntilDue < *f.DueDaysMin) {
		return false
	}
	if f.DueDaysMax != nil && (!t.HasDueDate || t.DaysUntilDue > *f.DueDaysMax) {
		return false
	}
	return true
}

func (p *processorImpl) GetTasksForUser(tasks []entity.Task, email, displayName string) []entity.Task {
	names := make([]string, 0, 3)
	if email = strings.TrimSpace(email); email != "" {
		names = append(names, email)
		if at := strings.IndexByte(email, '@'); at > 0 {
			names = append(names, email[:at])
		}
	}
	if displayName = strings.TrimSpace(displayName); displayName != "" {
		names = append(names, displayName)
	}

	out := make([]entity.Task, 0)
	if len(names) == 0 {
		return out
	}
	for _, t := range tasks {
		assignee := strings.TrimSpace(t.AssignedTo)
		if assignee == "" {
			continue
		}
		for _, name := range names {
			if strings.EqualFold(assignee, name) {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

func (p *processorImpl) GroupTasks(tasks []entity.Task, dimension Dimension) map[string][]entity.Task {
	groups := make(map[string][]entity.Task)
	for i := range tasks {
		key := groupKey(&tasks[i], dimension)
		groups[key] = append(groups[key], tasks[i])
	}
	return groups
}

func groupKey(t *entity.Task, dimension Dimension) string {
	switch dimension {
	case ByAssignee:
		if strings.TrimSpace(t.AssignedTo) == "" {
			return entity.UnassignedKey
		}
		return t.AssignedTo
	case ByPlan:
		return string(t.HealthPlan)
	case ByPriority:
		return string(t.Priority)
	case ByUrgency:
		return string(prioritizer.UrgencyBucket(t))
	default:
		return t.CurrentStatus
	}
}

func (p *processorImpl) SearchTasks(tasks []entity.Task, term string) []entity.Task {
	needle := folder.String(strings.TrimSpace(term))
	if needle == "" {
		return append([]entity.Task(nil), tasks...)
	}

	out := make([]entity.Task, 0)
	for _, t := range tasks {
		haystack := []string{t.MemberFirstName, t.MemberLastName, t.MemberName(), t.MemberMRN, t.ClientID}
		for _, field := range haystack {
			if field != "" && strings.Contains(folder.String(field), needle) {
				out = append(out, t)
				break
			}
		}
	}
	return out
}
