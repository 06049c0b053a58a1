package processor

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"

	"github.com/garyjia/calaim-taskhub/internal/domain/entity"
	"github.com/garyjia/calaim-taskhub/pkg/utils"
)

const invalidDateDescription = "Invalid date"

// Source field names, first non-empty wins
var (
	fieldID          = []string{"id", "applicationId", "caseId"}
	fieldClientID    = []string{"clientId", "client_ID2", "memberId"}
	fieldFirstName   = []string{"memberFirstName", "firstName"}
	fieldLastName    = []string{"memberLastName", "lastName"}
	fieldMRN         = []string{"memberMrn", "mrn", "medicalRecordNumber"}
	fieldCounty      = []string{"memberCounty", "county"}
	fieldPlan        = []string{"healthPlan", "healthPlanName", "plan"}
	fieldPathway     = []string{"pathway", "pathwayType"}
	fieldKaiserState = []string{"kaiserStatus", "Kaiser_Status", "status"}
	fieldHNState     = []string{"healthNetStatus", "status"}
	fieldOtherState  = []string{"status", "kaiserStatus", "healthNetStatus"}
	fieldDueDate     = []string{"nextStepsDate", "next_steps_date", "dueDate"}
	fieldLastUpdated = []string{"lastUpdated", "updatedAt"}
	fieldCreated     = []string{"createdDate", "createdAt", "submittedAt"}
	fieldAssignee    = []string{"assignedStaff", "kaiser_user_assignment", "assignedTo"}
	fieldNotes       = []string{"notes", "workflowNotes"}
	fieldStep        = []string{"workflowStep"}
)

// recordNamespace scopes ids derived from record contents
var recordNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("calaim-taskhub/case-record"))

var folder = cases.Fold()

// ClassifyHealthPlan maps a free-text plan name onto a health plan
func ClassifyHealthPlan(name string) entity.HealthPlan {
	folded := folder.String(name)
	switch {
	case strings.Contains(folded, "kaiser"):
		return entity.HealthPlanKaiser
	case strings.Contains(folded, "health net"), strings.Contains(folded, "healthnet"):
		return entity.HealthPlanHealthNet
	default:
		return entity.HealthPlanOther
	}
}

// fromRecord maps the stored fields of a task; derived fields are left to derive
func (p *processorImpl) fromRecord(r entity.RawRecord, now time.Time) entity.Task {
	loc := now.Location()
	plan := ClassifyHealthPlan(r.String(fieldPlan...))

	task := entity.Task{
		ID:              r.String(fieldID...),
		ClientID:        r.String(fieldClientID...),
		MemberFirstName: r.String(fieldFirstName...),
		MemberLastName:  r.String(fieldLastName...),
		MemberMRN:       r.String(fieldMRN...),
		MemberCounty:    r.String(fieldCounty...),
		HealthPlan:      plan,
		Pathway:         r.String(fieldPathway...),
		WorkflowStep:    r.String(fieldStep...),
		AssignedTo:      r.String(fieldAssignee...),
		Notes:           r.String(fieldNotes...),
	}
	if task.ID == "" {
		task.ID = derivedID(r)
	}

	switch plan {
	case entity.HealthPlanKaiser:
		task.CurrentStatus = r.String(fieldKaiserState...)
		task.Details = &entity.KaiserDetails{
			T2038Status:   r.String("t2038Status"),
			RNVisitStatus: r.String("rnVisitStatus"),
			TierLevel:     r.String("tierLevel"),
			RCFEStatus:    r.String("rcfeStatus"),
			ILSStatus:     r.String("ilsStatus"),
		}
	case entity.HealthPlanHealthNet:
		task.CurrentStatus = r.String(fieldHNState...)
		task.Details = &entity.HealthNetDetails{
			ISPStatus:           r.String("ispStatus"),
			AuthorizationStatus: r.String("authorizationStatus"),
			AuthorizationNumber: r.String("authorizationNumber"),
		}
	default:
		task.CurrentStatus = r.String(fieldOtherState...)
	}

	if raw, ok := r.Lookup(fieldDueDate...); ok {
		if due, ok := ParseTimestamp(raw, loc); ok {
			task.DueDate = &due
		} else {
			task.DueDescription = invalidDateDescription
		}
	}
	if raw, ok := r.Lookup(fieldLastUpdated...); ok {
		task.LastUpdated, _ = ParseTimestamp(raw, loc)
	}
	if raw, ok := r.Lookup(fieldCreated...); ok {
		task.CreatedDate, _ = ParseTimestamp(raw, loc)
	}

	return task
}

// derivedID builds a stable id from the record contents for sources without one
func derivedID(r entity.RawRecord) string {
	// map keys marshal sorted, so equal records give equal ids
	data, err := json.Marshal(r)
	if err != nil {
		return uuid.NewSHA1(recordNamespace, []byte(r.String(fieldClientID...))).String()
	}
	return uuid.NewSHA1(recordNamespace, data).String()
}

// ParseTimestamp accepts date strings, epoch milliseconds, {"seconds": n} objects and time values
func ParseTimestamp(v interface{}, loc *time.Location) (time.Time, bool) {
	switch val := v.(type) {
	case time.Time:
		return val, !val.IsZero()
	case *time.Time:
		if val == nil {
			return time.Time{}, false
		}
		return *val, !val.IsZero()
	case string:
		return utils.ParseDate(val, loc)
	case map[string]interface{}:
		secs, ok := val["seconds"]
		if !ok {
			secs, ok = val["_seconds"]
		}
		if !ok {
			return time.Time{}, false
		}
		n, ok := numeric(secs)
		if !ok {
			return time.Time{}, false
		}
		return fromMillis(n*1000, loc)
	default:
		n, ok := numeric(val)
		if !ok {
			return time.Time{}, false
		}
		return fromMillis(n, loc)
	}
}

func numeric(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func fromMillis(ms float64, loc *time.Location) (time.Time, bool) {
	if ms <= 0 || math.IsNaN(ms) || math.IsInf(ms, 0) {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(ms)).In(loc), true
}
