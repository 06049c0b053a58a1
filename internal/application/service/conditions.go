package service

import (
	"strings"

	"github.com/garyjia/calaim-taskhub/internal/domain/entity"
	domainwf "github.com/garyjia/calaim-taskhub/internal/domain/workflow"
)

// Auto-advance condition names satisfied by plan extension fields
const (
	ConditionT2038Received         = "t2038_received"
	ConditionRNVisitCompleted      = "rn_visit_completed"
	ConditionTierLevelReceived     = "tier_level_received"
	ConditionRBSigned              = "rb_signed"
	ConditionILSContractConfirmed  = "ils_contract_confirmed"
	ConditionISPDateConfirmed      = "isp_date_confirmed"
	ConditionISPSubmitted          = "isp_submitted"
	ConditionAuthorizationReceived = "authorization_received"
)

// DeriveConditions reads the auto-advance conditions a task's sub-statuses already satisfy
func DeriveConditions(task *entity.Task) domainwf.ConditionSet {
	set := domainwf.ConditionSet{}
	if k, ok := task.Kaiser(); ok {
		if has(k.T2038Status, "received") {
			set[ConditionT2038Received] = struct{}{}
		}
		if has(k.RNVisitStatus, "complete") && !has(k.RNVisitStatus, "incomplete") {
			set[ConditionRNVisitCompleted] = struct{}{}
		}
		if strings.TrimSpace(k.TierLevel) != "" {
			set[ConditionTierLevelReceived] = struct{}{}
		}
		if has(k.RCFEStatus, "r&b signed") || has(k.RCFEStatus, "signed") {
			set[ConditionRBSigned] = struct{}{}
		}
		if has(k.ILSStatus, "contracted") || has(k.ILSStatus, "confirmed") {
			set[ConditionILSContractConfirmed] = struct{}{}
		}
	}
	if h, ok := task.HealthNet(); ok {
		if has(h.ISPStatus, "scheduled") || has(h.ISPStatus, "confirmed") {
			set[ConditionISPDateConfirmed] = struct{}{}
		}
		if has(h.ISPStatus, "submitted") {
			set[ConditionISPDateConfirmed] = struct{}{}
			set[ConditionISPSubmitted] = struct{}{}
		}
		if strings.TrimSpace(h.AuthorizationNumber) != "" || has(h.AuthorizationStatus, "approved") {
			set[ConditionAuthorizationReceived] = struct{}{}
		}
	}
	return set
}

// DeriveAllConditions maps task id to its derived conditions, omitting empty sets
func DeriveAllConditions(tasks []entity.Task) map[string]domainwf.ConditionSet {
	out := make(map[string]domainwf.ConditionSet)
	for i := range tasks {
		if set := DeriveConditions(&tasks[i]); len(set) > 0 {
			out[tasks[i].ID] = set
		}
	}
	return out
}

func has(value, word string) bool {
	return strings.Contains(strings.ToLower(value), word)
}
