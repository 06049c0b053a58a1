package event

// Type identifies the type of domain event
type Type string

const (
	TypeTasksLoaded      Type = "tasks.loaded"
	TypeTasksLoadFailed  Type = "tasks.load_failed"
	TypeTaskUpdated      Type = "task.updated"
	TypeTasksBulkUpdated Type = "tasks.bulk_updated"
	TypeStatusChanged    Type = "task.status_changed"
	TypeRuleTriggered    Type = "task.rule_triggered"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeTasksLoaded,
		TypeTasksLoadFailed,
		TypeTaskUpdated,
		TypeTasksBulkUpdated,
		TypeStatusChanged,
		TypeRuleTriggered:
		return true
	default:
		return false
	}
}
