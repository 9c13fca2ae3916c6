package model

// Condition names one of the five checks inside a policy's allow_if.
type Condition string

const (
	ConditionNone      Condition = ""
	ConditionRole      Condition = "role"
	ConditionTimeRange Condition = "time_range"
	ConditionWeekdays  Condition = "weekdays_only"
	ConditionOfficeIP  Condition = "from_office_ip"
	ConditionPurpose   Condition = "purpose_required"
)

// PolicyEvaluationResult records how a single policy fared.
type PolicyEvaluationResult struct {
	PolicyID string
	Matched  bool
	Failed   Condition
	Reason   string
	// Hint is set when Failed is a condition the requester may be told about.
	Hint string
}
