// model/policy.go
package model

import (
	"time"
)

type Sensitivity string

// Sensitivity labels are informational and never affect evaluation.
const (
	SensitivityLow    Sensitivity = "low"
	SensitivityMedium Sensitivity = "medium"
	SensitivityHigh   Sensitivity = "high"
)

// Policy is a named, resource-scoped rule. Any policy on a resource may grant
// access; all of its AllowIf conditions must hold for it to do so.
type Policy struct {
	PolicyID    string      `json:"policy_id" yaml:"policy_id" validate:"required,max=128"`
	Name        string      `json:"name" yaml:"name" validate:"required"`
	Resource    string      `json:"resource" yaml:"resource" validate:"required"`
	Sensitivity Sensitivity `json:"sensitivity,omitempty" yaml:"sensitivity,omitempty" validate:"omitempty,oneof=low medium high"`
	AllowIf     AllowIf     `json:"allow_if" yaml:"allow_if"`
	CreatedAt   time.Time   `json:"created_at,omitempty" yaml:"-"`
	UpdatedAt   time.Time   `json:"updated_at,omitempty" yaml:"-"`
}

// AllowIf holds the conditions of a policy. Zero values mean "not restricted",
// except Role which must name at least one role.
type AllowIf struct {
	Role            []string `json:"role" yaml:"role" validate:"required,min=1,dive,required"`
	TimeRange       string   `json:"time_range,omitempty" yaml:"time_range,omitempty"`
	WeekdaysOnly    bool     `json:"weekdays_only,omitempty" yaml:"weekdays_only,omitempty"`
	FromOfficeIP    bool     `json:"from_office_ip,omitempty" yaml:"from_office_ip,omitempty"`
	PurposeRequired bool     `json:"purpose_required,omitempty" yaml:"purpose_required,omitempty"`
}

// Policy change actions, also used as audit action names.
const (
	ActionCreatePolicy = "create_policy"
	ActionUpdatePolicy = "update_policy"
	ActionDeletePolicy = "delete_policy"
)

// PolicyChange is published on the event bus after a successful mutation.
// Resources lists every resource whose policy set changed.
type PolicyChange struct {
	Action    string
	PolicyID  string
	Name      string
	ActorID   int64
	Resources []string
}
