package model

import (
	"time"

	"github.com/dev-mohitbeniwal/echo-portal/model"
)

// AccessContext is the situational snapshot a policy is evaluated against.
// Both fields are supplied by the caller; the engine never defaults them.
type AccessContext struct {
	Timestamp     time.Time `json:"timestamp"`
	SourceAddress string    `json:"source_address"`
}

// AccessRequest is what a caller hands to the access service: the engine
// inputs plus the bookkeeping needed for the audit record.
type AccessRequest struct {
	Identity model.Identity `json:"identity"`
	Resource string         `json:"resource"`
	// TargetID narrows the audited resource, e.g. "employee_salary:42".
	// It does not take part in evaluation.
	TargetID string        `json:"target_id,omitempty"`
	Action   string        `json:"action,omitempty"`
	Context  AccessContext `json:"context"`
	Purpose  string        `json:"purpose,omitempty"`
}

// AuditResource is the resource string written to the audit trail.
func (r AccessRequest) AuditResource() string {
	if r.TargetID == "" {
		return r.Resource
	}
	return r.Resource + ":" + r.TargetID
}

// AuditAction defaults to view_<resource>.
func (r AccessRequest) AuditAction() string {
	if r.Action != "" {
		return r.Action
	}
	return "view_" + r.Resource
}
