// audit/model.go
package audit

import (
	"time"
)

// Result values. Access evaluations use allowed/denied, administrative
// mutations use success/failure.
const (
	ResultAllowed = "allowed"
	ResultDenied  = "denied"
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// AuditLog is one immutable audit record. Resource may carry a
// sub-identifier, e.g. employee_salary:42.
type AuditLog struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username,omitempty"`
	Action    string    `json:"action"`
	Resource  string    `json:"resource"`
	Result    string    `json:"result"`
	Reason    string    `json:"reason,omitempty"`
	IPAddress string    `json:"ip_address,omitempty"`
	Purpose   string    `json:"purpose,omitempty"`
}

// Filter narrows queries. Action, Resource and Result match as
// case-insensitive substrings; UserID matches exactly; From and To are
// inclusive.
type Filter struct {
	Action   string
	Resource string
	Result   string
	UserID   *int64
	From     *time.Time
	To       *time.Time
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

type Page struct {
	Logs       []AuditLog `json:"logs"`
	Pagination Pagination `json:"pagination"`
}

type CountEntry struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// Statistics summarises a date range. Success counts success and allowed
// records; Failure counts failure and denied.
type Statistics struct {
	Total       int64        `json:"total"`
	Success     int64        `json:"success"`
	Failure     int64        `json:"failure"`
	SuccessRate float64      `json:"success_rate"`
	ByAction    []CountEntry `json:"by_action"`
	ByUser      []CountEntry `json:"by_user"`
	ByResource  []CountEntry `json:"by_resource"`
}
