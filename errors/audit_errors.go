package errors

import "errors"

var (
	ErrAuditLogNotFound    = errors.New("audit log not found")
	ErrInvalidAuditLogData = errors.New("invalid audit log data")
)
