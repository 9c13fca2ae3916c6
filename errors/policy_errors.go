// errors/policy_errors.go
package errors

import "errors"

var (
	ErrPolicyNotFound        = errors.New("policy not found")
	ErrPolicyConflict        = errors.New("policy with this id already exists")
	ErrInvalidPolicyData     = errors.New("invalid policy data")
	ErrInvalidTimeRange      = errors.New("invalid time range")
	ErrDatabaseOperation     = errors.New("database operation failed")
	ErrStorageUnavailable    = errors.New("storage unavailable")
	ErrInternalServer        = errors.New("internal server error")
	ErrInvalidPagination     = errors.New("invalid pagination parameters")
	ErrInvalidSearchCriteria = errors.New("invalid search criteria")
)
