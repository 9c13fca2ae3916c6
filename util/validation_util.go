// util/validation_util.go

package util

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	echo_errors "github.com/dev-mohitbeniwal/echo-portal/errors"
	"github.com/dev-mohitbeniwal/echo-portal/model"
	"github.com/dev-mohitbeniwal/echo-portal/pdp/engine"
)

const MinPasswordLength = 8

type ValidationUtil struct {
	validate *validator.Validate
}

func NewValidationUtil() *ValidationUtil {
	return &ValidationUtil{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// ValidatePolicy runs the write-time checks: required fields, a non-empty
// role set and a well-formed time_range that does not cross midnight.
func (v *ValidationUtil) ValidatePolicy(policy *model.Policy) error {
	if policy == nil {
		return fmt.Errorf("%w: policy is empty", echo_errors.ErrInvalidPolicyData)
	}
	if err := v.validate.Struct(policy); err != nil {
		return fmt.Errorf("%w: %s", echo_errors.ErrInvalidPolicyData, describe(err))
	}
	if strings.TrimSpace(policy.PolicyID) != policy.PolicyID || strings.ContainsAny(policy.PolicyID, " \t\n") {
		return fmt.Errorf("%w: policy_id must not contain whitespace", echo_errors.ErrInvalidPolicyData)
	}
	for _, role := range policy.AllowIf.Role {
		if strings.TrimSpace(role) != role {
			return fmt.Errorf("%w: role %q has surrounding whitespace", echo_errors.ErrInvalidPolicyData, role)
		}
	}
	if policy.AllowIf.TimeRange != "" {
		tr, err := engine.ParseTimeRange(policy.AllowIf.TimeRange)
		if err != nil {
			return fmt.Errorf("%w: %v", echo_errors.ErrInvalidPolicyData, err)
		}
		if tr.CrossesMidnight() {
			return fmt.Errorf("%w: %w: %s crosses midnight", echo_errors.ErrInvalidPolicyData, echo_errors.ErrInvalidTimeRange, tr)
		}
	}
	return nil
}

// ValidateUser checks a registration before the password is hashed.
func (v *ValidationUtil) ValidateUser(user *model.User, password string) error {
	if user == nil {
		return fmt.Errorf("%w: user is empty", echo_errors.ErrInvalidUserData)
	}
	if err := v.validate.Struct(user); err != nil {
		return fmt.Errorf("%w: %s", echo_errors.ErrInvalidUserData, describe(err))
	}
	if !slices.Contains(model.KnownRoles, user.Role) {
		return fmt.Errorf("%w: unknown role %q", echo_errors.ErrInvalidUserData, user.Role)
	}
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", echo_errors.ErrInvalidUserData, MinPasswordLength)
	}
	return nil
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
