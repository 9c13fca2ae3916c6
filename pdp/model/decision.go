package model

// Reasons recorded on denied decisions. The audit trail stores them verbatim.
const (
	ReasonNoPolicies          = "no policies for resource"
	ReasonNoMatchingPolicy    = "no matching policy for role/context"
	ReasonPoliciesUnavailable = "policies unavailable"

	// PublicDenialReason is what callers show end users when no hint applies.
	// It is the same for "no policies" and "role mismatch" so responses do
	// not reveal whether a resource has policies.
	PublicDenialReason = "Access denied. No matching policy found for your role and context."
)

// Decision is the outcome of evaluating every policy for a resource.
type Decision struct {
	Allowed    bool   `json:"allowed"`
	PolicyID   string `json:"policy,omitempty"`
	PolicyName string `json:"policy_name,omitempty"`
	Reason     string `json:"reason,omitempty"`
	// Hint explains a non-sensitive failed condition (purpose, hours, weekday,
	// network) of a policy whose role matched. Empty otherwise.
	Hint string `json:"-"`
}

func Allow(policyID, policyName string) Decision {
	return Decision{
		Allowed:    true,
		PolicyID:   policyID,
		PolicyName: policyName,
		Reason:     "Policy: " + policyName,
	}
}

func Deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// PublicReason is the reason safe to return to the requesting client.
func (d Decision) PublicReason() string {
	if d.Allowed {
		return d.Reason
	}
	if d.Hint != "" {
		return d.Hint
	}
	return PublicDenialReason
}
