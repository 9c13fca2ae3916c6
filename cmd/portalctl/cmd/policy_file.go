package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	echo_errors "github.com/dev-mohitbeniwal/echo-portal/errors"
	"github.com/dev-mohitbeniwal/echo-portal/model"
	"github.com/dev-mohitbeniwal/echo-portal/util"
)

// policyFile is the YAML layout shared by seed-policies and evaluate:
//
//	policies:
//	  - policy_id: salary-hr
//	    name: HR reads salaries
//	    resource: employee_salary
//	    allow_if:
//	      role: [HR]
//	      time_range: "09:00-18:00"
type policyFile struct {
	Policies []*model.Policy `yaml:"policies"`
}

func readPolicyFile(path string) ([]*model.Policy, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	policies, err := decodePolicies(f, util.NewValidationUtil())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return policies, nil
}

// decodePolicies rejects unknown keys, invalid policies and repeated ids.
func decodePolicies(r io.Reader, v *util.ValidationUtil) ([]*model.Policy, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file policyFile
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: file is empty", echo_errors.ErrInvalidPolicyData)
		}
		return nil, fmt.Errorf("%w: %v", echo_errors.ErrInvalidPolicyData, err)
	}

	seen := make(map[string]bool, len(file.Policies))
	for i, p := range file.Policies {
		if err := v.ValidatePolicy(p); err != nil {
			return nil, fmt.Errorf("policy #%d: %w", i+1, err)
		}
		if seen[p.PolicyID] {
			return nil, fmt.Errorf("%w: policy_id %q appears twice", echo_errors.ErrPolicyConflict, p.PolicyID)
		}
		seen[p.PolicyID] = true
	}
	return file.Policies, nil
}
