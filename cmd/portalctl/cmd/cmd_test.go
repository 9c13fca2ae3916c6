package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dev-mohitbeniwal/echo-portal/auth"
	echo_errors "github.com/dev-mohitbeniwal/echo-portal/errors"
	"github.com/dev-mohitbeniwal/echo-portal/model"
	"github.com/dev-mohitbeniwal/echo-portal/pdp/engine"
	pdp_model "github.com/dev-mohitbeniwal/echo-portal/pdp/model"
	echo_mock "github.com/dev-mohitbeniwal/echo-portal/test/mock"
	"github.com/dev-mohitbeniwal/echo-portal/util"
)

func init() {
	color.NoColor = true
}

const samplePolicies = `
policies:
  - policy_id: salary-hr
    name: HR reads salaries
    resource: employee_salary
    sensitivity: high
    allow_if:
      role: [HR]
      time_range: "09:00-18:00"
      weekdays_only: true
  - policy_id: salary-admin
    name: Admin reads salaries
    resource: employee_salary
    allow_if:
      role: [Admin]
      purpose_required: true
  - policy_id: handbook
    name: Everyone reads the handbook
    resource: handbook
    allow_if:
      role: [Admin, HR, Manager, Employee, Intern, Auditor]
`

func TestDecodePolicies(t *testing.T) {
	policies, err := decodePolicies(strings.NewReader(samplePolicies), util.NewValidationUtil())
	require.NoError(t, err)
	require.Len(t, policies, 3)

	assert.Equal(t, "salary-hr", policies[0].PolicyID)
	assert.Equal(t, model.SensitivityHigh, policies[0].Sensitivity)
	assert.Equal(t, []string{"HR"}, policies[0].AllowIf.Role)
	assert.Equal(t, "09:00-18:00", policies[0].AllowIf.TimeRange)
	assert.True(t, policies[0].AllowIf.WeekdaysOnly)
	assert.True(t, policies[1].AllowIf.PurposeRequired)
}

func TestDecodePolicies_Rejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want error
	}{
		{
			name: "empty file",
			yaml: "",
			want: echo_errors.ErrInvalidPolicyData,
		},
		{
			name: "unknown key",
			yaml: "policies:\n  - policy_id: p1\n    name: n\n    resource: r\n    allow_if:\n      role: [HR]\n      on_vpn: true\n",
			want: echo_errors.ErrInvalidPolicyData,
		},
		{
			name: "no roles",
			yaml: "policies:\n  - policy_id: p1\n    name: n\n    resource: r\n    allow_if: {}\n",
			want: echo_errors.ErrInvalidPolicyData,
		},
		{
			name: "range crossing midnight",
			yaml: "policies:\n  - policy_id: p1\n    name: n\n    resource: r\n    allow_if:\n      role: [HR]\n      time_range: \"22:00-06:00\"\n",
			want: echo_errors.ErrInvalidTimeRange,
		},
		{
			name: "repeated id",
			yaml: "policies:\n  - policy_id: p1\n    name: a\n    resource: r\n    allow_if: {role: [HR]}\n  - policy_id: p1\n    name: b\n    resource: r\n    allow_if: {role: [HR]}\n",
			want: echo_errors.ErrPolicyConflict,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodePolicies(strings.NewReader(tt.yaml), util.NewValidationUtil())
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSeedPolicies(t *testing.T) {
	policies, err := decodePolicies(strings.NewReader(samplePolicies), util.NewValidationUtil())
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("skips existing without update", func(t *testing.T) {
		store := new(echo_mock.MockPolicyStore)
		store.On("CreatePolicy", ctx, policies[0]).Return(policies[0], nil)
		store.On("CreatePolicy", ctx, policies[1]).Return(nil, echo_errors.ErrPolicyConflict)
		store.On("CreatePolicy", ctx, policies[2]).Return(policies[2], nil)

		var out bytes.Buffer
		sum, err := seedPolicies(ctx, store, policies, false, &out)
		require.NoError(t, err)
		assert.Equal(t, seedSummary{Created: 2, Skipped: 1}, sum)
		assert.Contains(t, out.String(), "skipped salary-admin (exists)")
		store.AssertNotCalled(t, "UpdatePolicy", mock.Anything, mock.Anything)
	})

	t.Run("updates existing with update", func(t *testing.T) {
		store := new(echo_mock.MockPolicyStore)
		store.On("CreatePolicy", ctx, mock.Anything).Return(nil, echo_errors.ErrPolicyConflict)
		store.On("UpdatePolicy", ctx, mock.Anything).Return(&model.Policy{}, nil)

		sum, err := seedPolicies(ctx, store, policies, true, &bytes.Buffer{})
		require.NoError(t, err)
		assert.Equal(t, seedSummary{Updated: 3}, sum)
	})

	t.Run("stops on store failure", func(t *testing.T) {
		store := new(echo_mock.MockPolicyStore)
		store.On("CreatePolicy", ctx, policies[0]).Return(nil, echo_errors.ErrStorageUnavailable)

		sum, err := seedPolicies(ctx, store, policies, false, &bytes.Buffer{})
		assert.ErrorIs(t, err, echo_errors.ErrStorageUnavailable)
		assert.Equal(t, seedSummary{}, sum)
		store.AssertNumberOfCalls(t, "CreatePolicy", 1)
	})
}

func TestCreateUser(t *testing.T) {
	ctx := context.Background()
	req := model.RegisterRequest{
		Username: " root ",
		Email:    "root@example.com",
		Password: "correct horse",
		Role:     model.RoleAdmin,
	}

	store := new(echo_mock.MockUserStore)
	store.On("CreateUser", ctx, mock.MatchedBy(func(u *model.User) bool {
		return u.Username == "root" && auth.VerifyPassword(u.PasswordHash, "correct horse") == nil
	})).Return(&model.User{ID: 1, Username: "root", Role: model.RoleAdmin}, nil)

	created, err := createUser(ctx, store, util.NewValidationUtil(), req, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	store.AssertExpectations(t)

	req.Role = "Superuser"
	_, err = createUser(ctx, store, util.NewValidationUtil(), req, 4)
	assert.ErrorIs(t, err, echo_errors.ErrInvalidUserData)
}

func TestPasswordArg(t *testing.T) {
	p, err := passwordArg([]string{"from-arg"}, strings.NewReader("ignored\n"))
	require.NoError(t, err)
	assert.Equal(t, "from-arg", p)

	p, err = passwordArg(nil, strings.NewReader("from-stdin\r\nrest"))
	require.NoError(t, err)
	assert.Equal(t, "from-stdin", p)

	_, err = passwordArg(nil, strings.NewReader(""))
	assert.Error(t, err)
}

func TestDryRun(t *testing.T) {
	policies, err := decodePolicies(strings.NewReader(samplePolicies), util.NewValidationUtil())
	require.NoError(t, err)
	office, err := engine.NewOfficeNetwork([]string{"10.0.0.0/8"})
	require.NoError(t, err)
	evaluator := engine.NewPolicyEvaluator(engine.NewStaticRepository(policies), office, time.UTC)
	ctx := context.Background()
	clockReads := 0
	never := func() time.Time { clockReads++; return time.Time{} }

	tests := []struct {
		name    string
		opts    evaluateOptions
		allowed bool
		output  []string
	}{
		{
			name: "HR during office hours",
			opts: evaluateOptions{
				Identity: model.Identity{ID: 7, Role: model.RoleHR},
				Resource: "employee_salary",
				At:       "2024-03-12T10:00:00Z", // Tuesday
			},
			allowed: true,
			output:  []string{"match salary-hr", "skip  salary-admin role: role not permitted", "ALLOW Policy: HR reads salaries"},
		},
		{
			name: "HR on a Saturday",
			opts: evaluateOptions{
				Identity: model.Identity{ID: 7, Role: model.RoleHR},
				Resource: "employee_salary",
				At:       "2024-03-16T10:00:00Z",
			},
			allowed: false,
			output:  []string{"skip  salary-hr weekdays_only: not a weekday", "DENY"},
		},
		{
			name: "unknown resource",
			opts: evaluateOptions{
				Identity: model.Identity{ID: 1, Role: model.RoleAdmin},
				Resource: "payroll",
				At:       "2024-03-12T10:00:00Z",
			},
			allowed: false,
			output:  []string{"DENY " + pdp_model.ReasonNoPolicies},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			decision, err := dryRun(ctx, evaluator, policies, tt.opts, never, &out)
			require.NoError(t, err)
			assert.Equal(t, tt.allowed, decision.Allowed)
			for _, want := range tt.output {
				assert.Contains(t, out.String(), want)
			}
		})
	}

	_, err = dryRun(ctx, evaluator, policies, evaluateOptions{Resource: "handbook", At: "yesterday"}, never, &bytes.Buffer{})
	assert.Error(t, err)
	assert.Zero(t, clockReads, "--at given, clock must not be read")
}

func TestDryRun_DefaultsToClock(t *testing.T) {
	policies, err := decodePolicies(strings.NewReader(samplePolicies), util.NewValidationUtil())
	require.NoError(t, err)
	office, err := engine.NewOfficeNetwork([]string{"127.0.0.1"})
	require.NoError(t, err)
	evaluator := engine.NewPolicyEvaluator(engine.NewStaticRepository(policies), office, time.UTC)

	tuesday := time.Date(2024, 3, 12, 10, 0, 0, 0, time.UTC)
	saturday := time.Date(2024, 3, 16, 10, 0, 0, 0, time.UTC)
	opts := evaluateOptions{Identity: model.Identity{ID: 7, Role: model.RoleHR}, Resource: "employee_salary"}

	decision, err := dryRun(context.Background(), evaluator, policies, opts, func() time.Time { return tuesday }, &bytes.Buffer{})
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	decision, err = dryRun(context.Background(), evaluator, policies, opts, func() time.Time { return saturday }, &bytes.Buffer{})
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
}
