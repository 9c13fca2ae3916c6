// test/mock/stores.go
package mock

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/dev-mohitbeniwal/echo-portal/model"
	pdp_model "github.com/dev-mohitbeniwal/echo-portal/pdp/model"
)

// MockPolicyStore is a mock implementation of service.PolicyStore
type MockPolicyStore struct {
	mock.Mock
}

// CreatePolicy also accepts a func(context.Context, *model.Policy) *model.Policy
// as its first return value, to echo the argument back.
func (m *MockPolicyStore) CreatePolicy(ctx context.Context, policy *model.Policy) (*model.Policy, error) {
	args := m.Called(ctx, policy)
	if fn, ok := args.Get(0).(func(context.Context, *model.Policy) *model.Policy); ok {
		return fn(ctx, policy), args.Error(1)
	}
	p, _ := args.Get(0).(*model.Policy)
	return p, args.Error(1)
}

func (m *MockPolicyStore) UpdatePolicy(ctx context.Context, policy *model.Policy) (*model.Policy, error) {
	args := m.Called(ctx, policy)
	p, _ := args.Get(0).(*model.Policy)
	return p, args.Error(1)
}

func (m *MockPolicyStore) DeletePolicy(ctx context.Context, policyID string) (*model.Policy, error) {
	args := m.Called(ctx, policyID)
	p, _ := args.Get(0).(*model.Policy)
	return p, args.Error(1)
}

func (m *MockPolicyStore) GetPolicy(ctx context.Context, policyID string) (*model.Policy, error) {
	args := m.Called(ctx, policyID)
	p, _ := args.Get(0).(*model.Policy)
	return p, args.Error(1)
}

func (m *MockPolicyStore) ListPolicies(ctx context.Context) ([]*model.Policy, error) {
	args := m.Called(ctx)
	p, _ := args.Get(0).([]*model.Policy)
	return p, args.Error(1)
}

func (m *MockPolicyStore) FindByResource(ctx context.Context, resource string) ([]*model.Policy, error) {
	args := m.Called(ctx, resource)
	p, _ := args.Get(0).([]*model.Policy)
	return p, args.Error(1)
}

// MockUserStore is a mock implementation of service.UserStore
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	args := m.Called(ctx, user)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserStore) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	args := m.Called(ctx, username)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserStore) GetUser(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserStore) ListUsers(ctx context.Context, limit, offset int) ([]*model.User, error) {
	args := m.Called(ctx, limit, offset)
	u, _ := args.Get(0).([]*model.User)
	return u, args.Error(1)
}

// MockRevocationStore is a mock implementation of auth.RevocationStore
type MockRevocationStore struct {
	mock.Mock
}

func (m *MockRevocationStore) Revoke(ctx context.Context, jti string, until time.Time) error {
	return m.Called(ctx, jti, until).Error(0)
}

func (m *MockRevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	args := m.Called(ctx, jti)
	return args.Bool(0), args.Error(1)
}

// MockEvaluator is a mock implementation of service.Evaluator
type MockEvaluator struct {
	mock.Mock
}

func (m *MockEvaluator) EvaluateAccess(ctx context.Context, identity model.Identity, resource string, actx pdp_model.AccessContext, purpose string) pdp_model.Decision {
	args := m.Called(ctx, identity, resource, actx, purpose)
	return args.Get(0).(pdp_model.Decision)
}
