package controller_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/dev-mohitbeniwal/echo-portal/controller"
	echo_errors "github.com/dev-mohitbeniwal/echo-portal/errors"
	"github.com/dev-mohitbeniwal/echo-portal/model"
	mock_service "github.com/dev-mohitbeniwal/echo-portal/test/service_mock"
	"github.com/dev-mohitbeniwal/echo-portal/util"
)

var (
	adminIdentity = model.Identity{ID: 1, Username: "alice", Role: model.RoleAdmin}
	hrIdentity    = model.Identity{ID: 2, Username: "bob", Role: model.RoleHR}
)

func init() {
	gin.SetMode(gin.TestMode)
}

// setupRouter returns an engine whose /api group acts as if identity had
// authenticated. A zero identity leaves the request unauthenticated.
func setupRouter(identity model.Identity) (*gin.Engine, *gin.RouterGroup) {
	r := gin.New()
	api := r.Group("/api", func(c *gin.Context) {
		if identity.ID != 0 {
			c.Set(util.ContextIdentityKey, identity)
		}
		c.Next()
	})
	return r, api
}

func doRequest(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

const policyJSON = `{
	"policy_id": "hr-salary",
	"name": "HR salary access",
	"resource": "employee_salary",
	"allow_if": {"role": ["HR"], "time_range": "09:00-17:00", "weekdays_only": true}
}`

func TestPolicyController(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockPolicyService := mock_service.NewMockIPolicyService(ctrl)
	router, api := setupRouter(adminIdentity)
	controller.NewPolicyController(mockPolicyService).RegisterRoutes(api)

	t.Run("CreatePolicy_Success", func(t *testing.T) {
		mockPolicyService.EXPECT().
			CreatePolicy(gomock.Any(), adminIdentity, gomock.Any()).
			DoAndReturn(func(_ any, _ model.Identity, p model.Policy) (*model.Policy, error) {
				assert.Equal(t, "hr-salary", p.PolicyID)
				assert.Equal(t, []string{"HR"}, p.AllowIf.Role)
				assert.True(t, p.AllowIf.WeekdaysOnly)
				return &p, nil
			})

		w := doRequest(router, http.MethodPost, "/api/policies", policyJSON)
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"policy_id":"hr-salary"`)
	})

	t.Run("CreatePolicy_Conflict", func(t *testing.T) {
		mockPolicyService.EXPECT().
			CreatePolicy(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, echo_errors.ErrPolicyConflict)

		w := doRequest(router, http.MethodPost, "/api/policies", policyJSON)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("CreatePolicy_Forbidden", func(t *testing.T) {
		mockPolicyService.EXPECT().
			CreatePolicy(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, echo_errors.ErrForbidden)

		w := doRequest(router, http.MethodPost, "/api/policies", policyJSON)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("CreatePolicy_BadJSON", func(t *testing.T) {
		w := doRequest(router, http.MethodPost, "/api/policies", `{"policy_id":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("BulkCreatePolicies_Success", func(t *testing.T) {
		mockPolicyService.EXPECT().
			BulkCreatePolicies(gomock.Any(), adminIdentity, gomock.Len(2)).
			Return([]*model.Policy{{PolicyID: "a"}, {PolicyID: "b"}}, nil)

		w := doRequest(router, http.MethodPost, "/api/policies/bulk", "["+policyJSON+","+policyJSON+"]")
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("UpdatePolicy_Success", func(t *testing.T) {
		mockPolicyService.EXPECT().
			UpdatePolicy(gomock.Any(), adminIdentity, "hr-salary", gomock.Any()).
			Return(&model.Policy{PolicyID: "hr-salary", Name: "Updated"}, nil)

		w := doRequest(router, http.MethodPut, "/api/policies/hr-salary", policyJSON)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("UpdatePolicy_Failure_NotFound", func(t *testing.T) {
		mockPolicyService.EXPECT().
			UpdatePolicy(gomock.Any(), gomock.Any(), "missing", gomock.Any()).
			Return(nil, echo_errors.ErrPolicyNotFound)

		w := doRequest(router, http.MethodPut, "/api/policies/missing", policyJSON)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("UpdatePolicy_InvalidTimeRange", func(t *testing.T) {
		mockPolicyService.EXPECT().
			UpdatePolicy(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, echo_errors.ErrInvalidPolicyData)

		w := doRequest(router, http.MethodPut, "/api/policies/hr-salary", policyJSON)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("DeletePolicy_Success", func(t *testing.T) {
		mockPolicyService.EXPECT().
			DeletePolicy(gomock.Any(), adminIdentity, "hr-salary").
			Return(nil)

		w := doRequest(router, http.MethodDelete, "/api/policies/hr-salary", "")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("DeletePolicy_Failure_NotFound", func(t *testing.T) {
		mockPolicyService.EXPECT().
			DeletePolicy(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(echo_errors.ErrPolicyNotFound)

		w := doRequest(router, http.MethodDelete, "/api/policies/missing", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("GetPolicy_Success", func(t *testing.T) {
		mockPolicyService.EXPECT().
			GetPolicy(gomock.Any(), adminIdentity, "hr-salary").
			Return(&model.Policy{PolicyID: "hr-salary", Name: "HR salary access"}, nil)

		w := doRequest(router, http.MethodGet, "/api/policies/hr-salary", "")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("ListPolicies_All", func(t *testing.T) {
		mockPolicyService.EXPECT().
			ListPolicies(gomock.Any(), adminIdentity).
			Return(nil, nil)

		w := doRequest(router, http.MethodGet, "/api/policies", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
	})

	t.Run("ListPolicies_ByResource", func(t *testing.T) {
		mockPolicyService.EXPECT().
			ListPoliciesByResource(gomock.Any(), adminIdentity, "employee_salary").
			Return([]*model.Policy{{PolicyID: "a"}, {PolicyID: "b"}}, nil)

		w := doRequest(router, http.MethodGet, "/api/policies?resource=employee_salary", "")
		require.Equal(t, http.StatusOK, w.Code)
		var got []model.Policy
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Len(t, got, 2)
	})

	t.Run("ListPolicies_StorageUnavailable", func(t *testing.T) {
		mockPolicyService.EXPECT().
			ListPolicies(gomock.Any(), gomock.Any()).
			Return(nil, echo_errors.ErrStorageUnavailable)

		w := doRequest(router, http.MethodGet, "/api/policies", "")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestPolicyController_Unauthenticated(t *testing.T) {
	ctrl := gomock.NewController(t)
	router, api := setupRouter(model.Identity{})
	controller.NewPolicyController(mock_service.NewMockIPolicyService(ctrl)).RegisterRoutes(api)

	w := doRequest(router, http.MethodGet, "/api/policies", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
