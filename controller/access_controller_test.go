package controller_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/dev-mohitbeniwal/echo-portal/controller"
	pdp_model "github.com/dev-mohitbeniwal/echo-portal/pdp/model"
	mock_service "github.com/dev-mohitbeniwal/echo-portal/test/service_mock"
)

func TestAccessController(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockAccessService := mock_service.NewMockIAccessService(ctrl)
	router, api := setupRouter(hrIdentity)
	controller.NewAccessController(mockAccessService).RegisterRoutes(api)

	t.Run("Evaluate_Allowed", func(t *testing.T) {
		mockAccessService.EXPECT().
			EvaluateAccess(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ any, req pdp_model.AccessRequest) pdp_model.Decision {
				assert.Equal(t, hrIdentity, req.Identity)
				assert.Equal(t, "employee_salary", req.Resource)
				assert.Equal(t, "42", req.TargetID)
				assert.False(t, req.Context.Timestamp.IsZero(), "server supplies the evaluation time")
				assert.NotEmpty(t, req.Context.SourceAddress)
				return pdp_model.Allow("hr-salary", "HR salary access")
			})

		w := doRequest(router, http.MethodPost, "/api/access/evaluate",
			`{"resource":"employee_salary","target_id":"42","purpose":"Quarterly compensation review"}`)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"allowed":true,"policy":"HR salary access","policy_id":"hr-salary","reason":"Policy: HR salary access"}`, w.Body.String())
	})

	t.Run("Evaluate_DeniedHidesExactReason", func(t *testing.T) {
		mockAccessService.EXPECT().
			EvaluateAccess(gomock.Any(), gomock.Any()).
			Return(pdp_model.Deny(pdp_model.ReasonNoPolicies))

		w := doRequest(router, http.MethodGet, "/api/access/employee_ssn", "")
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), pdp_model.PublicDenialReason)
		assert.NotContains(t, w.Body.String(), pdp_model.ReasonNoPolicies)
	})

	t.Run("Evaluate_DeniedWithHint", func(t *testing.T) {
		decision := pdp_model.Deny(pdp_model.ReasonNoMatchingPolicy)
		decision.Hint = "purpose too short"
		mockAccessService.EXPECT().
			EvaluateAccess(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ any, req pdp_model.AccessRequest) pdp_model.Decision {
				assert.Equal(t, "audit", req.Purpose)
				assert.Equal(t, "7", req.TargetID)
				return decision
			})

		w := doRequest(router, http.MethodGet, "/api/access/employee_salary/7?purpose=audit", "")
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "purpose too short")
	})

	t.Run("Evaluate_MissingResource", func(t *testing.T) {
		w := doRequest(router, http.MethodPost, "/api/access/evaluate", `{"purpose":"x"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
