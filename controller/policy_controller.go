// controller/policy_controller.go
package controller

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	echo_errors "github.com/dev-mohitbeniwal/echo-portal/errors"
	"github.com/dev-mohitbeniwal/echo-portal/model"
	"github.com/dev-mohitbeniwal/echo-portal/service"
	"github.com/dev-mohitbeniwal/echo-portal/util"
)

type PolicyController struct {
	policyService service.IPolicyService
}

func NewPolicyController(policyService service.IPolicyService) *PolicyController {
	return &PolicyController{
		policyService: policyService,
	}
}

// RegisterRoutes registers the policy routes on an authenticated group.
func (pc *PolicyController) RegisterRoutes(r *gin.RouterGroup) {
	policies := r.Group("/policies")
	{
		policies.POST("", pc.CreatePolicy)
		policies.POST("/bulk", pc.BulkCreatePolicies)
		policies.PUT("/:id", pc.UpdatePolicy)
		policies.DELETE("/:id", pc.DeletePolicy)
		policies.GET("/:id", pc.GetPolicy)
		policies.GET("", pc.ListPolicies)
	}
}

// CreatePolicy endpoint
func (pc *PolicyController) CreatePolicy(c *gin.Context) {
	actor, ok := requireIdentity(c)
	if !ok {
		return
	}
	var policy model.Policy
	if err := c.ShouldBindJSON(&policy); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid policy data", fmt.Errorf("%w: %v", echo_errors.ErrInvalidPolicyData, err))
		return
	}

	createdPolicy, err := pc.policyService.CreatePolicy(requestContext(c), actor, policy)
	if err != nil {
		util.HandleError(c, "Failed to create policy", err)
		return
	}

	c.JSON(http.StatusCreated, createdPolicy)
}

// BulkCreatePolicies endpoint
func (pc *PolicyController) BulkCreatePolicies(c *gin.Context) {
	actor, ok := requireIdentity(c)
	if !ok {
		return
	}
	var policies []model.Policy
	if err := c.ShouldBindJSON(&policies); err != nil || len(policies) == 0 {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid policy data", echo_errors.ErrInvalidPolicyData)
		return
	}

	created, err := pc.policyService.BulkCreatePolicies(requestContext(c), actor, policies)
	if err != nil {
		util.HandleError(c, "Failed to create policies", err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// UpdatePolicy endpoint
func (pc *PolicyController) UpdatePolicy(c *gin.Context) {
	actor, ok := requireIdentity(c)
	if !ok {
		return
	}
	var policy model.Policy
	if err := c.ShouldBindJSON(&policy); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid policy data", fmt.Errorf("%w: %v", echo_errors.ErrInvalidPolicyData, err))
		return
	}

	updatedPolicy, err := pc.policyService.UpdatePolicy(requestContext(c), actor, c.Param("id"), policy)
	if err != nil {
		util.HandleError(c, "Failed to update policy", err)
		return
	}

	c.JSON(http.StatusOK, updatedPolicy)
}

// DeletePolicy endpoint
func (pc *PolicyController) DeletePolicy(c *gin.Context) {
	actor, ok := requireIdentity(c)
	if !ok {
		return
	}

	if err := pc.policyService.DeletePolicy(requestContext(c), actor, c.Param("id")); err != nil {
		util.HandleError(c, "Failed to delete policy", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Policy deleted successfully"})
}

// GetPolicy endpoint
func (pc *PolicyController) GetPolicy(c *gin.Context) {
	actor, ok := requireIdentity(c)
	if !ok {
		return
	}

	policy, err := pc.policyService.GetPolicy(requestContext(c), actor, c.Param("id"))
	if err != nil {
		util.HandleError(c, "Failed to retrieve policy", err)
		return
	}

	c.JSON(http.StatusOK, policy)
}

// ListPolicies endpoint. ?resource= narrows the list to one resource.
func (pc *PolicyController) ListPolicies(c *gin.Context) {
	actor, ok := requireIdentity(c)
	if !ok {
		return
	}

	var (
		policies []*model.Policy
		err      error
	)
	if resource := strings.TrimSpace(c.Query("resource")); resource != "" {
		policies, err = pc.policyService.ListPoliciesByResource(requestContext(c), actor, resource)
	} else {
		policies, err = pc.policyService.ListPolicies(requestContext(c), actor)
	}
	if err != nil {
		util.HandleError(c, "Failed to list policies", err)
		return
	}
	if policies == nil {
		policies = []*model.Policy{}
	}

	c.JSON(http.StatusOK, policies)
}
