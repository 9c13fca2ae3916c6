// controller/access_controller.go
package controller

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	echo_errors "github.com/dev-mohitbeniwal/echo-portal/errors"
	pdp_model "github.com/dev-mohitbeniwal/echo-portal/pdp/model"
	"github.com/dev-mohitbeniwal/echo-portal/service"
	"github.com/dev-mohitbeniwal/echo-portal/util"
)

type evaluateRequest struct {
	Resource string `json:"resource" binding:"required"`
	TargetID string `json:"target_id"`
	Action   string `json:"action"`
	Purpose  string `json:"purpose"`
}

type AccessController struct {
	accessService service.IAccessService
	now           func() time.Time
}

func NewAccessController(accessService service.IAccessService) *AccessController {
	return &AccessController{accessService: accessService, now: time.Now}
}

func (ac *AccessController) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/access/evaluate", ac.Evaluate)
	r.GET("/access/:resource", ac.EvaluateResource)
	r.GET("/access/:resource/:targetID", ac.EvaluateResource)
}

// Evaluate endpoint. The evaluation time and source address come from the
// server, never from the request body.
func (ac *AccessController) Evaluate(c *gin.Context) {
	var req evaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Resource is required", fmt.Errorf("%w: %v", echo_errors.ErrInvalidSearchCriteria, err))
		return
	}
	ac.evaluate(c, req)
}

// EvaluateResource is the GET form; the purpose travels in the
// X-Access-Purpose header or ?purpose=.
func (ac *AccessController) EvaluateResource(c *gin.Context) {
	purpose := c.GetHeader("X-Access-Purpose")
	if purpose == "" {
		purpose = c.Query("purpose")
	}
	ac.evaluate(c, evaluateRequest{
		Resource: c.Param("resource"),
		TargetID: c.Param("targetID"),
		Action:   c.Query("action"),
		Purpose:  purpose,
	})
}

func (ac *AccessController) evaluate(c *gin.Context, req evaluateRequest) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	decision := ac.accessService.EvaluateAccess(c.Request.Context(), pdp_model.AccessRequest{
		Identity: identity,
		Resource: strings.TrimSpace(req.Resource),
		TargetID: strings.TrimSpace(req.TargetID),
		Action:   strings.TrimSpace(req.Action),
		Purpose:  req.Purpose,
		Context: pdp_model.AccessContext{
			Timestamp:     ac.now(),
			SourceAddress: c.ClientIP(),
		},
	})

	if !decision.Allowed {
		c.JSON(http.StatusForbidden, gin.H{
			"allowed": false,
			"error":   decision.PublicReason(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"allowed":   true,
		"policy":    decision.PolicyName,
		"policy_id": decision.PolicyID,
		"reason":    decision.Reason,
	})
}
