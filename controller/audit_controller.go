// controller/audit_controller.go
package controller

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dev-mohitbeniwal/echo-portal/audit"
	echo_errors "github.com/dev-mohitbeniwal/echo-portal/errors"
	"github.com/dev-mohitbeniwal/echo-portal/middleware"
	"github.com/dev-mohitbeniwal/echo-portal/model"
	"github.com/dev-mohitbeniwal/echo-portal/util"
	helper_util "github.com/dev-mohitbeniwal/echo-portal/util/helper"
)

type AuditController struct {
	auditService audit.Service
}

func NewAuditController(auditService audit.Service) *AuditController {
	return &AuditController{auditService: auditService}
}

// RegisterRoutes registers the audit trail routes on an authenticated group.
// Admin and HR may browse; only Admin may export or see statistics.
func (ac *AuditController) RegisterRoutes(r *gin.RouterGroup) {
	logs := r.Group("/audit-logs")
	{
		logs.GET("", middleware.RequireRoles(model.RoleAdmin, model.RoleHR), ac.QueryLogs)
		logs.GET("/export", middleware.RequireRoles(model.RoleAdmin), ac.ExportLogs)
		logs.GET("/stats", middleware.RequireRoles(model.RoleAdmin), ac.Statistics)
		logs.GET("/:id", middleware.RequireRoles(model.RoleAdmin, model.RoleHR), ac.GetLog)
	}
}

// QueryLogs endpoint
func (ac *AuditController) QueryLogs(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		util.HandleError(c, "Invalid search criteria", err)
		return
	}
	page, limit, err := helper_util.GetPaginationParams(c)
	if err != nil {
		util.HandleError(c, "Invalid pagination parameters", err)
		return
	}

	result, err := ac.auditService.Query(c.Request.Context(), filter, page, limit)
	if err != nil {
		util.HandleError(c, "Failed to fetch audit logs", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ExportLogs endpoint: every match as a JSON attachment, no paging.
func (ac *AuditController) ExportLogs(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		util.HandleError(c, "Invalid search criteria", err)
		return
	}

	logs, err := ac.auditService.Export(c.Request.Context(), filter)
	if err != nil {
		util.HandleError(c, "Failed to export audit logs", err)
		return
	}

	filename := fmt.Sprintf("audit-logs-%s.json", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.JSON(http.StatusOK, logs)
}

// Statistics endpoint
func (ac *AuditController) Statistics(c *gin.Context) {
	from, err := helper_util.ParseDateBound(c.Query("dateFrom"), false)
	if err != nil {
		util.HandleError(c, "Invalid dateFrom", err)
		return
	}
	to, err := helper_util.ParseDateBound(c.Query("dateTo"), true)
	if err != nil {
		util.HandleError(c, "Invalid dateTo", err)
		return
	}

	stats, err := ac.auditService.Statistics(c.Request.Context(), from, to)
	if err != nil {
		util.HandleError(c, "Failed to fetch audit statistics", err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetLog endpoint
func (ac *AuditController) GetLog(c *gin.Context) {
	log, err := ac.auditService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		util.HandleError(c, "Failed to fetch audit log", err)
		return
	}
	c.JSON(http.StatusOK, log)
}

// parseFilter reads action, resource, result, userId, dateFrom and dateTo.
func parseFilter(c *gin.Context) (audit.Filter, error) {
	filter := audit.Filter{
		Action:   strings.TrimSpace(c.Query("action")),
		Resource: strings.TrimSpace(c.Query("resource")),
		Result:   strings.TrimSpace(c.Query("result")),
	}
	if raw := strings.TrimSpace(c.Query("userId")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filter, fmt.Errorf("%w: userId must be numeric", echo_errors.ErrInvalidSearchCriteria)
		}
		filter.UserID = &id
	}

	var err error
	if filter.From, err = helper_util.ParseDateBound(c.Query("dateFrom"), false); err != nil {
		return filter, err
	}
	if filter.To, err = helper_util.ParseDateBound(c.Query("dateTo"), true); err != nil {
		return filter, err
	}
	return filter, nil
}
