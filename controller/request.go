// controller/request.go
package controller

import (
	"context"

	"github.com/gin-gonic/gin"

	echo_errors "github.com/dev-mohitbeniwal/echo-portal/errors"
	"github.com/dev-mohitbeniwal/echo-portal/model"
	"github.com/dev-mohitbeniwal/echo-portal/service"
	"github.com/dev-mohitbeniwal/echo-portal/util"
)

// requireIdentity returns the authenticated identity or writes a 401.
func requireIdentity(c *gin.Context) (model.Identity, bool) {
	identity, ok := util.GetIdentityFromContext(c)
	if !ok {
		util.HandleError(c, "Authentication required", echo_errors.ErrUnauthenticated)
		return model.Identity{}, false
	}
	return identity, true
}

// requestContext carries the client address down to audit records.
func requestContext(c *gin.Context) context.Context {
	return service.ContextWithClientIP(c.Request.Context(), c.ClientIP())
}
