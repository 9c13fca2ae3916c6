// util/http_util.go
package util

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	echo_errors "github.com/dev-mohitbeniwal/echo-portal/errors"
	logger "github.com/dev-mohitbeniwal/echo-portal/logging"
	"github.com/dev-mohitbeniwal/echo-portal/model"
)

// Gin context keys set by the auth middleware.
const (
	ContextIdentityKey = "identity"
	ContextTokenIDKey  = "tokenID"
	ContextTokenExpKey = "tokenExpiresAt"
)

func RespondWithError(c *gin.Context, code int, message string, err error) {
	fields := []zap.Field{
		zap.Error(err),
		zap.Int("status", code),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
	}
	if code >= http.StatusInternalServerError {
		logger.Error(message, fields...)
	} else {
		logger.Warn(message, fields...)
	}
	c.JSON(code, gin.H{"error": message})
}

// StatusForError maps the error taxonomy onto HTTP status codes.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, echo_errors.ErrInvalidCredentials),
		errors.Is(err, echo_errors.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, echo_errors.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, echo_errors.ErrPolicyNotFound),
		errors.Is(err, echo_errors.ErrUserNotFound),
		errors.Is(err, echo_errors.ErrAuditLogNotFound):
		return http.StatusNotFound
	case errors.Is(err, echo_errors.ErrPolicyConflict),
		errors.Is(err, echo_errors.ErrUserConflict):
		return http.StatusConflict
	case errors.Is(err, echo_errors.ErrInvalidPolicyData),
		errors.Is(err, echo_errors.ErrInvalidUserData),
		errors.Is(err, echo_errors.ErrInvalidTimeRange),
		errors.Is(err, echo_errors.ErrInvalidPagination),
		errors.Is(err, echo_errors.ErrInvalidSearchCriteria),
		errors.Is(err, echo_errors.ErrInvalidAuditLogData):
		return http.StatusBadRequest
	case errors.Is(err, echo_errors.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// HandleError responds with the status for err. Client errors carry the
// error text; server errors carry only message.
func HandleError(c *gin.Context, message string, err error) {
	code := StatusForError(err)
	switch code {
	case http.StatusInternalServerError:
		RespondWithError(c, code, message, err)
	case http.StatusServiceUnavailable:
		RespondWithError(c, code, echo_errors.ErrStorageUnavailable.Error(), err)
	case http.StatusUnauthorized:
		if errors.Is(err, echo_errors.ErrInvalidCredentials) {
			RespondWithError(c, code, echo_errors.ErrInvalidCredentials.Error(), err)
		} else {
			RespondWithError(c, code, echo_errors.ErrUnauthenticated.Error(), err)
		}
	default:
		RespondWithError(c, code, err.Error(), err)
	}
}

func GetIdentityFromContext(c *gin.Context) (model.Identity, bool) {
	v, exists := c.Get(ContextIdentityKey)
	if !exists {
		return model.Identity{}, false
	}
	identity, ok := v.(model.Identity)
	return identity, ok
}
