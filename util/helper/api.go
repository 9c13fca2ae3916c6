package helper_util

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	echo_errors "github.com/dev-mohitbeniwal/echo-portal/errors"
)

const (
	DefaultPage  = 1
	DefaultLimit = 100
	MaxLimit     = 1000
)

// GetPaginationParams reads page and limit, 1-based, defaulting to 1 and 100.
func GetPaginationParams(c *gin.Context) (page int, limit int, err error) {
	page, err = strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(DefaultPage)))
	if err != nil || page < 1 {
		return 0, 0, fmt.Errorf("%w: page must be a positive integer", echo_errors.ErrInvalidPagination)
	}
	limit, err = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(DefaultLimit)))
	if err != nil || limit < 1 || limit > MaxLimit {
		return 0, 0, fmt.Errorf("%w: limit must be between 1 and %d", echo_errors.ErrInvalidPagination, MaxLimit)
	}
	return page, limit, nil
}
