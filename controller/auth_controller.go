// controller/auth_controller.go
package controller

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	echo_errors "github.com/dev-mohitbeniwal/echo-portal/errors"
	"github.com/dev-mohitbeniwal/echo-portal/model"
	"github.com/dev-mohitbeniwal/echo-portal/service"
	"github.com/dev-mohitbeniwal/echo-portal/util"
	helper_util "github.com/dev-mohitbeniwal/echo-portal/util/helper"
)

type AuthController struct {
	authService service.IAuthService
}

func NewAuthController(authService service.IAuthService) *AuthController {
	return &AuthController{authService: authService}
}

// RegisterRoutes registers login on the public group and everything else on
// the authenticated group.
func (ac *AuthController) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.POST("/auth/login", ac.Login)

	protected.POST("/auth/register", ac.Register)
	protected.POST("/auth/logout", ac.Logout)
	protected.GET("/auth/me", ac.Me)
	protected.GET("/users", ac.ListUsers)
	protected.GET("/users/:id", ac.GetUser)
}

// Login endpoint
func (ac *AuthController) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Username and password are required", err)
		return
	}

	session, err := ac.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		util.HandleError(c, "Login failed", err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// Register endpoint
func (ac *AuthController) Register(c *gin.Context) {
	actor, ok := requireIdentity(c)
	if !ok {
		return
	}
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid user data", fmt.Errorf("%w: %v", echo_errors.ErrInvalidUserData, err))
		return
	}

	user, err := ac.authService.Register(requestContext(c), actor, req)
	if err != nil {
		util.HandleError(c, "Failed to register user", err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// Logout endpoint. The token stays unusable until it would have expired.
func (ac *AuthController) Logout(c *gin.Context) {
	if _, ok := requireIdentity(c); !ok {
		return
	}
	tokenID := c.GetString(util.ContextTokenIDKey)
	expiresAt := c.GetTime(util.ContextTokenExpKey)
	if expiresAt.IsZero() {
		expiresAt = time.Now().Add(24 * time.Hour)
	}

	if err := ac.authService.Logout(c.Request.Context(), tokenID, expiresAt); err != nil {
		util.HandleError(c, "Failed to log out", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Me endpoint
func (ac *AuthController) Me(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, identity)
}

// GetUser endpoint
func (ac *AuthController) GetUser(c *gin.Context) {
	actor, ok := requireIdentity(c)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid user id", echo_errors.ErrInvalidUserData)
		return
	}

	user, err := ac.authService.GetUser(c.Request.Context(), actor, id)
	if err != nil {
		util.HandleError(c, "Failed to retrieve user", err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// ListUsers endpoint
func (ac *AuthController) ListUsers(c *gin.Context) {
	actor, ok := requireIdentity(c)
	if !ok {
		return
	}
	page, limit, err := helper_util.GetPaginationParams(c)
	if err != nil {
		util.HandleError(c, "Invalid pagination parameters", err)
		return
	}

	users, err := ac.authService.ListUsers(c.Request.Context(), actor, limit, (page-1)*limit)
	if err != nil {
		util.HandleError(c, "Failed to list users", err)
		return
	}
	if users == nil {
		users = []*model.User{}
	}

	c.JSON(http.StatusOK, users)
}
