// service/auth_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dev-mohitbeniwal/echo-portal/auth"
	echo_errors "github.com/dev-mohitbeniwal/echo-portal/errors"
	logger "github.com/dev-mohitbeniwal/echo-portal/logging"
	"github.com/dev-mohitbeniwal/echo-portal/model"
	"github.com/dev-mohitbeniwal/echo-portal/util"
)

// UserStore is implemented by dao.UserDAO.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUser(ctx context.Context, id int64) (*model.User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]*model.User, error)
}

type IAuthService interface {
	Register(ctx context.Context, actor model.Identity, req model.RegisterRequest) (*model.User, error)
	Login(ctx context.Context, username, password string) (*auth.Session, error)
	Logout(ctx context.Context, tokenID string, expiresAt time.Time) error
	VerifyToken(ctx context.Context, token string) (*auth.Claims, error)
	GetUser(ctx context.Context, actor model.Identity, id int64) (*model.User, error)
	ListUsers(ctx context.Context, actor model.Identity, limit, offset int) ([]*model.User, error)
}

type AuthService struct {
	users          UserStore
	verifier       *auth.CredentialVerifier
	revocations    auth.RevocationStore
	validationUtil *util.ValidationUtil
	bcryptCost     int
}

// NewAuthService wires the credential store and verifier. revocations may be
// nil, in which case logout only ends the session client side.
func NewAuthService(users UserStore, verifier *auth.CredentialVerifier, revocations auth.RevocationStore, validationUtil *util.ValidationUtil, bcryptCost int) *AuthService {
	return &AuthService{
		users:          users,
		verifier:       verifier,
		revocations:    revocations,
		validationUtil: validationUtil,
		bcryptCost:     bcryptCost,
	}
}

// Register creates an account. Only admins may create accounts since the
// request chooses the role.
func (s *AuthService) Register(ctx context.Context, actor model.Identity, req model.RegisterRequest) (*model.User, error) {
	if !actor.HasRole(model.RoleAdmin) {
		logger.Warn("Non-admin attempted to register a user",
			zap.Int64("actorID", actor.ID),
			zap.String("role", actor.Role))
		return nil, echo_errors.ErrForbidden
	}

	user := &model.User{
		Username:   strings.TrimSpace(req.Username),
		Email:      strings.TrimSpace(req.Email),
		Role:       req.Role,
		Department: strings.TrimSpace(req.Department),
	}
	if err := s.validationUtil.ValidateUser(user, req.Password); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		logger.Error("Failed to hash password", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", echo_errors.ErrInternalServer, err)
	}
	user.PasswordHash = hash

	created, err := s.users.CreateUser(ctx, user)
	if err != nil {
		return nil, err
	}

	logger.Info("User registered",
		zap.Int64("userID", created.ID),
		zap.String("role", created.Role),
		zap.Int64("actorID", actor.ID))
	return created, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*auth.Session, error) {
	return s.verifier.Authenticate(ctx, username, password)
}

// Logout revokes the token id until the token would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if s.revocations == nil {
		logger.Debug("Token revocation disabled, logout is client side only")
		return nil
	}
	if err := s.revocations.Revoke(ctx, tokenID, expiresAt); err != nil {
		logger.Error("Failed to revoke token", zap.String("tokenID", tokenID), zap.Error(err))
		return fmt.Errorf("%w: %v", echo_errors.ErrStorageUnavailable, err)
	}
	logger.Info("Token revoked", zap.String("tokenID", tokenID), zap.Time("until", expiresAt))
	return nil
}

// VerifyToken checks the signature and expiry, then the revocation list.
// When the revocation list cannot be read the token is refused.
func (s *AuthService) VerifyToken(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := s.verifier.Verify(token)
	if err != nil {
		return nil, err
	}
	if s.revocations == nil {
		return claims, nil
	}

	revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		logger.Error("Failed to check token revocation", zap.String("tokenID", claims.ID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", echo_errors.ErrStorageUnavailable, err)
	}
	if revoked {
		return nil, fmt.Errorf("%w: token revoked", echo_errors.ErrUnauthenticated)
	}
	return claims, nil
}

// GetUser returns a user record. Users may read their own record; admins and
// HR may read anyone's.
func (s *AuthService) GetUser(ctx context.Context, actor model.Identity, id int64) (*model.User, error) {
	if actor.ID != id && !actor.HasRole(model.RoleAdmin, model.RoleHR) {
		return nil, echo_errors.ErrForbidden
	}
	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		if !errors.Is(err, echo_errors.ErrUserNotFound) {
			logger.Error("Error retrieving user", zap.Error(err), zap.Int64("userID", id))
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) ListUsers(ctx context.Context, actor model.Identity, limit, offset int) ([]*model.User, error) {
	if !actor.HasRole(model.RoleAdmin, model.RoleHR) {
		return nil, echo_errors.ErrForbidden
	}
	return s.users.ListUsers(ctx, limit, offset)
}
