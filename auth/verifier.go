package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	echo_errors "github.com/dev-mohitbeniwal/echo-portal/errors"
	logger "github.com/dev-mohitbeniwal/echo-portal/logging"
	"github.com/dev-mohitbeniwal/echo-portal/model"
)

// UserLookup is the read side of the credential store.
type UserLookup interface {
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
}

// Session is the result of a successful login.
type Session struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	User      model.Identity `json:"user"`
}

// CredentialVerifier turns a username and password into a session and a
// session token back into an identity.
type CredentialVerifier struct {
	users  UserLookup
	tokens *TokenManager
	// dummyHash is compared against when the username is unknown so both
	// failure paths cost one bcrypt comparison.
	dummyHash string
}

func NewCredentialVerifier(users UserLookup, tokens *TokenManager, bcryptCost int) (*CredentialVerifier, error) {
	dummy, err := HashPassword("echo-portal-unknown-user", bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("prepare credential verifier: %w", err)
	}
	return &CredentialVerifier{users: users, tokens: tokens, dummyHash: dummy}, nil
}

// Authenticate looks the user up by exact username and checks the password.
// An unknown user and a wrong password both return ErrInvalidCredentials.
func (v *CredentialVerifier) Authenticate(ctx context.Context, username, password string) (*Session, error) {
	user, err := v.users.GetUserByUsername(ctx, username)
	if err != nil && !errors.Is(err, echo_errors.ErrUserNotFound) {
		logger.Error("Failed to look up user", zap.String("username", username), zap.Error(err))
		return nil, err
	}

	if user == nil {
		_ = VerifyPassword(v.dummyHash, password)
		logger.Info("Login failed", zap.String("username", username))
		return nil, echo_errors.ErrInvalidCredentials
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		logger.Info("Login failed", zap.String("username", username))
		return nil, echo_errors.ErrInvalidCredentials
	}

	identity := user.Identity()
	token, expiresAt, err := v.tokens.Issue(identity)
	if err != nil {
		logger.Error("Failed to issue session token", zap.Int64("userID", user.ID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", echo_errors.ErrInternalServer, err)
	}

	logger.Info("Login succeeded", zap.Int64("userID", user.ID), zap.String("role", user.Role))
	return &Session{Token: token, ExpiresAt: expiresAt, User: identity}, nil
}

// Verify checks a session token. It performs no I/O.
func (v *CredentialVerifier) Verify(token string) (*Claims, error) {
	return v.tokens.Verify(token)
}

func (v *CredentialVerifier) Tokens() *TokenManager {
	return v.tokens
}
