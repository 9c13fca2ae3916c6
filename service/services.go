// service/services.go
package service

import (
	"github.com/dev-mohitbeniwal/echo-portal/audit"
	"github.com/dev-mohitbeniwal/echo-portal/auth"
	"github.com/dev-mohitbeniwal/echo-portal/util"
)

type Services struct {
	Auth   IAuthService
	Policy IPolicyService
	Access IAccessService
	Audit  audit.Service
}

// Dependencies groups what InitializeServices wires together.
type Dependencies struct {
	Users          UserStore
	Policies       PolicyStore
	Evaluator      Evaluator
	Verifier       *auth.CredentialVerifier
	Revocations    auth.RevocationStore
	Audit          audit.Service
	ValidationUtil *util.ValidationUtil
	EventBus       *util.EventBus
	BcryptCost     int
}

func InitializeServices(deps Dependencies) *Services {
	return &Services{
		Auth:   NewAuthService(deps.Users, deps.Verifier, deps.Revocations, deps.ValidationUtil, deps.BcryptCost),
		Policy: NewPolicyService(deps.Policies, deps.Audit, deps.ValidationUtil, deps.EventBus),
		Access: NewAccessService(deps.Evaluator, deps.Audit),
		Audit:  deps.Audit,
	}
}
