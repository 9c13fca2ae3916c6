// controller/controllers.go
package controller

import "github.com/dev-mohitbeniwal/echo-portal/service"

type Controllers struct {
	Auth   *AuthController
	Policy *PolicyController
	Access *AccessController
	Audit  *AuditController
	Health *HealthController
}

func InitializeControllers(services *service.Services, healthChecks map[string]HealthCheck) *Controllers {
	return &Controllers{
		Auth:   NewAuthController(services.Auth),
		Policy: NewPolicyController(services.Policy),
		Access: NewAccessController(services.Access),
		Audit:  NewAuditController(services.Audit),
		Health: NewHealthController(healthChecks),
	}
}
