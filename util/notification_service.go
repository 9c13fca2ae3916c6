// util/notification_service.go

package util

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	logger "github.com/dev-mohitbeniwal/echo-portal/logging"
	"github.com/dev-mohitbeniwal/echo-portal/model"
)

// NotificationService announces policy changes on the operational log.
type NotificationService struct{}

func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

func (n *NotificationService) SubscribeTo(bus *EventBus) {
	bus.Subscribe(EventPolicyChanged, func(ctx context.Context, e Event) error {
		change, ok := e.Payload.(model.PolicyChange)
		if !ok {
			return fmt.Errorf("unexpected payload %T for %s", e.Payload, e.Type)
		}
		return n.NotifyPolicyChange(ctx, change)
	})
}

func (n *NotificationService) NotifyPolicyChange(ctx context.Context, change model.PolicyChange) error {
	fields := []zap.Field{
		zap.String("policyID", change.PolicyID),
		zap.String("policyName", change.Name),
		zap.Int64("actorID", change.ActorID),
		zap.Strings("resources", change.Resources),
	}
	switch change.Action {
	case model.ActionCreatePolicy:
		logger.Info("NOTIFICATION: New policy created", fields...)
	case model.ActionUpdatePolicy:
		logger.Info("NOTIFICATION: Policy updated", fields...)
	case model.ActionDeletePolicy:
		logger.Info("NOTIFICATION: Policy deleted", fields...)
	default:
		return fmt.Errorf("unknown change type: %s", change.Action)
	}
	return nil
}
