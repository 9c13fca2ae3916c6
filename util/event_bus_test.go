package util

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/dev-mohitbeniwal/echo-portal/model"
)

type mockPolicyCacheStore struct {
	mock.Mock
}

func (m *mockPolicyCacheStore) Invalidate(ctx context.Context, resources ...string) error {
	args := m.Called(ctx, resources)
	return args.Error(0)
}

func TestEventBus_DeliversToAllSubscribers(t *testing.T) {
	bus := NewEventBus()
	var mu sync.Mutex
	var got []string
	for _, name := range []string{"a", "b"} {
		name := name
		bus.Subscribe("thing", func(_ context.Context, e Event) error {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, name+":"+e.Payload.(string))
			return nil
		})
	}

	bus.Publish(context.Background(), "thing", "x")
	bus.Publish(context.Background(), "other", "ignored")
	bus.Wait()

	assert.ElementsMatch(t, []string{"a:x", "b:x"}, got)
}

func TestEventBus_HandlersOutliveCallerContext(t *testing.T) {
	bus := NewEventBus()
	done := make(chan error, 1)
	bus.Subscribe("thing", func(ctx context.Context, _ Event) error {
		time.Sleep(10 * time.Millisecond)
		done <- ctx.Err()
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	bus.Publish(ctx, "thing", nil)
	cancel()
	bus.Wait()
	assert.NoError(t, <-done)
}

func TestCacheService_InvalidatesChangedResources(t *testing.T) {
	store := new(mockPolicyCacheStore)
	store.On("Invalidate", mock.Anything, []string{"employee_salary", "employee_bonus"}).Return(nil).Once()

	bus := NewEventBus()
	NewCacheService(store).SubscribeTo(bus)
	NewNotificationService().SubscribeTo(bus)

	bus.Publish(context.Background(), EventPolicyChanged, model.PolicyChange{
		Action:    model.ActionUpdatePolicy,
		PolicyID:  "p1",
		Resources: []string{"employee_salary", "employee_bonus"},
	})
	bus.Wait()
	store.AssertExpectations(t)
}

func TestNotificationService_UnknownAction(t *testing.T) {
	err := NewNotificationService().NotifyPolicyChange(context.Background(), model.PolicyChange{Action: "rename_policy"})
	assert.Error(t, err)
}
