// test/mock/audit.go
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/dev-mohitbeniwal/echo-portal/audit"
)

// MockAuditService is a mock implementation of audit.Service. Recorded
// entries are also kept in Records for assertions on their content.
type MockAuditService struct {
	mock.Mock

	mu      sync.Mutex
	Records []audit.AuditLog
}

func (m *MockAuditService) Record(ctx context.Context, log audit.AuditLog) {
	m.mu.Lock()
	m.Records = append(m.Records, log)
	m.mu.Unlock()
	m.Called(ctx, log)
}

// Recorded returns a copy of the entries passed to Record so far.
func (m *MockAuditService) Recorded() []audit.AuditLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]audit.AuditLog(nil), m.Records...)
}

func (m *MockAuditService) Query(ctx context.Context, filter audit.Filter, page, limit int) (*audit.Page, error) {
	args := m.Called(ctx, filter, page, limit)
	p, _ := args.Get(0).(*audit.Page)
	return p, args.Error(1)
}

func (m *MockAuditService) Export(ctx context.Context, filter audit.Filter) ([]audit.AuditLog, error) {
	args := m.Called(ctx, filter)
	logs, _ := args.Get(0).([]audit.AuditLog)
	return logs, args.Error(1)
}

func (m *MockAuditService) Statistics(ctx context.Context, from, to *time.Time) (*audit.Statistics, error) {
	args := m.Called(ctx, from, to)
	stats, _ := args.Get(0).(*audit.Statistics)
	return stats, args.Error(1)
}

func (m *MockAuditService) Get(ctx context.Context, id string) (*audit.AuditLog, error) {
	args := m.Called(ctx, id)
	log, _ := args.Get(0).(*audit.AuditLog)
	return log, args.Error(1)
}
