// audit/service.go
package audit

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	echo_errors "github.com/dev-mohitbeniwal/echo-portal/errors"
	logger "github.com/dev-mohitbeniwal/echo-portal/logging"
	"github.com/dev-mohitbeniwal/echo-portal/metrics"
)

const defaultWriteTimeout = 3 * time.Second

// maxResultWindow is Elasticsearch's default index.max_result_window:
// from+size of a paged search may not exceed it. Export has no such limit.
const maxResultWindow = 10000

type Service interface {
	// Record persists log. Failures are logged and counted, never returned,
	// so the caller's response does not depend on audit storage.
	Record(ctx context.Context, log AuditLog)
	Query(ctx context.Context, filter Filter, page, limit int) (*Page, error)
	Export(ctx context.Context, filter Filter) ([]AuditLog, error)
	Statistics(ctx context.Context, from, to *time.Time) (*Statistics, error)
	Get(ctx context.Context, id string) (*AuditLog, error)
}

type service struct {
	repo         Repository
	writeTimeout time.Duration
	now          func() time.Time

	entropyMu sync.Mutex
	entropy   *ulid.MonotonicEntropy
}

func NewService(repo Repository) Service {
	return newService(repo, time.Now)
}

func newService(repo Repository, now func() time.Time) *service {
	return &service{
		repo:         repo,
		writeTimeout: defaultWriteTimeout,
		now:          now,
		entropy:      ulid.Monotonic(rand.Reader, 0),
	}
}

func (s *service) newID(t time.Time) string {
	s.entropyMu.Lock()
	defer s.entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), s.entropy).String()
}

func (s *service) Record(ctx context.Context, log AuditLog) {
	if log.Timestamp.IsZero() {
		log.Timestamp = s.now()
	}
	log.Timestamp = log.Timestamp.UTC()
	if log.ID == "" {
		log.ID = s.newID(log.Timestamp)
	}

	// The request may already be cancelled or finished; the record still goes out.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.writeTimeout)
	defer cancel()

	if err := s.repo.Index(writeCtx, log); err != nil {
		metrics.AuditWriteFailures.Inc()
		logger.Error("Failed to write audit log",
			zap.Error(err),
			zap.String("auditID", log.ID),
			zap.Int64("userID", log.UserID),
			zap.String("action", log.Action),
			zap.String("resource", log.Resource),
			zap.String("result", log.Result),
			zap.String("reason", log.Reason),
			zap.String("ipAddress", log.IPAddress),
			zap.Time("timestamp", log.Timestamp))
		return
	}
	logger.Debug("Audit log written",
		zap.String("auditID", log.ID),
		zap.String("action", log.Action),
		zap.String("result", log.Result))
}

func (s *service) Query(ctx context.Context, filter Filter, page, limit int) (*Page, error) {
	if page < 1 || limit < 1 {
		return nil, echo_errors.ErrInvalidPagination
	}
	if page*limit > maxResultWindow {
		return nil, fmt.Errorf("%w: only the newest %d records can be paged, narrow the filter or export",
			echo_errors.ErrInvalidPagination, maxResultWindow)
	}
	if err := validateFilter(filter); err != nil {
		return nil, err
	}

	start := time.Now()
	logs, total, err := s.repo.Search(ctx, filter, (page-1)*limit, limit)
	if err != nil {
		logger.Error("Failed to query audit logs", zap.Error(err), zap.Duration("duration", time.Since(start)))
		return nil, err
	}

	logger.Info("Audit logs queried",
		zap.Int("page", page),
		zap.Int("count", len(logs)),
		zap.Int64("total", total),
		zap.Duration("duration", time.Since(start)))
	return &Page{
		Logs: logs,
		Pagination: Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: min(int(math.Ceil(float64(total)/float64(limit))), maxResultWindow/limit),
		},
	}, nil
}

func (s *service) Export(ctx context.Context, filter Filter) ([]AuditLog, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	start := time.Now()
	logs, err := s.repo.Scan(ctx, filter)
	if err != nil {
		logger.Error("Failed to export audit logs", zap.Error(err), zap.Duration("duration", time.Since(start)))
		return nil, err
	}
	logger.Info("Audit logs exported",
		zap.Int("count", len(logs)),
		zap.Duration("duration", time.Since(start)))
	return logs, nil
}

func (s *service) Statistics(ctx context.Context, from, to *time.Time) (*Statistics, error) {
	filter := Filter{From: from, To: to}
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	stats, err := s.repo.Stats(ctx, filter)
	if err != nil {
		logger.Error("Failed to compute audit statistics", zap.Error(err))
		return nil, err
	}
	stats.SuccessRate = successRate(stats.Success, stats.Total)
	return stats, nil
}

func (s *service) Get(ctx context.Context, id string) (*AuditLog, error) {
	if strings.TrimSpace(id) == "" {
		return nil, echo_errors.ErrInvalidAuditLogData
	}
	log, err := s.repo.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, echo_errors.ErrAuditLogNotFound) {
			logger.Error("Failed to get audit log", zap.String("auditID", id), zap.Error(err))
		}
		return nil, err
	}
	return log, nil
}

func validateFilter(f Filter) error {
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return fmt.Errorf("%w: dateFrom is after dateTo", echo_errors.ErrInvalidSearchCriteria)
	}
	return nil
}

// successRate is a percentage rounded to two decimals.
func successRate(success, total int64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(success)/float64(total)*10000) / 100
}
