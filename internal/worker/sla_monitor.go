package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/sellerdesk/support-portal/internal/domain"
	"github.com/sellerdesk/support-portal/internal/events"
	"github.com/sellerdesk/support-portal/internal/observability"
	"github.com/sellerdesk/support-portal/internal/sla"
)

// SLATicketStore is the slice of the ticket repository the monitor needs.
type SLATicketStore interface {
	ListSLACandidates(ctx context.Context, before time.Time, limit int) ([]domain.Ticket, error)
	MarkSLAStatus(ctx context.Context, id string, status domain.SLAStatus) (bool, error)
}

// Locker keeps one monitor sweep running across replicas.
type Locker interface {
	TryLock(ctx context.Context) (bool, error)
	Unlock(ctx context.Context) error
}

// SweepResult counts what one sweep changed.
type SweepResult struct {
	Scanned  int
	AtRisk   int
	Breached int
	Skipped  bool
}

// SLAMonitor periodically moves open tickets to at_risk and breached and
// announces breaches.
type SLAMonitor struct {
	tickets    SLATicketStore
	dispatcher events.Dispatcher
	lock       Locker
	atRiskFor  time.Duration
	batchSize  int
	timeout    time.Duration
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// SLAMonitorDependencies bundles collaborators.
type SLAMonitorDependencies struct {
	Tickets    SLATicketStore
	Dispatcher events.Dispatcher
	Lock       Locker
	AtRiskFor  time.Duration
	BatchSize  int
	Timeout    time.Duration
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Clock      func() time.Time
}

// NewSLAMonitor constructs the monitor.
func NewSLAMonitor(deps SLAMonitorDependencies) *SLAMonitor {
	m := &SLAMonitor{
		tickets:    deps.Tickets,
		dispatcher: deps.Dispatcher,
		lock:       deps.Lock,
		atRiskFor:  deps.AtRiskFor,
		batchSize:  deps.BatchSize,
		timeout:    deps.Timeout,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		now:        deps.Clock,
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.batchSize <= 0 {
		m.batchSize = 200
	}
	if m.timeout <= 0 {
		m.timeout = time.Minute
	}
	return m
}

// Sweep runs one pass. Another replica holding the lock makes it a no-op.
func (m *SLAMonitor) Sweep(ctx context.Context) (SweepResult, error) {
	var result SweepResult
	if m.lock != nil {
		ok, err := m.lock.TryLock(ctx)
		if err != nil {
			return result, err
		}
		if !ok {
			result.Skipped = true
			return result, nil
		}
		defer func() {
			if err := m.lock.Unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("sla monitor unlock failed", zap.Error(err))
			}
		}()
	}

	now := m.now().UTC()
	candidates, err := m.tickets.ListSLACandidates(ctx, now.Add(m.atRiskFor), m.batchSize)
	if err != nil {
		return result, fmt.Errorf("list sla candidates: %w", err)
	}
	result.Scanned = len(candidates)

	var errs []error
	for i := range candidates {
		ticket := &candidates[i]
		if ticket.SLAResolveTarget == nil {
			continue
		}
		status := sla.StatusAt(*ticket.SLAResolveTarget, now, m.atRiskFor)
		if status == ticket.SLAStatus || status == domain.SLAStatusOnTrack {
			continue
		}
		changed, err := m.tickets.MarkSLAStatus(ctx, ticket.ID, status)
		if err != nil {
			errs = append(errs, fmt.Errorf("mark %s %s: %w", ticket.ID, status, err))
			continue
		}
		if !changed {
			continue
		}
		if status == domain.SLAStatusAtRisk {
			result.AtRisk++
			continue
		}
		result.Breached++
		m.metrics.RecordSLABreach()
		m.logger.Info("sla breached",
			zap.String("ticket_id", ticket.ID),
			zap.String("ticket_number", ticket.TicketNumber),
			zap.Time("resolve_target", *ticket.SLAResolveTarget))
		if m.dispatcher != nil {
			err := m.dispatcher.Publish(ctx, events.Event{
				Type:      events.EventSLABreached,
				TicketID:  ticket.ID,
				Timestamp: now,
				Payload: events.SLABreachedPayload{
					ResolveTarget: *ticket.SLAResolveTarget,
					DetectedAt:    now,
				},
			})
			if err != nil {
				m.logger.Warn("sla breach notification failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
			}
		}
	}
	return result, errors.Join(errs...)
}

func (m *SLAMonitor) run() {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	result, err := m.Sweep(ctx)
	m.metrics.RecordMonitorRun(err == nil)
	if err != nil {
		m.logger.Error("sla monitor sweep failed", zap.Error(err))
		return
	}
	if result.Skipped {
		m.logger.Debug("sla monitor sweep skipped, lock held elsewhere")
		return
	}
	m.logger.Info("sla monitor sweep",
		zap.Int("scanned", result.Scanned),
		zap.Int("at_risk", result.AtRisk),
		zap.Int("breached", result.Breached))
}

// Start schedules the monitor on spec (standard cron syntax or descriptors
// like "@every 5m") and starts the scheduler. Stop the returned scheduler on
// shutdown.
func (m *SLAMonitor) Start(spec string) (*cron.Cron, error) {
	logger := cronLogger{m.logger.Sugar()}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	if _, err := c.AddFunc(spec, m.run); err != nil {
		return nil, fmt.Errorf("schedule sla monitor %q: %w", spec, err)
	}
	c.Start()
	return c, nil
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
