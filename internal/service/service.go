package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"storm-radar/internal/alerting"
	"storm-radar/internal/fetcher"
	"storm-radar/internal/observability"
	"storm-radar/internal/observation"
	"storm-radar/internal/scheduler"
	"storm-radar/internal/scoring"
)

// Service orchestrates one poll cycle: fetch, store, score, gate, format,
// deliver. Cycles run strictly sequentially; the notifier state is only
// advanced after the transport confirmed delivery.
type Service struct {
	scheduler  *scheduler.Scheduler
	aggregator *fetcher.Aggregator
	store      *observation.Store
	calculator *scoring.Calculator
	gate       *alerting.Gate
	formatter  *alerting.Formatter
	notifier   alerting.Notifier

	alertsOn bool
	metrics  *observability.Metrics
	clock    clockwork.Clock
	logger   zerolog.Logger

	mu    sync.Mutex
	state alerting.State
}

// Options wire the service's collaborators.
type Options struct {
	Scheduler  *scheduler.Scheduler
	Aggregator *fetcher.Aggregator
	Store      *observation.Store
	Calculator *scoring.Calculator
	Gate       *alerting.Gate
	Formatter  *alerting.Formatter
	Notifier   alerting.Notifier

	AlertsEnabled bool
	Metrics       *observability.Metrics
	Clock         clockwork.Clock
}

// New constructs the monitoring service.
func New(opts Options, logger zerolog.Logger) *Service {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{
		scheduler:  opts.Scheduler,
		aggregator: opts.Aggregator,
		store:      opts.Store,
		calculator: opts.Calculator,
		gate:       opts.Gate,
		formatter:  opts.Formatter,
		notifier:   opts.Notifier,
		alertsOn:   opts.AlertsEnabled,
		metrics:    opts.Metrics,
		clock:      clock,
		logger:     logger.With().Str("component", "service").Logger(),
	}
}

// Run begins the polling loop.
func (s *Service) Run(ctx context.Context) error {
	if s.scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}
	return s.scheduler.Run(ctx, s.Cycle)
}

// Cycle executes a single poll cycle. A cycle with no weather data is logged
// and skipped; scoring over partial data is a normal cycle, not an error.
func (s *Service) Cycle(ctx context.Context, _ time.Time) error {
	started := s.clock.Now()

	weather, marine, lightning := s.aggregator.FetchAll(ctx)
	if len(weather) == 0 {
		s.logger.Warn().Msg("no weather data retrieved; skipping cycle")
		return nil
	}

	s.store.Record(weather, marine, lightning)
	if s.logger.GetLevel() <= zerolog.DebugLevel {
		w, m, l := s.store.Sizes()
		s.logger.Debug().Int("weather", w).Int("marine", m).Int("lightning", l).Msg("retention window")
	}

	assessment := s.calculator.Calculate(weather, marine, lightning)

	if s.metrics != nil {
		s.metrics.CyclesTotal.Inc()
		s.metrics.CycleDuration.Observe(s.clock.Now().Sub(started).Seconds())
		s.metrics.RiskScore.Set(assessment.Score)
	}

	s.logger.Info().
		Float64("score", assessment.Score).
		Str("level", assessment.Level.String()).
		Str("eta", assessment.ETA).
		Msg("cycle assessed")

	if !s.alertsOn || s.notifier == nil {
		return nil
	}

	s.mu.Lock()
	state := s.state
	s.mu.Unlock()

	if !s.gate.ShouldNotify(assessment.Score, assessment.Level, state) {
		if s.metrics != nil {
			s.metrics.AlertsSuppressed.Inc()
		}
		s.logger.Debug().Float64("score", assessment.Score).Msg("notification suppressed by gate")
		return nil
	}

	message := s.formatter.Format(assessment, s.clock.Now())
	if err := s.notifier.Notify(ctx, message); err != nil {
		// State stays untouched so the next cycle re-evaluates as if nothing
		// was sent.
		if s.metrics != nil {
			s.metrics.DeliveryErrors.Inc()
		}
		s.logger.Warn().Err(err).Msg("alert delivery failed")
		return nil
	}

	s.mu.Lock()
	s.state = alerting.State{
		LastNotificationAt: s.clock.Now(),
		LastNotifiedScore:  assessment.Score,
	}
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.AlertsSent.WithLabelValues(assessment.Level.String()).Inc()
	}
	s.logger.Info().Str("level", assessment.Level.String()).Msg("alert sent")

	return nil
}

// State returns a snapshot of the notification history.
func (s *Service) State() alerting.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
