package app

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"storm-radar/internal/alerting"
	"storm-radar/internal/config"
	"storm-radar/internal/fetcher"
	"storm-radar/internal/observability"
	"storm-radar/internal/observation"
	"storm-radar/internal/scheduler"
	"storm-radar/internal/scoring"
	"storm-radar/internal/service"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newFetchers(clock clockwork.Clock) (fetcher.WeatherFetcher, fetcher.MarineFetcher, fetcher.LightningFetcher) {
	weather := fetcher.NewOpenWeather(fetcher.WeatherOptions{
		APIKey:  a.Config.Weather.APIKey,
		BaseURL: a.Config.Weather.BaseURL,
		Timeout: a.Config.Weather.RequestTimeout,
	}, clock, a.Logger)

	marine := fetcher.NewOpenMeteoMarine(fetcher.MarineOptions{
		BaseURL: a.Config.Marine.BaseURL,
		Timeout: a.Config.Marine.RequestTimeout,
	}, clock, a.Logger)

	lightning := fetcher.NewBlitzortung(fetcher.LightningOptions{
		Enabled:   a.Config.Lightning.Enabled,
		BaseURL:   a.Config.Lightning.BaseURL,
		Timeout:   a.Config.Lightning.RequestTimeout,
		TargetLat: a.Config.Target.Lat,
		TargetLon: a.Config.Target.Lon,
	}, a.Logger)

	return weather, marine, lightning
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Alerting.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 15*time.Second, a.Logger)
	}
	return nil
}

func (a *App) newService(metrics *observability.Metrics, withScheduler bool) *service.Service {
	clock := clockwork.NewRealClock()
	weather, marine, lightning := a.newFetchers(clock)

	aggregator := fetcher.NewAggregator(fetcher.AggregatorOptions{
		Weather:       weather,
		Marine:        marine,
		Lightning:     lightning,
		Stations:      a.Config.Stations,
		MarinePoints:  a.Config.MarinePts,
		RadiusKM:      a.Config.Lightning.RadiusKM,
		CourtesyDelay: a.Config.Weather.CourtesyDelay,
		Metrics:       metrics,
		Clock:         clock,
	}, a.Logger)

	var sched *scheduler.Scheduler
	if withScheduler {
		sched = scheduler.New(scheduler.Options{
			Interval:      a.Config.Scheduler.Interval,
			AlignToStart:  a.Config.Scheduler.AlignToCycle,
			StartupDelay:  a.Config.Scheduler.StartupDelay,
			ErrorCooldown: a.Config.Scheduler.ErrorCooldown,
		}, a.Logger)
	}

	return service.New(service.Options{
		Scheduler:     sched,
		Aggregator:    aggregator,
		Store:         observation.NewStore(a.Config.Store.Retention, clock),
		Calculator:    scoring.NewCalculator(a.Config.Scoring(), clock, a.Logger),
		Gate:          alerting.NewGate(a.Config.MinAlertLevel(), clock),
		Formatter:     alerting.NewFormatter(a.Config.Target.Name, alerting.TelegramMaxMessageLen),
		Notifier:      a.newNotifier(),
		AlertsEnabled: a.Config.Alerting.Enabled,
		Metrics:       metrics,
		Clock:         clock,
	}, a.Logger)
}

func (a *App) serveMetrics(ctx context.Context) {
	if !a.Config.Metrics.Enabled {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: a.Config.Metrics.Addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	go func() {
		a.Logger.Info().Str("addr", a.Config.Metrics.Addr).Msg("serving metrics")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

// Run executes the long-running monitoring service.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	metrics := observability.NewMetrics()
	a.serveMetrics(ctx)

	svc := a.newService(metrics, true)

	a.Logger.Info().Msg("starting storm monitoring service")
	err := svc.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("storm monitoring service stopped")
	return nil
}

// RunOnce executes a single poll cycle and exits. Useful for cron-style
// deployments and smoke checks.
func (a *App) RunOnce(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svc := a.newService(observability.NewMetrics(), false)
	return svc.Cycle(ctx, time.Now().UTC())
}
