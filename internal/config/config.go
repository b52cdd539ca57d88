package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"storm-radar/internal/alert"
	"storm-radar/internal/logging"
	"storm-radar/internal/observation"
	"storm-radar/internal/scoring"
)

// Placeholder values shipped in the example .env; treated as unset.
const (
	placeholderAPIKey   = "YOUR_OPENWEATHER_API_KEY_HERE"
	placeholderBotToken = "YOUR_BOT_TOKEN_HERE"
	placeholderChatID   = "YOUR_CHAT_ID_HERE"
)

// Config materialises application configuration. It is built once at startup
// and passed read-only into every component.
type Config struct {
	App        AppConfig                 `mapstructure:"app"`
	Logging    logging.Config            `mapstructure:"logging"`
	Scheduler  SchedulerConfig           `mapstructure:"scheduler"`
	Target     TargetConfig              `mapstructure:"target"`
	Weather    WeatherConfig             `mapstructure:"weather"`
	Marine     MarineConfig              `mapstructure:"marine"`
	Lightning  LightningConfig           `mapstructure:"lightning"`
	Store      StoreConfig               `mapstructure:"store"`
	Thresholds ThresholdsConfig          `mapstructure:"thresholds"`
	Analysis   AnalysisConfig            `mapstructure:"analysis"`
	Alerting   AlertingConfig            `mapstructure:"alerting"`
	Metrics    MetricsConfig             `mapstructure:"metrics"`
	Stations   []observation.Station     `mapstructure:"stations"`
	MarinePts  []observation.MarinePoint `mapstructure:"marine_points"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// SchedulerConfig governs poll cadence.
type SchedulerConfig struct {
	Interval      time.Duration `mapstructure:"interval"`
	AlignToCycle  bool          `mapstructure:"align_to_cycle"`
	StartupDelay  time.Duration `mapstructure:"startup_delay"`
	ErrorCooldown time.Duration `mapstructure:"error_cooldown"`
}

// TargetConfig names the protected coastal location.
type TargetConfig struct {
	Name string  `mapstructure:"name"`
	Lat  float64 `mapstructure:"lat"`
	Lon  float64 `mapstructure:"lon"`
}

// WeatherConfig covers the OpenWeatherMap provider.
type WeatherConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	CourtesyDelay  time.Duration `mapstructure:"courtesy_delay"`
}

// MarineConfig covers the Open-Meteo marine provider.
type MarineConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// LightningConfig covers the strike-data provider. Disabled by default; an
// empty result set is a valid steady state.
type LightningConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	RadiusKM       float64       `mapstructure:"radius_km"`
}

// StoreConfig bounds the in-memory retention window.
type StoreConfig struct {
	Retention time.Duration `mapstructure:"retention"`
}

// ThresholdsConfig enumerates every scoring threshold.
type ThresholdsConfig struct {
	BoraPressureDiffHPa float64 `mapstructure:"bora_pressure_diff_hpa"`
	BoraWindKMH         float64 `mapstructure:"bora_wind_kmh"`
	HighWindKMH         float64 `mapstructure:"high_wind_kmh"`
	WaveHeightM         float64 `mapstructure:"wave_height_m"`
	WavePeriodS         float64 `mapstructure:"wave_period_s"`
	LightningDensity    int     `mapstructure:"lightning_density"`
	LightningApproachKM float64 `mapstructure:"lightning_approach_km"`
	ThermalGradientC    float64 `mapstructure:"thermal_gradient_c"`
}

// AnalysisConfig holds the station name sets the detectors partition by.
type AnalysisConfig struct {
	BoraReferenceStations   []string `mapstructure:"bora_reference_stations"`
	BoraLocalStations       []string `mapstructure:"bora_local_stations"`
	InlandFormationStations []string `mapstructure:"inland_formation_stations"`
}

// AlertingConfig defines notification routing and the severity floor.
type AlertingConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	MinLevel string         `mapstructure:"min_level"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig describes the Telegram delivery sink.
type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// Load builds configuration from .env, file, environment, and defaults.
func Load(path string) (*Config, error) {
	// Best effort, as the original deployment keeps credentials in .env.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("STORMRADAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The original deployment's .env variable names keep working.
	_ = v.BindEnv("weather.api_key", "STORMRADAR_WEATHER_API_KEY", "OPENWEATHER_API_KEY")
	_ = v.BindEnv("alerting.telegram.bot_token", "STORMRADAR_ALERTING_TELEGRAM_BOT_TOKEN", "TELEGRAM_BOT_TOKEN")
	_ = v.BindEnv("alerting.telegram.chat_id", "STORMRADAR_ALERTING_TELEGRAM_CHAT_ID", "TELEGRAM_CHAT_ID")

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(cfg.Stations) == 0 {
		cfg.Stations = DefaultStations()
	}
	if len(cfg.MarinePts) == 0 {
		cfg.MarinePts = DefaultMarinePoints()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "storm-radar")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("scheduler.interval", "30m")
	v.SetDefault("scheduler.align_to_cycle", false)
	v.SetDefault("scheduler.startup_delay", "0s")
	v.SetDefault("scheduler.error_cooldown", "5m")

	// Falconara Marittima.
	v.SetDefault("target.name", "Falconara Marittima")
	v.SetDefault("target.lat", 43.6167)
	v.SetDefault("target.lon", 13.4)

	v.SetDefault("weather.base_url", "https://api.openweathermap.org/data/2.5/weather")
	v.SetDefault("weather.request_timeout", "10s")
	v.SetDefault("weather.courtesy_delay", "500ms")

	v.SetDefault("marine.base_url", "https://marine-api.open-meteo.com/v1/marine")
	v.SetDefault("marine.request_timeout", "10s")

	v.SetDefault("lightning.enabled", false)
	v.SetDefault("lightning.base_url", "https://api.blitzortung.org/v1/strikes")
	v.SetDefault("lightning.request_timeout", "10s")
	v.SetDefault("lightning.radius_km", 100.0)

	v.SetDefault("store.retention", "12h")

	v.SetDefault("thresholds.bora_pressure_diff_hpa", 10.0)
	v.SetDefault("thresholds.bora_wind_kmh", 40.0)
	v.SetDefault("thresholds.high_wind_kmh", 35.0)
	v.SetDefault("thresholds.wave_height_m", 2.0)
	v.SetDefault("thresholds.wave_period_s", 4.0)
	v.SetDefault("thresholds.lightning_density", 10)
	v.SetDefault("thresholds.lightning_approach_km", 100.0)
	v.SetDefault("thresholds.thermal_gradient_c", 8.0)

	v.SetDefault("analysis.bora_reference_stations", []string{"Trieste", "Nova_Gorica", "Rijeka"})
	v.SetDefault("analysis.bora_local_stations", []string{"Ancona", "Falconara"})
	v.SetDefault("analysis.inland_formation_stations", []string{"Gubbio", "Fabriano"})

	v.SetDefault("alerting.enabled", true)
	v.SetDefault("alerting.min_level", "MEDIUM")
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", ":9090")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs sanity checks, including the pre-flight credential check:
// placeholder API keys are rejected before any cycle runs.
func (c *Config) Validate() error {
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler.interval must be greater than zero")
	}
	if c.Store.Retention <= 0 {
		return fmt.Errorf("store.retention must be greater than zero")
	}
	if len(c.Stations) == 0 {
		return fmt.Errorf("at least one station must be configured")
	}
	if c.Thresholds.LightningDensity < 0 {
		return fmt.Errorf("thresholds.lightning_density cannot be negative")
	}

	if _, err := alert.ParseLevel(c.Alerting.MinLevel); err != nil {
		return fmt.Errorf("alerting.min_level: %w", err)
	}

	if c.Weather.APIKey == "" || c.Weather.APIKey == placeholderAPIKey {
		return fmt.Errorf("weather.api_key is not configured; set STORMRADAR_WEATHER_API_KEY or OPENWEATHER_API_KEY in .env")
	}

	if c.Alerting.Enabled {
		tg := c.Alerting.Telegram
		if tg.BotToken == "" || tg.BotToken == placeholderBotToken {
			return fmt.Errorf("alerting.telegram.bot_token is not configured")
		}
		if tg.ChatID == "" || tg.ChatID == placeholderChatID {
			return fmt.Errorf("alerting.telegram.chat_id is not configured")
		}
	}

	return nil
}

// MinAlertLevel returns the parsed severity floor.
func (c *Config) MinAlertLevel() alert.Level {
	level, err := alert.ParseLevel(c.Alerting.MinLevel)
	if err != nil {
		return alert.LevelMedium
	}
	return level
}

// Scoring maps the configured thresholds onto the calculator's config.
func (c *Config) Scoring() scoring.Config {
	return scoring.Config{
		Bora: scoring.BoraConfig{
			ReferenceStations:        c.Analysis.BoraReferenceStations,
			LocalStations:            c.Analysis.BoraLocalStations,
			PressureDiffThresholdHPa: c.Thresholds.BoraPressureDiffHPa,
			WindThresholdKMH:         c.Thresholds.BoraWindKMH,
		},
		WavePeriodThresholdS:        c.Thresholds.WavePeriodS,
		WaveHeightThresholdM:        c.Thresholds.WaveHeightM,
		LightningDensityThreshold:   c.Thresholds.LightningDensity,
		LightningApproachDistanceKM: c.Thresholds.LightningApproachKM,
		ThermalGradientThresholdC:   c.Thresholds.ThermalGradientC,
		HighWindThresholdKMH:        c.Thresholds.HighWindKMH,
		InlandFormationStations:     c.Analysis.InlandFormationStations,
	}
}

// DefaultStations is the Adriatic monitoring network around the target:
// NE reference stations for Bora detection, Apennine formation stations,
// coastal tracking, and thermal-gradient pairs.
func DefaultStations() []observation.Station {
	return []observation.Station{
		{Name: "Trieste", Lat: 45.6469, Lon: 13.7780, DistanceKM: 150, Direction: "NE", Priority: 1, Terrain: observation.TerrainCoastal},
		{Name: "Nova_Gorica", Lat: 45.9564, Lon: 13.6581, DistanceKM: 140, Direction: "NE", Priority: 1, Terrain: observation.TerrainMountain},
		{Name: "Rijeka", Lat: 45.3431, Lon: 14.4078, DistanceKM: 180, Direction: "NE", Priority: 1, Terrain: observation.TerrainCoastal},
		{Name: "Gubbio", Lat: 43.3506, Lon: 12.5781, DistanceKM: 60, Direction: "SW", Priority: 1, Terrain: observation.TerrainMountain},
		{Name: "Foligno", Lat: 42.9563, Lon: 12.7033, DistanceKM: 70, Direction: "SW", Priority: 1, Terrain: observation.TerrainInland},
		{Name: "Fabriano", Lat: 43.3359, Lon: 12.9044, DistanceKM: 45, Direction: "W", Priority: 1, Terrain: observation.TerrainMountain},
		{Name: "Pesaro", Lat: 43.9073, Lon: 12.8946, DistanceKM: 35, Direction: "N", Priority: 2, Terrain: observation.TerrainCoastal},
		{Name: "Fano", Lat: 43.8433, Lon: 13.0172, DistanceKM: 25, Direction: "NW", Priority: 2, Terrain: observation.TerrainCoastal},
		{Name: "Ancona", Lat: 43.6167, Lon: 13.4000, DistanceKM: 5, Direction: "LOCAL", Priority: 1, Terrain: observation.TerrainCoastal},
		{Name: "Macerata", Lat: 43.3007, Lon: 13.4527, DistanceKM: 35, Direction: "S", Priority: 2, Terrain: observation.TerrainInland},
		{Name: "Rimini", Lat: 44.0527, Lon: 12.5664, DistanceKM: 60, Direction: "N", Priority: 3, Terrain: observation.TerrainCoastal},
		{Name: "Bologna", Lat: 44.4949, Lon: 11.3426, DistanceKM: 120, Direction: "NW", Priority: 3, Terrain: observation.TerrainInland},
	}
}

// DefaultMarinePoints are the offshore monitoring points.
func DefaultMarinePoints() []observation.MarinePoint {
	return []observation.MarinePoint{
		{Name: "Falconara_Offshore", Lat: 43.7, Lon: 13.6},
		{Name: "Ancona_Bay", Lat: 43.6, Lon: 13.5},
		{Name: "Rimini_Offshore", Lat: 44.1, Lon: 12.8},
	}
}
