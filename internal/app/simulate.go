package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	chart "github.com/wcharczuk/go-chart/v2"

	"storm-radar/internal/alert"
	"storm-radar/internal/alerting"
	"storm-radar/internal/observation"
	"storm-radar/internal/scoring"
)

// SimulateOptions control a synthetic scenario run.
type SimulateOptions struct {
	Scenario string
	Cycles   int
	CSVPath  string
	PNGPath  string
	// Notify sends the final assessment through the real Telegram notifier.
	Notify   bool
}

type simSample struct {
	At         time.Time
	Assessment alert.Assessment
	Notified   bool
}

// Simulate drives the scoring pipeline over a synthetic weather scenario,
// without touching any provider. It reports the score trajectory on stdout
// and optionally as CSV/PNG.
func (a *App) Simulate(ctx context.Context, opts SimulateOptions) error {
	if opts.Cycles <= 0 {
		opts.Cycles = 12
	}

	gen, err := newScenario(opts.Scenario, a.Config.Analysis.BoraReferenceStations, a.Config.Analysis.BoraLocalStations)
	if err != nil {
		return err
	}

	clock := clockwork.NewFakeClockAt(time.Now().UTC().Truncate(time.Minute))
	calc := scoring.NewCalculator(a.Config.Scoring(), clock, a.Logger)
	gate := alerting.NewGate(a.Config.MinAlertLevel(), clock)
	formatter := alerting.NewFormatter(a.Config.Target.Name, alerting.TelegramMaxMessageLen)

	var state alerting.State
	samples := make([]simSample, 0, opts.Cycles)

	for step := 0; step < opts.Cycles; step++ {
		weather, marine, lightning := gen.readings(step, opts.Cycles, clock.Now())
		assessment := calc.Calculate(weather, marine, lightning)

		notified := gate.ShouldNotify(assessment.Score, assessment.Level, state)
		if notified {
			state = alerting.State{LastNotificationAt: clock.Now(), LastNotifiedScore: assessment.Score}
		}

		samples = append(samples, simSample{At: clock.Now(), Assessment: assessment, Notified: notified})

		a.Logger.Info().
			Int("cycle", step+1).
			Float64("score", assessment.Score).
			Str("level", assessment.Level.String()).
			Bool("would_notify", notified).
			Msg("simulated cycle")

		clock.Advance(a.Config.Scheduler.Interval)
	}

	if opts.CSVPath != "" {
		if err := writeScoresCSV(opts.CSVPath, samples); err != nil {
			return err
		}
	}
	if opts.PNGPath != "" {
		if err := writeScoresPNG(opts.PNGPath, opts.Scenario, samples); err != nil {
			return err
		}
	}

	if opts.Notify {
		notifier := a.newNotifier()
		if notifier == nil {
			return errors.New("alerting not enabled; cannot deliver simulated alert")
		}
		final := samples[len(samples)-1].Assessment
		return notifier.Notify(ctx, formatter.Format(final, time.Now().UTC()))
	}

	return nil
}

// scenarioGen produces synthetic readings that ramp toward a chosen storm
// pattern over the run.
type scenarioGen struct {
	name      string
	reference []string
	local     []string
}

func newScenario(name string, reference, local []string) (*scenarioGen, error) {
	switch name {
	case "calm", "marine", "bora", "squall":
	default:
		return nil, fmt.Errorf("unknown scenario %q (expected calm, marine, bora or squall)", name)
	}
	if len(reference) == 0 {
		reference = []string{"Trieste"}
	}
	if len(local) == 0 {
		local = []string{"Falconara"}
	}
	return &scenarioGen{name: name, reference: reference, local: local}, nil
}

func (g *scenarioGen) readings(step, total int, at time.Time) ([]observation.StationReading, []observation.MarineReading, []observation.LightningEvent) {
	// ramp runs 0..1 over the scenario.
	ramp := 1.0
	if total > 1 {
		ramp = float64(step) / float64(total-1)
	}

	weather := []observation.StationReading{
		{
			Station:          g.local[0],
			Timestamp:        at,
			TemperatureC:     18,
			PressureHPa:      1015 - 4*ramp,
			HumidityPct:      60 + 30*ramp,
			WindSpeedKMH:     8 + 10*ramp,
			WindDirectionDeg: 120,
			Condition:        "Clouds",
			Terrain:          observation.TerrainCoastal,
		},
	}
	var marine []observation.MarineReading
	var lightning []observation.LightningEvent

	switch g.name {
	case "calm":
		// baseline only

	case "marine":
		marine = append(marine, observation.MarineReading{
			Point:            "Offshore Ancona",
			Timestamp:        at,
			WaveHeightM:      0.4 + 2.0*ramp,
			WavePeriodS:      7 - 4*ramp,
			WaveDirectionDeg: 40,
			SeaTemperatureC:  19,
		})

	case "bora":
		weather = append(weather, observation.StationReading{
			Station:          g.reference[0],
			Timestamp:        at,
			TemperatureC:     9,
			PressureHPa:      1015 + 12*ramp,
			HumidityPct:      55,
			WindSpeedKMH:     15 + 45*ramp,
			WindDirectionDeg: 45,
			Condition:        "Clear",
			Terrain:          observation.TerrainMountain,
		})

	case "squall":
		weather[0].Condition = "Thunderstorm"
		weather[0].WindSpeedKMH = 20 + 30*ramp
		strikes := int(20 * ramp)
		for i := 0; i < strikes; i++ {
			lightning = append(lightning, observation.LightningEvent{
				Timestamp:  at.Add(-time.Duration(i%9) * time.Minute),
				DistanceKM: 90 - 60*ramp,
				Intensity:  1,
			})
		}
	}

	return weather, marine, lightning
}

func writeScoresCSV(path string, samples []simSample) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"ts", "score", "level", "eta", "reasons", "notified"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, sample := range samples {
		record := []string{
			sample.At.Format(time.RFC3339),
			alert.Fixed(sample.Assessment.Score, 1),
			sample.Assessment.Level.String(),
			sample.Assessment.ETA,
			strconv.Itoa(len(sample.Assessment.Reasons)),
			strconv.FormatBool(sample.Notified),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

func writeScoresPNG(path, scenario string, samples []simSample) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	x := make([]time.Time, len(samples))
	scores := make([]float64, len(samples))
	for i, sample := range samples {
		x[i] = sample.At
		scores[i] = sample.Assessment.Score
	}

	scoreFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.0f")
	}
	graph := chart.Chart{
		Title:  fmt.Sprintf("Storm risk trajectory (%s)", scenario),
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Risk score",
			ValueFormatter: scoreFormatter,
			Range:          &chart.ContinuousRange{Min: 0, Max: 100},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Score",
				XValues: x,
				YValues: scores,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
