package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/iotwatch/predmaint/internal/metrics"
	"github.com/iotwatch/predmaint/internal/models"
	"github.com/iotwatch/predmaint/internal/predictions"
	"github.com/iotwatch/predmaint/internal/scoring"
	"github.com/iotwatch/predmaint/internal/simulate"
	"github.com/iotwatch/predmaint/internal/store"
	"github.com/iotwatch/predmaint/internal/utils"
)

// Response sizes served to the dashboard.
const (
	SensorLimit     = 24
	PredictionLimit = predictions.Target
)

// Fallback reasons recorded when simulated data is served.
const (
	reasonStoreUnavailable = "store_unavailable"
	reasonModelUnavailable = "model_unavailable"
	reasonNoData           = "no_data"
)

// ErrNoSensorData is returned by Predict when the device has no readings.
var ErrNoSensorData = errors.New("no sensor data available")

// SensorStore reads readings from the sensor table.
type SensorStore interface {
	FetchRecent(ctx context.Context, deviceID string, window time.Duration, limit int) ([]models.SensorReading, error)
	FetchLatest(ctx context.Context, deviceID string, limit int) ([]models.SensorReading, error)
	ScanRaw(ctx context.Context, limit int) ([]map[string]any, error)
	QueryRaw(ctx context.Context, deviceID string, limit int) ([]map[string]any, error)
	QueryWindowRaw(ctx context.Context, deviceID string, window time.Duration, limit int) ([]map[string]any, error)
	KeySchema(ctx context.Context) ([]store.KeyElement, error)
	TableStatus(ctx context.Context) (string, error)
	Latency() *utils.LatencyTracker
	Table() string
}

// Settings holds the values the service needs from configuration.
type Settings struct {
	DeviceID    string
	Window      time.Duration
	Region      string
	AccessKeyID string
}

// Defaults for attributes missing from stored readings. /sensors and /predict
// deliberately use different values; the dashboard depends on both.
var (
	sensorDefaults = models.SensorDefaults{Humidity: 65, Pressure: 905}

	predictDefaults = models.SensorDefaults{
		Temperature: 70,
		Vibration:   1.0,
		PowerUsage:  0.2,
		Humidity:    40,
		Pressure:    30,
		MachineType: "Type_A",
	}
)

var assets = []models.Asset{
	{ID: 1, Name: "Pump A1", Type: "Hydraulic Pump", Status: "Online", XPct: 20, YPct: 30},
	{ID: 2, Name: "Motor B2", Type: "Electric Motor", Status: "Warning", XPct: 45, YPct: 55},
	{ID: 3, Name: "Valve C3", Type: "Control Valve", Status: "Offline", XPct: 70, YPct: 25},
	{ID: 4, Name: "Fan D4", Type: "Cooling Fan", Status: "Online", XPct: 80, YPct: 75},
}

// MaintenanceService is the facade behind the HTTP handlers.
type MaintenanceService struct {
	logger    *slog.Logger
	store     SensorStore
	scorer    *scoring.Scorer
	generator *simulate.Generator
	assembler *predictions.Assembler
	history   *predictions.History
	settings  Settings
	now       func() time.Time
}

// NewMaintenanceService wires the service. st may be nil when no store is
// reachable; scorer may wrap a nil pipeline.
func NewMaintenanceService(logger *slog.Logger, st SensorStore, scorer *scoring.Scorer, history *predictions.History, settings Settings) *MaintenanceService {
	if logger == nil {
		logger = slog.Default()
	}
	if scorer == nil {
		scorer = scoring.NewScorer(nil, logger)
	}
	if history == nil {
		history = predictions.NewHistory(nil, PredictionLimit)
	}
	if settings.Window <= 0 {
		settings.Window = 6 * time.Hour
	}
	generator := simulate.New(settings.DeviceID)
	return &MaintenanceService{
		logger:    logger,
		store:     st,
		scorer:    scorer,
		generator: generator,
		history:   history,
		assembler: predictions.NewAssembler(scorer, settings.DeviceID, predictDefaults,
			predictions.WithJitter(generator.Jitter),
			predictions.WithHistory(history),
			predictions.WithLogger(logger),
		),
		settings: settings,
		now:      time.Now,
	}
}

// StoreAvailable reports whether a sensor table is configured.
func (s *MaintenanceService) StoreAvailable() bool { return s.store != nil }

// StoreLatency returns the p95 of recent store calls and how many samples it
// was computed from. Both are zero without a store.
func (s *MaintenanceService) StoreLatency() (p95 time.Duration, samples int) {
	if s.store == nil {
		return 0, 0
	}
	tracker := s.store.Latency()
	if tracker == nil {
		return 0, 0
	}
	return tracker.Percentile(95), tracker.Count()
}

// ModelAvailable reports whether a scoring pipeline is loaded.
func (s *MaintenanceService) ModelAvailable() bool { return s.scorer.Available() }

// Sensors returns up to SensorLimit recent readings, newest first. Simulated
// readings are served when the store is unavailable or the window is empty.
func (s *MaintenanceService) Sensors(ctx context.Context) ([]models.SensorView, error) {
	if s.store == nil {
		metrics.ObserveFallback("sensors", reasonStoreUnavailable)
		return s.generator.Readings(SensorLimit), nil
	}

	readings, err := s.store.FetchRecent(ctx, s.settings.DeviceID, s.settings.Window, SensorLimit)
	if err != nil {
		return nil, err
	}
	if len(readings) == 0 {
		s.logger.Info("no readings in window, serving simulated sensors", slog.Duration("window", s.settings.Window))
		metrics.ObserveFallback("sensors", reasonNoData)
		return s.generator.Readings(SensorLimit), nil
	}

	out := make([]models.SensorView, 0, len(readings))
	for i, r := range readings {
		f := r.Resolve(sensorDefaults)
		out = append(out, models.SensorView{
			ID:               i + 1,
			Timestamp:        f.Timestamp,
			Temperature:      f.Temperature,
			Vibration:        f.Vibration,
			PowerConsumption: f.PowerUsage,
			Humidity:         f.Humidity,
			Pressure:         f.Pressure,
		})
	}
	return out, nil
}

// Predict scores the latest readings and pads the result to PredictionLimit.
// Without a store or a model the whole list is simulated.
func (s *MaintenanceService) Predict(ctx context.Context) ([]models.Prediction, error) {
	switch {
	case s.store == nil:
		metrics.ObserveFallback("predict", reasonStoreUnavailable)
		return s.generator.Predictions(PredictionLimit), nil
	case !s.scorer.Available():
		metrics.ObserveFallback("predict", reasonModelUnavailable)
		return s.generator.Predictions(PredictionLimit), nil
	}

	readings, err := s.store.FetchLatest(ctx, s.settings.DeviceID, PredictionLimit)
	if err != nil {
		return nil, err
	}
	if len(readings) == 0 {
		return nil, ErrNoSensorData
	}
	return s.assembler.Assemble(ctx, readings), nil
}

// History returns the most recently assembled prediction list, or an empty
// list when none has been produced.
func (s *MaintenanceService) History(ctx context.Context) ([]models.Prediction, error) {
	snap, ok, err := s.history.Latest(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []models.Prediction{}, nil
	}
	return snap.Predictions, nil
}

// Assets returns the fixed plant floor inventory.
func (s *MaintenanceService) Assets() []models.Asset {
	out := make([]models.Asset, len(assets))
	copy(out, assets)
	return out
}

// ModelInfo describes the loaded pipeline.
func (s *MaintenanceService) ModelInfo() (scoring.Info, error) {
	return s.scorer.Info()
}
