package scoring

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/iotwatch/predmaint/internal/features"
	"github.com/iotwatch/predmaint/internal/metrics"
	"github.com/iotwatch/predmaint/internal/models"
)

// Input column names the model was trained on.
const (
	ColTemperature     = "Temperature"
	ColVibration       = "Vibration"
	ColPowerUsage      = "Power_Usage"
	ColHumidity        = "Humidity"
	ColPressure        = "Pressure"
	ColMachineTypeCode = "Machine_Type_Code"
)

// Result is the outcome of scoring one reading.
type Result struct {
	Risk       float64
	Provenance models.Provenance
	// Err is set when the model path failed and the heuristic was used.
	Err error
}

// Info describes the loaded pipeline for the model-info endpoint.
type Info struct {
	PipelineSteps  []string       `json:"pipeline_steps"`
	ModelType      string         `json:"model_type"`
	ModelStep      string         `json:"model_step"`
	FeatureNames   []string       `json:"feature_names"`
	PipelineSource string         `json:"pipeline_source"`
	ModelParams    map[string]any `json:"model_params"`
}

// Scorer produces a failure risk for a reading, falling back to a rule-based
// heuristic whenever the pipeline is missing or errors.
type Scorer struct {
	pipeline *Pipeline
	logger   *slog.Logger
}

// NewScorer wraps pipeline, which may be nil.
func NewScorer(pipeline *Pipeline, logger *slog.Logger) *Scorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scorer{pipeline: pipeline, logger: logger}
}

// Available reports whether a validated pipeline is loaded.
func (s *Scorer) Available() bool {
	return s != nil && s.pipeline != nil
}

// Score runs the pipeline on f, substituting the heuristic on any failure.
func (s *Scorer) Score(f models.Features) Result {
	risk, err := s.predict(f)
	if err != nil {
		s.logger.Debug("model prediction failed, using heuristic", slog.String("timestamp", f.Timestamp), slog.Any("error", err))
		res := Result{Risk: Heuristic(f), Provenance: models.ProvenanceHeuristic, Err: err}
		metrics.ObserveScore(string(res.Provenance))
		return res
	}
	metrics.ObserveScore(string(models.ProvenanceModel))
	return Result{Risk: risk, Provenance: models.ProvenanceModel}
}

func (s *Scorer) predict(f models.Features) (risk float64, err error) {
	if !s.Available() {
		return 0, ErrModelUnavailable
	}
	defer func() {
		if r := recover(); r != nil {
			err = errors.New("pipeline panicked during prediction")
		}
	}()

	row := Row{
		ColTemperature:     f.Temperature,
		ColVibration:       f.Vibration,
		ColPowerUsage:      f.PowerUsage,
		ColHumidity:        f.Humidity,
		ColPressure:        f.Pressure,
		ColMachineTypeCode: features.MachineTypeCode(f.MachineType),
	}
	x, err := s.pipeline.Transform(row)
	if err != nil {
		return 0, err
	}
	y, err := s.pipeline.Predict(x)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return 0, fmt.Errorf("model returned non-finite value %v", y)
	}
	return Clamp(y), nil
}

// Info returns pipeline metadata. Fields the pipeline cannot describe are nil.
func (s *Scorer) Info() (Info, error) {
	if !s.Available() {
		return Info{}, ErrModelUnavailable
	}
	caps := s.pipeline.Capabilities()
	return Info{
		PipelineSteps:  s.pipeline.Steps(),
		ModelType:      s.pipeline.ModelType(),
		ModelStep:      caps.ModelStep,
		FeatureNames:   s.pipeline.FeatureNames(),
		PipelineSource: s.pipeline.Source(),
		ModelParams:    s.pipeline.Params(),
	}, nil
}

// Heuristic scores a reading from fixed thresholds. The result is in [0, 1].
func Heuristic(f models.Features) float64 {
	risk := 0.1
	if f.Temperature > 75 {
		risk += 0.3
	}
	if f.Vibration > 2.0 {
		risk += 0.2
	}
	if f.PowerUsage > 0.25 {
		risk += 0.2
	}
	if f.Humidity > 70 || f.Humidity < 30 {
		risk += 0.1
	}
	if f.Pressure > 35 || f.Pressure < 25 {
		risk += 0.1
	}
	return Clamp(risk)
}

// Clamp bounds v to [0, 1].
func Clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// Round3 rounds v to three decimal places.
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
