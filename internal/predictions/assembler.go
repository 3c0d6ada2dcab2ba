// Package predictions turns scored sensor readings into the fixed-length,
// newest-first list served to the dashboard.
package predictions

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/iotwatch/predmaint/internal/models"
	"github.com/iotwatch/predmaint/internal/scoring"
	"github.com/iotwatch/predmaint/internal/utils"
)

// Target is the number of predictions returned per request.
const Target = 10

const interpolationStep = 5 * time.Minute

// Scorer scores a fully resolved reading.
type Scorer interface {
	Score(f models.Features) scoring.Result
}

// Assembler scores readings, pads the list to Target and records it.
type Assembler struct {
	scorer    Scorer
	history   *History
	machineID string
	defaults  models.SensorDefaults
	jitter    func() float64
	now       func() time.Time
	logger    *slog.Logger
}

// Option customises an Assembler.
type Option func(*Assembler)

// WithClock overrides the time source used when a timestamp cannot be parsed.
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) { a.now = now }
}

// WithJitter overrides the risk noise applied to interpolated entries.
func WithJitter(jitter func() float64) Option {
	return func(a *Assembler) { a.jitter = jitter }
}

// WithHistory records every assembled list.
func WithHistory(h *History) Option {
	return func(a *Assembler) { a.history = h }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assembler) { a.logger = logger }
}

// NewAssembler builds an Assembler labelling predictions with machineID and
// resolving missing attributes from defaults.
func NewAssembler(scorer Scorer, machineID string, defaults models.SensorDefaults, opts ...Option) *Assembler {
	a := &Assembler{
		scorer:    scorer,
		machineID: machineID,
		defaults:  defaults,
		jitter:    func() float64 { return 0 },
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble scores readings in order, pads to Target with interpolated entries
// and sorts by timestamp descending. An empty input yields an empty list.
func (a *Assembler) Assemble(ctx context.Context, readings []models.SensorReading) []models.Prediction {
	out := make([]models.Prediction, 0, Target)
	for i, r := range readings {
		if len(out) == Target {
			break
		}
		f := r.Resolve(a.defaults)
		res := a.scorer.Score(f)
		out = append(out, models.Prediction{
			ID:        i + 1,
			MachineID: a.machineID,
			Timestamp: f.Timestamp,
			Risk:      scoring.Round3(scoring.Clamp(res.Risk)),
			SensorEcho: &models.SensorEcho{
				Temperature: f.Temperature,
				Vibration:   f.Vibration,
				Power:       f.PowerUsage,
				Humidity:    f.Humidity,
				Pressure:    f.Pressure,
				MachineType: f.MachineType,
			},
			Note:       fmt.Sprintf("Real prediction from sensor data #%d", i+1),
			Provenance: res.Provenance,
		})
	}

	for len(out) > 0 && len(out) < Target {
		out = append(out, a.interpolate(out[len(out)-1], len(out)+1))
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp > out[j].Timestamp
	})

	if a.history != nil {
		if _, err := a.history.Replace(ctx, out); err != nil {
			a.logger.Warn("failed to record prediction history", slog.Any("error", err))
		}
	}
	return out
}

func (a *Assembler) interpolate(last models.Prediction, id int) models.Prediction {
	base, err := utils.ParseReadingTime(last.Timestamp)
	if err != nil {
		base = a.now()
	}
	next := models.Prediction{
		ID:         id,
		MachineID:  last.MachineID,
		Timestamp:  utils.FormatReadingTime(base.Add(-interpolationStep)),
		Risk:       scoring.Round3(scoring.Clamp(last.Risk + a.jitter())),
		Note:       models.NoteInterpolated,
		Provenance: models.ProvenanceInterpolated,
	}
	if last.SensorEcho != nil {
		echo := *last.SensorEcho
		next.SensorEcho = &echo
	}
	return next
}
