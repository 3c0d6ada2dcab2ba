// Package simulate fabricates plausible sensor readings and predictions for
// when the sensor store or the scoring pipeline is unavailable.
package simulate

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/iotwatch/predmaint/internal/models"
	"github.com/iotwatch/predmaint/internal/scoring"
	"github.com/iotwatch/predmaint/internal/utils"
)

// Jitter is the half-width of the uniform noise applied to synthetic risks.
const Jitter = 0.05

// Generator produces time-descending synthetic series. The zero value is not
// usable; construct with New.
type Generator struct {
	machineID string
	now       func() time.Time

	mu  sync.Mutex
	rnd *rand.Rand
}

// Option customises a Generator.
type Option func(*Generator)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithSeed makes the jitter sequence reproducible.
func WithSeed(seed uint64) Option {
	return func(g *Generator) { g.rnd = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) }
}

// New returns a Generator labelling predictions with machineID.
func New(machineID string, opts ...Option) *Generator {
	g := &Generator{
		machineID: machineID,
		now:       time.Now,
		rnd:       rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Readings returns count readings spaced one minute apart, newest first.
func (g *Generator) Readings(count int) []models.SensorView {
	now := g.now()
	out := make([]models.SensorView, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, models.SensorView{
			ID:               i + 1,
			Timestamp:        utils.FormatReadingTime(now.Add(-time.Duration(i) * time.Minute)),
			Temperature:      float64(70 + i%10),
			Vibration:        1.2 + float64(i%5)*0.1,
			PowerConsumption: 0.2 + float64(i%7)*0.01,
			Humidity:         float64(40 + (i%8)*2),
			Pressure:         30 + float64(i%6)*1.5,
		})
	}
	return out
}

// Predictions returns count predictions spaced five minutes apart, newest
// first, with risks cycling through 0.1, 0.3, 0.5, 0.7 plus jitter.
func (g *Generator) Predictions(count int) []models.Prediction {
	now := g.now()
	out := make([]models.Prediction, 0, count)
	for i := 0; i < count; i++ {
		base := 0.1 + float64(i%4)*0.2
		out = append(out, models.Prediction{
			ID:         i + 1,
			MachineID:  g.machineID,
			Timestamp:  utils.FormatReadingTime(now.Add(-time.Duration(i*5) * time.Minute)),
			Risk:       scoring.Round3(scoring.Clamp(base + g.Jitter())),
			Note:       models.NoteSimulated,
			Provenance: models.ProvenanceSimulated,
		})
	}
	return out
}

// Jitter draws a uniform value in [-Jitter, Jitter).
func (g *Generator) Jitter() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rnd.Float64()*2*Jitter - Jitter
}
