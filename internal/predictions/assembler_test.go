package predictions

import (
	"context"
	"testing"
	"time"

	"github.com/iotwatch/predmaint/internal/cache"
	"github.com/iotwatch/predmaint/internal/models"
	"github.com/iotwatch/predmaint/internal/scoring"
)

type stubScorer struct {
	risk float64
	prov models.Provenance
	seen []models.Features
}

func (s *stubScorer) Score(f models.Features) scoring.Result {
	s.seen = append(s.seen, f)
	return scoring.Result{Risk: s.risk, Provenance: s.prov}
}

var testDefaults = models.SensorDefaults{
	Temperature: 70, Vibration: 1.0, PowerUsage: 0.2, Humidity: 40, Pressure: 30, MachineType: "Type_A",
}

func TestAssemblePadsThreeReadingsToTen(t *testing.T) {
	scorer := &stubScorer{risk: 0.42, prov: models.ProvenanceModel}
	history := NewHistory(cache.NewMemoryProvider(), Target)
	a := NewAssembler(scorer, "M-001", testDefaults,
		WithJitter(func() float64 { return 0.05 }),
		WithHistory(history),
	)

	readings := []models.SensorReading{
		{Timestamp: "2025-05-29T10:00:00.000000", Temperature: models.Float(80)},
		{Timestamp: "2025-05-29T09:59:00.000000"},
		{Timestamp: "2025-05-29T09:58:00.000000", MachineType: "Type_B"},
	}
	out := a.Assemble(context.Background(), readings)

	if len(out) != Target {
		t.Fatalf("expected %d predictions, got %d", Target, len(out))
	}
	for i := 1; i < len(out); i++ {
		if out[i-1].Timestamp < out[i].Timestamp {
			t.Fatalf("not sorted descending at %d: %s < %s", i, out[i-1].Timestamp, out[i].Timestamp)
		}
	}
	for _, p := range out {
		if p.Risk < 0 || p.Risk > 1 {
			t.Fatalf("risk out of range: %v", p.Risk)
		}
	}

	if out[0].Note != "Real prediction from sensor data #1" || out[0].Provenance != models.ProvenanceModel {
		t.Fatalf("unexpected first prediction: %+v", out[0])
	}
	if out[0].Temperature != 80 || out[1].Temperature != 70 {
		t.Fatalf("defaults not applied: %+v / %+v", out[0].SensorEcho, out[1].SensorEcho)
	}

	interp := out[3]
	if interp.Note != models.NoteInterpolated || interp.Provenance != models.ProvenanceInterpolated {
		t.Fatalf("expected interpolated entry, got %+v", interp)
	}
	if interp.Timestamp != "2025-05-29T09:53:00.000000" {
		t.Fatalf("unexpected interpolated timestamp %s", interp.Timestamp)
	}
	if interp.MachineType != "Type_B" || interp.Risk != 0.47 {
		t.Fatalf("interpolated entry should copy from last reading: %+v", interp)
	}
	if out[9].Timestamp != "2025-05-29T09:23:00.000000" || out[9].Risk != 0.77 {
		t.Fatalf("unexpected oldest entry %+v", out[9])
	}

	snap, ok, err := history.Latest(context.Background())
	if err != nil || !ok {
		t.Fatalf("expected history snapshot, ok=%v err=%v", ok, err)
	}
	if len(snap.Predictions) != Target || snap.ID == "" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestAssembleEmptyProducesNothing(t *testing.T) {
	a := NewAssembler(&stubScorer{}, "M-001", testDefaults)
	if out := a.Assemble(context.Background(), nil); len(out) != 0 {
		t.Fatalf("expected no predictions, got %d", len(out))
	}
}

func TestAssembleUnparseableTimestampUsesClock(t *testing.T) {
	now := time.Date(2025, 5, 29, 12, 0, 0, 0, time.Local)
	a := NewAssembler(&stubScorer{risk: 0.2, prov: models.ProvenanceHeuristic}, "M-001", testDefaults,
		WithClock(func() time.Time { return now }),
	)
	out := a.Assemble(context.Background(), []models.SensorReading{{Timestamp: "garbage"}})
	if len(out) != Target {
		t.Fatalf("expected %d predictions, got %d", Target, len(out))
	}
	found := false
	for _, p := range out {
		if p.Timestamp == "2025-05-29T11:55:00.000000" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an entry derived from the clock, got %+v", out)
	}
}

func TestAssembleClampsInterpolatedRisk(t *testing.T) {
	a := NewAssembler(&stubScorer{risk: 1, prov: models.ProvenanceHeuristic}, "M-001", testDefaults,
		WithJitter(func() float64 { return 0.05 }),
	)
	out := a.Assemble(context.Background(), []models.SensorReading{{Timestamp: "2025-05-29T10:00:00.000000"}})
	for _, p := range out {
		if p.Risk > 1 {
			t.Fatalf("risk exceeds 1: %v", p.Risk)
		}
	}
}
