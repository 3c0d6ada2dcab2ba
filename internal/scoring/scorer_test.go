package scoring

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/iotwatch/predmaint/internal/models"
)

func testDocument(modelStep string) Document {
	return Document{Steps: []Step{
		{
			Name: StepPreprocessor,
			Preprocessor: &Preprocessor{Columns: []Column{
				{Name: ColTemperature, Transform: TransformScale, Mean: 70, Scale: 5},
				{Name: ColVibration, Transform: TransformScale, Mean: 1.5, Scale: 0.5},
				{Name: ColPowerUsage, Transform: TransformScale, Mean: 0.22, Scale: 0.03},
				{Name: ColHumidity, Transform: TransformScale, Mean: 50, Scale: 10},
				{Name: ColPressure, Transform: TransformScale, Mean: 30, Scale: 3},
				{Name: ColMachineTypeCode, Transform: TransformPassthrough},
			}},
		},
		{
			Name: modelStep,
			Classifier: &Classifier{
				Type:         TypeLogisticRegression,
				Coefficients: []float64{1.5, 1.2, 0.8, 0.3, 0.3, 0.1},
				Intercept:    -2,
				Params:       map[string]any{"C": 1.0, "max_iter": 200},
			},
		},
	}}
}

func mustPipeline(t *testing.T, doc Document) *Pipeline {
	t.Helper()
	p, err := NewPipeline(doc)
	if err != nil {
		t.Fatalf("unexpected pipeline error: %v", err)
	}
	return p
}

func TestHeuristicAllThresholdsClampsToOne(t *testing.T) {
	f := models.Features{Temperature: 80, Vibration: 2.5, PowerUsage: 0.3, Humidity: 80, Pressure: 40}
	if got := Heuristic(f); got != 1.0 {
		t.Fatalf("expected risk 1.0, got %v", got)
	}
}

func TestHeuristicBaseline(t *testing.T) {
	f := models.Features{Temperature: 70, Vibration: 1.2, PowerUsage: 0.2, Humidity: 50, Pressure: 30}
	if got := Heuristic(f); got != 0.1 {
		t.Fatalf("expected baseline risk 0.1, got %v", got)
	}
}

func TestHeuristicBoundedAndMonotonic(t *testing.T) {
	base := models.Features{Temperature: 70, Vibration: 1.2, PowerUsage: 0.2, Humidity: 50, Pressure: 30}
	raise := []func(models.Features) models.Features{
		func(f models.Features) models.Features { f.Temperature = 90; return f },
		func(f models.Features) models.Features { f.Vibration = 3; return f },
		func(f models.Features) models.Features { f.PowerUsage = 0.4; return f },
		func(f models.Features) models.Features { f.Humidity = 10; return f },
		func(f models.Features) models.Features { f.Pressure = 50; return f },
	}
	current := base
	prev := Heuristic(current)
	for i, fn := range raise {
		current = fn(current)
		got := Heuristic(current)
		if got < prev {
			t.Fatalf("step %d: risk decreased from %v to %v", i, prev, got)
		}
		if got < 0 || got > 1 {
			t.Fatalf("step %d: risk %v out of bounds", i, got)
		}
		prev = got
	}
}

func TestScoreFallsBackWithoutPipeline(t *testing.T) {
	scorer := NewScorer(nil, nil)
	res := scorer.Score(models.Features{Temperature: 80, Vibration: 2.5, PowerUsage: 0.3, Humidity: 80, Pressure: 40})
	if res.Provenance != models.ProvenanceHeuristic || res.Risk != 1.0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if !errors.Is(res.Err, ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", res.Err)
	}
}

func TestScoreUsesModel(t *testing.T) {
	scorer := NewScorer(mustPipeline(t, testDocument(StepClassifier)), nil)

	hot := scorer.Score(models.Features{Temperature: 90, Vibration: 3, PowerUsage: 0.35, Humidity: 60, Pressure: 33, MachineType: "Type_B"})
	if hot.Provenance != models.ProvenanceModel || hot.Risk != 1 {
		t.Fatalf("expected model failure label 1, got %+v", hot)
	}
	calm := scorer.Score(models.Features{Temperature: 68, Vibration: 1.2, PowerUsage: 0.2, Humidity: 45, Pressure: 30})
	if calm.Provenance != models.ProvenanceModel || calm.Risk != 0 {
		t.Fatalf("expected model normal label 0, got %+v", calm)
	}
}

func TestScoreFallsBackOnShapeMismatch(t *testing.T) {
	doc := testDocument(StepClassifier)
	doc.Steps[1].Classifier.Coefficients = []float64{1, 2}
	scorer := NewScorer(mustPipeline(t, doc), nil)

	res := scorer.Score(models.Features{Temperature: 80, Vibration: 1, PowerUsage: 0.1, Humidity: 50, Pressure: 30})
	if res.Provenance != models.ProvenanceHeuristic || res.Err == nil {
		t.Fatalf("expected heuristic fallback, got %+v", res)
	}
	if res.Risk != 0.4 {
		t.Fatalf("expected heuristic risk 0.4, got %v", res.Risk)
	}
}

func TestScoreClampsRegressionOutput(t *testing.T) {
	doc := testDocument(StepModel)
	doc.Steps[1].Classifier.Type = TypeLinearRegression
	doc.Steps[1].Classifier.Intercept = 5
	scorer := NewScorer(mustPipeline(t, doc), nil)

	res := scorer.Score(models.Features{Temperature: 70, Vibration: 1.5, PowerUsage: 0.22, Humidity: 50, Pressure: 30})
	if res.Provenance != models.ProvenanceModel || res.Risk != 1 {
		t.Fatalf("expected clamped model risk 1, got %+v", res)
	}
}

func TestNewPipelineRequiresBothStages(t *testing.T) {
	doc := testDocument(StepClassifier)
	if _, err := NewPipeline(Document{Steps: doc.Steps[:1]}); !errors.Is(err, ErrModelUnavailable) {
		t.Fatalf("expected missing model step error, got %v", err)
	}
	if _, err := NewPipeline(Document{Steps: doc.Steps[1:]}); !errors.Is(err, ErrModelUnavailable) {
		t.Fatalf("expected missing preprocessor error, got %v", err)
	}
	doc.Steps[1].Classifier.Type = "random_forest"
	if _, err := NewPipeline(doc); !errors.Is(err, ErrModelUnavailable) {
		t.Fatalf("expected unknown classifier error, got %v", err)
	}
}

func TestCapabilitiesAndInfo(t *testing.T) {
	scorer := NewScorer(mustPipeline(t, testDocument(StepModel)), nil)
	info, err := scorer.Info()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.ModelStep != StepModel || info.ModelType != TypeLogisticRegression {
		t.Fatalf("unexpected model info: %+v", info)
	}
	if len(info.PipelineSteps) != 2 || info.PipelineSteps[0] != StepPreprocessor {
		t.Fatalf("unexpected steps: %v", info.PipelineSteps)
	}
	if len(info.FeatureNames) != 6 || info.FeatureNames[0] != "num__Temperature" || info.FeatureNames[5] != "remainder__Machine_Type_Code" {
		t.Fatalf("unexpected feature names: %v", info.FeatureNames)
	}
	if info.ModelParams["max_iter"] != 200 {
		t.Fatalf("unexpected params: %v", info.ModelParams)
	}

	doc := testDocument(StepClassifier)
	doc.Steps[1].Classifier.Params = nil
	doc.Steps[1].Classifier.Type = TypeLinearRegression
	p := mustPipeline(t, doc)
	caps := p.Capabilities()
	if caps.Params || caps.PredictProba || !caps.FeatureNames {
		t.Fatalf("unexpected capabilities: %+v", caps)
	}
	if p.Params() != nil {
		t.Fatalf("expected nil params when unsupported")
	}
	if _, err := p.PredictProba([]float64{0, 0, 0, 0, 0, 0}); err == nil {
		t.Fatalf("expected predict_proba to be unsupported")
	}
}

func TestInfoWithoutPipeline(t *testing.T) {
	if _, err := NewScorer(nil, nil).Info(); !errors.Is(err, ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
}

func TestLoadPipelineRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	if err := WriteDocument(path, testDocument(StepClassifier)); err != nil {
		t.Fatalf("write: %v", err)
	}
	p, err := LoadPipeline(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.Source() != path || p.Capabilities().ModelStep != StepClassifier {
		t.Fatalf("unexpected pipeline: source=%s caps=%+v", p.Source(), p.Capabilities())
	}
}

func TestLoadPipelineFailures(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadPipeline(filepath.Join(dir, "missing.yaml")); !errors.Is(err, ErrModelUnavailable) {
		t.Fatalf("expected unavailable for missing file, got %v", err)
	}
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("steps: [name: preprocessor"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadPipeline(bad); !errors.Is(err, ErrModelUnavailable) {
		t.Fatalf("expected unavailable for malformed file, got %v", err)
	}
}

func TestOneHotTransform(t *testing.T) {
	pre := &Preprocessor{Columns: []Column{
		{Name: "Machine_Type", Transform: TransformOneHot, Categories: []string{"Type_A", "Type_B"}},
		{Name: "Pressure", Transform: TransformPassthrough},
	}}
	x, err := pre.Transform(Row{"Machine_Type": "Type_B", "Pressure": 36.94})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(x) != 3 || x[0] != 0 || x[1] != 1 || x[2] != 36.94 {
		t.Fatalf("unexpected vector: %v", x)
	}
	if _, err := pre.Transform(Row{"Machine_Type": 1, "Pressure": 1.0}); err == nil {
		t.Fatalf("expected error for non-string category")
	}
}
