package scoring

import (
	"fmt"
	"maps"
)

// Capabilities records which optional operations the loaded pipeline
// supports. It is computed once at load time.
type Capabilities struct {
	ModelStep    string
	FeatureNames bool
	Params       bool
	PredictProba bool
}

// Pipeline is a validated preprocessor + classifier pair.
type Pipeline struct {
	steps        []string
	preprocessor *Preprocessor
	classifier   *Classifier
	caps         Capabilities
	source       string
}

// NewPipeline validates doc and builds a Pipeline. Both a preprocessor step
// and a classifier (or legacy model) step are required.
func NewPipeline(doc Document) (*Pipeline, error) {
	p := &Pipeline{}
	for _, step := range doc.Steps {
		p.steps = append(p.steps, step.Name)
		switch step.Name {
		case StepPreprocessor:
			p.preprocessor = step.Preprocessor
		case StepClassifier, StepModel:
			// classifier wins when both names are present
			if step.Classifier != nil && (p.classifier == nil || step.Name == StepClassifier) {
				p.classifier = step.Classifier
				p.caps.ModelStep = step.Name
			}
		}
	}

	if p.preprocessor == nil {
		return nil, fmt.Errorf("%w: pipeline missing required step: %s", ErrModelUnavailable, StepPreprocessor)
	}
	if p.classifier == nil {
		return nil, fmt.Errorf("%w: pipeline missing model step, expected one of: %s, %s", ErrModelUnavailable, StepClassifier, StepModel)
	}
	if err := p.preprocessor.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	if err := p.classifier.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}

	p.caps.FeatureNames = p.preprocessor.namedColumns()
	p.caps.Params = p.classifier.Params != nil
	p.caps.PredictProba = p.classifier.Type == TypeLogisticRegression
	return p, nil
}

// Steps returns the step names in pipeline order.
func (p *Pipeline) Steps() []string {
	return append([]string(nil), p.steps...)
}

// Capabilities returns the optional-operation descriptor.
func (p *Pipeline) Capabilities() Capabilities {
	return p.caps
}

// ModelType names the classifier implementation.
func (p *Pipeline) ModelType() string {
	return p.classifier.Type
}

// PreprocessorType names the preprocessor implementation.
func (p *Pipeline) PreprocessorType() string {
	return "column_transformer"
}

// Source is the artifact path the pipeline was loaded from.
func (p *Pipeline) Source() string {
	return p.source
}

// Transform applies the preprocessing stage.
func (p *Pipeline) Transform(row Row) ([]float64, error) {
	return p.preprocessor.Transform(row)
}

// Predict runs the model stage on an already transformed vector.
func (p *Pipeline) Predict(x []float64) (float64, error) {
	return p.classifier.Predict(x)
}

// PredictProba runs the model's probability estimate when supported.
func (p *Pipeline) PredictProba(x []float64) ([]float64, error) {
	if !p.caps.PredictProba {
		return nil, fmt.Errorf("%s does not support predict_proba", p.classifier.Type)
	}
	return p.classifier.PredictProba(x)
}

// FeatureNames returns the transformed feature names, or nil when the
// preprocessor cannot name them.
func (p *Pipeline) FeatureNames() []string {
	if !p.caps.FeatureNames {
		return nil
	}
	return p.preprocessor.FeatureNamesOut()
}

// Params returns a copy of the model hyperparameters, or nil when absent.
func (p *Pipeline) Params() map[string]any {
	if !p.caps.Params {
		return nil
	}
	return maps.Clone(p.classifier.Params)
}
