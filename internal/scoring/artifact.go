package scoring

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Step names recognised in a pipeline artifact.
const (
	StepPreprocessor = "preprocessor"
	StepClassifier   = "classifier"
	// StepModel is the legacy name written by older combine runs.
	StepModel = "model"
)

// ErrModelUnavailable marks a pipeline that could not be loaded or validated.
var ErrModelUnavailable = errors.New("ml pipeline not available")

// Document is the on-disk form of a pipeline: an ordered list of named steps.
// YAML and JSON encodings are both accepted.
type Document struct {
	Steps []Step `yaml:"steps" json:"steps"`
}

// Step is one named stage. Exactly one of Preprocessor or Classifier is set.
type Step struct {
	Name         string        `yaml:"name" json:"name"`
	Preprocessor *Preprocessor `yaml:"preprocessor,omitempty" json:"preprocessor,omitempty"`
	Classifier   *Classifier   `yaml:"classifier,omitempty" json:"classifier,omitempty"`
}

// GridSearchResult is the artifact written by a hyperparameter search run.
type GridSearchResult struct {
	BestParams    map[string]any `yaml:"best_params" json:"best_params"`
	BestScore     float64        `yaml:"best_score" json:"best_score"`
	BestEstimator Document       `yaml:"best_estimator" json:"best_estimator"`
}

// LoadPipeline reads, decodes and validates the pipeline artifact at path.
func LoadPipeline(path string) (*Pipeline, error) {
	var doc Document
	if err := readArtifact(path, &doc); err != nil {
		return nil, err
	}
	p, err := NewPipeline(doc)
	if err != nil {
		return nil, err
	}
	p.source = path
	return p, nil
}

// LoadGridSearch reads a grid-search artifact and validates its best estimator.
func LoadGridSearch(path string) (GridSearchResult, *Pipeline, error) {
	var result GridSearchResult
	if err := readArtifact(path, &result); err != nil {
		return GridSearchResult{}, nil, err
	}
	p, err := NewPipeline(result.BestEstimator)
	if err != nil {
		return GridSearchResult{}, nil, err
	}
	p.source = path
	return result, p, nil
}

// WriteDocument serialises doc to path as YAML.
func WriteDocument(path string, doc Document) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal pipeline: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write pipeline: %w", err)
	}
	return nil
}

// ReadStep decodes a single-stage artifact, as produced by a fitting job.
func ReadStep(path string) (Step, error) {
	var step Step
	if err := readArtifact(path, &step); err != nil {
		return Step{}, err
	}
	return step, nil
}

func readArtifact(path string, out any) error {
	if path == "" {
		return fmt.Errorf("%w: artifact path not configured", ErrModelUnavailable)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", ErrModelUnavailable, path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrModelUnavailable, path, err)
	}
	return nil
}
