package scoring

import (
	"fmt"
	"math"
)

// Classifier types supported by the scorer.
const (
	TypeLogisticRegression = "logistic_regression"
	TypeLinearRegression   = "linear_regression"
)

// Classifier is a fitted linear model over the preprocessed vector.
type Classifier struct {
	Type         string         `yaml:"type" json:"type"`
	Coefficients []float64      `yaml:"coefficients" json:"coefficients"`
	Intercept    float64        `yaml:"intercept" json:"intercept"`
	Threshold    float64        `yaml:"threshold,omitempty" json:"threshold,omitempty"`
	Params       map[string]any `yaml:"params,omitempty" json:"params,omitempty"`
}

func (c *Classifier) validate() error {
	switch c.Type {
	case TypeLogisticRegression, TypeLinearRegression:
	default:
		return fmt.Errorf("unknown classifier type %q", c.Type)
	}
	if len(c.Coefficients) == 0 {
		return fmt.Errorf("classifier has no coefficients")
	}
	return nil
}

func (c *Classifier) decision(x []float64) (float64, error) {
	if len(x) != len(c.Coefficients) {
		return 0, fmt.Errorf("classifier expects %d features, got %d", len(c.Coefficients), len(x))
	}
	z := c.Intercept
	for i, coef := range c.Coefficients {
		z += coef * x[i]
	}
	return z, nil
}

// Predict returns the predicted value for one transformed row: a 0/1 class
// label for logistic regression, the raw estimate for linear regression.
func (c *Classifier) Predict(x []float64) (float64, error) {
	z, err := c.decision(x)
	if err != nil {
		return 0, err
	}
	if c.Type == TypeLinearRegression {
		return z, nil
	}
	if sigmoid(z) >= c.threshold() {
		return 1, nil
	}
	return 0, nil
}

// PredictProba returns [P(normal), P(failure)] for logistic regression.
func (c *Classifier) PredictProba(x []float64) ([]float64, error) {
	if c.Type != TypeLogisticRegression {
		return nil, fmt.Errorf("%s does not support predict_proba", c.Type)
	}
	z, err := c.decision(x)
	if err != nil {
		return nil, err
	}
	p := sigmoid(z)
	return []float64{1 - p, p}, nil
}

func (c *Classifier) threshold() float64 {
	if c.Threshold <= 0 || c.Threshold >= 1 {
		return 0.5
	}
	return c.Threshold
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
