package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/iotwatch/predmaint/internal/scoring"
)

const preprocYAML = `name: preprocessor
preprocessor:
  columns:
    - name: Temperature
      transform: scale
      mean: 70
      scale: 5
    - name: Machine_Type_Code
      transform: passthrough
`

const modelYAML = `name: model
classifier:
  type: logistic_regression
  coefficients: [1.5, 0.2]
  intercept: -0.5
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestCombineWritesLoadablePipeline(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "pipeline.yaml")

	if _, err := combine(writeFile(t, dir, "preproc.yaml", preprocYAML), writeFile(t, dir, "model.yaml", modelYAML), out); err != nil {
		t.Fatalf("combine: %v", err)
	}

	p, err := scoring.LoadPipeline(out)
	if err != nil {
		t.Fatalf("load combined pipeline: %v", err)
	}
	steps := p.Steps()
	if len(steps) != 2 || steps[0] != scoring.StepPreprocessor || steps[1] != scoring.StepModel {
		t.Fatalf("unexpected steps: %v", steps)
	}
	if p.Capabilities().ModelStep != scoring.StepModel {
		t.Fatalf("unexpected model step: %s", p.Capabilities().ModelStep)
	}
}

func TestCombineRejectsSwappedInputs(t *testing.T) {
	dir := t.TempDir()
	preproc := writeFile(t, dir, "preproc.yaml", preprocYAML)
	model := writeFile(t, dir, "model.yaml", modelYAML)
	out := filepath.Join(dir, "pipeline.yaml")

	if _, err := combine(model, preproc, out); err == nil {
		t.Fatalf("expected error for swapped inputs")
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("no artifact should be written on failure")
	}
}
