// Command pipeline-combine joins a fitted preprocessor and a fitted model into
// the single pipeline artifact the API loads at startup.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/iotwatch/predmaint/internal/scoring"
	"github.com/iotwatch/predmaint/internal/utils"
)

func main() {
	var (
		preprocPath string
		modelPath   string
		outPath     string
	)
	flag.StringVar(&preprocPath, "preprocessor", "./models/preproc.yaml", "Path to the fitted preprocessor artifact")
	flag.StringVar(&modelPath, "model", "./models/model.yaml", "Path to the fitted model artifact")
	flag.StringVar(&outPath, "out", "pipeline.yaml", "Where to write the combined pipeline")
	flag.Parse()

	logger := utils.NewLogger("info", false)

	pipeline, err := combine(preprocPath, modelPath, outPath)
	if err != nil {
		logger.Error("combine failed", slog.Any("error", err))
		os.Exit(1)
	}
	fmt.Printf("Combined pipeline saved as %s (steps: %v)\n", outPath, pipeline.Steps())
}

// combine validates the two stages as a pipeline before writing it.
func combine(preprocPath, modelPath, outPath string) (*scoring.Pipeline, error) {
	preproc, err := scoring.ReadStep(preprocPath)
	if err != nil {
		return nil, fmt.Errorf("read preprocessor: %w", err)
	}
	if preproc.Preprocessor == nil {
		return nil, fmt.Errorf("%s does not contain a preprocessor", preprocPath)
	}
	model, err := scoring.ReadStep(modelPath)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	if model.Classifier == nil {
		return nil, fmt.Errorf("%s does not contain a model", modelPath)
	}

	doc := scoring.Document{Steps: []scoring.Step{
		{Name: scoring.StepPreprocessor, Preprocessor: preproc.Preprocessor},
		{Name: scoring.StepModel, Classifier: model.Classifier},
	}}
	pipeline, err := scoring.NewPipeline(doc)
	if err != nil {
		return nil, err
	}
	if err := scoring.WriteDocument(outPath, doc); err != nil {
		return nil, err
	}
	return pipeline, nil
}
