// Command pipeline-verify loads a grid-search artifact and scores a fixed
// sample reading with its best estimator.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/iotwatch/predmaint/internal/scoring"
	"github.com/iotwatch/predmaint/internal/utils"
)

// sampleInput mirrors a reading close to the alert boundary.
var sampleInput = scoring.Row{
	"Temperature":  65.36,
	"Vibration":    3.36,
	"Power_Usage":  0.247,
	"Humidity":     37.72,
	"Pressure":     36.94,
	"Machine_Type": "Type_A",
}

var sampleColumns = []string{"Temperature", "Vibration", "Power_Usage", "Humidity", "Pressure", "Machine_Type"}

func main() {
	var modelPath string
	flag.StringVar(&modelPath, "model", "./grid_search_model.yaml", "Path to the grid-search artifact")
	flag.Parse()

	logger := utils.NewLogger("info", false)
	if err := run(os.Stdout, modelPath); err != nil {
		logger.Error("verification failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(w io.Writer, path string) error {
	result, pipeline, err := scoring.LoadGridSearch(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Best parameters found: %v\n", result.BestParams)
	fmt.Fprintf(w, "Best score: %.4f\n", result.BestScore)

	fmt.Fprintln(w, "\nSample input:")
	for _, col := range sampleColumns {
		fmt.Fprintf(w, "  %-13s %v\n", col, sampleInput[col])
	}

	x, err := pipeline.Transform(sampleInput)
	if err != nil {
		return fmt.Errorf("transform sample: %w", err)
	}
	fmt.Fprintf(w, "\nTransformed data shape: (1, %d)\n", len(x))

	caps := pipeline.Capabilities()
	if names := pipeline.FeatureNames(); names != nil {
		fmt.Fprintln(w, "Transformed feature names:", names)
		fmt.Fprintln(w, "Number of features:", len(names))
	}
	if caps.ModelStep != scoring.StepClassifier {
		return fmt.Errorf("best estimator has no %s step (found %s)", scoring.StepClassifier, caps.ModelStep)
	}

	prediction, err := pipeline.Predict(x)
	if err != nil {
		fmt.Fprintf(w, "Prediction error: %v\n", err)
		return nil
	}
	fmt.Fprintf(w, "\nPrediction for the data is: %v\n", prediction)
	if prediction == 1 {
		fmt.Fprintln(w, "ALERT: Threshold exceeded! Maintenance required.")
	} else {
		fmt.Fprintln(w, "Status: Normal operation.")
	}

	if caps.PredictProba {
		proba, err := pipeline.PredictProba(x)
		if err != nil {
			fmt.Fprintf(w, "Prediction error: %v\n", err)
			return nil
		}
		fmt.Fprintf(w, "Failure probability: %.4f\n", proba[1])
	}
	return nil
}
