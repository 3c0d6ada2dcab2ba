// Command seed writes synthetic readings into the sensor table so the API can
// be exercised against DynamoDB Local or a scratch table.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/iotwatch/predmaint/internal/config"
	"github.com/iotwatch/predmaint/internal/models"
	"github.com/iotwatch/predmaint/internal/simulate"
	"github.com/iotwatch/predmaint/internal/store"
	"github.com/iotwatch/predmaint/internal/utils"
)

var machineTypes = []string{"Type_A", "Type_B", "Type_C"}

func main() {
	var (
		configPath string
		count      int
	)
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.IntVar(&count, "count", 48, "Number of readings to write, one minute apart")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", configPath), slog.Any("error", err))
		os.Exit(1)
	}
	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.New(ctx, cfg.Store, logger)
	if err != nil {
		logger.Error("sensor store unavailable", slog.Any("error", err))
		os.Exit(1)
	}

	readings := toReadings(cfg.Store.DeviceID, simulate.New(cfg.Store.DeviceID).Readings(count))
	for i, r := range readings {
		if err := st.Put(ctx, r); err != nil {
			logger.Error("put failed", slog.Int("index", i), slog.Any("error", err))
			os.Exit(1)
		}
	}
	logger.Info("seeded sensor table",
		slog.String("table", cfg.Store.Table),
		slog.String("device_id", cfg.Store.DeviceID),
		slog.Int("readings", len(readings)),
	)
}

// toReadings converts simulated views into table rows, cycling machine types.
func toReadings(deviceID string, views []models.SensorView) []models.SensorReading {
	out := make([]models.SensorReading, 0, len(views))
	for i, v := range views {
		out = append(out, models.SensorReading{
			DeviceID:    deviceID,
			Timestamp:   v.Timestamp,
			Temperature: models.Float(v.Temperature),
			Vibration:   models.Float(v.Vibration),
			PowerUsage:  models.Float(v.PowerConsumption),
			Humidity:    models.Float(v.Humidity),
			Pressure:    models.Float(v.Pressure),
			MachineType: machineTypes[i%len(machineTypes)],
		})
	}
	return out
}
