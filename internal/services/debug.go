package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/iotwatch/predmaint/internal/store"
	"github.com/iotwatch/predmaint/internal/utils"
)

const (
	debugScanLimit   = 10
	debugSampleSize  = 3
	debugQueryLimit  = 5
	debugWindowLimit = 2

	timestampPrefixLen = 19
)

// ScanTableReport summarises a small table scan.
type ScanTableReport struct {
	Status           string             `json:"status"`
	TableName        string             `json:"table_name"`
	KeySchema        []store.KeyElement `json:"key_schema"`
	ItemCount        int                `json:"item_count"`
	SampleItems      []map[string]any   `json:"sample_items"`
	AllDeviceIDs     []string           `json:"all_device_ids"`
	TimestampFormats []string           `json:"timestamp_formats"`
}

// SimpleQueryReport is the result of the device-only key query.
type SimpleQueryReport struct {
	Status     string           `json:"status"`
	FoundItems int              `json:"found_items"`
	Items      []map[string]any `json:"items"`
	QueryUsed  string           `json:"query_used"`
}

// ConnectionReport is the result of the windowed connectivity check.
type ConnectionReport struct {
	Status          string           `json:"status"`
	Connection      string           `json:"connection"`
	TableStatus     string           `json:"table_status"`
	ItemsRetrieved  int              `json:"items_retrieved"`
	SampleData      []map[string]any `json:"sample_data"`
	QueryTimestamps QueryWindow      `json:"query_timestamps"`
}

// QueryWindow holds the formatted bounds of a key-range query.
type QueryWindow struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// DebugScanTable scans a handful of rows and describes the table.
func (s *MaintenanceService) DebugScanTable(ctx context.Context) (ScanTableReport, error) {
	if s.store == nil {
		return ScanTableReport{}, store.ErrStoreUnavailable
	}
	rows, err := s.store.ScanRaw(ctx, debugScanLimit)
	if err != nil {
		return ScanTableReport{}, utils.NewAppError("debug.scan", "scan failed", err)
	}
	keySchema, err := s.store.KeySchema(ctx)
	if err != nil {
		return ScanTableReport{}, utils.NewAppError("debug.scan", "describe failed", err)
	}

	report := ScanTableReport{
		Status:           "success",
		TableName:        s.store.Table(),
		KeySchema:        keySchema,
		ItemCount:        len(rows),
		AllDeviceIDs:     []string{},
		TimestampFormats: []string{},
	}
	if len(rows) > 0 {
		report.SampleItems = rows[:min(debugSampleSize, len(rows))]
	}

	seenIDs := make(map[string]struct{})
	seenFormats := make(map[string]struct{})
	for _, row := range rows {
		id, _ := row["deviceId"].(string)
		if _, present := row["deviceId"]; !present {
			id = "NO_DEVICE_ID"
		}
		if _, dup := seenIDs[id]; !dup {
			seenIDs[id] = struct{}{}
			report.AllDeviceIDs = append(report.AllDeviceIDs, id)
		}

		ts, _ := row["timestamp"].(string)
		if ts == "" {
			continue
		}
		prefix := ts[:min(timestampPrefixLen, len(ts))]
		if _, dup := seenFormats[prefix]; !dup {
			seenFormats[prefix] = struct{}{}
			report.TimestampFormats = append(report.TimestampFormats, prefix)
		}
	}
	return report, nil
}

// DebugSimpleQuery runs the device-only query without a time bound.
func (s *MaintenanceService) DebugSimpleQuery(ctx context.Context) (SimpleQueryReport, error) {
	if s.store == nil {
		return SimpleQueryReport{}, store.ErrStoreUnavailable
	}
	rows, err := s.store.QueryRaw(ctx, s.settings.DeviceID, debugQueryLimit)
	if err != nil {
		return SimpleQueryReport{}, err
	}
	return SimpleQueryReport{
		Status:     "success",
		FoundItems: len(rows),
		Items:      rows,
		QueryUsed:  fmt.Sprintf("deviceId = '%s' (no timestamp filter)", s.settings.DeviceID),
	}, nil
}

// DebugAWSConnection runs a tiny windowed query and reports table status.
func (s *MaintenanceService) DebugAWSConnection(ctx context.Context) (ConnectionReport, error) {
	if s.store == nil {
		return ConnectionReport{}, store.ErrStoreUnavailable
	}
	from, to := utils.Window(s.now(), s.settings.Window)
	rows, err := s.store.QueryWindowRaw(ctx, s.settings.DeviceID, s.settings.Window, debugWindowLimit)
	if err != nil {
		return ConnectionReport{}, err
	}

	tableStatus := "Unknown"
	if status, err := s.store.TableStatus(ctx); err == nil && status != "" {
		tableStatus = status
	}

	report := ConnectionReport{
		Status:          "success",
		Connection:      "active",
		TableStatus:     tableStatus,
		ItemsRetrieved:  len(rows),
		QueryTimestamps: QueryWindow{From: from, To: to},
	}
	if len(rows) > 0 {
		report.SampleData = rows
	}
	return report, nil
}

// MaskedAccessKey returns the first four characters of the configured access
// key followed by "...", or "Not set".
func (s *MaintenanceService) MaskedAccessKey() string {
	key := s.settings.AccessKeyID
	if key == "" {
		return "Not set"
	}
	return key[:min(4, len(key))] + "..."
}

// Region returns the configured store region.
func (s *MaintenanceService) Region() string { return s.settings.Region }

// ErrorType names the concrete type of the root cause of err.
func ErrorType(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return fmt.Sprintf("%T", err)
		}
		err = next
	}
}
