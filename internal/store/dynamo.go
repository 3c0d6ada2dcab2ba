// Package store reads sensor readings from the DynamoDB table the devices
// publish into.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/iotwatch/predmaint/internal/config"
	"github.com/iotwatch/predmaint/internal/metrics"
	"github.com/iotwatch/predmaint/internal/models"
	"github.com/iotwatch/predmaint/internal/utils"
)

const (
	attrDeviceID  = "deviceId"
	attrTimestamp = "timestamp"

	diagnosticScanLimit = 5
)

// API is the subset of the DynamoDB client used by Store.
type API interface {
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// Store is a read-mostly adapter over the sensor table.
type Store struct {
	api     API
	table   string
	logger  *slog.Logger
	latency *utils.LatencyTracker
	now     func() time.Time
}

// KeyElement is one attribute of the table's primary key.
type KeyElement struct {
	AttributeName string `json:"AttributeName"`
	KeyType       string `json:"KeyType"`
}

// TableDescription summarises the table for diagnostics.
type TableDescription struct {
	Status    string       `json:"status"`
	ItemCount int64        `json:"item_count"`
	KeySchema []KeyElement `json:"key_schema"`
}

// New builds an AWS client from cfg and probes the table. Any failure yields
// an error wrapping ErrStoreUnavailable; callers run without a store.
func New(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (*Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithRetryMaxAttempts(1),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: load aws config: %v", ErrStoreUnavailable, err)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	s := NewWithAPI(client, cfg.Table, logger)

	probeCtx := ctx
	if cfg.ProbeTimeout > 0 {
		var cancel context.CancelFunc
		probeCtx, cancel = context.WithTimeout(ctx, cfg.ProbeTimeout)
		defer cancel()
	}
	desc, err := s.Describe(probeCtx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	s.logger.Info("connected to sensor table",
		slog.String("table", cfg.Table),
		slog.String("region", cfg.Region),
		slog.String("status", desc.Status),
	)
	return s, nil
}

// NewWithAPI wraps an existing DynamoDB client.
func NewWithAPI(api API, table string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		api:     api,
		table:   table,
		logger:  logger,
		latency: utils.NewLatencyTracker(256),
		now:     time.Now,
	}
}

// Table returns the configured table name.
func (s *Store) Table() string { return s.table }

// Latency exposes recent call durations.
func (s *Store) Latency() *utils.LatencyTracker { return s.latency }

// FetchRecent returns up to limit readings for deviceID whose timestamp falls
// within the last window, newest first.
func (s *Store) FetchRecent(ctx context.Context, deviceID string, window time.Duration, limit int) ([]models.SensorReading, error) {
	items, err := s.queryWindow(ctx, "fetch_recent", deviceID, window, limit)
	if err != nil {
		return nil, err
	}
	return s.decodeReadings(items), nil
}

// FetchLatest returns up to limit readings for deviceID, newest first, with no
// time bound.
func (s *Store) FetchLatest(ctx context.Context, deviceID string, limit int) ([]models.SensorReading, error) {
	items, err := s.queryLatest(ctx, "fetch_latest", deviceID, limit)
	if err != nil {
		return nil, err
	}
	return s.decodeReadings(items), nil
}

// Put writes a single reading. Used by local tooling to seed tables.
func (s *Store) Put(ctx context.Context, reading models.SensorReading) error {
	item, err := attributevalue.MarshalMap(reading)
	if err != nil {
		return fmt.Errorf("marshal reading: %w", err)
	}
	start := time.Now()
	_, err = s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	s.observe("put", start, err)
	if err != nil {
		return &QueryError{Op: "put item", Err: err}
	}
	return nil
}

// ScanRaw returns up to limit items as generic maps.
func (s *Store) ScanRaw(ctx context.Context, limit int) ([]map[string]any, error) {
	start := time.Now()
	out, err := s.api.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(s.table),
		Limit:     aws.Int32(int32(limit)),
	})
	s.observe("scan", start, err)
	if err != nil {
		return nil, &QueryError{Op: "scan", Err: err}
	}
	return decodeRaw(out.Items)
}

// QueryRaw runs the device-only key query and returns generic maps.
func (s *Store) QueryRaw(ctx context.Context, deviceID string, limit int) ([]map[string]any, error) {
	items, err := s.queryLatest(ctx, "query_raw", deviceID, limit)
	if err != nil {
		return nil, err
	}
	return decodeRaw(items)
}

// QueryWindowRaw runs the windowed key query and returns generic maps.
func (s *Store) QueryWindowRaw(ctx context.Context, deviceID string, window time.Duration, limit int) ([]map[string]any, error) {
	items, err := s.queryWindow(ctx, "query_window_raw", deviceID, window, limit)
	if err != nil {
		return nil, err
	}
	return decodeRaw(items)
}

// Describe fetches the table's status, item count and key schema.
func (s *Store) Describe(ctx context.Context) (TableDescription, error) {
	start := time.Now()
	out, err := s.api.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.table)})
	s.observe("describe", start, err)
	if err != nil {
		return TableDescription{}, &QueryError{Op: "describe table", Err: err}
	}
	if out.Table == nil {
		return TableDescription{}, &QueryError{Op: "describe table", Err: fmt.Errorf("table %s has no description", s.table)}
	}
	desc := TableDescription{
		Status:    string(out.Table.TableStatus),
		ItemCount: aws.ToInt64(out.Table.ItemCount),
		KeySchema: make([]KeyElement, 0, len(out.Table.KeySchema)),
	}
	for _, k := range out.Table.KeySchema {
		desc.KeySchema = append(desc.KeySchema, KeyElement{
			AttributeName: aws.ToString(k.AttributeName),
			KeyType:       string(k.KeyType),
		})
	}
	return desc, nil
}

// KeySchema returns the table's primary key attributes.
func (s *Store) KeySchema(ctx context.Context) ([]KeyElement, error) {
	desc, err := s.Describe(ctx)
	if err != nil {
		return nil, err
	}
	return desc.KeySchema, nil
}

// TableStatus returns the table lifecycle status, e.g. ACTIVE.
func (s *Store) TableStatus(ctx context.Context) (string, error) {
	desc, err := s.Describe(ctx)
	if err != nil {
		return "", err
	}
	return desc.Status, nil
}

func (s *Store) queryWindow(ctx context.Context, op, deviceID string, window time.Duration, limit int) ([]map[string]types.AttributeValue, error) {
	from, to := utils.Window(s.now(), window)
	keyCond := expression.Key(attrDeviceID).Equal(expression.Value(deviceID)).
		And(expression.Key(attrTimestamp).Between(expression.Value(from), expression.Value(to)))
	s.logger.Debug("querying sensor window",
		slog.String("device_id", deviceID),
		slog.String("from", from),
		slog.String("to", to),
		slog.Int("limit", limit),
	)
	return s.query(ctx, op, keyCond, limit)
}

func (s *Store) queryLatest(ctx context.Context, op, deviceID string, limit int) ([]map[string]types.AttributeValue, error) {
	keyCond := expression.Key(attrDeviceID).Equal(expression.Value(deviceID))
	return s.query(ctx, op, keyCond, limit)
}

func (s *Store) query(ctx context.Context, op string, keyCond expression.KeyConditionBuilder, limit int) ([]map[string]types.AttributeValue, error) {
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, &QueryError{Op: op, Err: fmt.Errorf("build key condition: %w", err)}
	}

	start := time.Now()
	out, err := s.api.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(s.table),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
		Limit:                     aws.Int32(int32(limit)),
	})
	s.observe(op, start, err)
	if err != nil {
		s.diagnose(ctx, op, err)
		return nil, &QueryError{Op: op, Err: err}
	}
	s.logger.Debug("sensor query complete", slog.String("op", op), slog.Int("items", len(out.Items)))
	return out.Items, nil
}

// diagnose logs a small table scan after a failed query. Its outcome never
// changes the error returned to the caller.
func (s *Store) diagnose(ctx context.Context, op string, cause error) {
	s.logger.Error("sensor query failed", slog.String("op", op), slog.Any("error", cause))

	start := time.Now()
	out, err := s.api.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(s.table),
		Limit:     aws.Int32(diagnosticScanLimit),
	})
	s.observe("diagnostic_scan", start, err)
	if err != nil {
		s.logger.Error("diagnostic scan failed", slog.Any("error", err))
		return
	}
	rows, err := decodeRaw(out.Items)
	if err != nil {
		s.logger.Error("diagnostic scan decode failed", slog.Any("error", err))
		return
	}
	s.logger.Info("diagnostic scan", slog.Int("items", len(rows)), slog.Any("sample", rows))
}

func (s *Store) observe(op string, start time.Time, err error) {
	elapsed := time.Since(start)
	s.latency.Observe(elapsed)
	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeError
	}
	metrics.ObserveStoreQuery(op, elapsed, outcome)
}

// decodeReadings decodes rows one at a time; a row that cannot be decoded is
// logged and skipped so it does not hide the rest of the result.
func (s *Store) decodeReadings(items []map[string]types.AttributeValue) []models.SensorReading {
	readings := make([]models.SensorReading, 0, len(items))
	for i, item := range items {
		var r models.SensorReading
		if err := attributevalue.UnmarshalMap(item, &r); err != nil {
			s.logger.Warn("skipping undecodable sensor row", slog.Int("index", i), slog.Any("error", err))
			continue
		}
		readings = append(readings, r)
	}
	return readings
}

func decodeRaw(items []map[string]types.AttributeValue) ([]map[string]any, error) {
	rows := make([]map[string]any, 0, len(items))
	if err := attributevalue.UnmarshalListOfMaps(items, &rows); err != nil {
		return nil, &QueryError{Op: "decode items", Err: err}
	}
	return rows, nil
}
