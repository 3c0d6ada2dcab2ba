package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/iotwatch/predmaint/internal/scoring"
	"github.com/iotwatch/predmaint/internal/services"
	"github.com/iotwatch/predmaint/internal/store"
)

// Handler serves the dashboard routes.
type Handler struct {
	svc    *services.MaintenanceService
	logger *slog.Logger
}

type errorResponse struct {
	Error string `json:"error"`
}

type debugErrorResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	ErrorType string `json:"error_type,omitempty"`
	AccessKey string `json:"aws_access_key_id,omitempty"`
	Region    string `json:"aws_region,omitempty"`
}

type healthResponse struct {
	Status   string  `json:"status"`
	Store    bool    `json:"store"`
	Model    bool    `json:"model"`
	StoreP95 float64 `json:"store_latency_p95_ms"`
	Samples  int     `json:"store_latency_samples"`
}

const storeUnavailableMessage = "DynamoDB connection not available"

// Sensors serves GET /sensors.
func (h *Handler) Sensors(w http.ResponseWriter, r *http.Request) {
	readings, err := h.svc.Sensors(r.Context())
	if err != nil {
		h.logger.Error("sensor query failed", slog.Any("error", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Query failed: " + rootMessage(err)})
		return
	}
	writeJSON(w, http.StatusOK, readings)
}

// Predict serves GET /predict.
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	preds, err := h.svc.Predict(r.Context())
	switch {
	case errors.Is(err, services.ErrNoSensorData):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "No sensor data available"})
		return
	case err != nil:
		h.logger.Error("prediction failed", slog.Any("error", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: rootMessage(err)})
		return
	}
	writeJSON(w, http.StatusOK, preds)
}

// PredictHistory serves GET /predict/history.
func (h *Handler) PredictHistory(w http.ResponseWriter, r *http.Request) {
	preds, err := h.svc.History(r.Context())
	if err != nil {
		h.logger.Error("history lookup failed", slog.Any("error", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, preds)
}

// Assets serves GET /assets.
func (h *Handler) Assets(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Assets())
}

// ModelInfo serves GET /model-info.
func (h *Handler) ModelInfo(w http.ResponseWriter, _ *http.Request) {
	info, err := h.svc.ModelInfo()
	switch {
	case errors.Is(err, scoring.ErrModelUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "ML pipeline not available"})
		return
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// Health serves GET /healthz. The process is live even when both the store
// and the model are missing.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	p95, samples := h.svc.StoreLatency()
	writeJSON(w, http.StatusOK, healthResponse{
		Status:   "ok",
		Store:    h.svc.StoreAvailable(),
		Model:    h.svc.ModelAvailable(),
		StoreP95: float64(p95.Microseconds()) / 1000,
		Samples:  samples,
	})
}

// DebugScanTable serves GET /debug/scan-table.
func (h *Handler) DebugScanTable(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.DebugScanTable(r.Context())
	if err != nil {
		h.writeDebugError(w, err, debugErrorResponse{Message: rootMessage(err)})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// DebugSimpleQuery serves GET /debug/simple-query.
func (h *Handler) DebugSimpleQuery(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.DebugSimpleQuery(r.Context())
	if err != nil {
		h.writeDebugError(w, err, debugErrorResponse{
			Message:   rootMessage(err),
			ErrorType: services.ErrorType(err),
		})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// DebugAWSConnection serves GET /debug/aws-connection.
func (h *Handler) DebugAWSConnection(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.DebugAWSConnection(r.Context())
	if err != nil {
		h.writeDebugError(w, err, debugErrorResponse{
			Message:   "AWS error: " + rootMessage(err),
			AccessKey: h.svc.MaskedAccessKey(),
			Region:    h.svc.Region(),
		})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) writeDebugError(w http.ResponseWriter, err error, resp debugErrorResponse) {
	if errors.Is(err, store.ErrStoreUnavailable) {
		writeJSON(w, http.StatusInternalServerError, debugErrorResponse{Status: "error", Message: storeUnavailableMessage})
		return
	}
	h.logger.Error("debug request failed", slog.Any("error", err))
	resp.Status = "error"
	writeJSON(w, http.StatusInternalServerError, resp)
}

// rootMessage strips store wrapping so clients see the backend's own message.
func rootMessage(err error) string {
	var qe *store.QueryError
	if errors.As(err, &qe) && qe.Err != nil {
		return qe.Err.Error()
	}
	return err.Error()
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
