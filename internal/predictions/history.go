package predictions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iotwatch/predmaint/internal/cache"
	"github.com/iotwatch/predmaint/internal/models"
)

const historyKey = "predictions:latest"

// Snapshot is one assembled prediction list.
type Snapshot struct {
	ID          string              `json:"id"`
	RecordedAt  time.Time           `json:"recorded_at"`
	Predictions []models.Prediction `json:"predictions"`
}

// History holds the most recently assembled prediction list. Concurrent
// writers race and the last Replace wins; no ordering across requests is kept.
type History struct {
	provider cache.Provider
	size     int
	now      func() time.Time

	mu sync.Mutex
}

// NewHistory stores snapshots in provider, keeping at most size predictions
// per snapshot. A nil provider falls back to an in-memory cache.
func NewHistory(provider cache.Provider, size int) *History {
	if provider == nil {
		provider = cache.NewMemoryProvider()
	}
	if size <= 0 {
		size = Target
	}
	return &History{provider: provider, size: size, now: time.Now}
}

// Replace overwrites the stored snapshot with preds.
func (h *History) Replace(ctx context.Context, preds []models.Prediction) (Snapshot, error) {
	kept := preds
	if len(kept) > h.size {
		kept = kept[:h.size]
	}
	snap := Snapshot{
		ID:          uuid.NewString(),
		RecordedAt:  h.now().UTC(),
		Predictions: append([]models.Prediction(nil), kept...),
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return Snapshot{}, fmt.Errorf("encode history: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.provider.Set(ctx, historyKey, payload, 0); err != nil {
		return Snapshot{}, fmt.Errorf("store history: %w", err)
	}
	return snap, nil
}

// Latest returns the most recent snapshot. ok is false when nothing has been
// recorded yet.
func (h *History) Latest(ctx context.Context) (snap Snapshot, ok bool, err error) {
	h.mu.Lock()
	payload, err := h.provider.Get(ctx, historyKey)
	h.mu.Unlock()
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, fmt.Errorf("load history: %w", err)
	}
	if err := json.Unmarshal(payload, &snap); err != nil {
		return Snapshot{}, false, fmt.Errorf("decode history: %w", err)
	}
	return snap, true, nil
}
