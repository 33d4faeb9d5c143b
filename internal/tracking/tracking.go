// Package tracking records business analytics events for fulfilled orders.
// Tracking is fire-and-forget: a sink failure is logged and never affects
// the pipeline outcome.
package tracking

import (
	"context"
	"log/slog"
	"time"

	"github.com/snapkeep/printworks/internal/billing"
	"github.com/snapkeep/printworks/internal/model"
	"github.com/snapkeep/printworks/pkg/collection"
)

// Event names emitted by the print worker.
const (
	EventShipped  = "Shipped photos"
	EventInvoiced = "Invoiced"
)

// Event is one structured analytics record.
type Event struct {
	Name   string         `json:"event"`
	UserID string         `json:"userId"`
	Time   time.Time      `json:"time"`
	Props  map[string]any `json:"properties"`
}

// Sink accepts structured event records.
type Sink interface {
	Track(ctx context.Context, event Event) error
}

// Manager builds and emits the worker's analytics events.
type Manager struct {
	sink    Sink
	enabled bool
	log     *slog.Logger
}

// NewManager wires the tracking manager. With enabled false every call is a
// no-op.
func NewManager(sink Sink, enabled bool, log *slog.Logger) *Manager {
	return &Manager{sink: sink, enabled: enabled, log: log}
}

// TrackShipped emits the "Shipped photos" event with the own/friends photo
// split. Orders with no photos emit nothing.
func (m *Manager) TrackShipped(ctx context.Context, user *model.User, order *model.Order) {
	if !m.enabled {
		return
	}

	total := len(order.Photos)
	if total == 0 {
		m.log.Info("no photos to track", "user", user.Username, "period", order.Period)
		return
	}

	owned := collection.Count(order.Photos, func(p model.Photo) bool { return p.IsOwner })

	m.emit(ctx, Event{
		Name:   EventShipped,
		UserID: user.ID.Hex(),
		Time:   order.EndDate,
		Props: map[string]any{
			"orderId":           order.ID.Hex(),
			"photoCount":        total,
			"ownPhotoCount":     owned,
			"friendsPhotoCount": total - owned,
			"period":            order.Period,
			"startDate":         order.StartDate,
			"endDate":           order.EndDate,
			"shippedOn":         order.EndDate,
		},
	})
}

// TrackInvoiced emits the "Invoiced" event for a billing run, including a
// per-line-item error summary when submission was incomplete.
func (m *Manager) TrackInvoiced(ctx context.Context, user *model.User, info billing.PaymentInfo) {
	if !m.enabled {
		return
	}

	summary := ""
	if info.ShippingErr != nil {
		summary += "[Error invoicing shipping charge:] " + info.ShippingErr.Error() + "\n"
	}
	if info.PhotosErr != nil {
		summary += "[Error invoicing photos charge:] " + info.PhotosErr.Error()
	}

	m.emit(ctx, Event{
		Name:   EventInvoiced,
		UserID: user.ID.Hex(),
		Time:   time.Now(),
		Props: map[string]any{
			"status":         info.Status,
			"photos":         info.PhotoCount,
			"shippingCharge": info.ShippingCents,
			"photoCharge":    info.PhotoChargeCents,
			"error":          summary,
			"invoicingDate":  time.Now(),
		},
	})
}

func (m *Manager) emit(ctx context.Context, event Event) {
	if err := m.sink.Track(ctx, event); err != nil {
		m.log.Error("tracking event failed", "event", event.Name, "user", event.UserID, "error", err)
	}
}
