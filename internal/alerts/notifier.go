package alerts

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/ecotrack/energy-dashboard/internal/domain"
)

// Event is one triggered alert, as surfaced to the caller and published to
// the message bus.
type Event struct {
	AlertID   string         `json:"alert_id"`
	AlertName string         `json:"alert_name"`
	Type      domain.DataType `json:"type"`
	Message   string         `json:"message"`
}

// Publisher fans triggered alerts out to external systems. The MQ-backed
// implementation lives in internal/mq; a nil-safe no-op is used when the
// broker is not configured.
type Publisher interface {
	PublishAlertEvent(ctx context.Context, event Event) error
}

// Notifier evaluates alerts and surfaces each distinct trigger set once.
// Re-evaluating unchanged (alerts, scope, totals) inputs returns nothing, so
// callers polling on every data refresh do not spam notifications.
type Notifier struct {
	publisher Publisher
	logger    *zap.Logger

	mu       sync.Mutex
	lastSeen string
}

// NewNotifier creates a notifier. publisher may be nil.
func NewNotifier(publisher Publisher, logger *zap.Logger) *Notifier {
	return &Notifier{publisher: publisher, logger: logger}
}

// Check evaluates the alerts and returns messages only when the input set
// differs from the previous call. Triggered alerts are published as events;
// publish failures are logged, not propagated.
func (n *Notifier) Check(ctx context.Context, alerts []domain.Alert, scope Scope, totals Totals) []string {
	key := fingerprint(alerts, scope, totals)

	n.mu.Lock()
	unchanged := key == n.lastSeen
	n.lastSeen = key
	n.mu.Unlock()

	if unchanged {
		return nil
	}

	messages := Evaluate(alerts, scope, totals)
	if len(messages) == 0 {
		return nil
	}

	if n.publisher != nil {
		n.publish(ctx, alerts, scope, totals, messages)
	}
	return messages
}

// Reset forgets the last trigger set, e.g. when the active project changes.
func (n *Notifier) Reset() {
	n.mu.Lock()
	n.lastSeen = ""
	n.mu.Unlock()
}

func (n *Notifier) publish(ctx context.Context, alerts []domain.Alert, scope Scope, totals Totals, messages []string) {
	i := 0
	for _, alert := range alerts {
		if !InScope(alert, scope) || !alert.Active {
			continue
		}
		value := totals.Consumption
		if alert.Type == domain.DataTypeGeneration {
			value = totals.Generation
		}
		fired := (alert.Condition == domain.ConditionAbove && value > alert.Threshold) ||
			(alert.Condition == domain.ConditionBelow && value < alert.Threshold)
		if !fired {
			continue
		}

		event := Event{
			AlertID:   alert.ID,
			AlertName: alert.Name,
			Type:      alert.Type,
			Message:   messages[i],
		}
		i++

		if err := n.publisher.PublishAlertEvent(ctx, event); err != nil {
			n.logger.Error("failed to publish alert event",
				zap.Error(err),
				zap.String("alert_id", alert.ID),
			)
		}
	}
}

func fingerprint(alerts []domain.Alert, scope Scope, totals Totals) string {
	payload, _ := json.Marshal(struct {
		Alerts []domain.Alert
		Scope  *int64
		Totals Totals
	}{alerts, scope.ProjectID, totals})
	return fmt.Sprintf("%x", sha256.Sum256(payload))
}
