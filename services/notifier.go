package services

import (
	"github.com/rifqimaulido/pickup-app/models"
	"github.com/rifqimaulido/pickup-app/utils"
)

// Notification kinds
const (
	NotifyConfirmation = "confirmation"
	NotifyReady        = "ready"
	NotifyCancelled    = "cancelled"
)

// Notifier delivers order notifications. Delivery is fire-and-forget:
// failures are logged by the caller and never block or reverse an order
// transaction.
type Notifier interface {
	Notify(order *models.Order, kind string) error
}

// LogNotifier is the default Notifier when no broker is configured; it only
// writes the event to the application log.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Notify(order *models.Order, kind string) error {
	utils.InfoLogger.Printf("notification %s for order %s (%s)",
		kind, order.OrderNumber, order.CustomerLabel())
	return nil
}

// notifyAsync dispatches a notification in the background and logs a
// failure instead of propagating it.
func notifyAsync(n Notifier, order *models.Order, kind string) {
	if n == nil || order == nil {
		return
	}
	go func() {
		if err := n.Notify(order, kind); err != nil {
			utils.ErrorLogger.Errorf("failed to send %s notification for order %s: %v",
				kind, order.OrderNumber, err)
		}
	}()
}
