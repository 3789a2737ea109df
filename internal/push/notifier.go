package push

import (
	"errors"
	"log/slog"

	"github.com/perchwood/curbside/internal/store"
)

// Notifier fans a reminder out to every subscription an account holds.
// It satisfies the reminder engine's delivery interface. A user who never
// granted notification permission simply has no subscriptions, so delivery
// quietly does nothing.
type Notifier struct {
	service *Service
	subs    *store.PushStore
	logger  *slog.Logger
}

func NewNotifier(service *Service, subs *store.PushStore, logger *slog.Logger) *Notifier {
	return &Notifier{service: service, subs: subs, logger: logger}
}

func (n *Notifier) Notify(accountID int64, title, body string) {
	subs, err := n.subs.ListByAccount(accountID)
	if err != nil {
		n.logger.Error("list subscriptions", "account_id", accountID, "error", err)
		return
	}

	payload := Payload{Title: title, Body: body, URL: "/schedules", Tag: "pickup-reminder"}

	for _, sub := range subs {
		if err := n.service.Send(&sub, payload); err != nil {
			if errors.Is(err, ErrExpired) {
				n.subs.DeleteByEndpoint(sub.Endpoint)
				continue
			}
			n.logger.Error("send reminder", "account_id", accountID, "error", err)
		}
	}
}
