package event

import "iap/internal/billing"

// PurchasesUpdatedType is the single event type emitted by this service.
const PurchasesUpdatedType = "purchasesUpdated"

// PurchasesUpdatedEvent is the wire shape published on the event subject.
type PurchasesUpdatedEvent struct {
	EventID string           `json:"eventId"`
	Type    string           `json:"type"`
	Data    billing.Envelope `json:"data"`
}
