package paystack

import (
	"encoding/json"
	"fmt"
)

// Webhook event names this system reacts to. Anything else is acknowledged
// and ignored.
const (
	EventChargeSuccess = "charge.success"
	EventChargeFailed  = "charge.failed"
)

// Event is the decoded webhook payload.
type Event struct {
	Event string    `json:"event"`
	Data  EventData `json:"data"`
}

// EventData carries the charge details of a webhook event.
type EventData struct {
	ID            int64              `json:"id"`
	Reference     string             `json:"reference"`
	Amount        int64              `json:"amount"`
	Currency      string             `json:"currency"`
	Status        string             `json:"status"`
	Channel       string             `json:"channel"`
	PaidAt        string             `json:"paid_at"`
	Customer      EventCustomer      `json:"customer"`
	Metadata      *EventMetadata     `json:"metadata,omitempty"`
	Authorization *EventAuthorization `json:"authorization,omitempty"`
}

type EventCustomer struct {
	Email string `json:"email"`
}

// EventMetadata echoes the metadata attached at charge initialization.
type EventMetadata struct {
	UserID        string `json:"user_id"`
	ProductID     string `json:"product_id"`
	TransactionID string `json:"transaction_id"`
}

type EventAuthorization struct {
	CardType string `json:"card_type"`
}

// ParseEvent decodes a raw webhook body.
func ParseEvent(body []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("decode webhook event: %w", err)
	}
	return &event, nil
}

// CardType returns the card type if the event carries one.
func (e *Event) CardType() string {
	if e.Data.Authorization == nil {
		return ""
	}
	return e.Data.Authorization.CardType
}
