package amqp

import (
	"encoding/json"
	"time"
)

// BudgetAlertMessage is the lightweight message the sweep publishes for each
// budget that needs an alert. It carries only identifiers and the level at
// sweep time; the notify worker re-reads the budget and renders the email, so
// a queued payload can never go stale.
type BudgetAlertMessage struct {
	BudgetID  string    `json:"budgetId"`
	OwnerID   string    `json:"ownerId"`
	Level     string    `json:"level"`
	Timestamp time.Time `json:"timestamp"`
}

func NewBudgetAlertMessage(budgetID, ownerID, level string) *BudgetAlertMessage {
	return &BudgetAlertMessage{
		BudgetID:  budgetID,
		OwnerID:   ownerID,
		Level:     level,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *BudgetAlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BudgetAlertMessageFromJSON creates a message from JSON bytes
func BudgetAlertMessageFromJSON(data []byte) (*BudgetAlertMessage, error) {
	var msg BudgetAlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
