package amqp

import (
	"encoding/json"
	"time"

	"fintrack/internal/core"
)

// Action names what happened to a transaction.
type Action string

const (
	ActionCreated Action = "transaction.created"
	ActionUpdated Action = "transaction.updated"
	ActionDeleted Action = "transaction.deleted"
)

// TransactionEvent is published after a ledger write commits. It carries the
// row as it was written so consumers never read back from the store.
type TransactionEvent struct {
	Action      Action    `json:"action"`
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Date        string    `json:"date,omitempty"`
	Amount      string    `json:"amount,omitempty"`
	Type        string    `json:"type,omitempty"`
	Category    string    `json:"category,omitempty"`
	Description string    `json:"description,omitempty"`
	SourceID    int64     `json:"source_id,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewTransactionEvent(action Action, t core.Transaction) *TransactionEvent {
	ev := &TransactionEvent{
		Action:    action,
		ID:        t.ID,
		UserID:    t.UserID,
		SourceID:  t.SourceID,
		Timestamp: time.Now().UTC(),
	}
	if action == ActionDeleted {
		return ev
	}
	ev.Date = t.Date.String()
	ev.Amount = t.Amount.String()
	ev.Type = t.Type.Label()
	ev.Category = t.CategoryName
	ev.Description = t.Description
	return ev
}

func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var ev TransactionEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
