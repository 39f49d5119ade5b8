package amqp

import (
	"encoding/json"
	"time"
)

// EntryCreatedMessage is published whenever a spending entry is recorded.
// It carries identifiers only; the worker fetches the rows it needs.
type EntryCreatedMessage struct {
	UserID    string    `json:"user_id"`
	EntryID   string    `json:"entry_id"`
	HabitID   string    `json:"habit_id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEntryCreatedMessage creates an entry.created event message
func NewEntryCreatedMessage(userID, entryID, habitID string) *EntryCreatedMessage {
	return &EntryCreatedMessage{
		UserID:    userID,
		EntryID:   entryID,
		HabitID:   habitID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *EntryCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// EntryCreatedMessageFromJSON creates a message from JSON bytes
func EntryCreatedMessageFromJSON(data []byte) (*EntryCreatedMessage, error) {
	var msg EntryCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
