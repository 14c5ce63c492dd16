package amqp

import (
	"encoding/json"
	"time"
)

// FeedSyncedMessage announces that a feed's sheet rows were mirrored to
// storage. It carries only the feed name and row count; consumers reload the
// rows from their own backend.
type FeedSyncedMessage struct {
	Feed      string    `json:"feed"`
	Rows      int       `json:"rows"`
	Timestamp time.Time `json:"timestamp"`
}

// NewFeedSyncedMessage creates a sync notification for one feed
func NewFeedSyncedMessage(feed string, rows int) *FeedSyncedMessage {
	return &FeedSyncedMessage{
		Feed:      feed,
		Rows:      rows,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *FeedSyncedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FromJSON creates a message from JSON bytes
func FeedSyncedMessageFromJSON(data []byte) (*FeedSyncedMessage, error) {
	var msg FeedSyncedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
