package amqp

import (
	"encoding/json"
	"time"
)

// RefreshMessage asks the worker to rebuild the stored payment
// projections. It only carries what changed; the worker reloads cards
// and loans from the database.
type RefreshMessage struct {
	Reason    string    `json:"reason"`
	Kind      string    `json:"kind,omitempty"`
	EntityID  int64     `json:"entity_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewRefreshMessage creates a refresh request for one changed entity.
func NewRefreshMessage(reason, kind string, entityID int64) *RefreshMessage {
	return &RefreshMessage{
		Reason:    reason,
		Kind:      kind,
		EntityID:  entityID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *RefreshMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RefreshMessageFromJSON creates a message from JSON bytes
func RefreshMessageFromJSON(data []byte) (*RefreshMessage, error) {
	var msg RefreshMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
