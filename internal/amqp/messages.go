package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Mutation operations.
const (
	OpUpsert = "upsert"
	OpDelete = "delete"
)

// MutationMessage carries one remote-store write. Upserts hold the full
// record payload, deletes only its key.
type MutationMessage struct {
	ID        string          `json:"id"`
	Op        string          `json:"op"`
	Table     string          `json:"table"`
	RecordID  string          `json:"record_id"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

func newMessageID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func NewUpsertMessage(table, recordID string, payload []byte) *MutationMessage {
	return &MutationMessage{
		ID:        newMessageID(),
		Op:        OpUpsert,
		Table:     table,
		RecordID:  recordID,
		Payload:   append(json.RawMessage(nil), payload...),
		Timestamp: time.Now().UTC(),
	}
}

func NewDeleteMessage(table, recordID string) *MutationMessage {
	return &MutationMessage{
		ID:        newMessageID(),
		Op:        OpDelete,
		Table:     table,
		RecordID:  recordID,
		Timestamp: time.Now().UTC(),
	}
}

// Validate checks the fields a consumer relies on.
func (m *MutationMessage) Validate() error {
	switch {
	case m.ID == "":
		return errors.New("message id is required")
	case m.Table == "" || m.RecordID == "":
		return errors.New("table and record id are required")
	case m.Op == OpUpsert && len(m.Payload) == 0:
		return errors.New("upsert without payload")
	case m.Op != OpUpsert && m.Op != OpDelete:
		return fmt.Errorf("unknown op %q", m.Op)
	}
	return nil
}

func (m *MutationMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func MutationMessageFromJSON(data []byte) (*MutationMessage, error) {
	var msg MutationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
