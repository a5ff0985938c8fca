package amqp

import (
	"encoding/json"
	"time"
)

// DocumentSyncMessage tells the mirror worker that a new document revision
// was saved. It carries only the revision; the worker reloads the full
// document from the primary store.
type DocumentSyncMessage struct {
	Revision  int64     `json:"revision"`
	Timestamp time.Time `json:"timestamp"`
}

func NewDocumentSyncMessage(revision int64) *DocumentSyncMessage {
	return &DocumentSyncMessage{
		Revision:  revision,
		Timestamp: time.Now(),
	}
}

func (m *DocumentSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func DocumentSyncMessageFromJSON(data []byte) (*DocumentSyncMessage, error) {
	var msg DocumentSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
