package amqp

import (
	"testing"
	"time"
)

func TestNewDocumentSyncMessage(t *testing.T) {
	msg := NewDocumentSyncMessage(7)

	if msg.Revision != 7 {
		t.Errorf("Revision = %v, want 7", msg.Revision)
	}
	if msg.Timestamp.IsZero() {
		t.Error("Timestamp should not be zero")
	}
	if time.Since(msg.Timestamp) > time.Second {
		t.Error("Timestamp should be recent")
	}
}

func TestDocumentSyncMessage_JSON(t *testing.T) {
	timestamp := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	msg := &DocumentSyncMessage{Revision: 42, Timestamp: timestamp}

	jsonBytes, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsed, err := DocumentSyncMessageFromJSON(jsonBytes)
	if err != nil {
		t.Fatalf("DocumentSyncMessageFromJSON() error = %v", err)
	}

	if parsed.Revision != msg.Revision {
		t.Errorf("Parsed Revision = %v, want %v", parsed.Revision, msg.Revision)
	}
	if !parsed.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("Parsed Timestamp = %v, want %v", parsed.Timestamp, msg.Timestamp)
	}
}

func TestDocumentSyncMessage_InvalidJSON(t *testing.T) {
	if _, err := DocumentSyncMessageFromJSON([]byte(`{"revision": "nope"}`)); err == nil {
		t.Error("DocumentSyncMessageFromJSON() should fail with invalid JSON")
	}
}
