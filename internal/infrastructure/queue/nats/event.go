package nats

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// documentIngestedEvent is the wire payload for an ingestion notification.
// OccurredAt stamps publish time for debugging delivery delays; consumers
// key off DocumentID only.
type documentIngestedEvent struct {
	DocumentID string    `json:"document_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

func encodeDocumentIngested(documentID string, occurredAt time.Time) ([]byte, error) {
	if strings.TrimSpace(documentID) == "" {
		return nil, fmt.Errorf("encode ingestion event: empty document id")
	}
	return json.Marshal(documentIngestedEvent{
		DocumentID: documentID,
		OccurredAt: occurredAt.UTC(),
	})
}

func decodeDocumentIngested(payload []byte) (documentIngestedEvent, error) {
	var event documentIngestedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return documentIngestedEvent{}, fmt.Errorf("decode ingestion event: %w", err)
	}
	if strings.TrimSpace(event.DocumentID) == "" {
		return documentIngestedEvent{}, fmt.Errorf("decode ingestion event: empty document id")
	}
	return event, nil
}
