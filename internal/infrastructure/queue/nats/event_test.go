package nats

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestEncodeDecodeDocumentIngestedRoundTrip(t *testing.T) {
	occurred := time.Date(2026, 2, 10, 12, 30, 0, 0, time.FixedZone("CET", 3600))

	payload, err := encodeDocumentIngested("doc-42", occurred)
	if err != nil {
		t.Fatalf("encode error = %v", err)
	}

	event, err := decodeDocumentIngested(payload)
	if err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if event.DocumentID != "doc-42" {
		t.Fatalf("document id = %q, want doc-42", event.DocumentID)
	}
	if !event.OccurredAt.Equal(occurred) {
		t.Fatalf("occurred at = %v, want %v", event.OccurredAt, occurred)
	}
	if event.OccurredAt.Location() != time.UTC {
		t.Fatalf("occurred at stored in %v, want UTC", event.OccurredAt.Location())
	}
}

func TestEncodeDocumentIngestedRejectsEmptyID(t *testing.T) {
	if _, err := encodeDocumentIngested("  ", time.Now()); err == nil {
		t.Fatalf("expected error for blank document id")
	}
}

func TestDecodeDocumentIngestedRejectsBadPayloads(t *testing.T) {
	cases := map[string]string{
		"not json":  "document ingested: doc-1",
		"empty id":  `{"document_id":"","occurred_at":"2026-02-10T12:30:00Z"}`,
		"no fields": `{}`,
	}
	for name, payload := range cases {
		if _, err := decodeDocumentIngested([]byte(payload)); err == nil {
			t.Fatalf("%s: expected decode error", name)
		} else if !strings.Contains(err.Error(), "decode ingestion event") {
			t.Fatalf("%s: unexpected error %v", name, err)
		}
	}
}

func TestEncodeDocumentIngestedPayloadShape(t *testing.T) {
	payload, err := encodeDocumentIngested("doc-7", time.Date(2026, 2, 10, 11, 30, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("encode error = %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if raw["document_id"] != "doc-7" {
		t.Fatalf("document_id = %v", raw["document_id"])
	}
	if raw["occurred_at"] != "2026-02-10T11:30:00Z" {
		t.Fatalf("occurred_at = %v", raw["occurred_at"])
	}
}
