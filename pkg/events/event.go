// Package events publishes generation events to Kafka.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const TypeDocumentGenerated = "document.generated"

// DocumentGenerated is emitted after the merge service accepted a generation.
type DocumentGenerated struct {
	EventID                 string    `json:"event_id"`
	Type                    string    `json:"type"`
	TenantID                string    `json:"tenant_id,omitempty"`
	RequestID               string    `json:"request_id,omitempty"`
	Action                  string    `json:"action"`
	TemplateID              string    `json:"template_id"`
	ObjectID                string    `json:"object_id"`
	ObjectType              string    `json:"object_type"`
	DocumentVersionDetailID string    `json:"document_version_detail_id,omitempty"`
	FileName                string    `json:"file_name"`
	OutputFormat            string    `json:"output_format"`
	IsPreview               bool      `json:"is_preview"`
	Result                  string    `json:"result"`
	Timestamp               time.Time `json:"timestamp"`
	TraceID                 string    `json:"trace_id,omitempty"`
	SpanID                  string    `json:"span_id,omitempty"`
}

func NewDocumentGenerated() *DocumentGenerated {
	return &DocumentGenerated{
		EventID:   uuid.NewString(),
		Type:      TypeDocumentGenerated,
		Timestamp: time.Now().UTC(),
	}
}

func (e *DocumentGenerated) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// Key keeps the events of one object on one partition.
func (e *DocumentGenerated) Key() string {
	return e.TenantID + ":" + e.ObjectID
}

func (e *DocumentGenerated) Headers() []kafka.Header {
	headers := make([]kafka.Header, 0, 4)
	headers = append(headers, kafka.Header{Key: "event_type", Value: []byte(e.Type)})

	if e.TenantID != "" {
		headers = append(headers, kafka.Header{Key: "tenant_id", Value: []byte(e.TenantID)})
	}
	if e.RequestID != "" {
		headers = append(headers, kafka.Header{Key: "request_id", Value: []byte(e.RequestID)})
	}
	if e.TraceID != "" {
		headers = append(headers, kafka.Header{Key: "traceparent", Value: []byte("00-" + e.TraceID + "-" + e.SpanID + "-01")})
	}
	return headers
}
