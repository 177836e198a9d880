// Package store journals the provenance documents received by the capture
// server so a developer can inspect what a workflow emitted.
package store

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/me/dfanalyzer/pkg/provenance"
)

// Kind identifies which endpoint a document arrived on.
type Kind string

const (
	KindTask     Kind = "task"
	KindDataflow Kind = "dataflow"
)

// Document is one received specification document.
type Document struct {
	ID             string                `json:"id"`
	Kind           Kind                  `json:"kind"`
	Dataflow       string                `json:"dataflow"`
	Transformation string                `json:"transformation,omitempty"`
	TaskID         string                `json:"task_id,omitempty"`
	Status         provenance.TaskStatus `json:"status,omitempty"`
	Body           json.RawMessage       `json:"body"`
	ReceivedAt     time.Time             `json:"received_at"`
}

// NewTaskDocument wraps a received task document.
func NewTaskDocument(spec provenance.TaskSpec, body []byte) *Document {
	return &Document{
		ID:             "doc_" + uuid.New().String(),
		Kind:           KindTask,
		Dataflow:       strings.ToLower(spec.Dataflow),
		Transformation: strings.ToLower(spec.Transformation),
		TaskID:         spec.ID,
		Status:         spec.Status,
		Body:           append(json.RawMessage(nil), body...),
		ReceivedAt:     time.Now().UTC(),
	}
}

// NewDataflowDocument wraps a received dataflow document.
func NewDataflowDocument(spec provenance.DataflowSpec, body []byte) *Document {
	return &Document{
		ID:         "doc_" + uuid.New().String(),
		Kind:       KindDataflow,
		Dataflow:   strings.ToLower(spec.Tag),
		Body:       append(json.RawMessage(nil), body...),
		ReceivedAt: time.Now().UTC(),
	}
}

// Filter narrows List results. Zero fields match everything.
type Filter struct {
	Kind     Kind
	Dataflow string
	TaskID   string
	Limit    int // default 100, max 1000
}

// Clamp applies the default and maximum limit.
func (f *Filter) Clamp() {
	if f.Limit <= 0 {
		f.Limit = 100
	}
	if f.Limit > 1000 {
		f.Limit = 1000
	}
}

// Store defines the persistence layer for received documents.
type Store interface {
	Record(ctx context.Context, doc *Document) error
	Get(ctx context.Context, id string) (*Document, error)
	List(ctx context.Context, f Filter) ([]*Document, error)

	// Lifecycle
	Close() error
	Migrate(ctx context.Context) error
}
