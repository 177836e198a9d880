package provenance

import "context"

// TimeLayout is the wire format of Performance timestamps.
const TimeLayout = "2006-01-02 15:04:05"

// Specification records are the documents sent to the provenance store.
// Field order is fixed by the struct definitions, so encoding the same
// record twice yields identical bytes. Optional fields that were never set
// are omitted rather than encoded as null.

// AttributeSpec is the document form of an Attribute.
type AttributeSpec struct {
	Name string        `json:"name"`
	Type AttributeType `json:"type"`
}

// FileSpec is the document form of a File.
type FileSpec struct {
	Name string `json:"name,omitempty"`
	Path string `json:"path"`
}

// ExtractorSpec is the document form of an Extractor.
type ExtractorSpec struct {
	Tag       string             `json:"tag"`
	Cartridge ExtractorCartridge `json:"cartridge"`
	Extension ExtractorExtension `json:"extension"`
	Files     []FileSpec         `json:"files,omitempty"`
}

// SetSpec is the document form of a Set.
type SetSpec struct {
	Tag        string          `json:"tag"`
	Type       SetType         `json:"type"`
	Attributes []AttributeSpec `json:"attributes"`
	Extractors []ExtractorSpec `json:"extractors,omitempty"`
	Dependency string          `json:"dependency,omitempty"`
}

// ElementSpec is the document form of an Element: a JSON array of its values.
type ElementSpec []any

// DataSetSpec is the document form of a DataSet.
type DataSetSpec struct {
	Tag      string        `json:"tag"`
	Elements []ElementSpec `json:"elements"`
}

// DependencySpec is the document form of a Dependency. Tags[i] pairs with IDs[i].
type DependencySpec struct {
	Tags []string `json:"tags"`
	IDs  []string `json:"ids"`
}

// PerformanceSpec is the document form of a Performance.
type PerformanceSpec struct {
	StartTime string     `json:"start_time"`
	EndTime   string     `json:"end_time"`
	Method    MethodType `json:"method,omitempty"`
}

// TransformationSpec is the document form of a Transformation.
type TransformationSpec struct {
	Tag  string    `json:"tag"`
	Sets []SetSpec `json:"sets"`
}

// DataflowSpec is the document form of a Dataflow.
type DataflowSpec struct {
	Tag             string               `json:"tag"`
	Transformations []TransformationSpec `json:"transformations"`
}

// TaskSpec is the document form of a Task. It is sent on every lifecycle
// transition.
type TaskSpec struct {
	ID             string            `json:"id"`
	SubID          string            `json:"sub_id,omitempty"`
	Tag            string            `json:"tag"`
	Dataflow       string            `json:"dataflow"`
	Transformation string            `json:"transformation"`
	Status         TaskStatus        `json:"status"`
	Workspace      string            `json:"workspace,omitempty"`
	Resource       string            `json:"resource,omitempty"`
	Output         string            `json:"output,omitempty"`
	Error          string            `json:"error,omitempty"`
	Dependency     *DependencySpec   `json:"dependency,omitempty"`
	Sets           []DataSetSpec     `json:"sets,omitempty"`
	Performances   []PerformanceSpec `json:"performances,omitempty"`
}

// Sender delivers specification documents to a provenance store.
// pkg/client.Client is the HTTP implementation.
type Sender interface {
	SendTask(ctx context.Context, spec TaskSpec) error
	SendDataflow(ctx context.Context, spec DataflowSpec) error
}
