package provenance

import "strings"

// AttributeType is the kind of value held in one column of a Set.
type AttributeType string

const (
	AttributeTypeText    AttributeType = "TEXT"
	AttributeTypeNumeric AttributeType = "NUMERIC"
	AttributeTypeFile    AttributeType = "FILE"
	AttributeTypeRDFile  AttributeType = "RDFILE"
)

// String returns the string representation of the attribute type.
func (t AttributeType) String() string {
	return string(t)
}

// Valid returns true if t is one of the declared attribute types.
func (t AttributeType) Valid() bool {
	switch t {
	case AttributeTypeText, AttributeTypeNumeric, AttributeTypeFile, AttributeTypeRDFile:
		return true
	}
	return false
}

// ParseAttributeType converts a case-insensitive name to an AttributeType.
func ParseAttributeType(s string) (AttributeType, error) {
	t := AttributeType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", invalid("Attribute", "type", "unknown AttributeType %q", s)
	}
	return t, nil
}

// SetType tells whether a Set is consumed or produced by a Transformation.
type SetType string

const (
	SetTypeInput  SetType = "INPUT"
	SetTypeOutput SetType = "OUTPUT"
)

// String returns the string representation of the set type.
func (t SetType) String() string {
	return string(t)
}

// Valid returns true if t is INPUT or OUTPUT.
func (t SetType) Valid() bool {
	return t == SetTypeInput || t == SetTypeOutput
}

// ParseSetType converts a case-insensitive name to a SetType.
func ParseSetType(s string) (SetType, error) {
	t := SetType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", invalid("Set", "type", "unknown SetType %q", s)
	}
	return t, nil
}

// TaskStatus represents the lifecycle state of a Task.
type TaskStatus string

const (
	TaskStatusReady    TaskStatus = "READY"
	TaskStatusRunning  TaskStatus = "RUNNING"
	TaskStatusFinished TaskStatus = "FINISHED"
)

// String returns the string representation of the task status.
func (s TaskStatus) String() string {
	return string(s)
}

// Valid returns true if s is one of the declared task statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusReady, TaskStatusRunning, TaskStatusFinished:
		return true
	}
	return false
}

// IsTerminal returns true if the task is in its final state.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusFinished
}

// ExpectedTaskTransitions is the documented READY → RUNNING → FINISHED path.
// SetStatus does not enforce it.
var ExpectedTaskTransitions = map[TaskStatus][]TaskStatus{
	TaskStatusReady:   {TaskStatusRunning},
	TaskStatusRunning: {TaskStatusFinished},
}

// CanTransitionTo returns true if moving from s to next follows the expected path.
func (s TaskStatus) CanTransitionTo(next TaskStatus) bool {
	for _, allowed := range ExpectedTaskTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ParseTaskStatus converts a case-insensitive name to a TaskStatus.
func ParseTaskStatus(s string) (TaskStatus, error) {
	st := TaskStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", invalid("Task", "status", "unknown TaskStatus %q", s)
	}
	return st, nil
}

// ExtractorCartridge is the role an Extractor plays on its raw files.
type ExtractorCartridge string

const (
	ExtractorCartridgeExtraction ExtractorCartridge = "EXTRACTION"
	ExtractorCartridgeIndexing   ExtractorCartridge = "INDEXING"
)

// Valid returns true if c is a declared cartridge.
func (c ExtractorCartridge) Valid() bool {
	return c == ExtractorCartridgeExtraction || c == ExtractorCartridgeIndexing
}

// ParseExtractorCartridge converts a case-insensitive name to an ExtractorCartridge.
func ParseExtractorCartridge(s string) (ExtractorCartridge, error) {
	c := ExtractorCartridge(strings.ToUpper(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", invalid("Extractor", "cartridge", "unknown ExtractorCartridge %q", s)
	}
	return c, nil
}

// ExtractorExtension is the storage format an Extractor reads.
type ExtractorExtension string

const (
	ExtractorExtensionProgram          ExtractorExtension = "PROGRAM"
	ExtractorExtensionCSV              ExtractorExtension = "CSV"
	ExtractorExtensionFastBit          ExtractorExtension = "FASTBIT"
	ExtractorExtensionOptimizedFastBit ExtractorExtension = "OPTIMIZED_FASTBIT"
	ExtractorExtensionPostgresRaw      ExtractorExtension = "POSTGRES_RAW"
)

// Valid returns true if e is a declared extension.
func (e ExtractorExtension) Valid() bool {
	switch e {
	case ExtractorExtensionProgram, ExtractorExtensionCSV, ExtractorExtensionFastBit,
		ExtractorExtensionOptimizedFastBit, ExtractorExtensionPostgresRaw:
		return true
	}
	return false
}

// ParseExtractorExtension converts a case-insensitive name to an ExtractorExtension.
func ParseExtractorExtension(s string) (ExtractorExtension, error) {
	e := ExtractorExtension(strings.ToUpper(strings.TrimSpace(s)))
	if !e.Valid() {
		return "", invalid("Extractor", "extension", "unknown ExtractorExtension %q", s)
	}
	return e, nil
}

// MethodType is the kind of work a Performance measured.
type MethodType string

const (
	MethodTypeComputation MethodType = "COMPUTATION"
	MethodTypeExtraction  MethodType = "EXTRACTION"
	MethodTypeIndexing    MethodType = "INDEXING"
	MethodTypeQuery       MethodType = "QUERY"
)

// Valid returns true if m is a declared method type.
func (m MethodType) Valid() bool {
	switch m {
	case MethodTypeComputation, MethodTypeExtraction, MethodTypeIndexing, MethodTypeQuery:
		return true
	}
	return false
}
