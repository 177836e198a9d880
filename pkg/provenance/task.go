package provenance

import (
	"context"
	"fmt"
	"time"
)

// Task is one concrete, timed execution of a Transformation. A Task is owned
// by a single goroutine for its whole lifecycle; it is not safe for
// concurrent use.
type Task struct {
	Object // id is the caller's task id, tag is the transformation tag

	subID          string
	dataflow       string
	transformation string
	workspace      string
	resource       string
	output         string
	errText        string

	dependency   Dependency
	sets         []DataSetSpec
	performances []Performance
	status       TaskStatus
	startTime    time.Time
	endTime      time.Time

	sender Sender
	now    func() time.Time
}

// TaskOption configures optional Task fields.
type TaskOption func(*Task)

// WithSubID sets the task's sub id.
func WithSubID(subID string) TaskOption {
	return func(t *Task) { t.subID = subID }
}

// WithDependency sets the task's dependency. Use DependencyFrom to depend on
// a task built earlier.
func WithDependency(dep Dependency) TaskOption {
	return func(t *Task) { t.dependency = dep }
}

// WithWorkspace sets the directory the task ran in.
func WithWorkspace(workspace string) TaskOption {
	return func(t *Task) { t.workspace = workspace }
}

// WithResource sets the resource (host, queue, node) the task ran on.
func WithResource(resource string) TaskOption {
	return func(t *Task) { t.resource = resource }
}

// WithOutput sets the captured output of the task.
func WithOutput(output string) TaskOption {
	return func(t *Task) { t.output = output }
}

// WithError sets the captured error text of the task.
func WithError(errText string) TaskOption {
	return func(t *Task) { t.errText = errText }
}

// WithSender sets where lifecycle documents are sent. Without a sender,
// Begin, End and Save only update local state.
func WithSender(s Sender) TaskOption {
	return func(t *Task) { t.sender = s }
}

// WithClock replaces time.Now for lifecycle timestamps.
func WithClock(now func() time.Time) TaskOption {
	return func(t *Task) { t.now = now }
}

// NewTask returns a READY task of the given transformation.
func NewTask(id, dataflowTag, transformationTag string, opts ...TaskOption) (*Task, error) {
	switch {
	case id == "":
		return nil, invalid("Task", "id", "must not be empty")
	case dataflowTag == "":
		return nil, invalid("Task", "dataflow", "must not be empty")
	case transformationTag == "":
		return nil, invalid("Task", "transformation", "must not be empty")
	}

	t := &Task{
		Object:         Object{id: id, tag: normalizeTag(transformationTag)},
		dataflow:       normalizeTag(dataflowTag),
		transformation: normalizeTag(transformationTag),
		status:         TaskStatusReady,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	if err := t.dependency.validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// SubID returns the task's sub id.
func (t *Task) SubID() string { return t.subID }

// DataflowTag returns the lower-cased dataflow tag.
func (t *Task) DataflowTag() string { return t.dataflow }

// TransformationTag returns the lower-cased transformation tag.
func (t *Task) TransformationTag() string { return t.transformation }

// Status returns the current status.
func (t *Task) Status() TaskStatus { return t.status }

// StartTime returns the time Begin ran, or the zero time.
func (t *Task) StartTime() time.Time { return t.startTime }

// EndTime returns the time End ran, or the zero time.
func (t *Task) EndTime() time.Time { return t.endTime }

// Dependency returns the task's dependency.
func (t *Task) Dependency() Dependency { return t.dependency }

// Performances returns a copy of the recorded performances.
func (t *Task) Performances() []Performance {
	return append([]Performance(nil), t.performances...)
}

// DataSets returns the attached data sets in attachment order.
func (t *Task) DataSets() []DataSetSpec {
	return cloneDataSets(t.sets)
}

// AddDependency replaces the task's dependency.
func (t *Task) AddDependency(dep Dependency) error {
	if err := dep.validate(); err != nil {
		return err
	}
	t.dependency = dep
	return nil
}

// AddDataSet appends ds. Its document form is taken now, so later changes
// to the caller's values are not seen.
func (t *Task) AddDataSet(ds DataSet) error {
	return t.SetDataSets(ds)
}

// SetDataSets appends every data set in order. Nothing is appended if any
// data set is invalid.
func (t *Task) SetDataSets(datasets ...DataSet) error {
	for _, ds := range datasets {
		if err := ds.validate(); err != nil {
			return err
		}
	}
	for _, ds := range datasets {
		t.sets = append(t.sets, ds.Specification())
	}
	return nil
}

// SetStatus changes the status. Only the value is checked; the transition
// itself is not.
func (t *Task) SetStatus(status TaskStatus) error {
	if !status.Valid() {
		return invalid("Task", "status", "unknown TaskStatus %q", status)
	}
	t.status = status
	return nil
}

// Begin marks the task RUNNING, stamps the start time and saves it.
func (t *Task) Begin(ctx context.Context) error {
	if err := t.SetStatus(TaskStatusRunning); err != nil {
		return err
	}
	t.startTime = t.stamp()
	return t.Save(ctx)
}

// End marks the task FINISHED, stamps the end time, records a Performance
// and saves it. A task that never began gets a zero-length performance.
func (t *Task) End(ctx context.Context) error {
	if err := t.SetStatus(TaskStatusFinished); err != nil {
		return err
	}
	t.endTime = t.stamp()
	if t.startTime.IsZero() || t.startTime.After(t.endTime) {
		t.startTime = t.endTime
	}
	perf, err := NewPerformance(t.startTime, t.endTime, "")
	if err != nil {
		return err
	}
	t.performances = append(t.performances, perf)
	return t.Save(ctx)
}

// Save sends the task's current document. State changes made before the
// call are kept when the send fails.
func (t *Task) Save(ctx context.Context) error {
	if t.sender == nil {
		return nil
	}
	if err := t.sender.SendTask(ctx, t.Specification()); err != nil {
		return fmt.Errorf("save task %s: %w", t.ID(), err)
	}
	return nil
}

// stamp returns the current time at the wire precision of one second.
func (t *Task) stamp() time.Time {
	return t.now().Round(0).Truncate(time.Second)
}

// Specification returns the document form of the task.
func (t *Task) Specification() TaskSpec {
	spec := TaskSpec{
		ID:             t.ID(),
		SubID:          t.subID,
		Tag:            t.Tag(),
		Dataflow:       t.dataflow,
		Transformation: t.transformation,
		Status:         t.status,
		Workspace:      t.workspace,
		Resource:       t.resource,
		Output:         t.output,
		Error:          t.errText,
		Sets:           cloneDataSets(t.sets),
	}
	if !t.dependency.IsZero() {
		dep := t.dependency.Specification()
		spec.Dependency = &dep
	}
	for _, p := range t.performances {
		spec.Performances = append(spec.Performances, p.Specification())
	}
	return spec
}

func cloneDataSets(sets []DataSetSpec) []DataSetSpec {
	if len(sets) == 0 {
		return nil
	}
	out := make([]DataSetSpec, len(sets))
	for i, ds := range sets {
		elems := make([]ElementSpec, len(ds.Elements))
		for j, e := range ds.Elements {
			elems[j] = make(ElementSpec, len(e))
			copy(elems[j], e)
		}
		out[i] = DataSetSpec{Tag: ds.Tag, Elements: elems}
	}
	return out
}
