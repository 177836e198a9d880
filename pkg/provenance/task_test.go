package provenance

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

// recordingSender keeps every document it is given, encoded at send time.
type recordingSender struct {
	tasks     []TaskSpec
	raw       [][]byte
	dataflows []DataflowSpec
	err       error
}

func (r *recordingSender) SendTask(_ context.Context, spec TaskSpec) error {
	data, _ := json.Marshal(spec)
	r.tasks = append(r.tasks, spec)
	r.raw = append(r.raw, data)
	return r.err
}

func (r *recordingSender) SendDataflow(_ context.Context, spec DataflowSpec) error {
	r.dataflows = append(r.dataflows, spec)
	return r.err
}

// stepClock returns base, base+1s, base+2s, ... on successive calls.
func stepClock(base time.Time) func() time.Time {
	n := 0
	return func() time.Time {
		t := base.Add(time.Duration(n) * time.Second)
		n++
		return t
	}
}

var base = time.Date(2024, 3, 1, 12, 0, 0, 500, time.UTC)

func TestTask_Lifecycle(t *testing.T) {
	rec := &recordingSender{}
	task, err := NewTask("7", "MyFlow", "Step1", WithSender(rec), WithClock(stepClock(base)))
	if err != nil {
		t.Fatalf("NewTask: %v", err)
	}
	if task.Status() != TaskStatusReady {
		t.Errorf("initial status = %s, want READY", task.Status())
	}
	if task.DataflowTag() != "myflow" || task.TransformationTag() != "step1" || task.Tag() != "step1" {
		t.Errorf("tags not normalized: %q %q %q", task.DataflowTag(), task.TransformationTag(), task.Tag())
	}

	ctx := context.Background()
	if err := task.Begin(ctx); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if task.Status() != TaskStatusRunning || task.StartTime().IsZero() {
		t.Errorf("after Begin: status=%s start=%v", task.Status(), task.StartTime())
	}
	if len(task.Performances()) != 0 {
		t.Errorf("performances after Begin = %d, want 0", len(task.Performances()))
	}

	if err := task.End(ctx); err != nil {
		t.Fatalf("End: %v", err)
	}
	if task.Status() != TaskStatusFinished || task.EndTime().IsZero() {
		t.Errorf("after End: status=%s end=%v", task.Status(), task.EndTime())
	}
	perfs := task.Performances()
	if len(perfs) != 1 {
		t.Fatalf("performances = %d, want 1", len(perfs))
	}
	if !perfs[0].Start.Equal(task.StartTime()) {
		t.Errorf("performance start = %v, want task start %v", perfs[0].Start, task.StartTime())
	}
	if perfs[0].Duration() != time.Second {
		t.Errorf("duration = %v, want 1s", perfs[0].Duration())
	}

	if len(rec.tasks) != 2 {
		t.Fatalf("sent %d documents, want 2", len(rec.tasks))
	}
	if rec.tasks[0].Status != TaskStatusRunning || rec.tasks[1].Status != TaskStatusFinished {
		t.Errorf("sent statuses = %s, %s", rec.tasks[0].Status, rec.tasks[1].Status)
	}
	if rec.tasks[1].Performances[0].StartTime != "2024-03-01 12:00:00" ||
		rec.tasks[1].Performances[0].EndTime != "2024-03-01 12:00:01" {
		t.Errorf("performance spec = %+v", rec.tasks[1].Performances[0])
	}
}

func TestTask_EndWithoutBegin(t *testing.T) {
	task, _ := NewTask("1", "flow", "step", WithClock(stepClock(base)))
	if err := task.End(context.Background()); err != nil {
		t.Fatalf("End: %v", err)
	}
	p := task.Performances()[0]
	if !p.Start.Equal(p.End) {
		t.Errorf("performance = %v..%v, want zero length", p.Start, p.End)
	}
}

func TestTask_SetStatus(t *testing.T) {
	task, _ := NewTask("1", "flow", "step")
	if err := task.SetStatus(TaskStatus("PAUSED")); !errors.Is(err, ErrValidation) {
		t.Errorf("SetStatus(PAUSED): err = %v, want validation error", err)
	}
	if task.Status() != TaskStatusReady {
		t.Errorf("status changed on invalid SetStatus: %s", task.Status())
	}
	// Out-of-order transitions are accepted.
	if err := task.SetStatus(TaskStatusFinished); err != nil {
		t.Errorf("SetStatus(FINISHED): %v", err)
	}
}

func TestNewTask_Invalid(t *testing.T) {
	tests := []struct {
		name                string
		id, dataflow, tfTag string
		opts                []TaskOption
	}{
		{"empty id", "", "flow", "step", nil},
		{"empty dataflow", "1", "", "step", nil},
		{"empty transformation", "1", "flow", "", nil},
		{"mismatched dependency", "1", "flow", "step", []TaskOption{WithDependency(Dependency{tags: []string{"a"}})}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewTask(tt.id, tt.dataflow, tt.tfTag, tt.opts...); !errors.Is(err, ErrValidation) {
				t.Errorf("err = %v, want validation error", err)
			}
		})
	}
}

func TestTask_DependencyFromPriorTask(t *testing.T) {
	prior, _ := NewTask("3", "flow", "Step1")
	next, err := NewTask("4", "flow", "step2", WithDependency(DependencyFrom(prior)))
	if err != nil {
		t.Fatalf("NewTask: %v", err)
	}
	dep := next.Specification().Dependency
	if dep == nil {
		t.Fatal("dependency missing from specification")
	}
	if !equalStrings(dep.Tags, []string{"step1"}) || !equalStrings(dep.IDs, []string{"3"}) {
		t.Errorf("dependency = %+v", dep)
	}

	// A copy-equivalent prior task yields the same reference.
	clone, _ := NewTask("3", "flow", "step1")
	again, _ := NewTask("4", "flow", "step2", WithDependency(DependencyFrom(clone)))
	a, _ := json.Marshal(next.Specification())
	b, _ := json.Marshal(again.Specification())
	if !bytes.Equal(a, b) {
		t.Errorf("specs differ:\n%s\n%s", a, b)
	}
}

func TestTask_NoDependencyIsOmitted(t *testing.T) {
	task, _ := NewTask("1", "flow", "step")
	if task.Specification().Dependency != nil {
		t.Error("Dependency should be nil")
	}
	data, _ := json.Marshal(task.Specification())
	if strings.Contains(string(data), "dependency") {
		t.Errorf("document contains dependency: %s", data)
	}
	want := `{"id":"1","tag":"step","dataflow":"flow","transformation":"step","status":"READY"}`
	if string(data) != want {
		t.Errorf("spec = %s, want %s", data, want)
	}
}

func TestTask_AddDependencyOverwrites(t *testing.T) {
	prior, _ := NewTask("3", "flow", "step1")
	task, _ := NewTask("4", "flow", "step2", WithDependency(DependencyFrom(prior)))

	dep, err := NewDependency([]string{"StepA", "stepB"}, []string{"1", "2"})
	if err != nil {
		t.Fatalf("NewDependency: %v", err)
	}
	if err := task.AddDependency(dep); err != nil {
		t.Fatalf("AddDependency: %v", err)
	}
	got := task.Specification().Dependency
	if !equalStrings(got.Tags, []string{"stepa", "stepb"}) || !equalStrings(got.IDs, []string{"1", "2"}) {
		t.Errorf("dependency = %+v", got)
	}

	if _, err := NewDependency([]string{"a", "b"}, []string{"1"}); !errors.Is(err, ErrValidation) {
		t.Errorf("mismatched lengths: err = %v, want validation error", err)
	}
}

func TestTask_DataSetsAccumulateInOrder(t *testing.T) {
	task, _ := NewTask("1", "flow", "step")
	a, _ := NewDataSet("iStep", NewElement(1))
	b, _ := NewDataSet("ostep", NewElement(2))
	if err := task.SetDataSets(a, b); err != nil {
		t.Fatalf("SetDataSets: %v", err)
	}
	if err := task.AddDataSet(DataSet{}); !errors.Is(err, ErrValidation) {
		t.Errorf("AddDataSet(zero): err = %v, want validation error", err)
	}
	sets := task.DataSets()
	if len(sets) != 2 || sets[0].Tag != "istep" || sets[1].Tag != "ostep" {
		t.Fatalf("data sets = %+v", sets)
	}

	sets[0].Elements[0][0] = 99
	if task.DataSets()[0].Elements[0][0] != 1 {
		t.Error("task data set was mutated through accessor")
	}
}

func TestTask_SpecificationIsIdempotent(t *testing.T) {
	prior, _ := NewTask("0", "flow", "step0")
	task, _ := NewTask("1", "flow", "step1",
		WithSubID("a"), WithWorkspace("/tmp/w"), WithResource("node1"),
		WithDependency(DependencyFrom(prior)), WithClock(stepClock(base)))
	ds, _ := NewDataSet("istep1", NewElement(1.5, "x", map[string]any{"b": 1, "a": 2}))
	task.AddDataSet(ds)
	task.Begin(context.Background())
	task.End(context.Background())

	a, _ := json.Marshal(task.Specification())
	b, _ := json.Marshal(task.Specification())
	if !bytes.Equal(a, b) {
		t.Errorf("serializations differ:\n%s\n%s", a, b)
	}
}

func TestTask_SendErrorKeepsState(t *testing.T) {
	rec := &recordingSender{err: errors.New("connection refused")}
	task, _ := NewTask("9", "flow", "step", WithSender(rec))

	err := task.Begin(context.Background())
	if err == nil || !strings.Contains(err.Error(), "save task 9") {
		t.Fatalf("Begin err = %v, want wrapped send error", err)
	}
	if task.Status() != TaskStatusRunning {
		t.Errorf("status = %s, want RUNNING after failed send", task.Status())
	}
}

func TestStartEndTask_Scenario(t *testing.T) {
	rec := &recordingSender{}
	ctx := context.Background()

	task, in, err := StartTask(ctx, rec, "0", "myflow", "step1", []any{10, 20})
	if err != nil {
		t.Fatalf("StartTask: %v", err)
	}
	if in.Tag() != "istep1" || len(in.Elements()) != 2 {
		t.Errorf("input data set = %s with %d elements", in.Tag(), len(in.Elements()))
	}
	out, err := EndTask(ctx, task, "step1", []any{30})
	if err != nil {
		t.Fatalf("EndTask: %v", err)
	}
	if out.Tag() != "ostep1" {
		t.Errorf("output tag = %s", out.Tag())
	}

	if len(rec.raw) != 2 {
		t.Fatalf("sent %d documents, want 2", len(rec.raw))
	}

	type doc struct {
		Status string `json:"status"`
		Sets   []struct {
			Tag      string  `json:"tag"`
			Elements [][]any `json:"elements"`
		} `json:"sets"`
		Performances []struct {
			StartTime string `json:"start_time"`
			EndTime   string `json:"end_time"`
		} `json:"performances"`
	}
	var running, finished doc
	json.Unmarshal(rec.raw[0], &running)
	json.Unmarshal(rec.raw[1], &finished)

	if running.Status != "RUNNING" || len(running.Sets) != 1 {
		t.Fatalf("running doc = %s", rec.raw[0])
	}
	if running.Sets[0].Tag != "istep1" || len(running.Sets[0].Elements) != 2 ||
		running.Sets[0].Elements[0][0] != float64(10) || running.Sets[0].Elements[1][0] != float64(20) {
		t.Errorf("running input set = %+v", running.Sets[0])
	}
	if len(running.Performances) != 0 {
		t.Errorf("running doc has performances: %s", rec.raw[0])
	}

	if finished.Status != "FINISHED" || len(finished.Sets) != 2 {
		t.Fatalf("finished doc = %s", rec.raw[1])
	}
	o := finished.Sets[1]
	if o.Tag != "ostep1" || len(o.Elements) != 1 || len(o.Elements[0]) != 1 || o.Elements[0][0] != float64(30) {
		t.Errorf("finished output set = %+v", o)
	}
	if len(finished.Performances) != 1 {
		t.Fatalf("finished performances = %d, want 1", len(finished.Performances))
	}
	p := finished.Performances[0]
	if p.StartTime > p.EndTime {
		t.Errorf("start %s after end %s", p.StartTime, p.EndTime)
	}
}

func TestNewPerformance_Invalid(t *testing.T) {
	if _, err := NewPerformance(base, base.Add(-time.Second), ""); !errors.Is(err, ErrValidation) {
		t.Errorf("end before start: err = %v, want validation error", err)
	}
	if _, err := NewPerformance(base, base, MethodType("SLEEP")); !errors.Is(err, ErrValidation) {
		t.Errorf("bad method: err = %v, want validation error", err)
	}
	p, err := NewPerformance(base, base, MethodTypeComputation)
	if err != nil {
		t.Fatalf("NewPerformance: %v", err)
	}
	if p.Specification().Method != MethodTypeComputation {
		t.Errorf("method = %q", p.Specification().Method)
	}
}
