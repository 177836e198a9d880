package provenance

import (
	"context"
	"fmt"
)

// Naming convention for the sets and data sets of a pipeline step.
const (
	InputPrefix  = "i"
	OutputPrefix = "o"
)

// InputTag returns the conventional input set tag for label.
func InputTag(label string) string { return normalizeTag(InputPrefix + label) }

// OutputTag returns the conventional output set tag for label.
func OutputTag(label string) string { return normalizeTag(OutputPrefix + label) }

// TF declares one pipeline step on df: a Transformation labelled label with
// an input set "i<label>" and an output set "o<label>". When prevOut is not
// nil, the previous step's output set is spliced in first, so consecutive
// steps share the intermediate set.
func TF(df *Dataflow, label string, inputAttrs, outputAttrs []Attribute, prevOut *Set) (*Transformation, Set, Set, error) {
	in, err := NewSet(InputTag(label), SetTypeInput, inputAttrs...)
	if err != nil {
		return nil, Set{}, Set{}, fmt.Errorf("transformation %s: %w", label, err)
	}
	out, err := NewSet(OutputTag(label), SetTypeOutput, outputAttrs...)
	if err != nil {
		return nil, Set{}, Set{}, fmt.Errorf("transformation %s: %w", label, err)
	}

	sets := []Set{in, out}
	if prevOut != nil {
		sets = append([]Set{*prevOut}, sets...)
	}
	tf, err := NewTransformation(label, sets...)
	if err != nil {
		return nil, Set{}, Set{}, fmt.Errorf("transformation %s: %w", label, err)
	}
	if df != nil {
		if err := df.AddTransformation(tf); err != nil {
			return nil, Set{}, Set{}, err
		}
	}
	return tf, in, out, nil
}

// singleValueElements wraps each value into its own one-value Element.
func singleValueElements(values []any) []Element {
	elems := make([]Element, len(values))
	for i, v := range values {
		elems[i] = NewElement(v)
	}
	return elems
}

// StartTask builds a task of label, attaches the input data set "i<label>"
// holding one single-value element per value and calls Begin. The task and
// data set are returned even when the send fails, so the caller may carry on.
func StartTask(ctx context.Context, sender Sender, id, dataflowTag, label string, inValues []any, opts ...TaskOption) (*Task, DataSet, error) {
	opts = append([]TaskOption{WithSender(sender)}, opts...)
	task, err := NewTask(id, dataflowTag, label, opts...)
	if err != nil {
		return nil, DataSet{}, err
	}
	in, err := NewDataSet(InputTag(label), singleValueElements(inValues)...)
	if err != nil {
		return nil, DataSet{}, err
	}
	if err := task.AddDataSet(in); err != nil {
		return nil, DataSet{}, err
	}
	return task, in, task.Begin(ctx)
}

// EndTask attaches the output data set "o<label>" to task and calls End.
// The data set is returned even when the send fails.
func EndTask(ctx context.Context, task *Task, label string, outValues []any) (DataSet, error) {
	out, err := NewDataSet(OutputTag(label), singleValueElements(outValues)...)
	if err != nil {
		return DataSet{}, err
	}
	if err := task.AddDataSet(out); err != nil {
		return DataSet{}, err
	}
	return out, task.End(ctx)
}
