package provenance

import "time"

// Dependency links a Task to the prior Tasks it consumed. Tags[i] is the
// transformation tag of the task whose id is IDs[i].
type Dependency struct {
	tags []string
	ids  []string
}

// NewDependency pairs tags with ids. Both lists must have the same length.
func NewDependency(tags, ids []string) (Dependency, error) {
	d := Dependency{tags: make([]string, len(tags)), ids: append([]string(nil), ids...)}
	for i, tag := range tags {
		d.tags[i] = normalizeTag(tag)
	}
	if err := d.validate(); err != nil {
		return Dependency{}, err
	}
	return d, nil
}

// DependencyFrom derives the Dependency on a single prior task.
func DependencyFrom(prior *Task) Dependency {
	return Dependency{
		tags: []string{prior.TransformationTag()},
		ids:  []string{prior.ID()},
	}
}

func (d Dependency) validate() error {
	if len(d.tags) != len(d.ids) {
		return invalid("Dependency", "ids", "%d tags but %d ids", len(d.tags), len(d.ids))
	}
	for i, tag := range d.tags {
		if tag == "" {
			return invalid("Dependency", "tags", "tag %d is empty", i)
		}
		if d.ids[i] == "" {
			return invalid("Dependency", "ids", "id %d is empty", i)
		}
	}
	return nil
}

// IsZero reports whether d references no task.
func (d Dependency) IsZero() bool {
	return len(d.tags) == 0
}

// Tags returns a copy of the referenced transformation tags.
func (d Dependency) Tags() []string { return append([]string(nil), d.tags...) }

// IDs returns a copy of the referenced task ids.
func (d Dependency) IDs() []string { return append([]string(nil), d.ids...) }

// Specification returns the document form of the dependency.
func (d Dependency) Specification() DependencySpec {
	return DependencySpec{Tags: d.Tags(), IDs: d.IDs()}
}

// Performance is the start/end timestamp pair of a finished Task.
type Performance struct {
	Start  time.Time
	End    time.Time
	Method MethodType
}

// NewPerformance returns a validated Performance. method may be empty.
func NewPerformance(start, end time.Time, method MethodType) (Performance, error) {
	if end.Before(start) {
		return Performance{}, invalid("Performance", "end_time", "%s is before start %s",
			end.Format(TimeLayout), start.Format(TimeLayout))
	}
	if method != "" && !method.Valid() {
		return Performance{}, invalid("Performance", "method", "unknown MethodType %q", method)
	}
	return Performance{Start: start, End: end, Method: method}, nil
}

// Duration returns End - Start.
func (p Performance) Duration() time.Duration {
	return p.End.Sub(p.Start)
}

// Specification returns the document form of the performance.
func (p Performance) Specification() PerformanceSpec {
	return PerformanceSpec{
		StartTime: p.Start.Format(TimeLayout),
		EndTime:   p.End.Format(TimeLayout),
		Method:    p.Method,
	}
}
