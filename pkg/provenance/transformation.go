package provenance

import (
	"context"
	"fmt"
	"strings"
)

// Transformation is the declared schema of one processing step: a tag and
// the ordered Sets it consumes and produces.
type Transformation struct {
	Object
	sets []Set
}

// NewTransformation validates every Set and returns a Transformation
// holding exactly those sets.
func NewTransformation(tag string, sets ...Set) (*Transformation, error) {
	if tag == "" {
		return nil, invalid("Transformation", "tag", "must not be empty")
	}
	if err := validateSets(sets, ""); err != nil {
		return nil, err
	}
	return &Transformation{Object: newObject(tag), sets: append([]Set(nil), sets...)}, nil
}

// validateSets checks every set, and its type when want is not empty.
func validateSets(sets []Set, want SetType) error {
	for _, s := range sets {
		if err := s.validate(); err != nil {
			return err
		}
		if want != "" && s.typ != want {
			return invalid("Transformation", strings.ToLower(want.String()), "set %q has type %s, want %s", s.tag, s.typ, want)
		}
	}
	return nil
}

// Sets returns a copy of all sets in declaration order.
func (t *Transformation) Sets() []Set {
	return append([]Set(nil), t.sets...)
}

// Input returns the INPUT sets in their original relative order.
func (t *Transformation) Input() []Set {
	return t.filter(SetTypeInput)
}

// Output returns the OUTPUT sets in their original relative order.
func (t *Transformation) Output() []Set {
	return t.filter(SetTypeOutput)
}

func (t *Transformation) filter(typ SetType) []Set {
	var out []Set
	for _, s := range t.sets {
		if s.typ == typ {
			out = append(out, s)
		}
	}
	return out
}

// SetInput replaces the INPUT sets and keeps the OUTPUT sets. Every set must
// be of type INPUT; on error the transformation is unchanged.
func (t *Transformation) SetInput(sets ...Set) error {
	if err := validateSets(sets, SetTypeInput); err != nil {
		return err
	}
	t.sets = append(t.Output(), sets...)
	return nil
}

// SetOutput replaces the OUTPUT sets and keeps the INPUT sets. Every set
// must be of type OUTPUT; on error the transformation is unchanged.
func (t *Transformation) SetOutput(sets ...Set) error {
	if err := validateSets(sets, SetTypeOutput); err != nil {
		return err
	}
	t.sets = append(t.Input(), sets...)
	return nil
}

// AddSet appends one set.
func (t *Transformation) AddSet(s Set) error {
	return t.SetSets(s)
}

// SetSets appends sets in order. Nothing is appended if any set is invalid.
func (t *Transformation) SetSets(sets ...Set) error {
	if err := validateSets(sets, ""); err != nil {
		return err
	}
	t.sets = append(t.sets, sets...)
	return nil
}

// Specification returns the document form of the transformation.
func (t *Transformation) Specification() TransformationSpec {
	spec := TransformationSpec{Tag: t.Tag(), Sets: make([]SetSpec, len(t.sets))}
	for i, s := range t.sets {
		spec.Sets[i] = s.Specification()
	}
	return spec
}

// Dataflow registers the Transformations of one logical workflow run.
type Dataflow struct {
	Object
	transformations []*Transformation
}

// NewDataflow returns an empty Dataflow.
func NewDataflow(tag string) (*Dataflow, error) {
	if tag == "" {
		return nil, invalid("Dataflow", "tag", "must not be empty")
	}
	return &Dataflow{Object: newObject(tag)}, nil
}

// AddTransformation registers tf. Tags are not de-duplicated.
func (d *Dataflow) AddTransformation(tf *Transformation) error {
	if tf == nil {
		return invalid("Dataflow", "transformations", "transformation must not be nil")
	}
	d.transformations = append(d.transformations, tf)
	return nil
}

// Transformations returns the registered transformations in order.
func (d *Dataflow) Transformations() []*Transformation {
	return append([]*Transformation(nil), d.transformations...)
}

// Transformation returns the last registered transformation with the given
// tag, or nil.
func (d *Dataflow) Transformation(tag string) *Transformation {
	tag = normalizeTag(tag)
	for i := len(d.transformations) - 1; i >= 0; i-- {
		if d.transformations[i].Tag() == tag {
			return d.transformations[i]
		}
	}
	return nil
}

// Specification returns the document form of the dataflow.
func (d *Dataflow) Specification() DataflowSpec {
	spec := DataflowSpec{Tag: d.Tag(), Transformations: make([]TransformationSpec, len(d.transformations))}
	for i, tf := range d.transformations {
		spec.Transformations[i] = tf.Specification()
	}
	return spec
}

// Save sends the dataflow document through s.
func (d *Dataflow) Save(ctx context.Context, s Sender) error {
	if s == nil {
		return nil
	}
	if err := s.SendDataflow(ctx, d.Specification()); err != nil {
		return fmt.Errorf("save dataflow %s: %w", d.Tag(), err)
	}
	return nil
}
