package provenance

// Set is the schema of a typed collection: an INPUT or OUTPUT of a
// Transformation with an ordered list of Attributes. A Set is a value; the
// With* methods return modified copies, so a Set spliced into several
// Transformations is never shared mutable state.
type Set struct {
	tag        string
	typ        SetType
	attributes []Attribute
	extractors []Extractor
	dependency string
}

// NewSet validates its arguments and returns a Set. The attribute order is
// the positional contract for the Elements of matching DataSets.
func NewSet(tag string, typ SetType, attrs ...Attribute) (Set, error) {
	s := Set{
		tag:        normalizeTag(tag),
		typ:        typ,
		attributes: append([]Attribute(nil), attrs...),
	}
	if err := s.validate(); err != nil {
		return Set{}, err
	}
	return s, nil
}

func (s Set) validate() error {
	if s.tag == "" {
		return invalid("Set", "tag", "must not be empty")
	}
	if !s.typ.Valid() {
		return invalid("Set", "type", "unknown SetType %q for set %q", s.typ, s.tag)
	}
	for _, a := range s.attributes {
		if err := a.validate(); err != nil {
			return err
		}
	}
	for _, x := range s.extractors {
		if err := x.validate(); err != nil {
			return err
		}
	}
	return nil
}

// Tag returns the set's lower-cased tag.
func (s Set) Tag() string { return s.tag }

// Type returns INPUT or OUTPUT.
func (s Set) Type() SetType { return s.typ }

// Attributes returns a copy of the set's attributes.
func (s Set) Attributes() []Attribute {
	return append([]Attribute(nil), s.attributes...)
}

// Extractors returns a copy of the set's extractors.
func (s Set) Extractors() []Extractor {
	return append([]Extractor(nil), s.extractors...)
}

// Dependency returns the tag of the transformation this set is derived
// from, or "".
func (s Set) Dependency() string { return s.dependency }

// WithExtractors returns a copy of s with the extractors appended.
func (s Set) WithExtractors(extractors ...Extractor) (Set, error) {
	for _, x := range extractors {
		if err := x.validate(); err != nil {
			return Set{}, err
		}
	}
	out := s
	out.attributes = s.Attributes()
	out.extractors = append(s.Extractors(), extractors...)
	return out, nil
}

// DependsOn returns a copy of s that records the transformation it is
// derived from.
func (s Set) DependsOn(transformationTag string) Set {
	out := s
	out.attributes = s.Attributes()
	out.extractors = s.Extractors()
	out.dependency = normalizeTag(transformationTag)
	return out
}

// Conforms reports whether e has exactly one value per attribute.
func (s Set) Conforms(e Element) bool {
	return e.Len() == len(s.attributes)
}

// Specification returns the document form of the set.
func (s Set) Specification() SetSpec {
	spec := SetSpec{
		Tag:        s.tag,
		Type:       s.typ,
		Attributes: make([]AttributeSpec, len(s.attributes)),
		Dependency: s.dependency,
	}
	for i, a := range s.attributes {
		spec.Attributes[i] = a.Specification()
	}
	for _, x := range s.extractors {
		spec.Extractors = append(spec.Extractors, x.Specification())
	}
	return spec
}

// DataSet is the instance side of a Set: a tag and an ordered list of
// Elements. By convention the tag mirrors a Set tag ("i<label>", "o<label>").
type DataSet struct {
	tag      string
	elements []Element
}

// NewDataSet returns a DataSet holding copies of elements.
func NewDataSet(tag string, elements ...Element) (DataSet, error) {
	ds := DataSet{tag: normalizeTag(tag), elements: append([]Element(nil), elements...)}
	if err := ds.validate(); err != nil {
		return DataSet{}, err
	}
	return ds, nil
}

func (d DataSet) validate() error {
	if d.tag == "" {
		return invalid("DataSet", "tag", "must not be empty")
	}
	return nil
}

// Tag returns the data set's lower-cased tag.
func (d DataSet) Tag() string { return d.tag }

// Elements returns a copy of the data set's elements.
func (d DataSet) Elements() []Element {
	return append([]Element(nil), d.elements...)
}

// Specification returns the document form of the data set.
func (d DataSet) Specification() DataSetSpec {
	spec := DataSetSpec{Tag: d.tag, Elements: make([]ElementSpec, len(d.elements))}
	for i, e := range d.elements {
		spec.Elements[i] = e.Specification()
	}
	return spec
}
