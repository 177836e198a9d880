package provenance

// Attribute describes one named, typed column of a Set.
type Attribute struct {
	Name string
	Type AttributeType
}

// NewAttribute returns a validated Attribute.
func NewAttribute(name string, typ AttributeType) (Attribute, error) {
	a := Attribute{Name: name, Type: typ}
	if err := a.validate(); err != nil {
		return Attribute{}, err
	}
	return a, nil
}

func (a Attribute) validate() error {
	if a.Name == "" {
		return invalid("Attribute", "name", "must not be empty")
	}
	if !a.Type.Valid() {
		return invalid("Attribute", "type", "unknown AttributeType %q for %q", a.Type, a.Name)
	}
	return nil
}

// Specification returns the document form of the attribute.
func (a Attribute) Specification() AttributeSpec {
	return AttributeSpec{Name: a.Name, Type: a.Type}
}

// Element is one instance row. Values correspond positionally to the
// Attributes of the Set the row belongs to.
type Element struct {
	values []any
}

// NewElement copies values into a new Element.
func NewElement(values ...any) Element {
	return Element{values: append([]any(nil), values...)}
}

// Values returns a copy of the element's values.
func (e Element) Values() []any {
	return append([]any(nil), e.values...)
}

// Len returns the number of values.
func (e Element) Len() int {
	return len(e.values)
}

// Specification returns the document form of the element.
func (e Element) Specification() ElementSpec {
	out := make(ElementSpec, len(e.values))
	copy(out, e.values)
	return out
}
