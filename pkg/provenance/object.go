package provenance

import (
	"strings"

	"github.com/google/uuid"
)

// Object is the identity shared by every provenance entity: an opaque id and
// a lower-cased tag.
type Object struct {
	id  string
	tag string
}

// newObject returns an Object with a generated id.
func newObject(tag string) Object {
	return Object{id: uuid.New().String(), tag: normalizeTag(tag)}
}

// ID returns the object's id.
func (o Object) ID() string {
	return o.id
}

// Tag returns the normalized tag.
func (o Object) Tag() string {
	return o.tag
}

func normalizeTag(tag string) string {
	return strings.ToLower(tag)
}
