package xmlbind

// FieldRole is a field's role within its parent composite type (spec §3).
type FieldRole int

const (
	// RoleChildElement is the default: the field serializes as a nested
	// element (or, if Scalar-kind, as a wrapped element).
	RoleChildElement FieldRole = iota
	// RoleAttribute: the field serializes as an attribute on the parent's
	// start tag.
	RoleAttribute
	// RoleText: the field is the parent's entire content, a single string
	// leaf. At most one field per type may hold this role.
	RoleText
)

// AccumKind selects which of the three accumulator shapes (spec §3)
// governs a field: derived from the field's Go type by the registry, not
// declared directly by users.
type AccumKind int

const (
	// AccumOnce: scalar/element/required fields. Duplicate occurrence is
	// an error; absence at finalize is missing-value/missing-tag.
	AccumOnce AccumKind = iota
	// AccumMany: []T fields. Every occurrence appends; finalize always
	// succeeds with the possibly-empty slice.
	AccumMany
	// AccumOptional: *T fields. Absence at finalize maps to a nil pointer
	// instead of an error.
	AccumOptional
)

// PrefixBinding is one prefix -> URI declaration a container type
// contributes to its own element, in declaration order.
type PrefixBinding struct {
	Prefix string
	URI    string
}

// Bindings is the container-level annotation of spec §6: at most one
// default namespace URI, an insertion-ordered set of prefix bindings, a
// "forward" marker for sum-of-structs, and a root element rename.
type Bindings struct {
	DefaultURI string
	Prefixes   []PrefixBinding
	Forward    bool
	Rename     string
}

// Binder is the "derive facility" of spec §6 for container-level
// annotations: a registered struct type implements it to declare
// namespace bindings, forwarding, and a root name override. A type that
// does not implement Binder gets the zero Bindings (no namespace, no
// forwarding) and a root name equal to its Go type name.
type Binder interface {
	XMLBindings() Bindings
}

// Defaulter lets a registered type supply a default for a field absent
// from the document instead of failing with missing-value — the Go
// analog of original_source/instant-xml's FromXml::missing_value() hook
// (see SPEC_FULL.md §4). ok=false means no default is offered and the
// ordinary missing-value/missing-tag error should fire.
type Defaulter interface {
	XMLFieldDefault(field string) (value any, ok bool)
}

// ForwardBinder is implemented by a forwarding container (spec's
// "sum-of-structs"): XMLBindings().Forward is true, and XMLVariants lists a
// zero-value prototype of every alternative. The deserializer peeks the
// incoming element's Id and selects the prototype whose registered root
// Id matches (spec §4.5's "Forwarding variant").
type ForwardBinder interface {
	Binder
	XMLVariants() []any
}
