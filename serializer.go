package xmlbind

import (
	"io"
	"strings"

	"github.com/tidalcode/xmlbind/internal/entity"
	"github.com/tidalcode/xmlbind/internal/nsstack"
)

// Serializer writes elements, attributes, and namespace declarations to a
// text sink, applying the namespace scope stack as it goes (spec §4.4).
// Grounded on the teacher's StartElement/EndElement emission logic in
// Canonicalize: the "<", optional "prefix:", xmlns declaration, and
// entity-escaped attribute value writing are the same moves, generalized
// away from canonicalization's document-order and redundant-declaration
// rules into the simpler "suppress a binding an outer frame already
// supplies" rule of spec §4.3.
type Serializer struct {
	sink  io.Writer
	stack nsstack.Stack
	open  bool // true between write_start and end_start: attrs may append
}

// NewSerializer returns a Serializer that writes to sink.
func NewSerializer(sink io.Writer) *Serializer {
	return &Serializer{sink: sink}
}

func (s *Serializer) writeString(str string) error {
	if _, err := io.WriteString(s.sink, str); err != nil {
		return wrapErr(KindFormat, err)
	}
	return nil
}

// WriteStart emits "<" [prefix ":"] local, and if newDefaultURI differs
// from the current effective default, an inline xmlns="..." declaration.
// It leaves the start tag open for WriteAttr calls until EndStart closes
// it.
func (s *Serializer) WriteStart(prefix, local string, newDefaultURI *string) error {
	if s.open {
		return newErr(KindUnexpectedState, "write_start called while a start tag is already open")
	}

	var b strings.Builder
	b.WriteByte('<')
	if prefix != "" {
		b.WriteString(prefix)
		b.WriteByte(':')
	}
	b.WriteString(local)

	if newDefaultURI != nil && *newDefaultURI != s.stack.EffectiveDefault() {
		b.WriteString(` xmlns="`)
		b.WriteString(entity.Encode(*newDefaultURI))
		b.WriteByte('"')
	}

	s.open = true
	return s.writeString(b.String())
}

// WriteAttr emits ` local="value"` with value entity-encoded. Requires an
// open start tag.
func (s *Serializer) WriteAttr(local, displayValue string) error {
	if !s.open {
		return newErr(KindUnexpectedState, "write_attr called with no open start tag")
	}

	var b strings.Builder
	b.WriteByte(' ')
	b.WriteString(local)
	b.WriteString(`="`)
	b.WriteString(entity.Encode(displayValue))
	b.WriteByte('"')
	return s.writeString(b.String())
}

// WriteAttrPrefixed is WriteAttr for an attribute carrying a prefix
// referencing a parent-declared binding (spec §3: "Attributes never carry
// namespace declarations of their own; they may carry a prefix referencing
// one declared by the parent element").
func (s *Serializer) WriteAttrPrefixed(prefix, local, displayValue string) error {
	if !s.open {
		return newErr(KindUnexpectedState, "write_attr called with no open start tag")
	}

	var b strings.Builder
	b.WriteByte(' ')
	if prefix != "" {
		b.WriteString(prefix)
		b.WriteByte(':')
	}
	b.WriteString(local)
	b.WriteString(`="`)
	b.WriteString(entity.Encode(displayValue))
	b.WriteByte('"')
	return s.writeString(b.String())
}

// EndStart emits ">", closing the start tag.
func (s *Serializer) EndStart() error {
	if !s.open {
		return newErr(KindUnexpectedState, "end_start called with no open start tag")
	}
	s.open = false
	return s.writeString(">")
}

// WriteStr entity-encodes and writes text content.
func (s *Serializer) WriteStr(displayValue string) error {
	if s.open {
		return newErr(KindUnexpectedState, "write_str called with an open start tag")
	}
	return s.writeString(entity.Encode(displayValue))
}

// WriteClose emits "</" [prefix ":"] local ">". It does not check nesting;
// correctness is the caller's duty, same as spec §4.4 specifies and as the
// teacher's Canonicalize leaves to its own caller discipline.
func (s *Serializer) WriteClose(prefix, local string) error {
	var b strings.Builder
	b.WriteString("</")
	if prefix != "" {
		b.WriteString(prefix)
		b.WriteByte(':')
	}
	b.WriteString(local)
	b.WriteByte('>')
	return s.writeString(b.String())
}

// Frame describes the namespace bindings a Push installs: a default URI
// (empty string means "no default namespace for this element") and an
// insertion-ordered set of prefix bindings.
type Frame struct {
	DefaultURI string
	Bindings   []nsstack.Binding
}

// PushFrame installs frame onto the scope stack and emits any
// xmlns:prefix="uri" declarations new to this frame, in insertion order,
// immediately after the element's local name (before user attributes).
// Requires an open start tag, since the declarations are themselves
// attributes on it.
func (s *Serializer) PushFrame(frame Frame) (nsstack.Token, error) {
	if !s.open {
		return 0, newErr(KindUnexpectedState, "push called with no open start tag")
	}

	toDeclare := s.stack.NewBindings(frame.Bindings)
	tok := s.stack.Push(frame.DefaultURI, frame.Bindings)

	for _, b := range toDeclare {
		if err := s.WriteAttrPrefixed("xmlns", b.Prefix, b.URI); err != nil {
			return tok, err
		}
	}

	return tok, nil
}

// PopFrame restores the scope stack to its state before the matching
// PushFrame.
func (s *Serializer) PopFrame(tok nsstack.Token) {
	s.stack.Pop(tok)
}

// EffectiveDefault returns the innermost frame's default namespace URI.
func (s *Serializer) EffectiveDefault() string {
	return s.stack.EffectiveDefault()
}

// ResolvePrefix returns a prefix already bound to uri in the current
// scope, for deciding how a scalar child field should be wrapped (spec
// §4.4's emission policy).
func (s *Serializer) ResolvePrefix(uri string) (string, bool) {
	return s.stack.ResolvePrefix(uri)
}

// WriteWrappedScalar implements spec §4.4's emission policy for a Scalar
// child field: choose no prefix when uri equals the effective default,
// otherwise a resolved existing prefix, otherwise an inline xmlns="uri" on
// the wrapper element; write_start, end_start, the text via write, then
// write_close.
func (s *Serializer) WriteWrappedScalar(local, uri, displayValue string) error {
	switch {
	case uri == s.stack.EffectiveDefault():
		if err := s.WriteStart("", local, nil); err != nil {
			return err
		}
		if err := s.EndStart(); err != nil {
			return err
		}
		if err := s.WriteStr(displayValue); err != nil {
			return err
		}
		return s.WriteClose("", local)

	default:
		if prefix, ok := s.stack.ResolvePrefix(uri); ok {
			if err := s.WriteStart(prefix, local, nil); err != nil {
				return err
			}
			if err := s.EndStart(); err != nil {
				return err
			}
			if err := s.WriteStr(displayValue); err != nil {
				return err
			}
			return s.WriteClose(prefix, local)
		}

		if err := s.WriteStart("", local, &uri); err != nil {
			return err
		}
		if err := s.EndStart(); err != nil {
			return err
		}
		if err := s.WriteStr(displayValue); err != nil {
			return err
		}
		return s.WriteClose("", local)
	}
}
