package xmlbind

import (
	"encoding"
	"reflect"
	"strconv"
	"strings"
)

// entitySensitiveChars are the five characters the predefined entities
// decode to. encoding/xml's tokenizer (and RawToken, which does not
// suppress this) expands entities while lexing, so text reaching
// parseScalar is already decoded. A literal, unescaped '&' or '<' is not
// well-formed XML content, so either one in decoded text came from an
// entity; '>', '"' and the apostrophe may also appear literally in the
// source, so decoded text does not show whether those three were escaped.
const entitySensitiveChars = "&<>\"'"

// RawString is a scalar adapter for the "borrowed string" case: it fails
// with unexpected-value when the decoded text contains any of
// entitySensitiveChars. Text that needed entity substitution is therefore
// always rejected; text holding a literal '>', '"' or apostrophe is
// rejected as well, although it needed no substitution. Go's strings are
// garbage-collected values with no explicit buffer lifetime to track, so
// no slice of the input buffer is kept.
type RawString string

// CowString is a scalar adapter that behaves like RawString when the text
// needed no substitution, and like an owned string otherwise — it never
// fails, unlike RawString.
type CowString string

// Unit is a scalar adapter that accepts any (or empty) text content and
// carries no data, for fields whose presence alone is the payload.
type Unit struct{}

var (
	textMarshalerType   = reflect.TypeFor[encoding.TextMarshaler]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
)

// formatScalar renders v (a non-pointer reflect.Value for a Kind-scalar,
// RawString, CowString, Unit, or an encoding.TextMarshaler) to display
// text, the serializer-side half of the value adapters of spec §4.6.
func formatScalar(v reflect.Value) (string, error) {
	if v.Type().Implements(textMarshalerType) {
		text, err := v.Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return "", wrapErr(KindOther, err)
		}
		return string(text), nil
	}
	if reflect.PointerTo(v.Type()).Implements(textMarshalerType) && v.CanAddr() {
		text, err := v.Addr().Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return "", wrapErr(KindOther, err)
		}
		return string(text), nil
	}

	switch v.Type() {
	case reflect.TypeOf(Unit{}):
		return "", nil
	case reflect.TypeOf(RawString("")):
		return v.String(), nil
	case reflect.TypeOf(CowString("")):
		return v.String(), nil
	}

	switch v.Kind() {
	case reflect.String:
		return v.String(), nil
	case reflect.Bool:
		if v.Bool() {
			return "true", nil
		}
		return "false", nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10), nil
	case reflect.Float32:
		return strconv.FormatFloat(v.Float(), 'g', -1, 32), nil
	case reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64), nil
	default:
		return "", newErr(KindOther, "unsupported scalar kind "+v.Kind().String())
	}
}

// parseScalar parses text into v (addressable), the deserializer-side
// half of spec §4.6's adapters. text has already been entity-decoded by
// the token source (see Token's doc comment in token.go) — parseScalar
// does not decode it again, since doing so would misinterpret a decoded
// '&' as the start of a second, nonexistent entity.
func parseScalar(v reflect.Value, text string) error {
	if v.CanAddr() && reflect.PointerTo(v.Type()).Implements(textUnmarshalerType) {
		if err := v.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(text)); err != nil {
			return wrapErr(KindUnexpectedValue, err)
		}
		return nil
	}

	switch v.Type() {
	case reflect.TypeOf(Unit{}):
		v.Set(reflect.ValueOf(Unit{}))
		return nil
	case reflect.TypeOf(RawString("")):
		if strings.ContainsAny(text, entitySensitiveChars) {
			return newErr(KindUnexpectedValue, "borrowed string requires unescaped text")
		}
		v.SetString(text)
		return nil
	case reflect.TypeOf(CowString("")):
		v.SetString(text)
		return nil
	}

	switch v.Kind() {
	case reflect.String:
		v.SetString(text)
		return nil
	case reflect.Bool:
		switch text {
		case "true", "1":
			v.SetBool(true)
		case "false", "0":
			v.SetBool(false)
		default:
			return newErr(KindUnexpectedValue, "unable to parse bool from "+strconv.Quote(text))
		}
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(text, 10, v.Type().Bits())
		if err != nil {
			return wrapErr(KindUnexpectedValue, err)
		}
		v.SetInt(n)
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(text, 10, v.Type().Bits())
		if err != nil {
			return wrapErr(KindUnexpectedValue, err)
		}
		v.SetUint(n)
		return nil
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(text, v.Type().Bits())
		if err != nil {
			return wrapErr(KindUnexpectedValue, err)
		}
		v.SetFloat(f)
		return nil
	default:
		return newErr(KindOther, "unsupported scalar kind "+v.Kind().String())
	}
}

// isTextScalar reports whether t is handled by formatScalar/parseScalar as
// a text leaf (Kind == Scalar), covering Go's scalar kinds, RawString,
// CowString, Unit, and any encoding.TextMarshaler/TextUnmarshaler — the
// generalization that gives the spec-mentioned date/IP adapters a home
// (time.Time and net.IP both implement the encoding.TextMarshaler pair)
// without hardcoding either type.
func isTextScalar(t reflect.Type) bool {
	if t.Implements(textMarshalerType) || reflect.PointerTo(t).Implements(textMarshalerType) {
		return true
	}
	switch t {
	case reflect.TypeOf(Unit{}), reflect.TypeOf(RawString("")), reflect.TypeOf(CowString("")):
		return true
	}
	switch t.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
