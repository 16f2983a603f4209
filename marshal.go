package xmlbind

import (
	"io"
	"reflect"
	"strings"
)

// ToXMLString serializes value to a freshly allocated string — the
// convenience entry point of spec §6 ("to_string").
func ToXMLString[T any](value T) (string, error) {
	var b strings.Builder
	if err := Serialize(value, &b); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Serialize writes value's XML representation into w — the caller-owned
// sink entry point of spec §6 ("serialize").
func Serialize[T any](value T, w io.Writer) error {
	s := NewSerializer(w)
	return serializeValue(s, reflect.ValueOf(value), nil)
}

// FromXMLString parses a complete document into a T — spec §6's
// "from_str".
func FromXMLString[T any](text string) (T, error) {
	d := NewDeserializer(NewDefaultTokenSource(strings.NewReader(text)))
	return Deserialize[T](d)
}

// Deserialize parses the next value off d — spec §6's continuation form
// ("deserialize").
func Deserialize[T any](d *Deserializer) (T, error) {
	var out T
	v := reflect.ValueOf(&out).Elem()
	if err := deserializeValue(d, v, nil); err != nil {
		return out, err
	}
	return out, nil
}

// fieldOverride carries the local-name override a parent field chose for
// an Element-kind value — the Go analog of the Rust original's
// set_field_context/consume_field_context staging (SPEC_FULL.md §4).
type fieldOverride struct {
	localName string
}

// serializeValue writes v to s. override, when non-nil, supplies the
// local name a parent field chose for this value; Scalar-kind values
// reaching this function (top-level calls, and forward-variant payloads)
// get wrapped here using override's name or the Go type name as a
// fallback, since nested Scalar-kind struct fields are instead wrapped
// directly by serializeOneChild per spec §4.4's emission policy.
func serializeValue(s *Serializer, v reflect.Value, override *fieldOverride) error {
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return newErr(KindUnexpectedState, "serialize called on nil pointer")
		}
		v = v.Elem()
	}

	if isTextScalar(v.Type()) {
		text, err := formatScalar(v)
		if err != nil {
			return err
		}
		local := v.Type().Name()
		if override != nil && override.localName != "" {
			local = override.localName
		}
		return s.WriteWrappedScalar(local, "", text)
	}

	info, err := typeInfoFor(v.Type())
	if err != nil {
		return err
	}

	if info.forward {
		return serializeForward(s, v)
	}

	local := info.rootId.Local
	if override != nil && override.localName != "" {
		local = override.localName
	}

	if info.rootId.URI != "" && info.rootId.URI != s.EffectiveDefault() {
		if prefix, ok := s.ResolvePrefix(info.rootId.URI); ok {
			if err := s.WriteStart(prefix, local, nil); err != nil {
				return err
			}
			return finishSerializeBody(s, v, info, local, prefix)
		}
	}

	newDefault := info.rootId.URI
	if err := s.WriteStart("", local, &newDefault); err != nil {
		return err
	}
	return finishSerializeBody(s, v, info, local, "")
}

func finishSerializeBody(s *Serializer, v reflect.Value, info *typeInfo, local, prefix string) error {
	tok, err := s.PushFrame(info.frame)
	if err != nil {
		return err
	}
	defer s.PopFrame(tok)

	for _, fi := range info.attrs {
		fv := v.Field(fi.structField)
		present, inner := attributeValue(fv, fi)
		if !present {
			continue
		}
		text, err := formatScalar(inner)
		if err != nil {
			return err
		}
		if fi.id.URI == "" {
			if err := s.WriteAttr(fi.id.Local, text); err != nil {
				return err
			}
			continue
		}
		attrPrefix, ok := s.ResolvePrefix(fi.id.URI)
		if !ok {
			return fieldErr(KindOther, fi.name, "no prefix bound for attribute namespace "+fi.id.URI)
		}
		if err := s.WriteAttrPrefixed(attrPrefix, fi.id.Local, text); err != nil {
			return err
		}
	}

	if err := s.EndStart(); err != nil {
		return err
	}

	if info.text != nil {
		text, err := formatScalar(v.Field(info.text.structField))
		if err != nil {
			return err
		}
		if err := s.WriteStr(text); err != nil {
			return err
		}
	}

	for _, fi := range info.children {
		if err := serializeChildField(s, v.Field(fi.structField), fi); err != nil {
			return err
		}
	}

	return s.WriteClose(prefix, local)
}

func attributeValue(fv reflect.Value, fi fieldInfo) (present bool, inner reflect.Value) {
	if fi.accum == AccumOptional {
		if fv.IsNil() {
			return false, reflect.Value{}
		}
		return true, fv.Elem()
	}
	return true, fv
}

func serializeChildField(s *Serializer, fv reflect.Value, fi fieldInfo) error {
	switch fi.accum {
	case AccumOptional:
		if fv.IsNil() {
			return nil
		}
		return serializeOneChild(s, fv.Elem(), fi)
	case AccumMany:
		for i := 0; i < fv.Len(); i++ {
			if err := serializeOneChild(s, fv.Index(i), fi); err != nil {
				return err
			}
		}
		return nil
	default:
		return serializeOneChild(s, fv, fi)
	}
}

func serializeOneChild(s *Serializer, ev reflect.Value, fi fieldInfo) error {
	if fi.elemKind == KindScalar {
		text, err := formatScalar(ev)
		if err != nil {
			return err
		}
		return s.WriteWrappedScalar(fi.id.Local, fi.id.URI, text)
	}
	return serializeValue(s, ev, &fieldOverride{localName: fi.id.Local})
}

// sumValueField locates the "Value" field a forwarding wrapper type
// exposes its payload through.
func sumValueField(v reflect.Value) (reflect.Value, error) {
	fv := v.FieldByName("Value")
	if !fv.IsValid() {
		return reflect.Value{}, newErr(KindOther, "xmlbind: forwarding type "+v.Type().String()+" has no Value field")
	}
	return fv, nil
}

func serializeForward(s *Serializer, v reflect.Value) error {
	fv, err := sumValueField(v)
	if err != nil {
		return err
	}
	if fv.Kind() == reflect.Interface {
		fv = fv.Elem()
	}
	return serializeValue(s, fv, nil)
}

// deserializeValue parses one value of v's type from d. expectedLocal,
// when non-nil and non-empty, overrides the type's own root local name
// for matching (spec §4.7's field_override).
func deserializeValue(d *Deserializer, v reflect.Value, expectedLocal *string) error {
	if isTextScalar(v.Type()) {
		ctx, err := d.EnterElement(nil)
		if err != nil {
			return err
		}
		if err := drainUnknownAttributes(d, ctx); err != nil {
			return err
		}
		if err := readScalarText(d, v); err != nil {
			return err
		}
		return d.ExitElement(ctx)
	}

	info, err := typeInfoFor(v.Type())
	if err != nil {
		return err
	}

	if info.forward {
		return deserializeForwardTopLevel(d, v, info)
	}

	expected := info.rootId
	if expectedLocal != nil && *expectedLocal != "" {
		expected.Local = *expectedLocal
	}

	ctx, err := d.EnterElement(&expected)
	if err != nil {
		return err
	}
	if err := dispatchBody(d, v, info, ctx); err != nil {
		return err
	}
	return d.ExitElement(ctx)
}

// readScalarText reads the current element's text (possibly absent,
// treated as empty per spec's "empty element text yields the scalar's
// empty-string outcome") and parses it into v. The token source already
// entity-decoded the text; parseScalar does not decode it again.
func readScalarText(d *Deserializer, v reflect.Value) error {
	text, ok, err := d.TakeStr()
	if err != nil {
		return err
	}
	if !ok {
		text = ""
	}
	return parseScalar(v, text)
}

// seenFields tracks which struct fields (by index) have already received a
// value during one dispatchBody call, the Go analog of accumulator.go's
// OnceOptional.set: presence is an explicit flag, never inferred from the
// field's current value, since a legitimate zero value (0, "", false) must
// not be mistaken for "absent".
type seenFields map[int]bool

// dispatchBody runs the field-dispatch loop of spec §4.5 against an
// already-entered context: attribute table, then text field (if any),
// then the element-dispatch table, then finalize-in-declaration-order.
func dispatchBody(d *Deserializer, v reflect.Value, info *typeInfo, ctx *Context) error {
	seen := seenFields{}

	for {
		id, raw, ok, err := d.NextAttribute(ctx)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		fi, found := findAttr(info, id)
		if !found {
			continue
		}
		if err := assignScalarField(v.Field(fi.structField), fi, raw, seen); err != nil {
			return err
		}
	}

	if info.text != nil {
		if err := readScalarText(d, v.Field(info.text.structField)); err != nil {
			return err
		}
		seen[info.text.structField] = true
	}

	for {
		childId, childCtx, ok, err := d.NextChild()
		if err != nil {
			return err
		}
		if !ok {
			break
		}

		fi, found := findChild(info, childId)
		if !found {
			if err := d.SkipElement(childCtx); err != nil {
				return err
			}
			continue
		}

		if err := assignChildField(d, v.Field(fi.structField), fi, childId, childCtx, seen); err != nil {
			return err
		}
	}

	return applyFieldDefaults(v, info, seen)
}

func findAttr(info *typeInfo, id Id) (fieldInfo, bool) {
	for _, fi := range info.attrs {
		if fi.id == id {
			return fi, true
		}
	}
	return fieldInfo{}, false
}

func findChild(info *typeInfo, id Id) (fieldInfo, bool) {
	for _, fi := range info.children {
		if fi.id == id {
			return fi, true
		}
	}
	return fieldInfo{}, false
}

func drainUnknownAttributes(d *Deserializer, ctx *Context) error {
	for {
		_, _, ok, err := d.NextAttribute(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}
}

// assignScalarField parses an already entity-decoded attribute value into
// fv. Duplicate occurrence of a once-only field is checked against seen,
// not fv's value, since the zero value of fv's type is a legitimate
// occurrence (e.g. an int attribute explicitly set to "0").
func assignScalarField(fv reflect.Value, fi fieldInfo, raw string, seen seenFields) error {
	switch fi.accum {
	case AccumOptional:
		if !fv.IsNil() {
			return fieldErr(KindDuplicateValue, fi.name, "")
		}
		fv.Set(reflect.New(fi.elemType))
		return parseScalar(fv.Elem(), raw)
	case AccumMany:
		elem := reflect.New(fi.elemType).Elem()
		if err := parseScalar(elem, raw); err != nil {
			return err
		}
		fv.Set(reflect.Append(fv, elem))
		return nil
	default:
		if seen[fi.structField] {
			return fieldErr(KindDuplicateValue, fi.name, "")
		}
		seen[fi.structField] = true
		return parseScalar(fv, raw)
	}
}

// assignChildField routes an already-entered child context (childId
// matched fi's Id) into fv, honoring fi's accumulator shape. See
// assignScalarField on why duplicate detection uses seen rather than fv's
// own value.
func assignChildField(d *Deserializer, fv reflect.Value, fi fieldInfo, childId Id, ctx *Context, seen seenFields) error {
	switch fi.accum {
	case AccumOptional:
		if !fv.IsNil() {
			return fieldErr(KindDuplicateValue, fi.name, "")
		}
		fv.Set(reflect.New(fi.elemType))
		return deserializeChildInto(d, fv.Elem(), fi, childId, ctx)
	case AccumMany:
		elem := reflect.New(fi.elemType).Elem()
		if err := deserializeChildInto(d, elem, fi, childId, ctx); err != nil {
			return err
		}
		fv.Set(reflect.Append(fv, elem))
		return nil
	default:
		if seen[fi.structField] {
			return fieldErr(KindDuplicateValue, fi.name, "")
		}
		seen[fi.structField] = true
		return deserializeChildInto(d, fv, fi, childId, ctx)
	}
}

// deserializeChildInto finishes populating fv (of type fi.elemType) from
// an element NextChild already entered as ctx.
func deserializeChildInto(d *Deserializer, fv reflect.Value, fi fieldInfo, childId Id, ctx *Context) error {
	if fi.elemKind == KindScalar {
		if err := drainUnknownAttributes(d, ctx); err != nil {
			return err
		}
		if err := readScalarText(d, fv); err != nil {
			return err
		}
		return d.ExitElement(ctx)
	}

	info, err := typeInfoFor(fv.Type())
	if err != nil {
		return err
	}
	if info.forward {
		return deserializeForwardInto(d, fv, info, childId, ctx)
	}
	if err := dispatchBody(d, fv, info, ctx); err != nil {
		return err
	}
	return d.ExitElement(ctx)
}

// applyFieldDefaults runs the finalize step of spec §3's accumulators
// over every AccumOnce field (attributes, the text field, and child
// elements alike): absent at finalize is an error unless the type's
// Defaulter supplies a value, exactly as OnceOptional.Finalize specifies.
// Attributes and the text field report missing-value; child elements
// report missing-tag, since a missing start tag is the more specific
// diagnosis for those. Presence is read from seen, not the field's
// current value, so a field explicitly set to its zero value does not
// read as absent.
func applyFieldDefaults(v reflect.Value, info *typeInfo, seen seenFields) error {
	var defaulter Defaulter
	if v.CanAddr() {
		defaulter, _ = v.Addr().Interface().(Defaulter)
	}

	checkOnce := func(fi fieldInfo, missingKind ErrorKind) error {
		if fi.accum != AccumOnce {
			return nil
		}
		if seen[fi.structField] {
			return nil
		}
		fv := v.Field(fi.structField)
		if defaulter != nil {
			if dv, ok := defaulter.XMLFieldDefault(fi.name); ok {
				fv.Set(reflect.ValueOf(dv))
				return nil
			}
		}
		return fieldErr(missingKind, fi.name, "")
	}

	for _, fi := range info.attrs {
		if err := checkOnce(fi, KindMissingValue); err != nil {
			return err
		}
	}
	if info.text != nil {
		if err := checkOnce(*info.text, KindMissingValue); err != nil {
			return err
		}
	}
	for _, fi := range info.children {
		if err := checkOnce(fi, KindMissingTag); err != nil {
			return err
		}
	}
	return nil
}

// variantInfo resolves the typeInfo for one forwarding-variant prototype.
func variantInfo(proto any) (reflect.Type, *typeInfo, error) {
	t := reflect.TypeOf(proto)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	info, err := typeInfoFor(t)
	return t, info, err
}

// deserializeForwardTopLevel handles a forwarding type as the document
// root: the variant is not yet known, so it must peek the root element's
// Id before entering.
func deserializeForwardTopLevel(d *Deserializer, v reflect.Value, info *typeInfo) error {
	id, ok, err := d.PeekChildId()
	if err != nil {
		return err
	}
	if !ok {
		return newErr(KindUnexpectedEnd, "no root element")
	}

	for _, proto := range info.variants {
		t, vi, err := variantInfo(proto)
		if err != nil {
			return err
		}
		if vi.rootId != id {
			continue
		}

		ctx, err := d.EnterElement(&vi.rootId)
		if err != nil {
			return err
		}
		val := reflect.New(t).Elem()
		if err := dispatchBody(d, val, vi, ctx); err != nil {
			return err
		}
		if err := d.ExitElement(ctx); err != nil {
			return err
		}

		fv, err := sumValueField(v)
		if err != nil {
			return err
		}
		fv.Set(val)
		return nil
	}

	return fieldErr(KindUnexpectedTag, info.rootId.Local, "no variant matches "+id.String())
}

// deserializeForwardInto handles a forwarding field nested inside another
// composite: NextChild already entered the element and told us its Id, so
// variant selection is a direct lookup, no peeking required.
func deserializeForwardInto(d *Deserializer, fv reflect.Value, info *typeInfo, childId Id, ctx *Context) error {
	for _, proto := range info.variants {
		t, vi, err := variantInfo(proto)
		if err != nil {
			return err
		}
		if vi.rootId != childId {
			continue
		}

		val := reflect.New(t).Elem()
		if err := dispatchBody(d, val, vi, ctx); err != nil {
			return err
		}
		if err := d.ExitElement(ctx); err != nil {
			return err
		}

		valueField, err := sumValueField(fv)
		if err != nil {
			return err
		}
		valueField.Set(val)
		return nil
	}

	return fieldErr(KindUnexpectedTag, info.rootId.Local, "no variant matches "+childId.String())
}
