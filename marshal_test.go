package xmlbind

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidalcode/xmlbind/internal/xmlcompare"
)

type item struct {
	ID   string `xmlbind:"id,attr"`
	Name string `xmlbind:"name"`
}

func TestRoundTrip_AttributeAndTextChild(t *testing.T) {
	in := item{ID: "1", Name: "widget"}

	out, err := ToXMLString(in)
	require.NoError(t, err)

	equal, msg, err := xmlcompare.Equal(out, `<item id="1"><name>widget</name></item>`)
	require.NoError(t, err)
	assert.True(t, equal, msg)

	back, err := FromXMLString[item](out)
	require.NoError(t, err)
	assert.Equal(t, in, back)
}

type doc struct {
	Lang string `xmlbind:"lang,attr,nsref=xml"`
	Body string `xmlbind:"body"`
}

func (doc) XMLBindings() Bindings {
	return Bindings{
		DefaultURI: "urn:doc",
		Prefixes:   []PrefixBinding{{Prefix: "xml", URI: "http://www.w3.org/XML/1998/namespace"}},
		Rename:     "doc",
	}
}

func TestRoundTrip_NamespacedRootAndPrefixedAttribute(t *testing.T) {
	in := doc{Lang: "en", Body: "hello"}

	out, err := ToXMLString(in)
	require.NoError(t, err)

	equal, msg, err := xmlcompare.Equal(out,
		`<doc xmlns="urn:doc" xmlns:xml="http://www.w3.org/XML/1998/namespace" xml:lang="en"><body>hello</body></doc>`)
	require.NoError(t, err)
	assert.True(t, equal, msg)

	back, err := FromXMLString[doc](out)
	require.NoError(t, err)
	assert.Equal(t, in, back)
}

type circle struct {
	Radius int `xmlbind:"radius,attr"`
}

func (circle) XMLBindings() Bindings { return Bindings{Rename: "circle"} }

type square struct {
	Side int `xmlbind:"side,attr"`
}

func (square) XMLBindings() Bindings { return Bindings{Rename: "square"} }

type shape struct {
	Value any
}

func (shape) XMLBindings() Bindings { return Bindings{Forward: true, Rename: "shape"} }
func (shape) XMLVariants() []any    { return []any{circle{}, square{}} }

func TestForwarding_SelectsVariantByElementId(t *testing.T) {
	out, err := FromXMLString[shape](`<circle radius="5"/>`)
	require.NoError(t, err)
	assert.Equal(t, circle{Radius: 5}, out.Value)

	text, err := ToXMLString(shape{Value: square{Side: 3}})
	require.NoError(t, err)

	equal, msg, err := xmlcompare.Equal(text, `<square side="3"></square>`)
	require.NoError(t, err)
	assert.True(t, equal, msg)
}

func TestForwarding_UnmatchedVariantIsUnexpectedTag(t *testing.T) {
	_, err := FromXMLString[shape](`<triangle/>`)
	require.Error(t, err)

	var xerr *Error
	require.True(t, errors.As(err, &xerr))
	assert.Equal(t, KindUnexpectedTag, xerr.Kind)
}

type borrowed struct {
	Body RawString `xmlbind:"body"`
}

func TestRawString_AcceptsUnescapedText(t *testing.T) {
	out, err := FromXMLString[borrowed]("<borrowed><body>hello there</body></borrowed>")
	require.NoError(t, err)
	assert.Equal(t, RawString("hello there"), out.Body)
}

func TestRawString_RejectsEscapedText(t *testing.T) {
	_, err := FromXMLString[borrowed]("<borrowed><body>hello &amp; there</body></borrowed>")
	require.Error(t, err)

	var xerr *Error
	require.True(t, errors.As(err, &xerr))
	assert.Equal(t, KindUnexpectedValue, xerr.Kind)
}

type owned struct {
	Body CowString `xmlbind:"body"`
}

func TestCowString_AcceptsEscapedText(t *testing.T) {
	out, err := FromXMLString[owned]("<owned><body>hello &amp; there</body></owned>")
	require.NoError(t, err)
	assert.Equal(t, CowString("hello & there"), out.Body)
}

type record struct {
	X int `xmlbind:"x"`
}

func TestDuplicateOnceField_IsDuplicateValueError(t *testing.T) {
	_, err := FromXMLString[record]("<record><x>1</x><x>2</x></record>")
	require.Error(t, err)

	var xerr *Error
	require.True(t, errors.As(err, &xerr))
	assert.Equal(t, KindDuplicateValue, xerr.Kind)
}

type bag struct {
	Values []int `xmlbind:"value"`
}

func TestSequenceField_RoundTrips(t *testing.T) {
	in := bag{Values: []int{1, 2, 3}}

	out, err := ToXMLString(in)
	require.NoError(t, err)

	equal, msg, err := xmlcompare.Equal(out,
		`<bag><value>1</value><value>2</value><value>3</value></bag>`)
	require.NoError(t, err)
	assert.True(t, equal, msg)

	back, err := FromXMLString[bag](out)
	require.NoError(t, err)
	assert.Equal(t, in, back)
}

func TestSequenceField_AbsentFinalizesEmpty(t *testing.T) {
	out, err := FromXMLString[bag]("<bag></bag>")
	require.NoError(t, err)
	assert.Empty(t, out.Values)
}

type withOptional struct {
	Title *string `xmlbind:"title"`
}

func TestOptionalField_AbsentIsNilNotError(t *testing.T) {
	out, err := FromXMLString[withOptional]("<withOptional></withOptional>")
	require.NoError(t, err)
	assert.Nil(t, out.Title)
}

func TestOptionalField_PresentRoundTrips(t *testing.T) {
	title := "hello"
	in := withOptional{Title: &title}

	out, err := ToXMLString(in)
	require.NoError(t, err)

	back, err := FromXMLString[withOptional](out)
	require.NoError(t, err)
	require.NotNil(t, back.Title)
	assert.Equal(t, title, *back.Title)
}

type withDefault struct {
	Count int `xmlbind:"count"`
}

func (withDefault) XMLFieldDefault(field string) (any, bool) {
	if field == "count" {
		return 42, true
	}
	return nil, false
}

func TestDefaulter_SuppliesMissingFieldInsteadOfError(t *testing.T) {
	out, err := FromXMLString[withDefault]("<withDefault></withDefault>")
	require.NoError(t, err)
	assert.Equal(t, 42, out.Count)
}

type noDefault struct {
	Count int `xmlbind:"count"`
}

func TestMissingRequiredField_IsMissingTagError(t *testing.T) {
	_, err := FromXMLString[noDefault]("<noDefault></noDefault>")
	require.Error(t, err)

	var xerr *Error
	require.True(t, errors.As(err, &xerr))
	assert.Equal(t, KindMissingTag, xerr.Kind)
}

type nested struct {
	Inner item `xmlbind:"inner"`
}

func TestElementChild_SelfWrapsUsingOwnRegisteredId(t *testing.T) {
	in := nested{Inner: item{ID: "9", Name: "gear"}}

	out, err := ToXMLString(in)
	require.NoError(t, err)

	back, err := FromXMLString[nested](out)
	require.NoError(t, err)
	assert.Equal(t, in, back)
}

func TestTopLevelScalar_RoundTrips(t *testing.T) {
	out, err := ToXMLString(42)
	require.NoError(t, err)

	equal, msg, err := xmlcompare.Equal(out, `<int>42</int>`)
	require.NoError(t, err)
	assert.True(t, equal, msg)

	back, err := FromXMLString[int](`<anything>42</anything>`)
	require.NoError(t, err)
	assert.Equal(t, 42, back)
}

func TestUnknownChildElement_IsSkipped(t *testing.T) {
	out, err := FromXMLString[item](`<item id="1"><name>widget</name><future>ignored</future></item>`)
	require.NoError(t, err)
	assert.Equal(t, item{ID: "1", Name: "widget"}, out)
}
