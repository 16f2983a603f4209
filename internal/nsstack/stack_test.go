package nsstack_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tidalcode/xmlbind/internal/nsstack"
)

func TestStack_EmptyDefaults(t *testing.T) {
	var s nsstack.Stack

	assert.Equal(t, 0, s.Len())
	assert.Equal(t, "", s.EffectiveDefault())

	_, ok := s.ResolvePrefix("urn:example")
	assert.False(t, ok)

	_, ok = s.ResolveURI("bar")
	assert.False(t, ok)
}

func TestStack_PushPop(t *testing.T) {
	var s nsstack.Stack

	tok := s.Push("urn:root", []nsstack.Binding{{Prefix: "bar", URI: "BAZ"}})
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, "urn:root", s.EffectiveDefault())

	uri, ok := s.ResolveURI("bar")
	assert.True(t, ok)
	assert.Equal(t, "BAZ", uri)

	prefix, ok := s.ResolvePrefix("BAZ")
	assert.True(t, ok)
	assert.Equal(t, "bar", prefix)

	s.Pop(tok)
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, "", s.EffectiveDefault())
	_, ok = s.ResolveURI("bar")
	assert.False(t, ok)
}

// TestStack_Shadowing verifies property 3 of spec §8: a prefix declared at
// depth k is resolvable at depths >= k until its owning element closes, and
// a nearer declaration shadows an outer one with the same prefix.
func TestStack_Shadowing(t *testing.T) {
	var s nsstack.Stack

	outer := s.Push("", []nsstack.Binding{{Prefix: "p", URI: "OUTER"}})
	inner := s.Push("", []nsstack.Binding{{Prefix: "p", URI: "INNER"}})

	uri, ok := s.ResolveURI("p")
	assert.True(t, ok)
	assert.Equal(t, "INNER", uri)

	s.Pop(inner)
	uri, ok = s.ResolveURI("p")
	assert.True(t, ok)
	assert.Equal(t, "OUTER", uri)

	s.Pop(outer)
	_, ok = s.ResolveURI("p")
	assert.False(t, ok)
}

// TestStack_BalancedPushPopIsNoop exercises the invariant from spec §3:
// after a balanced push/pop the stack is equivalent to its pre-push state.
func TestStack_BalancedPushPopIsNoop(t *testing.T) {
	var s nsstack.Stack
	s.Push("pre-existing", []nsstack.Binding{{Prefix: "x", URI: "Y"}})
	before := s.Len()

	tok := s.Push("tmp", []nsstack.Binding{{Prefix: "a", URI: "B"}})
	s.Pop(tok)

	assert.Equal(t, before, s.Len())
	assert.Equal(t, "pre-existing", s.EffectiveDefault())
	uri, ok := s.ResolveURI("x")
	assert.True(t, ok)
	assert.Equal(t, "Y", uri)
}

func TestStack_NewBindings_SuppressesRedundantDeclaration(t *testing.T) {
	var s nsstack.Stack
	s.Push("", []nsstack.Binding{{Prefix: "bar", URI: "BAZ"}})

	// Same prefix, same URI: redundant, must be suppressed.
	redundant := s.NewBindings([]nsstack.Binding{{Prefix: "bar", URI: "BAZ"}})
	assert.Empty(t, redundant)

	// Same prefix, different URI: must be redeclared.
	rebinding := s.NewBindings([]nsstack.Binding{{Prefix: "bar", URI: "DIFFERENT"}})
	assert.Equal(t, []nsstack.Binding{{Prefix: "bar", URI: "DIFFERENT"}}, rebinding)

	// New prefix entirely: must be declared.
	fresh := s.NewBindings([]nsstack.Binding{{Prefix: "foo", URI: "BAR"}})
	assert.Equal(t, []nsstack.Binding{{Prefix: "foo", URI: "BAR"}}, fresh)
}
