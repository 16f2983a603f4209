package entity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidalcode/xmlbind/internal/entity"
)

func TestEncode(t *testing.T) {
	assert.Equal(t, "plain text", entity.Encode("plain text"))
	assert.Equal(t, "a &amp; b &lt;c&gt; &quot;d&quot; &apos;e&apos;",
		entity.Encode(`a & b <c> "d" 'e'`))
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no entities", "plain text", "plain text"},
		{"amp", "foo &amp; bar", "foo & bar"},
		{"non-recursive", "foo &amp;lt; bar", "foo &lt; bar"},
		{"all five", "&amp;&lt;&gt;&quot;&apos;", `&<>"'`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := entity.Decode(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecode_InvalidEntity(t *testing.T) {
	_, err := entity.Decode("&foo;")
	require.Error(t, err)

	var invalid *entity.InvalidEntityError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "foo", invalid.Body)
}

func TestDecode_TooLong(t *testing.T) {
	_, err := entity.Decode("&toolong;")
	require.Error(t, err)
}

func TestDecode_Unterminated(t *testing.T) {
	_, err := entity.Decode("&amp")
	require.Error(t, err)
}

func TestRoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"plain",
		`a & b <c> "d" 'e'`,
		"unicode: héllo wörld 中文",
	}

	for _, in := range inputs {
		encoded := entity.Encode(in)
		decoded, err := entity.Decode(encoded)
		require.NoError(t, err)
		assert.Equal(t, in, decoded)
	}
}
