// Package entity implements the five predefined XML entities: encoding
// display text for the wire, and decoding wire text read off the token
// source.
package entity

import (
	"fmt"
	"strings"
)

// InvalidEntityError reports an entity body that is not one of the five
// predefined entities, or one that never found its terminating ';'.
type InvalidEntityError struct {
	Body string
}

func (e *InvalidEntityError) Error() string {
	return fmt.Sprintf("invalid entity %q", e.Body)
}

// table is the predefined entity table, plain-text to entity form. It is
// the same substitution set the teacher's canonicalizer applies ad hoc via
// bytes.ReplaceAll on fixed byte slices; here it backs both directions.
var table = []struct {
	char   byte
	entity string
}{
	{'&', "&amp;"},
	{'<', "&lt;"},
	{'>', "&gt;"},
	{'"', "&quot;"},
	{'\'', "&apos;"},
}

var decodeTable = map[string]byte{
	"amp":  '&',
	"lt":   '<',
	"gt":   '>',
	"quot": '"',
	"apos": '\'',
}

// maxEntityBody bounds the buffer collected between '&' and ';': the
// longest predefined entity body ("quot" or "apos") is 4 bytes.
const maxEntityBody = 4

// Encode returns input with the five predefined characters substituted for
// their entity forms. If no substitution was required, the returned string
// shares input's backing array (Go strings are always immutable views, so
// this is the zero-copy fast path the spec calls for).
func Encode(input string) string {
	if strings.IndexAny(input, "&<>\"'") < 0 {
		return input
	}

	var b strings.Builder
	b.Grow(len(input))
	for i := 0; i < len(input); i++ {
		c := input[i]
		substituted := false
		for _, e := range table {
			if c == e.char {
				b.WriteString(e.entity)
				substituted = true
				break
			}
		}
		if !substituted {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Decode reverses Encode, recognizing only the five predefined entities. It
// runs a single-pass, two-state machine (Normal / InEntity) over the input;
// unrecognized entity bodies, or bodies longer than maxEntityBody, fail.
// Decode does not recurse: the text produced by substitution is never
// rescanned for further entities.
func Decode(input string) (string, error) {
	if strings.IndexByte(input, '&') < 0 {
		return input, nil
	}

	var b strings.Builder
	b.Grow(len(input))

	inEntity := false
	var body []byte

	for i := 0; i < len(input); i++ {
		c := input[i]
		if !inEntity {
			if c == '&' {
				inEntity = true
				body = body[:0]
				continue
			}
			b.WriteByte(c)
			continue
		}

		if c == ';' {
			decoded, ok := decodeTable[string(body)]
			if !ok {
				return "", &InvalidEntityError{Body: string(body)}
			}
			b.WriteByte(decoded)
			inEntity = false
			continue
		}

		if len(body) >= maxEntityBody {
			return "", &InvalidEntityError{Body: string(body) + string(c)}
		}
		body = append(body, c)
	}

	if inEntity {
		return "", &InvalidEntityError{Body: string(body)}
	}

	return b.String(), nil
}
