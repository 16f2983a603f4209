// Package xmlcompare compares two XML documents for structural equality,
// ignoring attribute order and insignificant whitespace. It exists for
// round-trip tests where map and struct-field iteration order is not
// significant but document content is.
//
// The attribute-ordering key (namespace URI first, local name second) is
// the same one github.com/ucarion/c14n's internal/sortattr sorts by for
// canonical output; here it normalizes both sides before comparing
// instead of producing canonical bytes.
package xmlcompare

import (
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"
)

type attr struct {
	space, local, value string
}

type node struct {
	space, local string
	attrs        []attr
	children     []*node
	text         string
}

func parse(r io.Reader) (*node, error) {
	dec := xml.NewDecoder(r)
	var stack []*node
	var root *node

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &node{space: t.Name.Space, local: t.Name.Local}
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
					continue
				}
				n.attrs = append(n.attrs, attr{space: a.Name.Space, local: a.Name.Local, value: a.Value})
			}
			sort.Slice(n.attrs, func(i, j int) bool {
				if n.attrs[i].space != n.attrs[j].space {
					return n.attrs[i].space < n.attrs[j].space
				}
				return n.attrs[i].local < n.attrs[j].local
			})

			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			} else {
				root = n
			}
			stack = append(stack, n)

		case xml.EndElement:
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text += string(t)
			}
		}
	}

	return root, nil
}

func (n *node) normalizedText() string {
	return strings.TrimSpace(n.text)
}

func diff(a, b *node, path string) string {
	if a == nil && b == nil {
		return ""
	}
	if a == nil {
		return fmt.Sprintf("%s: left is missing, right has %s", path, b.local)
	}
	if b == nil {
		return fmt.Sprintf("%s: right is missing, left has %s", path, a.local)
	}

	here := path + "/" + a.local
	if a.space != b.space || a.local != b.local {
		return fmt.Sprintf("%s: element mismatch {%s}%s vs {%s}%s", path, a.space, a.local, b.space, b.local)
	}
	if len(a.attrs) != len(b.attrs) {
		return fmt.Sprintf("%s: attribute count %d vs %d", here, len(a.attrs), len(b.attrs))
	}
	for i := range a.attrs {
		if a.attrs[i] != b.attrs[i] {
			return fmt.Sprintf("%s: attribute %d mismatch %+v vs %+v", here, i, a.attrs[i], b.attrs[i])
		}
	}
	if a.normalizedText() != b.normalizedText() {
		return fmt.Sprintf("%s: text %q vs %q", here, a.normalizedText(), b.normalizedText())
	}
	if len(a.children) != len(b.children) {
		return fmt.Sprintf("%s: child count %d vs %d", here, len(a.children), len(b.children))
	}
	for i := range a.children {
		if d := diff(a.children[i], b.children[i], here); d != "" {
			return d
		}
	}
	return ""
}

// Equal reports whether x and y are the same document up to attribute
// order and insignificant whitespace. On mismatch it returns a
// human-readable description of the first difference found.
func Equal(x, y string) (bool, string, error) {
	nx, err := parse(strings.NewReader(x))
	if err != nil {
		return false, "", fmt.Errorf("xmlcompare: parsing left: %w", err)
	}
	ny, err := parse(strings.NewReader(y))
	if err != nil {
		return false, "", fmt.Errorf("xmlcompare: parsing right: %w", err)
	}

	if d := diff(nx, ny, ""); d != "" {
		return false, d, nil
	}
	return true, "", nil
}
