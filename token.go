package xmlbind

import (
	"encoding/xml"
	"io"

	"golang.org/x/net/html/charset"
)

// TokenKind identifies which variant a Token holds (spec §4.2).
type TokenKind int

const (
	TokenElementStart TokenKind = iota
	TokenAttribute
	TokenElementEnd
	TokenText
	TokenProcessingInstruction
	TokenComment
	TokenDocType
	TokenDeclaration
)

// ElementEndKind distinguishes a self-closing tag from an explicit open/close
// pair. The deserializer treats both identically. DefaultTokenSource always
// reports ElementEndOpenClose, since encoding/xml hands back a self-closing
// tag as a StartElement/EndElement pair.
type ElementEndKind int

const (
	ElementEndSelfClosing ElementEndKind = iota
	ElementEndOpenClose
)

// Token is the lexical unit the Deserializer consumes, in document order.
// RawValue/Raw have already been entity-decoded: encoding/xml's tokenizer
// expands the five predefined entities (and numeric character references)
// while lexing CharData and attribute values, and RawToken does not
// suppress that — there is no lower-level stdlib hook that would hand back
// pre-decode bytes. Callers (the Deserializer, adapters.parseScalar) treat
// this text as final and do not decode it again.
type Token struct {
	Kind TokenKind

	// ElementStart / ElementEnd / Attribute
	Prefix string
	Local  string

	// Attribute
	RawValue string

	// ElementEnd
	End ElementEndKind

	// Text
	Raw string
}

// TokenSource is the external collaborator of spec §4.2: an iterator over
// lexical XML tokens, yielded in document order with ElementStart followed
// immediately by that element's Attribute tokens. The underlying
// tokenizer itself is out of scope for this library (spec §1); TokenSource
// is the seam an embedder plugs one in through, the same role the
// teacher's RawTokenReader interface plays over encoding/xml.Decoder's
// RawToken method.
type TokenSource interface {
	// NextToken returns the next token, or io.EOF when the input is
	// exhausted. DefaultTokenSource returns io.EOF even when elements are
	// still open; the Deserializer reports an io.EOF met inside an element
	// as unexpected-end.
	NextToken() (Token, error)
}

// DefaultTokenSource adapts encoding/xml.Decoder to TokenSource. Non-UTF-8
// input is transcoded via golang.org/x/net/html/charset, the same package
// the teacher's own tests use (there, test-only) to read XML declaring
// non-UTF-8 encodings.
//
// encoding/xml surfaces an element's attributes as a slice on the
// StartElement value itself rather than as their own tokens, so
// DefaultTokenSource queues them and drains the queue before asking the
// decoder for more input — this is what turns encoding/xml's shape into
// the flat Attribute-token stream spec §4.2 describes.
type DefaultTokenSource struct {
	dec   *xml.Decoder
	queue []Token
}

// NewDefaultTokenSource wraps r as a TokenSource.
func NewDefaultTokenSource(r io.Reader) *DefaultTokenSource {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel
	return &DefaultTokenSource{dec: dec}
}

func (d *DefaultTokenSource) NextToken() (Token, error) {
	if len(d.queue) > 0 {
		tok := d.queue[0]
		d.queue = d.queue[1:]
		return tok, nil
	}

	tok, err := d.dec.RawToken()
	if err != nil {
		return Token{}, err
	}

	switch t := tok.(type) {
	case xml.StartElement:
		for _, attr := range t.Attr {
			d.queue = append(d.queue, Token{
				Kind:     TokenAttribute,
				Prefix:   attr.Name.Space,
				Local:    attr.Name.Local,
				RawValue: attr.Value,
			})
		}
		return Token{Kind: TokenElementStart, Prefix: t.Name.Space, Local: t.Name.Local}, nil
	case xml.EndElement:
		return Token{Kind: TokenElementEnd, Prefix: t.Name.Space, Local: t.Name.Local, End: ElementEndOpenClose}, nil
	case xml.CharData:
		return Token{Kind: TokenText, Raw: string(t)}, nil
	case xml.ProcInst:
		return Token{Kind: TokenProcessingInstruction}, nil
	case xml.Comment:
		return Token{Kind: TokenComment}, nil
	case xml.Directive:
		return Token{Kind: TokenDocType}, nil
	default:
		return Token{Kind: TokenDeclaration}, nil
	}
}
