package xmlbind

import (
	"io"
	"strings"

	"github.com/tidalcode/xmlbind/internal/nsstack"
)

// Context is the handle returned by EnterElement / yielded by NextChild. It
// threads through NextAttribute/TakeStr/NextChild/ExitElement for the
// element it was returned for.
type Context struct {
	Id    Id
	token nsstack.Token
	attrs []Token // buffered non-namespace attribute tokens, in document order
}

// Deserializer drives a TokenSource through the field-matching loop of
// spec §4.5: it holds the token source, a namespace scope stack, and one
// token of lookahead, and exposes enter/attribute/text/child/exit
// primitives the generated (here: registry-driven) dispatch loop composes.
type Deserializer struct {
	src     TokenSource
	stack   nsstack.Stack
	peeked  *Token
	peekErr error
}

// NewDeserializer wraps src.
func NewDeserializer(src TokenSource) *Deserializer {
	return &Deserializer{src: src}
}

// nextRaw fetches the next token from the source, transparently skipping
// processing instructions, comments, doctypes and declarations — the
// deserializer ignores all four per spec §4.2, so no other method needs to
// special-case them.
func (d *Deserializer) nextRaw() (Token, error) {
	for {
		t, err := d.src.NextToken()
		if err != nil {
			return Token{}, err
		}
		switch t.Kind {
		case TokenProcessingInstruction, TokenComment, TokenDocType, TokenDeclaration:
			continue
		default:
			return t, nil
		}
	}
}

func (d *Deserializer) peek() (Token, error) {
	if d.peeked != nil {
		return *d.peeked, d.peekErr
	}
	t, err := d.nextRaw()
	d.peeked = &t
	d.peekErr = err
	return t, err
}

func (d *Deserializer) advance() (Token, error) {
	t, err := d.peek()
	d.peeked = nil
	d.peekErr = nil
	return t, err
}

func eofToErr(err error) error {
	if err == io.EOF {
		return newErr(KindUnexpectedEnd, "input ended before the root element was closed")
	}
	return wrapErr(KindParse, err)
}

// EnterElement consumes one ElementStart, checks its Id against expected
// when expected is non-nil (local mismatch -> unexpected-tag, namespace
// mismatch with matching local -> wrong-namespace), pushes a scope frame
// built from the element's xmlns/xmlns:p attributes, and returns a
// context. Regular (non-namespace) attributes are buffered for
// NextAttribute.
func (d *Deserializer) EnterElement(expected *Id) (*Context, error) {
	tok, err := d.advance()
	if err != nil {
		return nil, eofToErr(err)
	}
	if tok.Kind != TokenElementStart {
		return nil, newErr(KindUnexpectedToken, "expected start of element")
	}

	defaultURI := d.stack.EffectiveDefault()
	var bindings []nsstack.Binding
	var regular []Token

	for {
		p, err := d.peek()
		if err != nil {
			return nil, eofToErr(err)
		}
		if p.Kind != TokenAttribute {
			break
		}
		d.advance()

		switch {
		case p.Prefix == "" && p.Local == "xmlns":
			defaultURI = p.RawValue
		case p.Prefix == "xmlns":
			bindings = append(bindings, nsstack.Binding{Prefix: p.Local, URI: p.RawValue})
		default:
			regular = append(regular, p)
		}
	}

	nsTok := d.stack.Push(defaultURI, bindings)

	var uri string
	if tok.Prefix == "" {
		uri = d.stack.EffectiveDefault()
	} else {
		var ok bool
		uri, ok = d.stack.ResolveURI(tok.Prefix)
		if !ok {
			d.stack.Pop(nsTok)
			return nil, fieldErr(KindMissingPrefix, tok.Prefix, "no binding in scope")
		}
	}

	id := Id{URI: uri, Local: tok.Local}

	if expected != nil {
		if id.Local != expected.Local {
			d.stack.Pop(nsTok)
			return nil, fieldErr(KindUnexpectedTag, expected.Local, "got "+id.String())
		}
		if id.URI != expected.URI {
			d.stack.Pop(nsTok)
			return nil, fieldErr(KindWrongNamespace, expected.Local, "got namespace "+id.URI)
		}
	}

	return &Context{Id: id, token: nsTok, attrs: regular}, nil
}

// NextAttribute yields the next attribute on the just-entered element as
// an (Id, value) pair, or ok=false when attributes are exhausted. tok's
// value already went through entity decoding in the token source (see
// Token's doc comment); this just hands it back unchanged. Per XML
// namespace rules an unprefixed attribute carries no namespace — unlike
// elements, it does not inherit the scope's default URI.
func (d *Deserializer) NextAttribute(ctx *Context) (Id, string, bool, error) {
	if len(ctx.attrs) == 0 {
		return Id{}, "", false, nil
	}

	tok := ctx.attrs[0]
	ctx.attrs = ctx.attrs[1:]

	var uri string
	if tok.Prefix != "" {
		var ok bool
		uri, ok = d.stack.ResolveURI(tok.Prefix)
		if !ok {
			return Id{}, "", false, fieldErr(KindMissingPrefix, tok.Prefix, "no binding in scope")
		}
	}

	return Id{URI: uri, Local: tok.Local}, tok.RawValue, true, nil
}

// TakeStr reads text children of the current element until its end tag,
// concatenating adjacent text runs into a single span. It returns
// ok=false when the element has no text. The text has already been
// entity-decoded by the token source; TakeStr does not decode it again.
//
// Whitespace-only runs adjacent to a following child element are treated
// as formatting and skipped rather than rejected; any other text followed
// by a child element is mixed content and spec §9 says to reject it.
func (d *Deserializer) TakeStr() (string, bool, error) {
	var b strings.Builder
	saw := false

	for {
		tok, err := d.peek()
		if err != nil {
			return "", false, eofToErr(err)
		}

		if tok.Kind != TokenText {
			break
		}
		d.advance()
		b.WriteString(tok.Raw)
		saw = true
	}

	if !saw {
		return "", false, nil
	}

	text := b.String()

	next, err := d.peek()
	if err != nil {
		return "", false, eofToErr(err)
	}
	if next.Kind == TokenElementStart {
		if strings.TrimSpace(text) != "" {
			return "", false, newErr(KindUnexpectedToken, "text followed by child element (mixed content)")
		}
		return "", false, nil
	}

	return text, true, nil
}

// NextChild advances to the next child element, entering it (pushing its
// scope frame, buffering its attributes) and returning its Id plus
// context, or ok=false at end-of-element. Whitespace-only text between
// siblings is skipped; any other stray text is unexpected-token.
func (d *Deserializer) NextChild() (Id, *Context, bool, error) {
	for {
		tok, err := d.peek()
		if err != nil {
			return Id{}, nil, false, eofToErr(err)
		}

		switch tok.Kind {
		case TokenElementEnd:
			return Id{}, nil, false, nil
		case TokenElementStart:
			ctx, err := d.EnterElement(nil)
			if err != nil {
				return Id{}, nil, false, err
			}
			return ctx.Id, ctx, true, nil
		case TokenText:
			if strings.TrimSpace(tok.Raw) != "" {
				return Id{}, nil, false, newErr(KindUnexpectedToken, "text among child elements (mixed content)")
			}
			d.advance()
		default:
			return Id{}, nil, false, newErr(KindUnexpectedToken, "unexpected token among children")
		}
	}
}

// SkipElement consumes the remainder of ctx's subtree without interpreting
// it, for the "unknown child element, forward-compatible" case of spec
// §4.5 step 3, then pops its scope frame.
func (d *Deserializer) SkipElement(ctx *Context) error {
	depth := 1
	for depth > 0 {
		tok, err := d.advance()
		if err != nil {
			return eofToErr(err)
		}
		switch tok.Kind {
		case TokenElementStart:
			depth++
		case TokenElementEnd:
			depth--
		}
	}
	d.stack.Pop(ctx.token)
	return nil
}

// ExitElement consumes the matching ElementEnd and pops the scope frame.
func (d *Deserializer) ExitElement(ctx *Context) error {
	tok, err := d.advance()
	if err != nil {
		return eofToErr(err)
	}
	if tok.Kind != TokenElementEnd {
		return newErr(KindUnexpectedToken, "expected end of element")
	}
	d.stack.Pop(ctx.token)
	return nil
}

// PeekChildId inspects, without consuming, the Id of the upcoming child
// element — used by forwarding variants (spec §4.5's "Forwarding variant")
// to pick a candidate before committing to EnterElement. Namespace
// resolution uses the current (parent) scope, since the child's own
// xmlns declarations, if any, are not yet visible.
func (d *Deserializer) PeekChildId() (Id, bool, error) {
	tok, err := d.peek()
	if err != nil {
		return Id{}, false, eofToErr(err)
	}
	if tok.Kind != TokenElementStart {
		return Id{}, false, nil
	}

	var uri string
	if tok.Prefix == "" {
		uri = d.stack.EffectiveDefault()
	} else {
		uri, _ = d.stack.ResolveURI(tok.Prefix)
	}
	return Id{URI: uri, Local: tok.Local}, true, nil
}
