package parser

import (
	"strconv"

	"github.com/composable-delivery/busbar-sf-utam/pkg/source"
)

// ValueKind discriminates the generic JSON value tree.
type ValueKind int

const (
	// ValueObject is a JSON object with ordered members.
	ValueObject ValueKind = iota
	// ValueArray is a JSON array.
	ValueArray
	// ValueString is a JSON string.
	ValueString
	// ValueNumber is a JSON number.
	ValueNumber
	// ValueBool is a JSON boolean.
	ValueBool
	// ValueNull is the JSON null literal.
	ValueNull
)

// Value is a span-carrying JSON value. The schema stage uses it to resolve
// instance paths back to byte spans; the AST builder walks it directly.
type Value struct {
	Span    source.Span
	Kind    ValueKind
	Members []Member // ValueObject, in document order.
	Items   []*Value // ValueArray.
	Str     string
	Num     float64
	Bool    bool
}

// Member is one key/value pair of an object, with the key token's span.
type Member struct {
	Key     string
	KeySpan source.Span
	Value   *Value
}

// Member returns the value for key, or nil.
func (v *Value) Member(key string) *Value {
	m := v.memberEntry(key)
	if m == nil {
		return nil
	}

	return m.Value
}

// MemberKeySpan returns the key token span for key, or a zero span.
func (v *Value) MemberKeySpan(key string) source.Span {
	m := v.memberEntry(key)
	if m == nil {
		return source.Span{}
	}

	return m.KeySpan
}

func (v *Value) memberEntry(key string) *Member {
	if v == nil || v.Kind != ValueObject {
		return nil
	}

	for i := range v.Members {
		if v.Members[i].Key == key {
			return &v.Members[i]
		}
	}

	return nil
}

// Lookup resolves a JSON-pointer-style instance path (already split into
// segments) to the addressed value, or nil. Array segments are decimal
// indices.
func (v *Value) Lookup(path []string) *Value {
	cur := v

	for _, seg := range path {
		if cur == nil {
			return nil
		}

		switch cur.Kind {
		case ValueObject:
			cur = cur.Member(seg)
		case ValueArray:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(cur.Items) {
				return nil
			}

			cur = cur.Items[idx]
		default:
			return nil
		}
	}

	return cur
}

// Interface converts the value tree to the plain Go representation
// (map[string]any / []any / string / float64 / bool / nil) consumed by the
// schema validator.
func (v *Value) Interface() any {
	if v == nil {
		return nil
	}

	switch v.Kind {
	case ValueObject:
		out := make(map[string]any, len(v.Members))
		for _, m := range v.Members {
			out[m.Key] = m.Value.Interface()
		}

		return out
	case ValueArray:
		out := make([]any, 0, len(v.Items))
		for _, item := range v.Items {
			out = append(out, item.Interface())
		}

		return out
	case ValueString:
		return v.Str
	case ValueNumber:
		return v.Num
	case ValueBool:
		return v.Bool
	case ValueNull:
		return nil
	default:
		return nil
	}
}

// treeBuilder parses JSON values from the token stream with one token of
// lookahead.
type treeBuilder struct {
	tz *tokenizer
	// peeked holds a lookahead token when peekValid is true.
	peeked    token
	peekValid bool
}

func (tb *treeBuilder) peek() (token, error) {
	if tb.peekValid {
		return tb.peeked, nil
	}

	tok, err := tb.tz.next()
	if err != nil {
		return token{}, err
	}

	tb.peeked = tok
	tb.peekValid = true

	return tok, nil
}

func (tb *treeBuilder) take() (token, error) {
	tok, err := tb.peek()
	if err != nil {
		return token{}, err
	}

	tb.peekValid = false

	return tok, nil
}

func (tb *treeBuilder) expect(kind tokenKind) (token, error) {
	tok, err := tb.take()
	if err != nil {
		return token{}, err
	}

	if tok.kind != kind {
		return token{}, &tokenizeError{
			msg:  "expected " + kind.String() + ", found " + tok.kind.String(),
			span: tok.span,
		}
	}

	return tok, nil
}

func (tb *treeBuilder) value() (*Value, error) {
	tok, err := tb.take()
	if err != nil {
		return nil, err
	}

	switch tok.kind {
	case tokLBrace:
		return tb.object(tok)
	case tokLBracket:
		return tb.array(tok)
	case tokString:
		return &Value{Span: tok.span, Kind: ValueString, Str: tok.str}, nil
	case tokNumber:
		return &Value{Span: tok.span, Kind: ValueNumber, Num: tok.num}, nil
	case tokTrue:
		return &Value{Span: tok.span, Kind: ValueBool, Bool: true}, nil
	case tokFalse:
		return &Value{Span: tok.span, Kind: ValueBool, Bool: false}, nil
	case tokNull:
		return &Value{Span: tok.span, Kind: ValueNull}, nil
	default:
		return nil, &tokenizeError{
			msg:  "expected a JSON value, found " + tok.kind.String(),
			span: tok.span,
		}
	}
}

func (tb *treeBuilder) object(open token) (*Value, error) {
	obj := &Value{Kind: ValueObject, Span: open.span}

	next, err := tb.peek()
	if err != nil {
		return nil, err
	}

	if next.kind == tokRBrace {
		_, _ = tb.take()
		obj.Span = obj.Span.Union(next.span)

		return obj, nil
	}

	for {
		key, keyErr := tb.expect(tokString)
		if keyErr != nil {
			return nil, keyErr
		}

		_, colonErr := tb.expect(tokColon)
		if colonErr != nil {
			return nil, colonErr
		}

		val, valErr := tb.value()
		if valErr != nil {
			return nil, valErr
		}

		obj.Members = append(obj.Members, Member{Key: key.str, KeySpan: key.span, Value: val})

		sep, sepErr := tb.take()
		if sepErr != nil {
			return nil, sepErr
		}

		switch sep.kind {
		case tokComma:
			continue
		case tokRBrace:
			obj.Span = obj.Span.Union(sep.span)

			return obj, nil
		default:
			return nil, &tokenizeError{
				msg:  "expected ',' or '}' in object, found " + sep.kind.String(),
				span: sep.span,
			}
		}
	}
}

func (tb *treeBuilder) array(open token) (*Value, error) {
	arr := &Value{Kind: ValueArray, Span: open.span}

	next, err := tb.peek()
	if err != nil {
		return nil, err
	}

	if next.kind == tokRBracket {
		_, _ = tb.take()
		arr.Span = arr.Span.Union(next.span)

		return arr, nil
	}

	for {
		item, itemErr := tb.value()
		if itemErr != nil {
			return nil, itemErr
		}

		arr.Items = append(arr.Items, item)

		sep, sepErr := tb.take()
		if sepErr != nil {
			return nil, sepErr
		}

		switch sep.kind {
		case tokComma:
			continue
		case tokRBracket:
			arr.Span = arr.Span.Union(sep.span)

			return arr, nil
		default:
			return nil, &tokenizeError{
				msg:  "expected ',' or ']' in array, found " + sep.kind.String(),
				span: sep.span,
			}
		}
	}
}

// parseTree tokenizes the whole source into a Value tree and verifies
// nothing trails the top-level value.
func parseTree(src *source.Source) (*Value, error) {
	tb := &treeBuilder{tz: newTokenizer(src)}

	root, err := tb.value()
	if err != nil {
		return nil, err
	}

	trailing, err := tb.take()
	if err != nil {
		return nil, err
	}

	if trailing.kind != tokEOF {
		return nil, &tokenizeError{
			msg:  "unexpected trailing content after top-level value",
			span: trailing.span,
		}
	}

	return root, nil
}
