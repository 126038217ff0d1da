package typesystem

import (
	"fmt"
	"github.com/funvibe/multimethod/internal/config"
	"strconv"
	"strings"
	"text/scanner"
)

// Parse reads a type string such as "List[Int] | Tuple[Float, ...]" into a
// description. Names unknown to the universe become forward references; the
// result still has to be normalized.
//
//	type     := term ('|' term)*
//	term     := name ['[' args ']'] | 'Literal' '[' value (',' value)* ']'
//	          | 'Callable' ['[' ('...' | '[' types ']') ',' type ']']
//	args     := '()' | type (',' type)* [',' '...']
func Parse(u *Universe, src string) (Type, error) {
	p := newTypeParser(u, src)
	t := p.parseUnion()
	if p.err == nil && p.tok != scanner.EOF {
		p.fail("unexpected %q after type", p.text)
	}
	if p.err != nil {
		return nil, p.err
	}
	return t, nil
}

// MustParse is like Parse but panics on error.
func MustParse(u *Universe, src string) Type {
	t, err := Parse(u, src)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseAll parses each string in order.
func ParseAll(u *Universe, srcs ...string) ([]Type, error) {
	out := make([]Type, len(srcs))
	for i, src := range srcs {
		t, err := Parse(u, src)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

type typeParser struct {
	u    *Universe
	src  string
	s    scanner.Scanner
	tok  rune
	text string
	err  error
}

func newTypeParser(u *Universe, src string) *typeParser {
	p := &typeParser{u: u, src: src}
	p.s.Init(strings.NewReader(src))
	p.s.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanFloats | scanner.ScanStrings
	p.s.Error = func(_ *scanner.Scanner, msg string) {
		p.fail("%s", msg)
	}
	p.next()
	return p
}

func (p *typeParser) next() {
	p.tok = p.s.Scan()
	p.text = p.s.TokenText()
}

func (p *typeParser) fail(format string, args ...any) {
	if p.err == nil {
		p.err = NewMalformedError(strconv.Quote(p.src), fmt.Sprintf(format, args...))
	}
}

func (p *typeParser) expect(tok rune) bool {
	if p.tok != tok {
		p.fail("expected %q, found %q", string(tok), p.text)
		return false
	}
	p.next()
	return true
}

// ellipsis consumes "..." if it is the next token sequence.
func (p *typeParser) ellipsis() bool {
	if p.tok != '.' {
		return false
	}
	for i := 0; i < 3; i++ {
		if !p.expect('.') {
			return false
		}
	}
	return true
}

func (p *typeParser) parseUnion() Type {
	members := []Type{p.parseTerm()}
	for p.err == nil && p.tok == '|' {
		p.next()
		members = append(members, p.parseTerm())
	}
	if len(members) == 1 {
		return members[0]
	}
	return TUnion{Types: members}
}

func (p *typeParser) parseTerm() Type {
	if p.err != nil {
		return nil
	}
	if p.tok != scanner.Ident {
		p.fail("expected type name, found %q", p.text)
		return nil
	}
	name := p.text
	p.next()
	for p.tok == '.' && p.s.Peek() != '.' {
		p.next()
		if p.tok != scanner.Ident {
			p.fail("expected name after '.', found %q", p.text)
			return nil
		}
		name += "." + p.text
		p.next()
	}

	switch name {
	case config.AnyName:
		return Any
	case config.NoneLiteral:
		return None
	case config.LiteralName:
		return p.parseLiteral()
	case config.UnionName:
		return p.parseUnionForm()
	case config.CallableName:
		return p.parseCallable()
	}

	if p.tok != '[' {
		if c, ok := p.u.Lookup(name); ok {
			return TCon{Class: c}
		}
		return TRef{Name: name}
	}
	p.next()

	if p.tok == '(' {
		p.next()
		p.expect(')')
		p.expect(']')
		if name != config.TupleName {
			p.fail("empty argument list is only valid for %s", config.TupleName)
		}
		return TTuple{}
	}

	args := []Type{p.parseUnion()}
	variadic := false
	for p.err == nil && p.tok == ',' {
		p.next()
		if p.ellipsis() {
			variadic = true
			break
		}
		args = append(args, p.parseUnion())
	}
	p.expect(']')
	if p.err != nil {
		return nil
	}

	c, ok := p.u.Lookup(name)
	if !ok {
		if variadic {
			p.fail("variadic form needs a known tuple class, found %s", name)
			return nil
		}
		return TRef{Name: name, Args: args}
	}
	return TApp{Class: c, Args: args, Variadic: variadic}
}

func (p *typeParser) parseUnionForm() Type {
	if !p.expect('[') {
		return nil
	}
	members := []Type{p.parseUnion()}
	for p.err == nil && p.tok == ',' {
		p.next()
		members = append(members, p.parseUnion())
	}
	p.expect(']')
	return TUnion{Types: members}
}

func (p *typeParser) parseLiteral() Type {
	if !p.expect('[') {
		return nil
	}
	values := []any{p.parseValue()}
	for p.err == nil && p.tok == ',' {
		p.next()
		values = append(values, p.parseValue())
	}
	p.expect(']')
	return TLiteral{Values: values}
}

func (p *typeParser) parseValue() any {
	if p.err != nil {
		return nil
	}
	neg := false
	if p.tok == '-' {
		neg = true
		p.next()
	}
	text := p.text
	switch p.tok {
	case scanner.Int:
		p.next()
		n, err := strconv.Atoi(text)
		if err != nil {
			p.fail("bad integer literal %s", text)
			return nil
		}
		if neg {
			n = -n
		}
		return n
	case scanner.Float:
		p.next()
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			p.fail("bad float literal %s", text)
			return nil
		}
		if neg {
			f = -f
		}
		return f
	case scanner.String:
		p.next()
		if neg {
			p.fail("cannot negate string literal %s", text)
			return nil
		}
		s, err := strconv.Unquote(text)
		if err != nil {
			p.fail("bad string literal %s", text)
			return nil
		}
		return s
	case scanner.Ident:
		p.next()
		switch {
		case neg:
		case text == "true":
			return true
		case text == "false":
			return false
		case text == config.NoneLiteral:
			return nil
		}
	}
	p.fail("unsupported literal value %q", text)
	return nil
}

func (p *typeParser) parseCallable() Type {
	if p.tok != '[' {
		return TCon{Class: CallableClass}
	}
	p.next()
	fn := TFunc{}
	if p.ellipsis() {
		fn.AnyParams = true
	} else {
		if !p.expect('[') {
			return nil
		}
		if p.tok != ']' {
			fn.Params = append(fn.Params, p.parseUnion())
			for p.err == nil && p.tok == ',' {
				p.next()
				fn.Params = append(fn.Params, p.parseUnion())
			}
		}
		p.expect(']')
	}
	p.expect(',')
	fn.Return = p.parseUnion()
	p.expect(']')
	return fn
}
