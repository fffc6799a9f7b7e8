package expr

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"text/scanner"
)

// SyntaxError is returned when an equation cannot be parsed.
type SyntaxError struct {
	Src    string
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at offset %d in '%s': %s", e.Offset, e.Src, e.Msg)
}

// VarError is returned when an equation references an identifier which is
// neither a coordinate variable, a constant, nor a known function.
type VarError struct {
	Name string
}

func (e *VarError) Error() string {
	return fmt.Sprintf(
		"'%s' is not an allowed variable, must be one of x, y, z", e.Name,
	)
}

// Constants are named values the parser substitutes directly.
var Constants = map[string]float64{
	"pi": math.Pi,
	"e":  math.E,
}

type parser struct {
	src string
	s   scanner.Scanner
	tok rune
	err error
}

// Parse parses a formula over x, y, and z. Supported syntax: numbers, the
// binary operators + - * / ^ (with ** accepted as ^), unary minus,
// parentheses, the functions in Funcs, and the constants in Constants.
// Exponentiation is right associative and binds tighter than unary minus.
func Parse(src string) (Expression, error) {
	p := &parser{src: src}
	p.s.Init(strings.NewReader(strings.Replace(src, "**", "^", -1)))
	p.s.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanFloats
	p.s.Error = func(s *scanner.Scanner, msg string) {
		p.fail(s.Position.Offset, msg)
	}
	p.next()

	ex := p.expr()
	if p.err == nil && p.tok != scanner.EOF {
		p.fail(p.s.Position.Offset, fmt.Sprintf("unexpected '%s'", p.s.TokenText()))
	}
	if p.err != nil {
		return nil, p.err
	}
	return ex, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// package-level defaults.
func MustParse(src string) Expression {
	ex, err := Parse(src)
	if err != nil {
		panic(err.Error())
	}
	return ex
}

func (p *parser) fail(offset int, msg string) {
	if p.err == nil {
		p.err = &SyntaxError{Src: p.src, Offset: offset, Msg: msg}
	}
}

func (p *parser) next() { p.tok = p.s.Scan() }

func (p *parser) expr() Expression {
	ex := p.term()
	for p.err == nil && (p.tok == '+' || p.tok == '-') {
		op := p.tok
		p.next()
		r := p.term()
		if op == '+' {
			ex = Add{ex, r}
		} else {
			ex = Sub{ex, r}
		}
	}
	return ex
}

func (p *parser) term() Expression {
	ex := p.unary()
	for p.err == nil && (p.tok == '*' || p.tok == '/') {
		op := p.tok
		p.next()
		r := p.unary()
		if op == '*' {
			ex = Mul{ex, r}
		} else {
			ex = Div{ex, r}
		}
	}
	return ex
}

func (p *parser) unary() Expression {
	switch p.tok {
	case '-':
		p.next()
		return Neg{p.unary()}
	case '+':
		p.next()
		return p.unary()
	}
	return p.power()
}

func (p *parser) power() Expression {
	base := p.atom()
	if p.err == nil && p.tok == '^' {
		p.next()
		return Pow{base, p.unary()}
	}
	return base
}

func (p *parser) atom() Expression {
	if p.err != nil {
		return Num(0)
	}
	offset := p.s.Position.Offset

	switch p.tok {
	case scanner.Int, scanner.Float:
		text := p.s.TokenText()
		x, err := strconv.ParseFloat(text, 64)
		if err != nil {
			p.fail(offset, fmt.Sprintf("invalid number '%s'", text))
			return Num(0)
		}
		p.next()
		return Num(x)

	case scanner.Ident:
		name := p.s.TokenText()
		p.next()
		if p.tok == '(' {
			return p.call(name, offset)
		}
		if _, ok := VarIndex(name); ok {
			return Var(name)
		} else if c, ok := Constants[name]; ok {
			return Num(c)
		}
		if p.err == nil {
			p.err = &VarError{Name: name}
		}
		return Num(0)

	case '(':
		p.next()
		ex := p.expr()
		p.expect(')')
		return ex

	case scanner.EOF:
		p.fail(offset, "unexpected end of expression")
		return Num(0)
	}

	p.fail(offset, fmt.Sprintf("unexpected '%s'", p.s.TokenText()))
	return Num(0)
}

func (p *parser) call(name string, offset int) Expression {
	if alias, ok := Aliases[name]; ok {
		name = alias
	}
	if _, ok := Funcs[name]; !ok {
		p.fail(offset, fmt.Sprintf("unknown function '%s'", name))
		return Num(0)
	}
	p.next()
	arg := p.expr()
	p.expect(')')
	return Call{name, arg}
}

func (p *parser) expect(tok rune) {
	if p.err != nil {
		return
	}
	if p.tok != tok {
		p.fail(p.s.Position.Offset, fmt.Sprintf(
			"expected '%s' but found '%s'", string(tok), p.s.TokenText(),
		))
		return
	}
	p.next()
}
