package expr

import (
	"fmt"
)

// Diff

func (n Num) Diff(name string) Expression { return Num(0) }

func (v Var) Diff(name string) Expression {
	if string(v) == name {
		return Num(1)
	}
	return Num(0)
}

func (n Neg) Diff(name string) Expression { return Neg{n.X.Diff(name)} }

func (a Add) Diff(name string) Expression {
	return Add{a.L.Diff(name), a.R.Diff(name)}
}

func (s Sub) Diff(name string) Expression {
	return Sub{s.L.Diff(name), s.R.Diff(name)}
}

func (m Mul) Diff(name string) Expression {
	return Add{Mul{m.L.Diff(name), m.R}, Mul{m.L, m.R.Diff(name)}}
}

func (d Div) Diff(name string) Expression {
	return Div{
		Sub{Mul{d.L.Diff(name), d.R}, Mul{d.L, d.R.Diff(name)}},
		Pow{d.R, Num(2)},
	}
}

func (p Pow) Diff(name string) Expression {
	if !p.Exp.Contains(name) {
		// d(u^n) = n u^(n-1) u'
		return Mul{
			Mul{p.Exp, Pow{p.Base, Sub{p.Exp, Num(1)}}},
			p.Base.Diff(name),
		}
	}
	// d(u^v) = u^v (v' ln(u) + v u'/u)
	return Mul{p, Add{
		Mul{p.Exp.Diff(name), Call{"ln", p.Base}},
		Div{Mul{p.Exp, p.Base.Diff(name)}, p.Base},
	}}
}

func (c Call) Diff(name string) Expression {
	f, ok := Funcs[c.Name]
	if !ok {
		panic(fmt.Sprintf("Unknown function '%s'. Impossible.", c.Name))
	}
	return Mul{f.Deriv(c.Arg), c.Arg.Diff(name)}
}

// Partial returns the simplified n-th partial derivative of ex with respect
// to the named variable.
//
// If ex does not reference the variable at all, the result is the constant
// zero without any differentiation taking place.
func Partial(ex Expression, name string, n int) Expression {
	if n <= 0 {
		return ex
	} else if !ex.Contains(name) {
		return Num(0)
	}
	for i := 0; i < n; i++ {
		ex = Simplify(ex.Diff(name))
	}
	return ex
}
