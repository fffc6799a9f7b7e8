package expr

import (
	"fmt"
	"math"
)

// Simplify applies local algebraic identities bottom-up: constant folding,
// additive and multiplicative identities, and sign normalization. It is not
// a canonicalizer, but it does reduce the derivative of any polynomial of
// lower degree than the differentiation order to Num(0).
func Simplify(ex Expression) Expression {
	switch ex := ex.(type) {
	case Num, Var:
		return ex
	case Neg:
		return simplifyNeg(Simplify(ex.X))
	case Add:
		return simplifyAdd(Simplify(ex.L), Simplify(ex.R))
	case Sub:
		return simplifySub(Simplify(ex.L), Simplify(ex.R))
	case Mul:
		return simplifyMul(Simplify(ex.L), Simplify(ex.R))
	case Div:
		return simplifyDiv(Simplify(ex.L), Simplify(ex.R))
	case Pow:
		return simplifyPow(Simplify(ex.Base), Simplify(ex.Exp))
	case Call:
		return simplifyCall(ex.Name, Simplify(ex.Arg))
	}
	panic(fmt.Sprintf("Unknown expression type %T.", ex))
}

func isNum(ex Expression, x float64) bool {
	n, ok := ex.(Num)
	return ok && float64(n) == x
}

// fold returns Num(x) and true if x is finite, so that undefined constant
// sub-expressions survive to evaluation time and are reported there.
func fold(x float64) (Expression, bool) {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return nil, false
	}
	return Num(x), true
}

func simplifyNeg(x Expression) Expression {
	switch x := x.(type) {
	case Num:
		if x == 0 {
			return Num(0)
		}
		return -x
	case Neg:
		return x.X
	}
	return Neg{x}
}

func simplifyAdd(l, r Expression) Expression {
	ln, lok := l.(Num)
	rn, rok := r.(Num)
	switch {
	case lok && rok:
		return ln + rn
	case isNum(l, 0):
		return r
	case isNum(r, 0):
		return l
	case rok && rn < 0:
		return Sub{l, -rn}
	}

	if rNeg, ok := r.(Neg); ok {
		return simplifySub(l, rNeg.X)
	} else if lNeg, ok := l.(Neg); ok {
		return simplifySub(r, lNeg.X)
	} else if l.Equal(r) {
		return simplifyMul(Num(2), l)
	}
	return Add{l, r}
}

func simplifySub(l, r Expression) Expression {
	ln, lok := l.(Num)
	rn, rok := r.(Num)
	switch {
	case lok && rok:
		return ln - rn
	case isNum(r, 0):
		return l
	case isNum(l, 0):
		return simplifyNeg(r)
	case rok && rn < 0:
		return Add{l, -rn}
	case l.Equal(r):
		return Num(0)
	}

	if rNeg, ok := r.(Neg); ok {
		return simplifyAdd(l, rNeg.X)
	}
	return Sub{l, r}
}

func simplifyMul(l, r Expression) Expression {
	ln, lok := l.(Num)
	rn, rok := r.(Num)
	switch {
	case lok && rok:
		return ln * rn
	case isNum(l, 0) || isNum(r, 0):
		return Num(0)
	case isNum(l, 1):
		return r
	case isNum(r, 1):
		return l
	case isNum(l, -1):
		return simplifyNeg(r)
	case isNum(r, -1):
		return simplifyNeg(l)
	case rok:
		// Constants go on the left.
		return simplifyMul(r, l)
	}

	if lNeg, ok := l.(Neg); ok {
		return simplifyNeg(simplifyMul(lNeg.X, r))
	} else if rNeg, ok := r.(Neg); ok {
		return simplifyNeg(simplifyMul(l, rNeg.X))
	}

	if lok {
		if rm, ok := r.(Mul); ok {
			if rmn, ok := rm.L.(Num); ok {
				return simplifyMul(ln*rmn, rm.R)
			}
		}
	}

	if l.Equal(r) {
		return simplifyPow(l, Num(2))
	}
	return Mul{l, r}
}

func simplifyDiv(l, r Expression) Expression {
	ln, lok := l.(Num)
	rn, rok := r.(Num)
	switch {
	case lok && rok && rn != 0:
		if q, ok := fold(float64(ln / rn)); ok {
			return q
		}
	case isNum(r, 1):
		return l
	case isNum(l, 0) && !isNum(r, 0):
		return Num(0)
	}
	return Div{l, r}
}

func simplifyPow(base, exp Expression) Expression {
	bn, bok := base.(Num)
	en, eok := exp.(Num)
	switch {
	case isNum(exp, 0):
		return Num(1)
	case isNum(exp, 1):
		return base
	case isNum(base, 1):
		return Num(1)
	case isNum(base, 0) && eok && en > 0:
		return Num(0)
	case bok && eok:
		if p, ok := fold(math.Pow(float64(bn), float64(en))); ok {
			return p
		}
	}

	// (-u)^n = u^n for even integer n.
	if bNeg, ok := base.(Neg); ok && eok && isEven(float64(en)) {
		return simplifyPow(bNeg.X, exp)
	}
	return Pow{base, exp}
}

func isEven(x float64) bool {
	return x == math.Trunc(x) && math.Mod(x, 2) == 0
}

func simplifyCall(name string, arg Expression) Expression {
	if n, ok := arg.(Num); ok {
		if f, ok := Funcs[name]; ok {
			if v, ok := fold(f.Eval(float64(n))); ok {
				return v
			}
		}
	}
	return Call{name, arg}
}
