package expr

import (
	"fmt"
	"math"
)

// EvalError is returned when a compiled expression produces a non-finite
// value, e.g. ln of a negative number or a division by zero.
type EvalError struct {
	Expr  string
	Point [3]float64
	Value float64
}

func (e *EvalError) Error() string {
	return fmt.Sprintf(
		"'%s' evaluates to %g at (x=%g, y=%g, z=%g)",
		e.Expr, e.Value, e.Point[0], e.Point[1], e.Point[2],
	)
}

type evalFunc func(x, y, z float64) float64

// Func is a compiled Expression. Evaluating a Func does not allocate. Funcs
// are immutable and safe for concurrent use.
type Func struct {
	text string
	f    evalFunc
}

// Compile turns ex into a Func. It fails with a *VarError if ex references a
// variable outside of Variables.
func Compile(ex Expression) (*Func, error) {
	for _, name := range FreeVars(ex) {
		if _, ok := VarIndex(name); !ok {
			return nil, &VarError{Name: name}
		}
	}

	return &Func{text: ex.String(), f: compile(ex)}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(ex Expression) *Func {
	f, err := Compile(ex)
	if err != nil {
		panic(err.Error())
	}
	return f
}

func compile(ex Expression) evalFunc {
	switch ex := ex.(type) {
	case Num:
		v := float64(ex)
		return func(x, y, z float64) float64 { return v }
	case Var:
		switch ex {
		case "x":
			return func(x, y, z float64) float64 { return x }
		case "y":
			return func(x, y, z float64) float64 { return y }
		case "z":
			return func(x, y, z float64) float64 { return z }
		}
	case Neg:
		a := compile(ex.X)
		return func(x, y, z float64) float64 { return -a(x, y, z) }
	case Add:
		a, b := compile(ex.L), compile(ex.R)
		return func(x, y, z float64) float64 { return a(x, y, z) + b(x, y, z) }
	case Sub:
		a, b := compile(ex.L), compile(ex.R)
		return func(x, y, z float64) float64 { return a(x, y, z) - b(x, y, z) }
	case Mul:
		a, b := compile(ex.L), compile(ex.R)
		return func(x, y, z float64) float64 { return a(x, y, z) * b(x, y, z) }
	case Div:
		a, b := compile(ex.L), compile(ex.R)
		return func(x, y, z float64) float64 { return a(x, y, z) / b(x, y, z) }
	case Pow:
		a := compile(ex.Base)
		if n, ok := ex.Exp.(Num); ok && n == 2 {
			return func(x, y, z float64) float64 {
				v := a(x, y, z)
				return v * v
			}
		}
		b := compile(ex.Exp)
		return func(x, y, z float64) float64 { return math.Pow(a(x, y, z), b(x, y, z)) }
	case Call:
		f := Funcs[ex.Name].Eval
		a := compile(ex.Arg)
		return func(x, y, z float64) float64 { return f(a(x, y, z)) }
	}
	panic(fmt.Sprintf("Cannot compile %T '%s'.", ex, ex))
}

func (f *Func) String() string { return f.text }

// Eval evaluates f at (x, y, z). Variables f does not depend on are ignored.
func (f *Func) Eval(x, y, z float64) (float64, error) {
	v := f.f(x, y, z)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v, &EvalError{Expr: f.text, Point: [3]float64{x, y, z}, Value: v}
	}
	return v, nil
}
