/*package expr implements the small symbolic expression engine used to describe
coordinate transforms.

Expressions are immutable trees over the variables x, y, and z. They can be
parsed from text, differentiated symbolically, simplified, printed in a
canonical form, and compiled into closures which evaluate without allocating.
*/
package expr

import (
	"fmt"
	"sort"
	"strconv"
)

// Variables lists the variable names an Expression may reference, in the
// order they are passed to compiled functions.
var Variables = [3]string{"x", "y", "z"}

// VarIndex returns the argument position of the named variable and false if
// the name is not one of Variables.
func VarIndex(name string) (int, bool) {
	for i := range Variables {
		if Variables[i] == name {
			return i, true
		}
	}
	return -1, false
}

// Expression is a node in an expression tree.
type Expression interface {
	fmt.Stringer
	// Contains returns true if the variable appears anywhere in the tree.
	Contains(name string) bool
	// Diff returns the unsimplified derivative with respect to name.
	Diff(name string) Expression
	// Equal reports structural equality.
	Equal(ex Expression) bool

	prec() int
}

type Num float64

type Var string

type Neg struct{ X Expression }

type Add struct{ L, R Expression }

type Sub struct{ L, R Expression }

type Mul struct{ L, R Expression }

type Div struct{ L, R Expression }

type Pow struct{ Base, Exp Expression }

// Call applies one of the built-in functions in Funcs to an argument.
type Call struct {
	Name string
	Arg  Expression
}

// Typechecking.

var (
	_ Expression = Num(0)
	_ Expression = Var("")
	_ Expression = Neg{}
	_ Expression = Add{}
	_ Expression = Sub{}
	_ Expression = Mul{}
	_ Expression = Div{}
	_ Expression = Pow{}
	_ Expression = Call{}
)

// Operator precedence, used for printing.
const (
	precAdd = iota + 1
	precMul
	precNeg
	precPow
	precAtom
)

func (n Num) prec() int {
	if n < 0 {
		return precNeg
	}
	return precAtom
}
func (v Var) prec() int  { return precAtom }
func (n Neg) prec() int  { return precNeg }
func (a Add) prec() int  { return precAdd }
func (s Sub) prec() int  { return precAdd }
func (m Mul) prec() int  { return precMul }
func (d Div) prec() int  { return precMul }
func (p Pow) prec() int  { return precPow }
func (c Call) prec() int { return precAtom }

// String

func (n Num) String() string {
	return strconv.FormatFloat(float64(n), 'g', -1, 64)
}

func (v Var) String() string { return string(v) }

func (n Neg) String() string {
	return "-" + wrap(n.X, precNeg+1)
}

func (a Add) String() string {
	return wrap(a.L, precAdd) + " + " + wrap(a.R, precAdd+1)
}

func (s Sub) String() string {
	return wrap(s.L, precAdd) + " - " + wrap(s.R, precAdd+1)
}

func (m Mul) String() string {
	return wrap(m.L, precMul) + "*" + wrap(m.R, precMul+1)
}

func (d Div) String() string {
	return wrap(d.L, precMul) + "/" + wrap(d.R, precMul+1)
}

// Pow is right associative, so the base is wrapped more aggressively than the
// exponent.
func (p Pow) String() string {
	return wrap(p.Base, precPow+1) + "^" + wrap(p.Exp, precPow)
}

func (c Call) String() string {
	return c.Name + "(" + c.Arg.String() + ")"
}

func wrap(ex Expression, min int) string {
	if ex.prec() < min {
		return "(" + ex.String() + ")"
	}
	return ex.String()
}

// Contains

func (n Num) Contains(name string) bool  { return false }
func (v Var) Contains(name string) bool  { return string(v) == name }
func (n Neg) Contains(name string) bool  { return n.X.Contains(name) }
func (a Add) Contains(name string) bool  { return a.L.Contains(name) || a.R.Contains(name) }
func (s Sub) Contains(name string) bool  { return s.L.Contains(name) || s.R.Contains(name) }
func (m Mul) Contains(name string) bool  { return m.L.Contains(name) || m.R.Contains(name) }
func (d Div) Contains(name string) bool  { return d.L.Contains(name) || d.R.Contains(name) }
func (p Pow) Contains(name string) bool  { return p.Base.Contains(name) || p.Exp.Contains(name) }
func (c Call) Contains(name string) bool { return c.Arg.Contains(name) }

// Equal

func (n Num) Equal(ex Expression) bool {
	o, ok := ex.(Num)
	return ok && o == n
}

func (v Var) Equal(ex Expression) bool {
	o, ok := ex.(Var)
	return ok && o == v
}

func (n Neg) Equal(ex Expression) bool {
	o, ok := ex.(Neg)
	return ok && n.X.Equal(o.X)
}

func (a Add) Equal(ex Expression) bool {
	o, ok := ex.(Add)
	return ok && a.L.Equal(o.L) && a.R.Equal(o.R)
}

func (s Sub) Equal(ex Expression) bool {
	o, ok := ex.(Sub)
	return ok && s.L.Equal(o.L) && s.R.Equal(o.R)
}

func (m Mul) Equal(ex Expression) bool {
	o, ok := ex.(Mul)
	return ok && m.L.Equal(o.L) && m.R.Equal(o.R)
}

func (d Div) Equal(ex Expression) bool {
	o, ok := ex.(Div)
	return ok && d.L.Equal(o.L) && d.R.Equal(o.R)
}

func (p Pow) Equal(ex Expression) bool {
	o, ok := ex.(Pow)
	return ok && p.Base.Equal(o.Base) && p.Exp.Equal(o.Exp)
}

func (c Call) Equal(ex Expression) bool {
	o, ok := ex.(Call)
	return ok && c.Name == o.Name && c.Arg.Equal(o.Arg)
}

// FreeVars returns the sorted, distinct variable names used by ex.
func FreeVars(ex Expression) []string {
	seen := map[string]bool{}
	collectVars(ex, seen)

	names := make([]string, 0, len(seen))
	for _, name := range Variables {
		if seen[name] {
			names = append(names, name)
			delete(seen, name)
		}
	}
	// Anything left over is not a coordinate variable. Keep it so callers
	// can report it.
	rest := make([]string, 0, len(seen))
	for name := range seen {
		rest = append(rest, name)
	}
	sort.Strings(rest)
	return append(names, rest...)
}

func collectVars(ex Expression, seen map[string]bool) {
	switch ex := ex.(type) {
	case Num:
	case Var:
		seen[string(ex)] = true
	case Neg:
		collectVars(ex.X, seen)
	case Add:
		collectVars(ex.L, seen)
		collectVars(ex.R, seen)
	case Sub:
		collectVars(ex.L, seen)
		collectVars(ex.R, seen)
	case Mul:
		collectVars(ex.L, seen)
		collectVars(ex.R, seen)
	case Div:
		collectVars(ex.L, seen)
		collectVars(ex.R, seen)
	case Pow:
		collectVars(ex.Base, seen)
		collectVars(ex.Exp, seen)
	case Call:
		collectVars(ex.Arg, seen)
	default:
		panic(fmt.Sprintf("Unknown expression type %T.", ex))
	}
}

// IsConstant returns true if ex references no variables.
func IsConstant(ex Expression) bool {
	return len(FreeVars(ex)) == 0
}
