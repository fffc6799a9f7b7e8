/*package coords implements curvilinear coordinate systems: three equations
mapping parametric coordinates (x, y, z) to world coordinates, along with the
curvature estimates used to decide how finely each part of a grid drawn in
that system must be tessellated.
*/
package coords

import (
	"fmt"
	"math"

	"github.com/phil-mansfield/curvgrid/expr"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// DefaultSteps is the number of quadrature intervals used when
	// integrating curvature along an axis.
	DefaultSteps = 100
	// DefaultHalfWidth is the half-width of the integration window used by
	// grid segments.
	DefaultHalfWidth = 1.0
)

// EquationError is returned when an equation cannot be used to define a
// coordinate system.
type EquationError struct {
	Axis int
	Eq   string
	Msg  string
}

func (e *EquationError) Error() string {
	return fmt.Sprintf("%c equation '%s': %s", "XYZ"[e.Axis], e.Eq, e.Msg)
}

// CurvatureError is returned when the curvature density along an axis
// cannot be evaluated somewhere in the integration window.
type CurvatureError struct {
	Axis  int
	Point r3.Vec
	Err   error
}

func (e *CurvatureError) Error() string {
	return fmt.Sprintf(
		"curvature along %s at (%g, %g, %g): %s",
		expr.Variables[e.Axis], e.Point.X, e.Point.Y, e.Point.Z, e.Err,
	)
}

func (e *CurvatureError) Unwrap() error { return e.Err }

// System is a coordinate system. Systems are immutable after construction
// and safe for concurrent use.
type System struct {
	eng   expr.Engine
	steps int

	eqs   [3]expr.Expression
	canon [3]string
	f     [3]*expr.Func

	curv  [3]expr.Expression
	curvF [3]*expr.Func

	jac  [3][3]expr.Expression // jac[j][i] = dX_j / dx_i
	jacF [3][3]*expr.Func
}

// Option configures a System.
type Option func(*System)

// WithEngine sets the expression engine used for differentiation,
// compilation, and canonicalization.
func WithEngine(eng expr.Engine) Option {
	return func(s *System) { s.eng = eng }
}

// WithSteps sets the number of quadrature intervals used by Curvature.
func WithSteps(n int) Option {
	return func(s *System) {
		if n > 0 {
			s.steps = n
		}
	}
}

// New creates a coordinate system from the equations for the X, Y, and Z
// world coordinates. Each equation must depend on at least one of the
// parametric variables x, y, and z, and on nothing else.
//
// New differentiates every equation symbolically and is much more expensive
// than any query made against the result.
func New(x, y, z expr.Expression, opts ...Option) (*System, error) {
	s := &System{eng: expr.Symbolic{}, steps: DefaultSteps}
	for _, opt := range opts {
		opt(s)
	}
	s.eqs = [3]expr.Expression{x, y, z}

	for j, eq := range s.eqs {
		if eq == nil {
			return nil, &EquationError{Axis: j, Msg: "missing"}
		}
		vars := expr.FreeVars(eq)
		for _, name := range vars {
			if _, ok := expr.VarIndex(name); !ok {
				return nil, &EquationError{
					Axis: j, Eq: eq.String(),
					Msg: fmt.Sprintf("uses variable '%s', which is not one of x, y, or z", name),
				}
			}
		}
		if len(vars) == 0 {
			return nil, &EquationError{
				Axis: j, Eq: eq.String(), Msg: "does not depend on x, y, or z",
			}
		}

		f, err := s.eng.Compile(eq)
		if err != nil {
			return nil, &EquationError{Axis: j, Eq: eq.String(), Msg: err.Error()}
		}
		s.f[j] = f
		s.canon[j] = s.eng.Canonical(eq)
	}

	for i := range expr.Variables {
		s.curv[i] = s.curvatureDensity(i)
		f, err := s.eng.Compile(s.curv[i])
		if err != nil {
			return nil, err
		}
		s.curvF[i] = f
	}

	if err := s.initJacobian(); err != nil {
		return nil, err
	}

	return s, nil
}

// Parse creates a coordinate system from the text of its three equations.
func Parse(eqs [3]string, opts ...Option) (*System, error) {
	probe := &System{eng: expr.Symbolic{}}
	for _, opt := range opts {
		opt(probe)
	}

	var ex [3]expr.Expression
	for j, src := range eqs {
		var err error
		if ex[j], err = probe.eng.Parse(src); err != nil {
			return nil, fmt.Errorf("%c equation: %w", "XYZ"[j], err)
		}
	}
	return New(ex[0], ex[1], ex[2], opts...)
}

// curvatureDensity builds sqrt(sum_j (d^2 X_j / dx_i^2)^2) for axis i.
// Equations which do not depend on x_i contribute an explicit zero.
func (s *System) curvatureDensity(i int) expr.Expression {
	name := expr.Variables[i]
	var sum expr.Expression
	for _, eq := range s.eqs {
		var term expr.Expression = expr.Num(0)
		if eq.Contains(name) {
			term = expr.Pow{Base: s.eng.Partial(eq, name, 2), Exp: expr.Num(2)}
		}
		if sum == nil {
			sum = term
		} else {
			sum = expr.Add{L: sum, R: term}
		}
	}
	return expr.Simplify(expr.Call{Name: "sqrt", Arg: sum})
}

// Eval maps the parametric point (x, y, z) to world coordinates.
func (s *System) Eval(x, y, z float64) (X, Y, Z float64, err error) {
	if X, err = s.f[0].Eval(x, y, z); err != nil {
		return X, Y, Z, err
	}
	if Y, err = s.f[1].Eval(x, y, z); err != nil {
		return X, Y, Z, err
	}
	Z, err = s.f[2].Eval(x, y, z)
	return X, Y, Z, err
}

// EvalVec is Eval for r3.Vec values.
func (s *System) EvalVec(p r3.Vec) (r3.Vec, error) {
	X, Y, Z, err := s.Eval(p.X, p.Y, p.Z)
	return r3.Vec{X: X, Y: Y, Z: Z}, err
}

// Curvature integrates the curvature density along each axis over the window
// [p_i - halfWidth, p_i + halfWidth], holding the other two coordinates
// fixed at p. It uses the composite trapezoidal rule.
func (s *System) Curvature(p r3.Vec, halfWidth float64) ([3]float64, error) {
	var out [3]float64
	if !(halfWidth >= 0) || math.IsInf(halfWidth, 0) {
		return out, fmt.Errorf("curvature half width must be finite and non-negative, got %g", halfWidth)
	}

	pt := [3]float64{p.X, p.Y, p.Z}
	xs := make([]float64, s.steps+1)
	ys := make([]float64, s.steps+1)

	for i := 0; i < 3; i++ {
		if expr.IsConstant(s.curv[i]) {
			v, err := s.curvF[i].Eval(pt[0], pt[1], pt[2])
			if err != nil {
				return out, &CurvatureError{Axis: i, Point: p, Err: err}
			}
			out[i] = 2 * halfWidth * v
			continue
		}

		floats.Span(xs, pt[i]-halfWidth, pt[i]+halfWidth)
		q := pt
		for k, x := range xs {
			q[i] = x
			v, err := s.curvF[i].Eval(q[0], q[1], q[2])
			if err != nil {
				return out, &CurvatureError{
					Axis: i, Point: r3.Vec{X: q[0], Y: q[1], Z: q[2]}, Err: err,
				}
			}
			ys[k] = v
		}
		out[i] = integrate.Trapezoidal(xs, ys)
	}

	return out, nil
}

// CurvatureDensity returns the curvature density expression for axis i.
func (s *System) CurvatureDensity(i int) expr.Expression { return s.curv[i] }

// Canonical returns the canonical text of the three defining equations.
func (s *System) Canonical() [3]string { return s.canon }

// IsEquivalent returns true if the given equation texts describe the same
// equations as s. Texts are compared by canonical form, so differences in
// spacing or redundant parentheses do not matter. Unparseable text is never
// equivalent.
func (s *System) IsEquivalent(eqs [3]string) bool {
	for j, src := range eqs {
		ex, err := s.eng.Parse(src)
		if err != nil {
			return false
		}
		if s.eng.Canonical(ex) != s.canon[j] {
			return false
		}
	}
	return true
}

func (s *System) String() string {
	return fmt.Sprintf("X = %s, Y = %s, Z = %s", s.eqs[0], s.eqs[1], s.eqs[2])
}
