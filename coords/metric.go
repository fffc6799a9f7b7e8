package coords

import (
	"math"

	"github.com/phil-mansfield/curvgrid/expr"
	"github.com/phil-mansfield/curvgrid/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

func (s *System) initJacobian() error {
	for j, eq := range s.eqs {
		for i, name := range expr.Variables {
			s.jac[j][i] = s.eng.Partial(eq, name, 1)
			f, err := s.eng.Compile(s.jac[j][i])
			if err != nil {
				return err
			}
			s.jacF[j][i] = f
		}
	}
	return nil
}

// Metric returns the symbolic metric tensor g = J^T J of the system.
func (s *System) Metric() [3][3]expr.Expression {
	var g [3][3]expr.Expression
	for a := 0; a < 3; a++ {
		for b := 0; b < 3; b++ {
			var sum expr.Expression = expr.Num(0)
			for j := 0; j < 3; j++ {
				sum = expr.Add{L: sum, R: expr.Mul{L: s.jac[j][a], R: s.jac[j][b]}}
			}
			g[a][b] = expr.Simplify(sum)
		}
	}
	return g
}

// JacobianAt evaluates the Jacobian at p.
func (s *System) JacobianAt(p r3.Vec) (*mat.Matrix, error) {
	vals := make([]float64, 9)
	for j := 0; j < 3; j++ {
		for i := 0; i < 3; i++ {
			v, err := s.jacF[j][i].Eval(p.X, p.Y, p.Z)
			if err != nil {
				return nil, err
			}
			vals[3*j+i] = v
		}
	}
	return mat.NewMatrix(vals, 3, 3), nil
}

// MetricAt evaluates the metric tensor at p.
func (s *System) MetricAt(p r3.Vec) (*mat.Matrix, error) {
	J, err := s.JacobianAt(p)
	if err != nil {
		return nil, err
	}
	return J.Transpose().Mult(J), nil
}

// VolumeElement returns sqrt(|det g|) at p, the factor relating parametric
// volume to world volume.
func (s *System) VolumeElement(p r3.Vec) (float64, error) {
	g, err := s.MetricAt(p)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(math.Abs(g.Determinant())), nil
}
