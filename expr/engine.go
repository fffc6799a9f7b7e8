package expr

// Engine is the capability set the rest of the module needs from an
// expression backend.
type Engine interface {
	// Parse turns text into an Expression.
	Parse(src string) (Expression, error)
	// Partial returns the n-th partial derivative with respect to name.
	Partial(ex Expression, name string, n int) Expression
	// Compile returns a fast numeric evaluator for ex.
	Compile(ex Expression) (*Func, error)
	// Canonical returns the canonical text of ex. Two expressions with equal
	// canonical text are treated as the same equation.
	Canonical(ex Expression) string
}

// Symbolic is the Engine implemented by this package.
type Symbolic struct{}

var _ Engine = Symbolic{}

func (Symbolic) Parse(src string) (Expression, error) { return Parse(src) }

func (Symbolic) Partial(ex Expression, name string, n int) Expression {
	return Partial(ex, name, n)
}

func (Symbolic) Compile(ex Expression) (*Func, error) { return Compile(ex) }

func (Symbolic) Canonical(ex Expression) string { return Simplify(ex).String() }
