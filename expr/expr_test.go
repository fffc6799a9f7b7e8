package expr

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseString(t *testing.T) {
	table := []struct {
		src, out string
	}{
		{"x", "x"},
		{"x*cos(y) * sin(z)", "x*cos(y)*sin(z)"},
		{"x + 2*y", "x + 2*y"},
		{"-x^2", "-x^2"},
		{"(x+y)*z", "(x + y)*z"},
		{"x - (y - z)", "x - (y - z)"},
		{"2^3^2", "2^3^2"},
		{"(2^3)^2", "(2^3)^2"},
		{"x**2", "x^2"},
		{"log(x)", "ln(x)"},
		{"x/(y*z)", "x/(y*z)"},
		{"x^-1", "x^(-1)"},
	}

	for i, test := range table {
		ex, err := Parse(test.src)
		require.NoError(t, err, "%d) Parse(%q)", i+1, test.src)
		assert.Equal(t, test.out, ex.String(), "%d) Parse(%q)", i+1, test.src)

		// Printed expressions must parse back to the same tree.
		again, err := Parse(ex.String())
		require.NoError(t, err)
		assert.True(t, ex.Equal(again), "%d) %q did not round trip", i+1, ex)
	}
}

func TestParseErrors(t *testing.T) {
	var synErr *SyntaxError
	var varErr *VarError

	_, err := Parse("w + 1")
	require.Error(t, err)
	assert.True(t, errors.As(err, &varErr))
	assert.Equal(t, "w", varErr.Name)

	for _, src := range []string{"x +", "foo(x)", "(x", "x y", "", "2 * )"} {
		_, err := Parse(src)
		assert.True(t, errors.As(err, &synErr), "Parse(%q) gave %v", src, err)
	}
}

func TestSimplify(t *testing.T) {
	table := []struct {
		src, out string
	}{
		{"0 + x", "x"},
		{"x*1", "x"},
		{"0*sin(x)", "0"},
		{"2^3^2", "512"},
		{"x - x", "0"},
		{"x*2", "2*x"},
		{"3*(2*x)", "6*x"},
		{"-(-x)", "x"},
		{"x + -y", "x - y"},
		{"(-sin(y))^2", "sin(y)^2"},
		{"sqrt(0 + 0)", "0"},
		{"x^1 + y^0", "x + 1"},
		{"ln(0 - 1)", "ln(-1)"},
	}

	for i, test := range table {
		out := Simplify(MustParse(test.src)).String()
		assert.Equal(t, test.out, out, "%d) Simplify(%q)", i+1, test.src)
	}
}

func TestPartial(t *testing.T) {
	table := []struct {
		src, name string
		n         int
		out       string
	}{
		{"x^3", "x", 1, "3*x^2"},
		{"x^3", "x", 2, "6*x"},
		{"y*z", "x", 2, "0"},
		{"sin(x)", "x", 2, "-sin(x)"},
		{"x + 2*y", "x", 2, "0"},
		{"x + 2*y", "y", 1, "2"},
		{"x*cos(y)", "y", 0, "x*cos(y)"},
	}

	for i, test := range table {
		out := Partial(MustParse(test.src), test.name, test.n).String()
		assert.Equal(t, test.out, out, "%d) Partial(%q, %s, %d)",
			i+1, test.src, test.name, test.n)
	}
}

// Derivatives are checked against central finite differences.
func mustEval(t *testing.T, f *Func, p [3]float64) float64 {
	v, err := f.Eval(p[0], p[1], p[2])
	require.NoError(t, err)
	return v
}

func TestDiffNumeric(t *testing.T) {
	srcs := []string{
		"tan(x)", "asin(x/2)", "acos(x/3)", "atan(x*y)", "exp(x*y)",
		"x^y", "sqrt(x + z)", "sinh(x) + cosh(y*x)", "tanh(x)", "abs(x - 5)",
		"x/(1 + y^2)", "ln(x)*z",
	}
	pt := [3]float64{0.7, 1.3, 0.4}
	h := 1e-6

	for _, src := range srcs {
		ex := MustParse(src)
		f := MustCompile(ex)
		for _, name := range Variables {
			idx, _ := VarIndex(name)
			df := MustCompile(Partial(ex, name, 1))

			hi, lo := pt, pt
			hi[idx] += h
			lo[idx] -= h
			want := (mustEval(t, f, hi) - mustEval(t, f, lo)) / (2 * h)
			got := mustEval(t, df, pt)
			assert.InDelta(t, want, got, 1e-5, "d/d%s %s", name, src)
		}
	}
}

func TestCompileEval(t *testing.T) {
	f := MustCompile(MustParse("x*cos(y)*sin(z)"))
	v, err := f.Eval(2, 0, math.Pi/2)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, v, 1e-12)
	assert.Equal(t, "x*cos(y)*sin(z)", f.String())

	// Variables a Func does not use are ignored.
	g := MustCompile(MustParse("y*z"))
	v, err = g.Eval(100, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, 6.0, v)

	c := MustCompile(MustParse("pi"))
	v, err = c.Eval(1, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, math.Pi, v)
}

func TestEvalError(t *testing.T) {
	f := MustCompile(MustParse("ln(x)"))
	_, err := f.Eval(-1, 0, 0)
	var evalErr *EvalError
	require.True(t, errors.As(err, &evalErr))
	assert.Equal(t, -1.0, evalErr.Point[0])
	assert.True(t, math.IsNaN(evalErr.Value))

	_, err = MustCompile(MustParse("1/x")).Eval(0, 0, 0)
	assert.True(t, errors.As(err, &evalErr))
}

func TestCompileRejectsForeignVars(t *testing.T) {
	_, err := Compile(Add{Var("x"), Var("t")})
	var varErr *VarError
	require.True(t, errors.As(err, &varErr))
	assert.Equal(t, "t", varErr.Name)
}

func TestFreeVars(t *testing.T) {
	assert.Equal(t, []string{"x", "z"}, FreeVars(MustParse("z*sin(x) + z")))
	assert.Empty(t, FreeVars(MustParse("2*pi")))
	assert.True(t, IsConstant(Simplify(MustParse("x - x"))))
}

func TestCanonical(t *testing.T) {
	var eng Engine = Symbolic{}
	a, err := eng.Parse("x * cos(y)")
	require.NoError(t, err)
	b, err := eng.Parse("x*cos(y)")
	require.NoError(t, err)
	assert.Equal(t, eng.Canonical(a), eng.Canonical(b))
}

func BenchmarkEval(b *testing.B) {
	f := MustCompile(MustParse("x*cos(y)*sin(z)"))
	for i := 0; i < b.N; i++ {
		f.Eval(1.5, 0.3, 0.9)
	}
}
