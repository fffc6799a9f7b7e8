package scene

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"text/scanner"

	"github.com/Knetic/govaluate"
	"github.com/phil-mansfield/curvgrid/expr"
	"github.com/phil-mansfield/curvgrid/grid"
)

const (
	// MaxKeys bounds the number of segments a single grid may contain.
	MaxKeys = 1 << 20
	// maxBound bounds the magnitude of grid coordinates. Past it, unit cells
	// are no longer resolved precisely.
	maxBound = 1 << 40
)

// ConfigError is returned when a request is rejected before it reaches the
// grid.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

var validationFuncs = func() map[string]govaluate.ExpressionFunction {
	fns := map[string]govaluate.ExpressionFunction{}
	add := func(name string, f func(float64) float64) {
		fns[name] = func(args ...interface{}) (interface{}, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("%s takes 1 argument, got %d", name, len(args))
			}
			x, ok := args[0].(float64)
			if !ok {
				return nil, fmt.Errorf("%s needs a number, got %v", name, args[0])
			}
			return f(x), nil
		}
	}
	for name, f := range expr.Funcs {
		add(name, f.Eval)
	}
	for alias, name := range expr.Aliases {
		add(alias, expr.Funcs[name].Eval)
	}
	return fns
}()

// ValidateEquation checks that src is a well-formed equation using only the
// variables x, y, and z, the known constants, and the known functions.
func ValidateEquation(field, src string) error {
	if strings.TrimSpace(src) == "" {
		return &ConfigError{field, "equation is empty"}
	}

	ev, err := govaluate.NewEvaluableExpressionWithFunctions(
		strings.ReplaceAll(plainNumbers(src), "^", "**"), validationFuncs,
	)
	if err != nil {
		return &ConfigError{field, err.Error()}
	}

	for _, name := range ev.Vars() {
		if _, ok := expr.VarIndex(name); ok {
			continue
		} else if _, ok := expr.Constants[name]; ok {
			continue
		}
		return &ConfigError{
			field, fmt.Sprintf("unknown variable '%s', only x, y, and z are allowed", name),
		}
	}

	if _, err := expr.Parse(src); err != nil {
		return &ConfigError{field, err.Error()}
	}
	return nil
}

// plainNumbers rewrites number literals written with an exponent, like 1e-3,
// as plain decimals, since govaluate only reads the latter.
func plainNumbers(src string) string {
	var s scanner.Scanner
	s.Init(strings.NewReader(src))
	s.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanFloats
	s.Error = func(*scanner.Scanner, string) {}

	out := &strings.Builder{}
	last := 0
	for tok := s.Scan(); tok != scanner.EOF; tok = s.Scan() {
		text := s.TokenText()
		if tok != scanner.Float || !strings.ContainsAny(text, "eE") {
			continue
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			continue
		}
		out.WriteString(src[last:s.Position.Offset])
		out.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
		last = s.Position.Offset + len(text)
	}
	out.WriteString(src[last:])
	return out.String()
}

// ValidateGrid checks that cfg describes a usable grid.
func ValidateGrid(cfg grid.Config) error {
	g := cfg.Grid()
	for i, name := range []string{"U", "V", "W"} {
		a := g[i]
		switch {
		case math.IsNaN(a.Min) || math.IsInf(a.Min, 0):
			return &ConfigError{name + "Min", "must be finite"}
		case math.IsNaN(a.Max) || math.IsInf(a.Max, 0):
			return &ConfigError{name + "Max", "must be finite"}
		case a.Max < a.Min:
			return &ConfigError{name + "Max", fmt.Sprintf("%g is less than %sMin = %g", a.Max, name, a.Min)}
		case a.Lines < 0:
			return &ConfigError{"Nb" + name, "must be non-negative"}
		case math.Abs(a.Max) > maxBound || math.Abs(a.Min) > maxBound:
			return &ConfigError{name, "bounds are too large"}
		case a.Lines > MaxKeys:
			return &ConfigError{"Nb" + name, fmt.Sprintf("more than %d lines", MaxKeys)}
		case math.Ceil(a.Max-a.Min) > MaxKeys:
			return &ConfigError{name, fmt.Sprintf("wider than %d units", MaxKeys)}
		}
	}

	w := g.Width()
	n := 0.0
	for d := 0; d < 3; d++ {
		n += math.Ceil(w[d]) * float64(g[(d+1)%3].Lines) * float64(g[(d+2)%3].Lines)
	}
	if n > MaxKeys {
		return &ConfigError{"Grid", fmt.Sprintf("%.0f segments is more than the limit of %d", n, MaxKeys)}
	}
	return nil
}
