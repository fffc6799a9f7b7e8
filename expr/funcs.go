package expr

import (
	"math"
)

// Func1D describes one of the built-in functions which may appear in a Call.
type Func1D struct {
	Eval func(float64) float64
	// Deriv returns f'(u) as an expression of the argument u. The chain rule
	// factor is applied by the caller.
	Deriv func(u Expression) Expression
}

// Funcs contains every function name recognized by the parser.
var Funcs = map[string]Func1D{
	"sin": {math.Sin, func(u Expression) Expression { return Call{"cos", u} }},
	"cos": {math.Cos, func(u Expression) Expression { return Neg{Call{"sin", u}} }},
	"tan": {math.Tan, func(u Expression) Expression {
		return Div{Num(1), Pow{Call{"cos", u}, Num(2)}}
	}},
	"exp": {math.Exp, func(u Expression) Expression { return Call{"exp", u} }},
	"ln":  {math.Log, func(u Expression) Expression { return Div{Num(1), u} }},
	"sqrt": {math.Sqrt, func(u Expression) Expression {
		return Div{Num(1), Mul{Num(2), Call{"sqrt", u}}}
	}},
	"abs":  {math.Abs, func(u Expression) Expression { return Call{"sign", u} }},
	"sign": {sign, func(u Expression) Expression { return Num(0) }},
	"asin": {math.Asin, func(u Expression) Expression {
		return Div{Num(1), Call{"sqrt", Sub{Num(1), Pow{u, Num(2)}}}}
	}},
	"acos": {math.Acos, func(u Expression) Expression {
		return Neg{Div{Num(1), Call{"sqrt", Sub{Num(1), Pow{u, Num(2)}}}}}
	}},
	"atan": {math.Atan, func(u Expression) Expression {
		return Div{Num(1), Add{Num(1), Pow{u, Num(2)}}}
	}},
	"sinh": {math.Sinh, func(u Expression) Expression { return Call{"cosh", u} }},
	"cosh": {math.Cosh, func(u Expression) Expression { return Call{"sinh", u} }},
	"tanh": {math.Tanh, func(u Expression) Expression {
		return Sub{Num(1), Pow{Call{"tanh", u}, Num(2)}}
	}},
}

// Aliases are accepted by the parser and rewritten to their canonical name.
var Aliases = map[string]string{
	"log": "ln",
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}
