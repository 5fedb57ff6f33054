package formula

import (
	"fmt"
	"math"
	"strconv"
)

// Env maps identifiers to numeric values.
type Env map[string]float64

// Value is the result of evaluating an expression: a number or a boolean.
type Value struct {
	isBool bool
	num    float64
	b      bool
}

// NumberValue returns a numeric Value.
func NumberValue(v float64) Value { return Value{num: v} }

// BoolValue returns a boolean Value.
func BoolValue(b bool) Value { return Value{isBool: true, b: b} }

// IsBool reports whether v holds a boolean.
func (v Value) IsBool() bool { return v.isBool }

// Bool returns the boolean and whether v holds one.
func (v Value) Bool() (bool, bool) { return v.b, v.isBool }

// Number returns the number and whether v holds one.
func (v Value) Number() (float64, bool) { return v.num, !v.isBool }

func (v Value) String() string {
	if v.isBool {
		return strconv.FormatBool(v.b)
	}
	return FormatNumber(v.num)
}

// Eval evaluates n against env.
func Eval(n Node, env Env) (Value, error) {
	switch n := n.(type) {
	case Number:
		return NumberValue(n.Value), nil
	case Bool:
		return BoolValue(n.Value), nil
	case Ident:
		v, ok := env[n.Name]
		if !ok {
			return Value{}, fmt.Errorf("%w %q", ErrUnknownIdentifier, n.Name)
		}
		return NumberValue(v), nil
	case Unary:
		x, err := Eval(n.X, env)
		if err != nil {
			return Value{}, err
		}
		if n.Op == TokNot {
			b, ok := x.Bool()
			if !ok {
				return Value{}, fmt.Errorf("%w: not applied to number %s", ErrType, x)
			}
			return BoolValue(!b), nil
		}
		f, ok := x.Number()
		if !ok {
			return Value{}, fmt.Errorf("%w: negation applied to boolean", ErrType)
		}
		return NumberValue(-f), nil
	case Binary:
		return evalBinary(n, env)
	default:
		return Value{}, fmt.Errorf("unsupported node %T", n)
	}
}

func evalBinary(n Binary, env Env) (Value, error) {
	x, err := Eval(n.X, env)
	if err != nil {
		return Value{}, err
	}

	if n.Op == TokAnd || n.Op == TokOr {
		lb, ok := x.Bool()
		if !ok {
			return Value{}, fmt.Errorf("%w: %s needs boolean operands", ErrType, n.Op)
		}
		if (n.Op == TokAnd && !lb) || (n.Op == TokOr && lb) {
			return BoolValue(lb), nil
		}
		y, err := Eval(n.Y, env)
		if err != nil {
			return Value{}, err
		}
		rb, ok := y.Bool()
		if !ok {
			return Value{}, fmt.Errorf("%w: %s needs boolean operands", ErrType, n.Op)
		}
		return BoolValue(rb), nil
	}

	y, err := Eval(n.Y, env)
	if err != nil {
		return Value{}, err
	}

	if n.Op == TokEq || n.Op == TokNe {
		if x.isBool != y.isBool {
			return Value{}, fmt.Errorf("%w: cannot compare %s with %s", ErrType, x, y)
		}
		eq := x == y
		if n.Op == TokNe {
			eq = !eq
		}
		return BoolValue(eq), nil
	}

	a, ok1 := x.Number()
	b, ok2 := y.Number()
	if !ok1 || !ok2 {
		return Value{}, fmt.Errorf("%w: %s needs numeric operands", ErrType, n.Op)
	}

	switch n.Op {
	case TokPlus:
		return NumberValue(a + b), nil
	case TokMinus:
		return NumberValue(a - b), nil
	case TokStar:
		return NumberValue(a * b), nil
	case TokSlash:
		if b == 0 {
			return Value{}, ErrDivisionByZero
		}
		return NumberValue(a / b), nil
	case TokGt:
		return BoolValue(a > b), nil
	case TokLt:
		return BoolValue(a < b), nil
	case TokGe:
		return BoolValue(a >= b), nil
	case TokLe:
		return BoolValue(a <= b), nil
	default:
		return Value{}, fmt.Errorf("unsupported operator %s", n.Op)
	}
}

// Evaluate parses and evaluates src against env.
func Evaluate(src string, env Env) (Value, error) {
	n, err := Parse(src)
	if err != nil {
		return Value{}, err
	}
	return Eval(n, env)
}

// EvaluateBool evaluates src and requires a boolean result.
func EvaluateBool(src string, env Env) (bool, error) {
	v, err := Evaluate(src, env)
	if err != nil {
		return false, err
	}
	b, ok := v.Bool()
	if !ok {
		return false, fmt.Errorf("%w: formula yields number %s, not a condition", ErrType, v)
	}
	return b, nil
}

// FormatNumber renders a weight the way it appears in substituted formulas:
// integral values keep one decimal place, so 5 becomes "5.0".
func FormatNumber(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
