package dataprocessing

import (
	"math"
)

// Value is a cell of the period matrix that may be missing.
// Arithmetic on values propagates missing operands.
type Value struct {
	Float64 float64
	Valid   bool
}

// Missing is the zero Value
var Missing = Value{}

// Some wraps a present value. NaN and infinities are treated as missing.
func Some(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Missing
	}
	return Value{Float64: f, Valid: true}
}

// Add returns a+b, missing if either operand is missing
func (v Value) Add(o Value) Value {
	if !v.Valid || !o.Valid {
		return Missing
	}
	return Some(v.Float64 + o.Float64)
}

// Sub returns a-b, missing if either operand is missing
func (v Value) Sub(o Value) Value {
	if !v.Valid || !o.Valid {
		return Missing
	}
	return Some(v.Float64 - o.Float64)
}

// Mul returns a*b, missing if either operand is missing
func (v Value) Mul(o Value) Value {
	if !v.Valid || !o.Valid {
		return Missing
	}
	return Some(v.Float64 * o.Float64)
}

// Div returns a/b. A zero denominator yields a missing value.
func (v Value) Div(o Value) Value {
	if !v.Valid || !o.Valid || o.Float64 == 0 {
		return Missing
	}
	return Some(v.Float64 / o.Float64)
}

// OrZero substitutes zero for a missing value
func (v Value) OrZero() Value {
	if !v.Valid {
		return Some(0)
	}
	return v
}

// Series is a column of the period matrix aligned with its dates
type Series []Value

// Zip applies fn element-wise. Both series must share the same matrix.
func (s Series) Zip(o Series, fn func(a, b Value) Value) Series {
	out := make(Series, len(s))
	for i := range s {
		out[i] = fn(s[i], o[i])
	}
	return out
}

// Map applies fn to every element
func (s Series) Map(fn func(Value) Value) Series {
	out := make(Series, len(s))
	for i := range s {
		out[i] = fn(s[i])
	}
	return out
}

// Constant builds a series of n copies of v
func Constant(n int, v Value) Series {
	out := make(Series, n)
	for i := range out {
		out[i] = v
	}
	return out
}
