// Package fixedpoint implements the 17.14 signed fixed-point arithmetic
// MLFQS uses for load average, recent CPU, and priority computations. There
// is no hardware floating point available to the original kernel this
// scheduler is modeled on, so fractional quantities are carried as a plain
// integer with an implied binary point: the low 14 bits are the fraction,
// the rest is the integer part, sign included.
package fixedpoint

// FractionBits is the number of bits below the binary point.
const FractionBits = 14

// Scale is 1 in fixed-point representation (1 << FractionBits).
const Scale FP = 1 << FractionBits

// Zero is the fixed-point representation of 0.
const Zero FP = 0

// FP is a signed 17.14 fixed-point number.
type FP int32

// FromInt converts an integer to fixed-point.
func FromInt(n int) FP {
	return FP(n) * Scale
}

// Trunc converts to the nearest integer toward zero.
func (x FP) Trunc() int {
	return int(x / Scale)
}

// Round converts to the nearest integer, rounding half away from zero.
func (x FP) Round() int {
	if x >= 0 {
		return int((x + Scale/2) / Scale)
	}
	return int((x - Scale/2) / Scale)
}

// Add returns x + y.
func (x FP) Add(y FP) FP {
	return x + y
}

// Sub returns x - y.
//
// The header this arithmetic is modeled on defines its SUB macro as
// (x) + (y), which subtracts nothing at all — almost certainly a copy-paste
// slip from ADD rather than an intentional identity. This implementation
// does the subtraction the name promises; see DESIGN.md for the call.
func (x FP) Sub(y FP) FP {
	return x - y
}

// AddInt returns x + n.
func (x FP) AddInt(n int) FP {
	return x + FromInt(n)
}

// SubInt returns x - n.
func (x FP) SubInt(n int) FP {
	return x - FromInt(n)
}

// Mul returns x * y, widening through int64 to avoid overflowing the
// intermediate product before rescaling.
func (x FP) Mul(y FP) FP {
	return FP(int64(x) * int64(y) / int64(Scale))
}

// Div returns x / y, widening through int64 so the numerator can be
// pre-scaled without losing precision.
func (x FP) Div(y FP) FP {
	return FP(int64(x) * int64(Scale) / int64(y))
}

// MulInt returns x * n.
func (x FP) MulInt(n int) FP {
	return x * FP(n)
}

// DivInt returns x / n.
func (x FP) DivInt(n int) FP {
	return x / FP(n)
}
