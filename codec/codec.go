// Package codec converts memory words to floating point values.
//
// The word layout is close to, but not, IEEE-754 single precision: bits
// 23..30 hold an exponent biased by 127, bits 0..22 a fraction with an
// implicit leading one, and bit 31 carries no sign. Negative words are
// decomposed digit by digit with truncating division, so every digit of a
// negative word is 0 or -1 and the decoded value stays positive. There is
// no zero, denormal, infinity or NaN encoding.
package codec

import (
	"math"
	"strconv"

	"github.com/ezrec/iasim/memory"
)

const (
	EXPONENT_SHIFT = 23  // First exponent bit.
	EXPONENT_BITS  = 8   // Width of the exponent window.
	EXPONENT_BIAS  = 127 // Exponent bias.
	FRACTION_BITS  = 23  // Width of the fraction.
)

// digits splits a word into 32 base-2 digits, LSB first.
// Digits of negative words are -1 or 0.
func digits(word memory.Word) (digit [32]int32) {
	temp := int32(word)
	for n := range digit {
		digit[n] = temp % 2
		temp /= 2
	}
	return
}

// Exponent returns the unbiased exponent of a word.
func Exponent(word memory.Word) (exp int) {
	digit := digits(word)
	for n := range EXPONENT_BITS {
		exp += int(digit[EXPONENT_SHIFT+n]) << n
	}
	exp -= EXPONENT_BIAS
	return
}

// Fraction returns 1 plus the fractional part of a word.
func Fraction(word memory.Word) (sum float32) {
	mem := int32(word)
	for range FRACTION_BITS {
		sum += float32(mem % 2)
		sum /= 2
		mem /= 2
	}
	sum += 1
	return
}

// Decode converts a memory word to a float.
func Decode(word memory.Word) float32 {
	return float32(float64(Fraction(word)) * math.Pow(2, float64(Exponent(word))))
}

// Format renders a float the way a default C++ ostream does: six
// significant digits, shortest of fixed or exponent notation.
func Format(value float32) string {
	switch {
	case math.IsNaN(float64(value)):
		return "nan"
	case math.IsInf(float64(value), 1):
		return "inf"
	case math.IsInf(float64(value), -1):
		return "-inf"
	}

	return strconv.FormatFloat(float64(value), 'g', 6, 32)
}
