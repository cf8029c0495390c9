package core

import (
	"math"
	"strconv"
)

// NoRounding is the sentinel for FormatNum and the summary renderers:
// a negative decimals value leaves numbers unrounded.
const NoRounding = -1

// RoundNum rounds n to the given number of decimals. A negative decimals
// value (NoRounding) returns n unchanged.
func RoundNum(n float64, decimals int) float64 {
	if decimals < 0 {
		return n
	}
	scale := math.Pow(10, float64(decimals))
	return math.Round(n*scale) / scale
}

// FormatNum renders n rounded to the given decimals, trimming trailing
// zeros so that 2.0 prints as "2" and 0.50 as "0.5".
func FormatNum(n float64, decimals int) string {
	return strconv.FormatFloat(RoundNum(n, decimals), 'f', -1, 64)
}
