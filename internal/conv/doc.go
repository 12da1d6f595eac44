// Package conv provides checked integer conversions for fixed-width
// encodings.
//
// Use it where a value crosses into a 32-bit field of a persisted format
// (point indices, counts, lengths). Conversions that are provably safe by
// construction use direct casts instead.
package conv
