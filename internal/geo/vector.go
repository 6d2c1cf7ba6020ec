// Package geo implements great-circle geometry on a spherical Earth model.
//
// Geographic coordinates (geodetic latitude/longitude in degrees) are mapped
// to Cartesian vectors from the Earth's center, and angles, distances,
// directions, bearings, and cardinal labels are derived from those vectors.
// Every function is pure and safe for concurrent use; the only shared state
// is the EarthRadiusKm constant.
package geo

import (
	"errors"
	"fmt"
	"math"
)

// Validation errors returned by the vector and coordinate operations.
// All are detected at the offending call and never retried or downgraded.
var (
	// ErrLengthMismatch is returned when two operand vectors differ in length.
	ErrLengthMismatch = errors.New("vectors must have the same length")
	// ErrInvalidDimension is returned when a cross product operand is not 3-dimensional.
	ErrInvalidDimension = errors.New("vectors must have a length of 3")
	// ErrOutOfRange is returned when a coordinate or angle falls outside its valid domain.
	ErrOutOfRange = errors.New("value out of range")
)

// Vector is a numeric vector of arbitrary length. It is the container for
// the length-agnostic operations; dimensionality is checked at runtime.
type Vector []float64

// Vec3 is a 3-dimensional Cartesian vector. Coordinate conversion produces
// Vec3 values in kilometers from the Earth's center, so dimensionality is
// enforced at compile time wherever the geometry is genuinely 3-D.
type Vec3 struct {
	X, Y, Z float64
}

// Vector returns v as a length-3 Vector for use with the generic operations.
func (v Vec3) Vector() Vector {
	return Vector{v.X, v.Y, v.Z}
}

// Magnitude returns the Euclidean norm of v.
func (v Vec3) Magnitude() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Dot returns the dot product v·w.
func (v Vec3) Dot(w Vec3) float64 {
	return v.X*w.X + v.Y*w.Y + v.Z*w.Z
}

// Cross returns the cross product v×w, perpendicular to the plane spanned
// by v and w. Anti-commutative: v.Cross(w) == w.Cross(v) negated.
func (v Vec3) Cross(w Vec3) Vec3 {
	return Vec3{
		X: v.Y*w.Z - v.Z*w.Y,
		Y: v.Z*w.X - v.X*w.Z,
		Z: v.X*w.Y - v.Y*w.X,
	}
}

// Magnitude returns the Euclidean norm √(Σ vᵢ²) of a vector of any length.
// The magnitude of an empty vector is 0.
func Magnitude(v Vector) float64 {
	var sum float64
	for _, a := range v {
		sum += a * a
	}
	return math.Sqrt(sum)
}

// Dot returns the dot product Σ vᵢwᵢ.
// Returns ErrLengthMismatch when the operands differ in length.
func Dot(v, w Vector) (float64, error) {
	if len(v) != len(w) {
		return 0, fmt.Errorf("dot product of lengths %d and %d: %w", len(v), len(w), ErrLengthMismatch)
	}
	var sum float64
	for i, a := range v {
		sum += a * w[i]
	}
	return sum, nil
}

// Cross returns the 3-D cross product v×w.
// Returns ErrInvalidDimension when either operand's length is not 3.
func Cross(v, w Vector) (Vec3, error) {
	if len(v) != 3 || len(w) != 3 {
		return Vec3{}, fmt.Errorf("cross product of lengths %d and %d: %w", len(v), len(w), ErrInvalidDimension)
	}
	a := Vec3{X: v[0], Y: v[1], Z: v[2]}
	b := Vec3{X: w[0], Y: w[1], Z: w[2]}
	return a.Cross(b), nil
}
