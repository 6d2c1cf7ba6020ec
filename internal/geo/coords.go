package geo

import (
	"fmt"
	"math"
)

// EarthRadiusKm is the mean Earth radius of the spherical model.
// All distances and position vectors are expressed against this radius.
const EarthRadiusKm = 6371.0

// ToVector converts a geodetic coordinate to a Cartesian vector on the
// sphere of radius EarthRadiusKm. Latitude and longitude are in degrees.
// Returns ErrOutOfRange when latitude is outside [-90, 90] or longitude
// outside [-180, 180]. The result's magnitude is EarthRadiusKm for every
// valid input (up to floating-point tolerance).
func ToVector(lat, lon float64) (Vec3, error) {
	if lat < -90 || lat > 90 {
		return Vec3{}, fmt.Errorf("latitude %v must be between -90 and 90: %w", lat, ErrOutOfRange)
	}
	if lon < -180 || lon > 180 {
		return Vec3{}, fmt.Errorf("longitude %v must be between -180 and 180: %w", lon, ErrOutOfRange)
	}

	latRad := lat * math.Pi / 180.0
	lonRad := lon * math.Pi / 180.0
	cosLat := math.Cos(latRad)

	return Vec3{
		X: EarthRadiusKm * cosLat * math.Cos(lonRad),
		Y: EarthRadiusKm * cosLat * math.Sin(lonRad),
		Z: EarthRadiusKm * math.Sin(latRad),
	}, nil
}

// AngleVectors returns the angle between two vectors in radians, in [0, π].
// Returns ErrLengthMismatch when the operands differ in length (the check is
// delegated to Dot). If either vector has zero magnitude the angle is
// geometrically undefined; 0 is returned by convention, not an error.
//
// The cosine is rounded to 5 decimal places before math.Acos. Near-parallel
// vectors can produce a cosine marginally outside [-1, 1] from accumulated
// floating-point error; without the rounding, Acos would return NaN.
func AngleVectors(v, w Vector) (float64, error) {
	dot, err := Dot(v, w)
	if err != nil {
		return 0, err
	}
	mv := Magnitude(v)
	mw := Magnitude(w)
	if mv == 0 || mw == 0 {
		return 0, nil
	}
	cos := math.Round(dot/(mv*mw)*1e5) / 1e5
	return math.Acos(cos), nil
}

// AngleBetween returns the angular separation in radians between two
// geodetic coordinates. Inherits the range validation of ToVector.
func AngleBetween(lat1, lon1, lat2, lon2 float64) (float64, error) {
	v, err := ToVector(lat1, lon1)
	if err != nil {
		return 0, err
	}
	w, err := ToVector(lat2, lon2)
	if err != nil {
		return 0, err
	}
	return AngleVectors(v.Vector(), w.Vector())
}

// DistanceBetween returns the great-circle distance in kilometers between
// two geodetic coordinates: angular separation × EarthRadiusKm. Zero for
// identical points, π·R for antipodal points.
func DistanceBetween(lat1, lon1, lat2, lon2 float64) (float64, error) {
	angle, err := AngleBetween(lat1, lon1, lat2, lon2)
	if err != nil {
		return 0, err
	}
	return angle * EarthRadiusKm, nil
}
