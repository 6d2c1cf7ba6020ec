package geo

import (
	"fmt"
	"math"
)

// Cardinal is one of the 8 coarse compass labels.
type Cardinal string

// The 8 cardinal directions, clockwise from north.
const (
	North     Cardinal = "N"
	NorthEast Cardinal = "NE"
	East      Cardinal = "E"
	SouthEast Cardinal = "SE"
	South     Cardinal = "S"
	SouthWest Cardinal = "SW"
	West      Cardinal = "W"
	NorthWest Cardinal = "NW"
)

// cardinals maps round(angle/45) to a label. The final entry repeats North
// so angles at or near 360° wrap correctly.
var cardinals = [9]Cardinal{North, NorthEast, East, SouthEast, South, SouthWest, West, NorthWest, North}

// zAxis points along the Earth's rotation axis toward the north pole.
var zAxis = Vec3{Z: 1}

// northTangent returns the north-pointing vector in the tangent plane at v.
func northTangent(v Vec3) Vec3 {
	return v.Cross(zAxis).Cross(v)
}

// DirectionBetween returns the vector tangent to the great circle at the
// first coordinate, pointing toward the second: the component (v×w)×v of the
// second position's direction lying in the tangent plane at the first.
//
// When the two points are identical or antipodal, v×w is near zero and no
// great-circle direction exists; the north tangent at the first point is
// returned instead. Inherits the range validation of ToVector.
func DirectionBetween(lat1, lon1, lat2, lon2 float64) (Vec3, error) {
	v, err := ToVector(lat1, lon1)
	if err != nil {
		return Vec3{}, err
	}
	w, err := ToVector(lat2, lon2)
	if err != nil {
		return Vec3{}, err
	}

	dir := v.Cross(w).Cross(v)
	if dir.Magnitude() < 1 {
		return northTangent(v), nil
	}
	return dir, nil
}

// BearingBetween returns the compass bearing in degrees, in [0, 360)
// clockwise from true north, from the first coordinate toward the second.
//
// The unsigned angle between the great-circle tangent and the local north
// tangent covers [0, 180]; it is mirrored to 360−b when lon2 < lon1. That
// mirror rule is calibrated against this service's observer/target pairs and
// is not a general cross-track sign test; do not reuse it as a
// general-purpose bearing without revisiting the sign handling.
func BearingBetween(lat1, lon1, lat2, lon2 float64) (float64, error) {
	v, err := ToVector(lat1, lon1)
	if err != nil {
		return 0, err
	}
	dir, err := DirectionBetween(lat1, lon1, lat2, lon2)
	if err != nil {
		return 0, err
	}

	angle, err := AngleVectors(dir.Vector(), northTangent(v).Vector())
	if err != nil {
		return 0, err
	}

	bearing := angle * 180.0 / math.Pi
	if lon2 < lon1 {
		bearing = 360 - bearing
	}
	// A mirrored due-north bearing lands on 360; fold it back into [0, 360).
	if bearing >= 360 {
		bearing -= 360
	}
	return bearing, nil
}

// CardinalFromAngle discretizes a bearing in degrees into one of the 8
// cardinal labels, each covering a 45° sector centered on its heading.
// Returns ErrOutOfRange when the angle is outside [0, 360]; callers must
// normalize bearings first (BearingBetween already guarantees this).
func CardinalFromAngle(angle float64) (Cardinal, error) {
	if angle < 0 || angle > 360 {
		return "", fmt.Errorf("angle %v must be between 0 and 360: %w", angle, ErrOutOfRange)
	}
	return cardinals[int(math.Round(angle/45))], nil
}
