package gourmet

import "math"

const earthRadiusMeters = 6371000.0

// HaversineMeters returns the great-circle distance between two points.
func HaversineMeters(a, b Coordinate) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	deltaLat := (b.Latitude - a.Latitude) * math.Pi / 180
	deltaLng := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(deltaLng/2)*math.Sin(deltaLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMeters * c
}

// WalkMinutes estimates walking time, rounded and clamped to [1, maxMinutes].
func WalkMinutes(origin, dest Coordinate, metersPerMinute float64, maxMinutes int) int {
	if metersPerMinute <= 0 {
		metersPerMinute = DefaultWalkSpeed
	}
	if maxMinutes < 1 {
		maxMinutes = DefaultMaxWalkMinutes
	}
	minutes := int(math.Round(HaversineMeters(origin, dest) / metersPerMinute))
	if minutes < 1 {
		return 1
	}
	if minutes > maxMinutes {
		return maxMinutes
	}
	return minutes
}
