// Package geo provides great-circle distance and circular geofences.
package geo

import "math"

// EarthRadiusKm is the mean Earth radius used by Distance.
const EarthRadiusKm = 6371.0

// Point is a coordinate in decimal degrees.
type Point struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

// Distance returns the haversine distance between a and b in kilometers.
// NaN coordinates yield NaN.
func Distance(a, b Point) float64 {
	lat1 := radians(a.Latitude)
	lat2 := radians(b.Latitude)
	dLat := lat2 - lat1
	dLon := radians(b.Longitude) - radians(a.Longitude)

	h := math.Pow(math.Sin(dLat/2), 2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(dLon/2), 2)
	return EarthRadiusKm * 2 * math.Asin(math.Sqrt(h))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Fence is a circular region around Center.
type Fence struct {
	Center Point `json:"center" yaml:"center"`

	// RadiusMeters is the fence radius in meters.
	RadiusMeters float64 `json:"radius_meters" yaml:"radius_meters"`
}

// Contains reports whether p lies within the fence, boundary included.
func (f Fence) Contains(p Point) bool {
	return Distance(f.Center, p) <= f.RadiusMeters/1000
}
