package geo

import "math"

const earthRadiusMeters = 6371000

// Distance returns the great-circle distance between two coordinates in meters.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * (math.Pi / 180.0)
	dLon := (lon2 - lon1) * (math.Pi / 180.0)

	lat1Rad := lat1 * (math.Pi / 180.0)
	lat2Rad := lat2 * (math.Pi / 180.0)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1Rad)*math.Cos(lat2Rad)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// Fence is a circular boundary around a named point.
type Fence struct {
	Name         string
	Latitude     float64
	Longitude    float64
	RadiusMeters float64
}

// Result is the outcome of checking a reported coordinate against a fence.
type Result struct {
	FenceName      string
	DistanceMeters float64
	WithinRadius   bool
}

// Check computes the distance from the reported coordinate to the fence
// center. The boundary is inclusive: a point exactly on the radius is within.
func Check(lat, lon float64, fence Fence) Result {
	d := Distance(lat, lon, fence.Latitude, fence.Longitude)
	return Result{
		FenceName:      fence.Name,
		DistanceMeters: d,
		WithinRadius:   d <= fence.RadiusMeters,
	}
}

// Nearest checks the reported coordinate against every fence and returns the
// result for the closest one. The second return is false when no fences are
// configured; callers treat that as "captured, not validated".
func Nearest(lat, lon float64, fences []Fence) (Result, bool) {
	if len(fences) == 0 {
		return Result{}, false
	}

	best := Check(lat, lon, fences[0])
	for _, f := range fences[1:] {
		if r := Check(lat, lon, f); r.DistanceMeters < best.DistanceMeters {
			best = r
		}
	}
	return best, true
}
