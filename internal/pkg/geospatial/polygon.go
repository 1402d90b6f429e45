package geospatial

import (
	"errors"
	"math"
)

// equatorialRadiusM is the WGS84 equatorial radius in meters, used by the
// geodesic area formula.
const equatorialRadiusM = 6378137.0

// ErrNoVertices is returned by Centroid when the vertex list is empty.
var ErrNoVertices = errors.New("geospatial: no vertices")

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the coordinate lies in the WGS84 domain.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// PolygonAreaHectares returns the geodesic area in hectares of the ring
// described by pts. The last vertex connects back to the first, so a closing
// duplicate vertex contributes nothing. The result does not depend on winding
// direction or on which vertex starts the ring. Fewer than three vertices
// enclose no surface and return 0; the drawing UI produces such rings
// transiently, so they are not an error.
//
// The approximation is valid for polygons small relative to Earth's radius
// (tens of kilometers). Self-intersecting rings, antimeridian crossings and
// polar regions are not handled.
func PolygonAreaHectares(pts []Point) float64 {
	if len(pts) < 3 {
		return 0
	}

	sum := 0.0
	for i, p := range pts {
		q := pts[(i+1)%len(pts)]
		sum += toRad(q.Lng-p.Lng) * (2 + math.Sin(toRad(p.Lat)) + math.Sin(toRad(q.Lat)))
	}

	areaM2 := math.Abs(sum) * equatorialRadiusM * equatorialRadiusM / 2
	return areaM2 / 10000
}

// Centroid returns the arithmetic mean of the vertices, a planar
// approximation good enough for placing map markers. A single vertex is its
// own centroid. ErrNoVertices is returned for an empty list.
func Centroid(pts []Point) (Point, error) {
	if len(pts) == 0 {
		return Point{}, ErrNoVertices
	}

	var lat, lng float64
	for _, p := range pts {
		lat += p.Lat
		lng += p.Lng
	}

	n := float64(len(pts))
	return Point{Lat: lat / n, Lng: lng / n}, nil
}

// Envelope returns the axis-aligned bounding box of the vertices.
func Envelope(pts []Point) (minLat, minLng, maxLat, maxLng float64) {
	if len(pts) == 0 {
		return 0, 0, 0, 0
	}

	minLat, maxLat = pts[0].Lat, pts[0].Lat
	minLng, maxLng = pts[0].Lng, pts[0].Lng
	for _, p := range pts[1:] {
		minLat = math.Min(minLat, p.Lat)
		maxLat = math.Max(maxLat, p.Lat)
		minLng = math.Min(minLng, p.Lng)
		maxLng = math.Max(maxLng, p.Lng)
	}

	return minLat, minLng, maxLat, maxLng
}
