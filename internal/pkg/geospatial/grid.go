package geospatial

import (
	"math"
	"math/rand"
	"time"

	"github.com/mapleads/api/internal/core/domain"
)

// earthRadiusMeters is the WGS 84 equatorial radius used for the
// small-angle meter-to-degree conversion.
const earthRadiusMeters = 6378137.0

// DefaultLargeRadiusThreshold is the radius at which grid generation
// switches from a square lattice to concentric rings: twice the 50-mile
// baseline of 80467 m. The threshold is inclusive of the ring branch.
const DefaultLargeRadiusThreshold = 160934.0

// GridPoints returns sample centers covering a circle of radiusMeters
// around center. Radii below threshold produce a (2*gridSize+1)² square
// lattice; radii at or above it produce concentric rings plus random
// infill drawn from rnd. Lattice output is a pure function of its inputs;
// ring output is deterministic for a fixed rnd seed. A nil rnd falls back
// to a time-seeded source.
func GridPoints(center domain.GeoPoint, radiusMeters float64, gridSize int, threshold float64, rnd *rand.Rand) []domain.GeoPoint {
	if gridSize < 1 {
		gridSize = 1
	}
	if threshold <= 0 {
		threshold = DefaultLargeRadiusThreshold
	}
	if radiusMeters >= threshold {
		if rnd == nil {
			rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
		}
		return ringPoints(center, radiusMeters, gridSize, rnd)
	}
	return latticePoints(center, radiusMeters, gridSize)
}

// latticePoints lays out a square lattice of (2g+1)² points with per-axis
// angular step radius/g converted to degrees. The longitude step is widened
// by 1/cos(lat) to correct for meridian convergence.
func latticePoints(center domain.GeoPoint, radiusMeters float64, gridSize int) []domain.GeoPoint {
	step := radiusMeters / float64(gridSize)
	dLat := metersToLatDegrees(step)
	dLon := dLat / math.Cos(toRad(center.Lat))

	points := make([]domain.GeoPoint, 0, (2*gridSize+1)*(2*gridSize+1))
	for i := -gridSize; i <= gridSize; i++ {
		for j := -gridSize; j <= gridSize; j++ {
			points = append(points, domain.GeoPoint{
				Lat: center.Lat + float64(i)*dLat,
				Lon: center.Lon + float64(j)*dLon,
			})
		}
	}
	return points
}

// ringPoints emits the center, then gridSize concentric rings of
// max(8, floor(16*ring/gridSize)) evenly spaced points at distance
// 0.8*radius*ring/gridSize, then 3*gridSize random points at distances in
// [0.3, 0.9]*radius. A uniform lattice wastes sub-searches in sparse
// peripheral cells at this scale; rings plus infill follow the typical
// density of businesses around a metro center while bounding cell count.
func ringPoints(center domain.GeoPoint, radiusMeters float64, gridSize int, rnd *rand.Rand) []domain.GeoPoint {
	points := []domain.GeoPoint{center}

	for ring := 1; ring <= gridSize; ring++ {
		n := 16 * ring / gridSize
		if n < 8 {
			n = 8
		}
		dist := 0.8 * radiusMeters * float64(ring) / float64(gridSize)
		for k := 0; k < n; k++ {
			angle := 2 * math.Pi * float64(k) / float64(n)
			points = append(points, offset(center, dist, angle))
		}
	}

	for i := 0; i < 3*gridSize; i++ {
		angle := rnd.Float64() * 2 * math.Pi
		dist := (0.3 + 0.6*rnd.Float64()) * radiusMeters
		points = append(points, offset(center, dist, angle))
	}

	return points
}

// offset displaces a point by dist meters at the given bearing (radians,
// 0 = north) using the same small-angle approximation as the lattice.
func offset(center domain.GeoPoint, dist, angle float64) domain.GeoPoint {
	dLat := metersToLatDegrees(dist * math.Cos(angle))
	dLon := metersToLatDegrees(dist*math.Sin(angle)) / math.Cos(toRad(center.Lat))
	return domain.GeoPoint{Lat: center.Lat + dLat, Lon: center.Lon + dLon}
}

func metersToLatDegrees(meters float64) float64 {
	return meters / earthRadiusMeters * 180 / math.Pi
}
