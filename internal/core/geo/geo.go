// Package geo holds the spatial math the aggregation engine groups detections with
package geo

import (
	"encoding/binary"
	"fmt"
	"math"
	"slices"

	"github.com/zeebo/blake3"
)

// EarthRadiusM is the mean earth radius used by Distance
const EarthRadiusM = 6371000.0

// metres per degree of latitude
const mPerDegLat = math.Pi * EarthRadiusM / 180

// Point is a WGS84 coordinate in decimal degrees
type Point struct {
	Lat float64 `json:"latitude"`
	Lng float64 `json:"longitude"`
}

// Valid reports whether p is inside WGS84 bounds and not the (0,0) placeholder
// clients send when they have no fix
func (p Point) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) {
		return false
	}
	if p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
		return false
	}
	return !(p.Lat == 0 && p.Lng == 0)
}

// Distance is the haversine great circle distance in metres
func Distance(a, b Point) float64 {
	lat1, lat2 := rad(a.Lat), rad(b.Lat)
	dLat := lat2 - lat1
	dLng := rad(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * EarthRadiusM * math.Asin(math.Min(1, math.Sqrt(h)))
}

func rad(d float64) float64 { return d * math.Pi / 180 }

// Box is a lat/lng rectangle
type Box struct {
	MinLat, MaxLat, MinLng, MaxLng float64
}

// Contains reports whether p is inside b, edges included
func (b Box) Contains(p Point) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat && p.Lng >= b.MinLng && p.Lng <= b.MaxLng
}

// Around returns a box guaranteed to contain every point within radiusM of p
// it is a cheap index prefilter, Distance decides
func Around(p Point, radiusM float64) Box {
	dLat := radiusM / mPerDegLat
	cos := math.Cos(rad(p.Lat))
	dLng := 180.0
	if cos > 1e-9 {
		dLng = math.Min(180, dLat/cos)
	}
	return Box{
		MinLat: p.Lat - dLat,
		MaxLat: p.Lat + dLat,
		MinLng: p.Lng - dLng,
		MaxLng: p.Lng + dLng,
	}
}

// Cell is a square grid cell index on an equirectangular projection
type Cell struct {
	X, Y int64
}

// Grid maps points onto cells whose edge is at least EdgeM metres everywhere
// two points within EdgeM of each other always land in the same or adjacent cells
type Grid struct {
	EdgeM float64
}

func (g Grid) stepDeg() float64 {
	edge := g.EdgeM
	if edge <= 0 {
		edge = 1
	}
	return edge / mPerDegLat
}

// CellOf returns the cell containing p
// longitude is scaled by the latitude band so an east west step stays >= EdgeM
func (g Grid) CellOf(p Point) Cell {
	step := g.stepDeg()
	y := int64(math.Floor((p.Lat + 90) / step))
	return Cell{X: int64(math.Floor((p.Lng + 180) / g.lngStep(y, step))), Y: y}
}

// lngStep sizes the longitude step of band y by the most poleward latitude of the
// band and its two neighbours, so a point one band away is still within one step
func (g Grid) lngStep(y int64, step float64) float64 {
	south := -90 + float64(y-1)*step
	north := south + 3*step
	worst := math.Max(math.Abs(south), math.Abs(north))
	cos := math.Cos(rad(math.Min(worst, 89.999)))
	return math.Min(360, step/cos)
}

// Neighbourhood returns the 3x3 block of cells around p
// adjacent bands use their own longitude step so the block covers EdgeM in every direction
func (g Grid) Neighbourhood(p Point) []Cell {
	step := g.stepDeg()
	c := g.CellOf(p)
	out := make([]Cell, 0, 9)
	for dy := int64(-1); dy <= 1; dy++ {
		y := c.Y + dy
		ls := g.lngStep(y, step)
		xs := []int64{
			int64(math.Floor((p.Lng + 180 - ls) / ls)),
			int64(math.Floor((p.Lng + 180) / ls)),
			int64(math.Floor((p.Lng + 180 + ls) / ls)),
		}
		for _, x := range slices.Compact(xs) {
			out = append(out, Cell{X: x, Y: y})
		}
	}
	return out
}

// LockKey folds a cell into a signed 64 bit key for pg_advisory_xact_lock
// namespace separates lock families sharing the advisory key space
func LockKey(namespace string, c Cell) int64 {
	h := blake3.New()
	_, _ = h.Write([]byte(namespace))
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], uint64(c.X))
	binary.BigEndian.PutUint64(buf[8:], uint64(c.Y))
	_, _ = h.Write(buf[:])
	sum := h.Sum(nil)
	return int64(binary.BigEndian.Uint64(sum[:8]))
}

// LockKeys returns the sorted, deduplicated lock keys for every cell in p's neighbourhood
// taking them in this order keeps concurrent lockers deadlock free
func LockKeys(namespace string, g Grid, p Point) []int64 {
	cells := g.Neighbourhood(p)
	keys := make([]int64, 0, len(cells))
	for _, c := range cells {
		keys = append(keys, LockKey(namespace, c))
	}
	slices.Sort(keys)
	return slices.Compact(keys)
}

func (c Cell) String() string { return fmt.Sprintf("%d:%d", c.X, c.Y) }
