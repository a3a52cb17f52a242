// Package systems holds the swarm motion rules: the spatial index, the
// pairing registry, the force model and integration.
package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// cellKey identifies one grid bucket on the x/z plane.
type cellKey struct {
	col, row int
}

// SpatialIndex provides amortized O(1) neighbor lookups using a uniform grid
// over the horizontal plane. It is rebuilt from scratch every tick.
type SpatialIndex struct {
	cellSize float64
	cells    map[cellKey][]int
}

// NewSpatialIndex creates an index with the given cell edge length.
// cellSize must be positive; config validation guarantees it.
func NewSpatialIndex(cellSize float64) *SpatialIndex {
	return &SpatialIndex{
		cellSize: cellSize,
		cells:    make(map[cellKey][]int),
	}
}

// CellSize returns the bucket edge length.
func (g *SpatialIndex) CellSize() float64 {
	return g.cellSize
}

// Clear empties all buckets. Slices keep their capacity so a steady
// population rebuilds without allocating.
func (g *SpatialIndex) Clear() {
	for k, bucket := range g.cells {
		g.cells[k] = bucket[:0]
	}
}

// Insert adds an agent to the bucket containing pos.
func (g *SpatialIndex) Insert(index int, pos r3.Vec) {
	k := g.keyFor(pos.X, pos.Z)
	g.cells[k] = append(g.cells[k], index)
}

// Query returns every agent in buckets within ceil(radius/cellSize) cells of
// the query cell. The result is a superset of the true neighborhood; callers
// must re-check exact distance.
func (g *SpatialIndex) Query(pos r3.Vec, radius float64) []int {
	return g.QueryInto(nil, pos, radius)
}

// QueryInto is Query appending to dst. Reuse dst across calls to avoid allocations.
func (g *SpatialIndex) QueryInto(dst []int, pos r3.Vec, radius float64) []int {
	if radius < 0 || math.IsNaN(radius) {
		return dst
	}
	center := g.keyFor(pos.X, pos.Z)
	span := math.Ceil(radius / g.cellSize)

	// Wide queries touch fewer buckets by walking the map than the ring.
	if side := 2*span + 1; side*side > float64(len(g.cells)) {
		for k, bucket := range g.cells {
			if float64(abs(k.col-center.col)) <= span && float64(abs(k.row-center.row)) <= span {
				dst = append(dst, bucket...)
			}
		}
		return dst
	}

	reach := int(span)
	for dc := -reach; dc <= reach; dc++ {
		for dr := -reach; dr <= reach; dr++ {
			bucket, ok := g.cells[cellKey{col: center.col + dc, row: center.row + dr}]
			if !ok {
				continue
			}
			dst = append(dst, bucket...)
		}
	}
	return dst
}

// Len returns the number of indexed agents.
func (g *SpatialIndex) Len() int {
	n := 0
	for _, bucket := range g.cells {
		n += len(bucket)
	}
	return n
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// keyFor returns the bucket for a planar position.
func (g *SpatialIndex) keyFor(x, z float64) cellKey {
	return cellKey{
		col: int(math.Floor(x / g.cellSize)),
		row: int(math.Floor(z / g.cellSize)),
	}
}
