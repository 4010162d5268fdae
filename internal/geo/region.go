package geo

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// HoleHeight marks a cell without geodata. Rays pass through holes.
const HoleHeight = math.MinInt16

// MaxRegionCells bounds the region edge accepted by LoadRegion.
const MaxRegionCells = 4096

// ErrRegionData is returned for malformed region data.
var ErrRegionData = errors.New("invalid region data")

// Region is a square grid of cell heights.
// Binary format (little-endian): uint16 cells, then cells×cells int16 heights,
// cell (x, y) at index x*cells+y.
type Region struct {
	cells   int
	heights []int16
}

// NewRegion creates a region with every cell set to HoleHeight.
func NewRegion(cells int) *Region {
	r := &Region{cells: cells, heights: make([]int16, cells*cells)}
	for i := range r.heights {
		r.heights[i] = HoleHeight
	}
	return r
}

// LoadRegion parses a region file's raw bytes.
func LoadRegion(data []byte) (*Region, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("%w: header truncated (%d bytes)", ErrRegionData, len(data))
	}
	cells := int(binary.LittleEndian.Uint16(data))
	if cells == 0 || cells > MaxRegionCells {
		return nil, fmt.Errorf("%w: bad cell count %d", ErrRegionData, cells)
	}
	want := 2 + cells*cells*2
	if len(data) != want {
		return nil, fmt.Errorf("%w: expected %d bytes for %d cells, got %d", ErrRegionData, want, cells, len(data))
	}

	r := &Region{cells: cells, heights: make([]int16, cells*cells)}
	for i := range r.heights {
		off := 2 + i*2
		r.heights[i] = int16(binary.LittleEndian.Uint16(data[off : off+2]))
	}
	return r, nil
}

// MarshalBinary encodes the region in the LoadRegion format.
func (r *Region) MarshalBinary() ([]byte, error) {
	data := make([]byte, 2+len(r.heights)*2)
	binary.LittleEndian.PutUint16(data, uint16(r.cells))
	for i, h := range r.heights {
		binary.LittleEndian.PutUint16(data[2+i*2:], uint16(h))
	}
	return data, nil
}

// Cells returns the region edge length in cells.
func (r *Region) Cells() int {
	return r.cells
}

// Height returns the height of local cell (x, y); false for holes.
func (r *Region) Height(x, y int) (int16, bool) {
	h := r.heights[x*r.cells+y]
	return h, h != HoleHeight
}

// SetHeight sets local cell (x, y).
func (r *Region) SetHeight(x, y int, h int16) {
	r.heights[x*r.cells+y] = h
}

// HasGeoData reports whether any cell holds a height.
func (r *Region) HasGeoData() bool {
	for _, h := range r.heights {
		if h != HoleHeight {
			return true
		}
	}
	return false
}

// GenerateRegion builds a region by sampling fn at every cell center. fn
// receives offsets in world units from the region corner; results are clamped
// to the int16 range, and NaN produces a hole.
func GenerateRegion(cells int, cellSize float64, fn func(x, y float64) float64) *Region {
	r := NewRegion(cells)
	for x := range cells {
		for y := range cells {
			h := fn((float64(x)+0.5)*cellSize, (float64(y)+0.5)*cellSize)
			if math.IsNaN(h) {
				continue
			}
			r.SetHeight(x, y, clampHeight(h))
		}
	}
	return r
}

func clampHeight(h float64) int16 {
	switch {
	case h <= math.MinInt16+1:
		return math.MinInt16 + 1
	case h >= math.MaxInt16:
		return math.MaxInt16
	default:
		return int16(math.Round(h))
	}
}
