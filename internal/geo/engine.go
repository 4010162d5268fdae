// Package geo answers ground queries over height-field terrain.
package geo

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/udisondev/synesthesia/internal/config"
	"github.com/udisondev/synesthesia/internal/model"
)

// RegionExt is the file extension LoadDir picks up.
const RegionExt = ".hmap"

// Engine holds a grid of height regions.
// Thread-safe: regions are swapped atomically and never modified once stored.
type Engine struct {
	cellSize    float64
	origin      model.Vector // world position of cell (0, 0) of region (0, 0)
	regionCells int
	regionsX    int
	regionsY    int

	regions []atomic.Pointer[Region]
	loaded  atomic.Int32
}

// NewEngine creates an empty engine (no regions loaded).
func NewEngine(cfg config.Terrain) *Engine {
	return &Engine{
		cellSize:    cfg.CellSize,
		origin:      cfg.Origin,
		regionCells: cfg.RegionCells,
		regionsX:    cfg.RegionsX,
		regionsY:    cfg.RegionsY,
		regions:     make([]atomic.Pointer[Region], cfg.RegionsX*cfg.RegionsY),
	}
}

// LoadDir loads every region file from dir.
// File naming convention: "<regionX>_<regionY>.hmap"
func (e *Engine) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading terrain dir %s: %w", dir, err)
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := filepath.Ext(name)
		if ext != RegionExt {
			continue
		}

		var rx, ry int
		base := name[:len(name)-len(ext)]
		if _, err := fmt.Sscanf(base, "%d_%d", &rx, &ry); err != nil {
			slog.Warn("skip terrain file (bad name)", "file", name)
			continue
		}
		if !e.inGrid(rx, ry) {
			slog.Warn("skip terrain file (out of range)", "file", name, "rx", rx, "ry", ry)
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("reading terrain %s: %w", name, err)
		}

		region, err := LoadRegion(data)
		if err != nil {
			return fmt.Errorf("parsing terrain %s: %w", name, err)
		}
		if err := e.SetRegion(rx, ry, region); err != nil {
			return fmt.Errorf("storing terrain %s: %w", name, err)
		}
		loaded++
	}

	slog.Info("terrain loaded", "regions", loaded, "dir", dir)
	return nil
}

// Generate fills every region procedurally. fn receives world XY.
func (e *Engine) Generate(fn func(x, y float64) float64) {
	span := float64(e.regionCells) * e.cellSize
	for rx := range e.regionsX {
		for ry := range e.regionsY {
			ox := e.origin.X + float64(rx)*span
			oy := e.origin.Y + float64(ry)*span
			region := GenerateRegion(e.regionCells, e.cellSize, func(x, y float64) float64 {
				return fn(ox+x, oy+y)
			})
			// cell count always matches
			_ = e.SetRegion(rx, ry, region)
		}
	}
	slog.Info("terrain generated", "regions", e.regionsX*e.regionsY, "cells", e.regionCells)
}

// SetRegion stores region at grid position (rx, ry).
func (e *Engine) SetRegion(rx, ry int, region *Region) error {
	if !e.inGrid(rx, ry) {
		return fmt.Errorf("%w: region %d_%d outside %dx%d grid", ErrRegionData, rx, ry, e.regionsX, e.regionsY)
	}
	if region.Cells() != e.regionCells {
		return fmt.Errorf("%w: region has %d cells, engine expects %d", ErrRegionData, region.Cells(), e.regionCells)
	}
	if e.regions[rx*e.regionsY+ry].Swap(region) == nil {
		e.loaded.Add(1)
	}
	return nil
}

// IsLoaded returns true if any region is loaded.
func (e *Engine) IsLoaded() bool {
	return e.loaded.Load() > 0
}

func (e *Engine) inGrid(rx, ry int) bool {
	return rx >= 0 && rx < e.regionsX && ry >= 0 && ry < e.regionsY
}

// surface returns the terrain height under world (x, y).
func (e *Engine) surface(x, y float64) (float64, bool) {
	gx := math.Floor((x - e.origin.X) / e.cellSize)
	gy := math.Floor((y - e.origin.Y) / e.cellSize)
	if gx < 0 || gy < 0 {
		return 0, false
	}
	cx, cy := int(gx), int(gy)
	rx, ry := cx/e.regionCells, cy/e.regionCells
	if !e.inGrid(rx, ry) {
		return 0, false
	}
	region := e.regions[rx*e.regionsY+ry].Load()
	if region == nil {
		return 0, false
	}
	h, ok := region.Height(cx%e.regionCells, cy%e.regionCells)
	return float64(h), ok
}

// HasGeoPos returns true if geodata exists at world (x, y).
func (e *Engine) HasGeoPos(x, y float64) bool {
	_, ok := e.surface(x, y)
	return ok
}

// GetHeight returns the ground height at world (x, y).
// Returns z unchanged if there is no geodata for this position.
func (e *Engine) GetHeight(x, y, z float64) float64 {
	h, ok := e.surface(x, y)
	if !ok {
		return z
	}
	return h
}

// Probe marches a ray from origin along direction and returns the first point
// within maxDistance where the ray reaches the ground. The hit lies on the
// surface. Rays starting below the surface, crossing only holes, or leaving
// the loaded grid miss.
func (e *Engine) Probe(origin, direction model.Vector, maxDistance float64) (model.Vector, bool) {
	if maxDistance <= 0 || direction.IsZero() {
		return model.Vector{}, false
	}
	dir := direction.Normalize()

	if h, ok := e.surface(origin.X, origin.Y); ok && origin.Z < h {
		return model.Vector{}, false
	}

	step := e.cellSize / 2
	prev := 0.0
	for t := 0.0; ; t = math.Min(t+step, maxDistance) {
		p := origin.Add(dir.Scale(t))
		if h, ok := e.surface(p.X, p.Y); ok && p.Z <= h {
			return e.refine(origin, dir, prev, t), true
		}
		if t >= maxDistance {
			return model.Vector{}, false
		}
		prev = t
	}
}

// refine bisects [lo, hi] for the surface crossing and snaps it to the ground.
func (e *Engine) refine(origin, dir model.Vector, lo, hi float64) model.Vector {
	for range 24 {
		mid := (lo + hi) / 2
		p := origin.Add(dir.Scale(mid))
		if h, ok := e.surface(p.X, p.Y); ok && p.Z <= h {
			hi = mid
		} else {
			lo = mid
		}
	}
	p := origin.Add(dir.Scale(hi))
	return p.WithZ(e.GetHeight(p.X, p.Y, p.Z))
}
