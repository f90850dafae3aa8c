package parallel

import "image"

// TileGrid divides a width x height pixel grid into square tiles.
//
// Tiles are stored in a flat slice in row-major order, accessed via
// index calculation: index = ty * tilesX + tx.
type TileGrid struct {
	tiles    []Tile
	tilesX   int
	tilesY   int
	width    int
	height   int
	tileSize int
}

// NewTileGrid creates a grid covering width x height pixels with tiles of
// tileSize x tileSize. Edge tiles are clipped to the image. A non-positive
// size yields an empty grid; a non-positive tileSize is treated as 1.
func NewTileGrid(width, height, tileSize int) *TileGrid {
	if tileSize <= 0 {
		tileSize = 1
	}
	if width <= 0 || height <= 0 {
		return &TileGrid{tileSize: tileSize}
	}

	tilesX := (width + tileSize - 1) / tileSize
	tilesY := (height + tileSize - 1) / tileSize

	g := &TileGrid{
		tiles:    make([]Tile, 0, tilesX*tilesY),
		tilesX:   tilesX,
		tilesY:   tilesY,
		width:    width,
		height:   height,
		tileSize: tileSize,
	}

	for ty := range tilesY {
		for tx := range tilesX {
			x0, y0 := tx*tileSize, ty*tileSize
			g.tiles = append(g.tiles, Tile{
				X:      tx,
				Y:      ty,
				Bounds: image.Rect(x0, y0, min(x0+tileSize, width), min(y0+tileSize, height)),
			})
		}
	}
	return g
}

// TileAt returns the tile at tile coordinates (tx, ty).
// The second result is false if the coordinates are out of bounds.
func (g *TileGrid) TileAt(tx, ty int) (Tile, bool) {
	if tx < 0 || tx >= g.tilesX || ty < 0 || ty >= g.tilesY {
		return Tile{}, false
	}
	return g.tiles[ty*g.tilesX+tx], true
}

// TileAtPixel returns the tile containing the pixel (px, py).
// The second result is false if the pixel is outside the grid.
func (g *TileGrid) TileAtPixel(px, py int) (Tile, bool) {
	if px < 0 || px >= g.width || py < 0 || py >= g.height {
		return Tile{}, false
	}
	return g.TileAt(px/g.tileSize, py/g.tileSize)
}

// Tiles returns all tiles in row-major order.
// The returned slice should not be modified.
func (g *TileGrid) Tiles() []Tile { return g.tiles }

// TileCount returns the total number of tiles in the grid.
func (g *TileGrid) TileCount() int { return len(g.tiles) }

// TilesX returns the number of tiles horizontally.
func (g *TileGrid) TilesX() int { return g.tilesX }

// TilesY returns the number of tiles vertically.
func (g *TileGrid) TilesY() int { return g.tilesY }

// Width returns the grid width in pixels.
func (g *TileGrid) Width() int { return g.width }

// Height returns the grid height in pixels.
func (g *TileGrid) Height() int { return g.height }

// TileSize returns the nominal tile side in pixels.
func (g *TileGrid) TileSize() int { return g.tileSize }

// Work builds one work item per tile, calling fn with the tile.
// The result is ready for WorkerPool.ExecuteAll.
func (g *TileGrid) Work(fn func(t Tile) error) []func() error {
	work := make([]func() error, len(g.tiles))
	for i := range g.tiles {
		tile := g.tiles[i]
		work[i] = func() error { return fn(tile) }
	}
	return work
}

// SpanWork builds one work item per span of [0, n), calling fn with the span.
func SpanWork(n, size int, fn func(s Span) error) []func() error {
	spans := Spans(n, size)
	work := make([]func() error, len(spans))
	for i := range spans {
		span := spans[i]
		work[i] = func() error { return fn(span) }
	}
	return work
}
