package heif

import (
	"errors"
	"fmt"
)

var (
	// ErrTruncatedGrid is returned when a grid descriptor is shorter than
	// its flags require.
	ErrTruncatedGrid = errors.New("heif: truncated grid descriptor")

	// ErrUnsupportedGridFormat is returned for grid flags other than 0 or 1.
	ErrUnsupportedGridFormat = errors.New("heif: unsupported grid descriptor format")

	// ErrInvalidGridGeometry is returned when the output canvas cannot be
	// rebuilt from equally sized tiles.
	ErrInvalidGridGeometry = errors.New("heif: invalid grid geometry")
)

// gridFlagWideFields selects 32-bit output dimension fields.
const gridFlagWideFields = 0x01

// Grid is a parsed image grid descriptor (ISO/IEC 23008-12 ImageGrid).
type Grid struct {
	Version         uint8  `json:"version"`
	Flags           uint8  `json:"flags"`
	RowsMinusOne    uint8  `json:"rows_minus_one"`
	ColumnsMinusOne uint8  `json:"columns_minus_one"`
	OutputWidth     uint32 `json:"output_width"`
	OutputHeight    uint32 `json:"output_height"`
}

// ParseGrid decodes the payload of a grid item.
//
// Layout: version (1 byte), flags (1 byte), rows_minus_one (1 byte),
// columns_minus_one (1 byte), then output_width and output_height as
// big-endian 16-bit fields when flags bit 0 is clear, or 32-bit fields when
// it is set. Trailing bytes are ignored.
func ParseGrid(data []byte) (*Grid, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: %d bytes, header needs 4", ErrTruncatedGrid, len(data))
	}

	g := &Grid{
		Version:         data[0],
		Flags:           data[1],
		RowsMinusOne:    data[2],
		ColumnsMinusOne: data[3],
	}

	wide := false
	switch g.Flags {
	case 0:
	case gridFlagWideFields:
		wide = true
	default:
		return nil, fmt.Errorf("%w: flags 0x%02x", ErrUnsupportedGridFormat, g.Flags)
	}

	fieldSize := 2
	if wide {
		fieldSize = 4
	}
	if len(data) < 4+2*fieldSize {
		return nil, fmt.Errorf("%w: %d bytes, %d-bit dimensions need %d",
			ErrTruncatedGrid, len(data), 8*fieldSize, 4+2*fieldSize)
	}

	r := newReader(data[4:])
	if wide {
		g.OutputWidth = r.u32()
		g.OutputHeight = r.u32()
	} else {
		g.OutputWidth = uint32(r.u16())
		g.OutputHeight = uint32(r.u16())
	}
	return g, nil
}

// Rows returns the number of tile rows.
func (g *Grid) Rows() int {
	return int(g.RowsMinusOne) + 1
}

// Columns returns the number of tile columns.
func (g *Grid) Columns() int {
	return int(g.ColumnsMinusOne) + 1
}

// TileCount returns the number of tiles the grid references.
func (g *Grid) TileCount() int {
	return g.Rows() * g.Columns()
}

// TilePosition returns the row and column of a row-major tile index.
func (g *Grid) TilePosition(index int) (row, col int) {
	return index / g.Columns(), index % g.Columns()
}

// IsLastColumn reports whether the tile at index sits in the right-most column.
func (g *Grid) IsLastColumn(index int) bool {
	return index%g.Columns() == int(g.ColumnsMinusOne)
}

// IsLastRow reports whether the tile at index sits in the bottom row.
func (g *Grid) IsLastRow(index int) bool {
	return index >= g.Columns()*int(g.RowsMinusOne)
}

// RemainderWidth returns the width of the right-most column's visible part
// for tiles of the given native width.
func (g *Grid) RemainderWidth(tileWidth int) int {
	return tileWidth + int(g.OutputWidth) - tileWidth*g.Columns()
}

// RemainderHeight returns the height of the bottom row's visible part for
// tiles of the given native height.
func (g *Grid) RemainderHeight(tileHeight int) int {
	return tileHeight + int(g.OutputHeight) - tileHeight*g.Rows()
}

// Validate checks that tiles of the given native size rebuild the output
// canvas: both remainders must lie in (0, tile size].
func (g *Grid) Validate(tileWidth, tileHeight int) error {
	if tileWidth <= 0 || tileHeight <= 0 {
		return fmt.Errorf("%w: tile size %dx%d", ErrInvalidGridGeometry, tileWidth, tileHeight)
	}
	if rw := g.RemainderWidth(tileWidth); rw <= 0 || rw > tileWidth {
		return fmt.Errorf("%w: %d columns of width %d cannot cover output width %d (remainder %d)",
			ErrInvalidGridGeometry, g.Columns(), tileWidth, g.OutputWidth, rw)
	}
	if rh := g.RemainderHeight(tileHeight); rh <= 0 || rh > tileHeight {
		return fmt.Errorf("%w: %d rows of height %d cannot cover output height %d (remainder %d)",
			ErrInvalidGridGeometry, g.Rows(), tileHeight, g.OutputHeight, rh)
	}
	return nil
}

func (g *Grid) String() string {
	return fmt.Sprintf("grid %dx%d tiles, output %dx%d", g.Columns(), g.Rows(), g.OutputWidth, g.OutputHeight)
}
