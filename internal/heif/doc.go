// Package heif reads the container structure of HEIF/HEIC still images.
//
// The package does not decode HEVC. It locates the primary image, parses the
// image grid descriptor, lists a grid's tiles in stored order, and extracts
// each tile as an Annex-B elementary stream that an external decoder can
// consume.
//
// # Grids
//
// A grid image is stored as rows x columns equally sized tiles. The output
// canvas may be smaller than the tiles cover, in which case the right-most
// column and the bottom row are cropped:
//
//	remainderWidth  = tileWidth  + outputWidth  - tileWidth*columns
//	remainderHeight = tileHeight + outputHeight - tileHeight*rows
//
// Both remainders must lie in (0, tile size]. PlanCrop returns the crop for a
// single tile and PlanTiles for the whole grid.
//
// # Errors
//
// Malformed input is reported with the sentinel errors ErrTruncatedBox,
// ErrTruncatedGrid, ErrUnsupportedGridFormat, ErrInvalidGridGeometry and
// ErrItemNotFound, wrapped with context. Use errors.Is to test for them.
package heif
