// Package imaging holds decoded pixel buffers and turns them into channel
// samples.
//
// A Region carries one decoded image or tile in two layouts: an interleaved
// 8-bit RGBA buffer of 4·w·h bytes and, for every format except raw dumps, a
// planar YUV 4:4:4 buffer of 3·w·h bytes (the Y plane, then U, then V). All
// coordinates are 0-based with (0,0) at the top-left corner.
//
// # Loading
//
// DetectFormat recognises raw dumps by extension (".rgba", ".rgba.zst") and
// sniffs every other format from its leading bytes. LoadImage decodes PNG,
// JPEG, GIF, BMP, TIFF and WebP in-process. JPEG keeps its native Y'CbCr
// samples; other formats get BT.601 full-range YUV computed from RGB.
// LoadRaw reads a dump of caller-given size, transparently decompressing
// zstd.
//
// # Cropping and Extraction
//
// Crop keeps the top-left width x height part of both buffers. Extract adds
// every RGBA byte to the R, G, B and A histograms and every YUV plane byte
// to the Y, U and V histograms of a stats.ChannelSet.
//
// # Thread Safety
//
// The RegionCache type is safe for concurrent use. Regions are treated as
// immutable once decoded, so Crop and Extract may run concurrently on the
// same region.
//
// # Error Handling
//
// Buffers whose length does not match their dimensions fail with
// ErrMalformedBuffer, and unrecognised inputs with ErrUnsupportedFormat.
// Both are wrapped with context; test them with errors.Is.
package imaging
