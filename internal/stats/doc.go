// Package stats provides exact per-channel sample statistics for 8-bit images.
//
// Samples are folded into a Histogram, a 256-bin frequency table, instead of
// being retained. Because the whole sample domain fits in 256 bins, the mean
// and population standard deviation are computed exactly in O(256) time no
// matter how many pixels were folded in.
//
// # Channels
//
// Each sample belongs to one logical channel:
//   - R, G, B, A: interleaved RGBA buffers (every image format)
//   - Y, U, V: planar 4:4:4 buffers (compressed formats only)
//
// A ChannelSet groups one Histogram per channel for one analysis unit (a whole
// image, or a single tile before it is merged into the image).
//
// # Thread Safety
//
// A Histogram is not safe for concurrent mutation. A ChannelSet serializes
// Merge calls on its receiver, so several workers may each fill their own
// ChannelSet and merge into a shared image-wide set.
//
// # Statistics
//
// The mean is reported rounded to the nearest integer (ties to even) and the
// standard deviation is reported unrounded. Requesting statistics from an
// empty histogram fails with ErrDivideByZero.
package stats
