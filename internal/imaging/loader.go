package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"
	"os"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// RegionCache provides thread-safe caching of decoded regions to avoid
// redundant decodes.
//
// Regions are keyed by a caller-chosen string, typically the file path plus
// any parameters that influence decoding (such as a raw dump's dimensions).
// Cached regions must not be modified.
//
// # Memory Management
//
// Decoded regions hold 7 bytes per pixel and remain in memory until removed
// via Evict() or Clear(). Batch callers that analyse each file once should
// not use a cache at all.
type RegionCache struct {
	mu      sync.RWMutex
	regions map[string]*Region
}

// NewRegionCache creates an empty region cache.
func NewRegionCache() *RegionCache {
	return &RegionCache{
		regions: make(map[string]*Region),
	}
}

// Load returns the cached region for key, or calls load and caches its
// result. Errors are not cached.
func (c *RegionCache) Load(key string, load func() (*Region, error)) (*Region, error) {
	c.mu.RLock()
	if r, ok := c.regions[key]; ok {
		c.mu.RUnlock()
		return r, nil
	}
	c.mu.RUnlock()

	r, err := load()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.regions[key] = r
	c.mu.Unlock()

	return r, nil
}

// Len returns the number of cached regions.
func (c *RegionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.regions)
}

// Clear removes all regions from the cache.
func (c *RegionCache) Clear() {
	c.mu.Lock()
	c.regions = make(map[string]*Region)
	c.mu.Unlock()
}

// Evict removes the region cached under key, if any.
func (c *RegionCache) Evict(key string) {
	c.mu.Lock()
	delete(c.regions, key)
	c.mu.Unlock()
}

// DecodeImage decodes a still image with Go's registered decoders (PNG, JPEG,
// GIF, BMP, TIFF, WebP) and returns it as a Region with RGBA and YUV buffers.
func DecodeImage(r io.Reader) (*Region, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return ToRegion(img), format, nil
}

// LoadImage opens and decodes the still image at path.
func LoadImage(path string) (*Region, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	region, _, err := DecodeImage(f)
	return region, err
}

// LoadRaw reads a raw interleaved RGBA dump. Files ending in ".zst" are
// decompressed first.
//
// When width and height are both zero the dump is treated as a single row
// of len/4 pixels; the length must still be a multiple of 4. Any other
// non-positive dimension is rejected.
//
// # Errors
//
//   - Returns ErrMalformedBuffer if the byte count does not match 4·width·height
//   - Returns ErrMalformedBuffer if only one of width and height is positive
//   - Returns an error if the file cannot be read or decompressed
func LoadRaw(path string, width, height int) (*Region, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read raw file: %w", err)
	}
	if strings.HasSuffix(strings.ToLower(path), zstdExt) {
		data, err = decompressZstd(data)
		if err != nil {
			return nil, err
		}
	}
	return RawRegion(data, width, height)
}

// RawRegion wraps an interleaved RGBA buffer as a Region.
func RawRegion(data []byte, width, height int) (*Region, error) {
	switch {
	case width == 0 && height == 0:
		if len(data) == 0 || len(data)%4 != 0 {
			return nil, fmt.Errorf("%w: raw RGBA buffer of %d bytes is not a whole number of pixels",
				ErrMalformedBuffer, len(data))
		}
		width, height = len(data)/4, 1
	case width <= 0 || height <= 0:
		return nil, fmt.Errorf("%w: raw size %dx%d needs both dimensions positive",
			ErrMalformedBuffer, width, height)
	}
	r := &Region{Width: width, Height: height, RGBA: data}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func decompressZstd(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer dec.Close()

	out, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("zstd decode: %w", err)
	}
	return out, nil
}
