package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for files whose type cannot be analysed.
var ErrUnsupportedFormat = errors.New("imaging: unsupported file format")

// Format identifies how a file's pixels are obtained.
type Format string

const (
	FormatRaw  Format = "rgba" // raw interleaved RGBA dump, optionally zstd-compressed
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatGIF  Format = "gif"
	FormatBMP  Format = "bmp"
	FormatTIFF Format = "tiff"
	FormatWebP Format = "webp"
	FormatHEIC Format = "heic"
)

// IsRaw reports whether the format carries RGBA samples only.
func (f Format) IsRaw() bool {
	return f == FormatRaw
}

// heifBrands are the ftyp brands of HEVC-coded still images.
var heifBrands = map[string]bool{
	"heic": true, "heix": true, "heim": true, "heis": true,
	"hevc": true, "hevx": true, "mif1": true, "msf1": true,
}

// Compressed suffix for zstd raw dumps.
const zstdExt = ".zst"

// DetectFormat determines the format of the file at path.
//
// Raw dumps have no signature, so they are recognised by extension
// (".rgba" or ".rgba.zst"). Every other format is sniffed from the leading
// bytes, ignoring the extension.
func DetectFormat(path string) (Format, error) {
	if isRawPath(path) {
		return FormatRaw, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	head := make([]byte, 32)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", fmt.Errorf("failed to read file header: %w", err)
	}
	return SniffFormat(head[:n])
}

// SniffFormat determines a format from the leading bytes of a file.
func SniffFormat(head []byte) (Format, error) {
	switch {
	case bytes.HasPrefix(head, []byte("\x89PNG\r\n\x1a\n")):
		return FormatPNG, nil
	case bytes.HasPrefix(head, []byte{0xFF, 0xD8, 0xFF}):
		return FormatJPEG, nil
	case bytes.HasPrefix(head, []byte("GIF8")):
		return FormatGIF, nil
	case bytes.HasPrefix(head, []byte("BM")):
		return FormatBMP, nil
	case bytes.HasPrefix(head, []byte("II*\x00")), bytes.HasPrefix(head, []byte("MM\x00*")):
		return FormatTIFF, nil
	case len(head) >= 12 && string(head[0:4]) == "RIFF" && string(head[8:12]) == "WEBP":
		return FormatWebP, nil
	case len(head) >= 12 && string(head[4:8]) == "ftyp":
		brand := string(head[8:12])
		if heifBrands[brand] {
			return FormatHEIC, nil
		}
		return "", fmt.Errorf("%w: ftyp brand %q", ErrUnsupportedFormat, brand)
	}
	return "", ErrUnsupportedFormat
}

func isRawPath(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	name = strings.TrimSuffix(name, zstdExt)
	return filepath.Ext(name) == ".rgba"
}
