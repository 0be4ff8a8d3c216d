//go:build cgo && libheif

package decode

import (
	_ "github.com/strukturag/libheif/go/heif" // Register HEIF format decoder
)

// libheifEnabled routes whole HEIF images through image.Decode.
const libheifEnabled = true
