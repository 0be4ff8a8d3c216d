package device

import (
	"fmt"
	"slices"
)

// ColorSpaces lists the names the decoder accepts for inPreferredColorSpace.
// "None" keeps the decoder's default.
var ColorSpaces = []string{
	"ACES",
	"ACESCG",
	"ADOBE_RGB",
	"BT2020",
	"BT2020_HLG",
	"BT2020_PQ",
	"BT709",
	"CIE_LAB",
	"CIE_XYZ",
	"DCI_P3",
	"DISPLAY_P3",
	"EXTENDED_SRGB",
	"LINEAR_EXTENDED_SRGB",
	"LINEAR_SRGB",
	"NTSC_1953",
	"PRO_PHOTO_RGB",
	"SMPTE_C",
	"SRGB",
	"None",
}

// ValidateColorSpace accepts an empty name or one of ColorSpaces.
func ValidateColorSpace(name string) error {
	if name == "" || slices.Contains(ColorSpaces, name) {
		return nil
	}
	return fmt.Errorf("unknown color space %q", name)
}
