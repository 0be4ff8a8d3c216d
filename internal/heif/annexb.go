package heif

import (
	"bytes"
	"fmt"
)

var startCode = []byte{0x00, 0x00, 0x00, 0x01}

// HEVCConfig is the decoder configuration record of an hvcC property.
type HEVCConfig struct {
	// NALLengthSize is the byte width of the length prefix in front of each
	// NAL unit of the item data.
	NALLengthSize int
	// ParameterSets holds the VPS, SPS, PPS and SEI units in stored order.
	ParameterSets [][]byte
}

// ParseHEVCConfig decodes an hvcC payload.
func ParseHEVCConfig(p []byte) (*HEVCConfig, error) {
	if len(p) < 23 {
		return nil, fmt.Errorf("%w: hvcC has %d bytes, header needs 23", ErrTruncatedBox, len(p))
	}
	cfg := &HEVCConfig{NALLengthSize: int(p[21]&0x03) + 1}

	r := newReader(p[22:])
	arrays := int(r.u8())
	for i := 0; i < arrays && r.Err() == nil; i++ {
		r.u8() // array_completeness, NAL_unit_type
		n := int(r.u16())
		for j := 0; j < n && r.Err() == nil; j++ {
			size := int(r.u16())
			if nal := r.bytes(size); nal != nil {
				cfg.ParameterSets = append(cfg.ParameterSets, nal)
			}
		}
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("hvcC: %w", err)
	}
	return cfg, nil
}

// HEVCConfig returns the decoder configuration associated with an item.
func (c *Container) HEVCConfig(id uint32) (*HEVCConfig, error) {
	p, ok := c.property(id, "hvcC")
	if !ok {
		return nil, fmt.Errorf("%w: no hvcC property for item %d", ErrItemNotFound, id)
	}
	return ParseHEVCConfig(p)
}

// AnnexB returns the item as a standalone HEVC Annex-B elementary stream:
// the parameter sets from its hvcC property followed by its NAL units, each
// prefixed with a four-byte start code.
func (c *Container) AnnexB(id uint32) ([]byte, error) {
	cfg, err := c.HEVCConfig(id)
	if err != nil {
		return nil, err
	}
	data, err := c.ItemData(id)
	if err != nil {
		return nil, err
	}
	return cfg.AnnexB(data)
}

// AnnexB converts length-prefixed NAL units to an Annex-B stream headed by
// the configuration's parameter sets.
func (cfg *HEVCConfig) AnnexB(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	for _, ps := range cfg.ParameterSets {
		buf.Write(startCode)
		buf.Write(ps)
	}

	r := newReader(data)
	for r.Len() > 0 {
		n := r.varUint(cfg.NALLengthSize)
		nal := r.bytes(int(n))
		if err := r.Err(); err != nil {
			return nil, fmt.Errorf("NAL unit: %w", err)
		}
		buf.Write(startCode)
		buf.Write(nal)
	}
	return buf.Bytes(), nil
}
