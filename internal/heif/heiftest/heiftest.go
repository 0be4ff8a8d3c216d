// Package heiftest builds small synthetic HEIF files for tests.
//
// The files carry real ISOBMFF structure (ftyp, meta, mdat) but arbitrary
// item payloads, so they exercise container parsing without an encoder.
package heiftest

import (
	"encoding/binary"
)

// Item is one item of a synthetic file.
type Item struct {
	ID   uint32
	Type string
	Name string
	Data []byte
	// InIdat stores Data in the meta box's idat (construction method 1)
	// instead of mdat.
	InIdat bool
	// Width and Height add an ispe property when both are non-zero.
	Width, Height int
	// HVCC adds an hvcC property with this payload.
	HVCC []byte
}

// Ref is one entry of the iref box.
type Ref struct {
	Type string
	From uint32
	To   []uint32
}

// File describes a synthetic HEIF file.
type File struct {
	Brand   string
	Primary uint32
	Items   []Item
	Refs    []Ref
}

// Bytes serialises the file.
func (f File) Bytes() []byte {
	brand := f.Brand
	if brand == "" {
		brand = "heic"
	}
	ftyp := Box("ftyp", append([]byte(brand+"\x00\x00\x00\x00mif1"), brand...))

	var mdat []byte
	for _, it := range f.Items {
		if !it.InIdat {
			mdat = append(mdat, it.Data...)
		}
	}

	// iloc offsets are fixed width, so the meta box has the same size on
	// both passes.
	meta := f.meta(0)
	mdatStart := len(ftyp) + len(meta) + 8
	meta = f.meta(uint32(mdatStart))

	out := append([]byte{}, ftyp...)
	out = append(out, meta...)
	return append(out, Box("mdat", mdat)...)
}

func (f File) meta(mdatStart uint32) []byte {
	var children []byte
	children = append(children, FullBox("hdlr", 0, 0, append(make([]byte, 4), "pict\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00"...))...)
	children = append(children, FullBox("pitm", 0, 0, be16(uint16(f.Primary)))...)

	iinf := be16(uint16(len(f.Items)))
	for _, it := range f.Items {
		p := be16(uint16(it.ID))
		p = append(p, 0, 0)
		p = append(p, it.Type...)
		p = append(p, it.Name...)
		p = append(p, 0)
		iinf = append(iinf, FullBox("infe", 2, 0, p)...)
	}
	children = append(children, FullBox("iinf", 0, 0, iinf)...)

	if len(f.Refs) > 0 {
		var iref []byte
		for _, r := range f.Refs {
			p := be16(uint16(r.From))
			p = append(p, be16(uint16(len(r.To)))...)
			for _, to := range r.To {
				p = append(p, be16(uint16(to))...)
			}
			iref = append(iref, Box(r.Type, p)...)
		}
		children = append(children, FullBox("iref", 0, 0, iref)...)
	}

	var ipco, ipma []byte
	var nprops, nassoc int
	for _, it := range f.Items {
		var idx []byte
		if it.Width > 0 && it.Height > 0 {
			ispe := append(be32(uint32(it.Width)), be32(uint32(it.Height))...)
			ipco = append(ipco, FullBox("ispe", 0, 0, ispe)...)
			nprops++
			idx = append(idx, byte(nprops))
		}
		if it.HVCC != nil {
			ipco = append(ipco, Box("hvcC", it.HVCC)...)
			nprops++
			idx = append(idx, 0x80|byte(nprops))
		}
		if len(idx) == 0 {
			continue
		}
		ipma = append(ipma, be16(uint16(it.ID))...)
		ipma = append(ipma, byte(len(idx)))
		ipma = append(ipma, idx...)
		nassoc++
	}
	if nprops > 0 {
		iprp := Box("ipco", ipco)
		iprp = append(iprp, FullBox("ipma", 0, 0, append(be32(uint32(nassoc)), ipma...))...)
		children = append(children, Box("iprp", iprp)...)
	}

	// iloc version 1: 4-byte offsets and lengths, no base offset or index.
	iloc := []byte{0x44, 0x00}
	iloc = append(iloc, be16(uint16(len(f.Items)))...)
	var idat []byte
	mdatOff := mdatStart
	for _, it := range f.Items {
		iloc = append(iloc, be16(uint16(it.ID))...)
		method := uint16(0)
		var off uint32
		if it.InIdat {
			method = 1
			off = uint32(len(idat))
			idat = append(idat, it.Data...)
		} else {
			off = mdatOff
			mdatOff += uint32(len(it.Data))
		}
		iloc = append(iloc, be16(method)...)
		iloc = append(iloc, 0, 0) // data_reference_index
		iloc = append(iloc, 0, 1) // extent_count
		iloc = append(iloc, be32(off)...)
		iloc = append(iloc, be32(uint32(len(it.Data)))...)
	}
	children = append(children, FullBox("iloc", 1, 0, iloc)...)
	if len(idat) > 0 {
		children = append(children, Box("idat", idat)...)
	}

	return FullBox("meta", 0, 0, children)
}

// Box serialises a plain box.
func Box(typ string, payload []byte) []byte {
	out := be32(uint32(8 + len(payload)))
	out = append(out, typ...)
	return append(out, payload...)
}

// FullBox serialises a box with a version and flags header.
func FullBox(typ string, version uint8, flags uint32, payload []byte) []byte {
	head := be32(uint32(version)<<24 | flags&0xFFFFFF)
	return Box(typ, append(head, payload...))
}

// GridPayload returns a grid descriptor. Dimensions above 65535 select the
// 32-bit field layout.
func GridPayload(rowsMinusOne, columnsMinusOne uint8, width, height uint32) []byte {
	if width > 0xFFFF || height > 0xFFFF {
		out := []byte{0, 1, rowsMinusOne, columnsMinusOne}
		out = append(out, be32(width)...)
		return append(out, be32(height)...)
	}
	out := []byte{0, 0, rowsMinusOne, columnsMinusOne}
	out = append(out, be16(uint16(width))...)
	return append(out, be16(uint16(height))...)
}

// HVCC returns an hvcC payload holding the given parameter set NAL units,
// one array per unit, with NAL length fields of lengthSize bytes.
func HVCC(lengthSize int, parameterSets ...[]byte) []byte {
	out := make([]byte, 23)
	out[0] = 1
	out[21] = 0xFC | byte(lengthSize-1)
	out[22] = byte(len(parameterSets))
	for _, ps := range parameterSets {
		var typ byte
		if len(ps) > 0 {
			typ = (ps[0] >> 1) & 0x3F
		}
		out = append(out, 0x80|typ)
		out = append(out, be16(1)...)
		out = append(out, be16(uint16(len(ps)))...)
		out = append(out, ps...)
	}
	return out
}

// NALs length-prefixes each unit with a big-endian field of lengthSize bytes.
func NALs(lengthSize int, units ...[]byte) []byte {
	var out []byte
	for _, u := range units {
		n := uint64(len(u))
		for i := lengthSize - 1; i >= 0; i-- {
			out = append(out, byte(n>>(8*uint(i))))
		}
		out = append(out, u...)
	}
	return out
}

// GridFile returns a grid image of rows x columns tiles of the given size
// over a width x height canvas. Tile items are numbered from 1 in row-major
// order and the grid item takes the next ID. Each tile's payload is produced
// by tileData.
func GridFile(rows, columns, tileWidth, tileHeight, width, height int, tileData func(index int) []byte) File {
	n := rows * columns
	gridID := uint32(n + 1)
	f := File{Primary: gridID}
	ids := make([]uint32, 0, n)
	for i := 0; i < n; i++ {
		id := uint32(i + 1)
		var data []byte
		if tileData != nil {
			data = tileData(i)
		}
		f.Items = append(f.Items, Item{
			ID:     id,
			Type:   "hvc1",
			Data:   data,
			Width:  tileWidth,
			Height: tileHeight,
			HVCC:   HVCC(4, []byte{0x40, 0x01, 0xAA}, []byte{0x42, 0x01, 0xBB}, []byte{0x44, 0x01, 0xCC}),
		})
		ids = append(ids, id)
	}
	f.Items = append(f.Items, Item{
		ID:     gridID,
		Type:   "grid",
		Data:   GridPayload(uint8(rows-1), uint8(columns-1), uint32(width), uint32(height)),
		InIdat: true,
		Width:  width,
		Height: height,
	})
	f.Refs = []Ref{{Type: "dimg", From: gridID, To: ids}}
	return f
}

func be16(v uint16) []byte {
	return binary.BigEndian.AppendUint16(nil, v)
}

func be32(v uint32) []byte {
	return binary.BigEndian.AppendUint32(nil, v)
}
