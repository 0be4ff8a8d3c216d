package heif

import (
	"errors"
	"fmt"
	"os"
)

// ErrItemNotFound is returned when an item, its location or a required
// property is missing from the container.
var ErrItemNotFound = errors.New("heif: item not found")

// Item types used by grid images.
const (
	ItemTypeGrid = "grid"
	ItemTypeHEVC = "hvc1"
)

// Item is one entry of the container's item information box.
type Item struct {
	ID     uint32 `json:"id"`
	Type   string `json:"type"`
	Name   string `json:"name,omitempty"`
	Hidden bool   `json:"hidden,omitempty"`
}

type extent struct {
	offset uint64
	length uint64
}

type location struct {
	method     uint16
	baseOffset uint64
	extents    []extent
}

// Container is the parsed metadata of a HEIF still-image file.
//
// Only the boxes needed to find the primary image, its grid descriptor and
// its tiles are interpreted: ftyp, meta/pitm, meta/iinf, meta/iref,
// meta/iloc, meta/idat and meta/iprp.
type Container struct {
	MajorBrand string

	data      []byte
	primary   uint32
	items     []Item
	refs      map[string]map[uint32][]uint32
	locations map[uint32]location
	idat      []byte
	props     []box
	assoc     map[uint32][]int
}

// Open reads and parses the file at path.
func Open(path string) (*Container, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Parse(data)
}

// Parse parses a complete HEIF file held in memory. The container keeps a
// reference to data for later item extraction.
func Parse(data []byte) (*Container, error) {
	top, err := readBoxes(data, 0)
	if err != nil {
		return nil, err
	}

	c := &Container{
		data:      data,
		refs:      make(map[string]map[uint32][]uint32),
		locations: make(map[uint32]location),
		assoc:     make(map[uint32][]int),
	}

	if ftyp, ok := findBox(top, "ftyp"); ok {
		r := newReader(ftyp.Payload)
		c.MajorBrand = r.fourCC()
	}

	meta, ok := findBox(top, "meta")
	if !ok {
		return nil, fmt.Errorf("%w: no meta box", ErrItemNotFound)
	}
	if len(meta.Payload) < 4 {
		return nil, fmt.Errorf("%w: meta", ErrTruncatedBox)
	}
	children, err := readBoxes(meta.Payload[4:], meta.Offset+4)
	if err != nil {
		return nil, fmt.Errorf("meta: %w", err)
	}

	for _, b := range children {
		switch b.Type {
		case "pitm":
			err = c.parsePitm(b.Payload)
		case "iinf":
			err = c.parseIinf(b)
		case "iref":
			err = c.parseIref(b)
		case "iloc":
			err = c.parseIloc(b.Payload)
		case "idat":
			c.idat = b.Payload
		case "iprp":
			err = c.parseIprp(b)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", b.Type, err)
		}
	}
	return c, nil
}

func (c *Container) parsePitm(p []byte) error {
	r := newReader(p)
	version, _ := r.fullBoxHeader()
	c.primary = r.id(version != 0)
	return r.Err()
}

func (c *Container) parseIinf(b box) error {
	r := newReader(b.Payload)
	version, _ := r.fullBoxHeader()
	if version == 0 {
		r.u16()
	} else {
		r.u32()
	}
	if err := r.Err(); err != nil {
		return err
	}

	entries, err := readBoxes(b.Payload[r.pos:], b.Offset+r.pos)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.Type != "infe" {
			continue
		}
		er := newReader(e.Payload)
		v, flags := er.fullBoxHeader()
		if v < 2 {
			// Version 0/1 entries carry no item type.
			continue
		}
		item := Item{Hidden: flags&1 != 0}
		item.ID = er.id(v >= 3)
		er.u16() // item_protection_index
		item.Type = er.fourCC()
		item.Name = er.cstring()
		if err := er.Err(); err != nil {
			return fmt.Errorf("infe: %w", err)
		}
		c.items = append(c.items, item)
	}
	return nil
}

func (c *Container) parseIref(b box) error {
	r := newReader(b.Payload)
	version, _ := r.fullBoxHeader()
	if err := r.Err(); err != nil {
		return err
	}
	wide := version != 0

	refs, err := readBoxes(b.Payload[4:], b.Offset+4)
	if err != nil {
		return err
	}
	for _, ref := range refs {
		rr := newReader(ref.Payload)
		from := rr.id(wide)
		count := int(rr.u16())
		to := make([]uint32, 0, count)
		for i := 0; i < count; i++ {
			to = append(to, rr.id(wide))
		}
		if err := rr.Err(); err != nil {
			return fmt.Errorf("%s reference: %w", ref.Type, err)
		}
		if c.refs[ref.Type] == nil {
			c.refs[ref.Type] = make(map[uint32][]uint32)
		}
		c.refs[ref.Type][from] = append(c.refs[ref.Type][from], to...)
	}
	return nil
}

func (c *Container) parseIloc(p []byte) error {
	r := newReader(p)
	version, _ := r.fullBoxHeader()
	if version > 2 {
		return fmt.Errorf("unsupported iloc version %d", version)
	}
	sizes := r.u8()
	offsetSize, lengthSize := int(sizes>>4), int(sizes&0x0F)
	sizes = r.u8()
	baseOffsetSize, indexSize := int(sizes>>4), 0
	if version >= 1 {
		indexSize = int(sizes & 0x0F)
	}

	var count uint32
	if version < 2 {
		count = uint32(r.u16())
	} else {
		count = r.u32()
	}
	for i := uint32(0); i < count && r.Err() == nil; i++ {
		id := r.id(version == 2)
		var loc location
		if version >= 1 {
			loc.method = r.u16() & 0x0F
		}
		r.u16() // data_reference_index
		loc.baseOffset = r.uintN(baseOffsetSize)
		extents := int(r.u16())
		for e := 0; e < extents && r.Err() == nil; e++ {
			if version >= 1 && indexSize > 0 {
				r.uintN(indexSize)
			}
			off := r.uintN(offsetSize)
			length := r.uintN(lengthSize)
			loc.extents = append(loc.extents, extent{offset: off, length: length})
		}
		c.locations[id] = loc
	}
	return r.Err()
}

func (c *Container) parseIprp(b box) error {
	children, err := readBoxes(b.Payload, b.Offset)
	if err != nil {
		return err
	}
	if ipco, ok := findBox(children, "ipco"); ok {
		c.props, err = readBoxes(ipco.Payload, ipco.Offset)
		if err != nil {
			return fmt.Errorf("ipco: %w", err)
		}
	}
	for _, ipma := range children {
		if ipma.Type != "ipma" {
			continue
		}
		r := newReader(ipma.Payload)
		version, flags := r.fullBoxHeader()
		count := r.u32()
		for i := uint32(0); i < count && r.Err() == nil; i++ {
			id := r.id(version >= 1)
			n := int(r.u8())
			for j := 0; j < n; j++ {
				var index int
				if flags&1 != 0 {
					index = int(r.u16() & 0x7FFF)
				} else {
					index = int(r.u8() & 0x7F)
				}
				c.assoc[id] = append(c.assoc[id], index)
			}
		}
		if err := r.Err(); err != nil {
			return fmt.Errorf("ipma: %w", err)
		}
	}
	return nil
}

// Items returns every item in declaration order.
func (c *Container) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Item returns the item with the given ID.
func (c *Container) Item(id uint32) (Item, error) {
	for _, it := range c.items {
		if it.ID == id {
			return it, nil
		}
	}
	return Item{}, fmt.Errorf("%w: item %d", ErrItemNotFound, id)
}

// PrimaryItem returns the item designated by the pitm box.
func (c *Container) PrimaryItem() (Item, error) {
	return c.Item(c.primary)
}

// IsGrid reports whether the primary image is a grid of tiles.
func (c *Container) IsGrid() bool {
	it, err := c.PrimaryItem()
	return err == nil && it.Type == ItemTypeGrid
}

// GridItem returns the primary grid item, or the first grid item when the
// primary image is not a grid.
func (c *Container) GridItem() (Item, error) {
	if it, err := c.PrimaryItem(); err == nil && it.Type == ItemTypeGrid {
		return it, nil
	}
	for _, it := range c.items {
		if it.Type == ItemTypeGrid {
			return it, nil
		}
	}
	return Item{}, fmt.Errorf("%w: no grid item", ErrItemNotFound)
}

// GridData returns the raw grid descriptor bytes of the grid item.
func (c *Container) GridData() ([]byte, error) {
	it, err := c.GridItem()
	if err != nil {
		return nil, err
	}
	return c.ItemData(it.ID)
}

// Grid parses the grid item's descriptor.
func (c *Container) Grid() (*Grid, error) {
	data, err := c.GridData()
	if err != nil {
		return nil, err
	}
	return ParseGrid(data)
}

// TileItems returns the grid's tiles in their stored order.
//
// The order of the grid item's dimg references is authoritative. Files that
// lack them fall back to the declaration order of the HEVC items other than
// the primary item.
func (c *Container) TileItems() ([]Item, error) {
	grid, err := c.GridItem()
	if err != nil {
		return nil, err
	}

	if ids := c.refs["dimg"][grid.ID]; len(ids) > 0 {
		tiles := make([]Item, 0, len(ids))
		for _, id := range ids {
			it, err := c.Item(id)
			if err != nil {
				return nil, fmt.Errorf("grid tile: %w", err)
			}
			tiles = append(tiles, it)
		}
		return tiles, nil
	}

	thumbs := make(map[uint32]bool)
	for from := range c.refs["thmb"] {
		thumbs[from] = true
	}
	var tiles []Item
	for _, it := range c.items {
		if it.Type == ItemTypeHEVC && it.ID != c.primary && !thumbs[it.ID] {
			tiles = append(tiles, it)
		}
	}
	return tiles, nil
}

// ItemData returns the concatenated extents of an item.
func (c *Container) ItemData(id uint32) ([]byte, error) {
	loc, ok := c.locations[id]
	if !ok {
		return nil, fmt.Errorf("%w: no location for item %d", ErrItemNotFound, id)
	}

	var src []byte
	switch loc.method {
	case 0:
		src = c.data
	case 1:
		src = c.idat
	default:
		return nil, fmt.Errorf("item %d: unsupported construction method %d", id, loc.method)
	}

	var out []byte
	for _, e := range loc.extents {
		start := loc.baseOffset + e.offset
		end := start + e.length
		if e.length == 0 {
			end = uint64(len(src))
		}
		if start > end || end > uint64(len(src)) {
			return nil, fmt.Errorf("%w: item %d extent [%d,%d) outside %d bytes",
				ErrTruncatedBox, id, start, end, len(src))
		}
		if len(loc.extents) == 1 {
			return src[start:end], nil
		}
		out = append(out, src[start:end]...)
	}
	return out, nil
}

// property returns the first property of the given type associated with id.
func (c *Container) property(id uint32, typ string) ([]byte, bool) {
	for _, index := range c.assoc[id] {
		if index < 1 || index > len(c.props) {
			continue
		}
		if p := c.props[index-1]; p.Type == typ {
			return p.Payload, true
		}
	}
	return nil, false
}

// ItemSize returns the native image size from the item's ispe property.
func (c *Container) ItemSize(id uint32) (width, height int, err error) {
	p, ok := c.property(id, "ispe")
	if !ok {
		return 0, 0, fmt.Errorf("%w: no ispe property for item %d", ErrItemNotFound, id)
	}
	r := newReader(p)
	r.fullBoxHeader()
	w := r.u32()
	h := r.u32()
	if err := r.Err(); err != nil {
		return 0, 0, fmt.Errorf("ispe: %w", err)
	}
	return int(w), int(h), nil
}

// PrimarySize returns the native size of the primary image. For a grid this
// is the output canvas size.
func (c *Container) PrimarySize() (width, height int, err error) {
	if c.IsGrid() {
		g, err := c.Grid()
		if err != nil {
			return 0, 0, err
		}
		return int(g.OutputWidth), int(g.OutputHeight), nil
	}
	return c.ItemSize(c.primary)
}
