package heif

import "fmt"

// box is one ISOBMFF box. Payload excludes the size/type header.
type box struct {
	Type    string
	Payload []byte
	Offset  int // offset of the payload within the parsed buffer
}

// readBoxes splits data into consecutive boxes.
//
// A size of 1 selects a 64-bit largesize field; a size of 0 extends the box
// to the end of data. base is added to every reported Offset.
func readBoxes(data []byte, base int) ([]box, error) {
	var boxes []box
	r := newReader(data)
	for r.Len() > 0 {
		start := r.pos
		size := uint64(r.u32())
		typ := r.fourCC()
		switch size {
		case 0:
			size = uint64(len(data) - start)
		case 1:
			size = r.u64()
		}
		if err := r.Err(); err != nil {
			return nil, fmt.Errorf("box header at offset %d: %w", base+start, err)
		}

		header := r.pos - start
		if size < uint64(header) || size > uint64(len(data)-start) {
			return nil, fmt.Errorf("%w: box %q at offset %d declares %d bytes, %d available",
				ErrTruncatedBox, typ, base+start, size, len(data)-start)
		}
		end := start + int(size)
		boxes = append(boxes, box{
			Type:    typ,
			Payload: data[r.pos:end],
			Offset:  base + r.pos,
		})
		r.pos = end
	}
	return boxes, nil
}

// findBox returns the first box of the given type.
func findBox(boxes []box, typ string) (box, bool) {
	for _, b := range boxes {
		if b.Type == typ {
			return b, true
		}
	}
	return box{}, false
}
