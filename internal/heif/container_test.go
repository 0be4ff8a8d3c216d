package heif

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ironsheep/image-stats-mcp/internal/heif/heiftest"
)

func tilePayload(index int) []byte {
	return heiftest.NALs(4, []byte{0x26, 0x01, byte(index)})
}

func TestParse_GridFile(t *testing.T) {
	data := heiftest.GridFile(2, 2, 200, 200, 300, 300, tilePayload).Bytes()

	c, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if c.MajorBrand != "heic" {
		t.Errorf("MajorBrand = %q, want heic", c.MajorBrand)
	}
	if got := len(c.Items()); got != 5 {
		t.Errorf("got %d items, want 5", got)
	}
	if !c.IsGrid() {
		t.Fatal("primary item should be a grid")
	}

	primary, err := c.PrimaryItem()
	if err != nil {
		t.Fatalf("PrimaryItem failed: %v", err)
	}
	if primary.ID != 5 || primary.Type != ItemTypeGrid {
		t.Errorf("primary = %+v", primary)
	}

	g, err := c.Grid()
	if err != nil {
		t.Fatalf("Grid failed: %v", err)
	}
	if g.Rows() != 2 || g.Columns() != 2 || g.OutputWidth != 300 || g.OutputHeight != 300 {
		t.Errorf("grid = %v", g)
	}

	w, h, err := c.PrimarySize()
	if err != nil || w != 300 || h != 300 {
		t.Errorf("PrimarySize = %dx%d, %v; want 300x300", w, h, err)
	}

	tiles, err := c.TileItems()
	if err != nil {
		t.Fatalf("TileItems failed: %v", err)
	}
	if len(tiles) != 4 {
		t.Fatalf("got %d tiles, want 4", len(tiles))
	}
	for i, tile := range tiles {
		if tile.ID != uint32(i+1) || tile.Type != ItemTypeHEVC {
			t.Errorf("tile %d = %+v", i, tile)
		}
		tw, th, err := c.ItemSize(tile.ID)
		if err != nil || tw != 200 || th != 200 {
			t.Errorf("tile %d size = %dx%d, %v", i, tw, th, err)
		}
		payload, err := c.ItemData(tile.ID)
		if err != nil {
			t.Fatalf("ItemData(%d) failed: %v", tile.ID, err)
		}
		if !bytes.Equal(payload, tilePayload(i)) {
			t.Errorf("tile %d data = %x, want %x", i, payload, tilePayload(i))
		}
	}
}

func TestTileItems_ReferenceOrder(t *testing.T) {
	f := heiftest.GridFile(1, 3, 64, 64, 192, 64, tilePayload)
	f.Refs[0].To = []uint32{3, 1, 2}

	c, err := Parse(f.Bytes())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	tiles, err := c.TileItems()
	if err != nil {
		t.Fatalf("TileItems failed: %v", err)
	}
	want := []uint32{3, 1, 2}
	for i, tile := range tiles {
		if tile.ID != want[i] {
			t.Errorf("tile %d: got ID %d, want %d", i, tile.ID, want[i])
		}
	}
}

func TestTileItems_DeclarationOrderFallback(t *testing.T) {
	f := heiftest.GridFile(1, 2, 64, 64, 100, 64, tilePayload)
	f.Refs = nil
	// A thumbnail must not be taken for a tile.
	f.Items = append(f.Items, heiftest.Item{ID: 9, Type: "hvc1", Data: []byte{1}})
	f.Refs = []heiftest.Ref{{Type: "thmb", From: 9, To: []uint32{3}}}

	c, err := Parse(f.Bytes())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	tiles, err := c.TileItems()
	if err != nil {
		t.Fatalf("TileItems failed: %v", err)
	}
	if len(tiles) != 2 || tiles[0].ID != 1 || tiles[1].ID != 2 {
		t.Errorf("tiles = %+v, want items 1 and 2", tiles)
	}
}

func TestParse_SingleImage(t *testing.T) {
	f := heiftest.File{
		Primary: 1,
		Items: []heiftest.Item{
			{ID: 1, Type: "hvc1", Data: []byte{0, 0, 0, 1, 0x26}, Width: 640, Height: 480},
		},
	}
	c, err := Parse(f.Bytes())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if c.IsGrid() {
		t.Error("single image reported as grid")
	}
	w, h, err := c.PrimarySize()
	if err != nil || w != 640 || h != 480 {
		t.Errorf("PrimarySize = %dx%d, %v; want 640x480", w, h, err)
	}
	if _, err := c.GridItem(); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("GridItem: got %v, want ErrItemNotFound", err)
	}
	if _, err := c.TileItems(); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("TileItems: got %v, want ErrItemNotFound", err)
	}
}

func TestParse_Errors(t *testing.T) {
	valid := heiftest.GridFile(1, 1, 64, 64, 64, 64, tilePayload).Bytes()

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"no meta", heiftest.Box("ftyp", []byte("heic\x00\x00\x00\x00")), ErrItemNotFound},
		{"box overruns file", valid[:len(valid)-3], ErrTruncatedBox},
		{"short box header", []byte{0, 0, 0}, ErrTruncatedBox},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.data)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestItemData_Missing(t *testing.T) {
	c, err := Parse(heiftest.GridFile(1, 1, 64, 64, 64, 64, tilePayload).Bytes())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if _, err := c.ItemData(42); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("ItemData: got %v, want ErrItemNotFound", err)
	}
	if _, _, err := c.ItemSize(42); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("ItemSize: got %v, want ErrItemNotFound", err)
	}
	if _, err := c.Item(42); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("Item: got %v, want ErrItemNotFound", err)
	}
}

func TestReadBoxes_LargeSizeAndToEnd(t *testing.T) {
	large := []byte{0, 0, 0, 1, 'f', 'r', 'e', 'e', 0, 0, 0, 0, 0, 0, 0, 18, 0xAB, 0xCD}
	toEnd := []byte{0, 0, 0, 0, 'm', 'd', 'a', 't', 1, 2, 3}

	boxes, err := readBoxes(append(large, toEnd...), 100)
	if err != nil {
		t.Fatalf("readBoxes failed: %v", err)
	}
	if len(boxes) != 2 {
		t.Fatalf("got %d boxes, want 2", len(boxes))
	}
	if boxes[0].Type != "free" || !bytes.Equal(boxes[0].Payload, []byte{0xAB, 0xCD}) || boxes[0].Offset != 116 {
		t.Errorf("largesize box = %+v", boxes[0])
	}
	if boxes[1].Type != "mdat" || !bytes.Equal(boxes[1].Payload, []byte{1, 2, 3}) {
		t.Errorf("to-end box = %+v", boxes[1])
	}
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grid.heic")
	if err := os.WriteFile(path, heiftest.GridFile(2, 2, 200, 200, 300, 300, tilePayload).Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if !c.IsGrid() {
		t.Error("expected grid")
	}

	if _, err := Open(filepath.Join(t.TempDir(), "missing.heic")); err == nil {
		t.Error("expected error for missing file")
	}
}
