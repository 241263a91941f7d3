package transfersyntax

import (
	"bytes"
	"testing"

	"github.com/dicomnet-go/dicomcore/dataset"
	"github.com/dicomnet-go/dicomcore/dictionary"
	"github.com/dicomnet-go/dicomcore/tag"
	"github.com/dicomnet-go/dicomcore/vr"
)

func TestEncodeTag(t *testing.T) {
	got := encodeTag(tag.Tag{Group: 0x0010, Element: 0x0010}, ExplicitLE)
	want := []byte{0x10, 0x00, 0x10, 0x00}
	if !bytes.Equal(got, want) {
		t.Fatalf("LE: got % x want % x", got, want)
	}

	got = encodeTag(tag.Tag{Group: 0x0010, Element: 0x0010}, ExplicitBE)
	want = []byte{0x00, 0x10, 0x00, 0x10}
	if !bytes.Equal(got, want) {
		t.Fatalf("BE: got % x want % x", got, want)
	}
}

func TestSimpleElementRoundTrip(t *testing.T) {
	ds := dataset.NewDataset()
	ds.Put(dataset.NewStringElement(tag.Tag{Group: 0x0008, Element: 0x0005}, vr.CS, "ISO_IR 100"))

	encoded := Serialize(ds, ExplicitLE)
	want := []byte{
		0x08, 0x00, 0x05, 0x00, 'C', 'S', 0x0A, 0x00,
		'I', 'S', 'O', '_', 'I', 'R', ' ', '1', '0', '0',
	}
	if !bytes.Equal(encoded, want) {
		t.Fatalf("got % x\nwant % x", encoded, want)
	}

	decoded, consumed, err := Deserialize(encoded, 0, ExplicitLE, dictionary.Builtin)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if consumed != len(encoded) {
		t.Fatalf("consumed %d, want %d", consumed, len(encoded))
	}
	el, ok := decoded.Get(tag.Tag{Group: 0x0008, Element: 0x0005})
	if !ok || el.String() != "ISO_IR 100" {
		t.Fatalf("got %+v", el)
	}
}

func TestNestedSequenceUndefinedLength(t *testing.T) {
	item := dataset.NewDataset()
	item.Put(dataset.NewStringElement(tag.Tag{Group: 0x0040, Element: 0x0009}, vr.SH, "CODE1"))

	ds := dataset.NewDataset()
	ds.Put(&dataset.Element{
		Tag:    tag.Tag{Group: 0x0040, Element: 0x0275},
		VR:     vr.SQ,
		Length: dataset.UndefinedLength,
		Value:  &dataset.Sequence{Items: []*dataset.Item{dataset.NewItem(item)}, Undefined: true},
	})

	encoded := Serialize(ds, ExplicitLE)
	want := []byte{
		0x40, 0x00, 0x75, 0x02, 'S', 'Q', 0x00, 0x00, 0xFF, 0xFF, 0xFF, 0xFF,
		0xFE, 0xFF, 0x00, 0xE0, 0xFF, 0xFF, 0xFF, 0xFF,
		0x40, 0x00, 0x09, 0x00, 'S', 'H', 0x06, 0x00, 'C', 'O', 'D', 'E', '1', ' ',
		0xFE, 0xFF, 0x0D, 0xE0, 0x00, 0x00, 0x00, 0x00,
		0xFE, 0xFF, 0xDD, 0xE0, 0x00, 0x00, 0x00, 0x00,
	}
	if !bytes.Equal(encoded, want) {
		t.Fatalf("got % x\nwant % x", encoded, want)
	}

	decoded, consumed, err := Deserialize(encoded, 0, ExplicitLE, dictionary.Builtin)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if consumed != len(encoded) {
		t.Fatalf("consumed %d, want %d", consumed, len(encoded))
	}

	el, ok := decoded.Get(tag.Tag{Group: 0x0040, Element: 0x0275})
	if !ok || el.VR != vr.SQ {
		t.Fatalf("sequence element missing")
	}
	seq := el.SequenceValue()
	if seq == nil || !seq.Undefined || len(seq.Items) != 1 {
		t.Fatalf("got %+v", seq)
	}
	inner, ok := seq.Items[0].Dataset.Get(tag.Tag{Group: 0x0040, Element: 0x0009})
	if !ok || inner.String() != "CODE1" {
		t.Fatalf("got %+v", inner)
	}
}

func TestEncapsulatedPixelDataRoundTrip(t *testing.T) {
	enc := &dataset.Encapsulated{
		CompressedFrames: true,
		FrameStarts:      []uint32{0},
		Fragments:        [][]byte{{0xDE, 0xAD, 0xBE, 0xEF}, {0xCA, 0xFE}},
	}
	ds := dataset.NewDataset()
	ds.Put(&dataset.Element{Tag: tag.PixelData, VR: vr.OB, Length: dataset.UndefinedLength, Value: enc})

	encoded := Serialize(ds, ExplicitLE)
	decoded, consumed, err := Deserialize(encoded, 0, ExplicitLE, dictionary.Builtin)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if consumed != len(encoded) {
		t.Fatalf("consumed %d, want %d", consumed, len(encoded))
	}

	el, ok := decoded.Get(tag.PixelData)
	if !ok {
		t.Fatalf("pixel data missing")
	}
	got := el.EncapsulatedValue()
	if got == nil || !got.CompressedFrames || len(got.Fragments) != 2 {
		t.Fatalf("got %+v", got)
	}
	if !bytes.Equal(got.Fragments[0], enc.Fragments[0]) || !bytes.Equal(got.Fragments[1], enc.Fragments[1]) {
		t.Fatalf("fragment mismatch: %+v", got.Fragments)
	}
	if len(got.FrameStarts) != 1 || got.FrameStarts[0] != 0 {
		t.Fatalf("got frame starts %+v", got.FrameStarts)
	}
}

func TestImplicitLEUsesOverrideTableForPixelData(t *testing.T) {
	ds := dataset.NewDataset()
	ds.Put(&dataset.Element{Tag: tag.PixelData, VR: vr.OW, Length: 4, Value: []byte{1, 2, 3, 4}})

	encoded := Serialize(ds, ImplicitLE)
	decoded, _, err := Deserialize(encoded, 0, ImplicitLE, dictionary.Builtin)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	el, ok := decoded.Get(tag.PixelData)
	if !ok || el.VR != vr.OW {
		t.Fatalf("got %+v", el)
	}
}

func TestNewCompressedFramesPixelDataOffsetTable(t *testing.T) {
	frag0 := make([]byte, 10)
	frag1 := make([]byte, 20)
	frag2 := make([]byte, 5)
	enc := NewCompressedFramesPixelData([][]byte{frag0, frag1, frag2}, []int{1, 2})

	if len(enc.FrameStarts) != 2 {
		t.Fatalf("got %d frame starts, want 2", len(enc.FrameStarts))
	}
	if enc.FrameStarts[0] != 0 {
		t.Fatalf("frame 0 starts at %d, want 0", enc.FrameStarts[0])
	}
	wantFrame1 := uint32(8+len(frag0)) + 0
	if enc.FrameStarts[1] != wantFrame1 {
		t.Fatalf("frame 1 starts at %d, want %d", enc.FrameStarts[1], wantFrame1)
	}
}

func TestProfileForUnknownUIDIsEncapsulated(t *testing.T) {
	p := ProfileFor("1.2.840.10008.1.2.4.70") // JPEG Lossless
	if !p.Encapsulated || !p.Explicit {
		t.Fatalf("got %+v", p)
	}
}
