package transfersyntax

import (
	"math"
	"strings"

	"github.com/dicomnet-go/dicomcore/dataset"
	"github.com/dicomnet-go/dicomcore/tag"
	"github.com/dicomnet-go/dicomcore/vr"
)

// Serialize encodes ds under profile p (spec §4.2 "Serialization
// algorithm"): first pass rewrites every SQ/Item's declared length to
// its exact encoded content size (elements already undefined keep that
// sentinel, their children stay self-delimited); second pass drives
// emission off the dataset iterator in tag order.
func Serialize(ds *dataset.Dataset, p Profile) []byte {
	rewriteLengths(ds, p)

	var out []byte
	for _, n := range dataset.Walk(ds) {
		switch n.Kind {
		case dataset.ElementNode:
			out = append(out, encodeElement(n.Element, p)...)
		case dataset.ItemStartNode:
			out = append(out, encodeRawItemHeader(n.Item.Length, p)...)
		case dataset.ItemEndNode:
			if n.Item.Length == dataset.UndefinedLength {
				out = append(out, encodeDelimiter(tag.ItemDelimitationItem, p)...)
			}
		case dataset.SequenceEndNode:
			if n.Sequence.Length == dataset.UndefinedLength {
				out = append(out, encodeDelimiter(tag.SequenceDelimitationItem, p)...)
			}
		}
	}
	return out
}

// rewriteLengths mutates ds bottom-up, setting every SQ element's and
// every item's declared length to the exact size of its contents
// (spec §4.2's first pass). The dataset tree is in-memory and
// self-constructed, so plain recursion is used here — the same
// rationale dataset.appendNodes documents for its own walk, as opposed
// to the explicit-stack enclosure finder used on untrusted wire bytes.
func rewriteLengths(ds *dataset.Dataset, p Profile) {
	if ds == nil {
		return
	}
	for _, el := range ds.Elements() {
		if el.VR != vr.SQ {
			continue
		}
		seq := el.SequenceValue()
		if seq == nil {
			continue
		}
		for _, item := range seq.Items {
			rewriteLengths(item.Dataset, p)
			if item.Length != dataset.UndefinedLength {
				item.Length = contentSize(item.Dataset, p)
			}
		}
		if el.Length != dataset.UndefinedLength {
			el.Length = sequenceContentSize(seq, p)
		}
	}
}

// contentSize returns the exact wire size of ds's elements, summed.
func contentSize(ds *dataset.Dataset, p Profile) uint32 {
	var total uint32
	for _, el := range ds.Elements() {
		total += elementWireSize(el, p)
	}
	return total
}

// sequenceContentSize returns the exact wire size of a defined-length
// sequence's item list (no trailing delimiter — defined-length sequences
// don't carry one).
func sequenceContentSize(seq *dataset.Sequence, p Profile) uint32 {
	var total uint32
	for _, item := range seq.Items {
		total += itemWireSize(item, p)
	}
	return total
}

// itemWireSize returns one item's full encoded size: its header, its
// content, and — if the item itself is undefined-length — its closing
// ItemDelimitationItem.
func itemWireSize(item *dataset.Item, p Profile) uint32 {
	size := uint32(8) // Item tag (4) + always-4-byte length
	if item.Length != dataset.UndefinedLength {
		size += item.Length
	} else {
		size += contentSize(item.Dataset, p) + 8 // + ItemDelimitationItem
	}
	return size
}

// elementWireSize returns the full encoded size an element occupies on
// the wire: its tag/VR/length header plus its value field (recursing
// into nested sequences and encapsulated pixel data).
func elementWireSize(el *dataset.Element, p Profile) uint32 {
	return headerSize(el.VR, p) + valueWireSize(el, p)
}

func headerSize(v vr.VR, p Profile) uint32 {
	if !p.Explicit {
		return 4 + 4 // tag + 4-byte length
	}
	if vr.IsSpecial(v) {
		return 4 + 2 + 2 + 4 // tag + VR + reserved + 4-byte length
	}
	return 4 + 2 + 2 // tag + VR + 2-byte length
}

func valueWireSize(el *dataset.Element, p Profile) uint32 {
	switch {
	case el.VR == vr.SQ:
		seq := el.SequenceValue()
		if seq == nil {
			return 0
		}
		var total uint32
		for _, item := range seq.Items {
			total += itemWireSize(item, p)
		}
		if seq.Undefined {
			total += 8 // SequenceDelimitationItem
		}
		return total

	case el.VR == vr.OB && el.Length == dataset.UndefinedLength:
		return encapsulatedWireSize(el.EncapsulatedValue(), p)

	default:
		return uint32(len(encodeValueBytes(el.VR, el.Value, p)))
	}
}

func encapsulatedWireSize(enc *dataset.Encapsulated, p Profile) uint32 {
	if enc == nil {
		return 8 // empty offset table item only
	}
	var total uint32
	if enc.CompressedFrames {
		total += 8 + uint32(4*len(enc.FrameStarts))
	} else {
		total += 8
	}
	for _, f := range enc.Fragments {
		total += 8 + uint32(len(f))
	}
	total += 8 // SequenceDelimitationItem
	return total
}

// encodeTag appends t's 4-byte wire form.
func encodeTag(t tag.Tag, p Profile) []byte {
	buf := make([]byte, 4)
	p.Endian.PutUint16(buf, t.Group)
	p.Endian.PutUint16(buf[2:], t.Element)
	return buf
}

func encodeLength4(n uint32, p Profile) []byte {
	buf := make([]byte, 4)
	p.Endian.PutUint32(buf, n)
	return buf
}

// encodeRawItemHeader appends an Item tag plus its 4-byte length.
func encodeRawItemHeader(length uint32, p Profile) []byte {
	out := encodeTag(tag.Item, p)
	return append(out, encodeLength4(length, p)...)
}

// encodeItemHeader appends an Item header sized for payload, followed by
// payload itself (used by the encapsulated pixel-data codec).
func encodeItemHeader(payload []byte, p Profile) []byte {
	out := encodeRawItemHeader(uint32(len(payload)), p)
	return append(out, payload...)
}

// encodeDelimiter appends a delimiter tag (ItemDelimitationItem or
// SequenceDelimitationItem) with a zero length field.
func encodeDelimiter(t tag.Tag, p Profile) []byte {
	out := encodeTag(t, p)
	return append(out, encodeLength4(0, p)...)
}

// encodeElement appends el's full tag/VR/length header and value field.
// The length field is derived from the encoded value bytes rather than
// trusted from el.Length, since callers build most elements by hand
// (NewStringElement and friends leave Length at its zero value) - the one
// exception is undefined-length encapsulated OB pixel data, where
// el.Length == dataset.UndefinedLength is itself the signal to encode the
// fragment-sequence form instead of a value length.
func encodeElement(el *dataset.Element, p Profile) []byte {
	var out []byte
	out = append(out, encodeTag(el.Tag, p)...)

	var valueBytes []byte
	undefinedOB := el.VR == vr.OB && el.Length == dataset.UndefinedLength
	if el.VR != vr.SQ && !undefinedOB {
		valueBytes = encodeValueBytes(el.VR, el.Value, p)
	}

	length := el.Length
	if el.VR != vr.SQ && !undefinedOB {
		length = uint32(len(valueBytes))
	}

	if p.Explicit {
		out = append(out, []byte(el.VR)...)
		if vr.IsSpecial(el.VR) {
			out = append(out, 0, 0) // reserved
			out = append(out, encodeLength4(length, p)...)
		} else {
			buf := make([]byte, 2)
			p.Endian.PutUint16(buf, uint16(length))
			out = append(out, buf...)
		}
	} else {
		out = append(out, encodeLength4(length, p)...)
	}

	switch {
	case el.VR == vr.SQ:
		// Value bytes are emitted by the iterator's own ItemStart/End
		// and SequenceEnd node handling in Serialize; nothing more here.
	case undefinedOB:
		out = append(out, encodeEncapsulated(el.EncapsulatedValue(), p)...)
	default:
		out = append(out, valueBytes...)
	}
	return out
}

// encodeValueBytes is the inverse of (*reader).decodeValue: encode a
// VR-typed value and pad to even length with the VR-specific pad byte
// (spec §4.1 "Encoding is the inverse").
func encodeValueBytes(v vr.VR, value interface{}, p Profile) []byte {
	var out []byte
	switch v {
	case vr.FL:
		for _, f := range asFloats(value) {
			b := make([]byte, 4)
			p.Endian.PutUint32(b, math.Float32bits(float32(f)))
			out = append(out, b...)
		}
	case vr.FD:
		for _, f := range asFloats(value) {
			b := make([]byte, 8)
			p.Endian.PutUint64(b, math.Float64bits(f))
			out = append(out, b...)
		}
	case vr.SL:
		for _, i := range asInts(value) {
			b := make([]byte, 4)
			p.Endian.PutUint32(b, uint32(int32(i)))
			out = append(out, b...)
		}
	case vr.UL:
		for _, i := range asInts(value) {
			b := make([]byte, 4)
			p.Endian.PutUint32(b, uint32(i))
			out = append(out, b...)
		}
	case vr.SS:
		for _, i := range asInts(value) {
			b := make([]byte, 2)
			p.Endian.PutUint16(b, uint16(int16(i)))
			out = append(out, b...)
		}
	case vr.US:
		for _, i := range asInts(value) {
			b := make([]byte, 2)
			p.Endian.PutUint16(b, uint16(i))
			out = append(out, b...)
		}
	case vr.AT:
		if tags, ok := value.([]tag.Tag); ok {
			for _, t := range tags {
				out = append(out, encodeTag(t, p)...)
			}
		}
	case vr.OB, vr.OW, vr.OF, vr.UN:
		if b, ok := value.([]byte); ok {
			out = append(out, b...)
		}
	default:
		if s, ok := value.([]string); ok {
			out = append(out, []byte(strings.Join(s, `\`))...)
		}
	}

	if len(out)%2 != 0 {
		out = append(out, vr.PadByte(v))
	}
	return out
}

func asFloats(value interface{}) []float64 {
	v, _ := value.([]float64)
	return v
}

func asInts(value interface{}) []int64 {
	v, _ := value.([]int64)
	return v
}
