package transfersyntax

import (
	"github.com/dicomnet-go/dicomcore/dataset"
	derrors "github.com/dicomnet-go/dicomcore/errors"
	"github.com/dicomnet-go/dicomcore/tag"
)

// decodeEncapsulated decodes an encapsulated pixel-data value starting
// at off, which must point immediately after the owning element's
// tag/VR/(reserved)/length header (spec §4.2 "Encapsulated pixel data").
// It returns the decoded container and the number of bytes consumed,
// including the closing SequenceDelimitationItem.
func decodeEncapsulated(buf []byte, off int, p Profile) (*dataset.Encapsulated, int, error) {
	r := newReader(buf, off, p)

	t, err := r.decodeTag()
	if err != nil {
		return nil, 0, err
	}
	if t != tag.Item {
		return nil, 0, derrors.NewMalformedStreamError(off, "expected basic offset table item")
	}
	tableLen, err := r.decodeItemHeader()
	if err != nil {
		return nil, 0, err
	}
	if err := r.require(int(tableLen)); err != nil {
		return nil, 0, err
	}
	offsetTableRaw := r.buf[r.off : r.off+int(tableLen)]
	r.off += int(tableLen)

	enc := &dataset.Encapsulated{CompressedFrames: tableLen > 0}
	if enc.CompressedFrames {
		n := len(offsetTableRaw) / 4
		enc.FrameStarts = make([]uint32, 0, n)
		for i := 0; i < n; i++ {
			enc.FrameStarts = append(enc.FrameStarts, p.Endian.Uint32(offsetTableRaw[i*4:]))
		}
	}

	for {
		t, err := r.decodeTag()
		if err != nil {
			return nil, 0, err
		}
		if t == tag.SequenceDelimitationItem {
			if _, err := r.decodeItemHeader(); err != nil {
				return nil, 0, err
			}
			break
		}
		if t != tag.Item {
			return nil, 0, derrors.NewMalformedStreamError(r.off, "expected fragment item or SequenceDelimitationItem")
		}
		length, err := r.decodeItemHeader()
		if err != nil {
			return nil, 0, err
		}
		if err := r.require(int(length)); err != nil {
			return nil, 0, err
		}
		frag := make([]byte, length)
		copy(frag, r.buf[r.off:r.off+int(length)])
		r.off += int(length)
		enc.Fragments = append(enc.Fragments, frag)
	}

	return enc, r.off - off, nil
}

// encodeEncapsulated serializes enc's offset table and fragments, always
// terminated by a SequenceDelimitationItem (spec §4.2 "Encode: invert").
func encodeEncapsulated(enc *dataset.Encapsulated, p Profile) []byte {
	var out []byte

	if enc.CompressedFrames {
		table := make([]byte, 4*len(enc.FrameStarts))
		for i, v := range enc.FrameStarts {
			p.Endian.PutUint32(table[i*4:], v)
		}
		out = append(out, encodeItemHeader(table, p)...)
	} else {
		out = append(out, encodeItemHeader(nil, p)...)
	}

	for _, frag := range enc.Fragments {
		out = append(out, encodeItemHeader(frag, p)...)
	}

	out = append(out, encodeDelimiter(tag.SequenceDelimitationItem, p)...)
	return out
}

// computeFrameStarts derives the basic offset table from fragment sizes
// for compressed-frames mode, where frameFragmentCounts[i] is how many
// consecutive fragments belong to frame i (spec: "compute the offset
// table from accumulated item sizes").
func computeFrameStarts(fragments [][]byte, frameFragmentCounts []int) []uint32 {
	starts := make([]uint32, 0, len(frameFragmentCounts))
	var offset uint32
	fragIdx := 0
	for _, count := range frameFragmentCounts {
		starts = append(starts, offset)
		for i := 0; i < count; i++ {
			offset += 8 + uint32(len(fragments[fragIdx])) // item tag+length header + payload
			fragIdx++
		}
	}
	return starts
}

// NewCompressedFramesPixelData builds a compressed-frames encapsulated
// container from a flat fragment list plus how many fragments belong to
// each frame, computing the basic offset table automatically (spec §4.2
// "Encode: ... compute the offset table from accumulated item sizes").
func NewCompressedFramesPixelData(fragments [][]byte, fragmentsPerFrame []int) *dataset.Encapsulated {
	return &dataset.Encapsulated{
		CompressedFrames: true,
		FrameStarts:      computeFrameStarts(fragments, fragmentsPerFrame),
		Fragments:        fragments,
	}
}

// NewFragmentsOnlyPixelData builds a fragments-only encapsulated
// container (empty basic offset table).
func NewFragmentsOnlyPixelData(fragments [][]byte) *dataset.Encapsulated {
	return &dataset.Encapsulated{Fragments: fragments}
}
