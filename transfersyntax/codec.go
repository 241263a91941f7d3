package transfersyntax

import (
	"encoding/binary"
	"math"
	"strings"

	"github.com/dicomnet-go/dicomcore/dictionary"
	derrors "github.com/dicomnet-go/dicomcore/errors"
	"github.com/dicomnet-go/dicomcore/tag"
	"github.com/dicomnet-go/dicomcore/vr"
)

// reader is the primitive field decoder (Component A, spec §4.1): given a
// byte slice and a profile, decode tags, VRs, lengths and VR-typed values.
// It never allocates beyond a declared length and never reads past buf.
type reader struct {
	buf     []byte
	off     int
	profile Profile
}

func newReader(buf []byte, off int, p Profile) *reader {
	return &reader{buf: buf, off: off, profile: p}
}

func (r *reader) remaining() int { return len(r.buf) - r.off }

func (r *reader) require(n int) error {
	if n < 0 || r.remaining() < n {
		return derrors.NewMalformedStreamError(r.off, "declared length exceeds remaining buffer")
	}
	return nil
}

// decodeTag reads the 4-byte group/element pair (spec §4.1 "Tag encoding").
func (r *reader) decodeTag() (tag.Tag, error) {
	if err := r.require(4); err != nil {
		return tag.Tag{}, err
	}
	group := r.profile.Endian.Uint16(r.buf[r.off:])
	elem := r.profile.Endian.Uint16(r.buf[r.off+2:])
	r.off += 4
	return tag.Tag{Group: group, Element: elem}, nil
}

// decodeVRAndLength reads the VR code (explicit only) and the length
// field, honoring the regular/special 2-byte-vs-4-byte split and the two
// reserved bytes special VRs carry (spec §4.1 "Length encoding"). For
// implicit encoding, resolvedVR must already be known (via override table
// or dictionary) and only the 4-byte length is read.
func (r *reader) decodeVRAndLength(resolvedVR vr.VR) (vr.VR, uint32, error) {
	if !r.profile.Explicit {
		if err := r.require(4); err != nil {
			return resolvedVR, 0, err
		}
		length := r.profile.Endian.Uint32(r.buf[r.off:])
		r.off += 4
		return resolvedVR, length, nil
	}

	if err := r.require(2); err != nil {
		return "", 0, err
	}
	code := vr.VR(r.buf[r.off : r.off+2])
	r.off += 2

	if vr.IsSpecial(code) {
		if err := r.require(6); err != nil {
			return code, 0, err
		}
		r.off += 2 // reserved
		length := r.profile.Endian.Uint32(r.buf[r.off:])
		r.off += 4
		return code, length, nil
	}

	if err := r.require(2); err != nil {
		return code, 0, err
	}
	length := uint32(r.profile.Endian.Uint16(r.buf[r.off:]))
	r.off += 2
	return code, length, nil
}

// decodeItemHeader reads an Item/ItemDelimitationItem/SequenceDelimitationItem
// header: tag plus an always-4-byte length (spec §4.1: "for the synthetic
// Item tag, length is always four bytes").
func (r *reader) decodeItemHeader() (uint32, error) {
	if err := r.require(4); err != nil {
		return 0, err
	}
	length := r.profile.Endian.Uint32(r.buf[r.off:])
	r.off += 4
	return length, nil
}

// decodeValue reads value_len bytes and decodes them per v, per spec
// §4.1 "Value decoding by VR". SQ is not handled here; callers that reach
// an SQ element route through the deserialization algorithm instead.
func (r *reader) decodeValue(v vr.VR, length uint32) (interface{}, error) {
	if err := r.require(int(length)); err != nil {
		return nil, err
	}
	raw := r.buf[r.off : r.off+int(length)]
	r.off += int(length)

	switch v {
	case vr.FL:
		return decodeFloats(raw, r.profile.Endian, 4), nil
	case vr.FD:
		return decodeFloats(raw, r.profile.Endian, 8), nil
	case vr.SL, vr.SS, vr.UL, vr.US:
		return decodeInts(raw, r.profile.Endian, v), nil
	case vr.AT:
		return decodeTags(raw, r.profile.Endian), nil
	case vr.OB, vr.OW, vr.OF, vr.UN:
		out := make([]byte, len(raw))
		copy(out, raw)
		return out, nil
	default:
		pad := vr.PadByte(v)
		s := strings.TrimRight(string(raw), string(pad)+" ")
		return strings.Split(s, `\`), nil
	}
}

func decodeFloats(raw []byte, order binary.ByteOrder, width int) []float64 {
	n := len(raw) / width
	out := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		off := i * width
		if width == 4 {
			out = append(out, float64(decodeFloat32(raw[off:off+4], order)))
		} else {
			out = append(out, decodeFloat64(raw[off:off+8], order))
		}
	}
	return out
}

func decodeFloat32(raw []byte, order binary.ByteOrder) float32 {
	return math.Float32frombits(order.Uint32(raw))
}

func decodeFloat64(raw []byte, order binary.ByteOrder) float64 {
	return math.Float64frombits(order.Uint64(raw))
}

func decodeInts(raw []byte, order binary.ByteOrder, v vr.VR) []int64 {
	width := 4
	if v == vr.SS || v == vr.US {
		width = 2
	}
	n := len(raw) / width
	out := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		off := i * width
		switch v {
		case vr.SL:
			out = append(out, int64(int32(order.Uint32(raw[off:off+4]))))
		case vr.UL:
			out = append(out, int64(order.Uint32(raw[off:off+4])))
		case vr.SS:
			out = append(out, int64(int16(order.Uint16(raw[off:off+2]))))
		case vr.US:
			out = append(out, int64(order.Uint16(raw[off:off+2])))
		}
	}
	return out
}

func decodeTags(raw []byte, order binary.ByteOrder) []tag.Tag {
	n := len(raw) / 4
	out := make([]tag.Tag, 0, n)
	for i := 0; i < n; i++ {
		off := i * 4
		out = append(out, tag.Tag{
			Group:   order.Uint16(raw[off:]),
			Element: order.Uint16(raw[off+2:]),
		})
	}
	return out
}

// resolveVR determines an element's VR under the active profile: explicit
// syntaxes carry the VR on the wire; implicit syntaxes consult the
// override table first, then the dictionary (spec §4.2 "the override
// table is consulted before the dictionary").
func resolveVR(t tag.Tag, explicitVR vr.VR, p Profile, dict dictionary.Dictionary) vr.VR {
	if p.Explicit {
		return explicitVR
	}
	if v, ok := overrideVR(t); ok {
		return v
	}
	return dict.Lookup(t).VR()
}
