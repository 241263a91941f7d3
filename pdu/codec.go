package pdu

import (
	"encoding/binary"
	"strings"

	derrors "github.com/dicomnet-go/dicomcore/errors"
)

// writer accumulates a PDU or sub-item payload in big-endian order.
type writer struct {
	buf []byte
}

func newWriter() *writer { return &writer{} }

func (w *writer) bytes() []byte { return w.buf }

func (w *writer) byte(b byte) { w.buf = append(w.buf, b) }

func (w *writer) zeros(n int) {
	for i := 0; i < n; i++ {
		w.buf = append(w.buf, 0)
	}
}

func (w *writer) uint16(v uint16) {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, v)
	w.buf = append(w.buf, b...)
}

func (w *writer) uint32(v uint32) {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	w.buf = append(w.buf, b...)
}

func (w *writer) raw(b []byte) { w.buf = append(w.buf, b...) }

// fixedString writes s padded (or truncated) to exactly n bytes with
// trailing spaces, as §4.3.6 requires for AE titles.
func (w *writer) fixedString(s string, n int) {
	if len(s) > n {
		s = s[:n]
	}
	b := make([]byte, n)
	copy(b, s)
	for i := len(s); i < n; i++ {
		b[i] = ' '
	}
	w.buf = append(w.buf, b...)
}

// subItem writes a sub-item header (type, reserved, 2-byte length)
// followed by its payload.
func (w *writer) subItem(itemType byte, payload []byte) {
	w.byte(itemType)
	w.zeros(1)
	w.uint16(uint16(len(payload)))
	w.raw(payload)
}

// decoder reads fields sequentially from a fixed byte slice.
type decoder struct {
	buf []byte
	off int
}

func newDecoder(buf []byte) *decoder { return &decoder{buf: buf} }

func (d *decoder) len() int { return len(d.buf) - d.off }

func (d *decoder) require(n int) error {
	if d.len() < n {
		return derrors.NewMalformedStreamError(d.off, "PDU truncated")
	}
	return nil
}

func (d *decoder) byte() (byte, error) {
	if err := d.require(1); err != nil {
		return 0, err
	}
	b := d.buf[d.off]
	d.off++
	return b, nil
}

func (d *decoder) skip(n int) error {
	if err := d.require(n); err != nil {
		return err
	}
	d.off += n
	return nil
}

func (d *decoder) uint16() (uint16, error) {
	if err := d.require(2); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(d.buf[d.off:])
	d.off += 2
	return v, nil
}

func (d *decoder) uint32() (uint32, error) {
	if err := d.require(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(d.buf[d.off:])
	d.off += 4
	return v, nil
}

func (d *decoder) bytes(n int) ([]byte, error) {
	if err := d.require(n); err != nil {
		return nil, err
	}
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b, nil
}

func (d *decoder) fixedString(n int) (string, error) {
	b, err := d.bytes(n)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(b), " \x00"), nil
}

// subItemHeader reads a sub-item's type and 2-byte length, skipping the
// one reserved byte.
func (d *decoder) subItemHeader() (byte, uint16, error) {
	t, err := d.byte()
	if err != nil {
		return 0, 0, err
	}
	if err := d.skip(1); err != nil {
		return 0, 0, err
	}
	length, err := d.uint16()
	if err != nil {
		return 0, 0, err
	}
	return t, length, nil
}

// sub returns a bounded decoder over the next length bytes, for
// recursing into one sub-item's own payload.
func (d *decoder) sub(length uint16) (*decoder, error) {
	b, err := d.bytes(int(length))
	if err != nil {
		return nil, err
	}
	return newDecoder(b), nil
}
