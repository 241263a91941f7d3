// Package pdu implements the DICOM Upper Layer PDU wire format (spec
// §4.3.1, §4.3.6, §6): the seven PDU types as a tagged-variant sum type,
// their sub-items, and big-endian encode/decode. PDU framing is always
// big-endian regardless of the negotiated transfer syntax used later for
// datasets (PS3.8 §9.3).
package pdu

import (
	"encoding/binary"
	"fmt"
	"io"

	derrors "github.com/dicomnet-go/dicomcore/errors"
)

// Type is the one-byte PDU type field of the common six-byte header.
type Type byte

const (
	TypeAssociateRQ Type = 0x01
	TypeAssociateAC Type = 0x02
	TypeAssociateRJ Type = 0x03
	TypePDataTF     Type = 0x04
	TypeReleaseRQ   Type = 0x05
	TypeReleaseRP   Type = 0x06
	TypeAbort       Type = 0x07
)

func (t Type) String() string {
	switch t {
	case TypeAssociateRQ:
		return "A-ASSOCIATE-RQ"
	case TypeAssociateAC:
		return "A-ASSOCIATE-AC"
	case TypeAssociateRJ:
		return "A-ASSOCIATE-RJ"
	case TypePDataTF:
		return "P-DATA-TF"
	case TypeReleaseRQ:
		return "A-RELEASE-RQ"
	case TypeReleaseRP:
		return "A-RELEASE-RP"
	case TypeAbort:
		return "A-ABORT"
	default:
		return fmt.Sprintf("unknown(0x%02x)", byte(t))
	}
}

// PDU is any of the seven wire message types. WritePayload encodes
// everything after the common six-byte header, which Encode prepends.
type PDU interface {
	Type() Type
	WritePayload(w *writer)
}

// Encode serializes any PDU, including its common header.
func Encode(p PDU) []byte {
	w := newWriter()
	p.WritePayload(w)
	payload := w.bytes()

	out := make([]byte, 6+len(payload))
	out[0] = byte(p.Type())
	out[1] = 0 // reserved
	binary.BigEndian.PutUint32(out[2:6], uint32(len(payload)))
	copy(out[6:], payload)
	return out
}

// Decode reads one PDU (header plus payload) from r.
func Decode(r io.Reader) (PDU, error) {
	var hdr [6]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, derrors.NewNetworkError("read PDU header", err)
	}
	t := Type(hdr[0])
	length := binary.BigEndian.Uint32(hdr[2:6])

	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, derrors.NewNetworkError("read PDU payload", err)
		}
	}

	d := newDecoder(payload)
	var result PDU
	var err error
	switch t {
	case TypeAssociateRQ:
		result, err = decodeAssociateRQ(d)
	case TypeAssociateAC:
		result, err = decodeAssociateAC(d)
	case TypeAssociateRJ:
		result, err = decodeAssociateRJ(d)
	case TypePDataTF:
		result, err = decodePDataTF(d, length)
	case TypeReleaseRQ:
		result, err = decodeReleaseRQ(d)
	case TypeReleaseRP:
		result, err = decodeReleaseRP(d)
	case TypeAbort:
		result, err = decodeAbort(d)
	default:
		return nil, derrors.NewPDUError(hdr[0], "unrecognized PDU type")
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}
