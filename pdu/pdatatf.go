package pdu

// Message control header bits for a presentation data value (spec
// §4.3.1): bit 0 distinguishes a command-set fragment from a data-set
// fragment, bit 1 marks the final fragment of the message.
const (
	MessageControlCommand    byte = 0x01
	MessageControlLastFragment byte = 0x02
)

// PresentationDataValueItem is one fragment of one message, tagged with
// the presentation context it belongs to (spec §4.3.1, §4.4).
type PresentationDataValueItem struct {
	PresentationContextID byte
	MessageControlHeader  byte
	Data                  []byte
}

// IsCommand reports whether this fragment carries command-set bytes
// rather than data-set bytes.
func (v *PresentationDataValueItem) IsCommand() bool {
	return v.MessageControlHeader&MessageControlCommand != 0
}

// IsLast reports whether this is the final fragment of its message.
func (v *PresentationDataValueItem) IsLast() bool {
	return v.MessageControlHeader&MessageControlLastFragment != 0
}

func (v *PresentationDataValueItem) write(w *writer) {
	w.uint32(uint32(2 + len(v.Data)))
	w.byte(v.PresentationContextID)
	w.byte(v.MessageControlHeader)
	w.raw(v.Data)
}

func decodePresentationDataValueItem(d *decoder) (*PresentationDataValueItem, error) {
	length, err := d.uint32()
	if err != nil {
		return nil, err
	}
	id, err := d.byte()
	if err != nil {
		return nil, err
	}
	header, err := d.byte()
	if err != nil {
		return nil, err
	}
	data, err := d.bytes(int(length) - 2)
	if err != nil {
		return nil, err
	}
	return &PresentationDataValueItem{PresentationContextID: id, MessageControlHeader: header, Data: data}, nil
}

// PDataTF is a P-DATA-TF PDU: one or more presentation data value items,
// each carrying a fragment of a command set or data set (spec §4.3.1,
// §4.4 "PDV fragmentation/reassembly").
type PDataTF struct {
	Items []*PresentationDataValueItem
}

func (p *PDataTF) Type() Type { return TypePDataTF }

func (p *PDataTF) WritePayload(w *writer) {
	for _, item := range p.Items {
		item.write(w)
	}
}

func decodePDataTF(d *decoder, pduLength uint32) (*PDataTF, error) {
	out := &PDataTF{}
	for d.len() > 0 {
		item, err := decodePresentationDataValueItem(d)
		if err != nil {
			return nil, err
		}
		out.Items = append(out.Items, item)
	}
	if len(out.Items) == 0 {
		return nil, errEmptyPDataTF
	}
	return out, nil
}
