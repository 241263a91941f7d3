package pdu

// Sub-item type codes (PS3.8 Annex D / §9.3).
const (
	itemTypeApplicationContext           byte = 0x10
	itemTypePresentationContextRQ        byte = 0x20
	itemTypePresentationContextAC        byte = 0x21
	itemTypeAbstractSyntax               byte = 0x30
	itemTypeTransferSyntax               byte = 0x40
	itemTypeUserInformation              byte = 0x50
	itemTypeMaximumLength                byte = 0x51
	itemTypeImplementationClassUID       byte = 0x52
	itemTypeAsynchronousOperationsWindow byte = 0x53
	itemTypeImplementationVersionName    byte = 0x55
)

// DICOMApplicationContextName is the one well-known application-context
// UID every association on this stack negotiates (PS3.7 Annex A.2.1).
const DICOMApplicationContextName = "1.2.840.10008.3.1.1.1"

// PresentationResult is the one-byte result code an A-ASSOCIATE-AC's
// presentation context carries (spec §4.3.6).
type PresentationResult byte

const (
	PresentationResultAcceptance              PresentationResult = 0
	PresentationResultUserRejection            PresentationResult = 1
	PresentationResultNoReasonGiven            PresentationResult = 2
	PresentationResultAbstractSyntaxNotSupported PresentationResult = 3
	PresentationResultTransferSyntaxNotSupported PresentationResult = 4
)

// ApplicationContextItem names the negotiated DICOM application context.
type ApplicationContextItem struct {
	Name string
}

func (i *ApplicationContextItem) write(w *writer) {
	w.subItem(itemTypeApplicationContext, []byte(i.Name))
}

func decodeApplicationContextItem(d *decoder, length uint16) (*ApplicationContextItem, error) {
	raw, err := d.bytes(int(length))
	if err != nil {
		return nil, err
	}
	return &ApplicationContextItem{Name: string(raw)}, nil
}

// AbstractSyntaxSubItem names one SOP class under negotiation.
type AbstractSyntaxSubItem struct {
	UID string
}

func (i *AbstractSyntaxSubItem) write(w *writer) {
	w.subItem(itemTypeAbstractSyntax, []byte(i.UID))
}

func decodeAbstractSyntaxSubItem(d *decoder, length uint16) (*AbstractSyntaxSubItem, error) {
	raw, err := d.bytes(int(length))
	if err != nil {
		return nil, err
	}
	return &AbstractSyntaxSubItem{UID: string(raw)}, nil
}

// TransferSyntaxSubItem names one transfer syntax UID offered or
// accepted for a presentation context.
type TransferSyntaxSubItem struct {
	UID string
}

func (i *TransferSyntaxSubItem) write(w *writer) {
	w.subItem(itemTypeTransferSyntax, []byte(i.UID))
}

func decodeTransferSyntaxSubItem(d *decoder, length uint16) (*TransferSyntaxSubItem, error) {
	raw, err := d.bytes(int(length))
	if err != nil {
		return nil, err
	}
	return &TransferSyntaxSubItem{UID: string(raw)}, nil
}

// PresentationContextRQItem is one requested presentation context: an
// odd-numbered id, one abstract syntax, one or more transfer syntaxes.
type PresentationContextRQItem struct {
	ID              byte
	AbstractSyntax  string
	TransferSyntaxes []string
}

func (i *PresentationContextRQItem) write(w *writer) {
	inner := newWriter()
	inner.byte(i.ID)
	inner.zeros(3)
	(&AbstractSyntaxSubItem{UID: i.AbstractSyntax}).write(inner)
	for _, ts := range i.TransferSyntaxes {
		(&TransferSyntaxSubItem{UID: ts}).write(inner)
	}
	w.subItem(itemTypePresentationContextRQ, inner.bytes())
}

func decodePresentationContextRQItem(d *decoder, length uint16) (*PresentationContextRQItem, error) {
	sub, err := d.sub(length)
	if err != nil {
		return nil, err
	}
	id, err := sub.byte()
	if err != nil {
		return nil, err
	}
	if err := sub.skip(3); err != nil {
		return nil, err
	}
	out := &PresentationContextRQItem{ID: id}
	for sub.len() > 0 {
		t, l, err := sub.subItemHeader()
		if err != nil {
			return nil, err
		}
		switch t {
		case itemTypeAbstractSyntax:
			item, err := decodeAbstractSyntaxSubItem(sub, l)
			if err != nil {
				return nil, err
			}
			out.AbstractSyntax = item.UID
		case itemTypeTransferSyntax:
			item, err := decodeTransferSyntaxSubItem(sub, l)
			if err != nil {
				return nil, err
			}
			out.TransferSyntaxes = append(out.TransferSyntaxes, item.UID)
		default:
			if _, err := sub.bytes(int(l)); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// PresentationContextACItem is one accepted (or rejected) presentation
// context: the matching id, the one-byte result, and — only when
// accepted — exactly one transfer syntax.
type PresentationContextACItem struct {
	ID             byte
	Result         PresentationResult
	TransferSyntax string
}

func (i *PresentationContextACItem) write(w *writer) {
	inner := newWriter()
	inner.byte(i.ID)
	inner.byte(byte(i.Result))
	inner.zeros(2)
	ts := i.TransferSyntax
	if ts == "" {
		ts = "1.2.840.10008.1.2" // implicit-LE: a syntactic placeholder on reject
	}
	(&TransferSyntaxSubItem{UID: ts}).write(inner)
	w.subItem(itemTypePresentationContextAC, inner.bytes())
}

func decodePresentationContextACItem(d *decoder, length uint16) (*PresentationContextACItem, error) {
	sub, err := d.sub(length)
	if err != nil {
		return nil, err
	}
	id, err := sub.byte()
	if err != nil {
		return nil, err
	}
	result, err := sub.byte()
	if err != nil {
		return nil, err
	}
	if err := sub.skip(2); err != nil {
		return nil, err
	}
	out := &PresentationContextACItem{ID: id, Result: PresentationResult(result)}
	for sub.len() > 0 {
		t, l, err := sub.subItemHeader()
		if err != nil {
			return nil, err
		}
		if t == itemTypeTransferSyntax {
			item, err := decodeTransferSyntaxSubItem(sub, l)
			if err != nil {
				return nil, err
			}
			out.TransferSyntax = item.UID
		} else if _, err := sub.bytes(int(l)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// MaximumLengthSubItem advertises the sender's maximum PDU length.
type MaximumLengthSubItem struct {
	MaximumLength uint32
}

func (i *MaximumLengthSubItem) write(w *writer) {
	inner := newWriter()
	inner.uint32(i.MaximumLength)
	w.subItem(itemTypeMaximumLength, inner.bytes())
}

func decodeMaximumLengthSubItem(d *decoder, length uint16) (*MaximumLengthSubItem, error) {
	sub, err := d.sub(length)
	if err != nil {
		return nil, err
	}
	v, err := sub.uint32()
	if err != nil {
		return nil, err
	}
	return &MaximumLengthSubItem{MaximumLength: v}, nil
}

// ImplementationClassUIDSubItem identifies the implementation.
type ImplementationClassUIDSubItem struct {
	UID string
}

func (i *ImplementationClassUIDSubItem) write(w *writer) {
	w.subItem(itemTypeImplementationClassUID, []byte(i.UID))
}

func decodeImplementationClassUIDSubItem(d *decoder, length uint16) (*ImplementationClassUIDSubItem, error) {
	raw, err := d.bytes(int(length))
	if err != nil {
		return nil, err
	}
	return &ImplementationClassUIDSubItem{UID: string(raw)}, nil
}

// ImplementationVersionNameSubItem is a free-form implementation version
// string (spec §4.3.6 supplemented feature, grounded on the original's
// upperlayer_properties and the Go reference implementation's sub-item).
type ImplementationVersionNameSubItem struct {
	Name string
}

func (i *ImplementationVersionNameSubItem) write(w *writer) {
	w.subItem(itemTypeImplementationVersionName, []byte(i.Name))
}

func decodeImplementationVersionNameSubItem(d *decoder, length uint16) (*ImplementationVersionNameSubItem, error) {
	raw, err := d.bytes(int(length))
	if err != nil {
		return nil, err
	}
	return &ImplementationVersionNameSubItem{Name: string(raw)}, nil
}

// AsynchronousOperationsWindowSubItem negotiates the max number of
// outstanding operations in each direction (supplemented feature, see
// DESIGN.md).
type AsynchronousOperationsWindowSubItem struct {
	MaxOperationsInvoked  uint16
	MaxOperationsPerformed uint16
}

func (i *AsynchronousOperationsWindowSubItem) write(w *writer) {
	inner := newWriter()
	inner.uint16(i.MaxOperationsInvoked)
	inner.uint16(i.MaxOperationsPerformed)
	w.subItem(itemTypeAsynchronousOperationsWindow, inner.bytes())
}

func decodeAsynchronousOperationsWindowSubItem(d *decoder, length uint16) (*AsynchronousOperationsWindowSubItem, error) {
	sub, err := d.sub(length)
	if err != nil {
		return nil, err
	}
	invoked, err := sub.uint16()
	if err != nil {
		return nil, err
	}
	performed, err := sub.uint16()
	if err != nil {
		return nil, err
	}
	return &AsynchronousOperationsWindowSubItem{MaxOperationsInvoked: invoked, MaxOperationsPerformed: performed}, nil
}

// UserInformationItem wraps the sub-items carried in the User-Information
// item: at minimum MaximumLengthSubItem, optionally the implementation
// identification and async-ops-window sub-items.
type UserInformationItem struct {
	MaximumLength           MaximumLengthSubItem
	ImplementationClassUID  *ImplementationClassUIDSubItem
	ImplementationVersionName *ImplementationVersionNameSubItem
	AsynchronousOperationsWindow *AsynchronousOperationsWindowSubItem
}

func (i *UserInformationItem) write(w *writer) {
	inner := newWriter()
	i.MaximumLength.write(inner)
	if i.ImplementationClassUID != nil {
		i.ImplementationClassUID.write(inner)
	}
	if i.ImplementationVersionName != nil {
		i.ImplementationVersionName.write(inner)
	}
	if i.AsynchronousOperationsWindow != nil {
		i.AsynchronousOperationsWindow.write(inner)
	}
	w.subItem(itemTypeUserInformation, inner.bytes())
}

func decodeUserInformationItem(d *decoder, length uint16) (*UserInformationItem, error) {
	sub, err := d.sub(length)
	if err != nil {
		return nil, err
	}
	out := &UserInformationItem{}
	for sub.len() > 0 {
		t, l, err := sub.subItemHeader()
		if err != nil {
			return nil, err
		}
		switch t {
		case itemTypeMaximumLength:
			v, err := decodeMaximumLengthSubItem(sub, l)
			if err != nil {
				return nil, err
			}
			out.MaximumLength = *v
		case itemTypeImplementationClassUID:
			v, err := decodeImplementationClassUIDSubItem(sub, l)
			if err != nil {
				return nil, err
			}
			out.ImplementationClassUID = v
		case itemTypeImplementationVersionName:
			v, err := decodeImplementationVersionNameSubItem(sub, l)
			if err != nil {
				return nil, err
			}
			out.ImplementationVersionName = v
		case itemTypeAsynchronousOperationsWindow:
			v, err := decodeAsynchronousOperationsWindowSubItem(sub, l)
			if err != nil {
				return nil, err
			}
			out.AsynchronousOperationsWindow = v
		default:
			if _, err := sub.bytes(int(l)); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}
