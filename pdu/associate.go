package pdu

import derrors "github.com/dicomnet-go/dicomcore/errors"

const (
	protocolVersion = uint16(1)
	aeTitleLength   = 16
)

// AssociateRQ is an A-ASSOCIATE-RQ PDU: a request to open an association,
// naming the calling and called AE titles and offering one application
// context, one or more presentation contexts, and user information
// (spec §4.3.1, §6).
type AssociateRQ struct {
	CalledAETitle       string
	CallingAETitle      string
	ApplicationContext  ApplicationContextItem
	PresentationContexts []*PresentationContextRQItem
	UserInformation     UserInformationItem
}

func (p *AssociateRQ) Type() Type { return TypeAssociateRQ }

func (p *AssociateRQ) WritePayload(w *writer) {
	w.uint16(protocolVersion)
	w.zeros(2)
	w.fixedString(p.CalledAETitle, aeTitleLength)
	w.fixedString(p.CallingAETitle, aeTitleLength)
	w.zeros(32)
	p.ApplicationContext.write(w)
	for _, pc := range p.PresentationContexts {
		pc.write(w)
	}
	p.UserInformation.write(w)
}

func decodeAssociateRQ(d *decoder) (*AssociateRQ, error) {
	if _, err := d.uint16(); err != nil {
		return nil, err
	}
	if err := d.skip(2); err != nil {
		return nil, err
	}
	called, err := d.fixedString(aeTitleLength)
	if err != nil {
		return nil, err
	}
	calling, err := d.fixedString(aeTitleLength)
	if err != nil {
		return nil, err
	}
	if err := d.skip(32); err != nil {
		return nil, err
	}

	out := &AssociateRQ{CalledAETitle: called, CallingAETitle: calling}
	for d.len() > 0 {
		t, l, err := d.subItemHeader()
		if err != nil {
			return nil, err
		}
		switch t {
		case itemTypeApplicationContext:
			item, err := decodeApplicationContextItem(d, l)
			if err != nil {
				return nil, err
			}
			out.ApplicationContext = *item
		case itemTypePresentationContextRQ:
			item, err := decodePresentationContextRQItem(d, l)
			if err != nil {
				return nil, err
			}
			out.PresentationContexts = append(out.PresentationContexts, item)
		case itemTypeUserInformation:
			item, err := decodeUserInformationItem(d, l)
			if err != nil {
				return nil, err
			}
			out.UserInformation = *item
		default:
			if _, err := d.bytes(int(l)); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// AssociateAC is an A-ASSOCIATE-AC PDU: the peer's response accepting the
// association (individual presentation contexts may still be rejected via
// their own result code; spec §4.3.6 supplemented feature).
type AssociateAC struct {
	CalledAETitle       string
	CallingAETitle      string
	ApplicationContext  ApplicationContextItem
	PresentationContexts []*PresentationContextACItem
	UserInformation     UserInformationItem
}

func (p *AssociateAC) Type() Type { return TypeAssociateAC }

func (p *AssociateAC) WritePayload(w *writer) {
	w.uint16(protocolVersion)
	w.zeros(2)
	w.fixedString(p.CalledAETitle, aeTitleLength)
	w.fixedString(p.CallingAETitle, aeTitleLength)
	w.zeros(32)
	p.ApplicationContext.write(w)
	for _, pc := range p.PresentationContexts {
		pc.write(w)
	}
	p.UserInformation.write(w)
}

func decodeAssociateAC(d *decoder) (*AssociateAC, error) {
	if _, err := d.uint16(); err != nil {
		return nil, err
	}
	if err := d.skip(2); err != nil {
		return nil, err
	}
	called, err := d.fixedString(aeTitleLength)
	if err != nil {
		return nil, err
	}
	calling, err := d.fixedString(aeTitleLength)
	if err != nil {
		return nil, err
	}
	if err := d.skip(32); err != nil {
		return nil, err
	}

	out := &AssociateAC{CalledAETitle: called, CallingAETitle: calling}
	for d.len() > 0 {
		t, l, err := d.subItemHeader()
		if err != nil {
			return nil, err
		}
		switch t {
		case itemTypeApplicationContext:
			item, err := decodeApplicationContextItem(d, l)
			if err != nil {
				return nil, err
			}
			out.ApplicationContext = *item
		case itemTypePresentationContextAC:
			item, err := decodePresentationContextACItem(d, l)
			if err != nil {
				return nil, err
			}
			out.PresentationContexts = append(out.PresentationContexts, item)
		case itemTypeUserInformation:
			item, err := decodeUserInformationItem(d, l)
			if err != nil {
				return nil, err
			}
			out.UserInformation = *item
		default:
			if _, err := d.bytes(int(l)); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// RejectResult distinguishes a permanent rejection from one the requestor
// may retry (PS3.8 §9.3.4).
type RejectResult byte

const (
	RejectResultPermanent RejectResult = 1
	RejectResultTransient RejectResult = 2
)

// RejectSource names which actor produced the A-ASSOCIATE-RJ.
type RejectSource byte

const (
	RejectSourceServiceUser               RejectSource = 1
	RejectSourceServiceProviderACSE       RejectSource = 2
	RejectSourceServiceProviderPresentation RejectSource = 3
)

// AssociateRJ is an A-ASSOCIATE-RJ PDU: the peer refuses the association
// outright, with a source/reason pair (spec §4.3.1).
type AssociateRJ struct {
	Result RejectResult
	Source RejectSource
	Reason byte
}

func (p *AssociateRJ) Type() Type { return TypeAssociateRJ }

func (p *AssociateRJ) WritePayload(w *writer) {
	w.zeros(1)
	w.byte(byte(p.Result))
	w.byte(byte(p.Source))
	w.byte(p.Reason)
}

func decodeAssociateRJ(d *decoder) (*AssociateRJ, error) {
	if err := d.skip(1); err != nil {
		return nil, err
	}
	result, err := d.byte()
	if err != nil {
		return nil, err
	}
	source, err := d.byte()
	if err != nil {
		return nil, err
	}
	reason, err := d.byte()
	if err != nil {
		return nil, err
	}
	return &AssociateRJ{Result: RejectResult(result), Source: RejectSource(source), Reason: reason}, nil
}

// ReleaseRQ is an A-RELEASE-RQ PDU: fixed four reserved bytes, no payload
// of its own.
type ReleaseRQ struct{}

func (p *ReleaseRQ) Type() Type { return TypeReleaseRQ }

func (p *ReleaseRQ) WritePayload(w *writer) { w.zeros(4) }

func decodeReleaseRQ(d *decoder) (*ReleaseRQ, error) {
	if err := d.skip(4); err != nil {
		return nil, err
	}
	return &ReleaseRQ{}, nil
}

// ReleaseRP is an A-RELEASE-RP PDU, the peer's acknowledgement closing an
// association cleanly.
type ReleaseRP struct{}

func (p *ReleaseRP) Type() Type { return TypeReleaseRP }

func (p *ReleaseRP) WritePayload(w *writer) { w.zeros(4) }

func decodeReleaseRP(d *decoder) (*ReleaseRP, error) {
	if err := d.skip(4); err != nil {
		return nil, err
	}
	return &ReleaseRP{}, nil
}

// AbortSource names whether the service user or provider initiated the
// abort.
type AbortSource byte

const (
	AbortSourceServiceUser     AbortSource = 0
	AbortSourceServiceProvider AbortSource = 2
)

// AbortReason enumerates the provider-initiated abort reasons (spec
// §4.3.1); it is meaningless when Source is AbortSourceServiceUser.
type AbortReason byte

const (
	AbortReasonNotSpecified              AbortReason = 0
	AbortReasonUnrecognizedPDU           AbortReason = 1
	AbortReasonUnexpectedPDU             AbortReason = 2
	AbortReasonUnrecognizedPDUParameter  AbortReason = 4
	AbortReasonUnexpectedPDUParameter    AbortReason = 5
	AbortReasonInvalidPDUParameterValue  AbortReason = 6
)

// Abort is an A-ABORT PDU.
type Abort struct {
	Source AbortSource
	Reason AbortReason
}

func (p *Abort) Type() Type { return TypeAbort }

func (p *Abort) WritePayload(w *writer) {
	w.zeros(2)
	w.byte(byte(p.Source))
	w.byte(byte(p.Reason))
}

func decodeAbort(d *decoder) (*Abort, error) {
	if err := d.skip(2); err != nil {
		return nil, err
	}
	source, err := d.byte()
	if err != nil {
		return nil, err
	}
	reason, err := d.byte()
	if err != nil {
		return nil, err
	}
	return &Abort{Source: AbortSource(source), Reason: AbortReason(reason)}, nil
}

var errEmptyPDataTF = derrors.NewMalformedStreamError(0, "P-DATA-TF carries no presentation data value items")
