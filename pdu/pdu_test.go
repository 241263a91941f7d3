package pdu

import (
	"bytes"
	"testing"
)

func TestAssociateRQRoundTrip(t *testing.T) {
	rq := &AssociateRQ{
		CalledAETitle:  "STORESCP",
		CallingAETitle: "STORESCU",
		ApplicationContext: ApplicationContextItem{Name: DICOMApplicationContextName},
		PresentationContexts: []*PresentationContextRQItem{
			{
				ID:                1,
				AbstractSyntax:    "1.2.840.10008.5.1.4.1.1.7",
				TransferSyntaxes:  []string{"1.2.840.10008.1.2", "1.2.840.10008.1.2.1"},
			},
		},
		UserInformation: UserInformationItem{
			MaximumLength:          MaximumLengthSubItem{MaximumLength: 16384},
			ImplementationClassUID: &ImplementationClassUIDSubItem{UID: "1.2.3.4"},
		},
	}

	encoded := Encode(rq)
	if Type(encoded[0]) != TypeAssociateRQ {
		t.Fatalf("got type 0x%02x", encoded[0])
	}

	decoded, err := Decode(bytes.NewReader(encoded))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	got, ok := decoded.(*AssociateRQ)
	if !ok {
		t.Fatalf("got %T", decoded)
	}
	if got.CalledAETitle != "STORESCP" || got.CallingAETitle != "STORESCU" {
		t.Fatalf("got AE titles %q/%q", got.CalledAETitle, got.CallingAETitle)
	}
	if got.ApplicationContext.Name != DICOMApplicationContextName {
		t.Fatalf("got application context %q", got.ApplicationContext.Name)
	}
	if len(got.PresentationContexts) != 1 {
		t.Fatalf("got %d presentation contexts", len(got.PresentationContexts))
	}
	pc := got.PresentationContexts[0]
	if pc.ID != 1 || pc.AbstractSyntax != rq.PresentationContexts[0].AbstractSyntax {
		t.Fatalf("got %+v", pc)
	}
	if len(pc.TransferSyntaxes) != 2 {
		t.Fatalf("got transfer syntaxes %v", pc.TransferSyntaxes)
	}
	if got.UserInformation.MaximumLength.MaximumLength != 16384 {
		t.Fatalf("got max length %d", got.UserInformation.MaximumLength.MaximumLength)
	}
	if got.UserInformation.ImplementationClassUID == nil || got.UserInformation.ImplementationClassUID.UID != "1.2.3.4" {
		t.Fatalf("got implementation class uid %+v", got.UserInformation.ImplementationClassUID)
	}
}

func TestAssociateACRoundTrip(t *testing.T) {
	ac := &AssociateAC{
		CalledAETitle:  "STORESCP",
		CallingAETitle: "STORESCU",
		ApplicationContext: ApplicationContextItem{Name: DICOMApplicationContextName},
		PresentationContexts: []*PresentationContextACItem{
			{ID: 1, Result: PresentationResultAcceptance, TransferSyntax: "1.2.840.10008.1.2"},
			{ID: 3, Result: PresentationResultTransferSyntaxNotSupported},
		},
		UserInformation: UserInformationItem{MaximumLength: MaximumLengthSubItem{MaximumLength: 16384}},
	}

	encoded := Encode(ac)
	decoded, err := Decode(bytes.NewReader(encoded))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	got, ok := decoded.(*AssociateAC)
	if !ok {
		t.Fatalf("got %T", decoded)
	}
	if len(got.PresentationContexts) != 2 {
		t.Fatalf("got %d presentation contexts", len(got.PresentationContexts))
	}
	if got.PresentationContexts[0].Result != PresentationResultAcceptance {
		t.Fatalf("got result %v", got.PresentationContexts[0].Result)
	}
	if got.PresentationContexts[1].Result != PresentationResultTransferSyntaxNotSupported {
		t.Fatalf("got result %v", got.PresentationContexts[1].Result)
	}
}

func TestAssociateRJRoundTrip(t *testing.T) {
	rj := &AssociateRJ{Result: RejectResultPermanent, Source: RejectSourceServiceUser, Reason: 1}
	decoded, err := Decode(bytes.NewReader(Encode(rj)))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	got, ok := decoded.(*AssociateRJ)
	if !ok {
		t.Fatalf("got %T", decoded)
	}
	if got.Result != RejectResultPermanent || got.Source != RejectSourceServiceUser || got.Reason != 1 {
		t.Fatalf("got %+v", got)
	}
}

func TestPDataTFRoundTrip(t *testing.T) {
	pdata := &PDataTF{Items: []*PresentationDataValueItem{
		{PresentationContextID: 1, MessageControlHeader: MessageControlCommand | MessageControlLastFragment, Data: []byte{1, 2, 3}},
		{PresentationContextID: 1, MessageControlHeader: 0, Data: []byte{4, 5}},
	}}
	decoded, err := Decode(bytes.NewReader(Encode(pdata)))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	got, ok := decoded.(*PDataTF)
	if !ok {
		t.Fatalf("got %T", decoded)
	}
	if len(got.Items) != 2 {
		t.Fatalf("got %d items", len(got.Items))
	}
	if !got.Items[0].IsCommand() || !got.Items[0].IsLast() {
		t.Fatalf("got item0 header %x", got.Items[0].MessageControlHeader)
	}
	if got.Items[1].IsCommand() || got.Items[1].IsLast() {
		t.Fatalf("got item1 header %x", got.Items[1].MessageControlHeader)
	}
	if !bytes.Equal(got.Items[1].Data, []byte{4, 5}) {
		t.Fatalf("got item1 data %v", got.Items[1].Data)
	}
}

func TestReleaseAndAbortRoundTrip(t *testing.T) {
	if d, err := Decode(bytes.NewReader(Encode(&ReleaseRQ{}))); err != nil || d.Type() != TypeReleaseRQ {
		t.Fatalf("ReleaseRQ: %v %v", d, err)
	}
	if d, err := Decode(bytes.NewReader(Encode(&ReleaseRP{}))); err != nil || d.Type() != TypeReleaseRP {
		t.Fatalf("ReleaseRP: %v %v", d, err)
	}

	ab := &Abort{Source: AbortSourceServiceProvider, Reason: AbortReasonUnexpectedPDU}
	decoded, err := Decode(bytes.NewReader(Encode(ab)))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	got, ok := decoded.(*Abort)
	if !ok {
		t.Fatalf("got %T", decoded)
	}
	if got.Source != AbortSourceServiceProvider || got.Reason != AbortReasonUnexpectedPDU {
		t.Fatalf("got %+v", got)
	}
}

func TestDecodeUnrecognizedType(t *testing.T) {
	buf := []byte{0xFF, 0x00, 0x00, 0x00, 0x00, 0x00}
	if _, err := Decode(bytes.NewReader(buf)); err == nil {
		t.Fatalf("expected error for unrecognized PDU type")
	}
}
