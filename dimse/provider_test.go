package dimse

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/dicomnet-go/dicomcore/pdu"
	"github.com/dicomnet-go/dicomcore/transfersyntax"
	"github.com/dicomnet-go/dicomcore/upperlayer"
)

func TestEchoRoundTripOverPipe(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	serverRegistry := NewRegistry()
	RegisterEcho(serverRegistry)
	serverProvider := NewProvider(serverRegistry, nil)
	serverAssoc := upperlayer.NewServerAssociation(serverConn, upperlayer.Config{
		CalledAETitle: "SERVER", ARTIMTimeout: 2 * time.Second,
	}, serverProvider)
	serverProvider.Bind(serverAssoc)

	clientProvider := NewProvider(NewRegistry(), nil)
	clientAssoc := upperlayer.NewClientAssociation(clientConn, upperlayer.Config{
		CallingAETitle: "CLIENT", ARTIMTimeout: 2 * time.Second,
	}, clientProvider)
	clientProvider.Bind(clientAssoc)

	go serverAssoc.Run()
	go clientAssoc.Run()

	const contextID = 1
	clientAssoc.RequestAssociation(&pdu.AssociateRQ{
		CalledAETitle:      "SERVER",
		CallingAETitle:     "CLIENT",
		ApplicationContext: pdu.ApplicationContextItem{Name: pdu.DICOMApplicationContextName},
		PresentationContexts: []*pdu.PresentationContextRQItem{
			{ID: contextID, AbstractSyntax: VerificationSOPClassUID, TransferSyntaxes: []string{transfersyntax.UIDImplicitVRLittleEndian}},
		},
		UserInformation: pdu.UserInformationItem{MaximumLength: pdu.MaximumLengthSubItem{MaximumLength: 16384}},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := Echo(ctx, clientProvider, contextID); err != nil {
		t.Fatalf("Echo: %v", err)
	}
}

func TestEchoRejectsUnsupportedAbstractSyntax(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	serverProvider := NewProvider(NewRegistry(), nil) // no handlers registered
	serverAssoc := upperlayer.NewServerAssociation(serverConn, upperlayer.Config{ARTIMTimeout: 2 * time.Second}, serverProvider)
	serverProvider.Bind(serverAssoc)

	clientProvider := NewProvider(NewRegistry(), nil)
	clientAssoc := upperlayer.NewClientAssociation(clientConn, upperlayer.Config{ARTIMTimeout: 2 * time.Second}, clientProvider)
	clientProvider.Bind(clientAssoc)

	go serverAssoc.Run()
	go clientAssoc.Run()

	clientAssoc.RequestAssociation(&pdu.AssociateRQ{
		ApplicationContext: pdu.ApplicationContextItem{Name: pdu.DICOMApplicationContextName},
		PresentationContexts: []*pdu.PresentationContextRQItem{
			{ID: 1, AbstractSyntax: VerificationSOPClassUID, TransferSyntaxes: []string{transfersyntax.UIDImplicitVRLittleEndian}},
		},
		UserInformation: pdu.UserInformationItem{MaximumLength: pdu.MaximumLengthSubItem{MaximumLength: 16384}},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := Echo(ctx, clientProvider, 1); err == nil {
		t.Fatal("expected Echo to fail: the server has no handler for the offered abstract syntax")
	}
}
