// Package services provides reusable DICOM service implementations on top
// of the dimse package's Registry/Message types: a C-ECHO responder and
// stub C-STORE/C-FIND/C-MOVE handlers that exercise the full DIMSE command
// set without committing to any storage or query backend (query/retrieve
// policy and storage are explicit non-goals; these handlers exist so the
// registry has something to dispatch to).
package services

import (
	"github.com/dicomnet-go/dicomcore/dataset"
	"github.com/dicomnet-go/dicomcore/dimse"
	"github.com/dicomnet-go/dicomcore/tag"
	"github.com/dicomnet-go/dicomcore/vr"
)

// ResponseBuilder provides convenient methods for creating standard DIMSE
// response messages, automatically populating the fields every response
// shares with its request (MessageIDBeingRespondedTo, AffectedSOPClassUID).
type ResponseBuilder struct {
	request *dimse.Message
}

// NewResponseBuilder creates a new response builder for the given request message.
func NewResponseBuilder(request *dimse.Message) *ResponseBuilder {
	return &ResponseBuilder{request: request}
}

// CEchoResponse creates a C-ECHO-RSP message.
func (b *ResponseBuilder) CEchoResponse(status uint16) *dimse.Message {
	return &dimse.Message{
		Command: &dimse.Command{
			CommandField:              dimse.CEchoRSP,
			MessageIDBeingRespondedTo: b.request.Command.MessageID,
			AffectedSOPClassUID:       dimse.VerificationSOPClassUID,
			Status:                    status,
		},
	}
}

// CFindResponse creates a C-FIND-RSP message. For pending responses with
// matches, pass status=0xFF00 (dimse's StatusPending band) and a non-nil
// match dataset; for the final response, pass dimse's success status
// (0x0000) and a nil match.
func (b *ResponseBuilder) CFindResponse(status uint16, match *dataset.Dataset) *dimse.Message {
	return &dimse.Message{
		Command: &dimse.Command{
			CommandField:              dimse.CFindRSP,
			MessageIDBeingRespondedTo: b.request.Command.MessageID,
			AffectedSOPClassUID:       b.request.Command.AffectedSOPClassUID,
			Status:                    status,
		},
		Dataset: match,
	}
}

// CMoveResponse creates a C-MOVE-RSP message carrying the sub-operation
// counters (0000,1020-1023). Per the Open Question decision recorded in
// DESIGN.md, these aren't named fields on Command - they ride in Raw so
// Encode copies them through untouched.
func (b *ResponseBuilder) CMoveResponse(status uint16, completed, failed, warning, remaining uint16) *dimse.Message {
	return b.suboperationResponse(dimse.CMoveRSP, status, completed, failed, warning, remaining)
}

// CGetResponse creates a C-GET-RSP message carrying the same
// sub-operation counters as CMoveResponse.
func (b *ResponseBuilder) CGetResponse(status uint16, completed, failed, warning, remaining uint16) *dimse.Message {
	return b.suboperationResponse(dimse.CGetRSP, status, completed, failed, warning, remaining)
}

func (b *ResponseBuilder) suboperationResponse(field dimse.CommandField, status uint16, completed, failed, warning, remaining uint16) *dimse.Message {
	raw := dataset.NewDataset()
	raw.Put(suboperationElement(tag.NumberOfRemainingSuboperations, remaining))
	raw.Put(suboperationElement(tag.NumberOfCompletedSuboperations, completed))
	raw.Put(suboperationElement(tag.NumberOfFailedSuboperations, failed))
	raw.Put(suboperationElement(tag.NumberOfWarningSuboperations, warning))

	return &dimse.Message{
		Command: &dimse.Command{
			CommandField:              field,
			MessageIDBeingRespondedTo: b.request.Command.MessageID,
			AffectedSOPClassUID:       b.request.Command.AffectedSOPClassUID,
			Status:                    status,
			Raw:                       raw,
		},
	}
}

func suboperationElement(t tag.Tag, v uint16) *dataset.Element {
	return &dataset.Element{Tag: t, VR: vr.US, Value: []int64{int64(v)}}
}

// CStoreResponse creates a C-STORE-RSP message.
func (b *ResponseBuilder) CStoreResponse(status uint16) *dimse.Message {
	return &dimse.Message{
		Command: &dimse.Command{
			CommandField:              dimse.CStoreRSP,
			MessageIDBeingRespondedTo: b.request.Command.MessageID,
			AffectedSOPClassUID:       b.request.Command.AffectedSOPClassUID,
			Status:                    status,
		},
	}
}
