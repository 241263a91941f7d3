package services

import (
	"testing"

	"github.com/dicomnet-go/dicomcore/dataset"
	"github.com/dicomnet-go/dicomcore/dimse"
	"github.com/dicomnet-go/dicomcore/tag"
)

func TestResponseBuilder_CEchoResponse(t *testing.T) {
	request := &dimse.Message{Command: &dimse.Command{CommandField: dimse.CEchoRQ, MessageID: 42}}

	response := NewResponseBuilder(request).CEchoResponse(0x0000)

	if response.Command.CommandField != dimse.CEchoRSP {
		t.Errorf("CommandField = 0x%04x, want 0x%04x", response.Command.CommandField, dimse.CEchoRSP)
	}
	if response.Command.MessageIDBeingRespondedTo != 42 {
		t.Errorf("MessageIDBeingRespondedTo = %d, want 42", response.Command.MessageIDBeingRespondedTo)
	}
	if response.Command.Status != 0x0000 {
		t.Errorf("Status = 0x%04x, want success", response.Command.Status)
	}
	if response.Command.AffectedSOPClassUID != dimse.VerificationSOPClassUID {
		t.Errorf("AffectedSOPClassUID = %s, want Verification SOP Class", response.Command.AffectedSOPClassUID)
	}
}

func TestResponseBuilder_CFindResponse_Pending(t *testing.T) {
	request := &dimse.Message{Command: &dimse.Command{
		CommandField:        dimse.CFindRQ,
		MessageID:           10,
		AffectedSOPClassUID: "1.2.840.10008.5.1.4.1.2.2.1",
	}}

	match := dataset.NewDataset()
	response := NewResponseBuilder(request).CFindResponse(0xFF00, match)

	if response.Command.CommandField != dimse.CFindRSP {
		t.Errorf("CommandField = 0x%04x, want 0x%04x", response.Command.CommandField, dimse.CFindRSP)
	}
	if response.Command.Status != 0xFF00 {
		t.Errorf("Status = 0x%04x, want pending", response.Command.Status)
	}
	if response.Dataset != match {
		t.Error("expected the match dataset to be preserved")
	}
	if response.Command.AffectedSOPClassUID != request.Command.AffectedSOPClassUID {
		t.Error("AffectedSOPClassUID not preserved from request")
	}
}

func TestResponseBuilder_CFindResponse_Success(t *testing.T) {
	request := &dimse.Message{Command: &dimse.Command{
		CommandField:        dimse.CFindRQ,
		MessageID:           10,
		AffectedSOPClassUID: "1.2.840.10008.5.1.4.1.2.2.1",
	}}

	response := NewResponseBuilder(request).CFindResponse(0x0000, nil)

	if response.Command.Status != 0x0000 {
		t.Errorf("Status = 0x%04x, want success", response.Command.Status)
	}
	if response.Dataset != nil {
		t.Error("expected no dataset on the final response")
	}
}

func TestResponseBuilder_CMoveResponse(t *testing.T) {
	request := &dimse.Message{Command: &dimse.Command{
		CommandField:        dimse.CMoveRQ,
		MessageID:           15,
		AffectedSOPClassUID: "1.2.840.10008.5.1.4.1.2.2.1",
	}}

	response := NewResponseBuilder(request).CMoveResponse(0xFF00, 10, 2, 1, 5)

	if response.Command.CommandField != dimse.CMoveRSP {
		t.Errorf("CommandField = 0x%04x, want 0x%04x", response.Command.CommandField, dimse.CMoveRSP)
	}
	if response.Command.Status != 0xFF00 {
		t.Errorf("Status = 0x%04x, want pending", response.Command.Status)
	}

	cases := []struct {
		name string
		t    tag.Tag
		want int64
	}{
		{"completed", tag.NumberOfCompletedSuboperations, 10},
		{"failed", tag.NumberOfFailedSuboperations, 2},
		{"warning", tag.NumberOfWarningSuboperations, 1},
		{"remaining", tag.NumberOfRemainingSuboperations, 5},
	}
	for _, c := range cases {
		el, ok := response.Command.Raw.Get(c.t)
		if !ok {
			t.Fatalf("%s: expected element to be set", c.name)
		}
		vals := el.Ints()
		if len(vals) != 1 || vals[0] != c.want {
			t.Errorf("%s = %v, want %d", c.name, vals, c.want)
		}
	}
}

func TestResponseBuilder_CGetResponse(t *testing.T) {
	request := &dimse.Message{Command: &dimse.Command{
		CommandField:        dimse.CGetRQ,
		MessageID:           16,
		AffectedSOPClassUID: "1.2.840.10008.5.1.4.1.2.2.3",
	}}

	response := NewResponseBuilder(request).CGetResponse(0x0000, 3, 0, 0, 0)

	if response.Command.CommandField != dimse.CGetRSP {
		t.Errorf("CommandField = 0x%04x, want 0x%04x", response.Command.CommandField, dimse.CGetRSP)
	}
	if response.Command.Status != 0x0000 {
		t.Errorf("Status = 0x%04x, want success", response.Command.Status)
	}
	el, ok := response.Command.Raw.Get(tag.NumberOfCompletedSuboperations)
	if !ok {
		t.Fatal("expected completed sub-operations element to be set")
	}
	if vals := el.Ints(); len(vals) != 1 || vals[0] != 3 {
		t.Errorf("completed = %v, want 3", vals)
	}
}

func TestResponseBuilder_CStoreResponse(t *testing.T) {
	request := &dimse.Message{Command: &dimse.Command{
		CommandField:        dimse.CStoreRQ,
		MessageID:           20,
		AffectedSOPClassUID: "1.2.840.10008.5.1.4.1.1.2",
	}}

	response := NewResponseBuilder(request).CStoreResponse(0x0000)

	if response.Command.CommandField != dimse.CStoreRSP {
		t.Errorf("CommandField = 0x%04x, want 0x%04x", response.Command.CommandField, dimse.CStoreRSP)
	}
	if response.Command.Status != 0x0000 {
		t.Errorf("Status = 0x%04x, want success", response.Command.Status)
	}
	if response.Command.AffectedSOPClassUID != request.Command.AffectedSOPClassUID {
		t.Error("AffectedSOPClassUID not preserved from request")
	}
}
