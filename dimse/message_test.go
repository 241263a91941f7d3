package dimse

import (
	"testing"

	"github.com/dicomnet-go/dicomcore/dataset"
	"github.com/dicomnet-go/dicomcore/pdu"
	"github.com/dicomnet-go/dicomcore/tag"
	"github.com/dicomnet-go/dicomcore/transfersyntax"
	"github.com/dicomnet-go/dicomcore/vr"
)

func TestAssemblerCommandOnlyMessage(t *testing.T) {
	cmd := &Command{AffectedSOPClassUID: VerificationSOPClassUID, CommandField: CEchoRQ, MessageID: 1}
	items := EncodeMessage(1, &Message{Command: cmd}, transfersyntax.ImplicitLE, 16384)
	if len(items) != 1 {
		t.Fatalf("expected exactly one PDV for a command-only message, got %d", len(items))
	}

	asm := &assembler{}
	msg, err := asm.feed(items[0], transfersyntax.ImplicitLE)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if msg == nil {
		t.Fatal("expected a completed message after the single command PDV")
	}
	if msg.Dataset != nil {
		t.Errorf("expected no dataset, got %v", msg.Dataset)
	}
	if msg.Command.CommandField != CEchoRQ {
		t.Errorf("CommandField = %#x, want C-ECHO-RQ", msg.Command.CommandField)
	}
}

func TestAssemblerCommandPlusFragmentedDataset(t *testing.T) {
	ds := dataset.NewDataset()
	ds.Put(dataset.NewStringElement(tag.Tag{Group: 0x0010, Element: 0x0010}, vr.PN, "Doe^John"))

	cmd := &Command{AffectedSOPClassUID: "1.2.840.10008.5.1.4.1.1.7", CommandField: CStoreRQ, MessageID: 2}
	maxPDU := uint32(40) // force fragmentation of the small dataset
	items := EncodeMessage(1, &Message{Command: cmd, Dataset: ds}, transfersyntax.ImplicitLE, maxPDU)
	if len(items) < 2 {
		t.Fatalf("expected command PDV plus at least one dataset PDV, got %d", len(items))
	}

	asm := &assembler{}
	var final *Message
	for _, item := range items {
		msg, err := asm.feed(item, transfersyntax.ImplicitLE)
		if err != nil {
			t.Fatalf("feed: %v", err)
		}
		if msg != nil {
			final = msg
		}
	}
	if final == nil {
		t.Fatal("expected a completed message once all fragments arrived")
	}
	if final.Dataset == nil {
		t.Fatal("expected a decoded dataset")
	}
	el, ok := final.Dataset.Get(tag.Tag{Group: 0x0010, Element: 0x0010})
	if !ok || el.String() != "Doe^John" {
		t.Errorf("got PatientName %q", el.String())
	}
}

func TestAssemblerIncompleteDatasetDoesNotComplete(t *testing.T) {
	asm := &assembler{}
	commandBytes := (&Command{CommandField: CStoreRQ, MessageID: 1}).Encode(true)
	msg, err := asm.feed(&pdu.PresentationDataValueItem{
		PresentationContextID: 1,
		MessageControlHeader:  pdu.MessageControlCommand | pdu.MessageControlLastFragment,
		Data:                  commandBytes,
	}, transfersyntax.ImplicitLE)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if msg != nil {
		t.Fatal("expected no completed message until the dataset fragment arrives too")
	}
}
