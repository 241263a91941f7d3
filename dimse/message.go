package dimse

import (
	"github.com/dicomnet-go/dicomcore/dataset"
	"github.com/dicomnet-go/dicomcore/dictionary"
	"github.com/dicomnet-go/dicomcore/errors"
	"github.com/dicomnet-go/dicomcore/pdu"
	"github.com/dicomnet-go/dicomcore/transfersyntax"
	"github.com/dicomnet-go/dicomcore/upperlayer"
)

// Message is one complete DIMSE exchange unit: a command set plus the
// optional dataset it carries (spec §4.4).
type Message struct {
	Command *Command
	Dataset *dataset.Dataset
}

// assembler accumulates PDV fragments for one in-flight message on a
// presentation context and reports when a full Message is ready (spec
// §4.3.5's Reassembler, plus the dataset-presence judgment spec §4.4
// assigns to this layer: the command's own (0000,0800) flag, not PDV
// framing, decides whether a dataset is still expected).
type assembler struct {
	reassembler upperlayer.Reassembler
	command     *Command
}

// feed folds in one PDV. It returns the completed message once the
// command set (and, if the command declares one, the dataset) have both
// fully arrived; otherwise it returns nil and the caller keeps feeding.
func (a *assembler) feed(item *pdu.PresentationDataValueItem, profile transfersyntax.Profile) (*Message, error) {
	a.reassembler.Add(item)

	if a.command == nil && a.reassembler.CommandComplete() {
		cmd, err := DecodeCommand(a.reassembler.Command())
		if err != nil {
			return nil, err
		}
		a.command = cmd
	}
	if a.command == nil {
		return nil, nil
	}
	if !a.command.DataSetPresent {
		return &Message{Command: a.command}, nil
	}
	if !a.reassembler.DatasetComplete() {
		return nil, nil
	}

	ds, _, err := transfersyntax.Deserialize(a.reassembler.Dataset(), 0, profile, dictionary.Builtin)
	if err != nil {
		return nil, errors.NewMalformedDatasetError("decoding DIMSE dataset", err)
	}
	ds.DecodeStrings()
	return &Message{Command: a.command, Dataset: ds}, nil
}

// EncodeMessage fragments a Message into the PDV sequence an Association
// sends in one P-DATA-TF (spec §4.3.5): command set first, optional
// dataset encoded under the negotiated profile.
func EncodeMessage(contextID byte, msg *Message, profile transfersyntax.Profile, maxPDULength uint32) []*pdu.PresentationDataValueItem {
	var datasetBytes []byte
	if msg.Dataset != nil {
		datasetBytes = transfersyntax.Serialize(msg.Dataset, profile)
	}
	commandBytes := msg.Command.Encode(msg.Dataset != nil)
	return upperlayer.FragmentMessage(contextID, commandBytes, datasetBytes, maxPDULength)
}
