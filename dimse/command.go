// Package dimse implements the DIMSE message layer (spec §4.4): command-set
// composition and parsing, message-id correlation, status classification,
// and SOP-class dispatch, sitting above the upper-layer association.
package dimse

import (
	"github.com/dicomnet-go/dicomcore/dataset"
	"github.com/dicomnet-go/dicomcore/dictionary"
	"github.com/dicomnet-go/dicomcore/errors"
	"github.com/dicomnet-go/dicomcore/tag"
	"github.com/dicomnet-go/dicomcore/transfersyntax"
	"github.com/dicomnet-go/dicomcore/vr"
)

// CommandField is the DIMSE-service-group enum carried by (0000,0100).
type CommandField uint16

const (
	CStoreRQ  CommandField = 0x0001
	CStoreRSP CommandField = 0x8001
	CGetRQ    CommandField = 0x0010
	CGetRSP   CommandField = 0x8010
	CFindRQ   CommandField = 0x0020
	CFindRSP  CommandField = 0x8020
	CMoveRQ   CommandField = 0x0021
	CMoveRSP  CommandField = 0x8021
	CEchoRQ   CommandField = 0x0030
	CEchoRSP  CommandField = 0x8030
	CCancelRQ CommandField = 0x0FFF
	NEventRQ   CommandField = 0x0100
	NEventRSP  CommandField = 0x8100
	NGetRQ     CommandField = 0x0110
	NGetRSP    CommandField = 0x8110
	NSetRQ     CommandField = 0x0120
	NSetRSP    CommandField = 0x8120
	NActionRQ  CommandField = 0x0130
	NActionRSP CommandField = 0x8130
	NCreateRQ  CommandField = 0x0140
	NCreateRSP CommandField = 0x8140
	NDeleteRQ  CommandField = 0x0150
	NDeleteRSP CommandField = 0x8150
)

// dataSetPresentNone is the (0000,0800) value meaning no dataset follows
// the command set; any other value (0x0000 in practice) means one does.
const dataSetPresentNone = 0x0101

// Command is the parsed command set of one DIMSE message (spec §4.4's
// field list): the fields every service group shares, plus the raw
// dataset for service-specific elements (e.g. Move Destination,
// sub-operation counters) that callers read directly.
type Command struct {
	AffectedSOPClassUID       string
	CommandField              CommandField
	MessageID                 uint16
	MessageIDBeingRespondedTo uint16
	DataSetPresent            bool
	Status                    uint16
	Raw                       *dataset.Dataset
}

// DecodeCommand parses a command-set PDV payload. Command sets are always
// implicit-VR little-endian regardless of the presentation context's
// negotiated transfer syntax (spec §4.4).
func DecodeCommand(data []byte) (*Command, error) {
	ds, _, err := transfersyntax.Deserialize(data, 0, transfersyntax.ImplicitLE, dictionary.Builtin)
	if err != nil {
		return nil, errors.NewMalformedDatasetError("decoding DIMSE command set", err)
	}

	cmd := &Command{Raw: ds}
	if el, ok := ds.Get(tag.AffectedSOPClassUID); ok {
		cmd.AffectedSOPClassUID = el.String()
	}
	if el, ok := ds.Get(tag.CommandField); ok {
		cmd.CommandField = CommandField(firstUint(el))
	}
	if el, ok := ds.Get(tag.MessageID); ok {
		cmd.MessageID = firstUint(el)
	}
	if el, ok := ds.Get(tag.MessageIDBeingRespondedTo); ok {
		cmd.MessageIDBeingRespondedTo = firstUint(el)
	}
	if el, ok := ds.Get(tag.CommandDataSetType); ok {
		cmd.DataSetPresent = firstUint(el) != dataSetPresentNone
	}
	if el, ok := ds.Get(tag.Status); ok {
		cmd.Status = firstUint(el)
	}
	return cmd, nil
}

// Encode serializes the command set, deriving (0000,0800) from whether
// hasDataset is true.
func (c *Command) Encode(hasDataset bool) []byte {
	ds := dataset.NewDataset()
	if c.AffectedSOPClassUID != "" {
		ds.Put(dataset.NewStringElement(tag.AffectedSOPClassUID, vr.UI, c.AffectedSOPClassUID))
	}
	ds.Put(uintElement(tag.CommandField, uint16(c.CommandField)))
	if c.MessageIDBeingRespondedTo != 0 {
		ds.Put(uintElement(tag.MessageIDBeingRespondedTo, c.MessageIDBeingRespondedTo))
	} else if c.MessageID != 0 {
		ds.Put(uintElement(tag.MessageID, c.MessageID))
	}
	dataSetType := uint16(dataSetPresentNone)
	if hasDataset {
		dataSetType = 0x0000
	}
	ds.Put(uintElement(tag.CommandDataSetType, dataSetType))
	// Status only belongs to response command fields (the high bit of
	// CommandField) - C-CANCEL-RQ also carries MessageIDBeingRespondedTo
	// but, being a request, has no Status field.
	if c.CommandField&0x8000 != 0 {
		ds.Put(uintElement(tag.Status, c.Status))
	}
	if c.Raw != nil {
		for _, el := range c.Raw.Elements() {
			if _, already := ds.Get(el.Tag); !already {
				ds.Put(el)
			}
		}
	}
	return transfersyntax.Serialize(ds, transfersyntax.ImplicitLE)
}

func uintElement(t tag.Tag, v uint16) *dataset.Element {
	return &dataset.Element{Tag: t, VR: vr.US, Value: []int64{int64(v)}}
}

func firstUint(e *dataset.Element) uint16 {
	vals := e.Ints()
	if len(vals) == 0 {
		return 0
	}
	return uint16(vals[0])
}
