package upperlayer

import "github.com/dicomnet-go/dicomcore/pdu"

// pduHeaderSize and pdvHeaderSize are the fixed overheads subtracted
// from the negotiated maximum PDU length to get the usable fragment
// budget (spec §4.3.5: "PDU header + PDV header").
const (
	pduHeaderSize = 6
	pdvHeaderSize = 6 // 4-byte length + context-id + message-control
)

// FragmentBudget returns the number of dataset bytes that fit in one
// PDV given the peer's negotiated maximum PDU length.
func FragmentBudget(maxPDULength uint32) int {
	budget := int(maxPDULength) - pduHeaderSize - pdvHeaderSize
	if budget <= 0 {
		budget = 1
	}
	return budget
}

// FragmentMessage splits one DIMSE message (command-set bytes plus an
// optional dataset) into the PDV sequence spec §4.3.5 describes: the
// command set always as one whole PDV, the dataset chunked to the
// fragment budget with the last-fragment bit set only on the final PDV.
func FragmentMessage(contextID byte, command []byte, dataset []byte, maxPDULength uint32) []*pdu.PresentationDataValueItem {
	items := []*pdu.PresentationDataValueItem{
		{
			PresentationContextID: contextID,
			MessageControlHeader:  pdu.MessageControlCommand | pdu.MessageControlLastFragment,
			Data:                  command,
		},
	}
	if len(dataset) == 0 {
		return items
	}

	budget := FragmentBudget(maxPDULength)
	for off := 0; off < len(dataset); off += budget {
		end := off + budget
		if end > len(dataset) {
			end = len(dataset)
		}
		header := byte(0)
		if end == len(dataset) {
			header |= pdu.MessageControlLastFragment
		}
		items = append(items, &pdu.PresentationDataValueItem{
			PresentationContextID: contextID,
			MessageControlHeader:  header,
			Data:                  dataset[off:end],
		})
	}
	return items
}

// Reassembler accumulates PDV fragments for one in-flight message,
// segregated by the command/dataset flag (spec §4.3.5 "Decode"). The
// command set is always sent as a single PDV with bit1 set even when a
// dataset follows, so a last-fragment PDV on the command side only means
// "the command set is complete" — whether a dataset follows is a
// property of the decoded command set ((0x0000,0x0800), read by the
// caller), not of PDV framing alone. Exported for use by the DIMSE
// layer, which owns that decision.
type Reassembler struct {
	command         []byte
	dataset         []byte
	commandComplete bool
	datasetComplete bool
}

// Add appends one PDV's bytes to the matching segment.
func (r *Reassembler) Add(item *pdu.PresentationDataValueItem) {
	if item.IsCommand() {
		r.command = append(r.command, item.Data...)
		if item.IsLast() {
			r.commandComplete = true
		}
	} else {
		r.dataset = append(r.dataset, item.Data...)
		if item.IsLast() {
			r.datasetComplete = true
		}
	}
}

func (r *Reassembler) CommandComplete() bool { return r.commandComplete }
func (r *Reassembler) DatasetComplete() bool { return r.datasetComplete }
func (r *Reassembler) Command() []byte       { return r.command }
func (r *Reassembler) Dataset() []byte       { return r.dataset }
