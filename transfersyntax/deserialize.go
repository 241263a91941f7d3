package transfersyntax

import (
	"github.com/dicomnet-go/dicomcore/dataset"
	"github.com/dicomnet-go/dicomcore/dictionary"
	derrors "github.com/dicomnet-go/dicomcore/errors"
	"github.com/dicomnet-go/dicomcore/tag"
	"github.com/dicomnet-go/dicomcore/vr"
)

// desFrame is one level of the explicit stack the deserializer walks
// (spec §4.2 "Deserialization algorithm": a region of "the byte buffer
// representing the current nested set", its destination item-list or
// dataset, and the enclosing declared size to apply when it is
// exhausted — folded here into one frame per stack level rather than
// three parallel slices).
type desFrame struct {
	kind      enclosureFrameKind
	end       int  // absolute offset where this frame's content ends; meaningless if undefined
	undefined bool // true => bounded by a delimiter tag, not end
	ds        *dataset.Dataset  // destination when kind == frameElements
	seq       *dataset.Sequence // destination when kind == framItemsList
}

// Deserialize decodes a whole dataset starting at off under profile p,
// using dict to resolve implicit VRs (spec §4.2). It returns the decoded
// tree and the number of bytes consumed. The walk is iterative depth-first
// over one explicit stack, never the call stack, so nesting depth in the
// input (attacker-controlled on a wire decode) cannot exhaust it.
func Deserialize(buf []byte, off int, p Profile, dict dictionary.Dictionary) (*dataset.Dataset, int, error) {
	root := dataset.NewDataset()
	r := newReader(buf, off, p)
	stack := []desFrame{{kind: frameElements, end: len(buf), ds: root}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if !top.undefined && r.off >= top.end {
			stack = stack[:len(stack)-1]
			continue
		}

		tagStart := r.off
		t, err := r.decodeTag()
		if err != nil {
			return nil, 0, err
		}

		switch top.kind {
		case frameElements:
			switch {
			case t == tag.ItemDelimitationItem:
				if _, err := r.decodeItemHeader(); err != nil {
					return nil, 0, err
				}
				stack = stack[:len(stack)-1]

			case t == tag.Item && len(stack) > 1:
				// Recovery rule (spec §4.2 step 2): the previous item was
				// missing its ItemDelimitationItem. Unread this tag and
				// close the current item at its true end; the enclosing
				// item-list frame reprocesses it as the next sibling's
				// header on the next loop iteration.
				r.off = tagStart
				stack = stack[:len(stack)-1]

			default:
				frame, err := decodeElement(r, t, top.ds, p, dict)
				if err != nil {
					return nil, 0, err
				}
				if frame != nil {
					stack = append(stack, *frame)
				}
			}

		case framItemsList:
			switch t {
			case tag.Item:
				frame, err := pushItem(r, top.seq, p, dict)
				if err != nil {
					return nil, 0, err
				}
				stack = append(stack, *frame)

			case tag.SequenceDelimitationItem:
				if _, err := r.decodeItemHeader(); err != nil {
					return nil, 0, err
				}
				stack = stack[:len(stack)-1]

			default:
				return nil, 0, derrors.NewMalformedStreamError(tagStart, "expected Item or SequenceDelimitationItem")
			}
		}
	}

	return root, r.off - off, nil
}

// decodeElement handles one non-boundary tag within an elements region.
// For a plain value it installs the element directly and returns a nil
// frame. For SQ it installs the (empty, to-be-filled) sequence element
// and returns the item-list frame the caller must push. Encapsulated
// pixel data is fully self-contained (it has its own internal item
// framing) and decoded inline without pushing anything.
func decodeElement(r *reader, t tag.Tag, ds *dataset.Dataset, p Profile, dict dictionary.Dictionary) (*desFrame, error) {
	var predictedVR vr.VR
	if !p.Explicit {
		if v, ok := overrideVR(t); ok {
			predictedVR = v
		} else {
			predictedVR = dict.Lookup(t).VR()
		}
	}
	actualVR, length, err := r.decodeVRAndLength(predictedVR)
	if err != nil {
		return nil, err
	}

	switch {
	case actualVR == vr.SQ:
		seq := &dataset.Sequence{}
		ds.Put(&dataset.Element{Tag: t, VR: vr.SQ, Length: length, Value: seq})

		frame := desFrame{kind: framItemsList, seq: seq}
		if length == dataset.UndefinedLength {
			seq.Undefined = true
			end, err := findEnclosure(r.buf, r.off, p, dict, framItemsList)
			if err != nil {
				return nil, err
			}
			frame.undefined = true
			frame.end = end
		} else {
			frame.end = r.off + int(length)
		}
		return &frame, nil

	case actualVR == vr.OB && length == dataset.UndefinedLength:
		enc, consumed, err := decodeEncapsulated(r.buf, r.off, p)
		if err != nil {
			return nil, err
		}
		ds.Put(&dataset.Element{Tag: t, VR: actualVR, Length: length, Value: enc})
		r.off += consumed
		return nil, nil

	default:
		val, err := r.decodeValue(actualVR, length)
		if err != nil {
			return nil, err
		}
		ds.Put(&dataset.Element{Tag: t, VR: actualVR, Length: length, Value: val})
		return nil, nil
	}
}

// pushItem reads one Item header within seq's item list, allocates the
// item's destination dataset and returns the elements-region frame the
// caller must push to populate it.
func pushItem(r *reader, seq *dataset.Sequence, p Profile, dict dictionary.Dictionary) (*desFrame, error) {
	length, err := r.decodeItemHeader()
	if err != nil {
		return nil, err
	}
	itemDS := dataset.NewDataset()
	seq.Items = append(seq.Items, &dataset.Item{Dataset: itemDS, Length: length})

	frame := desFrame{kind: frameElements, ds: itemDS}
	if length == dataset.UndefinedLength {
		end, err := findEnclosure(r.buf, r.off, p, dict, frameElements)
		if err != nil {
			return nil, err
		}
		frame.undefined = true
		frame.end = end
	} else {
		frame.end = r.off + int(length)
	}
	return &frame, nil
}
