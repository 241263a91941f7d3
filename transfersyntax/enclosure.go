package transfersyntax

import (
	"github.com/dicomnet-go/dicomcore/dataset"
	"github.com/dicomnet-go/dicomcore/dictionary"
	derrors "github.com/dicomnet-go/dicomcore/errors"
	"github.com/dicomnet-go/dicomcore/tag"
	"github.com/dicomnet-go/dicomcore/vr"
)

// enclosureFrame is one level of the explicit work stack the enclosure
// finder walks. itemsList means "currently scanning a sequence's item
// list"; elements means "currently scanning one item's element list" (or,
// one level up, a nested sequence element's own item list is entered via
// a separate itemsList frame — the two kinds alternate with nesting).
type enclosureFrameKind int

const (
	framItemsList enclosureFrameKind = iota
	frameElements
)

// findEnclosure computes the byte length of an undefined-length nested
// region without fully decoding it (spec §4.2 "Enclosure finder"). off
// must point at the first byte of the region's content; start selects
// whether that content is a sequence's item list (immediately after the
// owning SQ's header) or one item's element list (immediately after an
// Item header declaring undefined length). It returns the offset of the
// region's closing delimiter tag (SequenceDelimitationItem or
// ItemDelimitationItem, matching start).
//
// This is the one traversal in the package explicitly specified to avoid
// the call stack: malicious or merely deeply-nested input could exhaust
// it, so nesting is tracked with an explicit slice instead of recursion
// (spec §9's design note, "O(n) in bytes and O(d) in additional memory").
func findEnclosure(buf []byte, off int, p Profile, dict dictionary.Dictionary, start enclosureFrameKind) (int, error) {
	r := newReader(buf, off, p)
	stack := []enclosureFrameKind{start}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		tagStart := r.off
		t, err := r.decodeTag()
		if err != nil {
			return 0, err
		}

		switch top {
		case framItemsList:
			switch t {
			case tag.Item:
				length, err := r.decodeItemHeader()
				if err != nil {
					return 0, err
				}
				if length == dataset.UndefinedLength {
					stack = append(stack, frameElements)
				} else {
					if err := r.require(int(length)); err != nil {
						return 0, err
					}
					r.off += int(length)
				}
			case tag.SequenceDelimitationItem:
				if _, err := r.decodeItemHeader(); err != nil {
					return 0, err
				}
				stack = stack[:len(stack)-1]
				if len(stack) == 0 {
					return tagStart, nil
				}
			default:
				return 0, derrors.NewMalformedStreamError(tagStart, "expected Item or SequenceDelimitationItem in item list")
			}

		case frameElements:
			if t == tag.ItemDelimitationItem {
				if _, err := r.decodeItemHeader(); err != nil {
					return 0, err
				}
				stack = stack[:len(stack)-1]
				if len(stack) == 0 {
					return tagStart, nil
				}
				continue
			}
			resolved, length, err := r.peekVRAndLength(t, dict)
			if err != nil {
				return 0, err
			}
			if resolved == vr.SQ && length == dataset.UndefinedLength {
				stack = append(stack, framItemsList)
				continue
			}
			if err := r.require(int(length)); err != nil {
				return 0, err
			}
			r.off += int(length)
		}
	}
	return r.off, nil
}

// peekVRAndLength resolves an element's VR and length without allocating
// a value, used by findEnclosure to skip past elements it doesn't need to
// build.
func (r *reader) peekVRAndLength(t tag.Tag, dict dictionary.Dictionary) (vr.VR, uint32, error) {
	explicitVR := vr.VR("")
	if r.profile.Explicit {
		if err := r.require(2); err != nil {
			return "", 0, err
		}
		explicitVR = vr.VR(r.buf[r.off : r.off+2])
	}
	resolved := resolveVR(t, explicitVR, r.profile, dict)
	_, length, err := r.decodeVRAndLength(resolved)
	if err != nil {
		return "", 0, err
	}
	return resolved, length, nil
}
