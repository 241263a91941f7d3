// Package dataset implements the DICOM dataset tree: elements, sequences,
// items, the encapsulated pixel-data container, and a bidirectional
// depth-first iterator over the tree (spec §3, §4.2.1).
package dataset

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dicomnet-go/dicomcore/tag"
	"github.com/dicomnet-go/dicomcore/vr"
)

// Element is a tagged record carrying a VR, a declared length (0xFFFFFFFF
// meaning "undefined, delimited") and a value payload whose shape is
// determined by the VR (spec §3 "Element field").
type Element struct {
	Tag    tag.Tag
	VR     vr.VR
	Length uint32 // 0xFFFFFFFF => undefined length, delimited in the stream
	Value  interface{}
}

// UndefinedLength is the sentinel declared-length value meaning the element
// is delimited rather than length-prefixed.
const UndefinedLength uint32 = 0xFFFFFFFF

// Item is one member of a sequence's item list: a nested Dataset plus the
// length under which it was (or will be) encoded.
type Item struct {
	Dataset *Dataset
	Length  uint32 // UndefinedLength if delimited by ItemDelimitationItem
}

// NewItem wraps ds as a sequence item with an as-yet-uncomputed length; the
// transfer processor fills Length in during serialization (spec §4.2
// "Serialization algorithm").
func NewItem(ds *Dataset) *Item {
	if ds == nil {
		ds = NewDataset()
	}
	return &Item{Dataset: ds, Length: UndefinedLength}
}

// Sequence is the value payload of an SQ element: an ordered list of item
// datasets plus whether the sequence itself was (or should be) delimited by
// a SequenceDelimitationItem rather than a declared length.
type Sequence struct {
	Items     []*Item
	Undefined bool
}

// Encapsulated is a distinguished OB value used for pixel data when the
// element's length is undefined: an ordered list of byte fragments plus a
// flag choosing between the two basic-offset-table regimes (spec §3
// "Encapsulated container", §4.2 "Encapsulated pixel data").
type Encapsulated struct {
	// CompressedFrames is true when the basic offset table carries one
	// entry per frame (byte offset of that frame's first fragment,
	// measured from the first byte after the offset-table item).
	// False means fragments-only mode: the offset table item is present
	// but empty.
	CompressedFrames bool
	// FrameStarts holds the decoded offset-table entries when
	// CompressedFrames is true.
	FrameStarts []uint32
	// Fragments holds each data-fragment item's payload, verbatim, in
	// stream order. The offset table item itself is not included here.
	Fragments [][]byte
}

// Dataset is an ordered mapping from tag to element, ordered by the tag
// comparator (spec §3 "Dataset"). Insertion order is irrelevant; iteration
// order is always tag order.
type Dataset struct {
	elements map[tag.Tag]*Element
}

// NewDataset returns an empty dataset.
func NewDataset() *Dataset {
	return &Dataset{elements: make(map[tag.Tag]*Element)}
}

// Put inserts or replaces the element at its own tag.
func (d *Dataset) Put(e *Element) {
	d.elements[e.Tag] = e
}

// Get returns the element at t, if present.
func (d *Dataset) Get(t tag.Tag) (*Element, bool) {
	e, ok := d.elements[t]
	return e, ok
}

// Delete removes the element at t, if present.
func (d *Dataset) Delete(t tag.Tag) {
	delete(d.elements, t)
}

// Len returns the number of elements directly in this dataset (not
// counting nested sequence items).
func (d *Dataset) Len() int {
	return len(d.elements)
}

// Tags returns every tag in this dataset, in the tag-comparator order
// (spec §3: "iteration order is the tag comparator").
func (d *Dataset) Tags() []tag.Tag {
	tags := make([]tag.Tag, 0, len(d.elements))
	for t := range d.elements {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return tag.Less(tags[i], tags[j]) })
	return tags
}

// Elements returns every element in this dataset in tag order.
func (d *Dataset) Elements() []*Element {
	tags := d.Tags()
	out := make([]*Element, 0, len(tags))
	for _, t := range tags {
		out = append(out, d.elements[t])
	}
	return out
}

// --- typed accessors -------------------------------------------------

// NewStringElement builds a string-valued element, splitting on backslash
// into multiple values per spec's value-multiplicity rule.
func NewStringElement(t tag.Tag, v vr.VR, raw string) *Element {
	return &Element{Tag: t, VR: v, Value: strings.Split(raw, `\`)}
}

// Strings returns the string payload of an element, or nil if the element
// does not carry a string value.
func (e *Element) Strings() []string {
	if e == nil {
		return nil
	}
	if s, ok := e.Value.([]string); ok {
		return s
	}
	return nil
}

// String returns the first (or only) string value, trimmed.
func (e *Element) String() string {
	s := e.Strings()
	if len(s) == 0 {
		return ""
	}
	return strings.TrimRight(s[0], " \x00")
}

// Ints returns the numeric payload of an element for integer VRs
// (SL, SS, UL, US), or nil otherwise.
func (e *Element) Ints() []int64 {
	if e == nil {
		return nil
	}
	if v, ok := e.Value.([]int64); ok {
		return v
	}
	return nil
}

// Floats returns the numeric payload of an element for FL/FD, or nil.
func (e *Element) Floats() []float64 {
	if e == nil {
		return nil
	}
	if v, ok := e.Value.([]float64); ok {
		return v
	}
	return nil
}

// Tags returns the tag payload of an AT element, or nil.
func (e *Element) Tags() []tag.Tag {
	if e == nil {
		return nil
	}
	if v, ok := e.Value.([]tag.Tag); ok {
		return v
	}
	return nil
}

// Bytes returns the opaque byte payload of an inline OB/OW/UN element, or
// nil if the element holds something else (e.g. an encapsulated container).
func (e *Element) Bytes() []byte {
	if e == nil {
		return nil
	}
	if v, ok := e.Value.([]byte); ok {
		return v
	}
	return nil
}

// SequenceValue returns the nested item list of an SQ element, or nil.
func (e *Element) SequenceValue() *Sequence {
	if e == nil {
		return nil
	}
	if v, ok := e.Value.(*Sequence); ok {
		return v
	}
	return nil
}

// EncapsulatedValue returns the fragment container of a fragmented pixel
// data element, or nil.
func (e *Element) EncapsulatedValue() *Encapsulated {
	if e == nil {
		return nil
	}
	if v, ok := e.Value.(*Encapsulated); ok {
		return v
	}
	return nil
}

func (e *Element) describe() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s %s len=%d", e.Tag, e.VR, e.Length)
}
