package dataset

import (
	"github.com/dicomnet-go/dicomcore/tag"
	"github.com/dicomnet-go/dicomcore/vr"
)

// NodeKind classifies a step produced by the dataset walk.
type NodeKind int

const (
	// ElementNode visits a real stored element (leaf or SQ) of some item.
	ElementNode NodeKind = iota
	// ItemStartNode is the virtual visit of an Item boundary tag,
	// emitted just before descending into one sequence item's elements.
	ItemStartNode
	// ItemEndNode is the virtual visit of an ItemDelimitationItem tag,
	// emitted just after an item's elements are exhausted.
	ItemEndNode
	// SequenceEndNode is the virtual visit of a SequenceDelimitationItem
	// tag, emitted once all of a sequence's items are exhausted.
	SequenceEndNode
)

// Node is one step of a forward or backward walk of the dataset tree.
type Node struct {
	Kind     NodeKind
	Tag      tag.Tag  // the element tag, or the relevant boundary tag
	Element  *Element // non-nil only for ElementNode
	Item     *Item    // the sequence item this boundary belongs to (ItemStart/ItemEnd)
	Sequence *Element // the owning SQ element (ItemStart/ItemEnd/SequenceEnd)
}

// appendNodes flattens ds's elements, in tag order, into out, recursively
// expanding SQ elements into their items and the boundary markers spec
// §4.2.1 requires ("parent SQ, (item tag, item body…, item-delimitation)
// per item, sequence-delimitation"). Dataset trees are walked read-only
// after decode, so plain recursion is used here (Go goroutine stacks grow
// dynamically; this differs from the byte-level enclosure finder in
// package transfersyntax, which parses untrusted wire input and therefore
// uses an explicit work stack per spec's design note).
func appendNodes(ds *Dataset, out *[]Node) {
	if ds == nil {
		return
	}
	for _, t := range ds.Tags() {
		el := ds.elements[t]
		*out = append(*out, Node{Kind: ElementNode, Tag: t, Element: el})
		if el.VR != vr.SQ {
			continue
		}
		seq := el.SequenceValue()
		if seq == nil {
			continue
		}
		for _, item := range seq.Items {
			*out = append(*out, Node{Kind: ItemStartNode, Tag: tag.Item, Item: item, Sequence: el})
			appendNodes(item.Dataset, out)
			*out = append(*out, Node{Kind: ItemEndNode, Tag: tag.ItemDelimitationItem, Item: item, Sequence: el})
		}
		*out = append(*out, Node{Kind: SequenceEndNode, Tag: tag.SequenceDelimitationItem, Sequence: el})
	}
}

// Cursor is a bidirectional depth-first cursor over a dataset tree (spec
// §3 "Tag iterator state", §4.2.1). It is a read-only view: mutating the
// underlying dataset after constructing a Cursor invalidates it.
//
// The walk order is materialized once, up front, by appendNodes'
// recursive build; stepping forward or backward is
// then plain index arithmetic, which trivially satisfies the
// prev(next(p)) == p / next(prev(p)) == p invariant spec §8 requires —
// the open question the original's iterator got wrong around sequence
// boundaries does not arise here by construction.
type Cursor struct {
	nodes []Node
	pos   int // index of the node currently "at"; -1 before the first node
}

// NewCursor builds a cursor positioned before the first node of root.
func NewCursor(root *Dataset) *Cursor {
	var nodes []Node
	appendNodes(root, &nodes)
	return &Cursor{nodes: nodes, pos: -1}
}

// Len returns the total number of steps in the walk.
func (c *Cursor) Len() int { return len(c.nodes) }

// Pos returns the current index (-1 at BOF, Len() at EOF).
func (c *Cursor) Pos() int { return c.pos }

// Seek moves the cursor directly to index p (-1..Len()), for tests that
// need to probe an arbitrary interior point.
func (c *Cursor) Seek(p int) {
	if p < -1 {
		p = -1
	}
	if p > len(c.nodes) {
		p = len(c.nodes)
	}
	c.pos = p
}

// Current returns the node at the cursor's position, if any.
func (c *Cursor) Current() (Node, bool) {
	if c.pos < 0 || c.pos >= len(c.nodes) {
		return Node{}, false
	}
	return c.nodes[c.pos], true
}

// Next advances the cursor by one step and returns the node it now points
// at. Once the walk is exhausted it returns false and leaves the cursor
// at EOF (Pos() == Len()).
func (c *Cursor) Next() (Node, bool) {
	if c.pos >= len(c.nodes)-1 {
		c.pos = len(c.nodes)
		return Node{}, false
	}
	c.pos++
	return c.nodes[c.pos], true
}

// Prev retreats the cursor by one step and returns the node it now points
// at. Stepping back from the first node (or from BOF) returns false and
// leaves the cursor at BOF (Pos() == -1).
func (c *Cursor) Prev() (Node, bool) {
	if c.pos <= 0 {
		c.pos = -1
		return Node{}, false
	}
	c.pos--
	return c.nodes[c.pos], true
}

// Walk returns the full forward node sequence, for callers (e.g. the
// transfer processor's serializer) that want to drive emission in tag
// order including the auto-emitted delimiter nodes.
func Walk(root *Dataset) []Node {
	var nodes []Node
	appendNodes(root, &nodes)
	return nodes
}
