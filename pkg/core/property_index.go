package core

import (
	"github.com/tidwall/btree"
)

// propertyItem is a B-Tree entry associating a property (key, value) with a vertex.
// Seq is the global order in which properties were set; it keeps items with
// the same key and value distinct and makes lookups return them in set order.
type propertyItem struct {
	Key      string
	Value    string
	Seq      uint64
	VertexID string
}

func propertyItemLess(a, b propertyItem) bool {
	if a.Key != b.Key {
		return a.Key < b.Key
	}
	if a.Value != b.Value {
		return a.Value < b.Value
	}
	return a.Seq < b.Seq
}

// propertyIndex is the secondary index behind VerticesWithProperty.
// It is not synchronised; Store guards it with its own lock.
type propertyIndex struct {
	tree *btree.BTreeG[propertyItem]
	seq  uint64
}

func newPropertyIndex() *propertyIndex {
	return &propertyIndex{
		tree: btree.NewBTreeG[propertyItem](propertyItemLess),
	}
}

func (p *propertyIndex) insert(key, value, vertexID string) {
	p.seq++
	p.tree.Set(propertyItem{Key: key, Value: value, Seq: p.seq, VertexID: vertexID})
}

// lookup returns every vertex indexed under (key, value).
func (p *propertyIndex) lookup(key, value string) []string {
	var ids []string

	// Seq starts at 1, so a zero pivot sorts before every matching item.
	pivot := propertyItem{Key: key, Value: value}
	p.tree.Ascend(pivot, func(item propertyItem) bool {
		if item.Key != key || item.Value != value {
			return false
		}
		ids = append(ids, item.VertexID)
		return true
	})
	return ids
}

func (p *propertyIndex) len() int {
	return p.tree.Len()
}
