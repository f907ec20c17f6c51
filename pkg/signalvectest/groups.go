package signalvectest

import (
	"github.com/snowcat-chat/signalvec"
)

// Group is the materialized state of one chunk.
type Group[K comparable, T any] struct {
	Key   K
	Items []T
}

// Groups mirrors the output of a GroupByKey: it applies the outer diffs to a
// list of chunk handles and the nested diffs of each chunk to its items.
type Groups[K comparable, T any] struct {
	chunks []*signalvec.Chunk[K, T]
	items  map[*signalvec.Chunk[K, T]][]T
}

func NewGroups[K comparable, T any]() *Groups[K, T] {
	return &Groups[K, T]{items: map[*signalvec.Chunk[K, T]][]T{}}
}

// Apply applies outer diffs.
func (g *Groups[K, T]) Apply(changes signalvec.Changes[*signalvec.Chunk[K, T]]) {
	g.chunks = changes.Apply(g.chunks)
}

// Chunks returns the current chunk handles.
func (g *Groups[K, T]) Chunks() []*signalvec.Chunk[K, T] {
	return append([]*signalvec.Chunk[K, T](nil), g.chunks...)
}

// Snapshot drains the nested stream of every chunk and returns the groups.
func (g *Groups[K, T]) Snapshot() []Group[K, T] {
	groups := make([]Group[K, T], 0, len(g.chunks))
	for _, chunk := range g.chunks {
		items := Drain[T](chunk).Apply(g.items[chunk])
		g.items[chunk] = items
		groups = append(groups, Group[K, T]{Key: chunk.Key, Items: append([]T{}, items...)})
	}
	return groups
}
