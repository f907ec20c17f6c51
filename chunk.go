package signalvec

import "fmt"

// Chunk is one maximal run of consecutive items sharing the same key, as
// emitted by GroupByKey. Its items are a live nested collection: polling the
// chunk yields the diffs of the run itself.
type Chunk[K comparable, T any] struct {
	Key   K
	items Source[T]
}

// Items returns the nested diff stream of the chunk.
func (c *Chunk[K, T]) Items() Source[T] {
	return c.items
}

func (c *Chunk[K, T]) PollChange(w Waker) Poll[T] {
	return c.items.PollChange(w)
}

func (c *Chunk[K, T]) String() string {
	return fmt.Sprintf("Chunk{%v}", c.Key)
}

// chunkState is the operator side of a chunk. It owns the vec; the emitted
// Chunk only holds a subscription to it.
type chunkState[K comparable, T any] struct {
	key K
	vec *MutableVec[T]
}

func newChunk[K comparable, T any](key K, values []T) (*chunkState[K, T], *Chunk[K, T]) {
	vec := NewMutableVec(values...)
	state := &chunkState[K, T]{key: key, vec: vec}
	return state, &Chunk[K, T]{Key: key, items: vec.Signal()}
}

// drop clears the chunk and ends its nested stream.
func (c *chunkState[K, T]) drop() {
	if c.vec.Len() > 0 {
		c.vec.Clear()
	}
	c.vec.Close()
}
