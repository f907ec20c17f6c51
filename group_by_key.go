package signalvec

import (
	"github.com/juju/errors"
	"github.com/juju/loggo"
)

// GroupByKey partitions a source into maximal runs of consecutive items with
// equal keys. It is a source of chunks; each chunk carries the nested diff
// stream of its own items.
//
// GroupByKey is not safe for concurrent use.
type GroupByKey[K comparable, T any] struct {
	source Source[T]
	keyFn  func(T) K

	chunks []*chunkState[K, T]
	ended  bool

	// pendingOperations holds upstream-equivalent diffs that still need to be
	// processed, pendingReturns holds outer diffs that still need to be emitted.
	pendingOperations []Diff[T]
	pendingReturns    []Diff[*Chunk[K, T]]

	logger  loggo.Logger
	metrics *Metrics
}

// NewGroupByKey groups source by keyFn using the default options.
func NewGroupByKey[K comparable, T any](source Source[T], keyFn func(T) K) *GroupByKey[K, T] {
	return NewGroupByKeyWithOptions(DefaultOptions, source, keyFn)
}

func NewGroupByKeyWithOptions[K comparable, T any](options Options, source Source[T], keyFn func(T) K) *GroupByKey[K, T] {
	return &GroupByKey[K, T]{
		source:  source,
		keyFn:   keyFn,
		logger:  options.loggerFor("signalvec.groupbykey"),
		metrics: options.metrics,
	}
}

// Len returns the number of chunks.
func (g *GroupByKey[K, T]) Len() int {
	return len(g.chunks)
}

func (g *GroupByKey[K, T]) PollChange(w Waker) Poll[*Chunk[K, T]] {
	defer func() {
		g.metrics.setPending(OperatorGroupByKey, len(g.pendingOperations)+len(g.pendingReturns))
	}()

	if len(g.pendingReturns) > 0 {
		diff := g.pendingReturns[0]
		g.pendingReturns = g.pendingReturns[1:]
		g.logger.Tracef("running queued op %v", diff)
		return g.emit(diff)
	}

	for {
		var diff Diff[T]

		if len(g.pendingOperations) > 0 {
			diff = g.pendingOperations[0]
			g.pendingOperations = g.pendingOperations[1:]
		} else {
			if g.ended {
				return Ended[*Chunk[K, T]]()
			}

			poll := g.source.PollChange(w)
			switch poll.Status {
			case StatusPending:
				return Pending[*Chunk[K, T]]()
			case StatusEnded:
				g.ended = true
				return Ended[*Chunk[K, T]]()
			}

			diff = poll.Diff
			g.metrics.observe(OperatorGroupByKey, DirectionIn, diff.Kind())
		}

		if out := g.process(diff); out != nil {
			return g.emit(out)
		}
	}
}

func (g *GroupByKey[K, T]) emit(diff Diff[*Chunk[K, T]]) Poll[*Chunk[K, T]] {
	g.metrics.observe(OperatorGroupByKey, DirectionOut, diff.Kind())
	return Ready[*Chunk[K, T]](diff)
}

// process applies one upstream diff to the chunk list. It returns nil when the
// change only touched a nested chunk.
func (g *GroupByKey[K, T]) process(diff Diff[T]) Diff[*Chunk[K, T]] {
	switch diff := diff.(type) {
	case Replace[T]:
		return g.replace(diff.Values)
	case InsertAt[T]:
		return g.insertAt(diff.Index, diff.Value)
	case UpdateAt[T]:
		return g.updateAt(diff.Index, diff.Value)
	case RemoveAt[T]:
		return g.removeAt(diff.Index)
	case Move[T]:
		return g.move(diff.OldIndex, diff.NewIndex)
	case Push[T]:
		return g.push(diff.Value)
	case Pop[T]:
		return g.pop()
	case Clear[T]:
		g.dropAll()
		return Clear[*Chunk[K, T]]{}
	}

	panic(errors.Errorf("unknown diff: %#v", diff))
}

func (g *GroupByKey[K, T]) replace(values []T) Diff[*Chunk[K, T]] {
	g.dropAll()

	handles := []*Chunk[K, T]{}
	start := 0
	for start < len(values) {
		key := g.keyFn(values[start])
		end := start + 1
		for end < len(values) && g.keyFn(values[end]) == key {
			end++
		}

		g.logger.Tracef("building chunk %v with %d values", key, end-start)
		state, handle := newChunk(key, values[start:end])
		g.chunks = append(g.chunks, state)
		handles = append(handles, handle)
		start = end
	}

	return Replace[*Chunk[K, T]]{Values: handles}
}

func (g *GroupByKey[K, T]) insertAt(index int, value T) Diff[*Chunk[K, T]] {
	key := g.keyFn(value)
	g.logger.Tracef("request to insert value with key %v at position %d", key, index)

	if index == 0 {
		if len(g.chunks) > 0 && g.chunks[0].key == key {
			g.chunks[0].vec.InsertAt(0, value)
			return nil
		}
		return g.insertChunk(0, key, value)
	}

	chunkIndex, offset, ok := g.locate(index)
	if !ok {
		// appending past the last chunk
		if index != g.total() {
			panic(errors.Errorf("signalvec: insert index %d out of range [0, %d]", index, g.total()))
		}
		last := g.chunks[len(g.chunks)-1]
		if last.key == key {
			last.vec.Push(value)
			return nil
		}
		return g.insertChunk(len(g.chunks), key, value)
	}

	current := g.chunks[chunkIndex]

	if offset == 0 {
		// at a boundary; chunkIndex > 0 because index > 0
		previous := g.chunks[chunkIndex-1]
		if previous.key == key {
			previous.vec.Push(value)
			return nil
		}
		if current.key == key {
			current.vec.InsertAt(0, value)
			return nil
		}
		return g.insertChunk(chunkIndex, key, value)
	}

	if current.key == key {
		current.vec.InsertAt(offset, value)
		return nil
	}

	// split the current chunk into head, new value and tail
	g.logger.Tracef("splitting chunk %d (key %v) at offset %d", chunkIndex, current.key, offset)
	values := current.vec.Values()
	current.vec.Replace(values[:offset])

	inserted, insertedHandle := newChunk(key, []T{value})
	tail, tailHandle := newChunk(current.key, values[offset:])
	g.chunks = spliceChunks(g.chunks, chunkIndex+1, inserted, tail)

	g.pendingReturns = append(g.pendingReturns, InsertAt[*Chunk[K, T]]{Index: chunkIndex + 2, Value: tailHandle})
	return InsertAt[*Chunk[K, T]]{Index: chunkIndex + 1, Value: insertedHandle}
}

func (g *GroupByKey[K, T]) insertChunk(chunkIndex int, key K, value T) Diff[*Chunk[K, T]] {
	state, handle := newChunk(key, []T{value})
	g.chunks = spliceChunks(g.chunks, chunkIndex, state)
	return InsertAt[*Chunk[K, T]]{Index: chunkIndex, Value: handle}
}

func (g *GroupByKey[K, T]) updateAt(index int, value T) Diff[*Chunk[K, T]] {
	chunkIndex, offset := g.mustLocate("update", index)
	chunk := g.chunks[chunkIndex]

	// Updates are assumed to keep the key of the item.
	if key := g.keyFn(value); key != chunk.key {
		g.logger.Warningf("update at %d changes key from %v to %v; chunk %d keeps key %v", index, chunk.key, key, chunkIndex, chunk.key)
	}

	chunk.vec.SetAt(offset, value)
	return nil
}

func (g *GroupByKey[K, T]) removeAt(index int) Diff[*Chunk[K, T]] {
	g.logger.Tracef("request to remove value from position %d", index)

	chunkIndex, offset := g.mustLocate("remove", index)
	chunk := g.chunks[chunkIndex]

	chunk.vec.RemoveAt(offset)
	if chunk.vec.Len() > 0 {
		return nil
	}

	g.logger.Tracef("removing chunk %d", chunkIndex)
	chunk.drop()
	g.chunks = removeChunk(g.chunks, chunkIndex)

	if chunkIndex > 0 && chunkIndex < len(g.chunks) {
		if absorbed, ok := g.mergeNeighbours(chunkIndex-1, chunkIndex); ok {
			g.pendingReturns = append(g.pendingReturns, RemoveAt[*Chunk[K, T]]{Index: absorbed})
		}
	}

	return RemoveAt[*Chunk[K, T]]{Index: chunkIndex}
}

// mergeNeighbours joins two adjacent chunks with equal keys, moving the items of
// the smaller one. It returns the index of the chunk that was absorbed.
func (g *GroupByKey[K, T]) mergeNeighbours(previousIndex, nextIndex int) (int, bool) {
	previous, next := g.chunks[previousIndex], g.chunks[nextIndex]
	if previous.key != next.key {
		return 0, false
	}

	if previous.vec.Len() >= next.vec.Len() {
		values := next.vec.Values()
		g.logger.Tracef("moving %d items to previous chunk", len(values))
		for _, value := range values {
			previous.vec.Push(value)
		}
		next.drop()
		g.chunks = removeChunk(g.chunks, nextIndex)
		return nextIndex, true
	}

	values := previous.vec.Values()
	g.logger.Tracef("moving %d items to next chunk", len(values))
	for i := len(values) - 1; i >= 0; i-- {
		next.vec.InsertAt(0, values[i])
	}
	previous.drop()
	g.chunks = removeChunk(g.chunks, previousIndex)
	return previousIndex, true
}

func (g *GroupByKey[K, T]) move(oldIndex, newIndex int) Diff[*Chunk[K, T]] {
	chunkIndex, offset := g.mustLocate("move", oldIndex)
	if oldIndex == newIndex {
		return nil
	}
	chunk := g.chunks[chunkIndex]
	start := oldIndex - offset
	length := chunk.vec.Len()

	// Without the moved item the chunk spans [start, start+length-1) and
	// inserting anywhere up to its end keeps the run intact.
	if length > 1 && newIndex >= start && newIndex <= start+length-1 {
		chunk.vec.Move(offset, newIndex-start)
		return nil
	}

	if newIndex < 0 || newIndex >= g.total() {
		panic(errors.Errorf("signalvec: move index %d out of range [0, %d)", newIndex, g.total()))
	}

	// newIndex is already relative to the list without the moved item, so it
	// is usable as-is once the removal has been processed.
	value := chunk.vec.Get(offset)
	g.logger.Tracef("moving value across chunks: %d -> %d", oldIndex, newIndex)
	g.pendingOperations = append([]Diff[T]{
		RemoveAt[T]{Index: oldIndex},
		InsertAt[T]{Index: newIndex, Value: value},
	}, g.pendingOperations...)
	return nil
}

func (g *GroupByKey[K, T]) push(value T) Diff[*Chunk[K, T]] {
	key := g.keyFn(value)

	if last, ok := g.lastKey(); ok && last == key {
		g.logger.Tracef("key %v compared true, pushing", key)
		g.chunks[len(g.chunks)-1].vec.Push(value)
		return nil
	}

	g.logger.Tracef("key %v starts a new chunk", key)
	state, handle := newChunk(key, []T{value})
	g.chunks = append(g.chunks, state)
	return Push[*Chunk[K, T]]{Value: handle}
}

func (g *GroupByKey[K, T]) pop() Diff[*Chunk[K, T]] {
	if len(g.chunks) == 0 {
		panic(errors.Errorf("signalvec: pop from empty group"))
	}

	last := g.chunks[len(g.chunks)-1]
	last.vec.Pop()
	if last.vec.Len() > 0 {
		return nil
	}

	last.drop()
	g.chunks = g.chunks[:len(g.chunks)-1]
	return Pop[*Chunk[K, T]]{}
}

func (g *GroupByKey[K, T]) dropAll() {
	for _, chunk := range g.chunks {
		chunk.drop()
	}
	g.chunks = nil
}

func (g *GroupByKey[K, T]) lastKey() (K, bool) {
	if len(g.chunks) == 0 {
		var zero K
		return zero, false
	}
	return g.chunks[len(g.chunks)-1].key, true
}

// locate finds the chunk holding the item at index and the offset inside it.
func (g *GroupByKey[K, T]) locate(index int) (chunkIndex, offset int, ok bool) {
	end := 0
	for i, chunk := range g.chunks {
		start := end
		end += chunk.vec.Len()
		if index >= start && index < end {
			return i, index - start, true
		}
	}
	return 0, 0, false
}

func (g *GroupByKey[K, T]) mustLocate(op string, index int) (int, int) {
	chunkIndex, offset, ok := g.locate(index)
	if !ok {
		panic(errors.Errorf("signalvec: %s index %d out of range [0, %d)", op, index, g.total()))
	}
	return chunkIndex, offset
}

func (g *GroupByKey[K, T]) total() int {
	total := 0
	for _, chunk := range g.chunks {
		total += chunk.vec.Len()
	}
	return total
}

func spliceChunks[K comparable, T any](chunks []*chunkState[K, T], index int, inserted ...*chunkState[K, T]) []*chunkState[K, T] {
	result := make([]*chunkState[K, T], 0, len(chunks)+len(inserted))
	result = append(result, chunks[:index]...)
	result = append(result, inserted...)
	return append(result, chunks[index:]...)
}

func removeChunk[K comparable, T any](chunks []*chunkState[K, T], index int) []*chunkState[K, T] {
	return append(chunks[:index], chunks[index+1:]...)
}
