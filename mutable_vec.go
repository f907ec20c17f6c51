package signalvec

import (
	"sync"

	"github.com/juju/errors"
	"github.com/juju/loggo"
)

var vecLogger = loggo.GetLogger("signalvec.mutablevec")

// MutableVec is a live ordered collection. Every mutation is broadcast as a
// diff to each subscriber returned by Signal.
//
// MutableVec is safe for concurrent use; the mutation methods panic when
// given an index out of bounds.
type MutableVec[T any] struct {
	mu     sync.Mutex
	values []T
	subs   []*vecSignal[T]
	closed bool
}

func NewMutableVec[T any](values ...T) *MutableVec[T] {
	return &MutableVec[T]{values: append([]T(nil), values...)}
}

// Signal subscribes to the vec. A subscription to a non-empty vec starts with
// a Replace of the current values.
func (v *MutableVec[T]) Signal() Source[T] {
	v.mu.Lock()
	defer v.mu.Unlock()

	sub := &vecSignal[T]{vec: v}
	if len(v.values) > 0 {
		sub.queue = append(sub.queue, Replace[T]{Values: v.snapshot()})
	}
	v.subs = append(v.subs, sub)
	return sub
}

func (v *MutableVec[T]) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.values)
}

func (v *MutableVec[T]) Get(index int) T {
	v.mu.Lock()
	defer v.mu.Unlock()
	checkIndex("get", index, len(v.values))
	return v.values[index]
}

// Values returns a copy of the current values.
func (v *MutableVec[T]) Values() []T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshot()
}

func (v *MutableVec[T]) Replace(values []T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.checkOpen(KindReplace)
	v.values = append(v.values[:0], values...)
	v.broadcast(Replace[T]{Values: v.snapshot()})
}

func (v *MutableVec[T]) InsertAt(index int, value T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.apply(InsertAt[T]{Index: index, Value: value})
}

func (v *MutableVec[T]) SetAt(index int, value T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.apply(UpdateAt[T]{Index: index, Value: value})
}

func (v *MutableVec[T]) RemoveAt(index int) T {
	v.mu.Lock()
	defer v.mu.Unlock()
	checkIndex("remove", index, len(v.values))
	value := v.values[index]
	v.apply(RemoveAt[T]{Index: index})
	return value
}

// Move relocates the value at oldIndex so that it ends up at newIndex.
func (v *MutableVec[T]) Move(oldIndex, newIndex int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.apply(Move[T]{OldIndex: oldIndex, NewIndex: newIndex})
}

func (v *MutableVec[T]) Push(value T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.apply(Push[T]{Value: value})
}

func (v *MutableVec[T]) Pop() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.values) == 0 {
		panic(errors.Errorf("signalvec: pop from empty vec"))
	}
	value := v.values[len(v.values)-1]
	v.apply(Pop[T]{})
	return value
}

func (v *MutableVec[T]) Clear() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.apply(Clear[T]{})
}

// Close ends every subscription. Subscribers still receive the diffs that
// were queued before Close. Mutating a closed vec panics.
func (v *MutableVec[T]) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.closed = true
	for _, sub := range v.subs {
		sub.wake()
	}
}

// apply expects the lock to be held.
func (v *MutableVec[T]) apply(diff Diff[T]) {
	v.checkOpen(diff.Kind())
	v.values = Apply(v.values, diff)
	v.broadcast(diff)
}

func (v *MutableVec[T]) checkOpen(kind Kind) {
	if v.closed {
		panic(errors.Errorf("signalvec: %s on closed vec", kind))
	}
}

func (v *MutableVec[T]) broadcast(diff Diff[T]) {
	for _, sub := range v.subs {
		sub.queue = append(sub.queue, diff)
		sub.wake()
	}
}

func (v *MutableVec[T]) snapshot() []T {
	return append(make([]T, 0, len(v.values)), v.values...)
}

type vecSignal[T any] struct {
	vec   *MutableVec[T]
	queue []Diff[T]
	waker Waker
}

func (s *vecSignal[T]) PollChange(w Waker) Poll[T] {
	s.vec.mu.Lock()
	defer s.vec.mu.Unlock()

	if len(s.queue) > 0 {
		diff := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		return Ready[T](diff)
	}

	if s.vec.closed {
		return Ended[T]()
	}

	s.waker = w
	return Pending[T]()
}

// wake expects the vec lock to be held.
func (s *vecSignal[T]) wake() {
	if s.waker == nil {
		return
	}
	w := s.waker
	s.waker = nil
	if vecLogger.IsTraceEnabled() {
		vecLogger.Tracef("waking subscriber with %d queued diffs", len(s.queue))
	}
	w.Wake()
}
