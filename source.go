package signalvec

// Status is the outcome of polling a Source.
type Status uint8

const (
	// StatusPending means no diff is available yet. The source wakes the
	// waker it was polled with once it may have progressed.
	StatusPending Status = iota
	// StatusReady means Poll.Diff holds the next diff.
	StatusReady
	// StatusEnded means the stream is exhausted and will not produce more diffs.
	StatusEnded
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusReady:
		return "ready"
	case StatusEnded:
		return "ended"
	}
	return "unknown"
}

// Poll is the result of a single PollChange call.
type Poll[T any] struct {
	Status Status
	Diff   Diff[T]
}

func Ready[T any](diff Diff[T]) Poll[T] {
	return Poll[T]{Status: StatusReady, Diff: diff}
}

func Pending[T any]() Poll[T] {
	return Poll[T]{Status: StatusPending}
}

func Ended[T any]() Poll[T] {
	return Poll[T]{Status: StatusEnded}
}

// Waker is notified when a source that previously returned Pending may
// be able to make progress.
type Waker interface {
	Wake()
}

// WakerFunc adapts a plain function to the Waker interface.
type WakerFunc func()

func (f WakerFunc) Wake() { f() }

type noopWaker struct{}

func (noopWaker) Wake() {}

// NoopWaker ignores wake-ups. Useful when the caller re-polls on its own.
var NoopWaker Waker = noopWaker{}

// Source is a pull-based stream of diffs against an ordered collection.
//
// PollChange must never block. Both GroupByKey and Merge are sources
// themselves, so they compose.
type Source[T any] interface {
	PollChange(w Waker) Poll[T]
}

type replaySource[T any] struct {
	diffs []Diff[T]
}

// Replay returns a source which yields the given diffs in order and then ends.
func Replay[T any](diffs ...Diff[T]) Source[T] {
	return &replaySource[T]{diffs: diffs}
}

// Source returns a source replaying the recorded changes.
func (changes Changes[T]) Source() Source[T] {
	return Replay[T](changes...)
}

func (s *replaySource[T]) PollChange(_ Waker) Poll[T] {
	if len(s.diffs) == 0 {
		return Ended[T]()
	}

	diff := s.diffs[0]
	s.diffs = s.diffs[1:]
	return Ready[T](diff)
}
