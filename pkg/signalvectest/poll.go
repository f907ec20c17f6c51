package signalvectest

import (
	"github.com/snowcat-chat/signalvec"
)

// maxPolls bounds Polls so that a misbehaving source fails a test instead of hanging it.
const maxPolls = 100000

type flagWaker struct {
	woken bool
}

func (w *flagWaker) Wake() { w.woken = true }

// Polls polls source until it ends, or until it returns Pending without
// having woken the waker. Every poll result is returned in order, including
// the final one.
func Polls[T any](source signalvec.Source[T]) []signalvec.Poll[T] {
	var polls []signalvec.Poll[T]
	for len(polls) < maxPolls {
		w := &flagWaker{}
		poll := source.PollChange(w)
		polls = append(polls, poll)

		switch poll.Status {
		case signalvec.StatusEnded:
			return polls
		case signalvec.StatusPending:
			if !w.woken {
				return polls
			}
		}
	}
	panic("signalvectest: source did not settle")
}

// Drain collects diffs until the first poll that is not ready.
func Drain[T any](source signalvec.Source[T]) signalvec.Changes[T] {
	var changes signalvec.Changes[T]
	for {
		poll := source.PollChange(signalvec.NoopWaker)
		if poll.Status != signalvec.StatusReady {
			return changes
		}
		changes = append(changes, poll.Diff)
	}
}

// Ready returns the diffs of the ready polls.
func Ready[T any](polls []signalvec.Poll[T]) signalvec.Changes[T] {
	var changes signalvec.Changes[T]
	for _, poll := range polls {
		if poll.Status == signalvec.StatusReady {
			changes = append(changes, poll.Diff)
		}
	}
	return changes
}

// Statuses returns the status of every poll.
func Statuses[T any](polls []signalvec.Poll[T]) []signalvec.Status {
	statuses := make([]signalvec.Status, len(polls))
	for i, poll := range polls {
		statuses[i] = poll.Status
	}
	return statuses
}

// Materialize applies the diffs to an empty collection.
func Materialize[T any](changes signalvec.Changes[T]) []T {
	values := changes.Apply(nil)
	if values == nil {
		return []T{}
	}
	return values
}
