// Package signalvectest provides scripted sources and helpers for testing
// signalvec operators.
package signalvectest

import (
	"github.com/snowcat-chat/signalvec"
)

// Step is one scripted poll result.
type Step[T any] struct {
	pending bool
	diff    signalvec.Diff[T]
}

// Emit scripts a poll returning diff.
func Emit[T any](diff signalvec.Diff[T]) Step[T] {
	return Step[T]{diff: diff}
}

// Wait scripts a poll returning Pending. The waker is woken right away, so
// the consumer is allowed to poll again.
func Wait[T any]() Step[T] {
	return Step[T]{pending: true}
}

// Script is a source which plays back its steps and then ends.
type Script[T any] struct {
	steps []Step[T]
	polls int
}

func NewScript[T any](steps ...Step[T]) *Script[T] {
	return &Script[T]{steps: steps}
}

// Diffs scripts one Emit step per diff.
func Diffs[T any](diffs ...signalvec.Diff[T]) *Script[T] {
	steps := make([]Step[T], len(diffs))
	for i, diff := range diffs {
		steps[i] = Emit[T](diff)
	}
	return NewScript(steps...)
}

// Polls returns how often the script has been polled.
func (s *Script[T]) Polls() int {
	return s.polls
}

// Remaining returns the number of steps that have not been played yet.
func (s *Script[T]) Remaining() int {
	return len(s.steps)
}

func (s *Script[T]) PollChange(w signalvec.Waker) signalvec.Poll[T] {
	s.polls++
	if len(s.steps) == 0 {
		return signalvec.Ended[T]()
	}

	step := s.steps[0]
	s.steps = s.steps[1:]
	if step.pending {
		w.Wake()
		return signalvec.Pending[T]()
	}
	return signalvec.Ready[T](step.diff)
}
