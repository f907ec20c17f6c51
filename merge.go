package signalvec

import (
	"github.com/juju/errors"
	"github.com/juju/loggo"
)

// Merge interleaves two sources into a single ordered collection, placing
// Left and Right items relative to each other with an OrderFunc. The relative
// order of the items of each side is always that of its own source.
//
// Merge is not safe for concurrent use.
type Merge[L, R any] struct {
	left     Source[L]
	right    Source[R]
	orderFn  OrderFunc[L, R]
	tieBreak TieBreak

	items []MergedItem[L, R]

	pendingLeft  []Diff[L]
	pendingRight []Diff[R]
	leftEnded    bool
	rightEnded   bool

	logger  loggo.Logger
	metrics *Metrics
}

// NewMerge merges left and right using the default options.
func NewMerge[L, R any](left Source[L], right Source[R], orderFn OrderFunc[L, R]) *Merge[L, R] {
	return NewMergeWithOptions(DefaultOptions, left, right, orderFn)
}

func NewMergeWithOptions[L, R any](options Options, left Source[L], right Source[R], orderFn OrderFunc[L, R]) *Merge[L, R] {
	return &Merge[L, R]{
		left:     left,
		right:    right,
		orderFn:  orderFn,
		tieBreak: options.tieBreak,
		logger:   options.loggerFor("signalvec.merge"),
		metrics:  options.metrics,
	}
}

// Len returns the number of items in the merged collection.
func (m *Merge[L, R]) Len() int {
	return len(m.items)
}

func (m *Merge[L, R]) PollChange(w Waker) Poll[MergedItem[L, R]] {
	defer func() {
		m.metrics.setPending(OperatorMerge, len(m.pendingLeft)+len(m.pendingRight))
	}()

	left := m.pollLeft(w)
	right := m.pollRight(w)

	switch {
	case left.Status == StatusReady && right.Status == StatusReady:
		if prioritiseLeft(left.Diff.Kind(), right.Diff.Kind()) {
			m.logger.Tracef("priority is left (%s over %s)", left.Diff.Kind(), right.Diff.Kind())
			m.pendingRight = append([]Diff[R]{right.Diff}, m.pendingRight...)
			return m.emit(m.processLeft(left.Diff))
		}
		m.logger.Tracef("priority is right (%s over %s)", right.Diff.Kind(), left.Diff.Kind())
		m.pendingLeft = append([]Diff[L]{left.Diff}, m.pendingLeft...)
		return m.emit(m.processRight(right.Diff))
	case left.Status == StatusReady:
		return m.emit(m.processLeft(left.Diff))
	case right.Status == StatusReady:
		return m.emit(m.processRight(right.Diff))
	case left.Status == StatusEnded && right.Status == StatusEnded:
		return Ended[MergedItem[L, R]]()
	}

	return Pending[MergedItem[L, R]]()
}

func (m *Merge[L, R]) pollLeft(w Waker) Poll[L] {
	if len(m.pendingLeft) > 0 {
		diff := m.pendingLeft[0]
		m.pendingLeft = m.pendingLeft[1:]
		return Ready[L](diff)
	}
	if m.leftEnded {
		return Ended[L]()
	}

	poll := m.left.PollChange(w)
	switch poll.Status {
	case StatusEnded:
		m.leftEnded = true
	case StatusReady:
		m.metrics.observe(OperatorMerge, DirectionIn, poll.Diff.Kind())
	}
	return poll
}

func (m *Merge[L, R]) pollRight(w Waker) Poll[R] {
	if len(m.pendingRight) > 0 {
		diff := m.pendingRight[0]
		m.pendingRight = m.pendingRight[1:]
		return Ready[R](diff)
	}
	if m.rightEnded {
		return Ended[R]()
	}

	poll := m.right.PollChange(w)
	switch poll.Status {
	case StatusEnded:
		m.rightEnded = true
	case StatusReady:
		m.metrics.observe(OperatorMerge, DirectionIn, poll.Diff.Kind())
	}
	return poll
}

func (m *Merge[L, R]) emit(diff Diff[MergedItem[L, R]]) Poll[MergedItem[L, R]] {
	m.metrics.observe(OperatorMerge, DirectionOut, diff.Kind())
	return Ready[MergedItem[L, R]](diff)
}

func (m *Merge[L, R]) processLeft(diff Diff[L]) Diff[MergedItem[L, R]] {
	switch diff := diff.(type) {
	case Replace[L]:
		values := make([]MergedItem[L, R], len(diff.Values))
		for i, value := range diff.Values {
			values[i] = LeftItem[L, R](value)
		}
		return m.replace(SideLeft, values)
	case InsertAt[L]:
		return m.insert(SideLeft, diff.Index, LeftItem[L, R](diff.Value), false)
	case UpdateAt[L]:
		return m.update(SideLeft, diff.Index, LeftItem[L, R](diff.Value))
	case RemoveAt[L]:
		return m.remove(SideLeft, diff.Index)
	case Move[L]:
		return m.move(SideLeft, diff.OldIndex, diff.NewIndex)
	case Push[L]:
		return m.insert(SideLeft, m.count(SideLeft), LeftItem[L, R](diff.Value), true)
	case Pop[L]:
		return m.pop(SideLeft)
	case Clear[L]:
		return m.clear(SideLeft)
	}

	panic(errors.Errorf("unknown diff: %#v", diff))
}

func (m *Merge[L, R]) processRight(diff Diff[R]) Diff[MergedItem[L, R]] {
	switch diff := diff.(type) {
	case Replace[R]:
		values := make([]MergedItem[L, R], len(diff.Values))
		for i, value := range diff.Values {
			values[i] = RightItem[L](value)
		}
		return m.replace(SideRight, values)
	case InsertAt[R]:
		return m.insert(SideRight, diff.Index, RightItem[L](diff.Value), false)
	case UpdateAt[R]:
		return m.update(SideRight, diff.Index, RightItem[L](diff.Value))
	case RemoveAt[R]:
		return m.remove(SideRight, diff.Index)
	case Move[R]:
		return m.move(SideRight, diff.OldIndex, diff.NewIndex)
	case Push[R]:
		return m.insert(SideRight, m.count(SideRight), RightItem[L](diff.Value), true)
	case Pop[R]:
		return m.pop(SideRight)
	case Clear[R]:
		return m.clear(SideRight)
	}

	panic(errors.Errorf("unknown diff: %#v", diff))
}

// before reports whether a goes before b. The items come from different sides.
func (m *Merge[L, R]) before(a, b MergedItem[L, R]) bool {
	if a.IsLeft() {
		return m.tieBreak.leftFirst(m.orderFn(a.left, b.right))
	}
	return !m.tieBreak.leftFirst(m.orderFn(b.left, a.right))
}

// replace rebuilds the output from the new values of one side and the
// retained items of the other side, keeping the retained items in order.
func (m *Merge[L, R]) replace(side Side, values []MergedItem[L, R]) Diff[MergedItem[L, R]] {
	retained := make([]MergedItem[L, R], 0, len(m.items))
	for _, item := range m.items {
		if item.side != side {
			retained = append(retained, item)
		}
	}

	items := make([]MergedItem[L, R], 0, len(values)+len(retained))
	for _, value := range values {
		for len(retained) > 0 && m.before(retained[0], value) {
			items = append(items, retained[0])
			retained = retained[1:]
		}
		items = append(items, value)
	}
	items = append(items, retained...)

	m.logger.Tracef("replaced %s side with %d values, %d items in total", side, len(values), len(items))
	m.items = items
	return Replace[MergedItem[L, R]]{Values: m.snapshot()}
}

// insert places item so that it becomes the index-th item of its side. The
// position is searched in the gap between its same-side neighbours, skipping
// the opposite-side items that the order function places first.
func (m *Merge[L, R]) insert(side Side, index int, item MergedItem[L, R], push bool) Diff[MergedItem[L, R]] {
	count := m.count(side)
	if index < 0 || index > count {
		panic(errors.Errorf("signalvec: %s insert index %d out of range [0, %d]", side, index, count))
	}

	low := 0
	if index > 0 {
		low = m.position(side, index-1) + 1
	}
	high := len(m.items)
	if index < count {
		high = m.position(side, index)
	}

	position := low
	for position < high && m.before(m.items[position], item) {
		position++
	}

	m.logger.Tracef("inserting %s item %d at %d (searched [%d, %d))", side, index, position, low, high)
	m.items = insertAt(m.items, position, item)

	if push && position == len(m.items)-1 {
		return Push[MergedItem[L, R]]{Value: item}
	}
	return InsertAt[MergedItem[L, R]]{Index: position, Value: item}
}

func (m *Merge[L, R]) update(side Side, index int, item MergedItem[L, R]) Diff[MergedItem[L, R]] {
	position := m.position(side, index)
	m.items[position] = item
	return UpdateAt[MergedItem[L, R]]{Index: position, Value: item}
}

func (m *Merge[L, R]) remove(side Side, index int) Diff[MergedItem[L, R]] {
	position := m.position(side, index)
	m.items, _ = removeAt(m.items, position)
	return RemoveAt[MergedItem[L, R]]{Index: position}
}

// move splices an item to a new same-side position. The order against the
// other side is not checked again.
func (m *Merge[L, R]) move(side Side, oldIndex, newIndex int) Diff[MergedItem[L, R]] {
	oldPosition := m.position(side, oldIndex)
	newPosition := m.position(side, newIndex)

	var item MergedItem[L, R]
	m.items, item = removeAt(m.items, oldPosition)
	m.items = insertAt(m.items, newPosition, item)

	return Move[MergedItem[L, R]]{OldIndex: oldPosition, NewIndex: newPosition}
}

func (m *Merge[L, R]) pop(side Side) Diff[MergedItem[L, R]] {
	position := -1
	for i := len(m.items) - 1; i >= 0; i-- {
		if m.items[i].side == side {
			position = i
			break
		}
	}
	if position < 0 {
		panic(errors.Errorf("signalvec: pop from empty %s side", side))
	}

	last := position == len(m.items)-1
	m.items, _ = removeAt(m.items, position)
	if last {
		return Pop[MergedItem[L, R]]{}
	}
	return RemoveAt[MergedItem[L, R]]{Index: position}
}

func (m *Merge[L, R]) clear(side Side) Diff[MergedItem[L, R]] {
	items := m.items[:0]
	for _, item := range m.items {
		if item.side != side {
			items = append(items, item)
		}
	}
	m.items = items

	if len(m.items) == 0 {
		return Clear[MergedItem[L, R]]{}
	}
	return Replace[MergedItem[L, R]]{Values: m.snapshot()}
}

func (m *Merge[L, R]) count(side Side) int {
	count := 0
	for _, item := range m.items {
		if item.side == side {
			count++
		}
	}
	return count
}

// position returns the absolute index of the index-th item of a side.
func (m *Merge[L, R]) position(side Side, index int) int {
	if index >= 0 {
		seen := 0
		for i, item := range m.items {
			if item.side != side {
				continue
			}
			if seen == index {
				return i
			}
			seen++
		}
	}

	panic(errors.Errorf("signalvec: %s index %d out of range [0, %d)", side, index, m.count(side)))
}

func (m *Merge[L, R]) snapshot() []MergedItem[L, R] {
	return append([]MergedItem[L, R](nil), m.items...)
}
