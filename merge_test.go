package signalvec_test

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/snowcat-chat/signalvec"
	"github.com/snowcat-chat/signalvec/pkg/signalvectest"
	"github.com/stretchr/testify/require"
)

type (
	message      = signalvectest.Message
	notification = signalvectest.Notification
	timeline     = signalvec.MergedItem[message, notification]
)

// timelineFixture merges two live vecs so that each side can be mutated on its own.
type timelineFixture struct {
	messages      *signalvec.MutableVec[message]
	notifications *signalvec.MutableVec[notification]
	merged        *signalvec.Merge[message, notification]
	items         []timeline
}

func newTimeline(options signalvec.Options) *timelineFixture {
	f := &timelineFixture{
		messages:      signalvec.NewMutableVec[message](),
		notifications: signalvec.NewMutableVec[notification](),
	}
	f.merged = signalvec.NewMergeWithOptions[message, notification](options, f.messages.Signal(), f.notifications.Signal(), signalvectest.ByTime)
	return f
}

// fullTimeline returns a fixture with every message and notification merged.
func fullTimeline(t *testing.T) *timelineFixture {
	f := newTimeline(signalvec.DefaultOptions)
	f.messages.Replace(signalvectest.Messages())
	f.notifications.Replace(signalvectest.Notifications())
	f.drain(t)
	return f
}

// drain returns the emitted diffs and checks that each side keeps the order of its own vec.
func (f *timelineFixture) drain(t *testing.T) signalvec.Changes[timeline] {
	t.Helper()
	changes := signalvectest.Drain[timeline](f.merged)
	f.items = changes.Apply(f.items)

	var messages []message
	var notifications []notification
	for _, item := range f.items {
		if item.IsLeft() {
			messages = append(messages, item.Left())
		} else {
			notifications = append(notifications, item.Right())
		}
	}
	require.Equal(t, len(f.items), f.merged.Len())
	require.Equal(t, f.messages.Values(), append([]message{}, messages...))
	require.Equal(t, f.notifications.Values(), append([]notification{}, notifications...))
	return changes
}

func (f *timelineFixture) ids() []string {
	return signalvectest.IDs(f.items)
}

var interleaved = []string{"m0", "n0", "m1", "m2", "m3", "n1", "n2", "n3", "m4", "n4", "m5", "m6", "m7", "n5"}

func indices(t *testing.T, changes signalvec.Changes[timeline]) []int {
	t.Helper()
	var result []int
	for _, diff := range changes {
		switch diff := diff.(type) {
		case signalvec.InsertAt[timeline]:
			result = append(result, diff.Index)
		case signalvec.RemoveAt[timeline]:
			result = append(result, diff.Index)
		case signalvec.UpdateAt[timeline]:
			result = append(result, diff.Index)
		case signalvec.Pop[timeline]:
			result = append(result, -1)
		default:
			t.Fatalf("unexpected diff %v", diff)
		}
	}
	return result
}

func TestMergeReplace(t *testing.T) {
	left := signalvectest.Diffs[message](signalvec.Replace[message]{Values: signalvectest.Messages()})
	right := signalvectest.Diffs[notification](signalvec.Replace[notification]{Values: signalvectest.Notifications()})
	merged := signalvec.NewMerge[message, notification](left, right, signalvectest.ByTime)

	polls := signalvectest.Polls[timeline](merged)
	require.Equal(t, []signalvec.Status{signalvec.StatusReady, signalvec.StatusReady, signalvec.StatusEnded}, signalvectest.Statuses(polls))

	// Both sides are ready; the left Replace goes first.
	first := polls[0].Diff.(signalvec.Replace[timeline]).Values
	require.Equal(t, []string{"m0", "m1", "m2", "m3", "m4", "m5", "m6", "m7"}, signalvectest.IDs(first))

	second := polls[1].Diff.(signalvec.Replace[timeline]).Values
	require.Equal(t, interleaved, signalvectest.IDs(second))
}

func TestMergeReplaceKeepsOtherSide(t *testing.T) {
	f := fullTimeline(t)
	require.Equal(t, interleaved, f.ids())

	f.messages.Replace([]message{{ID: "x", Time: time.Date(2022, 7, 17, 15, 0, 0, 0, time.UTC)}})
	changes := f.drain(t)
	require.Len(t, changes, 1)
	require.Equal(t, []string{"n0", "n1", "x", "n2", "n3", "n4", "n5"}, f.ids())
}

func TestMergeInsert(t *testing.T) {
	f := newTimeline(signalvec.DefaultOptions)
	for i, m := range signalvectest.Messages() {
		f.messages.InsertAt(i, m)
	}
	require.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7}, indices(t, f.drain(t)))

	for i, n := range signalvectest.Notifications() {
		f.notifications.InsertAt(i, n)
	}
	require.Equal(t, []int{1, 5, 6, 7, 9, 13}, indices(t, f.drain(t)))
	require.Equal(t, interleaved, f.ids())
}

func TestMergeInsertIntoOtherSide(t *testing.T) {
	f := newTimeline(signalvec.DefaultOptions)
	f.notifications.Replace(signalvectest.Notifications())
	f.drain(t)

	for i, m := range signalvectest.Messages() {
		f.messages.InsertAt(i, m)
	}
	require.Equal(t, []int{0, 2, 3, 4, 8, 10, 11, 12}, indices(t, f.drain(t)))
	require.Equal(t, interleaved, f.ids())
}

func TestMergePush(t *testing.T) {
	f := fullTimeline(t)

	f.messages.Push(message{ID: "m8", Time: time.Date(2022, 7, 17, 22, 0, 0, 0, time.UTC)})
	changes := f.drain(t)
	require.Len(t, changes, 1)
	require.IsType(t, signalvec.Push[timeline]{}, changes[0])

	// The pushed notification is older than the last message.
	f.notifications.Push(notification{ID: "n6", Time: time.Date(2022, 7, 17, 21, 50, 0, 0, time.UTC)})
	require.Equal(t, []int{14}, indices(t, f.drain(t)))
	require.Equal(t, append(append([]string{}, interleaved...), "n6", "m8"), f.ids())
}

func TestMergeUpdate(t *testing.T) {
	f := fullTimeline(t)

	m := f.messages.Get(1)
	m.ID = "m1'"
	f.messages.SetAt(1, m)
	require.Equal(t, []int{2}, indices(t, f.drain(t)))

	n := f.notifications.Get(4)
	n.ID = "n4'"
	f.notifications.SetAt(4, n)
	require.Equal(t, []int{9}, indices(t, f.drain(t)))
	require.Equal(t, "m1'", f.ids()[2])
	require.Equal(t, "n4'", f.ids()[9])
}

func TestMergeRemove(t *testing.T) {
	f := fullTimeline(t)

	f.messages.RemoveAt(2)
	f.notifications.RemoveAt(4)
	require.Equal(t, []int{3, 8}, indices(t, f.drain(t)))
	require.Equal(t, []string{"m0", "n0", "m1", "m3", "n1", "n2", "n3", "m4", "m5", "m6", "m7", "n5"}, f.ids())
}

func TestMergeRemoveSequence(t *testing.T) {
	f := fullTimeline(t)

	f.messages.RemoveAt(2)
	f.messages.RemoveAt(3)
	require.Equal(t, signalvec.Changes[timeline]{
		signalvec.RemoveAt[timeline]{Index: 3},
		signalvec.RemoveAt[timeline]{Index: 7},
	}, f.drain(t))
	require.Equal(t, []string{"m0", "n0", "m1", "m3", "n1", "n2", "n3", "n4", "m5", "m6", "m7", "n5"}, f.ids())
}

func TestMergeReplaceSameValues(t *testing.T) {
	f := fullTimeline(t)
	before := f.ids()

	f.messages.Replace(signalvectest.Messages())
	f.notifications.Replace(signalvectest.Notifications())
	changes := f.drain(t)
	require.Len(t, changes, 2)
	require.Equal(t, before, f.ids())
}

func TestMergeMove(t *testing.T) {
	f := fullTimeline(t)

	f.messages.Move(2, 7)
	require.Equal(t, signalvec.Changes[timeline]{signalvec.Move[timeline]{OldIndex: 3, NewIndex: 12}}, f.drain(t))

	f.notifications.Move(0, 5)
	require.Equal(t, signalvec.Changes[timeline]{signalvec.Move[timeline]{OldIndex: 1, NewIndex: 13}}, f.drain(t))

	// Moves are spliced as they are, without placing them by time again.
	require.Equal(t, []string{"m0", "m1", "m3", "n1", "n2", "n3", "m4", "n4", "m5", "m6", "m7", "m2", "n5", "n0"}, f.ids())
}

func TestMergePop(t *testing.T) {
	f := fullTimeline(t)
	for range signalvectest.Messages() {
		f.messages.Pop()
	}
	require.Equal(t, []int{12, 11, 10, 8, 4, 3, 2, 0}, indices(t, f.drain(t)))

	f = fullTimeline(t)
	for range signalvectest.Notifications() {
		f.notifications.Pop()
	}
	require.Equal(t, []int{-1, 9, 7, 6, 5, 1}, indices(t, f.drain(t)))
	require.Equal(t, []string{"m0", "m1", "m2", "m3", "m4", "m5", "m6", "m7"}, f.ids())
}

func TestMergeClear(t *testing.T) {
	f := fullTimeline(t)

	f.messages.Clear()
	changes := f.drain(t)
	require.Len(t, changes, 1)
	require.Equal(t, []string{"n0", "n1", "n2", "n3", "n4", "n5"}, f.ids())
	require.IsType(t, signalvec.Replace[timeline]{}, changes[0])

	f.notifications.Clear()
	require.Equal(t, signalvec.Changes[timeline]{signalvec.Clear[timeline]{}}, f.drain(t))
	require.Empty(t, f.ids())
}

func TestMergePriority(t *testing.T) {
	m0, n0 := signalvectest.Messages()[0], signalvectest.Notifications()[0]

	for _, tc := range []struct {
		name  string
		left  []signalvec.Diff[message]
		right []signalvec.Diff[notification]
		kinds []signalvec.Kind
		ids   []string
	}{
		{
			name:  "right replace before left push",
			left:  []signalvec.Diff[message]{signalvec.Push[message]{Value: m0}},
			right: []signalvec.Diff[notification]{signalvec.Replace[notification]{Values: []notification{n0}}},
			kinds: []signalvec.Kind{signalvec.KindReplace, signalvec.KindInsertAt},
			ids:   []string{"m0", "n0"},
		},
		{
			name:  "left replace before right replace",
			left:  []signalvec.Diff[message]{signalvec.Replace[message]{Values: []message{m0}}},
			right: []signalvec.Diff[notification]{signalvec.Replace[notification]{Values: []notification{n0}}},
			kinds: []signalvec.Kind{signalvec.KindReplace, signalvec.KindReplace},
			ids:   []string{"m0", "n0"},
		},
		{
			name:  "left clear after right push",
			left:  []signalvec.Diff[message]{signalvec.Clear[message]{}},
			right: []signalvec.Diff[notification]{signalvec.Push[notification]{Value: n0}},
			kinds: []signalvec.Kind{signalvec.KindPush, signalvec.KindReplace},
			ids:   []string{"n0"},
		},
		{
			name:  "equal kinds go left first",
			left:  []signalvec.Diff[message]{signalvec.Push[message]{Value: m0}},
			right: []signalvec.Diff[notification]{signalvec.Push[notification]{Value: n0}},
			kinds: []signalvec.Kind{signalvec.KindPush, signalvec.KindPush},
			ids:   []string{"m0", "n0"},
		},
		{
			name:  "left push before right insert",
			left:  []signalvec.Diff[message]{signalvec.Push[message]{Value: m0}},
			right: []signalvec.Diff[notification]{signalvec.InsertAt[notification]{Index: 0, Value: n0}},
			kinds: []signalvec.Kind{signalvec.KindPush, signalvec.KindInsertAt},
			ids:   []string{"m0", "n0"},
		},
		{
			name:  "left remove before right update",
			left:  []signalvec.Diff[message]{signalvec.Replace[message]{Values: []message{m0}}, signalvec.RemoveAt[message]{Index: 0}},
			right: []signalvec.Diff[notification]{signalvec.Push[notification]{Value: n0}, signalvec.UpdateAt[notification]{Index: 0, Value: n0}},
			kinds: []signalvec.Kind{signalvec.KindReplace, signalvec.KindPush, signalvec.KindRemoveAt, signalvec.KindUpdateAt},
			ids:   []string{"n0"},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			merged := signalvec.NewMerge[message, notification](signalvectest.Diffs[message](tc.left...), signalvectest.Diffs[notification](tc.right...), signalvectest.ByTime)
			changes := signalvectest.Ready(signalvectest.Polls[timeline](merged))

			var kinds []signalvec.Kind
			for _, diff := range changes {
				kinds = append(kinds, diff.Kind())
			}
			require.Equal(t, tc.kinds, kinds)
			require.Equal(t, tc.ids, signalvectest.IDs(changes.Apply(nil)))
		})
	}
}

func TestMergeRightPushBeforeLeftInsert(t *testing.T) {
	m0, n0 := signalvectest.Messages()[0], signalvectest.Notifications()[0]

	// The push of the right side is processed first and becomes the tail; the
	// left insert then goes in front of it.
	merged := signalvec.NewMerge[message, notification](
		signalvectest.Diffs[message](signalvec.InsertAt[message]{Index: 0, Value: m0}),
		signalvectest.Diffs[notification](signalvec.Push[notification]{Value: n0}),
		signalvectest.ByTime,
	)
	changes := signalvectest.Ready(signalvectest.Polls[timeline](merged))
	require.Equal(t, signalvec.Changes[timeline]{
		signalvec.Push[timeline]{Value: signalvec.RightItem[message](n0)},
		signalvec.InsertAt[timeline]{Index: 0, Value: signalvec.LeftItem[message, notification](m0)},
	}, changes)
}

func TestMergeTies(t *testing.T) {
	at := time.Date(2022, 7, 17, 12, 0, 0, 0, time.UTC)
	m := message{ID: "m", Time: at}
	n := notification{ID: "n", Time: at}

	merge := func(options signalvec.Options) []string {
		merged := signalvec.NewMergeWithOptions[message, notification](options,
			signalvectest.Diffs[message](signalvec.Push[message]{Value: m}),
			signalvectest.Diffs[notification](signalvec.Push[notification]{Value: n}),
			signalvectest.ByTime,
		)
		return signalvectest.IDs(signalvectest.Ready(signalvectest.Polls[timeline](merged)).Apply(nil))
	}

	require.Panics(t, func() { merge(signalvec.DefaultOptions) })
	require.Equal(t, []string{"m", "n"}, merge(signalvec.DefaultOptions.WithTieBreak(signalvec.TieLeftFirst)))
	require.Equal(t, []string{"n", "m"}, merge(signalvec.DefaultOptions.WithTieBreak(signalvec.TieRightFirst)))
}

func TestMergeEnded(t *testing.T) {
	left := signalvectest.NewScript[message](
		signalvectest.Emit[message](signalvec.Push[message]{Value: signalvectest.Messages()[0]}),
	)
	right := signalvectest.NewScript[notification](
		signalvectest.Wait[notification](),
		signalvectest.Wait[notification](),
		signalvectest.Emit[notification](signalvec.Push[notification]{Value: signalvectest.Notifications()[0]}),
	)
	merged := signalvec.NewMerge[message, notification](left, right, signalvectest.ByTime)

	polls := signalvectest.Polls[timeline](merged)
	require.Equal(t, []signalvec.Status{
		signalvec.StatusReady,
		signalvec.StatusPending,
		signalvec.StatusReady,
		signalvec.StatusEnded,
	}, signalvectest.Statuses(polls))

	// The left side ended on the second poll and is not polled again.
	require.Equal(t, 2, left.Polls())
	require.Equal(t, 0, right.Remaining())
}

func TestMergePendingWhileOtherSideEnded(t *testing.T) {
	vec := signalvec.NewMutableVec[notification]()
	merged := signalvec.NewMerge[message, notification](signalvectest.Diffs[message](), vec.Signal(), signalvectest.ByTime)

	require.Equal(t, signalvec.StatusPending, merged.PollChange(signalvec.NoopWaker).Status)
	vec.Close()
	require.Equal(t, signalvec.StatusEnded, merged.PollChange(signalvec.NoopWaker).Status)
}

func compareInts(l, r int) signalvec.Ordering {
	switch {
	case l < r:
		return signalvec.Less
	case l > r:
		return signalvec.Greater
	}
	return signalvec.Equal
}

func TestMergeRandom(t *testing.T) {
	for seed := int64(0); seed < 50; seed++ {
		r := rand.New(rand.NewSource(seed))
		gen := signalvectest.Generator[int]{
			New:    func() int { return r.Intn(100) },
			Update: func(old int) int { return old + r.Intn(10) - 5 },
		}

		left := signalvec.NewMutableVec[int]()
		right := signalvec.NewMutableVec[int]()
		merged := signalvec.NewMergeWithOptions[int, int](
			signalvec.DefaultOptions.WithTieBreak(signalvec.TieRightFirst),
			left.Signal(), right.Signal(), compareInts,
		)

		var items []signalvec.MergedItem[int, int]
		for step := 0; step < 80; step++ {
			vec := left
			if r.Intn(2) == 0 {
				vec = right
			}
			diff := signalvectest.RandomDiff(r, vec.Values(), gen)
			signalvectest.Mutate(vec, diff)
			items = signalvectest.Drain[signalvec.MergedItem[int, int]](merged).Apply(items)

			lefts, rights := []int{}, []int{}
			for _, item := range items {
				if item.IsLeft() {
					lefts = append(lefts, item.Left())
				} else {
					rights = append(rights, item.Right())
				}
			}
			require.Equal(t, left.Values(), lefts, fmt.Sprintf("seed %d step %d after %v", seed, step, diff))
			require.Equal(t, right.Values(), rights, fmt.Sprintf("seed %d step %d after %v", seed, step, diff))
		}
	}
}

// sortedDiff returns a diff which keeps values sorted. Every generated value
// has the given parity, so values from different sides never compare equal.
func sortedDiff(r *rand.Rand, values []int, parity int) signalvec.Diff[int] {
	value := func() int { return 2*r.Intn(50) + parity }
	n := len(values)

	switch r.Intn(12) {
	case 0:
		replacement := make([]int, r.Intn(6))
		for i := range replacement {
			replacement[i] = value()
		}
		sort.Ints(replacement)
		return signalvec.Replace[int]{Values: replacement}
	case 1:
		return signalvec.Clear[int]{}
	case 2, 3, 4:
		if n > 0 {
			return signalvec.RemoveAt[int]{Index: r.Intn(n)}
		}
	case 5, 6:
		v := value()
		if n > 0 && v < values[n-1] {
			v = values[n-1]
		}
		return signalvec.Push[int]{Value: v}
	case 7:
		if n > 0 {
			return signalvec.Pop[int]{}
		}
	}

	v := value()
	return signalvec.InsertAt[int]{Index: sort.SearchInts(values, v), Value: v}
}

func TestMergeRandomSortedSides(t *testing.T) {
	for seed := int64(0); seed < 100; seed++ {
		r := rand.New(rand.NewSource(seed))
		left := signalvec.NewMutableVec[int]()
		right := signalvec.NewMutableVec[int]()
		merged := signalvec.NewMerge[int, int](left.Signal(), right.Signal(), compareInts)

		var items []signalvec.MergedItem[int, int]
		for step := 0; step < 100; step++ {
			vec, parity := left, 0
			if r.Intn(2) == 0 {
				vec, parity = right, 1
			}
			diff := sortedDiff(r, vec.Values(), parity)
			signalvectest.Mutate(vec, diff)
			items = signalvectest.Drain[signalvec.MergedItem[int, int]](merged).Apply(items)

			require.Len(t, items, left.Len()+right.Len())
			for i := 1; i < len(items); i++ {
				a, b := items[i-1], items[i]
				switch {
				case a.IsLeft() && b.IsRight():
					require.Less(t, a.Left(), b.Right(), "seed %d step %d after %v at %d", seed, step, diff, i)
				case a.IsRight() && b.IsLeft():
					require.Less(t, a.Right(), b.Left(), "seed %d step %d after %v at %d", seed, step, diff, i)
				}
			}
		}
	}
}
