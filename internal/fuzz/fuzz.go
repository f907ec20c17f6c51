package fuzz

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/snowcat-chat/signalvec"
	"github.com/snowcat-chat/signalvec/pkg/signalvectest"
)

// byteRand draws numbers from the fuzz input. It panics with exhausted once
// the input is used up.
type byteRand struct {
	data []byte
}

type exhausted struct{}

func (r *byteRand) Intn(n int) int {
	if len(r.data) == 0 {
		panic(exhausted{})
	}
	b := r.data[0]
	r.data = r.data[1:]
	return int(b) % n
}

// Fuzz interprets data as a sequence of mutations on two vecs. The vecs feed
// a Merge and the left one also feeds a GroupByKey; after every mutation the
// outputs are checked against the vecs.
func Fuzz(data []byte) (result int) {
	if len(data) < 2 {
		return -1
	}

	r := &byteRand{data: data}
	defer func() {
		if rec := recover(); rec != nil {
			if _, ok := rec.(exhausted); !ok {
				panic(rec)
			}
			result = 0
		}
	}()

	gen := signalvectest.Generator[int]{
		New:    func() int { return r.Intn(8) },
		Update: func(old int) int { return old },
	}
	key := func(v int) int { return v / 2 }
	compare := func(l, r int) signalvec.Ordering {
		switch {
		case l < r:
			return signalvec.Less
		case l > r:
			return signalvec.Greater
		}
		return signalvec.Equal
	}

	left := signalvec.NewMutableVec[int]()
	right := signalvec.NewMutableVec[int]()
	options := signalvec.DefaultOptions.WithTieBreak(signalvec.TieLeftFirst)

	merged := signalvec.NewMergeWithOptions[int, int](options, left.Signal(), right.Signal(), compare)
	grouped := signalvec.NewGroupByKeyWithOptions[int, int](options, left.Signal(), key)

	var recorded signalvec.Changes[signalvec.MergedItem[int, int]]
	var items []signalvec.MergedItem[int, int]
	groups := signalvectest.NewGroups[int, int]()

	for {
		vec := left
		if r.Intn(2) == 1 {
			vec = right
		}
		signalvectest.Mutate(vec, signalvectest.RandomDiff(r, vec.Values(), gen))

		changes := signalvectest.Drain[signalvec.MergedItem[int, int]](merged)
		recorded = append(recorded, changes...)
		items = changes.Apply(items)
		checkSides(items, left.Values(), right.Values())

		groups.Apply(signalvectest.Drain[*signalvec.Chunk[int, int]](grouped))
		checkGroups(groups.Snapshot(), left.Values(), key)

		checkRoundTrip(recorded)
	}
}

func checkSides(items []signalvec.MergedItem[int, int], left, right []int) {
	lefts, rights := []int{}, []int{}
	for _, item := range items {
		if item.IsLeft() {
			lefts = append(lefts, item.Left())
		} else {
			rights = append(rights, item.Right())
		}
	}
	if !reflect.DeepEqual(lefts, left) || !reflect.DeepEqual(rights, right) {
		panic(fmt.Sprintf("merge lost side order: %v does not match %v and %v", items, left, right))
	}
}

func checkGroups(groups []signalvectest.Group[int, int], values []int, key func(int) int) {
	flat := []int{}
	for i, g := range groups {
		if len(g.Items) == 0 {
			panic(fmt.Sprintf("chunk %d is empty", i))
		}
		if i > 0 && groups[i-1].Key == g.Key {
			panic(fmt.Sprintf("chunks %d and %d share key %d", i-1, i, g.Key))
		}
		for _, item := range g.Items {
			if key(item) != g.Key {
				panic(fmt.Sprintf("chunk %d with key %d holds %d", i, g.Key, item))
			}
		}
		flat = append(flat, g.Items...)
	}
	if !reflect.DeepEqual(flat, values) {
		panic(fmt.Sprintf("groups %v do not match %v", groups, values))
	}
}

func checkRoundTrip(changes signalvec.Changes[signalvec.MergedItem[int, int]]) {
	b, err := json.Marshal(changes)
	if err != nil {
		panic(err)
	}

	var decoded signalvec.Changes[signalvec.MergedItem[int, int]]
	if err := json.Unmarshal(b, &decoded); err != nil {
		panic(err)
	}
	if !reflect.DeepEqual(changes.Apply(nil), decoded.Apply(nil)) {
		panic("round trip changed the merged collection")
	}
}
