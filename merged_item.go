package signalvec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/juju/errors"
)

// Side tells which upstream of a Merge an item or diff originates from.
type Side uint8

const (
	SideLeft Side = iota
	SideRight
)

func (s Side) String() string {
	if s == SideRight {
		return "right"
	}
	return "left"
}

// MergedItem is an element of a Merge output: either a Left value or a Right value.
type MergedItem[L, R any] struct {
	side  Side
	left  L
	right R
}

func LeftItem[L, R any](value L) MergedItem[L, R] {
	return MergedItem[L, R]{side: SideLeft, left: value}
}

func RightItem[L, R any](value R) MergedItem[L, R] {
	return MergedItem[L, R]{side: SideRight, right: value}
}

func (m MergedItem[L, R]) Side() Side    { return m.side }
func (m MergedItem[L, R]) IsLeft() bool  { return m.side == SideLeft }
func (m MergedItem[L, R]) IsRight() bool { return m.side == SideRight }

// Left returns the Left value, panicking if the item is a Right value.
func (m MergedItem[L, R]) Left() L {
	if m.side != SideLeft {
		panic("signalvec: called MergedItem.Left() on a Right value")
	}
	return m.left
}

// Right returns the Right value, panicking if the item is a Left value.
func (m MergedItem[L, R]) Right() R {
	if m.side != SideRight {
		panic("signalvec: called MergedItem.Right() on a Left value")
	}
	return m.right
}

func (m MergedItem[L, R]) String() string {
	if m.side == SideRight {
		return fmt.Sprintf("Right(%v)", m.right)
	}
	return fmt.Sprintf("Left(%v)", m.left)
}

type mergedItemJSON struct {
	Left  json.RawMessage `json:"left,omitempty"`
	Right json.RawMessage `json:"right,omitempty"`
}

// MarshalJSON encodes the item as {"left": value} or {"right": value}.
func (m MergedItem[L, R]) MarshalJSON() ([]byte, error) {
	var (
		raw []byte
		err error
	)

	if m.side == SideRight {
		raw, err = json.Marshal(m.right)
	} else {
		raw, err = json.Marshal(m.left)
	}
	if err != nil {
		return nil, err
	}

	if m.side == SideRight {
		return json.Marshal(mergedItemJSON{Right: raw})
	}
	return json.Marshal(mergedItemJSON{Left: raw})
}

func (m *MergedItem[L, R]) UnmarshalJSON(data []byte) error {
	var envelope mergedItemJSON
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&envelope); err != nil {
		return errors.Annotate(err, "decoding merged item")
	}

	switch {
	case envelope.Left != nil && envelope.Right == nil:
		var value L
		if err := json.Unmarshal(envelope.Left, &value); err != nil {
			return errors.Annotate(err, "decoding left value")
		}
		*m = LeftItem[L, R](value)
	case envelope.Right != nil && envelope.Left == nil:
		var value R
		if err := json.Unmarshal(envelope.Right, &value); err != nil {
			return errors.Annotate(err, "decoding right value")
		}
		*m = RightItem[L](value)
	default:
		return errors.NotValidf("merged item %s", data)
	}

	return nil
}
