package signalvec

import (
	"github.com/juju/errors"
)

// Ordering is the result of comparing a Left item against a Right item.
type Ordering int8

const (
	// Less places the Left item before the Right item.
	Less Ordering = iota - 1
	// Equal has no defined placement; see TieBreak.
	Equal
	// Greater places the Right item before the Left item.
	Greater
)

func (o Ordering) String() string {
	switch o {
	case Less:
		return "less"
	case Equal:
		return "equal"
	case Greater:
		return "greater"
	}
	return "unknown"
}

// OrderFunc decides the relative placement of a Left item and a Right item.
type OrderFunc[L, R any] func(left L, right R) Ordering

// TieBreak decides how Merge places items for which the OrderFunc returns Equal.
type TieBreak uint8

const (
	// TiePanic treats Equal as a programming error.
	TiePanic TieBreak = iota
	// TieLeftFirst places the Left item first.
	TieLeftFirst
	// TieRightFirst places the Right item first.
	TieRightFirst
)

// leftFirst reports whether the left item goes before the right item.
func (t TieBreak) leftFirst(o Ordering) bool {
	switch o {
	case Less:
		return true
	case Greater:
		return false
	case Equal:
		switch t {
		case TieLeftFirst:
			return true
		case TieRightFirst:
			return false
		}
		panic(errors.Errorf("signalvec: order function returned Equal, which has no defined placement without a tie break"))
	}
	panic(errors.Errorf("signalvec: invalid ordering %d", o))
}
