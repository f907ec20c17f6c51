package signalvec

// Ranks used when both sides of a Merge are ready at the same time. They
// follow the declaration order of Kind.
//
//	left \ right  Replace  Clear  other
//	Replace       left     left   left
//	Clear         right    right  right
//	other         right    right  left if rank(right) <= rank(left)
//
// The losing diff is queued and processed on the next poll, so the table only
// decides ordering, never whether a diff is processed.
func prioritiseLeft(left, right Kind) bool {
	switch {
	case left == KindReplace:
		return true
	case right == KindReplace:
		return false
	case left == KindClear:
		return false
	}
	return right <= left
}
