package catalog

import "slices"

// LikedSet records which song ids are liked. It is the only place liked
// status lives; ids are kept in the order they were liked.
type LikedSet struct {
	members map[int]struct{}
	order   []int
}

// NewLikedSet creates an empty liked set.
func NewLikedSet() *LikedSet {
	return &LikedSet{members: make(map[int]struct{})}
}

// Has reports whether id is liked.
func (l *LikedSet) Has(id int) bool {
	_, ok := l.members[id]
	return ok
}

// Toggle flips the membership of id and returns the new membership.
func (l *LikedSet) Toggle(id int) bool {
	if l.Has(id) {
		delete(l.members, id)
		l.order = slices.DeleteFunc(l.order, func(v int) bool { return v == id })
		return false
	}
	l.members[id] = struct{}{}
	l.order = append(l.order, id)
	return true
}

// IDs returns the liked ids, oldest like first.
func (l *LikedSet) IDs() []int {
	return slices.Clone(l.order)
}

// Len returns the number of liked ids.
func (l *LikedSet) Len() int {
	return len(l.order)
}
