package bingo

// indexSet keeps category indices in insertion order without duplicates.
type indexSet struct {
	order   []int
	members map[int]struct{}
}

func newIndexSet() indexSet {
	return indexSet{members: make(map[int]struct{})}
}

func (s *indexSet) add(i int) bool {
	if _, ok := s.members[i]; ok {
		return false
	}
	s.members[i] = struct{}{}
	s.order = append(s.order, i)
	return true
}

func (s *indexSet) has(i int) bool {
	_, ok := s.members[i]
	return ok
}

func (s *indexSet) len() int {
	return len(s.order)
}

func (s *indexSet) values() []int {
	out := make([]int, len(s.order))
	copy(out, s.order)
	return out
}
