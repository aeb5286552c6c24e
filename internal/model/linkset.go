package model

// LinkSet is an ordered set of absolute URLs.
//
// Entries are unique by exact string equality and keep first-seen order.
// The zero value is an empty set ready to use.
type LinkSet struct {
	urls []string
	seen map[string]struct{}
}

// NewLinkSet creates a set holding urls in order, skipping duplicates.
func NewLinkSet(urls ...string) *LinkSet {
	s := &LinkSet{}
	for _, u := range urls {
		s.Add(u)
	}
	return s
}

// Add appends u unless it is already present. It reports whether u was added.
func (s *LinkSet) Add(u string) bool {
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	if _, ok := s.seen[u]; ok {
		return false
	}
	s.seen[u] = struct{}{}
	s.urls = append(s.urls, u)
	return true
}

// Contains reports whether u is in the set.
func (s *LinkSet) Contains(u string) bool {
	if s == nil {
		return false
	}
	_, ok := s.seen[u]
	return ok
}

// Len returns the number of URLs in the set.
func (s *LinkSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.urls)
}

// URLs returns a copy of the set in insertion order.
func (s *LinkSet) URLs() []string {
	if s == nil {
		return []string{}
	}
	out := make([]string, len(s.urls))
	copy(out, s.urls)
	return out
}
