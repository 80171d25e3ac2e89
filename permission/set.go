package permission

// Set is an immutable collection of granted checks.
type Set struct {
	exact    map[string]struct{}
	wildcard bool
}

// NewSet builds a Set from stored permission strings. Empty strings are ignored.
func NewSet(perms []string) Set {
	s := Set{exact: make(map[string]struct{}, len(perms))}
	for _, p := range perms {
		if p == "" {
			continue
		}
		c := Parse(p)
		if c.IsWildcard() {
			s.wildcard = true
			continue
		}
		s.exact[c.Name()] = struct{}{}
	}
	return s
}

// HasWildcard reports whether the set grants everything.
func (s Set) HasWildcard() bool {
	return s.wildcard
}

// Allows reports whether the set grants required.
func (s Set) Allows(required string) bool {
	if s.wildcard {
		return true
	}
	_, ok := s.exact[required]
	return ok
}

// Len returns the number of distinct grants, counting the wildcard once.
func (s Set) Len() int {
	n := len(s.exact)
	if s.wildcard {
		n++
	}
	return n
}
