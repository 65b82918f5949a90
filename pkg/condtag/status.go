package condtag

// status is the filter state shared by both block evaluators during one
// render. It never outlives the render call that created it.
type status struct {
	filteredOut bool

	// set by an always directive until the next block directive
	alwaysPending       bool
	previousFilteredOut bool
}

// always forces the following fragments to render until the next block
// directive. A pending snapshot is kept so that consecutive always
// directives restore the state from before the first one.
func (s *status) always() {
	if !s.alwaysPending {
		s.previousFilteredOut = s.filteredOut
		s.alwaysPending = true
	}
	s.filteredOut = false
}

// restoreAlways undoes a pending always directive. Both evaluators call it
// before acting on a directive.
func (s *status) restoreAlways() bool {
	if !s.alwaysPending {
		return false
	}
	s.filteredOut = s.previousFilteredOut
	s.alwaysPending = false
	s.previousFilteredOut = false
	return true
}
