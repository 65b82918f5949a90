package condtag

// stack holds the bookkeeping frames of one block kind. Depth -1 means no
// block of that kind is open.
type stack[T any] struct {
	frames []T
}

func (s *stack[T]) depth() int {
	return len(s.frames) - 1
}

// push opens a new frame and returns a pointer to it. The pointer stays
// valid until the next push or pop.
func (s *stack[T]) push(frame T) *T {
	s.frames = append(s.frames, frame)
	return &s.frames[len(s.frames)-1]
}

// peek returns the innermost open frame, or nil when the stack is empty.
func (s *stack[T]) peek() *T {
	if len(s.frames) == 0 {
		return nil
	}
	return &s.frames[len(s.frames)-1]
}

// pop closes the innermost frame. It must not be called on an empty stack.
func (s *stack[T]) pop() T {
	n := len(s.frames) - 1
	frame := s.frames[n]
	var zero T
	s.frames[n] = zero
	s.frames = s.frames[:n]
	return frame
}

// mutate applies fn to the innermost frame, if any.
func (s *stack[T]) mutate(fn func(*T)) {
	if f := s.peek(); f != nil {
		fn(f)
	}
}
