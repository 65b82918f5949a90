package condtag

import (
	"errors"
	"fmt"
)

var (
	ErrMissingIf            = errors.New("directive must be inside an if block")
	ErrElseIfAfterElse      = errors.New("elseif must not occur after else")
	ErrDuplicateElse        = errors.New("only one else permitted per if block")
	ErrMissingSwitch        = errors.New("directive must be inside a switch block")
	ErrDefaultWithoutCase   = errors.New("default must be preceded by at least one case")
	ErrSwitchMustNestInCase = errors.New("switch can only be nested inside a case branch")

	// ErrPendingAsync is returned by Render when a deferred fragment
	// produces a value that is still being computed.
	ErrPendingAsync = errors.New("deferred fragment returned a pending asynchronous value")
)

// SyntaxError reports a directive that appears where the block structure
// does not allow it. Err is one of the Err* sentinels of this package.
type SyntaxError struct {
	// Index is the position of the directive in the input sequence.
	Index int
	Kind  Kind
	Err   error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("condtag: syntax error at fragment %d (%s): %v", e.Index, e.Kind, e.Err)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// IsSyntaxError reports whether err is or wraps a *SyntaxError.
func IsSyntaxError(err error) bool {
	var se *SyntaxError
	return errors.As(err, &se)
}

func recoverError(index int, r any) error {
	switch v := r.(type) {
	case error:
		return fmt.Errorf("fragment %d: panic recovered: %w", index, v)
	default:
		return fmt.Errorf("fragment %d: panic recovered: %v", index, v)
	}
}
