package state

import (
	"fmt"

	"github.com/vango-dev/incremental/internal/errors"
)

// Sentinel errors. Match them with errors.Is; occurrences carry a reason
// naming the offending state or call.
var (
	ErrIllegalDisposal      = errors.New("S001")
	ErrIllegalNesting       = errors.New("S002")
	ErrIllegalScopeCreation = errors.New("S003")
	ErrRejectedWrite        = errors.New("S004")
	ErrIllegalWrite         = errors.New("S005")
	ErrCircularDependency   = errors.New("S006")
	ErrStateNotFound        = errors.New("S007")
	ErrStateType            = errors.New("S008")
	ErrStaleContext         = errors.New("S009")
	ErrDisposed             = errors.New("S010")
)

func newError(code, format string, args ...any) *errors.Error {
	return errors.New(code).WithReason(format, args...)
}

// fail panics with a coded error.
func fail(code, format string, args ...any) {
	panic(newError(code, format, args...))
}

// asError converts a recovered panic value into an error.
func asError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("state: computation panicked: %v", r)
}
