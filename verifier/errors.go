package verifier

import (
	"fmt"
	"time"
)

// NoStateChange is reported as the actual outcome of a wait that observed nothing.
const NoStateChange = "no state change"

// AssertionError reports a lifecycle contract the runtime under test broke.
// It fails the current scenario only.
type AssertionError struct {
	Op       string
	Expected string
	Actual   string
	Elapsed  time.Duration
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s: expected %s, observed %s after %s",
		e.Op, e.Expected, e.Actual, e.Elapsed.Round(time.Millisecond))
}
