// Package exitcodes defines the exit codes used by xr-cts.
package exitcodes

// These constants define the exit codes the application uses to indicate
// how a run ended:
//
// * Success (0): all tests passed
// * TestFailure (1): one or more tests failed
// * RuntimeErr (2): the runtime could not be reached, the configuration was
// invalid, or the run panicked
const (
	Success     = 0
	TestFailure = 1
	RuntimeErr  = 2
)
