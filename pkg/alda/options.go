package alda

// Options control the closure expansion policy.
type Options struct {
	// Greedy ingests every alternative solution of a goal, not just the
	// first.
	Greedy bool
	// Source adds the matching source RPMs to the result set.
	Source bool
	// Debuginfo adds the -debuginfo subpackages of every added binary.
	Debuginfo bool
	// Selfhosting expands every added source RPM into its build-time
	// dependency closure.
	Selfhosting bool
	// Fulltree expands every added binary into the sibling subpackages of
	// its source RPM.
	Fulltree bool
}

// DefaultOptions returns the default expansion policy.
func DefaultOptions() Options {
	return Options{
		Greedy:      false,
		Source:      true,
		Selfhosting: false,
		Debuginfo:   true,
		Fulltree:    false,
	}
}
