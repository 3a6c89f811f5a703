package internal

import "fmt"

// Assertf panics with a formatted message if the condition is false.
// Used for configuration errors and internal invariant violations, both of
// which are fatal per this engine's error handling design: there is no
// retry path for either.
func Assertf(ok bool, format string, args ...any) {
	if !ok {
		panic(fmt.Sprintf(format, args...))
	}
}
