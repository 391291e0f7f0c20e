package testutil

import "go.uber.org/goleak"

// memguardCoffer refreshes memguard's enclave key for the life of the process.
const memguardCoffer = "github.com/awnumar/memguard/core.NewCoffer.func1"

// LeakOptions returns the goleak options shared by every TestMain. The only
// long-lived goroutine allowed is memguard's key coffer.
func LeakOptions() []goleak.Option {
	return []goleak.Option{
		goleak.IgnoreAnyFunction(memguardCoffer),
	}
}
