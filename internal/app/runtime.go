package app

import (
	"os"
	"sync"
)

const testModeEnv = "STOREFRONT_TEST_MODE"

var (
	testMode     bool
	testModeOnce sync.Once
)

// InTestMode reports whether the application should skip runtime side effects.
// The flag is read once per process.
func InTestMode() bool {
	testModeOnce.Do(func() {
		testMode = os.Getenv(testModeEnv) == "1"
	})
	return testMode
}
