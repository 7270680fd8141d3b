package app

import (
	"os"
	"strconv"
	"sync"
	"sync/atomic"
)

const testModeEnv = "STORELEDGER_TEST_MODE"

var (
	testMode     atomic.Bool
	testModeOnce sync.Once
)

func readTestMode() {
	on, _ := strconv.ParseBool(os.Getenv(testModeEnv))
	testMode.Store(on)
}

// InTestMode reports whether commands should build their dependencies and stop
// before opening listeners or connecting to the queue.
func InTestMode() bool {
	testModeOnce.Do(readTestMode)
	return testMode.Load()
}

// SetTestMode overrides the flag for the lifetime of the process.
func SetTestMode(on bool) {
	testModeOnce.Do(func() {})
	testMode.Store(on)
}

// RefreshTestMode re-reads STORELEDGER_TEST_MODE after environment changes.
func RefreshTestMode() {
	testModeOnce.Do(func() {})
	readTestMode()
}
