// Package guard switches the process into test mode when imported, so commands
// build their dependencies without opening listeners or queue connections.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("STORELEDGER_TEST_MODE") == "" {
			_ = os.Setenv("STORELEDGER_TEST_MODE", "1")
		}
	})
}
