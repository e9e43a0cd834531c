package app

import (
	"os"
	"sync"
)

const testModeEnv = "REEFDESK_TEST_MODE"

var inTestMode = sync.OnceValue(func() bool {
	return os.Getenv(testModeEnv) == "1"
})

// InTestMode reports whether the binaries should skip runtime side effects.
// Smoke tooling sets REEFDESK_TEST_MODE=1 to exercise startup wiring without
// touching postgres or redis.
func InTestMode() bool {
	return inTestMode()
}
