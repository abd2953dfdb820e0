package wlanmetrics_test

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain checks for goroutine leaks after all tests in this package
// complete; Prometheus registries and collectors are pure in-memory state
// with no background goroutines, so any leak here is this package's bug.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
