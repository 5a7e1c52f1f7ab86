package session

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain enables goroutine leak detection for all tests in the session
// package. The concurrent registry and append tests must leave no goroutines
// behind.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
