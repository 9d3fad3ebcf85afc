package testing

import (
	"context"
	"testing"

	"github.com/marmos91/appshell/pkg/store"
)

// StoreTestSuite is a test suite for store.Store implementations.
// It tests the interface contract, not implementation details, so every
// backend (memory, badger, S3) runs the same checks.
//
// Usage:
//
//	func TestMyStore(t *testing.T) {
//	    suite := &storetesting.StoreTestSuite{
//	        NewStore: func(t *testing.T, quota uint64) store.Store {
//	            s, err := mystore.New(context.Background(), quota)
//	            require.NoError(t, err)
//	            return s
//	        },
//	    }
//	    suite.Run(t)
//	}
type StoreTestSuite struct {
	// NewStore creates a fresh, empty store with the given quota for each
	// test. The suite closes it when the test ends.
	NewStore func(t *testing.T, quotaBytes uint64) store.Store
}

// Run executes all tests in the suite.
func (suite *StoreTestSuite) Run(t *testing.T) {
	t.Run("Lookup", suite.RunLookupTests)
	t.Run("Tree", suite.RunTreeTests)
	t.Run("Quota", suite.RunQuotaTests)
}

// newStore creates a store and registers its cleanup.
func (suite *StoreTestSuite) newStore(t *testing.T, quotaBytes uint64) store.Store {
	t.Helper()
	s := suite.NewStore(t, quotaBytes)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// testContext returns a standard test context.
func testContext() context.Context {
	return context.Background()
}

var (
	create    = store.LookupOptions{Create: true}
	exclusive = store.LookupOptions{Create: true, Exclusive: true}
	lookup    = store.LookupOptions{}
)
