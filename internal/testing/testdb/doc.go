// Package testdb provides isolated SurrealDB namespaces for integration tests.
//
// Each call to New connects to the instance named by TEST_DB_HOST,
// TEST_DB_PORT, TEST_DB_USER and TEST_DB_PASSWORD (defaults localhost:8000,
// root/root), creates a fresh namespace and applies every file in the
// module's migrations directory. PROGRESSION_MIGRATIONS overrides the
// directory lookup.
//
// When no instance is reachable, or under -short, the test is skipped.
//
//	func TestSomething(t *testing.T) {
//	    tdb := testdb.New(t)
//	    repo := repository.NewProgressRepository(tdb.DB)
//	    ...
//	}
//
// The namespace is removed when the test finishes. Use NewShared and
// SetupSubtest to reuse one namespace across subtests.
package testdb
