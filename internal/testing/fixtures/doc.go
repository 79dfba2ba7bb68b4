// Package fixtures provides test data factories for integration tests.
//
// A Factory writes through the real repositories, so fixtures exercise the
// same encoding the services use. Every method takes the test and fails it
// on a storage error.
//
//	f := fixtures.New(tdb.DB)
//	u := f.CreateUser(t, fixtures.WithWorkspace("ws-1"))
//	f.CreateProgress(t, u.UserID, fixtures.WithLevel(5, 12000))
//	lb := f.CreateLeaderboard(t, fixtures.WithScope(model.LeaderboardWorkspace, "ws-1"))
//	f.RecordEvent(t, u.UserID, model.ActivityPostCreated, time.Hour)
//
// Timestamps are relative to Factory.Now, fixed when the factory is created.
package fixtures
