// Package repositories implements SQLite persistence for local client state.
//
// Key Implementations:
//   - [SessionRepository] : session renewal timestamp, cached identity and
//     cookie jar snapshot, one row per API base URL. Implements session.Store.
//   - [ChatRepository] : retrieval chat history, ordered per pathway
//
// Rows are keyed by v4 UUIDs from [shared.GenerateID]. Schema lives in the
// embedded migrations of the shared package.
package repositories
