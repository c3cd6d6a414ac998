// Package repositories implements local persistence for the client.
//
// Key Implementations:
//   - [SnapshotRepository] : session snapshot rows in SQLite, one per namespace
//   - [ExportRunRepository] : history of transcript exports in SQLite
//   - [CredentialFile] : the token pair in a 0600 JSON file, kept apart from the snapshot
package repositories
