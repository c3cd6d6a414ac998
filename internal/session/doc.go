// Package session owns the client's authentication state.
//
// A [Store] holds the process-wide [models.Session]: a status (loading, authenticated, anonymous)
// and, only while authenticated, an [models.Identity]. The token pair lives in a [SecretStore],
// separate from the [SnapshotStore] that persists {status, identity} for display on the next start.
// Only the Store writes either of them.
//
// # Lifecycle
//
//	store := session.New(opts)
//	store.Restore()             // show the last known state
//	store.RefreshIdentity(ctx)  // resolve it against the service
//	...
//	store.Close()
//
// # Degraded trust
//
// Login against a service that returns tokens only yields a [models.PlaceholderProfile] built from
// the email. A failed profile fetch at startup with a stored credential yields the recovery
// placeholder (user@meetingmind.ai). With StrictRefresh set, a fetch rejected by the service
// (401/403) logs the user out instead; network failures still degrade.
//
// # Tokens
//
// [Store.TokenSource] reads the stored pair on every call and, once the access token has expired,
// exchanges the refresh token and persists the rotated pair.
package session
