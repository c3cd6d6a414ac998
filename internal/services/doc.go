// Package services is the HTTP client for the MeetingMind API.
//
// # Authentication
//
// [Client.Login] uses the OAuth2 resource-owner password grant against /auth/login, so the token
// exchange, form encoding and error parsing come from [oauth2.Config.PasswordCredentialsToken].
// The service does not send expires_in; the expiry is read from the access token's exp claim
// so that [oauth2.ReuseTokenSource] knows when to refresh.
//
// [Client.Register], [Client.Me] and [Client.Refresh] are plain JSON calls.
//
// # Meetings
//
// Meeting endpoints need a bearer token. [Client.WithTokenSource] returns a copy of the client
// whose transport is an [oauth2.Transport] over the caller's token source. The session package
// supplies a source that refreshes and persists rotated tokens.
//
// # Error Handling
//
// Non-2xx responses become [*APIError], carrying FastAPI's detail message. It matches:
//   - [shared.ErrAPIRequest] : any non-2xx response
//   - [ErrUnauthorized] : 401 and 403, the credential was rejected
//   - [shared.ErrNotFound] : 404
//
// Transport failures wrap [shared.ErrServiceUnavailable].
//
// Every request passes through a client-side rate limiter and carries an X-Request-ID header.
package services
