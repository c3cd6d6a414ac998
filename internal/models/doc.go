// Package models defines the domain types shared by the MeetingMind client.
//
// The package contains three groups of types:
//
// 1. Session state owned by the session store
//   - [Session] : status plus an optional [Identity]
//   - [Identity] : sum type of [VerifiedProfile] (server confirmed) and [PlaceholderProfile] (synthesized locally)
//   - [Snapshot] : the persisted {status, identity} subset, keyed by namespace
//
// 2. Remote resources returned by the meetings API
//   - [Meeting], [Transcript], [ActionItem]
//   - [MeetingCreate], [MeetingUpdate], [ActionItemCreate] request bodies
//
// 3. Wire helpers such as [Timestamp], which accepts the naive ISO-8601 datetimes the service emits.
//
// Credentials never appear on [Session]; the token pair lives in secret storage only.
package models
