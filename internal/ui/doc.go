// Package ui implements an interactive meeting browser using bubbletea's Elm architecture.
//
// Views:
//  1. [MeetingListView] : Browse meetings
//  2. [MeetingDetailView] : Inspect one meeting with its action items and transcript
//  3. [ConfirmDeleteView] : Confirm deleting the selected meeting
//  4. [ExportView] : Monitor a transcript export
//  5. [ResultView] : Show where the export was written
//
// The list and detail views subscribe to query cache entries rather than fetching once. Cache notifications
// arrive on the dispatcher goroutine and are forwarded to the program through a channel, so a delete that
// invalidates the list refreshes it in place.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
