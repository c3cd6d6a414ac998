// Package tasks runs long operations over meetings with real-time progress reporting.
//
// # Transcript Export
//
// [Exporter.Export] writes one file per meeting in the chosen format:
//   - A producer reads each meeting and its transcript through the query cache, paced by a rate limiter
//   - A pool of workers renders and writes the files
//   - A manifest summarizing every meeting is written next to them
//   - The run is recorded through [RunRecorder] when one is configured
//
// Partial failures do not stop the export; each meeting's outcome lands in the result and the manifest.
//
// # Progress Reporting
//
// Operations send [ProgressUpdate] values on a caller-supplied channel.
// Sends use select with default so a slow or absent reader never blocks the export.
package tasks
