package models

import "time"

// ExportFormat selects how an exported transcript is rendered.
type ExportFormat string

const (
	FormatMarkdown ExportFormat = "markdown"
	FormatCSV      ExportFormat = "csv"
	FormatText     ExportFormat = "txt"
	FormatJSON     ExportFormat = "json"
)

// Valid reports whether f is a known format.
func (f ExportFormat) Valid() bool {
	switch f {
	case FormatMarkdown, FormatCSV, FormatText, FormatJSON:
		return true
	}
	return false
}

// Ext returns the file extension written for f.
func (f ExportFormat) Ext() string {
	switch f {
	case FormatMarkdown:
		return ".md"
	case FormatCSV:
		return ".csv"
	case FormatJSON:
		return ".json"
	default:
		return ".txt"
	}
}

// ExportRun records one `mm export` invocation.
type ExportRun struct {
	ID           string
	Format       ExportFormat
	OutputDir    string
	Total        int
	Succeeded    int
	Failed       int
	ManifestPath string
	CreatedAt    time.Time
}
