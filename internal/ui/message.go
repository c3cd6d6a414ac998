package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/meetingmind/mm/internal/query"
	"github.com/meetingmind/mm/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgListResult MsgKind = iota
	MsgDetailResult
	MsgDeleted
	MsgProgressUpdate
	MsgExportComplete
)

type detailResult struct {
	id     string
	result query.Result
}

type deleted struct {
	id  string
	err error
}

type exportComplete struct {
	result *tasks.ExportResult
	err    error
}

// listResultMsg is the constructor for [MsgListResult]
func listResultMsg(r query.Result) Msg {
	return Msg{kind: MsgListResult, data: r}
}

// detailResultMsg is the constructor for [MsgDetailResult]
func detailResultMsg(id string, r query.Result) Msg {
	return Msg{kind: MsgDetailResult, data: detailResult{id: id, result: r}}
}

// deletedMsg is the constructor for [MsgDeleted]
func deletedMsg(id string, err error) Msg {
	return Msg{kind: MsgDeleted, data: deleted{id: id, err: err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// exportCompleteMsg is the constructor for [MsgExportComplete]
func exportCompleteMsg(result *tasks.ExportResult, err error) Msg {
	return Msg{kind: MsgExportComplete, data: exportComplete{result: result, err: err}}
}
