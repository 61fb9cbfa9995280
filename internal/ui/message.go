package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/cinx/internal/models"
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
	MsgScheduled MsgKind = iota
	MsgSearchFetched
	MsgStatus
	MsgFailed
)

// searchResult is the payload of [MsgSearchFetched]
type searchResult struct {
	query string
	page  *models.Page
	err   error
}

// scheduledMsg is the constructor for [MsgScheduled]
func scheduledMsg(tasks []func()) Msg {
	return Msg{kind: MsgScheduled, data: tasks}
}

// searchFetchedMsg is the constructor for [MsgSearchFetched]
func searchFetchedMsg(query string, page *models.Page, err error) Msg {
	return Msg{kind: MsgSearchFetched, data: searchResult{query, page, err}}
}

// statusMsg is the constructor for [MsgStatus]
func statusMsg(status string) Msg {
	return Msg{kind: MsgStatus, data: status}
}

// failedMsg is the constructor for [MsgFailed]
func failedMsg(err error) Msg {
	return Msg{kind: MsgFailed, data: err}
}
