package ui

import (
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/equipx/internal/router"
	"github.com/desertthunder/equipx/internal/session"
	"github.com/desertthunder/equipx/internal/tasks"
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
	MsgNavigated MsgKind = iota
	MsgLoggedIn
	MsgPageLoaded
	MsgActionDone
	MsgToastExpired
	MsgProgressUpdate
	MsgReturnAllComplete
)

// navigatedMsg is the constructor for [MsgNavigated]
func navigatedMsg(d router.Decision) Msg {
	return Msg{kind: MsgNavigated, data: d}
}

// loggedInMsg is the constructor for [MsgLoggedIn]
func loggedInMsg(sess *session.Session, err error) Msg {
	return Msg{
		kind: MsgLoggedIn,
		data: struct {
			session *session.Session
			err     error
		}{sess, err},
	}
}

// pageData is what a page loader hands back: list rows and, for pages that
// show more than a list, the raw payload.
type pageData struct {
	path    string
	items   []list.Item
	payload any
	err     error
}

// pageLoadedMsg is the constructor for [MsgPageLoaded]
func pageLoadedMsg(data pageData) Msg {
	return Msg{kind: MsgPageLoaded, data: data}
}

// actionDoneMsg is the constructor for [MsgActionDone]
func actionDoneMsg(message string, err error) Msg {
	return Msg{
		kind: MsgActionDone,
		data: struct {
			message string
			err     error
		}{message, err},
	}
}

// toastExpiredMsg is the constructor for [MsgToastExpired]
func toastExpiredMsg(id string) Msg {
	return Msg{kind: MsgToastExpired, data: id}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// returnAllCompleteMsg is the constructor for [MsgReturnAllComplete]
func returnAllCompleteMsg(result *tasks.ReturnAllResult, err error) Msg {
	return Msg{
		kind: MsgReturnAllComplete,
		data: struct {
			result *tasks.ReturnAllResult
			err    error
		}{result, err},
	}
}
