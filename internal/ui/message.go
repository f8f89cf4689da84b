package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/akhilbawari/taskpal/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var _ tea.Msg = Msg{}

const (
	MsgTasksLoaded MsgKind = iota
	MsgOpDone
)

// tasksLoadedMsg is the constructor for [MsgTasksLoaded]
func tasksLoadedMsg(nodes []tasks.TaskNode, err error) Msg {
	return Msg{
		kind: MsgTasksLoaded,
		data: struct {
			nodes []tasks.TaskNode
			err   error
		}{nodes, err},
	}
}

// opDoneMsg is the constructor for [MsgOpDone]; any completed mutation
// triggers a reload.
func opDoneMsg(err error) Msg {
	return Msg{kind: MsgOpDone, data: err}
}
