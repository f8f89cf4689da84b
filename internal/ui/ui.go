package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/akhilbawari/taskpal/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	TaskListView ViewState = iota
	ConfirmDeleteView
)

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	view     ViewState
	engine   *tasks.TaskEngine
	ownerID  string
	width    int
	height   int
	taskList list.Model
	pending  *taskItem // task awaiting delete confirmation
	status   string
	err      error
	help     help.Model
	keys     keyMap
}

// NewModel creates the TUI model for one owner's task tree.
func NewModel(ctx context.Context, engine *tasks.TaskEngine, ownerID string) Model {
	delegate := list.NewDefaultDelegate()
	taskList := list.New([]list.Item{}, delegate, 0, 0)
	taskList.Title = "Tasks"
	taskList.SetShowHelp(false)

	return Model{
		ctx:      ctx,
		view:     TaskListView,
		engine:   engine,
		ownerID:  ownerID,
		taskList: taskList,
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

func (m Model) Init() tea.Cmd {
	return m.loadTasks()
}

// loadTasks fetches the owner's task tree off the Elm loop.
func (m Model) loadTasks() tea.Cmd {
	return func() tea.Msg {
		nodes, err := m.engine.List(m.ctx, m.ownerID)
		return tasksLoadedMsg(nodes, err)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.taskList.SetSize(msg.Width, msg.Height-4)
		return m, nil

	case Msg:
		return m.handleMsg(msg)

	case tea.KeyMsg:
		switch m.view {
		case ConfirmDeleteView:
			return m.handleConfirmKeys(msg)
		default:
			return m.handleListKeys(msg)
		}
	}

	var cmd tea.Cmd
	m.taskList, cmd = m.taskList.Update(msg)
	return m, cmd
}

func (m Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgTasksLoaded:
		data := msg.data.(struct {
			nodes []tasks.TaskNode
			err   error
		})
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.err = nil
		m.taskList.SetItems(flattenNodes(data.nodes, 0))
		return m, nil

	case MsgOpDone:
		if err, ok := msg.data.(error); ok && err != nil {
			m.status = styles.warn.Render(err.Error())
		} else {
			m.status = styles.done.Render("✓ saved")
		}
		return m, m.loadTasks()
	}

	return m, nil
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keys := m.keys

	switch {
	case key.Matches(msg, keys.quit):
		return m, tea.Quit

	case key.Matches(msg, keys.refresh):
		return m, m.loadTasks()

	case key.Matches(msg, keys.toggle):
		item, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			err := m.engine.SetCompleted(m.ctx, m.ownerID, item.node.ID, !item.node.Completed)
			return opDoneMsg(err)
		}

	case key.Matches(msg, keys.moveUp):
		return m.swapWithNeighbor(-1)

	case key.Matches(msg, keys.moveDown):
		return m.swapWithNeighbor(1)

	case key.Matches(msg, keys.delete):
		item, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.pending = &item
		m.view = ConfirmDeleteView
		return m, nil
	}

	var cmd tea.Cmd
	m.taskList, cmd = m.taskList.Update(msg)
	return m, cmd
}

func (m Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		item := m.pending
		m.pending = nil
		m.view = TaskListView
		if item == nil {
			return m, nil
		}
		return m, func() tea.Msg {
			err := m.engine.Delete(m.ctx, m.ownerID, item.node.ID)
			return opDoneMsg(err)
		}

	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.quit):
		m.pending = nil
		m.view = TaskListView
		return m, nil
	}

	return m, nil
}

// swapWithNeighbor reorders the selected task against its on-screen
// neighbor. Direct score swap only; there is no insert-between.
func (m Model) swapWithNeighbor(offset int) (tea.Model, tea.Cmd) {
	idx := m.taskList.Index()
	items := m.taskList.Items()

	neighbor := idx + offset
	if neighbor < 0 || neighbor >= len(items) {
		return m, nil
	}

	source, ok := items[idx].(taskItem)
	if !ok {
		return m, nil
	}
	dest, ok := items[neighbor].(taskItem)
	if !ok {
		return m, nil
	}

	return m, func() tea.Msg {
		err := m.engine.Reorder(m.ctx, m.ownerID, source.node.ID, dest.node.ID)
		return opDoneMsg(err)
	}
}

func (m Model) selected() (taskItem, bool) {
	item, ok := m.taskList.SelectedItem().(taskItem)
	return item, ok
}

func (m Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v", m.err)) + "\n" + styles.help.Render("r to retry, q to quit")
	}

	switch m.view {
	case ConfirmDeleteView:
		title := ""
		if m.pending != nil {
			title = m.pending.node.Title
		}
		return styles.title.Render("Delete task?") + "\n" +
			fmt.Sprintf("Delete %q and orphan its subtasks?\n\n", title) +
			styles.help.Render("y to confirm, n to cancel")

	default:
		view := m.taskList.View()
		if m.status != "" {
			view += "\n" + m.status
		}
		return view + "\n" + m.help.View(m.keys)
	}
}
