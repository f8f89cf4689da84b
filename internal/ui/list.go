package ui

import (
	"fmt"
	"strings"

	"github.com/akhilbawari/taskpal/internal/tasks"
	"github.com/charmbracelet/bubbles/list"
)

var _ list.Item = taskItem{}

// taskItem wraps a [tasks.TaskNode] to implement [list.Item].
//
// depth records how far down the tree the task sits so nesting survives the
// flattened list display.
type taskItem struct {
	node  tasks.TaskNode
	depth int
}

func (i taskItem) FilterValue() string { return i.node.Title }

func (i taskItem) Title() string {
	check := "[ ]"
	if i.node.Completed {
		check = "[x]"
	}
	return fmt.Sprintf("%s%s %s", strings.Repeat("  ", i.depth), check, i.node.Title)
}

func (i taskItem) Description() string {
	desc := fmt.Sprintf("priority %d • weight %d", i.node.Priority, i.node.Weight)
	if i.node.DueDate != nil {
		desc = fmt.Sprintf("%s • due %s", desc, *i.node.DueDate)
	}
	if i.node.EventID != nil {
		desc += " • synced"
	}
	return desc
}

// flattenNodes converts a task tree into depth-annotated list items.
func flattenNodes(nodes []tasks.TaskNode, depth int) []list.Item {
	var items []list.Item
	for _, node := range nodes {
		items = append(items, taskItem{node: node, depth: depth})
		items = append(items, flattenNodes(node.Subtasks, depth+1)...)
	}
	return items
}
