// package formatter provides functions to export task lists to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/akhilbawari/taskpal/internal/shared"
	"github.com/akhilbawari/taskpal/internal/tasks"
)

// ExportToCSV converts a task tree to CSV with columns: ID, Title, Due Date, Weight, Priority, Completed, Parent
//
// Subtasks are flattened; the Parent column preserves the tree.
func ExportToCSV(nodes []tasks.TaskNode) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Due Date", "Weight", "Priority", "Completed", "Parent"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, node := range flatten(nodes) {
		record := []string{
			node.ID,
			node.Title,
			dueString(node),
			strconv.Itoa(node.Weight),
			strconv.Itoa(node.Priority),
			strconv.FormatBool(node.Completed),
			parentString(node),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV writer: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders a task tree as a nested markdown checklist.
func ExportToMarkdown(nodes []tasks.TaskNode) []byte {
	var buf bytes.Buffer
	buf.WriteString("# Tasks\n\n")
	writeMarkdownLevel(&buf, nodes, 0)
	return buf.Bytes()
}

func writeMarkdownLevel(buf *bytes.Buffer, nodes []tasks.TaskNode, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, node := range nodes {
		check := " "
		if node.Completed {
			check = "x"
		}

		line := fmt.Sprintf("%s- [%s] %s", indent, check, node.Title)
		if node.DueDate != nil {
			line += fmt.Sprintf(" (due %s)", *node.DueDate)
		}
		buf.WriteString(line + "\n")

		writeMarkdownLevel(buf, node.Subtasks, depth+1)
	}
}

// ExportToText renders a task tree as indented plain text, one task per line.
func ExportToText(nodes []tasks.TaskNode) []byte {
	var buf bytes.Buffer
	writeTextLevel(&buf, nodes, 0)
	return buf.Bytes()
}

func writeTextLevel(buf *bytes.Buffer, nodes []tasks.TaskNode, depth int) {
	indent := strings.Repeat("    ", depth)
	for _, node := range nodes {
		status := "open"
		if node.Completed {
			status = "done"
		}
		fmt.Fprintf(buf, "%s[%d] %s (%s, due %s)\n", indent, node.Priority, node.Title, status, dueString(node))
		writeTextLevel(buf, node.Subtasks, depth+1)
	}
}

// WriteExport serializes a task tree to the given format and writes it to path.
//
// Supported formats: json (default), csv, markdown, txt.
func WriteExport(nodes []tasks.TaskNode, format, path string) error {
	var (
		data []byte
		err  error
	)

	switch format {
	case "csv":
		data, err = ExportToCSV(nodes)
	case "markdown":
		data = ExportToMarkdown(nodes)
	case "txt":
		data = ExportToText(nodes)
	case "json", "":
		data, err = shared.MarshalJSON(nodes, true)
	default:
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}

	return nil
}

// flatten walks the tree depth-first into a single slice.
func flatten(nodes []tasks.TaskNode) []tasks.TaskNode {
	var out []tasks.TaskNode
	for _, node := range nodes {
		out = append(out, node)
		out = append(out, flatten(node.Subtasks)...)
	}
	return out
}

func dueString(node tasks.TaskNode) string {
	if node.DueDate == nil {
		return "-"
	}
	return *node.DueDate
}

func parentString(node tasks.TaskNode) string {
	if node.ParentTaskID == nil {
		return ""
	}
	return *node.ParentTaskID
}
