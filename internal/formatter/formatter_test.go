package formatter

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/akhilbawari/taskpal/internal/shared"
	"github.com/akhilbawari/taskpal/internal/tasks"
)

func sampleTree() []tasks.TaskNode {
	due := "2026-04-01"
	parentID := "task-1"
	return []tasks.TaskNode{
		{
			ID:       "task-1",
			Title:    "Plan trip",
			Weight:   2,
			Priority: 1,
			DueDate:  &due,
			Subtasks: []tasks.TaskNode{
				{
					ID:           "task-2",
					Title:        "Book flights",
					Weight:       1,
					Priority:     2,
					Completed:    true,
					ParentTaskID: &parentID,
					Subtasks:     []tasks.TaskNode{},
				},
			},
		},
		{
			ID:       "task-3",
			Title:    "Water plants",
			Weight:   1,
			Priority: 3,
			Subtasks: []tasks.TaskNode{},
		},
	}
}

func TestExportToCSV(t *testing.T) {
	out, err := ExportToCSV(sampleTree())
	if err != nil {
		t.Fatalf("failed to export: %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(string(out))).ReadAll()
	if err != nil {
		t.Fatalf("output should parse as CSV: %v", err)
	}

	if len(records) != 4 {
		t.Fatalf("expected header plus 3 rows, got %d", len(records))
	}

	if records[0][0] != "ID" || records[0][6] != "Parent" {
		t.Errorf("unexpected header: %v", records[0])
	}

	// Flattening keeps children right after their parent.
	if records[2][1] != "Book flights" || records[2][6] != "task-1" {
		t.Errorf("expected child row with parent reference, got %v", records[2])
	}
	if records[2][5] != "true" {
		t.Errorf("expected completed flag, got %v", records[2][5])
	}
	if records[3][2] != "-" {
		t.Errorf("missing due date should render as -, got %q", records[3][2])
	}
}

func TestExportToMarkdown(t *testing.T) {
	out := string(ExportToMarkdown(sampleTree()))

	if !strings.HasPrefix(out, "# Tasks\n") {
		t.Error("expected a heading")
	}
	if !strings.Contains(out, "- [ ] Plan trip (due 2026-04-01)") {
		t.Errorf("expected open task line, got:\n%s", out)
	}
	if !strings.Contains(out, "  - [x] Book flights") {
		t.Errorf("expected indented completed subtask, got:\n%s", out)
	}
}

func TestExportToText(t *testing.T) {
	out := string(ExportToText(sampleTree()))

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}

	if !strings.HasPrefix(lines[0], "[1] Plan trip") {
		t.Errorf("expected priority prefix, got %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "    [2] Book flights (done") {
		t.Errorf("expected indented done subtask, got %q", lines[1])
	}
}

func TestWriteExport(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("writes each format", func(t *testing.T) {
		for _, format := range []string{"json", "csv", "markdown", "txt"} {
			path := filepath.Join(tmpDir, "tasks."+format)
			if err := WriteExport(sampleTree(), format, path); err != nil {
				t.Fatalf("failed to export %s: %v", format, err)
			}

			info, err := os.Stat(path)
			if err != nil {
				t.Fatalf("export file missing for %s: %v", format, err)
			}
			if info.Size() == 0 {
				t.Errorf("export file empty for %s", format)
			}
		}
	})

	t.Run("defaults to json", func(t *testing.T) {
		path := filepath.Join(tmpDir, "default.out")
		if err := WriteExport(sampleTree(), "", path); err != nil {
			t.Fatalf("failed to export: %v", err)
		}

		content, _ := os.ReadFile(path)
		if !strings.Contains(string(content), `"task-1"`) {
			t.Error("default export should be JSON")
		}
	})

	t.Run("rejects unknown formats", func(t *testing.T) {
		err := WriteExport(sampleTree(), "xml", filepath.Join(tmpDir, "tasks.xml"))
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}
