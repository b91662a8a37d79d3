package orgload

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.org")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing temp file: %v", err)
	}
	return path
}

func defaultOpts() Options {
	return Options{TodoKeys: []string{"TODO"}, DoneKeys: []string{"DONE"}}
}

func TestLoadHeadingsAndHierarchy(t *testing.T) {
	path := writeTemp(t, `* TODO Fix bug :urgent:
some body text
** DONE Sub task
more body
* Another top-level
`)
	root, err := Load(path, defaultOpts())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(root.Children) != 2 {
		t.Fatalf("expected 2 top-level nodes, got %d", len(root.Children))
	}

	first := root.Children[0]
	if first.Heading != "Fix bug" || first.Todo != "TODO" || first.Done {
		t.Fatalf("unexpected first node: %#v", first)
	}
	if len(first.Tags) != 1 || first.Tags[0] != "urgent" {
		t.Fatalf("expected tags [urgent], got %v", first.Tags)
	}
	if first.Body != "some body text" {
		t.Fatalf("unexpected body: %q", first.Body)
	}
	if len(first.Children) != 1 || first.Children[0].Heading != "Sub task" || !first.Children[0].Done {
		t.Fatalf("unexpected children: %#v", first.Children)
	}

	second := root.Children[1]
	if second.Heading != "Another top-level" || second.Todo != "" {
		t.Fatalf("unexpected second node: %#v", second)
	}
}

func TestLoadPropertiesDrawer(t *testing.T) {
	path := writeTemp(t, `* TODO Task
:PROPERTIES:
:CATEGORY: work
:CUSTOM_ID: abc123
:END:
`)
	root, err := Load(path, Options{TodoKeys: []string{"TODO"}, DoneKeys: []string{"DONE"}, CategoryProperty: "CATEGORY"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	n := root.Children[0]
	if n.Properties["CUSTOM_ID"] != "abc123" {
		t.Fatalf("expected CUSTOM_ID property, got %v", n.Properties)
	}
	if n.Category != "work" {
		t.Fatalf("expected category overridden to 'work', got %q", n.Category)
	}
}

func TestLoadPlanningLines(t *testing.T) {
	path := writeTemp(t, `* TODO Task
SCHEDULED: <2024-01-15 Mon> DEADLINE: <2024-01-20 Sat>
`)
	root, err := Load(path, defaultOpts())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	n := root.Children[0]
	if n.Scheduled == nil || n.Scheduled.Year != 2024 || n.Scheduled.Month != 1 || n.Scheduled.Day != 15 {
		t.Fatalf("unexpected scheduled: %#v", n.Scheduled)
	}
	if n.Deadline == nil || n.Deadline.Day != 20 {
		t.Fatalf("unexpected deadline: %#v", n.Deadline)
	}
}

func TestLoadClockAndLogbook(t *testing.T) {
	path := writeTemp(t, `* DONE Task
:LOGBOOK:
CLOCK: [2024-01-15 Mon 09:00]--[2024-01-15 Mon 10:30] => 1:30
- State "DONE"       from "TODO"       [2024-01-15 Mon 10:30]
:END:
`)
	root, err := Load(path, defaultOpts())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	n := root.Children[0]
	if len(n.Clocks) != 1 {
		t.Fatalf("expected one clock entry, got %d", len(n.Clocks))
	}
	c := n.Clocks[0]
	if !c.HasEnd || c.Duration != 90 {
		t.Fatalf("unexpected clock: %#v", c)
	}
	if len(n.RepeatedTasks) != 1 {
		t.Fatalf("expected one repeated-task log entry, got %d", len(n.RepeatedTasks))
	}
	rt := n.RepeatedTasks[0]
	if rt.Before != "TODO" || rt.After != "DONE" {
		t.Fatalf("unexpected repeated task entry: %#v", rt)
	}
}

func TestParseTimestampActiveInactive(t *testing.T) {
	active, err := ParseTimestamp("<2024-01-15 Mon 09:00>")
	if err != nil || !active.Active {
		t.Fatalf("expected active timestamp, got %#v, err=%v", active, err)
	}
	inactive, err := ParseTimestamp("[2024-01-15 Mon]")
	if err != nil || inactive.Active {
		t.Fatalf("expected inactive timestamp, got %#v, err=%v", inactive, err)
	}
}

func TestClockCrossesMidnightNormalization(t *testing.T) {
	path := writeTemp(t, `* DONE Task
:LOGBOOK:
CLOCK: [2024-01-15 Mon 23:00]--[2024-01-16 Tue 24:00] => 1:00
:END:
`)
	root, err := Load(path, defaultOpts())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	c := root.Children[0].Clocks[0]
	if c.End.Hour != 0 || c.End.Minute != 0 {
		t.Fatalf("expected 24:00 normalized to 00:00, got %02d:%02d", c.End.Hour, c.End.Minute)
	}
}
