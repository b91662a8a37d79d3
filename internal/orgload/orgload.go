// Package orgload reads Org-mode archive files into the runtime's node
// tree. It is a simplified stand-in for a full Org-mode parser (headings,
// planning lines, clocks, properties, and state-change logs), not a
// complete implementation of Org syntax — multi-line list structures,
// tables, and source blocks are kept as opaque body text rather than
// parsed further.
package orgload

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/chazu/orgql/runtime"
)

var (
	headingRe   = regexp.MustCompile(`^(\*+)\s+(.*)$`)
	tagsRe      = regexp.MustCompile(`\s+(:[\w@:]+:)\s*$`)
	priorityRe  = regexp.MustCompile(`^\[#([A-Z])\]\s*`)
	propLineRe  = regexp.MustCompile(`^\s*:([A-Za-z0-9_-]+):\s*(.*)$`)
	planningRe  = regexp.MustCompile(`(SCHEDULED|DEADLINE|CLOSED):\s*([\[<][^\]>]*[\]>])`)
	clockLineRe = regexp.MustCompile(`^\s*CLOCK:\s*([\[<][^\]>]*[\]>])(?:--([\[<][^\]>]*[\]>])\s*=>\s*(\d+):(\d+))?\s*$`)
	stateLogRe  = regexp.MustCompile(`^\s*-\s+State\s+"([^"]*)"\s+from\s+"([^"]*)"\s+\[([^\]]*)\]`)
)

// Options carries the task-state configuration used to classify headings
// as open or done tasks, the way the CLI's config layer supplies it.
type Options struct {
	TodoKeys        []string
	DoneKeys        []string
	CategoryProperty string
}

// Load reads and parses a single Org file into an OrgRootNode.
func Load(path string, opts Options) (*runtime.OrgRootNode, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("orgload: %w", err)
	}
	defer f.Close()

	root := &runtime.OrgRootNode{
		File:     path,
		TodoKeys: append([]string{}, opts.TodoKeys...),
		DoneKeys: append([]string{}, opts.DoneKeys...),
	}

	keywordSet := map[string]bool{}
	for _, k := range opts.TodoKeys {
		keywordSet[k] = true
	}
	for _, k := range opts.DoneKeys {
		keywordSet[k] = true
	}
	doneSet := map[string]bool{}
	for _, k := range opts.DoneKeys {
		doneSet[k] = true
	}

	defaultCategory := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	var stack []*runtime.OrgNode // open ancestors, indexed by level-1
	var bodyLines []string
	var inDrawer string // name of the drawer currently open ("PROPERTIES", "LOGBOOK", or "")

	flushBody := func(n *runtime.OrgNode) {
		if n == nil {
			return
		}
		n.Body = strings.TrimSpace(strings.Join(bodyLines, "\n"))
		bodyLines = nil
	}

	currentNode := func() *runtime.OrgNode {
		if len(stack) == 0 {
			return nil
		}
		return stack[len(stack)-1]
	}

	attach := func(n *runtime.OrgNode, level int) {
		flushBody(currentNode())
		for len(stack) >= level {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			root.Children = append(root.Children, n)
		} else {
			parent := stack[len(stack)-1]
			n.Parent = parent
			parent.Children = append(parent.Children, n)
		}
		stack = append(stack, n)
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.ReplaceAll(scanner.Text(), "24:00", "00:00")

		if m := headingRe.FindStringSubmatch(line); m != nil {
			level := len(m[1])
			text := strings.TrimSpace(m[2])

			var tags []string
			if tm := tagsRe.FindStringSubmatch(text); tm != nil {
				tags = strings.Split(strings.Trim(tm[1], ":"), ":")
				text = strings.TrimSpace(text[:len(text)-len(tm[0])])
			}

			todo := ""
			words := strings.SplitN(text, " ", 2)
			if len(words) > 0 && keywordSet[words[0]] {
				todo = words[0]
				if len(words) > 1 {
					text = words[1]
				} else {
					text = ""
				}
			}

			priority := ""
			if pm := priorityRe.FindStringSubmatch(text); pm != nil {
				priority = pm[1]
				text = text[len(pm[0]):]
			}

			n := &runtime.OrgNode{
				Heading:    strings.TrimSpace(text),
				Level:      level,
				Todo:       todo,
				Done:       todo != "" && doneSet[todo],
				Priority:   priority,
				Tags:       tags,
				Category:   defaultCategory,
				Properties: map[string]string{},
			}
			attach(n, level)
			inDrawer = ""
			continue
		}

		node := currentNode()
		if node == nil {
			// Content before the first heading belongs to the file, not
			// any node; the simplified model discards it.
			continue
		}

		trimmed := strings.TrimSpace(line)
		switch strings.ToUpper(trimmed) {
		case ":PROPERTIES:":
			inDrawer = "PROPERTIES"
			continue
		case ":LOGBOOK:":
			inDrawer = "LOGBOOK"
			continue
		case ":END:":
			inDrawer = ""
			continue
		}

		if inDrawer == "PROPERTIES" {
			if pm := propLineRe.FindStringSubmatch(line); pm != nil {
				key, val := pm[1], strings.TrimSpace(pm[2])
				node.Properties[key] = val
				if opts.CategoryProperty != "" && strings.EqualFold(key, opts.CategoryProperty) {
					node.Category = val
				}
				continue
			}
		}

		if cm := clockLineRe.FindStringSubmatch(trimmed); cm != nil {
			start, err := ParseTimestamp(cm[1])
			if err == nil {
				c := runtime.OrgDateClock{Start: start, Active: true}
				if cm[2] != "" {
					end, err := ParseTimestamp(cm[2])
					if err == nil {
						c.End = end
						c.HasEnd = true
						h, _ := strconv.Atoi(cm[3])
						mnt, _ := strconv.Atoi(cm[4])
						c.Duration = h*60 + mnt
					}
				}
				node.Clocks = append(node.Clocks, c)
			}
			continue
		}

		if inDrawer == "LOGBOOK" {
			if sm := stateLogRe.FindStringSubmatch(trimmed); sm != nil {
				ts, err := ParseTimestamp("[" + sm[3] + "]")
				if err == nil {
					after, before := sm[1], sm[2]
					node.RepeatedTasks = append(node.RepeatedTasks, runtime.OrgDateRepeatedTask{
						Timestamp: ts,
						After:     after, HasAfter: after != "",
						Before: before, HasBefore: before != "",
						Active: true,
					})
				}
				continue
			}
		}

		if planningRe.MatchString(trimmed) && looksLikePlanningLine(trimmed) {
			for _, pm := range planningRe.FindAllStringSubmatch(trimmed, -1) {
				ts, err := ParseTimestamp(pm[2])
				if err != nil {
					continue
				}
				switch pm[1] {
				case "SCHEDULED":
					node.Scheduled = &ts
				case "DEADLINE":
					node.Deadline = &ts
				case "CLOSED":
					node.Closed = &ts
				}
			}
			continue
		}

		bodyLines = append(bodyLines, line)
	}
	flushBody(currentNode())

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("orgload: reading %s: %w", path, err)
	}
	return root, nil
}

// looksLikePlanningLine guards against treating an ordinary body line that
// happens to mention "SCHEDULED:" as a planning line; real planning lines
// contain nothing but the keyword/timestamp pairs.
func looksLikePlanningLine(trimmed string) bool {
	stripped := planningRe.ReplaceAllString(trimmed, "")
	return strings.TrimSpace(stripped) == ""
}

var timestampRe = regexp.MustCompile(
	`^([\[<])(\d{4})-(\d{2})-(\d{2})(?:\s+[A-Za-z]+)?(?:\s+(\d{2}):(\d{2})(?:-(\d{2}):(\d{2}))?)?([\]>])$`,
)

// ParseTimestamp parses a single bracketed Org timestamp into an OrgDate.
func ParseTimestamp(s string) (runtime.OrgDate, error) {
	m := timestampRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return runtime.OrgDate{}, fmt.Errorf("orgload: cannot parse timestamp %q", s)
	}
	d := runtime.OrgDate{Active: m[1] == "<"}
	d.Year, _ = strconv.Atoi(m[2])
	d.Month, _ = strconv.Atoi(m[3])
	d.Day, _ = strconv.Atoi(m[4])
	if m[5] != "" {
		d.HasTime = true
		d.Hour, _ = strconv.Atoi(m[5])
		d.Minute, _ = strconv.Atoi(m[6])
		if m[7] != "" {
			d.HasEnd = true
			d.EndYear, d.EndMonth, d.EndDay = d.Year, d.Month, d.Day
			d.EndHasTime = true
			d.EndHour, _ = strconv.Atoi(m[7])
			d.EndMinute, _ = strconv.Atoi(m[8])
		}
	}
	return d, nil
}

// LoadAll reads every path, merging any todo/done keywords discovered
// along the way is left to the caller (this simplified loader takes the
// keyword set as configuration rather than parsing `#+TODO:` lines).
func LoadAll(paths []string, opts Options) ([]*runtime.OrgRootNode, error) {
	roots := make([]*runtime.OrgRootNode, 0, len(paths))
	for _, p := range paths {
		r, err := Load(p, opts)
		if err != nil {
			return nil, err
		}
		roots = append(roots, r)
	}
	return roots, nil
}
