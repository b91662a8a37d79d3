// Package cache persists parsed Org files across CLI invocations, keyed
// by path and modification time, so repeated queries against an
// unchanged archive skip re-parsing. The node tree is serialized with
// CBOR and stored as a blob column in a SQLite database, the way
// query results are materialized for reuse elsewhere in the pack.
package cache

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	_ "modernc.org/sqlite"

	"github.com/chazu/orgql/runtime"
)

// Store is a handle to the on-disk parse cache.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the cache database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cache: open %s: %w", path, err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS parsed_files (
			path     TEXT PRIMARY KEY,
			mod_time INTEGER NOT NULL,
			payload  BLOB NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// entry is the CBOR-serializable mirror of runtime.OrgRootNode. The
// runtime types themselves aren't tagged for CBOR since they're also the
// hot path for the evaluator; the cache keeps its own encoding shape and
// converts on the way in and out.
type entry struct {
	File     string
	TodoKeys []string
	DoneKeys []string
	Children []node
}

type node struct {
	Heading       string
	Level         int
	Todo          string
	Done          bool
	Priority      string
	Tags          []string
	Category      string
	Properties    map[string]string
	Body          string
	Scheduled     *date
	Deadline      *date
	Closed        *date
	Clocks        []clock
	RepeatedTasks []repeatedTask
	Children      []node
}

type date struct {
	Year, Month, Day          int
	Hour, Minute              int
	HasTime                   bool
	Active                    bool
	HasEnd                    bool
	EndYear, EndMonth, EndDay int
	EndHour, EndMinute        int
	EndHasTime                bool
}

type clock struct {
	Start    date
	End      date
	HasEnd   bool
	Active   bool
	Duration int
}

type repeatedTask struct {
	Timestamp date
	Before    string
	HasBefore bool
	After     string
	HasAfter  bool
	Active    bool
}

// Get returns the cached root node for path if the cache entry's
// mod_time matches modTime exactly, meaning the file hasn't changed
// since it was cached.
func (s *Store) Get(path string, modTime time.Time) (*runtime.OrgRootNode, bool, error) {
	var stored int64
	var payload []byte
	err := s.db.QueryRow(`SELECT mod_time, payload FROM parsed_files WHERE path = ?`, path).Scan(&stored, &payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: lookup %s: %w", path, err)
	}
	if stored != modTime.UnixNano() {
		return nil, false, nil
	}
	var e entry
	if err := cbor.Unmarshal(payload, &e); err != nil {
		return nil, false, fmt.Errorf("cache: decode %s: %w", path, err)
	}
	return fromEntry(e), true, nil
}

// Put stores root under path, tagged with modTime.
func (s *Store) Put(path string, modTime time.Time, root *runtime.OrgRootNode) error {
	payload, err := cbor.Marshal(toEntry(root))
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", path, err)
	}
	_, err = s.db.Exec(`
		INSERT INTO parsed_files (path, mod_time, payload) VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET mod_time = excluded.mod_time, payload = excluded.payload
	`, path, modTime.UnixNano(), payload)
	if err != nil {
		return fmt.Errorf("cache: store %s: %w", path, err)
	}
	return nil
}

func toEntry(r *runtime.OrgRootNode) entry {
	e := entry{File: r.File, TodoKeys: r.TodoKeys, DoneKeys: r.DoneKeys}
	for _, c := range r.Children {
		e.Children = append(e.Children, toNode(c))
	}
	return e
}

func toNode(n *runtime.OrgNode) node {
	out := node{
		Heading: n.Heading, Level: n.Level, Todo: n.Todo, Done: n.Done,
		Priority: n.Priority, Tags: n.Tags, Category: n.Category,
		Properties: n.Properties, Body: n.Body,
		Scheduled: toDateOpt(n.Scheduled), Deadline: toDateOpt(n.Deadline), Closed: toDateOpt(n.Closed),
	}
	for _, c := range n.Clocks {
		out.Clocks = append(out.Clocks, clock{
			Start: toDate(c.Start), End: toDate(c.End), HasEnd: c.HasEnd,
			Active: c.Active, Duration: c.Duration,
		})
	}
	for _, rt := range n.RepeatedTasks {
		out.RepeatedTasks = append(out.RepeatedTasks, repeatedTask{
			Timestamp: toDate(rt.Timestamp), Before: rt.Before, HasBefore: rt.HasBefore,
			After: rt.After, HasAfter: rt.HasAfter, Active: rt.Active,
		})
	}
	for _, c := range n.Children {
		out.Children = append(out.Children, toNode(c))
	}
	return out
}

func toDate(d runtime.OrgDate) date {
	return date{
		Year: d.Year, Month: d.Month, Day: d.Day, Hour: d.Hour, Minute: d.Minute,
		HasTime: d.HasTime, Active: d.Active, HasEnd: d.HasEnd,
		EndYear: d.EndYear, EndMonth: d.EndMonth, EndDay: d.EndDay,
		EndHour: d.EndHour, EndMinute: d.EndMinute, EndHasTime: d.EndHasTime,
	}
}

func toDateOpt(d *runtime.OrgDate) *date {
	if d == nil {
		return nil
	}
	v := toDate(*d)
	return &v
}

func fromEntry(e entry) *runtime.OrgRootNode {
	r := &runtime.OrgRootNode{File: e.File, TodoKeys: e.TodoKeys, DoneKeys: e.DoneKeys}
	for _, n := range e.Children {
		r.Children = append(r.Children, fromNode(n, nil))
	}
	return r
}

func fromNode(n node, parent *runtime.OrgNode) *runtime.OrgNode {
	out := &runtime.OrgNode{
		Heading: n.Heading, Level: n.Level, Todo: n.Todo, Done: n.Done,
		Priority: n.Priority, Tags: n.Tags, Category: n.Category,
		Properties: n.Properties, Body: n.Body,
		Scheduled: fromDateOpt(n.Scheduled), Deadline: fromDateOpt(n.Deadline), Closed: fromDateOpt(n.Closed),
		Parent: parent,
	}
	for _, c := range n.Clocks {
		out.Clocks = append(out.Clocks, runtime.OrgDateClock{
			Start: fromDate(c.Start), End: fromDate(c.End), HasEnd: c.HasEnd,
			Active: c.Active, Duration: c.Duration,
		})
	}
	for _, rt := range n.RepeatedTasks {
		out.RepeatedTasks = append(out.RepeatedTasks, runtime.OrgDateRepeatedTask{
			Timestamp: fromDate(rt.Timestamp), Before: rt.Before, HasBefore: rt.HasBefore,
			After: rt.After, HasAfter: rt.HasAfter, Active: rt.Active,
		})
	}
	for _, c := range n.Children {
		out.Children = append(out.Children, fromNode(c, out))
	}
	return out
}

func fromDate(d date) runtime.OrgDate {
	return runtime.OrgDate{
		Year: d.Year, Month: d.Month, Day: d.Day, Hour: d.Hour, Minute: d.Minute,
		HasTime: d.HasTime, Active: d.Active, HasEnd: d.HasEnd,
		EndYear: d.EndYear, EndMonth: d.EndMonth, EndDay: d.EndDay,
		EndHour: d.EndHour, EndMinute: d.EndMinute, EndHasTime: d.EndHasTime,
	}
}

func fromDateOpt(d *date) *runtime.OrgDate {
	if d == nil {
		return nil
	}
	v := fromDate(*d)
	return &v
}
