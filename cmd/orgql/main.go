// Command orgql runs a query against one or more Org-mode archive files.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/chazu/orgql/compiler"
	"github.com/chazu/orgql/config"
	"github.com/chazu/orgql/internal/cache"
	"github.com/chazu/orgql/internal/lspserver"
	"github.com/chazu/orgql/internal/orgload"
	"github.com/chazu/orgql/runtime"
)

func usage() {
	fmt.Fprintf(os.Stderr, `orgql - query Org-mode task archives

Usage:
  orgql [flags] <query> <file.org> [file.org ...]
  orgql -serve

Flags:
`)
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
Examples:
  orgql '.[] | select(.todo == "TODO")' todo.org
  orgql '.[] | .[] | .heading' archive.org
  orgql -offset 10 -limit 5 '.[]' todo.org
`)
}

func main() {
	var (
		configDir = flag.String("config", ".", "directory to search for .orgql.toml, walking upward")
		offset    = flag.Int("offset", -1, "override $offset for this query (-1: use config default)")
		limit     = flag.Int("limit", -1, "override $limit for this query (-1: use config default)")
		noCache   = flag.Bool("no-cache", false, "disable the on-disk parse cache")
		serve     = flag.Bool("serve", false, "run as a language server over stdio instead of executing a query")
	)
	flag.Usage = usage
	flag.Parse()

	if *serve {
		if err := runServer(); err != nil {
			fmt.Fprintf(os.Stderr, "orgql: %v\n", err)
			os.Exit(1)
		}
		return
	}

	args := flag.Args()
	if len(args) < 2 {
		usage()
		os.Exit(2)
	}
	query, paths := args[0], args[1:]

	if err := run(*configDir, query, paths, *offset, *limit, !*noCache); err != nil {
		fmt.Fprintf(os.Stderr, "orgql: %v\n", err)
		os.Exit(1)
	}
}

func runServer() error {
	log.SetOutput(os.Stderr)
	return lspserver.New().Run()
}

func run(configDir, query string, paths []string, offsetFlag, limitFlag int, useCache bool) error {
	cfg, err := config.FindAndLoad(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ast, err := compiler.Parse(query)
	if err != nil {
		return fmt.Errorf("parse error: %w", err)
	}
	stage, err := runtime.Compile(ast)
	if err != nil {
		return fmt.Errorf("compile error: %w", err)
	}

	var store *cache.Store
	if useCache && cfg.Cache.Enabled {
		store, err = cache.Open(cfg.Cache.Path)
		if err != nil {
			log.Printf("orgql: cache disabled: %v", err)
			store = nil
		} else {
			defer store.Close()
		}
	}

	opts := orgload.Options{
		TodoKeys:         cfg.Org.TodoKeys,
		DoneKeys:         cfg.Org.DoneKeys,
		CategoryProperty: cfg.Org.CategoryProperty,
	}

	roots := make([]runtime.Value, 0, len(paths))
	for _, path := range paths {
		root, err := loadOne(path, opts, store)
		if err != nil {
			return err
		}
		roots = append(roots, root)
	}

	ctx := runtime.NewContext(evalVars(cfg, offsetFlag, limitFlag))
	in := runtime.Stream{runtime.NewList(roots...)}

	out, err := runtime.Run(stage, ctx, in)
	if err != nil {
		return fmt.Errorf("query error: %w", err)
	}

	if len(out) == 0 {
		fmt.Println("No results")
		return nil
	}
	for _, v := range out {
		fmt.Println(runtime.String(v))
	}
	return nil
}

// loadOne loads a single file, consulting and populating the cache (when
// present) around the parse.
func loadOne(path string, opts orgload.Options, store *cache.Store) (*runtime.OrgRootNode, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if store != nil {
		if root, ok, err := store.Get(path, info.ModTime()); err == nil && ok {
			return root, nil
		}
	}

	root, err := orgload.Load(path, opts)
	if err != nil {
		return nil, err
	}

	if store != nil {
		if err := store.Put(path, info.ModTime(), root); err != nil {
			log.Printf("orgql: cache write failed for %s: %v", path, err)
		}
	}
	return root, nil
}

// evalVars seeds the query's root scope with pagination defaults, the
// active todo/done keyword sets, and any custom vars from config.
func evalVars(cfg *config.Config, offsetFlag, limitFlag int) map[string]runtime.Value {
	offset, limit := cfg.Query.Offset, cfg.Query.Limit
	if offsetFlag >= 0 {
		offset = offsetFlag
	}
	if limitFlag >= 0 {
		limit = limitFlag
	}

	todoKeys := make([]runtime.Value, len(cfg.Org.TodoKeys))
	for i, k := range cfg.Org.TodoKeys {
		todoKeys[i] = runtime.Str(k)
	}
	doneKeys := make([]runtime.Value, len(cfg.Org.DoneKeys))
	for i, k := range cfg.Org.DoneKeys {
		doneKeys[i] = runtime.Str(k)
	}

	vars := map[string]runtime.Value{
		"offset":            runtime.Int(offset),
		"limit":             runtime.Int(limit),
		"todo_keys":         runtime.NewSet(todoKeys...),
		"done_keys":         runtime.NewSet(doneKeys...),
		"category_property": runtime.Str(cfg.Org.CategoryProperty),
	}
	for k, v := range cfg.Vars {
		vars[k] = runtime.Str(v)
	}
	return vars
}
