package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	tomlContent := `
[org]
todo-keys = ["TODO", "WAITING"]
done-keys = ["DONE", "CANCELLED"]
category-property = "CATEGORY"

[query]
offset = 0
limit = 100

[cache]
enabled = true
path = "cache.db"

[vars]
project = "acme"
`
	if err := os.WriteFile(filepath.Join(dir, ".orgql.toml"), []byte(tomlContent), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(c.Org.TodoKeys) != 2 || c.Org.TodoKeys[0] != "TODO" {
		t.Errorf("todo keys = %v", c.Org.TodoKeys)
	}
	if len(c.Org.DoneKeys) != 2 || c.Org.DoneKeys[1] != "CANCELLED" {
		t.Errorf("done keys = %v", c.Org.DoneKeys)
	}
	if c.Org.CategoryProperty != "CATEGORY" {
		t.Errorf("category property = %q, want CATEGORY", c.Org.CategoryProperty)
	}
	if c.Query.Limit != 100 {
		t.Errorf("limit = %d, want 100", c.Query.Limit)
	}
	if !c.Cache.Enabled {
		t.Error("cache enabled = false, want true")
	}
	if c.Vars["project"] != "acme" {
		t.Errorf("vars[project] = %q, want acme", c.Vars["project"])
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".orgql.toml"), []byte(""), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(c.Org.TodoKeys) != 1 || c.Org.TodoKeys[0] != "TODO" {
		t.Errorf("default todo keys = %v, want [TODO]", c.Org.TodoKeys)
	}
	if len(c.Org.DoneKeys) != 1 || c.Org.DoneKeys[0] != "DONE" {
		t.Errorf("default done keys = %v, want [DONE]", c.Org.DoneKeys)
	}
	if c.Cache.Path == "" {
		t.Error("cache path should have a default")
	}
}

func TestFindAndLoadFallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	c, err := FindAndLoad(dir)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if c.Org.TodoKeys[0] != "TODO" {
		t.Errorf("expected default config, got %v", c.Org.TodoKeys)
	}
}
