// Package testutil provides shared test helpers for setting up registries,
// letter stores, and statistics databases.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/pmartynov/otvet/internal/letters"
	"github.com/pmartynov/otvet/internal/registry"
	"github.com/pmartynov/otvet/internal/stats"
)

// RegistryDoc is the shape written to a temporary template configuration file.
type RegistryDoc struct {
	Templates []registry.Template                  `json:"templates"`
	Actions   map[string]registry.ActionDefinition `json:"actions"`
	Config    registry.Settings                    `json:"config"`
}

// WriteRegistryFile writes doc as JSON into a temp dir and returns the path.
func WriteRegistryFile(t *testing.T, doc RegistryDoc) string {
	t.Helper()
	if doc.Actions == nil {
		doc.Actions = map[string]registry.ActionDefinition{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "templates.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestRegistry loads a registry from the given document.
func TestRegistry(t *testing.T, doc RegistryDoc) *registry.Registry {
	t.Helper()
	reg, err := registry.Load(WriteRegistryFile(t, doc))
	if err != nil {
		t.Fatal(err)
	}
	return reg
}

// TestLetters creates a temporary letters directory with a store over it.
// Letter files are written from the given ref→YAML-content map.
func TestLetters(t *testing.T, files map[string]string) (string, *letters.FS) {
	t.Helper()
	dir := t.TempDir()
	for ref, content := range files {
		if err := os.WriteFile(filepath.Join(dir, ref), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	store, err := letters.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// TestStats creates a temporary SQLite stats database that is cleaned up
// automatically.
func TestStats(t *testing.T) *stats.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "otvet-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := stats.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
