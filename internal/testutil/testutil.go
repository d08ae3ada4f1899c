// Package testutil provides shared test helpers for setting up libraries
// and key-value databases.
package testutil

import (
	"os"
	"testing"

	"github.com/starford/murmur/internal/kv"
	"github.com/starford/murmur/internal/storage"
)

// TestKV creates a temporary SQLite key-value database that is
// automatically cleaned up.
func TestKV(t *testing.T) *kv.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "murmur-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := kv.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestLibrary creates a temporary audio library with a storage.Provider.
func TestLibrary(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	lib, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, lib
}
