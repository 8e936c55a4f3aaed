package matchstore

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileIsEmpty(t *testing.T) {
	store, err := Load(filepath.Join(t.TempDir(), "confirmed_matches.json"))
	if err != nil {
		t.Fatal(err)
	}
	if store.Len() != 0 {
		t.Fatalf("len=%d", store.Len())
	}
	if _, ok := store.Lookup("john|smith"); ok {
		t.Fatal("empty store should not resolve anything")
	}
}

func TestRecordSaveRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "confirmed_matches.json")

	store, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	store.Record("john|smith", 42)
	if err := store.Save(); err != nil {
		t.Fatal(err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	id, ok := reloaded.Lookup("john|smith")
	if !ok || id != 42 {
		t.Fatalf("got id=%d ok=%v", id, ok)
	}
}

func TestSaveSkipsCleanStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "confirmed_matches.json")

	store, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Save(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("save without new decisions should not create the file")
	}
}
