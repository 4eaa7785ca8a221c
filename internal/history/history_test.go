package history

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestAppendAndRecent(t *testing.T) {
	store := openTestStore(t)

	entries := []Entry{
		{Line: "1 + 1", Status: StatusOK, Printed: "2", TraceID: "t1"},
		{Line: "-true", Status: StatusRuntimeError, Printed: "", TraceID: "t2"},
		{Line: "1 +", Status: StatusCompileError, Printed: "", TraceID: "t3"},
	}
	for _, e := range entries {
		if err := store.Append(e); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	recent, err := store.Recent(2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("len(recent) = %d, want 2", len(recent))
	}
	if recent[0].Line != "1 +" || recent[0].Status != StatusCompileError {
		t.Errorf("recent[0] = %+v, want the most recent entry", recent[0])
	}
	if recent[1].Line != "-true" {
		t.Errorf("recent[1] = %+v", recent[1])
	}
}

func TestRecentOnEmptyStoreReturnsNoRows(t *testing.T) {
	store := openTestStore(t)
	recent, err := store.Recent(5)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 0 {
		t.Errorf("len(recent) = %d, want 0", len(recent))
	}
}
