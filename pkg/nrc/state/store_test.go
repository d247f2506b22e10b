package state

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/nappgui/nrc/pkg/nrc/types"
)

func openTestHistory(t *testing.T) *History {
	t.Helper()
	h, err := Open(filepath.Join(t.TempDir(), "state"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		if err := h.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	})
	return h
}

func TestStorePutGet(t *testing.T) {
	h := openTestHistory(t)

	id, err := h.Add(Record{Dest: "/out/a.c", Entries: 3})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if id == "" {
		t.Fatal("Add returned empty ID")
	}

	got, err := h.Get(id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Dest != "/out/a.c" || got.Entries != 3 {
		t.Errorf("Get = %+v", got)
	}
	if got.Time.IsZero() {
		t.Error("Time was not filled in")
	}
}

func TestStoreGetNotFound(t *testing.T) {
	h := openTestHistory(t)

	if _, err := h.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestHistoryRecent(t *testing.T) {
	h := openTestHistory(t)
	base := time.Now().Add(-time.Hour)

	for i, dest := range []string{"/out/a.c", "/out/b.pak", "/out/a.c", "/out/a.c"} {
		rec := Record{Time: base.Add(time.Duration(i) * time.Minute), Dest: dest, Entries: i}
		if _, err := h.Add(rec); err != nil {
			t.Fatal(err)
		}
	}

	all, err := h.Recent(0, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 4 {
		t.Fatalf("Recent(0) returned %d records, want 4", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].Time.After(all[i-1].Time) {
			t.Errorf("records not newest first at %d", i)
		}
	}
	if all[0].Entries != 3 {
		t.Errorf("newest record Entries = %d, want 3", all[0].Entries)
	}

	limited, err := h.Recent(2, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 2 {
		t.Errorf("Recent(2) returned %d records", len(limited))
	}

	onlyA, err := h.Recent(0, "/out/a.c")
	if err != nil {
		t.Fatal(err)
	}
	if len(onlyA) != 3 {
		t.Errorf("Recent(0, a.c) returned %d records, want 3", len(onlyA))
	}
}

func TestHistoryPrune(t *testing.T) {
	h := openTestHistory(t)

	old, err := h.Add(Record{Time: time.Now().Add(-72 * time.Hour), Dest: "/out/old.c"})
	if err != nil {
		t.Fatal(err)
	}
	fresh, err := h.Add(Record{Dest: "/out/new.c"})
	if err != nil {
		t.Fatal(err)
	}

	if n, err := h.Prune(0); err != nil || n != 0 {
		t.Errorf("Prune(0) = %d, %v; want 0, nil", n, err)
	}

	n, err := h.Prune(1)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Prune removed %d records, want 1", n)
	}

	if _, err := h.Get(old); !errors.Is(err, ErrNotFound) {
		t.Errorf("old record still present: %v", err)
	}
	if _, err := h.Get(fresh); err != nil {
		t.Errorf("fresh record missing: %v", err)
	}
}

func TestHistoryClear(t *testing.T) {
	h := openTestHistory(t)

	for i := 0; i < 3; i++ {
		if _, err := h.Add(Record{Dest: "/out/x.c"}); err != nil {
			t.Fatal(err)
		}
	}
	if err := h.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	recs, err := h.Recent(0, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 0 {
		t.Errorf("Recent after Clear returned %d records", len(recs))
	}
}

func TestNewRecord(t *testing.T) {
	res := types.CompileResult{
		Regenerated: true,
		Warnings:    []string{"w"},
		Entries:     2,
		Bytes:       10,
		Fingerprint: "ff",
	}

	rec := NewRecord("/src", "/out.pak", types.ModePacked, res)
	if rec.Mode != "packed" {
		t.Errorf("Mode = %q, want packed", rec.Mode)
	}
	if rec.Warnings != 1 || rec.Errors != 0 {
		t.Errorf("Warnings/Errors = %d/%d, want 1/0", rec.Warnings, rec.Errors)
	}
	if rec.ExitCode != int(types.WithWarnings) {
		t.Errorf("ExitCode = %d, want %d", rec.ExitCode, types.WithWarnings)
	}
}
