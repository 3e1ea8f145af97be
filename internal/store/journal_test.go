package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

func openTest(t *testing.T, limit int) *Journal {
	t.Helper()
	j, err := Open(MemoryPath, limit)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestRecordAndRecent(t *testing.T) {
	ctx := context.Background()
	j := openTest(t, 0)

	at := time.Date(2024, 3, 9, 15, 4, 0, 0, time.UTC)
	id, err := j.Record(ctx, Entry{
		At:       at,
		Pane:     "left",
		Op:       "copy",
		Src:      "/a/x.txt",
		Dst:      "/b/x.txt",
		Bytes:    42,
		Duration: 3 * time.Millisecond,
	})
	if err != nil {
		t.Fatal(err)
	}
	if id != 1 {
		t.Errorf("first id = %d", id)
	}
	if _, err := j.Record(ctx, Entry{Op: "delete", Src: "/a/y", Err: "permission denied", Code: 15002}); err != nil {
		t.Fatal(err)
	}

	entries, err := j.Recent(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Op != "delete" || entries[0].OK() || entries[0].Code != 15002 {
		t.Errorf("newest entry wrong: %+v", entries[0])
	}
	first := entries[1]
	if !first.At.Equal(at) || first.Bytes != 42 || first.Duration != 3*time.Millisecond || first.Pane != "left" {
		t.Errorf("round trip lost fields: %+v", first)
	}
	if entries[0].At.IsZero() {
		t.Error("zero At should be filled in")
	}
}

func TestLimit(t *testing.T) {
	ctx := context.Background()
	j := openTest(t, 3)

	for i := 0; i < 10; i++ {
		if _, err := j.Record(ctx, Entry{Op: "mkdir", Src: fmt.Sprintf("/d%d", i)}); err != nil {
			t.Fatal(err)
		}
	}

	n, err := j.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("expected 3 entries kept, got %d", n)
	}
	entries, _ := j.Recent(ctx, 0)
	if entries[0].Src != "/d9" || entries[2].Src != "/d7" {
		t.Errorf("wrong entries kept: %v, %v", entries[0].Src, entries[2].Src)
	}
}

func TestFailures(t *testing.T) {
	ctx := context.Background()
	j := openTest(t, 0)

	j.Record(ctx, Entry{Op: "copy"})
	j.Record(ctx, Entry{Op: "move", Err: "boom"})
	j.Record(ctx, Entry{Op: "delete"})
	j.Record(ctx, Entry{Op: "mkdir", Err: "exists"})

	fails, err := j.Failures(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(fails) != 2 || fails[0].Op != "mkdir" || fails[1].Op != "move" {
		t.Errorf("unexpected failures: %+v", fails)
	}

	one, _ := j.Failures(ctx, 1)
	if len(one) != 1 {
		t.Errorf("expected 1 failure, got %d", len(one))
	}
}

func TestOpen_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "journal.db")
	j, err := Open(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := j.Record(context.Background(), Entry{Op: "copy"}); err != nil {
		t.Fatal(err)
	}
	j.Close()

	j, err = Open(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer j.Close()
	if n, _ := j.Count(context.Background()); n != 1 {
		t.Errorf("expected persisted entry, got %d", n)
	}
}

func TestClose_Nil(t *testing.T) {
	var j *Journal
	if err := j.Close(); err != nil {
		t.Error(err)
	}
}
