package pane

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/justyntemme/twinpane/internal/fs"
	"github.com/justyntemme/twinpane/internal/opener"
	"github.com/justyntemme/twinpane/internal/watch"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	if err := os.WriteFile(path, make([]byte, size), 0644); err != nil {
		t.Fatalf("failed to create file %s: %v", path, err)
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func newTestPane(t *testing.T, dir string, o opener.Opener) *Pane {
	t.Helper()
	p, err := New(context.Background(), Options{
		ID:            "test",
		Path:          dir,
		PollInterval:  5 * time.Millisecond,
		CheckInterval: 20 * time.Millisecond,
		SortAscending: true,
		Opener:        o,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(p.Close)
	return p
}

// rowByName finds a row in the pane's current snapshot.
func rowByName(t *testing.T, p *Pane, fileName string) fs.Row {
	t.Helper()
	for _, r := range p.Snapshot().Rows() {
		if r.FileName() == fileName {
			return r
		}
	}
	t.Fatalf("no row %q", fileName)
	return fs.Row{}
}

func TestNew(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), 10)
	os.Mkdir(filepath.Join(dir, "sub"), 0755)

	p := newTestPane(t, dir, nil)

	if p.Path() != dir || p.PathField() != dir {
		t.Errorf("path = %q, field = %q, want %q", p.Path(), p.PathField(), dir)
	}
	if n := p.Snapshot().Len(); n != 3 {
		t.Errorf("expected parent + 2 rows, got %d", n)
	}
	if p.Watcher().State() != watch.Running {
		t.Error("watcher should be running")
	}
	if _, ok := p.ErrorMessage(time.Now()); ok {
		t.Error("fresh pane should have no error")
	}
}

func TestNew_Failure(t *testing.T) {
	_, err := New(context.Background(), Options{Path: filepath.Join(t.TempDir(), "ghost")})
	if err == nil {
		t.Fatal("expected an error for a missing start directory")
	}
}

func TestNew_GeneratesID(t *testing.T) {
	a, err := New(context.Background(), Options{Path: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	b, err := New(context.Background(), Options{Path: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	if a.ID() == "" || a.ID() == b.ID() {
		t.Errorf("expected distinct generated ids, got %q and %q", a.ID(), b.ID())
	}
}

func TestNavigate_Ghost(t *testing.T) {
	home := t.TempDir()
	writeFile(t, filepath.Join(home, "a.txt"), 10)
	p := newTestPane(t, home, nil)

	snap := p.Snapshot()
	w := p.Watcher()
	row := rowByName(t, p, "a.txt")
	p.Select(row.ID, false)

	p.SetPathField(filepath.Join(home, "ghost"))
	p.CommitPathField()
	if target, ok := p.Pending(); !ok || target != filepath.Join(home, "ghost") {
		t.Fatalf("expected pending navigation, got %q %v", target, ok)
	}
	p.Sync()

	if p.Path() != home {
		t.Errorf("path = %q, want %q", p.Path(), home)
	}
	if p.PathField() != home {
		t.Errorf("path field should be restored, got %q", p.PathField())
	}
	if p.Snapshot() != snap {
		t.Error("snapshot should be untouched")
	}
	if p.Watcher() != w || w.State() != watch.Running {
		t.Error("watcher should keep running")
	}
	if !p.IsSelected(row.ID) {
		t.Error("selection should be untouched")
	}
	msg, ok := p.ErrorMessage(time.Now())
	if !ok || msg == "" {
		t.Fatal("expected an error message")
	}
	if _, ok := p.ErrorMessage(time.Now().Add(watch.DefaultErrorTTL + time.Second)); ok {
		t.Error("error message should expire")
	}
	if _, ok := p.Pending(); ok {
		t.Error("pending navigation should be consumed")
	}
}

func TestNavigate_NotDirectory(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")
	writeFile(t, file, 1)
	p := newTestPane(t, dir, nil)

	if err := p.Navigate(file); !errors.Is(err, ErrNotDirectory) {
		t.Errorf("expected ErrNotDirectory, got %v", err)
	}
	if p.Path() != dir {
		t.Error("path should not change")
	}
}

func TestNavigate_Success(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "sub")
	os.Mkdir(sub, 0755)
	writeFile(t, filepath.Join(sub, "x"), 1)
	writeFile(t, filepath.Join(sub, "y"), 1)

	p := newTestPane(t, root, nil)
	old := p.Watcher()
	p.Navigate(filepath.Join(root, "ghost"))

	p.Select(rowByName(t, p, "sub").ID, false)
	p.Activate(rowByName(t, p, "sub"))
	p.Sync()

	if p.Path() != sub {
		t.Fatalf("path = %q, want %q", p.Path(), sub)
	}
	if old.State() != watch.Joined {
		t.Errorf("old watcher should be joined, got %v", old.State())
	}
	if p.Watcher() == old || p.Watcher().Path() != sub {
		t.Error("a new watcher should watch the new directory")
	}
	if p.Watcher().Fingerprint() != p.Snapshot().Fingerprint {
		t.Error("new watcher should be seeded with the synchronous scan's fingerprint")
	}
	if len(p.SelectedIDs()) != 0 {
		t.Error("selection should be cleared")
	}
	if _, ok := p.ErrorMessage(time.Now()); ok {
		t.Error("error should be cleared")
	}
	if n := p.Snapshot().Len(); n != 3 {
		t.Errorf("expected parent + 2 rows, got %d", n)
	}

	// The parent row leads back up.
	p.Activate(p.Snapshot().At(0))
	p.Sync()
	if p.Path() != root {
		t.Errorf("path = %q, want %q", p.Path(), root)
	}
}

func TestSelect(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a", "b", "c"} {
		writeFile(t, filepath.Join(dir, name), 1)
	}
	p := newTestPane(t, dir, nil)
	a, b, c := rowByName(t, p, "a"), rowByName(t, p, "b"), rowByName(t, p, "c")

	p.Select(a.ID, false)
	p.Select(b.ID, false)
	if p.IsSelected(a.ID) || !p.IsSelected(b.ID) {
		t.Error("plain click should replace the selection")
	}

	p.Select(c.ID, true)
	if !p.IsSelected(b.ID) || !p.IsSelected(c.ID) {
		t.Error("toggle should add")
	}
	p.Select(b.ID, true)
	if p.IsSelected(b.ID) {
		t.Error("toggle should remove")
	}

	if p.Select(12345, false) {
		t.Error("unknown ids should be ignored")
	}

	p.RequestNavigate(dir)
	if p.Select(a.ID, false) {
		t.Error("selection should be ignored while navigation is pending")
	}
	p.Sync()
	if p.Select(a.ID, false) != true {
		t.Error("selection should work again after Sync")
	}
}

func TestCurrent_MaxIDTieBreak(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "one"), 1)
	writeFile(t, filepath.Join(dir, "two"), 1)
	p := newTestPane(t, dir, nil)
	one, two := rowByName(t, p, "one"), rowByName(t, p, "two")

	if _, ok := p.Current(); ok {
		t.Error("empty selection has no current row")
	}

	p.Select(one.ID, false)
	if cur, ok := p.Current(); !ok || cur.ID != one.ID {
		t.Error("single selection should be current")
	}

	p.Select(two.ID, true)
	want := max(one.ID, two.ID)
	cur, ok := p.Current()
	if !ok || cur.ID != want {
		t.Errorf("Current() = %d, want max id %d", cur.ID, want)
	}
}

func TestCurrent_ParentRow(t *testing.T) {
	p := newTestPane(t, t.TempDir(), nil)
	parent := p.Snapshot().At(0)
	if !parent.Imaginary {
		t.Fatal("expected parent row first")
	}
	p.Select(parent.ID, false)
	if _, ok := p.Current(); ok {
		t.Error("parent row should never be current")
	}
	if len(p.SelectedRows()) != 0 {
		t.Error("parent row should not be acted on")
	}
}

func TestCurrent_ParentRowWithOthers(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "one"), 1)
	writeFile(t, filepath.Join(dir, "two"), 1)
	p := newTestPane(t, dir, nil)
	parent := p.Snapshot().At(0)
	one, two := rowByName(t, p, "one"), rowByName(t, p, "two")

	p.Select(parent.ID, false)
	p.Select(one.ID, true)
	if cur, ok := p.Current(); !ok || cur.ID != one.ID {
		t.Errorf("Current() = %v, %v, want the only real row", cur.FileName(), ok)
	}

	// Force the parent row to hold the largest id.
	clear(p.selected)
	top := parent
	top.ID = ^uint64(0)
	p.selected[top.ID] = top
	p.selected[one.ID] = one
	p.selected[two.ID] = two
	want := max(one.ID, two.ID)
	if cur, ok := p.Current(); !ok || cur.ID != want {
		t.Errorf("Current() = %d, %v, want largest real id %d", cur.ID, ok, want)
	}
}

func TestSelection_SurvivesRebuild(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "gone.txt"), 5)
	p := newTestPane(t, dir, nil)

	row := rowByName(t, p, "gone.txt")
	p.Select(row.ID, false)
	seq := p.Seq()

	os.Remove(filepath.Join(dir, "gone.txt"))
	p.MarkDirty()
	p.Sync()
	waitFor(t, "rebuild", func() bool { return p.Seq() > seq })

	if _, ok := p.Snapshot().Lookup(row.ID); ok {
		t.Fatal("row should be gone from the new snapshot")
	}
	rows := p.SelectedRows()
	if len(rows) != 1 || rows[0].FileName() != "gone.txt" || rows[0].Size != 5 {
		t.Errorf("cached selection lost: %+v", rows)
	}
}

func TestMarkDirty(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a"), 1)
	p := newTestPane(t, dir, nil)

	seq := p.Seq()
	p.MarkDirty()
	if !p.Dirty() {
		t.Fatal("pane should be dirty")
	}
	p.Sync()
	if p.Dirty() {
		t.Error("Sync should hand the refresh to the watcher")
	}
	waitFor(t, "forced rebuild", func() bool { return p.Seq() > seq })
}

func TestSync_WatcherError(t *testing.T) {
	parent := t.TempDir()
	dir := filepath.Join(parent, "vol")
	os.Mkdir(dir, 0755)
	p := newTestPane(t, dir, nil)

	os.RemoveAll(dir)
	waitFor(t, "error message", func() bool {
		p.Sync()
		_, ok := p.ErrorMessage(time.Now())
		return ok
	})
	if p.Path() != dir {
		t.Error("a watcher error must not change the path")
	}
	if p.Watcher().State() != watch.Running {
		t.Error("watcher should keep polling")
	}
}

func TestActivate_File(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "doc.txt"), 1)

	var opened []string
	p := newTestPane(t, dir, opener.Func(func(path string) error {
		opened = append(opened, path)
		return errors.New("no launcher")
	}))

	p.Activate(rowByName(t, p, "doc.txt"))
	if len(opened) != 1 || opened[0] != filepath.Join(dir, "doc.txt") {
		t.Errorf("opened = %v", opened)
	}
	if _, ok := p.Pending(); ok {
		t.Error("opening a file must not navigate")
	}
}

func TestRename(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "old.txt"), 3)
	p := newTestPane(t, dir, nil)

	if err := p.Rename("x"); !errors.Is(err, ErrNoSelection) {
		t.Errorf("expected ErrNoSelection, got %v", err)
	}

	row := rowByName(t, p, "old.txt")
	p.Select(row.ID, false)

	if err := p.Rename("a/b"); !errors.Is(err, ErrInvalidName) {
		t.Errorf("expected ErrInvalidName, got %v", err)
	}
	if err := p.Rename("new.md"); err != nil {
		t.Fatal(err)
	}

	cur, ok := p.Current()
	if !ok {
		t.Fatal("selection should survive a rename")
	}
	if cur.Name != "new" || cur.Ext != ".md" || cur.Path != filepath.Join(dir, "new.md") {
		t.Errorf("cached row not updated: %+v", cur)
	}
	if !p.Dirty() {
		t.Error("rename should mark the pane dirty")
	}
	if _, err := os.Stat(filepath.Join(dir, "new.md")); err != nil {
		t.Error("file not renamed on disk")
	}
}

func TestExpandPath(t *testing.T) {
	dir := t.TempDir()
	p := newTestPane(t, dir, nil)
	home, _ := os.UserHomeDir()

	tests := []struct {
		in   string
		want string
	}{
		{"", dir},
		{"  ", dir},
		{"sub", filepath.Join(dir, "sub")},
		{"..", filepath.Dir(dir)},
		{"/tmp/../etc", "/etc"},
		{"~", home},
		{"~/docs", filepath.Join(home, "docs")},
	}
	for _, tt := range tests {
		if got := p.expandPath(tt.in); got != tt.want {
			t.Errorf("expandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClose(t *testing.T) {
	p, err := New(context.Background(), Options{Path: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	w := p.Watcher()
	p.Close()
	if w.State() != watch.Joined {
		t.Errorf("watcher state = %v, want joined", w.State())
	}
	p.Close()
	if err := p.Navigate("/"); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	p.Sync()
}

func TestHoverText(t *testing.T) {
	now := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)

	file := fs.Row{Name: "report", Ext: ".pdf", Size: 3 << 20, Kind: fs.KindRegular, ModTime: now.Add(-2 * time.Hour)}
	got := HoverText(file, now)
	if !strings.HasPrefix(got, "report.pdf\n3.0 MiB") || !strings.Contains(got, "2 hours ago") {
		t.Errorf("HoverText(file) = %q", got)
	}

	dir := fs.Row{Name: "src", Kind: fs.KindDir}
	if got := HoverText(dir, now); got != "src" {
		t.Errorf("HoverText(dir) = %q", got)
	}

	if got := HoverText(fs.Row{Name: "..", Kind: fs.KindDir, Imaginary: true}, now); got != "" {
		t.Errorf("HoverText(parent) = %q", got)
	}

	long := fs.Row{Name: strings.Repeat("x", 200), Kind: fs.KindDir}
	if got := HoverText(long, now); len(got) > hoverNameWidth {
		t.Errorf("long name not truncated: %d cells", len(got))
	}
}

func TestFilter(t *testing.T) {
	root := t.TempDir()
	os.Mkdir(filepath.Join(root, "docs"), 0755)
	writeFile(t, filepath.Join(root, "main.go"), 10)
	writeFile(t, filepath.Join(root, "main_test.go"), 4000)
	writeFile(t, filepath.Join(root, "README.md"), 10)

	p := newTestPane(t, root, nil)
	if n := len(p.Rows()); n != 5 {
		t.Fatalf("expected 5 rows unfiltered, got %d", n)
	}

	p.SetFilter("ext:go size:<1KiB")
	got := p.Rows()
	if len(got) != 2 || !got[0].Imaginary || got[1].FileName() != "main.go" {
		t.Errorf("filtered rows = %v", got)
	}
	if p.Filter() != "ext:go size:<1KiB" {
		t.Errorf("Filter = %q", p.Filter())
	}

	// Rows outside the filter stay in the snapshot and stay selectable.
	readme := rowByName(t, p, "README.md")
	if !p.Select(readme.ID, false) {
		t.Error("filtered-out row should still be selectable")
	}

	p.SetFilter("  ")
	if p.Filter() != "" || len(p.Rows()) != 5 {
		t.Error("blank filter should show everything")
	}

	p.SetFilter("doc")
	p.Navigate(filepath.Join(root, "docs"))
	if p.Filter() != "" {
		t.Error("navigation should drop the filter")
	}
}

func TestRefresh_KeepsSelectionAndFilter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "keep.txt"), 1)
	p := newTestPane(t, dir, nil)

	row := rowByName(t, p, "keep.txt")
	p.Select(row.ID, false)
	p.SetFilter("keep")
	seq := p.Seq()
	writeFile(t, filepath.Join(dir, "new.txt"), 1)

	p.Refresh()
	if !p.Dirty() {
		t.Fatal("Refresh should mark the pane dirty")
	}
	if _, pending := p.Pending(); pending {
		t.Error("Refresh should not queue a navigation")
	}
	p.Sync()
	waitFor(t, "rebuild", func() bool { return p.Seq() > seq })

	if !p.IsSelected(row.ID) {
		t.Error("selection lost on refresh")
	}
	if p.Filter() != "keep" {
		t.Error("filter lost on refresh")
	}
}
