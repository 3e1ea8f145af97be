package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/justyntemme/twinpane/internal/app"
	"github.com/justyntemme/twinpane/internal/config"
	"github.com/justyntemme/twinpane/internal/fs"
	"github.com/justyntemme/twinpane/internal/pane"
	"github.com/justyntemme/twinpane/internal/store"
	"github.com/justyntemme/twinpane/internal/trash"
)

var errQuit = errors.New("quit")

const helpText = `commands:
  focus N                  focus pane N
  cd PATH                  navigate the focused pane (~ and relative paths allowed)
  up                       go to the parent directory
  refresh                  rescan the focused pane
  sel NAME...              select rows by file name; the first replaces the selection
  open NAME                activate a row as a double click would
  info NAME                show size and age of a row
  filter [QUERY]           filter the focused pane, e.g. "ext:go size:>1KiB"
  sort COL [desc] [default]
                           sort by name, ext, size, modified or perm;
                           "default" also saves it to the config
  copy | move              copy or move the selection into the next pane
  rm                       delete the selection
  mkdir NAME               create a directory in the focused pane
  rename NAME              rename the current row
  view                     print the current row
  log [-failed] [N]        show the operation journal
  trash [ls | empty | rm NAME]
                           list, empty or purge from the trash
  ls                       print all panes
  quit`

// progressStep is how many bytes a copy or move writes between progress
// lines.
const progressStep = 1 << 20

// session holds what the command line works on. cfg may be nil, in which
// case sort defaults are not saved.
type session struct {
	c   *app.Commander
	cfg *config.Manager
	w   io.Writer

	// bytes written by the operation in progress, and the last printed step
	progressReq  app.OpRequest
	progressN    int64
	progressLast int64
}

// progress reports copy and move writes. It is handed to the Commander as
// its progress callback and runs on the loop goroutine.
func (s *session) progress(req app.OpRequest, n int64) {
	if req != s.progressReq {
		s.progressReq = req
		s.progressN, s.progressLast = 0, 0
	}
	s.progressN += n
	if step := s.progressN / progressStep; step > s.progressLast {
		s.progressLast = step
		fmt.Fprintf(s.w, "  %s %s: %s\n", req.Kind, filepath.Base(req.Src), humanize.IBytes(uint64(s.progressN)))
	}
}

// exec runs one command line.
func (s *session) exec(ctx context.Context, line string) error {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)
	c, w := s.c, s.w
	p := c.Focused()

	switch cmd {
	case "":
		return nil
	case "help", "?":
		fmt.Fprintln(w, helpText)
	case "quit", "exit":
		return errQuit

	case "focus":
		i, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("focus: %w", err)
		}
		return c.Focus(i)
	case "cd":
		p.RequestNavigate(arg)
	case "up":
		p.GoUp()
	case "refresh":
		p.Refresh()

	case "sel":
		for i, name := range strings.Fields(arg) {
			row, ok := findRow(p, name)
			if !ok {
				return fmt.Errorf("sel: no entry %q", name)
			}
			p.Select(row.ID, i > 0)
		}
	case "open":
		row, ok := findRow(p, arg)
		if !ok {
			return fmt.Errorf("open: no entry %q", arg)
		}
		p.Activate(row)
	case "info":
		row, ok := findRow(p, arg)
		if !ok {
			return fmt.Errorf("info: no entry %q", arg)
		}
		if text := pane.HoverText(row, time.Now()); text != "" {
			fmt.Fprintln(w, text)
		}
	case "filter":
		p.SetFilter(arg)
		printPane(w, c.FocusIndex(), p)
	case "sort":
		return s.sort(arg)

	case "copy":
		return c.Copy(ctx)
	case "move":
		return c.Move(ctx)
	case "rm":
		n := len(p.SelectedRows())
		verb := "Delete permanently"
		if c.Bin() != nil {
			verb = trash.VerbPhrase()
		}
		if n > 0 {
			fmt.Fprintf(w, "%s: %d %s\n", verb, n, plural(n, "item"))
		}
		return c.Delete(ctx)
	case "mkdir":
		return c.Mkdir(ctx, arg)
	case "rename":
		return c.Rename(arg)
	case "view":
		text, err := c.View()
		fmt.Fprint(w, text)
		return err

	case "log":
		return s.log(ctx, arg)
	case "trash":
		return s.trash(arg)
	case "ls":
		for i, pp := range c.Panes() {
			printPane(w, i, pp)
		}

	default:
		return fmt.Errorf("unknown command %q, try help", cmd)
	}
	return nil
}

func (s *session) sort(arg string) error {
	fields := strings.Fields(arg)
	if len(fields) == 0 {
		return errors.New("sort: need a column")
	}
	col, err := pane.ParseColumn(fields[0])
	if err != nil {
		return err
	}
	asc, save := true, false
	for _, f := range fields[1:] {
		switch f {
		case "desc":
			asc = false
		case "asc":
			asc = true
		case "default":
			save = true
		default:
			return fmt.Errorf("sort: unknown option %q", f)
		}
	}

	p := s.c.Focused()
	p.SetSort(col, asc)
	printPane(s.w, s.c.FocusIndex(), p)
	if !save {
		return nil
	}
	if s.cfg == nil {
		return errors.New("sort: no config to save to")
	}
	return s.cfg.SetSort(col.String(), asc)
}

func (s *session) log(ctx context.Context, arg string) error {
	j := s.c.Journal()
	if j == nil {
		return errors.New("journal disabled")
	}
	n, failed := 20, false
	for _, f := range strings.Fields(arg) {
		if f == "-failed" {
			failed = true
		} else if v, err := strconv.Atoi(f); err == nil {
			n = v
		}
	}

	total, err := j.Count(ctx)
	if err != nil {
		return err
	}
	var entries []store.Entry
	if failed {
		entries, err = j.Failures(ctx, n)
	} else {
		entries, err = j.Recent(ctx, n)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(s.w, "journal: %d %s\n", total, plural(total, "operation"))
	for _, e := range entries {
		status := "ok"
		if !e.OK() {
			status = fmt.Sprintf("E%d %s", e.Code, e.Err)
		}
		fmt.Fprintf(s.w, "%s  %-6s %s -> %s  %s\n", e.At.Format("15:04:05"), e.Op, e.Src, e.Dst, status)
	}
	return nil
}

func (s *session) trash(arg string) error {
	bin := s.c.Bin()
	if bin == nil {
		bin = trash.Default()
	}
	if !bin.Available() {
		return fmt.Errorf("trash: %w", trash.ErrUnavailable)
	}

	sub, name, _ := strings.Cut(arg, " ")
	name = strings.TrimSpace(name)
	switch sub {
	case "", "ls":
		items, err := bin.List()
		if err != nil {
			return err
		}
		fmt.Fprintf(s.w, "%s: %d %s\n", trash.DisplayName(), len(items), plural(len(items), "item"))
		for _, it := range items {
			orig := it.OriginalPath
			if orig == "" {
				orig = "?"
			}
			fmt.Fprintf(s.w, "  %s  %s  %s  %s\n", it.DeletedAt.Format("2006-01-02 15:04"),
				humanize.IBytes(uint64(max(it.Size, 0))), it.Name, orig)
		}
	case "empty":
		if err := bin.Empty(); err != nil {
			return err
		}
		fmt.Fprintf(s.w, "%s emptied\n", trash.DisplayName())
	case "rm":
		items, err := bin.List()
		if err != nil {
			return err
		}
		for _, it := range items {
			if it.Name == name {
				return bin.Delete(it)
			}
		}
		return fmt.Errorf("trash: no item %q", name)
	default:
		return fmt.Errorf("trash: unknown command %q", sub)
	}
	return nil
}

func findRow(p *pane.Pane, name string) (row fs.Row, ok bool) {
	for _, r := range p.Snapshot().Rows() {
		if r.FileName() == name {
			return r, true
		}
	}
	return row, false
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
