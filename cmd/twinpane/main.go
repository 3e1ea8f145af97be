package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/justyntemme/twinpane/internal/app"
	"github.com/justyntemme/twinpane/internal/config"
	"github.com/justyntemme/twinpane/internal/debug"
	"github.com/justyntemme/twinpane/internal/metrics"
	"github.com/justyntemme/twinpane/internal/opener"
	"github.com/justyntemme/twinpane/internal/pane"
	"github.com/justyntemme/twinpane/internal/store"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable all debug categories")
	configPath := flag.String("config", config.ConfigPath(), "Path to config.json")
	genConfig := flag.Bool("generate-config", false, "Write a fresh default config, backing up the old one, and exit")
	journalPath := flag.String("journal", "", "Operation journal database (default: in memory)")
	metricsAddr := flag.String("metrics", "", "Serve Prometheus metrics on this address, e.g. :9090")
	once := flag.Bool("once", false, "Print each pane's listing once and exit")
	flag.Parse()

	if *debugFlag {
		debug.EnableAll()
	}
	defer debug.Sync()

	if *genConfig {
		backup, err := config.GenerateConfig(*configPath)
		if err != nil {
			log.Fatalf("generate config: %v", err)
		}
		if backup != "" {
			fmt.Printf("old config saved to %s\n", backup)
		}
		fmt.Printf("wrote %s\n", *configPath)
		return
	}

	if err := run(*configPath, *journalPath, *metricsAddr, *once, flag.Args()); err != nil {
		log.Printf("twinpane: %v", err)
		debug.Sync()
		os.Exit(1)
	}
}

func run(configPath, journalPath, metricsAddr string, once bool, paths []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cm := config.NewManager()
	if err := cm.LoadFrom(configPath); err != nil {
		log.Printf("config: %v, using defaults", err)
	}
	if perr := cm.ParseError(); perr != nil {
		log.Printf("config %s: %v, using defaults", cm.Path(), perr)
	}
	cfg := cm.Get()

	var journal *store.Journal
	if cfg.Journal.Enabled {
		j, err := store.Open(journalPath, cfg.Journal.Size)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		journal = j
	}

	if metricsAddr != "" {
		srv := &http.Server{Addr: metricsAddr, Handler: metrics.Handler()}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("metrics: %v", err)
			}
		}()
		defer srv.Close()
	}

	s := &session{cfg: cm, w: os.Stdout}
	c, err := app.New(ctx, app.Options{
		Paths:    paths,
		Config:   cfg,
		Opener:   opener.System{},
		Journal:  journal,
		Progress: s.progress,
	})
	if err != nil {
		journal.Close()
		return err
	}
	defer c.Close()
	s.c = c

	if once {
		for i, p := range c.Panes() {
			printPane(os.Stdout, i, p)
		}
		return nil
	}
	return loop(ctx, s, readLines(ctx, os.Stdin), cfg.Watch.PollInterval.D())
}

// readLines feeds lines from r to the returned channel, closing it at EOF.
func readLines(ctx context.Context, r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

// loop drives the panes like a frame loop would, printing a pane whenever
// it publishes a new snapshot or its status message changes. Commands from
// input run on this goroutine between frames. The loop ends when ctx is
// done or the quit command is read; input reaching EOF only stops reading.
func loop(ctx context.Context, s *session, input <-chan string, frame time.Duration) error {
	c, w := s.c, s.w
	seen := make([]uint64, c.Len())
	msgs := make([]string, c.Len())

	ticker := time.NewTicker(frame)
	defer ticker.Stop()

	for {
		c.Sync()
		now := time.Now()
		for i, p := range c.Panes() {
			if seq := p.Seq(); seq != seen[i] {
				seen[i] = seq
				printPane(w, i, p)
			}
			msg, _ := p.ErrorMessage(now)
			if msg != msgs[i] {
				msgs[i] = msg
				if msg != "" {
					fmt.Fprintf(w, "[%d] %s\n", i, msg)
				}
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-input:
			if !ok {
				input = nil
				continue
			}
			if err := s.exec(ctx, line); errors.Is(err, errQuit) {
				return nil
			} else if err != nil {
				fmt.Fprintf(w, "[%d] %v\n", c.FocusIndex(), err)
			}
		case <-ticker.C:
		}
	}
}

func printPane(w io.Writer, i int, p *pane.Pane) {
	rows := p.Rows()
	col, asc := p.Sort()
	order := "asc"
	if !asc {
		order = "desc"
	}
	fmt.Fprintf(w, "[%d] %s (%d entries, by %s %s)\n", i, p.Path(), len(rows), col, order)
	for _, r := range rows {
		name := r.FileName()
		if r.IsDir() && !r.Imaginary {
			name += string(filepath.Separator)
		}
		if r.IsSymlink() {
			name += " @"
		}
		fmt.Fprintf(w, "  %s  %s  %s  %s\n", r.PermDisplay, r.SizeDisplay, r.ModTimeDisplay, strings.TrimSpace(name))
	}
}
