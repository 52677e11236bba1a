package layers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/IvanBrykalov/prioritymap/priority"
	"github.com/IvanBrykalov/prioritymap/tick"
)

var (
	_ Target = (*priority.Map[string, string])(nil)
	_ Target = (*priority.Synced[string, string])(nil)
)

const sample = `
layers:
  - context: defaults
    values:
      feature.search: "off"
      log.level: info
      retries: 3
  - context: ops
    priority: 10
    values:
      feature.search: "on"
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestParse_Valid(t *testing.T) {
	t.Parallel()

	doc, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(doc.Layers) != 2 {
		t.Fatalf("layers: got %d, want 2", len(doc.Layers))
	}
	def := doc.Layers[0]
	if def.Context != "defaults" || def.Rank() != priority.DefaultPriority {
		t.Errorf("defaults layer: context=%q rank=%d", def.Context, def.Rank())
	}
	if def.Values["retries"] != "3" {
		t.Errorf("non-string scalars must decode as text, got %q", def.Values["retries"])
	}
	if doc.Layers[1].Rank() != 10 {
		t.Errorf("ops rank: got %d", doc.Layers[1].Rank())
	}
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		yaml string
		want error
	}{
		{"empty context", "layers:\n  - priority: 2\n", ErrEmptyContext},
		{"duplicate", "layers:\n  - context: a\n  - context: a\n", ErrDuplicateContext},
	}
	for _, c := range cases {
		if _, err := Parse([]byte(c.yaml)); !errors.Is(err, c.want) {
			t.Errorf("%s: want %v, got %v", c.name, c.want, err)
		}
	}

	if _, err := Parse([]byte("layers: [")); err == nil {
		t.Error("malformed yaml must fail")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("want ErrNotExist, got %v", err)
	}
}

func TestLoadFiles_MergesInOrder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := writeFile(t, dir, "a.yaml", "layers:\n  - context: a\n    values: {k: a}\n")
	b := writeFile(t, dir, "b.yaml", "layers:\n  - context: b\n    values: {k: b}\n")

	doc, err := LoadFiles(context.Background(), a, b)
	if err != nil {
		t.Fatalf("LoadFiles: %v", err)
	}
	if len(doc.Layers) != 2 || doc.Layers[0].Context != "a" || doc.Layers[1].Context != "b" {
		t.Fatalf("unexpected layers: %+v", doc.Layers)
	}

	dup := writeFile(t, dir, "dup.yaml", "layers:\n  - context: a\n")
	if _, err := LoadFiles(context.Background(), a, dup); !errors.Is(err, ErrDuplicateContext) {
		t.Fatalf("cross-file duplicate: want ErrDuplicateContext, got %v", err)
	}
}

func TestApplier_ApplyAndRetract(t *testing.T) {
	t.Parallel()

	m := priority.New[string, string](priority.Options{Ticks: tick.NewCounter()})
	m.SetWith("feature.search", "manual", "user", 5) // not owned by the applier

	doc, err := Parse([]byte(sample))
	if err != nil {
		t.Fatal(err)
	}
	var a Applier
	res := a.Apply(m, doc)
	if res.Set != 4 || res.Retracted != 0 {
		t.Fatalf("first apply: %+v", res)
	}
	if v, _ := m.Get("feature.search"); v != "on" {
		t.Fatalf("ops layer must win, got %q", v)
	}

	// ops layer removed, defaults drops retries.
	next, err := Parse([]byte(`
layers:
  - context: defaults
    values:
      feature.search: "off"
      log.level: debug
`))
	if err != nil {
		t.Fatal(err)
	}
	res = a.Apply(m, next)
	if res.Set != 1 || res.Unchanged != 1 || res.Retracted != 2 {
		t.Fatalf("second apply: %+v", res)
	}
	if v, _ := m.Get("feature.search"); v != "manual" {
		t.Fatalf("user context (priority 5) must win once ops is gone, got %q", v)
	}
	if m.Has("retries") {
		t.Fatal("retries must be pruned")
	}
	if v, _ := m.Get("log.level"); v != "debug" {
		t.Fatalf("log.level: got %q", v)
	}

	a.Apply(m, &Document{})
	if got := m.Keys(); len(got) != 1 || got[0] != "feature.search" {
		t.Fatalf("only the user-owned key may remain, got %v", got)
	}
}

func TestWatch_Reload(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "layers.yaml", "layers:\n  - context: a\n    values: {k: v1}\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan *Document, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(d *Document) { got <- d })
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)

	// An invalid write is skipped...
	writeFile(t, dir, "layers.yaml", "layers:\n  - context: \"\"\n")
	time.Sleep(100 * time.Millisecond)
	// ...and a valid one is delivered.
	writeFile(t, dir, "layers.yaml", "layers:\n  - context: a\n    values: {k: v2}\n")

	deadline := time.After(3 * time.Second)
	for {
		select {
		case d := <-got:
			if len(d.Layers) == 1 && d.Layers[0].Values["k"] == "v2" {
				cancel()
				if err := <-done; err != nil {
					t.Fatalf("Watch returned %v", err)
				}
				return
			}
		case <-deadline:
			t.Fatal("no reload observed")
		}
	}
}

// Reapplying an unchanged layer must not refresh its write order.
func TestApplier_UnchangedKeepsRecency(t *testing.T) {
	t.Parallel()

	m := priority.New[string, string](priority.Options{Ticks: tick.NewCounter()})
	doc, err := Parse([]byte("layers:\n  - context: file\n    values: {mode: fast}\n"))
	if err != nil {
		t.Fatal(err)
	}

	var a Applier
	a.Apply(m, doc)
	m.SetWith("mode", "safe", "runtime", priority.DefaultPriority) // same priority, later
	if v, _ := m.Get("mode"); v != "safe" {
		t.Fatalf("later runtime write must win, got %q", v)
	}

	res := a.Apply(m, doc)
	if res.Set != 0 || res.Unchanged != 1 {
		t.Fatalf("reapply: %+v", res)
	}
	if v, _ := m.Get("mode"); v != "safe" {
		t.Fatalf("reapplying an unchanged file overtook the runtime write, got %q", v)
	}

	// A changed value is written and becomes the latest.
	changed, err := Parse([]byte("layers:\n  - context: file\n    values: {mode: turbo}\n"))
	if err != nil {
		t.Fatal(err)
	}
	if res := a.Apply(m, changed); res.Set != 1 {
		t.Fatalf("changed apply: %+v", res)
	}
	if v, _ := m.Get("mode"); v != "turbo" {
		t.Fatalf("want turbo, got %q", v)
	}
}

func TestApplier_Logger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	a := Applier{Logger: slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))}
	m := priority.New[string, string](priority.Options{})
	doc, err := Parse([]byte(sample))
	if err != nil {
		t.Fatal(err)
	}
	a.Apply(m, doc)

	if out := buf.String(); !strings.Contains(out, "layers: applied") || !strings.Contains(out, "set=4") {
		t.Fatalf("missing apply log line: %q", out)
	}

	var quiet Applier // nil Logger discards
	quiet.Apply(priority.New[string, string](priority.Options{}), doc)
}

// Saving by rename replaces the inode; the watcher must keep following path.
func TestWatcher_RenameSave(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "layers.yaml", "layers:\n  - context: a\n    values: {k: v1}\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan *Document, 8)
	done := make(chan error, 1)
	w := &Watcher{Path: path, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	go func() {
		done <- w.Run(ctx, func(d *Document) { got <- d })
	}()
	time.Sleep(100 * time.Millisecond)

	save := func(v string) {
		tmp := writeFile(t, dir, "layers.yaml.tmp", "layers:\n  - context: a\n    values: {k: "+v+"}\n")
		if err := os.Rename(tmp, path); err != nil {
			t.Fatalf("rename: %v", err)
		}
	}

	wait := func(want string) {
		t.Helper()
		deadline := time.After(3 * time.Second)
		for {
			select {
			case d := <-got:
				if len(d.Layers) == 1 && d.Layers[0].Values["k"] == want {
					return
				}
			case <-deadline:
				t.Fatalf("no reload with k=%s observed", want)
			}
		}
	}

	// Two consecutive rename-saves: the second proves the watch survived the first.
	save("v2")
	wait("v2")
	save("v3")
	wait("v3")

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run returned %v", err)
	}
}
