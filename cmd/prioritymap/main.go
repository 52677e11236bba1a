// Command prioritymap loads YAML layer files into a priority map, prints the
// resolved view, and optionally keeps watching the files and serving
// Prometheus metrics.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/IvanBrykalov/prioritymap/layers"
	pmet "github.com/IvanBrykalov/prioritymap/metrics/prom"
	"github.com/IvanBrykalov/prioritymap/priority"
)

func main() {
	// ---- Flags ----
	var (
		watch       = flag.Bool("watch", false, "keep running and re-apply files when they change")
		metricsAddr = flag.String("http", "", "serve Prometheus metrics at addr (e.g. :8080); empty = disabled")
		shards      = flag.Int("shards", 0, "number of map shards (0=auto)")
		explain     = flag.Bool("explain", false, "also print the contexts contributing to each key")
		verbose     = flag.Bool("v", false, "debug logging")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] layers.yaml...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	paths := flag.Args()
	if len(paths) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	opt := priority.Options{Shards: *shards, Logger: logger}

	// ---- Prometheus metrics (on DefaultServeMux) ----
	if *metricsAddr != "" {
		opt.Metrics = pmet.New(nil, "prioritymap", "cli", nil)
		http.Handle("/metrics", promhttp.Handler())
		go func() {
			log.Printf("metrics: serving at %s", *metricsAddr)
			log.Println(http.ListenAndServe(*metricsAddr, nil))
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	m := priority.NewSynced[string, string](opt)
	applier := &layers.Applier{Logger: logger}

	doc, err := layers.LoadFiles(ctx, paths...)
	if err != nil {
		log.Fatal(err)
	}
	applier.Apply(m, doc)
	render(os.Stdout, m, *explain)

	if !*watch {
		return
	}

	// Each file is watched on its own; any change reloads the full set so
	// cross-file context uniqueness is re-checked.
	g, gctx := errgroup.WithContext(ctx)
	for _, p := range paths {
		g.Go(func() error {
			w := &layers.Watcher{Path: p, Logger: logger}
			return w.Run(gctx, func(*layers.Document) {
				doc, err := layers.LoadFiles(gctx, paths...)
				if err != nil {
					logger.Error("reload failed", "err", err)
					return
				}
				res := applier.Apply(m, doc)
				logger.Info("layers applied", "set", res.Set, "unchanged", res.Unchanged, "retracted", res.Retracted)
				render(os.Stdout, m, *explain)
			})
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}
}

// render prints key=value lines sorted by key.
func render(w io.Writer, m *priority.Synced[string, string], explain bool) {
	resolved := m.ToMap()
	keys := make([]string, 0, len(resolved))
	for k := range resolved {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		if !explain {
			fmt.Fprintf(w, "%s=%s\n", k, resolved[k])
			continue
		}
		var ctxs []string
		m.Update(k, func(pm *priority.Map[string, string]) { ctxs = pm.Contexts(k) })
		fmt.Fprintf(w, "%s=%s\t# %s\n", k, resolved[k], strings.Join(ctxs, ","))
	}
}
