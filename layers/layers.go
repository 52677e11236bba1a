// Package layers loads layered overrides from YAML and applies them to a
// priority map. Each layer is one context with one priority:
//
//	layers:
//	  - context: defaults
//	    priority: 1
//	    values:
//	      feature.search: "off"
//	  - context: ops
//	    priority: 10
//	    values:
//	      feature.search: "on"
package layers

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/IvanBrykalov/prioritymap/priority"
)

var (
	// ErrEmptyContext is returned when a layer has no context name.
	ErrEmptyContext = errors.New("layer context must not be empty")

	// ErrDuplicateContext is returned when two layers share a context name.
	ErrDuplicateContext = errors.New("duplicate layer context")
)

// Document is a parsed layers file.
type Document struct {
	Layers []Layer `yaml:"layers"`
}

// Layer is one context's contribution.
type Layer struct {
	// Context names the writer; it must be unique within a Document.
	Context string `yaml:"context"`

	// Priority ranks the layer; absent means priority.DefaultPriority.
	Priority *int `yaml:"priority"`

	// Values maps keys to raw scalar values.
	Values map[string]string `yaml:"values"`
}

// Rank returns the layer's priority with the default applied.
func (l Layer) Rank() int {
	if l.Priority == nil {
		return priority.DefaultPriority
	}
	return *l.Priority
}

// Parse decodes and validates a layers document.
func Parse(data []byte) (*Document, error) {
	doc := &Document{}
	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("layers: parse yaml: %w", err)
	}
	if err := doc.validate(); err != nil {
		return nil, fmt.Errorf("layers: %w", err)
	}
	return doc, nil
}

// Load reads and parses the file at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("layers: read file: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// LoadFiles loads several files concurrently and concatenates their layers
// in argument order. Context names must be unique across all files.
func LoadFiles(ctx context.Context, paths ...string) (*Document, error) {
	docs := make([]*Document, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			d, err := Load(p)
			if err != nil {
				return err
			}
			docs[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := &Document{}
	for _, d := range docs {
		merged.Layers = append(merged.Layers, d.Layers...)
	}
	if err := merged.validate(); err != nil {
		return nil, fmt.Errorf("layers: %w", err)
	}
	return merged, nil
}

func (d *Document) validate() error {
	seen := make(map[string]struct{}, len(d.Layers))
	for i, l := range d.Layers {
		if l.Context == "" {
			return fmt.Errorf("layer %d: %w", i, ErrEmptyContext)
		}
		if _, dup := seen[l.Context]; dup {
			return fmt.Errorf("layer %d: %w: %q", i, ErrDuplicateContext, l.Context)
		}
		seen[l.Context] = struct{}{}
	}
	return nil
}
