// Package convert rewrites the notes of an Anki package so that every Chinese
// word links to Pleco with tone-colored characters.
package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/f3rmion/plecoise/internal/anki"
	"github.com/f3rmion/plecoise/internal/annotate"
	"golang.org/x/sync/errgroup"
)

// NoteStore is the part of an Anki collection the converter works on.
type NoteStore interface {
	Notes(ctx context.Context) ([]anki.Note, error)
	FieldNames(ctx context.Context, modelID int64) ([]string, error)
	UpdateNotes(ctx context.Context, updates []anki.NoteUpdate, mod time.Time) error
	InjectCSS(ctx context.Context, css string) (changed, skipped int, err error)
}

// Options control a conversion.
type Options struct {
	// Fields limits conversion to these field names or 0-based ordinals.
	// Empty means every field.
	Fields []string
	// Workers is the number of notes transformed in parallel.
	Workers int
	// DryRun reports what would change without writing anything.
	DryRun bool
	// InjectCSS adds the tone stylesheet to every note type.
	InjectCSS bool
	Logger    *slog.Logger
	// Now stamps the mod column of changed notes.
	Now func() time.Time
}

// Stats summarizes a conversion.
type Stats struct {
	Collections   int
	Notes         int
	NotesChanged  int
	FieldsChanged int
	ModelsSkipped int
	ModelsStyled  int
}

func (s *Stats) add(o Stats) {
	s.Collections += o.Collections
	s.Notes += o.Notes
	s.NotesChanged += o.NotesChanged
	s.FieldsChanged += o.FieldsChanged
	s.ModelsSkipped += o.ModelsSkipped
	s.ModelsStyled += o.ModelsStyled
}

// Converter applies a Transformer to Anki collections.
type Converter struct {
	tr   *annotate.Transformer
	opts Options
	log  *slog.Logger
}

// New creates a Converter.
func New(tr *annotate.Transformer, opts Options) *Converter {
	if opts.Workers < 1 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Converter{tr: tr, opts: opts, log: log}
}

// Workers returns the resolved worker count.
func (c *Converter) Workers() int {
	return c.opts.Workers
}

// Run converts every collection of the package at input and writes the result
// to output. In dry-run mode output is not created.
func (c *Converter) Run(ctx context.Context, input, output string) (Stats, error) {
	var total Stats

	pkg, err := anki.Open(ctx, input)
	if err != nil {
		return total, fmt.Errorf("opening package: %w", err)
	}
	defer pkg.Close()

	names := pkg.Collections()
	if len(names) == 0 {
		return total, anki.ErrNoCollection
	}
	c.log.Debug("opened package", "path", pkg.Path(), "collections", len(names))

	for _, name := range names {
		stats, err := c.convertEntry(ctx, pkg, name)
		if err != nil {
			return total, fmt.Errorf("converting %s: %w", name, err)
		}
		total.add(stats)
	}

	if c.opts.DryRun {
		c.log.Info("dry run, no output written",
			"notes", total.Notes, "changed", total.NotesChanged, "fields", total.FieldsChanged)
		return total, nil
	}

	if err := pkg.SaveAs(ctx, output); err != nil {
		return total, fmt.Errorf("saving package: %w", err)
	}
	c.log.Info("saved package", "path", output,
		"notes", total.Notes, "changed", total.NotesChanged, "fields", total.FieldsChanged)
	return total, nil
}

func (c *Converter) convertEntry(ctx context.Context, pkg *anki.Package, name string) (Stats, error) {
	col, err := pkg.OpenCollection(ctx, name)
	if err != nil {
		return Stats{}, err
	}

	stats, err := c.Convert(ctx, col)
	if closeErr := col.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return Stats{}, err
	}

	c.log.Info("converted collection", "collection", name,
		"notes", stats.Notes, "changed", stats.NotesChanged, "skipped_models", stats.ModelsSkipped)
	return stats, nil
}

// Convert transforms the notes of one collection. Only notes whose fields
// change are written back.
func (c *Converter) Convert(ctx context.Context, store NoteStore) (Stats, error) {
	stats := Stats{Collections: 1}

	notes, err := store.Notes(ctx)
	if err != nil {
		return stats, err
	}
	stats.Notes = len(notes)

	selectors, skipped, err := c.selectors(ctx, store, notes)
	if err != nil {
		return stats, err
	}
	stats.ModelsSkipped = skipped

	results := make([]string, len(notes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Workers)
	for i, note := range notes {
		sel, ok := selectors[note.ModelID]
		if !ok {
			results[i] = note.Flds
			continue
		}
		i, note := i, note
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = c.tr.TransformFields(note.Flds, sel)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stats, err
	}

	var updates []anki.NoteUpdate
	for i, note := range notes {
		if results[i] == note.Flds {
			continue
		}
		updates = append(updates, anki.NoteUpdate{ID: note.ID, Flds: results[i]})
		stats.NotesChanged++
		stats.FieldsChanged += changedFields(note.Flds, results[i])
		c.log.Debug("note changed", "id", note.ID)
	}

	if c.opts.DryRun {
		return stats, nil
	}

	if err := store.UpdateNotes(ctx, updates, c.opts.Now()); err != nil {
		return stats, err
	}

	if c.opts.InjectCSS {
		styled, unstyled, err := store.InjectCSS(ctx, annotate.Stylesheet())
		if err != nil {
			return stats, err
		}
		stats.ModelsStyled = styled
		if unstyled > 0 {
			c.log.Warn("note types store their CSS outside the legacy models table; add the tone stylesheet in Anki",
				"note_types", unstyled)
		}
	}

	return stats, nil
}

// selectors resolves the configured fields for every note type used by
// notes. A nil selector selects every field; note types missing from the
// result are left alone.
func (c *Converter) selectors(ctx context.Context, store NoteStore, notes []anki.Note) (map[int64]func(int) bool, int, error) {
	selectors := make(map[int64]func(int) bool)
	seen := make(map[int64]bool)
	skipped := 0

	for _, note := range notes {
		if seen[note.ModelID] {
			continue
		}
		seen[note.ModelID] = true

		if len(c.opts.Fields) == 0 {
			selectors[note.ModelID] = nil
			continue
		}

		names, err := store.FieldNames(ctx, note.ModelID)
		if errors.Is(err, anki.ErrUnknownModel) {
			c.log.Warn("note type not found, skipping its notes", "model", note.ModelID)
			skipped++
			continue
		}
		if err != nil {
			return nil, 0, err
		}

		indices := ResolveFields(c.opts.Fields, names)
		if len(indices) == 0 {
			c.log.Warn("note type has none of the selected fields, skipping",
				"model", note.ModelID, "fields", strings.Join(names, ", "))
			skipped++
			continue
		}
		selectors[note.ModelID] = func(i int) bool { return indices[i] }
	}

	return selectors, skipped, nil
}

// ResolveFields maps field names or decimal ordinals to the positions they
// select among names. Names take precedence over ordinals.
func ResolveFields(fields, names []string) map[int]bool {
	indices := make(map[int]bool)
	for _, f := range fields {
		found := false
		for i, name := range names {
			if strings.EqualFold(name, f) {
				indices[i] = true
				found = true
			}
		}
		if found {
			continue
		}
		if n, err := strconv.Atoi(f); err == nil && n >= 0 && n < len(names) {
			indices[n] = true
		}
	}
	return indices
}

func changedFields(before, after string) int {
	a := strings.Split(before, annotate.FieldSeparator)
	b := strings.Split(after, annotate.FieldSeparator)
	n := 0
	for i := range a {
		if i < len(b) && a[i] != b[i] {
			n++
		}
	}
	return n
}
